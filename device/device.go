// Package device defines the operation table a backend implements
// (spec.md §4.5, §6.2) and a Base that backends embed for the
// bookkeeping every device needs regardless of rendering algorithm:
// object table management, parameter staging/commit, array transport,
// and frame lifecycle. A concrete backend (e.g. backend/helide) only
// has to supply a Renderer.
//
// Grounded on engine.go's device-ish global state (the package-level
// tables engine keeps for meshes, textures, materials) generalized
// into an instantiable, per-device struct, since ANARI allows more
// than one live device per process (spec.md §9, "devices are
// independent and may coexist").
package device

import (
	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/frame"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/diag"
	"github.com/anari-go/anari/object"
	"github.com/anari-go/anari/param"
)

// Device is the full set of operations a backend (or a decorator such
// as the debug passthrough) must support (spec.md §4.5, §6.2).
type Device interface {
	NewArray1D(elemType atype.DataType, numItems1 uint64) (handle.Handle, error)
	NewArray2D(elemType atype.DataType, numItems1, numItems2 uint64) (handle.Handle, error)
	NewArray3D(elemType atype.DataType, numItems1, numItems2, numItems3 uint64) (handle.Handle, error)

	// NewArray1DAdopted, NewArray2DAdopted, NewArray3DAdopted adopt
	// caller-supplied memory instead of allocating an owned buffer
	// (spec.md §4.4, "newArray1D/2D/3D(device, appMemory, deleter,
	// userPtr, elementType, dims...)"). del, if non-nil, runs exactly
	// once when the array is destroyed.
	NewArray1DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, numItems1 uint64) (handle.Handle, error)
	NewArray2DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, numItems1, numItems2 uint64) (handle.Handle, error)
	NewArray3DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, numItems1, numItems2, numItems3 uint64) (handle.Handle, error)

	NewObject(kind object.Kind, subtype string) (handle.Handle, error)

	SetParameter(obj handle.Handle, name string, t atype.DataType, data []byte) error
	SetParameterHandle(obj handle.Handle, name string, t atype.DataType, value handle.Handle) error
	SetParameterString(obj handle.Handle, name, value string) error
	UnsetParameter(obj handle.Handle, name string) error
	UnsetAllParameters(obj handle.Handle) error
	CommitParameters(obj handle.Handle) error

	Retain(obj handle.Handle)
	Release(obj handle.Handle)

	// GetProperty is a blocking query (spec.md §6.2, "getProperty(obj,
	// name, type, outBuf, size, waitMask) -> bool"). block mirrors
	// FrameReady's own wait flag: when true and the property is not yet
	// available, the call waits for it; backends that compute every
	// property synchronously simply ignore the distinction.
	GetProperty(obj handle.Handle, name string, t atype.DataType, out []byte, block bool) bool

	// ObjectExtensions lists the extension names in effect for the given
	// object kind/subtype before any instance of it exists (spec.md
	// §4.6, "object extension list"). InstanceExtensions narrows this to
	// a specific already-constructed object.
	ObjectExtensions(kind object.Kind, subtype string) []string
	InstanceExtensions(obj handle.Handle) []string

	MapArray(arr handle.Handle) ([]byte, error)
	UnmapArray(arr handle.Handle) error
	MapParameterArray(obj handle.Handle, name string, elemType atype.DataType, dims [3]uint64) ([]byte, error)
	UnmapParameterArray(obj handle.Handle, name string) error

	RenderFrame(fr handle.Handle) error
	FrameReady(fr handle.Handle, block bool) bool
	DiscardFrame(fr handle.Handle) error
	MapFrame(fr handle.Handle, channel string) ([]byte, atype.DataType, uint32, uint32, error)
	UnmapFrame(fr handle.Handle, channel string) error

	GetProcAddress(name string) (uintptr, bool)
	SetStatusCallback(sink diag.Sink)
}

// Renderer is what a concrete backend supplies beyond the generic
// bookkeeping Base already provides: given a committed scene reachable
// from a configured FRAME object, produce the channel contents.
type Renderer interface {
	// Render writes into fr's channels (via fr.SetChannelData) for the
	// world currently bound to the frame's "world" parameter. It runs
	// on its own goroutine per frame.Instance.Render's contract.
	Render(t *object.Table, frameObj *object.Object, fr *frame.Instance) error

	// DeviceSubtype returns the backend's ANARI device subtype name,
	// e.g. "helide".
	DeviceSubtype() string
}
