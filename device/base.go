package device

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/frame"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/diag"
	"github.com/anari-go/anari/object"
	"github.com/anari-go/anari/param"
)

var deviceSerial uint32

// Base implements Device's bookkeeping (object table, parameters,
// arrays, frame lifecycle) against a single embedded object.Table and
// delegates rendering to a Renderer. A concrete backend embeds Base
// and satisfies device.Device automatically, only needing to
// construct itself with a Renderer.
type Base struct {
	id       uint16
	renderer Renderer
	tbl      *object.Table
	log      *diag.Logger

	framesMu sync.Mutex
	frames   map[handle.Handle]*frame.Instance

	arraysMu sync.Mutex
	arrays   map[handle.Handle]*param.Array
}

// NewBase allocates a Base with a fresh object.Table. deviceID
// distinguishes this device's handles from every other live device's
// in the same process (spec.md §9).
func NewBase(deviceID uint16, r Renderer) *Base {
	return &Base{
		id:       deviceID,
		renderer: r,
		tbl:      object.NewTable(deviceID),
		log:      diag.New(nil),
		frames:   make(map[handle.Handle]*frame.Instance),
		arrays:   make(map[handle.Handle]*param.Array),
	}
}

// NextDeviceID hands out process-unique small device IDs for the
// handle.Handle device field (spec.md §9).
func NextDeviceID() uint16 {
	return uint16(atomic.AddUint32(&deviceSerial, 1))
}

// Table exposes the underlying object.Table, e.g. for the debug
// passthrough's leak report at device destruction.
func (b *Base) Table() *object.Table { return b.tbl }

func (b *Base) SetStatusCallback(sink diag.Sink) { b.log = diag.New(sink) }

func (b *Base) NewArray1D(elemType atype.DataType, n1 uint64) (handle.Handle, error) {
	return b.newArray(elemType, [3]uint64{n1, 0, 0})
}

func (b *Base) NewArray2D(elemType atype.DataType, n1, n2 uint64) (handle.Handle, error) {
	return b.newArray(elemType, [3]uint64{n1, n2, 0})
}

func (b *Base) NewArray3D(elemType atype.DataType, n1, n2, n3 uint64) (handle.Handle, error) {
	return b.newArray(elemType, [3]uint64{n1, n2, n3})
}

func (b *Base) newArray(elemType atype.DataType, dims [3]uint64) (handle.Handle, error) {
	arr, err := param.NewOwned(elemType, dims)
	if err != nil {
		if errors.Is(err, param.ErrTooLarge) {
			b.log.Report(0, diag.Error, diag.CodeOutOfMemory, "newArray: %v", err)
		}
		return handle.Null, err
	}
	kind := arrayKind(dims)
	h, obj := b.tbl.New(kind, "")
	obj.SetImpl(arr)
	b.arraysMu.Lock()
	b.arrays[h] = arr
	b.arraysMu.Unlock()
	return h, nil
}

// NewArray1DAdopted, NewArray2DAdopted, NewArray3DAdopted adopt
// caller-supplied memory (spec.md §4.4). The registered deleter is
// invoked exactly once, by object.Table.Release, when the array's last
// reference is dropped.
func (b *Base) NewArray1DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1 uint64) (handle.Handle, error) {
	return b.newArrayAdopted(data, del, userdata, elemType, [3]uint64{n1, 0, 0})
}

func (b *Base) NewArray2DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1, n2 uint64) (handle.Handle, error) {
	return b.newArrayAdopted(data, del, userdata, elemType, [3]uint64{n1, n2, 0})
}

func (b *Base) NewArray3DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1, n2, n3 uint64) (handle.Handle, error) {
	return b.newArrayAdopted(data, del, userdata, elemType, [3]uint64{n1, n2, n3})
}

func (b *Base) newArrayAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, dims [3]uint64) (handle.Handle, error) {
	arr, err := param.NewAdopted(elemType, dims, data, del, userdata)
	if err != nil {
		return handle.Null, err
	}
	kind := arrayKind(dims)
	h, obj := b.tbl.New(kind, "")
	obj.SetImpl(arr)
	b.arraysMu.Lock()
	b.arrays[h] = arr
	b.arraysMu.Unlock()
	return h, nil
}

func arrayKind(dims [3]uint64) object.Kind {
	switch {
	case dims[2] != 0:
		return object.KindArray3D
	case dims[1] != 0:
		return object.KindArray2D
	default:
		return object.KindArray1D
	}
}

func (b *Base) NewObject(kind object.Kind, subtype string) (handle.Handle, error) {
	h, obj := b.tbl.New(kind, subtype)
	if kind == object.KindFrame {
		fr := frame.New()
		obj.SetImpl(fr)
		b.framesMu.Lock()
		b.frames[h] = fr
		b.framesMu.Unlock()
	}
	return h, nil
}

func (b *Base) obj(h handle.Handle) (*object.Object, error) {
	obj, ok := b.tbl.Get(h)
	if !ok {
		return nil, fmt.Errorf("device: handle does not resolve to a live object")
	}
	return obj, nil
}

// paramNameOK rejects an empty parameter name and reports NullString
// (spec.md §7): a C caller passing a null name pointer has no Go
// equivalent, but an empty name is the same "no name given" condition.
func (b *Base) paramNameOK(h handle.Handle, op, name string) bool {
	if name != "" {
		return true
	}
	b.log.Report(uint64(h), diag.Error, diag.CodeNullString, "%s: parameter name is empty", op)
	return false
}

func (b *Base) SetParameter(h handle.Handle, name string, t atype.DataType, data []byte) error {
	obj, err := b.obj(h)
	if err != nil {
		return err
	}
	if !b.paramNameOK(h, "setParameter", name) {
		return fmt.Errorf("device: parameter name is empty")
	}
	var v param.Value
	if data == nil && strings.HasPrefix(name, channelParamPrefix) {
		// A channel entry's value is its element type; it has no payload.
		v = param.Value{Type: t}
	} else if v, err = param.FromBytes(t, data); err != nil {
		return err
	}
	obj.Params().Set(name, v, b.tbl)
	obj.MarkDirty()
	return nil
}

func (b *Base) SetParameterHandle(h handle.Handle, name string, t atype.DataType, value handle.Handle) error {
	obj, err := b.obj(h)
	if err != nil {
		return err
	}
	if !b.paramNameOK(h, "setParameter", name) {
		return fmt.Errorf("device: parameter name is empty")
	}
	v, err := param.FromHandle(t, value)
	if err != nil {
		return err
	}
	obj.Params().Set(name, v, b.tbl)
	obj.MarkDirty()
	return nil
}

func (b *Base) SetParameterString(h handle.Handle, name, value string) error {
	obj, err := b.obj(h)
	if err != nil {
		return err
	}
	if !b.paramNameOK(h, "setParameter", name) {
		return fmt.Errorf("device: parameter name is empty")
	}
	obj.Params().Set(name, param.FromString(value), b.tbl)
	obj.MarkDirty()
	return nil
}

func (b *Base) UnsetParameter(h handle.Handle, name string) error {
	obj, err := b.obj(h)
	if err != nil {
		return err
	}
	obj.Params().Unset(name, b.tbl)
	obj.MarkDirty()
	return nil
}

func (b *Base) UnsetAllParameters(h handle.Handle) error {
	obj, err := b.obj(h)
	if err != nil {
		return err
	}
	obj.Params().UnsetAll(b.tbl)
	obj.MarkDirty()
	return nil
}

// SubtypeValidator is implemented by a Renderer that only recognizes a
// fixed set of subtypes per kind. A kind/subtype pair it rejects still
// constructs via NewObject; commitParameters is where the mismatch
// surfaces (spec.md §8 S8, "newObject on a subtype the reference
// backend does not recognize returns a handle whose commit reports
// BackendFailure via the status callback rather than crashing").
type SubtypeValidator interface {
	KnownSubtype(kind object.Kind, subtype string) bool
}

// ParamTypeProvider is implemented by a Renderer that declares the
// atype.DataType it expects for a named parameter of a given
// kind/subtype. commitParameters uses it to enforce spec.md §4.3's type
// agreement rule: a staged value whose type disagrees with the
// backend-declared type is reported as TypeMismatch rather than
// silently accepted.
type ParamTypeProvider interface {
	ParamType(kind object.Kind, subtype, name string) (atype.DataType, bool)
}

func (b *Base) CommitParameters(h handle.Handle) error {
	obj, err := b.obj(h)
	if err != nil {
		return err
	}
	obj.Params().Commit(b.tbl)
	obj.ClearDirty()
	if obj.Kind() == object.KindFrame {
		b.reconfigureFrame(h, obj)
	}
	if subtype := obj.Subtype(); subtype != "" {
		if v, ok := b.renderer.(SubtypeValidator); ok && !v.KnownSubtype(obj.Kind(), subtype) {
			b.log.Report(uint64(h), diag.FatalError, diag.CodeBackendFailure, "commitParameters: %s subtype %q not recognized by backend", obj.Kind(), subtype)
		}
		if p, ok := b.renderer.(ParamTypeProvider); ok {
			for _, name := range obj.Params().CommittedNames() {
				cv, ok := obj.Params().GetCommitted(name)
				if !ok {
					continue
				}
				want, known := p.ParamType(obj.Kind(), subtype, name)
				if known && want != cv.Type {
					b.log.Report(uint64(h), diag.Error, diag.CodeTypeMismatch, "commitParameters: %s parameter %q has type %s, backend expects %s", obj.Kind(), name, cv.Type, want)
				}
			}
		}
	}
	return nil
}

// channelParamPrefix names the per-channel parameter family spec.md
// §4.7 defines: "its parameters include a channel.<name> entry per
// desired output (value = the desired element type)".
const channelParamPrefix = "channel."

// reconfigureFrame applies a FRAME object's committed "size" and
// "channel.<name>" parameters to its frame.Instance, enabling exactly
// the channels the client staged with their declared element types
// (spec.md §4.7, "configuring a frame declares its dimensions and the
// set of channels it will produce").
func (b *Base) reconfigureFrame(h handle.Handle, obj *object.Object) {
	v, ok := obj.Params().GetCommitted("size")
	if !ok || v.Type != atype.Uint32Vec2 {
		return
	}
	data := v.Bytes()
	width := leUint32(data[0:4])
	height := leUint32(data[4:8])
	b.framesMu.Lock()
	fr, ok := b.frames[h]
	b.framesMu.Unlock()
	if !ok {
		return
	}

	channels := make(map[string]atype.DataType)
	for _, name := range obj.Params().CommittedNames() {
		chName, ok := strings.CutPrefix(name, channelParamPrefix)
		if !ok {
			continue
		}
		cv, ok := obj.Params().GetCommitted(name)
		if !ok {
			continue
		}
		channels[chName] = cv.Type
	}
	fr.Configure(width, height, channels)
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (b *Base) Retain(h handle.Handle)  { b.tbl.Retain(h) }
func (b *Base) Release(h handle.Handle) { b.tbl.Release(h) }

// GetProperty looks up a well-known introspectable property committed
// under name (spec.md §4.2, "getProperty exposes read-only,
// backend-computed facts such as bounding boxes"). Base only serves
// properties a committed parameter can already answer directly;
// backend-computed properties such as "bounds" are expected to be
// handled by the embedding backend before falling back to Base.
func (b *Base) GetProperty(h handle.Handle, name string, t atype.DataType, out []byte, block bool) bool {
	// Base's properties are already-committed parameter values, so they
	// are always immediately available; block has nothing to wait on
	// here. A backend computing a property asynchronously (spec.md
	// §6.2's motivating example is a bounds query that requires a scene
	// traversal) is expected to honor block itself before falling back
	// to Base.
	obj, err := b.obj(h)
	if err != nil {
		return false
	}
	v, ok := obj.Params().GetCommitted(name)
	if !ok || v.Type != t {
		return false
	}
	data := v.Bytes()
	if len(out) < len(data) {
		return false
	}
	copy(out, data)
	return true
}

// ExtensionsProvider is implemented by a Renderer that declares vendor
// extension names (spec.md §4.6). Base falls back to an empty list when
// the renderer does not implement it.
type ExtensionsProvider interface {
	DeviceExtensions() []string
}

// ObjectExtensions lists the extension names in effect for kind/subtype.
// Base has no per-object-kind extension data of its own; it reports the
// renderer's full device extension list, since this runtime does not
// yet narrow extensions to individual object kinds.
func (b *Base) ObjectExtensions(kind object.Kind, subtype string) []string {
	if p, ok := b.renderer.(ExtensionsProvider); ok {
		return p.DeviceExtensions()
	}
	return nil
}

// InstanceExtensions lists the extension names in effect for an
// already-constructed object. Mirrors ObjectExtensions until a backend
// needs per-instance extension state.
func (b *Base) InstanceExtensions(h handle.Handle) []string {
	if _, err := b.obj(h); err != nil {
		return nil
	}
	if p, ok := b.renderer.(ExtensionsProvider); ok {
		return p.DeviceExtensions()
	}
	return nil
}

func (b *Base) arrayFor(h handle.Handle) (*param.Array, error) {
	b.arraysMu.Lock()
	arr, ok := b.arrays[h]
	b.arraysMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("device: handle is not an array")
	}
	return arr, nil
}

func (b *Base) MapArray(h handle.Handle) ([]byte, error) {
	arr, err := b.arrayFor(h)
	if err != nil {
		return nil, err
	}
	data, err := arr.Map()
	if err != nil {
		b.reportMapError(h, "mapArray", err)
		return nil, err
	}
	return data, nil
}

func (b *Base) UnmapArray(h handle.Handle) error {
	arr, err := b.arrayFor(h)
	if err != nil {
		return err
	}
	if err := arr.Unmap(); err != nil {
		b.reportMapError(h, "unmapArray", err)
		return err
	}
	return nil
}

// reportMapError reports a param.Array map/unmap failure through the
// status callback with BusyResource, the code spec.md §8 assigns to
// "mapping an already-mapped array" (and, symmetrically, unmapping one
// that was never mapped).
func (b *Base) reportMapError(h handle.Handle, op string, err error) {
	if errors.Is(err, param.ErrAlreadyMapped) || errors.Is(err, param.ErrNotMapped) {
		b.log.Report(uint64(h), diag.Error, diag.CodeBusyResource, "%s: %v", op, err)
	}
}

// MapParameterArray allocates a fresh owned array, stages it as obj's
// name parameter, and returns it mapped for writing (spec.md §4.4,
// "mapParameterArray/unmapParameterArray let an application write
// array contents without a separate array object"). The array's
// handle is kept internal; ownership is transferred entirely to the
// parameter store.
func (b *Base) MapParameterArray(h handle.Handle, name string, elemType atype.DataType, dims [3]uint64) ([]byte, error) {
	obj, err := b.obj(h)
	if err != nil {
		return nil, err
	}
	arrH, err := b.newArray(elemType, dims)
	if err != nil {
		return nil, err
	}
	arrType, err := arrayParamType(dims)
	if err != nil {
		return nil, err
	}
	v, err := param.FromHandle(arrType, arrH)
	if err != nil {
		return nil, err
	}
	obj.Params().Set(name, v, b.tbl)
	// The parameter store now holds its own retain; drop the creation
	// reference so the array's lifetime is governed solely by the
	// parameter that references it.
	b.tbl.Release(arrH)
	obj.MarkDirty()

	arr, err := b.arrayFor(arrH)
	if err != nil {
		return nil, err
	}
	data, err := arr.Map()
	if err != nil {
		b.reportMapError(h, "mapParameterArray", err)
		return nil, err
	}
	return data, nil
}

func arrayParamType(dims [3]uint64) (atype.DataType, error) {
	switch arrayKind(dims) {
	case object.KindArray1D:
		return atype.Array1D, nil
	case object.KindArray2D:
		return atype.Array2D, nil
	default:
		return atype.Array3D, nil
	}
}

func (b *Base) UnmapParameterArray(h handle.Handle, name string) error {
	obj, err := b.obj(h)
	if err != nil {
		return err
	}
	v, ok := obj.Params().Get(name)
	if !ok {
		return fmt.Errorf("device: %q is not a staged parameter", name)
	}
	arrH, isHandle := v.AsHandle()
	if !isHandle {
		return fmt.Errorf("device: %q is not an array parameter", name)
	}
	arr, err := b.arrayFor(arrH)
	if err != nil {
		return err
	}
	if err := arr.Unmap(); err != nil {
		b.reportMapError(h, "unmapParameterArray", err)
		return err
	}
	return nil
}

func (b *Base) frameFor(h handle.Handle) (*object.Object, *frame.Instance, error) {
	obj, err := b.obj(h)
	if err != nil {
		return nil, nil, err
	}
	b.framesMu.Lock()
	fr, ok := b.frames[h]
	b.framesMu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("device: handle is not a frame")
	}
	return obj, fr, nil
}

func (b *Base) RenderFrame(h handle.Handle) error {
	obj, fr, err := b.frameFor(h)
	if err != nil {
		return err
	}
	if err := fr.Render(func() error {
		return b.renderer.Render(b.tbl, obj, fr)
	}); err != nil {
		b.reportFrameError(h, "renderFrame", err)
		return err
	}
	return nil
}

// reportFrameError reports a frame state-machine error through the
// status callback with StateViolation, the code spec.md §7 assigns to a
// call made while the frame is in a state that structurally disallows
// it (spec.md §4.7's lifecycle: Unconfigured/Configured/Idle/InFlight/
// Ready).
func (b *Base) reportFrameError(h handle.Handle, op string, err error) {
	switch {
	case errors.Is(err, frame.ErrNotConfigured), errors.Is(err, frame.ErrInFlight),
		errors.Is(err, frame.ErrNotReady), errors.Is(err, frame.ErrMapped),
		errors.Is(err, frame.ErrNotMapped):
		b.log.Report(uint64(h), diag.Error, diag.CodeStateViolation, "%s: %v", op, err)
	}
}

func (b *Base) FrameReady(h handle.Handle, block bool) bool {
	_, fr, err := b.frameFor(h)
	if err != nil {
		return false
	}
	return fr.Ready(block)
}

func (b *Base) DiscardFrame(h handle.Handle) error {
	_, fr, err := b.frameFor(h)
	if err != nil {
		return err
	}
	fr.Discard()
	return nil
}

func (b *Base) MapFrame(h handle.Handle, channel string) ([]byte, atype.DataType, uint32, uint32, error) {
	_, fr, err := b.frameFor(h)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	data, t, w, ht, err := fr.Map(channel)
	if err != nil {
		b.reportFrameError(h, "mapFrame", err)
		return nil, 0, 0, 0, err
	}
	return data, t, w, ht, nil
}

func (b *Base) UnmapFrame(h handle.Handle, channel string) error {
	_, fr, err := b.frameFor(h)
	if err != nil {
		return err
	}
	if err := fr.Unmap(channel); err != nil {
		b.reportFrameError(h, "unmapFrame", err)
		return err
	}
	return nil
}

// GetProcAddress resolves extension entry points (spec.md §4.6). Base
// has none of its own; a backend embedding Base overrides this to
// serve its own extensions.
func (b *Base) GetProcAddress(name string) (uintptr, bool) {
	return 0, false
}
