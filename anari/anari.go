// Package anari is the idiomatic-Go counterpart of the C ABI described
// in spec.md §6.2: load a library, open a device (optionally wrapped
// for validation), create and commit objects, and drive the
// render/map frame pipeline — all addressed by handle.Handle values
// instead of opaque pointers.
//
// Grounded on the teacher's top-level package (engine.go) as the
// single entry point client code imports, generalized from a
// GPU-resource-creation facade into a dispatch layer over device.Device.
package anari

import (
	"os"

	_ "github.com/anari-go/anari/backend/helide" // always-available reference backend
	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/debug"
	"github.com/anari-go/anari/device"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/diag"
	"github.com/anari-go/anari/library"
	"github.com/anari-go/anari/object"
	"github.com/anari-go/anari/param"
)

// Library is a loaded ANARI library, ready to construct devices.
type Library struct {
	lib *library.Library
}

// LoadLibrary resolves name (or "environment", spec.md §6.1) to a
// Library. Status callbacks are installed per device, via NewDevice's
// sink argument.
func LoadLibrary(name string) (*Library, error) {
	lib, err := library.Load(name)
	if err != nil {
		return nil, err
	}
	return &Library{lib: lib}, nil
}

// Unload releases the library's OS-level resources, if any.
func (l *Library) Unload() error { return l.lib.Unload() }

// DeviceSubtypes lists the device subtype names this library exposes.
func (l *Library) DeviceSubtypes() []string { return l.lib.DeviceSubtypes() }

// ObjectSubtypes, ParameterInfo, and DeviceExtensions expose the
// library-level introspection surface (spec.md §4.6): the set of object
// subtypes a device subtype recognizes, the parameters each accepts,
// and the vendor extensions the device subtype declares.
func (l *Library) ObjectSubtypes(deviceSubtype string, kind object.Kind) []string {
	return l.lib.ObjectSubtypes(deviceSubtype, kind)
}
func (l *Library) ParameterInfo(deviceSubtype, objectSubtype string, kind object.Kind) []library.ParamInfo {
	return l.lib.ParameterInfo(deviceSubtype, objectSubtype, kind)
}
func (l *Library) DeviceExtensions(deviceSubtype string) []string {
	return l.lib.DeviceExtensions(deviceSubtype)
}

// LoadModule and UnloadModule load/unload an optional named module
// (spec.md §4.2, §6.2, §6.3). Neither backend in this runtime exposes
// loadable modules, so both report the absence and succeed.
func (l *Library) LoadModule(name string) error   { return l.lib.LoadModule(name) }
func (l *Library) UnloadModule(name string) error { return l.lib.UnloadModule(name) }

// NewDevice constructs a device of the given subtype and always wraps
// it with the validation passthrough (spec.md §4.8, §6.4); a trace is
// written only when ANARI_DEBUG_TRACE_DIR is set.
func (l *Library) NewDevice(subtype string, sink diag.Sink) (*Device, error) {
	inner, err := l.lib.NewDevice(subtype)
	if err != nil {
		return nil, err
	}
	traceDir := os.Getenv("ANARI_DEBUG_TRACE_DIR")
	wrapped := debug.Wrap(inner, sink, traceDir)
	return &Device{dev: wrapped}, nil
}

// Device is a live ANARI device (spec.md §2, §4.5).
type Device struct {
	dev device.Device
}

// Release destroys the device, reporting any objects it still holds as
// leaks (spec.md §4.8).
func (d *Device) Release() error {
	if c, ok := d.dev.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// NewArray1D, NewArray2D, NewArray3D create typed arrays (spec.md §4.4).
func (d *Device) NewArray1D(elemType atype.DataType, n1 uint64) (handle.Handle, error) {
	return d.dev.NewArray1D(elemType, n1)
}
func (d *Device) NewArray2D(elemType atype.DataType, n1, n2 uint64) (handle.Handle, error) {
	return d.dev.NewArray2D(elemType, n1, n2)
}
func (d *Device) NewArray3D(elemType atype.DataType, n1, n2, n3 uint64) (handle.Handle, error) {
	return d.dev.NewArray3D(elemType, n1, n2, n3)
}

// NewArray1DAdopted, NewArray2DAdopted, NewArray3DAdopted create typed
// arrays over caller-supplied memory, invoking del exactly once at
// array destruction (spec.md §4.4).
func (d *Device) NewArray1DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1 uint64) (handle.Handle, error) {
	return d.dev.NewArray1DAdopted(data, del, userdata, elemType, n1)
}
func (d *Device) NewArray2DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1, n2 uint64) (handle.Handle, error) {
	return d.dev.NewArray2DAdopted(data, del, userdata, elemType, n1, n2)
}
func (d *Device) NewArray3DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1, n2, n3 uint64) (handle.Handle, error) {
	return d.dev.NewArray3DAdopted(data, del, userdata, elemType, n1, n2, n3)
}

// newObject is the common path for every per-kind New* constructor
// below (spec.md §4.1, "object creation is uniform across kinds").
func (d *Device) newObject(kind object.Kind, subtype string) (handle.Handle, error) {
	return d.dev.NewObject(kind, subtype)
}

func (d *Device) NewCamera(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindCamera, subtype)
}
func (d *Device) NewFrame() (handle.Handle, error) {
	return d.newObject(object.KindFrame, "")
}
func (d *Device) NewGeometry(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindGeometry, subtype)
}
func (d *Device) NewGroup() (handle.Handle, error) {
	return d.newObject(object.KindGroup, "")
}
func (d *Device) NewInstance(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindInstance, subtype)
}
func (d *Device) NewLight(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindLight, subtype)
}
func (d *Device) NewMaterial(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindMaterial, subtype)
}
func (d *Device) NewRenderer(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindRenderer, subtype)
}
func (d *Device) NewSampler(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindSampler, subtype)
}
func (d *Device) NewSpatialField(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindSpatialField, subtype)
}
func (d *Device) NewSurface() (handle.Handle, error) {
	return d.newObject(object.KindSurface, "")
}
func (d *Device) NewVolume(subtype string) (handle.Handle, error) {
	return d.newObject(object.KindVolume, subtype)
}
func (d *Device) NewWorld() (handle.Handle, error) {
	return d.newObject(object.KindWorld, "")
}

// SetParameter, SetParameterHandle, SetParameterString stage a named
// parameter (spec.md §4.3).
func (d *Device) SetParameter(obj handle.Handle, name string, t atype.DataType, data []byte) error {
	return d.dev.SetParameter(obj, name, t, data)
}
func (d *Device) SetParameterHandle(obj handle.Handle, name string, t atype.DataType, value handle.Handle) error {
	return d.dev.SetParameterHandle(obj, name, t, value)
}
func (d *Device) SetParameterString(obj handle.Handle, name, value string) error {
	return d.dev.SetParameterString(obj, name, value)
}
func (d *Device) UnsetParameter(obj handle.Handle, name string) error {
	return d.dev.UnsetParameter(obj, name)
}
func (d *Device) UnsetAllParameters(obj handle.Handle) error {
	return d.dev.UnsetAllParameters(obj)
}
func (d *Device) CommitParameters(obj handle.Handle) error {
	return d.dev.CommitParameters(obj)
}

// Retain and Release adjust an object's reference count (spec.md §4.2).
func (d *Device) Retain(obj handle.Handle)        { d.dev.Retain(obj) }
func (d *Device) ReleaseObject(obj handle.Handle) { d.dev.Release(obj) }

// GetProperty reads a committed or backend-computed property. block
// mirrors FrameReady's wait flag (spec.md §6.2's waitMask parameter).
func (d *Device) GetProperty(obj handle.Handle, name string, t atype.DataType, out []byte, block bool) bool {
	return d.dev.GetProperty(obj, name, t, out, block)
}

// ObjectExtensions and InstanceExtensions report the extension names in
// effect before and after an object is constructed (spec.md §4.6).
func (d *Device) ObjectExtensions(kind object.Kind, subtype string) []string {
	return d.dev.ObjectExtensions(kind, subtype)
}
func (d *Device) InstanceExtensions(obj handle.Handle) []string {
	return d.dev.InstanceExtensions(obj)
}

// MapArray, UnmapArray, MapParameterArray, UnmapParameterArray bracket
// direct access to array contents (spec.md §4.4).
func (d *Device) MapArray(arr handle.Handle) ([]byte, error) { return d.dev.MapArray(arr) }
func (d *Device) UnmapArray(arr handle.Handle) error          { return d.dev.UnmapArray(arr) }
func (d *Device) MapParameterArray(obj handle.Handle, name string, elemType atype.DataType, dims [3]uint64) ([]byte, error) {
	return d.dev.MapParameterArray(obj, name, elemType, dims)
}
func (d *Device) UnmapParameterArray(obj handle.Handle, name string) error {
	return d.dev.UnmapParameterArray(obj, name)
}

// RenderFrame, FrameReady, DiscardFrame, MapFrame, UnmapFrame drive the
// frame lifecycle (spec.md §4.7).
func (d *Device) RenderFrame(fr handle.Handle) error { return d.dev.RenderFrame(fr) }
func (d *Device) FrameReady(fr handle.Handle, block bool) bool {
	return d.dev.FrameReady(fr, block)
}
func (d *Device) DiscardFrame(fr handle.Handle) error { return d.dev.DiscardFrame(fr) }
func (d *Device) MapFrame(fr handle.Handle, channel string) ([]byte, atype.DataType, uint32, uint32, error) {
	return d.dev.MapFrame(fr, channel)
}
func (d *Device) UnmapFrame(fr handle.Handle, channel string) error {
	return d.dev.UnmapFrame(fr, channel)
}

// GetProcAddress resolves an extension entry point (spec.md §4.6).
func (d *Device) GetProcAddress(name string) (uintptr, bool) {
	return d.dev.GetProcAddress(name)
}

// SetStatusCallback installs a new status sink (spec.md §7).
func (d *Device) SetStatusCallback(sink diag.Sink) { d.dev.SetStatusCallback(sink) }
