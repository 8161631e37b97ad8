// Package debug implements the validation passthrough device (spec.md
// §4.8, §6.4): a device.Device that wraps any inner device.Device,
// forwarding every call while additionally rejecting null, dead and
// foreign-device handles, naming objects, and writing a replayable
// text trace when ANARI_DEBUG_TRACE_DIR is set. It does not check a
// handle's kind or a value's type against the parameter it is set on,
// and it does not diff a commit against the previous snapshot.
//
// Grounded on driver's pattern of small wrapper types around a Driver
// (present.go decorates a GPU the same way: same interface, added
// behavior, delegate for everything else) and internal/debugtrace for
// the per-instance trace directory.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/device"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/debugtrace"
	"github.com/anari-go/anari/internal/diag"
	"github.com/anari-go/anari/object"
	"github.com/anari-go/anari/param"
)

// Device wraps an inner device.Device with validation and tracing.
type Device struct {
	inner device.Device
	tbl   *object.Table // the inner device's table, for naming/leak reports
	log   *diag.Logger

	mu        sync.Mutex
	names     map[handle.Handle]string
	serial    map[object.Kind]*uint64
	traceDir  string
	traceFile *os.File
}

// Tabler is implemented by a device whose object.Table the debug layer
// can inspect for liveness/kind checks and leak reporting beyond what
// the narrow device.Device interface exposes.
type Tabler interface {
	Table() *object.Table
}

// Wrap returns a debug passthrough around inner. traceDirBase, if
// nonempty, causes a fresh per-instance trace directory to be created
// under it (spec.md §6.4, ANARI_DEBUG_TRACE_DIR).
func Wrap(inner device.Device, sink diag.Sink, traceDirBase string) *Device {
	d := &Device{
		inner:  inner,
		log:    diag.New(sink).WithPrefix("[VALIDATION]"),
		names:  make(map[handle.Handle]string),
		serial: make(map[object.Kind]*uint64),
	}
	if t, ok := inner.(Tabler); ok {
		d.tbl = t.Table()
	}
	if dir, ok := debugtrace.Dir(traceDirBase); ok {
		d.traceDir = dir
		if f, err := os.Create(filepath.Join(dir, "trace.c")); err == nil {
			d.traceFile = f
		}
	}
	inner.SetStatusCallback(sink)
	return d
}

func (d *Device) trace(format string, args ...any) {
	if d.traceFile == nil {
		return
	}
	fmt.Fprintf(d.traceFile, format+"\n", args...)
}

func (d *Device) nameFor(kind object.Kind, h handle.Handle) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.names[h]; ok {
		return n
	}
	ctr, ok := d.serial[kind]
	if !ok {
		var zero uint64
		ctr = &zero
		d.serial[kind] = ctr
	}
	n := fmt.Sprintf("%s%d", kind, atomic.AddUint64(ctr, 1))
	d.names[h] = n
	return n
}

// checkLive reports a VALIDATION error and returns false if h does not
// resolve to a live object in the wrapped device's table.
func (d *Device) checkLive(h handle.Handle, op string) bool {
	if h.IsNull() {
		d.log.Report(0, diag.Error, diag.CodeNullHandle, "%s: null handle", op)
		return false
	}
	if d.tbl == nil {
		return true // wrapped device does not expose a Table; skip the check
	}
	if _, ok := d.tbl.Get(h); !ok {
		if h.DeviceID() != d.tbl.DeviceID() {
			d.log.Report(0, diag.Error, diag.CodeKindMismatch, "%s: handle belongs to a different device", op)
			return false
		}
		d.log.Report(0, diag.Error, diag.CodeDeadHandle, "%s: handle does not refer to a live object", op)
		return false
	}
	return true
}

func (d *Device) NewArray1D(elemType atype.DataType, n1 uint64) (handle.Handle, error) {
	h, err := d.inner.NewArray1D(elemType, n1)
	d.trace("// NewArray1D(%s, %d) -> %s", elemType, n1, h)
	return h, err
}

func (d *Device) NewArray2D(elemType atype.DataType, n1, n2 uint64) (handle.Handle, error) {
	h, err := d.inner.NewArray2D(elemType, n1, n2)
	d.trace("// NewArray2D(%s, %d, %d) -> %s", elemType, n1, n2, h)
	return h, err
}

func (d *Device) NewArray3D(elemType atype.DataType, n1, n2, n3 uint64) (handle.Handle, error) {
	h, err := d.inner.NewArray3D(elemType, n1, n2, n3)
	d.trace("// NewArray3D(%s, %d, %d, %d) -> %s", elemType, n1, n2, n3, h)
	return h, err
}

func (d *Device) NewArray1DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1 uint64) (handle.Handle, error) {
	h, err := d.inner.NewArray1DAdopted(data, del, userdata, elemType, n1)
	d.trace("// NewArray1DAdopted(%s, %d) -> %s", elemType, n1, h)
	return h, err
}

func (d *Device) NewArray2DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1, n2 uint64) (handle.Handle, error) {
	h, err := d.inner.NewArray2DAdopted(data, del, userdata, elemType, n1, n2)
	d.trace("// NewArray2DAdopted(%s, %d, %d) -> %s", elemType, n1, n2, h)
	return h, err
}

func (d *Device) NewArray3DAdopted(data []byte, del param.Deleter, userdata any, elemType atype.DataType, n1, n2, n3 uint64) (handle.Handle, error) {
	h, err := d.inner.NewArray3DAdopted(data, del, userdata, elemType, n1, n2, n3)
	d.trace("// NewArray3DAdopted(%s, %d, %d, %d) -> %s", elemType, n1, n2, n3, h)
	return h, err
}

func (d *Device) NewObject(kind object.Kind, subtype string) (handle.Handle, error) {
	h, err := d.inner.NewObject(kind, subtype)
	if err == nil {
		d.nameFor(kind, h)
	}
	d.trace("// NewObject(%s, %q) -> %s", kind, subtype, h)
	return h, err
}

func (d *Device) SetParameter(obj handle.Handle, name string, t atype.DataType, data []byte) error {
	if !d.checkLive(obj, "setParameter") {
		return fmt.Errorf("debug: setParameter on dead or null handle")
	}
	d.trace("setParameter(%s, %q, %s, ...)", obj, name, t)
	return d.inner.SetParameter(obj, name, t, data)
}

func (d *Device) SetParameterHandle(obj handle.Handle, name string, t atype.DataType, value handle.Handle) error {
	if !d.checkLive(obj, "setParameter") {
		return fmt.Errorf("debug: setParameter on dead or null handle")
	}
	if !value.IsNull() && !d.checkLive(value, "setParameter(value)") {
		return fmt.Errorf("debug: setParameter references a dead handle")
	}
	d.trace("setParameter(%s, %q, %s, %s)", obj, name, t, value)
	return d.inner.SetParameterHandle(obj, name, t, value)
}

func (d *Device) SetParameterString(obj handle.Handle, name, value string) error {
	if !d.checkLive(obj, "setParameter") {
		return fmt.Errorf("debug: setParameter on dead or null handle")
	}
	d.trace("setParameter(%s, %q, STRING, %q)", obj, name, value)
	if name == "name" {
		d.mu.Lock()
		d.names[obj] = value
		d.mu.Unlock()
	}
	return d.inner.SetParameterString(obj, name, value)
}

func (d *Device) UnsetParameter(obj handle.Handle, name string) error {
	if !d.checkLive(obj, "unsetParameter") {
		return fmt.Errorf("debug: unsetParameter on dead or null handle")
	}
	d.trace("unsetParameter(%s, %q)", obj, name)
	return d.inner.UnsetParameter(obj, name)
}

func (d *Device) UnsetAllParameters(obj handle.Handle) error {
	if !d.checkLive(obj, "unsetAllParameters") {
		return fmt.Errorf("debug: unsetAllParameters on dead or null handle")
	}
	d.trace("unsetAllParameters(%s)", obj)
	return d.inner.UnsetAllParameters(obj)
}

func (d *Device) CommitParameters(obj handle.Handle) error {
	if !d.checkLive(obj, "commitParameters") {
		return fmt.Errorf("debug: commitParameters on dead or null handle")
	}
	d.trace("commitParameters(%s)", obj)
	return d.inner.CommitParameters(obj)
}

func (d *Device) Retain(obj handle.Handle) {
	d.trace("retain(%s)", obj)
	d.inner.Retain(obj)
}

func (d *Device) Release(obj handle.Handle) {
	if obj.IsNull() {
		return // release(null) is a documented no-op, spec.md §9
	}
	d.trace("release(%s)", obj)
	d.inner.Release(obj)
}

func (d *Device) GetProperty(obj handle.Handle, name string, t atype.DataType, out []byte, block bool) bool {
	if !d.checkLive(obj, "getProperty") {
		return false
	}
	return d.inner.GetProperty(obj, name, t, out, block)
}

func (d *Device) ObjectExtensions(kind object.Kind, subtype string) []string {
	return d.inner.ObjectExtensions(kind, subtype)
}

func (d *Device) InstanceExtensions(obj handle.Handle) []string {
	if !d.checkLive(obj, "instanceExtensions") {
		return nil
	}
	return d.inner.InstanceExtensions(obj)
}

func (d *Device) MapArray(arr handle.Handle) ([]byte, error) {
	if !d.checkLive(arr, "mapArray") {
		return nil, fmt.Errorf("debug: mapArray on dead or null handle")
	}
	return d.inner.MapArray(arr)
}

func (d *Device) UnmapArray(arr handle.Handle) error {
	if !d.checkLive(arr, "unmapArray") {
		return fmt.Errorf("debug: unmapArray on dead or null handle")
	}
	return d.inner.UnmapArray(arr)
}

func (d *Device) MapParameterArray(obj handle.Handle, name string, elemType atype.DataType, dims [3]uint64) ([]byte, error) {
	if !d.checkLive(obj, "mapParameterArray") {
		return nil, fmt.Errorf("debug: mapParameterArray on dead or null handle")
	}
	return d.inner.MapParameterArray(obj, name, elemType, dims)
}

func (d *Device) UnmapParameterArray(obj handle.Handle, name string) error {
	if !d.checkLive(obj, "unmapParameterArray") {
		return fmt.Errorf("debug: unmapParameterArray on dead or null handle")
	}
	return d.inner.UnmapParameterArray(obj, name)
}

func (d *Device) RenderFrame(fr handle.Handle) error {
	if !d.checkLive(fr, "renderFrame") {
		return fmt.Errorf("debug: renderFrame on dead or null handle")
	}
	d.trace("renderFrame(%s)", fr)
	return d.inner.RenderFrame(fr)
}

func (d *Device) FrameReady(fr handle.Handle, block bool) bool {
	if !d.checkLive(fr, "frameReady") {
		return false
	}
	ready := d.inner.FrameReady(fr, block)
	if ready {
		d.dumpPreview(fr)
	}
	return ready
}

func (d *Device) DiscardFrame(fr handle.Handle) error {
	if !d.checkLive(fr, "discardFrame") {
		return fmt.Errorf("debug: discardFrame on dead or null handle")
	}
	d.trace("discardFrame(%s)", fr)
	return d.inner.DiscardFrame(fr)
}

func (d *Device) MapFrame(fr handle.Handle, channel string) ([]byte, atype.DataType, uint32, uint32, error) {
	if !d.checkLive(fr, "mapFrame") {
		return nil, 0, 0, 0, fmt.Errorf("debug: mapFrame on dead or null handle")
	}
	return d.inner.MapFrame(fr, channel)
}

func (d *Device) UnmapFrame(fr handle.Handle, channel string) error {
	if !d.checkLive(fr, "unmapFrame") {
		return fmt.Errorf("debug: unmapFrame on dead or null handle")
	}
	d.trace("unmapFrame(%s, %q)", fr, channel)
	return d.inner.UnmapFrame(fr, channel)
}

func (d *Device) GetProcAddress(name string) (uintptr, bool) {
	addr, ok := d.inner.GetProcAddress(name)
	if !ok {
		d.log.Report(0, diag.Warning, diag.CodeNone, "getProcAddress: unresolved extension entry point %q", name)
	}
	return addr, ok
}

func (d *Device) SetStatusCallback(sink diag.Sink) {
	d.log = diag.New(sink).WithPrefix("[VALIDATION]")
	d.inner.SetStatusCallback(sink)
}

// Close reports every object still live in the wrapped device's table
// as a leak, then closes the trace file (spec.md §4.8, "leak reporting
// at device destruction").
func (d *Device) Close() error {
	if d.tbl != nil {
		d.tbl.Each(func(h handle.Handle, obj *object.Object) {
			d.log.Report(0, diag.Warning, diag.CodeNone, "leaked object %s (refcount=%d)", d.nameFor(obj.Kind(), h), obj.RefCount())
		})
	}
	if d.traceFile != nil {
		return d.traceFile.Close()
	}
	return nil
}
