package object

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/bitm"
)

// Table is a per-device slot allocator for Objects, addressed by
// generation-checked handle.Handle values (spec.md §2, §4.1, §4.2). A
// Table satisfies param.Retainer, so a param.Store can be handed the
// owning device's Table directly as the Retainer it calls back into.
//
// Grounded on engine/id.go's dataMap/dataID generic handle-table and
// the bitm-backed free list engine/storage.go builds atop it.
type Table struct {
	deviceID uint16

	mu    sync.RWMutex
	slots bitm.Bitm[uint32]
	gens  []uint16
	objs  []*Object
}

// NewTable returns an empty Table for the given device ID, which is
// packed into every handle.Handle this Table mints so handles from
// different devices are distinguishable and cross-device misuse can
// be detected (spec.md §9, "handles are meaningless outside the
// device that created them").
func NewTable(deviceID uint16) *Table {
	return &Table{deviceID: deviceID}
}

// New allocates a slot for a fresh object of the given kind/subtype,
// with an initial reference count of 1, and returns its handle.
func (t *Table) New(kind Kind, subtype string) (handle.Handle, *Object) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.slots.Search()
	if !ok {
		const grow = 64
		idx = t.slots.Grow(grow)
		n := t.slots.Len() - idx // Grow adds grow words, not grow bits
		t.gens = append(t.gens, make([]uint16, n)...)
		t.objs = append(t.objs, make([]*Object, n)...)
	}
	t.slots.Set(idx)
	if t.deviceID == 0 && idx == 0 && t.gens[idx] == 0 {
		// handle.Make(0, 0, 0) is handle.Null; skip that generation.
		t.gens[idx] = 1
	}
	gen := t.gens[idx]
	obj := newObject(kind, subtype)
	t.objs[idx] = obj
	return handle.Make(t.deviceID, uint32(idx), gen), obj
}

// Get resolves h to its Object, checking that the slot is live and
// that h's generation matches the slot's current generation (rejecting
// stale handles from a destroyed object whose slot was reused).
func (t *Table) Get(h handle.Handle) (*Object, bool) {
	if h.IsNull() || h.DeviceID() != t.deviceID {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := int(h.Index())
	if idx >= len(t.objs) || !t.slots.IsSet(idx) {
		return nil, false
	}
	if t.gens[idx] != h.Generation() {
		return nil, false
	}
	return t.objs[idx], true
}

// Retain increments the refcount of the object h refers to. A null or
// dead handle is a no-op, matching release(null)'s no-op treatment
// (spec.md §9).
func (t *Table) Retain(h handle.Handle) {
	obj, ok := t.Get(h)
	if !ok {
		return
	}
	atomic.AddInt32(&obj.refs, 1)
}

// Releaser is implemented by a backend payload attached via
// Object.SetImpl that owns a resource needing explicit cleanup at
// object destruction, e.g. param.Array's adopted-memory deleter
// (spec.md §4.4, "the deleter ... invoked exactly once when the array
// is destroyed").
type Releaser interface {
	Release() error
}

// Release decrements the refcount of the object h refers to, and
// destroys the slot (running ReleaseAll on its parameter store, which
// recursively releases any handles it held, then Release on its Impl
// if it implements Releaser) when the count reaches zero. It returns
// true if this call destroyed the object.
func (t *Table) Release(h handle.Handle) bool {
	obj, ok := t.Get(h)
	if !ok {
		return false
	}
	if atomic.AddInt32(&obj.refs, -1) > 0 {
		return false
	}
	obj.params.ReleaseAll(t)
	if r, ok := obj.Impl().(Releaser); ok {
		_ = r.Release()
	}
	t.destroy(h)
	return true
}

func (t *Table) destroy(h handle.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := int(h.Index())
	if idx >= len(t.objs) || !t.slots.IsSet(idx) || t.gens[idx] != h.Generation() {
		return
	}
	t.objs[idx] = nil
	t.slots.Unset(idx)
	t.gens[idx]++
}

// DeviceID returns the device id every handle this Table mints carries,
// for cross-device misuse detection (spec.md §3, "cross-device mixing
// fails with KindMismatch").
func (t *Table) DeviceID() uint16 { return t.deviceID }

// Len returns the number of live objects, for leak reporting at device
// destruction (spec.md §4.8).
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for i := range t.objs {
		if t.slots.IsSet(i) {
			n++
		}
	}
	return n
}

// Each calls fn for every live handle/object pair. fn must not call
// back into the Table.
func (t *Table) Each(fn func(handle.Handle, *Object)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i, obj := range t.objs {
		if obj != nil && t.slots.IsSet(i) {
			fn(handle.Make(t.deviceID, uint32(i), t.gens[i]), obj)
		}
	}
}

// String implements fmt.Stringer for diagnostics.
func (t *Table) String() string {
	return fmt.Sprintf("object.Table{device=%d, live=%d}", t.deviceID, t.Len())
}
