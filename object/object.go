package object

import (
	"sync"
	"sync/atomic"

	"github.com/anari-go/anari/param"
)

// Object is one entry in a Table: the runtime-visible state behind a
// handle.Handle. Impl carries whatever a backend needs to remember
// between commitParameters calls (e.g. a rasterizer's precomputed
// triangle list); the runtime never inspects it.
type Object struct {
	kind    Kind
	subtype string
	params  *param.Store
	refs    int32

	mu    sync.Mutex
	name  string
	dirty bool
	impl  any
}

func newObject(kind Kind, subtype string) *Object {
	return &Object{
		kind:    kind,
		subtype: subtype,
		params:  param.NewStore(),
		refs:    1,
		dirty:   true, // an object is dirty until its first commit (spec.md §4.3)
	}
}

// Kind returns the object's kind.
func (o *Object) Kind() Kind { return o.kind }

// Subtype returns the object's ANARI subtype string, e.g. "triangle"
// for a geometry or "matte" for a material.
func (o *Object) Subtype() string { return o.subtype }

// Params returns the object's parameter store.
func (o *Object) Params() *param.Store { return o.params }

// Name returns the debug name last set with SetName, or "" if none was
// set. The debug passthrough keeps its own <kindName><serial> names and
// does not set this field.
func (o *Object) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name
}

// SetName overrides the object's debug name.
func (o *Object) SetName(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.name = name
}

// MarkDirty flags the object as having staged changes not yet
// committed; device.Base calls it on every parameter change and calls
// ClearDirty on commitParameters.
func (o *Object) MarkDirty() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dirty = true
}

// ClearDirty clears the dirty flag.
func (o *Object) ClearDirty() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dirty = false
}

// Dirty reports whether the object has uncommitted-or-unconsumed state.
func (o *Object) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dirty
}

// Impl returns the backend-specific payload attached via SetImpl.
func (o *Object) Impl() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.impl
}

// SetImpl attaches a backend-specific payload to the object.
func (o *Object) SetImpl(impl any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.impl = impl
}

// RefCount returns the object's current reference count, for
// diagnostics and leak reporting (spec.md §4.8).
func (o *Object) RefCount() int32 {
	return atomic.LoadInt32(&o.refs)
}
