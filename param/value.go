// Package param implements the uniform parameter transport layer
// (spec.md §3 "Staged parameter", §4.3, §9 "Dynamic typing of
// parameters"): a tagged union keyed by atype.DataType, with a
// small-buffer optimization sized to a 3x4 float matrix (48 bytes;
// larger types are stored on the heap) and a dedicated handle slot for
// values that participate in reference counting.
//
// Grounded on the teacher's engine/material.go, which stages typed
// fields (TexRef, BaseColor, ...) before committing them into GPU
// descriptors, and on engine/storage.go's span-based byte transport for
// the heap-allocated case.
package param

import (
	"fmt"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/handle"
)

// smallSize is the inline buffer size, that of a FLOAT32_MAT3x4; a
// FLOAT32_MAT4 (64 bytes) does not fit and is stored in heap.
const smallSize = 48

// Value is a (type, data) pair staged or committed under some name.
type Value struct {
	Type  atype.DataType
	small [smallSize]byte
	heap  []byte
	h     handle.Handle
}

// FromBytes builds a Value for a trivially-copyable, non-handle,
// non-string type from its raw byte representation. len(data) must
// equal atype.Size(t).
func FromBytes(t atype.DataType, data []byte) (Value, error) {
	if atype.IsObject(t) {
		return Value{}, fmt.Errorf("param: %s is a handle type, use FromHandle", t)
	}
	if t == atype.String {
		return Value{}, fmt.Errorf("param: %s is a string type, use FromString", t)
	}
	want := atype.Size(t)
	if len(data) != want {
		return Value{}, fmt.Errorf("param: %s expects %d bytes, got %d", t, want, len(data))
	}
	v := Value{Type: t}
	if want <= smallSize {
		copy(v.small[:], data)
	} else {
		v.heap = append([]byte(nil), data...)
	}
	return v, nil
}

// FromHandle builds a Value referencing an object.
func FromHandle(t atype.DataType, h handle.Handle) (Value, error) {
	if !atype.IsObject(t) {
		return Value{}, fmt.Errorf("param: %s is not a handle type", t)
	}
	return Value{Type: t, h: h}, nil
}

// FromString builds a Value of type atype.String.
func FromString(s string) Value {
	return Value{Type: atype.String, heap: []byte(s)}
}

// Bytes returns the raw bytes of a non-handle, non-string Value.
func (v Value) Bytes() []byte {
	if atype.Size(v.Type) <= smallSize && !atype.IsObject(v.Type) && v.Type != atype.String {
		return v.small[:atype.Size(v.Type)]
	}
	return v.heap
}

// AsHandle returns the referenced handle and true if v is a handle
// Value. A non-handle Value returns (handle.Null, false).
func (v Value) AsHandle() (handle.Handle, bool) {
	if !atype.IsObject(v.Type) {
		return handle.Null, false
	}
	return v.h, true
}

// AsString returns the string payload and true if v is a String Value.
func (v Value) AsString() (string, bool) {
	if v.Type != atype.String {
		return "", false
	}
	return string(v.heap), true
}

// Equal reports whether v and w carry byte-identical payloads of the
// same type. Used by Store.Dirty and by tests asserting round-trip
// fidelity (spec.md §8, invariant 2).
func (v Value) Equal(w Value) bool {
	if v.Type != w.Type {
		return false
	}
	if atype.IsObject(v.Type) {
		return v.h == w.h
	}
	if v.Type == atype.String {
		vs, _ := v.AsString()
		ws, _ := w.AsString()
		return vs == ws
	}
	return string(v.Bytes()) == string(w.Bytes())
}
