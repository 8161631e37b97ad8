// Package handle defines the opaque reference type shared by every other
// package in the runtime. It exists on its own, with no dependency on
// atype/object/param, so that those packages can refer to handles without
// creating import cycles.
package handle

import "fmt"

// Handle is an opaque, comparable, type-tagged reference to an object
// living in some device's table. The zero value is Null and is never
// refcounted.
//
// A Handle packs three fields so that validity can be checked in O(1)
// without consulting the table it names:
//
//	bits 63-48: device id (16 bits)
//	bits 47-16: slot index (32 bits)
//	bits 15-0:  generation (16 bits)
//
// The generation guards against a stale Handle outliving the slot it
// named (classic slot-map ABA protection); the device id lets callers
// detect a Handle used against the wrong device (KindMismatch, spec.md
// §3 "Device") without dereferencing anything.
type Handle uint64

// Null is the invalid handle. release(Null) is a documented no-op
// (spec.md §9, Open Questions).
const Null Handle = 0

// Make packs a device id, slot index and generation into a Handle.
// index is restricted to 32 bits and gen to 16 bits; callers are
// expected to enforce those bounds (object.Table does).
func Make(deviceID uint16, index uint32, gen uint16) Handle {
	h := Handle(deviceID) << 48
	h |= Handle(index) << 16
	h |= Handle(gen)
	return h
}

// DeviceID returns the device id component.
func (h Handle) DeviceID() uint16 { return uint16(h >> 48) }

// Index returns the slot index component.
func (h Handle) Index() uint32 { return uint32(h >> 16) }

// Generation returns the generation component.
func (h Handle) Generation() uint16 { return uint16(h) }

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool { return h == Null }

func (h Handle) String() string {
	if h == Null {
		return "<null>"
	}
	return fmt.Sprintf("dev%d#%d.%d", h.DeviceID(), h.Index(), h.Generation())
}
