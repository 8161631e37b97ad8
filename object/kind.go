// Package object implements the opaque-handle object model (spec.md
// §2 "Object model", §4.1, §4.2): a per-device table of slots, each
// holding a kind tag, a subtype string, a parameter store, a
// reference count, and a backend-specific payload, addressed through
// generation-checked handles so a stale handle from a destroyed slot
// is detected rather than silently aliasing a new object.
//
// Grounded on engine's dataMap/dataID handle-table shape (engine/id.go)
// and on the bitm-backed free list engine/storage.go builds on top of
// it, generalized from engine's single GPU-resource kind to the full
// set of ANARI object kinds and widened with an explicit generation
// counter per slot (handle.Handle already reserves the bits for one;
// engine's dataID did not need ABA protection since the old engine
// callers never revisit a stale index).
package object

// Kind identifies what an Object represents. It mirrors the distinct
// handle subtypes of spec.md §2.
type Kind int

const (
	KindUnknown Kind = iota
	KindArray1D
	KindArray2D
	KindArray3D
	KindCamera
	KindFrame
	KindGeometry
	KindGroup
	KindInstance
	KindLight
	KindMaterial
	KindRenderer
	KindSampler
	KindSpatialField
	KindSurface
	KindVolume
	KindWorld
	KindDevice
	KindLibrary
)

var kindNames = [...]string{
	KindUnknown:      "UNKNOWN",
	KindArray1D:      "ARRAY1D",
	KindArray2D:      "ARRAY2D",
	KindArray3D:      "ARRAY3D",
	KindCamera:       "CAMERA",
	KindFrame:        "FRAME",
	KindGeometry:     "GEOMETRY",
	KindGroup:        "GROUP",
	KindInstance:     "INSTANCE",
	KindLight:        "LIGHT",
	KindMaterial:     "MATERIAL",
	KindRenderer:     "RENDERER",
	KindSampler:      "SAMPLER",
	KindSpatialField: "SPATIAL_FIELD",
	KindSurface:      "SURFACE",
	KindVolume:       "VOLUME",
	KindWorld:        "WORLD",
	KindDevice:       "DEVICE",
	KindLibrary:      "LIBRARY",
}

// String returns the ANARI name of k, e.g. "SURFACE".
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}
