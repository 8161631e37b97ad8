package helide

import (
	"sort"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/library"
	"github.com/anari-go/anari/object"
)

// paramDescriptor is this backend's own record of one parameter it
// reads off a committed object, shared between the library.Backend
// introspection surface (ParameterInfo) and device.ParamTypeProvider
// (commitParameters' type-agreement check). Grounded on the same
// parameter names raster.go and scene.go already read directly (spec.md
// §4.6, "parameterInfo describes exactly the parameters the backend
// actually consults").
type paramDescriptor struct {
	name        string
	typ         atype.DataType
	description string
	required    bool
}

var paramTable = map[object.Kind]map[string][]paramDescriptor{
	object.KindCamera: {
		"perspective": {
			{name: "position", typ: atype.Float32Vec3, description: "eye position, default (0,0,1)"},
			{name: "direction", typ: atype.Float32Vec3, description: "view direction, default (0,0,-1)"},
			{name: "up", typ: atype.Float32Vec3, description: "up vector, default (0,1,0)"},
			{name: "fovy", typ: atype.Float32, description: "vertical field of view in radians, default pi/3"},
		},
		"orthographic": {
			{name: "position", typ: atype.Float32Vec3, description: "eye position, default (0,0,1)"},
			{name: "direction", typ: atype.Float32Vec3, description: "view direction, default (0,0,-1)"},
			{name: "up", typ: atype.Float32Vec3, description: "up vector, default (0,1,0)"},
		},
	},
	object.KindGeometry: {
		"triangle": {
			{name: "vertex.position", typ: atype.Array1D, description: "per-vertex FLOAT32_VEC3 positions", required: true},
			{name: "primitive.index", typ: atype.Array1D, description: "per-triangle UINT32_VEC3 vertex indices; defaults to sequential triples"},
		},
	},
	object.KindMaterial: {
		"matte": {
			{name: "color", typ: atype.Float32Vec3, description: "flat base color, default (0.8,0.8,0.8)"},
		},
	},
	object.KindLight: {
		// Declared for introspection parity with the object model; the
		// flat rasterizer does not yet consult these (spec.md §4.6's
		// Non-goals for backend/helide carve out lighting response).
		"directional": {
			{name: "direction", typ: atype.Float32Vec3, required: true},
			{name: "color", typ: atype.Float32Vec3},
		},
		"point": {
			{name: "position", typ: atype.Float32Vec3, required: true},
			{name: "color", typ: atype.Float32Vec3},
		},
	},
	object.KindInstance: {
		"transform": {
			{name: "group", typ: atype.Group, required: true},
			{name: "transform", typ: atype.Float32Mat4, description: "column-major 4x4 object-to-world transform, default identity"},
		},
	},
}

// ObjectSubtypes implements library.Backend.
func (Backend) ObjectSubtypes(deviceSubtype string, kind object.Kind) []string {
	if deviceSubtype != "default" {
		return nil
	}
	set, ok := paramTable[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParameterInfo implements library.Backend.
func (Backend) ParameterInfo(deviceSubtype, objectSubtype string, kind object.Kind) []library.ParamInfo {
	if deviceSubtype != "default" {
		return nil
	}
	descs := paramTable[kind][objectSubtype]
	if descs == nil {
		return nil
	}
	out := make([]library.ParamInfo, len(descs))
	for i, d := range descs {
		out[i] = library.ParamInfo{
			Name:        d.name,
			Type:        d.typ,
			Description: d.description,
			Required:    d.required,
		}
	}
	return out
}

// DeviceExtensions implements library.Backend. helide declares no
// vendor extensions beyond the core API.
func (Backend) DeviceExtensions(deviceSubtype string) []string {
	return nil
}

// ParamType implements device.ParamTypeProvider, letting
// device.Base.CommitParameters report TypeMismatch when a staged
// value's type disagrees with what this backend expects to read.
func (d *Device) ParamType(kind object.Kind, subtype, name string) (atype.DataType, bool) {
	for _, desc := range paramTable[kind][subtype] {
		if desc.name == name {
			return desc.typ, true
		}
	}
	return 0, false
}
