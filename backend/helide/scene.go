// Package helide is the reference software backend (spec.md §4.6,
// "Non-goals" for backend/helide: a minimal flat-shaded rasterizer,
// not a physically based renderer). It implements library.Backend and
// device.Device (via device.Base) and is always linked into the
// runtime so a device is available even with no shared-object backend
// installed.
//
// Grounded on engine/renderer.go's draw-call submission loop,
// generalized from "traverse a scene graph of engine.Prim nodes and
// submit GPU draw calls" to "traverse an ANARI object graph and
// rasterize triangles into a CPU-side channel buffer".
package helide

import (
	"encoding/binary"
	"math"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/linear"
	"github.com/anari-go/anari/object"
	"github.com/anari-go/anari/param"
)

// triangle is one resolved, world-space triangle ready for rasterization.
type triangle struct {
	p0, p1, p2 linear.V3
	color      linear.V4
}

// resolveScene walks world -> instance -> group -> surface -> (geometry,
// material) and flattens every triangle into world space.
func resolveScene(t *object.Table, worldH handle.Handle) []triangle {
	world, ok := t.Get(worldH)
	if !ok {
		return nil
	}
	var tris []triangle
	for _, instH := range handleArray(t, world, "instance") {
		inst, ok := t.Get(instH)
		if !ok {
			continue
		}
		xform := instanceTransform(inst)
		groupH, ok := committedHandle(inst, "group")
		if !ok {
			continue
		}
		group, ok := t.Get(groupH)
		if !ok {
			continue
		}
		for _, surfH := range handleArray(t, group, "surface") {
			surf, ok := t.Get(surfH)
			if !ok {
				continue
			}
			tris = append(tris, resolveSurface(t, surf, xform)...)
		}
	}
	return tris
}

func resolveSurface(t *object.Table, surf *object.Object, xform linear.M4) []triangle {
	geomH, ok := committedHandle(surf, "geometry")
	if !ok {
		return nil
	}
	geom, ok := t.Get(geomH)
	if !ok {
		return nil
	}
	color := linear.V4{0.8, 0.8, 0.8, 1}
	if matH, ok := committedHandle(surf, "material"); ok {
		if mat, ok := t.Get(matH); ok {
			if c, ok := committedVec3(mat, "color"); ok {
				color = linear.V4{c[0], c[1], c[2], 1}
			}
		}
	}

	positions := arrayFloat3(t, geom, "vertex.position")
	if len(positions) == 0 {
		return nil
	}
	indices := arrayUint32Triples(t, geom, "primitive.index")
	if indices == nil {
		indices = sequentialTriples(len(positions))
	}

	tris := make([]triangle, 0, len(indices))
	for _, idx := range indices {
		if int(idx[0]) >= len(positions) || int(idx[1]) >= len(positions) || int(idx[2]) >= len(positions) {
			continue
		}
		p0 := transformPoint(&xform, positions[idx[0]])
		p1 := transformPoint(&xform, positions[idx[1]])
		p2 := transformPoint(&xform, positions[idx[2]])
		tris = append(tris, triangle{p0: p0, p1: p1, p2: p2, color: color})
	}
	return tris
}

func transformPoint(m *linear.M4, p linear.V3) linear.V3 {
	v4 := linear.V4{p[0], p[1], p[2], 1}
	var out linear.V4
	out.Mul(m, &v4)
	return linear.V3{out[0], out[1], out[2]}
}

func instanceTransform(inst *object.Object) linear.M4 {
	v, ok := inst.Params().GetCommitted("transform")
	if !ok || v.Type != atype.Float32Mat4 {
		var m linear.M4
		m.Identity()
		return m
	}
	data := v.Bytes()
	var m linear.M4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			off := (col*4 + row) * 4
			m[col][row] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		}
	}
	return m
}

func committedHandle(obj *object.Object, name string) (handle.Handle, bool) {
	v, ok := obj.Params().GetCommitted(name)
	if !ok {
		return handle.Null, false
	}
	return v.AsHandle()
}

func committedVec3(obj *object.Object, name string) (linear.V3, bool) {
	v, ok := obj.Params().GetCommitted(name)
	if !ok || v.Type != atype.Float32Vec3 {
		return linear.V3{}, false
	}
	data := v.Bytes()
	return linear.V3{
		math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])),
	}, true
}

// handleArray resolves a committed array-typed parameter into its
// constituent handles.
func handleArray(t *object.Table, obj *object.Object, name string) []handle.Handle {
	arrH, ok := committedHandle(obj, name)
	if !ok {
		return nil
	}
	arrObj, ok := t.Get(arrH)
	if !ok {
		return nil
	}
	arr, ok := arrObj.Impl().(*param.Array)
	if !ok {
		return nil
	}
	data := arr.Bytes()
	n := len(data) / 8
	out := make([]handle.Handle, n)
	for i := 0; i < n; i++ {
		out[i] = handle.Handle(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	}
	return out
}

func arrayFloat3(t *object.Table, obj *object.Object, name string) []linear.V3 {
	arrH, ok := committedHandle(obj, name)
	if !ok {
		return nil
	}
	arrObj, ok := t.Get(arrH)
	if !ok {
		return nil
	}
	arr, ok := arrObj.Impl().(*param.Array)
	if !ok {
		return nil
	}
	data := arr.Bytes()
	n := len(data) / 12
	out := make([]linear.V3, n)
	for i := 0; i < n; i++ {
		off := i * 12
		out[i] = linear.V3{
			math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4])),
			math.Float32frombits(binary.LittleEndian.Uint32(data[off+4 : off+8])),
			math.Float32frombits(binary.LittleEndian.Uint32(data[off+8 : off+12])),
		}
	}
	return out
}

func arrayUint32Triples(t *object.Table, obj *object.Object, name string) [][3]uint32 {
	arrH, ok := committedHandle(obj, name)
	if !ok {
		return nil
	}
	arrObj, ok := t.Get(arrH)
	if !ok {
		return nil
	}
	arr, ok := arrObj.Impl().(*param.Array)
	if !ok {
		return nil
	}
	data := arr.Bytes()
	n := len(data) / 12
	out := make([][3]uint32, n)
	for i := 0; i < n; i++ {
		off := i * 12
		out[i] = [3]uint32{
			binary.LittleEndian.Uint32(data[off : off+4]),
			binary.LittleEndian.Uint32(data[off+4 : off+8]),
			binary.LittleEndian.Uint32(data[off+8 : off+12]),
		}
	}
	return out
}

func sequentialTriples(numVerts int) [][3]uint32 {
	n := numVerts / 3
	out := make([][3]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = [3]uint32{uint32(i * 3), uint32(i*3 + 1), uint32(i*3 + 2)}
	}
	return out
}
