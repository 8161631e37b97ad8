package helide

import (
	"encoding/binary"
	"math"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/linear"
	"github.com/anari-go/anari/object"
)

// GetProperty serves "bounds" on WORLD and GROUP objects (spec.md §6.2,
// "bounds on worlds/groups is the canonical example") by walking the
// same instance/group/surface/geometry graph the rasterizer resolves,
// then falls back to device.Base for every other property name.
//
// Grounded on engine/renderer.go's scene traversal, reused here to
// accumulate a Box3 instead of submitting draw calls.
func (d *Device) GetProperty(h handle.Handle, name string, t atype.DataType, out []byte, block bool) bool {
	if name != "bounds" || t != atype.Box3f {
		return d.Base.GetProperty(h, name, t, out, block)
	}
	obj, ok := d.Table().Get(h)
	if !ok {
		return false
	}
	var box linear.Box3
	switch obj.Kind() {
	case object.KindWorld:
		box = worldBounds(d.Table(), h)
	case object.KindGroup:
		var xform linear.M4
		xform.Identity()
		box = groupBounds(d.Table(), h, &xform)
	default:
		return d.Base.GetProperty(h, name, t, out, block)
	}
	if box.Empty() {
		return false
	}
	return writeBox3f(out, box)
}

func worldBounds(t *object.Table, worldH handle.Handle) linear.Box3 {
	world, ok := t.Get(worldH)
	if !ok {
		return linear.EmptyBox3()
	}
	box := linear.EmptyBox3()
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
		box = linear.Union(box, groupBounds(t, groupH, &xform))
	}
	return box
}

func groupBounds(t *object.Table, groupH handle.Handle, xform *linear.M4) linear.Box3 {
	group, ok := t.Get(groupH)
	if !ok {
		return linear.EmptyBox3()
	}
	box := linear.EmptyBox3()
	for _, surfH := range handleArray(t, group, "surface") {
		surf, ok := t.Get(surfH)
		if !ok {
			continue
		}
		geomH, ok := committedHandle(surf, "geometry")
		if !ok {
			continue
		}
		geom, ok := t.Get(geomH)
		if !ok {
			continue
		}
		local := linear.EmptyBox3()
		for _, p := range arrayFloat3(t, geom, "vertex.position") {
			local = local.ExtendPoint(p)
		}
		box = linear.Union(box, linear.Transform(xform, local))
	}
	return box
}

func writeBox3f(out []byte, box linear.Box3) bool {
	if len(out) < 24 {
		return false
	}
	putF32(out[0:4], box.Lo[0])
	putF32(out[4:8], box.Lo[1])
	putF32(out[8:12], box.Lo[2])
	putF32(out[12:16], box.Hi[0])
	putF32(out[16:20], box.Hi[1])
	putF32(out[20:24], box.Hi[2])
	return true
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
