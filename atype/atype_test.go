package atype_test

import (
	"testing"

	"github.com/anari-go/anari/atype"
)

func TestSizeMatchesComponents(t *testing.T) {
	cases := []struct {
		t    atype.DataType
		size int
	}{
		{atype.Float32Vec3, 12},
		{atype.Uint32Vec4, 16},
		{atype.Float32Mat4, 64},
		{atype.Box3f, 24},
		{atype.Box1i, 8},
		{atype.Bool, 4},
	}
	for _, c := range cases {
		if got := atype.Size(c.t); got != c.size {
			t.Errorf("Size(%s) = %d, want %d", c.t, got, c.size)
		}
	}
}

func TestIsObject(t *testing.T) {
	for _, h := range []atype.DataType{atype.Geometry, atype.World, atype.Object, atype.Light} {
		if !atype.IsObject(h) {
			t.Errorf("IsObject(%s) = false, want true", h)
		}
	}
	for _, s := range []atype.DataType{atype.Float32, atype.String, atype.Bool} {
		if atype.IsObject(s) {
			t.Errorf("IsObject(%s) = true, want false", s)
		}
	}
}

func TestNameStable(t *testing.T) {
	if atype.Name(atype.Float32Vec3) != "FLOAT32_VEC3" {
		t.Errorf("Name(Float32Vec3) = %q", atype.Name(atype.Float32Vec3))
	}
	if atype.Name(atype.Unknown) != "UNKNOWN" {
		t.Errorf("Name(Unknown) = %q", atype.Name(atype.Unknown))
	}
}

// visitRecord captures which category Visit dispatched to, so
// TestVisitExhaustive can confirm every enumeration member lands in
// exactly one bucket.
type visitRecord struct{ kind string }

func (r *visitRecord) VisitScalar(atype.DataType, atype.ScalarKind)         { r.kind = "scalar" }
func (r *visitRecord) VisitVector(atype.DataType, atype.ScalarKind, int)    { r.kind = "vector" }
func (r *visitRecord) VisitMatrix(atype.DataType, int, int)                { r.kind = "matrix" }
func (r *visitRecord) VisitBox(atype.DataType, atype.ScalarKind, int)      { r.kind = "box" }
func (r *visitRecord) VisitString(atype.DataType)                          { r.kind = "string" }
func (r *visitRecord) VisitPointer(atype.DataType)                         { r.kind = "pointer" }
func (r *visitRecord) VisitBool(atype.DataType)                            { r.kind = "bool" }
func (r *visitRecord) VisitHandle(atype.DataType)                          { r.kind = "handle" }
func (r *visitRecord) VisitUnknown(atype.DataType)                         { r.kind = "unknown" }

// TestVisitExhaustive is the registry's substitute for the compiler-level
// exhaustiveness check spec.md §4.1 asks for: every DataType must land in
// exactly one Visitor bucket, and the bucket must agree with the type's
// own metadata (IsObject, Components).
func TestVisitExhaustive(t *testing.T) {
	want := map[atype.DataType]string{
		atype.Unknown:       "unknown",
		atype.Int8:          "scalar",
		atype.Int8Vec3:      "vector",
		atype.Float32Mat4:   "matrix",
		atype.Box2f:         "box",
		atype.String:        "string",
		atype.VoidPointer:   "pointer",
		atype.Bool:          "bool",
		atype.Object:        "handle",
		atype.World:         "handle",
	}
	for typ, want := range want {
		var r visitRecord
		atype.Visit(typ, &r)
		if r.kind != want {
			t.Errorf("Visit(%s) landed in %q, want %q", typ, r.kind, want)
		}
	}
	for typ := atype.Unknown + 1; atype.Name(typ) != "UNKNOWN"; typ++ {
		var r visitRecord
		atype.Visit(typ, &r)
		if r.kind == "" || r.kind == "unknown" {
			t.Errorf("Visit(%s) landed in no category bucket", typ)
		}
		if (r.kind == "handle") != atype.IsObject(typ) {
			t.Errorf("Visit(%s) landed in %q but IsObject = %v", typ, r.kind, atype.IsObject(typ))
		}
		if (r.kind == "scalar" && atype.Components(typ) != 1) || (r.kind == "vector" && atype.Components(typ) < 2) {
			t.Errorf("Visit(%s) landed in %q but Components = %d", typ, r.kind, atype.Components(typ))
		}
	}
}
