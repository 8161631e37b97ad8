package object

import (
	"testing"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/param"
)

func TestNewThenGet(t *testing.T) {
	tbl := NewTable(0)
	h, obj := tbl.New(KindMaterial, "matte")
	got, ok := tbl.Get(h)
	if !ok || got != obj {
		t.Fatal("Get must return the object New created")
	}
	if got.Kind() != KindMaterial || got.Subtype() != "matte" {
		t.Fatal("kind/subtype not preserved")
	}
}

func TestReleaseDestroysAtZeroRefcount(t *testing.T) {
	tbl := NewTable(0)
	h, _ := tbl.New(KindGeometry, "triangle")
	if destroyed := tbl.Release(h); !destroyed {
		t.Fatal("releasing the sole reference must destroy the object")
	}
	if _, ok := tbl.Get(h); ok {
		t.Fatal("destroyed handle must no longer resolve")
	}
}

func TestRetainDelaysDestruction(t *testing.T) {
	tbl := NewTable(0)
	h, _ := tbl.New(KindGeometry, "triangle")
	tbl.Retain(h)
	if destroyed := tbl.Release(h); destroyed {
		t.Fatal("object with an outstanding retain must survive one release")
	}
	if _, ok := tbl.Get(h); !ok {
		t.Fatal("object must still resolve while refcount > 0")
	}
	if destroyed := tbl.Release(h); !destroyed {
		t.Fatal("final release must destroy the object")
	}
}

func TestStaleHandleRejectedAfterSlotReuse(t *testing.T) {
	tbl := NewTable(0)
	h1, _ := tbl.New(KindCamera, "perspective")
	tbl.Release(h1)
	h2, _ := tbl.New(KindCamera, "orthographic")
	if h1.Index() != h2.Index() {
		t.Skip("slot was not reused; generation check not exercised")
	}
	if _, ok := tbl.Get(h1); ok {
		t.Fatal("stale handle from a destroyed, reused slot must not resolve")
	}
	if _, ok := tbl.Get(h2); !ok {
		t.Fatal("fresh handle into the reused slot must resolve")
	}
}

func TestCrossDeviceHandleRejected(t *testing.T) {
	tbl0 := NewTable(0)
	tbl1 := NewTable(1)
	h, _ := tbl0.New(KindWorld, "")
	if _, ok := tbl1.Get(h); ok {
		t.Fatal("a handle minted by one device's table must not resolve in another's")
	}
}

func TestReleaseNullIsNoOp(t *testing.T) {
	tbl := NewTable(0)
	if destroyed := tbl.Release(handle.Null); destroyed {
		t.Fatal("releasing the null handle must be a no-op")
	}
}

type fakeReleaser struct{ calls int }

func (r *fakeReleaser) Release() error {
	r.calls++
	return nil
}

// TestReleaseInvokesImplReleaser exercises the hook destroy uses to
// invoke a param.Array's adopted-memory deleter exactly once (spec.md
// §4.4): any Impl implementing Releaser must have Release called when
// the object's last reference is dropped, and not before.
func TestReleaseInvokesImplReleaser(t *testing.T) {
	tbl := NewTable(0)
	h, obj := tbl.New(KindArray1D, "")
	r := &fakeReleaser{}
	obj.SetImpl(r)
	tbl.Retain(h)
	tbl.Release(h)
	if r.calls != 0 {
		t.Fatalf("Releaser must not run while a reference remains, ran %d times", r.calls)
	}
	tbl.Release(h)
	if r.calls != 1 {
		t.Fatalf("Releaser must run exactly once at destruction, ran %d times", r.calls)
	}
}

func TestReleaseRecursivelyReleasesHeldHandles(t *testing.T) {
	tbl := NewTable(0)
	matH, matObj := tbl.New(KindMaterial, "matte")
	_ = matObj
	surfH, surfObj := tbl.New(KindSurface, "")

	v, err := param.FromHandle(atype.Material, matH)
	if err != nil {
		t.Fatal(err)
	}
	surfObj.Params().Set("material", v, tbl)
	surfObj.Params().Commit(tbl)

	// material now has 3 refs: its own creation ref, + staged, + committed.
	tbl.Release(surfH) // drop the surface: should release both staged+committed material refs
	tbl.Release(matH)  // drop the creation ref
	if _, ok := tbl.Get(matH); ok {
		t.Fatal("material must be destroyed once every contribution is released")
	}
}
