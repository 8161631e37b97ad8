package anari

import (
	"testing"

	"github.com/anari-go/anari/atype"
)

func TestLoadLibraryAndNewDevice(t *testing.T) {
	lib, err := LoadLibrary("helide")
	if err != nil {
		t.Fatal(err)
	}
	defer lib.Unload()

	dev, err := lib.NewDevice("default", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Release()

	h, err := dev.NewCamera("perspective")
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.CommitParameters(h); err != nil {
		t.Fatal(err)
	}
}

func TestUnknownLibraryFails(t *testing.T) {
	if _, err := LoadLibrary("no-such-library"); err == nil {
		t.Fatal("expected an error loading an unregistered library")
	}
}

func TestReleaseNullDoesNotPanic(t *testing.T) {
	lib, err := LoadLibrary("helide")
	if err != nil {
		t.Fatal(err)
	}
	dev, err := lib.NewDevice("default", nil)
	if err != nil {
		t.Fatal(err)
	}
	// releasing the null handle must be a documented no-op (spec.md §9)
	dev.ReleaseObject(0)
}

// TestAdoptedArrayDeleterInvokedOnce exercises spec.md §8's S3: an
// array adopting caller-supplied memory calls its deleter exactly once,
// with the original pointer's bytes and the supplied user pointer, when
// the array's last reference is released.
func TestAdoptedArrayDeleterInvokedOnce(t *testing.T) {
	lib, err := LoadLibrary("helide")
	if err != nil {
		t.Fatal(err)
	}
	dev, err := lib.NewDevice("default", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Release()

	data := make([]byte, 4*12) // float32x3 * 4
	var calls int
	var gotData []byte
	var gotUser any
	userPtr := &struct{ tag string }{"S3"}
	h, err := dev.NewArray1DAdopted(data, func(d []byte, u any) {
		calls++
		gotData = d
		gotUser = u
	}, userPtr, atype.Float32Vec3, 4)
	if err != nil {
		t.Fatal(err)
	}

	dev.ReleaseObject(h)

	if calls != 1 {
		t.Fatalf("want deleter called exactly once, got %d", calls)
	}
	if &gotData[0] != &data[0] {
		t.Fatal("deleter must receive the original app-memory slice")
	}
	if gotUser != userPtr {
		t.Fatal("deleter must receive the original user pointer")
	}
}
