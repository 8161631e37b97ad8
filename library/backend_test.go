package library

import (
	"testing"

	"github.com/anari-go/anari/device"
	"github.com/anari-go/anari/object"
)

type fakeBackend struct{ name string }

func (f *fakeBackend) Name() string             { return f.name }
func (f *fakeBackend) DeviceSubtypes() []string { return []string{"default"} }
func (f *fakeBackend) NewDevice(subtype string) (device.Device, error) {
	return nil, nil
}
func (f *fakeBackend) ObjectSubtypes(deviceSubtype string, kind object.Kind) []string {
	if kind == object.KindCamera {
		return []string{"fake"}
	}
	return nil
}
func (f *fakeBackend) ParameterInfo(deviceSubtype, objectSubtype string, kind object.Kind) []ParamInfo {
	if kind == object.KindCamera && objectSubtype == "fake" {
		return []ParamInfo{{Name: "position", Required: true}}
	}
	return nil
}
func (f *fakeBackend) DeviceExtensions(deviceSubtype string) []string {
	return []string{"ANARI_FAKE_EXTENSION"}
}

func TestRegisterThenLoadByExactName(t *testing.T) {
	Register(&fakeBackend{name: "test-backend-exact"})
	lib, err := Load("test-backend-exact")
	if err != nil {
		t.Fatal(err)
	}
	if got := lib.DeviceSubtypes(); len(got) != 1 || got[0] != "default" {
		t.Fatalf("unexpected subtypes: %v", got)
	}
}

func TestRegisterReplacesSameName(t *testing.T) {
	Register(&fakeBackend{name: "test-backend-replace"})
	Register(&fakeBackend{name: "test-backend-replace"})
	n := 0
	for _, b := range Registered() {
		if b.Name() == "test-backend-replace" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("want exactly one registration surviving, got %d", n)
	}
}

func TestLoadEnvironmentRequiresVar(t *testing.T) {
	t.Setenv("ANARI_LIBRARY", "")
	if _, err := Load("environment"); err == nil {
		t.Fatal("Load(\"environment\") must fail when ANARI_LIBRARY is unset")
	}
}

func TestLoadEnvironmentRedirects(t *testing.T) {
	Register(&fakeBackend{name: "test-backend-env"})
	t.Setenv("ANARI_LIBRARY", "test-backend-env")
	lib, err := Load("environment")
	if err != nil {
		t.Fatal(err)
	}
	if lib.name != "test-backend-env" {
		t.Fatalf("want redirected name, got %q", lib.name)
	}
}

func TestLoadUnknownNameFails(t *testing.T) {
	if _, err := Load("definitely-not-a-real-backend-or-library"); err == nil {
		t.Fatal("expected an error for an unresolvable library name")
	}
}

func TestIntrospectionPassesThroughToBackend(t *testing.T) {
	Register(&fakeBackend{name: "test-backend-introspect"})
	lib, err := Load("test-backend-introspect")
	if err != nil {
		t.Fatal(err)
	}
	if got := lib.ObjectSubtypes("default", object.KindCamera); len(got) != 1 || got[0] != "fake" {
		t.Fatalf("want [fake], got %v", got)
	}
	if got := lib.ObjectSubtypes("default", object.KindLight); got != nil {
		t.Fatalf("want nil for a kind with no declared subtypes, got %v", got)
	}
	info := lib.ParameterInfo("default", "fake", object.KindCamera)
	if len(info) != 1 || info[0].Name != "position" || !info[0].Required {
		t.Fatalf("unexpected parameter info: %+v", info)
	}
	if got := lib.DeviceExtensions("default"); len(got) != 1 || got[0] != "ANARI_FAKE_EXTENSION" {
		t.Fatalf("unexpected extensions: %v", got)
	}
}

func TestLoadModuleUnloadModuleAreNoopSuccess(t *testing.T) {
	Register(&fakeBackend{name: "test-backend-modules"})
	lib, err := Load("test-backend-modules")
	if err != nil {
		t.Fatal(err)
	}
	if err := lib.LoadModule("anything"); err != nil {
		t.Fatalf("LoadModule must report the absent entry point as success, got %v", err)
	}
	if err := lib.UnloadModule("anything"); err != nil {
		t.Fatalf("UnloadModule must report the absent entry point as success, got %v", err)
	}
}
