package helide

import (
	"fmt"

	"github.com/anari-go/anari/device"
	"github.com/anari-go/anari/frame"
	"github.com/anari-go/anari/library"
	"github.com/anari-go/anari/object"
)

func init() {
	library.Register(&Backend{})
}

// Backend is the always-linked-in reference library (spec.md §4.6,
// "Non-goals" carve out backend/helide as a minimal flat-shaded
// rasterizer rather than a production renderer).
type Backend struct{}

func (Backend) Name() string             { return "helide" }
func (Backend) DeviceSubtypes() []string { return []string{"default"} }

func (Backend) NewDevice(subtype string) (device.Device, error) {
	if subtype != "default" {
		return nil, fmt.Errorf("helide: unknown device subtype %q", subtype)
	}
	d := &Device{}
	d.Base = device.NewBase(device.NextDeviceID(), d)
	return d, nil
}

// Device is helide's device.Device, a thin device.Base embedding that
// supplies the Renderer the Base delegates RenderFrame to.
type Device struct {
	*device.Base
}

func (d *Device) DeviceSubtype() string { return "helide" }

// knownSubtypes lists every subtype this backend's rasterizer resolves.
// Anything else still constructs (spec.md §8 S8) but is reported as a
// BackendFailure at commit time.
var knownSubtypes = map[object.Kind]map[string]bool{
	object.KindCamera:   {"perspective": true, "orthographic": true},
	object.KindGeometry: {"triangle": true},
	object.KindMaterial: {"matte": true},
	object.KindLight:    {"directional": true, "point": true},
}

func (d *Device) KnownSubtype(kind object.Kind, subtype string) bool {
	set, ok := knownSubtypes[kind]
	if !ok {
		// Kinds helide does not special-case (sampler, spatial field,
		// volume, renderer, instance) accept any subtype; the
		// rasterizer simply ignores what it cannot use.
		return true
	}
	return set[subtype]
}

func (d *Device) Render(t *object.Table, frameObj *object.Object, fr *frame.Instance) error {
	return render(t, frameObj, fr)
}
