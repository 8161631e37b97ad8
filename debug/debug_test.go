package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/device"
	"github.com/anari-go/anari/frame"
	"github.com/anari-go/anari/handle"
	"github.com/anari-go/anari/internal/diag"
	"github.com/anari-go/anari/object"
)

type nopRenderer struct{}

func (nopRenderer) DeviceSubtype() string { return "test" }
func (nopRenderer) Render(t *object.Table, frameObj *object.Object, fr *frame.Instance) error {
	return nil
}

func newTestDevice() *device.Base {
	return device.NewBase(device.NextDeviceID(), nopRenderer{})
}

func TestSetParameterOnNullHandleReported(t *testing.T) {
	var lines []string
	sink := func(source uint64, sev diag.Severity, code diag.Code, msg string) {
		lines = append(lines, msg)
	}
	d := Wrap(newTestDevice(), sink, "")
	err := d.SetParameter(handle.Null, "x", atype.Float32, make([]byte, 4))
	if err == nil {
		t.Fatal("setParameter on a null handle must fail")
	}
	if len(lines) == 0 {
		t.Fatal("expected a VALIDATION line to be reported")
	}
}

func TestReleaseNullIsSilentNoOp(t *testing.T) {
	d := Wrap(newTestDevice(), nil, "")
	d.Release(handle.Null) // must not panic or forward to inner
}

func TestNewObjectAssignsStableName(t *testing.T) {
	d := Wrap(newTestDevice(), nil, "")
	h, err := d.NewObject(object.KindMaterial, "matte")
	if err != nil {
		t.Fatal(err)
	}
	n1 := d.nameFor(object.KindMaterial, h)
	n2 := d.nameFor(object.KindMaterial, h)
	if n1 != n2 {
		t.Fatalf("name must be stable across calls: %q != %q", n1, n2)
	}
}

func TestCommitOnLiveHandleForwards(t *testing.T) {
	d := Wrap(newTestDevice(), nil, "")
	h, err := d.NewObject(object.KindCamera, "perspective")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.CommitParameters(h); err != nil {
		t.Fatal(err)
	}
}

// TestCrossDeviceHandleReportsKindMismatch exercises spec.md §3's
// "cross-device mixing fails with KindMismatch": a handle minted by
// one device, used as a parameter value against an object living on a
// different device, must be reported distinctly from a merely-dead
// handle.
func TestCrossDeviceHandleReportsKindMismatch(t *testing.T) {
	var codes []diag.Code
	sink := func(source uint64, sev diag.Severity, code diag.Code, msg string) {
		codes = append(codes, code)
	}

	devA := newTestDevice()
	otherH, err := devA.NewObject(object.KindMaterial, "matte")
	if err != nil {
		t.Fatal(err)
	}

	d := Wrap(newTestDevice(), sink, "")
	localH, err := d.NewObject(object.KindGeometry, "triangle")
	if err != nil {
		t.Fatal(err)
	}

	if err := d.SetParameterHandle(localH, "material", atype.Material, otherH); err == nil {
		t.Fatal("expected setParameter with a foreign-device handle to fail")
	}
	found := false
	for _, c := range codes {
		if c == diag.CodeKindMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a KindMismatch report, got codes %v", codes)
	}
}

// TestTraceFileRecordsOperations exercises spec.md §8's S5: with a trace
// directory configured, the traced calls (here newObject and
// commitParameters) are appended to "trace.c" under a fresh
// per-instance subdirectory, in source order, so the
// recording can later be replayed against the same backend.
func TestTraceFileRecordsOperations(t *testing.T) {
	base := filepath.Join(t.TempDir(), "t")
	d := Wrap(newTestDevice(), nil, base)
	if d.traceDir == "" {
		t.Fatal("expected a trace directory to be created")
	}
	if !strings.HasPrefix(d.traceDir, base+"_") {
		t.Fatalf("trace dir %q must be named base_<instance>", d.traceDir)
	}

	h, err := d.NewObject(object.KindCamera, "perspective")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.CommitParameters(h); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(d.traceDir, "trace.c"))
	if err != nil {
		t.Fatal(err)
	}
	trace := string(data)
	if !strings.Contains(trace, "NewObject(CAMERA") {
		t.Fatalf("trace missing newObject call, got:\n%s", trace)
	}
	if !strings.Contains(trace, "commitParameters(") {
		t.Fatalf("trace missing commitParameters call, got:\n%s", trace)
	}
}
