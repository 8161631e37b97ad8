package device

import (
	"testing"

	"github.com/anari-go/anari/atype"
	"github.com/anari-go/anari/frame"
	"github.com/anari-go/anari/internal/diag"
	"github.com/anari-go/anari/object"
)

type sinkRecorder struct {
	codes []diag.Code
}

func (r *sinkRecorder) sink(source uint64, sev diag.Severity, code diag.Code, msg string) {
	r.codes = append(r.codes, code)
}

func (r *sinkRecorder) has(code diag.Code) bool {
	for _, c := range r.codes {
		if c == code {
			return true
		}
	}
	return false
}

// TestMapArrayAlreadyMappedReportsBusyResource exercises spec.md §8's
// "mapping an already-mapped array produces BusyResource" boundary
// behavior.
func TestMapArrayAlreadyMappedReportsBusyResource(t *testing.T) {
	b := NewBase(NextDeviceID(), nopRenderer{})
	r := &sinkRecorder{}
	b.SetStatusCallback(r.sink)
	h, err := b.NewArray1D(atype.Float32, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.MapArray(h); err != nil {
		t.Fatal(err)
	}
	if _, err := b.MapArray(h); err == nil {
		t.Fatal("mapping an already-mapped array must fail")
	}
	if !r.has(diag.CodeBusyResource) {
		t.Fatalf("want a BusyResource report, got %v", r.codes)
	}
}

// TestUnmapArrayNotMappedReportsBusyResource mirrors the above for the
// unmap side of the same invariant.
func TestUnmapArrayNotMappedReportsBusyResource(t *testing.T) {
	b := NewBase(NextDeviceID(), nopRenderer{})
	r := &sinkRecorder{}
	b.SetStatusCallback(r.sink)
	h, err := b.NewArray1D(atype.Float32, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.UnmapArray(h); err == nil {
		t.Fatal("unmapping a never-mapped array must fail")
	}
	if !r.has(diag.CodeBusyResource) {
		t.Fatalf("want a BusyResource report, got %v", r.codes)
	}
}

// TestRenderFrameWhileInFlightReportsStateViolation exercises spec.md
// §4.7's frame lifecycle: a second renderFrame while one is already
// in flight is a structural state violation.
func TestRenderFrameWhileInFlightReportsStateViolation(t *testing.T) {
	block := make(chan struct{})
	slow := renderFunc(func(tb *object.Table, frameObj *object.Object, fr *frame.Instance) error {
		<-block
		return fr.SetChannelData("color", make([]byte, 4*4*16))
	})
	b := NewBase(NextDeviceID(), slow)
	r := &sinkRecorder{}
	b.SetStatusCallback(r.sink)
	h, err := b.NewObject(object.KindFrame, "")
	if err != nil {
		t.Fatal(err)
	}
	_, fr, err := b.frameFor(h)
	if err != nil {
		t.Fatal(err)
	}
	if err := fr.Configure(2, 2, map[string]atype.DataType{"color": atype.Float32Vec4}); err != nil {
		t.Fatal(err)
	}
	if err := b.RenderFrame(h); err != nil {
		t.Fatal(err)
	}
	if err := b.RenderFrame(h); err == nil {
		t.Fatal("renderFrame while already in flight must fail")
	}
	if !r.has(diag.CodeStateViolation) {
		t.Fatalf("want a StateViolation report, got %v", r.codes)
	}
	close(block)
}

// TestCommitParametersTypeMismatchReportsTypeMismatch exercises spec.md
// §4.3's type agreement rule: a staged value whose type disagrees with
// what the backend declares for that parameter surfaces TypeMismatch.
func TestCommitParametersTypeMismatchReportsTypeMismatch(t *testing.T) {
	b := NewBase(NextDeviceID(), paramTypeRenderer{})
	r := &sinkRecorder{}
	b.SetStatusCallback(r.sink)
	h, err := b.NewObject(object.KindCamera, "perspective")
	if err != nil {
		t.Fatal(err)
	}
	// "fovy" is declared Float32 by paramTypeRenderer; stage it as
	// Uint32 instead.
	if err := b.SetParameter(h, "fovy", atype.Uint32, []byte{0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := b.CommitParameters(h); err != nil {
		t.Fatal(err)
	}
	if !r.has(diag.CodeTypeMismatch) {
		t.Fatalf("want a TypeMismatch report, got %v", r.codes)
	}
}

type paramTypeRenderer struct{ nopRenderer }

func (paramTypeRenderer) ParamType(kind object.Kind, subtype, name string) (atype.DataType, bool) {
	if kind == object.KindCamera && subtype == "perspective" && name == "fovy" {
		return atype.Float32, true
	}
	return 0, false
}

// TestNewArrayTooLargeReportsOutOfMemory exercises spec.md §7's
// OutOfMemory code on a pathological allocation request.
func TestNewArrayTooLargeReportsOutOfMemory(t *testing.T) {
	b := NewBase(NextDeviceID(), nopRenderer{})
	r := &sinkRecorder{}
	b.SetStatusCallback(r.sink)
	if _, err := b.NewArray1D(atype.Float32, 1<<33); err == nil {
		t.Fatal("a pathologically large array must fail to allocate")
	}
	if !r.has(diag.CodeOutOfMemory) {
		t.Fatalf("want an OutOfMemory report, got %v", r.codes)
	}
}

// TestSetParameterEmptyNameReportsNullString exercises the NullString
// code on the Go analogue of a null parameter-name pointer.
func TestSetParameterEmptyNameReportsNullString(t *testing.T) {
	b := NewBase(NextDeviceID(), nopRenderer{})
	r := &sinkRecorder{}
	b.SetStatusCallback(r.sink)
	h, err := b.NewObject(object.KindCamera, "perspective")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetParameter(h, "", atype.Float32, []byte{0, 0, 0, 0}); err == nil {
		t.Fatal("setParameter with an empty name must fail")
	}
	if !r.has(diag.CodeNullString) {
		t.Fatalf("want a NullString report, got %v", r.codes)
	}
}
