package frame

import (
	"errors"
	"testing"

	"github.com/anari-go/anari/atype"
)

func TestConfigureMovesToIdle(t *testing.T) {
	f := New()
	if f.State() != Unconfigured {
		t.Fatal("new frame must start Unconfigured")
	}
	if err := f.Configure(4, 4, map[string]atype.DataType{"color": atype.Float32Vec4}); err != nil {
		t.Fatal(err)
	}
	if f.State() != Idle {
		t.Fatalf("want Idle after Configure, got %s", f.State())
	}
}

func TestRenderBeforeConfigureFails(t *testing.T) {
	f := New()
	if err := f.Render(func() error { return nil }); err != ErrNotConfigured {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestRenderThenReadyBlocks(t *testing.T) {
	f := New()
	_ = f.Configure(2, 2, map[string]atype.DataType{"color": atype.Float32Vec4})
	started := make(chan struct{})
	if err := f.Render(func() error {
		close(started)
		return f.SetChannelData("color", make([]byte, 2*2*16))
	}); err != nil {
		t.Fatal(err)
	}
	<-started
	if !f.Ready(true) {
		t.Fatal("blocking Ready must return true once the render completes")
	}
	if f.State() != Ready {
		t.Fatalf("want Ready, got %s", f.State())
	}
}

func TestMapRequiresReady(t *testing.T) {
	f := New()
	_ = f.Configure(1, 1, map[string]atype.DataType{"color": atype.Float32Vec4})
	if _, _, _, _, err := f.Map("color"); err != ErrNotReady {
		t.Fatalf("want ErrNotReady, got %v", err)
	}
}

func TestMapTwiceFails(t *testing.T) {
	f := New()
	_ = f.Configure(1, 1, map[string]atype.DataType{"color": atype.Float32Vec4})
	_ = f.Render(func() error { return f.SetChannelData("color", make([]byte, 16)) })
	f.Ready(true)
	if _, _, _, _, err := f.Map("color"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := f.Map("color"); err != ErrMapped {
		t.Fatalf("want ErrMapped, got %v", err)
	}
}

// TestDiscardTransitionsToReadyWithoutBlocking exercises spec.md §8's
// S6: discarding an in-flight frame makes it immediately Ready, so a
// following mapFrame succeeds without blocking on the abandoned render.
func TestDiscardTransitionsToReadyWithoutBlocking(t *testing.T) {
	f := New()
	_ = f.Configure(1, 1, map[string]atype.DataType{"color": atype.Float32Vec4})
	block := make(chan struct{})
	_ = f.Render(func() error {
		<-block
		return f.SetChannelData("color", make([]byte, 16))
	})
	f.Discard()
	if f.State() != Ready {
		t.Fatalf("want Ready immediately after Discard, got %s", f.State())
	}
	if _, _, _, _, err := f.Map("color"); err != nil {
		t.Fatalf("mapFrame after discard must succeed, got %v", err)
	}
	close(block)
}

// TestUnmapLastChannelReturnsToIdle exercises spec.md §4.7's state
// machine: unmapping the last mapped channel from Ready returns to
// Idle.
func TestUnmapLastChannelReturnsToIdle(t *testing.T) {
	f := New()
	_ = f.Configure(1, 1, map[string]atype.DataType{"color": atype.Float32Vec4, "depth": atype.Float32})
	_ = f.Render(func() error {
		_ = f.SetChannelData("color", make([]byte, 16))
		return f.SetChannelData("depth", make([]byte, 4))
	})
	f.Ready(true)
	if _, _, _, _, err := f.Map("color"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := f.Map("depth"); err != nil {
		t.Fatal(err)
	}
	if err := f.Unmap("color"); err != nil {
		t.Fatal(err)
	}
	if f.State() != Ready {
		t.Fatalf("want Ready while depth is still mapped, got %s", f.State())
	}
	if err := f.Unmap("depth"); err != nil {
		t.Fatal(err)
	}
	if f.State() != Idle {
		t.Fatalf("want Idle once every channel is unmapped, got %s", f.State())
	}
}

func TestRenderErrPropagates(t *testing.T) {
	f := New()
	_ = f.Configure(1, 1, map[string]atype.DataType{"color": atype.Float32Vec4})
	wantErr := errors.New("boom")
	_ = f.Render(func() error { return wantErr })
	f.Ready(true)
	if f.RenderErr() != wantErr {
		t.Fatalf("want %v, got %v", wantErr, f.RenderErr())
	}
}
