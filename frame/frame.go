// Package frame implements the render-target state machine backing a
// FRAME object (spec.md §4.7): Unconfigured → Configured (channels
// declared) → Idle → InFlight (a render is running) → Ready (channel
// data can be mapped), with Discard moving to Ready without blocking.
//
// Grounded on engine/renderer.go's draw-then-present loop, generalized
// from "submit work, wait on a GPU fence" into "submit work to a
// goroutine, wait on a channel close" since a software or dynamically
// loaded backend has no GPU fence to wait on.
package frame

import (
	"errors"
	"sync"

	"github.com/anari-go/anari/atype"
)

// State is one of the frame lifecycle states (spec.md §4.7).
type State int

const (
	Unconfigured State = iota
	Configured
	Idle
	InFlight
	Ready
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "UNCONFIGURED"
	case Configured:
		return "CONFIGURED"
	case Idle:
		return "IDLE"
	case InFlight:
		return "IN_FLIGHT"
	case Ready:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Channel is one named render-target buffer, e.g. "color", "depth",
// "primitiveId", "objectId", "instanceId".
type Channel struct {
	ElemType atype.DataType
	data     []byte
	mapped   bool
}

var (
	ErrNotConfigured = errors.New("frame: not configured")
	ErrInFlight      = errors.New("frame: already rendering")
	ErrNotReady      = errors.New("frame: not ready")
	ErrUnknownChan   = errors.New("frame: unknown channel")
	ErrMapped        = errors.New("frame: channel already mapped")
	ErrNotMapped     = errors.New("frame: channel not mapped")
)

// Instance is the live state behind a FRAME object's handle.
type Instance struct {
	mu sync.Mutex

	state         State
	width, height uint32
	channels      map[string]*Channel

	renderErr error
	done      chan struct{}
}

// New returns a frame in the Unconfigured state.
func New() *Instance {
	return &Instance{state: Unconfigured}
}

// Configure declares the frame's dimensions and channel set and moves
// it straight to Idle; no state change leaves a frame in Configured.
// Reconfiguring an InFlight frame is an error; reconfiguring any other
// state discards prior channel contents.
func (f *Instance) Configure(width, height uint32, channels map[string]atype.DataType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == InFlight {
		return ErrInFlight
	}
	f.width, f.height = width, height
	f.channels = make(map[string]*Channel, len(channels))
	for name, t := range channels {
		f.channels[name] = &Channel{ElemType: t}
	}
	f.state = Idle
	return nil
}

// State returns the frame's current lifecycle state.
func (f *Instance) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Dims returns the configured frame dimensions.
func (f *Instance) Dims() (width, height uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height
}

// Render kicks off render asynchronously and transitions Idle→InFlight
// immediately. render is expected to write directly into this
// Instance's channel buffers via SetChannelData before returning.
// Calling Render while already InFlight, or before Configure, is an
// error.
func (f *Instance) Render(render func() error) error {
	f.mu.Lock()
	if f.state == Unconfigured {
		f.mu.Unlock()
		return ErrNotConfigured
	}
	if f.state == InFlight {
		f.mu.Unlock()
		return ErrInFlight
	}
	f.state = InFlight
	f.renderErr = nil
	done := make(chan struct{})
	f.done = done
	f.mu.Unlock()

	go func() {
		err := render()
		f.mu.Lock()
		f.renderErr = err
		f.state = Ready
		f.mu.Unlock()
		close(done)
	}()
	return nil
}

// Ready reports whether the last render has completed. If block is
// true, Ready waits for completion (spec.md §4.7, "frameReady may
// optionally block").
func (f *Instance) Ready(block bool) bool {
	f.mu.Lock()
	state, done := f.state, f.done
	f.mu.Unlock()
	if state != InFlight {
		return state == Ready
	}
	if !block {
		return false
	}
	<-done
	return true
}

// Discard abandons an in-flight render without blocking on its
// completion, transitioning directly to Ready so a subsequent mapFrame
// succeeds with implementation-defined contents (spec.md §4.7,
// "discardFrame from InFlight transitions directly to Ready"). The
// backend's render goroutine, if still running, is left to complete on
// its own and may still overwrite channel data afterward; spec.md §4.7
// explicitly allows this ("the backend may complete it anyway").
func (f *Instance) Discard() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Configured || f.state == Unconfigured {
		return
	}
	f.state = Ready
}

// SetChannelData installs data as the contents of the named channel.
// Called by a backend's render function while Render's goroutine
// still owns exclusive access to the frame (i.e. before the state
// flips to Ready).
func (f *Instance) SetChannelData(name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[name]
	if !ok {
		return ErrUnknownChan
	}
	ch.data = data
	return nil
}

// Map returns the named channel's current contents. The frame must be
// Ready. The channel is marked mapped until Unmap is called (spec.md
// §4.7, "mapFrame/unmapFrame bracket read access to channel data").
func (f *Instance) Map(name string) ([]byte, atype.DataType, uint32, uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Ready {
		return nil, 0, 0, 0, ErrNotReady
	}
	ch, ok := f.channels[name]
	if !ok {
		return nil, 0, 0, 0, ErrUnknownChan
	}
	if ch.mapped {
		return nil, 0, 0, 0, ErrMapped
	}
	ch.mapped = true
	return ch.data, ch.ElemType, f.width, f.height, nil
}

// Unmap releases a channel previously obtained via Map. Unmapping the
// last currently-mapped channel while Ready returns the frame to Idle
// (spec.md §4.7, "unmapFrame of the last mapped channel from Ready
// returns to Idle").
func (f *Instance) Unmap(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[name]
	if !ok {
		return ErrUnknownChan
	}
	if !ch.mapped {
		return ErrNotMapped
	}
	ch.mapped = false
	if f.state == Ready && !f.anyMappedLocked() {
		f.state = Idle
	}
	return nil
}

func (f *Instance) anyMappedLocked() bool {
	for _, ch := range f.channels {
		if ch.mapped {
			return true
		}
	}
	return false
}

// RenderErr returns the error (if any) the most recently completed
// render function returned.
func (f *Instance) RenderErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderErr
}
