package param

import (
	"sync"

	"github.com/anari-go/anari/handle"
)

// Retainer is implemented by the object table so a Store can adjust
// reference counts as handle-typed parameters move between staged and
// committed state, without param importing object (which would cycle
// back through param for its own parameter storage). Mirrors the
// teacher's small-interface-at-the-boundary style (driver.Driver is
// consumed the same way by engine without engine depending on any one
// backend).
type Retainer interface {
	Retain(h handle.Handle)
	// Release drops one reference and reports whether that destroyed
	// the object; Store ignores the result.
	Release(h handle.Handle) bool
}

// Store holds one object's staged and committed parameter snapshots
// (spec.md §3 "Staged parameter", §4.3). setParameter/unsetParameter
// only ever touch staged; commitParameters atomically replaces
// committed with a copy of staged.
//
// Grounded on engine/material.go's split between the struct fields an
// API consumer pokes and the descriptor data actually bound at draw
// time, generalized here into two named maps instead of one struct per
// object kind.
type Store struct {
	mu        sync.RWMutex
	staged    map[string]Value
	committed map[string]Value
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		staged:    make(map[string]Value),
		committed: make(map[string]Value),
	}
}

// Set stages name=v, replacing any previous staged value under that
// name. If the previous staged value held a handle, it is released; if
// v holds a non-null handle, it is retained. Committed state is
// unaffected until Commit is called (spec.md §4.3).
func (s *Store) Set(name string, v Value, r Retainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.staged[name]; ok {
		if h, isHandle := prev.AsHandle(); isHandle && h != handle.Null {
			r.Release(h)
		}
	}
	if h, isHandle := v.AsHandle(); isHandle && h != handle.Null {
		r.Retain(h)
	}
	s.staged[name] = v
}

// Unset removes name from the staged map, releasing its handle if it
// held one. Committed state is unaffected (spec.md §4.3).
func (s *Store) Unset(name string, r Retainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsetLocked(name, r)
}

func (s *Store) unsetLocked(name string, r Retainer) {
	prev, ok := s.staged[name]
	if !ok {
		return
	}
	if h, isHandle := prev.AsHandle(); isHandle && h != handle.Null {
		r.Release(h)
	}
	delete(s.staged, name)
}

// UnsetAll clears every staged parameter, releasing any handles they
// held. Committed state is unaffected (spec.md §4.3).
func (s *Store) UnsetAll(r Retainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.staged {
		s.unsetLocked(name, r)
	}
}

// Commit atomically replaces the committed snapshot with a copy of the
// current staged map: handles the previous committed snapshot held are
// released, and handles the new snapshot holds are retained, so a
// handle referenced by both the staged and committed maps contributes
// two retains to the referenced object's refcount (spec.md §9, "strict
// reference accounting").
func (s *Store) Commit(r Retainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.committed {
		if h, isHandle := v.AsHandle(); isHandle && h != handle.Null {
			r.Release(h)
		}
	}
	next := make(map[string]Value, len(s.staged))
	for name, v := range s.staged {
		if h, isHandle := v.AsHandle(); isHandle && h != handle.Null {
			r.Retain(h)
		}
		next[name] = v
	}
	s.committed = next
}

// Get returns the staged value for name.
func (s *Store) Get(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.staged[name]
	return v, ok
}

// GetCommitted returns the committed value for name, the one a render
// or backend operation should observe (spec.md §4.3: "observable
// effects ... only see the committed snapshot").
func (s *Store) GetCommitted(name string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.committed[name]
	return v, ok
}

// Dirty reports whether the staged map differs from the committed one,
// i.e. whether a Commit would change observable state.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.staged) != len(s.committed) {
		return true
	}
	for name, v := range s.staged {
		cv, ok := s.committed[name]
		if !ok || !v.Equal(cv) {
			return true
		}
	}
	return false
}

// Names returns the currently staged parameter names.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.staged))
	for name := range s.staged {
		names = append(names, name)
	}
	return names
}

// CommittedNames returns the currently committed parameter names, e.g.
// for a FRAME object's backend to discover every staged "channel.<name>"
// entry without knowing the channel names in advance (spec.md §4.7).
func (s *Store) CommittedNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.committed))
	for name := range s.committed {
		names = append(names, name)
	}
	return names
}

// ReleaseAll releases every handle held by either the staged or the
// committed map. Called once, when the owning object is destroyed
// (spec.md §4.2, "releasing an object releases every handle its
// parameter store still retains").
func (s *Store) ReleaseAll(r Retainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.staged {
		if h, isHandle := v.AsHandle(); isHandle && h != handle.Null {
			r.Release(h)
		}
	}
	for _, v := range s.committed {
		if h, isHandle := v.AsHandle(); isHandle && h != handle.Null {
			r.Release(h)
		}
	}
}
