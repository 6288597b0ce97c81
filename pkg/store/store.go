// Package store keeps the document's named meshes. Each entry pairs an
// authoritative base mesh with its modifier stack; every structural change
// funnels through one update-apply-notify cycle so derived edges and normals
// are rebuilt exactly once per edit and subscribers always observe a
// consistent mesh.
//
// A Store is single-owner state: callers are expected to mutate it from one
// goroutine (the evaluation loop). Concurrent mutation is a caller error,
// not something the store defends against.
package store

import (
	"fmt"

	"github.com/chazu/meshwright/pkg/mesh"
	"github.com/chazu/meshwright/pkg/modifier"
)

// Entry is one named document object: its base mesh plus the non-destructive
// modifier stack evaluated on top of it for display. The store owns both;
// callers must not mutate them outside Update, SetStack, and AppendModifier.
type Entry struct {
	Base  *mesh.Mesh
	Stack []modifier.Modifier
}

// Store holds entries by name in insertion order.
type Store struct {
	entries map[string]*Entry
	order   []string
	subs    []func(name string)
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Count returns the number of entries.
func (s *Store) Count() int { return len(s.entries) }

// Names returns the entry names in insertion order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Add registers base under name with an empty modifier stack and takes
// ownership of it. The mesh gets the usual derived-state rebuild so a
// hand-assembled mesh enters the document with consistent edges and normals.
// Names are unique; redefining one is an error.
func (s *Store) Add(name string, base *mesh.Mesh) error {
	if base == nil {
		return fmt.Errorf("store: mesh %q is nil", name)
	}
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("store: mesh %q already defined", name)
	}
	base.RebuildEdges()
	base.RecalculateNormals()
	s.entries[name] = &Entry{Base: base}
	s.order = append(s.order, name)
	s.notify(name)
	return nil
}

// Get returns the entry for name.
func (s *Store) Get(name string) (*Entry, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("store: no mesh named %q", name)
	}
	return e, nil
}

// Mesh returns the base mesh for name.
func (s *Store) Mesh(name string) (*mesh.Mesh, error) {
	e, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return e.Base, nil
}

// Update runs one edit cycle on the named base mesh: fn is applied as a pure
// operator (input untouched, result returned), the result has its edges
// rebuilt (carrying seams across by endpoint position) and its normals
// recalculated, the entry is swapped to it, and subscribers are notified.
// A fn that returns its input (the operators' no-op contract) or nil keeps
// the current base; the rebuild and notification still run.
func (s *Store) Update(name string, fn func(*mesh.Mesh) *mesh.Mesh) error {
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("store: no mesh named %q", name)
	}
	out := fn(e.Base)
	if out == nil {
		out = e.Base
	}
	out.RebuildEdges()
	out.RecalculateNormals()
	e.Base = out
	s.notify(name)
	return nil
}

// SetStack replaces the modifier stack for name. The store takes ownership
// of the slice.
func (s *Store) SetStack(name string, stack []modifier.Modifier) error {
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("store: no mesh named %q", name)
	}
	e.Stack = stack
	s.notify(name)
	return nil
}

// AppendModifier adds one modifier to the end of the named entry's stack.
func (s *Store) AppendModifier(name string, mod modifier.Modifier) error {
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("store: no mesh named %q", name)
	}
	e.Stack = append(e.Stack, mod)
	s.notify(name)
	return nil
}

// Display evaluates the named entry's modifier stack over its base and
// returns the result. The base is never touched; with an empty stack this is
// still a fresh rebuilt copy, so callers may hand the display mesh to a
// renderer without aliasing document state.
func (s *Store) Display(name string) (*mesh.Mesh, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("store: no mesh named %q", name)
	}
	return modifier.Apply(e.Base, e.Stack), nil
}

// Subscribe registers fn to be called with the entry name after every
// successful Add, Update, SetStack, and AppendModifier. Callbacks run
// synchronously on the mutating call.
func (s *Store) Subscribe(fn func(name string)) {
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(name string) {
	for _, fn := range s.subs {
		fn(name)
	}
}
