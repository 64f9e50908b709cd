// Package propstore implements the per-window property store: a map from
// atom to {type, format, data} attached to a window, with the
// Replace/Prepend/Append write modes ChangeProperty supports (spec.md
// §4.7).
package propstore

import (
	"errors"
	"sync"
)

// Mode is the ChangeProperty write mode.
type Mode uint8

const (
	Replace Mode = 0
	Prepend Mode = 1
	Append  Mode = 2
)

// Property is one window property's stored value.
type Property struct {
	Type   uint32
	Format uint8 // 8, 16 or 32
	Data   []byte
}

// ErrBadFormat is returned when format is not 8, 16 or 32.
var ErrBadFormat = errors.New("propstore: format must be 8, 16 or 32")

// Store holds every window's properties, keyed by window id then atom.
type Store struct {
	mu         sync.Mutex
	byWindow   map[uint32]map[uint32]Property
}

// New returns an empty Store.
func New() *Store {
	return &Store{byWindow: make(map[uint32]map[uint32]Property)}
}

// Change applies mode to window's atom property. On a fresh property,
// Prepend and Append behave like Replace. Replacing changes the type and
// format outright; Prepend/Append require the existing type and format to
// match (the dispatcher is responsible for turning a mismatch into
// BadMatch before calling Change, since that is a protocol error, not a
// storage concern).
func (s *Store) Change(window, atom uint32, typ uint32, format uint8, mode Mode, data []byte) error {
	if format != 8 && format != 16 && format != 32 {
		return ErrBadFormat
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	props, ok := s.byWindow[window]
	if !ok {
		props = make(map[uint32]Property)
		s.byWindow[window] = props
	}

	existing, has := props[atom]
	switch {
	case mode == Replace || !has:
		props[atom] = Property{Type: typ, Format: format, Data: append([]byte(nil), data...)}
	case mode == Prepend:
		props[atom] = Property{Type: existing.Type, Format: existing.Format, Data: append(append([]byte(nil), data...), existing.Data...)}
	case mode == Append:
		props[atom] = Property{Type: existing.Type, Format: existing.Format, Data: append(append([]byte(nil), existing.Data...), data...)}
	}
	return nil
}

// Get returns window's atom property, if set.
func (s *Store) Get(window, atom uint32) (Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.byWindow[window]
	if !ok {
		return Property{}, false
	}
	p, ok := props[atom]
	return p, ok
}

// Delete removes window's atom property. Deleting a property that does
// not exist is a no-op, per spec.md §4.7.
func (s *Store) Delete(window, atom uint32) (existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.byWindow[window]
	if !ok {
		return false
	}
	_, existed = props[atom]
	delete(props, atom)
	return existed
}

// List returns the atoms window has properties for.
func (s *Store) List(window uint32) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.byWindow[window]
	if !ok {
		return nil
	}
	out := make([]uint32, 0, len(props))
	for a := range props {
		out = append(out, a)
	}
	return out
}

// DeleteWindow drops every property window holds, called when the window
// is destroyed.
func (s *Store) DeleteWindow(window uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byWindow, window)
}
