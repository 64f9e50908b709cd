// Package selection implements the server-global selection ownership map:
// atom -> {owner window, last-change time} (spec.md §3 Selection row,
// §4.7).
package selection

import "sync"

// Entry is one selection's current ownership state.
type Entry struct {
	Owner uint32 // 0 (None) if unowned
	Time  uint32
}

// Table is the server-wide selection table, keyed by the selection atom
// (e.g. PRIMARY, CLIPBOARD).
type Table struct {
	mu      sync.Mutex
	entries map[uint32]Entry
}

// New returns an empty Table; GetOwner on an atom with no prior
// SetSelectionOwner call returns Owner 0 (None), matching a server that
// has just started up.
func New() *Table {
	return &Table{entries: make(map[uint32]Entry)}
}

// SetOwner records owner (0 to relinquish) as the new owner of selection,
// and returns the previous entry so the caller can decide who needs a
// SelectionClear event.
func (t *Table) SetOwner(selection, owner, time uint32) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.entries[selection]
	t.entries[selection] = Entry{Owner: owner, Time: time}
	return prev
}

// GetOwner returns the current entry for selection.
func (t *Table) GetOwner(selection uint32) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[selection]
}

// ClearWindow relinquishes every selection currently owned by window,
// called when that window is destroyed, and returns the atoms that were
// cleared so the caller can decide whether any further notification is
// owed (destroying the owner itself means there is no one left to send
// SelectionClear to).
func (t *Table) ClearWindow(window uint32) []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var cleared []uint32
	for sel, e := range t.entries {
		if e.Owner == window {
			cleared = append(cleared, sel)
			t.entries[sel] = Entry{Owner: 0, Time: e.Time}
		}
	}
	return cleared
}
