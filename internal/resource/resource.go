// Package resource implements the server's typed resource table: the
// single map from a 32-bit X11 id to the kind of resource it names and
// the client that created it (spec.md §3, §4.3). Windows, pixmaps,
// graphics contexts, cursors, fonts and colormaps all share this table so
// that a wrong-type reference is caught uniformly.
package resource

import (
	"errors"
	"sync"

	"github.com/x11anywhere/x11anywhere/internal/protoerr"
)

// Kind identifies the class of a resource id.
type Kind int

const (
	KindWindow Kind = iota
	KindPixmap
	KindGC
	KindCursor
	KindFont
	KindColormap
)

// ErrCode returns the protocol error code a lookup against this kind
// should report on a type mismatch or dead reference, per spec.md §7.
func (k Kind) ErrCode() protoerr.Code {
	switch k {
	case KindWindow:
		return protoerr.Window
	case KindPixmap:
		return protoerr.Pixmap
	case KindGC:
		return protoerr.GContext
	case KindCursor:
		return protoerr.Cursor
	case KindFont:
		return protoerr.Font
	case KindColormap:
		return protoerr.Colormap
	default:
		return protoerr.Value
	}
}

func (k Kind) String() string {
	switch k {
	case KindWindow:
		return "Window"
	case KindPixmap:
		return "Pixmap"
	case KindGC:
		return "GC"
	case KindCursor:
		return "Cursor"
	case KindFont:
		return "Font"
	case KindColormap:
		return "Colormap"
	default:
		return "Unknown"
	}
}

// ClientID identifies a connected session for ownership/cascade-destroy
// purposes. It is unrelated to the X11 resource-id client base, though
// the server derives one from the other.
type ClientID uint32

// ServerClientID is the pseudo-client that owns server-allocated resources
// (the root window, default colormap, default visual's implied resources,
// default GC) created during startup rather than by any connected client.
const ServerClientID ClientID = 0

// Range is the inclusive [Base, Base|Mask] id range a client is allowed
// to allocate ids from, derived from the client's id-base and id-mask
// handed out in SetupReply.
type Range struct {
	Base uint32
	Mask uint32
}

// Contains reports whether id falls inside r.
func (r Range) Contains(id uint32) bool {
	return id&^r.Mask == r.Base
}

// Entry is one live resource.
type Entry struct {
	ID      uint32
	Kind    Kind
	Creator ClientID
}

var (
	// ErrNotFound means no live resource has this id.
	ErrNotFound = errors.New("resource: not found")
	// ErrWrongKind means id is live but names a resource of a different kind.
	ErrWrongKind = errors.New("resource: wrong kind")
	// ErrOutOfRange means id falls outside the creating client's id range.
	ErrOutOfRange = errors.New("resource: id outside client range")
	// ErrAlreadyLive means a CreateX request supplied an id already in use.
	ErrAlreadyLive = errors.New("resource: id already live")
)

// Table is the server-wide resource table. The zero value is not usable;
// use New.
type Table struct {
	mu      sync.Mutex
	entries map[uint32]Entry
	ranges  map[ClientID]Range
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		entries: make(map[uint32]Entry),
		ranges:  make(map[ClientID]Range),
	}
}

// SetRange records the id range a client may allocate from. Called once
// per client right after the id-base/id-mask are decided at handshake.
func (t *Table) SetRange(client ClientID, r Range) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ranges[client] = r
}

// Alloc registers a new resource. It enforces that the id lies in the
// creating client's range (server-owned resources created with
// ServerClientID skip that check) and that the id is not already live.
func (t *Table) Alloc(client ClientID, id uint32, kind Kind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if client != ServerClientID {
		r, ok := t.ranges[client]
		if !ok || !r.Contains(id) {
			return ErrOutOfRange
		}
	}
	if _, exists := t.entries[id]; exists {
		return ErrAlreadyLive
	}
	t.entries[id] = Entry{ID: id, Kind: kind, Creator: client}
	return nil
}

// Lookup returns the entry for id if it is live and of the expected kind.
func (t *Table) Lookup(id uint32, kind Kind) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if e.Kind != kind {
		return Entry{}, ErrWrongKind
	}
	return e, nil
}

// LookupAny returns the entry for id regardless of kind, used by
// requests (like GetGeometry) that accept more than one drawable kind.
func (t *Table) LookupAny(id uint32) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Free removes a live resource. It is a no-op error path for the caller
// to ignore if the id was already gone (idempotent free is allowed by
// FreeGC/FreePixmap semantics; callers that must error on missing ids
// check Lookup first).
func (t *Table) Free(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// FreeAllByCreator removes every resource created by client and returns
// the removed entries, used for cascade-destroy on disconnect (spec.md
// §4.3). The returned slice is sorted by nothing in particular; the
// caller (wintree) is responsible for ordering window destruction
// correctly (post-order over the subtree, not table order).
func (t *Table) FreeAllByCreator(client ClientID) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	var freed []Entry
	for id, e := range t.entries {
		if e.Creator == client {
			freed = append(freed, e)
			delete(t.entries, id)
		}
	}
	delete(t.ranges, client)
	return freed
}
