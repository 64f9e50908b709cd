// Package wintree implements the server's window tree: a single arena of
// windows keyed by id, each holding its parent id and an ordered list of
// child ids, rooted at one server-created root window (spec.md §3 Window
// row, §4.4). There are no language-level parent<->child reference
// cycles; every traversal walks ids through the arena map, per the
// re-architecture note in spec.md §9.
package wintree

import (
	"errors"
	"sync"

	"github.com/x11anywhere/x11anywhere/internal/resource"
)

// Class is the X11 window class: Input/Output windows can be drawn to and
// receive pointer/keyboard events; InputOnly windows exist purely to
// receive events.
type Class uint8

const (
	ClassCopyFromParent Class = 0
	ClassInputOutput    Class = 1
	ClassInputOnly      Class = 2
)

// StackMode mirrors the ConfigureWindow stack-mode values.
type StackMode uint8

const (
	Above StackMode = iota
	Below
	TopIf
	BottomIf
	Opposite
)

// Window is one node of the tree.
type Window struct {
	ID       uint32
	Parent   uint32 // 0 only for the root, which has no parent
	Children []uint32 // stacking order, index 0 is topmost

	X, Y                 int16
	Width, Height        uint16
	BorderWidth          uint16
	Class                Class
	Depth                uint8
	Visual               uint32
	Colormap             uint32

	BackgroundPixel  uint32
	BackgroundPixmap uint32 // 0 (None) if unset
	BorderPixel      uint32
	BorderPixmap     uint32
	OverrideRedirect bool
	Cursor           uint32 // 0 (None) inherits the parent's cursor

	EventMask           uint32
	DoNotPropagateMask  uint32

	Mapped  bool
	Creator resource.ClientID
}

// Attrs is the subset of CreateWindow/ChangeWindowAttributes fields the
// caller supplies; zero-value fields keep the tree's defaults.
type Attrs struct {
	BackgroundPixel     *uint32
	BackgroundPixmap    *uint32
	BorderPixel         *uint32
	BorderPixmap        *uint32
	OverrideRedirect    *bool
	EventMask           *uint32
	DoNotPropagateMask  *uint32
	Cursor              *uint32
	Colormap            *uint32
}

var (
	ErrNoSuchWindow  = errors.New("wintree: no such window")
	ErrRootHasNoParent = errors.New("wintree: root window has no parent")
	ErrRootWindow    = errors.New("wintree: operation not valid on the root window")
)

// Tree is the server-wide window tree. The zero value is not usable; use
// New.
type Tree struct {
	mu      sync.Mutex
	windows map[uint32]*Window
	root    uint32
}

// New creates a Tree with a single root window of the given geometry,
// owned by resource.ServerClientID.
func New(rootID uint32, width, height uint16, depth uint8, visual uint32) *Tree {
	t := &Tree{
		windows: make(map[uint32]*Window),
		root:    rootID,
	}
	t.windows[rootID] = &Window{
		ID:      rootID,
		Width:   width,
		Height:  height,
		Depth:   depth,
		Visual:  visual,
		Class:   ClassInputOutput,
		Mapped:  true,
		Creator: resource.ServerClientID,
	}
	return t
}

// RootID returns the id of the root window.
func (t *Tree) RootID() uint32 { return t.root }

// get returns the window, if live. The returned pointer must only be read
// or mutated while holding t.mu; callers in the dispatcher use the
// copy-returning accessors such as Snapshot instead.
func (t *Tree) get(id uint32) (*Window, error) {
	w, ok := t.windows[id]
	if !ok {
		return nil, ErrNoSuchWindow
	}
	return w, nil
}

// Snapshot returns a copy of the window's fields, safe to read without
// holding the tree lock afterward.
func (t *Tree) Snapshot(id uint32) (Window, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, err := t.get(id)
	if err != nil {
		return Window{}, err
	}
	cp := *w
	cp.Children = append([]uint32(nil), w.Children...)
	return cp, nil
}

// Create adds a new child window under parent.
func (t *Tree) Create(id, parent uint32, x, y int16, width, height, border uint16, class Class, depth uint8, visual uint32, creator resource.ClientID, attrs Attrs) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.get(parent)
	if err != nil {
		return err
	}

	w := &Window{
		ID:          id,
		Parent:      parent,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BorderWidth: border,
		Class:       class,
		Depth:       depth,
		Visual:      visual,
		Creator:     creator,
	}
	applyAttrs(w, attrs)

	t.windows[id] = w
	// New windows are stacked on top of their siblings.
	p.Children = append([]uint32{id}, p.Children...)
	return nil
}

func applyAttrs(w *Window, a Attrs) {
	if a.BackgroundPixel != nil {
		w.BackgroundPixel = *a.BackgroundPixel
		w.BackgroundPixmap = 0
	}
	if a.BackgroundPixmap != nil {
		w.BackgroundPixmap = *a.BackgroundPixmap
	}
	if a.BorderPixel != nil {
		w.BorderPixel = *a.BorderPixel
		w.BorderPixmap = 0
	}
	if a.BorderPixmap != nil {
		w.BorderPixmap = *a.BorderPixmap
	}
	if a.OverrideRedirect != nil {
		w.OverrideRedirect = *a.OverrideRedirect
	}
	if a.EventMask != nil {
		w.EventMask = *a.EventMask
	}
	if a.DoNotPropagateMask != nil {
		w.DoNotPropagateMask = *a.DoNotPropagateMask
	}
	if a.Cursor != nil {
		w.Cursor = *a.Cursor
	}
	if a.Colormap != nil {
		w.Colormap = *a.Colormap
	}
}

// ChangeAttributes applies a: bitmask-driven updates are the caller's
// responsibility (only non-nil fields of a are written).
func (t *Tree) ChangeAttributes(id uint32, a Attrs) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, err := t.get(id)
	if err != nil {
		return err
	}
	applyAttrs(w, a)
	return nil
}

// Destroy removes id and its entire subtree, detaching it from its
// parent's child list. It returns the ids of every destroyed window in
// post-order (deepest descendants first, id itself last), the order
// spec.md §4.3 requires for DestroyNotify delivery.
func (t *Tree) Destroy(id uint32) ([]uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if id == t.root {
		return nil, ErrRootWindow
	}

	order := t.postOrder(id)
	for _, did := range order {
		delete(t.windows, did)
	}

	if parent, ok := t.windows[w.Parent]; ok {
		parent.Children = removeID(parent.Children, id)
	}
	return order, nil
}

// DestroySubwindows is Destroy applied to every direct and indirect child
// of id, leaving id itself alive and empty of children.
func (t *Tree) DestroySubwindows(id uint32) ([]uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, err := t.get(id)
	if err != nil {
		return nil, err
	}
	var order []uint32
	for _, c := range append([]uint32(nil), w.Children...) {
		sub := t.postOrder(c)
		order = append(order, sub...)
		for _, o := range sub {
			delete(t.windows, o)
		}
	}
	w.Children = nil
	return order, nil
}

// postOrder returns id's subtree (id included) in post-order. Callers
// must hold t.mu.
func (t *Tree) postOrder(id uint32) []uint32 {
	w, ok := t.windows[id]
	if !ok {
		return nil
	}
	var out []uint32
	for _, c := range w.Children {
		out = append(out, t.postOrder(c)...)
	}
	return append(out, id)
}

func removeID(ids []uint32, target uint32) []uint32 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// SetMapped sets the mapped flag and reports the previous value.
func (t *Tree) SetMapped(id uint32, mapped bool) (previous bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, err := t.get(id)
	if err != nil {
		return false, err
	}
	previous = w.Mapped
	w.Mapped = mapped
	return previous, nil
}

// Geometry is a window's position and size, used by ConfigureWindow and
// GetGeometry.
type Geometry struct {
	X, Y          int16
	Width, Height uint16
	BorderWidth   uint16
}

// Configure updates geometry and/or stacking order. Any nil geometry
// argument is left unchanged; mode/sibling drive restacking when non-nil.
func (t *Tree) Configure(id uint32, x, y *int16, width, height, border *uint16, mode *StackMode, sibling *uint32) (before, after Geometry, changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, err := t.get(id)
	if err != nil {
		return Geometry{}, Geometry{}, false, err
	}
	before = Geometry{w.X, w.Y, w.Width, w.Height, w.BorderWidth}

	if x != nil {
		w.X = *x
	}
	if y != nil {
		w.Y = *y
	}
	if width != nil {
		w.Width = *width
	}
	if height != nil {
		w.Height = *height
	}
	if border != nil {
		w.BorderWidth = *border
	}
	after = Geometry{w.X, w.Y, w.Width, w.Height, w.BorderWidth}
	changed = before != after

	if mode != nil {
		if restackErr := t.restackLocked(w, *mode, sibling); restackErr != nil {
			return before, after, changed, restackErr
		}
	}
	return before, after, changed, nil
}

func (t *Tree) restackLocked(w *Window, mode StackMode, sibling *uint32) error {
	parent, ok := t.windows[w.Parent]
	if !ok {
		return ErrNoSuchWindow
	}
	siblings := removeID(append([]uint32(nil), parent.Children...), w.ID)

	insertAt := func(idx int) {
		out := make([]uint32, 0, len(siblings)+1)
		out = append(out, siblings[:idx]...)
		out = append(out, w.ID)
		out = append(out, siblings[idx:]...)
		parent.Children = out
	}

	indexOf := func(id uint32) int {
		for i, s := range siblings {
			if s == id {
				return i
			}
		}
		return -1
	}

	switch mode {
	case Above:
		if sibling != nil {
			if i := indexOf(*sibling); i >= 0 {
				insertAt(i)
				return nil
			}
		}
		insertAt(0)
	case Below:
		if sibling != nil {
			if i := indexOf(*sibling); i >= 0 {
				insertAt(i + 1)
				return nil
			}
		}
		insertAt(len(siblings))
	case TopIf, Opposite:
		insertAt(0)
	case BottomIf:
		insertAt(len(siblings))
	default:
		insertAt(0)
	}
	return nil
}

// Reparent moves id under newParent, on top of its new siblings, at the
// caller-supplied coordinates x, y within the new parent.
// It returns whether the window was mapped beforehand so the caller can
// decide whether to remap.
func (t *Tree) Reparent(id, newParent uint32, x, y int16) (wasMapped bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, err := t.get(id)
	if err != nil {
		return false, err
	}
	if id == t.root {
		return false, ErrRootWindow
	}
	if _, err := t.get(newParent); err != nil {
		return false, err
	}
	if old, ok := t.windows[w.Parent]; ok {
		old.Children = removeID(old.Children, id)
	}
	np := t.windows[newParent]
	np.Children = append([]uint32{id}, np.Children...)

	wasMapped = w.Mapped
	w.Parent = newParent
	w.X, w.Y = x, y
	return wasMapped, nil
}

// Children returns a copy of id's child list, topmost first.
func (t *Tree) Children(id uint32) ([]uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, err := t.get(id)
	if err != nil {
		return nil, err
	}
	return append([]uint32(nil), w.Children...), nil
}

// Ancestors returns id's ancestor chain starting with its parent and
// ending with the root (exclusive of id itself).
func (t *Tree) Ancestors(id uint32) ([]uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, err := t.get(id)
	if err != nil {
		return nil, err
	}
	var out []uint32
	cur := w
	for cur.ID != t.root {
		parent, ok := t.windows[cur.Parent]
		if !ok {
			break
		}
		out = append(out, parent.ID)
		if parent.ID == t.root {
			break
		}
		cur = parent
	}
	return out, nil
}

// Exists reports whether id names a live window.
func (t *Tree) Exists(id uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.windows[id]
	return ok
}
