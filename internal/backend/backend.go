// Package backend defines the host-agnostic drawing and window-lifecycle
// vocabulary the dispatcher targets (spec.md §4.6, §4.10), mirroring
// internal/platform.Backend's flat method-per-operation shape but for the
// X11 drawable/GC vocabulary instead of a tiling window manager's.
package backend

import "image"

// WindowHandle is the backend's own identifier for a window it created,
// opaque to everything above this package.
type WindowHandle uint64

// DrawableKind distinguishes a window-backed drawable from a pixmap-backed
// one; backends that keep separate storage for the two use this to route.
type DrawableKind uint8

const (
	DrawableWindow DrawableKind = iota
	DrawablePixmap
)

// Drawable identifies a surface drawing operations target: either a
// window the backend created, or a pixmap handle it allocated via
// CreatePixmap.
type Drawable struct {
	Kind   DrawableKind
	Handle uint64
}

// GC is the subset of graphics-context state a drawing call needs,
// translated once by the dispatcher from gcontext.GC so this package does
// not import it.
type GC struct {
	Function   uint8
	Foreground uint32
	Background uint32
	LineWidth  uint16
	LineStyle  uint8
	CapStyle   uint8
	JoinStyle  uint8
	FillStyle  uint8
	FillRule   uint8
}

// Point is a drawable-relative coordinate, used by PolyPoint/PolyLine/FillPolygon.
type Point struct{ X, Y int16 }

// Segment is one disconnected line, the unit PolySegment draws.
type Segment struct{ X1, Y1, X2, Y2 int16 }

// Rect is a drawable-relative rectangle.
type Rect struct {
	X, Y          int16
	Width, Height uint16
}

// Arc is an elliptical arc in the bounding-box + angle form PolyArc uses;
// angles are 1/64 of a degree, 0 at the 3-o'clock position, counterclockwise
// (spec.md §4.6).
type Arc struct {
	X, Y          int16
	Width, Height uint16
	Angle1, Angle2 int16
}

// WindowParams are the attributes CreateWindow passes down once it has
// resolved them against the window tree.
type WindowParams struct {
	Parent           WindowHandle
	X, Y             int16
	Width, Height    uint16
	BorderWidth      uint16
	InputOnly        bool
	BackgroundPixel  uint32
	HasBackground    bool
	OverrideRedirect bool
	EventMask        uint32
}

// WindowConfig carries only the fields ConfigureWindow's bitmask set;
// unset fields are nil/zero and left untouched by the backend.
type WindowConfig struct {
	X, Y          *int16
	Width, Height *uint16
	BorderWidth   *uint16
}

// ScreenInfo is the one screen a backend exposes for SetupReply synthesis.
type ScreenInfo struct {
	WidthPixels, HeightPixels int
	WidthMM, HeightMM         int
	RootDepth                 uint8
	WhitePixel, BlackPixel    uint32
}

// VisualInfo describes one visual a screen supports; spec.md §4.2 requires
// at least one TrueColor depth-24 visual be present.
type VisualInfo struct {
	ID             uint32
	Class          uint8 // TrueColor(4) etc., per the core protocol's visual classes
	BitsPerRGB     uint8
	ColormapEntries uint16
	RedMask, GreenMask, BlueMask uint32
}

// ImageFormat mirrors the wire PutImage/GetImage format byte.
type ImageFormat uint8

const (
	ImageBitmap   ImageFormat = 0
	ImageXYPixmap ImageFormat = 1
	ImageZPixmap  ImageFormat = 2
)

// Event is one input or window-lifecycle event the backend ingestion loop
// polls out and hands to the event pipeline after translation to a
// server-assigned window id (spec.md §4.9).
type Event struct {
	Kind   EventKind
	Window WindowHandle
	X, Y   int16
	Width, Height uint16
	Keycode, Button uint8
	State  uint16
	Time   uint32
}

// EventKind tags the variant of Event in play; Go has no tagged-union
// enum, so the caller switches on Kind before reading the payload fields
// relevant to it.
type EventKind uint8

const (
	EventExpose EventKind = iota
	EventConfigure
	EventKeyPress
	EventKeyRelease
	EventButtonPress
	EventButtonRelease
	EventMotionNotify
	EventFocusIn
	EventFocusOut
	EventEnterNotify
	EventLeaveNotify
	EventDestroyNotify
	EventMapNotify
	EventUnmapNotify
)

// Backend abstracts window-system operations across hosts. One instance is
// owned by the server and called under a single mutex (spec.md §5); every
// method may block briefly but must not retain the caller's goroutine.
type Backend interface {
	Init() error
	ScreenInfo() (ScreenInfo, error)
	Visuals() ([]VisualInfo, error)

	CreateWindow(params WindowParams) (WindowHandle, error)
	DestroyWindow(w WindowHandle) error
	MapWindow(w WindowHandle) error
	UnmapWindow(w WindowHandle) error
	ConfigureWindow(w WindowHandle, cfg WindowConfig) error
	RaiseWindow(w WindowHandle) error
	LowerWindow(w WindowHandle) error

	ClearArea(w WindowHandle, x, y int16, width, height uint16) error
	DrawRectangles(d Drawable, gc GC, rects []Rect, fill bool) error
	DrawLines(d Drawable, gc GC, points []Point) error
	DrawSegments(d Drawable, gc GC, segments []Segment) error
	DrawPoints(d Drawable, gc GC, points []Point) error
	DrawArcs(d Drawable, gc GC, arcs []Arc, fill bool) error
	FillPolygon(d Drawable, gc GC, points []Point, windingRule bool) error
	DrawText(d Drawable, gc GC, x, y int16, text string) error
	CopyArea(src, dst Drawable, gc GC, srcX, srcY int16, width, height uint16, dstX, dstY int16) error
	CopyPlane(src, dst Drawable, gc GC, srcX, srcY int16, width, height uint16, dstX, dstY int16, bitPlane uint32) error

	CreatePixmap(width, height uint16, depth uint8) (Drawable, error)
	FreePixmap(d Drawable) error

	PutImage(d Drawable, gc GC, width, height uint16, dstX, dstY int16, depth uint8, format ImageFormat, data []byte) error
	GetImage(d Drawable, x, y int16, width, height uint16, format ImageFormat) ([]byte, error)

	PollEvents() ([]Event, error)
	Flush() error
}

// FrameToImage is a small shared helper for backends that keep a ZPixmap
// byte buffer and need to hand callers (tests, Snapshot) an image.Image.
// nullbackend is its only caller.
func FrameToImage(width, height int, zpixmap []byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, zpixmap)
	return img
}
