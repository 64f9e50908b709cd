//go:build linux

// Package x11backend implements backend.Backend by mirroring every
// operation onto a real host X server, reached as an ordinary client via
// github.com/BurntSushi/xgb and github.com/BurntSushi/xgbutil — the same
// pair internal/x11.Connection in the donor repo uses to reach the
// operator's window manager. This lets the server run nested inside a
// real X session during manual testing, the role internal/platform.LinuxBackend
// plays for termtile.
package x11backend

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/x11anywhere/x11anywhere/internal/backend"
)

// Backend mirrors server-side drawables onto windows of a real host X
// display via xgbutil, translating every backend.Backend call into the
// equivalent xproto request against that host connection.
type Backend struct {
	mu sync.Mutex

	xu      *xgbutil.XUtil
	root    xproto.Window
	screen  xproto.ScreenInfo
	windows map[backend.WindowHandle]xproto.Window
	pixmaps map[uint64]xproto.Pixmap
	nextPix uint64
	events  []backend.Event
}

// New connects to the host display named by the DISPLAY environment
// variable (xgbutil.NewConn's usual behavior) and returns a Backend ready
// for Init.
func New() (*Backend, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11backend: connect to host display: %w", err)
	}
	return &Backend{
		xu:      xu,
		root:    xu.RootWin(),
		windows: make(map[backend.WindowHandle]xproto.Window),
		pixmaps: make(map[uint64]xproto.Pixmap),
	}, nil
}

func (b *Backend) Init() error {
	setup := xproto.Setup(b.xu.Conn())
	if len(setup.Roots) == 0 {
		return fmt.Errorf("x11backend: host server advertised no screens")
	}
	b.screen = setup.Roots[0]
	go xevent.Main(b.xu)
	return nil
}

func (b *Backend) ScreenInfo() (backend.ScreenInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return backend.ScreenInfo{
		WidthPixels:  int(b.screen.WidthInPixels),
		HeightPixels: int(b.screen.HeightInPixels),
		WidthMM:      int(b.screen.WidthInMillimeters),
		HeightMM:     int(b.screen.HeightInMillimeters),
		RootDepth:    b.screen.RootDepth,
		WhitePixel:   b.screen.WhitePixel,
		BlackPixel:   b.screen.BlackPixel,
	}, nil
}

func (b *Backend) Visuals() ([]backend.VisualInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []backend.VisualInfo
	for _, d := range b.screen.AllowedDepths {
		for _, v := range d.Visuals {
			out = append(out, backend.VisualInfo{
				ID:              uint32(v.VisualId),
				Class:           v.Class,
				BitsPerRGB:      v.BitsPerRgbValue,
				ColormapEntries: v.ColormapEntries,
				RedMask:         v.RedMask,
				GreenMask:       v.GreenMask,
				BlueMask:        v.BlueMask,
			})
		}
	}
	return out, nil
}

func (b *Backend) CreateWindow(params backend.WindowParams) (backend.WindowHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wid, err := xproto.NewWindowId(b.xu.Conn())
	if err != nil {
		return 0, fmt.Errorf("x11backend: allocate window id: %w", err)
	}
	parent := b.root
	if p, ok := b.windows[params.Parent]; ok {
		parent = p
	}
	var mask uint32
	var values []uint32
	if params.HasBackground {
		mask |= xproto.CwBackPixel
		values = append(values, params.BackgroundPixel)
	}
	mask |= xproto.CwEventMask
	values = append(values, xproto.EventMaskExposure|xproto.EventMaskStructureNotify)

	class := uint16(xproto.WindowClassInputOutput)
	if params.InputOnly {
		class = xproto.WindowClassInputOnly
	}
	err = xproto.CreateWindowChecked(
		b.xu.Conn(), b.screen.RootDepth, wid, parent,
		params.X, params.Y, max16(params.Width, 1), max16(params.Height, 1),
		params.BorderWidth, class, b.screen.RootVisual, mask, values,
	).Check()
	if err != nil {
		return 0, fmt.Errorf("x11backend: CreateWindow: %w", err)
	}
	handle := backend.WindowHandle(wid)
	b.windows[handle] = wid
	return handle, nil
}

func max16(v, floor uint16) uint16 {
	if v < floor {
		return floor
	}
	return v
}

func (b *Backend) DestroyWindow(h backend.WindowHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	wid, ok := b.windows[h]
	if !ok {
		return fmt.Errorf("x11backend: unknown window handle %d", h)
	}
	delete(b.windows, h)
	return xproto.DestroyWindowChecked(b.xu.Conn(), wid).Check()
}

func (b *Backend) MapWindow(h backend.WindowHandle) error {
	wid, err := b.resolve(h)
	if err != nil {
		return err
	}
	return xproto.MapWindowChecked(b.xu.Conn(), wid).Check()
}

func (b *Backend) UnmapWindow(h backend.WindowHandle) error {
	wid, err := b.resolve(h)
	if err != nil {
		return err
	}
	return xproto.UnmapWindowChecked(b.xu.Conn(), wid).Check()
}

func (b *Backend) ConfigureWindow(h backend.WindowHandle, cfg backend.WindowConfig) error {
	wid, err := b.resolve(h)
	if err != nil {
		return err
	}
	var mask uint16
	var values []uint32
	if cfg.X != nil {
		mask |= xproto.ConfigWindowX
		values = append(values, uint32(int32(*cfg.X)))
	}
	if cfg.Y != nil {
		mask |= xproto.ConfigWindowY
		values = append(values, uint32(int32(*cfg.Y)))
	}
	if cfg.Width != nil {
		mask |= xproto.ConfigWindowWidth
		values = append(values, uint32(*cfg.Width))
	}
	if cfg.Height != nil {
		mask |= xproto.ConfigWindowHeight
		values = append(values, uint32(*cfg.Height))
	}
	if cfg.BorderWidth != nil {
		mask |= xproto.ConfigWindowBorderWidth
		values = append(values, uint32(*cfg.BorderWidth))
	}
	if mask == 0 {
		return nil
	}
	return xproto.ConfigureWindowChecked(b.xu.Conn(), wid, mask, values).Check()
}

func (b *Backend) RaiseWindow(h backend.WindowHandle) error {
	wid, err := b.resolve(h)
	if err != nil {
		return err
	}
	return xproto.ConfigureWindowChecked(b.xu.Conn(), wid, xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove}).Check()
}

func (b *Backend) LowerWindow(h backend.WindowHandle) error {
	wid, err := b.resolve(h)
	if err != nil {
		return err
	}
	return xproto.ConfigureWindowChecked(b.xu.Conn(), wid, xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeBelow}).Check()
}

func (b *Backend) resolve(h backend.WindowHandle) (xproto.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wid, ok := b.windows[h]
	if !ok {
		return 0, fmt.Errorf("x11backend: unknown window handle %d", h)
	}
	return wid, nil
}

func (b *Backend) resolveDrawable(d backend.Drawable) (xproto.Drawable, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch d.Kind {
	case backend.DrawableWindow:
		wid, ok := b.windows[backend.WindowHandle(d.Handle)]
		if !ok {
			return 0, fmt.Errorf("x11backend: unknown window handle %d", d.Handle)
		}
		return xproto.Drawable(wid), nil
	case backend.DrawablePixmap:
		pix, ok := b.pixmaps[d.Handle]
		if !ok {
			return 0, fmt.Errorf("x11backend: unknown pixmap handle %d", d.Handle)
		}
		return xproto.Drawable(pix), nil
	default:
		return 0, fmt.Errorf("x11backend: unknown drawable kind %d", d.Kind)
	}
}

// gcFor returns a throwaway host GC configured with gc's foreground and
// line width; the server keeps its own authoritative GC state, so this
// backend recreates a minimal host GC per call rather than tracking one.
func (b *Backend) gcFor(d xproto.Drawable, gc backend.GC) (xproto.Gcontext, error) {
	id, err := xproto.NewGcontextId(b.xu.Conn())
	if err != nil {
		return 0, err
	}
	mask := uint32(xproto.GcForeground | xproto.GcBackground | xproto.GcLineWidth)
	values := []uint32{gc.Foreground, gc.Background, uint32(gc.LineWidth)}
	if err := xproto.CreateGCChecked(b.xu.Conn(), id, d, mask, values).Check(); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *Backend) freeGC(id xproto.Gcontext) {
	xproto.FreeGCChecked(b.xu.Conn(), id).Check()
}

func (b *Backend) ClearArea(h backend.WindowHandle, x, y int16, width, height uint16) error {
	wid, err := b.resolve(h)
	if err != nil {
		return err
	}
	return xproto.ClearAreaChecked(b.xu.Conn(), false, wid, x, y, width, height).Check()
}

func (b *Backend) DrawRectangles(d backend.Drawable, gc backend.GC, rects []backend.Rect, fill bool) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	xr := make([]xproto.Rectangle, len(rects))
	for i, r := range rects {
		xr[i] = xproto.Rectangle{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	if fill {
		return xproto.PolyFillRectangleChecked(b.xu.Conn(), dr, gid, xr).Check()
	}
	return xproto.PolyRectangleChecked(b.xu.Conn(), dr, gid, xr).Check()
}

func (b *Backend) DrawLines(d backend.Drawable, gc backend.GC, points []backend.Point) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	xp := make([]xproto.Point, len(points))
	for i, p := range points {
		xp[i] = xproto.Point{X: p.X, Y: p.Y}
	}
	return xproto.PolyLineChecked(b.xu.Conn(), xproto.CoordModeOrigin, dr, gid, xp).Check()
}

func (b *Backend) DrawSegments(d backend.Drawable, gc backend.GC, segments []backend.Segment) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	xs := make([]xproto.Segment, len(segments))
	for i, s := range segments {
		xs[i] = xproto.Segment{X1: s.X1, Y1: s.Y1, X2: s.X2, Y2: s.Y2}
	}
	return xproto.PolySegmentChecked(b.xu.Conn(), dr, gid, xs).Check()
}

func (b *Backend) DrawPoints(d backend.Drawable, gc backend.GC, points []backend.Point) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	xp := make([]xproto.Point, len(points))
	for i, p := range points {
		xp[i] = xproto.Point{X: p.X, Y: p.Y}
	}
	return xproto.PolyPointChecked(b.xu.Conn(), xproto.CoordModeOrigin, dr, gid, xp).Check()
}

func (b *Backend) DrawArcs(d backend.Drawable, gc backend.GC, arcs []backend.Arc, fill bool) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	xa := make([]xproto.Arc, len(arcs))
	for i, a := range arcs {
		xa[i] = xproto.Arc{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height, Angle1: a.Angle1, Angle2: a.Angle2}
	}
	if fill {
		return xproto.PolyFillArcChecked(b.xu.Conn(), dr, gid, xa).Check()
	}
	return xproto.PolyArcChecked(b.xu.Conn(), dr, gid, xa).Check()
}

func (b *Backend) FillPolygon(d backend.Drawable, gc backend.GC, points []backend.Point, windingRule bool) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	rule := uint32(xproto.FillRuleEvenOdd)
	if windingRule {
		rule = xproto.FillRuleWinding
	}
	if err := xproto.ChangeGCChecked(b.xu.Conn(), gid, xproto.GcFillRule, []uint32{rule}).Check(); err != nil {
		return err
	}
	xp := make([]xproto.Point, len(points))
	for i, p := range points {
		xp[i] = xproto.Point{X: p.X, Y: p.Y}
	}
	return xproto.FillPolyChecked(b.xu.Conn(), dr, gid, xproto.PolyShapeComplex, xproto.CoordModeOrigin, xp).Check()
}

func (b *Backend) DrawText(d backend.Drawable, gc backend.GC, x, y int16, text string) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	return xproto.ImageText8Checked(b.xu.Conn(), byte(len(text)), dr, gid, x, y, text).Check()
}

func (b *Backend) CopyArea(src, dst backend.Drawable, gc backend.GC, srcX, srcY int16, width, height uint16, dstX, dstY int16) error {
	sd, err := b.resolveDrawable(src)
	if err != nil {
		return err
	}
	dd, err := b.resolveDrawable(dst)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dd, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	return xproto.CopyAreaChecked(b.xu.Conn(), sd, dd, gid, srcX, srcY, dstX, dstY, width, height).Check()
}

func (b *Backend) CopyPlane(src, dst backend.Drawable, gc backend.GC, srcX, srcY int16, width, height uint16, dstX, dstY int16, bitPlane uint32) error {
	sd, err := b.resolveDrawable(src)
	if err != nil {
		return err
	}
	dd, err := b.resolveDrawable(dst)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dd, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	return xproto.CopyPlaneChecked(b.xu.Conn(), sd, dd, gid, srcX, srcY, dstX, dstY, width, height, bitPlane).Check()
}

func (b *Backend) CreatePixmap(width, height uint16, depth uint8) (backend.Drawable, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pid, err := xproto.NewPixmapId(b.xu.Conn())
	if err != nil {
		return backend.Drawable{}, err
	}
	if err := xproto.CreatePixmapChecked(b.xu.Conn(), depth, pid, xproto.Drawable(b.root), width, height).Check(); err != nil {
		return backend.Drawable{}, err
	}
	b.nextPix++
	handle := b.nextPix
	b.pixmaps[handle] = pid
	return backend.Drawable{Kind: backend.DrawablePixmap, Handle: handle}, nil
}

func (b *Backend) FreePixmap(d backend.Drawable) error {
	b.mu.Lock()
	pid, ok := b.pixmaps[d.Handle]
	delete(b.pixmaps, d.Handle)
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("x11backend: unknown pixmap handle %d", d.Handle)
	}
	return xproto.FreePixmapChecked(b.xu.Conn(), pid).Check()
}

func (b *Backend) PutImage(d backend.Drawable, gc backend.GC, width, height uint16, dstX, dstY int16, depth uint8, format backend.ImageFormat, data []byte) error {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return err
	}
	gid, err := b.gcFor(dr, gc)
	if err != nil {
		return err
	}
	defer b.freeGC(gid)
	return xproto.PutImageChecked(
		b.xu.Conn(), byte(format), dr, gid, width, height, dstX, dstY, 0, depth, data,
	).Check()
}

func (b *Backend) GetImage(d backend.Drawable, x, y int16, width, height uint16, format backend.ImageFormat) ([]byte, error) {
	dr, err := b.resolveDrawable(d)
	if err != nil {
		return nil, err
	}
	reply, err := xproto.GetImage(b.xu.Conn(), byte(format), dr, x, y, width, height, 0xffffffff).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Data, nil
}

func (b *Backend) PollEvents() ([]backend.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs := b.events
	b.events = nil
	return evs, nil
}

func (b *Backend) Flush() error {
	return nil
}

// Close disconnects from the host display.
func (b *Backend) Close() error {
	b.xu.Conn().Close()
	return nil
}

var _ backend.Backend = (*Backend)(nil)
