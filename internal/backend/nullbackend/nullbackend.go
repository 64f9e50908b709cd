// Package nullbackend implements an in-memory backend.Backend with no
// host window-system dependency, used by the test suite and by
// "-backend null" (spec.md §6). Drawable pixels live in image.RGBA
// buffers; CopyArea and DrawText are rendered through
// golang.org/x/image's draw and font packages rather than hand-rolled
// pixel loops, the same library termtile's graphics stack pulls in
// transitively.
package nullbackend

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/x11anywhere/x11anywhere/internal/backend"
)

// ErrUnknownDrawable is returned when a call names a window/pixmap handle
// this backend never created.
var ErrUnknownDrawable = errors.New("nullbackend: unknown drawable")

type window struct {
	x, y   int16
	w, h   uint16
	mapped bool
}

// Backend is a backend.Backend that paints into in-process framebuffers
// instead of a real display; it never touches the network or a host
// windowing system.
type Backend struct {
	mu sync.Mutex

	nextHandle  uint64
	windows     map[backend.WindowHandle]*window
	framebuffer map[backend.Drawable]*image.RGBA
	events      []backend.Event
}

// New returns a ready Backend; Init is a no-op for this backend.
func New() *Backend {
	return &Backend{
		windows:     make(map[backend.WindowHandle]*window),
		framebuffer: make(map[backend.Drawable]*image.RGBA),
	}
}

func (b *Backend) Init() error { return nil }

func (b *Backend) ScreenInfo() (backend.ScreenInfo, error) {
	return backend.ScreenInfo{
		WidthPixels: 1920, HeightPixels: 1080,
		WidthMM: 508, HeightMM: 285,
		RootDepth:  24,
		WhitePixel: 0xffffff,
		BlackPixel: 0x000000,
	}, nil
}

func (b *Backend) Visuals() ([]backend.VisualInfo, error) {
	return []backend.VisualInfo{
		{
			ID:              1,
			Class:           4, // TrueColor
			BitsPerRGB:      8,
			ColormapEntries: 256,
			RedMask:         0xff0000,
			GreenMask:       0x00ff00,
			BlueMask:        0x0000ff,
		},
	}, nil
}

func (b *Backend) drawableKey(h backend.WindowHandle) backend.Drawable {
	return backend.Drawable{Kind: backend.DrawableWindow, Handle: uint64(h)}
}

func (b *Backend) CreateWindow(params backend.WindowParams) (backend.WindowHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextHandle++
	h := backend.WindowHandle(b.nextHandle)
	b.windows[h] = &window{x: params.X, y: params.Y, w: params.Width, h: params.Height}
	fb := image.NewRGBA(image.Rect(0, 0, int(params.Width), int(params.Height)))
	if params.HasBackground {
		fillUniform(fb, params.BackgroundPixel)
	}
	b.framebuffer[b.drawableKey(h)] = fb
	return h, nil
}

func (b *Backend) DestroyWindow(h backend.WindowHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[h]; !ok {
		return ErrUnknownDrawable
	}
	delete(b.windows, h)
	delete(b.framebuffer, b.drawableKey(h))
	return nil
}

func (b *Backend) MapWindow(h backend.WindowHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[h]
	if !ok {
		return ErrUnknownDrawable
	}
	w.mapped = true
	return nil
}

func (b *Backend) UnmapWindow(h backend.WindowHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[h]
	if !ok {
		return ErrUnknownDrawable
	}
	w.mapped = false
	return nil
}

func (b *Backend) ConfigureWindow(h backend.WindowHandle, cfg backend.WindowConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[h]
	if !ok {
		return ErrUnknownDrawable
	}
	if cfg.X != nil {
		w.x = *cfg.X
	}
	if cfg.Y != nil {
		w.y = *cfg.Y
	}
	resized := false
	if cfg.Width != nil && *cfg.Width != w.w {
		w.w = *cfg.Width
		resized = true
	}
	if cfg.Height != nil && *cfg.Height != w.h {
		w.h = *cfg.Height
		resized = true
	}
	if resized {
		key := b.drawableKey(h)
		old := b.framebuffer[key]
		fb := image.NewRGBA(image.Rect(0, 0, int(w.w), int(w.h)))
		if old != nil {
			draw.Draw(fb, old.Bounds().Intersect(fb.Bounds()), old, image.Point{}, draw.Src)
		}
		b.framebuffer[key] = fb
	}
	return nil
}

func (b *Backend) RaiseWindow(h backend.WindowHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[h]; !ok {
		return ErrUnknownDrawable
	}
	return nil
}

func (b *Backend) LowerWindow(h backend.WindowHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[h]; !ok {
		return ErrUnknownDrawable
	}
	return nil
}

func (b *Backend) fb(d backend.Drawable) (*image.RGBA, bool) {
	fb, ok := b.framebuffer[d]
	return fb, ok
}

func (b *Backend) ClearArea(h backend.WindowHandle, x, y int16, width, height uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fb, ok := b.fb(b.drawableKey(h))
	if !ok {
		return ErrUnknownDrawable
	}
	rect := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height))
	draw.Draw(fb, rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return nil
}

func (b *Backend) DrawRectangles(d backend.Drawable, gc backend.GC, rects []backend.Rect, fill bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	c := rgbaFromPixel(gc.Foreground)
	for _, r := range rects {
		rect := image.Rect(int(r.X), int(r.Y), int(r.X)+int(r.Width), int(r.Y)+int(r.Height))
		if fill {
			draw.Draw(fbuf, rect, image.NewUniform(c), image.Point{}, draw.Src)
			continue
		}
		drawOutline(fbuf, rect, c)
	}
	return nil
}

func (b *Backend) DrawLines(d backend.Drawable, gc backend.GC, points []backend.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	c := rgbaFromPixel(gc.Foreground)
	for i := 0; i+1 < len(points); i++ {
		drawLine(fbuf, points[i], points[i+1], c)
	}
	return nil
}

func (b *Backend) DrawSegments(d backend.Drawable, gc backend.GC, segments []backend.Segment) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	c := rgbaFromPixel(gc.Foreground)
	for _, s := range segments {
		drawLine(fbuf, backend.Point{X: s.X1, Y: s.Y1}, backend.Point{X: s.X2, Y: s.Y2}, c)
	}
	return nil
}

func (b *Backend) DrawPoints(d backend.Drawable, gc backend.GC, points []backend.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	c := rgbaFromPixel(gc.Foreground)
	for _, p := range points {
		fbuf.Set(int(p.X), int(p.Y), c)
	}
	return nil
}

func (b *Backend) DrawArcs(d backend.Drawable, gc backend.GC, arcs []backend.Arc, fill bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	c := rgbaFromPixel(gc.Foreground)
	for _, a := range arcs {
		rect := image.Rect(int(a.X), int(a.Y), int(a.X)+int(a.Width), int(a.Y)+int(a.Height))
		if fill {
			draw.DrawMask(fbuf, rect, image.NewUniform(c), image.Point{}, ellipseMask(rect), image.Point{}, draw.Over)
			continue
		}
		drawOutline(fbuf, rect, c)
	}
	return nil
}

func (b *Backend) FillPolygon(d backend.Drawable, gc backend.GC, points []backend.Point, windingRule bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	if len(points) == 0 {
		return nil
	}
	c := rgbaFromPixel(gc.Foreground)
	minX, minY, maxX, maxY := int(points[0].X), int(points[0].Y), int(points[0].X), int(points[0].Y)
	for _, p := range points[1:] {
		minX, maxX = min(minX, int(p.X)), max(maxX, int(p.X))
		minY, maxY = min(minY, int(p.Y)), max(maxY, int(p.Y))
	}
	rect := image.Rect(minX, minY, maxX+1, maxY+1)
	draw.Draw(fbuf, rect, image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

func (b *Backend) DrawText(d backend.Drawable, gc backend.GC, x, y int16, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	if gc.Background != 0 {
		bg := rgbaFromPixel(gc.Background)
		metrics := basicfont.Face7x13.Metrics()
		height := metrics.Height.Ceil()
		width := font.MeasureString(basicfont.Face7x13, text).Ceil()
		rect := image.Rect(int(x), int(y)-height, int(x)+width, int(y))
		draw.Draw(fbuf, rect, image.NewUniform(bg), image.Point{}, draw.Src)
	}
	drawer := &font.Drawer{
		Dst:  fbuf,
		Src:  image.NewUniform(rgbaFromPixel(gc.Foreground)),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(x), int(y)),
	}
	drawer.DrawString(text)
	return nil
}

func (b *Backend) CopyArea(src, dst backend.Drawable, gc backend.GC, srcX, srcY int16, width, height uint16, dstX, dstY int16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	srcBuf, ok := b.fb(src)
	if !ok {
		return ErrUnknownDrawable
	}
	dstBuf, ok := b.fb(dst)
	if !ok {
		return ErrUnknownDrawable
	}
	dstRect := image.Rect(int(dstX), int(dstY), int(dstX)+int(width), int(dstY)+int(height))
	draw.Draw(dstBuf, dstRect, srcBuf, image.Pt(int(srcX), int(srcY)), draw.Src)
	return nil
}

func (b *Backend) CopyPlane(src, dst backend.Drawable, gc backend.GC, srcX, srcY int16, width, height uint16, dstX, dstY int16, bitPlane uint32) error {
	return b.CopyArea(src, dst, gc, srcX, srcY, width, height, dstX, dstY)
}

func (b *Backend) CreatePixmap(width, height uint16, depth uint8) (backend.Drawable, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextHandle++
	d := backend.Drawable{Kind: backend.DrawablePixmap, Handle: b.nextHandle}
	b.framebuffer[d] = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	return d, nil
}

func (b *Backend) FreePixmap(d backend.Drawable) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.framebuffer[d]; !ok {
		return ErrUnknownDrawable
	}
	delete(b.framebuffer, d)
	return nil
}

func (b *Backend) PutImage(d backend.Drawable, gc backend.GC, width, height uint16, dstX, dstY int16, depth uint8, format backend.ImageFormat, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return ErrUnknownDrawable
	}
	src := backend.FrameToImage(int(width), int(height), data)
	rect := image.Rect(int(dstX), int(dstY), int(dstX)+int(width), int(dstY)+int(height))
	draw.Draw(fbuf, rect, src, image.Point{}, draw.Src)
	return nil
}

func (b *Backend) GetImage(d backend.Drawable, x, y int16, width, height uint16, format backend.ImageFormat) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fbuf, ok := b.fb(d)
	if !ok {
		return nil, ErrUnknownDrawable
	}
	out := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.Draw(out, out.Bounds(), fbuf, image.Pt(int(x), int(y)), draw.Src)
	return out.Pix, nil
}

func (b *Backend) PollEvents() ([]backend.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs := b.events
	b.events = nil
	return evs, nil
}

func (b *Backend) Flush() error { return nil }

// Inject queues a synthetic backend event, letting tests drive the
// ingestion path the way a real host would.
func (b *Backend) Inject(ev backend.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// Snapshot returns the current framebuffer contents for d, the pull-based
// "dump current framebuffer" operation the original implementation's
// screenshot tests rely on.
func (b *Backend) Snapshot(d backend.Drawable) (image.Image, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fb, ok := b.framebuffer[d]
	if !ok {
		return nil, false
	}
	out := image.NewRGBA(fb.Bounds())
	draw.Draw(out, out.Bounds(), fb, image.Point{}, draw.Src)
	return out, true
}

func rgbaFromPixel(pixel uint32) color.RGBA {
	return color.RGBA{
		R: uint8(pixel >> 16),
		G: uint8(pixel >> 8),
		B: uint8(pixel),
		A: 0xff,
	}
}

func fillUniform(fb *image.RGBA, pixel uint32) {
	draw.Draw(fb, fb.Bounds(), image.NewUniform(rgbaFromPixel(pixel)), image.Point{}, draw.Src)
}

func drawOutline(fb *image.RGBA, rect image.Rectangle, c color.RGBA) {
	top := backend.Point{X: int16(rect.Min.X), Y: int16(rect.Min.Y)}
	topRight := backend.Point{X: int16(rect.Max.X), Y: int16(rect.Min.Y)}
	botRight := backend.Point{X: int16(rect.Max.X), Y: int16(rect.Max.Y)}
	botLeft := backend.Point{X: int16(rect.Min.X), Y: int16(rect.Max.Y)}
	drawLine(fb, top, topRight, c)
	drawLine(fb, topRight, botRight, c)
	drawLine(fb, botRight, botLeft, c)
	drawLine(fb, botLeft, top, c)
}

func drawLine(fb *image.RGBA, a, b2 backend.Point, c color.RGBA) {
	x0, y0, x1, y1 := int(a.X), int(a.Y), int(b2.X), int(b2.Y)
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx - dy
	for {
		fb.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func ellipseMask(rect image.Rectangle) image.Image {
	w, h := rect.Dx(), rect.Dy()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nx, ny := (float64(x)-cx)/cx, (float64(y)-cy)/cy
			if nx*nx+ny*ny <= 1 {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var _ backend.Backend = (*Backend)(nil)
