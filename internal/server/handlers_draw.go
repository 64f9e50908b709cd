package server

import (
	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/gcontext"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
)

// toBackendGC translates the server's gcontext.GC into the flattened
// vocabulary backend.Backend's drawing methods take, so internal/backend
// does not need to import internal/gcontext.
func toBackendGC(gc *gcontext.GC) backend.GC {
	return backend.GC{
		Function:   gc.Function,
		Foreground: gc.Foreground,
		Background: gc.Background,
		LineWidth:  gc.LineWidth,
		LineStyle:  gc.LineStyle,
		CapStyle:   gc.CapStyle,
		JoinStyle:  gc.JoinStyle,
		FillStyle:  gc.FillStyle,
		FillRule:   gc.FillRule,
	}
}

func (r *request) lookupDrawableAndGC(drawableID, gcID uint32) (backend.Drawable, *gcontext.GC, error) {
	d, ok := r.srv.resolveDrawable(drawableID)
	if !ok {
		return backend.Drawable{}, nil, r.err(protoerr.Drawable, drawableID)
	}
	gc, ok := r.srv.gcs.Get(gcID)
	if !ok {
		return backend.Drawable{}, nil, r.err(protoerr.GContext, gcID)
	}
	return d, gc, nil
}

// handleClearArea implements spec.md §4.6 ClearArea.
func handleClearArea(r *request) ([]byte, error) {
	window := r.u32(0)
	x, y := r.i16(4), r.i16(6)
	width, height := r.u16(8), r.u16(10)
	h, ok := r.srv.handles[window]
	if !ok {
		return nil, r.windowErr(window)
	}
	if err := r.srv.backendCall(func() error { return r.srv.backend.ClearArea(h, x, y, width, height) }); err != nil {
		return nil, r.errf(protoerr.Match, window, "clear area: %v", err)
	}
	return nil, nil
}

// handleCopyArea implements CopyArea.
func handleCopyArea(r *request) ([]byte, error) {
	src := r.u32(0)
	dst := r.u32(4)
	gcID := r.u32(8)
	srcX, srcY := r.i16(12), r.i16(14)
	dstX, dstY := r.i16(16), r.i16(18)
	width, height := r.u16(20), r.u16(22)

	srcD, ok := r.srv.resolveDrawable(src)
	if !ok {
		return nil, r.err(protoerr.Drawable, src)
	}
	dstD, gc, err := r.lookupDrawableAndGC(dst, gcID)
	if err != nil {
		return nil, err
	}
	r.srv.backendCall(func() error {
		return r.srv.backend.CopyArea(srcD, dstD, toBackendGC(gc), srcX, srcY, width, height, dstX, dstY)
	})
	return nil, nil
}

// handleCopyPlane implements CopyPlane.
func handleCopyPlane(r *request) ([]byte, error) {
	src := r.u32(0)
	dst := r.u32(4)
	gcID := r.u32(8)
	srcX, srcY := r.i16(12), r.i16(14)
	dstX, dstY := r.i16(16), r.i16(18)
	width, height := r.u16(20), r.u16(22)
	bitPlane := r.u32(24)

	srcD, ok := r.srv.resolveDrawable(src)
	if !ok {
		return nil, r.err(protoerr.Drawable, src)
	}
	dstD, gc, err := r.lookupDrawableAndGC(dst, gcID)
	if err != nil {
		return nil, err
	}
	r.srv.backendCall(func() error {
		return r.srv.backend.CopyPlane(srcD, dstD, toBackendGC(gc), srcX, srcY, width, height, dstX, dstY, bitPlane)
	})
	return nil, nil
}

// handlePolyPoint implements PolyPoint/PolyLine (same point-list shape).
func handlePolyPoint(r *request) ([]byte, error) {
	return drawPoints(r, false)
}

func handlePolyLine(r *request) ([]byte, error) {
	return drawPoints(r, true)
}

func drawPoints(r *request, asLines bool) ([]byte, error) {
	drawable := r.u32(0)
	gcID := r.u32(4)
	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	var points []backend.Point
	for off := 8; off+4 <= len(r.body); off += 4 {
		points = append(points, backend.Point{X: r.i16(off), Y: r.i16(off + 2)})
	}
	r.srv.backendCall(func() error {
		if asLines {
			return r.srv.backend.DrawLines(d, toBackendGC(gc), points)
		}
		return r.srv.backend.DrawPoints(d, toBackendGC(gc), points)
	})
	return nil, nil
}

// handlePolySegment implements PolySegment.
func handlePolySegment(r *request) ([]byte, error) {
	drawable := r.u32(0)
	gcID := r.u32(4)
	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	var segs []backend.Segment
	for off := 8; off+8 <= len(r.body); off += 8 {
		segs = append(segs, backend.Segment{X1: r.i16(off), Y1: r.i16(off + 2), X2: r.i16(off + 4), Y2: r.i16(off + 6)})
	}
	r.srv.backendCall(func() error { return r.srv.backend.DrawSegments(d, toBackendGC(gc), segs) })
	return nil, nil
}

func decodeRects(r *request, off int) []backend.Rect {
	var rects []backend.Rect
	for ; off+8 <= len(r.body); off += 8 {
		rects = append(rects, backend.Rect{X: r.i16(off), Y: r.i16(off + 2), Width: r.u16(off + 4), Height: r.u16(off + 6)})
	}
	return rects
}

// handlePolyRectangle implements PolyRectangle (unfilled).
func handlePolyRectangle(r *request) ([]byte, error) {
	return polyRects(r, false)
}

// handlePolyFillRectangle implements PolyFillRectangle.
func handlePolyFillRectangle(r *request) ([]byte, error) {
	return polyRects(r, true)
}

func polyRects(r *request, fill bool) ([]byte, error) {
	drawable := r.u32(0)
	gcID := r.u32(4)
	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	rects := decodeRects(r, 8)
	r.srv.backendCall(func() error { return r.srv.backend.DrawRectangles(d, toBackendGC(gc), rects, fill) })
	return nil, nil
}

func decodeArcs(r *request, off int) []backend.Arc {
	var arcs []backend.Arc
	for ; off+12 <= len(r.body); off += 12 {
		arcs = append(arcs, backend.Arc{
			X: r.i16(off), Y: r.i16(off + 2), Width: r.u16(off + 4), Height: r.u16(off + 6),
			Angle1: r.i16(off + 8), Angle2: r.i16(off + 10),
		})
	}
	return arcs
}

// handlePolyArc implements PolyArc (unfilled).
func handlePolyArc(r *request) ([]byte, error) {
	return polyArcs(r, false)
}

// handlePolyFillArc implements PolyFillArc.
func handlePolyFillArc(r *request) ([]byte, error) {
	return polyArcs(r, true)
}

func polyArcs(r *request, fill bool) ([]byte, error) {
	drawable := r.u32(0)
	gcID := r.u32(4)
	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	arcs := decodeArcs(r, 8)
	r.srv.backendCall(func() error { return r.srv.backend.DrawArcs(d, toBackendGC(gc), arcs, fill) })
	return nil, nil
}

// handleFillPoly implements FillPoly. The winding rule travels in the
// target GC's fill-rule component, not a FillPoly body field.
func handleFillPoly(r *request) ([]byte, error) {
	drawable := r.u32(0)
	gcID := r.u32(4)
	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	var points []backend.Point
	for off := 12; off+4 <= len(r.body); off += 4 {
		points = append(points, backend.Point{X: r.i16(off), Y: r.i16(off + 2)})
	}
	r.srv.backendCall(func() error { return r.srv.backend.FillPolygon(d, toBackendGC(gc), points, gc.FillRule == 1) })
	return nil, nil
}

// handlePutImage implements PutImage.
func handlePutImage(r *request) ([]byte, error) {
	format := backend.ImageFormat(r.detail)
	drawable := r.u32(0)
	gcID := r.u32(4)
	width, height := r.u16(8), r.u16(10)
	dstX, dstY := r.i16(12), r.i16(14)
	depth := r.u8(17)
	data := r.bytesFrom(20, len(r.body)-20)

	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	if err := r.srv.backendCall(func() error {
		return r.srv.backend.PutImage(d, toBackendGC(gc), width, height, dstX, dstY, depth, format, data)
	}); err != nil {
		return nil, r.errf(protoerr.Match, drawable, "put image: %v", err)
	}
	return nil, nil
}

// handleGetImage implements GetImage.
func handleGetImage(r *request) ([]byte, error) {
	format := backend.ImageFormat(r.detail)
	drawable := r.u32(0)
	x, y := r.i16(4), r.i16(6)
	width, height := r.u16(8), r.u16(10)

	d, ok := r.srv.resolveDrawable(drawable)
	if !ok {
		return nil, r.err(protoerr.Drawable, drawable)
	}
	data, err := r.srv.backend.GetImage(d, x, y, width, height, format)
	if err != nil {
		return nil, r.errf(protoerr.Match, drawable, "get image: %v", err)
	}
	pad := (4 - len(data)%4) % 4
	trailing := make([]byte, len(data)+pad)
	copy(trailing, data)
	buf := r.replyBuf(r.srv.screenInfo.RootDepth, len(trailing))
	r.order.PutUint32(buf[8:12], r.srv.rootVisual)
	copy(buf[32:], trailing)
	return buf, nil
}

// handlePolyText8 implements PolyText8/PolyText16: a sequence of TEXTITEM
// elements, each either a delta plus a run of characters or a font change.
// Font changes are accepted and ignored; this server's backends render
// glyphs from raw bytes, not from a font-metrics table (spec.md §4.6).
func handlePolyText8(r *request) ([]byte, error) {
	return polyText(r, false)
}

func handlePolyText16(r *request) ([]byte, error) {
	return polyText(r, true)
}

func polyText(r *request, wide bool) ([]byte, error) {
	drawable := r.u32(0)
	gcID := r.u32(4)
	x, y := r.i16(8), r.i16(10)
	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}

	cursor := x
	for off := 12; off < len(r.body); {
		n := int(r.u8(off))
		if n == 0 {
			break
		}
		off++
		if n == 255 {
			off += 4 // font-change item: 4-byte font id, ignored
			continue
		}
		delta := int16(int8(r.u8(off)))
		off++
		var text []byte
		if wide {
			text = make([]byte, n)
			for i := 0; i < n; i++ {
				text[i] = r.u8(off + i*2 + 1)
			}
			off += n * 2
		} else {
			text = append(text, r.bytesFrom(off, n)...)
			off += n
		}
		cursor += delta
		r.srv.backendCall(func() error { return r.srv.backend.DrawText(d, toBackendGC(gc), cursor, y, string(text)) })
		cursor += int16(n)
	}
	return nil, nil
}

// handleImageText8 implements ImageText8: an immediate, unbuffered text
// draw with no server-side font metrics (spec.md §4.6's drawing surface
// has no font-rendering engine; backends that care about glyphs render the
// raw bytes themselves).
func handleImageText8(r *request) ([]byte, error) {
	n := int(r.detail)
	drawable := r.u32(0)
	gcID := r.u32(4)
	x, y := r.i16(8), r.i16(10)
	text := string(r.bytesFrom(12, n))

	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	r.srv.backendCall(func() error { return r.srv.backend.DrawText(d, toBackendGC(gc), x, y, text) })
	return nil, nil
}

// handleImageText16 implements ImageText16, degrading each 16-bit CHAR2B to
// its low byte for backends with no wide-glyph support.
func handleImageText16(r *request) ([]byte, error) {
	n := int(r.detail)
	drawable := r.u32(0)
	gcID := r.u32(4)
	x, y := r.i16(8), r.i16(10)
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = r.u8(12 + i*2 + 1)
	}

	d, gc, err := r.lookupDrawableAndGC(drawable, gcID)
	if err != nil {
		return nil, err
	}
	r.srv.backendCall(func() error { return r.srv.backend.DrawText(d, toBackendGC(gc), x, y, string(buf)) })
	return nil, nil
}
