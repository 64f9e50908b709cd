package server

import (
	"github.com/x11anywhere/x11anywhere/internal/gcontext"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
)

// gcValueCount reports how many 4-byte values mask selects, matching the
// wire encoding CreateGC/ChangeGC/CopyGC share.
func gcValueCount(mask uint32) int {
	n := 0
	for mask != 0 {
		n += int(mask & 1)
		mask >>= 1
	}
	return n
}

func decodeGCValues(r *request, off int, mask uint32) []uint32 {
	n := gcValueCount(mask)
	vals := make([]uint32, n)
	for i := 0; i < n; i++ {
		vals[i] = r.u32(off + i*4)
	}
	return vals
}

// handleCreateGC implements spec.md §4.5 CreateGC.
func handleCreateGC(r *request) ([]byte, error) {
	cid := r.u32(0)
	drawable := r.u32(4)
	mask := r.u32(8)

	if !r.srv.drawableExists(drawable) {
		return nil, r.err(protoerr.Drawable, drawable)
	}
	gc := gcontext.Default(drawable)
	if err := gcontext.Apply(gc, mask, decodeGCValues(r, 12, mask)); err != nil {
		return nil, r.err(protoerr.Value, mask)
	}
	if err := r.srv.resources.Alloc(r.sess.ID, cid, resource.KindGC); err != nil {
		return nil, r.err(protoerr.IDChoice, cid)
	}
	r.srv.gcs.Create(cid, gc)
	return nil, nil
}

// handleChangeGC implements ChangeGC.
func handleChangeGC(r *request) ([]byte, error) {
	cid := r.u32(0)
	mask := r.u32(4)
	gc, ok := r.srv.gcs.Get(cid)
	if !ok {
		return nil, r.err(protoerr.GContext, cid)
	}
	if err := gcontext.Apply(gc, mask, decodeGCValues(r, 8, mask)); err != nil {
		return nil, r.err(protoerr.Value, mask)
	}
	return nil, nil
}

// handleCopyGC implements CopyGC.
func handleCopyGC(r *request) ([]byte, error) {
	src := r.u32(0)
	dst := r.u32(4)
	mask := r.u32(8)
	srcGC, ok := r.srv.gcs.Get(src)
	if !ok {
		return nil, r.err(protoerr.GContext, src)
	}
	dstGC, ok := r.srv.gcs.Get(dst)
	if !ok {
		return nil, r.err(protoerr.GContext, dst)
	}
	if err := gcontext.Copy(dstGC, srcGC, mask); err != nil {
		return nil, r.err(protoerr.Value, mask)
	}
	return nil, nil
}

// handleSetDashes implements SetDashes.
func handleSetDashes(r *request) ([]byte, error) {
	cid := r.u32(0)
	offset := r.u16(4)
	n := int(r.u16(6))
	gc, ok := r.srv.gcs.Get(cid)
	if !ok {
		return nil, r.err(protoerr.GContext, cid)
	}
	dashes := make([]uint8, n)
	for i := 0; i < n; i++ {
		dashes[i] = r.u8(8 + i)
	}
	gc.DashOffset = offset
	gc.Dashes = dashes
	return nil, nil
}

// handleSetClipRectangles implements SetClipRectangles.
func handleSetClipRectangles(r *request) ([]byte, error) {
	cid := r.u32(0)
	xOrigin, yOrigin := r.i16(4), r.i16(6)
	gc, ok := r.srv.gcs.Get(cid)
	if !ok {
		return nil, r.err(protoerr.GContext, cid)
	}
	var rects []gcontext.Rectangle
	for off := 8; off+8 <= len(r.body); off += 8 {
		rects = append(rects, gcontext.Rectangle{
			X: r.i16(off), Y: r.i16(off + 2), Width: r.u16(off + 4), Height: r.u16(off + 6),
		})
	}
	gc.ClipXOrigin, gc.ClipYOrigin = xOrigin, yOrigin
	gc.ClipRectangles = rects
	gc.ClipMask = 0
	return nil, nil
}

// handleFreeGC implements FreeGC.
func handleFreeGC(r *request) ([]byte, error) {
	cid := r.u32(0)
	if _, ok := r.srv.gcs.Get(cid); !ok {
		return nil, r.err(protoerr.GContext, cid)
	}
	r.srv.gcs.Free(cid)
	r.srv.resources.Free(cid)
	return nil, nil
}
