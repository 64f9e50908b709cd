package server

import (
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
)

// Colormap and color allocation here track id bookkeeping only; no
// backend in internal/backend exposes a true hardware colormap, so
// AllocColor degrades to echoing the requested value back as its own
// pixel (spec.md §1 Non-goals: no palette hardware to manage).

// handleCreateColormap implements CreateColormap.
func handleCreateColormap(r *request) ([]byte, error) {
	mid := r.u32(0)
	window := r.u32(4)
	visual := r.u32(8)
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	if err := r.srv.resources.Alloc(r.sess.ID, mid, resource.KindColormap); err != nil {
		return nil, r.err(protoerr.IDChoice, mid)
	}
	r.srv.colormaps[mid] = visual
	return nil, nil
}

// handleFreeColormap implements FreeColormap.
func handleFreeColormap(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	delete(r.srv.colormaps, cmid)
	delete(r.srv.installed, cmid)
	r.srv.resources.Free(cmid)
	return nil, nil
}

// handleCopyColormapAndFree implements CopyColormapAndFree.
func handleCopyColormapAndFree(r *request) ([]byte, error) {
	mid := r.u32(0)
	srcCmid := r.u32(4)
	visual, ok := r.srv.colormaps[srcCmid]
	if !ok {
		return nil, r.err(protoerr.Colormap, srcCmid)
	}
	if err := r.srv.resources.Alloc(r.sess.ID, mid, resource.KindColormap); err != nil {
		return nil, r.err(protoerr.IDChoice, mid)
	}
	r.srv.colormaps[mid] = visual
	delete(r.srv.colormaps, srcCmid)
	delete(r.srv.installed, srcCmid)
	r.srv.resources.Free(srcCmid)
	return nil, nil
}

// handleInstallColormap implements InstallColormap.
func handleInstallColormap(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	r.srv.installed[cmid] = true
	return nil, nil
}

// handleUninstallColormap implements UninstallColormap.
func handleUninstallColormap(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	delete(r.srv.installed, cmid)
	return nil, nil
}

// handleListInstalledColormaps implements ListInstalledColormaps.
func handleListInstalledColormaps(r *request) ([]byte, error) {
	window := r.u32(0)
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	var ids []uint32
	for cmid, on := range r.srv.installed {
		if on {
			ids = append(ids, cmid)
		}
	}
	trailing := make([]byte, 4*len(ids))
	for i, id := range ids {
		r.order.PutUint32(trailing[i*4:i*4+4], id)
	}
	buf := r.replyBuf(0, len(trailing))
	r.order.PutUint16(buf[8:10], uint16(len(ids)))
	copy(buf[32:], trailing)
	return buf, nil
}

// handleAllocColor implements AllocColor: the pixel is synthesized by
// packing the 16-bit channels down to 8 bits each, since no backend
// palette exists to allocate against.
func handleAllocColor(r *request) ([]byte, error) {
	cmid := r.u32(0)
	red, green, blue := r.u16(4), r.u16(6), r.u16(8)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	pixel := uint32(red>>8)<<16 | uint32(green>>8)<<8 | uint32(blue>>8)
	buf := r.replyBuf(0, 0)
	r.order.PutUint16(buf[8:10], red)
	r.order.PutUint16(buf[10:12], green)
	r.order.PutUint16(buf[12:14], blue)
	r.order.PutUint32(buf[16:20], pixel)
	return buf, nil
}

// handleAllocNamedColor implements AllocNamedColor: unknown names always
// report BadName, since no named-color database is carried.
func handleAllocNamedColor(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	return nil, r.err(protoerr.Name, cmid)
}

// handleAllocColorCells implements AllocColorCells.
func handleAllocColorCells(r *request) ([]byte, error) {
	cmid := r.u32(0)
	colors := int(r.u16(4))
	planes := int(r.u16(6))
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	pixels := make([]byte, 4*colors)
	for i := 0; i < colors; i++ {
		r.order.PutUint32(pixels[i*4:i*4+4], uint32(i))
	}
	masks := make([]byte, 4*planes)
	buf := r.replyBuf(0, len(pixels)+len(masks))
	r.order.PutUint16(buf[8:10], uint16(colors))
	r.order.PutUint16(buf[10:12], uint16(planes))
	copy(buf[32:], pixels)
	copy(buf[32+len(pixels):], masks)
	return buf, nil
}

// handleAllocColorPlanes implements AllocColorPlanes.
func handleAllocColorPlanes(r *request) ([]byte, error) {
	cmid := r.u32(0)
	colors := int(r.u16(4))
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	pixels := make([]byte, 4*colors)
	for i := 0; i < colors; i++ {
		r.order.PutUint32(pixels[i*4:i*4+4], uint32(i))
	}
	buf := r.replyBuf(0, len(pixels))
	r.order.PutUint16(buf[8:10], uint16(colors))
	copy(buf[32:], pixels)
	return buf, nil
}

// handleFreeColors implements FreeColors: no cell ownership is tracked,
// so freeing is always accepted.
func handleFreeColors(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	return nil, nil
}

// handleStoreColors implements StoreColors: accepted and discarded, since
// no backing pixel storage exists to update.
func handleStoreColors(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	return nil, nil
}

// handleStoreNamedColor implements StoreNamedColor.
func handleStoreNamedColor(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	return nil, nil
}

// handleQueryColors implements QueryColors: every pixel reports black,
// since no backend stores actual cell contents.
func handleQueryColors(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	n := (len(r.body) - 4) / 4
	trailing := make([]byte, 8*n)
	buf := r.replyBuf(0, len(trailing))
	r.order.PutUint16(buf[8:10], uint16(n))
	copy(buf[32:], trailing)
	return buf, nil
}

// handleLookupColor implements LookupColor: unknown names always report
// BadName.
func handleLookupColor(r *request) ([]byte, error) {
	cmid := r.u32(0)
	if _, ok := r.srv.colormaps[cmid]; !ok {
		return nil, r.err(protoerr.Colormap, cmid)
	}
	return nil, r.err(protoerr.Name, cmid)
}

// handleCreateCursor implements CreateCursor: the id is registered so
// later WM_CURSOR-style references resolve, but no backend renders a
// hot-spot image for it (spec.md §1 Non-goals: no cursor rendering).
func handleCreateCursor(r *request) ([]byte, error) {
	cid := r.u32(0)
	if err := r.srv.resources.Alloc(r.sess.ID, cid, resource.KindCursor); err != nil {
		return nil, r.err(protoerr.IDChoice, cid)
	}
	r.srv.cursors[cid] = true
	return nil, nil
}

// handleCreateGlyphCursor implements CreateGlyphCursor.
func handleCreateGlyphCursor(r *request) ([]byte, error) {
	cid := r.u32(0)
	if err := r.srv.resources.Alloc(r.sess.ID, cid, resource.KindCursor); err != nil {
		return nil, r.err(protoerr.IDChoice, cid)
	}
	r.srv.cursors[cid] = true
	return nil, nil
}

// handleFreeCursor implements FreeCursor.
func handleFreeCursor(r *request) ([]byte, error) {
	cid := r.u32(0)
	if _, ok := r.srv.cursors[cid]; !ok {
		return nil, r.err(protoerr.Cursor, cid)
	}
	delete(r.srv.cursors, cid)
	r.srv.resources.Free(cid)
	return nil, nil
}

// handleRecolorCursor implements RecolorCursor.
func handleRecolorCursor(r *request) ([]byte, error) {
	cid := r.u32(0)
	if _, ok := r.srv.cursors[cid]; !ok {
		return nil, r.err(protoerr.Cursor, cid)
	}
	return nil, nil
}

// handleQueryBestSize implements QueryBestSize by echoing the requested
// size back; every class is treated as already optimal.
func handleQueryBestSize(r *request) ([]byte, error) {
	width, height := r.u16(4), r.u16(6)
	buf := r.replyBuf(0, 0)
	r.order.PutUint16(buf[8:10], width)
	r.order.PutUint16(buf[10:12], height)
	return buf, nil
}
