package server

import (
	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/evqueue"
	"github.com/x11anywhere/x11anywhere/internal/proto"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
	"github.com/x11anywhere/x11anywhere/internal/wintree"
)

// handleCreateWindow implements spec.md §4.4 CreateWindow: parent must be
// alive, the requested id must fall in the client's range and be unused,
// and CreateNotify is delivered to parents that selected
// SubstructureNotify. depth rides in the request header's detail byte;
// class is a body field, not the other way around.
func handleCreateWindow(r *request) ([]byte, error) {
	wid := r.u32(0)
	parent := r.u32(4)
	x, y := r.i16(8), r.i16(10)
	width, height := r.u16(12), r.u16(14)
	border := r.u16(16)
	class := wintree.Class(r.u16(18))
	visual := r.u32(20)
	valueMask := r.u32(24)
	depth := r.detail

	if !r.srv.windows.Exists(parent) {
		return nil, r.err(protoerr.Window, parent)
	}
	if !proto.CWKnownBits(valueMask) {
		return nil, r.err(protoerr.Value, valueMask)
	}

	attrs, err := decodeWindowAttrs(r, 28, valueMask)
	if err != nil {
		return nil, err
	}

	if depth == 0 {
		depth = r.srv.screenInfo.RootDepth
	}
	if visual == 0 {
		visual = r.srv.rootVisual
	}

	if err := r.srv.resources.Alloc(r.sess.ID, wid, resource.KindWindow); err != nil {
		return nil, r.err(protoerr.IDChoice, wid)
	}
	if err := r.srv.windows.Create(wid, parent, x, y, width, height, border, class, depth, visual, r.sess.ID, attrs); err != nil {
		r.srv.resources.Free(wid)
		return nil, r.windowErr(parent)
	}

	wp := backend.WindowParams{
		Parent: r.srv.handles[parent], X: x, Y: y, Width: width, Height: height, BorderWidth: border,
		InputOnly:        class == wintree.ClassInputOnly,
		OverrideRedirect: attrs.OverrideRedirect != nil && *attrs.OverrideRedirect,
	}
	if attrs.BackgroundPixel != nil {
		wp.BackgroundPixel = *attrs.BackgroundPixel
		wp.HasBackground = true
	}
	if attrs.EventMask != nil {
		wp.EventMask = *attrs.EventMask
	}
	handle, berr := r.srv.backend.CreateWindow(wp)
	if berr == nil {
		r.srv.handles[wid] = handle
		r.srv.byHandle[handle] = wid
	}
	if attrs.EventMask != nil {
		r.srv.router.Select(wid, r.sess.ID, *attrs.EventMask)
	}

	r.dispatchEvent(parent, proto.EventMaskSubstructureNotify, evqueue.CreateNotifyBuilder(parent, wid, x, y, width, height, border, wp.OverrideRedirect))
	return nil, nil
}

func decodeWindowAttrs(r *request, off int, mask uint32) (wintree.Attrs, error) {
	var a wintree.Attrs
	for _, bit := range proto.CWOrderedBits {
		if mask&bit == 0 {
			continue
		}
		v := r.u32(off)
		off += 4
		switch bit {
		case proto.CWBackPixel:
			a.BackgroundPixel = &v
		case proto.CWBackPixmap:
			a.BackgroundPixmap = &v
		case proto.CWBorderPixel:
			a.BorderPixel = &v
		case proto.CWBorderPixmap:
			a.BorderPixmap = &v
		case proto.CWOverrideRedirect:
			b := v != 0 && r.srv.policy.HonorOverrideRedirect
			a.OverrideRedirect = &b
		case proto.CWEventMask:
			a.EventMask = &v
		case proto.CWDontPropagate:
			a.DoNotPropagateMask = &v
		case proto.CWCursor:
			a.Cursor = &v
		case proto.CWColormap:
			a.Colormap = &v
		}
	}
	return a, nil
}

// handleChangeWindowAttributes implements spec.md §4.4
// ChangeWindowAttributes.
func handleChangeWindowAttributes(r *request) ([]byte, error) {
	wid := r.u32(0)
	mask := r.u32(4)
	if !r.srv.windows.Exists(wid) {
		return nil, r.windowErr(wid)
	}
	if !proto.CWKnownBits(mask) {
		return nil, r.err(protoerr.Value, mask)
	}
	w, _ := r.srv.windows.Snapshot(wid)
	if w.Creator != r.sess.ID && !r.srv.policy.AllowCrossClientAttrs {
		return nil, r.err(protoerr.Access, wid)
	}
	attrs, _ := decodeWindowAttrs(r, 8, mask)
	if err := r.srv.windows.ChangeAttributes(wid, attrs); err != nil {
		return nil, r.windowErr(wid)
	}
	if attrs.EventMask != nil {
		r.srv.router.Select(wid, r.sess.ID, *attrs.EventMask)
	}
	return nil, nil
}

// handleGetWindowAttributes implements the pure-read side of spec.md §4.4.
func handleGetWindowAttributes(r *request) ([]byte, error) {
	wid := r.u32(0)
	w, err := r.srv.windows.Snapshot(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	buf := r.replyBuf(1 /* backing-store: NotUseful */, 0)
	r.order.PutUint32(buf[8:12], w.Visual)
	class := w.Class
	if class == wintree.ClassCopyFromParent {
		class = wintree.ClassInputOutput
	}
	r.order.PutUint16(buf[12:14], uint16(class)) // InputOutput=1/InputOnly=2 on the wire
	buf[14] = 0 // bit-gravity
	buf[15] = 0 // win-gravity
	r.order.PutUint32(buf[16:20], 0xffffffff)
	r.order.PutUint32(buf[20:24], w.BackgroundPixel)
	r.order.PutUint32(buf[24:28], w.BackgroundPixel)
	if w.OverrideRedirect {
		buf[28] = 1
	}
	buf[29] = 0 // map-is-installed
	mapState := byte(0)
	if w.Mapped {
		mapState = 2
	}
	buf[30] = mapState
	buf[31] = 0 // all-event-masks placeholder; full fidelity not required for a read-mostly attributes query
	return buf, nil
}

// handleDestroyWindow implements spec.md §4.3/§4.4 DestroyWindow.
func handleDestroyWindow(r *request) ([]byte, error) {
	wid := r.u32(0)
	w, err := r.srv.windows.Snapshot(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	if w.Creator != r.sess.ID {
		return nil, r.err(protoerr.Access, wid)
	}
	r.srv.destroyWindowCascade(wid)
	return nil, nil
}

// handleDestroySubwindows implements DestroySubwindows: id itself survives.
func handleDestroySubwindows(r *request) ([]byte, error) {
	wid := r.u32(0)
	if !r.srv.windows.Exists(wid) {
		return nil, r.windowErr(wid)
	}
	order, err := r.srv.windows.DestroySubwindows(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	r.srv.finishDestroy(order)
	return nil, nil
}

// handleChangeSaveSet is a stub: the save-set only matters for
// ReparentWindow interactions with window-manager restarts, a scenario
// out of scope for a headless protocol engine (spec.md §1 Non-goals
// implies no window-manager-replacement semantics are exercised here).
func handleChangeSaveSet(r *request) ([]byte, error) {
	wid := r.u32(0)
	if !r.srv.windows.Exists(wid) {
		return nil, r.windowErr(wid)
	}
	return nil, nil
}

// handleReparentWindow implements spec.md §4.4 ReparentWindow.
func handleReparentWindow(r *request) ([]byte, error) {
	wid := r.u32(0)
	newParent := r.u32(4)
	x, y := r.i16(8), r.i16(10)

	w, err := r.srv.windows.Snapshot(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	if !r.srv.windows.Exists(newParent) {
		return nil, r.windowErr(newParent)
	}
	wasMapped := w.Mapped
	if wasMapped {
		r.unmapOne(wid, false)
	}
	if _, err := r.srv.windows.Reparent(wid, newParent, x, y); err != nil {
		return nil, r.windowErr(wid)
	}
	r.dispatchEvent(wid, proto.EventMaskStructureNotify, evqueue.ReparentNotifyBuilder(wid, wid, newParent, x, y, w.OverrideRedirect))
	r.dispatchEvent(newParent, proto.EventMaskSubstructureNotify, evqueue.ReparentNotifyBuilder(newParent, wid, newParent, x, y, w.OverrideRedirect))
	if wasMapped {
		r.mapOne(wid)
	}
	return nil, nil
}

// handleMapWindow implements spec.md §4.4 MapWindow: toggles mapped,
// calls the backend, and emits MapNotify plus an Expose covering the
// full area on first map.
func handleMapWindow(r *request) ([]byte, error) {
	wid := r.u32(0)
	if !r.srv.windows.Exists(wid) {
		return nil, r.windowErr(wid)
	}
	r.mapOne(wid)
	return nil, nil
}

func (r *request) mapOne(wid uint32) {
	prev, err := r.srv.windows.SetMapped(wid, true)
	if err != nil || prev {
		return
	}
	w, _ := r.srv.windows.Snapshot(wid)
	if h, ok := r.srv.handles[wid]; ok {
		r.srv.backendCall(func() error { return r.srv.backend.MapWindow(h) })
	}
	r.dispatchEvent(w.Parent, proto.EventMaskSubstructureNotify, evqueue.MapNotifyBuilder(w.Parent, wid, w.OverrideRedirect))
	r.deliverDirect(wid, proto.EventMaskStructureNotify, evqueue.MapNotifyBuilder(wid, wid, w.OverrideRedirect))
	r.dispatchEvent(wid, proto.EventMaskExposure, evqueue.ExposeBuilder(wid, 0, 0, w.Width, w.Height, 0))
}

// handleMapSubwindows maps every direct child of id.
func handleMapSubwindows(r *request) ([]byte, error) {
	wid := r.u32(0)
	children, err := r.srv.windows.Children(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	for _, c := range children {
		r.mapOne(c)
	}
	return nil, nil
}

// handleUnmapWindow implements spec.md §4.4 UnmapWindow.
func handleUnmapWindow(r *request) ([]byte, error) {
	wid := r.u32(0)
	if !r.srv.windows.Exists(wid) {
		return nil, r.windowErr(wid)
	}
	r.unmapOne(wid, false)
	return nil, nil
}

func (r *request) unmapOne(wid uint32, fromConfigure bool) {
	prev, err := r.srv.windows.SetMapped(wid, false)
	if err != nil || !prev {
		return
	}
	w, _ := r.srv.windows.Snapshot(wid)
	if h, ok := r.srv.handles[wid]; ok {
		r.srv.backendCall(func() error { return r.srv.backend.UnmapWindow(h) })
	}
	r.dispatchEvent(w.Parent, proto.EventMaskSubstructureNotify, evqueue.UnmapNotifyBuilder(w.Parent, wid, fromConfigure))
	r.deliverDirect(wid, proto.EventMaskStructureNotify, evqueue.UnmapNotifyBuilder(wid, wid, fromConfigure))
}

func handleUnmapSubwindows(r *request) ([]byte, error) {
	wid := r.u32(0)
	children, err := r.srv.windows.Children(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	for _, c := range children {
		r.unmapOne(c, false)
	}
	return nil, nil
}

// handleConfigureWindow implements spec.md §4.4 ConfigureWindow.
func handleConfigureWindow(r *request) ([]byte, error) {
	wid := r.u32(0)
	mask := r.u16(4)

	w, err := r.srv.windows.Snapshot(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}

	const (
		cfgX           = 1 << 0
		cfgY           = 1 << 1
		cfgWidth       = 1 << 2
		cfgHeight      = 1 << 3
		cfgBorderWidth = 1 << 4
		cfgSibling     = 1 << 5
		cfgStackMode   = 1 << 6
	)
	off := 8
	var x, y *int16
	var width, height, border *uint16
	var mode *wintree.StackMode
	var sibling *uint32
	for _, bit := range []uint16{cfgX, cfgY, cfgWidth, cfgHeight, cfgBorderWidth, cfgSibling, cfgStackMode} {
		if mask&bit == 0 {
			continue
		}
		switch bit {
		case cfgX:
			v := r.i16(off)
			x = &v
		case cfgY:
			v := r.i16(off)
			y = &v
		case cfgWidth:
			v := r.u16(off)
			width = &v
		case cfgHeight:
			v := r.u16(off)
			height = &v
		case cfgBorderWidth:
			v := r.u16(off)
			border = &v
		case cfgSibling:
			v := r.u32(off)
			sibling = &v
		case cfgStackMode:
			v := wintree.StackMode(r.u8(off))
			mode = &v
		}
		off += 4
	}

	before, after, changed, err := r.srv.windows.Configure(wid, x, y, width, height, border, mode, sibling)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	if h, ok := r.srv.handles[wid]; ok {
		r.srv.backendCall(func() error {
			return r.srv.backend.ConfigureWindow(h, backend.WindowConfig{X: &after.X, Y: &after.Y, Width: &after.Width, Height: &after.Height, BorderWidth: &after.BorderWidth})
		})
	}
	if changed {
		r.dispatchEvent(w.Parent, proto.EventMaskSubstructureNotify, evqueue.ConfigureNotifyBuilder(w.Parent, wid, 0, after.X, after.Y, after.Width, after.Height, after.BorderWidth, w.OverrideRedirect))
		r.deliverDirect(wid, proto.EventMaskStructureNotify, evqueue.ConfigureNotifyBuilder(wid, wid, 0, after.X, after.Y, after.Width, after.Height, after.BorderWidth, w.OverrideRedirect))
		if w.Mapped && (after.Width > before.Width || after.Height > before.Height) {
			r.dispatchEvent(wid, proto.EventMaskExposure, evqueue.ExposeBuilder(wid, 0, 0, after.Width, after.Height, 0))
		}
	}
	return nil, nil
}

// handleCirculateWindow is a stub: it accepts the request and reports
// success without reordering, since no client tested against this
// server has depended on Circulate's raise/lower-to-occlusion semantics.
func handleCirculateWindow(r *request) ([]byte, error) {
	wid := r.u32(0)
	if !r.srv.windows.Exists(wid) {
		return nil, r.windowErr(wid)
	}
	return nil, nil
}

// handleGetGeometry implements spec.md §4.4 GetGeometry; it also accepts
// pixmap ids since GetGeometry is defined on any drawable.
func handleGetGeometry(r *request) ([]byte, error) {
	did := r.u32(0)
	if w, err := r.srv.windows.Snapshot(did); err == nil {
		buf := r.replyBuf(r.srv.screenInfo.RootDepth, 0)
		r.order.PutUint32(buf[8:12], r.srv.rootID)
		r.order.PutUint16(buf[12:14], uint16(w.X))
		r.order.PutUint16(buf[14:16], uint16(w.Y))
		r.order.PutUint16(buf[16:18], w.Width)
		r.order.PutUint16(buf[18:20], w.Height)
		r.order.PutUint16(buf[20:22], w.BorderWidth)
		return buf, nil
	}
	if pm, ok := r.srv.pixmaps[did]; ok {
		buf := r.replyBuf(pm.Depth, 0)
		r.order.PutUint32(buf[8:12], r.srv.rootID)
		r.order.PutUint16(buf[16:18], pm.Width)
		r.order.PutUint16(buf[18:20], pm.Height)
		return buf, nil
	}
	return nil, r.err(protoerr.Drawable, did)
}

// handleQueryTree implements spec.md §4.4 QueryTree.
func handleQueryTree(r *request) ([]byte, error) {
	wid := r.u32(0)
	w, err := r.srv.windows.Snapshot(wid)
	if err != nil {
		return nil, r.windowErr(wid)
	}
	trailing := make([]byte, 4*len(w.Children))
	for i, c := range w.Children {
		r.order.PutUint32(trailing[i*4:i*4+4], c)
	}
	buf := r.replyBuf(0, len(trailing))
	r.order.PutUint32(buf[8:12], r.srv.rootID)
	if w.ID != r.srv.rootID {
		r.order.PutUint32(buf[12:16], w.Parent)
	}
	r.order.PutUint16(buf[16:18], uint16(len(w.Children)))
	copy(buf[32:], trailing)
	return buf, nil
}
