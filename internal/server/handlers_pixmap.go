package server

import (
	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
)

// handleCreatePixmap implements spec.md §4.6 CreatePixmap. depth travels in
// the request header's detail byte, mirroring CreateWindow.
func handleCreatePixmap(r *request) ([]byte, error) {
	pid := r.u32(0)
	drawable := r.u32(4)
	width, height := r.u16(8), r.u16(10)
	depth := r.detail

	if !r.srv.drawableExists(drawable) {
		return nil, r.err(protoerr.Drawable, drawable)
	}
	if width == 0 || height == 0 {
		return nil, r.err(protoerr.Value, 0)
	}
	d, err := r.srv.backend.CreatePixmap(width, height, depth)
	if err != nil {
		return nil, r.errf(protoerr.Alloc, pid, "create pixmap: %v", err)
	}
	if err := r.srv.resources.Alloc(r.sess.ID, pid, resource.KindPixmap); err != nil {
		r.srv.backend.FreePixmap(d)
		return nil, r.err(protoerr.IDChoice, pid)
	}
	r.srv.pixmaps[pid] = Pixmap{Width: width, Height: height, Depth: depth, Drawable: d, Creator: r.sess.ID}
	return nil, nil
}

// handleFreePixmap implements FreePixmap.
func handleFreePixmap(r *request) ([]byte, error) {
	pid := r.u32(0)
	if _, ok := r.srv.pixmaps[pid]; !ok {
		return nil, r.err(protoerr.Pixmap, pid)
	}
	r.srv.freePixmap(pid)
	r.srv.resources.Free(pid)
	return nil, nil
}

// drawableExists reports whether id names a live window or pixmap.
func (s *Server) drawableExists(id uint32) bool {
	if s.windows.Exists(id) {
		return true
	}
	_, ok := s.pixmaps[id]
	return ok
}

// resolveDrawable maps a window or pixmap id to the backend.Drawable value
// drawing operations target.
func (s *Server) resolveDrawable(id uint32) (backend.Drawable, bool) {
	if h, ok := s.handles[id]; ok {
		return backend.Drawable{Kind: backend.DrawableWindow, Handle: uint64(h)}, true
	}
	if pm, ok := s.pixmaps[id]; ok {
		return pm.Drawable, true
	}
	return backend.Drawable{}, false
}
