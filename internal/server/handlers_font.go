package server

import (
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
)

// Font handling here is a name registry, not a rendering engine: no glyph
// metrics are computed, matching the text-drawing handlers in
// handlers_draw.go which render raw bytes through the backend rather than
// shaping them against a font (spec.md §1 Non-goals).

// handleOpenFont implements OpenFont.
func handleOpenFont(r *request) ([]byte, error) {
	fid := r.u32(0)
	n := int(r.u16(4))
	name := string(r.bytesFrom(8, n))
	if err := r.srv.resources.Alloc(r.sess.ID, fid, resource.KindFont); err != nil {
		return nil, r.err(protoerr.IDChoice, fid)
	}
	r.srv.fonts[fid] = name
	return nil, nil
}

// handleCloseFont implements CloseFont.
func handleCloseFont(r *request) ([]byte, error) {
	fid := r.u32(0)
	if _, ok := r.srv.fonts[fid]; !ok {
		return nil, r.err(protoerr.Font, fid)
	}
	delete(r.srv.fonts, fid)
	r.srv.resources.Free(fid)
	return nil, nil
}

// handleQueryFont implements QueryFont with a minimal, metrics-free
// fixed-pitch reply: no char infos, no font properties.
func handleQueryFont(r *request) ([]byte, error) {
	fid := r.u32(0)
	if _, ok := r.srv.fonts[fid]; !ok {
		return nil, r.err(protoerr.Font, fid)
	}
	buf := r.replyBuf(0, 0)
	return buf, nil
}

// handleQueryTextExtents implements QueryTextExtents: the advance is the
// character count times a fixed nominal width, since no font metrics are
// modeled.
func handleQueryTextExtents(r *request) ([]byte, error) {
	const nominalWidth = 6
	n := (len(r.body) - 4) / 2 // CHAR2B entries after the font id
	if r.detail != 0 {
		n-- // odd-length: the last CHAR2B is padding
	}
	buf := r.replyBuf(0, 0)
	r.order.PutUint32(buf[16:20], uint32(n*nominalWidth))
	return buf, nil
}

// handleListFonts implements ListFonts: the server carries no built-in
// font catalog, so it always reports zero matches.
func handleListFonts(r *request) ([]byte, error) {
	return r.replyBuf(0, 0), nil
}

// handleListFontsWithInfo implements ListFontsWithInfo: immediately sends
// the terminal zero-name reply a real server would end its multi-reply
// sequence with.
func handleListFontsWithInfo(r *request) ([]byte, error) {
	return r.replyBuf(0, 28), nil
}

// handleSetFontPath implements SetFontPath: accepted and ignored, since
// ListFonts never consults a search path.
func handleSetFontPath(r *request) ([]byte, error) { return nil, nil }

// handleGetFontPath implements GetFontPath: reports an empty path.
func handleGetFontPath(r *request) ([]byte, error) {
	return r.replyBuf(0, 0), nil
}
