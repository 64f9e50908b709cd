package server

// Input grabs, pointer queries and keyboard focus have no real input
// device behind this server (spec.md §1 Non-goals: no input injection).
// These handlers accept and validate their targets so a client sees a
// well-formed protocol surface, without modeling actual grab contention.

// handleGrabPointer implements GrabPointer: always reports GrabSuccess.
func handleGrabPointer(r *request) ([]byte, error) {
	grabWindow := r.u32(0)
	if !r.srv.windows.Exists(grabWindow) {
		return nil, r.windowErr(grabWindow)
	}
	buf := r.replyBuf(0 /* GrabSuccess */, 0)
	return buf, nil
}

func handleUngrabPointer(r *request) ([]byte, error) { return nil, nil }

func handleGrabButton(r *request) ([]byte, error) {
	grabWindow := r.u32(0)
	if !r.srv.windows.Exists(grabWindow) {
		return nil, r.windowErr(grabWindow)
	}
	return nil, nil
}

func handleUngrabButton(r *request) ([]byte, error) { return nil, nil }

func handleChangeActivePointerGrab(r *request) ([]byte, error) { return nil, nil }

func handleGrabKeyboard(r *request) ([]byte, error) {
	grabWindow := r.u32(0)
	if !r.srv.windows.Exists(grabWindow) {
		return nil, r.windowErr(grabWindow)
	}
	return r.replyBuf(0 /* GrabSuccess */, 0), nil
}

func handleUngrabKeyboard(r *request) ([]byte, error) { return nil, nil }

func handleGrabKey(r *request) ([]byte, error) {
	grabWindow := r.u32(0)
	if !r.srv.windows.Exists(grabWindow) {
		return nil, r.windowErr(grabWindow)
	}
	return nil, nil
}

func handleUngrabKey(r *request) ([]byte, error) { return nil, nil }

func handleAllowEvents(r *request) ([]byte, error) { return nil, nil }

func handleGrabServer(r *request) ([]byte, error) { return nil, nil }

func handleUngrabServer(r *request) ([]byte, error) { return nil, nil }

// handleQueryPointer implements QueryPointer. No backend here tracks a
// real pointer position, so the reply names the root window as root, no
// child, and the pointer parked at the origin.
func handleQueryPointer(r *request) ([]byte, error) {
	window := r.u32(0)
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	buf := r.replyBuf(1 /* same-screen */, 0)
	r.order.PutUint32(buf[8:12], r.srv.rootID)
	r.order.PutUint32(buf[12:16], 0) // child
	return buf, nil
}

// handleGetMotionEvents implements GetMotionEvents: no motion history is
// recorded, so the reply always reports zero events.
func handleGetMotionEvents(r *request) ([]byte, error) {
	window := r.u32(0)
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	return r.replyBuf(0, 0), nil
}

// handleTranslateCoordinates implements TranslateCoordinates using the
// live window-tree geometry (no actual screen compositing is involved).
func handleTranslateCoordinates(r *request) ([]byte, error) {
	srcWindow := r.u32(0)
	dstWindow := r.u32(4)
	srcX, srcY := r.i16(8), r.i16(10)
	if !r.srv.windows.Exists(srcWindow) {
		return nil, r.windowErr(srcWindow)
	}
	if !r.srv.windows.Exists(dstWindow) {
		return nil, r.windowErr(dstWindow)
	}
	srcAbs, err := r.srv.absolutePosition(srcWindow)
	if err != nil {
		return nil, r.windowErr(srcWindow)
	}
	dstAbs, err := r.srv.absolutePosition(dstWindow)
	if err != nil {
		return nil, r.windowErr(dstWindow)
	}
	dstX := srcAbs.x + srcX - dstAbs.x
	dstY := srcAbs.y + srcY - dstAbs.y
	buf := r.replyBuf(1 /* same-screen */, 0)
	r.order.PutUint32(buf[8:12], 0) // child
	r.order.PutUint16(buf[12:14], uint16(dstX))
	r.order.PutUint16(buf[14:16], uint16(dstY))
	return buf, nil
}

type absPos struct{ x, y int16 }

// absolutePosition walks a window's ancestor chain summing each level's
// origin, used by TranslateCoordinates which has no compositor to ask.
func (s *Server) absolutePosition(window uint32) (absPos, error) {
	var x, y int16
	cur := window
	for {
		w, err := s.windows.Snapshot(cur)
		if err != nil {
			return absPos{}, err
		}
		x += w.X
		y += w.Y
		if cur == s.rootID {
			break
		}
		cur = w.Parent
	}
	return absPos{x, y}, nil
}

func handleWarpPointer(r *request) ([]byte, error) { return nil, nil }

// handleSetInputFocus implements SetInputFocus.
func handleSetInputFocus(r *request) ([]byte, error) {
	focus := r.u32(0)
	if focus != 0 && focus != 1 && !r.srv.windows.Exists(focus) {
		return nil, r.windowErr(focus)
	}
	if focus == 0 || focus == 1 {
		r.srv.focus = r.srv.rootID
	} else {
		r.srv.focus = focus
	}
	return nil, nil
}

// handleGetInputFocus implements GetInputFocus.
func handleGetInputFocus(r *request) ([]byte, error) {
	buf := r.replyBuf(0 /* revert-to: None */, 0)
	r.order.PutUint32(buf[8:12], r.srv.focus)
	return buf, nil
}

// handleQueryKeymap implements QueryKeymap: no key ever reports as down.
// The 32-byte keymap bitmap spans buf[8:40], 8 bytes past the standard
// 32-byte reply frame.
func handleQueryKeymap(r *request) ([]byte, error) {
	buf := r.replyBuf(0, 8)
	return buf, nil
}
