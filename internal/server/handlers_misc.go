package server

import (
	"github.com/x11anywhere/x11anywhere/internal/propstore"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
)

// Keyboard/pointer mapping, bell, screen-saver timing and host access
// control have no real input hardware or ACL behind this server (spec.md
// §1 Non-goals). These handlers keep the wire contract honest: every
// reply is the right shape, with the most permissive defaults (one
// NoSymbol keysym per keycode, an identity button map, access control
// disabled).

const (
	minKeycode = 8
	maxKeycode = 255
)

// handleChangeKeyboardMapping implements ChangeKeyboardMapping: accepted
// and discarded, since GetKeyboardMapping always reports NoSymbol.
func handleChangeKeyboardMapping(r *request) ([]byte, error) { return nil, nil }

// handleGetKeyboardMapping implements GetKeyboardMapping: one keysym per
// keycode, valued NoSymbol, for every keycode requested.
func handleGetKeyboardMapping(r *request) ([]byte, error) {
	count := int(r.u8(1))
	if count == 0 {
		count = maxKeycode - minKeycode + 1
	}
	trailing := make([]byte, 4*count)
	buf := r.replyBuf(1 /* keysyms-per-keycode */, len(trailing))
	copy(buf[32:], trailing)
	return buf, nil
}

// handleChangeKeyboardControl implements ChangeKeyboardControl.
func handleChangeKeyboardControl(r *request) ([]byte, error) { return nil, nil }

// handleGetKeyboardControl implements GetKeyboardControl.
func handleGetKeyboardControl(r *request) ([]byte, error) {
	buf := r.replyBuf(0 /* global-auto-repeat: off */, 20)
	r.order.PutUint32(buf[8:12], 0)    // led mask
	buf[12] = 0                        // key-click percent
	buf[13] = 0                        // bell percent
	r.order.PutUint16(buf[14:16], 0)   // bell pitch
	r.order.PutUint16(buf[16:18], 0)   // bell duration
	return buf, nil
}

// handleBell implements Bell: no audio device exists to ring.
func handleBell(r *request) ([]byte, error) { return nil, nil }

// handleChangePointerControl implements ChangePointerControl.
func handleChangePointerControl(r *request) ([]byte, error) { return nil, nil }

// handleGetPointerControl implements GetPointerControl.
func handleGetPointerControl(r *request) ([]byte, error) {
	buf := r.replyBuf(0, 0)
	r.order.PutUint16(buf[8:10], 1)  // acceleration numerator
	r.order.PutUint16(buf[10:12], 1) // acceleration denominator
	r.order.PutUint16(buf[12:14], 0) // threshold
	return buf, nil
}

// handleSetScreenSaver implements SetScreenSaver.
func handleSetScreenSaver(r *request) ([]byte, error) { return nil, nil }

// handleGetScreenSaver implements GetScreenSaver.
func handleGetScreenSaver(r *request) ([]byte, error) {
	return r.replyBuf(0, 0), nil
}

// handleChangeHosts implements ChangeHosts: accepted and discarded, since
// host-based access control is not enforced (spec.md §4.1's security
// bundles gate by transport, not by peer address list).
func handleChangeHosts(r *request) ([]byte, error) { return nil, nil }

// handleListHosts implements ListHosts: reports access control disabled
// and an empty host list.
func handleListHosts(r *request) ([]byte, error) {
	return r.replyBuf(0 /* mode: disabled */, 0), nil
}

// handleSetAccessControl implements SetAccessControl.
func handleSetAccessControl(r *request) ([]byte, error) { return nil, nil }

// handleSetCloseDownMode implements SetCloseDownMode.
func handleSetCloseDownMode(r *request) ([]byte, error) { return nil, nil }

// handleKillClient implements KillClient: closes the connection owning
// the named resource outright, or every client if resource is
// AllTemporary (0) — approximated here as a no-op since this server frees
// temporary resources on disconnect regardless (spec.md §4.3).
func handleKillClient(r *request) ([]byte, error) {
	target := r.u32(0)
	if target == 0 {
		return nil, nil
	}
	entry, err := r.srv.resources.LookupAny(target)
	if err != nil {
		return nil, r.err(protoerr.Value, target)
	}
	r.srv.sessMu.Lock()
	sess, ok := r.srv.sessions[entry.Creator]
	r.srv.sessMu.Unlock()
	if ok {
		sess.Close()
	}
	return nil, nil
}

// handleRotateProperties implements RotateProperties.
func handleRotateProperties(r *request) ([]byte, error) {
	window := r.u32(0)
	n := int(r.u16(4))
	delta := int(int16(r.u16(6)))
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	if n == 0 {
		return nil, nil
	}
	atoms := make([]uint32, n)
	for i := 0; i < n; i++ {
		atoms[i] = r.u32(8 + i*4)
	}
	props := make([]propstore.Property, n)
	for i, a := range atoms {
		p, ok := r.srv.props.Get(window, a)
		if !ok {
			return nil, r.err(protoerr.Atom, a)
		}
		props[i] = p
	}
	shift := ((delta % n) + n) % n
	for i, a := range atoms {
		src := props[(i+n-shift)%n]
		r.srv.props.Change(window, a, src.Type, src.Format, propstore.Replace, src.Data)
	}
	return nil, nil
}

// handleForceScreenSaver implements ForceScreenSaver.
func handleForceScreenSaver(r *request) ([]byte, error) { return nil, nil }

// handleSetPointerMapping implements SetPointerMapping: accepted and
// discarded, since GetPointerMapping always reports the identity map.
func handleSetPointerMapping(r *request) ([]byte, error) {
	return r.replyBuf(0 /* Success */, 0), nil
}

// handleGetPointerMapping implements GetPointerMapping: a 5-button
// identity map.
func handleGetPointerMapping(r *request) ([]byte, error) {
	const buttons = 5
	trailing := make([]byte, buttons)
	for i := range trailing {
		trailing[i] = byte(i + 1)
	}
	pad := (4 - len(trailing)%4) % 4
	trailing = append(trailing, make([]byte, pad)...)
	buf := r.replyBuf(buttons, len(trailing))
	copy(buf[32:], trailing)
	return buf, nil
}

// handleSetModifierMapping implements SetModifierMapping.
func handleSetModifierMapping(r *request) ([]byte, error) {
	return r.replyBuf(0 /* Success */, 0), nil
}

// handleGetModifierMapping implements GetModifierMapping: one keycode per
// modifier column, all zero (no keycode assigned).
func handleGetModifierMapping(r *request) ([]byte, error) {
	const keycodesPerModifier = 1
	trailing := make([]byte, 8*keycodesPerModifier)
	buf := r.replyBuf(uint8(keycodesPerModifier), len(trailing))
	copy(buf[32:], trailing)
	return buf, nil
}

// handleNoOperation implements NoOperation.
func handleNoOperation(r *request) ([]byte, error) { return nil, nil }
