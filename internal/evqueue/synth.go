package evqueue

import (
	"encoding/binary"

	"github.com/x11anywhere/x11anywhere/internal/proto"
)

func frameHeader(order binary.ByteOrder, code, detail uint8, sequence uint16) [FrameSize]byte {
	var f [FrameSize]byte
	f[0] = code
	f[1] = detail
	order.PutUint16(f[2:4], sequence)
	return f
}

// CreateNotifyBuilder builds the event a parent selecting SubstructureNotify
// receives when a child window is created (spec.md §4.4).
func CreateNotifyBuilder(parent, window uint32, x, y int16, width, height, borderWidth uint16, overrideRedirect bool) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventCreateNotify, 0, seq)
		order.PutUint32(f[4:8], parent)
		order.PutUint32(f[8:12], window)
		order.PutUint16(f[12:14], uint16(x))
		order.PutUint16(f[14:16], uint16(y))
		order.PutUint16(f[16:18], width)
		order.PutUint16(f[18:20], height)
		order.PutUint16(f[20:22], borderWidth)
		if overrideRedirect {
			f[22] = 1
		}
		return f
	}
}

// DestroyNotifyBuilder builds a DestroyNotify; event is the window the
// event is being delivered relative to (the selecting ancestor or the
// window itself), window is the window that was destroyed.
func DestroyNotifyBuilder(event, window uint32) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventDestroyNotify, 0, seq)
		order.PutUint32(f[4:8], event)
		order.PutUint32(f[8:12], window)
		return f
	}
}

// UnmapNotifyBuilder builds an UnmapNotify.
func UnmapNotifyBuilder(event, window uint32, fromConfigure bool) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventUnmapNotify, 0, seq)
		order.PutUint32(f[4:8], event)
		order.PutUint32(f[8:12], window)
		if fromConfigure {
			f[12] = 1
		}
		return f
	}
}

// MapNotifyBuilder builds a MapNotify.
func MapNotifyBuilder(event, window uint32, overrideRedirect bool) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventMapNotify, 0, seq)
		order.PutUint32(f[4:8], event)
		order.PutUint32(f[8:12], window)
		if overrideRedirect {
			f[12] = 1
		}
		return f
	}
}

// ReparentNotifyBuilder builds a ReparentNotify.
func ReparentNotifyBuilder(event, window, parent uint32, x, y int16, overrideRedirect bool) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventReparentNotify, 0, seq)
		order.PutUint32(f[4:8], event)
		order.PutUint32(f[8:12], window)
		order.PutUint32(f[12:16], parent)
		order.PutUint16(f[16:18], uint16(x))
		order.PutUint16(f[18:20], uint16(y))
		if overrideRedirect {
			f[20] = 1
		}
		return f
	}
}

// ConfigureNotifyBuilder builds a ConfigureNotify.
func ConfigureNotifyBuilder(event, window, aboveSibling uint32, x, y int16, width, height, borderWidth uint16, overrideRedirect bool) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventConfigureNotify, 0, seq)
		order.PutUint32(f[4:8], event)
		order.PutUint32(f[8:12], window)
		order.PutUint32(f[12:16], aboveSibling)
		order.PutUint16(f[16:18], uint16(x))
		order.PutUint16(f[18:20], uint16(y))
		order.PutUint16(f[20:22], width)
		order.PutUint16(f[22:24], height)
		order.PutUint16(f[24:26], borderWidth)
		if overrideRedirect {
			f[26] = 1
		}
		return f
	}
}

// ExposeBuilder builds an Expose event covering one damaged rectangle of
// window; count is the number of further Expose events still to come for
// the same exposure (0 for the common single-rectangle case spec.md's
// end-to-end scenarios describe).
func ExposeBuilder(window uint32, x, y int16, width, height, count uint16) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventExpose, 0, seq)
		order.PutUint32(f[4:8], window)
		order.PutUint16(f[8:10], uint16(x))
		order.PutUint16(f[10:12], uint16(y))
		order.PutUint16(f[12:14], width)
		order.PutUint16(f[14:16], height)
		order.PutUint16(f[16:18], count)
		return f
	}
}

// PropertyNotifyBuilder builds a PropertyNotify.
func PropertyNotifyBuilder(window, atom, time uint32, state uint8) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventPropertyNotify, 0, seq)
		order.PutUint32(f[4:8], window)
		order.PutUint32(f[8:12], atom)
		order.PutUint32(f[12:16], time)
		f[16] = state
		return f
	}
}

// SelectionClearBuilder builds a SelectionClear, sent to a selection's
// prior owner when ownership changes hands.
func SelectionClearBuilder(time, owner, selectionAtom uint32) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventSelectionClear, 0, seq)
		order.PutUint32(f[4:8], time)
		order.PutUint32(f[8:12], owner)
		order.PutUint32(f[12:16], selectionAtom)
		return f
	}
}

// SelectionRequestBuilder builds the SelectionRequest forwarded to a
// selection's owner by ConvertSelection.
func SelectionRequestBuilder(time, owner, requestor, selectionAtom, target, property uint32) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventSelectionRequest, 0, seq)
		order.PutUint32(f[4:8], time)
		order.PutUint32(f[8:12], owner)
		order.PutUint32(f[12:16], requestor)
		order.PutUint32(f[16:20], selectionAtom)
		order.PutUint32(f[20:24], target)
		order.PutUint32(f[24:28], property)
		return f
	}
}

// SelectionNotifyBuilder builds the SelectionNotify an owner's SendEvent
// forwards to the original requestor of a ConvertSelection.
func SelectionNotifyBuilder(time, requestor, selectionAtom, target, property uint32) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventSelectionNotify, 0, seq)
		order.PutUint32(f[4:8], time)
		order.PutUint32(f[8:12], requestor)
		order.PutUint32(f[12:16], selectionAtom)
		order.PutUint32(f[16:20], target)
		order.PutUint32(f[20:24], property)
		return f
	}
}

// ClientMessageBuilder re-encodes a 20-byte ClientMessage payload
// (already parsed out of native width fields by the caller) for a given
// recipient. format is carried in the detail byte exactly as the wire
// protocol does.
func ClientMessageBuilder(format uint8, window, msgType uint32, data [20]byte) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, proto.EventClientMessage, format, seq)
		order.PutUint32(f[4:8], window)
		order.PutUint32(f[8:12], msgType)
		copy(f[12:32], data[:])
		return f
	}
}

// keyButtonPointerBuilder renders the shared body layout of KeyPress,
// KeyRelease, ButtonPress, ButtonRelease and MotionNotify: a keycode or
// button number in the detail byte, followed by timestamp, root/event/child
// window, root- and event-relative coordinates and modifier state.
func keyButtonPointerBuilder(code, detail uint8, time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16, sameScreen bool) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, code, detail, seq)
		order.PutUint32(f[4:8], time)
		order.PutUint32(f[8:12], root)
		order.PutUint32(f[12:16], event)
		order.PutUint32(f[16:20], child)
		order.PutUint16(f[20:22], uint16(rootX))
		order.PutUint16(f[22:24], uint16(rootY))
		order.PutUint16(f[24:26], uint16(eventX))
		order.PutUint16(f[26:28], uint16(eventY))
		order.PutUint16(f[28:30], state)
		if sameScreen {
			f[30] = 1
		}
		return f
	}
}

// KeyPressBuilder builds a KeyPress event (spec.md §4.9).
func KeyPressBuilder(keycode uint8, time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16) Builder {
	return keyButtonPointerBuilder(proto.EventKeyPress, keycode, time, root, event, child, rootX, rootY, eventX, eventY, state, true)
}

// KeyReleaseBuilder builds a KeyRelease event.
func KeyReleaseBuilder(keycode uint8, time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16) Builder {
	return keyButtonPointerBuilder(proto.EventKeyRelease, keycode, time, root, event, child, rootX, rootY, eventX, eventY, state, true)
}

// ButtonPressBuilder builds a ButtonPress event.
func ButtonPressBuilder(button uint8, time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16) Builder {
	return keyButtonPointerBuilder(proto.EventButtonPress, button, time, root, event, child, rootX, rootY, eventX, eventY, state, true)
}

// ButtonReleaseBuilder builds a ButtonRelease event.
func ButtonReleaseBuilder(button uint8, time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16) Builder {
	return keyButtonPointerBuilder(proto.EventButtonRelease, button, time, root, event, child, rootX, rootY, eventX, eventY, state, true)
}

// MotionNotifyBuilder builds a MotionNotify event; detail is always
// NotifyNormal (0) since this server does not distinguish hint delivery.
func MotionNotifyBuilder(time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16) Builder {
	return keyButtonPointerBuilder(proto.EventMotionNotify, 0, time, root, event, child, rootX, rootY, eventX, eventY, state, true)
}

// enterLeaveBuilder renders the shared body layout of EnterNotify and
// LeaveNotify.
func enterLeaveBuilder(code uint8, time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16, focus bool) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, code, 0 /* NotifyNormal */, seq)
		order.PutUint32(f[4:8], time)
		order.PutUint32(f[8:12], root)
		order.PutUint32(f[12:16], event)
		order.PutUint32(f[16:20], child)
		order.PutUint16(f[20:22], uint16(rootX))
		order.PutUint16(f[22:24], uint16(rootY))
		order.PutUint16(f[24:26], uint16(eventX))
		order.PutUint16(f[26:28], uint16(eventY))
		order.PutUint16(f[28:30], state)
		f[30] = 0 // mode: NotifyNormal
		if focus {
			f[31] = 1
		}
		return f
	}
}

// EnterNotifyBuilder builds an EnterNotify event.
func EnterNotifyBuilder(time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16, focus bool) Builder {
	return enterLeaveBuilder(proto.EventEnterNotify, time, root, event, child, rootX, rootY, eventX, eventY, state, focus)
}

// LeaveNotifyBuilder builds a LeaveNotify event.
func LeaveNotifyBuilder(time, root, event, child uint32, rootX, rootY, eventX, eventY int16, state uint16, focus bool) Builder {
	return enterLeaveBuilder(proto.EventLeaveNotify, time, root, event, child, rootX, rootY, eventX, eventY, state, focus)
}

// focusBuilder renders the shared body layout of FocusIn and FocusOut: just
// the window the focus event targets and a notify-mode byte.
func focusBuilder(code uint8, window uint32) Builder {
	return func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		f := frameHeader(order, code, 0 /* NotifyNormal */, seq)
		order.PutUint32(f[4:8], window)
		f[8] = 0 // mode: NotifyNormal
		return f
	}
}

// FocusInBuilder builds a FocusIn event.
func FocusInBuilder(window uint32) Builder { return focusBuilder(proto.EventFocusIn, window) }

// FocusOutBuilder builds a FocusOut event.
func FocusOutBuilder(window uint32) Builder { return focusBuilder(proto.EventFocusOut, window) }
