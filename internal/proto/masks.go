package proto

// CW* are the CreateWindow/ChangeWindowAttributes value-mask bits.
const (
	CWBackPixmap       uint32 = 1 << 0
	CWBackPixel        uint32 = 1 << 1
	CWBorderPixmap     uint32 = 1 << 2
	CWBorderPixel      uint32 = 1 << 3
	CWBitGravity       uint32 = 1 << 4
	CWWinGravity       uint32 = 1 << 5
	CWBackingStore     uint32 = 1 << 6
	CWBackingPlanes    uint32 = 1 << 7
	CWBackingPixel     uint32 = 1 << 8
	CWOverrideRedirect uint32 = 1 << 9
	CWSaveUnder        uint32 = 1 << 10
	CWEventMask        uint32 = 1 << 11
	CWDontPropagate    uint32 = 1 << 12
	CWColormap         uint32 = 1 << 13
	CWCursor           uint32 = 1 << 14

	cwAllBits = CWBackPixmap | CWBackPixel | CWBorderPixmap | CWBorderPixel | CWBitGravity |
		CWWinGravity | CWBackingStore | CWBackingPlanes | CWBackingPixel | CWOverrideRedirect |
		CWSaveUnder | CWEventMask | CWDontPropagate | CWColormap | CWCursor
)

// CWKnownBits reports whether mask contains only known CW* bits.
func CWKnownBits(mask uint32) bool {
	return mask&^cwAllBits == 0
}

// CWOrderedBits lists the CW* bits in wire order (lowest first), the order
// their values are serialized in.
var CWOrderedBits = []uint32{
	CWBackPixmap, CWBackPixel, CWBorderPixmap, CWBorderPixel, CWBitGravity, CWWinGravity,
	CWBackingStore, CWBackingPlanes, CWBackingPixel, CWOverrideRedirect, CWSaveUnder,
	CWEventMask, CWDontPropagate, CWColormap, CWCursor,
}

// EventMask bits, used both for ChangeWindowAttributes's event-mask value
// and for matching generated events against a client's selection.
const (
	EventMaskKeyPress             uint32 = 1 << 0
	EventMaskKeyRelease           uint32 = 1 << 1
	EventMaskButtonPress          uint32 = 1 << 2
	EventMaskButtonRelease        uint32 = 1 << 3
	EventMaskEnterWindow          uint32 = 1 << 4
	EventMaskLeaveWindow          uint32 = 1 << 5
	EventMaskPointerMotion        uint32 = 1 << 6
	EventMaskPointerMotionHint    uint32 = 1 << 7
	EventMaskButton1Motion        uint32 = 1 << 8
	EventMaskButton2Motion        uint32 = 1 << 9
	EventMaskButton3Motion        uint32 = 1 << 10
	EventMaskButton4Motion        uint32 = 1 << 11
	EventMaskButton5Motion        uint32 = 1 << 12
	EventMaskButtonMotion         uint32 = 1 << 13
	EventMaskKeymapState          uint32 = 1 << 14
	EventMaskExposure             uint32 = 1 << 15
	EventMaskVisibilityChange     uint32 = 1 << 16
	EventMaskStructureNotify      uint32 = 1 << 17
	EventMaskResizeRedirect       uint32 = 1 << 18
	EventMaskSubstructureNotify   uint32 = 1 << 19
	EventMaskSubstructureRedirect uint32 = 1 << 20
	EventMaskFocusChange          uint32 = 1 << 21
	EventMaskPropertyChange       uint32 = 1 << 22
	EventMaskColormapChange       uint32 = 1 << 23
	EventMaskOwnerGrabButton      uint32 = 1 << 24
)

// PropagatingMask is the set of event mask bits whose events propagate
// from the target window up toward the root (spec.md §4.9) rather than
// being delivered only to clients that selected them on the exact target.
const PropagatingMask = EventMaskKeyPress | EventMaskKeyRelease | EventMaskButtonPress |
	EventMaskButtonRelease | EventMaskPointerMotion | EventMaskButton1Motion |
	EventMaskButton2Motion | EventMaskButton3Motion | EventMaskButton4Motion |
	EventMaskButton5Motion | EventMaskButtonMotion | EventMaskEnterWindow | EventMaskLeaveWindow
