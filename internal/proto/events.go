package proto

// Event type codes, the first byte of every 32-byte event frame. The
// high bit (0x80) is set by the server on events it merely forwards on
// behalf of SendEvent rather than generating itself.
const (
	EventKeyPress         = 2
	EventKeyRelease       = 3
	EventButtonPress      = 4
	EventButtonRelease    = 5
	EventMotionNotify     = 6
	EventEnterNotify      = 7
	EventLeaveNotify      = 8
	EventFocusIn          = 9
	EventFocusOut         = 10
	EventKeymapNotify     = 11
	EventExpose           = 12
	EventGraphicsExposure = 13
	EventNoExposure       = 14
	EventVisibilityNotify = 15
	EventCreateNotify     = 16
	EventDestroyNotify    = 17
	EventUnmapNotify      = 18
	EventMapNotify        = 19
	EventMapRequest       = 20
	EventReparentNotify   = 21
	EventConfigureNotify  = 22
	EventConfigureRequest = 23
	EventGravityNotify    = 24
	EventResizeRequest    = 25
	EventCirculateNotify  = 26
	EventCirculateRequest = 27
	EventPropertyNotify   = 28
	EventSelectionClear   = 29
	EventSelectionRequest = 30
	EventSelectionNotify  = 31
	EventColormapNotify   = 32
	EventClientMessage    = 33
	EventMappingNotify    = 34

	// SendEventBit marks an event as delivered via SendEvent rather than
	// generated by the server itself.
	SendEventBit = 0x80
)

// PropertyNotify state values.
const (
	PropertyNewValue = 0
	PropertyDelete   = 1
)

// Window class and stack-mode constants duplicated here (in addition to
// wintree's typed versions) purely for wire decode/encode call sites that
// work with raw uint8s before constructing a wintree.Class/StackMode.
const (
	WindowClassCopyFromParent = 0
	WindowClassInputOutput    = 1
	WindowClassInputOnly      = 2
)
