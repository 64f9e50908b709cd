// Package proto collects the core X11 protocol's numeric vocabulary:
// request opcodes, event type codes, and the window attribute / event
// selection mask bits. Centralizing them here keeps the codec, dispatcher
// and event pipeline from disagreeing on a magic number (spec.md §6).
package proto

// Request opcodes, the full set spec.md §6 requires the dispatcher to at
// least recognize (valid major opcode range is 1..127; 128+ is reserved
// for extensions).
const (
	OpCreateWindow           = 1
	OpChangeWindowAttributes = 2
	OpGetWindowAttributes    = 3
	OpDestroyWindow          = 4
	OpDestroySubwindows      = 5
	OpChangeSaveSet          = 6
	OpReparentWindow         = 7
	OpMapWindow              = 8
	OpMapSubwindows          = 9
	OpUnmapWindow            = 10
	OpUnmapSubwindows        = 11
	OpConfigureWindow        = 12
	OpCirculateWindow        = 13
	OpGetGeometry            = 14
	OpQueryTree              = 15
	OpInternAtom             = 16
	OpGetAtomName            = 17
	OpChangeProperty         = 18
	OpDeleteProperty         = 19
	OpGetProperty            = 20
	OpListProperties         = 21
	OpSetSelectionOwner      = 22
	OpGetSelectionOwner      = 23
	OpConvertSelection       = 24
	OpSendEvent              = 25
	OpGrabPointer            = 26
	OpUngrabPointer          = 27
	OpGrabButton             = 28
	OpUngrabButton           = 29
	OpChangeActivePointerGrab = 30
	OpGrabKeyboard           = 31
	OpUngrabKeyboard         = 32
	OpGrabKey                = 33
	OpUngrabKey              = 34
	OpAllowEvents            = 35
	OpGrabServer             = 36
	OpUngrabServer           = 37
	OpQueryPointer           = 38
	OpGetMotionEvents        = 39
	OpTranslateCoordinates   = 40
	OpWarpPointer            = 41
	OpSetInputFocus          = 42
	OpGetInputFocus          = 43
	OpQueryKeymap            = 44
	OpOpenFont               = 45
	OpCloseFont              = 46
	OpQueryFont              = 47
	OpQueryTextExtents       = 48
	OpListFonts              = 49
	OpListFontsWithInfo      = 50
	OpSetFontPath            = 51
	OpGetFontPath            = 52
	OpCreatePixmap           = 53
	OpFreePixmap             = 54
	OpCreateGC               = 55
	OpChangeGC               = 56
	OpCopyGC                 = 57
	OpSetDashes              = 58
	OpSetClipRectangles      = 59
	OpFreeGC                 = 60
	OpClearArea              = 61
	OpCopyArea               = 62
	OpCopyPlane              = 63
	OpPolyPoint              = 64
	OpPolyLine               = 65
	OpPolySegment            = 66
	OpPolyRectangle          = 67
	OpPolyArc                = 68
	OpFillPoly               = 69
	OpPolyFillRectangle      = 70
	OpPolyFillArc            = 71
	OpPutImage               = 72
	OpGetImage               = 73
	OpPolyText8              = 74
	OpPolyText16             = 75
	OpImageText8             = 76
	OpImageText16            = 77
	OpCreateColormap         = 78
	OpFreeColormap           = 79
	OpCopyColormapAndFree    = 80
	OpInstallColormap        = 81
	OpUninstallColormap      = 82
	OpListInstalledColormaps = 83
	OpAllocColor             = 84
	OpAllocNamedColor        = 85
	OpAllocColorCells        = 86
	OpAllocColorPlanes       = 87
	OpFreeColors             = 88
	OpStoreColors            = 89
	OpStoreNamedColor        = 90
	OpQueryColors            = 91
	OpLookupColor            = 92
	OpCreateCursor           = 93
	OpCreateGlyphCursor      = 94
	OpFreeCursor             = 95
	OpRecolorCursor          = 96
	OpQueryBestSize          = 97
	OpQueryExtension         = 98
	OpListExtensions         = 99
	OpChangeKeyboardMapping  = 100
	OpGetKeyboardMapping     = 101
	OpChangeKeyboardControl  = 102
	OpGetKeyboardControl     = 103
	OpBell                   = 104
	OpChangePointerControl   = 105
	OpGetPointerControl      = 106
	OpSetScreenSaver         = 107
	OpGetScreenSaver         = 108
	OpChangeHosts            = 109
	OpListHosts              = 110
	OpSetAccessControl       = 111
	OpSetCloseDownMode       = 112
	OpKillClient             = 113
	OpRotateProperties       = 114
	OpForceScreenSaver       = 115
	OpSetPointerMapping      = 116
	OpGetPointerMapping      = 117
	OpSetModifierMapping     = 118
	OpGetModifierMapping     = 119
	OpNoOperation            = 127
)

// BigRequestsEnableOpcode is the one request the BIG-REQUESTS extension
// adds once QueryExtension reports it present at its negotiated major
// opcode.
const BigRequestsEnableOpcode = 0
