// Package atomtab implements the server-global atom table: the small
// fixed set of predefined atoms every X11 server starts with, plus
// interning of client-supplied names. Atom ids are never reused within a
// server's lifetime (spec.md §3, Atoms row).
package atomtab

import "sync"

// Predefined atoms and their fixed numeric ids, per the X11 core protocol
// (Xatom.h). Clients rely on these ids being stable without calling
// InternAtom first.
const (
	None                 = 0
	Primary              = 1
	Secondary            = 2
	Arc                  = 3
	Atom                 = 4
	Bitmap               = 5
	Cardinal             = 6
	Colormap             = 7
	Cursor               = 8
	CutBuffer0           = 9
	CutBuffer1           = 10
	CutBuffer2           = 11
	CutBuffer3            = 12
	CutBuffer4           = 13
	CutBuffer5           = 14
	CutBuffer6           = 15
	CutBuffer7           = 16
	Drawable             = 17
	Font                 = 18
	Integer              = 19
	Pixmap               = 20
	Point                = 21
	Rectangle            = 22
	ResourceManager      = 23
	RGBColorMap          = 24
	RGBBestMap           = 25
	RGBBlueMap           = 26
	RGBDefaultMap        = 27
	RGBGrayMap           = 28
	RGBGreenMap          = 29
	RGBRedMap            = 30
	String               = 31
	Visualid             = 32
	Window               = 33
	WMCommand            = 34
	WMHints              = 35
	WMClientMachine      = 36
	WMIconName           = 37
	WMIconSize           = 38
	WMName               = 39
	WMNormalHints        = 40
	WMSizeHints          = 41
	WMZoomHints          = 42
	MinSpace             = 43
	NormSpace            = 44
	MaxSpace             = 45
	EndSpace             = 46
	SuperscriptX         = 47
	SuperscriptY         = 48
	SubscriptX           = 49
	SubscriptY           = 50
	UnderlinePosition    = 51
	UnderlineThickness   = 52
	StrikeoutAscent      = 53
	StrikeoutDescent     = 54
	ItalicAngle          = 55
	XHeight              = 56
	QuadWidth            = 57
	Weight               = 58
	PointSize            = 59
	Resolution           = 60
	Copyright            = 61
	Notice               = 62
	FontName             = 63
	FamilyName           = 64
	FullName             = 65
	CapHeight            = 66
	WMClass              = 67
	WMTransientFor       = 68

	// lastPredefined is the highest predefined atom id; interned atoms are
	// allocated starting at lastPredefined+1.
	lastPredefined = WMTransientFor
)

var predefinedNames = map[uint32]string{
	Primary: "PRIMARY", Secondary: "SECONDARY", Arc: "ARC", Atom: "ATOM",
	Bitmap: "BITMAP", Cardinal: "CARDINAL", Colormap: "COLORMAP", Cursor: "CURSOR",
	CutBuffer0: "CUT_BUFFER0", CutBuffer1: "CUT_BUFFER1", CutBuffer2: "CUT_BUFFER2",
	CutBuffer3: "CUT_BUFFER3", CutBuffer4: "CUT_BUFFER4", CutBuffer5: "CUT_BUFFER5",
	CutBuffer6: "CUT_BUFFER6", CutBuffer7: "CUT_BUFFER7", Drawable: "DRAWABLE",
	Font: "FONT", Integer: "INTEGER", Pixmap: "PIXMAP", Point: "POINT",
	Rectangle: "RECTANGLE", ResourceManager: "RESOURCE_MANAGER", RGBColorMap: "RGB_COLOR_MAP",
	RGBBestMap: "RGB_BEST_MAP", RGBBlueMap: "RGB_BLUE_MAP", RGBDefaultMap: "RGB_DEFAULT_MAP",
	RGBGrayMap: "RGB_GRAY_MAP", RGBGreenMap: "RGB_GREEN_MAP", RGBRedMap: "RGB_RED_MAP",
	String: "STRING", Visualid: "VISUALID", Window: "WINDOW", WMCommand: "WM_COMMAND",
	WMHints: "WM_HINTS", WMClientMachine: "WM_CLIENT_MACHINE", WMIconName: "WM_ICON_NAME",
	WMIconSize: "WM_ICON_SIZE", WMName: "WM_NAME", WMNormalHints: "WM_NORMAL_HINTS",
	WMSizeHints: "WM_SIZE_HINTS", WMZoomHints: "WM_ZOOM_HINTS", MinSpace: "MIN_SPACE",
	NormSpace: "NORM_SPACE", MaxSpace: "MAX_SPACE", EndSpace: "END_SPACE",
	SuperscriptX: "SUPERSCRIPT_X", SuperscriptY: "SUPERSCRIPT_Y", SubscriptX: "SUBSCRIPT_X",
	SubscriptY: "SUBSCRIPT_Y", UnderlinePosition: "UNDERLINE_POSITION",
	UnderlineThickness: "UNDERLINE_THICKNESS", StrikeoutAscent: "STRIKEOUT_ASCENT",
	StrikeoutDescent: "STRIKEOUT_DESCENT", ItalicAngle: "ITALIC_ANGLE", XHeight: "X_HEIGHT",
	QuadWidth: "QUAD_WIDTH", Weight: "WEIGHT", PointSize: "POINT_SIZE", Resolution: "RESOLUTION",
	Copyright: "COPYRIGHT", Notice: "NOTICE", FontName: "FONT_NAME", FamilyName: "FAMILY_NAME",
	FullName: "FULL_NAME", CapHeight: "CAP_HEIGHT", WMClass: "WM_CLASS",
	WMTransientFor: "WM_TRANSIENT_FOR",
}

// Table is the server-wide atom table. Zero value is not usable; use New.
type Table struct {
	mu      sync.RWMutex
	byName  map[string]uint32
	byID    map[uint32]string
	nextID  uint32
}

// New returns a Table pre-populated with the predefined atoms.
func New() *Table {
	t := &Table{
		byName: make(map[string]uint32, len(predefinedNames)),
		byID:   make(map[uint32]string, len(predefinedNames)),
		nextID: lastPredefined + 1,
	}
	for id, name := range predefinedNames {
		t.byName[name] = id
		t.byID[id] = name
	}
	return t
}

// Intern returns the atom id for name, creating one if it does not yet
// exist and onlyIfExists is false. If onlyIfExists is true and name is
// unknown, it returns (0, false).
func (t *Table) Intern(name string, onlyIfExists bool) (uint32, bool) {
	t.mu.RLock()
	if id, ok := t.byName[name]; ok {
		t.mu.RUnlock()
		return id, true
	}
	t.mu.RUnlock()
	if onlyIfExists {
		return 0, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check under the write lock: another client may have interned it
	// between the RUnlock above and here.
	if id, ok := t.byName[name]; ok {
		return id, true
	}
	id := t.nextID
	t.nextID++
	t.byName[name] = id
	t.byID[id] = name
	return id, true
}

// Name returns the string for an interned atom id, or ("", false) if id
// has never been interned.
func (t *Table) Name(id uint32) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.byID[id]
	return name, ok
}
