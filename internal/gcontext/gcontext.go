// Package gcontext tracks graphics-context state server-side: the
// aggregate of drawing parameters every drawing request reads through a
// GC id (spec.md §4.5). CreateGC/ChangeGC mutate components named by a
// bitmask and a positional value list, mirroring the wire encoding of the
// request itself.
package gcontext

import (
	"errors"
	"sync"
)

// Mask bits, in the order the X11 protocol lists and encodes them.
const (
	Function           uint32 = 1 << 0
	PlaneMask          uint32 = 1 << 1
	Foreground         uint32 = 1 << 2
	Background         uint32 = 1 << 3
	LineWidth          uint32 = 1 << 4
	LineStyle          uint32 = 1 << 5
	CapStyle           uint32 = 1 << 6
	JoinStyle          uint32 = 1 << 7
	FillStyle          uint32 = 1 << 8
	FillRule           uint32 = 1 << 9
	Tile               uint32 = 1 << 10
	Stipple            uint32 = 1 << 11
	TileStipXOrigin    uint32 = 1 << 12
	TileStipYOrigin    uint32 = 1 << 13
	FontMask           uint32 = 1 << 14
	SubwindowMode      uint32 = 1 << 15
	GraphicsExposures  uint32 = 1 << 16
	ClipXOrigin        uint32 = 1 << 17
	ClipYOrigin        uint32 = 1 << 18
	ClipMask           uint32 = 1 << 19
	DashOffset         uint32 = 1 << 20
	DashList           uint32 = 1 << 21
	ArcMode            uint32 = 1 << 22

	allBits = Function | PlaneMask | Foreground | Background | LineWidth | LineStyle |
		CapStyle | JoinStyle | FillStyle | FillRule | Tile | Stipple | TileStipXOrigin |
		TileStipYOrigin | FontMask | SubwindowMode | GraphicsExposures | ClipXOrigin |
		ClipYOrigin | ClipMask | DashOffset | DashList | ArcMode
)

// orderedBits lists every mask bit in the fixed order the protocol
// serializes their values in, lowest bit first.
var orderedBits = []uint32{
	Function, PlaneMask, Foreground, Background, LineWidth, LineStyle, CapStyle,
	JoinStyle, FillStyle, FillRule, Tile, Stipple, TileStipXOrigin, TileStipYOrigin,
	FontMask, SubwindowMode, GraphicsExposures, ClipXOrigin, ClipYOrigin, ClipMask,
	DashOffset, DashList, ArcMode,
}

// Rectangle is a clip/fill rectangle in drawable-relative coordinates.
type Rectangle struct {
	X, Y          int16
	Width, Height uint16
}

// GC is one graphics context's server-side state. Defaults match the
// X11 core protocol's CreateGC defaults.
type GC struct {
	Function          uint8 // raster op, GXcopy (3) by default
	PlaneMask         uint32
	Foreground        uint32
	Background        uint32
	LineWidth         uint16
	LineStyle         uint8 // Solid(0)/OnOffDash(1)/DoubleDash(2)
	CapStyle          uint8
	JoinStyle         uint8
	FillStyle         uint8 // Solid(0)/Tiled(1)/Stippled(2)/OpaqueStippled(3)
	FillRule          uint8 // EvenOdd(0)/Winding(1)
	Tile              uint32
	Stipple           uint32
	TileStipXOrigin   int16
	TileStipYOrigin   int16
	Font              uint32
	SubwindowMode     uint8 // ClipByChildren(0)/IncludeInferiors(1)
	GraphicsExposures bool
	ClipXOrigin       int16
	ClipYOrigin       int16
	ClipMask          uint32 // 0 (None) means unclipped
	ClipRectangles    []Rectangle
	DashOffset        uint16
	Dashes            []uint8
	ArcMode           uint8 // Chord(0)/PieSlice(1)

	Drawable uint32 // the drawable CreateGC was issued against
}

// Default returns a GC with the protocol's documented default values.
func Default(drawable uint32) *GC {
	return &GC{
		Function:      3, // GXcopy
		PlaneMask:     0xffffffff,
		Background:    1,
		CapStyle:      1, // CapButt
		ArcMode:       1, // ArcPieSlice
		Dashes:        []uint8{4},
		GraphicsExposures: true,
		Drawable:      drawable,
	}
}

// ErrBadMask is returned when mask has bits set outside the known set.
var ErrBadMask = errors.New("gcontext: unknown mask bit")

// Apply decodes vals positionally against the bits set in mask (lowest
// bit first, matching the wire encoding) and writes them into gc. len(vals)
// must equal the number of set bits in mask; mismatches are a caller bug,
// not a protocol error, so Apply panics on that but returns ErrBadMask for
// unknown bits, which the dispatcher reports as BadValue.
func Apply(gc *GC, mask uint32, vals []uint32) error {
	if mask&^allBits != 0 {
		return ErrBadMask
	}
	if popcount(mask) != len(vals) {
		panic("gcontext: Apply called with mismatched value count")
	}
	i := 0
	for _, bit := range orderedBits {
		if mask&bit == 0 {
			continue
		}
		v := vals[i]
		i++
		switch bit {
		case Function:
			gc.Function = uint8(v)
		case PlaneMask:
			gc.PlaneMask = v
		case Foreground:
			gc.Foreground = v
		case Background:
			gc.Background = v
		case LineWidth:
			gc.LineWidth = uint16(v)
		case LineStyle:
			gc.LineStyle = uint8(v)
		case CapStyle:
			gc.CapStyle = uint8(v)
		case JoinStyle:
			gc.JoinStyle = uint8(v)
		case FillStyle:
			gc.FillStyle = uint8(v)
		case FillRule:
			gc.FillRule = uint8(v)
		case Tile:
			gc.Tile = v
		case Stipple:
			gc.Stipple = v
		case TileStipXOrigin:
			gc.TileStipXOrigin = int16(v)
		case TileStipYOrigin:
			gc.TileStipYOrigin = int16(v)
		case FontMask:
			gc.Font = v
		case SubwindowMode:
			gc.SubwindowMode = uint8(v)
		case GraphicsExposures:
			gc.GraphicsExposures = v != 0
		case ClipXOrigin:
			gc.ClipXOrigin = int16(v)
		case ClipYOrigin:
			gc.ClipYOrigin = int16(v)
		case ClipMask:
			gc.ClipMask = v
			gc.ClipRectangles = nil
		case DashOffset:
			gc.DashOffset = uint16(v)
		case ArcMode:
			gc.ArcMode = uint8(v)
		}
	}
	return nil
}

func popcount(v uint32) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// Copy copies the components named by mask from src into dst, the
// behavior of CopyGC.
func Copy(dst, src *GC, mask uint32) error {
	if mask&^allBits != 0 {
		return ErrBadMask
	}
	for _, bit := range orderedBits {
		if mask&bit == 0 {
			continue
		}
		switch bit {
		case Function:
			dst.Function = src.Function
		case PlaneMask:
			dst.PlaneMask = src.PlaneMask
		case Foreground:
			dst.Foreground = src.Foreground
		case Background:
			dst.Background = src.Background
		case LineWidth:
			dst.LineWidth = src.LineWidth
		case LineStyle:
			dst.LineStyle = src.LineStyle
		case CapStyle:
			dst.CapStyle = src.CapStyle
		case JoinStyle:
			dst.JoinStyle = src.JoinStyle
		case FillStyle:
			dst.FillStyle = src.FillStyle
		case FillRule:
			dst.FillRule = src.FillRule
		case Tile:
			dst.Tile = src.Tile
		case Stipple:
			dst.Stipple = src.Stipple
		case TileStipXOrigin:
			dst.TileStipXOrigin = src.TileStipXOrigin
		case TileStipYOrigin:
			dst.TileStipYOrigin = src.TileStipYOrigin
		case FontMask:
			dst.Font = src.Font
		case SubwindowMode:
			dst.SubwindowMode = src.SubwindowMode
		case GraphicsExposures:
			dst.GraphicsExposures = src.GraphicsExposures
		case ClipXOrigin:
			dst.ClipXOrigin = src.ClipXOrigin
		case ClipYOrigin:
			dst.ClipYOrigin = src.ClipYOrigin
		case ClipMask:
			dst.ClipMask = src.ClipMask
			dst.ClipRectangles = append([]Rectangle(nil), src.ClipRectangles...)
		case DashOffset:
			dst.DashOffset = src.DashOffset
		case ArcMode:
			dst.ArcMode = src.ArcMode
		}
	}
	return nil
}

// Table is the server-wide GC table, keyed by resource id.
type Table struct {
	mu  sync.Mutex
	gcs map[uint32]*GC
}

// New returns an empty Table.
func New() *Table {
	return &Table{gcs: make(map[uint32]*GC)}
}

// Create registers a freshly allocated GC for id.
func (t *Table) Create(id uint32, gc *GC) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gcs[id] = gc
}

// Get returns the GC for id, or (nil, false) if it is not live.
func (t *Table) Get(id uint32) (*GC, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	gc, ok := t.gcs[id]
	return gc, ok
}

// Free removes id's GC.
func (t *Table) Free(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.gcs, id)
}
