// Package handshake implements the connection setup exchange of spec.md
// §4.2: reading the client's 12-byte prologue plus its two length-prefixed
// auth strings, and writing back a Setup reply (accept, refuse, or
// authenticate) in the client's negotiated byte order.
package handshake

import (
	"bufio"
	"encoding/binary"
	"fmt"

	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/wire"
)

// Prologue is the decoded connection-setup request a client sends first.
type Prologue struct {
	Order             wire.Order
	ProtocolMajor     uint16
	ProtocolMinor     uint16
	AuthProtocolName  string
	AuthProtocolData  string
}

// ReadPrologue parses the fixed 12-byte header and the two padded,
// length-prefixed auth strings that follow it.
func ReadPrologue(r *bufio.Reader) (Prologue, error) {
	var head [12]byte
	if _, err := readFull(r, head[:]); err != nil {
		return Prologue{}, fmt.Errorf("handshake: read prologue header: %w", err)
	}
	order := wire.Order(head[0])
	if !order.Valid() {
		return Prologue{}, fmt.Errorf("handshake: invalid byte-order byte 0x%02x", head[0])
	}
	bo := order.ByteOrder()
	p := Prologue{
		Order:         order,
		ProtocolMajor: bo.Uint16(head[2:4]),
		ProtocolMinor: bo.Uint16(head[4:6]),
	}
	nameLen := bo.Uint16(head[6:8])
	dataLen := bo.Uint16(head[8:10])

	name := make([]byte, wire.RoundUp4(int(nameLen)))
	if nameLen > 0 {
		if _, err := readFull(r, name); err != nil {
			return Prologue{}, fmt.Errorf("handshake: read auth-proto-name: %w", err)
		}
	}
	data := make([]byte, wire.RoundUp4(int(dataLen)))
	if dataLen > 0 {
		if _, err := readFull(r, data); err != nil {
			return Prologue{}, fmt.Errorf("handshake: read auth-proto-data: %w", err)
		}
	}
	p.AuthProtocolName = string(name[:nameLen])
	p.AuthProtocolData = string(data[:dataLen])
	return p, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := r.Read(buf[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Refuse writes a status=0 rejection with reason as the human-readable
// string (spec.md §4.2: "on rejection the reply begins with status byte
// 0 and a reason string").
func Refuse(order wire.Order, reason string) []byte {
	bo := order.ByteOrder()
	reasonBytes := []byte(reason)
	padded := wire.RoundUp4(len(reasonBytes))
	buf := make([]byte, 8+padded)
	buf[0] = 0
	buf[1] = byte(len(reasonBytes))
	bo.PutUint16(buf[2:4], 11)
	bo.PutUint16(buf[4:6], 0)
	bo.PutUint16(buf[6:8], uint16(padded/4))
	copy(buf[8:], reasonBytes)
	return buf
}

// AuthenticateRetry writes a status=2 reply asking the client to retry
// with different authorization data, carrying reason as the additional
// information string.
func AuthenticateRetry(order wire.Order, reason string) []byte {
	padded := wire.RoundUp4(len(reason))
	buf := make([]byte, 8+padded)
	buf[0] = 2
	order.ByteOrder().PutUint16(buf[6:8], uint16(padded/4))
	copy(buf[8:], reason)
	return buf
}

// ScreenParams is the information SetupReply needs about one screen,
// resolved from the backend's ScreenInfo/Visuals at startup.
type ScreenParams struct {
	Root          uint32
	DefaultColormap uint32
	Info          backend.ScreenInfo
	Visuals       []backend.VisualInfo
	RootVisual    uint32
}

// AcceptParams bundles everything Accept needs to synthesize a complete
// SetupReply.
type AcceptParams struct {
	Vendor            string
	ReleaseNumber     uint32
	ResourceIDBase    uint32
	ResourceIDMask    uint32
	MaxRequestLength  uint32 // in 4-byte units
	MotionBufferSize  uint32
	MinKeycode        uint8
	MaxKeycode        uint8
	Screens           []ScreenParams
}

const pixmapFormatDepth24 = 24

// Accept writes a status=1 SetupReply describing this server's screens,
// visuals and pixmap formats in order's byte order.
func Accept(order wire.Order, p AcceptParams) []byte {
	bo := order.ByteOrder()

	vendor := []byte(p.Vendor)
	vendorPad := wire.RoundUp4(len(vendor))

	// One pixmap format: ZPixmap-capable depth 24, 32 bits per pixel,
	// scanline pad 32 — what every modern client expects to find.
	pixmapFormats := []byte{pixmapFormatDepth24, 32, 32, 0, 0, 0, 0, 0}

	screenBytes := make([][]byte, len(p.Screens))
	for i, s := range p.Screens {
		screenBytes[i] = encodeScreen(bo, s)
	}
	totalScreens := 0
	for _, sb := range screenBytes {
		totalScreens += len(sb)
	}

	bodyLen := 32 + vendorPad + len(pixmapFormats) + totalScreens
	buf := make([]byte, 8+bodyLen)

	buf[0] = 1 // success
	buf[1] = 0
	bo.PutUint16(buf[2:4], 11) // protocol-major-version
	bo.PutUint16(buf[4:6], 0)  // protocol-minor-version
	bo.PutUint16(buf[6:8], uint16(bodyLen/4))

	bo.PutUint32(buf[8:12], p.ReleaseNumber)
	bo.PutUint32(buf[12:16], p.ResourceIDBase)
	bo.PutUint32(buf[16:20], p.ResourceIDMask)
	bo.PutUint32(buf[20:24], p.MotionBufferSize)
	bo.PutUint16(buf[24:26], uint16(len(vendor)))
	bo.PutUint16(buf[26:28], uint16(p.MaxRequestLength))
	buf[28] = uint8(len(p.Screens))
	buf[29] = uint8(len(pixmapFormats) / 8)
	imageOrder := byte(0) // LSBFirst
	if order == wire.BigEndian {
		imageOrder = 1 // MSBFirst
	}
	buf[30] = imageOrder // image-byte-order
	buf[31] = imageOrder // bitmap-format-bit-order
	off := 32
	buf[off] = 32 // bitmap-format-scanline-unit
	buf[off+1] = 32
	buf[off+2] = p.MinKeycode
	buf[off+3] = p.MaxKeycode
	off += 4
	off += 4 // pad4
	copy(buf[off:], vendor)
	off += vendorPad
	copy(buf[off:], pixmapFormats)
	off += len(pixmapFormats)
	for _, sb := range screenBytes {
		copy(buf[off:], sb)
		off += len(sb)
	}
	return buf
}

func encodeScreen(bo binary.ByteOrder, s ScreenParams) []byte {
	depthsAndVisuals := encodeDepths(bo, s.Visuals)
	buf := make([]byte, 40+len(depthsAndVisuals))
	bo.PutUint32(buf[0:4], s.Root)
	bo.PutUint32(buf[4:8], s.DefaultColormap)
	bo.PutUint32(buf[8:12], s.Info.WhitePixel)
	bo.PutUint32(buf[12:16], s.Info.BlackPixel)
	bo.PutUint32(buf[16:20], 0) // current-input-masks
	bo.PutUint16(buf[20:22], uint16(s.Info.WidthPixels))
	bo.PutUint16(buf[22:24], uint16(s.Info.HeightPixels))
	bo.PutUint16(buf[24:26], uint16(s.Info.WidthMM))
	bo.PutUint16(buf[26:28], uint16(s.Info.HeightMM))
	bo.PutUint16(buf[28:30], 1) // min-installed-maps
	bo.PutUint16(buf[30:32], 1) // max-installed-maps
	bo.PutUint32(buf[32:36], s.RootVisual)
	buf[36] = 0 // backing-stores: Never
	buf[37] = 0 // save-unders: false
	buf[38] = s.Info.RootDepth
	buf[39] = uint8(countDepths(s.Visuals))
	copy(buf[40:], depthsAndVisuals)
	return buf
}

func countDepths(visuals []backend.VisualInfo) int {
	if len(visuals) == 0 {
		return 0
	}
	return 1 // every visual this server advertises shares depth 24 (spec.md §4.2)
}

func encodeDepths(bo binary.ByteOrder, visuals []backend.VisualInfo) []byte {
	if len(visuals) == 0 {
		return nil
	}
	buf := make([]byte, 8+24*len(visuals))
	buf[0] = pixmapFormatDepth24
	buf[1] = 0
	bo.PutUint16(buf[2:4], uint16(len(visuals)))
	off := 8
	for _, v := range visuals {
		bo.PutUint32(buf[off:off+4], v.ID)
		buf[off+4] = v.Class
		buf[off+5] = v.BitsPerRGB
		bo.PutUint16(buf[off+6:off+8], v.ColormapEntries)
		bo.PutUint32(buf[off+8:off+12], v.RedMask)
		bo.PutUint32(buf[off+12:off+16], v.GreenMask)
		bo.PutUint32(buf[off+16:off+20], v.BlueMask)
		off += 24
	}
	return buf
}
