package handshake

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/wire"
)

func encodePrologue(order byte, major, minor uint16) []byte {
	var buf bytes.Buffer
	buf.WriteByte(order)
	buf.WriteByte(0)
	bo := wire.Order(order).ByteOrder()
	var u16 [2]byte
	bo.PutUint16(u16[:], major)
	buf.Write(u16[:])
	bo.PutUint16(u16[:], minor)
	buf.Write(u16[:])
	bo.PutUint16(u16[:], 0) // auth name length
	buf.Write(u16[:])
	bo.PutUint16(u16[:], 0) // auth data length
	buf.Write(u16[:])
	buf.Write([]byte{0, 0}) // pad
	return buf.Bytes()
}

func TestReadPrologueLittleEndianNoAuth(t *testing.T) {
	raw := encodePrologue('l', 11, 0)
	p, err := ReadPrologue(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("ReadPrologue: %v", err)
	}
	if p.Order != wire.LittleEndian || p.ProtocolMajor != 11 || p.ProtocolMinor != 0 {
		t.Errorf("got %+v", p)
	}
}

func TestReadPrologueInvalidByteOrder(t *testing.T) {
	raw := encodePrologue('l', 11, 0)
	raw[0] = 'X'
	_, err := ReadPrologue(bufio.NewReader(bytes.NewReader(raw)))
	if err == nil {
		t.Fatal("expected an error for an invalid byte-order byte")
	}
}

func TestAcceptProducesWellFormedSetupReply(t *testing.T) {
	params := AcceptParams{
		Vendor:           "x11anywhere",
		ReleaseNumber:    1,
		ResourceIDBase:   0x00400000,
		ResourceIDMask:   0x001fffff,
		MaxRequestLength: 65535,
		MinKeycode:       8,
		MaxKeycode:       255,
		Screens: []ScreenParams{
			{
				Root:            1,
				DefaultColormap: 2,
				RootVisual:      3,
				Info: backend.ScreenInfo{
					WidthPixels: 1920, HeightPixels: 1080,
					RootDepth:  24,
					WhitePixel: 0xffffff,
					BlackPixel: 0,
				},
				Visuals: []backend.VisualInfo{
					{ID: 3, Class: 4, BitsPerRGB: 8, ColormapEntries: 256,
						RedMask: 0xff0000, GreenMask: 0xff00, BlueMask: 0xff},
				},
			},
		},
	}
	reply := Accept(wire.LittleEndian, params)
	if len(reply) < 8 {
		t.Fatal("reply too short")
	}
	if reply[0] != 1 {
		t.Fatalf("status = %d, want 1 (success)", reply[0])
	}
	bo := wire.LittleEndian.ByteOrder()
	bodyLen := int(bo.Uint16(reply[6:8])) * 4
	if len(reply) != 8+bodyLen {
		t.Errorf("len(reply) = %d, want %d", len(reply), 8+bodyLen)
	}
	if reply[28] != 1 {
		t.Errorf("num-roots = %d, want 1", reply[28])
	}
}

func TestRefuseCarriesReason(t *testing.T) {
	reply := Refuse(wire.LittleEndian, "bad auth")
	if reply[0] != 0 {
		t.Fatalf("status = %d, want 0", reply[0])
	}
	if reply[1] != byte(len("bad auth")) {
		t.Errorf("reason length = %d, want %d", reply[1], len("bad auth"))
	}
}
