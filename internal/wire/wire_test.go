package wire

import (
	"encoding/binary"
	"testing"

	"github.com/x11anywhere/x11anywhere/internal/protoerr"
)

func TestPad4(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3}
	for n, want := range cases {
		if got := Pad4(n); got != want {
			t.Errorf("Pad4(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestDecodeHeaderNeedMore(t *testing.T) {
	_, err := DecodeHeader([]byte{1, 2}, binary.LittleEndian, false)
	nm, ok := err.(*NeedMore)
	if !ok {
		t.Fatalf("expected NeedMore, got %v", err)
	}
	if nm.More != 2 {
		t.Errorf("More = %d, want 2", nm.More)
	}
}

func TestDecodeHeaderZeroLengthWithoutBigReq(t *testing.T) {
	buf := make([]byte, 8)
	buf[0] = 12 // ConfigureWindow
	_, err := DecodeHeader(buf, binary.LittleEndian, false)
	if _, ok := err.(*BadLength); !ok {
		t.Fatalf("expected BadLength, got %v", err)
	}
}

func TestDecodeHeaderBigReqExtended(t *testing.T) {
	buf := make([]byte, 8)
	buf[0] = 72 // PutImage
	binary.LittleEndian.PutUint16(buf[2:4], 0)
	binary.LittleEndian.PutUint32(buf[4:8], 10) // 10 * 4 = 40 bytes total
	h, err := DecodeHeader(buf, binary.LittleEndian, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.HeaderLen != 8 || h.TotalBytes != 40 {
		t.Errorf("got HeaderLen=%d TotalBytes=%d, want 8, 40", h.HeaderLen, h.TotalBytes)
	}
}

func TestDecodeNeedsMoreBody(t *testing.T) {
	buf := make([]byte, 4)
	buf[0] = 8 // MapWindow
	binary.LittleEndian.PutUint16(buf[2:4], 2) // 2 words = 8 bytes
	_, _, _, err := Decode(buf, binary.LittleEndian, false)
	nm, ok := err.(*NeedMore)
	if !ok {
		t.Fatalf("expected NeedMore, got %v", err)
	}
	if nm.More != 4 {
		t.Errorf("More = %d, want 4", nm.More)
	}
}

func TestDecodeFullRequest(t *testing.T) {
	buf := make([]byte, 12)
	buf[0] = 10 // UnmapWindow
	buf[1] = 0
	binary.LittleEndian.PutUint16(buf[2:4], 3) // 3 words = 12 bytes
	binary.LittleEndian.PutUint32(buf[4:8], 0xdeadbeef)
	h, body, consumed, err := Decode(buf, binary.LittleEndian, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Opcode != 10 || consumed != 12 || len(body) != 8 {
		t.Errorf("opcode=%d consumed=%d bodyLen=%d", h.Opcode, consumed, len(body))
	}
}

func TestPutErrorFrame(t *testing.T) {
	buf := make([]byte, ErrorSize)
	PutErrorFrame(buf, binary.LittleEndian, protoerr.Window, 42, 0x1234, 0, 4)
	if buf[0] != 0 || buf[1] != byte(protoerr.Window) {
		t.Fatalf("malformed error frame header: %v", buf[:2])
	}
	if seq := binary.LittleEndian.Uint16(buf[2:4]); seq != 42 {
		t.Errorf("sequence = %d, want 42", seq)
	}
	if bv := binary.LittleEndian.Uint32(buf[4:8]); bv != 0x1234 {
		t.Errorf("bad value = %#x, want 0x1234", bv)
	}
	if buf[10] != 4 {
		t.Errorf("major opcode = %d, want 4", buf[10])
	}
}

func TestPutReplyHeader(t *testing.T) {
	buf := make([]byte, ReplyHeaderSize)
	PutReplyHeader(buf, binary.BigEndian, 1, 99, 5)
	if buf[0] != 1 || buf[1] != 1 {
		t.Fatalf("malformed reply header: %v", buf[:2])
	}
	if seq := binary.BigEndian.Uint16(buf[2:4]); seq != 99 {
		t.Errorf("sequence = %d, want 99", seq)
	}
	if words := binary.BigEndian.Uint32(buf[4:8]); words != 5 {
		t.Errorf("extraWords = %d, want 5", words)
	}
}
