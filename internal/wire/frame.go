package wire

import (
	"encoding/binary"

	"github.com/x11anywhere/x11anywhere/internal/protoerr"
)

// ErrorSize, EventSize and ReplyHeaderSize are the fixed shapes spec.md
// §4.1 requires: errors and events are always exactly 32 bytes; a reply's
// first 32 bytes carry a fixed header plus up to 24 bytes of reply-specific
// data, with any further payload appended after it in 4-byte units.
const (
	ErrorSize       = 32
	EventSize       = 32
	ReplyHeaderSize = 32
)

// PutErrorFrame encodes a 32-byte X11 error into buf (which must be at
// least ErrorSize long). Byte 0 is always 0, marking the frame as an
// error rather than a reply (1) or event (2..127|0x80).
func PutErrorFrame(buf []byte, order binary.ByteOrder, code protoerr.Code, sequence uint16, badValue uint32, minorOpcode uint16, majorOpcode uint8) {
	for i := range buf[:ErrorSize] {
		buf[i] = 0
	}
	buf[0] = 0
	buf[1] = byte(code)
	order.PutUint16(buf[2:4], sequence)
	order.PutUint32(buf[4:8], badValue)
	order.PutUint16(buf[8:10], minorOpcode)
	buf[10] = majorOpcode
}

// NewEventFrame returns a zeroed 32-byte event frame with its code and
// sequence set; the caller fills in the event-specific bytes [4:32)
// ([1] already holds detail if the caller sets it after this call).
func NewEventFrame(order binary.ByteOrder, code uint8, sequence uint16) [EventSize]byte {
	var f [EventSize]byte
	f[0] = code
	order.PutUint16(f[2:4], sequence)
	return f
}

// PutReplyHeader writes the common reply prefix: the leading 1 byte
// marking a reply, a per-reply "data1" byte, the sequence number, and the
// extra-length word (number of additional 4-byte units appended after
// the fixed 32-byte header). Callers then fill buf[8:32] with their
// reply-specific fields and append extraWords*4 bytes of trailing data.
func PutReplyHeader(buf []byte, order binary.ByteOrder, data1 byte, sequence uint16, extraWords uint32) {
	for i := range buf[:ReplyHeaderSize] {
		buf[i] = 0
	}
	buf[0] = 1
	buf[1] = data1
	order.PutUint16(buf[2:4], sequence)
	order.PutUint32(buf[4:8], extraWords)
}

// PadBytes returns n zero bytes for appending to a request/reply payload
// to round it up to a 4-byte boundary; the codec always emits zero
// padding even though the protocol does not require any particular
// value there.
func PadBytes(n int) []byte {
	return make([]byte, Pad4(n))
}
