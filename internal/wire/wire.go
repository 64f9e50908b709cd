// Package wire implements the X11 core-protocol byte-level framing: request
// header decoding (including the BIG-REQUESTS extended length word),
// 4-byte padding, and the fixed-shape reply/event/error frame encoders.
// Every integer on the wire is interpreted under the byte order negotiated
// at handshake time (§4.2); this package never assumes one.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Order selects the client's negotiated byte order. 'B' (0x42) is
// big-endian, 'l' (0x6C) is little-endian, matching the prologue byte the
// client sends during the handshake.
type Order byte

const (
	BigEndian    Order = 'B'
	LittleEndian Order = 'l'
)

// ByteOrder returns the encoding/binary.ByteOrder for o.
func (o Order) ByteOrder() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Valid reports whether o is one of the two bytes the handshake accepts.
func (o Order) Valid() bool {
	return o == BigEndian || o == LittleEndian
}

// Pad4 returns the number of padding bytes needed to round n up to a
// multiple of 4, the unit every structured X11 element is aligned to.
func Pad4(n int) int {
	return (4 - (n % 4)) % 4
}

// RoundUp4 rounds n up to the next multiple of 4.
func RoundUp4(n int) int {
	return n + Pad4(n)
}

// NeedMore is returned by Decode when buf does not yet hold a complete
// request. More gives the minimum number of additional bytes the caller
// must read before decoding can be retried.
type NeedMore struct {
	More int
}

func (e *NeedMore) Error() string { return fmt.Sprintf("need %d more bytes", e.More) }

// BadLength is returned when the declared length is inconsistent with the
// framing rules (e.g. an extended length smaller than the 8-byte extended
// header itself, or a BIG-REQUESTS length word when the extension is not
// enabled).
type BadLength struct {
	Opcode uint8
}

func (e *BadLength) Error() string { return fmt.Sprintf("bad length for opcode %d", e.Opcode) }

// RequestHeader is the decoded fixed header of a request: opcode, a
// per-opcode "detail" byte (reused for different purposes by different
// requests, e.g. window class or property mode), and the total length of
// the request in bytes (header included).
type RequestHeader struct {
	Opcode     uint8
	Detail     uint8
	LengthWord uint16 // raw length field from the 4-byte header, in 4-byte units
	TotalBytes int    // resolved total request length in bytes, header included
	HeaderLen  int    // 4 for a normal header, 8 for an extended BIG-REQUESTS header
}

// DecodeHeader inspects the first bytes of buf and resolves the request's
// total length. bigReqEnabled gates whether a LengthWord of 0 is treated as
// an extended header (the next 4 bytes hold a 32-bit length) or as a
// protocol error.
//
// DecodeHeader returns *NeedMore if buf does not yet contain enough bytes
// to resolve the length (either the base header or, for an extended
// header, the trailing 32-bit length word). It returns *BadLength if a
// zero length word appears without BIG-REQUESTS enabled.
func DecodeHeader(buf []byte, order binary.ByteOrder, bigReqEnabled bool) (RequestHeader, error) {
	if len(buf) < 4 {
		return RequestHeader{}, &NeedMore{More: 4 - len(buf)}
	}
	h := RequestHeader{
		Opcode:     buf[0],
		Detail:     buf[1],
		LengthWord: order.Uint16(buf[2:4]),
	}
	if h.LengthWord != 0 {
		h.HeaderLen = 4
		h.TotalBytes = int(h.LengthWord) * 4
		return h, nil
	}
	if !bigReqEnabled {
		return RequestHeader{}, &BadLength{Opcode: h.Opcode}
	}
	if len(buf) < 8 {
		return RequestHeader{}, &NeedMore{More: 8 - len(buf)}
	}
	ext := order.Uint32(buf[4:8])
	if ext < 2 {
		return RequestHeader{}, &BadLength{Opcode: h.Opcode}
	}
	h.HeaderLen = 8
	h.TotalBytes = int(ext) * 4
	return h, nil
}

// Decode resolves a complete request from buf: the header plus however
// many trailing body bytes TotalBytes calls for. It returns the header,
// the body slice (excluding the header), and the total number of bytes
// consumed from buf. If buf is shorter than the resolved total length, it
// returns *NeedMore with the exact shortfall.
func Decode(buf []byte, order binary.ByteOrder, bigReqEnabled bool) (RequestHeader, []byte, int, error) {
	h, err := DecodeHeader(buf, order, bigReqEnabled)
	if err != nil {
		return RequestHeader{}, nil, 0, err
	}
	if len(buf) < h.TotalBytes {
		return RequestHeader{}, nil, 0, &NeedMore{More: h.TotalBytes - len(buf)}
	}
	return h, buf[h.HeaderLen:h.TotalBytes], h.TotalBytes, nil
}
