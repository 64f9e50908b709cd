package server

import (
	"encoding/binary"

	"github.com/x11anywhere/x11anywhere/internal/evqueue"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
	"github.com/x11anywhere/x11anywhere/internal/session"
	"github.com/x11anywhere/x11anywhere/internal/wire"
)

// request bundles everything one handler invocation needs: the decoded
// header fields, the request body (header already stripped), and access
// back to the owning server and session.
type request struct {
	srv    *Server
	sess   *session.Session
	opcode uint8
	detail uint8
	body   []byte
	seq    uint16
	order  binary.ByteOrder
}

// handlerFunc is the shape every dispatch table entry implements:
// validate, mutate state and/or call the backend, and return either a
// fully encoded reply frame (nil if the request has no reply) or a
// protocol error.
type handlerFunc func(*request) ([]byte, error)

func (r *request) u8(off int) uint8 {
	return r.body[off]
}

func (r *request) u16(off int) uint16 {
	return r.order.Uint16(r.body[off : off+2])
}

func (r *request) u32(off int) uint32 {
	return r.order.Uint32(r.body[off : off+4])
}

func (r *request) i16(off int) int16 { return int16(r.u16(off)) }

func (r *request) bytesFrom(off, n int) []byte {
	return r.body[off : off+n]
}

func (r *request) err(code protoerr.Code, badValue uint32) *protoerr.Error {
	return protoerr.New(code, r.opcode, 0, badValue)
}

func (r *request) errf(code protoerr.Code, badValue uint32, format string, args ...any) *protoerr.Error {
	return protoerr.Newf(code, r.opcode, 0, badValue, format, args...)
}

// replyBuf allocates a 32+trailingLen byte frame with the common reply
// header already written (status byte, data1, sequence, extra-length
// word), leaving buf[8:32] and buf[32:] for the caller to fill.
func (r *request) replyBuf(data1 byte, trailingLen int) []byte {
	buf := make([]byte, 32+trailingLen)
	wire.PutReplyHeader(buf, r.order, data1, r.seq, uint32(trailingLen/4))
	return buf
}

// windowErr maps a wintree lookup failure to the BadWindow error a window
// request reports when its target does not exist.
func (r *request) windowErr(id uint32) *protoerr.Error {
	return r.err(protoerr.Window, id)
}

// dispatchEvent enqueues the event build renders to every client
// selecting maskBit on window, propagating toward the root for the event
// categories spec.md §4.9 names.
func (r *request) dispatchEvent(window uint32, maskBit uint32, build evqueue.Builder) {
	r.srv.router.Dispatch(window, maskBit, build, r.srv)
}

func (r *request) deliverDirect(window uint32, maskBit uint32, build evqueue.Builder) {
	r.srv.router.DeliverDirect(window, maskBit, build)
}

func (r *request) deliverToClient(client resource.ClientID, build evqueue.Builder) {
	r.srv.router.DeliverToClient(client, build)
}
