package server

import (
	"bufio"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/backend/nullbackend"
	"github.com/x11anywhere/x11anywhere/internal/config"
	"github.com/x11anywhere/x11anywhere/internal/proto"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/session"
)

// testClient wraps one half of a net.Pipe plus the byte order negotiated
// at handshake time, giving tests a small vocabulary for writing requests
// and reading back replies without re-deriving wire offsets every time.
type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
	bo   binary.ByteOrder
	seq  uint16
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(Config{Backend: nullbackend.New(), Policy: config.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })

	sess := session.New(1, serverConn)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sess.Run(ctx, srv)

	c := &testClient{t: t, conn: clientConn, r: bufio.NewReader(clientConn), bo: binary.LittleEndian}
	c.handshake()
	return c
}

func (c *testClient) handshake() {
	c.t.Helper()
	var buf []byte
	buf = append(buf, 'l', 0)
	buf = append(buf, u16le(11)...)
	buf = append(buf, u16le(0)...)
	buf = append(buf, u16le(0)...)
	buf = append(buf, u16le(0)...)
	buf = append(buf, 0, 0)
	if _, err := c.conn.Write(buf); err != nil {
		c.t.Fatalf("write prologue: %v", err)
	}

	var head [8]byte
	if _, err := readFull(c.r, head[:]); err != nil {
		c.t.Fatalf("read setup header: %v", err)
	}
	if head[0] != 1 {
		c.t.Fatalf("setup status = %d, want 1 (accept)", head[0])
	}
	bodyLen := int(c.bo.Uint16(head[6:8])) * 4
	rest := make([]byte, bodyLen)
	if _, err := readFull(c.r, rest); err != nil {
		c.t.Fatalf("read setup body: %v", err)
	}
}

func u16le(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

// send writes one request frame (opcode/detail header plus body, padded
// to a whole number of 4-byte words as the core protocol requires) and
// returns the sequence number the server will stamp its reply with.
func (c *testClient) send(opcode, detail uint8, body []byte) uint16 {
	c.t.Helper()
	total := 4 + len(body)
	if total%4 != 0 {
		c.t.Fatalf("request body length %d not a multiple of 4", len(body))
	}
	frame := make([]byte, total)
	frame[0] = opcode
	frame[1] = detail
	binary.LittleEndian.PutUint16(frame[2:4], uint16(total/4))
	copy(frame[4:], body)
	if _, err := c.conn.Write(frame); err != nil {
		c.t.Fatalf("write request (opcode %d): %v", opcode, err)
	}
	c.seq++
	return c.seq
}

func (c *testClient) readReply() []byte {
	c.t.Helper()
	var head [32]byte
	if _, err := readFull(c.r, head[:]); err != nil {
		c.t.Fatalf("read reply: %v", err)
	}
	if head[0] == 0 {
		c.t.Fatalf("expected reply, got error frame (code %d)", head[1])
	}
	extra := c.bo.Uint32(head[4:8])
	if extra == 0 {
		return head[:]
	}
	trailing := make([]byte, extra*4)
	if _, err := readFull(c.r, trailing); err != nil {
		c.t.Fatalf("read reply trailing data: %v", err)
	}
	return append(head[:], trailing...)
}

func (c *testClient) readError() []byte {
	c.t.Helper()
	var frame [32]byte
	if _, err := readFull(c.r, frame[:]); err != nil {
		c.t.Fatalf("read error frame: %v", err)
	}
	if frame[0] != 0 {
		c.t.Fatalf("expected error frame, got status %d", frame[0])
	}
	return frame[:]
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

func TestHandshakeAcceptsAndReportsRootWindow(t *testing.T) {
	srv := newTestServer(t)
	dial(t, srv) // handshake() inside dial already asserts acceptance
	if srv.rootID == 0 {
		t.Fatal("server has no root window id")
	}
}

func TestCreateWindowThenGetGeometryRoundTrips(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	const wid = 0x00600001
	body := make([]byte, 28)
	c.bo.PutUint32(body[0:4], wid)
	c.bo.PutUint32(body[4:8], srv.rootID)
	c.bo.PutUint16(body[8:10], uint16(10))  // x
	c.bo.PutUint16(body[10:12], uint16(20)) // y
	c.bo.PutUint16(body[12:14], 100)        // width
	c.bo.PutUint16(body[14:16], 50)         // height
	c.bo.PutUint16(body[16:18], 0)          // border width
	c.bo.PutUint16(body[18:20], 1)          // class: InputOutput
	c.bo.PutUint32(body[20:24], 0)          // visual: copy from parent
	c.bo.PutUint32(body[24:28], 0)          // value-mask: none
	c.send(proto.OpCreateWindow, 24 /* depth */, body)

	geomBody := make([]byte, 4)
	c.bo.PutUint32(geomBody, wid)
	c.send(proto.OpGetGeometry, 0, geomBody)

	reply := c.readReply()
	width := c.bo.Uint16(reply[16:18])
	height := c.bo.Uint16(reply[18:20])
	if width != 100 || height != 50 {
		t.Errorf("geometry = %dx%d, want 100x50", width, height)
	}
}

func TestCreateWindowWithUnknownParentFails(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	body := make([]byte, 28)
	c.bo.PutUint32(body[0:4], 0x00600001)
	c.bo.PutUint32(body[4:8], 0xdeadbeef) // no such parent
	c.bo.PutUint16(body[18:20], 1)
	c.send(proto.OpCreateWindow, 24, body)

	frame := c.readError()
	if frame[1] == 0 {
		t.Error("expected a non-zero error code for an unknown parent window")
	}
}

func TestPropertyChangeAndGetRoundTrips(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	atomBody := make([]byte, 4)
	c.bo.PutUint16(atomBody[0:2], 4) // name length
	c.send(proto.OpInternAtom, 0, append(atomBody, []byte("TEST")...))
	reply := c.readReply()
	atom := c.bo.Uint32(reply[8:12])
	if atom == 0 {
		t.Fatal("InternAtom returned atom 0")
	}

	value := []byte("hello!!!") // 8 bytes, already word-aligned
	cpBody := make([]byte, 20+len(value))
	c.bo.PutUint32(cpBody[0:4], srv.rootID)
	c.bo.PutUint32(cpBody[4:8], atom)
	c.bo.PutUint32(cpBody[8:12], 31) // type STRING
	cpBody[12] = 8                  // format
	c.bo.PutUint32(cpBody[16:20], uint32(len(value)))
	copy(cpBody[20:], value)
	c.send(proto.OpChangeProperty, 0 /* mode: Replace */, cpBody)

	gpBody := make([]byte, 20)
	c.bo.PutUint32(gpBody[0:4], srv.rootID)
	c.bo.PutUint32(gpBody[4:8], atom)
	c.bo.PutUint32(gpBody[8:12], 0) // any type
	c.bo.PutUint32(gpBody[12:16], 0)
	c.bo.PutUint32(gpBody[16:20], uint32(len(value)/4))
	c.send(proto.OpGetProperty, 0, gpBody)

	got := c.readReply()
	length := c.bo.Uint32(got[16:20])
	if int(length) != len(value) {
		t.Fatalf("property length = %d, want %d", length, len(value))
	}
	if string(got[32:32+len(value)]) != string(value) {
		t.Errorf("property value = %q, want %q", got[32:32+len(value)], value)
	}
}

func TestUnknownOpcodeReportsRequestError(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	c.send(250, 0, nil)
	frame := c.readError()
	if frame[1] == 0 {
		t.Error("expected a non-zero error code for an unknown opcode")
	}
}

func TestSelectionOwnershipTransferNotifiesPreviousOwner(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	const winA, winB = 0x00600001, 0x00600002
	for _, w := range []uint32{winA, winB} {
		body := make([]byte, 28)
		c.bo.PutUint32(body[0:4], w)
		c.bo.PutUint32(body[4:8], srv.rootID)
		c.bo.PutUint16(body[18:20], 1) // class: InputOutput
		c.send(proto.OpCreateWindow, 24, body)
	}

	atomBody := make([]byte, 4)
	c.bo.PutUint16(atomBody[0:2], 7) // name length
	atomBody = append(atomBody, []byte("PRIMARY")...)
	atomBody = append(atomBody, 0) // pad "PRIMARY" (7 bytes) out to a word boundary
	c.send(proto.OpInternAtom, 0, atomBody)
	reply := c.readReply()
	atom := c.bo.Uint32(reply[8:12])

	ssoBody := make([]byte, 12)
	c.bo.PutUint32(ssoBody[0:4], winA)
	c.bo.PutUint32(ssoBody[4:8], atom)
	c.send(proto.OpSetSelectionOwner, 0, ssoBody)

	c.bo.PutUint32(ssoBody[0:4], winB)
	c.send(proto.OpSetSelectionOwner, 0, ssoBody)

	var frame [32]byte
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readFull(c.r, frame[:]); err != nil {
		t.Fatalf("expected a SelectionClear event for the previous owner: %v", err)
	}
	if frame[0] != proto.EventSelectionClear {
		t.Errorf("event code = %d, want %d (SelectionClear)", frame[0], proto.EventSelectionClear)
	}
	owner := c.bo.Uint32(frame[8:12])
	if owner != winA {
		t.Errorf("SelectionClear owner = %#x, want %#x", owner, winA)
	}
}

func TestZeroLengthRequestWithoutBigRequestsStaysRunning(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	frame := []byte{proto.OpGetInputFocus, 0, 0, 0} // length word 0: BIG-REQUESTS form, not enabled
	if _, err := c.conn.Write(frame); err != nil {
		t.Fatalf("write request: %v", err)
	}

	errFrame := c.readError()
	if errFrame[1] != byte(protoerr.Length) {
		t.Errorf("error code = %d, want %d (Length)", errFrame[1], protoerr.Length)
	}
	if errFrame[10] != proto.OpGetInputFocus {
		t.Errorf("major opcode = %d, want %d", errFrame[10], proto.OpGetInputFocus)
	}

	// the session must still be Running: a well-formed request right
	// after the bad one gets a normal reply, not a closed connection.
	geomBody := make([]byte, 4)
	c.bo.PutUint32(geomBody, srv.rootID)
	c.send(proto.OpGetGeometry, 0, geomBody)
	c.readReply()
}

func TestIngestDrainsExposeToSelectingClient(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	const wid = 0x00600001
	cwBody := make([]byte, 28)
	c.bo.PutUint32(cwBody[0:4], wid)
	c.bo.PutUint32(cwBody[4:8], srv.rootID)
	c.bo.PutUint16(cwBody[12:14], 100)
	c.bo.PutUint16(cwBody[14:16], 50)
	c.bo.PutUint16(cwBody[18:20], 1) // class: InputOutput
	c.send(proto.OpCreateWindow, 24, cwBody)

	cwaBody := make([]byte, 12)
	c.bo.PutUint32(cwaBody[0:4], wid)
	c.bo.PutUint32(cwaBody[4:8], proto.CWEventMask)
	c.bo.PutUint32(cwaBody[8:12], proto.EventMaskExposure)
	c.send(proto.OpChangeWindowAttributes, 0, cwaBody)

	// CreateWindow and ChangeWindowAttributes have no reply; round-trip a
	// GetGeometry request so the server has finished handling both (a
	// session processes requests one at a time, in order) before this
	// goroutine reads srv.handles directly.
	geomBody := make([]byte, 4)
	c.bo.PutUint32(geomBody, wid)
	c.send(proto.OpGetGeometry, 0, geomBody)
	c.readReply()

	handle := srv.handles[wid]
	srv.backend.(*nullbackend.Backend).Inject(backend.Event{
		Kind: backend.EventExpose, Window: handle, Width: 10, Height: 10,
	})
	srv.ingestOnce()

	var frame [32]byte
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readFull(c.r, frame[:]); err != nil {
		t.Fatalf("expected a delivered Expose event: %v", err)
	}
	if frame[0] != proto.EventExpose {
		t.Errorf("event code = %d, want %d (Expose)", frame[0], proto.EventExpose)
	}
}

func TestCreateWindowEventMaskThenMapDeliversMapNotifyThenExpose(t *testing.T) {
	srv := newTestServer(t)
	c := dial(t, srv)

	const wid = 0x00600001
	cwBody := make([]byte, 32)
	c.bo.PutUint32(cwBody[0:4], wid)
	c.bo.PutUint32(cwBody[4:8], srv.rootID)
	c.bo.PutUint16(cwBody[12:14], 100)
	c.bo.PutUint16(cwBody[14:16], 50)
	c.bo.PutUint16(cwBody[18:20], 1) // class: InputOutput
	c.bo.PutUint32(cwBody[24:28], proto.CWEventMask)
	c.bo.PutUint32(cwBody[28:32], proto.EventMaskExposure|proto.EventMaskStructureNotify)
	c.send(proto.OpCreateWindow, 24, cwBody)

	mapBody := make([]byte, 4)
	c.bo.PutUint32(mapBody, wid)
	c.send(proto.OpMapWindow, 0, mapBody)

	var mapFrame, exposeFrame [32]byte
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readFull(c.r, mapFrame[:]); err != nil {
		t.Fatalf("expected MapNotify from CreateWindow's own event mask: %v", err)
	}
	if mapFrame[0] != proto.EventMapNotify {
		t.Errorf("first event code = %d, want %d (MapNotify)", mapFrame[0], proto.EventMapNotify)
	}
	if _, err := readFull(c.r, exposeFrame[:]); err != nil {
		t.Fatalf("expected Expose from CreateWindow's own event mask: %v", err)
	}
	if exposeFrame[0] != proto.EventExpose {
		t.Errorf("second event code = %d, want %d (Expose)", exposeFrame[0], proto.EventExpose)
	}
}
