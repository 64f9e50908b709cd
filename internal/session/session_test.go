package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/handshake"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
	"github.com/x11anywhere/x11anywhere/internal/wire"
)

func encodePrologue(order byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(order)
	buf.WriteByte(0)
	bo := wire.Order(order).ByteOrder()
	var u16 [2]byte
	bo.PutUint16(u16[:], 11)
	buf.Write(u16[:])
	bo.PutUint16(u16[:], 0)
	buf.Write(u16[:])
	bo.PutUint16(u16[:], 0)
	buf.Write(u16[:])
	bo.PutUint16(u16[:], 0)
	buf.Write(u16[:])
	buf.Write([]byte{0, 0})
	return buf.Bytes()
}

type fakeDispatcher struct {
	accept      bool
	reason      string
	lastOpcode  uint8
	replyBody   []byte
	errToReturn *protoerr.Error
}

func (d *fakeDispatcher) Authenticate(p handshake.Prologue) (handshake.AcceptParams, resource.Range, bool, string) {
	if !d.accept {
		return handshake.AcceptParams{}, resource.Range{}, false, d.reason
	}
	return handshake.AcceptParams{
		Vendor:           "test",
		ResourceIDBase:   0x400000,
		ResourceIDMask:   0x1fffff,
		MaxRequestLength: 65535,
		Screens: []handshake.ScreenParams{
			{Root: 1, DefaultColormap: 2, RootVisual: 3, Info: backend.ScreenInfo{RootDepth: 24}},
		},
	}, resource.Range{Base: 0x400000, Mask: 0x1fffff}, true, ""
}

func (d *fakeDispatcher) HandleRequest(s *Session, h wire.RequestHeader, body []byte, seq uint16) ([]byte, error) {
	d.lastOpcode = h.Opcode
	if d.errToReturn != nil {
		return nil, d.errToReturn
	}
	if d.replyBody == nil {
		return nil, nil
	}
	frame := make([]byte, wire.ReplyHeaderSize+len(d.replyBody))
	wire.PutReplyHeader(frame, s.bo, 0, seq, 0)
	copy(frame[wire.ReplyHeaderSize:], d.replyBody)
	return frame, nil
}

func (d *fakeDispatcher) RegisterClient(s *Session)             {}
func (d *fakeDispatcher) UnregisterClient(id resource.ClientID) {}

func TestRunAcceptsHandshakeAndRepliesToRequest(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	disp := &fakeDispatcher{accept: true, replyBody: []byte("ok!!")}
	s := New(1, serverConn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, disp) }()

	if _, err := clientConn.Write(encodePrologue('l')); err != nil {
		t.Fatalf("write prologue: %v", err)
	}

	r := bufio.NewReader(clientConn)
	var head [8]byte
	if _, err := readFullN(r, head[:]); err != nil {
		t.Fatalf("read setup status header: %v", err)
	}
	if head[0] != 1 {
		t.Fatalf("setup status = %d, want 1", head[0])
	}
	bodyLen := int(binary.LittleEndian.Uint16(head[6:8])) * 4
	rest := make([]byte, bodyLen)
	if _, err := readFullN(r, rest); err != nil {
		t.Fatalf("read setup body: %v", err)
	}

	req := make([]byte, 4)
	req[0] = 42
	binary.LittleEndian.PutUint16(req[2:4], 1)
	if _, err := clientConn.Write(req); err != nil {
		t.Fatalf("write request: %v", err)
	}

	reply := make([]byte, wire.ReplyHeaderSize+4)
	if _, err := readFullN(r, reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply[0] != 1 {
		t.Fatalf("reply status byte = %d, want 1", reply[0])
	}
	if string(reply[wire.ReplyHeaderSize:]) != "ok!!" {
		t.Errorf("reply payload = %q, want %q", reply[wire.ReplyHeaderSize:], "ok!!")
	}
	if disp.lastOpcode != 42 {
		t.Errorf("lastOpcode = %d, want 42", disp.lastOpcode)
	}

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after client closed the connection")
	}
}

func TestRunRefusesWhenDispatcherRejects(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	disp := &fakeDispatcher{accept: false, reason: "denied"}
	s := New(1, serverConn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Run(ctx, disp)

	if _, err := clientConn.Write(encodePrologue('l')); err != nil {
		t.Fatalf("write prologue: %v", err)
	}

	r := bufio.NewReader(clientConn)
	var head [8]byte
	if _, err := readFullN(r, head[:]); err != nil {
		t.Fatalf("read refuse header: %v", err)
	}
	if head[0] != 0 {
		t.Fatalf("status = %d, want 0 (refuse)", head[0])
	}
}

func TestRunReportsProtocolErrorWithoutClosing(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	disp := &fakeDispatcher{accept: true, errToReturn: protoerr.New(protoerr.Window, 3, 0, 0xdead)}
	s := New(1, serverConn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, disp)

	clientConn.Write(encodePrologue('l'))
	r := bufio.NewReader(clientConn)
	var head [8]byte
	readFullN(r, head[:])
	bodyLen := int(binary.LittleEndian.Uint16(head[6:8])) * 4
	readFullN(r, make([]byte, bodyLen))

	req := make([]byte, 4)
	req[0] = 3
	binary.LittleEndian.PutUint16(req[2:4], 1)
	clientConn.Write(req)

	errFrame := make([]byte, wire.ErrorSize)
	if _, err := readFullN(r, errFrame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if errFrame[0] != 0 {
		t.Fatalf("frame marker = %d, want 0 (error)", errFrame[0])
	}
	if errFrame[1] != byte(protoerr.Window) {
		t.Errorf("error code = %d, want %d", errFrame[1], protoerr.Window)
	}
}

func readFullN(r *bufio.Reader, buf []byte) (int, error) {
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
