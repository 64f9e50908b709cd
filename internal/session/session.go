// Package session implements the per-connection state machine of spec.md
// §4.10/§4.11: Uninit -> Running -> Closed, the request read loop, the
// shared write buffer replies and events flow through, and the sequence
// counter every reply/error/event is stamped with.
package session

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/x11anywhere/x11anywhere/internal/evqueue"
	"github.com/x11anywhere/x11anywhere/internal/handshake"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
	"github.com/x11anywhere/x11anywhere/internal/wire"
)

// State is one point in the connection's lifecycle.
type State int

const (
	StateUninit State = iota
	StateRunning
	StateClosed
)

// Dispatcher is the server-side behavior a Session calls into once the
// handshake completes. It is implemented by *server.Server; putting it
// behind an interface here keeps this package from importing server and
// creating a cycle.
type Dispatcher interface {
	// Authenticate decides whether to accept a just-connected client and,
	// if so, returns the parameters needed to build its SetupReply along
	// with the resource-id range and byte order the session should
	// remember for itself.
	Authenticate(p handshake.Prologue) (handshake.AcceptParams, resource.Range, bool, string)
	// HandleRequest executes one decoded request and returns the fully
	// encoded reply frame to send (nil if the request has no reply), with
	// seq already stamped into it via wire.PutReplyHeader. A *protoerr.Error
	// is reported as a 32-byte error frame; any other error is a transport
	// or internal failure that closes the session.
	HandleRequest(s *Session, h wire.RequestHeader, body []byte, seq uint16) ([]byte, error)
	// RegisterClient and UnregisterClient bracket a session's lifetime in
	// the server's client-info and event-routing tables.
	RegisterClient(s *Session)
	UnregisterClient(id resource.ClientID)
}

// Session owns one client connection end to end.
type Session struct {
	ID    resource.ClientID
	conn  net.Conn
	order wire.Order
	bo    binary.ByteOrder

	seqMu sync.Mutex
	seq   uint16

	bigReqMu sync.Mutex
	bigReq   bool

	writeMu sync.Mutex
	w       *bufio.Writer

	stateMu sync.Mutex
	state   State

	Queue *evqueue.Queue

	ResourceRange resource.Range
}

// New wraps conn in a Session with id as its client identifier. The
// session is not usable until Run performs the handshake.
func New(id resource.ClientID, conn net.Conn) *Session {
	return &Session{
		ID:    id,
		conn:  conn,
		w:     bufio.NewWriter(conn),
		Queue: evqueue.NewQueue(),
		state: StateUninit,
	}
}

// ByteOrder returns the session's negotiated wire byte order, satisfying
// evqueue.ClientInfo via the server's thin adapter.
func (s *Session) ByteOrder() binary.ByteOrder { return s.bo }

// Sequence returns the sequence number of the most recently completed
// request, the value evqueue stamps onto events generated "at this
// client's current position" (spec.md §4.9).
func (s *Session) Sequence() uint16 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	return s.seq
}

func (s *Session) nextSequence() uint16 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq++
	return s.seq
}

// EnableBigRequests turns on the extended-length header for subsequent
// requests, called by the BIG-REQUESTS Enable handler.
func (s *Session) EnableBigRequests() {
	s.bigReqMu.Lock()
	defer s.bigReqMu.Unlock()
	s.bigReq = true
}

func (s *Session) bigRequestsEnabled() bool {
	s.bigReqMu.Lock()
	defer s.bigReqMu.Unlock()
	return s.bigReq
}

// Close closes the underlying connection, unblocking Run's read loop so
// that it returns and runs its session-teardown defers. Used by KillClient
// to terminate another client's connection outright (spec.md §4.10).
func (s *Session) Close() error {
	return s.conn.Close()
}

// WriteFrame appends frame to the session's shared write buffer without
// flushing, so a handler can queue a reply and one or more events from
// the same request as a single flushed unit.
func (s *Session) WriteFrame(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.w.Write(frame)
	return err
}

// Flush forces the write buffer to the socket. Handlers call this after
// their reply (and any events generated by the same request) have been
// queued, guaranteeing replies precede later events per spec.md §5.
func (s *Session) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.w.Flush()
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state = st
}

// Run performs the handshake and then services requests until ctx is
// canceled, the client disconnects, or a transport error occurs. It also
// runs the event-delivery pump that drains Queue for events generated by
// other clients' requests or by backend ingestion.
func (s *Session) Run(ctx context.Context, d Dispatcher) error {
	defer s.conn.Close()
	defer s.setState(StateClosed)

	r := bufio.NewReader(s.conn)
	p, err := handshake.ReadPrologue(r)
	if err != nil {
		return fmt.Errorf("session: handshake: %w", err)
	}
	s.order = p.Order
	s.bo = p.Order.ByteOrder()

	params, rrange, ok, reason := d.Authenticate(p)
	if !ok {
		reply := handshake.Refuse(s.order, reason)
		s.conn.Write(reply)
		return fmt.Errorf("session: authentication refused: %s", reason)
	}
	s.ResourceRange = rrange
	reply := handshake.Accept(s.order, params)
	if _, err := s.conn.Write(reply); err != nil {
		return fmt.Errorf("session: write SetupReply: %w", err)
	}
	s.setState(StateRunning)

	d.RegisterClient(s)
	defer d.UnregisterClient(s.ID)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.pumpEvents(ctx)
	}()
	defer func() {
		s.Queue.Close()
		<-pumpDone
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		h, body, err := readRequest(r, s.bo, s.bigRequestsEnabled())
		if err != nil {
			if err == io.EOF {
				return nil
			}
			// A declared length of 0 with BIG-REQUESTS disabled is a
			// protocol-level mistake, not a transport failure: spec.md
			// §4.10 keeps the session Running and reports it as a Length
			// error rather than dropping the connection.
			if blen, ok := err.(*wire.BadLength); ok {
				seq := s.nextSequence()
				if err := s.writeError(protoerr.New(protoerr.Length, blen.Opcode, 0, 0), seq); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("session: read request: %w", err)
		}
		seq := s.nextSequence()

		replyFrame, herr := d.HandleRequest(s, h, body, seq)
		if herr != nil {
			if perr, ok := herr.(*protoerr.Error); ok {
				if err := s.writeError(perr, seq); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("session: handle request opcode %d: %w", h.Opcode, herr)
		}
		if replyFrame != nil {
			if err := s.WriteFrame(replyFrame); err != nil {
				return err
			}
			if err := s.Flush(); err != nil {
				return err
			}
		} else {
			// Requests with no reply still flush so that any events the
			// handler already queued for this same session are visible
			// before the next request is read.
			if err := s.Flush(); err != nil {
				return err
			}
		}
	}
}

// writeError encodes perr as a 32-byte error frame stamped with seq and
// flushes it, the path shared by a handler-reported *protoerr.Error and a
// malformed request header caught before a request even reaches a handler.
func (s *Session) writeError(perr *protoerr.Error, seq uint16) error {
	frame := make([]byte, wire.ErrorSize)
	wire.PutErrorFrame(frame, s.bo, perr.Code, seq, perr.BadValue, perr.MinorOpcode, perr.MajorOpcode)
	if err := s.WriteFrame(frame); err != nil {
		return err
	}
	return s.Flush()
}

// pumpEvents writes queued events to the socket as they arrive, the path
// that delivers events generated by other clients' requests or by backend
// ingestion to an otherwise idle session.
func (s *Session) pumpEvents(ctx context.Context) {
	for {
		frame, ok := s.Queue.Pop(ctx)
		if !ok {
			return
		}
		if err := s.WriteFrame(frame[:]); err != nil {
			return
		}
		if err := s.Flush(); err != nil {
			return
		}
	}
}

// PushEvent enqueues frame to this session's own queue, the path a
// handler uses when it must deliver an event to the same client that
// issued the request after that request's reply has already been
// flushed (e.g. a SelectionNotify loopback).
func (s *Session) PushEvent(frame [evqueue.FrameSize]byte, isMotion bool) {
	s.Queue.Push(frame, isMotion)
}

// readRequest reads one request's bytes off r and resolves its header via
// wire.DecodeHeader, growing the header buffer to 8 bytes when that
// signals a BIG-REQUESTS extended length is present.
func readRequest(r io.Reader, order binary.ByteOrder, bigReq bool) (wire.RequestHeader, []byte, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return wire.RequestHeader{}, nil, err
	}
	h, err := wire.DecodeHeader(buf, order, bigReq)
	if nm, ok := err.(*wire.NeedMore); ok {
		ext := make([]byte, nm.More)
		if _, err := io.ReadFull(r, ext); err != nil {
			return wire.RequestHeader{}, nil, err
		}
		buf = append(buf, ext...)
		h, err = wire.DecodeHeader(buf, order, bigReq)
	}
	if err != nil {
		return wire.RequestHeader{}, nil, err
	}
	bodyLen := h.TotalBytes - h.HeaderLen
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return wire.RequestHeader{}, nil, err
		}
	}
	return h, body, nil
}
