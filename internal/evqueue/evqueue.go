// Package evqueue implements the per-client event queue and the
// event-mask routing/propagation rules of spec.md §4.9: every generated
// event is matched against the event masks clients have selected on its
// target window (and, for propagating event categories, on that window's
// ancestors) and enqueued to each matching client's FIFO, encoded in that
// client's own negotiated byte order and stamped with that client's
// sequence number at the moment the event was generated (spec.md §4.1,
// §4.9).
package evqueue

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/x11anywhere/x11anywhere/internal/proto"
	"github.com/x11anywhere/x11anywhere/internal/resource"
)

// FrameSize is the fixed size of every queued event, per spec.md §4.9.
const FrameSize = 32

// motionCap bounds how many PointerMotion frames a single client's queue
// may hold before the oldest is dropped; every other event category is
// never dropped (spec.md §5, "drop-oldest is acceptable for pointer
// motion coalescing; all other events must be preserved").
const motionCap = 256

// Builder renders an event's wire bytes once the recipient's byte order
// and current sequence number are known, deferring both until the event
// actually reaches a specific client's queue.
type Builder func(order binary.ByteOrder, sequence uint16) [FrameSize]byte

// Queue is one client's FIFO of pending event frames, already encoded
// for that client.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  [][FrameSize]byte
	closed bool
}

// NewQueue returns an empty, open Queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues frame. isMotion marks a PointerMotion event, which is
// eligible for drop-oldest coalescing when the queue is saturated with
// motion events; every other event is always preserved.
func (q *Queue) Push(frame [FrameSize]byte, isMotion bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if isMotion {
		motionCount := 0
		for _, it := range q.items {
			if it[0] == proto.EventMotionNotify {
				motionCount++
			}
		}
		if motionCount >= motionCap {
			for i, it := range q.items {
				if it[0] == proto.EventMotionNotify {
					q.items = append(q.items[:i], q.items[i+1:]...)
					break
				}
			}
		}
	}
	q.items = append(q.items, frame)
	q.cond.Signal()
}

// Pop blocks until a frame is available, the queue is closed, or ctx is
// done. It returns ok=false on close/cancellation.
func (q *Queue) Pop(ctx context.Context) (frame [FrameSize]byte, ok bool) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return frame, false
	}
	frame = q.items[0]
	q.items = q.items[1:]
	return frame, true
}

// Close wakes any blocked Pop and marks the queue closed; further Pushes
// are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// AncestorLookup resolves a window's ancestor chain (parent first, root
// last) and its do-not-propagate-mask, the two pieces of window-tree
// state the router needs without importing wintree directly.
type AncestorLookup interface {
	Ancestors(window uint32) []uint32
	DoNotPropagateMask(window uint32) uint32
}

// ClientInfo supplies the per-client state the router needs to finish
// encoding an event at the moment it is enqueued: the client's negotiated
// byte order and its current sequence counter.
type ClientInfo interface {
	ByteOrder(client resource.ClientID) (binary.ByteOrder, bool)
	Sequence(client resource.ClientID) uint16
}

// Router tracks, per window, which clients have selected which event
// mask bits, and fans generated events out to their queues.
type Router struct {
	mu         sync.Mutex
	selections map[uint32]map[resource.ClientID]uint32
	queues     map[resource.ClientID]*Queue
	info       ClientInfo
}

// NewRouter returns an empty Router that consults info to finish encoding
// events for each recipient.
func NewRouter(info ClientInfo) *Router {
	return &Router{
		selections: make(map[uint32]map[resource.ClientID]uint32),
		queues:     make(map[resource.ClientID]*Queue),
		info:       info,
	}
}

// RegisterClient associates client with the queue its session reads
// from.
func (r *Router) RegisterClient(client resource.ClientID, q *Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[client] = q
}

// UnregisterClient drops client's queue and every event-mask selection it
// made, called on disconnect.
func (r *Router) UnregisterClient(client resource.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.queues, client)
	for w, byClient := range r.selections {
		delete(byClient, client)
		if len(byClient) == 0 {
			delete(r.selections, w)
		}
	}
}

// Select records that client wants mask's events on window, replacing
// any previous selection client made on that window (ChangeWindowAttributes
// semantics: "event-mask replaces the requester's selection for that
// window").
func (r *Router) Select(window uint32, client resource.ClientID, mask uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byClient, ok := r.selections[window]
	if !ok {
		byClient = make(map[resource.ClientID]uint32)
		r.selections[window] = byClient
	}
	if mask == 0 {
		delete(byClient, client)
		if len(byClient) == 0 {
			delete(r.selections, window)
		}
		return
	}
	byClient[client] = mask
}

// ForgetWindow drops every selection recorded against window, called when
// the window is destroyed.
func (r *Router) ForgetWindow(window uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.selections, window)
}

func (r *Router) matching(window uint32, maskBit uint32) []resource.ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []resource.ClientID
	for client, m := range r.selections[window] {
		if m&maskBit != 0 {
			out = append(out, client)
		}
	}
	return out
}

func (r *Router) deliver(window uint32, maskBit uint32, build Builder) {
	isMotion := maskBit == proto.EventMaskPointerMotion
	for _, client := range r.matching(window, maskBit) {
		r.deliverToClient(client, build, isMotion)
	}
}

func (r *Router) deliverToClient(client resource.ClientID, build Builder, isMotion bool) {
	order, ok := r.info.ByteOrder(client)
	if !ok {
		return
	}
	seq := r.info.Sequence(client)
	r.mu.Lock()
	q, ok := r.queues[client]
	r.mu.Unlock()
	if !ok {
		return
	}
	q.Push(build(order, seq), isMotion)
}

// Dispatch delivers the event build renders to every client selecting
// maskBit on window; if maskBit is one of the propagating categories
// (spec.md §4.9), delivery continues up the ancestor chain returned by
// lookup until an ancestor's do-not-propagate-mask blocks maskBit or the
// root is reached.
func (r *Router) Dispatch(window uint32, maskBit uint32, build Builder, lookup AncestorLookup) {
	r.deliver(window, maskBit, build)
	if maskBit&proto.PropagatingMask == 0 {
		return
	}
	for _, anc := range lookup.Ancestors(window) {
		if lookup.DoNotPropagateMask(anc)&maskBit != 0 {
			return
		}
		r.deliver(anc, maskBit, build)
	}
}

// DeliverDirect enqueues the event build renders to every client
// selecting maskBit on window without propagating to ancestors, the
// behavior SendEvent uses when its propagate flag is false.
func (r *Router) DeliverDirect(window uint32, maskBit uint32, build Builder) {
	r.deliver(window, maskBit, build)
}

// DeliverToClient enqueues the event build renders directly to one
// client, bypassing mask matching entirely — used for replies that are
// logically events addressed to a specific client regardless of its
// selections, such as the SelectionNotify a selection owner's SendEvent
// forwards to the original requestor (spec.md §4.7).
func (r *Router) DeliverToClient(client resource.ClientID, build Builder) {
	r.deliverToClient(client, build, false)
}
