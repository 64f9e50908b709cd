package evqueue

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/x11anywhere/x11anywhere/internal/proto"
	"github.com/x11anywhere/x11anywhere/internal/resource"
)

type fakeInfo struct {
	orders map[resource.ClientID]binary.ByteOrder
	seqs   map[resource.ClientID]uint16
}

func (f *fakeInfo) ByteOrder(c resource.ClientID) (binary.ByteOrder, bool) {
	o, ok := f.orders[c]
	return o, ok
}
func (f *fakeInfo) Sequence(c resource.ClientID) uint16 { return f.seqs[c] }

type fakeLookup struct {
	ancestors map[uint32][]uint32
	dnp       map[uint32]uint32
}

func (f *fakeLookup) Ancestors(w uint32) []uint32        { return f.ancestors[w] }
func (f *fakeLookup) DoNotPropagateMask(w uint32) uint32 { return f.dnp[w] }

func TestDispatchDeliversToSelectedClient(t *testing.T) {
	info := &fakeInfo{
		orders: map[resource.ClientID]binary.ByteOrder{1: binary.LittleEndian},
		seqs:   map[resource.ClientID]uint16{1: 7},
	}
	r := NewRouter(info)
	q := NewQueue()
	r.RegisterClient(1, q)
	r.Select(100, 1, proto.EventMaskExposure)

	r.Dispatch(100, proto.EventMaskExposure, ExposeBuilder(100, 0, 0, 50, 50, 0), &fakeLookup{})

	frame, ok := q.Pop(context.Background())
	if !ok {
		t.Fatal("expected a queued frame")
	}
	if frame[0] != proto.EventExpose {
		t.Errorf("code = %d, want Expose", frame[0])
	}
	if seq := binary.LittleEndian.Uint16(frame[2:4]); seq != 7 {
		t.Errorf("sequence = %d, want 7", seq)
	}
}

func TestDispatchPropagatesUntilBlocked(t *testing.T) {
	info := &fakeInfo{
		orders: map[resource.ClientID]binary.ByteOrder{1: binary.LittleEndian},
		seqs:   map[resource.ClientID]uint16{1: 0},
	}
	r := NewRouter(info)
	q := NewQueue()
	r.RegisterClient(1, q)
	r.Select(10 /* ancestor */, 1, proto.EventMaskButtonPress)

	lookup := &fakeLookup{
		ancestors: map[uint32][]uint32{100: {10, 1}},
		dnp:       map[uint32]uint32{10: 0},
	}
	r.Dispatch(100, proto.EventMaskButtonPress, func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		var f [FrameSize]byte
		f[0] = proto.EventButtonPress
		return f
	}, lookup)

	if _, ok := q.Pop(context.Background()); !ok {
		t.Fatal("expected propagated delivery to the selecting ancestor")
	}
}

func TestDispatchBlockedByDoNotPropagate(t *testing.T) {
	info := &fakeInfo{
		orders: map[resource.ClientID]binary.ByteOrder{1: binary.LittleEndian},
		seqs:   map[resource.ClientID]uint16{1: 0},
	}
	r := NewRouter(info)
	q := NewQueue()
	r.RegisterClient(1, q)
	r.Select(10, 1, proto.EventMaskButtonPress)

	lookup := &fakeLookup{
		ancestors: map[uint32][]uint32{100: {10}},
		dnp:       map[uint32]uint32{10: proto.EventMaskButtonPress},
	}
	r.Dispatch(100, proto.EventMaskButtonPress, func(order binary.ByteOrder, seq uint16) [FrameSize]byte {
		var f [FrameSize]byte
		return f
	}, lookup)

	q.Close()
	if _, ok := q.Pop(context.Background()); ok {
		t.Fatal("expected no delivery once do-not-propagate-mask blocks the ancestor")
	}
}

func TestUnregisterClientDropsSelections(t *testing.T) {
	info := &fakeInfo{orders: map[resource.ClientID]binary.ByteOrder{}, seqs: map[resource.ClientID]uint16{}}
	r := NewRouter(info)
	q := NewQueue()
	r.RegisterClient(1, q)
	r.Select(100, 1, proto.EventMaskExposure)
	r.UnregisterClient(1)
	if len(r.matching(100, proto.EventMaskExposure)) != 0 {
		t.Fatal("expected no matches after UnregisterClient")
	}
}
