package server

import (
	"encoding/binary"

	"github.com/x11anywhere/x11anywhere/internal/evqueue"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
)

// handleSetSelectionOwner implements spec.md §4.7 SetSelectionOwner: the
// previous owner, if any, receives SelectionClear.
func handleSetSelectionOwner(r *request) ([]byte, error) {
	owner := r.u32(0)
	selAtom := r.u32(4)
	t := r.u32(8)

	if owner != 0 && !r.srv.windows.Exists(owner) {
		return nil, r.windowErr(owner)
	}
	if t == 0 {
		t = r.srv.now()
	}
	prev := r.srv.sels.SetOwner(selAtom, owner, t)
	if prev.Owner != 0 && prev.Owner != owner {
		r.deliverToClient(ownerClientOf(r, prev.Owner), evqueue.SelectionClearBuilder(prev.Time, prev.Owner, selAtom))
	}
	return nil, nil
}

// handleGetSelectionOwner implements GetSelectionOwner.
func handleGetSelectionOwner(r *request) ([]byte, error) {
	selAtom := r.u32(0)
	entry := r.srv.sels.GetOwner(selAtom)
	buf := r.replyBuf(0, 0)
	r.order.PutUint32(buf[8:12], entry.Owner)
	return buf, nil
}

// handleConvertSelection implements ConvertSelection: forwards a
// SelectionRequest to the current owner, or synthesizes a None
// SelectionNotify straight back to the requestor if the selection is
// unowned (spec.md §4.7).
func handleConvertSelection(r *request) ([]byte, error) {
	requestor := r.u32(0)
	selAtom := r.u32(4)
	target := r.u32(8)
	property := r.u32(12)
	t := r.u32(16)
	if t == 0 {
		t = r.srv.now()
	}

	entry := r.srv.sels.GetOwner(selAtom)
	if entry.Owner == 0 {
		r.deliverToClient(ownerClientOf(r, requestor), evqueue.SelectionNotifyBuilder(t, requestor, selAtom, target, 0))
		return nil, nil
	}
	r.deliverToClient(ownerClientOf(r, entry.Owner), evqueue.SelectionRequestBuilder(t, entry.Owner, requestor, selAtom, target, property))
	return nil, nil
}

// handleSendEvent implements SendEvent: re-encodes the 32-byte event the
// client supplied, stamping the SendEvent bit, and delivers it either
// directly or propagating per the detail byte's propagate flag (spec.md
// §4.9).
func handleSendEvent(r *request) ([]byte, error) {
	propagate := r.detail != 0
	destination := r.u32(0)
	eventMask := r.u32(4)
	payload := r.bytesFrom(8, 32)

	if destination != 0 && !r.srv.windows.Exists(destination) {
		return nil, r.windowErr(destination)
	}

	var frame [32]byte
	copy(frame[:], payload)
	frame[0] |= sendEventBit

	if destination == 0 {
		return nil, r.err(protoerr.Value, destination)
	}
	if eventMask == 0 {
		r.deliverToClient(ownerClientOf(r, destination), rawFrameBuilder(frame))
		return nil, nil
	}
	if propagate {
		r.dispatchEvent(destination, eventMask, rawFrameBuilder(frame))
	} else {
		r.deliverDirect(destination, eventMask, rawFrameBuilder(frame))
	}
	return nil, nil
}

const sendEventBit = 0x80

// rawFrameBuilder re-stamps only the sequence number into an
// already-encoded 32-byte event, used by SendEvent which forwards a frame
// the client built itself rather than one of the synth.go constructors.
func rawFrameBuilder(frame [32]byte) evqueue.Builder {
	return func(order binary.ByteOrder, seq uint16) [32]byte {
		f := frame
		order.PutUint16(f[2:4], seq)
		return f
	}
}

// ownerClientOf resolves the client that created window, used to target a
// SendEvent with no event-category mask straight at its creator.
func ownerClientOf(r *request, window uint32) resource.ClientID {
	w, err := r.srv.windows.Snapshot(window)
	if err != nil {
		return resource.ServerClientID
	}
	return w.Creator
}
