package server

import (
	"github.com/x11anywhere/x11anywhere/internal/evqueue"
	"github.com/x11anywhere/x11anywhere/internal/proto"
	"github.com/x11anywhere/x11anywhere/internal/propstore"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
)

// handleInternAtom implements spec.md §4.7 InternAtom.
func handleInternAtom(r *request) ([]byte, error) {
	n := int(r.u16(0))
	name := string(r.bytesFrom(4, n))
	onlyIfExists := r.detail != 0

	atom, ok := r.srv.atoms.Intern(name, onlyIfExists)
	if !ok {
		buf := r.replyBuf(0, 0)
		return buf, nil
	}
	buf := r.replyBuf(0, 0)
	r.order.PutUint32(buf[8:12], atom)
	return buf, nil
}

// handleGetAtomName implements GetAtomName.
func handleGetAtomName(r *request) ([]byte, error) {
	atom := r.u32(0)
	name, ok := r.srv.atoms.Name(atom)
	if !ok {
		return nil, r.err(protoerr.Atom, atom)
	}
	pad := (4 - len(name)%4) % 4
	trailing := make([]byte, len(name)+pad)
	copy(trailing, name)
	buf := r.replyBuf(0, len(trailing))
	r.order.PutUint16(buf[8:10], uint16(len(name)))
	copy(buf[32:], trailing)
	return buf, nil
}

// handleChangeProperty implements spec.md §4.7 ChangeProperty.
func handleChangeProperty(r *request) ([]byte, error) {
	window := r.u32(0)
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	propAtom := r.u32(4)
	typ := r.u32(8)
	format := r.u8(12)
	length := r.u32(16)

	var byteLen int
	switch format {
	case 8:
		byteLen = int(length)
	case 16:
		byteLen = int(length) * 2
	case 32:
		byteLen = int(length) * 4
	default:
		return nil, r.err(protoerr.Value, uint32(format))
	}
	data := r.bytesFrom(20, byteLen)

	mode := propstore.Mode(r.detail)
	if existing, has := r.srv.props.Get(window, propAtom); has && mode != propstore.Replace {
		if existing.Type != typ || existing.Format != format {
			return nil, r.err(protoerr.Match, propAtom)
		}
	}
	if err := r.srv.props.Change(window, propAtom, typ, format, mode, data); err != nil {
		return nil, r.err(protoerr.Value, uint32(format))
	}
	r.deliverDirect(window, proto.EventMaskPropertyChange, evqueue.PropertyNotifyBuilder(window, propAtom, r.srv.now(), 0))
	return nil, nil
}

// handleDeleteProperty implements DeleteProperty.
func handleDeleteProperty(r *request) ([]byte, error) {
	window := r.u32(0)
	atom := r.u32(4)
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	if r.srv.props.Delete(window, atom) {
		r.deliverDirect(window, proto.EventMaskPropertyChange, evqueue.PropertyNotifyBuilder(window, atom, r.srv.now(), 1))
	}
	return nil, nil
}

// handleGetProperty implements GetProperty; the delete flag (the header's
// detail byte) deletes the property after reading it back.
func handleGetProperty(r *request) ([]byte, error) {
	window := r.u32(0)
	atom := r.u32(4)
	reqType := r.u32(8)
	longOffset := r.u32(12)
	longLength := r.u32(16)
	deleteAfter := r.detail != 0

	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	prop, ok := r.srv.props.Get(window, atom)
	if !ok {
		buf := r.replyBuf(0, 0)
		r.order.PutUint32(buf[8:12], 0) // type None
		return buf, nil
	}
	if reqType != 0 && reqType != prop.Type {
		buf := r.replyBuf(uint8(prop.Format), 0)
		r.order.PutUint32(buf[8:12], prop.Type)
		r.order.PutUint32(buf[12:16], uint32(len(prop.Data)))
		return buf, nil
	}

	unit := 1
	switch prop.Format {
	case 16:
		unit = 2
	case 32:
		unit = 4
	}
	offset := int(longOffset) * 4
	if offset > len(prop.Data) {
		offset = len(prop.Data)
	}
	want := int(longLength) * 4 // long-length is in 32-bit units, not format units
	end := offset + want
	if end > len(prop.Data) {
		end = len(prop.Data)
	}
	slice := prop.Data[offset:end]
	bytesAfter := len(prop.Data) - end

	pad := (4 - len(slice)%4) % 4
	trailing := make([]byte, len(slice)+pad)
	copy(trailing, slice)

	buf := r.replyBuf(uint8(prop.Format), len(trailing))
	r.order.PutUint32(buf[8:12], prop.Type)
	r.order.PutUint32(buf[12:16], uint32(bytesAfter))
	r.order.PutUint32(buf[16:20], uint32(len(slice)/max(unit, 1)))
	copy(buf[32:], trailing)

	if deleteAfter && bytesAfter == 0 {
		r.srv.props.Delete(window, atom)
		r.deliverDirect(window, proto.EventMaskPropertyChange, evqueue.PropertyNotifyBuilder(window, atom, r.srv.now(), 1))
	}
	return buf, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// handleListProperties implements ListProperties.
func handleListProperties(r *request) ([]byte, error) {
	window := r.u32(0)
	if !r.srv.windows.Exists(window) {
		return nil, r.windowErr(window)
	}
	atoms := r.srv.props.List(window)
	trailing := make([]byte, 4*len(atoms))
	for i, a := range atoms {
		r.order.PutUint32(trailing[i*4:i*4+4], a)
	}
	buf := r.replyBuf(0, len(trailing))
	r.order.PutUint16(buf[8:10], uint16(len(atoms)))
	copy(buf[32:], trailing)
	return buf, nil
}
