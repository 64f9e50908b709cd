package server

import (
	"github.com/x11anywhere/x11anywhere/internal/extension"
)

// handleQueryExtension implements spec.md §4.8 QueryExtension.
func handleQueryExtension(r *request) ([]byte, error) {
	n := int(r.u16(0))
	name := string(r.bytesFrom(4, n))

	info, ok := extension.Query(name)
	present := uint8(0)
	if ok {
		present = 1
	}
	buf := r.replyBuf(present, 0)
	buf[8] = info.MajorOpcode
	buf[9] = info.FirstEvent
	buf[10] = info.FirstError
	return buf, nil
}

// handleListExtensions implements ListExtensions.
func handleListExtensions(r *request) ([]byte, error) {
	names := extension.List()
	var trailing []byte
	for _, n := range names {
		trailing = append(trailing, byte(len(n)))
		trailing = append(trailing, []byte(n)...)
	}
	pad := (4 - len(trailing)%4) % 4
	trailing = append(trailing, make([]byte, pad)...)

	buf := r.replyBuf(uint8(len(names)), len(trailing))
	copy(buf[32:], trailing)
	return buf, nil
}

// handleBigRequestsEnable implements the one request the BIG-REQUESTS
// extension contributes: turn on the extended-length request header for
// the rest of this session and report the new maximum request length
// (spec.md §4.8).
func handleBigRequestsEnable(r *request) ([]byte, error) {
	r.sess.EnableBigRequests()
	buf := r.replyBuf(0, 0)
	r.order.PutUint32(buf[8:12], extension.BigRequestsMaxLength)
	return buf, nil
}

// registerExtensionOpcodes wires requests contributed by extensions whose
// major opcode is assigned dynamically by internal/extension's registry
// rather than fixed in internal/proto. Only BIG-REQUESTS contributes an
// actual request; the rest (RENDER, XFIXES, DAMAGE, ...) are recognized by
// QueryExtension/ListExtensions but carry no request surface here.
func registerExtensionOpcodes() {
	major, ok := extension.MajorOpcode("BIG-REQUESTS")
	if !ok {
		return
	}
	dispatchTable[major] = handleBigRequestsEnable
}
