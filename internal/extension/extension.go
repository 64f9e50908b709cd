// Package extension implements the small extension registry spec.md §4.8
// requires: a fixed table of {major_opcode, first_event, first_error}
// triples assembled once at startup, queried by QueryExtension and
// ListExtensions, plus the one request BIG-REQUESTS itself contributes
// once a client enables it.
package extension

// Info is the triple QueryExtension reports for one named extension.
type Info struct {
	MajorOpcode uint8
	FirstEvent  uint8
	FirstError  uint8
	// VersionMajor/VersionMinor record the version listed for the
	// extension. No request handler reads them: only BIG-REQUESTS has a
	// request wired into the dispatcher, so any request under another
	// extension's major opcode, QueryVersion included, gets a Request error.
	VersionMajor uint16
	VersionMinor uint16
}

// firstExtensionOpcode is the first major opcode available to
// extensions; opcodes 1..127 belong to the core protocol (spec.md §6).
const firstExtensionOpcode = 128

// registry holds the fixed set of extensions this server recognizes,
// assembled once below the same way internal/config/builtin.go keeps its
// built-in layouts in a package-level var.
var registry map[string]Info

func init() {
	names := []struct {
		name  string
		major uint16
		minor uint16
	}{
		{"BIG-REQUESTS", 0, 0},
		{"RENDER", 0, 11},
		{"XFIXES", 6, 0},
		{"DAMAGE", 1, 1},
		{"COMPOSITE", 0, 4},
		{"SHAPE", 1, 1},
		{"SYNC", 3, 1},
		{"RANDR", 1, 6},
		{"MIT-SHM", 1, 2},
		{"XKEYBOARD", 1, 0},
	}
	registry = make(map[string]Info, len(names))
	opcode := uint8(firstExtensionOpcode)
	event := uint8(64)
	errCode := uint8(128)
	for _, n := range names {
		registry[n.name] = Info{
			MajorOpcode:  opcode,
			FirstEvent:   event,
			FirstError:   errCode,
			VersionMajor: n.major,
			VersionMinor: n.minor,
		}
		opcode++
		event += 2
		errCode += 2
	}
}

// Query looks up name, returning present=false if this server does not
// implement it (QueryExtension's present=0 case).
func Query(name string) (Info, bool) {
	info, ok := registry[name]
	return info, ok
}

// List returns every extension name this server recognizes, the
// ListExtensions reply body.
func List() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// MajorOpcode reports the major opcode assigned to name, used by the
// dispatcher to route an extension's own requests (e.g. BIG-REQUESTS's
// Enable) once a client has queried it.
func MajorOpcode(name string) (uint8, bool) {
	info, ok := registry[name]
	return info.MajorOpcode, ok
}

// ByOpcode reverse-looks-up the extension owning major, used by the
// dispatcher when it sees an opcode at or above firstExtensionOpcode.
func ByOpcode(major uint8) (name string, info Info, ok bool) {
	for n, i := range registry {
		if i.MajorOpcode == major {
			return n, i, true
		}
	}
	return "", Info{}, false
}

// BigRequestsMaxLength is the maximum request length, in 4-byte units,
// BIG-REQUESTS's Enable reply advertises once a client turns the
// extension on. spec.md §4.8 requires at least 4 MiB; this server
// advertises exactly that floor.
const BigRequestsMaxLength = (4 * 1024 * 1024) / 4
