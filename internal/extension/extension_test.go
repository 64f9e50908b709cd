package extension

import "testing"

func TestQueryKnownExtension(t *testing.T) {
	info, ok := Query("BIG-REQUESTS")
	if !ok {
		t.Fatal("expected BIG-REQUESTS to be present")
	}
	if info.MajorOpcode < 128 {
		t.Errorf("major opcode = %d, want >= 128", info.MajorOpcode)
	}
}

func TestQueryUnknownExtension(t *testing.T) {
	if _, ok := Query("NOT-REAL"); ok {
		t.Fatal("expected unknown extension to be absent")
	}
}

func TestListExtensionsCoversRequiredSet(t *testing.T) {
	want := []string{"BIG-REQUESTS", "RENDER", "XFIXES", "DAMAGE", "COMPOSITE", "SHAPE", "SYNC", "RANDR", "MIT-SHM", "XKEYBOARD"}
	got := List()
	set := make(map[string]bool, len(got))
	for _, n := range got {
		set[n] = true
	}
	for _, w := range want {
		if !set[w] {
			t.Errorf("missing required extension %q", w)
		}
	}
}

func TestByOpcodeRoundTrips(t *testing.T) {
	info, ok := Query("RENDER")
	if !ok {
		t.Fatal("expected RENDER to be present")
	}
	name, got, ok := ByOpcode(info.MajorOpcode)
	if !ok || name != "RENDER" {
		t.Fatalf("ByOpcode(%d) = %q, %v; want RENDER, true", info.MajorOpcode, name, ok)
	}
	if got != info {
		t.Errorf("ByOpcode returned %+v, want %+v", got, info)
	}
}

func TestExtensionsHaveDistinctOpcodes(t *testing.T) {
	seen := make(map[uint8]string)
	for _, name := range List() {
		info, _ := Query(name)
		if other, dup := seen[info.MajorOpcode]; dup {
			t.Fatalf("opcode %d shared by %q and %q", info.MajorOpcode, other, name)
		}
		seen[info.MajorOpcode] = name
	}
}
