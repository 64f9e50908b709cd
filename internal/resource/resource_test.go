package resource

import "testing"

func TestAllocRejectsOutOfRange(t *testing.T) {
	tbl := New()
	tbl.SetRange(1, Range{Base: 0x00200000, Mask: 0x001fffff})
	if err := tbl.Alloc(1, 0x00100001, KindWindow); err != ErrOutOfRange {
		t.Fatalf("Alloc out-of-range = %v, want ErrOutOfRange", err)
	}
}

func TestAllocRejectsDuplicate(t *testing.T) {
	tbl := New()
	tbl.SetRange(1, Range{Base: 0x00200000, Mask: 0x001fffff})
	if err := tbl.Alloc(1, 0x00200001, KindWindow); err != nil {
		t.Fatalf("first alloc failed: %v", err)
	}
	if err := tbl.Alloc(1, 0x00200001, KindWindow); err != ErrAlreadyLive {
		t.Fatalf("second alloc = %v, want ErrAlreadyLive", err)
	}
}

func TestLookupWrongKind(t *testing.T) {
	tbl := New()
	tbl.SetRange(1, Range{Base: 0x00200000, Mask: 0x001fffff})
	_ = tbl.Alloc(1, 0x00200001, KindWindow)
	if _, err := tbl.Lookup(0x00200001, KindPixmap); err != ErrWrongKind {
		t.Fatalf("Lookup wrong kind = %v, want ErrWrongKind", err)
	}
}

func TestServerOwnedBypassesRange(t *testing.T) {
	tbl := New()
	if err := tbl.Alloc(ServerClientID, 1, KindWindow); err != nil {
		t.Fatalf("server alloc failed: %v", err)
	}
}

func TestFreeAllByCreator(t *testing.T) {
	tbl := New()
	tbl.SetRange(1, Range{Base: 0x00200000, Mask: 0x001fffff})
	_ = tbl.Alloc(1, 0x00200001, KindWindow)
	_ = tbl.Alloc(1, 0x00200002, KindGC)
	freed := tbl.FreeAllByCreator(1)
	if len(freed) != 2 {
		t.Fatalf("freed %d entries, want 2", len(freed))
	}
	if _, err := tbl.LookupAny(0x00200001); err != ErrNotFound {
		t.Fatalf("expected window gone after cascade free")
	}
}
