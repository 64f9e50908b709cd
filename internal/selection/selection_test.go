package selection

import "testing"

func TestSetOwnerTransfer(t *testing.T) {
	tbl := New()
	prev := tbl.SetOwner(1, 100, 10)
	if prev.Owner != 0 {
		t.Fatalf("prev owner = %d, want 0", prev.Owner)
	}
	prev = tbl.SetOwner(1, 200, 20)
	if prev.Owner != 100 || prev.Time != 10 {
		t.Fatalf("prev = %+v, want owner=100 time=10", prev)
	}
	cur := tbl.GetOwner(1)
	if cur.Owner != 200 {
		t.Fatalf("current owner = %d, want 200", cur.Owner)
	}
}

func TestClearWindow(t *testing.T) {
	tbl := New()
	tbl.SetOwner(1, 100, 10)
	tbl.SetOwner(2, 200, 10)
	cleared := tbl.ClearWindow(100)
	if len(cleared) != 1 || cleared[0] != 1 {
		t.Fatalf("cleared = %v, want [1]", cleared)
	}
	if tbl.GetOwner(1).Owner != 0 {
		t.Fatal("selection 1 still owned after ClearWindow")
	}
	if tbl.GetOwner(2).Owner != 200 {
		t.Fatal("selection 2 should be unaffected")
	}
}
