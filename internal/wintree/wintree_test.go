package wintree

import "testing"

func TestCreateAndDestroyCascade(t *testing.T) {
	tr := New(1, 1024, 768, 24, 0x21)
	if err := tr.Create(2, 1, 0, 0, 100, 100, 0, ClassInputOutput, 24, 0x21, 10, Attrs{}); err != nil {
		t.Fatalf("Create child: %v", err)
	}
	if err := tr.Create(3, 2, 0, 0, 50, 50, 0, ClassInputOutput, 24, 0x21, 10, Attrs{}); err != nil {
		t.Fatalf("Create grandchild: %v", err)
	}

	order, err := tr.Destroy(2)
	if err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if len(order) != 2 || order[0] != 3 || order[1] != 2 {
		t.Fatalf("post-order = %v, want [3 2]", order)
	}
	if tr.Exists(2) || tr.Exists(3) {
		t.Fatal("destroyed windows still exist")
	}
	kids, err := tr.Children(1)
	if err != nil || len(kids) != 0 {
		t.Fatalf("root children = %v, err %v, want empty", kids, err)
	}
}

func TestDestroyRootRejected(t *testing.T) {
	tr := New(1, 100, 100, 24, 0x21)
	if _, err := tr.Destroy(1); err != ErrRootWindow {
		t.Fatalf("Destroy(root) = %v, want ErrRootWindow", err)
	}
}

func TestNewWindowStacksOnTop(t *testing.T) {
	tr := New(1, 100, 100, 24, 0x21)
	_ = tr.Create(2, 1, 0, 0, 10, 10, 0, ClassInputOutput, 24, 0x21, 1, Attrs{})
	_ = tr.Create(3, 1, 0, 0, 10, 10, 0, ClassInputOutput, 24, 0x21, 1, Attrs{})
	kids, _ := tr.Children(1)
	if len(kids) != 2 || kids[0] != 3 || kids[1] != 2 {
		t.Fatalf("stacking order = %v, want [3 2]", kids)
	}
}

func TestConfigureGeometryChange(t *testing.T) {
	tr := New(1, 100, 100, 24, 0x21)
	_ = tr.Create(2, 1, 0, 0, 10, 10, 0, ClassInputOutput, 24, 0x21, 1, Attrs{})
	w, h := uint16(50), uint16(60)
	before, after, changed, err := tr.Configure(2, nil, nil, &w, &h, nil, nil, nil)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true")
	}
	if before.Width != 10 || after.Width != 50 || after.Height != 60 {
		t.Fatalf("before=%+v after=%+v", before, after)
	}
}

func TestReparentPreservesMappedState(t *testing.T) {
	tr := New(1, 100, 100, 24, 0x21)
	_ = tr.Create(2, 1, 0, 0, 10, 10, 0, ClassInputOutput, 24, 0x21, 1, Attrs{})
	_ = tr.Create(3, 1, 0, 0, 10, 10, 0, ClassInputOutput, 24, 0x21, 1, Attrs{})
	_, _ = tr.SetMapped(2, true)

	wasMapped, err := tr.Reparent(2, 3, 5, 5)
	if err != nil {
		t.Fatalf("Reparent: %v", err)
	}
	if !wasMapped {
		t.Fatal("expected wasMapped=true")
	}
	snap, err := tr.Snapshot(2)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Parent != 3 || snap.X != 5 || snap.Y != 5 {
		t.Fatalf("snapshot after reparent = %+v", snap)
	}
}

func TestAncestors(t *testing.T) {
	tr := New(1, 100, 100, 24, 0x21)
	_ = tr.Create(2, 1, 0, 0, 10, 10, 0, ClassInputOutput, 24, 0x21, 1, Attrs{})
	_ = tr.Create(3, 2, 0, 0, 10, 10, 0, ClassInputOutput, 24, 0x21, 1, Attrs{})
	anc, err := tr.Ancestors(3)
	if err != nil {
		t.Fatalf("Ancestors: %v", err)
	}
	if len(anc) != 2 || anc[0] != 2 || anc[1] != 1 {
		t.Fatalf("ancestors = %v, want [2 1]", anc)
	}
}
