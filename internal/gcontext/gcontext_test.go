package gcontext

import "testing"

func TestApplySetsNamedFields(t *testing.T) {
	gc := Default(5)
	err := Apply(gc, Foreground|LineWidth, []uint32{0xff00ff, 3})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if gc.Foreground != 0xff00ff || gc.LineWidth != 3 {
		t.Fatalf("gc = %+v", gc)
	}
	// Unnamed fields keep their defaults.
	if gc.Function != 3 {
		t.Errorf("Function changed unexpectedly: %d", gc.Function)
	}
}

func TestApplyRejectsUnknownBits(t *testing.T) {
	gc := Default(5)
	if err := Apply(gc, 1<<30, []uint32{1}); err != ErrBadMask {
		t.Fatalf("Apply unknown bit = %v, want ErrBadMask", err)
	}
}

func TestCopySubset(t *testing.T) {
	src := Default(1)
	src.Foreground = 0x112233
	src.LineWidth = 7
	dst := Default(2)
	if err := Copy(dst, src, Foreground); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if dst.Foreground != 0x112233 {
		t.Errorf("Foreground not copied")
	}
	if dst.LineWidth == 7 {
		t.Errorf("LineWidth copied despite not being in the mask")
	}
}

func TestTableLifecycle(t *testing.T) {
	tbl := New()
	tbl.Create(10, Default(1))
	if _, ok := tbl.Get(10); !ok {
		t.Fatal("expected GC 10 to be live")
	}
	tbl.Free(10)
	if _, ok := tbl.Get(10); ok {
		t.Fatal("expected GC 10 to be gone after Free")
	}
}
