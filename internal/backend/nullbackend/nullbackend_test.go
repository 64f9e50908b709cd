package nullbackend

import (
	"testing"

	"github.com/x11anywhere/x11anywhere/internal/backend"
)

func TestCreateAndDestroyWindow(t *testing.T) {
	b := New()
	h, err := b.CreateWindow(backend.WindowParams{Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if err := b.MapWindow(h); err != nil {
		t.Fatalf("MapWindow: %v", err)
	}
	if err := b.DestroyWindow(h); err != nil {
		t.Fatalf("DestroyWindow: %v", err)
	}
	if err := b.MapWindow(h); err != ErrUnknownDrawable {
		t.Errorf("MapWindow after destroy = %v, want ErrUnknownDrawable", err)
	}
}

func TestFillRectangleRoundTripsThroughSnapshot(t *testing.T) {
	b := New()
	h, _ := b.CreateWindow(backend.WindowParams{Width: 20, Height: 20})
	d := backend.Drawable{Kind: backend.DrawableWindow, Handle: uint64(h)}
	gc := backend.GC{Foreground: 0xff0000}
	if err := b.DrawRectangles(d, gc, []backend.Rect{{X: 0, Y: 0, Width: 20, Height: 20}}, true); err != nil {
		t.Fatalf("DrawRectangles: %v", err)
	}
	img, ok := b.Snapshot(d)
	if !ok {
		t.Fatal("expected a snapshot for a live drawable")
	}
	r, g, bl, _ := img.At(5, 5).RGBA()
	if r>>8 != 0xff || g>>8 != 0 || bl>>8 != 0 {
		t.Errorf("pixel = (%d,%d,%d), want red", r>>8, g>>8, bl>>8)
	}
}

func TestCopyAreaCopiesPixels(t *testing.T) {
	b := New()
	h1, _ := b.CreateWindow(backend.WindowParams{Width: 10, Height: 10})
	h2, _ := b.CreateWindow(backend.WindowParams{Width: 10, Height: 10})
	src := backend.Drawable{Kind: backend.DrawableWindow, Handle: uint64(h1)}
	dst := backend.Drawable{Kind: backend.DrawableWindow, Handle: uint64(h2)}
	gc := backend.GC{Foreground: 0x00ff00}
	if err := b.DrawRectangles(src, gc, []backend.Rect{{X: 0, Y: 0, Width: 10, Height: 10}}, true); err != nil {
		t.Fatalf("DrawRectangles: %v", err)
	}
	if err := b.CopyArea(src, dst, gc, 0, 0, 10, 10, 0, 0); err != nil {
		t.Fatalf("CopyArea: %v", err)
	}
	img, _ := b.Snapshot(dst)
	_, g, _, _ := img.At(3, 3).RGBA()
	if g>>8 != 0xff {
		t.Errorf("copied pixel green = %d, want 0xff", g>>8)
	}
}

func TestPollEventsDrainsInjected(t *testing.T) {
	b := New()
	b.Inject(backend.Event{Kind: backend.EventExpose, Window: 1})
	evs, err := b.PollEvents()
	if err != nil {
		t.Fatalf("PollEvents: %v", err)
	}
	if len(evs) != 1 || evs[0].Kind != backend.EventExpose {
		t.Errorf("events = %+v, want one Expose", evs)
	}
	evs, _ = b.PollEvents()
	if len(evs) != 0 {
		t.Errorf("expected PollEvents to drain, got %+v", evs)
	}
}

func TestGetImageAfterPutImage(t *testing.T) {
	b := New()
	h, _ := b.CreateWindow(backend.WindowParams{Width: 4, Height: 4})
	d := backend.Drawable{Kind: backend.DrawableWindow, Handle: uint64(h)}
	data := make([]byte, 4*4*4)
	for i := range data {
		data[i] = 0x7f
	}
	if err := b.PutImage(d, backend.GC{}, 4, 4, 0, 0, 24, backend.ImageZPixmap, data); err != nil {
		t.Fatalf("PutImage: %v", err)
	}
	out, err := b.GetImage(d, 0, 0, 4, 4, backend.ImageZPixmap)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if len(out) != len(data) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(data))
	}
}
