package propstore

import "testing"

func TestChangeReplaceThenGet(t *testing.T) {
	s := New()
	if err := s.Change(1, 100, 31 /* STRING */, 8, Replace, []byte("hello")); err != nil {
		t.Fatalf("Change: %v", err)
	}
	p, ok := s.Get(1, 100)
	if !ok || string(p.Data) != "hello" {
		t.Fatalf("Get = %+v, %v", p, ok)
	}
}

func TestChangeAppendAndPrepend(t *testing.T) {
	s := New()
	_ = s.Change(1, 100, 31, 8, Replace, []byte("b"))
	_ = s.Change(1, 100, 31, 8, Append, []byte("c"))
	_ = s.Change(1, 100, 31, 8, Prepend, []byte("a"))
	p, _ := s.Get(1, 100)
	if string(p.Data) != "abc" {
		t.Fatalf("Data = %q, want %q", p.Data, "abc")
	}
}

func TestDeleteIsNoOpWhenMissing(t *testing.T) {
	s := New()
	if s.Delete(1, 999) {
		t.Fatal("Delete of missing property reported existed=true")
	}
}

func TestDeleteOnReadWorkflow(t *testing.T) {
	s := New()
	_ = s.Change(1, 100, 31, 8, Replace, []byte("x"))
	_, ok := s.Get(1, 100)
	if !ok {
		t.Fatal("expected property before delete")
	}
	s.Delete(1, 100)
	if _, ok := s.Get(1, 100); ok {
		t.Fatal("expected property absent after delete")
	}
}

func TestBadFormatRejected(t *testing.T) {
	s := New()
	if err := s.Change(1, 100, 31, 12, Replace, nil); err != ErrBadFormat {
		t.Fatalf("Change with bad format = %v, want ErrBadFormat", err)
	}
}
