package atomtab

import "testing"

func TestPredefinedAtoms(t *testing.T) {
	tbl := New()
	name, ok := tbl.Name(Primary)
	if !ok || name != "PRIMARY" {
		t.Fatalf("Name(Primary) = %q, %v", name, ok)
	}
	id, ok := tbl.Intern("STRING", true)
	if !ok || id != String {
		t.Fatalf("Intern(STRING, true) = %d, %v, want %d, true", id, ok, String)
	}
}

func TestInternRoundTrip(t *testing.T) {
	tbl := New()
	id, ok := tbl.Intern("TEST", false)
	if !ok {
		t.Fatal("Intern returned not-ok for a fresh name")
	}
	if id <= lastPredefined {
		t.Fatalf("new atom id %d collides with predefined range", id)
	}
	name, ok := tbl.Name(id)
	if !ok || name != "TEST" {
		t.Fatalf("Name(%d) = %q, %v, want TEST, true", id, name, ok)
	}
	// Interning again must return the same id.
	id2, _ := tbl.Intern("TEST", false)
	if id2 != id {
		t.Errorf("second Intern returned %d, want %d", id2, id)
	}
}

func TestInternOnlyIfExists(t *testing.T) {
	tbl := New()
	_, ok := tbl.Intern("NOPE", true)
	if ok {
		t.Fatal("expected Intern(onlyIfExists=true) to fail for unknown name")
	}
}
