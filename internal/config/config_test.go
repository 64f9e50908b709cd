package config

import "testing"

func TestBuiltinsCoverTheThreeNamedBundles(t *testing.T) {
	b := Builtins()
	for _, name := range []string{"permissive", "default", "strict"} {
		if _, ok := b[name]; !ok {
			t.Errorf("missing builtin bundle %q", name)
		}
	}
}

func TestStrictIsTheMostRestrictive(t *testing.T) {
	s := Strict()
	if s.AllowTCP || s.HonorOverrideRedirect || s.AllowCrossClientAttrs {
		t.Errorf("strict bundle too permissive: %+v", s)
	}
}

func TestResolveUnknownNameFallsBackToPath(t *testing.T) {
	if _, err := Resolve("/nonexistent/path/to/policy.yaml"); err == nil {
		t.Fatal("expected an error resolving a nonexistent override path")
	}
}
