package value

import "testing"

func TestScopeLookupMiss(t *testing.T) {
	root := Root()
	if _, ok := root.Lookup("x"); ok {
		t.Fatal("expected lookup on empty scope to miss")
	}
}

func TestScopeExtendAndLookup(t *testing.T) {
	s := Root().Extend("x", Int(1))
	v, ok := s.Lookup("x")
	if !ok || v.Number.Int != 1 {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestScopeInnermostBindingWins(t *testing.T) {
	s := Root().Extend("x", Int(1))
	s = &Scope{name: "x", value: Int(2), parent: s}
	v, ok := s.Lookup("x")
	if !ok || v.Number.Int != 2 {
		t.Fatalf("expected innermost binding 2, got %+v", v)
	}
}

func TestScopeExtendDoesNotMutateParent(t *testing.T) {
	parent := Root().Extend("x", Int(1))
	child := parent.Extend("y", Int(2))
	if _, ok := parent.Lookup("y"); ok {
		t.Fatal("extending a child scope must not leak into the parent")
	}
	if _, ok := child.Lookup("x"); !ok {
		t.Fatal("child scope should still see the parent's binding")
	}
}

func TestScopeMustExtendRejectsDuplicate(t *testing.T) {
	s := Root().Extend("x", Int(1))
	if _, err := s.MustExtend("x", Int(2)); err == nil {
		t.Fatal("expected a duplicate-binding error")
	}
}

func TestScopeMustExtendAllowsUnderscoreRepeatedly(t *testing.T) {
	s := Root().Extend("_", Int(1))
	if _, err := s.MustExtend("_", Int(2)); err != nil {
		t.Fatalf("expected '_' to be exempt from the no-shadowing rule, got %v", err)
	}
}

func TestScopeHas(t *testing.T) {
	s := Root().Extend("x", Int(1))
	if !s.Has("x") {
		t.Fatal("expected Has(x) to be true")
	}
	if s.Has("y") {
		t.Fatal("expected Has(y) to be false")
	}
}
