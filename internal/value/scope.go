package value

import "avon/internal/errs"

// Scope is a single, flat binding table realizing Avon's no-shadowing rule:
// a name is added exactly once per lexical region and never reassigned
// within it. `let` and lambda application both extend a parent Scope rather
// than mutate it, giving the "minimal capture" property: a closure's Scope
// chain only ever grows by the names actually introduced between the
// closure's definition site and its point of use, never by sibling bindings
// that happen to share a parent.
//
// Extend never mutates the receiver, so a *Scope already captured by a
// Function remains valid and unaffected by bindings introduced later in a
// sibling branch — the same "one table, add/remove, never clone wholesale"
// discipline as the teacher's dsl.Registry, adapted from a name registry to
// a nested lexical environment.
type Scope struct {
	name   string
	value  Value
	parent *Scope
}

// Root returns the empty scope new top-level evaluations start from.
func Root() *Scope { return nil }

// Extend returns a new Scope with name bound to v, with s as parent. It does
// not check for shadowing; callers that must enforce no-shadowing (Let,
// lambda application) use MustExtend instead, which rejects a name already
// bound anywhere in the chain.
func (s *Scope) Extend(name string, v Value) *Scope {
	return &Scope{name: name, value: v, parent: s}
}

// Lookup walks the chain from the innermost binding outward.
func (s *Scope) Lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.value, true
		}
	}
	return Value{}, false
}

// Has reports whether name is already bound anywhere in the chain, used to
// enforce the no-shadowing rule when introducing a new binding.
func (s *Scope) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// MustExtend binds name to v after checking it is not already bound,
// returning errs.ErrDuplicateBinding if it is.
func (s *Scope) MustExtend(name string, v Value) (*Scope, error) {
	if name != "_" && s.Has(name) {
		return nil, errs.New(errs.KindName, errs.Span{}, errs.ErrDuplicateBinding, "%q is already bound in this scope", name)
	}
	return s.Extend(name, v), nil
}
