package builtins

import (
	"testing"

	"avon/internal/value"
)

func TestPmapMatchesMapTakingFunctionFirstListLast(t *testing.T) {
	want, err := mapBuiltin(stubCaller{}, []value.Value{doubleFn(), ints(1, 2, 3, 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := pmapBuiltin(stubCaller{}, []value.Value{doubleFn(), ints(1, 2, 3, 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, got, intsOf(want)...)
}

func TestPfilterMatchesFilterTakingFunctionFirstListLast(t *testing.T) {
	want, err := filterBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3, 4, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := pfilterBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3, 4, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, got, intsOf(want)...)
}

func TestPfoldMatchesFoldForAssociativeCombiner(t *testing.T) {
	add := func(_ value.Caller, args []value.Value) (value.Value, error) {
		return value.Int(args[0].Number.Int + args[1].Number.Int), nil
	}
	addFn := value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: "add", Arity: 2, Fn: add}}

	want, err := foldBuiltin(stubCaller{}, []value.Value{addFn, value.Int(0), ints(1, 2, 3, 4, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := pfoldBuiltin(stubCaller{}, []value.Value{addFn, value.Int(0), ints(1, 2, 3, 4, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number.Int != want.Number.Int {
		t.Fatalf("got %v, want %v", value.Inspect(got), value.Inspect(want))
	}
}

func TestPfoldEmptyListReturnsIdentity(t *testing.T) {
	add := func(_ value.Caller, args []value.Value) (value.Value, error) {
		return value.Int(args[0].Number.Int + args[1].Number.Int), nil
	}
	addFn := value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: "add", Arity: 2, Fn: add}}
	got, err := pfoldBuiltin(stubCaller{}, []value.Value{addFn, value.Int(42), ints()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number.Int != 42 {
		t.Fatalf("got %v", value.Inspect(got))
	}
}
