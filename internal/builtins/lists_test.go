package builtins

import (
	"testing"

	"avon/internal/value"
)

type stubCaller struct{}

func (stubCaller) Invoke(fnVal value.Value, args []value.Value) (value.Value, error) {
	if fnVal.Kind != value.KindBuiltin {
		return value.Value{}, value.TypeError("builtin", fnVal)
	}
	return fnVal.Builtin.Fn(stubCaller{}, args)
}

func (stubCaller) WorkDir() string { return "." }

func (stubCaller) Import(string) (value.Value, error) { return value.None, nil }

func (stubCaller) ImportGit(string, string, string) (value.Value, error) { return value.None, nil }

func double(_ value.Caller, args []value.Value) (value.Value, error) {
	return value.Int(args[0].Number.Int * 2), nil
}

func doubleFn() value.Value {
	return value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: "double", Arity: 1, Fn: double}}
}

func gt2(_ value.Caller, args []value.Value) (value.Value, error) {
	return value.Bool(args[0].Number.Int > 2), nil
}

func gt2Fn() value.Value {
	return value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: "gt2", Arity: 1, Fn: gt2}}
}

func ints(xs ...int64) value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.Int(x)
	}
	return value.List(out)
}

func intsOf(v value.Value) []int64 {
	out := make([]int64, len(v.List.Items))
	for i, it := range v.List.Items {
		out[i] = it.Number.Int
	}
	return out
}

func eqInts(t *testing.T, got value.Value, want ...int64) {
	t.Helper()
	g := intsOf(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestMapTakesFunctionFirstListLast(t *testing.T) {
	v, err := mapBuiltin(stubCaller{}, []value.Value{doubleFn(), ints(1, 2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 2, 4, 6)
}

func TestFilterTakesFunctionFirstListLast(t *testing.T) {
	v, err := filterBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3, 4, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 3, 4, 5)
}

func TestFoldTakesFnInitListInThatOrder(t *testing.T) {
	add := func(_ value.Caller, args []value.Value) (value.Value, error) {
		return value.Int(args[0].Number.Int + args[1].Number.Int), nil
	}
	addFn := value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: "add", Arity: 2, Fn: add}}
	v, err := foldBuiltin(stubCaller{}, []value.Value{addFn, value.Int(10), ints(1, 2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number.Int != 16 {
		t.Fatalf("got %v", value.Inspect(v))
	}
}

func TestTakeAndDropTakeCountFirstListLast(t *testing.T) {
	v, err := takeBuiltin(stubCaller{}, []value.Value{value.Int(2), ints(1, 2, 3, 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 1, 2)

	v, err = dropBuiltin(stubCaller{}, []value.Value{value.Int(2), ints(1, 2, 3, 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 3, 4)
}

func TestNthTakesIndexFirstListLast(t *testing.T) {
	v, err := nthBuiltin(stubCaller{}, []value.Value{value.Int(1), ints(10, 20, 30)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number.Int != 20 {
		t.Fatalf("got %v", value.Inspect(v))
	}
}

func TestNthNegativeIndexOutOfRangeIsError(t *testing.T) {
	if _, err := nthBuiltin(stubCaller{}, []value.Value{value.Int(-10), ints(1, 2)}); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestAppendAndPrependTakeItemFirstListLast(t *testing.T) {
	v, err := appendBuiltin(stubCaller{}, []value.Value{value.Int(9), ints(1, 2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 1, 2, 9)

	v, err = prependBuiltin(stubCaller{}, []value.Value{value.Int(9), ints(1, 2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 9, 1, 2)
}

func TestContainsItemAndIndexOf(t *testing.T) {
	v, err := containsItemBuiltin(stubCaller{}, []value.Value{value.Int(2), ints(1, 2, 3)})
	if err != nil || !v.Bool {
		t.Fatalf("expected contains_item to find 2, err=%v v=%v", err, v)
	}
	idx, err := indexOfBuiltin(stubCaller{}, []value.Value{value.Int(3), ints(1, 2, 3)})
	if err != nil || idx.Number.Int != 2 {
		t.Fatalf("expected index_of 3 to be 2, got %v err=%v", idx, err)
	}
	idx, err = indexOfBuiltin(stubCaller{}, []value.Value{value.Int(99), ints(1, 2, 3)})
	if err != nil || idx.Number.Int != -1 {
		t.Fatalf("expected index_of missing item to be -1, got %v err=%v", idx, err)
	}
}

func TestSumProductMinMax(t *testing.T) {
	if v, err := sumBuiltin(stubCaller{}, []value.Value{ints(1, 2, 3)}); err != nil || v.Number.Int != 6 {
		t.Fatalf("sum got %v err=%v", v, err)
	}
	if v, err := productBuiltin(stubCaller{}, []value.Value{ints(2, 3, 4)}); err != nil || v.Number.Int != 24 {
		t.Fatalf("product got %v err=%v", v, err)
	}
	if v, err := minBuiltin(stubCaller{}, []value.Value{ints(3, 1, 2)}); err != nil || v.Number.Int != 1 {
		t.Fatalf("min got %v err=%v", v, err)
	}
	if v, err := maxBuiltin(stubCaller{}, []value.Value{ints(3, 1, 2)}); err != nil || v.Number.Int != 3 {
		t.Fatalf("max got %v err=%v", v, err)
	}
}

func TestAllAnyCountTakeFunctionFirstListLast(t *testing.T) {
	if v, err := allBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(3, 4, 5)}); err != nil || !v.Bool {
		t.Fatalf("all got %v err=%v", v, err)
	}
	if v, err := anyBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3)}); err != nil || !v.Bool {
		t.Fatalf("any got %v err=%v", v, err)
	}
	if v, err := countBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3, 4, 5)}); err != nil || v.Number.Int != 3 {
		t.Fatalf("count got %v err=%v", v, err)
	}
}

func TestDefaultSubstitutesOnlyForNone(t *testing.T) {
	if v, err := defaultBuiltin(stubCaller{}, []value.Value{value.Int(7), value.None}); err != nil || v.Number.Int != 7 {
		t.Fatalf("got %v err=%v", v, err)
	}
	if v, err := defaultBuiltin(stubCaller{}, []value.Value{value.Int(7), value.Int(1)}); err != nil || v.Number.Int != 1 {
		t.Fatalf("got %v err=%v", v, err)
	}
}

func TestZipTakesOtherFirstListLast(t *testing.T) {
	v, err := zipBuiltin(stubCaller{}, []value.Value{ints(10, 20), ints(1, 2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.List.Items) != 2 {
		t.Fatalf("expected zip to truncate to shorter list, got %v", value.Inspect(v))
	}
	pair0 := v.List.Items[0].List.Items
	if pair0[0].Number.Int != 1 || pair0[1].Number.Int != 10 {
		t.Fatalf("got %v", value.Inspect(v))
	}
}

func TestSliceTakesStartEndListInThatOrder(t *testing.T) {
	v, err := sliceBuiltin(stubCaller{}, []value.Value{value.Int(1), value.Int(3), ints(1, 2, 3, 4, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 2, 3)
}

func TestChunksTakesSizeFirstListLast(t *testing.T) {
	v, err := chunksBuiltin(stubCaller{}, []value.Value{value.Int(2), ints(1, 2, 3, 4, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.List.Items) != 3 {
		t.Fatalf("expected 3 chunks, got %v", value.Inspect(v))
	}
	eqInts(t, v.List.Items[2], 5)
}

func TestFindAndFindIndexTakeFunctionFirstListLast(t *testing.T) {
	v, err := findBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3, 4)})
	if err != nil || v.Number.Int != 3 {
		t.Fatalf("find got %v err=%v", v, err)
	}
	idx, err := findIndexBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3, 4)})
	if err != nil || idx.Number.Int != 2 {
		t.Fatalf("find_index got %v err=%v", idx, err)
	}
}

func TestGroupByTakesKeyFnFirstListLast(t *testing.T) {
	parity := func(_ value.Caller, args []value.Value) (value.Value, error) {
		if args[0].Number.Int%2 == 0 {
			return value.Str("even"), nil
		}
		return value.Str("odd"), nil
	}
	parityFn := value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: "parity", Arity: 1, Fn: parity}}
	v, err := groupByBuiltin(stubCaller{}, []value.Value{parityFn, ints(1, 2, 3, 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := v.Dict
	evens, _ := d.Get("even")
	eqInts(t, evens, 2, 4)
	odds, _ := d.Get("odd")
	eqInts(t, odds, 1, 3)
}

func TestIntersperseTakesSepFirstListLast(t *testing.T) {
	v, err := intersperseBuiltin(stubCaller{}, []value.Value{value.Int(0), ints(1, 2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 1, 0, 2, 0, 3)
}

func TestRangeProducesHalfOpenAscendingList(t *testing.T) {
	v, err := rangeBuiltin(stubCaller{}, []value.Value{value.Int(2), value.Int(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 2, 3, 4)
}

func TestSortByTakesKeyFnFirstListLast(t *testing.T) {
	neg := func(_ value.Caller, args []value.Value) (value.Value, error) {
		return value.Int(-args[0].Number.Int), nil
	}
	negFn := value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: "neg", Arity: 1, Fn: neg}}
	v, err := sortByBuiltin(stubCaller{}, []value.Value{negFn, ints(1, 3, 2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v, 3, 2, 1)
}

func TestPartitionTakesFunctionFirstListLast(t *testing.T) {
	v, err := partitionBuiltin(stubCaller{}, []value.Value{gt2Fn(), ints(1, 2, 3, 4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, v.List.Items[0], 3, 4)
	eqInts(t, v.List.Items[1], 1, 2)
}

func TestFlattenAndUniqueAndReverse(t *testing.T) {
	nested := value.List([]value.Value{ints(1, 2), ints(3, 4)})
	flat, err := flattenBuiltin(stubCaller{}, []value.Value{nested})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, flat, 1, 2, 3, 4)

	uniq, err := uniqueBuiltin(stubCaller{}, []value.Value{ints(1, 1, 2, 2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, uniq, 1, 2, 3)

	rev, err := reverseBuiltin(stubCaller{}, []value.Value{ints(1, 2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eqInts(t, rev, 3, 2, 1)
}

func TestCombinationsTakesKFirstListLast(t *testing.T) {
	v, err := combinationsBuiltin(stubCaller{}, []value.Value{value.Int(2), ints(1, 2, 3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.List.Items) != 3 {
		t.Fatalf("expected C(3,2)=3 combinations, got %v", value.Inspect(v))
	}
}

func TestEmptyListErrorsOnFirstLastMinMax(t *testing.T) {
	if _, err := firstBuiltin(stubCaller{}, []value.Value{ints()}); err == nil {
		t.Fatal("expected error for first of empty list")
	}
	if _, err := lastBuiltin(stubCaller{}, []value.Value{ints()}); err == nil {
		t.Fatal("expected error for last of empty list")
	}
	if _, err := minBuiltin(stubCaller{}, []value.Value{ints()}); err == nil {
		t.Fatal("expected error for min of empty list")
	}
}
