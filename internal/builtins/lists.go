package builtins

import (
	"math/rand"
	"sort"

	"avon/internal/errs"
	"avon/internal/value"
)

// listBuiltins covers the sequential-collection family: higher-order
// functions (map/filter/fold) call back into Avon functions through the
// Caller interface exactly the way the teacher's Engine hands expansion
// control to a substitution callback rather than inlining string logic
// into the walker.
//
// Every builtin here takes its list as the FINAL argument (fold/pfold take
// fn, accumulator, list, so the accumulator sits just before it). This is not an arbitrary style choice: the
// pipe-equivalence rule says `x -> f a...` must equal `f a... x`, and the
// concrete scenarios spell out the resulting call shape directly —
// `filter (\x x > 2)` piped against a list, and `map (\e ...) envs` called
// directly — both put the list last. Keeping every list builtin data-last
// is what lets any of them sit naturally at the end of a pipe chain.
func listBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"map":     fn("map", 2, mapBuiltin),
		"filter":  fn("filter", 2, filterBuiltin),
		"fold":    fn("fold", 3, foldBuiltin),
		"flatmap": fn("flatmap", 2, flatmapBuiltin),

		"sort":      fn("sort", 1, sortBuiltin),
		"sort_by":   fn("sort_by", 2, sortByBuiltin),
		"reverse":   fn("reverse", 1, reverseBuiltin),
		"unique":    fn("unique", 1, uniqueBuiltin),
		"flatten":   fn("flatten", 1, flattenBuiltin),
		"zip":       fn("zip", 2, zipBuiltin),
		"unzip":     fn("unzip", 1, unzipBuiltin),
		"zip_with":  fn("zip_with", 3, zipWithBuiltin),
		"transpose": fn("transpose", 1, transposeBuiltin),

		"take":      fn("take", 2, takeBuiltin),
		"drop":      fn("drop", 2, dropBuiltin),
		"first":     fn("first", 1, firstBuiltin),
		"head":      fn("head", 1, firstBuiltin),
		"tail":      fn("tail", 1, tailBuiltin),
		"last":      fn("last", 1, lastBuiltin),
		"nth":       fn("nth", 2, nthBuiltin),
		"slice":     fn("slice", 3, sliceBuiltin),
		"split_at":  fn("split_at", 2, splitAtBuiltin),
		"chunks":    fn("chunks", 2, chunksBuiltin),
		"windows":   fn("windows", 2, windowsBuiltin),
		"partition": fn("partition", 2, partitionBuiltin),

		"find":        fn("find", 2, findBuiltin),
		"find_index":  fn("find_index", 2, findIndexBuiltin),
		"enumerate":   fn("enumerate", 1, enumerateBuiltin),
		"group_by":    fn("group_by", 2, groupByBuiltin),
		"intersperse": fn("intersperse", 2, intersperseBuiltin),

		"range": fn("range", 2, rangeBuiltin),

		"append":        fn("append", 2, appendBuiltin),
		"prepend":       fn("prepend", 2, prependBuiltin),
		"contains_item": fn("contains_item", 2, containsItemBuiltin),
		"index_of":      fn("index_of", 2, indexOfBuiltin),

		"sum":     fn("sum", 1, sumBuiltin),
		"product": fn("product", 1, productBuiltin),
		"min":     fn("min", 1, minBuiltin),
		"max":     fn("max", 1, maxBuiltin),
		"all":     fn("all", 2, allBuiltin),
		"any":     fn("any", 2, anyBuiltin),
		"count":   fn("count", 2, countBuiltin),
		"default": fn("default", 2, defaultBuiltin),

		"sample":       fn("sample", 1, sampleBuiltin),
		"shuffle":      fn("shuffle", 1, shuffleBuiltin),
		"choice":       fn("choice", 1, sampleBuiltin),
		"combinations": fn("combinations", 2, combinationsBuiltin),
		"permutations": fn("permutations", 1, permutationsBuiltin),
	}
}

func asList(v value.Value) (*value.ListVal, error) {
	if v.Kind != value.KindList {
		return nil, value.TypeError("list", v)
	}
	return v.List, nil
}

// mapBuiltin is map(fn, list).
func mapBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(list.Items))
	for i, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		out[i] = v
	}
	return value.List(out), nil
}

// filterBuiltin is filter(fn, list).
func filterBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for _, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			out = append(out, it)
		}
	}
	return value.List(out), nil
}

// foldBuiltin is fold(fn, init, list), matching the testable property
// `pfold g init xs == fold g init xs`.
func foldBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	acc := args[1]
	list, err := asList(args[2])
	if err != nil {
		return value.Value{}, err
	}
	for _, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{acc, it})
		if err != nil {
			return value.Value{}, err
		}
		acc = v
	}
	return acc, nil
}

func sortBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out := append([]value.Value{}, list.Items...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		less, err := lessValue(out[i], out[j])
		if err != nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return value.Value{}, sortErr
	}
	return value.List(out), nil
}

func lessValue(a, b value.Value) (bool, error) {
	if a.Kind != b.Kind {
		return false, errs.New(errs.KindType, errs.Span{}, errs.ErrNotComparable, "cannot sort mixed types %s and %s", a.Kind, b.Kind)
	}
	switch a.Kind {
	case value.KindNumber:
		return a.Number.AsFloat() < b.Number.AsFloat(), nil
	case value.KindString:
		return a.Str < b.Str, nil
	default:
		return false, errs.New(errs.KindType, errs.Span{}, errs.ErrNotComparable, "%s is not orderable", a.Kind)
	}
}

// sortByBuiltin is sort_by(keyFn, list).
func sortByBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	keyFn := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	keys := make([]value.Value, len(list.Items))
	for i, it := range list.Items {
		k, err := c.Invoke(keyFn, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		keys[i] = k
	}
	idx := make([]int, len(list.Items))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(i, j int) bool {
		less, err := lessValue(keys[idx[i]], keys[idx[j]])
		if err != nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return value.Value{}, sortErr
	}
	out := make([]value.Value, len(list.Items))
	for i, id := range idx {
		out[i] = list.Items[id]
	}
	return value.List(out), nil
}

func reverseBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(list.Items))
	for i, it := range list.Items {
		out[len(list.Items)-1-i] = it
	}
	return value.List(out), nil
}

func uniqueBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for _, it := range list.Items {
		dup := false
		for _, seen := range out {
			if value.Equal(it, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return value.List(out), nil
}

func flattenBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for _, it := range list.Items {
		if it.Kind == value.KindList {
			out = append(out, it.List.Items...)
		} else {
			out = append(out, it)
		}
	}
	return value.List(out), nil
}

// zipBuiltin is zip(other, list): pairs list[i] with other[i], so
// `list -> zip(other)` reads as "zip list together with other".
func zipBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	other, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	n := len(list.Items)
	if len(other.Items) < n {
		n = len(other.Items)
	}
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		out[i] = value.List([]value.Value{list.Items[i], other.Items[i]})
	}
	return value.List(out), nil
}

// takeBuiltin is take(n, list).
func takeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	n := clampIndex(args[0].Number.Int, len(list.Items))
	return value.List(append([]value.Value{}, list.Items[:n]...)), nil
}

// dropBuiltin is drop(n, list).
func dropBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	n := clampIndex(args[0].Number.Int, len(list.Items))
	return value.List(append([]value.Value{}, list.Items[n:]...)), nil
}

func clampIndex(n int64, length int) int {
	if n < 0 {
		return 0
	}
	if n > int64(length) {
		return length
	}
	return int(n)
}

func firstBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if len(list.Items) == 0 {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrEmptySample, "first: empty list")
	}
	return list.Items[0], nil
}

func lastBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if len(list.Items) == 0 {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrEmptySample, "last: empty list")
	}
	return list.Items[len(list.Items)-1], nil
}

// nthBuiltin is nth(i, list).
func nthBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindNumber || args[0].Number.IsFloat {
		return value.Value{}, value.TypeError("integer", args[0])
	}
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	i := args[0].Number.Int
	if i < 0 {
		i += int64(len(list.Items))
	}
	if i < 0 || i >= int64(len(list.Items)) {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrMissingKey, "nth: index %d out of range", args[0].Number.Int)
	}
	return list.Items[i], nil
}

// appendBuiltin is append(item, list): adds item to the end of list.
func appendBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	out := append(append([]value.Value{}, list.Items...), args[0])
	return value.List(out), nil
}

// prependBuiltin is prepend(item, list): adds item to the front of list.
func prependBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	out := append([]value.Value{args[0]}, list.Items...)
	return value.List(out), nil
}

// containsItemBuiltin is contains_item(item, list).
func containsItemBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	for _, it := range list.Items {
		if value.Equal(it, args[0]) {
			return value.True, nil
		}
	}
	return value.False, nil
}

// indexOfBuiltin is index_of(item, list).
func indexOfBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	for i, it := range list.Items {
		if value.Equal(it, args[0]) {
			return value.Int(int64(i)), nil
		}
	}
	return value.Int(-1), nil
}

func sumBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	var isum int64
	var fsum float64
	floaty := false
	for _, it := range list.Items {
		if it.Kind != value.KindNumber {
			return value.Value{}, value.TypeError("number", it)
		}
		if it.Number.IsFloat {
			floaty = true
		}
		fsum += it.Number.AsFloat()
		isum += it.Number.Int
	}
	if floaty {
		return value.Float(fsum), nil
	}
	return value.Int(isum), nil
}

func minBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	return extremum(args[0], func(a, b float64) bool { return a < b })
}

func maxBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	return extremum(args[0], func(a, b float64) bool { return a > b })
}

func extremum(v value.Value, better func(a, b float64) bool) (value.Value, error) {
	list, err := asList(v)
	if err != nil {
		return value.Value{}, err
	}
	if len(list.Items) == 0 {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrEmptySample, "empty list")
	}
	best := list.Items[0]
	for _, it := range list.Items[1:] {
		if it.Kind != value.KindNumber || best.Kind != value.KindNumber {
			return value.Value{}, value.TypeError("number", it)
		}
		if better(it.Number.AsFloat(), best.Number.AsFloat()) {
			best = it
		}
	}
	return best, nil
}

func sampleBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if len(list.Items) == 0 {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrEmptySample, "sample: empty list")
	}
	return list.Items[rand.Intn(len(list.Items))], nil
}

func flatmapBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	mapped, err := mapBuiltin(c, args)
	if err != nil {
		return value.Value{}, err
	}
	return flattenBuiltin(c, []value.Value{mapped})
}

func unzipBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	firsts := make([]value.Value, len(list.Items))
	seconds := make([]value.Value, len(list.Items))
	for i, it := range list.Items {
		pair, err := asList(it)
		if err != nil {
			return value.Value{}, err
		}
		if len(pair.Items) != 2 {
			return value.Value{}, errs.New(errs.KindType, errs.Span{}, errs.ErrTypeMismatch, "unzip: element %d is not a pair", i)
		}
		firsts[i] = pair.Items[0]
		seconds[i] = pair.Items[1]
	}
	return value.List([]value.Value{value.List(firsts), value.List(seconds)}), nil
}

// zipWithBuiltin is zip_with(fn, other, list): combines list[i] and
// other[i] via fn, so `list -> zip_with(fn, other)` reads naturally.
func zipWithBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	other, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	list, err := asList(args[2])
	if err != nil {
		return value.Value{}, err
	}
	n := len(list.Items)
	if len(other.Items) < n {
		n = len(other.Items)
	}
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		v, err := c.Invoke(fnVal, []value.Value{list.Items[i], other.Items[i]})
		if err != nil {
			return value.Value{}, err
		}
		out[i] = v
	}
	return value.List(out), nil
}

// transposeBuiltin swaps rows and columns of a list of lists, truncating to
// the shortest row the same way zip truncates to the shorter of two lists.
func transposeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	rows, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if len(rows.Items) == 0 {
		return value.List(nil), nil
	}
	cols := -1
	rowLists := make([]*value.ListVal, len(rows.Items))
	for i, r := range rows.Items {
		rl, err := asList(r)
		if err != nil {
			return value.Value{}, err
		}
		rowLists[i] = rl
		if cols == -1 || len(rl.Items) < cols {
			cols = len(rl.Items)
		}
	}
	out := make([]value.Value, cols)
	for j := 0; j < cols; j++ {
		col := make([]value.Value, len(rowLists))
		for i, rl := range rowLists {
			col[i] = rl.Items[j]
		}
		out[j] = value.List(col)
	}
	return value.List(out), nil
}

func tailBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if len(list.Items) == 0 {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrEmptySample, "tail: empty list")
	}
	return value.List(append([]value.Value{}, list.Items[1:]...)), nil
}

// sliceBuiltin is slice(start, end, list).
func sliceBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindNumber || args[1].Kind != value.KindNumber {
		return value.Value{}, value.TypeError("integer, integer", args[0])
	}
	list, err := asList(args[2])
	if err != nil {
		return value.Value{}, err
	}
	start := clampIndex(args[0].Number.Int, len(list.Items))
	end := clampIndex(args[1].Number.Int, len(list.Items))
	if end < start {
		end = start
	}
	return value.List(append([]value.Value{}, list.Items[start:end]...)), nil
}

// splitAtBuiltin is split_at(n, list).
func splitAtBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	n := clampIndex(args[0].Number.Int, len(list.Items))
	left := value.List(append([]value.Value{}, list.Items[:n]...))
	right := value.List(append([]value.Value{}, list.Items[n:]...))
	return value.List([]value.Value{left, right}), nil
}

// chunksBuiltin is chunks(size, list).
func chunksBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindNumber || args[0].Number.Int <= 0 {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "chunks: size must be a positive integer")
	}
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	size := int(args[0].Number.Int)
	var out []value.Value
	for i := 0; i < len(list.Items); i += size {
		end := i + size
		if end > len(list.Items) {
			end = len(list.Items)
		}
		out = append(out, value.List(append([]value.Value{}, list.Items[i:end]...)))
	}
	return value.List(out), nil
}

// windowsBuiltin is windows(size, list).
func windowsBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindNumber || args[0].Number.Int <= 0 {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "windows: size must be a positive integer")
	}
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	size := int(args[0].Number.Int)
	var out []value.Value
	for i := 0; i+size <= len(list.Items); i++ {
		out = append(out, value.List(append([]value.Value{}, list.Items[i:i+size]...)))
	}
	return value.List(out), nil
}

// partitionBuiltin is partition(fn, list).
func partitionBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	var yes, no []value.Value
	for _, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			yes = append(yes, it)
		} else {
			no = append(no, it)
		}
	}
	return value.List([]value.Value{value.List(yes), value.List(no)}), nil
}

// findBuiltin is find(fn, list).
func findBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	for _, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			return it, nil
		}
	}
	return value.None, nil
}

// findIndexBuiltin is find_index(fn, list).
func findIndexBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	for i, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			return value.Int(int64(i)), nil
		}
	}
	return value.Int(-1), nil
}

func enumerateBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(list.Items))
	for i, it := range list.Items {
		out[i] = value.List([]value.Value{value.Int(int64(i)), it})
	}
	return value.List(out), nil
}

// groupByBuiltin is group_by(keyFn, list); it buckets items by a string
// key, since Dict keys are always strings, so keyFn must return a String.
func groupByBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	keyFn := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	d := value.NewDict()
	for _, it := range list.Items {
		k, err := c.Invoke(keyFn, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if k.Kind != value.KindString {
			return value.Value{}, value.TypeError("string", k)
		}
		bucket, ok := d.Get(k.Str)
		if !ok {
			bucket = value.List(nil)
		}
		d = d.With(k.Str, value.List(append(append([]value.Value{}, bucket.List.Items...), it)))
	}
	return value.Dict(d), nil
}

// intersperseBuiltin is intersperse(sep, list).
func intersperseBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	sep := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if len(list.Items) == 0 {
		return value.List(nil), nil
	}
	out := make([]value.Value, 0, 2*len(list.Items)-1)
	for i, it := range list.Items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, it)
	}
	return value.List(out), nil
}

// rangeBuiltin is the functional counterpart to the `[a..b]` literal: a
// half-open `[from, to)` ascending list, the conventional "range(n)"-style
// shape for piping into map/filter rather than the inclusive bracket form.
// It has no list argument to put last, since from/to are themselves the
// data it produces.
func rangeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindNumber || args[1].Kind != value.KindNumber || args[0].Number.IsFloat || args[1].Number.IsFloat {
		return value.Value{}, errs.New(errs.KindType, errs.Span{}, errs.ErrTypeMismatch, "range: bounds must be integers")
	}
	from, to := args[0].Number.Int, args[1].Number.Int
	var out []value.Value
	for i := from; i < to; i++ {
		out = append(out, value.Int(i))
	}
	return value.List(out), nil
}

func productBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	isum := int64(1)
	fsum := 1.0
	floaty := false
	for _, it := range list.Items {
		if it.Kind != value.KindNumber {
			return value.Value{}, value.TypeError("number", it)
		}
		if it.Number.IsFloat {
			floaty = true
		}
		fsum *= it.Number.AsFloat()
		isum *= it.Number.Int
	}
	if floaty {
		return value.Float(fsum), nil
	}
	return value.Int(isum), nil
}

// allBuiltin is all(fn, list).
func allBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	for _, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if !v.Truthy() {
			return value.False, nil
		}
	}
	return value.True, nil
}

// anyBuiltin is any(fn, list).
func anyBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	for _, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			return value.True, nil
		}
	}
	return value.False, nil
}

// countBuiltin is count(fn, list).
func countBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	n := int64(0)
	for _, it := range list.Items {
		v, err := c.Invoke(fnVal, []value.Value{it})
		if err != nil {
			return value.Value{}, err
		}
		if v.Truthy() {
			n++
		}
	}
	return value.Int(n), nil
}

// defaultBuiltin is default(fallback, v), grouped with the aggregates in the
// spec's builtin family list though it operates on any value, not just a
// list: it substitutes a fallback for `none` the same way `env_var_or`
// substitutes one for an unset variable, with v last so `v -> default(fb)`
// reads naturally.
func defaultBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[1].Kind == value.KindNone {
		return args[0], nil
	}
	return args[1], nil
}

func shuffleBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out := append([]value.Value{}, list.Items...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return value.List(out), nil
}

// combinationsBuiltin is combinations(k, list).
func combinationsBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindNumber || args[0].Number.IsFloat {
		return value.Value{}, value.TypeError("integer", args[0])
	}
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	k := int(args[0].Number.Int)
	if k < 0 || k > len(list.Items) {
		return value.List(nil), nil
	}
	var out []value.Value
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		combo := make([]value.Value, k)
		for i, id := range idx {
			combo[i] = list.Items[id]
		}
		out = append(out, value.List(combo))

		i := k - 1
		for i >= 0 && idx[i] == i+len(list.Items)-k {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return value.List(out), nil
}

func permutationsBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, err := asList(args[0])
	if err != nil {
		return value.Value{}, err
	}
	items := append([]value.Value{}, list.Items...)
	var out []value.Value
	var permute func(k int)
	permute = func(k int) {
		if k == len(items) {
			out = append(out, value.List(append([]value.Value{}, items...)))
			return
		}
		for i := k; i < len(items); i++ {
			items[k], items[i] = items[i], items[k]
			permute(k + 1)
			items[k], items[i] = items[i], items[k]
		}
	}
	permute(0)
	return value.List(out), nil
}
