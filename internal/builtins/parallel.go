package builtins

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"avon/internal/value"
)

// parallelBuiltins implements the pmap/pfilter/pfold family documented as
// the one sanctioned exception to "no thread-level eval parallelism": these
// still run each element through a *single* Avon call in isolation (no
// shared mutable state crosses goroutines, since every Value is immutable
// once built), using golang.org/x/sync/errgroup the same way the teacher
// would reach for it for any other fan-out/fan-in worker group.
func parallelBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"pmap":    fn("pmap", 2, pmapBuiltin),
		"pfilter": fn("pfilter", 2, pfilterBuiltin),
		"pfold":   fn("pfold", 3, pfoldBuiltin),
	}
}

// pmapBuiltin is pmap(fn, list), matching the testable property
// `pmap f xs == map f xs`.
func pmapBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(list.Items))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, it := range list.Items {
		i, it := i, it
		g.Go(func() error {
			v, err := c.Invoke(fnVal, []value.Value{it})
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return value.Value{}, err
	}
	return value.List(out), nil
}

// pfilterBuiltin is pfilter(fn, list), matching the testable property
// `pfilter p xs == filter p xs`.
func pfilterBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	list, err := asList(args[1])
	if err != nil {
		return value.Value{}, err
	}
	keep := make([]bool, len(list.Items))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, it := range list.Items {
		i, it := i, it
		g.Go(func() error {
			v, err := c.Invoke(fnVal, []value.Value{it})
			if err != nil {
				return err
			}
			keep[i] = v.Truthy()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for i, k := range keep {
		if k {
			out = append(out, list.Items[i])
		}
	}
	return value.List(out), nil
}

// pfoldBuiltin is pfold(fn, init, list). The list is split into
// runtime.GOMAXPROCS(0) contiguous chunks, each non-empty chunk is folded
// sequentially in its own goroutine starting from the chunk's first item,
// and init is then folded with the per-chunk partials in input order. For an
// associative fn the result therefore equals fold(fn, init, list) whatever
// init is; init need not be an identity element.
func pfoldBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	fnVal := args[0]
	identity := args[1]
	list, err := asList(args[2])
	if err != nil {
		return value.Value{}, err
	}

	if len(list.Items) == 0 {
		return identity, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(list.Items) {
		workers = len(list.Items)
	}
	chunkSize := (len(list.Items) + workers - 1) / workers
	partials := make([]value.Value, workers)
	filled := make([]bool, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunkSize
		end := start + chunkSize
		if end > len(list.Items) {
			end = len(list.Items)
		}
		if start >= end {
			continue
		}
		filled[w] = true
		g.Go(func() error {
			acc := list.Items[start]
			for _, it := range list.Items[start+1 : end] {
				v, err := c.Invoke(fnVal, []value.Value{acc, it})
				if err != nil {
					return err
				}
				acc = v
			}
			partials[w] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return value.Value{}, err
	}

	acc := identity
	for w, p := range partials {
		if !filled[w] {
			continue
		}
		v, err := c.Invoke(fnVal, []value.Value{acc, p})
		if err != nil {
			return value.Value{}, err
		}
		acc = v
	}
	return acc, nil
}
