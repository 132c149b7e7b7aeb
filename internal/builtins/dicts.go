package builtins

import "avon/internal/value"

// dictBuiltins takes the dict as the last argument throughout, the same
// data-last convention the list family uses, so that `d -> set(key, v)` and
// `d -> get(key, fallback)` read naturally through the pipe operator (per
// the pipe-equivalence rule: `x -> f a...` equals `f a... x`).
func dictBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"keys":       fn("keys", 1, keysBuiltin),
		"values":     fn("values", 1, valuesBuiltin),
		"items":      fn("items", 1, itemsBuiltin),
		"has_key":    fn("has_key", 2, hasKeyBuiltin),
		"get":        fn("get", 3, getBuiltin),
		"set":        fn("set", 3, setKeyBuiltin),
		"remove_key": fn("remove_key", 2, removeKeyBuiltin),
		"dict_merge": fn("dict_merge", 2, mergeBuiltin),
	}
}

func asDict(v value.Value) (*value.DictVal, error) {
	if v.Kind != value.KindDict {
		return nil, value.TypeError("dict", v)
	}
	return v.Dict, nil
}

func keysBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	d, err := asDict(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(d.Keys))
	for i, k := range d.Keys {
		out[i] = value.Str(k)
	}
	return value.List(out), nil
}

func valuesBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	d, err := asDict(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(d.Keys))
	for i, k := range d.Keys {
		out[i] = d.Index[k]
	}
	return value.List(out), nil
}

func itemsBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	d, err := asDict(args[0])
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(d.Keys))
	for i, k := range d.Keys {
		out[i] = value.List([]value.Value{value.Str(k), d.Index[k]})
	}
	return value.List(out), nil
}

// hasKeyBuiltin is has_key(key, d).
func hasKeyBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string key", args[0])
	}
	d, err := asDict(args[1])
	if err != nil {
		return value.Value{}, err
	}
	_, ok := d.Get(args[0].Str)
	return value.Bool(ok), nil
}

// getBuiltin is get(key, fallback, d).
func getBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string key", args[0])
	}
	d, err := asDict(args[2])
	if err != nil {
		return value.Value{}, err
	}
	if v, ok := d.Get(args[0].Str); ok {
		return v, nil
	}
	return args[1], nil
}

// setKeyBuiltin is set(key, value, d).
func setKeyBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string key", args[0])
	}
	d, err := asDict(args[2])
	if err != nil {
		return value.Value{}, err
	}
	return value.Dict(d.With(args[0].Str, args[1])), nil
}

// removeKeyBuiltin is remove_key(key, d).
func removeKeyBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if args[0].Kind != value.KindString {
		return value.Value{}, value.TypeError("string key", args[0])
	}
	d, err := asDict(args[1])
	if err != nil {
		return value.Value{}, err
	}
	nd := value.NewDict()
	for _, k := range d.Keys {
		if k == args[0].Str {
			continue
		}
		nd = nd.With(k, d.Index[k])
	}
	return value.Dict(nd), nil
}

// mergeBuiltin is dict_merge(overrides, base): entries from overrides win,
// so `base -> dict_merge(overrides)` reads as "apply overrides onto base".
func mergeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	overrides, err := asDict(args[0])
	if err != nil {
		return value.Value{}, err
	}
	base, err := asDict(args[1])
	if err != nil {
		return value.Value{}, err
	}
	out := base
	for _, k := range overrides.Keys {
		out = out.With(k, overrides.Index[k])
	}
	return value.Dict(out), nil
}
