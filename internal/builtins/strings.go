package builtins

import (
	"regexp"
	"strings"

	"avon/internal/errs"
	"avon/internal/value"
)

// stringBuiltins covers text manipulation, including the regex family built
// on the standard library's regexp package — the same package the
// teacher's own devshell command-substitution code reaches for
// (cmd_root.go's step-ref matching uses regexp.MustCompile directly), so
// regex stays on stdlib here too rather than adding a third-party engine
// the rest of the corpus never reaches for.
func stringBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"length":      fn("length", 1, lengthBuiltin),
		"upper":       fn("upper", 1, str1(strings.ToUpper)),
		"lower":       fn("lower", 1, str1(strings.ToLower)),
		"trim":        fn("trim", 1, str1(strings.TrimSpace)),
		"split":       fn("split", 2, splitBuiltin),
		"join":        fn("join", 2, joinBuiltin),
		"replace":     fn("replace", 3, replaceBuiltin),
		"contains":    fn("contains", 2, containsBuiltin),
		"starts_with": fn("starts_with", 2, startsWithBuiltin),
		"ends_with":   fn("ends_with", 2, endsWithBuiltin),
		"substring":   fn("substring", 3, substringBuiltin),
		"repeat":      fn("repeat", 2, repeatBuiltin),
		"pad_left":    fn("pad_left", 3, padLeftBuiltin),
		"pad_right":   fn("pad_right", 3, padRightBuiltin),

		"regex_match":   fn("regex_match", 2, regexMatch),
		"regex_find":    fn("regex_find", 2, regexFind),
		"regex_find_all": fn("regex_find_all", 2, regexFindAll),
		"regex_replace": fn("regex_replace", 3, regexReplace),
	}
}

func str1(f func(string) string) value.BuiltinFunc {
	return func(_ value.Caller, args []value.Value) (value.Value, error) {
		if args[0].Kind != value.KindString {
			return value.Value{}, value.TypeError("string", args[0])
		}
		return value.Str(f(args[0].Str)), nil
	}
}

func lengthBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindString:
		return value.Int(int64(len([]rune(v.Str)))), nil
	case value.KindList:
		return value.Int(int64(len(v.List.Items))), nil
	case value.KindDict:
		return value.Int(int64(len(v.Dict.Keys))), nil
	default:
		return value.Value{}, value.TypeError("string, list, or dict", v)
	}
}

func splitBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	s, sep := args[0], args[1]
	if s.Kind != value.KindString || sep.Kind != value.KindString {
		return value.Value{}, value.TypeError("string", s)
	}
	parts := strings.Split(s.Str, sep.Str)
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.Str(p)
	}
	return value.List(items), nil
}

func joinBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	list, sep := args[0], args[1]
	if list.Kind != value.KindList || sep.Kind != value.KindString {
		return value.Value{}, value.TypeError("list", list)
	}
	parts := make([]string, len(list.List.Items))
	for i, it := range list.List.Items {
		if it.Kind != value.KindString {
			return value.Value{}, errs.New(errs.KindType, errs.Span{}, errs.ErrTypeMismatch, "join: element %d is not a string", i)
		}
		parts[i] = it.Str
	}
	return value.Str(strings.Join(parts, sep.Str)), nil
}

func replaceBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	s, old, new := args[0], args[1], args[2]
	if s.Kind != value.KindString || old.Kind != value.KindString || new.Kind != value.KindString {
		return value.Value{}, value.TypeError("string", s)
	}
	return value.Str(strings.ReplaceAll(s.Str, old.Str, new.Str)), nil
}

func containsBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	s, sub := args[0], args[1]
	if s.Kind != value.KindString || sub.Kind != value.KindString {
		return value.Value{}, value.TypeError("string", s)
	}
	return value.Bool(strings.Contains(s.Str, sub.Str)), nil
}

func startsWithBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	return value.Bool(strings.HasPrefix(args[0].Str, args[1].Str)), nil
}

func endsWithBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	return value.Bool(strings.HasSuffix(args[0].Str, args[1].Str)), nil
}

func substringBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	s, start, end := args[0], args[1], args[2]
	if s.Kind != value.KindString || start.Kind != value.KindNumber || end.Kind != value.KindNumber {
		return value.Value{}, value.TypeError("string", s)
	}
	runes := []rune(s.Str)
	lo, hi := start.Number.Int, end.Number.Int
	if lo < 0 {
		lo += int64(len(runes))
	}
	if hi < 0 {
		hi += int64(len(runes))
	}
	if lo < 0 || hi > int64(len(runes)) || lo > hi {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrMissingKey, "substring bounds out of range")
	}
	return value.Str(string(runes[lo:hi])), nil
}

func repeatBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	s, n := args[0], args[1]
	if s.Kind != value.KindString || n.Kind != value.KindNumber || n.Number.IsFloat || n.Number.Int < 0 {
		return value.Value{}, value.TypeError("string and non-negative integer", s)
	}
	return value.Str(strings.Repeat(s.Str, int(n.Number.Int))), nil
}

func padLeftBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	return padBuiltin(args, true)
}

func padRightBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	return padBuiltin(args, false)
}

func padBuiltin(args []value.Value, left bool) (value.Value, error) {
	s, width, padStr := args[0], args[1], args[2]
	if s.Kind != value.KindString || width.Kind != value.KindNumber || padStr.Kind != value.KindString || padStr.Str == "" {
		return value.Value{}, value.TypeError("string, integer, non-empty string", s)
	}
	runes := []rune(s.Str)
	need := int(width.Number.Int) - len(runes)
	if need <= 0 {
		return s, nil
	}
	pad := strings.Repeat(padStr.Str, (need/len([]rune(padStr.Str)))+1)
	pad = string([]rune(pad)[:need])
	if left {
		return value.Str(pad + s.Str), nil
	}
	return value.Str(s.Str + pad), nil
}

func regexMatch(_ value.Caller, args []value.Value) (value.Value, error) {
	re, err := compileRegex(args[1])
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(re.MatchString(args[0].Str)), nil
}

func regexFind(_ value.Caller, args []value.Value) (value.Value, error) {
	re, err := compileRegex(args[1])
	if err != nil {
		return value.Value{}, err
	}
	m := re.FindString(args[0].Str)
	if m == "" && !re.MatchString(args[0].Str) {
		return value.None, nil
	}
	return value.Str(m), nil
}

func regexFindAll(_ value.Caller, args []value.Value) (value.Value, error) {
	re, err := compileRegex(args[1])
	if err != nil {
		return value.Value{}, err
	}
	matches := re.FindAllString(args[0].Str, -1)
	items := make([]value.Value, len(matches))
	for i, m := range matches {
		items[i] = value.Str(m)
	}
	return value.List(items), nil
}

func regexReplace(_ value.Caller, args []value.Value) (value.Value, error) {
	re, err := compileRegex(args[1])
	if err != nil {
		return value.Value{}, err
	}
	if args[2].Kind != value.KindString {
		return value.Value{}, value.TypeError("string", args[2])
	}
	return value.Str(re.ReplaceAllString(args[0].Str, args[2].Str)), nil
}

func compileRegex(v value.Value) (*regexp.Regexp, error) {
	if v.Kind != value.KindString {
		return nil, value.TypeError("string pattern", v)
	}
	re, err := regexp.Compile(v.Str)
	if err != nil {
		return nil, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "invalid regex %q: %v", v.Str, err)
	}
	return re, nil
}
