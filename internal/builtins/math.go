package builtins

import (
	"math"
	"time"

	"avon/internal/errs"
	"avon/internal/value"
)

func mathBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"abs":   fn("abs", 1, absBuiltin),
		"floor": fn("floor", 1, floorBuiltin),
		"ceil":  fn("ceil", 1, ceilBuiltin),
		"round": fn("round", 1, roundBuiltin),
		"sqrt":  fn("sqrt", 1, sqrtBuiltin),
		"clamp": fn("clamp", 3, clampBuiltin),

		"now_unix":    fn("now_unix", 0, nowUnixBuiltin),
		"format_time": fn("format_time", 2, formatTimeBuiltin),
		"parse_time":  fn("parse_time", 2, parseTimeBuiltin),
	}
}

func numArg(v value.Value) (float64, error) {
	if v.Kind != value.KindNumber {
		return 0, value.TypeError("number", v)
	}
	return v.Number.AsFloat(), nil
}

func absBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	n := args[0]
	if n.Kind != value.KindNumber {
		return value.Value{}, value.TypeError("number", n)
	}
	if n.Number.IsFloat {
		return value.Float(math.Abs(n.Number.Float)), nil
	}
	if n.Number.Int < 0 {
		return value.Int(-n.Number.Int), nil
	}
	return n, nil
}

func floorBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	f, err := numArg(args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(math.Floor(f))), nil
}

func ceilBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	f, err := numArg(args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(math.Ceil(f))), nil
}

func roundBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	f, err := numArg(args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.Int(int64(math.Round(f))), nil
}

func sqrtBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	f, err := numArg(args[0])
	if err != nil {
		return value.Value{}, err
	}
	if f < 0 {
		return value.Value{}, errs.New(errs.KindArithmetic, errs.Span{}, errs.ErrDivByZero, "sqrt of negative number")
	}
	return value.Float(math.Sqrt(f)), nil
}

func clampBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	v, lo, hi := args[0], args[1], args[2]
	if v.Kind != value.KindNumber || lo.Kind != value.KindNumber || hi.Kind != value.KindNumber {
		return value.Value{}, value.TypeError("number", v)
	}
	if v.Number.AsFloat() < lo.Number.AsFloat() {
		return lo, nil
	}
	if v.Number.AsFloat() > hi.Number.AsFloat() {
		return hi, nil
	}
	return v, nil
}

func nowUnixBuiltin(_ value.Caller, _ []value.Value) (value.Value, error) {
	return value.Int(time.Now().Unix()), nil
}

func formatTimeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	sec, layout := args[0], args[1]
	if sec.Kind != value.KindNumber || layout.Kind != value.KindString {
		return value.Value{}, value.TypeError("number, string", sec)
	}
	t := time.Unix(sec.Number.Int, 0).UTC()
	return value.Str(t.Format(goLayout(layout.Str))), nil
}

func parseTimeBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	s, layout := args[0], args[1]
	if s.Kind != value.KindString || layout.Kind != value.KindString {
		return value.Value{}, value.TypeError("string, string", s)
	}
	t, err := time.Parse(goLayout(layout.Str), s.Str)
	if err != nil {
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "parse_time: %v", err)
	}
	return value.Int(t.Unix()), nil
}

// goLayout accepts either a Go reference-time layout directly, or the
// literal string "rfc3339"/"date"/"datetime" shorthand the builtin library
// documents for the three formats deploy manifests use most.
func goLayout(s string) string {
	switch s {
	case "rfc3339":
		return time.RFC3339
	case "date":
		return "2006-01-02"
	case "datetime":
		return "2006-01-02 15:04:05"
	default:
		return s
	}
}
