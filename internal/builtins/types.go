package builtins

import (
	"strconv"

	"avon/internal/errs"
	"avon/internal/value"
)

// typeBuiltins covers type predicates, conversions, and equality helpers —
// the family a statically-typed language would instead push into the
// compiler, but which Avon exposes as ordinary functions since it has no
// static type system (see the design's Non-goals).
func typeBuiltins() map[string]value.Value {
	pred := func(k value.Kind) value.BuiltinFunc {
		return func(_ value.Caller, args []value.Value) (value.Value, error) {
			return value.Bool(args[0].Kind == k), nil
		}
	}
	return map[string]value.Value{
		"is_none":     fn("is_none", 1, pred(value.KindNone)),
		"is_bool":     fn("is_bool", 1, pred(value.KindBool)),
		"is_number":   fn("is_number", 1, pred(value.KindNumber)),
		"is_string":   fn("is_string", 1, pred(value.KindString)),
		"is_list":     fn("is_list", 1, pred(value.KindList)),
		"is_dict":     fn("is_dict", 1, pred(value.KindDict)),
		"is_function": fn("is_function", 1, isFunction),
		"type_of":     fn("type_of", 1, typeOf),

		"to_string": fn("to_string", 1, toStringBuiltin),
		"to_number": fn("to_number", 1, toNumber),
		"to_bool":   fn("to_bool", 1, toBool),

		"assert": fn("assert", 2, assertBuiltin),
		"error":  fn("error", 1, errorBuiltin),
	}
}

func isFunction(_ value.Caller, args []value.Value) (value.Value, error) {
	k := args[0].Kind
	return value.Bool(k == value.KindFunction || k == value.KindBuiltin), nil
}

func typeOf(_ value.Caller, args []value.Value) (value.Value, error) {
	return value.Str(args[0].Kind.String()), nil
}

func toStringBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	v := args[0]
	if v.Kind == value.KindString {
		return v, nil
	}
	return value.Str(value.Inspect(v)), nil
}

func toNumber(_ value.Caller, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Kind {
	case value.KindNumber:
		return v, nil
	case value.KindString:
		if i, err := strconv.ParseInt(v.Str, 10, 64); err == nil {
			return value.Int(i), nil
		}
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "cannot convert %q to number", v.Str)
		}
		return value.Float(f), nil
	case value.KindBool:
		if v.Bool {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	default:
		return value.Value{}, value.TypeError("number, string, or bool", v)
	}
}

func toBool(_ value.Caller, args []value.Value) (value.Value, error) {
	return value.Bool(args[0].Truthy()), nil
}

func assertBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	if !args[0].Truthy() {
		msg := "assertion failed"
		if args[1].Kind == value.KindString {
			msg = args[1].Str
		}
		return value.Value{}, errs.New(errs.KindUser, errs.Span{}, errs.ErrAssertionFailed, "%s", msg)
	}
	return value.None, nil
}

func errorBuiltin(_ value.Caller, args []value.Value) (value.Value, error) {
	msg := value.Inspect(args[0])
	if args[0].Kind == value.KindString {
		msg = args[0].Str
	}
	return value.Value{}, errs.New(errs.KindUser, errs.Span{}, errs.ErrUserError, "%s", msg)
}
