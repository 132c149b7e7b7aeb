package builtins

import (
	"fmt"

	"avon/internal/errs"
	"avon/internal/value"
)

// goToValue converts a generic Go value produced by a format decoder
// (yaml.v3, toml, encoding/json-shaped maps) into an Avon value.Value. Map
// keys are stringified; unsupported concrete types become a domain error
// rather than silently dropping data.
func goToValue(v any) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.None, nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.Str(t), nil
	case int:
		return value.Int(int64(t)), nil
	case int64:
		return value.Int(t), nil
	case float64:
		return value.Float(t), nil
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			cv, err := goToValue(e)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = cv
		}
		return value.List(items), nil
	case map[string]any:
		d := value.NewDict()
		for k, e := range t {
			cv, err := goToValue(e)
			if err != nil {
				return value.Value{}, err
			}
			d = d.With(k, cv)
		}
		return value.Dict(d), nil
	case map[any]any:
		d := value.NewDict()
		for k, e := range t {
			cv, err := goToValue(e)
			if err != nil {
				return value.Value{}, err
			}
			d = d.With(fmt.Sprint(k), cv)
		}
		return value.Dict(d), nil
	default:
		return value.Value{}, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "cannot represent decoded %T as an Avon value", v)
	}
}

// valueToGo converts an Avon value.Value into plain Go data suitable for a
// format encoder. Functions/builtins/templates/paths have no serialized
// form and are rejected.
func valueToGo(v value.Value) (any, error) {
	switch v.Kind {
	case value.KindNone:
		return nil, nil
	case value.KindBool:
		return v.Bool, nil
	case value.KindNumber:
		if v.Number.IsFloat {
			return v.Number.Float, nil
		}
		return v.Number.Int, nil
	case value.KindString:
		return v.Str, nil
	case value.KindList:
		out := make([]any, len(v.List.Items))
		for i, it := range v.List.Items {
			cv, err := valueToGo(it)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case value.KindDict:
		out := map[string]any{}
		for _, k := range v.Dict.Keys {
			cv, err := valueToGo(v.Dict.Index[k])
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	default:
		return nil, errs.New(errs.KindDomain, errs.Span{}, errs.ErrTypeMismatch, "cannot serialize a %s", v.Kind)
	}
}
