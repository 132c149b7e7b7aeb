package builtins

import (
	"testing"

	"avon/internal/value"
)

func TestGoToValueScalarsAndContainers(t *testing.T) {
	v, err := goToValue(map[string]any{"a": int64(1), "b": []any{"x", true, nil}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := v.Dict.Get("a")
	if !ok || a.Number.Int != 1 {
		t.Fatalf("got %v", value.Inspect(v))
	}
	b, _ := v.Dict.Get("b")
	if len(b.List.Items) != 3 || b.List.Items[0].Str != "x" || !b.List.Items[1].Bool || b.List.Items[2].Kind != value.KindNone {
		t.Fatalf("got %v", value.Inspect(b))
	}
}

func TestGoToValueStringKeyedMap(t *testing.T) {
	v, err := goToValue(map[any]any{"k": "v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.Dict.Get("k")
	if !ok || got.Str != "v" {
		t.Fatalf("got %v", value.Inspect(v))
	}
}

func TestGoToValueRejectsUnsupportedType(t *testing.T) {
	if _, err := goToValue(complex(1, 2)); err == nil {
		t.Fatal("expected an error for an unrepresentable type")
	}
}

func TestValueToGoConvertsDictToMap(t *testing.T) {
	v := dict("a", value.Int(1), "b", ints(1, 2))
	out, err := valueToGo(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", out)
	}
	if m["a"].(int64) != 1 {
		t.Fatalf("got %v", m)
	}
}

func TestValueToGoRejectsFunctions(t *testing.T) {
	if _, err := valueToGo(doubleFn()); err == nil {
		t.Fatal("expected an error serializing a function")
	}
}
