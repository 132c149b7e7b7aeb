package builtins

import (
	"testing"

	"avon/internal/value"
)

func TestAbsHandlesIntAndFloat(t *testing.T) {
	v, err := absBuiltin(stubCaller{}, []value.Value{value.Int(-5)})
	if err != nil || v.Number.Int != 5 {
		t.Fatalf("got %v err=%v", v, err)
	}
	v, err = absBuiltin(stubCaller{}, []value.Value{value.Float(-2.5)})
	if err != nil || v.Number.Float != 2.5 {
		t.Fatalf("got %v err=%v", v, err)
	}
}

func TestFloorCeilRound(t *testing.T) {
	if v, _ := floorBuiltin(stubCaller{}, []value.Value{value.Float(1.7)}); v.Number.Int != 1 {
		t.Fatalf("floor got %v", v)
	}
	if v, _ := ceilBuiltin(stubCaller{}, []value.Value{value.Float(1.2)}); v.Number.Int != 2 {
		t.Fatalf("ceil got %v", v)
	}
	if v, _ := roundBuiltin(stubCaller{}, []value.Value{value.Float(1.5)}); v.Number.Int != 2 {
		t.Fatalf("round got %v", v)
	}
}

func TestSqrtRejectsNegative(t *testing.T) {
	if _, err := sqrtBuiltin(stubCaller{}, []value.Value{value.Int(4)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sqrtBuiltin(stubCaller{}, []value.Value{value.Int(-1)}); err == nil {
		t.Fatal("expected an error for sqrt of a negative number")
	}
}

func TestClampBounds(t *testing.T) {
	v, err := clampBuiltin(stubCaller{}, []value.Value{value.Int(5), value.Int(0), value.Int(3)})
	if err != nil || v.Number.Int != 3 {
		t.Fatalf("got %v err=%v", v, err)
	}
	v, err = clampBuiltin(stubCaller{}, []value.Value{value.Int(-5), value.Int(0), value.Int(3)})
	if err != nil || v.Number.Int != 0 {
		t.Fatalf("got %v err=%v", v, err)
	}
	v, err = clampBuiltin(stubCaller{}, []value.Value{value.Int(2), value.Int(0), value.Int(3)})
	if err != nil || v.Number.Int != 2 {
		t.Fatalf("got %v err=%v", v, err)
	}
}

func TestFormatAndParseTimeRoundTrip(t *testing.T) {
	const epoch = int64(1700000000)
	s, err := formatTimeBuiltin(stubCaller{}, []value.Value{value.Int(epoch), value.Str("rfc3339")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := parseTimeBuiltin(stubCaller{}, []value.Value{s, value.Str("rfc3339")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Number.Int != epoch {
		t.Fatalf("got %v, want %d", back, epoch)
	}
}

func TestParseTimeBadInputIsError(t *testing.T) {
	if _, err := parseTimeBuiltin(stubCaller{}, []value.Value{value.Str("not-a-date"), value.Str("rfc3339")}); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestGoLayoutShorthands(t *testing.T) {
	cases := map[string]string{
		"rfc3339":  "2006-01-02T15:04:05Z07:00",
		"date":     "2006-01-02",
		"datetime": "2006-01-02 15:04:05",
		"2006":     "2006",
	}
	for in, want := range cases {
		if got := goLayout(in); got != want {
			t.Errorf("goLayout(%q) = %q, want %q", in, got, want)
		}
	}
}
