package builtins

import (
	"testing"

	"avon/internal/value"
)

func TestLengthAcrossKinds(t *testing.T) {
	if v, _ := lengthBuiltin(stubCaller{}, []value.Value{value.Str("héllo")}); v.Number.Int != 5 {
		t.Fatalf("string length got %v", v)
	}
	if v, _ := lengthBuiltin(stubCaller{}, []value.Value{ints(1, 2, 3)}); v.Number.Int != 3 {
		t.Fatalf("list length got %v", v)
	}
	if v, _ := lengthBuiltin(stubCaller{}, []value.Value{dict("a", value.Int(1))}); v.Number.Int != 1 {
		t.Fatalf("dict length got %v", v)
	}
}

func TestUpperLowerTrim(t *testing.T) {
	if v, _ := str1WrapUpper(value.Str("Hi")); v.Str != "HI" {
		t.Fatalf("got %v", v)
	}
	if v, _ := str1WrapLower(value.Str("Hi")); v.Str != "hi" {
		t.Fatalf("got %v", v)
	}
	if v, _ := str1WrapTrim(value.Str("  hi  ")); v.Str != "hi" {
		t.Fatalf("got %v", v)
	}
}

func str1WrapUpper(v value.Value) (value.Value, error) {
	return stringBuiltins()["upper"].Builtin.Fn(stubCaller{}, []value.Value{v})
}
func str1WrapLower(v value.Value) (value.Value, error) {
	return stringBuiltins()["lower"].Builtin.Fn(stubCaller{}, []value.Value{v})
}
func str1WrapTrim(v value.Value) (value.Value, error) {
	return stringBuiltins()["trim"].Builtin.Fn(stubCaller{}, []value.Value{v})
}

func TestSplitAndJoinRoundTrip(t *testing.T) {
	parts, err := splitBuiltin(stubCaller{}, []value.Value{value.Str("a,b,c"), value.Str(",")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts.List.Items) != 3 {
		t.Fatalf("got %v", value.Inspect(parts))
	}
	joined, err := joinBuiltin(stubCaller{}, []value.Value{parts, value.Str("-")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if joined.Str != "a-b-c" {
		t.Fatalf("got %q", joined.Str)
	}
}

func TestJoinRejectsNonStringElement(t *testing.T) {
	list := value.List([]value.Value{value.Str("a"), value.Int(1)})
	if _, err := joinBuiltin(stubCaller{}, []value.Value{list, value.Str(",")}); err == nil {
		t.Fatal("expected an error for a non-string element")
	}
}

func TestReplaceContainsStartsEndsWith(t *testing.T) {
	if v, _ := replaceBuiltin(stubCaller{}, []value.Value{value.Str("foobar"), value.Str("foo"), value.Str("baz")}); v.Str != "bazbar" {
		t.Fatalf("got %q", v.Str)
	}
	if v, _ := containsBuiltin(stubCaller{}, []value.Value{value.Str("foobar"), value.Str("oob")}); !v.Bool {
		t.Fatal("expected contains to be true")
	}
	if v, _ := startsWithBuiltin(stubCaller{}, []value.Value{value.Str("foobar"), value.Str("foo")}); !v.Bool {
		t.Fatal("expected starts_with to be true")
	}
	if v, _ := endsWithBuiltin(stubCaller{}, []value.Value{value.Str("foobar"), value.Str("bar")}); !v.Bool {
		t.Fatal("expected ends_with to be true")
	}
}

func TestSubstringHandlesNegativeIndices(t *testing.T) {
	v, err := substringBuiltin(stubCaller{}, []value.Value{value.Str("hello"), value.Int(-3), value.Int(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Str != "llo" {
		t.Fatalf("got %q", v.Str)
	}
}

func TestSubstringOutOfRangeIsError(t *testing.T) {
	if _, err := substringBuiltin(stubCaller{}, []value.Value{value.Str("hi"), value.Int(0), value.Int(10)}); err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestRepeatAndPad(t *testing.T) {
	if v, _ := repeatBuiltin(stubCaller{}, []value.Value{value.Str("ab"), value.Int(3)}); v.Str != "ababab" {
		t.Fatalf("got %q", v.Str)
	}
	v, err := padLeftBuiltin(stubCaller{}, []value.Value{value.Str("7"), value.Int(3), value.Str("0")})
	if err != nil || v.Str != "007" {
		t.Fatalf("got %v err=%v", v, err)
	}
	v, err = padRightBuiltin(stubCaller{}, []value.Value{value.Str("7"), value.Int(3), value.Str("0")})
	if err != nil || v.Str != "700" {
		t.Fatalf("got %v err=%v", v, err)
	}
}

func TestPadDoesNotTruncateWhenAlreadyWideEnough(t *testing.T) {
	v, err := padLeftBuiltin(stubCaller{}, []value.Value{value.Str("12345"), value.Int(3), value.Str("0")})
	if err != nil || v.Str != "12345" {
		t.Fatalf("got %v err=%v", v, err)
	}
}

func TestRegexFamily(t *testing.T) {
	if v, err := regexMatch(stubCaller{}, []value.Value{value.Str("hello123"), value.Str(`\d+`)}); err != nil || !v.Bool {
		t.Fatalf("got %v err=%v", v, err)
	}
	if v, err := regexFind(stubCaller{}, []value.Value{value.Str("hello123world"), value.Str(`\d+`)}); err != nil || v.Str != "123" {
		t.Fatalf("got %v err=%v", v, err)
	}
	all, err := regexFindAll(stubCaller{}, []value.Value{value.Str("a1b22c333"), value.Str(`\d+`)})
	if err != nil || len(all.List.Items) != 3 {
		t.Fatalf("got %v err=%v", all, err)
	}
	replaced, err := regexReplace(stubCaller{}, []value.Value{value.Str("a1b2"), value.Str(`\d`), value.Str("#")})
	if err != nil || replaced.Str != "a#b#" {
		t.Fatalf("got %v err=%v", replaced, err)
	}
}

func TestRegexFindNoMatchReturnsNone(t *testing.T) {
	v, err := regexFind(stubCaller{}, []value.Value{value.Str("hello"), value.Str(`\d+`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != value.KindNone {
		t.Fatalf("expected none, got %v", value.Inspect(v))
	}
}

func TestCompileRegexRejectsBadPattern(t *testing.T) {
	if _, err := compileRegex(value.Str("(unterminated")); err == nil {
		t.Fatal("expected a regex compile error")
	}
}
