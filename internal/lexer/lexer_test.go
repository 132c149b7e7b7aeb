package lexer

import (
	"testing"

	"avon/internal/token"
)

func mustContain(t *testing.T, got, sub string) {
	t.Helper()
	if !contains(got, sub) {
		t.Fatalf("expected %q to contain %q", got, sub)
	}
}

func contains(s, sub string) bool {
	return len(sub) == 0 || (len(s) >= len(sub) && indexOf(s, sub) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lex error on %q: %v", src, err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanOperatorsPreferLongestMatch(t *testing.T) {
	toks := scanAll(t, "-> == != >= <= && || // ** ..")
	want := []token.Kind{
		token.ARROW, token.EQ, token.NEQ, token.GTE, token.LTE,
		token.AND, token.OR, token.IDIV, token.POW, token.DOTDOT, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestScanKeywordsVsIdent(t *testing.T) {
	toks := scanAll(t, "let inner if then else true false none not")
	want := []token.Kind{
		token.LET, token.IDENT, token.IF, token.THEN, token.ELSE,
		token.TRUE, token.FALSE, token.NONE, token.NOT, token.EOF,
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d (%q): got %s, want %s", i, toks[i].Literal, toks[i].Kind, k)
		}
	}
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "42 3.14")
	if toks[0].Kind != token.NUMBER || toks[0].Literal != "42" {
		t.Errorf("got %+v", toks[0])
	}
	if toks[1].Kind != token.NUMBER || toks[1].Literal != "3.14" {
		t.Errorf("got %+v", toks[1])
	}
}

func TestScanNumberRejectsTrailingLetter(t *testing.T) {
	l := New("5x")
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected an error for 5x")
	}
}

func TestScanStringEscapes(t *testing.T) {
	l := New(`"a\nb\tc\\d\"e"`)
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\nb\tc\\d\"e"
	if tok.Literal != want {
		t.Errorf("got %q, want %q", tok.Literal, want)
	}
}

func TestScanStringUnterminated(t *testing.T) {
	l := New(`"abc`)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected unterminated string error")
	}
}

func TestScanStringBadEscape(t *testing.T) {
	l := New(`"a\qb"`)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected bad escape error")
	}
}

func TestSkipCommentsAndWhitespace(t *testing.T) {
	toks := scanAll(t, "  # a comment\n  42  # trailing\n")
	if toks[0].Kind != token.NUMBER || toks[0].Literal != "42" {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Kind != token.EOF {
		t.Fatalf("expected EOF next, got %+v", toks[1])
	}
}

func TestScanTemplateLevel1(t *testing.T) {
	l := New(`{"hi {name}!"}`)
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != token.TEMPLATE || tok.Level != 1 {
		t.Fatalf("got kind=%s level=%d", tok.Kind, tok.Level)
	}
	if len(tok.Fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %d: %+v", len(tok.Fragments), tok.Fragments)
	}
	if tok.Fragments[0].IsExpr || tok.Fragments[0].Text != "hi " {
		t.Errorf("fragment 0: %+v", tok.Fragments[0])
	}
	if !tok.Fragments[1].IsExpr || tok.Fragments[1].Text != "name" {
		t.Errorf("fragment 1: %+v", tok.Fragments[1])
	}
	if tok.Fragments[2].IsExpr || tok.Fragments[2].Text != "!" {
		t.Errorf("fragment 2: %+v", tok.Fragments[2])
	}
}

func TestScanTemplateLevel2EscapesLiteralBraces(t *testing.T) {
	// At level 2, a single '{' / '}' pair is just literal text; only a run
	// of two or more participates in interpolation delimiting.
	l := New(`{{"a {literal} b {{expr}}"}}`)
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != token.TEMPLATE || tok.Level != 2 {
		t.Fatalf("got kind=%s level=%d", tok.Kind, tok.Level)
	}
	var exprs []string
	for _, f := range tok.Fragments {
		if f.IsExpr {
			exprs = append(exprs, f.Text)
		}
	}
	if len(exprs) != 1 || exprs[0] != "expr" {
		t.Fatalf("expected one expr fragment \"expr\", got %+v", tok.Fragments)
	}
}

func TestScanTemplateUnterminated(t *testing.T) {
	l := New(`{"abc`)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected unterminated template error")
	}
}

func TestScanPathRelativeAndAbsolute(t *testing.T) {
	toks := scanAll(t, `@rel/path @/abs/path`)
	if toks[0].Kind != token.PATH || toks[0].PathAbsolute {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Kind != token.PATH || !toks[1].PathAbsolute {
		t.Fatalf("got %+v", toks[1])
	}
}

func TestScanPathStopsAtTerminator(t *testing.T) {
	toks := scanAll(t, `[@a/b, @c/d]`)
	var kinds []token.Kind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []token.Kind{token.LBRACKET, token.PATH, token.COMMA, token.PATH, token.RBRACKET, token.EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %+v, want kinds %+v", toks, want)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("token %d: got %s, want %s", i, kinds[i], k)
		}
	}
}

func TestScanPathWithInterpolation(t *testing.T) {
	l := New(`@dir/{name}/file.txt`)
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != token.PATH {
		t.Fatalf("got %+v", tok)
	}
	foundExpr := false
	for _, f := range tok.Fragments {
		if f.IsExpr && f.Text == "name" {
			foundExpr = true
		}
	}
	if !foundExpr {
		t.Fatalf("expected an interpolated 'name' fragment, got %+v", tok.Fragments)
	}
}

func TestScanPathEmptyIsError(t *testing.T) {
	l := New(`@`)
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	l := New("$")
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected an error for an unrecognized character")
	}
	mustContain(t, err.Error(), "$")
}

func TestEOFRepeatsEOFToken(t *testing.T) {
	l := New("")
	for i := 0; i < 3; i++ {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Kind != token.EOF {
			t.Fatalf("call %d: got %s, want EOF", i, tok.Kind)
		}
	}
}
