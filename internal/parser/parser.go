// Package parser implements a hand-written recursive-descent, precedence-
// climbing parser for Avon, mirroring the teacher's preference for direct,
// regex-free structural scanning over a parser-combinator dependency (see
// DESIGN.md for why alecthomas/participle was rejected: its lexer states are
// static, but Avon's template/path bodies need the dynamic brace-level-N
// counting internal/lexer already performs before a single token reaches
// this package).
package parser

import (
	"strconv"

	"avon/internal/ast"
	"avon/internal/errs"
	"avon/internal/lexer"
	"avon/internal/token"
)

// Parser consumes a token stream from a lexer.Lexer and builds an ast.Expr.
type Parser struct {
	lex    *lexer.Lexer
	cur    token.Token
	peeked *token.Token
}

// Parse parses src as a complete Avon program and returns its root
// expression.
func Parse(src string) (ast.Expr, error) {
	p := &Parser{lex: lexer.New(src)}
	if err := p.next(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.EOF {
		return nil, errs.New(errs.KindParse, p.cur.Span, errs.ErrExpectedToken, "unexpected trailing input %q", p.cur.Literal)
	}
	return expr, nil
}

func (p *Parser) next() error {
	if p.peeked != nil {
		p.cur = *p.peeked
		p.peeked = nil
		return nil
	}
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *Parser) peek() (token.Token, error) {
	if p.peeked == nil {
		save := p.cur
		t, err := p.lex.Next()
		if err != nil {
			return token.Token{}, err
		}
		p.peeked = &t
		p.cur = save
	}
	return *p.peeked, nil
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur.Kind != k {
		return token.Token{}, errs.New(errs.KindParse, p.cur.Span, errs.ErrExpectedToken, "expected %s, got %s", k, p.cur.Kind)
	}
	t := p.cur
	if err := p.next(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

// parseExpr is the top-level entry point. `let` and `if` are atoms in the
// grammar (they nest inside application chains just like any other atom),
// so parseExpr simply enters at the top of the precedence chain; parsePrimary
// dispatches to parseLet/parseIf when it sees those keywords.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parsePipe()
}

func (p *Parser) parseLet() (ast.Expr, error) {
	start := p.cur.Span
	if err := p.next(); err != nil { // consume 'let'
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n := &ast.Let{Name: nameTok.Literal, Value: value, Body: body}
	n.SetSpan(start)
	return n, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	start := p.cur.Span
	if err := p.next(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ELSE); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n := &ast.If{Cond: cond, Then: then, Else: els}
	n.SetSpan(start)
	return n, nil
}

// parsePipe handles the left-associative `->` operator. Per the resolved
// "pipe appends as the final argument" reading: `x -> f a b` desugars to
// `f(a, b, x)` — built here as nested single-argument Calls, with x applied
// last (outermost) — and `x -> f` (bare callee) desugars to `f(x)`. The
// right-hand side is parsed one level down (parseOr, not parsePipe), so a
// chain `x -> f -> g` reads as `g(f(x))`.
func (p *Parser) parsePipe() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.ARROW {
		span := p.cur.Span
		if err := p.next(); err != nil {
			return nil, err
		}
		rhs, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		c := &ast.Call{Fn: rhs, Arg: left}
		c.SetSpan(span)
		left = c
	}
	return left, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	return p.parseBinaryLevel([]token.Kind{token.OR}, p.parseAnd)
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	return p.parseBinaryLevel([]token.Kind{token.AND}, p.parseNot)
}

// parseNot implements the grammar's `not_e := 'not' not_e | cmp` production:
// `not` is a prefix operator that may stack (`not not x`) and binds just
// above comparison, so `not a == b` parses as `not (a == b)`.
func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur.Kind == token.NOT {
		span := p.cur.Span
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		n := &ast.UnaryOp{Op: "not", Operand: operand}
		n.SetSpan(span)
		return n, nil
	}
	return p.parseComparison()
}

// parseComparison covers every comparison operator at one precedence level
// (`==`, `!=`, `>`, `<`, `>=`, `<=`), matching the grammar's single `cmp`
// production rather than splitting equality and ordering into two levels.
func (p *Parser) parseComparison() (ast.Expr, error) {
	return p.parseBinaryLevel([]token.Kind{token.EQ, token.NEQ, token.GT, token.LT, token.GTE, token.LTE}, p.parseAdditive)
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.parseBinaryLevel([]token.Kind{token.PLUS, token.MINUS}, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseBinaryLevel([]token.Kind{token.STAR, token.SLASH, token.IDIV, token.PERCENT}, p.parsePower)
}

func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == token.POW {
		span := p.cur.Span
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		n := &ast.BinOp{Op: "**", Left: left, Right: right}
		n.SetSpan(span)
		return n, nil
	}
	return left, nil
}

func (p *Parser) parseBinaryLevel(kinds []token.Kind, next func() (ast.Expr, error)) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, k := range kinds {
			if p.cur.Kind == k {
				matched = true
				op := p.cur.Literal
				span := p.cur.Span
				if err := p.next(); err != nil {
					return nil, err
				}
				right, err := next()
				if err != nil {
					return nil, err
				}
				n := &ast.BinOp{Op: op, Left: left, Right: right}
				n.SetSpan(span)
				left = n
				break
			}
		}
		if !matched {
			return left, nil
		}
	}
}

// parseUnary implements `unary := '-' unary | app`: a leading minus negates
// recursively (so `--x` is `-(-x)`), otherwise control falls through to
// application.
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Kind == token.MINUS {
		span := p.cur.Span
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := &ast.UnaryOp{Op: "-", Operand: operand}
		n.SetSpan(span)
		return n, nil
	}
	return p.parseApp()
}

// parseApp implements `app := member (member)*`: juxtaposition of a member
// directly after another is a function call, left-associative, one argument
// at a time (`f x y` parses as `Call{Call{f, x}, y}`). atomStart decides
// whether the current token can begin a fresh argument; anything outside
// that set (an operator, a closing bracket, EOF, ...) ends the chain.
func (p *Parser) parseApp() (ast.Expr, error) {
	fn, err := p.parseMember()
	if err != nil {
		return nil, err
	}
	for atomStart(p.cur.Kind) {
		span := p.cur.Span
		arg, err := p.parseMember()
		if err != nil {
			return nil, err
		}
		c := &ast.Call{Fn: fn, Arg: arg}
		c.SetSpan(span)
		fn = c
	}
	return fn, nil
}

// atomStart reports whether kind can begin a new `atom`, the lookahead
// parseApp uses to decide whether juxtaposed input is another argument.
func atomStart(kind token.Kind) bool {
	switch kind {
	case token.NUMBER, token.STRING, token.TRUE, token.FALSE, token.NONE,
		token.IDENT, token.LPAREN, token.LBRACKET, token.LBRACE,
		token.TEMPLATE, token.PATH, token.BACKSLASH, token.LET, token.IF:
		return true
	default:
		return false
	}
}

// parseMember implements `member := atom ('.' IDENT)*`: dot-access chains
// directly on an atom, with no call or index syntax at this level (calls are
// juxtaposition at the app level above; there is no general `[i]` indexing
// operator, only the `nth`/`get` builtins).
func (p *Parser) parseMember() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.DOT {
		if err := p.next(); err != nil {
			return nil, err
		}
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		m := &ast.Member{Base: expr, Name: nameTok.Literal}
		m.SetSpan(nameTok.Span)
		expr = m
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	start := p.cur.Span
	switch p.cur.Kind {
	case token.NONE:
		if err := p.next(); err != nil {
			return nil, err
		}
		n := &ast.NoneLit{}
		n.SetSpan(start)
		return n, nil
	case token.TRUE, token.FALSE:
		v := p.cur.Kind == token.TRUE
		if err := p.next(); err != nil {
			return nil, err
		}
		n := &ast.BoolLit{Value: v}
		n.SetSpan(start)
		return n, nil
	case token.NUMBER:
		lit := p.cur.Literal
		if err := p.next(); err != nil {
			return nil, err
		}
		return parseNumberLit(lit, start)
	case token.STRING:
		lit := p.cur.Literal
		if err := p.next(); err != nil {
			return nil, err
		}
		n := &ast.StringLit{Value: lit}
		n.SetSpan(start)
		return n, nil
	case token.TEMPLATE:
		return p.parseTemplateOrFileTemplate()
	case token.PATH:
		return p.parsePathOrFileTemplate()
	case token.IDENT:
		name := p.cur.Literal
		if err := p.next(); err != nil {
			return nil, err
		}
		n := &ast.Ident{Name: name}
		n.SetSpan(start)
		return n, nil
	case token.BACKSLASH:
		return p.parseLambda()
	case token.LPAREN:
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBRACKET:
		return p.parseListOrRange()
	case token.LBRACE:
		return p.parseDict()
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	default:
		return nil, errs.New(errs.KindParse, p.cur.Span, errs.ErrExpectedToken, "unexpected token %s", p.cur.Kind)
	}
}

func parseNumberLit(lit string, span errs.Span) (ast.Expr, error) {
	n := &ast.NumberLit{}
	n.SetSpan(span)
	if containsDot(lit) {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, errs.New(errs.KindLex, span, errs.ErrBadNumber, "%q", lit)
		}
		n.IsFloat = true
		n.Float = f
		return n, nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, errs.New(errs.KindLex, span, errs.ErrBadNumber, "%q", lit)
	}
	n.Int = i
	return n, nil
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

// parseLambda parses `\IDENT ('?' atom)? expr`: a single curried parameter
// with an optional default, evaluated at closure-creation time, followed
// directly by the body (no arrow — `->` is reserved for pipe). A
// multi-parameter lambda is just nested single-parameter ones written by
// hand (`\a \b a + b`); the grammar has no parenthesized parameter-list form.
func (p *Parser) parseLambda() (ast.Expr, error) {
	start := p.cur.Span
	if err := p.next(); err != nil { // consume '\'
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var def ast.Expr
	if p.cur.Kind == token.QUESTION {
		if err := p.next(); err != nil {
			return nil, err
		}
		def, err = p.parsePrimary()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n := &ast.FuncLit{Param: nameTok.Literal, Default: def, Body: body}
	n.SetSpan(start)
	return n, nil
}

// parseListOrRange parses `[...]`, disambiguating the grammar's `list` and
// `range` productions by lookahead after the first (and, for the explicit
// step form, second) element: `[a..b]` and `[a, s..b]` are ranges; anything
// else comma-separated is an ordinary list.
func (p *Parser) parseListOrRange() (ast.Expr, error) {
	start := p.cur.Span
	if err := p.next(); err != nil { // consume '['
		return nil, err
	}
	if p.cur.Kind == token.RBRACKET {
		if err := p.next(); err != nil {
			return nil, err
		}
		n := &ast.ListLit{}
		n.SetSpan(start)
		return n, nil
	}

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind == token.DOTDOT {
		if err := p.next(); err != nil {
			return nil, err
		}
		to, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		n := &ast.RangeLit{From: first, To: to}
		n.SetSpan(start)
		return n, nil
	}

	elems := []ast.Expr{first}
	if p.cur.Kind == token.COMMA {
		if err := p.next(); err != nil {
			return nil, err
		}
		second, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Kind == token.DOTDOT {
			if err := p.next(); err != nil {
				return nil, err
			}
			to, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			n := &ast.RangeLit{From: first, Step: second, To: to}
			n.SetSpan(start)
			return n, nil
		}
		elems = append(elems, second)
		for p.cur.Kind == token.COMMA {
			if err := p.next(); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	n := &ast.ListLit{Elements: elems}
	n.SetSpan(start)
	return n, nil
}

func (p *Parser) parseDict() (ast.Expr, error) {
	start := p.cur.Span
	if err := p.next(); err != nil {
		return nil, err
	}
	var entries []ast.DictEntry
	for p.cur.Kind != token.RBRACE {
		var key ast.Expr
		if p.cur.Kind == token.IDENT {
			next, err := p.peek()
			if err != nil {
				return nil, err
			}
			if next.Kind == token.COLON {
				nameTok := p.cur
				if err := p.next(); err != nil {
					return nil, err
				}
				k := &ast.StringLit{Value: nameTok.Literal}
				k.SetSpan(nameTok.Span)
				key = k
			}
		}
		if key == nil {
			var err error
			key, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if p.cur.Kind == token.COMMA {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	n := &ast.DictLit{Entries: entries}
	n.SetSpan(start)
	return n, nil
}

func (p *Parser) parseTemplateOrFileTemplate() (ast.Expr, error) {
	tmpl, err := p.buildTemplate()
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (p *Parser) buildTemplate() (*ast.TemplateLit, error) {
	tok := p.cur
	frags, err := convertFragments(tok.Fragments)
	if err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	n := &ast.TemplateLit{Level: tok.Level, Fragments: frags}
	n.SetSpan(tok.Span)
	return n, nil
}

func (p *Parser) parsePathOrFileTemplate() (ast.Expr, error) {
	tok := p.cur
	frags, err := convertFragments(tok.Fragments)
	if err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	path := &ast.PathLit{Absolute: tok.PathAbsolute, Fragments: frags}
	path.SetSpan(tok.Span)

	if p.cur.Kind == token.TEMPLATE && adjacent(tok.Span, p.cur.Span) {
		tmpl, err := p.buildTemplate()
		if err != nil {
			return nil, err
		}
		ft := &ast.FileTemplate{Path: path, Template: tmpl}
		ft.SetSpan(tok.Span)
		return ft, nil
	}
	return path, nil
}

// adjacent reports whether b begins exactly where a ends, i.e. there is no
// intervening whitespace/comment between a path and the template glued to
// it to form a FileTemplate.
func adjacent(a, b errs.Span) bool {
	return a.Offset+a.Length == b.Offset
}

func convertFragments(in []token.Fragment) ([]ast.TemplateFrag, error) {
	out := make([]ast.TemplateFrag, 0, len(in))
	for _, f := range in {
		if !f.IsExpr {
			out = append(out, ast.TemplateFrag{Text: f.Text})
			continue
		}
		expr, err := Parse(f.Text)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.TemplateFrag{IsExpr: true, Expr: expr})
	}
	return out, nil
}
