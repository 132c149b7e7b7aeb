// Package template implements the rendering half of Avon's brace-level
// template/path engine: dedent and fragment-to-string assembly. Lexical
// scanning of the brace-level-N grammar itself lives in internal/lexer,
// which already has to track the same counting rules while producing
// tokens; this package only turns a fragment list plus a value stringifier
// into the final text, mirroring the teacher's template.go split between
// "scan the placeholders" and "substitute them" (dsl/template.go keeps those
// as two passes over the same data for the same reason: substitution needs
// an evaluation callback the scanner has no business depending on).
package template

import (
	"strings"

	"avon/internal/ast"
	"avon/internal/value"
)

// EvalFunc evaluates an embedded expression against scope, used by Render to
// resolve {expr} fragments without this package importing the evaluator.
type EvalFunc func(expr ast.Expr, scope *value.Scope) (value.Value, error)

// Render assembles fragments into a single string, evaluating IsExpr
// fragments with eval and stringifying their results with Stringify.
func Render(fragments []ast.TemplateFrag, scope *value.Scope, eval EvalFunc) (string, error) {
	var sb strings.Builder
	for _, f := range fragments {
		if !f.IsExpr {
			sb.WriteString(f.Text)
			continue
		}
		v, err := eval(f.Expr, scope)
		if err != nil {
			return "", err
		}
		sb.WriteString(Stringify(v))
	}
	return sb.String(), nil
}

// Stringify converts a Value to the text used when interpolating it into a
// template or path: strings pass through unescaped, other scalars use their
// plain text form, lists join their items' renderings with "\n", and dicts
// render as "{key: value, ...}" in insertion order with unquoted values —
// the design's documented template-rendering rule, distinct from
// value.Inspect's debug form (which brackets and quotes).
func Stringify(v value.Value) string {
	switch v.Kind {
	case value.KindString:
		return v.Str
	case value.KindNumber:
		return v.Number.String()
	case value.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case value.KindNone:
		return ""
	case value.KindList:
		parts := make([]string, len(v.List.Items))
		for i, it := range v.List.Items {
			parts[i] = Stringify(it)
		}
		return strings.Join(parts, "\n")
	case value.KindDict:
		parts := make([]string, 0, len(v.Dict.Keys))
		for _, k := range v.Dict.Keys {
			parts = append(parts, k+": "+Stringify(v.Dict.Index[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return value.Inspect(v)
	}
}

// Dedent removes a template's common leading whitespace, per the design's
// rule: strip leading/trailing blank lines, compute the minimum indentation
// among the remaining non-empty lines, and strip exactly that many leading
// characters from every line (blank lines included, short ones left bare).
func Dedent(s string) string {
	lines := strings.Split(s, "\n")

	start := 0
	for start < len(lines) && isBlank(lines[start]) {
		start++
	}
	end := len(lines)
	for end > start && isBlank(lines[end-1]) {
		end--
	}
	lines = lines[start:end]
	if len(lines) == 0 {
		return ""
	}

	baseline := -1
	for _, l := range lines {
		if isBlank(l) {
			continue
		}
		indent := leadingWhitespace(l)
		if baseline == -1 || indent < baseline {
			baseline = indent
		}
	}
	if baseline <= 0 {
		return strings.Join(lines, "\n")
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= baseline {
			out[i] = l[baseline:]
		} else {
			out[i] = ""
		}
	}
	return strings.Join(out, "\n")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func leadingWhitespace(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}
