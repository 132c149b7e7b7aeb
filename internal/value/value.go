// Package value implements Avon's runtime value model: a tagged union over
// None, Bool, Number, String, List, Dict, Function, Template, Path, and
// FileTemplate, plus the Scope type backing lexical closures.
//
// The original design leans on reference-counted immutable environment
// snapshots for "minimal capture" closures; Go has no manual refcounting, so
// a FuncLit closes over a Scope value that is itself immutable once built
// (see Scope.Extend) and left for the garbage collector to reclaim, the same
// trade the teacher's dsl.Registry makes when it hands out *TypeDef values
// rather than tracking their lifetime by hand.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"avon/internal/ast"
	"avon/internal/errs"
)

// Kind identifies which alternative of the tagged union a Value holds.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindDict
	KindFunction
	KindTemplate
	KindPath
	KindFileTemplate
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindFunction:
		return "function"
	case KindTemplate:
		return "template"
	case KindPath:
		return "path"
	case KindFileTemplate:
		return "file_template"
	case KindBuiltin:
		return "builtin"
	default:
		return "?"
	}
}

// Number holds either an integer or a float, tracking which so that
// arithmetic preserves int-ness unless an operand forces promotion to
// float, per the `+` dispatch table.
type Number struct {
	IsFloat bool
	Int     int64
	Float   float64
}

func (n Number) AsFloat() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

func IntNumber(i int64) Number   { return Number{Int: i} }
func FloatNumber(f float64) Number { return Number{IsFloat: true, Float: f} }

func (n Number) String() string {
	if n.IsFloat {
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	}
	return strconv.FormatInt(n.Int, 10)
}

// BuiltinFunc is the Go implementation of a builtin. args are already
// evaluated; call gives builtins that need it (import, pmap, env_var_or) access
// to evaluation facilities without every builtin package importing eval and
// creating an import cycle.
type BuiltinFunc func(call Caller, args []Value) (Value, error)

// Caller is the minimal surface a builtin needs back into the evaluator: the
// ability to invoke a Function value (for map/filter/pmap/...), to look up
// the current working directory for path resolution, and to evaluate
// another Avon source file or git-hosted module for the import family.
// Routing import/import_git through this interface (rather than having
// package builtins import package eval directly) avoids an import cycle,
// since eval.Evaluator must import builtins to populate its root scope.
type Caller interface {
	Invoke(fn Value, args []Value) (Value, error)
	WorkDir() string
	Import(path string) (Value, error)
	ImportGit(url, ref, subpath string) (Value, error)
}

// Function is a user-defined closure over exactly one parameter. Currying a
// multi-parameter lambda needs no extra bookkeeping here: `\a \b a + b` is
// two nested Functions, and applying the outer one just evaluates its body,
// which happens to produce the inner Function. Default is the parameter's
// default value already evaluated at closure-creation time (not the AST
// expression) per the language's "defaults evaluate now" rule; nil means the
// parameter is required. It is consulted only by top-level auto-evaluation —
// ordinary juxtaposition application always supplies the argument.
type Function struct {
	Param   string
	Default *Value
	Body    ast.Expr
	Closure *Scope
	Name    string // best-effort, for error chains and debug printing
}

// Builtin wraps a BuiltinFunc with a name and fixed arity metadata for
// partial application exactly like a Function, so builtins curry the same
// way user lambdas do.
type Builtin struct {
	Name    string
	Arity   int
	Fn      BuiltinFunc
	Applied []Value
}

// Value is the tagged union. Exactly one of the typed fields is meaningful,
// selected by Kind; List/Dict/Template/Path/FileTemplate payloads live
// behind pointers so copying a Value is cheap and value semantics (no
// mutation after construction) hold throughout the evaluator.
type Value struct {
	Kind Kind

	Bool   bool
	Number Number
	Str    string

	List *ListVal
	Dict *DictVal

	Func    *Function
	Builtin *Builtin

	Template *TemplateVal
	Path     *PathVal
	File     *FileTemplateVal
}

// ListVal is an immutable ordered sequence. Operations that "modify" a list
// (append, set, etc.) return a new ListVal sharing the unmodified tail,
// matching Avon's no-mutation data model.
type ListVal struct {
	Items []Value
}

// DictVal is an immutable ordered map: Keys preserves insertion order for
// deterministic iteration and templating, Index gives O(1) lookup.
type DictVal struct {
	Keys  []string
	Index map[string]Value
}

func NewDict() *DictVal { return &DictVal{Index: map[string]Value{}} }

func (d *DictVal) Get(key string) (Value, bool) {
	v, ok := d.Index[key]
	return v, ok
}

// With returns a new DictVal with key bound to v, leaving the receiver
// unmodified. If key already exists its position is preserved; otherwise it
// is appended.
func (d *DictVal) With(key string, v Value) *DictVal {
	nd := &DictVal{Index: make(map[string]Value, len(d.Index)+1)}
	nd.Keys = append(nd.Keys, d.Keys...)
	for k, val := range d.Index {
		nd.Index[k] = val
	}
	if _, exists := nd.Index[key]; !exists {
		nd.Keys = append(nd.Keys, key)
	}
	nd.Index[key] = v
	return nd
}

// SortedKeys returns a copy of Keys in lexical order, leaving the receiver's
// insertion order untouched. Nothing in this module calls it.
func (d *DictVal) SortedKeys() []string {
	out := append([]string(nil), d.Keys...)
	sort.Strings(out)
	return out
}

// TemplateVal is a rendered-on-demand template literal: Fragments mirrors
// ast.TemplateFrag but with expressions already captured alongside the
// Scope they close over, so Render can be called repeatedly without
// re-resolving names.
type TemplateVal struct {
	Level     int
	Fragments []ast.TemplateFrag
	Closure   *Scope
}

// PathVal is a path literal's unevaluated fragment list plus the scope
// needed to resolve its interpolations at render/deploy time.
type PathVal struct {
	Absolute  bool
	Fragments []ast.TemplateFrag
	Closure   *Scope
}

// FileTemplateVal pairs a resolved path with its content template for the
// deployer.
type FileTemplateVal struct {
	Path     *PathVal
	Template *TemplateVal
}

var (
	None = Value{Kind: KindNone}
	True = Value{Kind: KindBool, Bool: true}
	False = Value{Kind: KindBool, Bool: false}
)

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Int(i int64) Value     { return Value{Kind: KindNumber, Number: IntNumber(i)} }
func Float(f float64) Value { return Value{Kind: KindNumber, Number: FloatNumber(f)} }
func Str(s string) Value    { return Value{Kind: KindString, Str: s} }

func List(items []Value) Value { return Value{Kind: KindList, List: &ListVal{Items: items}} }
func Dict(d *DictVal) Value    { return Value{Kind: KindDict, Dict: d} }

// Truthy implements Avon's truthiness rule used by `if`/`&&`/`||`: none and
// false are falsy, every other value (including 0, "", and empty
// lists/dicts) is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.Bool
	default:
		return true
	}
}

// Equal implements Avon's `==`/`!=` structural equality. Functions and
// builtins are never equal to anything, including themselves, matching the
// "not comparable" note in the design's operator table.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Number.AsFloat() == b.Number.AsFloat() && a.Number.IsFloat == b.Number.IsFloat
	case KindString:
		return a.Str == b.Str
	case KindList:
		if len(a.List.Items) != len(b.List.Items) {
			return false
		}
		for i := range a.List.Items {
			if !Equal(a.List.Items[i], b.List.Items[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(a.Dict.Index) != len(b.Dict.Index) {
			return false
		}
		for k, av := range a.Dict.Index {
			bv, ok := b.Dict.Index[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Inspect renders a Value for debug/error output, not for template
// rendering (see package template for the user-facing Stringify).
func Inspect(v Value) string {
	switch v.Kind {
	case KindNone:
		return "none"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return v.Number.String()
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindList:
		parts := make([]string, len(v.List.Items))
		for i, it := range v.List.Items {
			parts[i] = Inspect(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		parts := make([]string, 0, len(v.Dict.Keys))
		for _, k := range v.Dict.Keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, Inspect(v.Dict.Index[k])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindFunction:
		return fmt.Sprintf("<function %s>", v.Func.Param)
	case KindBuiltin:
		return fmt.Sprintf("<builtin %s>", v.Builtin.Name)
	case KindTemplate:
		return "<template>"
	case KindPath:
		return "<path>"
	case KindFileTemplate:
		return "<file_template>"
	default:
		return "<?>"
	}
}

// TypeError is a convenience for builtins to report a single type-mismatch
// point without plumbing spans through every call site.
func TypeError(want string, got Value) error {
	return errs.New(errs.KindType, errs.Span{}, errs.ErrTypeMismatch, "expected %s, got %s", want, got.Kind)
}
