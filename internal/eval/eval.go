// Package eval walks the ast.Expr tree produced by internal/parser and
// produces value.Value results, implementing the operator table, closure
// and currying semantics, and the pipe desugaring already baked into the
// parser's output.
//
// The overall call/dispatch shape — a single recursive Eval switching on
// node kind, with builtin calls routed back out through a narrow Caller
// interface — follows the teacher's engine.go, whose Engine.Build runs
// validate/expand/validate as three cooperating passes over one tree rather
// than three separate walkers; Avon's evaluator keeps that "one walk, many
// cases" shape instead of one visitor per node kind.
package eval

import (
	"avon/internal/ast"
	"avon/internal/builtins"
	"avon/internal/errs"
	"avon/internal/template"
	"avon/internal/value"
)

// Evaluator carries the state Eval needs beyond the expression and scope
// being evaluated: the working directory builtins like import/read_file
// resolve relative paths against, and the registry of builtins available by
// name at the root scope.
type Evaluator struct {
	workDir  string
	builtins map[string]value.Value
	imports  *importState
}

// New returns an Evaluator rooted at workDir, with the full builtin registry
// bound.
func New(workDir string) *Evaluator {
	return &Evaluator{workDir: workDir, builtins: builtins.Registry()}
}

// WorkDir implements value.Caller.
func (e *Evaluator) WorkDir() string { return e.workDir }

// Invoke implements value.Caller, letting builtins (map, filter, fold,
// pmap, ...) call back into a Function or Builtin value with
// already-evaluated args. Builtins hand Invoke a flat argument list (e.g.
// fold's accumulator and item); each is applied one at a time, so a
// two-argument call against a one-parameter Function curries naturally and
// only errors once a non-function result is asked to take another argument.
func (e *Evaluator) Invoke(fn value.Value, args []value.Value) (value.Value, error) {
	if fn.Kind == value.KindBuiltin {
		return e.applyBuiltin(fn.Builtin, args, errs.Span{})
	}
	v := fn
	for _, a := range args {
		var err error
		v, err = e.apply(v, a, errs.Span{})
		if err != nil {
			return value.Value{}, err
		}
	}
	return v, nil
}

// EvalTopLevel evaluates expr against the builtin root scope, then applies
// the auto-evaluation rule: if the result is a function whose parameter has
// a default (already evaluated at the lambda's closure-creation time), it is
// invoked with that default and the check repeats, since the result may
// itself be a defaulted function (the curried case). This only happens at
// the program root; a function nested inside a list or dict is returned as a
// function untouched.
func (e *Evaluator) EvalTopLevel(expr ast.Expr) (value.Value, error) {
	v, err := e.Eval(expr, value.Root())
	if err != nil {
		return value.Value{}, err
	}
	for v.Kind == value.KindFunction && v.Func.Default != nil {
		var err error
		v, err = e.applyFunction(v.Func, *v.Func.Default, errs.Span{})
		if err != nil {
			return value.Value{}, err
		}
	}
	return v, nil
}

// Eval is the sole recursive entry point walking the tree.
func (e *Evaluator) Eval(expr ast.Expr, scope *value.Scope) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.NoneLit:
		return value.None, nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.NumberLit:
		if n.IsFloat {
			return value.Float(n.Float), nil
		}
		return value.Int(n.Int), nil
	case *ast.StringLit:
		return value.Str(n.Value), nil
	case *ast.Ident:
		return e.evalIdent(n, scope)
	case *ast.ListLit:
		return e.evalList(n, scope)
	case *ast.RangeLit:
		return e.evalRangeLit(n, scope)
	case *ast.DictLit:
		return e.evalDict(n, scope)
	case *ast.FuncLit:
		var def *value.Value
		if n.Default != nil {
			dv, err := e.Eval(n.Default, scope)
			if err != nil {
				return value.Value{}, err
			}
			def = &dv
		}
		return value.Value{Kind: value.KindFunction, Func: &value.Function{
			Param:   n.Param,
			Default: def,
			Body:    n.Body,
			Closure: scope,
		}}, nil
	case *ast.Call:
		return e.evalCall(n, scope)
	case *ast.Let:
		return e.evalLet(n, scope)
	case *ast.If:
		return e.evalIf(n, scope)
	case *ast.BinOp:
		return e.evalBinOp(n, scope)
	case *ast.UnaryOp:
		return e.evalUnary(n, scope)
	case *ast.Member:
		return e.evalMember(n, scope)
	case *ast.TemplateLit:
		return value.Value{Kind: value.KindTemplate, Template: &value.TemplateVal{
			Level: n.Level, Fragments: n.Fragments, Closure: scope,
		}}, nil
	case *ast.PathLit:
		return value.Value{Kind: value.KindPath, Path: &value.PathVal{
			Absolute: n.Absolute, Fragments: n.Fragments, Closure: scope,
		}}, nil
	case *ast.FileTemplate:
		pv, err := e.Eval(n.Path, scope)
		if err != nil {
			return value.Value{}, err
		}
		tv, err := e.Eval(n.Template, scope)
		if err != nil {
			return value.Value{}, err
		}
		return value.Value{Kind: value.KindFileTemplate, File: &value.FileTemplateVal{
			Path: pv.Path, Template: tv.Template,
		}}, nil
	default:
		return value.Value{}, errs.New(errs.KindInternal, expr.Span(), errs.ErrExpectedToken, "unhandled node type %T", expr)
	}
}

func (e *Evaluator) evalIdent(n *ast.Ident, scope *value.Scope) (value.Value, error) {
	if n.Name == "_" {
		return value.Value{}, errs.New(errs.KindName, n.Span(), errs.ErrUnderscoreAsValue, "")
	}
	if v, ok := scope.Lookup(n.Name); ok {
		return v, nil
	}
	if v, ok := e.builtins[n.Name]; ok {
		// A zero-arity builtin (uuid, now_unix, env_vars, os) is already fully
		// applied, so naming it runs it.
		if v.Kind == value.KindBuiltin && v.Builtin.Arity == 0 {
			return e.applyBuiltin(v.Builtin, nil, n.Span())
		}
		return v, nil
	}
	return value.Value{}, errs.New(errs.KindName, n.Span(), errs.ErrUnknownIdentifier, "%q", n.Name)
}

func (e *Evaluator) evalList(n *ast.ListLit, scope *value.Scope) (value.Value, error) {
	items := make([]value.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, err := e.Eval(el, scope)
		if err != nil {
			return value.Value{}, err
		}
		items[i] = v
	}
	return value.List(items), nil
}

func (e *Evaluator) evalRangeLit(n *ast.RangeLit, scope *value.Scope) (value.Value, error) {
	from, err := e.Eval(n.From, scope)
	if err != nil {
		return value.Value{}, err
	}
	to, err := e.Eval(n.To, scope)
	if err != nil {
		return value.Value{}, err
	}
	step := value.None
	if n.Step != nil {
		step, err = e.Eval(n.Step, scope)
		if err != nil {
			return value.Value{}, err
		}
	}
	return evalRange(from, step, to, n.Span())
}

func (e *Evaluator) evalDict(n *ast.DictLit, scope *value.Scope) (value.Value, error) {
	d := value.NewDict()
	for _, entry := range n.Entries {
		kv, err := e.Eval(entry.Key, scope)
		if err != nil {
			return value.Value{}, err
		}
		if kv.Kind != value.KindString {
			return value.Value{}, errs.New(errs.KindType, entry.Key.Span(), errs.ErrTypeMismatch, "dict keys must be strings, got %s", kv.Kind)
		}
		vv, err := e.Eval(entry.Value, scope)
		if err != nil {
			return value.Value{}, err
		}
		d = d.With(kv.Str, vv)
	}
	return value.Dict(d), nil
}

func (e *Evaluator) evalLet(n *ast.Let, scope *value.Scope) (value.Value, error) {
	v, err := e.Eval(n.Value, scope)
	if err != nil {
		return value.Value{}, err
	}
	// Self-reference inside the bound value (for named function literals)
	// is intentionally unsupported: Avon has no recursion, so a lambda
	// bound by `let` never sees its own name in its closure.
	inner, err := scope.MustExtend(n.Name, v)
	if err != nil {
		return value.Value{}, err
	}
	return e.Eval(n.Body, inner)
}

func (e *Evaluator) evalIf(n *ast.If, scope *value.Scope) (value.Value, error) {
	cond, err := e.Eval(n.Cond, scope)
	if err != nil {
		return value.Value{}, err
	}
	if cond.Truthy() {
		return e.Eval(n.Then, scope)
	}
	return e.Eval(n.Else, scope)
}

func (e *Evaluator) evalUnary(n *ast.UnaryOp, scope *value.Scope) (value.Value, error) {
	v, err := e.Eval(n.Operand, scope)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case "-":
		if v.Kind != value.KindNumber {
			return value.Value{}, errs.New(errs.KindType, n.Span(), errs.ErrTypeMismatch, "cannot negate %s", v.Kind)
		}
		if v.Number.IsFloat {
			return value.Float(-v.Number.Float), nil
		}
		return value.Int(-v.Number.Int), nil
	case "not":
		return value.Bool(!v.Truthy()), nil
	default:
		return value.Value{}, errs.New(errs.KindInternal, n.Span(), errs.ErrExpectedToken, "unknown unary op %q", n.Op)
	}
}

func (e *Evaluator) evalMember(n *ast.Member, scope *value.Scope) (value.Value, error) {
	base, err := e.Eval(n.Base, scope)
	if err != nil {
		return value.Value{}, err
	}
	if base.Kind != value.KindDict {
		return value.Value{}, errs.New(errs.KindType, n.Span(), errs.ErrTypeMismatch, "cannot access field %q of %s", n.Name, base.Kind)
	}
	v, ok := base.Dict.Get(n.Name)
	if !ok {
		return value.Value{}, errs.New(errs.KindDomain, n.Span(), errs.ErrMissingKey, "%q", n.Name)
	}
	return v, nil
}

// evalCall applies a function to exactly one argument, per the grammar's
// `app := member (member)*` juxtaposition rule: `f x y` parses as nested
// Call nodes (`Call{Call{f, x}, y}`), so every Call node here only ever
// carries a single argument, and multi-argument application falls out of
// evaluating the inner Call first.
func (e *Evaluator) evalCall(n *ast.Call, scope *value.Scope) (value.Value, error) {
	fn, err := e.Eval(n.Fn, scope)
	if err != nil {
		return value.Value{}, err
	}
	arg, err := e.Eval(n.Arg, scope)
	if err != nil {
		return value.Value{}, err
	}
	v, err := e.apply(fn, arg, n.Span())
	if err != nil {
		return value.Value{}, annotateCallName(err, n.Fn)
	}
	return v, nil
}

func annotateCallName(err error, fnExpr ast.Expr) error {
	if id, ok := fnExpr.(*ast.Ident); ok {
		return errs.Annotate(err, id.Name)
	}
	return err
}

// apply dispatches a single-argument application to a user Function or a
// Builtin. Builtins keep their own multi-argument arity/currying bookkeeping
// (applyBuiltin), since native handlers receive their whole argument list at
// once rather than one parameter at a time.
func (e *Evaluator) apply(fn value.Value, arg value.Value, span errs.Span) (value.Value, error) {
	switch fn.Kind {
	case value.KindFunction:
		return e.applyFunction(fn.Func, arg, span)
	case value.KindBuiltin:
		return e.applyBuiltin(fn.Builtin, []value.Value{arg}, span)
	default:
		return value.Value{}, errs.New(errs.KindType, span, errs.ErrNotAFunction, "%s", fn.Kind)
	}
}

// applyFunction binds arg to fn's single parameter in a fresh scope extending
// fn's captured closure, then evaluates the body. If the body itself
// evaluates to another Function (a nested lambda from a multi-parameter
// literal), that Function is returned as-is — this is the entirety of
// Avon's currying, with no parameter-count bookkeeping needed.
func (e *Evaluator) applyFunction(fn *value.Function, arg value.Value, span errs.Span) (value.Value, error) {
	callScope, err := fn.Closure.MustExtend(fn.Param, arg)
	if err != nil {
		return value.Value{}, err
	}
	return e.Eval(fn.Body, callScope)
}

// applyBuiltin implements currying for natively-implemented functions: a
// call supplying fewer than the remaining arity returns a new
// partially-applied Builtin; supplying exactly the remaining arity invokes
// the native handler; more is a user error.
func (e *Evaluator) applyBuiltin(b *value.Builtin, args []value.Value, span errs.Span) (value.Value, error) {
	remaining := b.Arity - len(b.Applied)
	if len(args) > remaining {
		return value.Value{}, errs.New(errs.KindName, span, errs.ErrMissingArgument, "%s: too many arguments", b.Name)
	}
	if len(args) < remaining {
		applied := append(append([]value.Value{}, b.Applied...), args...)
		return value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{
			Name: b.Name, Arity: b.Arity, Fn: b.Fn, Applied: applied,
		}}, nil
	}
	all := append(append([]value.Value{}, b.Applied...), args...)
	v, err := b.Fn(e, all)
	if err != nil {
		return value.Value{}, errs.Annotate(err, b.Name)
	}
	return v, nil
}

// RenderTemplate evaluates a template's fragments against its closure and
// dedents the assembled text per §4.3 step 4: blank leading/trailing lines
// stripped, then the common leading whitespace of the remaining lines
// removed. Dedent applies to template content only, not to paths.
func (e *Evaluator) RenderTemplate(t *value.TemplateVal) (string, error) {
	s, err := template.Render(t.Fragments, t.Closure, e.Eval)
	if err != nil {
		return "", err
	}
	return template.Dedent(s), nil
}

// RenderPath evaluates a path's fragments against its closure, returning the
// flat path text (absolute-ness is carried separately on PathVal).
func (e *Evaluator) RenderPath(p *value.PathVal) (string, error) {
	return template.Render(p.Fragments, p.Closure, e.Eval)
}
