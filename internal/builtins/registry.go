// Package builtins implements Avon's closed standard library: every name
// bound at the root scope that is not a keyword. The registry is built once
// and handed to every Evaluator; builtins never see an ast.Expr, only
// value.Value arguments and a value.Caller back-channel for invoking Avon
// functions or importing other modules.
//
// Organized the way the teacher organizes its own closed registry
// (dsl/registry.go builds one map[string]*TypeDef up front from a set of
// constructor calls, rather than a runtime plugin mechanism) — Avon has no
// notion of third-party builtins, so Registry returns the same fixed map
// every time.
package builtins

import "avon/internal/value"

func fn(name string, arity int, f value.BuiltinFunc) value.Value {
	return value.Value{Kind: value.KindBuiltin, Builtin: &value.Builtin{Name: name, Arity: arity, Fn: f}}
}

// Registry returns the full builtin binding table, keyed by name as it
// appears in Avon source.
func Registry() map[string]value.Value {
	reg := map[string]value.Value{}
	add := func(m map[string]value.Value) {
		for k, v := range m {
			reg[k] = v
		}
	}
	add(typeBuiltins())
	add(stringBuiltins())
	add(listBuiltins())
	add(dictBuiltins())
	add(mathBuiltins())
	add(formatBuiltins())
	add(parallelBuiltins())
	add(miscBuiltins())
	return reg
}
