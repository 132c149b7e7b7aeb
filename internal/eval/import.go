package eval

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"avon/internal/errs"
	"avon/internal/parser"
	"avon/internal/value"
)

// importCache memoizes a module's evaluated result by resolved absolute
// path, and importStack tracks paths currently being loaded so a cycle
// raises a clear error instead of recursing forever — the same pairing the
// sambeau-parsley evaluator uses in its importModule/evalImport (cache plus
// an in-flight set), adapted here to Avon's single Evaluator instance
// instead of a package-level global.
type importState struct {
	cache map[string]value.Value
	stack []string
}

func (e *Evaluator) importState() *importState {
	if e.imports == nil {
		e.imports = &importState{cache: map[string]value.Value{}}
	}
	return e.imports
}

// Import implements the `import` builtin: it loads, parses, and evaluates
// an Avon source file relative to the evaluator's working directory,
// returning the file's top-level value (conventionally a dict of exported
// bindings, by the caller's own convention — Avon itself does not enforce a
// module shape).
func (e *Evaluator) Import(path string) (value.Value, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.workDir, abs)
	}
	abs = filepath.Clean(abs)

	st := e.importState()
	if v, ok := st.cache[abs]; ok {
		return v, nil
	}
	for _, onStack := range st.stack {
		if onStack == abs {
			return value.Value{}, errs.New(errs.KindIO, errs.Span{}, errs.ErrFileNotFound, "circular import: %s", abs)
		}
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return value.Value{}, errs.New(errs.KindIO, errs.Span{}, errs.ErrFileNotFound, "%s: %v", abs, err)
	}
	expr, err := parser.Parse(string(src))
	if err != nil {
		return value.Value{}, err
	}

	st.stack = append(st.stack, abs)
	sub := &Evaluator{workDir: filepath.Dir(abs), builtins: e.builtins, imports: st}
	v, err := sub.EvalTopLevel(expr)
	st.stack = st.stack[:len(st.stack)-1]
	if err != nil {
		return value.Value{}, err
	}
	st.cache[abs] = v
	return v, nil
}

// ImportGit implements `import_git`: every call makes a fresh shallow clone
// of the repository into a new directory under the OS temp dir (ref, when
// given, names a branch; nothing is cached or reused between calls) and
// imports subpath from within the checkout, using go-git so no external
// `git` binary is required at runtime.
func (e *Evaluator) ImportGit(url, ref, subpath string) (value.Value, error) {
	dir, err := os.MkdirTemp("", "avon-import-git-*")
	if err != nil {
		return value.Value{}, errs.New(errs.KindIO, errs.Span{}, errs.ErrFileNotFound, "%v", err)
	}
	opts := &git.CloneOptions{URL: url, Depth: 1}
	if ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	}
	if _, err := git.PlainClone(dir, false, opts); err != nil {
		return value.Value{}, errs.New(errs.KindNetwork, errs.Span{}, errs.ErrFileNotFound, "import_git %s: %v", url, err)
	}

	prevWorkDir := e.workDir
	e.workDir = dir
	defer func() { e.workDir = prevWorkDir }()

	full := filepath.Join(dir, subpath)
	v, err := e.Import(full)
	if err != nil {
		return value.Value{}, fmt.Errorf("import_git %s: %w", url, err)
	}
	return v, nil
}
