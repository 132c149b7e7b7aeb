// Package deploy implements Avon's atomic, five-phase file deployer: a
// top-level evaluation result describing a set of files is turned into
// writes on disk only after every file in the set has been resolved,
// classified, and pre-flight checked — matching the "all phases must
// succeed before any file is written" invariant in the design.
//
// The phase split (collect, resolve, classify, pre-flight, materialize)
// mirrors the teacher's own three-phase Engine.Build (validateRawTree,
// expandRoot, validateRuntimeTree): each phase is a separate pass over the
// same collected data, and a failure in an earlier phase never lets a later
// one run.
package deploy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"avon/internal/errs"
	"avon/internal/value"
)

// Mode selects, for the whole deploy invocation, how an existing file at a
// target path is handled. The zero value is the default described in
// spec.md §4.7 phase 3: an existing target is skipped with a diagnostic,
// not silently and not overwritten.
type Mode string

const (
	ModeForce       Mode = "force"
	ModeBackup      Mode = "backup"
	ModeAppend      Mode = "append"
	ModeIfNotExists Mode = "if_not_exists"
)

// Item is one file to materialize, after its path and content templates
// have been rendered to plain strings.
type Item struct {
	Path    string
	Content string
}

// plan is an Item after classification: the concrete action to take and,
// for backup mode, where the pre-existing file will be copied to.
type plan struct {
	Item
	action     string // "write", "skip", "append"
	backupPath string
}

// Renderer resolves a value.PathVal/value.TemplateVal pair to plain text;
// supplied by the caller (cmd/avon) since rendering needs an Evaluator,
// which this package must not import to avoid a cycle back through
// builtins.
type Renderer interface {
	RenderPath(p *value.PathVal) (string, error)
	RenderTemplate(t *value.TemplateVal) (string, error)
}

// Deployer runs the five-phase pipeline against a root directory. Every
// resolved path is required to stay within Root, per ErrPathEscapesRoot.
type Deployer struct {
	Root   string
	Render Renderer

	// Mode applies uniformly to every file in the invocation, per spec.md
	// §4.7 phase 3 — there is no per-file mode. The zero value is the
	// skip-with-diagnostic default.
	Mode Mode

	// Progress, if set, is called once per phase transition and once per
	// file actually written, letting a caller drive a live status display
	// (cmd/avon wires this to a bubbletea program) without this package
	// knowing anything about terminal UI.
	Progress func(msg string)
}

func (d *Deployer) report(msg string) {
	if d.Progress != nil {
		d.Progress(msg)
	}
}

// New returns a Deployer rooted at root (an absolute or cwd-relative
// directory every deployed file must stay inside).
func New(root string, r Renderer) *Deployer {
	return &Deployer{Root: root, Render: r}
}

// Collect walks a top-level Avon value looking for FileTemplate values,
// nested arbitrarily deep inside lists and dicts, per spec.md §4.7's input
// contract: a FileTemplate, or a List whose elements are each a FileTemplate
// or a List thereof (flattened). Dicts are walked too, since a program may
// group file targets under named keys; the deploy mode that applies to
// every discovered file comes from the Deployer, not from the value tree.
func Collect(v value.Value) []*value.FileTemplateVal {
	var out []*value.FileTemplateVal
	var walk func(value.Value)
	walk = func(v value.Value) {
		switch v.Kind {
		case value.KindFileTemplate:
			out = append(out, v.File)
		case value.KindList:
			for _, it := range v.List.Items {
				walk(it)
			}
		case value.KindDict:
			for _, k := range v.Dict.Keys {
				walk(v.Dict.Index[k])
			}
		}
	}
	walk(v)
	return out
}

// Deploy runs all five phases against the file_template values found in
// root. It never writes a single byte unless every phase through
// pre-flight succeeds for every file.
func (d *Deployer) Deploy(root value.Value) error {
	fts := Collect(root)
	d.report(fmt.Sprintf("collected %d file target(s)", len(fts)))

	items, err := d.resolve(fts)
	if err != nil {
		return err
	}
	d.report(fmt.Sprintf("resolved %d path(s)", len(items)))

	plans, err := d.classify(items)
	if err != nil {
		return err
	}
	d.report("classified write/skip/append/backup actions")

	if err := d.preflight(plans); err != nil {
		return err
	}
	d.report("pre-flight checks passed")

	return d.materialize(plans)
}

// resolve renders every path/template pair to plain strings and validates
// each against spec.md §4.7 phase 2: when Root is set, at most one leading
// "/" is stripped from an absolute path before joining it under Root, and
// the joined result is rejected if it escapes Root; when Root is empty, an
// absolute path (or one escaping via "..") is rejected outright rather than
// resolved against anything.
func (d *Deployer) resolve(fts []*value.FileTemplateVal) ([]Item, error) {
	var merr *multierror.Error
	items := make([]Item, 0, len(fts))
	for _, ft := range fts {
		pathStr, err := d.Render.RenderPath(ft.Path)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		content, err := d.Render.RenderTemplate(ft.Template)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		abs, err := d.resolvePath(pathStr, ft.Path.Absolute)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		items = append(items, Item{Path: abs, Content: content})
	}
	if merr.ErrorOrNil() != nil {
		return nil, merr
	}
	return items, nil
}

// resolvePath implements spec.md §4.7 phase 2's two cases, distinguished by
// whether a deploy root was actually given (d.Root == "" means none was).
func (d *Deployer) resolvePath(pathStr string, absolute bool) (string, error) {
	if d.Root == "" {
		if absolute || hasDotDotSegment(pathStr) {
			return "", errs.New(errs.KindIO, errs.Span{}, errs.ErrPathEscapesRoot, "%s: absolute paths and .. segments require --root", pathStr)
		}
		return filepath.Clean(pathStr), nil
	}

	if hasDotDotSegment(pathStr) {
		return "", errs.New(errs.KindIO, errs.Span{}, errs.ErrPathEscapesRoot, "%s: .. segments are not allowed", pathStr)
	}
	rel := pathStr
	if absolute {
		rel = strings.TrimPrefix(rel, "/")
	}
	abs := filepath.Clean(filepath.Join(d.Root, rel))
	if !within(d.Root, abs) {
		return "", errs.New(errs.KindIO, errs.Span{}, errs.ErrPathEscapesRoot, "%s", abs)
	}
	return abs, nil
}

func hasDotDotSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".." && (len(rel) == 2 || rel[2] == filepath.Separator)
}

// classify determines, for each item, whether an existing file changes the
// action taken, applying d.Mode uniformly across the whole batch per
// spec.md §4.7 phase 3: the default (Mode == "") skips an existing target
// with a diagnostic, --if-not-exists skips the same way but silently,
// --backup schedules a copy of the existing file before it's overwritten,
// --append reads the existing content forward into the new content instead
// of replacing it, and --force always overwrites.
func (d *Deployer) classify(items []Item) ([]plan, error) {
	var merr *multierror.Error
	plans := make([]plan, 0, len(items))
	for _, it := range items {
		_, statErr := os.Stat(it.Path)
		exists := statErr == nil

		p := plan{Item: it, action: "write"}
		switch d.Mode {
		case ModeIfNotExists:
			if exists {
				p.action = "skip"
			}
		case ModeBackup:
			if exists {
				p.backupPath = it.Path + ".bak"
			}
		case ModeAppend:
			if exists {
				existing, err := os.ReadFile(it.Path)
				if err != nil {
					merr = multierror.Append(merr, err)
					continue
				}
				p.Content = string(existing) + it.Content
			}
		case ModeForce:
			// always overwrite
		default:
			if exists {
				p.action = "skip"
				d.report(fmt.Sprintf("skipping existing file %s (pass --force, --backup, --append, or --if-not-exists to change this)", it.Path))
			}
		}
		plans = append(plans, p)
	}
	if merr.ErrorOrNil() != nil {
		return nil, merr
	}
	return plans, nil
}

// preflight probes that every directory a "write" plan needs can be created
// and is writable, without writing the final file content yet, so a
// permissions problem on file N doesn't leave files 1..N-1 already on disk.
func (d *Deployer) preflight(plans []plan) error {
	var merr *multierror.Error
	for _, p := range plans {
		if p.action == "skip" {
			continue
		}
		dir := filepath.Dir(p.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			merr = multierror.Append(merr, errs.New(errs.KindIO, errs.Span{}, errs.ErrPreflightFailed, "%s: %v", dir, err))
			continue
		}
		probe, err := os.CreateTemp(dir, ".avon-preflight-*")
		if err != nil {
			merr = multierror.Append(merr, errs.New(errs.KindIO, errs.Span{}, errs.ErrPreflightFailed, "%s: %v", dir, err))
			continue
		}
		probe.Close()
		os.Remove(probe.Name())
	}
	return merr.ErrorOrNil()
}

// materialize performs the actual writes. Backups are copied first so a
// mid-batch failure still leaves a usable backup for files already written.
func (d *Deployer) materialize(plans []plan) error {
	var merr *multierror.Error
	for _, p := range plans {
		if p.action == "skip" {
			continue
		}
		if p.backupPath != "" {
			if err := copyFile(p.Path, p.backupPath); err != nil {
				merr = multierror.Append(merr, errs.New(errs.KindIO, errs.Span{}, errs.ErrBackupFailed, "%s: %v", p.Path, err))
				continue
			}
		}
		if err := os.WriteFile(p.Path, []byte(p.Content), 0o644); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("write %s: %w", p.Path, err))
			continue
		}
		d.report(fmt.Sprintf("wrote %s", p.Path))
	}
	return merr.ErrorOrNil()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
