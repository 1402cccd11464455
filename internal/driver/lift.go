// Package driver runs the IR assembler over files: load, read the tree,
// analyse, validate and cache, one unit per file.
package driver

import (
	"context"
	"errors"
	"fmt"

	"stagec/internal/analyze"
	"stagec/internal/ast"
	"stagec/internal/cache"
	"stagec/internal/diag"
	"stagec/internal/ir"
	"stagec/internal/observ"
	"stagec/internal/source"
	"stagec/internal/trace"
	"stagec/internal/treefmt"
	"stagec/internal/types"
)

// IntrinsicDecl is an intrinsic as written in configuration: a name and
// a type expression such as "(fun (int) int)".
type IntrinsicDecl struct {
	Name string
	Type string
}

func (d IntrinsicDecl) String() string { return d.Name + " " + d.Type }

// Options configures LiftFile and LiftFiles.
type Options struct {
	Intrinsics     []IntrinsicDecl
	Validate       bool
	Cache          *cache.DiskCache // nil disables caching
	Jobs           int              // <= 0 means GOMAXPROCS
	MaxDiagnostics int
	EnableTimings  bool
}

// Result is the outcome of one unit. IR is nil when the unit had errors;
// they are in Bag.
type Result struct {
	Path    string
	FileID  source.FileID
	FileSet *source.FileSet
	IR      *ir.CompilerIR
	Bag     *diag.Bag
	Timing  *observ.Timer
	Cached  bool
}

// OK reports whether the unit produced IR without errors.
func (r *Result) OK() bool {
	return r != nil && r.IR != nil && !r.Bag.HasErrors()
}

// LiftFile assembles the IR of the tree stored at path.
func LiftFile(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return liftUnit(ctx, fs, fileID, opts, nil)
}

func liftUnit(ctx context.Context, fs *source.FileSet, fileID source.FileID, opts Options, m *metrics) (*Result, error) {
	file := fs.Get(fileID)
	span, ctx := trace.Start(ctx, trace.ScopeUnit, file.Path)
	defer span.End("")

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	res := &Result{
		Path:    file.Path,
		FileID:  fileID,
		FileSet: fs,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Timing:  timer,
	}
	rep := diag.BagReporter{Bag: res.Bag}

	var key cache.Key
	if opts.Cache != nil {
		decls := make([]string, len(opts.Intrinsics))
		for i, d := range opts.Intrinsics {
			decls[i] = d.String()
		}
		key = cache.KeyFor(file.Content, decls...)
		idx := timer.Begin("cache_lookup")
		cached, ok, err := opts.Cache.Get(key)
		timer.End(idx, "")
		if err != nil {
			return nil, err
		}
		if ok {
			m.hit()
			span.WithExtra("cache", "hit")
			res.IR, res.Cached = cached, true
			return res, nil
		}
		m.miss()
	}

	idx := timer.Begin("read")
	tree, err := treefmt.Read(fs, fileID, rep)
	timer.End(idx, fmt.Sprintf("nodes=%d", treeLen(tree)))
	if errors.Is(err, treefmt.ErrSyntax) {
		m.fail()
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	in := types.NewInterner()
	intrinsics := make([]analyze.Intrinsic, 0, len(opts.Intrinsics))
	for _, d := range opts.Intrinsics {
		typ, err := treefmt.ParseType(d.Type, in)
		if err != nil {
			return nil, fmt.Errorf("intrinsic %s: %w", d.Name, err)
		}
		intrinsics = append(intrinsics, analyze.Intrinsic{Name: d.Name, Type: typ})
	}
	table := types.Uniform(in, tree.Len(), in.Builtins().Any)

	unit, err := analyze.Analyze(ctx, tree, table, intrinsics, analyze.Options{Reporter: rep, Timer: timer})
	switch {
	case err == nil:
	case errors.Is(err, analyze.ErrInternal):
		m.fail()
		diag.ReportError(rep, diag.InternalFault, source.Span{File: fileID}, err.Error()).Emit()
		return res, nil
	case ctx.Err() != nil:
		return nil, err
	default:
		// unresolved names; already reported
		m.fail()
		return res, nil
	}

	if opts.Validate {
		idx := timer.Begin("validate")
		err := ir.Validate(unit)
		timer.End(idx, "")
		if err != nil {
			m.fail()
			b := diag.ReportError(rep, diag.InternalValidation, source.Span{File: fileID}, "assembled IR is inconsistent")
			for _, e := range splitJoined(err) {
				b.WithNote(source.Span{File: fileID}, e.Error())
			}
			b.Emit()
			return res, nil
		}
	}

	if opts.Cache != nil {
		idx := timer.Begin("cache_store")
		err := opts.Cache.Put(key, unit)
		timer.End(idx, "")
		if err != nil {
			return nil, err
		}
	}
	res.IR = unit
	return res, nil
}

func treeLen(t *ast.Tree) uint32 {
	if t == nil {
		return 0
	}
	return t.Len()
}

// splitJoined unwraps an errors.Join result into its parts.
func splitJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, splitJoined(e)...)
		}
		return out
	}
	return []error{err}
}
