package driver

import (
	"context"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"stagec/internal/diag"
	"stagec/internal/source"
	"stagec/internal/trace"
)

// LiftFiles assembles one unit per path. Units run in parallel, at most
// opts.Jobs at a time; each unit is single-threaded. Results come back in
// the order of paths. A file that cannot be loaded yields a result with an
// I/O diagnostic instead of failing the batch.
func LiftFiles(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "lift_files")
	m := &metrics{}
	defer func() {
		span.WithExtra("units", strconv.Itoa(len(paths)))
		for k, v := range m.extras() {
			span.WithExtra(k, v)
		}
		span.End("")
	}()

	// FileSet.Add is not synchronised: load everything up front.
	fs := source.NewFileSet()
	fileIDs := make([]source.FileID, len(paths))
	loadErrors := make(map[int]error)
	for i, path := range paths {
		id, err := fs.Load(path)
		if err != nil {
			loadErrors[i] = err
			continue
		}
		fileIDs[i] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine owns its index
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, failed := loadErrors[i]; failed {
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.IOLoadFileError,
					Message:  "failed to load file: " + loadErr.Error(),
				})
				m.fail()
				// the span's zero file id must not resolve into fs
				results[i] = &Result{Path: path, FileSet: source.NewFileSet(), Bag: bag}
				return nil
			}

			res, err := liftUnit(gctx, fs, fileIDs[i], opts, m)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
