// Package analyze assembles the mid-level IR of one unit: it registers
// intrinsics, discovers scopes, resolves names, collects externs, lifts
// functions and quotations and groups the lifted functions by quote.
package analyze

import (
	"context"
	"errors"
	"fmt"

	"stagec/internal/ast"
	"stagec/internal/defuse"
	"stagec/internal/diag"
	"stagec/internal/ir"
	"stagec/internal/lift"
	"stagec/internal/observ"
	"stagec/internal/scope"
	"stagec/internal/trace"
	"stagec/internal/types"
)

// ErrInternal wraps internal-consistency faults raised while assembling.
var ErrInternal = errors.New("internal compiler error")

// Options configures Analyze. The zero value is valid.
type Options struct {
	// Reporter receives unresolved-name diagnostics.
	Reporter diag.Reporter
	// Timer, when set, records one phase per step.
	Timer *observ.Timer
}

// Analyze builds the IR of tree. The type table must already hold an
// entry slot for every node; intrinsic entries are appended to it and
// the table must not be mutated afterwards.
//
// The steps always run in the same order and none is skipped. Any failure
// aborts the whole analysis and no IR is returned.
func Analyze(ctx context.Context, tree *ast.Tree, table *types.Table, intrinsics []Intrinsic, opts Options) (c *ir.CompilerIR, err error) {
	if tree == nil || table == nil {
		return nil, fmt.Errorf("%w: nil tree or type table", ErrInternal)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if table.Len() <= tree.Len() {
		return nil, fmt.Errorf("%w: type table has %d slots for %d nodes", ErrInternal, table.Len(), tree.Len())
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		f, ok := r.(*ir.Fault)
		if !ok {
			panic(r)
		}
		c, err = nil, fmt.Errorf("%w: %w", ErrInternal, f)
	}()

	p := pipeline{ctx: ctx, timer: opts.Timer}
	var (
		names   NameMap
		scopes  ir.ScopeTable
		du      ir.DefUseTable
		externs ir.ExternTable
		procs   []*ir.Proc
		main    *ir.Proc
		progs   []*ir.Prog
	)

	first := ast.NodeID(table.Len())
	p.step("intrinsics", func() string {
		names = RegisterIntrinsics(table, intrinsics)
		return fmt.Sprintf("n=%d", len(intrinsics))
	})

	p.step("scopes", func() string {
		scopes = scope.Discover(tree)
		return fmt.Sprintf("nodes=%d", scopes.Len())
	})

	var resolveErr error
	p.step("defuse", func() string {
		du, resolveErr = defuse.Resolve(tree, names, opts.Reporter)
		return fmt.Sprintf("uses=%d", len(du))
	})
	if resolveErr != nil {
		return nil, resolveErr
	}

	p.step("externs", func() string {
		externs = FindExterns(tree)
		// intrinsics are externs without a declaration node
		for i, in := range intrinsics {
			externs[first+ast.NodeID(i)] = in.Name // #nosec G115 -- bounded by table.Len
		}
		return fmt.Sprintf("n=%d", len(externs))
	})

	p.step("lambdas", func() string {
		procs, main = lift.Lambdas(tree, du, scopes, externs)
		return fmt.Sprintf("procs=%d", len(procs))
	})

	p.step("quotes", func() string {
		progs = lift.Quotes(tree)
		return fmt.Sprintf("progs=%d", len(progs))
	})

	var (
		toplevel []ir.ProcID
		quoted   map[ir.ProgID][]ir.ProcID
	)
	p.step("group", func() string {
		toplevel, quoted = GroupByProg(procs, progs, scopes)
		return fmt.Sprintf("toplevel=%d", len(toplevel))
	})

	if trace.FromContext(ctx).Level().ShouldEmit(trace.ScopeNode) {
		for _, proc := range procs {
			trace.Point(ctx, trace.ScopeNode, fmt.Sprintf("proc #%d", proc.ID),
				fmt.Sprintf("free=%d bound=%d persists=%d", len(proc.Free), len(proc.Bound), len(proc.Persists)))
		}
		for _, prog := range progs {
			trace.Point(ctx, trace.ScopeNode, fmt.Sprintf("prog #%d", prog.ID),
				fmt.Sprintf("persist=%d splice=%d subprograms=%d", len(prog.Persist), len(prog.Splice), len(prog.Subprograms)))
		}
	}

	return &ir.CompilerIR{
		DefUse:        du,
		Procs:         procs,
		Main:          main,
		Progs:         progs,
		ToplevelProcs: toplevel,
		QuotedProcs:   quoted,
		Types:         table,
		Externs:       externs,
		Scopes:        scopes,
	}, nil
}

type pipeline struct {
	ctx   context.Context
	timer *observ.Timer
}

// step runs fn as one pass span and one timer phase. fn returns the note
// attached to both.
func (p pipeline) step(name string, fn func() string) {
	span, _ := trace.Start(p.ctx, trace.ScopePass, name)
	idx := p.timer.Begin(name)
	note := "fault"
	defer func() {
		p.timer.End(idx, note)
		span.End(note)
	}()
	note = fn()
}
