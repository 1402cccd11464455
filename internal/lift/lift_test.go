package lift_test

import (
	"slices"
	"testing"

	"stagec/internal/ast"
	"stagec/internal/defuse"
	"stagec/internal/ir"
	"stagec/internal/lift"
	"stagec/internal/scope"
	"stagec/internal/treefmt"
)

type unit struct {
	tree    *ast.Tree
	scopes  ir.ScopeTable
	defuse  ir.DefUseTable
	externs ir.ExternTable
}

func load(t *testing.T, src string) *unit {
	t.Helper()
	tr, err := treefmt.ReadString("unit.st", src, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	du, err := defuse.Resolve(tr, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	externs := ir.ExternTable{}
	tr.Walk(tr.Root(), func(id ast.NodeID) bool {
		if ext, ok := tr.Extern(id); ok {
			externs[id] = ext.Name
		}
		return true
	})
	return &unit{tree: tr, scopes: scope.Discover(tr), defuse: du, externs: externs}
}

// find returns the n-th node (0-based, pre-order) of kind, optionally
// carrying name.
func (u *unit) find(t *testing.T, kind ast.Kind, name string, n int) ast.NodeID {
	t.Helper()
	var hits []ast.NodeID
	u.tree.Walk(u.tree.Root(), func(id ast.NodeID) bool {
		if u.tree.Kind(id) != kind {
			return true
		}
		if got, _ := u.tree.Name(id); name == "" || got == name {
			hits = append(hits, id)
		}
		return true
	})
	if n >= len(hits) {
		t.Fatalf("no %s %q #%d in tree", kind, name, n)
	}
	return hits[n]
}

func procByID(t *testing.T, procs []*ir.Proc, id ast.NodeID) *ir.Proc {
	t.Helper()
	for _, p := range procs {
		if p.ID == ir.ProcOf(id) {
			return p
		}
	}
	t.Fatalf("no proc for node %d", id)
	return nil
}

func same(t *testing.T, what string, got, want []ast.NodeID) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
}

func TestLambdasCaptureTransitively(t *testing.T) {
	u := load(t, `
(seq
  (extern log)
  (let a 1)
  (let outer (fun (x)
    (let b 2)
    (let inner (fun (y) (call log (binary + a (binary + x y)))))
    (call inner b)))
  (call outer a))`)
	procs, main := lift.Lambdas(u.tree, u.defuse, u.scopes, u.externs)

	outerFn := u.find(t, ast.KindFun, "", 0)
	innerFn := u.find(t, ast.KindFun, "", 1)
	if len(procs) != 2 || procs[0].ID >= procs[1].ID {
		t.Fatalf("expected two procs in ascending order, got %d", len(procs))
	}
	letA := u.find(t, ast.KindLet, "a", 0)
	x := u.find(t, ast.KindParam, "x", 0)

	outer := procByID(t, procs, outerFn)
	same(t, "outer.Params", outer.Params, []ast.NodeID{x})
	same(t, "outer.Bound", outer.Bound, []ast.NodeID{u.find(t, ast.KindLet, "b", 0), u.find(t, ast.KindLet, "inner", 0)})
	same(t, "outer.Free", outer.Free, []ast.NodeID{letA})

	inner := procByID(t, procs, innerFn)
	same(t, "inner.Params", inner.Params, []ast.NodeID{u.find(t, ast.KindParam, "y", 0)})
	same(t, "inner.Free", inner.Free, []ast.NodeID{letA, x})

	if !main.IsMain() || main.Body != u.tree.Root() {
		t.Fatalf("main = %+v", main)
	}
	same(t, "main.Bound", main.Bound, []ast.NodeID{letA, u.find(t, ast.KindLet, "outer", 0)})
	if len(main.Free) != 0 {
		t.Fatalf("main cannot capture, got %v", main.Free)
	}
	for _, p := range append(procs, main) {
		for _, f := range p.Free {
			if slices.Contains(p.Params, f) || slices.Contains(p.Bound, f) {
				t.Fatalf("proc %d: free %d is also local", p.ID, f)
			}
		}
	}
}

func TestLambdasStageData(t *testing.T) {
	u := load(t, `
(seq
  (let n 1)
  (fun (k)
    (quote js
      (seq
        (let z (persist k))
        (let w n)
        (fun () (binary + z n))))))`)
	procs, main := lift.Lambdas(u.tree, u.defuse, u.scopes, u.externs)

	outer := procByID(t, procs, u.find(t, ast.KindFun, "", 0))
	inner := procByID(t, procs, u.find(t, ast.KindFun, "", 1))
	persist := u.find(t, ast.KindEscape, "", 0)

	same(t, "outer.Persists", outer.Persists, []ast.NodeID{persist})
	same(t, "main.Persists", main.Persists, []ast.NodeID{persist})
	if len(outer.Bound) != 0 {
		t.Fatalf("lets inside the quote do not belong to the function: %v", outer.Bound)
	}
	same(t, "inner.Free", inner.Free, []ast.NodeID{u.find(t, ast.KindLet, "z", 0)})
	same(t, "inner.CSR", inner.CSR, []ast.NodeID{u.find(t, ast.KindLookup, "n", 1)})
	same(t, "main.Bound", main.Bound, []ast.NodeID{u.find(t, ast.KindLet, "n", 0)})
}

func TestLambdasFaultOnMissingDefinition(t *testing.T) {
	u := load(t, `(let x 1) (fun () x)`)
	delete(u.defuse, u.find(t, ast.KindLookup, "x", 0))
	defer func() {
		if _, ok := recover().(*ir.Fault); !ok {
			t.Fatalf("expected an internal fault")
		}
	}()
	lift.Lambdas(u.tree, u.defuse, u.scopes, u.externs)
}

func TestQuotesStructure(t *testing.T) {
	u := load(t, `
(quote a
  (seq
    (let v 1)
    (quote b (seq (splice v) (fun () v)))
    (splice (quote c 3))))`)
	progs := lift.Quotes(u.tree)
	if len(progs) != 3 {
		t.Fatalf("expected 3 progs, got %d", len(progs))
	}
	for i := 1; i < len(progs); i++ {
		if progs[i-1].ID >= progs[i].ID {
			t.Fatalf("progs not ascending")
		}
	}
	byAnn := map[string]*ir.Prog{}
	for _, p := range progs {
		byAnn[p.Annotation] = p
	}
	a, b, c := byAnn["a"], byAnn["b"], byAnn["c"]

	if !slices.Equal(a.Subprograms, []ir.ProgID{b.ID}) {
		t.Fatalf("a.Subprograms = %v; a quote spliced out of a runs in the outer stage", a.Subprograms)
	}
	if len(b.Subprograms) != 0 || len(c.Subprograms) != 0 {
		t.Fatalf("leaf progs have subprograms")
	}
	same(t, "a.Bound", a.Bound, []ast.NodeID{u.find(t, ast.KindLet, "v", 0)})
	if len(a.Splice) != 1 || a.Splice[0].Body != c.ID.Node() {
		t.Fatalf("a.Splice = %+v", a.Splice)
	}
	if len(b.Splice) != 1 || len(b.Persist) != 0 {
		t.Fatalf("b escapes = %+v / %+v", b.Splice, b.Persist)
	}
	if len(b.CSR) != 0 {
		t.Fatalf("b.CSR = %v; the only cross-stage use is inside a function", b.CSR)
	}
}

func TestQuotesCSRIgnoresExterns(t *testing.T) {
	u := load(t, `
(seq
  (extern print)
  (let n 1)
  (quote (seq (call print n) (let m 2) m)))`)
	progs := lift.Quotes(u.tree)
	if len(progs) != 1 {
		t.Fatalf("progs = %d", len(progs))
	}
	p := progs[0]
	same(t, "CSR", p.CSR, []ast.NodeID{u.find(t, ast.KindLookup, "n", 0)})
	same(t, "Bound", p.Bound, []ast.NodeID{u.find(t, ast.KindLet, "m", 0)})
}
