// Package scope computes, for every node of a tree, the innermost
// function and quotation it belongs to, and answers the two questions
// later passes ask of that table: do two nodes share a scope, and does a
// def/use pair cross a stage boundary.
package scope

import (
	"slices"

	"stagec/internal/ast"
	"stagec/internal/ir"
)

// frame is the traversal state: the scope assigned to the current node
// and, for every enclosing quote from the outside in, the scope that was
// current just outside it.
type frame struct {
	cur   ir.Scope
	outer []ir.Scope
}

// Discover walks t from its root and returns a table with an entry for
// every node. Nodes unreachable from the root are recorded at top level.
//
//   - A Fun node keeps the outer scope; its params and body run in it.
//   - A Quote node keeps the outer scope; its body starts a new stage with
//     no enclosing function.
//   - An Escape node of count n keeps the inner scope; its body runs in
//     the scope outside the n-th enclosing quote. Without that many
//     quotes the escape has nowhere to go and its body stays put.
func Discover(t *ast.Tree) ir.ScopeTable {
	table := ir.NewScopeTable(t.Len())
	if t.Root().IsValid() {
		discover(t, table, t.Root(), frame{})
	}
	return table
}

func discover(t *ast.Tree, table ir.ScopeTable, id ast.NodeID, f frame) {
	table.Set(id, f.cur)

	inner := f
	switch t.Kind(id) {
	case ast.KindFun:
		inner.cur = ir.Scope{Func: ir.ProcOf(id), Quote: f.cur.Quote}
	case ast.KindQuote:
		inner = frame{
			cur:   ir.Scope{Quote: ir.ProgOf(id)},
			outer: append(slices.Clip(f.outer), f.cur),
		}
	case ast.KindEscape:
		esc, _ := t.Escape(id)
		if n := int(esc.Count); n <= len(f.outer) {
			depth := len(f.outer) - n
			inner = frame{cur: f.outer[depth], outer: f.outer[:depth:depth]}
		}
	}

	for _, child := range t.Children(id) {
		discover(t, table, child, inner)
	}
}

// SameScope reports whether a and b have equal function and quote
// components. Unknown ids are an internal fault.
func SameScope(table ir.ScopeTable, a, b ast.NodeID) bool {
	return table.MustGet(a) == table.MustGet(b)
}

// CrossStage reports whether resolving use to def crosses a quotation
// boundary. Unknown ids are an internal fault.
func CrossStage(table ir.ScopeTable, def, use ast.NodeID) bool {
	return table.MustGet(def).Quote != table.MustGet(use).Quote
}
