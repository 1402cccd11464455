// Package defuse resolves every variable reference of a tree to the node
// that defines it.
//
// Scoping rules:
//   - Let and Extern bind their name once their value is resolved, for
//     the rest of the enclosing function, quote, escape body or program.
//   - Params bind for the body of their function.
//   - The innermost, most recent binding wins.
//   - Quotes are transparent: a reference inside a quote may resolve to a
//     binding of an outer stage. Whether that crossing is legal is decided
//     elsewhere.
//   - An escape body resolves in the environment just outside the quote
//     it escapes from.
//   - Names bound nowhere fall back to the intrinsics name map.
package defuse

import (
	"errors"
	"fmt"
	"slices"

	"stagec/internal/ast"
	"stagec/internal/diag"
	"stagec/internal/ir"
	"stagec/internal/source"
)

// ErrUnresolved is returned when at least one reference has no definition.
var ErrUnresolved = errors.New("unresolved references")

// NameMap maps intrinsic names to the synthetic ids allocated for them.
type NameMap map[string]ast.NodeID

type env struct {
	names  map[string]ast.NodeID
	parent *env
}

func newEnv(parent *env) *env {
	return &env{names: make(map[string]ast.NodeID), parent: parent}
}

func (e *env) lookup(name string) (ast.NodeID, bool) {
	for ; e != nil; e = e.parent {
		if id, ok := e.names[name]; ok {
			return id, true
		}
	}
	return ast.NoNodeID, false
}

type resolver struct {
	tree  *ast.Tree
	names NameMap
	rep   diag.Reporter
	table ir.DefUseTable

	// outside[i] is the environment just outside the i-th enclosing quote,
	// outermost first.
	outside    []*env
	unresolved int
	lenient    bool
}

// Resolve walks t from its root and returns the def/use table. Every
// unresolved reference is reported through rep; if there was any, the
// table is discarded and the error wraps ErrUnresolved.
func Resolve(t *ast.Tree, names NameMap, rep diag.Reporter) (ir.DefUseTable, error) {
	r := &resolver{
		tree:  t,
		names: names,
		rep:   rep,
		table: make(ir.DefUseTable),
	}
	if t.Root().IsValid() {
		r.visit(t.Root(), newEnv(nil))
	}
	if r.unresolved > 0 {
		return nil, fmt.Errorf("%w: %d reference(s)", ErrUnresolved, r.unresolved)
	}
	return r.table, nil
}

// Bind resolves references against the bindings of t alone. References
// with no binding node, intrinsics included, are left out of the table.
func Bind(t *ast.Tree) ir.DefUseTable {
	r := &resolver{tree: t, table: make(ir.DefUseTable), lenient: true}
	if t.Root().IsValid() {
		r.visit(t.Root(), newEnv(nil))
	}
	return r.table
}

func (r *resolver) visit(id ast.NodeID, e *env) {
	t := r.tree
	switch t.Kind(id) {
	case ast.KindLookup:
		r.resolve(id, e)

	case ast.KindAssign:
		r.children(id, e)
		r.resolve(id, e)

	case ast.KindLet:
		r.children(id, e)
		name, _ := t.Name(id)
		e.names[name] = id

	case ast.KindExtern:
		name, _ := t.Name(id)
		e.names[name] = id

	case ast.KindFun:
		fn, _ := t.Fun(id)
		inner := newEnv(e)
		for _, p := range fn.Params {
			if name, ok := t.Name(p); ok {
				inner.names[name] = p
			}
		}
		r.visit(fn.Body, inner)

	case ast.KindQuote:
		q, _ := t.Quote(id)
		saved := r.outside
		r.outside = append(slices.Clip(r.outside), e)
		r.visit(q.Body, newEnv(e))
		r.outside = saved

	case ast.KindEscape:
		esc, _ := t.Escape(id)
		n := int(esc.Count)
		if n > len(r.outside) {
			r.visit(esc.Body, newEnv(e))
			return
		}
		saved := r.outside
		depth := len(r.outside) - n
		target := r.outside[depth]
		r.outside = r.outside[:depth:depth]
		r.visit(esc.Body, newEnv(target))
		r.outside = saved

	default:
		r.children(id, e)
	}
}

func (r *resolver) children(id ast.NodeID, e *env) {
	for _, child := range r.tree.Children(id) {
		r.visit(child, e)
	}
}

func (r *resolver) resolve(id ast.NodeID, e *env) {
	name, _ := r.tree.Name(id)
	if def, ok := e.lookup(name); ok {
		r.table[id] = def
		return
	}
	if def, ok := r.names[name]; ok {
		r.table[id] = def
		return
	}
	if r.lenient {
		return
	}
	r.unresolved++
	var span source.Span
	if n := r.tree.Get(id); n != nil {
		span = n.Span
	}
	diag.ReportError(r.rep, diag.SemaUnresolvedSymbol, span,
		fmt.Sprintf("unresolved name %q (node #%d)", name, id)).Emit()
}
