package lift

import (
	"stagec/internal/ast"
	"stagec/internal/defuse"
	"stagec/internal/ir"
	"stagec/internal/scope"
)

// Quotes lifts every quotation of t into a Prog, in ascending id order.
// It looks only at the tree: stages come from scope discovery and names
// are bound structurally, without intrinsics.
//
//   - Subprograms are the quotes whose enclosing stage is this one,
//     escapes taken into account.
//   - Persist and Splice list the escapes made from this quote's code,
//     including those inside functions defined in it.
//   - Bound are the Let and Extern nodes at the quote's own level; those
//     inside a function belong to its Proc.
//   - CSR are the references at the quote's own level whose binding is a
//     Let or Param of another stage. Externs and unbound names have no
//     stage.
func Quotes(t *ast.Tree) []*ir.Prog {
	nodes := reachable(t)
	scopes := scope.Discover(t)
	binds := defuse.Bind(t)

	var progs []*ir.Prog
	byID := map[ir.ProgID]*ir.Prog{}
	for _, id := range nodes {
		q, ok := t.Quote(id)
		if !ok {
			continue
		}
		p := &ir.Prog{ID: ir.ProgOf(id), Body: q.Body, Annotation: q.Annotation}
		progs = append(progs, p)
		byID[p.ID] = p
	}
	prog := func(id ir.ProgID) *ir.Prog {
		p, ok := byID[id]
		if !ok {
			ir.Faultf("scope names quote %d, which was not lifted", id)
		}
		return p
	}
	// level is the Prog whose own code holds a node with scope s, or nil.
	level := func(s ir.Scope) *ir.Prog {
		if s.Func.IsValid() || !s.Quote.IsValid() {
			return nil
		}
		return prog(s.Quote)
	}

	for _, id := range nodes {
		s := scopes.MustGet(id)
		switch t.Kind(id) {
		case ast.KindQuote:
			if s.Quote.IsValid() {
				parent := prog(s.Quote)
				parent.Subprograms = append(parent.Subprograms, ir.ProgOf(id))
			}

		case ast.KindEscape:
			if !s.Quote.IsValid() {
				continue
			}
			esc, _ := t.Escape(id)
			p := prog(s.Quote)
			e := ir.ProgEscape{ID: id, Body: esc.Body}
			if esc.Kind == ast.EscapePersist {
				p.Persist = append(p.Persist, e)
			} else {
				p.Splice = append(p.Splice, e)
			}

		case ast.KindLet, ast.KindExtern:
			if p := level(s); p != nil {
				p.Bound = append(p.Bound, id)
			}

		case ast.KindLookup, ast.KindAssign:
			p := level(s)
			if p == nil {
				continue
			}
			def, ok := binds.Def(id)
			if !ok {
				continue
			}
			switch t.Kind(def) {
			case ast.KindLet, ast.KindParam:
				if scope.CrossStage(scopes, def, id) {
					p.CSR = append(p.CSR, id)
				}
			}
		}
	}
	return progs
}
