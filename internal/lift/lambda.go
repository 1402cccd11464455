package lift

import (
	"stagec/internal/ast"
	"stagec/internal/ir"
	"stagec/internal/scope"
)

// Lambdas closure-converts every function of t. It returns one Proc per
// Fun node in ascending id order, and main, the Proc for the top level.
//
// The extern table must be final: references to externs and intrinsics
// never become free variables.
//
//   - Params are the Fun's Param nodes in order.
//   - Bound are the Let nodes whose innermost function is the Proc. For
//     main that is every Let outside all functions and quotes.
//   - Free are the definitions a Proc's body uses from an enclosing
//     function, in first-use order. A definition captured by a nested
//     function is also free in every function between it and its owner.
//     Cross-stage uses are left to CSR.
//   - CSR are the references in the Proc's own stage whose definition is
//     in another stage.
//   - Persists are the persist escapes whose body the Proc evaluates,
//     directly or through functions nested in the same stage.
func Lambdas(t *ast.Tree, defuse ir.DefUseTable, scopes ir.ScopeTable, externs ir.ExternTable) ([]*ir.Proc, *ir.Proc) {
	nodes := reachable(t)

	main := &ir.Proc{ID: ir.NoProcID, Body: t.Root()}
	var procs []*ir.Proc
	byID := map[ir.ProcID]*ir.Proc{ir.NoProcID: main}
	for _, id := range nodes {
		fn, ok := t.Fun(id)
		if !ok {
			continue
		}
		p := &ir.Proc{ID: ir.ProcOf(id), Body: fn.Body, Params: append([]ast.NodeID(nil), fn.Params...)}
		procs = append(procs, p)
		byID[p.ID] = p
	}
	proc := func(id ir.ProcID) *ir.Proc {
		p, ok := byID[id]
		if !ok {
			ir.Faultf("scope names function %d, which was not lifted", id)
		}
		return p
	}
	// ownerOf is the Proc whose body runs at s, or nil for quote-level code.
	ownerOf := func(s ir.Scope) *ir.Proc {
		if !s.Func.IsValid() && s.Quote.IsValid() {
			return nil
		}
		return proc(s.Func)
	}

	for _, id := range nodes {
		s := scopes.MustGet(id)
		switch t.Kind(id) {
		case ast.KindLet:
			if p := ownerOf(s); p != nil {
				p.Bound = append(p.Bound, id)
			}

		case ast.KindLookup, ast.KindAssign:
			def, ok := defuse.Def(id)
			if !ok {
				ir.Faultf("reference %d has no definition", id)
			}
			if _, ext := externs.Name(def); ext {
				continue
			}
			if scope.CrossStage(scopes, def, id) {
				if p := ownerOf(s); p != nil {
					p.CSR = append(p.CSR, id)
				}
				continue
			}
			owner := scopes.MustGet(def).Func
			for f := s.Func; f.IsValid() && f != owner; f = scopes.MustGet(f.Node()).Func {
				p := proc(f)
				p.Free = addUnique(p.Free, def)
			}

		case ast.KindEscape:
			esc, _ := t.Escape(id)
			if esc.Kind != ast.EscapePersist {
				continue
			}
			at := scopes.MustGet(esc.Body)
			for f := at.Func; ; f = scopes.MustGet(f.Node()).Func {
				if p := ownerOf(ir.Scope{Func: f, Quote: at.Quote}); p != nil {
					p.Persists = append(p.Persists, id)
				}
				if !f.IsValid() {
					break
				}
			}
		}
	}
	return procs, main
}
