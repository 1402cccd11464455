package analyze

import (
	"maps"

	"stagec/internal/ast"
	"stagec/internal/fold"
	"stagec/internal/ir"
)

// genFindExterns is the open-recursive extern collector: structural
// recursion everywhere, except at Extern nodes, which record their name
// in a copy of the accumulator.
func genFindExterns(self fold.Func[ir.ExternTable]) fold.Func[ir.ExternTable] {
	rules := fold.Compose(fold.FoldRules(self), fold.Rules[ir.ExternTable]{
		Extern: func(t *ast.Tree, id ast.NodeID, acc ir.ExternTable) ir.ExternTable {
			ext, _ := t.Extern(id)
			out := maps.Clone(acc)
			if out == nil {
				out = ir.ExternTable{}
			}
			out[id] = ext.Name
			if ext.Expansion != "" {
				out[id] = ext.Expansion
			}
			return out
		},
	})
	return func(t *ast.Tree, id ast.NodeID, acc ir.ExternTable) ir.ExternTable {
		return fold.Visit(rules, t, id, acc)
	}
}

var findExterns = fold.Fix(genFindExterns)

// FindExterns maps every extern declaration of t to its external name:
// the declared expansion, or the identifier when there is none.
func FindExterns(t *ast.Tree) ir.ExternTable {
	out := findExterns(t, t.Root(), ir.ExternTable{})
	if out == nil {
		return ir.ExternTable{}
	}
	return out
}
