// Package lift turns the nested functions and quotations of a tree into
// flat Procs and Progs.
package lift

import (
	"slices"

	"stagec/internal/ast"
)

// reachable returns the ids of every node under the root, ascending.
func reachable(t *ast.Tree) []ast.NodeID {
	var out []ast.NodeID
	t.Walk(t.Root(), func(id ast.NodeID) bool {
		out = append(out, id)
		return true
	})
	slices.Sort(out)
	return out
}

// addUnique appends id unless it is already present.
func addUnique(list []ast.NodeID, id ast.NodeID) []ast.NodeID {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}
