package analyze

import (
	"cmp"
	"slices"

	"stagec/internal/ast"
	"stagec/internal/defuse"
	"stagec/internal/types"
)

// Intrinsic is a name the target provides without a declaration in the
// unit, together with its type.
type Intrinsic struct {
	Name string
	Type types.TypeID
}

// NameMap maps intrinsic names to the ids registered for them.
type NameMap = defuse.NameMap

// IntrinsicsFromMap orders m by name.
func IntrinsicsFromMap(m map[string]types.TypeID) []Intrinsic {
	out := make([]Intrinsic, 0, len(m))
	for name, typ := range m {
		out = append(out, Intrinsic{Name: name, Type: typ})
	}
	slices.SortFunc(out, func(a, b Intrinsic) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// RegisterIntrinsics appends one type-table entry per intrinsic, in
// order, and maps each name to the id of its entry. With n the table
// length on entry, the ids are n, n+1, ... and the table grows by exactly
// len(intrinsics). A repeated name maps to its last entry.
func RegisterIntrinsics(table *types.Table, intrinsics []Intrinsic) NameMap {
	names := make(NameMap, len(intrinsics))
	for _, in := range intrinsics {
		id := table.Append(types.Entry{Type: in.Type, Parent: ast.NoNodeID})
		names[in.Name] = id
	}
	return names
}
