package ir

import (
	"maps"
	"slices"

	"stagec/internal/ast"
)

// Scope is the innermost function and quotation enclosing a node. A zero
// field is null: NoProcID outside any function (in the current stage),
// NoProgID outside any quote.
type Scope struct {
	Func  ProcID `msgpack:"func"`
	Quote ProgID `msgpack:"quote"`
}

// ScopeTable holds one Scope per node of a tree, indexed by ast.NodeID.
type ScopeTable struct {
	entries []Scope // entries[0] unused
}

// NewScopeTable allocates entries for nodes 1..n, all at top level.
func NewScopeTable(n uint32) ScopeTable {
	return ScopeTable{entries: make([]Scope, int(n)+1)}
}

// Len is the number of nodes covered.
func (t ScopeTable) Len() int {
	if len(t.entries) == 0 {
		return 0
	}
	return len(t.entries) - 1
}

// Set records the scope of id. Ids outside the table are a fault.
func (t ScopeTable) Set(id ast.NodeID, s Scope) {
	if !id.IsValid() || int(id) >= len(t.entries) {
		Faultf("scope for node %d outside table of %d nodes", id, t.Len())
	}
	t.entries[id] = s
}

// Get returns the scope of id; ok is false when the table has no entry.
func (t ScopeTable) Get(id ast.NodeID) (Scope, bool) {
	if !id.IsValid() || int(id) >= len(t.entries) {
		return Scope{}, false
	}
	return t.entries[id], true
}

// MustGet returns the scope of id and faults when it is missing.
func (t ScopeTable) MustGet(id ast.NodeID) Scope {
	s, ok := t.Get(id)
	if !ok {
		Faultf("no scope for node %d", id)
	}
	return s
}

// Entries returns a copy of the table, index 0 included.
func (t ScopeTable) Entries() []Scope {
	return slices.Clone(t.entries)
}

// ScopeTableFrom wraps entries produced by Entries.
func ScopeTableFrom(entries []Scope) ScopeTable {
	if len(entries) == 0 {
		entries = []Scope{{}}
	}
	return ScopeTable{entries: slices.Clone(entries)}
}

// DefUseTable maps every variable reference to its definition: a Let,
// Param or Extern node, or the synthetic id of an intrinsic.
type DefUseTable map[ast.NodeID]ast.NodeID

// Def returns the definition of use.
func (t DefUseTable) Def(use ast.NodeID) (ast.NodeID, bool) {
	d, ok := t[use]
	return d, ok
}

// Uses returns the reference ids in ascending order.
func (t DefUseTable) Uses() []ast.NodeID {
	return slices.Sorted(maps.Keys(t))
}

// ExternTable maps extern declarations and intrinsics to the name they
// have outside the unit. Ids that are not externs are absent.
type ExternTable map[ast.NodeID]string

// Name returns the external name of id.
func (t ExternTable) Name(id ast.NodeID) (string, bool) {
	n, ok := t[id]
	return n, ok
}

// IDs returns the extern ids in ascending order.
func (t ExternTable) IDs() []ast.NodeID {
	return slices.Sorted(maps.Keys(t))
}
