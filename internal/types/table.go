package types

import (
	"fmt"

	"fortio.org/safecast"

	"stagec/internal/ast"
)

// Entry is one row of the type table: the type of a node (or of a
// synthetic declaration such as an intrinsic) and its parent, if any.
type Entry struct {
	Type   TypeID
	Parent ast.NodeID // ast.NoNodeID when there is none
}

// Table is the append-only type table produced by elaboration and indexed
// by ast.NodeID. Slot 0 is reserved, so Len is always the next free id.
//
// The table is handed to analyze.Analyze, which appends intrinsic entries
// before any other pass runs; after that it is read-only.
type Table struct {
	Types   *Interner
	entries []Entry
}

// NewTable creates an empty table over in.
func NewTable(in *Interner) *Table {
	if in == nil {
		in = NewInterner()
	}
	return &Table{Types: in, entries: make([]Entry, 1, 64)}
}

// Uniform builds a table where nodes 1..n all have type typ. It stands in
// for elaboration when only node identities matter.
func Uniform(in *Interner, n uint32, typ TypeID) *Table {
	t := NewTable(in)
	for id := uint32(1); id <= n; id++ {
		t.Set(ast.NodeID(id), Entry{Type: typ})
	}
	return t
}

// Len is the number of slots, including the reserved slot 0.
func (t *Table) Len() uint32 {
	n, err := safecast.Conv[uint32](len(t.entries))
	if err != nil {
		panic(fmt.Errorf("type table overflow: %w", err))
	}
	return n
}

// Append adds e at the end of the table and returns its id.
func (t *Table) Append(e Entry) ast.NodeID {
	id := ast.NodeID(t.Len())
	t.entries = append(t.entries, e)
	return id
}

// Set records e for id, growing the table with empty slots as needed.
func (t *Table) Set(id ast.NodeID, e Entry) {
	if !id.IsValid() {
		return
	}
	for uint32(len(t.entries)) <= uint32(id) {
		t.entries = append(t.entries, Entry{})
	}
	t.entries[id] = e
}

// Get returns the entry for id. Slots that were never filled are absent.
func (t *Table) Get(id ast.NodeID) (Entry, bool) {
	if !id.IsValid() || int(id) >= len(t.entries) {
		return Entry{}, false
	}
	e := t.entries[id]
	if e.Type == NoTypeID {
		return Entry{}, false
	}
	return e, true
}
