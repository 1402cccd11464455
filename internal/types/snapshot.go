package types

import "slices"

// Snapshot is the plain-data form of a Table and its Interner.
type Snapshot struct {
	Types   []Type   `msgpack:"types"`
	Fns     []FnInfo `msgpack:"fns"`
	Entries []Entry  `msgpack:"entries"`
}

// Snapshot copies the table and its interner into plain data.
func (t *Table) Snapshot() Snapshot {
	return Snapshot{
		Types:   slices.Clone(t.Types.types),
		Fns:     slices.Clone(t.Types.fns),
		Entries: slices.Clone(t.entries),
	}
}

// Restore rebuilds a Table from a snapshot, preserving every TypeID.
func Restore(s Snapshot) *Table {
	in := &Interner{
		types: slices.Clone(s.Types),
		fns:   slices.Clone(s.Fns),
		index: make(map[Type]TypeID, len(s.Types)),
	}
	if len(in.types) == 0 {
		in.types = append(in.types, Type{Kind: KindInvalid})
	}
	for i := 1; i < len(in.types); i++ {
		in.index[in.types[i]] = TypeID(i) // #nosec G115 -- bounded by the snapshot
	}
	in.builtins = Builtins{
		Void:   in.index[Type{Kind: KindVoid}],
		Int:    in.index[Type{Kind: KindInt}],
		Float:  in.index[Type{Kind: KindFloat}],
		String: in.index[Type{Kind: KindString}],
		Bool:   in.index[Type{Kind: KindBool}],
		Any:    in.index[Type{Kind: KindAny}],
	}
	entries := slices.Clone(s.Entries)
	if len(entries) == 0 {
		entries = append(entries, Entry{})
	}
	return &Table{Types: in, entries: entries}
}
