package ast

type (
	// NodeID identifies a node of the tree. Every table built over a tree
	// (scopes, def/use, externs, procs, progs, types) is indexed by it.
	NodeID uint32
	// PayloadID indexes a per-kind payload arena.
	PayloadID uint32
)

const (
	NoNodeID    NodeID    = 0
	NoPayloadID PayloadID = 0
)

func (id NodeID) IsValid() bool    { return id != NoNodeID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
