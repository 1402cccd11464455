package ast

// Children returns the direct children of id in evaluation order.
func (t *Tree) Children(id NodeID) []NodeID {
	n := t.Get(id)
	if n == nil {
		return nil
	}
	p := uint32(n.Payload)
	switch n.Kind {
	case KindSeq:
		return t.Seqs.Get(p).Items
	case KindLet, KindAssign:
		return []NodeID{t.Lets.Get(p).Value}
	case KindUnary:
		return []NodeID{t.Unaries.Get(p).Operand}
	case KindBinary:
		b := t.Binaries.Get(p)
		return []NodeID{b.Left, b.Right}
	case KindQuote:
		return []NodeID{t.Quotes.Get(p).Body}
	case KindEscape:
		return []NodeID{t.Escapes.Get(p).Body}
	case KindRun:
		return []NodeID{t.Runs.Get(p).Operand}
	case KindFun:
		f := t.Funs.Get(p)
		out := make([]NodeID, 0, len(f.Params)+1)
		out = append(out, f.Params...)
		return append(out, f.Body)
	case KindCall:
		c := t.Calls.Get(p)
		out := make([]NodeID, 0, len(c.Args)+1)
		out = append(out, c.Callee)
		return append(out, c.Args...)
	case KindIf:
		i := t.Ifs.Get(p)
		if i.Else.IsValid() {
			return []NodeID{i.Cond, i.Then, i.Else}
		}
		return []NodeID{i.Cond, i.Then}
	case KindWhile:
		w := t.Whiles.Get(p)
		return []NodeID{w.Cond, w.Body}
	default:
		return nil
	}
}

// Walk visits id and its descendants in pre-order. Returning false from
// visit skips the children of that node.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if !id.IsValid() || !visit(id) {
		return
	}
	for _, child := range t.Children(id) {
		t.Walk(child, visit)
	}
}

// Name returns the identifier carried by binding and reference nodes.
func (t *Tree) Name(id NodeID) (string, bool) {
	n := t.Get(id)
	if n == nil {
		return "", false
	}
	p := uint32(n.Payload)
	switch n.Kind {
	case KindLet, KindAssign:
		return t.Lets.Get(p).Name, true
	case KindLookup:
		return t.Lookups.Get(p).Name, true
	case KindParam:
		return t.Params.Get(p).Name, true
	case KindExtern:
		return t.Externs.Get(p).Name, true
	default:
		return "", false
	}
}

// IsReference reports whether id reads or writes a binding.
func (t *Tree) IsReference(id NodeID) bool {
	k := t.Kind(id)
	return k == KindLookup || k == KindAssign
}

// IsBinding reports whether id introduces a name.
func (t *Tree) IsBinding(id NodeID) bool {
	switch t.Kind(id) {
	case KindLet, KindParam, KindExtern:
		return true
	default:
		return false
	}
}
