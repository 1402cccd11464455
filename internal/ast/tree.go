package ast

import (
	"stagec/internal/source"
)

// Tree is the global node arena of one compiled unit. Node ids are handed
// out densely starting at 1 and are never renumbered.
type Tree struct {
	Nodes    *Arena[Node]
	Literals *Arena[LiteralData]
	Seqs     *Arena[SeqData]
	Lets     *Arena[LetData]
	Lookups  *Arena[LookupData]
	Unaries  *Arena[UnaryData]
	Binaries *Arena[BinaryData]
	Quotes   *Arena[QuoteData]
	Escapes  *Arena[EscapeData]
	Runs     *Arena[RunData]
	Funs     *Arena[FunData]
	Params   *Arena[ParamData]
	Calls    *Arena[CallData]
	Externs  *Arena[ExternData]
	Ifs      *Arena[IfData]
	Whiles   *Arena[WhileData]

	root NodeID
}

// NewTree creates an empty tree; capHint sizes the node arena.
func NewTree(capHint uint) *Tree {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint/4 + 1
	return &Tree{
		Nodes:    NewArena[Node](capHint),
		Literals: NewArena[LiteralData](small),
		Seqs:     NewArena[SeqData](small),
		Lets:     NewArena[LetData](small),
		Lookups:  NewArena[LookupData](small),
		Unaries:  NewArena[UnaryData](small),
		Binaries: NewArena[BinaryData](small),
		Quotes:   NewArena[QuoteData](small),
		Escapes:  NewArena[EscapeData](small),
		Runs:     NewArena[RunData](small),
		Funs:     NewArena[FunData](small),
		Params:   NewArena[ParamData](small),
		Calls:    NewArena[CallData](small),
		Externs:  NewArena[ExternData](small),
		Ifs:      NewArena[IfData](small),
		Whiles:   NewArena[WhileData](small),
	}
}

func (t *Tree) new(kind Kind, span source.Span, payload uint32) NodeID {
	return NodeID(t.Nodes.Allocate(Node{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the node with the given id, or nil.
func (t *Tree) Get(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

// Kind returns the kind of id, KindInvalid when absent.
func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Get(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

// Len is the largest NodeID allocated so far.
func (t *Tree) Len() uint32 {
	return t.Nodes.Len()
}

// Root returns the unit's top-level expression.
func (t *Tree) Root() NodeID { return t.root }

// SetRoot marks id as the unit's top-level expression.
func (t *Tree) SetRoot(id NodeID) { t.root = id }

func (t *Tree) payload(id NodeID, kind Kind) (uint32, bool) {
	n := t.Get(id)
	if n == nil || n.Kind != kind {
		return 0, false
	}
	return uint32(n.Payload), true
}

// NewLiteral creates a literal node.
func (t *Tree) NewLiteral(span source.Span, kind LitKind, text string) NodeID {
	return t.new(KindLiteral, span, t.Literals.Allocate(LiteralData{Kind: kind, Text: text}))
}

// Literal returns the literal data for id.
func (t *Tree) Literal(id NodeID) (*LiteralData, bool) {
	p, ok := t.payload(id, KindLiteral)
	if !ok {
		return nil, false
	}
	return t.Literals.Get(p), true
}

// NewSeq creates a sequence node.
func (t *Tree) NewSeq(span source.Span, items []NodeID) NodeID {
	return t.new(KindSeq, span, t.Seqs.Allocate(SeqData{Items: append([]NodeID(nil), items...)}))
}

// Seq returns the sequence data for id.
func (t *Tree) Seq(id NodeID) (*SeqData, bool) {
	p, ok := t.payload(id, KindSeq)
	if !ok {
		return nil, false
	}
	return t.Seqs.Get(p), true
}

// NewLet creates a binding node.
func (t *Tree) NewLet(span source.Span, name string, value NodeID) NodeID {
	return t.new(KindLet, span, t.Lets.Allocate(LetData{Name: name, Value: value}))
}

// Let returns the binding data for id.
func (t *Tree) Let(id NodeID) (*LetData, bool) {
	p, ok := t.payload(id, KindLet)
	if !ok {
		return nil, false
	}
	return t.Lets.Get(p), true
}

// NewAssign creates an assignment node. Assignments share the Lets arena.
func (t *Tree) NewAssign(span source.Span, name string, value NodeID) NodeID {
	return t.new(KindAssign, span, t.Lets.Allocate(LetData{Name: name, Value: value}))
}

// Assign returns the assignment data for id.
func (t *Tree) Assign(id NodeID) (*LetData, bool) {
	p, ok := t.payload(id, KindAssign)
	if !ok {
		return nil, false
	}
	return t.Lets.Get(p), true
}

// NewLookup creates a variable reference.
func (t *Tree) NewLookup(span source.Span, name string) NodeID {
	return t.new(KindLookup, span, t.Lookups.Allocate(LookupData{Name: name}))
}

// Lookup returns the reference data for id.
func (t *Tree) Lookup(id NodeID) (*LookupData, bool) {
	p, ok := t.payload(id, KindLookup)
	if !ok {
		return nil, false
	}
	return t.Lookups.Get(p), true
}

// NewUnary creates a unary operation.
func (t *Tree) NewUnary(span source.Span, op string, operand NodeID) NodeID {
	return t.new(KindUnary, span, t.Unaries.Allocate(UnaryData{Op: op, Operand: operand}))
}

// Unary returns the unary data for id.
func (t *Tree) Unary(id NodeID) (*UnaryData, bool) {
	p, ok := t.payload(id, KindUnary)
	if !ok {
		return nil, false
	}
	return t.Unaries.Get(p), true
}

// NewBinary creates a binary operation.
func (t *Tree) NewBinary(span source.Span, op string, left, right NodeID) NodeID {
	return t.new(KindBinary, span, t.Binaries.Allocate(BinaryData{Op: op, Left: left, Right: right}))
}

// Binary returns the binary data for id.
func (t *Tree) Binary(id NodeID) (*BinaryData, bool) {
	p, ok := t.payload(id, KindBinary)
	if !ok {
		return nil, false
	}
	return t.Binaries.Get(p), true
}

// NewQuote creates a quotation.
func (t *Tree) NewQuote(span source.Span, annotation string, body NodeID) NodeID {
	return t.new(KindQuote, span, t.Quotes.Allocate(QuoteData{Annotation: annotation, Body: body}))
}

// Quote returns the quotation data for id.
func (t *Tree) Quote(id NodeID) (*QuoteData, bool) {
	p, ok := t.payload(id, KindQuote)
	if !ok {
		return nil, false
	}
	return t.Quotes.Get(p), true
}

// NewEscape creates a persist or splice escape leaving count quotes.
// A zero count is treated as one.
func (t *Tree) NewEscape(span source.Span, kind EscapeKind, count uint32, body NodeID) NodeID {
	if count == 0 {
		count = 1
	}
	return t.new(KindEscape, span, t.Escapes.Allocate(EscapeData{Kind: kind, Count: count, Body: body}))
}

// Escape returns the escape data for id.
func (t *Tree) Escape(id NodeID) (*EscapeData, bool) {
	p, ok := t.payload(id, KindEscape)
	if !ok {
		return nil, false
	}
	return t.Escapes.Get(p), true
}

// NewRun creates a run node.
func (t *Tree) NewRun(span source.Span, operand NodeID) NodeID {
	return t.new(KindRun, span, t.Runs.Allocate(RunData{Operand: operand}))
}

// Run returns the run data for id.
func (t *Tree) Run(id NodeID) (*RunData, bool) {
	p, ok := t.payload(id, KindRun)
	if !ok {
		return nil, false
	}
	return t.Runs.Get(p), true
}

// NewParam creates a parameter node.
func (t *Tree) NewParam(span source.Span, name string) NodeID {
	return t.new(KindParam, span, t.Params.Allocate(ParamData{Name: name}))
}

// Param returns the parameter data for id.
func (t *Tree) Param(id NodeID) (*ParamData, bool) {
	p, ok := t.payload(id, KindParam)
	if !ok {
		return nil, false
	}
	return t.Params.Get(p), true
}

// NewFun creates a function literal over previously created Param nodes.
func (t *Tree) NewFun(span source.Span, params []NodeID, body NodeID) NodeID {
	return t.new(KindFun, span, t.Funs.Allocate(FunData{Params: append([]NodeID(nil), params...), Body: body}))
}

// Fun returns the function data for id.
func (t *Tree) Fun(id NodeID) (*FunData, bool) {
	p, ok := t.payload(id, KindFun)
	if !ok {
		return nil, false
	}
	return t.Funs.Get(p), true
}

// NewCall creates a call node.
func (t *Tree) NewCall(span source.Span, callee NodeID, args []NodeID) NodeID {
	return t.new(KindCall, span, t.Calls.Allocate(CallData{Callee: callee, Args: append([]NodeID(nil), args...)}))
}

// Call returns the call data for id.
func (t *Tree) Call(id NodeID) (*CallData, bool) {
	p, ok := t.payload(id, KindCall)
	if !ok {
		return nil, false
	}
	return t.Calls.Get(p), true
}

// NewExtern creates an extern declaration. expansion may be empty.
func (t *Tree) NewExtern(span source.Span, name, expansion string) NodeID {
	return t.new(KindExtern, span, t.Externs.Allocate(ExternData{Name: name, Expansion: expansion}))
}

// Extern returns the extern data for id.
func (t *Tree) Extern(id NodeID) (*ExternData, bool) {
	p, ok := t.payload(id, KindExtern)
	if !ok {
		return nil, false
	}
	return t.Externs.Get(p), true
}

// NewIf creates a conditional; els may be NoNodeID.
func (t *Tree) NewIf(span source.Span, cond, then, els NodeID) NodeID {
	return t.new(KindIf, span, t.Ifs.Allocate(IfData{Cond: cond, Then: then, Else: els}))
}

// If returns the conditional data for id.
func (t *Tree) If(id NodeID) (*IfData, bool) {
	p, ok := t.payload(id, KindIf)
	if !ok {
		return nil, false
	}
	return t.Ifs.Get(p), true
}

// NewWhile creates a loop.
func (t *Tree) NewWhile(span source.Span, cond, body NodeID) NodeID {
	return t.new(KindWhile, span, t.Whiles.Allocate(WhileData{Cond: cond, Body: body}))
}

// While returns the loop data for id.
func (t *Tree) While(id NodeID) (*WhileData, bool) {
	p, ok := t.payload(id, KindWhile)
	if !ok {
		return nil, false
	}
	return t.Whiles.Get(p), true
}
