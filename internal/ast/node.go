package ast

import (
	"fmt"

	"stagec/internal/source"
)

// Kind enumerates node kinds of the elaborated tree.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindLiteral is a constant value.
	KindLiteral
	// KindSeq evaluates its items in order.
	KindSeq
	// KindLet binds a name to the value of an expression.
	KindLet
	// KindAssign stores into an existing binding.
	KindAssign
	// KindLookup reads a binding.
	KindLookup
	KindUnary
	KindBinary
	// KindQuote defers its body to a later stage.
	KindQuote
	// KindEscape leaves one or more quotes (persist or splice).
	KindEscape
	// KindRun executes a quoted program.
	KindRun
	// KindFun is a function literal.
	KindFun
	// KindParam is a function parameter; it binds a name.
	KindParam
	KindCall
	// KindExtern declares a name resolved outside the unit.
	KindExtern
	KindIf
	KindWhile

	kindCount
)

// NumKinds is the number of node kinds, including KindInvalid.
const NumKinds = int(kindCount)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindLiteral:
		return "lit"
	case KindSeq:
		return "seq"
	case KindLet:
		return "let"
	case KindAssign:
		return "assign"
	case KindLookup:
		return "lookup"
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	case KindQuote:
		return "quote"
	case KindEscape:
		return "escape"
	case KindRun:
		return "run"
	case KindFun:
		return "fun"
	case KindParam:
		return "param"
	case KindCall:
		return "call"
	case KindExtern:
		return "extern"
	case KindIf:
		return "if"
	case KindWhile:
		return "while"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Node is one arena slot. Kind-specific data lives in the payload arena
// selected by Kind.
type Node struct {
	Kind    Kind
	Span    source.Span
	Payload PayloadID
}

// LitKind classifies literal values.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
)

func (k LitKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitString:
		return "string"
	case LitBool:
		return "bool"
	default:
		return "unknown"
	}
}

// EscapeKind distinguishes the two ways of leaving a quote.
type EscapeKind uint8

const (
	// EscapePersist carries an outer-stage value into the quote.
	EscapePersist EscapeKind = iota
	// EscapeSplice inserts an outer-stage program fragment into the quote.
	EscapeSplice
)

func (k EscapeKind) String() string {
	switch k {
	case EscapePersist:
		return "persist"
	case EscapeSplice:
		return "splice"
	default:
		return "unknown"
	}
}

type LiteralData struct {
	Kind LitKind
	Text string
}

type SeqData struct {
	Items []NodeID
}

// LetData is shared by KindLet and KindAssign.
type LetData struct {
	Name  string
	Value NodeID
}

type LookupData struct {
	Name string
}

type UnaryData struct {
	Op      string
	Operand NodeID
}

type BinaryData struct {
	Op    string
	Left  NodeID
	Right NodeID
}

type QuoteData struct {
	Annotation string
	Body       NodeID
}

type EscapeData struct {
	Kind  EscapeKind
	Count uint32 // quotes left, >= 1
	Body  NodeID
}

// RunData is the payload of KindRun.
type RunData struct {
	Operand NodeID
}

type FunData struct {
	Params []NodeID // KindParam nodes
	Body   NodeID
}

type ParamData struct {
	Name string
}

type CallData struct {
	Callee NodeID
	Args   []NodeID
}

type ExternData struct {
	Name      string
	Expansion string // empty: use Name
}

// IfData holds a conditional; Else is NoNodeID when absent.
type IfData struct {
	Cond NodeID
	Then NodeID
	Else NodeID
}

type WhileData struct {
	Cond NodeID
	Body NodeID
}
