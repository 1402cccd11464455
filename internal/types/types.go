package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the types of the staged language.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindInt
	KindFloat
	KindString
	KindBool
	// KindAny is the top type used for values the elaborator does not refine.
	KindAny
	KindFn
	// KindCode is the type of a quoted program producing Elem.
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindAny:
		return "any"
	case KindFn:
		return "fun"
	case KindCode:
		return "code"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // code element type
	Payload uint32 // fn info slot
	Label   string // code annotation ("" for the default backend)
}

// MakeCode describes a quoted program of elem for the given annotation.
func MakeCode(elem TypeID, annotation string) Type {
	return Type{Kind: KindCode, Elem: elem, Label: annotation}
}

// KindByName maps a primitive type name to its kind.
func KindByName(name string) (Kind, bool) {
	switch name {
	case "void":
		return KindVoid, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "string":
		return KindString, true
	case "bool":
		return KindBool, true
	case "any":
		return KindAny, true
	default:
		return KindInvalid, false
	}
}
