// Package fold implements an extensible fold over ast.Tree.
//
// A traversal is a Rules table holding one handler per node kind. Tables
// are built from FoldRules, which recurses structurally, and specialised
// with Compose, which overrides a subset of kinds without touching the
// original table. Handlers recurse through an explicit self function, and
// Fix ties that knot:
//
//	gen := func(self fold.Func[int]) fold.Func[int] {
//		rules := fold.Compose(fold.FoldRules(self), fold.Rules[int]{
//			Lookup: func(t *ast.Tree, id ast.NodeID, n int) int { return n + 1 },
//		})
//		return func(t *ast.Tree, id ast.NodeID, n int) int {
//			return fold.Visit(rules, t, id, n)
//		}
//	}
//	countRefs := fold.Fix(gen)
package fold

import "stagec/internal/ast"

// Func folds the subtree rooted at id into acc.
type Func[A any] func(t *ast.Tree, id ast.NodeID, acc A) A

// Rules is a handler table with one entry per node kind. A nil entry
// leaves the accumulator untouched and does not recurse.
type Rules[A any] struct {
	Literal Func[A]
	Seq     Func[A]
	Let     Func[A]
	Assign  Func[A]
	Lookup  Func[A]
	Unary   Func[A]
	Binary  Func[A]
	Quote   Func[A]
	Escape  Func[A]
	Run     Func[A]
	Fun     Func[A]
	Param   Func[A]
	Call    Func[A]
	Extern  Func[A]
	If      Func[A]
	While   Func[A]
}

// FoldRules returns the default table: every kind folds its children in
// evaluation order through self and returns the threaded accumulator.
func FoldRules[A any](self Func[A]) Rules[A] {
	children := func(t *ast.Tree, id ast.NodeID, acc A) A {
		for _, child := range t.Children(id) {
			acc = self(t, child, acc)
		}
		return acc
	}
	return Rules[A]{
		Literal: children,
		Seq:     children,
		Let:     children,
		Assign:  children,
		Lookup:  children,
		Unary:   children,
		Binary:  children,
		Quote:   children,
		Escape:  children,
		Run:     children,
		Fun:     children,
		Param:   children,
		Call:    children,
		Extern:  children,
		If:      children,
		While:   children,
	}
}

// Compose returns a new table equal to base with every non-nil entry of
// over taking precedence. Neither argument is modified.
func Compose[A any](base, over Rules[A]) Rules[A] {
	out := base
	pick := func(dst *Func[A], f Func[A]) {
		if f != nil {
			*dst = f
		}
	}
	pick(&out.Literal, over.Literal)
	pick(&out.Seq, over.Seq)
	pick(&out.Let, over.Let)
	pick(&out.Assign, over.Assign)
	pick(&out.Lookup, over.Lookup)
	pick(&out.Unary, over.Unary)
	pick(&out.Binary, over.Binary)
	pick(&out.Quote, over.Quote)
	pick(&out.Escape, over.Escape)
	pick(&out.Run, over.Run)
	pick(&out.Fun, over.Fun)
	pick(&out.Param, over.Param)
	pick(&out.Call, over.Call)
	pick(&out.Extern, over.Extern)
	pick(&out.If, over.If)
	pick(&out.While, over.While)
	return out
}

// Rule returns the handler registered for kind.
func (r Rules[A]) Rule(kind ast.Kind) Func[A] {
	switch kind {
	case ast.KindLiteral:
		return r.Literal
	case ast.KindSeq:
		return r.Seq
	case ast.KindLet:
		return r.Let
	case ast.KindAssign:
		return r.Assign
	case ast.KindLookup:
		return r.Lookup
	case ast.KindUnary:
		return r.Unary
	case ast.KindBinary:
		return r.Binary
	case ast.KindQuote:
		return r.Quote
	case ast.KindEscape:
		return r.Escape
	case ast.KindRun:
		return r.Run
	case ast.KindFun:
		return r.Fun
	case ast.KindParam:
		return r.Param
	case ast.KindCall:
		return r.Call
	case ast.KindExtern:
		return r.Extern
	case ast.KindIf:
		return r.If
	case ast.KindWhile:
		return r.While
	default:
		return nil
	}
}

// Visit dispatches id to the handler for its kind.
func Visit[A any](rules Rules[A], t *ast.Tree, id ast.NodeID, acc A) A {
	f := rules.Rule(t.Kind(id))
	if f == nil {
		return acc
	}
	return f(t, id, acc)
}

// Fix ties the open recursion of gen: the self passed to gen is the
// function gen returns.
func Fix[A any](gen func(self Func[A]) Func[A]) Func[A] {
	var fixed Func[A]
	fixed = gen(func(t *ast.Tree, id ast.NodeID, acc A) A {
		return fixed(t, id, acc)
	})
	return fixed
}
