// Package treefmt reads elaborated trees written as s-expressions.
//
//	(seq
//	  (extern log "console.log")
//	  (let x 1)
//	  (fun (y) (call log (binary + x y)))
//	  (quote js (let z (persist x))))
//
// Bare symbols are lookups and bare numbers, strings, true and false are
// literals. Several top-level forms are read as one seq. Identifiers are
// NFC-normalised so that visually equal names bind to each other.
package treefmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/unicode/norm"

	"stagec/internal/ast"
	"stagec/internal/diag"
	"stagec/internal/source"
)

// ErrSyntax is returned when the input is not a well-formed tree.
var ErrSyntax = errors.New("malformed tree")

// Read parses file from fs into a fresh tree. Problems are reported
// through rep; if there were any the error wraps ErrSyntax and the tree is
// nil.
func Read(fs *source.FileSet, file source.FileID, rep diag.Reporter) (*ast.Tree, error) {
	f := fs.Get(file)
	if f == nil {
		return nil, fmt.Errorf("treefmt: unknown file %d", file)
	}
	doc, err := sexprParser.ParseBytes(f.Path, f.Content)
	if err != nil {
		span := source.Span{File: file}
		var perr participle.Error
		if errors.As(err, &perr) {
			span.Start = offset(perr.Position())
			span.End = span.Start
		}
		msg := err.Error()
		if perr != nil {
			msg = perr.Message()
		}
		diag.ReportError(rep, diag.SynUnexpectedToken, span, msg).Emit()
		return nil, fmt.Errorf("%w: %s", ErrSyntax, msg)
	}

	b := &builder{tree: ast.NewTree(uint(len(f.Content) / 4)), file: file, content: f.Content, rep: rep}
	root := b.document(doc)
	if b.errors > 0 {
		return nil, fmt.Errorf("%w: %d error(s) in %s", ErrSyntax, b.errors, f.Path)
	}
	b.tree.SetRoot(root)
	return b.tree, nil
}

// ReadString parses src as a virtual file named name.
func ReadString(name, src string, rep diag.Reporter) (*ast.Tree, error) {
	fs := source.NewFileSet()
	return Read(fs, fs.AddVirtual(name, []byte(src)), rep)
}

type builder struct {
	tree    *ast.Tree
	file    source.FileID
	content []byte
	rep     diag.Reporter
	errors  int
}

func offset(pos lexer.Position) uint32 {
	off, err := safecast.Conv[uint32](pos.Offset)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return off
}

func (b *builder) span(s *sexpr) source.Span {
	start := offset(s.Pos)
	end := s.Pos
	end.Offset += s.extent(b.content)
	return source.Span{File: b.file, Start: start, End: offset(end)}
}

func (b *builder) unquote(s *sexpr) (string, bool) {
	text, err := strconv.Unquote(*s.String)
	if err != nil {
		b.fail(s, "bad string literal: %v", err)
		return "", false
	}
	return text, true
}

func (b *builder) fail(s *sexpr, format string, args ...any) ast.NodeID {
	b.errors++
	diag.ReportError(b.rep, diag.SynBadForm, b.span(s), fmt.Sprintf(format, args...)).Emit()
	return ast.NoNodeID
}

func (b *builder) document(doc *document) ast.NodeID {
	switch len(doc.Forms) {
	case 0:
		return b.tree.NewSeq(source.Span{File: b.file}, nil)
	case 1:
		return b.expr(doc.Forms[0])
	}
	items := b.exprs(doc.Forms)
	sp := b.span(doc.Forms[0]).Cover(b.span(doc.Forms[len(doc.Forms)-1]))
	return b.tree.NewSeq(sp, items)
}

func (b *builder) exprs(forms []*sexpr) []ast.NodeID {
	out := make([]ast.NodeID, 0, len(forms))
	for _, f := range forms {
		out = append(out, b.expr(f))
	}
	return out
}

// body reads one or more forms; several become a seq.
func (b *builder) body(whole *sexpr, forms []*sexpr) ast.NodeID {
	if len(forms) == 1 {
		return b.expr(forms[0])
	}
	return b.tree.NewSeq(b.span(whole), b.exprs(forms))
}

func (b *builder) expr(s *sexpr) ast.NodeID {
	sp := b.span(s)
	switch {
	case s.String != nil:
		text, ok := b.unquote(s)
		if !ok {
			return ast.NoNodeID
		}
		return b.tree.NewLiteral(sp, ast.LitString, text)
	case s.Number != nil:
		kind := ast.LitInt
		if strings.Contains(*s.Number, ".") {
			kind = ast.LitFloat
		}
		return b.tree.NewLiteral(sp, kind, *s.Number)
	case s.Symbol != nil:
		switch *s.Symbol {
		case "true", "false":
			return b.tree.NewLiteral(sp, ast.LitBool, *s.Symbol)
		}
		return b.tree.NewLookup(sp, ident(*s.Symbol))
	case s.List != nil:
		return b.form(s, s.List.Items)
	}
	return b.fail(s, "empty expression")
}

func ident(name string) string {
	return norm.NFC.String(name)
}

// name reads a binding or reference identifier.
func (b *builder) name(s *sexpr, what string) (string, bool) {
	sym, ok := s.symbol()
	if !ok {
		b.fail(s, "%s must be an identifier", what)
		return "", false
	}
	return ident(sym), true
}

func (b *builder) arity(s *sexpr, head string, args []*sexpr, lo, hi int) bool {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		switch {
		case lo == hi:
			b.fail(s, "(%s) takes %d argument(s), got %d", head, lo, len(args))
		case hi < 0:
			b.fail(s, "(%s) takes at least %d argument(s), got %d", head, lo, len(args))
		default:
			b.fail(s, "(%s) takes %d to %d arguments, got %d", head, lo, hi, len(args))
		}
		return false
	}
	return true
}

func (b *builder) form(s *sexpr, items []*sexpr) ast.NodeID {
	if len(items) == 0 {
		return b.fail(s, "empty form")
	}
	head, ok := items[0].symbol()
	if !ok {
		return b.fail(items[0], "form must start with a keyword")
	}
	args := items[1:]
	sp := b.span(s)
	t := b.tree

	switch head {
	case "seq":
		return t.NewSeq(sp, b.exprs(args))

	case "let", "assign":
		if !b.arity(s, head, args, 2, 2) {
			return ast.NoNodeID
		}
		name, ok := b.name(args[0], head+" target")
		if !ok {
			return ast.NoNodeID
		}
		value := b.expr(args[1])
		if head == "let" {
			return t.NewLet(sp, name, value)
		}
		return t.NewAssign(sp, name, value)

	case "lookup":
		if !b.arity(s, head, args, 1, 1) {
			return ast.NoNodeID
		}
		name, ok := b.name(args[0], "lookup")
		if !ok {
			return ast.NoNodeID
		}
		return t.NewLookup(sp, name)

	case "extern":
		if !b.arity(s, head, args, 1, 2) {
			return ast.NoNodeID
		}
		name, ok := b.name(args[0], "extern name")
		if !ok {
			return ast.NoNodeID
		}
		expansion := ""
		if len(args) == 2 {
			if args[1].String == nil {
				return b.fail(args[1], "extern expansion must be a string")
			}
			if expansion, ok = b.unquote(args[1]); !ok {
				return ast.NoNodeID
			}
		}
		return t.NewExtern(sp, name, expansion)

	case "fun":
		if !b.arity(s, head, args, 2, -1) {
			return ast.NoNodeID
		}
		if args[0].List == nil {
			return b.fail(args[0], "fun parameters must be a list")
		}
		params := make([]ast.NodeID, 0, len(args[0].List.Items))
		for _, p := range args[0].List.Items {
			name, ok := b.name(p, "parameter")
			if !ok {
				continue
			}
			params = append(params, t.NewParam(b.span(p), name))
		}
		return t.NewFun(sp, params, b.body(s, args[1:]))

	case "quote":
		if !b.arity(s, head, args, 1, 2) {
			return ast.NoNodeID
		}
		annotation := ""
		if len(args) == 2 {
			ann, ok := args[0].symbol()
			if !ok {
				return b.fail(args[0], "quote annotation must be a symbol")
			}
			annotation = ann
			args = args[1:]
		}
		return t.NewQuote(sp, annotation, b.expr(args[0]))

	case "persist", "splice":
		if !b.arity(s, head, args, 1, 2) {
			return ast.NoNodeID
		}
		count := uint64(1)
		if len(args) == 2 {
			if args[0].Number == nil {
				return b.fail(args[0], "%s level must be a number", head)
			}
			n, err := strconv.ParseUint(*args[0].Number, 10, 32)
			if err != nil || n == 0 {
				return b.fail(args[0], "%s level must be a positive integer", head)
			}
			count = n
			args = args[1:]
		}
		kind := ast.EscapePersist
		if head == "splice" {
			kind = ast.EscapeSplice
		}
		return t.NewEscape(sp, kind, uint32(count), b.expr(args[0])) // #nosec G115 -- ParseUint bounded to 32 bits

	case "run":
		if !b.arity(s, head, args, 1, 1) {
			return ast.NoNodeID
		}
		return t.NewRun(sp, b.expr(args[0]))

	case "call":
		if !b.arity(s, head, args, 1, -1) {
			return ast.NoNodeID
		}
		callee := b.expr(args[0])
		return t.NewCall(sp, callee, b.exprs(args[1:]))

	case "unary":
		if !b.arity(s, head, args, 2, 2) {
			return ast.NoNodeID
		}
		op, ok := args[0].symbol()
		if !ok {
			return b.fail(args[0], "operator must be a symbol")
		}
		return t.NewUnary(sp, op, b.expr(args[1]))

	case "binary":
		if !b.arity(s, head, args, 3, 3) {
			return ast.NoNodeID
		}
		op, ok := args[0].symbol()
		if !ok {
			return b.fail(args[0], "operator must be a symbol")
		}
		left := b.expr(args[1])
		return t.NewBinary(sp, op, left, b.expr(args[2]))

	case "if":
		if !b.arity(s, head, args, 2, 3) {
			return ast.NoNodeID
		}
		cond := b.expr(args[0])
		then := b.expr(args[1])
		els := ast.NoNodeID
		if len(args) == 3 {
			els = b.expr(args[2])
		}
		return t.NewIf(sp, cond, then, els)

	case "while":
		if !b.arity(s, head, args, 2, -1) {
			return ast.NoNodeID
		}
		cond := b.expr(args[0])
		return t.NewWhile(sp, cond, b.body(s, args[1:]))
	}
	return b.fail(items[0], "unknown form %q", head)
}
