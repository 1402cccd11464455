package treefmt

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// document is a sequence of top-level forms.
//
//nolint:govet // participle grammar tags are not standard struct tags
type document struct {
	Forms []*sexpr `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type sexpr struct {
	Pos lexer.Position

	List   *list   `  @@`
	String *string `| @String`
	Number *string `| @Number`
	Symbol *string `| @Symbol`
}

//nolint:govet // participle grammar tags are not standard struct tags
type list struct {
	Open  bool     `@"("`
	Items []*sexpr `@@* ")"`
}

var sexprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `[-+]?[0-9]+(\.[0-9]+)?`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "Symbol", Pattern: `[^\s()";]+`},
})

var sexprParser = participle.MustBuild[document](
	participle.Lexer(sexprLexer),
	participle.Elide("Comment", "Whitespace"),
)

func (s *sexpr) symbol() (string, bool) {
	if s == nil || s.Symbol == nil {
		return "", false
	}
	return *s.Symbol, true
}

// extent returns the byte length of s in content, which must be the text
// s was parsed from. String tokens are kept quoted for this reason.
func (s *sexpr) extent(content []byte) int {
	switch {
	case s.String != nil:
		return len(*s.String)
	case s.Number != nil:
		return len(*s.Number)
	case s.Symbol != nil:
		return len(*s.Symbol)
	}
	depth := 0
	for i := s.Pos.Offset; i < len(content); i++ {
		switch content[i] {
		case '"':
			for i++; i < len(content) && content[i] != '"'; i++ {
				if content[i] == '\\' {
					i++
				}
			}
		case ';':
			for i < len(content) && content[i] != '\n' {
				i++
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1 - s.Pos.Offset
			}
		}
	}
	return len(content) - s.Pos.Offset
}
