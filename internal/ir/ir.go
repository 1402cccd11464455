package ir

import (
	"sort"

	"stagec/internal/ast"
	"stagec/internal/types"
)

// Proc is a lambda-lifted function: the original body plus explicit lists
// of parameters, captured (free) definitions and local bindings.
type Proc struct {
	ID     ProcID       `msgpack:"id"` // NoProcID for main
	Body   ast.NodeID   `msgpack:"body"`
	Params []ast.NodeID `msgpack:"params"`
	// Free lists captured definitions in first-use order. None of them
	// is in Params or Bound.
	Free  []ast.NodeID `msgpack:"free"`
	Bound []ast.NodeID `msgpack:"bound"`

	// Persists lists persist escapes that run inside this function.
	Persists []ast.NodeID `msgpack:"persists"`
	// CSR lists references in this function whose definition lives in
	// another stage.
	CSR []ast.NodeID `msgpack:"csr"`
}

// IsMain reports whether p is the unit's top-level procedure.
func (p *Proc) IsMain() bool { return !p.ID.IsValid() }

// ProgEscape is one persist or splice point of a quote.
type ProgEscape struct {
	ID   ast.NodeID `msgpack:"id"`   // the Escape node
	Body ast.NodeID `msgpack:"body"` // expression producing the value or fragment
}

// Prog is a quote-lifted program, the quotation analogue of a Proc.
// Progs bind names but have no free variables: everything that crosses
// into them goes through Persist, Splice or CSR.
type Prog struct {
	ID         ProgID       `msgpack:"id"`
	Body       ast.NodeID   `msgpack:"body"`
	Annotation string       `msgpack:"annotation"`
	Bound      []ast.NodeID `msgpack:"bound"`

	// CSR lists references that reach an outer stage without an escape.
	CSR []ast.NodeID `msgpack:"csr"`

	Persist []ProgEscape `msgpack:"persist"`
	Splice  []ProgEscape `msgpack:"splice"`

	// Subprograms lists the quotes nested exactly one stage inside.
	Subprograms []ProgID `msgpack:"subprograms"`
}

// CompilerIR is the assembled IR of one unit. It is immutable once built
// and can be shared with code generators without synchronization.
type CompilerIR struct {
	DefUse DefUseTable

	// Procs excludes main and is sorted by id.
	Procs []*Proc
	Main  *Proc

	// Progs is sorted by id.
	Progs []*Prog

	// ToplevelProcs lists procs outside any quote; QuotedProcs groups the
	// rest by the quote that contains them. Every Prog has a bucket.
	ToplevelProcs []ProcID
	QuotedProcs   map[ProgID][]ProcID

	Types   *types.Table
	Externs ExternTable
	Scopes  ScopeTable
}

// Proc returns the procedure with the given id. NoProcID yields main.
func (c *CompilerIR) Proc(id ProcID) (*Proc, bool) {
	if !id.IsValid() {
		return c.Main, c.Main != nil
	}
	i := sort.Search(len(c.Procs), func(i int) bool { return c.Procs[i].ID >= id })
	if i < len(c.Procs) && c.Procs[i].ID == id {
		return c.Procs[i], true
	}
	return nil, false
}

// Prog returns the program with the given id.
func (c *CompilerIR) Prog(id ProgID) (*Prog, bool) {
	i := sort.Search(len(c.Progs), func(i int) bool { return c.Progs[i].ID >= id })
	if i < len(c.Progs) && c.Progs[i].ID == id {
		return c.Progs[i], true
	}
	return nil, false
}

// ProgIDs returns the ids of all programs in ascending order.
func (c *CompilerIR) ProgIDs() []ProgID {
	out := make([]ProgID, len(c.Progs))
	for i, p := range c.Progs {
		out[i] = p.ID
	}
	return out
}
