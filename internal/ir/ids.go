// Package ir defines the mid-level IR of a staged program: lambda-lifted
// procedures (Proc), quote-lifted programs (Prog), and the id-indexed
// tables that relate them to the tree they were lifted from.
//
// Every cross-reference is an integer id. ProcID and ProgID values are
// the ast.NodeIDs of the Fun and Quote nodes they come from, so any
// table indexed by node id (scopes in particular) can be indexed by them
// directly; the distinct types only keep the id spaces from being mixed
// up in code.
package ir

import "stagec/internal/ast"

// ProcID identifies a lifted procedure. NoProcID stands for main.
type ProcID uint32

// ProgID identifies a lifted quotation. NoProgID means "no quote".
type ProgID uint32

const (
	NoProcID ProcID = 0
	NoProgID ProgID = 0
)

func (id ProcID) IsValid() bool { return id != NoProcID }
func (id ProgID) IsValid() bool { return id != NoProgID }

// Node returns the Fun node the procedure was lifted from.
func (id ProcID) Node() ast.NodeID { return ast.NodeID(id) }

// Node returns the Quote node the program was lifted from.
func (id ProgID) Node() ast.NodeID { return ast.NodeID(id) }

// ProcOf names the procedure lifted from Fun node n.
func ProcOf(n ast.NodeID) ProcID { return ProcID(n) }

// ProgOf names the program lifted from Quote node n.
func ProgOf(n ast.NodeID) ProgID { return ProgID(n) }
