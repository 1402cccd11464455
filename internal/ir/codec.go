package ir

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"stagec/internal/ast"
	"stagec/internal/types"
)

// Current schema version - increment when the encoded layout changes
const SchemaVersion uint16 = 1

// ErrSchema is returned by Decode when the stream was written with a
// different schema version.
var ErrSchema = errors.New("ir: schema version mismatch")

type defUsePair struct {
	Use ast.NodeID `msgpack:"u"`
	Def ast.NodeID `msgpack:"d"`
}

type externPair struct {
	ID   ast.NodeID `msgpack:"id"`
	Name string     `msgpack:"name"`
}

type quotedBucket struct {
	Prog  ProgID   `msgpack:"prog"`
	Procs []ProcID `msgpack:"procs"`
}

// payload is the wire form of CompilerIR. Maps are flattened into sorted
// slices so equal IRs encode to equal bytes.
type payload struct {
	Schema        uint16         `msgpack:"schema"`
	DefUse        []defUsePair   `msgpack:"defuse"`
	Procs         []*Proc        `msgpack:"procs"`
	Main          *Proc          `msgpack:"main"`
	Progs         []*Prog        `msgpack:"progs"`
	ToplevelProcs []ProcID       `msgpack:"toplevel"`
	QuotedProcs   []quotedBucket `msgpack:"quoted"`
	Types         types.Snapshot `msgpack:"types"`
	Externs       []externPair   `msgpack:"externs"`
	Scopes        []Scope        `msgpack:"scopes"`
}

// Encode writes c to w in msgpack form.
func Encode(w io.Writer, c *CompilerIR) error {
	if c == nil {
		return errors.New("ir: encode nil CompilerIR")
	}
	p := payload{
		Schema:        SchemaVersion,
		Procs:         c.Procs,
		Main:          c.Main,
		Progs:         c.Progs,
		ToplevelProcs: c.ToplevelProcs,
		Scopes:        c.Scopes.Entries(),
	}
	for _, use := range c.DefUse.Uses() {
		p.DefUse = append(p.DefUse, defUsePair{Use: use, Def: c.DefUse[use]})
	}
	for _, id := range c.Externs.IDs() {
		p.Externs = append(p.Externs, externPair{ID: id, Name: c.Externs[id]})
	}
	for _, prog := range c.ProgIDs() {
		p.QuotedProcs = append(p.QuotedProcs, quotedBucket{Prog: prog, Procs: c.QuotedProcs[prog]})
	}
	if c.Types != nil {
		p.Types = c.Types.Snapshot()
	}
	return msgpack.NewEncoder(w).Encode(&p)
}

// Decode reads an IR written by Encode.
func Decode(r io.Reader) (*CompilerIR, error) {
	var p payload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("ir: decode: %w", err)
	}
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, p.Schema, SchemaVersion)
	}
	c := &CompilerIR{
		DefUse:        make(DefUseTable, len(p.DefUse)),
		Procs:         p.Procs,
		Main:          p.Main,
		Progs:         p.Progs,
		ToplevelProcs: p.ToplevelProcs,
		QuotedProcs:   make(map[ProgID][]ProcID, len(p.QuotedProcs)),
		Types:         types.Restore(p.Types),
		Externs:       make(ExternTable, len(p.Externs)),
		Scopes:        ScopeTableFrom(p.Scopes),
	}
	for _, du := range p.DefUse {
		c.DefUse[du.Use] = du.Def
	}
	for _, e := range p.Externs {
		c.Externs[e.ID] = e.Name
	}
	for _, b := range p.QuotedProcs {
		c.QuotedProcs[b.Prog] = slices.Clone(b.Procs)
	}
	return c, nil
}
