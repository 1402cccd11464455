package ir

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"stagec/internal/ast"
)

// Validate checks the cross-table invariants of an assembled IR and
// returns every violation joined into one error.
func Validate(c *CompilerIR) error {
	if c == nil {
		return nil
	}
	var errs []error

	// 1. main is present and anonymous
	if err := validateMain(c); err != nil {
		errs = append(errs, err)
	}

	// 2. procs are sorted, unique and scoped
	if err := validateProcIDs(c); err != nil {
		errs = append(errs, err)
	}

	// 3. free never overlaps params or bound
	for _, p := range c.Procs {
		if err := validateFree(p); err != nil {
			errs = append(errs, fmt.Errorf("proc %d: %w", p.ID, err))
		}
	}
	if c.Main != nil {
		if err := validateFree(c.Main); err != nil {
			errs = append(errs, fmt.Errorf("main: %w", err))
		}
	}

	// 4. toplevel + quoted buckets partition the procs
	if err := validatePartition(c); err != nil {
		errs = append(errs, err)
	}

	// 5. subprograms name existing progs
	if err := validateSubprograms(c); err != nil {
		errs = append(errs, err)
	}

	// 6. def/use and extern ids are known to the type table
	if err := validateIDSpace(c); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateMain(c *CompilerIR) error {
	if c.Main == nil {
		return errors.New("missing main proc")
	}
	if c.Main.ID.IsValid() {
		return fmt.Errorf("main proc has id %d", c.Main.ID)
	}
	return nil
}

func validateProcIDs(c *CompilerIR) error {
	var errs []error
	for i, p := range c.Procs {
		if p == nil {
			errs = append(errs, fmt.Errorf("procs[%d] is nil", i))
			continue
		}
		if !p.ID.IsValid() {
			errs = append(errs, fmt.Errorf("procs[%d] has no id", i))
		}
		if i > 0 && c.Procs[i-1] != nil && c.Procs[i-1].ID >= p.ID {
			errs = append(errs, fmt.Errorf("procs not strictly ascending at %d", i))
		}
		if _, ok := c.Scopes.Get(p.ID.Node()); !ok {
			errs = append(errs, fmt.Errorf("proc %d has no scope entry", p.ID))
		}
	}
	for i := 1; i < len(c.Progs); i++ {
		if c.Progs[i-1].ID >= c.Progs[i].ID {
			errs = append(errs, fmt.Errorf("progs not strictly ascending at %d", i))
		}
	}
	return errors.Join(errs...)
}

func validateFree(p *Proc) error {
	var errs []error
	for _, f := range p.Free {
		if slices.Contains(p.Params, f) {
			errs = append(errs, fmt.Errorf("free %d is also a parameter", f))
		}
		if slices.Contains(p.Bound, f) {
			errs = append(errs, fmt.Errorf("free %d is also bound", f))
		}
	}
	return errors.Join(errs...)
}

func validatePartition(c *CompilerIR) error {
	var errs []error
	seen := make(map[ProcID]int, len(c.Procs))
	for _, id := range c.ToplevelProcs {
		seen[id]++
	}
	for prog, bucket := range c.QuotedProcs {
		if _, ok := c.Prog(prog); !ok {
			errs = append(errs, fmt.Errorf("quoted procs keyed by unknown prog %d", prog))
		}
		for _, id := range bucket {
			seen[id]++
		}
	}
	for _, p := range c.Progs {
		if _, ok := c.QuotedProcs[p.ID]; !ok {
			errs = append(errs, fmt.Errorf("prog %d has no quoted-procs bucket", p.ID))
		}
	}
	for _, p := range c.Procs {
		if p == nil {
			continue
		}
		switch n := seen[p.ID]; n {
		case 1:
		case 0:
			errs = append(errs, fmt.Errorf("proc %d is not grouped", p.ID))
		default:
			errs = append(errs, fmt.Errorf("proc %d grouped %d times", p.ID, n))
		}
		delete(seen, p.ID)
	}
	for _, id := range slices.Sorted(maps.Keys(seen)) {
		errs = append(errs, fmt.Errorf("grouping mentions unknown proc %d", id))
	}
	return errors.Join(errs...)
}

func validateSubprograms(c *CompilerIR) error {
	var errs []error
	for _, p := range c.Progs {
		for _, sub := range p.Subprograms {
			if sub == p.ID {
				errs = append(errs, fmt.Errorf("prog %d lists itself as a subprogram", p.ID))
				continue
			}
			if _, ok := c.Prog(sub); !ok {
				errs = append(errs, fmt.Errorf("prog %d: unknown subprogram %d", p.ID, sub))
			}
		}
	}
	return errors.Join(errs...)
}

func validateIDSpace(c *CompilerIR) error {
	if c.Types == nil {
		return nil
	}
	limit := ast.NodeID(c.Types.Len())
	var errs []error
	for _, use := range c.DefUse.Uses() {
		if def := c.DefUse[use]; !def.IsValid() || def >= limit {
			errs = append(errs, fmt.Errorf("use %d resolves to unknown id %d", use, def))
		}
	}
	for _, id := range c.Externs.IDs() {
		if !id.IsValid() || id >= limit {
			errs = append(errs, fmt.Errorf("extern id %d outside the type table", id))
		}
	}
	return errors.Join(errs...)
}
