package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"stagec/internal/ast"
	"stagec/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a tree read
// from sf:
// 1) every node span points at sf and ends within its content
// 2) every node span is non-empty, except the root of an empty unit
// 3) every child span is contained in its parent's span
func CheckSpanInvariants(t *ast.Tree, sf *source.File) error {
	if t == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var errs []error
	var check func(id ast.NodeID, parent source.Span, hasParent bool)
	check = func(id ast.NodeID, parent source.Span, hasParent bool) {
		n := t.Get(id)
		if n == nil {
			errs = append(errs, fmt.Errorf("node %d not found", id))
			return
		}
		sp := n.Span
		if sp.File != sf.ID {
			errs = append(errs, fmt.Errorf("node %d span points to different file id: got=%d want=%d", id, sp.File, sf.ID))
		}
		if sp.End > lenContent {
			errs = append(errs, fmt.Errorf("node %d span end beyond content: %d > %d", id, sp.End, lenContent))
		}
		children := t.Children(id)
		if sp.End <= sp.Start && (hasParent || len(children) > 0) {
			errs = append(errs, fmt.Errorf("node %d (%s) has empty span %v", id, n.Kind, sp))
		}
		if hasParent && !parent.Contains(sp) {
			errs = append(errs, fmt.Errorf("node %d span %v is outside parent span %v", id, sp, parent))
		}
		for _, child := range children {
			check(child, sp, true)
		}
	}
	check(t.Root(), source.Span{}, false)

	return errors.Join(errs...)
}
