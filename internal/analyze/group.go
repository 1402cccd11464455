package analyze

import "stagec/internal/ir"

// GroupByProg splits procs by the quote that contains them. Procs outside
// any quote go to toplevel; the rest go to the bucket of their quote.
// Every prog gets a bucket, possibly empty, and input order is kept
// within each output list.
func GroupByProg(procs []*ir.Proc, progs []*ir.Prog, scopes ir.ScopeTable) ([]ir.ProcID, map[ir.ProgID][]ir.ProcID) {
	quoted := make(map[ir.ProgID][]ir.ProcID, len(progs))
	for _, p := range progs {
		if p != nil {
			quoted[p.ID] = []ir.ProcID{}
		}
	}
	var toplevel []ir.ProcID
	for _, p := range procs {
		q := scopes.MustGet(p.ID.Node()).Quote
		if !q.IsValid() {
			toplevel = append(toplevel, p.ID)
			continue
		}
		bucket, ok := quoted[q]
		if !ok {
			ir.Faultf("proc %d is scoped in quote %d, which has no prog", p.ID, q)
		}
		quoted[q] = append(bucket, p.ID)
	}
	return toplevel, quoted
}
