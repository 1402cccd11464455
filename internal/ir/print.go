package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"stagec/internal/ast"
)

// Dump writes a human-readable, deterministic rendering of c.
func Dump(w io.Writer, c *CompilerIR) error {
	if w == nil || c == nil {
		return nil
	}
	var b strings.Builder

	fmt.Fprintf(&b, "procs=%d progs=%d externs=%d uses=%d\n",
		len(c.Procs), len(c.Progs), len(c.Externs), len(c.DefUse))

	if c.Main != nil {
		b.WriteString("\nmain:\n")
		dumpProc(&b, c.Main)
	}
	for _, p := range c.Procs {
		fmt.Fprintf(&b, "\nproc #%d:\n", p.ID)
		dumpProc(&b, p)
	}
	for _, p := range c.Progs {
		ann := p.Annotation
		if ann == "" {
			ann = "_"
		}
		fmt.Fprintf(&b, "\nprog #%d %s:\n", p.ID, ann)
		fmt.Fprintf(&b, "  body=#%d\n", p.Body)
		fmt.Fprintf(&b, "  bound=%s\n", nodeList(p.Bound))
		fmt.Fprintf(&b, "  csr=%s\n", nodeList(p.CSR))
		fmt.Fprintf(&b, "  persist=%s\n", escapeList(p.Persist))
		fmt.Fprintf(&b, "  splice=%s\n", escapeList(p.Splice))
		fmt.Fprintf(&b, "  subprograms=%s\n", progList(p.Subprograms))
		fmt.Fprintf(&b, "  procs=%s\n", procList(c.QuotedProcs[p.ID]))
	}

	fmt.Fprintf(&b, "\ntoplevel=%s\n", procList(c.ToplevelProcs))

	if len(c.Externs) > 0 {
		b.WriteString("\nexterns:\n")
		ids := c.Externs.IDs()
		col := 0
		for _, id := range ids {
			col = max(col, runewidth.StringWidth(fmt.Sprintf("#%d", id)))
		}
		for _, id := range ids {
			label := fmt.Sprintf("#%d", id)
			fmt.Fprintf(&b, "  %s  %s\n", runewidth.FillRight(label, col), c.Externs[id])
		}
	}

	if len(c.DefUse) > 0 {
		b.WriteString("\ndefuse:\n")
		for _, use := range c.DefUse.Uses() {
			fmt.Fprintf(&b, "  #%d -> #%d\n", use, c.DefUse[use])
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func dumpProc(b *strings.Builder, p *Proc) {
	fmt.Fprintf(b, "  body=#%d\n", p.Body)
	fmt.Fprintf(b, "  params=%s\n", nodeList(p.Params))
	fmt.Fprintf(b, "  free=%s\n", nodeList(p.Free))
	fmt.Fprintf(b, "  bound=%s\n", nodeList(p.Bound))
	fmt.Fprintf(b, "  persists=%s\n", nodeList(p.Persists))
	fmt.Fprintf(b, "  csr=%s\n", nodeList(p.CSR))
}

func nodeList(ids []ast.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func procList(ids []ProcID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func progList(ids []ProgID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func escapeList(es []ProgEscape) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = fmt.Sprintf("#%d<-#%d", e.ID, e.Body)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
