// Package diagfmt renders diagnostics for terminals.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"stagec/internal/diag"
	"stagec/internal/source"
)

// Pretty writes every diagnostic of bag in the form
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// optionally followed by the source line with a caret underline and by
// the notes. The bag is printed in its current order; call Sort first for
// stable output.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if w == nil || bag == nil {
		return nil
	}
	p := printer{fs: fs, opts: opts}
	var b strings.Builder
	for _, d := range bag.Items() {
		p.diagnostic(&b, d)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type printer struct {
	fs   *source.FileSet
	opts PrettyOpts
}

func (p printer) diagnostic(b *strings.Builder, d diag.Diagnostic) {
	sev := severityColor(d.Severity)
	code := color.New(color.Faint)
	if p.opts.Color {
		sev.EnableColor()
		code.EnableColor()
	} else {
		sev.DisableColor()
		code.DisableColor()
	}
	fmt.Fprintf(b, "%s: %s %s: %s\n",
		p.location(d.Primary), sev.Sprint(d.Severity.String()), code.Sprint(d.Code.ID()), sanitizeMessage(d.Message))
	if p.opts.Context {
		p.context(b, d.Primary)
	}
	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(b, "  note: %s: %s\n", p.location(n.Span), sanitizeMessage(n.Msg))
		}
	}
}

func (p printer) location(sp source.Span) string {
	if p.fs == nil {
		return "?"
	}
	f := p.fs.Get(sp.File)
	if f == nil {
		return "?"
	}
	start, _ := p.fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
}

func (p printer) context(b *strings.Builder, sp source.Span) {
	if p.fs == nil {
		return
	}
	f := p.fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := p.fs.Resolve(sp)
	line := f.Line(start.Line)
	if line == "" {
		return
	}
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		stop := min(int(end.Col)-1, len(line))
		width = max(runewidth.StringWidth(line[col:stop]), 1)
	}
	pad := runewidth.StringWidth(line[:col])
	fmt.Fprintf(b, "  | %s\n  | %s^%s\n", line, strings.Repeat(" ", pad), strings.Repeat("~", width-1))
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
