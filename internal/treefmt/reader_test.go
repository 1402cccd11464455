package treefmt

import (
	"errors"
	"slices"
	"testing"

	"stagec/internal/ast"
	"stagec/internal/diag"
	"stagec/internal/source"
	"stagec/internal/testkit"
	"stagec/internal/types"
)

const sample = `(seq
  (extern log "console.log")
  (let x 1)
  (fun (y) (call log (binary + x y)))
  (quote js (let z (persist x))))`

func TestReadSample(t *testing.T) {
	tr, err := ReadString("sample.st", sample, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tr.Len() != 15 || tr.Root() != 15 || tr.Kind(tr.Root()) != ast.KindSeq {
		t.Fatalf("len=%d root=%d (%s)", tr.Len(), tr.Root(), tr.Kind(tr.Root()))
	}
	if ext, ok := tr.Extern(1); !ok || ext.Name != "log" || ext.Expansion != "console.log" {
		t.Fatalf("extern = %+v", ext)
	}
	if fn, ok := tr.Fun(10); !ok || !slices.Equal(fn.Params, []ast.NodeID{4}) || fn.Body != 9 {
		t.Fatalf("fun = %+v", fn)
	}
	if q, ok := tr.Quote(14); !ok || q.Annotation != "js" || q.Body != 13 {
		t.Fatalf("quote = %+v", q)
	}
	if esc, ok := tr.Escape(12); !ok || esc.Kind != ast.EscapePersist || esc.Count != 1 {
		t.Fatalf("escape = %+v", esc)
	}
	let := tr.Get(3)
	if got := sample[let.Span.Start:let.Span.End]; got != "(let x 1)" {
		t.Fatalf("let span covers %q", got)
	}
	lit := tr.Get(2)
	if got := sample[lit.Span.Start:lit.Span.End]; got != "1" {
		t.Fatalf("literal span covers %q", got)
	}
}

func TestSpansNest(t *testing.T) {
	inputs := []string{
		sample,
		"(let a 1)\n(fun (x y) (let b x) (binary * b y))\n(quote (splice 1 (quote a)))",
		"",
	}
	for _, src := range inputs {
		fs := source.NewFileSet()
		id := fs.AddVirtual("spans.st", []byte(src))
		tr, err := Read(fs, id, nil)
		if err != nil {
			t.Fatalf("read %q: %v", src, err)
		}
		if err := testkit.CheckSpanInvariants(tr, fs.Get(id)); err != nil {
			t.Fatalf("%q: %v", src, err)
		}
	}
}

func TestReadAtomsAndTopLevelSeq(t *testing.T) {
	tr, err := ReadString("atoms.st", `1 2.5 "s\n" true name ; trailing comment`, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	seq, ok := tr.Seq(tr.Root())
	if !ok || len(seq.Items) != 5 {
		t.Fatalf("top-level forms must become a seq, got %+v", seq)
	}
	wantKinds := []ast.LitKind{ast.LitInt, ast.LitFloat, ast.LitString, ast.LitBool}
	for i, k := range wantKinds {
		lit, ok := tr.Literal(seq.Items[i])
		if !ok || lit.Kind != k {
			t.Fatalf("item %d = %+v, want %s", i, lit, k)
		}
	}
	if lit, _ := tr.Literal(seq.Items[2]); lit.Text != "s\n" {
		t.Fatalf("string not unquoted: %q", lit.Text)
	}
	if name, _ := tr.Name(seq.Items[4]); name != "name" {
		t.Fatalf("bare symbol must be a lookup, got %s", tr.Kind(seq.Items[4]))
	}
}

func TestEscapeLevelsAndOptionalElse(t *testing.T) {
	tr, err := ReadString("esc.st", `(quote (quote (seq (splice 2 a) (persist b) (if c d))))`, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var counts []uint32
	tr.Walk(tr.Root(), func(id ast.NodeID) bool {
		if esc, ok := tr.Escape(id); ok {
			counts = append(counts, esc.Count)
		}
		if iff, ok := tr.If(id); ok && iff.Else.IsValid() {
			t.Fatalf("if without else got one")
		}
		return true
	})
	if !slices.Equal(counts, []uint32{2, 1}) {
		t.Fatalf("escape counts = %v", counts)
	}
}

func TestIdentifiersAreNFC(t *testing.T) {
	tr, err := ReadString("nfc.st", "(let cafe\u0301 1) caf\u00e9", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	seq, _ := tr.Seq(tr.Root())
	bound, _ := tr.Name(seq.Items[0])
	used, _ := tr.Name(seq.Items[1])
	if bound != used {
		t.Fatalf("names differ after normalisation: %q vs %q", bound, used)
	}
}

func TestBadFormsAreReported(t *testing.T) {
	bag := diag.NewBag(0)
	_, err := ReadString("bad.st", "(let 1 2) (frob x) (fun y y)", diag.BagReporter{Bag: bag})
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
	if bag.Len() != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %+v", bag.Len(), bag.Items())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.SynBadForm {
			t.Fatalf("unexpected code %s", d.Code.ID())
		}
	}
	if first := bag.Items()[0]; first.Primary.Start != 5 || first.Primary.End != 6 {
		t.Fatalf("let target span = %v", first.Primary)
	}
}

func TestUnbalancedInput(t *testing.T) {
	bag := diag.NewBag(0)
	_, err := ReadString("open.st", "(let x", diag.BagReporter{Bag: bag})
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.SynUnexpectedToken {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
}

func TestParseType(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	tests := []struct {
		src  string
		want string
	}{
		{"int", "int"},
		{"(fun (int float) void)", "(fun (int float) void)"},
		{"(code js int)", "(code js int)"},
		{"(fun () (code any))", ""},
	}
	for _, tt := range tests {
		id, err := ParseType(tt.src, in)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if tt.want != "" && in.String(id) != tt.want {
			t.Fatalf("%s parsed as %s", tt.src, in.String(id))
		}
	}
	if id, _ := ParseType("bool", in); id != b.Bool {
		t.Fatalf("bool must be the builtin")
	}
	for _, bad := range []string{"integer", "(fun int int)", "(tuple int)", "int int"} {
		if _, err := ParseType(bad, in); !errors.Is(err, ErrSyntax) {
			t.Fatalf("%q: expected ErrSyntax, got %v", bad, err)
		}
	}
}
