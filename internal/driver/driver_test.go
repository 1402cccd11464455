package driver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stagec/internal/cache"
	"stagec/internal/diag"
	"stagec/internal/diagfmt"
	"stagec/internal/driver"
)

func writeUnit(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestLiftFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		src     string
		ok      bool
		code    diag.Code
		procs   int
		progs   int
		externs int
	}{
		{
			name:    "staged",
			src:     `(seq (extern log "console.log") (let n 1) (quote js (fun (x) (call log (binary + x (persist n))))))`,
			ok:      true,
			procs:   1,
			progs:   1,
			externs: 2,
		},
		{
			name: "syntax",
			src:  `(let x`,
			code: diag.SynUnexpectedToken,
		},
		{
			name: "bad_form",
			src:  `(frob 1)`,
			code: diag.SynBadForm,
		},
		{
			name: "unresolved",
			src:  `(fun (x) (binary + x y))`,
			code: diag.SemaUnresolvedSymbol,
		},
		{
			name:    "intrinsic",
			src:     `(call vec3 1.0 2.0 3.0)`,
			ok:      true,
			externs: 1,
		},
	}
	opts := driver.Options{
		Validate: true,
		Intrinsics: []driver.IntrinsicDecl{
			{Name: "vec3", Type: "(fun (float float float) any)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeUnit(t, dir, tt.name+".st", tt.src)
			res, err := driver.LiftFile(context.Background(), path, opts)
			if err != nil {
				t.Fatalf("lift: %v", err)
			}
			if res.OK() != tt.ok {
				t.Fatalf("ok = %v, diagnostics %v", res.OK(), codes(res.Bag))
			}
			if !tt.ok {
				if res.IR != nil {
					t.Fatalf("IR returned for a failed unit")
				}
				if got := codes(res.Bag); len(got) == 0 || got[0] != tt.code {
					t.Fatalf("codes = %v, want %v", got, tt.code)
				}
				return
			}
			if len(res.IR.Procs) != tt.procs || len(res.IR.Progs) != tt.progs || len(res.IR.Externs) != tt.externs {
				t.Fatalf("procs=%d progs=%d externs=%d", len(res.IR.Procs), len(res.IR.Progs), len(res.IR.Externs))
			}
		})
	}
}

func TestLiftFileRejectsBadIntrinsicType(t *testing.T) {
	path := writeUnit(t, t.TempDir(), "u.st", `1`)
	_, err := driver.LiftFile(context.Background(), path, driver.Options{
		Intrinsics: []driver.IntrinsicDecl{{Name: "bad", Type: "(fun int)"}},
	})
	if err == nil {
		t.Fatalf("expected an error for a malformed intrinsic type")
	}
}

func TestLiftFileMissing(t *testing.T) {
	if _, err := driver.LiftFile(context.Background(), filepath.Join(t.TempDir(), "nope.st"), driver.Options{}); err == nil {
		t.Fatalf("expected a load error")
	}
}

func TestLiftFileUsesCache(t *testing.T) {
	dc, err := cache.OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := writeUnit(t, t.TempDir(), "c.st", `(seq (let a 1) (fun () a))`)
	opts := driver.Options{Cache: dc, Validate: true, EnableTimings: true}

	first, err := driver.LiftFile(context.Background(), path, opts)
	if err != nil || !first.OK() || first.Cached {
		t.Fatalf("first run: %+v, %v", first, err)
	}
	second, err := driver.LiftFile(context.Background(), path, opts)
	if err != nil || !second.OK() || !second.Cached {
		t.Fatalf("second run must hit the cache: %+v, %v", second, err)
	}
	if len(second.IR.Procs) != 1 || len(second.IR.Main.Bound) != 1 {
		t.Fatalf("cached IR lost data: %+v", second.IR)
	}

	opts.Intrinsics = []driver.IntrinsicDecl{{Name: "k", Type: "int"}}
	third, err := driver.LiftFile(context.Background(), path, opts)
	if err != nil || third.Cached {
		t.Fatalf("changing intrinsics must miss: %+v, %v", third, err)
	}
}

func TestLiftFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeUnit(t, dir, "a.st", `(let a 1)`),
		filepath.Join(dir, "missing.st"),
		writeUnit(t, dir, "b.st", `(quote (fun () 2))`),
		writeUnit(t, dir, "c.st", `(binary + nope 1)`),
	}
	results, err := driver.LiftFiles(context.Background(), paths, driver.Options{Jobs: 2, Validate: true})
	if err != nil {
		t.Fatalf("lift: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("results = %d", len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Fatalf("result %d is for %s, want %s", i, res.Path, paths[i])
		}
	}
	wantOK := []bool{true, false, true, false}
	for i, res := range results {
		if res.OK() != wantOK[i] {
			t.Fatalf("%s: ok = %v, diagnostics %v", res.Path, res.OK(), codes(res.Bag))
		}
	}
	if got := codes(results[1].Bag); len(got) != 1 || got[0] != diag.IOLoadFileError {
		t.Fatalf("missing file codes = %v", got)
	}
	var buf bytes.Buffer
	if err := diagfmt.Pretty(&buf, results[1].Bag, results[1].FileSet, diagfmt.PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "?: ERROR IO4001") {
		t.Fatalf("load error must not point into another unit: %q", buf.String())
	}
}

func TestLiftFilesHonoursCancellation(t *testing.T) {
	path := writeUnit(t, t.TempDir(), "a.st", `(let a 1)`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.LiftFiles(ctx, []string{path}, driver.Options{}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
