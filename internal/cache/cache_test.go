package cache_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"stagec/internal/analyze"
	"stagec/internal/cache"
	"stagec/internal/ir"
	"stagec/internal/treefmt"
	"stagec/internal/types"
)

func assemble(t *testing.T, src string) *ir.CompilerIR {
	t.Helper()
	tr, err := treefmt.ReadString("unit.st", src, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	in := types.NewInterner()
	c, err := analyze.Analyze(context.Background(), tr, types.Uniform(in, tr.Len(), in.Builtins().Any), nil, analyze.Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return c
}

func dump(t *testing.T, c *ir.CompilerIR) string {
	t.Helper()
	var b bytes.Buffer
	if err := ir.Dump(&b, c); err != nil {
		t.Fatal(err)
	}
	return b.String()
}

func TestKeyCoversContentAndIntrinsics(t *testing.T) {
	base := cache.KeyFor([]byte("(let a 1)"), "vec3 (fun (float) any)")
	tests := []struct {
		name string
		key  cache.Key
		same bool
	}{
		{"identical", cache.KeyFor([]byte("(let a 1)"), "vec3 (fun (float) any)"), true},
		{"content", cache.KeyFor([]byte("(let a 2)"), "vec3 (fun (float) any)"), false},
		{"intrinsics", cache.KeyFor([]byte("(let a 1)")), false},
		{"boundary", cache.KeyFor([]byte("(let a 1)vec3"), " (fun (float) any)"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.key == base) != tt.same {
				t.Fatalf("key %s vs %s, want same=%v", tt.key, base, tt.same)
			}
		})
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	dc, err := cache.OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := `(seq (extern log) (let n 1) (quote js (fun (x) (call log (binary + x n)))))`
	unit := assemble(t, src)
	key := cache.KeyFor([]byte(src))

	if _, ok, err := dc.Get(key); ok || err != nil {
		t.Fatalf("empty cache hit: %v %v", ok, err)
	}
	if err := dc.Put(key, unit); err != nil {
		t.Fatalf("put: %v", err)
	}
	back, ok, err := dc.Get(key)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if dump(t, back) != dump(t, unit) {
		t.Fatalf("cached IR differs:\n%s\nvs\n%s", dump(t, back), dump(t, unit))
	}
	if err := ir.Validate(back); err != nil {
		t.Fatalf("cached IR invalid: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dc.Dir(), "ir"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry and no temp files, got %d", len(entries))
	}
}

func TestGetTreatsCorruptEntryAsError(t *testing.T) {
	dc, err := cache.OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := cache.KeyFor([]byte("x"))
	dir := filepath.Join(dc.Dir(), "ir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, key.String()+".mp"), []byte{0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := dc.Get(key); ok || err == nil {
		t.Fatalf("corrupt entry: ok=%v err=%v", ok, err)
	}
}

func TestDropAll(t *testing.T) {
	dc, err := cache.OpenDir(filepath.Join(t.TempDir(), "stagec"))
	if err != nil {
		t.Fatal(err)
	}
	key := cache.KeyFor([]byte("(let a 1)"))
	if err := dc.Put(key, assemble(t, "(let a 1)")); err != nil {
		t.Fatal(err)
	}
	if err := dc.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok, _ := dc.Get(key); ok {
		t.Fatalf("entry survived DropAll")
	}
	if err := dc.Put(key, assemble(t, "(let a 1)")); err != nil {
		t.Fatalf("cache unusable after DropAll: %v", err)
	}
}

func TestOpenHonoursXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)
	dc, err := cache.Open("stagec")
	if err != nil {
		t.Fatal(err)
	}
	if dc.Dir() != filepath.Join(base, "stagec") {
		t.Fatalf("dir = %s", dc.Dir())
	}
}
