package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveConfigSearchesUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[[intrinsic]]
name = "vec3"
type = "(fun (float float float) any)"

[[intrinsic]]
name = "abs"
type = "(fun (int) int)"

[lift]
validate = false
jobs = 4
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig("", nested)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Lift.Validate || cfg.Lift.Jobs != 4 {
		t.Fatalf("cfg = %+v", cfg)
	}
	decls := cfg.intrinsics()
	if len(decls) != 2 || decls[0].Name != "vec3" || decls[1].Name != "abs" {
		t.Fatalf("intrinsics must keep file order: %+v", decls)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig("", t.TempDir())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !cfg.Lift.Validate || len(cfg.Intrinsic) != 0 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[lift\n", "failed to parse TOML"},
		{"unknown_key", "[lift]\nfast = true\n", "unknown key"},
		{"negative_jobs", "[lift]\njobs = -1\n", "must not be negative"},
		{"bad_type", "[[intrinsic]]\nname = \"f\"\ntype = \"(fun int)\"\n", `intrinsic "f"`},
		{"missing_type", "[[intrinsic]]\nname = \"f\"\n", "has no type"},
		{"duplicate", "[[intrinsic]]\nname = \"f\"\ntype = \"int\"\n[[intrinsic]]\nname = \"f\"\ntype = \"int\"\n", "declared twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := loadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
