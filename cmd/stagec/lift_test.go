package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"stagec/internal/ir"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		for _, c := range []string{"format", "out", "jobs", "cache", "no-validate"} {
			if f := liftCmd.Flags().Lookup(c); f != nil {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
		for _, c := range []string{"timings", "timings-format"} {
			if f := rootCmd.PersistentFlags().Lookup(c); f != nil {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
		for _, c := range []string{"format", "full", "hash", "date"} {
			if f := versionCmd.Flags().Lookup(c); f != nil {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLiftPrintsIR(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, configFileName, "[[intrinsic]]\nname = \"sqrt\"\ntype = \"(fun (float) float)\"\n")
	unit := writeFile(t, dir, "u.st", `(seq (let n 2.0) (quote js (fun (x) (call sqrt (persist n)))))`)

	out, errOut, err := runCLI(t, "--color=off", "--config", cfg, "lift", unit)
	if err != nil {
		t.Fatalf("lift: %v\n%s", err, errOut)
	}
	for _, want := range []string{"procs=1 progs=1 externs=1", "main:", "prog #", "sqrt"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLiftMsgpackOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, configFileName, "")
	unit := writeFile(t, dir, "u.st", `(seq (let a 1) (fun () a))`)
	outPath := filepath.Join(dir, "u.mp")

	if _, errOut, err := runCLI(t, "--config", cfg, "lift", "--format", "msgpack", "-o", outPath, unit); err != nil {
		t.Fatalf("lift: %v\n%s", err, errOut)
	}
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	c, err := ir.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(c.Procs) != 1 {
		t.Fatalf("procs = %d", len(c.Procs))
	}
}

func TestLiftTimingsJSON(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, configFileName, "")
	unit := writeFile(t, dir, "u.st", `(seq (let a 1) (quote (fun () a)))`)

	_, errOut, err := runCLI(t, "--color=off", "--config", cfg, "--timings", "--timings-format", "json", "lift", unit)
	if err != nil {
		t.Fatalf("lift: %v\n%s", err, errOut)
	}
	var got unitTimings
	for _, line := range strings.Split(errOut, "\n") {
		if strings.HasPrefix(line, `{"path"`) {
			if err := json.Unmarshal([]byte(line), &got); err != nil {
				t.Fatalf("bad json %q: %v", line, err)
			}
		}
	}
	var names []string
	for _, p := range got.Timings.Phases {
		names = append(names, p.Name)
	}
	if !strings.HasSuffix(got.Path, "u.st") || !slices.Contains(names, "lambdas") || !slices.Contains(names, "validate") {
		t.Fatalf("timings = %+v", got)
	}
}

func TestLiftReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, configFileName, "")
	unit := writeFile(t, dir, "bad.st", "(seq\n  (binary + a 1))")

	_, errOut, err := runCLI(t, "--color=off", "--config", cfg, "lift", unit)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(errOut, "bad.st:2:13: ERROR SEM3001") {
		t.Fatalf("diagnostics:\n%s", errOut)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := runCLI(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("bad json %q: %v", out, err)
	}
	if payload.Tool != "stagec" || payload.Version == "" || payload.GitCommit != "" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestVersionFullReportsSchema(t *testing.T) {
	out, _, err := runCLI(t, "version", "--format", "json", "--full")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("bad json %q: %v", out, err)
	}
	if payload.IRSchema != ir.SchemaVersion || payload.GitCommit == "" {
		t.Fatalf("payload = %+v", payload)
	}
}
