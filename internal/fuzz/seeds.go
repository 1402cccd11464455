package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 16 << 10
)

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	addFormSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".st" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

// addFormSeeds covers every form of the tree format at least once.
func addFormSeeds(f *testing.F) {
	for _, src := range []string{
		``,
		`1 2.5 "s" true x`,
		`(let x 1) (assign x 2) (lookup x)`,
		`(extern log "console.log") (call log 1)`,
		`(fun (a b) (binary + a b))`,
		`(unary - 1)`,
		`(quote js (persist 1 x))`,
		`(quote (quote (splice 2 (quote 1))))`,
		`(run (quote 1))`,
		`(if c t e) (while c (seq))`,
		`(persist x)`,
		`(splice 0 x)`,
		`(let (x) 1)`,
		`((((`,
	} {
		f.Add([]byte(src))
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
