package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"stagec/internal/driver"
	"stagec/internal/treefmt"
	"stagec/internal/types"
)

const configFileName = "stagec.toml"

type stagecConfig struct {
	Intrinsic []intrinsicConfig `toml:"intrinsic"`
	Lift      liftConfig        `toml:"lift"`
}

type intrinsicConfig struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type liftConfig struct {
	Validate bool `toml:"validate"`
	Cache    bool `toml:"cache"`
	Jobs     int  `toml:"jobs"`
}

func defaultConfig() stagecConfig {
	return stagecConfig{Lift: liftConfig{Validate: true}}
}

// intrinsics returns the declared intrinsics in file order.
func (c stagecConfig) intrinsics() []driver.IntrinsicDecl {
	out := make([]driver.IntrinsicDecl, len(c.Intrinsic))
	for i, in := range c.Intrinsic {
		out[i] = driver.IntrinsicDecl{Name: in.Name, Type: in.Type}
	}
	return out
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// resolveConfig loads the file named by path or, when path is empty, the
// nearest stagec.toml above startDir. No file means defaults.
func resolveConfig(path, startDir string) (stagecConfig, error) {
	if path == "" {
		found, ok, err := findConfig(startDir)
		if err != nil {
			return stagecConfig{}, err
		}
		if !ok {
			return defaultConfig(), nil
		}
		path = found
	}
	return loadConfig(path)
}

func loadConfig(path string) (stagecConfig, error) {
	cfg := defaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return stagecConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return stagecConfig{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if meta.IsDefined("lift", "jobs") && cfg.Lift.Jobs < 0 {
		return stagecConfig{}, fmt.Errorf("%s: [lift].jobs must not be negative", path)
	}

	in := types.NewInterner()
	seen := make(map[string]bool, len(cfg.Intrinsic))
	for i, it := range cfg.Intrinsic {
		if it.Name == "" {
			return stagecConfig{}, fmt.Errorf("%s: intrinsic #%d has no name", path, i+1)
		}
		if seen[it.Name] {
			return stagecConfig{}, fmt.Errorf("%s: intrinsic %q declared twice", path, it.Name)
		}
		seen[it.Name] = true
		if it.Type == "" {
			return stagecConfig{}, fmt.Errorf("%s: intrinsic %q has no type", path, it.Name)
		}
		if _, err := treefmt.ParseType(it.Type, in); err != nil {
			return stagecConfig{}, fmt.Errorf("%s: intrinsic %q: %w", path, it.Name, err)
		}
	}
	return cfg, nil
}
