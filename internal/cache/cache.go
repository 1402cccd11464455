// Package cache stores assembled IR on disk, keyed by a hash of
// everything the IR is derived from.
package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"stagec/internal/ir"
)

// Key is the blake3 digest of a unit's inputs.
type Key [32]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// KeyFor derives the key of a unit from its content and the intrinsic
// declarations it was analysed with, in order. The IR schema version is
// part of the key, so a schema bump never reads stale entries.
func KeyFor(content []byte, decls ...string) Key {
	var buf bytes.Buffer
	var n [8]byte
	binary.BigEndian.PutUint16(n[:2], ir.SchemaVersion)
	buf.Write(n[:2])
	field := func(b []byte) {
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		buf.Write(n[:])
		buf.Write(b)
	}
	field(content)
	for _, d := range decls {
		field([]byte(d))
	}
	return Key(blake3.Sum256(buf.Bytes()))
}

// DiskCache keeps one msgpack file per key. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open returns the cache for app under $XDG_CACHE_HOME, or ~/.cache.
func Open(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir returns a cache rooted at dir, creating it if needed.
func OpenDir(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir is the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Key) string {
	return filepath.Join(c.dir, "ir", key.String()+".mp")
}

// Put writes c under key. The file is replaced atomically.
func (c *DiskCache) Put(key Key, unit *ir.CompilerIR) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = ir.Encode(f, unit); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the IR stored under key. A missing entry, or one written with
// another schema, is a miss.
func (c *DiskCache) Get(key Key) (*ir.CompilerIR, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	unit, err := ir.Decode(f)
	if errors.Is(err, ir.ErrSchema) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: %s: %w", key, err)
	}
	return unit, true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
