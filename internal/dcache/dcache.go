// Package dcache persists probed runtime export sets on disk so
// repeated CLI runs skip dynamic-load probes for packages already
// seen. Thread-safe for concurrent access.
package dcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Snapshot format changes
const schemaVersion uint16 = 1

// Snapshot is the serialized export-record cache of one project.
type Snapshot struct {
	Schema uint16
	// Exports maps bare specifier to its probed runtime export names.
	Exports map[string][]string
	// Failed lists specifiers whose probe failed (the unavailable
	// sentinel); they are seeded so they are not re-probed either.
	Failed []string
}

// DiskCache stores snapshots keyed by project root.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a disk cache at the standard per-user location.
func Open(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenAt initializes a disk cache rooted at an explicit directory.
func OpenAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(projectRoot string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(projectRoot)))
	// подкаталог exports — для удобства очистки
	return filepath.Join(c.dir, "exports", hex.EncodeToString(sum[:])+".mp")
}

// Put serializes and writes a snapshot for projectRoot.
func (c *DiskCache) Put(projectRoot string, snap *Snapshot) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap.Schema = schemaVersion
	p := c.pathFor(projectRoot)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name()) //nolint:errcheck
	}()

	if err := msgpack.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads the snapshot for projectRoot. Returns false when absent or
// written by an incompatible schema.
func (c *DiskCache) Get(projectRoot string) (*Snapshot, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(projectRoot))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		_ = f.Close() //nolint:errcheck
	}()

	var snap Snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, false, fmt.Errorf("decode exports cache: %w", err)
	}
	if snap.Schema != schemaVersion {
		return nil, false, nil
	}
	return &snap, true, nil
}

// Drop removes the snapshot for projectRoot, if any.
func (c *DiskCache) Drop(projectRoot string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.pathFor(projectRoot))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
