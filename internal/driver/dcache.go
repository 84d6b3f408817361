package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"sable/internal/layout"
)

// Current schema version - increment when Artifact format changes.
const diskCacheSchemaVersion uint16 = 1

// Digest keys a cache entry: the SHA-256 of the manifest contents
// combined with the target triple.
type Digest [sha256.Size]byte

// ArtifactKey derives the cache key for a manifest file on a target.
// Different targets never share an entry.
func ArtifactKey(manifestPath string, target layout.Target) (Digest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", manifestPath, err)
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(target.Triple))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Artifact is the serialized result of one layout run: enough to
// render the table again without recomputing anything.
type Artifact struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16

	Module string
	Triple string
	Rows   []TableRow
}

// DiskCache stores layout artifacts keyed by Digest, one msgpack file
// per entry. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache returns a disk cache rooted at dir. An empty dir picks
// the standard per-user cache location.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "sable")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "layouts", hexKey+".mp")
}

// Put serializes and writes an artifact, replacing the entry
// atomically so readers never observe a half-written file.
func (c *DiskCache) Put(key Digest, artifact *Artifact) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	artifact.Schema = diskCacheSchemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(artifact); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the artifact for key. A missing entry or one written by a
// different schema version is a miss, not an error.
func (c *DiskCache) Get(key Digest) (*Artifact, bool, error) {
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

	var out Artifact
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&out); err != nil {
		return nil, false, err
	}
	if out.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	return &out, true, nil
}

// DropAll removes every cached artifact, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "layouts"))
}
