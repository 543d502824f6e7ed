// Package cache provides persistent caching of partial/full content digests
// across runs, keyed by path, size, modification time, and digest kind.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

const bucketName = "digests"

// Kind distinguishes a partial digest from a full digest in the cache key;
// the two never collide even for files small enough that the partial digest
// covers the whole file.
type Kind byte

const (
	Partial Kind = 1
	Full    Kind = 2
)

// Cache provides persistent caching of content digests using BoltDB.
// Implements self-cleaning: each run creates a new database, only entries
// actually looked up or stored survive to the next run.
type Cache struct {
	readDB  *bolt.DB // Existing cache (read-only)
	writeDB *bolt.DB // New cache (write) - BoltDB locks this file
	path    string   // Final path (for atomic swap)
	enabled bool
}

// Open opens the existing cache for reading and creates a new cache for
// writing. BoltDB's built-in file locking on the .new file prevents
// concurrent instances sharing a cache path. Returns a disabled (no-op)
// cache if path is empty.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}
	var err error

	if _, statErr := os.Stat(path); statErr == nil {
		c.readDB, err = bolt.Open(path, 0o600, &bolt.Options{
			ReadOnly: true,
			Timeout:  1 * time.Second,
		})
		if err != nil {
			c.readDB = nil
		}
	}

	newPath := path + ".new"
	c.writeDB, err = bolt.Open(newPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create new cache (locked by another instance?): %w", err)
	}

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Close closes both databases and atomically replaces the old cache with
// the new one. Only replaces if the write database closed successfully, to
// avoid losing the previous generation's cache on a partial failure.
func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			errs = append(errs, err)
		} else if err := os.Rename(c.path+".new", c.path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

const keyVersion byte = 1 // Increment when key format changes

// makeKey builds a deterministic byte key.
// Key = ver(1) + path + NUL + size(8) + mtime(8) + kind(1)
func makeKey(path string, size int64, modTime time.Time, kind Kind) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(path)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.BigEndian, size)
	_ = binary.Write(buf, binary.BigEndian, modTime.UnixNano())
	buf.WriteByte(byte(kind))
	return buf.Bytes()
}

// Lookup retrieves a cached digest for (path, size, modTime, kind). Any
// change in size or modTime since the digest was stored is a cache miss.
// On hit, the entry is copied into the new generation (self-cleaning).
func (c *Cache) Lookup(path string, size int64, modTime time.Time, kind Kind) (model.Digest, bool) {
	var digest model.Digest
	if !c.enabled || c.readDB == nil {
		return digest, false
	}

	key := makeKey(path, size, modTime, kind)
	var found bool

	_ = c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		data := b.Get(key)
		if len(data) == len(digest) {
			copy(digest[:], data)
			found = true
		}
		return nil
	})

	if found {
		_ = c.Store(path, size, modTime, kind, digest)
	}
	return digest, found
}

// Store saves a digest for (path, size, modTime, kind) into the new
// generation database.
func (c *Cache) Store(path string, size int64, modTime time.Time, kind Kind, digest model.Digest) error {
	if !c.enabled || c.writeDB == nil {
		return nil
	}
	err := c.writeDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put(makeKey(path, size, modTime, kind), digest[:])
	})
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}
