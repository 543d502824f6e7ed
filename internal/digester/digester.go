// Package digester computes content digests for files: a cheap partial
// digest over a fixed-size prefix, and a full digest over the entire
// content. Both are grounded in the same streaming SHA-256 read loop; they
// differ only in how many bytes are read.
package digester

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mosaicfoundry/dupefind/internal/cache"
	"github.com/mosaicfoundry/dupefind/internal/model"
)

// Default sizes per spec.md §3/§4.2.
const (
	DefaultPartialSize = 4096
	DefaultChunkSize   = 65536
)

// Digester computes partial and full digests, optionally consulting and
// populating a persistent Cache.
type Digester struct {
	PartialSize int64
	ChunkSize   int
	Cache       *cache.Cache // nil disables caching
}

// New creates a Digester with the given tuning parameters. A nil cache
// disables caching.
func New(partialSize int64, chunkSize int, c *cache.Cache) *Digester {
	if partialSize <= 0 {
		partialSize = DefaultPartialSize
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Digester{PartialSize: partialSize, ChunkSize: chunkSize, Cache: c}
}

// ErrVanished indicates the file no longer exists where it was discovered.
var ErrVanished = errors.New("file vanished during digesting")

// Partial computes the digest of the first min(size, PartialSize) bytes of
// the file at path. Reaching EOF before PartialSize bytes is not an error:
// the digest is over whatever was actually read.
func (d *Digester) Partial(path string, size int64, modTime time.Time) (model.Digest, error) {
	if d.Cache != nil {
		if got, ok := d.Cache.Lookup(path, size, modTime, cache.Partial); ok {
			return got, nil
		}
	}

	digest, err := d.hashRange(path, min(size, d.PartialSize))
	if err != nil {
		return model.Digest{}, err
	}

	if d.Cache != nil {
		_ = d.Cache.Store(path, size, modTime, cache.Partial, digest)
	}
	return digest, nil
}

// Full computes the digest of the entire file at path, reading in
// ChunkSize-byte chunks.
func (d *Digester) Full(path string, size int64, modTime time.Time) (model.Digest, error) {
	if d.Cache != nil {
		if got, ok := d.Cache.Lookup(path, size, modTime, cache.Full); ok {
			return got, nil
		}
	}

	digest, err := d.hashRange(path, size)
	if err != nil {
		return model.Digest{}, err
	}

	if d.Cache != nil {
		_ = d.Cache.Store(path, size, modTime, cache.Full, digest)
	}
	return digest, nil
}

// hashRange hashes up to n bytes of path starting at offset 0, using a
// ChunkSize read buffer. Fewer bytes actually present (EOF) is not an
// error.
func (d *Digester) hashRange(path string, n int64) (model.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Digest{}, fmt.Errorf("%s: %w", path, ErrVanished)
		}
		return model.Digest{}, fmt.Errorf("%s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	hasher := sha256.New()
	buf := make([]byte, d.ChunkSize)
	if _, err := io.CopyBuffer(hasher, io.LimitReader(f, n), buf); err != nil {
		return model.Digest{}, fmt.Errorf("%s: %w", path, err)
	}

	var digest model.Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}
