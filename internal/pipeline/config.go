package pipeline

import "github.com/mosaicfoundry/dupefind/internal/digester"

// Config holds every tunable of a Pipeline run, per spec.md §4.4.
type Config struct {
	// Workers bounds in-flight digest operations. <=0 triggers the
	// adaptive default (§4.4.1).
	Workers int

	// PartialSizeBytes is the prefix length read for a partial digest.
	PartialSizeBytes int64

	// ChunkSizeBytes is the read chunk size for a full digest.
	ChunkSizeBytes int

	// BatchSize, when non-zero and MemoryEfficient is set, bounds how
	// many same-size entries are held in memory before a bucket's
	// overflow is spilled to disk-backed storage.
	BatchSize int

	// MemoryEfficient enables disk-backed spillover for Stage 1 buckets
	// that grow past BatchSize, bounding peak RSS on pathological inputs
	// with many same-size files.
	MemoryEfficient bool

	// MetadataOnly skips Stages 2 and 3 entirely: groups are formed from
	// (basename, size) alone. The resulting Report is flagged
	// confidence=metadata_only.
	MetadataOnly bool

	// CachePath, if non-empty, persists digests across runs in a BoltDB
	// file at this path (see internal/cache).
	CachePath string
}

func (c Config) withDefaults() Config {
	if c.PartialSizeBytes <= 0 {
		c.PartialSizeBytes = digester.DefaultPartialSize
	}
	if c.ChunkSizeBytes <= 0 {
		c.ChunkSizeBytes = digester.DefaultChunkSize
	}
	return c
}
