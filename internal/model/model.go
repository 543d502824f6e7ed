// Package model defines the data types shared across the duplicate-detection
// pipeline: file entries, content digests, and the groups/report they
// aggregate into.
package model

import (
	"cmp"
	"crypto/sha256"
	"fmt"
	"slices"
	"time"
)

// FileEntry describes a regular file discovered by the walker. Immutable
// once produced.
type FileEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Digest is a 256-bit content digest (SHA-256). The same type represents
// both PartialDigest and FullDigest from the spec; they are distinguished
// by which bytes were hashed to produce them, not by their Go type.
type Digest [sha256.Size]byte

// Zero reports whether d is the zero digest (never a valid hash output,
// used as a sentinel for "not yet computed").
func (d Digest) Zero() bool { return d == Digest{} }

// Sorted is an ordered collection that maintains sort order by a key
// function. Once constructed, items are guaranteed to be sorted by key.
type Sorted[T any, K cmp.Ordered] struct {
	items   []T
	keyFunc func(T) K
}

// NewSorted creates a sorted collection from items using keyFunc for
// ordering. Items are copied and sorted at construction time.
func NewSorted[T any, K cmp.Ordered](items []T, keyFunc func(T) K) Sorted[T, K] {
	sorted := make([]T, len(items))
	copy(sorted, items)
	slices.SortFunc(sorted, func(a, b T) int {
		return cmp.Compare(keyFunc(a), keyFunc(b))
	})
	return Sorted[T, K]{items: sorted, keyFunc: keyFunc}
}

// Items returns the sorted items.
func (s Sorted[T, K]) Items() []T { return s.items }

// First returns the first item (smallest key), or the zero value if empty.
func (s Sorted[T, K]) First() T {
	if len(s.items) == 0 {
		var zero T
		return zero
	}
	return s.items[0]
}

// Len returns the number of items.
func (s Sorted[T, K]) Len() int { return len(s.items) }

// FileGroup is a confirmed set of ≥2 files with identical full digests.
type FileGroup struct {
	Digest  Digest
	Size    int64
	Members Sorted[string, string] // paths, sorted
}

// NewFileGroup builds a FileGroup from unsorted member paths.
func NewFileGroup(digest Digest, size int64, paths []string) FileGroup {
	return FileGroup{
		Digest:  digest,
		Size:    size,
		Members: NewSorted(paths, func(p string) string { return p }),
	}
}

// FolderGroup is a confirmed set of ≥2 directories whose complete recursive
// contents are byte-identical (same DirectoryDigest).
type FolderGroup struct {
	Digest     Digest
	Members    Sorted[string, string] // directory paths, sorted
	FileCount  uint32
	TotalBytes uint64
}

// NewFolderGroup builds a FolderGroup from unsorted member directory paths.
func NewFolderGroup(digest Digest, paths []string, fileCount uint32, totalBytes uint64) FolderGroup {
	return FolderGroup{
		Digest:     digest,
		Members:    NewSorted(paths, func(p string) string { return p }),
		FileCount:  fileCount,
		TotalBytes: totalBytes,
	}
}

// Confidence describes how a Report's groups were determined.
type Confidence int

const (
	// Exact means groups are backed by full-content digests (or the
	// size/partial shortcuts that are provably equivalent to one).
	Exact Confidence = iota
	// MetadataOnly means groups were formed from (basename, size) alone,
	// per the Pipeline's metadata_only option; results are approximate.
	MetadataOnly
)

func (c Confidence) String() string {
	if c == MetadataOnly {
		return "metadata_only"
	}
	return "exact"
}

// Stats records run-level counters and the tuning decisions the Pipeline
// made, so a Report consumer can see why a given concurrency was chosen.
type Stats struct {
	FilesWalked   int64
	BytesWalked   int64
	Stage1Buckets int64
	Stage2Buckets int64
	Stage3Buckets int64
	Duration      time.Duration
	Workers       int
	DiskHint      string
}

// String renders a one-line human-readable summary, mirroring the
// teacher's pattern of surfacing tuning decisions directly in output.
func (s Stats) String() string {
	return fmt.Sprintf(
		"%d files (%d bytes) walked, %d/%d/%d size/partial/full buckets, workers=%d disk=%s in %s",
		s.FilesWalked, s.BytesWalked, s.Stage1Buckets, s.Stage2Buckets, s.Stage3Buckets,
		s.Workers, s.DiskHint, s.Duration.Round(time.Millisecond),
	)
}

// Report is the immutable, sole return value of a Pipeline run.
type Report struct {
	FileGroups   []FileGroup
	FolderGroups []FolderGroup
	UniqueFiles  []FileEntry
	Stats        Stats
	Warnings     map[string]int64
	Confidence   Confidence
}

// Semaphore implements a counting semaphore using a buffered channel. It
// limits concurrent access to a resource by blocking when the limit is
// reached.
type Semaphore chan struct{}

// NewSemaphore creates a semaphore that allows up to n concurrent
// acquisitions.
func NewSemaphore(n int) Semaphore { return make(chan struct{}, n) }

// Acquire blocks until a slot is available, then claims it.
func (s Semaphore) Acquire() { s <- struct{}{} }

// Release frees a slot, unblocking one waiting Acquire call.
func (s Semaphore) Release() { <-s }
