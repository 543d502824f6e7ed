// Package warnings accumulates non-fatal, per-entry errors encountered
// during a run, keyed by kind, so the top-level Report can surface their
// counts without aborting the pipeline.
package warnings

import "sync/atomic"

// Kind classifies a non-fatal per-entry error.
type Kind int

const (
	// PermissionDenied covers readdir/stat/open failures due to permissions.
	PermissionDenied Kind = iota
	// BrokenSymlink covers a file symlink whose target is missing or not a
	// regular file.
	BrokenSymlink
	// Vanished covers a file that existed at readdir time but was gone by
	// the time it was stat'd or opened.
	Vanished
	// IoError covers any other read failure during digesting.
	IoError
	// NotRegularFile covers special files (devices, FIFOs, sockets) that
	// were skipped.
	NotRegularFile
)

// String returns a human-readable label for the kind, used by Formatters.
func (k Kind) String() string {
	switch k {
	case PermissionDenied:
		return "permission_denied"
	case BrokenSymlink:
		return "broken_symlink"
	case Vanished:
		return "vanished"
	case IoError:
		return "io_error"
	case NotRegularFile:
		return "not_regular_file"
	default:
		return "unknown"
	}
}

// Collector accumulates warning counts by kind. The zero value is ready to
// use. Safe for concurrent use by any number of goroutines.
type Collector struct {
	counts [5]atomic.Int64
}

// New creates a ready-to-use Collector.
func New() *Collector { return &Collector{} }

// Add increments the counter for kind by one. Safe to call concurrently.
func (c *Collector) Add(kind Kind) {
	if c == nil {
		return
	}
	if int(kind) < 0 || int(kind) >= len(c.counts) {
		return
	}
	c.counts[kind].Add(1)
}

// Snapshot returns the current counts as a map, omitting kinds with a zero
// count.
func (c *Collector) Snapshot() map[Kind]int64 {
	out := make(map[Kind]int64)
	if c == nil {
		return out
	}
	for i := range c.counts {
		if n := c.counts[i].Load(); n > 0 {
			out[Kind(i)] = n
		}
	}
	return out
}

// Total returns the sum of all warning counts.
func (c *Collector) Total() int64 {
	if c == nil {
		return 0
	}
	var total int64
	for i := range c.counts {
		total += c.counts[i].Load()
	}
	return total
}
