package pipeline

import "github.com/mosaicfoundry/dupefind/internal/model"

// sizeBuckets implements Stage 1: grouping the walked stream by size,
// per spec.md §4.4. Zero-byte files are tracked separately since policy
// pools them unconditionally rather than comparing digests.
type sizeBuckets struct {
	spillEnabled bool
	batchSize    int
	spill        *spillStore

	pending map[int64][]model.FileEntry // in-memory tail per size
	total   map[int64]int               // total entries ever seen per size
	zero    []model.FileEntry
}

func newSizeBuckets(cfg Config) (*sizeBuckets, error) {
	sb := &sizeBuckets{
		spillEnabled: cfg.MemoryEfficient && cfg.BatchSize > 0,
		batchSize:    cfg.BatchSize,
		pending:      make(map[int64][]model.FileEntry),
		total:        make(map[int64]int),
	}
	if sb.spillEnabled {
		s, err := newSpillStore()
		if err != nil {
			return nil, err
		}
		sb.spill = s
	}
	return sb, nil
}

// Add files one entry from the walker stream into its size bucket. Once a
// bucket's in-memory tail reaches batchSize, the whole tail is flushed to
// the spill store and a fresh tail started — this is the "retain a cursor
// so later arrivals re-join" behavior spec.md §4.4 describes for
// memory-efficient mode.
func (sb *sizeBuckets) Add(f model.FileEntry) error {
	if f.Size == 0 {
		sb.zero = append(sb.zero, f)
		return nil
	}

	sb.total[f.Size]++
	sb.pending[f.Size] = append(sb.pending[f.Size], f)

	if sb.spillEnabled && len(sb.pending[f.Size]) >= sb.batchSize {
		for _, e := range sb.pending[f.Size] {
			if err := sb.spill.Append(f.Size, e); err != nil {
				return err
			}
		}
		delete(sb.pending, f.Size)
	}
	return nil
}

// Finalize discards size-1 buckets (their sole member is unique) and
// returns the rest keyed by size, reconstituting any spilled members.
// Closes the spill store, if any.
func (sb *sizeBuckets) Finalize() (active map[int64][]model.FileEntry, unique []model.FileEntry, err error) {
	active = make(map[int64][]model.FileEntry)

	for size, count := range sb.total {
		members := sb.pending[size]
		if sb.spillEnabled && sb.spill != nil {
			spilled, rerr := sb.spill.ReadAll(size)
			if rerr != nil {
				err = rerr
				return
			}
			members = append(spilled, members...)
		}

		if count < 2 {
			unique = append(unique, members...)
			continue
		}

		active[size] = members
	}

	if sb.spill != nil {
		if cerr := sb.spill.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return
}
