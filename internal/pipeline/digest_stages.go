package pipeline

import (
	"context"
	"errors"
	"os"

	"github.com/mosaicfoundry/dupefind/internal/digester"
	"github.com/mosaicfoundry/dupefind/internal/model"
	"github.com/mosaicfoundry/dupefind/internal/warnings"
	"github.com/mosaicfoundry/dupefind/internal/workerpool"
)

type digestOutcome struct {
	entry  model.FileEntry
	digest model.Digest
	err    error
}

// partitionByPartial runs Stage 2: a Partial digest job per member,
// partitioned by resulting digest. Members whose job failed are removed
// and reported to warn; they never appear in the returned partitions.
func partitionByPartial(ctx context.Context, d *digester.Digester, workers int, members []model.FileEntry, warn *warnings.Collector) map[model.Digest][]model.FileEntry {
	jobs := make([]workerpool.Job[digestOutcome], len(members))
	for i, f := range members {
		f := f
		jobs[i] = workerpool.Job[digestOutcome]{Run: func(ctx context.Context) digestOutcome {
			digest, err := d.Partial(f.Path, f.Size, f.ModTime)
			return digestOutcome{entry: f, digest: digest, err: err}
		}}
	}
	return collectPartitions(workerpool.Run(ctx, workers, jobs), warn)
}

// partitionByFull runs Stage 3: identical shape to partitionByPartial but
// over the entire file content.
func partitionByFull(ctx context.Context, d *digester.Digester, workers int, members []model.FileEntry, warn *warnings.Collector) map[model.Digest][]model.FileEntry {
	jobs := make([]workerpool.Job[digestOutcome], len(members))
	for i, f := range members {
		f := f
		jobs[i] = workerpool.Job[digestOutcome]{Run: func(ctx context.Context) digestOutcome {
			digest, err := d.Full(f.Path, f.Size, f.ModTime)
			return digestOutcome{entry: f, digest: digest, err: err}
		}}
	}
	return collectPartitions(workerpool.Run(ctx, workers, jobs), warn)
}

func collectPartitions(results []workerpool.Result[digestOutcome], warn *warnings.Collector) map[model.Digest][]model.FileEntry {
	out := make(map[model.Digest][]model.FileEntry)
	for _, r := range results {
		o := r.Value
		if o.err != nil {
			warn.Add(classifyDigestErr(o.err))
			continue
		}
		out[o.digest] = append(out[o.digest], o.entry)
	}
	return out
}

// classifyDigestErr maps a Digester error onto a WarningKind, per
// spec.md §4.2.
func classifyDigestErr(err error) warnings.Kind {
	switch {
	case errors.Is(err, digester.ErrVanished):
		return warnings.Vanished
	case errors.Is(err, os.ErrPermission):
		return warnings.PermissionDenied
	default:
		return warnings.IoError
	}
}

func pathsOf(entries []model.FileEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
