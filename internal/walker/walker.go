// Package walker provides parallel, streaming filesystem traversal for
// duplicate detection.
//
// # Architecture Overview
//
// The walker uses a concurrent fan-out/fan-in architecture to traverse
// directory trees while respecting a concurrency limit on directory reads.
//
// # Concurrency Model
//
//  1. WALKER GOROUTINES (fan-out)
//     - One goroutine spawned per directory discovered
//     - Concurrency limited by a semaphore (sem)
//     - Each walker: acquires semaphore → lists directory → releases
//       semaphore → sends its files onto the output channel → spawns
//       child walkers
//
//  2. CLOSER GOROUTINE (fan-in)
//     - Single goroutine that waits until every walker has finished,
//       then closes the output channel; walkers send entries directly
//
//  3. CALLER (consumer)
//     - Ranges over the returned channel, applying its own backpressure
//       (spec.md §4.1 forbids the walker from accumulating the full path
//       list in memory; the channel is unbuffered beyond a small window)
//
// Directory symlinks are never followed. File symlinks are resolved to
// their target's size/content when the target exists and is a regular
// file; otherwise a BrokenSymlink warning is emitted and the entry is
// skipped. Special files (devices, FIFOs, sockets) are skipped with a
// NotRegularFile warning.
package walker

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mosaicfoundry/dupefind/internal/model"
	"github.com/mosaicfoundry/dupefind/internal/progress"
	"github.com/mosaicfoundry/dupefind/internal/warnings"
)

// entryChanBuffer bounds the number of in-flight entries the walker may
// hold before a slow consumer applies backpressure.
const entryChanBuffer = 256

// readDirBatch bounds memory usage when listing directories with very many
// entries.
const readDirBatch = 1000

// Walker discovers regular files reachable from one or more roots using
// parallel directory traversal. One Walker is single-use: call Walk once.
type Walker struct {
	Workers int // Max concurrent directory reads
	Sink    progress.Sink
	Warn    *warnings.Collector
}

// New creates a Walker. A nil Sink or Warn is replaced with a no-op.
func New(workers int, sink progress.Sink, warn *warnings.Collector) *Walker {
	if workers <= 0 {
		workers = 1
	}
	if sink == nil {
		sink = progress.NoopSink{}
	}
	return &Walker{Workers: workers, Sink: sink, Warn: warn}
}

// Walk streams FileEntry values for every regular file reachable from root.
// The returned channel is closed once the entire subtree has been visited
// or ctx is cancelled. Consumers should range over it; the walker applies
// no buffering beyond entryChanBuffer, so a slow consumer throttles the
// walk.
func (w *Walker) Walk(ctx context.Context, root string) <-chan model.FileEntry {
	out := make(chan model.FileEntry, entryChanBuffer)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		close(out)
		return out
	}

	w.Sink.OnEvent(progress.Event{Kind: progress.Started, Root: absRoot})

	go func() {
		defer close(out)

		sem := model.NewSemaphore(w.Workers)
		var wg sync.WaitGroup

		var walkDir func(dir string)
		walkDir = func(dir string) {
			wg.Add(1)
			go func() {
				defer wg.Done()

				select {
				case <-ctx.Done():
					return
				default:
				}

				sem.Acquire()
				files, subdirs, err := w.listDirectory(dir)
				sem.Release()
				if err != nil {
					w.Warn.Add(warnings.PermissionDenied)
					return
				}

				for _, f := range files {
					select {
					case <-ctx.Done():
						return
					case out <- f:
						w.Sink.OnEvent(progress.Event{Kind: progress.FileDiscovered, Path: f.Path, Size: f.Size})
					}
				}

				for _, sub := range subdirs {
					walkDir(sub)
				}
			}()
		}

		walkDir(absRoot)
		wg.Wait()
	}()

	return out
}

// listDirectory reads one directory, returning its regular files (with
// symlinks resolved) and its subdirectories. Uses batched ReadDir to bound
// memory for directories with very many entries.
func (w *Walker) listDirectory(dir string) (files []model.FileEntry, subdirs []string, err error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = d.Close() }()

	for {
		entries, err := d.ReadDir(readDirBatch)
		if len(entries) == 0 {
			if err != nil && err != io.EOF {
				return files, subdirs, err
			}
			break
		}
		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())
			switch {
			case entry.Type()&os.ModeSymlink != 0:
				if f, ok := w.resolveSymlink(full); ok {
					files = append(files, f)
				}
			case entry.IsDir():
				subdirs = append(subdirs, full)
			case entry.Type().IsRegular():
				info, err := entry.Info()
				if err != nil {
					w.Warn.Add(warnings.Vanished)
					continue
				}
				files = append(files, model.FileEntry{Path: full, Size: info.Size(), ModTime: info.ModTime()})
			default:
				w.Warn.Add(warnings.NotRegularFile)
			}
		}
	}

	return files, subdirs, nil
}

// resolveSymlink follows a file symlink to its target, returning the
// target's size/mtime under the symlink's own path. Directory symlinks are
// never followed: resolving one here would require a follow-up Stat, and
// per spec.md §4.1 any resulting directory is not traversed, so we treat a
// symlink-to-directory the same as a broken symlink (skip with a warning).
func (w *Walker) resolveSymlink(path string) (model.FileEntry, bool) {
	info, err := os.Stat(path) // follows the link
	if err != nil {
		w.Warn.Add(warnings.BrokenSymlink)
		return model.FileEntry{}, false
	}
	if !info.Mode().IsRegular() {
		w.Warn.Add(warnings.BrokenSymlink)
		return model.FileEntry{}, false
	}
	return model.FileEntry{Path: path, Size: info.Size(), ModTime: info.ModTime()}, true
}
