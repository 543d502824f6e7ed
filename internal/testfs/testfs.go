// Package testfs builds throwaway directory trees for tests from a
// declarative spec, so a test can describe "what files exist with what
// content" instead of a sequence of os.WriteFile/os.MkdirAll calls.
//
// Unlike the hardlink/symlink/multi-volume harness this is grounded on,
// there are no inodes, no cross-device mounts, and nothing to reap back
// out of the filesystem afterward: a duplicate-detection test only cares
// that two paths end up with identical bytes, not that they share a
// device+inode pair. Build is one-shot and failure aborts the test via
// t.Fatal, so callers never need to check an error return.
package testfs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// maxBufSize bounds how much of a Chunk's pattern is held in memory at
// once when writing a large region.
const maxBufSize = 1 << 20 // 1MiB

// Chunk fills Size bytes of a file with the repeated Pattern byte.
// Two files with the same Chunk sequence have identical content and are
// therefore expected duplicates. Different sequences can still yield the
// same bytes, e.g. when adjacent chunks share a pattern.
type Chunk struct {
	Pattern byte
	Size    int64
}

// File describes a regular file's content as a sequence of chunks,
// written in order. A File with no chunks is created empty.
type File struct {
	Chunks []Chunk
}

// Dir describes a directory: a set of named files and named
// subdirectories, built recursively by Build.
type Dir struct {
	Files map[string]File
	Dirs  map[string]Dir
}

// Content is a convenience constructor for a single-chunk File filled
// entirely with pattern, e.g. Content('A', 1024).
func Content(pattern byte, size int64) File {
	return File{Chunks: []Chunk{{Pattern: pattern, Size: size}}}
}

// Build materializes spec under a fresh t.TempDir() and returns its
// absolute path. Any write failure fails the test immediately.
func Build(t *testing.T, spec Dir) string {
	t.Helper()
	root := t.TempDir()
	writeDir(t, root, spec)
	return root
}

// BuildAt materializes spec under an existing directory, for tests that
// need to compose a tree across multiple roots (e.g. FolderRollup
// scenarios comparing two independent trees).
func BuildAt(t *testing.T, root string, spec Dir) {
	t.Helper()
	writeDir(t, root, spec)
}

func writeDir(t *testing.T, path string, d Dir) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("testfs: mkdir %s: %v", path, err)
	}
	for name, f := range d.Files {
		writeFile(t, filepath.Join(path, name), f)
	}
	for name, sub := range d.Dirs {
		writeDir(t, filepath.Join(path, name), sub)
	}
}

func writeFile(t *testing.T, path string, f File) {
	t.Helper()
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("testfs: create %s: %v", path, err)
	}
	defer func() { _ = out.Close() }()

	for _, c := range f.Chunks {
		if err := writeChunk(out, c); err != nil {
			t.Fatalf("testfs: write %s: %v", path, err)
		}
	}
}

func writeChunk(out *os.File, c Chunk) error {
	bufSize := c.Size
	if bufSize > maxBufSize {
		bufSize = maxBufSize
	}
	buf := bytes.Repeat([]byte{c.Pattern}, int(bufSize))

	remaining := c.Size
	for remaining > 0 {
		toWrite := int64(len(buf))
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := out.Write(buf[:toWrite]); err != nil {
			return err
		}
		remaining -= toWrite
	}
	return nil
}
