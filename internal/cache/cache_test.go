package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	if _, ok := c.Lookup("/a", 10, time.Now(), Partial); ok {
		t.Fatal("disabled cache should never hit")
	}
	if err := c.Store("/a", 10, time.Now(), Partial, model.Digest{1}); err != nil {
		t.Fatalf("store on disabled cache should be a no-op, got %v", err)
	}
}

func TestStoreThenLookupHits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digests.db")
	mtime := time.Now()

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	want := model.Digest{0xAB, 0xCD}
	if err := c.Store("/file.txt", 100, mtime, Full, want); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c2.Close() }()

	got, ok := c2.Lookup("/file.txt", 100, mtime, Full)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != want {
		t.Fatalf("got digest %x, want %x", got, want)
	}
}

func TestLookupMissesOnSizeOrMtimeChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digests.db")
	mtime := time.Now()

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Store("/file.txt", 100, mtime, Full, model.Digest{1}); err != nil {
		t.Fatal(err)
	}
	// Lookups read the previous generation, so reopen to make the stored
	// entry visible; only the changed key fields can then cause a miss.
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	if _, ok := c.Lookup("/file.txt", 101, mtime, Full); ok {
		t.Fatal("size change should miss")
	}
	if _, ok := c.Lookup("/file.txt", 100, mtime.Add(time.Second), Full); ok {
		t.Fatal("mtime change should miss")
	}
	if _, ok := c.Lookup("/file.txt", 100, mtime, Partial); ok {
		t.Fatal("different kind should miss")
	}
}
