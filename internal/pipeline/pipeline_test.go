package pipeline

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

func write(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func runDefault(t *testing.T, root string) model.Report {
	t.Helper()
	report, err := Run(context.Background(), []string{root}, Config{Workers: 2}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func memberSets(report model.Report) [][]string {
	var out [][]string
	for _, g := range report.FileGroups {
		out = append(out, g.Members.Items())
	}
	return out
}

func TestScenario1SimpleFileDuplicate(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.txt", []byte("hello"))
	write(t, root, "b.txt", []byte("hello"))
	write(t, root, "c.txt", []byte("world"))

	report := runDefault(t, root)

	if len(report.FileGroups) != 1 {
		t.Fatalf("expected 1 file group, got %d: %+v", len(report.FileGroups), report.FileGroups)
	}
	if report.FileGroups[0].Members.Len() != 2 {
		t.Fatalf("expected 2 members, got %+v", report.FileGroups[0].Members.Items())
	}
	if len(report.UniqueFiles) != 1 || filepath.Base(report.UniqueFiles[0].Path) != "c.txt" {
		t.Fatalf("expected c.txt unique, got %+v", report.UniqueFiles)
	}
	if len(report.FolderGroups) != 0 {
		t.Fatalf("expected no folder groups, got %+v", report.FolderGroups)
	}
}

func TestScenario2DuplicateAcrossSubdirectory(t *testing.T) {
	root := t.TempDir()
	content := []byte("XXXXXXXXXXXXXXXXXXXXXXXX") // 24 bytes
	write(t, root, "dup1.txt", content)
	write(t, root, "dup2.txt", content)
	write(t, root, filepath.Join("sub", "dup3.txt"), content)

	report := runDefault(t, root)

	if len(report.FileGroups) != 1 || report.FileGroups[0].Members.Len() != 3 {
		t.Fatalf("expected one 3-member file group, got %+v", report.FileGroups)
	}
	if len(report.FolderGroups) != 0 {
		t.Fatalf("expected no folder groups (subdir is not a duplicate of root), got %+v", report.FolderGroups)
	}
}

func TestScenario3FolderRollupSuppressesFileGroups(t *testing.T) {
	root := t.TempDir()
	write(t, root, filepath.Join("A", "f.txt"), []byte("hi"))
	write(t, root, filepath.Join("A", "g.txt"), []byte("bye"))
	write(t, root, filepath.Join("B", "f.txt"), []byte("hi"))
	write(t, root, filepath.Join("B", "g.txt"), []byte("bye"))

	report := runDefault(t, root)

	if len(report.FileGroups) != 0 {
		t.Fatalf("expected file groups suppressed by folder rollup, got %+v", report.FileGroups)
	}
	if len(report.FolderGroups) != 1 {
		t.Fatalf("expected 1 folder group, got %+v", report.FolderGroups)
	}
	members := report.FolderGroups[0].Members.Items()
	if len(members) != 2 || filepath.Base(members[0]) != "A" || filepath.Base(members[1]) != "B" {
		t.Fatalf("expected folder group {A, B}, got %v", members)
	}
	if len(report.UniqueFiles) != 0 {
		t.Fatalf("expected zero unique files, got %+v", report.UniqueFiles)
	}
}

func TestScenario4LargeFileStage2ShortCircuits(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 2<<20)
	if _, err := rand.Read(big); err != nil {
		t.Fatal(err)
	}
	bigCopy := append([]byte(nil), big...)
	different := make([]byte, 2<<20)
	if _, err := rand.Read(different); err != nil {
		t.Fatal(err)
	}
	// Guarantee the first 4KiB genuinely differs from big, even on a
	// freak random collision.
	different[0] ^= 0xFF

	write(t, root, "big1.bin", big)
	write(t, root, filepath.Join("sub", "big2.bin"), bigCopy)
	write(t, root, "big3.bin", different)

	report := runDefault(t, root)

	if len(report.FileGroups) != 1 || report.FileGroups[0].Members.Len() != 2 {
		t.Fatalf("expected one 2-member file group, got %+v", report.FileGroups)
	}
	if len(report.UniqueFiles) != 1 || filepath.Base(report.UniqueFiles[0].Path) != "big3.bin" {
		t.Fatalf("expected big3.bin unique, got %+v", report.UniqueFiles)
	}
}

func TestScenario5SamePrefixDifferentEndingStaysUnique(t *testing.T) {
	root := t.TempDir()
	write(t, root, "sameprefix1.txt", []byte("Same beginning but different ending A"))
	write(t, root, "sameprefix2.txt", []byte("Same beginning but different ending B"))

	report := runDefault(t, root)

	if len(report.FileGroups) != 0 {
		t.Fatalf("expected no file groups, got %+v", report.FileGroups)
	}
	if len(report.UniqueFiles) != 2 {
		t.Fatalf("expected both files unique, got %+v", report.UniqueFiles)
	}
}

func TestScenario6ZeroByteFilesPool(t *testing.T) {
	root := t.TempDir()
	write(t, root, "zero1", nil)
	write(t, root, "zero2", nil)
	write(t, root, "zero3", nil)

	report := runDefault(t, root)

	if len(report.FileGroups) != 1 || report.FileGroups[0].Members.Len() != 3 {
		t.Fatalf("expected one 3-member zero-byte file group, got %+v", report.FileGroups)
	}
	if report.FileGroups[0].Size != 0 {
		t.Fatalf("expected size 0, got %d", report.FileGroups[0].Size)
	}
}

func TestLoneZeroByteFileIsUnique(t *testing.T) {
	root := t.TempDir()
	write(t, root, "only.txt", nil)

	report := runDefault(t, root)

	if len(report.FileGroups) != 0 {
		t.Fatalf("expected no file groups, got %+v", report.FileGroups)
	}
	if len(report.UniqueFiles) != 1 {
		t.Fatalf("expected one unique file, got %+v", report.UniqueFiles)
	}
}

func TestRunFatalOnMissingRoot(t *testing.T) {
	_, err := Run(context.Background(), []string{"/does/not/exist/ever"}, Config{}, nil, nil)
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected ErrRootNotFound, got %v", err)
	}
}

func TestRunFatalOnFileRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notadir.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Run(context.Background(), []string{path}, Config{}, nil, nil)
	if !errors.Is(err, ErrRootNotDirectory) {
		t.Fatalf("expected ErrRootNotDirectory, got %v", err)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	write(t, root, "a.txt", []byte("x"))
	write(t, root, "b.txt", []byte("x"))

	_, err := Run(ctx, []string{root}, Config{}, nil, nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestMetadataOnlyModeSkipsContentHashing(t *testing.T) {
	root := t.TempDir()
	write(t, root, "same-name-1.txt", []byte("aaaa"))
	write(t, root, filepath.Join("sub", "same-name-1.txt"), []byte("zzzz")) // different content, same basename+size

	report, err := Run(context.Background(), []string{root}, Config{Workers: 2, MetadataOnly: true}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Confidence != model.MetadataOnly {
		t.Fatalf("expected MetadataOnly confidence, got %v", report.Confidence)
	}
	if len(report.FileGroups) != 1 || report.FileGroups[0].Members.Len() != 2 {
		t.Fatalf("expected one 2-member group keyed on basename+size, got %+v", report.FileGroups)
	}
}

func TestMemoryEfficientModeProducesSameGroups(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		write(t, root, filepath.Join("d", string(rune('a'+i))+".txt"), []byte("same-content"))
	}

	report, err := Run(context.Background(), []string{root}, Config{Workers: 2, MemoryEfficient: true, BatchSize: 2}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.FileGroups) != 1 || report.FileGroups[0].Members.Len() != 5 {
		t.Fatalf("expected one 5-member group, got %+v", report.FileGroups)
	}
}
