package rollup

import (
	"path/filepath"
	"testing"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

func digestFor(label string) model.Digest {
	return sentinelFor("label:" + label)
}

func TestComputeFindsDuplicateFolders(t *testing.T) {
	root := "/t"
	files := []model.FileEntry{
		{Path: filepath.Join(root, "A", "1.txt"), Size: 10},
		{Path: filepath.Join(root, "A", "2.txt"), Size: 20},
		{Path: filepath.Join(root, "B", "1.txt"), Size: 10},
		{Path: filepath.Join(root, "B", "2.txt"), Size: 20},
	}
	digestOf := map[string]model.Digest{
		filepath.Join(root, "A", "1.txt"): digestFor("one"),
		filepath.Join(root, "B", "1.txt"): digestFor("one"),
		filepath.Join(root, "A", "2.txt"): digestFor("two"),
		filepath.Join(root, "B", "2.txt"): digestFor("two"),
	}

	res := Compute([]string{root}, files, digestOf)
	if len(res.Groups) != 1 {
		t.Fatalf("expected 1 folder group, got %d: %+v", len(res.Groups), res.Groups)
	}
	g := res.Groups[0]
	if g.Members.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", g.Members.Len())
	}
	if g.FileCount != 2 {
		t.Fatalf("expected file count 2, got %d", g.FileCount)
	}
	for _, f := range files {
		if !res.Subsumed[f.Path] {
			t.Errorf("expected %s to be subsumed", f.Path)
		}
	}
}

func TestComputeNoMatchForDifferentStructure(t *testing.T) {
	root := "/t"
	files := []model.FileEntry{
		{Path: filepath.Join(root, "A", "1.txt"), Size: 10},
		{Path: filepath.Join(root, "B", "1.txt"), Size: 10},
		{Path: filepath.Join(root, "B", "extra.txt"), Size: 5},
	}
	digestOf := map[string]model.Digest{
		filepath.Join(root, "A", "1.txt"): digestFor("one"),
		filepath.Join(root, "B", "1.txt"): digestFor("one"),
	}

	res := Compute([]string{root}, files, digestOf)
	if len(res.Groups) != 0 {
		t.Fatalf("expected no folder groups, got %+v", res.Groups)
	}
}

func TestComputeSuppressesNestedContainedGroups(t *testing.T) {
	root := "/t"
	files := []model.FileEntry{
		{Path: filepath.Join(root, "project", "x.txt"), Size: 1},
		{Path: filepath.Join(root, "project", "vendor", "v.txt"), Size: 2},
		{Path: filepath.Join(root, "backup", "x.txt"), Size: 1},
		{Path: filepath.Join(root, "backup", "vendor", "v.txt"), Size: 2},
	}
	digestOf := map[string]model.Digest{
		filepath.Join(root, "project", "x.txt"):          digestFor("x"),
		filepath.Join(root, "backup", "x.txt"):           digestFor("x"),
		filepath.Join(root, "project", "vendor", "v.txt"): digestFor("v"),
		filepath.Join(root, "backup", "vendor", "v.txt"):  digestFor("v"),
	}

	res := Compute([]string{root}, files, digestOf)
	if len(res.Groups) != 1 {
		t.Fatalf("expected the vendor subtree group to be suppressed, leaving 1 group, got %d: %+v", len(res.Groups), res.Groups)
	}
	top := res.Groups[0].Members.Items()
	want := []string{filepath.Join(root, "backup"), filepath.Join(root, "project")}
	if len(top) != 2 || top[0] != want[0] || top[1] != want[1] {
		t.Fatalf("expected top-level group members %v, got %v", want, top)
	}
}

func TestComputeUniqueFilesGetSentinels(t *testing.T) {
	root := "/t"
	files := []model.FileEntry{
		{Path: filepath.Join(root, "A", "unique1.txt"), Size: 10},
		{Path: filepath.Join(root, "B", "unique2.txt"), Size: 10},
	}
	res := Compute([]string{root}, files, map[string]model.Digest{})
	if len(res.Groups) != 0 {
		t.Fatalf("expected no folder groups for unrelated unique files, got %+v", res.Groups)
	}
}

func TestComputeEmptyDirectoriesNeverGroup(t *testing.T) {
	root := "/t"
	res := Compute([]string{root}, nil, map[string]model.Digest{})
	if len(res.Groups) != 0 {
		t.Fatalf("expected no groups for empty tree, got %+v", res.Groups)
	}
}
