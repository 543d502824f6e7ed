// Package rollup implements FolderRollup: collapsing duplicate subtrees
// into folder-level FolderGroups so that a directory containing a
// thousand identical files is reported as one duplicate folder rather than
// a thousand duplicate files.
//
// # Algorithm
//
// 1. Reconstruct the directory tree implied by the flat list of walked
//    file paths (the walker never materializes this tree itself; Rollup
//    builds it once, after Stage 3 has finished, from path components).
// 2. Assign every file a content digest: its FileGroup digest if it
//    belongs to one, otherwise a sentinel derived from its own path so it
//    can never accidentally match an unrelated file.
// 3. Compute each directory's DirectoryDigest bottom-up: a SHA-256 over
//    the sorted (child_name, child_kind, child_digest) tuples of its
//    direct children. Two directories with the same DirectoryDigest have
//    byte-identical recursive contents among the files reachable from
//    them, and a differently-named-but-equal file breaks the match. The
//    tree is reconstructed from file paths only, so a subdirectory
//    containing zero files anywhere in its own subtree never appears in
//    it and cannot affect a comparison either way.
// 4. Group directories by DirectoryDigest, keep only groups with 2+
//    members and at least one file in their subtree.
// 5. Apply the containment rule: a directory is suppressed from the
//    report if any strict ancestor of it is also a candidate folder-group
//    member. This keeps only the maximal duplicate directories: if
//    /backup duplicates /project, we do not also report /backup/vendor
//    duplicating /project/vendor, since that is implied.
// 6. Any file path that falls beneath a surviving FolderGroup member is
//    suppressed from the file-level report: folder-level reporting
//    subsumes it.
package rollup

import (
	"crypto/sha256"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

// kind markers distinguish file children from directory children when
// hashing, so a file named "x" can never collide with a subdirectory
// named "x".
const (
	kindFile byte = 'f'
	kindDir  byte = 'd'
)

// Result is the output of Compute: the folder-level duplicate groups and
// the set of file paths they subsume (which the caller should drop from
// its own file-level report).
type Result struct {
	Groups   []model.FolderGroup
	Subsumed map[string]bool
}

// Compute builds the directory tree under roots from files and their
// digests, then derives FolderGroups per the containment rule above.
// digestOf is consulted for every file path in files; a path with no
// entry is treated as unique content (assigned a path-derived sentinel).
func Compute(roots []string, files []model.FileEntry, digestOf map[string]model.Digest) Result {
	tree := newTree(roots)
	for _, f := range files {
		d, known := digestOf[f.Path]
		if !known {
			d = sentinelFor(f.Path)
		}
		tree.insertFile(f.Path, d, f.Size)
	}
	tree.computeDigests()

	byDigest := make(map[model.Digest][]*dirNode)
	for _, n := range tree.nodes {
		if n.fileCount == 0 {
			continue // empty subtrees never form a folder group
		}
		byDigest[n.digest] = append(byDigest[n.digest], n)
	}

	candidates := make(map[string]*dirNode)
	var rawGroups [][]*dirNode
	for _, members := range byDigest {
		if len(members) < 2 {
			continue
		}
		rawGroups = append(rawGroups, members)
		for _, m := range members {
			candidates[m.path] = m
		}
	}

	suppressed := make(map[string]bool)
	for path := range candidates {
		for p := parentOf(path); p != ""; p = parentOf(p) {
			if _, ok := candidates[p]; ok {
				suppressed[path] = true
				break
			}
		}
	}

	var groups []model.FolderGroup
	subsumed := make(map[string]bool)
	for _, members := range rawGroups {
		var paths []string
		for _, m := range members {
			if suppressed[m.path] {
				continue
			}
			paths = append(paths, m.path)
		}
		if len(paths) < 2 {
			continue
		}
		rep := members[0]
		groups = append(groups, model.NewFolderGroup(rep.digest, paths, rep.fileCount, rep.totalBytes))
		for _, p := range paths {
			markSubtreeFiles(tree, p, subsumed)
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Members.First() < groups[j].Members.First()
	})

	return Result{Groups: groups, Subsumed: subsumed}
}

// sentinelFor derives a digest from a path alone, used for files that
// belong to no FileGroup (the sole member of their size, partial-digest
// or full-digest bucket, or a file whose digest failed). Two different paths never collide here by
// construction, so such a file can never spuriously join a FolderGroup.
func sentinelFor(path string) model.Digest {
	h := sha256.New()
	h.Write([]byte("sentinel:"))
	h.Write([]byte(path))
	var d model.Digest
	copy(d[:], h.Sum(nil))
	return d
}

func parentOf(path string) string {
	p := filepath.Dir(path)
	if p == path || p == "." {
		return ""
	}
	return p
}

// markSubtreeFiles records every file path within dir (recursively) as
// subsumed by a reported FolderGroup.
func markSubtreeFiles(t *tree, dir string, subsumed map[string]bool) {
	n, ok := t.nodes[dir]
	if !ok {
		return
	}
	for name, c := range n.children {
		full := filepath.Join(dir, name)
		if c.isDir {
			markSubtreeFiles(t, full, subsumed)
		} else {
			subsumed[full] = true
		}
	}
}

// child is one direct child of a directory node: either a file (leaf,
// digest known immediately) or a subdirectory (digest computed later,
// bottom-up).
type child struct {
	isDir bool
	size  int64 // file size, meaningful only when !isDir
}

type dirNode struct {
	path       string
	children   map[string]child
	digest     model.Digest
	fileCount  uint32
	totalBytes uint64
}

// tree indexes every directory reachable from the configured roots by
// its absolute path, built incrementally as files are inserted. Nodes
// never climb above a configured root: each root is its own top of tree,
// so ancestor directories outside the scan scope never appear.
type tree struct {
	nodes map[string]*dirNode
	roots map[string]bool
	files map[string]model.Digest // full file path -> content digest
}

func newTree(roots []string) *tree {
	t := &tree{nodes: make(map[string]*dirNode), roots: make(map[string]bool), files: make(map[string]model.Digest)}
	for _, r := range roots {
		clean := filepath.Clean(r)
		t.roots[clean] = true
		t.ensureDir(clean)
	}
	return t
}

func (t *tree) ensureDir(path string) *dirNode {
	if n, ok := t.nodes[path]; ok {
		return n
	}
	n := &dirNode{path: path, children: make(map[string]child)}
	t.nodes[path] = n
	if t.roots[path] {
		return n
	}
	if parent := parentOf(path); parent != "" {
		p := t.ensureDir(parent)
		p.children[filepath.Base(path)] = child{isDir: true}
	}
	return n
}

func (t *tree) insertFile(path string, digest model.Digest, size int64) {
	t.files[path] = digest
	dir := t.ensureDir(filepath.Dir(path))
	dir.children[filepath.Base(path)] = child{isDir: false, size: size}
}

// computeDigests walks every directory and computes its DirectoryDigest
// bottom-up (deepest paths first, ranked by path-separator count).
func (t *tree) computeDigests() {
	paths := make([]string, 0, len(t.nodes))
	for p := range t.nodes {
		paths = append(paths, p)
	}
	depth := func(p string) int { return strings.Count(p, string(filepath.Separator)) }
	sort.Slice(paths, func(i, j int) bool { return depth(paths[i]) > depth(paths[j]) })

	for _, p := range paths {
		n := t.nodes[p]
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		sort.Strings(names)

		h := sha256.New()
		var fileCount uint32
		var totalBytes uint64
		for _, name := range names {
			c := n.children[name]
			h.Write([]byte(name))
			h.Write([]byte{0})
			if c.isDir {
				h.Write([]byte{kindDir})
				childNode := t.nodes[filepath.Join(p, name)]
				h.Write(childNode.digest[:])
				fileCount += childNode.fileCount
				totalBytes += childNode.totalBytes
			} else {
				h.Write([]byte{kindFile})
				full := filepath.Join(p, name)
				d := t.files[full]
				h.Write(d[:])
				fileCount++
				totalBytes += uint64(c.size)
			}
		}
		var d model.Digest
		copy(d[:], h.Sum(nil))
		n.digest = d
		n.fileCount = fileCount
		n.totalBytes = totalBytes
	}
}
