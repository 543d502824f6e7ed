package pipeline

import (
	"crypto/sha256"
	"path/filepath"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

// metadataGroups implements the metadata_only shortcut: Stages 2 and 3
// are skipped entirely and groups are formed from (basename, size) alone.
// The synthetic digest is a hash of that key, never a content digest — it
// exists only so FolderRollup has something to compare directories with.
func metadataGroups(active map[int64][]model.FileEntry) (groups []model.FileGroup, singles []model.FileEntry) {
	type key struct {
		base string
		size int64
	}
	byKey := make(map[key][]model.FileEntry)
	for size, members := range active {
		for _, m := range members {
			k := key{base: filepath.Base(m.Path), size: size}
			byKey[k] = append(byKey[k], m)
		}
	}

	for k, members := range byKey {
		if len(members) < 2 {
			singles = append(singles, members...)
			continue
		}
		groups = append(groups, model.NewFileGroup(metadataDigest(k.base, k.size), k.size, pathsOf(members)))
	}
	return groups, singles
}

func metadataDigest(base string, size int64) model.Digest {
	h := sha256.New()
	h.Write([]byte("metadata:"))
	h.Write([]byte(base))
	var sizeBuf [8]byte
	for i := range sizeBuf {
		sizeBuf[i] = byte(size >> (8 * i))
	}
	h.Write(sizeBuf[:])
	var d model.Digest
	copy(d[:], h.Sum(nil))
	return d
}
