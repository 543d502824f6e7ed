package pipeline

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"strconv"

	bolt "go.etcd.io/bbolt"

	"github.com/mosaicfoundry/dupefind/internal/model"
)

// spillStore persists overflowed Stage 1 bucket members to a temporary
// BoltDB file when Config.MemoryEfficient is set, bounding resident
// memory for pathological inputs where many files share the same size.
// Grounded on internal/cache's use of bbolt: same library, a simpler
// lifecycle (one run, deleted on Close rather than kept across runs).
type spillStore struct {
	db   *bolt.DB
	path string
}

func newSpillStore() (*spillStore, error) {
	f, err := os.CreateTemp("", "dupefind-spill-*.db")
	if err != nil {
		return nil, fmt.Errorf("create spill file: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	_ = os.Remove(path) // bbolt writes its own header; a pre-existing empty file confuses it

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open spill store: %w", err)
	}
	return &spillStore{db: db, path: path}, nil
}

func sizeBucketKey(size int64) []byte {
	return []byte("size_" + strconv.FormatInt(size, 10))
}

// Append persists one overflowed entry under size's bucket.
func (s *spillStore) Append(size int64, entry model.FileEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sizeBucketKey(size))
		if err != nil {
			return err
		}
		seq, _ := b.NextSequence()
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
			return err
		}
		return b.Put(seqKey(seq), buf.Bytes())
	})
}

// ReadAll returns every entry spilled for size, in no particular order
// (the caller re-partitions by digest regardless).
func (s *spillStore) ReadAll(size int64) ([]model.FileEntry, error) {
	var out []model.FileEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sizeBucketKey(size))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var e model.FileEntry
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// Close closes and removes the temporary database file.
func (s *spillStore) Close() error {
	err := s.db.Close()
	_ = os.Remove(s.path)
	return err
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
