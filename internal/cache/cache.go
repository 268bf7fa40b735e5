// Package cache persists the spec-name rewrite's name→index assignment
// map across separate obfuscation runs over the same resource set, so a
// later run can load the assignment an earlier run saved.
package cache

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var bucketAssignments = []byte("spec_name_assignments")

// Store is a small embedded key-value store keyed by an arbitrary pool
// identity (typically the artifact path plus pool kind).
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAssignments)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAssignments returns the previously saved name→index map for
// poolKey, or nil if nothing has been saved for it yet.
func (s *Store) LoadAssignments(poolKey string) (map[string]int, error) {
	var out map[string]int
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAssignments).Get([]byte(poolKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("cache: load %s: %w", poolKey, err)
	}
	return out, nil
}

// SaveAssignments stores the name→index map produced by
// rewrite.RewriteSpecNames for poolKey, overwriting whatever was there.
func (s *Store) SaveAssignments(poolKey string, assigned map[string]int) error {
	data, err := json.Marshal(assigned)
	if err != nil {
		return fmt.Errorf("cache: marshal assignments for %s: %w", poolKey, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAssignments).Put([]byte(poolKey), data)
	})
	if err != nil {
		return fmt.Errorf("cache: save %s: %w", poolKey, err)
	}
	return nil
}
