package cache

import (
	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

var bucketName = []byte("cache")

// Store is an optional durable backing for Cache, so a computed value
// survives process restarts instead of being recomputed once per process
// lifetime. A Cache with no Store behaves as a purely in-memory compute-once
// cache.
type Store struct {
	bolt *bbolt.DB
}

// OpenStore opens, and creates if necessary, a bbolt-backed Store at path.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0666, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to open cache store: %v", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("failed to create cache bucket: %v", err)
	}

	return &Store{bolt: db}, nil
}

// Get returns the persisted value for key, and whether it was found.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value []byte

	err := s.bolt.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if v := b.Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, xerrors.Errorf("failed to read cache entry '%s': %v", key, err)
	}

	return value, value != nil, nil
}

// Set persists value under key.
func (s *Store) Set(key string, value []byte) error {
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
	if err != nil {
		return xerrors.Errorf("failed to write cache entry '%s': %v", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.bolt.Close()
}
