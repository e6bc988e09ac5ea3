package lstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// Store-format version marker. It lives under a reserved key that no key
// family prefixes, stored raw rather than through the Keychain codec, so
// an old build fails fast instead of misreading newer entries.
const (
	VersionKey    = "?"
	FormatVersion = "1"
)

var bucketKeychain = []byte("keychain")

// ErrFormatVersion is returned when a store was written by an incompatible
// format version.
var ErrFormatVersion = errors.New("lstore: incompatible store format version")

// BoltHolder implements Holder on a bbolt database file. The bbolt file
// lock gives the process exclusive access to the store.
type BoltHolder struct {
	db   *bbolt.DB
	path string
}

var _ Holder = (*BoltHolder)(nil)

// OpenBolt opens or creates the store file at path, creating parent
// directories with owner-only permissions. A store held open by another
// process fails after a short lock timeout.
func OpenBolt(path string) (*BoltHolder, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketKeychain)
		if err != nil {
			return err
		}
		v := b.Get([]byte(VersionKey))
		if v == nil {
			return b.Put([]byte(VersionKey), []byte(FormatVersion))
		}
		if string(v) != FormatVersion {
			return fmt.Errorf("%w: store has %q, this build reads %q", ErrFormatVersion, v, FormatVersion)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltHolder{db: db, path: path}, nil
}

// Get retrieves a value by key.
func (s *BoltHolder) Get(key string) (string, bool, error) {
	var value string
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketKeychain).Get([]byte(key))
		if v != nil {
			value = string(v)
			ok = true
		}
		return nil
	})
	return value, ok, err
}

// Set stores a value by key.
func (s *BoltHolder) Set(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKeychain).Put([]byte(key), []byte(value))
	})
}

// Delete removes a key. Absent keys are a no-op, matching bbolt.
func (s *BoltHolder) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKeychain).Delete([]byte(key))
	})
}

// Keys returns all stored keys, including the version sentinel.
func (s *BoltHolder) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKeychain).ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Path returns the store file location for display purposes.
func (s *BoltHolder) Path() string {
	return s.path
}

// Close releases the store file and its lock.
func (s *BoltHolder) Close() error {
	return s.db.Close()
}
