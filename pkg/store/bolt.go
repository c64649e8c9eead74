package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltFileName is the bbolt database file name inside the data directory.
const BoltFileName = "applock.bolt"

var boltBucket = []byte("applock")

// Bolt is a Store backed by a single-bucket bbolt database.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) the bbolt-backed store in dir.
func OpenBolt(dir string) (*Bolt, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("store: failed to create data directory: %w", err)
	}

	path := filepath.Join(dir, BoltFileName)
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: failed to create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Get returns the value for key, with ok=false when the key is absent.
func (b *Bolt) Get(key string) (string, bool, error) {
	var value string
	var ok bool
	err := b.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(boltBucket).Get([]byte(key)); raw != nil {
			value = string(raw)
			ok = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("store: failed to read %q: %w", key, err)
	}
	return value, ok, nil
}

// Put writes a single value.
func (b *Bolt) Put(key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("store: failed to write %q: %w", key, err)
	}
	return nil
}

// PutAll writes all values in a single transaction.
func (b *Bolt) PutAll(values map[string]string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for key, value := range values {
			if err := bucket.Put([]byte(key), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: failed to write values: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (b *Bolt) Delete(key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("store: failed to delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	return b.db.Close()
}
