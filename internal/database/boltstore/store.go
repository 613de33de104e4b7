// Package boltstore provides persistent storage using BoltDB (bbolt).
// It is the default implementation of database.Store: beans and shot
// entries are JSON documents in per-user nested buckets.
package boltstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shotlog/internal/database"

	bolt "go.etcd.io/bbolt"
)

// Bucket names for organizing data
var (
	// BucketUsers stores aliases that have logged in, keyed by alias
	BucketUsers = []byte("users")

	// BucketBeans holds one nested bucket per user, keyed by bean slug
	BucketBeans = []byte("beans")

	// BucketShots holds one nested bucket per user, keyed by a big-endian
	// sequence number so cursor order is insertion order
	BucketShots = []byte("shots")
)

// Store wraps a BoltDB database and provides access to specialized stores.
type Store struct {
	db *bolt.DB
}

var _ database.Store = (*Store)(nil)

// Options configures the BoltDB store.
type Options struct {
	// Path to the database file. Parent directories will be created if needed.
	Path string

	// Timeout for obtaining a file lock on the database.
	// If zero, a default of 5 seconds is used.
	Timeout time.Duration

	// FileMode for creating the database file.
	// If zero, 0600 is used.
	FileMode os.FileMode

	// ReadOnly opens the file with a shared lock. Used by the CLI.
	ReadOnly bool
}

// DefaultOptions returns sensible defaults for development.
func DefaultOptions() Options {
	return Options{
		Path:     "shotlog.db",
		Timeout:  5 * time.Second,
		FileMode: 0600,
	}
}

// Open creates or opens a BoltDB database at the specified path.
// It creates all necessary buckets if they don't exist.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		opts.Path = "shotlog.db"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0600
	}

	// Ensure parent directory exists
	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." && !opts.ReadOnly {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, opts.FileMode, &bolt.Options{
		Timeout:  opts.Timeout,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.ReadOnly {
		return &Store{db: db}, nil
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{BucketUsers, BucketBeans, BucketShots} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying BoltDB instance for advanced operations.
func (s *Store) DB() *bolt.DB {
	return s.db
}

// Stats counts users, beans and shot entries across the whole database.
func (s *Store) Stats(ctx context.Context) (database.Stats, error) {
	var st database.Stats

	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(BucketUsers); b != nil {
			st.Users = b.Stats().KeyN
		}
		st.Beans = countNested(tx.Bucket(BucketBeans))
		st.Entries = countNested(tx.Bucket(BucketShots))
		return nil
	})
	if err != nil {
		return database.Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}

	return st, nil
}

// countNested sums the keys of every per-user bucket under parent.
func countNested(parent *bolt.Bucket) int {
	if parent == nil {
		return 0
	}
	n := 0
	parent.ForEachBucket(func(k []byte) error {
		if child := parent.Bucket(k); child != nil {
			n += child.Stats().KeyN
		}
		return nil
	})
	return n
}
