package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"shotlog/internal/database"
	"shotlog/internal/models"

	bolt "go.etcd.io/bbolt"
)

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// AppendEntry stores a shot entry for an existing bean.
// Returns database.ErrNotFound if the bean does not exist.
func (s *Store) AppendEntry(ctx context.Context, userID, beanID string, entry *models.ShotEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		beans := userBucket(tx, BucketBeans, userID)
		if beans == nil || beans.Get([]byte(beanID)) == nil {
			return database.ErrNotFound
		}

		bucket, err := tx.Bucket(BucketShots).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return fmt.Errorf("failed to create user bucket: %w", err)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		entry.BeanID = beanID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		return bucket.Put(seqKey(seq), data)
	})
}

// ListEntries walks the user's entries from the newest insertion backwards.
// An empty beanID returns all entries.
func (s *Store) ListEntries(ctx context.Context, userID, beanID string) ([]*models.ShotEntry, error) {
	entries := []*models.ShotEntry{}

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := userBucket(tx, BucketShots, userID)
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var entry models.ShotEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal entry: %w", err)
			}
			if beanID != "" && entry.BeanID != beanID {
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}
