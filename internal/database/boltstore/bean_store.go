package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"shotlog/internal/database"
	"shotlog/internal/models"

	bolt "go.etcd.io/bbolt"
)

// userBucket returns the nested bucket for userID under parent, or nil.
func userBucket(tx *bolt.Tx, parent []byte, userID string) *bolt.Bucket {
	p := tx.Bucket(parent)
	if p == nil {
		return nil
	}
	return p.Bucket([]byte(userID))
}

// ListBeans returns the user's beans ordered by label.
func (s *Store) ListBeans(ctx context.Context, userID string) ([]*models.Bean, error) {
	beans := []*models.Bean{}

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := userBucket(tx, BucketBeans, userID)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var bean models.Bean
			if err := json.Unmarshal(v, &bean); err != nil {
				return fmt.Errorf("failed to unmarshal bean %s: %w", k, err)
			}
			beans = append(beans, &bean)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(beans, func(i, j int) bool {
		return beans[i].Label() < beans[j].Label()
	})

	return beans, nil
}

// GetBean retrieves a bean by slug.
func (s *Store) GetBean(ctx context.Context, userID, beanID string) (*models.Bean, error) {
	var bean models.Bean

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := userBucket(tx, BucketBeans, userID)
		if bucket == nil {
			return database.ErrNotFound
		}

		data := bucket.Get([]byte(beanID))
		if data == nil {
			return database.ErrNotFound
		}

		return json.Unmarshal(data, &bean)
	})
	if err != nil {
		return nil, err
	}

	return &bean, nil
}

// UpsertBean inserts the bean the request describes, or merges the request
// into the stored bean with the same slug.
func (s *Store) UpsertBean(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error) {
	id := req.ID()
	if id == "" {
		return nil, fmt.Errorf("bean has no id: %w", models.ErrNameRequired)
	}

	var saved *models.Bean
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(BucketBeans).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return fmt.Errorf("failed to create user bucket: %w", err)
		}

		now := time.Now().UTC()
		if existing := bucket.Get([]byte(id)); existing != nil {
			var prev models.Bean
			if err := json.Unmarshal(existing, &prev); err != nil {
				return fmt.Errorf("failed to unmarshal bean %s: %w", id, err)
			}
			req.Merge(&prev)
			saved = &prev
		} else {
			saved = req.Bean(userID)
			saved.CreatedAt = now
		}
		saved.UpdatedAt = now

		data, err := json.Marshal(saved)
		if err != nil {
			return fmt.Errorf("failed to marshal bean: %w", err)
		}

		return bucket.Put([]byte(id), data)
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// UpdateBean applies a target ratio or notes change to an existing bean.
func (s *Store) UpdateBean(ctx context.Context, userID, beanID string, req *models.UpdateBeanRequest) (*models.Bean, error) {
	var bean models.Bean

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := userBucket(tx, BucketBeans, userID)
		if bucket == nil {
			return database.ErrNotFound
		}

		data := bucket.Get([]byte(beanID))
		if data == nil {
			return database.ErrNotFound
		}
		if err := json.Unmarshal(data, &bean); err != nil {
			return fmt.Errorf("failed to unmarshal bean: %w", err)
		}

		req.Apply(&bean)
		bean.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(bean)
		if err != nil {
			return fmt.Errorf("failed to marshal bean: %w", err)
		}
		return bucket.Put([]byte(beanID), data)
	})
	if err != nil {
		return nil, err
	}

	return &bean, nil
}
