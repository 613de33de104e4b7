package boltstore

import (
	"context"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"
)

// User represents an alias that has logged in at least once.
type User struct {
	ID           string    `json:"id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegisterUser adds an alias to the user registry.
// If the alias already exists, this is a no-op.
func (s *Store) RegisterUser(ctx context.Context, userID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketUsers)
		if bucket == nil {
			return nil
		}

		if bucket.Get([]byte(userID)) != nil {
			return nil
		}

		data, err := json.Marshal(User{ID: userID, RegisteredAt: time.Now().UTC()})
		if err != nil {
			return err
		}

		return bucket.Put([]byte(userID), data)
	})
}

// IsRegistered checks if an alias is in the user registry.
func (s *Store) IsRegistered(userID string) bool {
	var registered bool

	s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketUsers)
		if bucket == nil {
			return nil
		}

		registered = bucket.Get([]byte(userID)) != nil
		return nil
	})

	return registered
}

// ListUsers returns all registered users with their metadata.
func (s *Store) ListUsers() []User {
	var users []User

	s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketUsers)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var user User
			if err := json.Unmarshal(v, &user); err != nil {
				user = User{ID: string(k)}
			}
			users = append(users, user)
			return nil
		})
	})

	return users
}
