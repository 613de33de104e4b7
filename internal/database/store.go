package database

import (
	"context"
	"errors"

	"shotlog/internal/models"
)

// ErrNotFound is returned when a bean does not exist for the user.
var ErrNotFound = errors.New("not found")

// Stats holds record counts across all users.
type Stats struct {
	Users   int `json:"users"`
	Beans   int `json:"beans"`
	Entries int `json:"entries"`
}

// Store defines the interface for all record store operations.
// Every operation is scoped to a user identifier; users never see each
// other's beans or shots.
type Store interface {
	// RegisterUser records that an alias has logged in. Registering an
	// existing alias is a no-op.
	RegisterUser(ctx context.Context, userID string) error

	// Bean operations
	ListBeans(ctx context.Context, userID string) ([]*models.Bean, error)
	GetBean(ctx context.Context, userID, beanID string) (*models.Bean, error)
	// UpsertBean inserts the bean the request describes or, if a bean with
	// the same slug exists, merges the request into it (see
	// models.CreateBeanRequest.Merge).
	UpsertBean(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error)
	UpdateBean(ctx context.Context, userID, beanID string, req *models.UpdateBeanRequest) (*models.Bean, error)

	// Shot operations. Entries are append-only.
	AppendEntry(ctx context.Context, userID, beanID string, entry *models.ShotEntry) error
	// ListEntries returns entries newest first. An empty beanID lists all
	// of the user's entries.
	ListEntries(ctx context.Context, userID, beanID string) ([]*models.ShotEntry, error)

	Stats(ctx context.Context) (Stats, error)

	// Close the database connection
	Close() error
}
