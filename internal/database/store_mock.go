package database

import (
	"context"

	"shotlog/internal/models"
)

// MockStore is a mock implementation of the Store interface for testing.
// Uses function fields to allow tests to inject custom behavior.
type MockStore struct {
	RegisterUserFunc func(ctx context.Context, userID string) error

	// Bean operations
	ListBeansFunc  func(ctx context.Context, userID string) ([]*models.Bean, error)
	GetBeanFunc    func(ctx context.Context, userID, beanID string) (*models.Bean, error)
	UpsertBeanFunc func(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error)
	UpdateBeanFunc func(ctx context.Context, userID, beanID string, req *models.UpdateBeanRequest) (*models.Bean, error)

	// Shot operations
	AppendEntryFunc func(ctx context.Context, userID, beanID string, entry *models.ShotEntry) error
	ListEntriesFunc func(ctx context.Context, userID, beanID string) ([]*models.ShotEntry, error)

	StatsFunc func(ctx context.Context) (Stats, error)
	CloseFunc func() error
}

var _ Store = (*MockStore)(nil)

// RegisterUser calls the mock function or returns nil if not set
func (m *MockStore) RegisterUser(ctx context.Context, userID string) error {
	if m.RegisterUserFunc != nil {
		return m.RegisterUserFunc(ctx, userID)
	}
	return nil
}

// ListBeans calls the mock function or returns empty slice if not set
func (m *MockStore) ListBeans(ctx context.Context, userID string) ([]*models.Bean, error) {
	if m.ListBeansFunc != nil {
		return m.ListBeansFunc(ctx, userID)
	}
	return []*models.Bean{}, nil
}

// GetBean calls the mock function or returns ErrNotFound if not set
func (m *MockStore) GetBean(ctx context.Context, userID, beanID string) (*models.Bean, error) {
	if m.GetBeanFunc != nil {
		return m.GetBeanFunc(ctx, userID, beanID)
	}
	return nil, ErrNotFound
}

// UpsertBean calls the mock function or returns the bean the request describes if not set
func (m *MockStore) UpsertBean(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error) {
	if m.UpsertBeanFunc != nil {
		return m.UpsertBeanFunc(ctx, userID, req)
	}
	return req.Bean(userID), nil
}

// UpdateBean calls the mock function or returns ErrNotFound if not set
func (m *MockStore) UpdateBean(ctx context.Context, userID, beanID string, req *models.UpdateBeanRequest) (*models.Bean, error) {
	if m.UpdateBeanFunc != nil {
		return m.UpdateBeanFunc(ctx, userID, beanID, req)
	}
	return nil, ErrNotFound
}

// AppendEntry calls the mock function or returns nil if not set
func (m *MockStore) AppendEntry(ctx context.Context, userID, beanID string, entry *models.ShotEntry) error {
	if m.AppendEntryFunc != nil {
		return m.AppendEntryFunc(ctx, userID, beanID, entry)
	}
	return nil
}

// ListEntries calls the mock function or returns empty slice if not set
func (m *MockStore) ListEntries(ctx context.Context, userID, beanID string) ([]*models.ShotEntry, error) {
	if m.ListEntriesFunc != nil {
		return m.ListEntriesFunc(ctx, userID, beanID)
	}
	return []*models.ShotEntry{}, nil
}

// Stats calls the mock function or returns zero counts if not set
func (m *MockStore) Stats(ctx context.Context) (Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return Stats{}, nil
}

// Close calls the mock function or returns nil if not set
func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
