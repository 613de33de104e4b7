package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shotlog/internal/database"
	"shotlog/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var beanColumns = []string{
	"id", "user_id", "brand", "name", "process", "process_other",
	"target_ratio", "notes", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBean(row rowScanner) (*models.Bean, error) {
	var b models.Bean
	var process, created, updated string
	err := row.Scan(&b.ID, &b.UserID, &b.Brand, &b.Name, &process, &b.ProcessOther,
		&b.TargetRatio, &b.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	b.Process = models.Process(process)
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return &b, nil
}

// ListBeans returns the user's beans ordered by brand and name.
func (s *Store) ListBeans(ctx context.Context, userID string) ([]*models.Bean, error) {
	query, args, err := s.sq.Select(beanColumns...).
		From("beans").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("brand", "name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list beans: %w", err)
	}
	defer rows.Close()

	beans := []*models.Bean{}
	for rows.Next() {
		b, err := scanBean(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bean: %w", err)
		}
		beans = append(beans, b)
	}
	return beans, rows.Err()
}

// GetBean retrieves a bean by slug.
func (s *Store) GetBean(ctx context.Context, userID, beanID string) (*models.Bean, error) {
	return s.getBean(ctx, s.db, userID, beanID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getBean(ctx context.Context, q queryer, userID, beanID string) (*models.Bean, error) {
	query, args, err := s.sq.Select(beanColumns...).
		From("beans").
		Where(sq.Eq{"user_id": userID, "id": beanID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	b, err := scanBean(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bean: %w", err)
	}
	return b, nil
}

// UpsertBean inserts the bean the request describes, or merges the request
// into the stored bean with the same slug.
func (s *Store) UpsertBean(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error) {
	id := req.ID()
	if id == "" {
		return nil, fmt.Errorf("bean has no id: %w", models.ErrNameRequired)
	}

	var saved *models.Bean
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := s.getBean(ctx, tx, userID, id)
		switch {
		case errors.Is(err, database.ErrNotFound):
			saved, err = s.insertBean(ctx, tx, req.Bean(userID))
			return err
		case err != nil:
			return err
		}

		req.Merge(prev)
		saved = prev
		return s.writeMutable(ctx, tx, prev)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) insertBean(ctx context.Context, tx *sql.Tx, b *models.Bean) (*models.Bean, error) {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	query, args, err := s.sq.Insert("beans").
		Columns(beanColumns...).
		Values(b.ID, b.UserID, b.Brand, b.Name, string(b.Process), b.ProcessOther,
			b.TargetRatio, b.Notes, formatTime(now), formatTime(now)).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert bean: %w", err)
	}
	return b, nil
}

// writeMutable stores the target ratio and notes of b and stamps UpdatedAt.
func (s *Store) writeMutable(ctx context.Context, tx *sql.Tx, b *models.Bean) error {
	b.UpdatedAt = time.Now().UTC()

	query, args, err := s.sq.Update("beans").
		Set("target_ratio", b.TargetRatio).
		Set("notes", b.Notes).
		Set("updated_at", formatTime(b.UpdatedAt)).
		Where(sq.Eq{"user_id": b.UserID, "id": b.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update bean: %w", err)
	}
	return nil
}

// UpdateBean applies a target ratio or notes change to an existing bean.
func (s *Store) UpdateBean(ctx context.Context, userID, beanID string, req *models.UpdateBeanRequest) (*models.Bean, error) {
	var bean *models.Bean
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		bean, err = s.getBean(ctx, tx, userID, beanID)
		if err != nil {
			return err
		}

		req.Apply(bean)
		return s.writeMutable(ctx, tx, bean)
	})
	if err != nil {
		return nil, err
	}
	return bean, nil
}
