package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shotlog/internal/advisor"
	"shotlog/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var shotColumns = []string{
	"id", "bean_id", "date", "shot_type", "grind",
	"dose_g", "yield_g", "time_s", "target_ratio", "target_yield_g", "actual_ratio",
	"advice_text", "advice_kind", "notes", "created_at",
}

func nullFloat(v advisor.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

func fromNull(n sql.NullFloat64) advisor.Value {
	if !n.Valid {
		return advisor.None
	}
	return advisor.Some(n.Float64)
}

// AppendEntry stores a shot entry for an existing bean.
// Returns database.ErrNotFound if the bean does not exist.
func (s *Store) AppendEntry(ctx context.Context, userID, beanID string, entry *models.ShotEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getBean(ctx, tx, userID, beanID); err != nil {
			return err
		}

		entry.BeanID = beanID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}

		query, args, err := s.sq.Insert("shots").
			Columns(append([]string{"user_id"}, shotColumns...)...).
			Values(userID, entry.ID, entry.BeanID, entry.Date, string(entry.ShotType), entry.Grind,
				nullFloat(entry.DoseG), nullFloat(entry.YieldG), nullFloat(entry.TimeS),
				entry.TargetRatio, nullFloat(entry.TargetYieldG), nullFloat(entry.ActualRatio),
				entry.AdviceText, string(entry.AdviceKind), entry.Notes, formatTime(entry.CreatedAt)).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("append entry: %w", err)
		}
		return nil
	})
}

// ListEntries returns entries newest first by insertion. An empty beanID
// returns all of the user's entries.
func (s *Store) ListEntries(ctx context.Context, userID, beanID string) ([]*models.ShotEntry, error) {
	where := sq.Eq{"user_id": userID}
	if beanID != "" {
		where["bean_id"] = beanID
	}

	query, args, err := s.sq.Select(shotColumns...).
		From("shots").
		Where(where).
		OrderBy("seq DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.ShotEntry{}
	for rows.Next() {
		var (
			e                                  models.ShotEntry
			shotType, kind, created            string
			dose, yield, timeS, tYield, aRatio sql.NullFloat64
		)
		err := rows.Scan(&e.ID, &e.BeanID, &e.Date, &shotType, &e.Grind,
			&dose, &yield, &timeS, &e.TargetRatio, &tYield, &aRatio,
			&e.AdviceText, &kind, &e.Notes, &created)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.ShotType = advisor.ShotType(shotType)
		e.AdviceKind = advisor.Kind(kind)
		e.DoseG = fromNull(dose)
		e.YieldG = fromNull(yield)
		e.TimeS = fromNull(timeS)
		e.TargetYieldG = fromNull(tYield)
		e.ActualRatio = fromNull(aRatio)
		e.CreatedAt = parseTime(created)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
