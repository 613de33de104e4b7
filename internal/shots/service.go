// Package shots runs the compute-and-persist cycle for espresso shots: a
// submitted shot is normalized, derived and classified by the advisor, then
// appended to the bean's log.
package shots

import (
	"context"
	"fmt"
	"time"

	"shotlog/internal/advisor"
	"shotlog/internal/database"
	"shotlog/internal/metrics"
	"shotlog/internal/models"
	"shotlog/internal/suggestions"
	"shotlog/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service ties the advisor to a record store.
type Service struct {
	store   database.Store
	advisor *advisor.Advisor
	now     func() time.Time
	newID   func() string
}

// NewService returns a service. A nil advisor uses the English catalog.
func NewService(store database.Store, adv *advisor.Advisor) *Service {
	if adv == nil {
		adv = advisor.New(advisor.English)
	}
	return &Service{
		store:   store,
		advisor: adv,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Beans lists the user's beans.
func (s *Service) Beans(ctx context.Context, userID string) ([]*models.Bean, error) {
	return s.store.ListBeans(ctx, userID)
}

// Bean returns one bean or database.ErrNotFound.
func (s *Service) Bean(ctx context.Context, userID, beanID string) (*models.Bean, error) {
	return s.store.GetBean(ctx, userID, beanID)
}

// SaveBean validates the request and upserts the bean by slug.
func (s *Service) SaveBean(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.ShotSpan(ctx, "save_bean", userID, "")
	defer span.End()

	bean, err := s.store.UpsertBean(ctx, userID, req)
	tracing.EndWithError(span, err)
	if err != nil {
		return nil, fmt.Errorf("save bean: %w", err)
	}

	metrics.BeansSavedTotal.WithLabelValues("upsert").Inc()
	log.Info().Str("user", userID).Str("bean", bean.ID).Msg("Bean saved")
	return bean, nil
}

// UpdateBean changes a bean's target ratio or notes.
func (s *Service) UpdateBean(ctx context.Context, userID, beanID string, req *models.UpdateBeanRequest) (*models.Bean, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.ShotSpan(ctx, "update_bean", userID, beanID)
	defer span.End()

	bean, err := s.store.UpdateBean(ctx, userID, beanID, req)
	tracing.EndWithError(span, err)
	if err != nil {
		return nil, fmt.Errorf("update bean: %w", err)
	}

	metrics.BeansSavedTotal.WithLabelValues("update").Inc()
	return bean, nil
}

// Preview derives and classifies a shot without storing it. bean may be nil;
// it only supplies the default target ratio.
func (s *Service) Preview(req *models.CreateShotRequest, bean *models.Bean) (advisor.Result, error) {
	req.Normalize(bean, s.now())
	if err := req.Validate(); err != nil {
		return advisor.Result{}, err
	}

	res := s.advisor.DeriveAndClassify(req.Input())
	metrics.AdviceRequestsTotal.WithLabelValues(string(res.AdviceKind)).Inc()
	return res, nil
}

// LogShot computes the advice for a shot and appends it to the bean's log.
func (s *Service) LogShot(ctx context.Context, userID, beanID string, req *models.CreateShotRequest) (*models.ShotEntry, error) {
	ctx, span := tracing.ShotSpan(ctx, "log", userID, beanID)
	defer span.End()

	bean, err := s.store.GetBean(ctx, userID, beanID)
	if err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("log shot: %w", err)
	}

	now := s.now()
	req.Normalize(bean, now)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := s.advisor.DeriveAndClassify(req.Input())
	entry := &models.ShotEntry{
		ID:           s.newID(),
		BeanID:       bean.ID,
		Date:         req.Date,
		ShotType:     req.ShotType,
		Grind:        req.Grind,
		DoseG:        req.Dose,
		YieldG:       req.Yield,
		TimeS:        req.Time,
		TargetRatio:  req.TargetRatio.Or(bean.TargetRatio),
		TargetYieldG: res.TargetYield,
		ActualRatio:  res.ActualRatio,
		AdviceText:   res.AdviceText,
		AdviceKind:   res.AdviceKind,
		Notes:        req.Notes,
		CreatedAt:    now.UTC(),
	}

	if err := s.store.AppendEntry(ctx, userID, bean.ID, entry); err != nil {
		tracing.EndWithError(span, err)
		return nil, fmt.Errorf("log shot: %w", err)
	}

	metrics.ShotsLoggedTotal.WithLabelValues(string(entry.AdviceKind)).Inc()
	log.Info().
		Str("user", userID).
		Str("bean", bean.ID).
		Str("kind", string(entry.AdviceKind)).
		Msg("Shot logged")

	return entry, nil
}

// Log returns the user's shots newest first, optionally for one bean.
func (s *Service) Log(ctx context.Context, userID, beanID string) ([]*models.ShotEntry, error) {
	if beanID != "" {
		if _, err := s.store.GetBean(ctx, userID, beanID); err != nil {
			return nil, err
		}
	}
	return s.store.ListEntries(ctx, userID, beanID)
}

// Suggest completes a bean form field from the user's saved beans.
func (s *Service) Suggest(ctx context.Context, userID string, field suggestions.Field, query string, limit int) ([]suggestions.Suggestion, error) {
	beans, err := s.store.ListBeans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return suggestions.Search(beans, field, query, limit), nil
}

// Stats returns record totals in the shape the metrics collector expects.
func (s *Service) Stats(ctx context.Context) (metrics.Counts, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return metrics.Counts{}, err
	}
	return metrics.Counts{Users: st.Users, Beans: st.Beans, Entries: st.Entries}, nil
}
