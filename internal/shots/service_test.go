package shots

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shotlog/internal/advisor"
	"shotlog/internal/database"
	"shotlog/internal/database/boltstore"
	"shotlog/internal/models"
	"shotlog/internal/suggestions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 7, 45, 0, 0, time.UTC)

func newTestService(t *testing.T, store database.Store) *Service {
	t.Helper()
	svc := NewService(store, nil)
	svc.now = func() time.Time { return fixedNow }
	n := 0
	svc.newID = func() string {
		n++
		return "shot-" + string(rune('0'+n))
	}
	return svc
}

func boltService(t *testing.T) *Service {
	t.Helper()
	store, err := boltstore.Open(boltstore.Options{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return newTestService(t, store)
}

func TestService_SaveBean(t *testing.T) {
	ctx := context.Background()

	t.Run("validation error is returned unwrapped", func(t *testing.T) {
		svc := newTestService(t, &database.MockStore{})
		_, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{})
		assert.ErrorIs(t, err, models.ErrNameRequired)
	})

	t.Run("store error is wrapped", func(t *testing.T) {
		boom := errors.New("disk full")
		svc := newTestService(t, &database.MockStore{
			UpsertBeanFunc: func(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error) {
				return nil, boom
			},
		})
		_, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{Name: "Halo"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("passes the normalized request to the store", func(t *testing.T) {
		var got *models.CreateBeanRequest
		svc := newTestService(t, &database.MockStore{
			UpsertBeanFunc: func(ctx context.Context, userID string, req *models.CreateBeanRequest) (*models.Bean, error) {
				got = req
				return req.Bean(userID), nil
			},
		})
		bean, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{Brand: " La Cabra ", Name: "Halo"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "La Cabra", got.Brand)
		assert.Nil(t, got.TargetRatio)
		assert.Equal(t, "la-cabra--halo", bean.ID)
		assert.Equal(t, "alice", bean.UserID)
		assert.Equal(t, models.ProcessWashed, bean.Process)
	})

	t.Run("re-saving a bean keeps its ratio and notes", func(t *testing.T) {
		svc := boltService(t)
		ratio := 2.2
		first, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{
			Brand: "La Cabra", Name: "Caballero", TargetRatio: &ratio, Notes: "roasted 1 Mar",
		})
		require.NoError(t, err)

		_, err = svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{
			Brand: "La Cabra", Name: "Caballero", Process: models.ProcessNatural,
		})
		require.NoError(t, err)

		got, err := svc.Bean(ctx, "alice", first.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.2, got.TargetRatio)
		assert.Equal(t, "roasted 1 Mar", got.Notes)
		assert.Equal(t, models.ProcessWashed, got.Process)
	})
}

func TestService_UpdateBean(t *testing.T) {
	svc := newTestService(t, &database.MockStore{})

	_, err := svc.UpdateBean(context.Background(), "alice", "x", &models.UpdateBeanRequest{})
	assert.ErrorIs(t, err, models.ErrNothingToUpdate)

	notes := "ok"
	_, err = svc.UpdateBean(context.Background(), "alice", "x", &models.UpdateBeanRequest{Notes: &notes})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestService_Preview(t *testing.T) {
	svc := newTestService(t, &database.MockStore{})

	t.Run("good shot", func(t *testing.T) {
		res, err := svc.Preview(&models.CreateShotRequest{
			Dose:  advisor.Some(18),
			Yield: advisor.Some(36),
			Time:  advisor.Some(27),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, advisor.KindGood, res.AdviceKind)
		assert.Equal(t, advisor.Some(36), res.TargetYield)
	})

	t.Run("bean ratio is the default target", func(t *testing.T) {
		res, err := svc.Preview(&models.CreateShotRequest{ShotType: advisor.Single}, &models.Bean{TargetRatio: 2.2})
		require.NoError(t, err)
		ty, ok := res.TargetYield.Get()
		require.True(t, ok)
		assert.InDelta(t, 19.8, ty, 1e-9)
	})

	t.Run("invalid shot type", func(t *testing.T) {
		_, err := svc.Preview(&models.CreateShotRequest{ShotType: "Lungo"}, nil)
		assert.ErrorIs(t, err, models.ErrInvalidShotType)
	})
}

func TestService_LogShot(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown bean", func(t *testing.T) {
		svc := newTestService(t, &database.MockStore{})
		_, err := svc.LogShot(ctx, "alice", "nope", &models.CreateShotRequest{})
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("computes and persists", func(t *testing.T) {
		svc := boltService(t)
		bean, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{Brand: "La Cabra", Name: "Halo"})
		require.NoError(t, err)

		entry, err := svc.LogShot(ctx, "alice", bean.ID, &models.CreateShotRequest{
			Grind: "12",
			Dose:  advisor.Some(18),
			Yield: advisor.Some(45),
			Time:  advisor.Some(20),
		})
		require.NoError(t, err)

		assert.Equal(t, "shot-1", entry.ID)
		assert.Equal(t, "2024-03-09", entry.Date)
		assert.Equal(t, advisor.Double, entry.ShotType)
		assert.Equal(t, 2.0, entry.TargetRatio)
		assert.Equal(t, advisor.Some(36), entry.TargetYieldG)
		assert.Equal(t, advisor.Some(2.5), entry.ActualRatio)
		assert.Equal(t, advisor.KindUnder, entry.AdviceKind)
		assert.Contains(t, entry.AdviceText, "36 g")

		log, err := svc.Log(ctx, "alice", bean.ID)
		require.NoError(t, err)
		require.Len(t, log, 1)
		assert.Equal(t, entry.AdviceText, log[0].AdviceText)
	})

	t.Run("validation happens after bean lookup", func(t *testing.T) {
		svc := newTestService(t, &database.MockStore{
			GetBeanFunc: func(ctx context.Context, userID, beanID string) (*models.Bean, error) {
				return &models.Bean{ID: beanID, TargetRatio: 2.0}, nil
			},
			AppendEntryFunc: func(ctx context.Context, userID, beanID string, entry *models.ShotEntry) error {
				t.Fatal("invalid shot must not be stored")
				return nil
			},
		})
		_, err := svc.LogShot(ctx, "alice", "b", &models.CreateShotRequest{Date: "yesterday"})
		assert.ErrorIs(t, err, models.ErrInvalidDate)
	})
}

func TestService_Log(t *testing.T) {
	ctx := context.Background()
	svc := boltService(t)

	a, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{Name: "A"})
	require.NoError(t, err)
	b, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{Name: "B"})
	require.NoError(t, err)

	for _, id := range []string{a.ID, b.ID, a.ID} {
		_, err := svc.LogShot(ctx, "alice", id, &models.CreateShotRequest{})
		require.NoError(t, err)
	}

	all, err := svc.Log(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "shot-3", all[0].ID)

	onlyA, err := svc.Log(ctx, "alice", a.ID)
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	_, err = svc.Log(ctx, "alice", "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "espresso-log-2024-03-09.csv", ExportFilename(fixedNow))
}

func TestService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	svc := boltService(t)

	bean, err := svc.SaveBean(ctx, "alice", &models.CreateBeanRequest{
		Brand:        "Kaffe Ø",
		Name:         "Blå",
		Process:      models.ProcessOther,
		ProcessOther: "Koji",
	})
	require.NoError(t, err)

	_, err = svc.LogShot(ctx, "alice", bean.ID, &models.CreateShotRequest{
		Grind: "11",
		Dose:  advisor.Some(18),
		Yield: advisor.Some(35),
		Time:  advisor.Some(28),
	})
	require.NoError(t, err)
	_, err = svc.LogShot(ctx, "alice", bean.ID, &models.CreateShotRequest{ShotType: advisor.Single})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf, "alice", ""))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"), "export starts with a BOM")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ExportHeader, records[0])

	// newest first: the single shot without measurements
	assert.Equal(t, []string{
		"2024-03-09", "Kaffe Ø", "Blå", "Koji", "Single", "",
		"", "", "", "2", "18", "", records[1][12],
	}, records[1])

	assert.Equal(t, []string{
		"2024-03-09", "Kaffe Ø", "Blå", "Koji", "Double", "11",
		"18", "35", "28", "2", "36", "1.94", "✅ Good extraction – keep your settings.",
	}, records[2])
}

func TestService_Stats(t *testing.T) {
	svc := newTestService(t, &database.MockStore{
		StatsFunc: func(ctx context.Context) (database.Stats, error) {
			return database.Stats{Users: 1, Beans: 2, Entries: 3}, nil
		},
	})
	c, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Entries)
}

func TestService_Suggest(t *testing.T) {
	ctx := context.Background()
	svc := boltService(t)

	for _, req := range []*models.CreateBeanRequest{
		{Brand: "La Cabra", Name: "Halo"},
		{Brand: "La Cabra Coffee", Name: "Bombe"},
		{Brand: "Prolog", Name: "Cabrera"},
	} {
		_, err := svc.SaveBean(ctx, "alice", req)
		require.NoError(t, err)
	}

	got, err := svc.Suggest(ctx, "alice", suggestions.FieldBrand, "cab", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Count)

	got, err = svc.Suggest(ctx, "bob", suggestions.FieldBrand, "cab", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
