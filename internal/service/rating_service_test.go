package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Leganyst/service-marketplace/internal/db/dbtest"
	"github.com/Leganyst/service-marketplace/internal/model"
	"github.com/Leganyst/service-marketplace/internal/repository"
)

func reloadProvider(t *testing.T, db *gorm.DB, id uuid.UUID) model.ProviderProfile {
	t.Helper()
	var p model.ProviderProfile
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}

func countRatings(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Rating{}).Count(&n).Error)
	return n
}

func TestRatingService_TwoRatingsAverageAndDistribution(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewRatingService(db, nil, nil)

	for _, score := range []int{5, 4} {
		c := dbtest.CompletedContact(t, db, f)
		_, err := svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: c.ID, Score: score, Comment: "  ok  "})
		require.NoError(t, err)
	}

	p := reloadProvider(t, db, f.ProviderProfile.ID)
	assert.InDelta(t, 4.5, p.RatingAverage, 0.001)
	assert.Equal(t, 2, p.RatingCount)

	list, err := svc.List(ctx, RatingFilter{ProviderAccountID: &f.Provider.ID})
	require.NoError(t, err)
	assert.Len(t, list.Ratings, 2)
	assert.Equal(t, int64(2), list.Stats.Total)
	assert.InDelta(t, 4.5, list.Stats.Average, 0.001)
	assert.Equal(t, StarBucket{Count: 1, Percent: 50}, list.Stats.Distribution["stars_5"])
	assert.Equal(t, StarBucket{Count: 1, Percent: 50}, list.Stats.Distribution["stars_4"])
	assert.Equal(t, StarBucket{}, list.Stats.Distribution["stars_1"])
	assert.Equal(t, "ok", list.Ratings[0].Comment)
}

func TestRatingService_RemoveRecomputesAndResets(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewRatingService(db, nil, nil)

	var ids []uuid.UUID
	for _, score := range []int{5, 4, 2} {
		c := dbtest.CompletedContact(t, db, f)
		r, err := svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: c.ID, Score: score})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	p := reloadProvider(t, db, f.ProviderProfile.ID)
	assert.InDelta(t, 3.67, p.RatingAverage, 0.001)
	assert.Equal(t, 3, p.RatingCount)

	require.NoError(t, svc.Remove(ctx, f.Client.ID, ids[2]))
	p = reloadProvider(t, db, f.ProviderProfile.ID)
	assert.InDelta(t, 4.5, p.RatingAverage, 0.001)
	assert.Equal(t, 2, p.RatingCount)

	require.NoError(t, svc.Remove(ctx, f.Client.ID, ids[0]))
	require.NoError(t, svc.Remove(ctx, f.Client.ID, ids[1]))
	p = reloadProvider(t, db, f.ProviderProfile.ID)
	assert.InDelta(t, model.DefaultRatingAverage, p.RatingAverage, 0.001)
	assert.Equal(t, 0, p.RatingCount)
}

func TestRatingService_RemoveByStrangerForbidden(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewRatingService(db, nil, nil)

	c := dbtest.CompletedContact(t, db, f)
	r, err := svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: c.ID, Score: 3})
	require.NoError(t, err)

	err = svc.Remove(ctx, f.Provider.ID, r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, int64(1), countRatings(t, db))

	err = svc.Remove(ctx, f.Client.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRatingService_CreateRejections(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewRatingService(db, nil, nil)

	open := &model.ContactRequest{ClientID: f.Client.ID, ProviderID: f.Provider.ID, ServiceID: f.Service.ID}
	require.NoError(t, db.Create(open).Error)
	done := dbtest.CompletedContact(t, db, f)
	other := dbtest.NewAccount(t, db, "outro@test.com", "Outro Cliente", model.RoleClient)

	cases := []struct {
		name   string
		author uuid.UUID
		in     RatingInput
		field  string
	}{
		{"score too high", f.Client.ID, RatingInput{ContactRequestID: done.ID, Score: 6}, "score"},
		{"score too low", f.Client.ID, RatingInput{ContactRequestID: done.ID, Score: 0}, "score"},
		{"missing contact id", f.Client.ID, RatingInput{Score: 4}, "contact_request_id"},
		{"unknown contact", f.Client.ID, RatingInput{ContactRequestID: uuid.New(), Score: 4}, "contact_request_id"},
		{"not the requester", other.ID, RatingInput{ContactRequestID: done.ID, Score: 4}, "contact_request_id"},
		{"not completed", f.Client.ID, RatingInput{ContactRequestID: open.ID, Score: 4}, "contact_request_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.author, tc.in)
			var v *ValidationError
			require.ErrorAs(t, err, &v)
			assert.NotEmpty(t, v.Fields[tc.field])
			assert.Equal(t, int64(0), countRatings(t, db))
		})
	}

	_, err := svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: done.ID, Score: 4})
	require.NoError(t, err)

	_, err = svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: done.ID, Score: 1})
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []string{"Este serviço já foi avaliado."}, v.Fields["contact_request_id"])
	assert.Equal(t, int64(1), countRatings(t, db))

	p := reloadProvider(t, db, f.ProviderProfile.ID)
	assert.InDelta(t, 4.0, p.RatingAverage, 0.001)
	assert.Equal(t, 1, p.RatingCount)
}

func TestRatingService_AggregateCountsSoftDeletedContacts(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	svc := NewRatingService(db, nil, nil)

	c := dbtest.CompletedContact(t, db, f)
	_, err := svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: c.ID, Score: 2})
	require.NoError(t, err)
	require.NoError(t, db.Delete(&model.ContactRequest{}, "id = ?", c.ID).Error)

	svc.RecomputeProviderRating(ctx, db, f.Provider.ID)

	p := reloadProvider(t, db, f.ProviderProfile.ID)
	assert.InDelta(t, 2.0, p.RatingAverage, 0.001)
	assert.Equal(t, 1, p.RatingCount)
}

func TestRatingService_RecomputeInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	mr, pc := newRedisCache(t)
	svc := NewRatingService(db, pc, nil)

	require.NoError(t, pc.SetProvider(ctx, f.ProviderProfile.ID, map[string]string{"stale": "yes"}))
	require.Len(t, mr.Keys(), 1)

	c := dbtest.CompletedContact(t, db, f)
	_, err := svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: c.ID, Score: 5})
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())
}

// readBackCache перечитывает карточку сразу после сброса, как конкурентный запрос.
type readBackCache struct {
	ProviderCache
	after func(id uuid.UUID)
}

func (c *readBackCache) InvalidateProvider(ctx context.Context, id uuid.UUID) error {
	if err := c.ProviderCache.InvalidateProvider(ctx, id); err != nil {
		return err
	}
	c.after(id)
	return nil
}

func TestRatingService_InvalidatesAfterCommit(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	f := dbtest.Seed(t, db)
	_, pc := newRedisCache(t)
	discovery := NewDiscoveryService(db, pc, nil)

	var seen []*ProviderDetail
	hook := &readBackCache{ProviderCache: pc, after: func(id uuid.UUID) {
		d, err := discovery.ProviderDetail(ctx, id)
		require.NoError(t, err)
		seen = append(seen, d)
	}}
	svc := NewRatingService(db, hook, nil)

	c := dbtest.CompletedContact(t, db, f)
	rating, err := svc.Create(ctx, f.Client.ID, RatingInput{ContactRequestID: c.ID, Score: 1})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0].RatingCount)
	assert.InDelta(t, 1.0, seen[0].RatingAverage, 0.001)

	var cached ProviderDetail
	ok, err := pc.GetProvider(ctx, f.ProviderProfile.ID, &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, cached.RatingCount)
	assert.InDelta(t, 1.0, cached.RatingAverage, 0.001)

	require.NoError(t, svc.Remove(ctx, f.Client.ID, rating.ID))
	require.Len(t, seen, 2)
	assert.Equal(t, 0, seen[1].RatingCount)
	assert.InDelta(t, 5.0, seen[1].RatingAverage, 0.001)
}

func TestRatingService_RecomputeLogsMissingProfile(t *testing.T) {
	db := dbtest.New(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := NewRatingService(db, nil, zap.New(core))

	svc.RecomputeProviderRating(context.Background(), db, uuid.New())

	entries := logs.FilterMessage("rating cache recompute failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "record not found")
}

func TestRatingService_RecomputeSwallowsDatabaseError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "provider_profiles"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	core, logs := observer.New(zapcore.ErrorLevel)
	svc := NewRatingService(db, nil, zap.New(core))

	assert.NotPanics(t, func() {
		svc.RecomputeProviderRating(context.Background(), db, uuid.New())
	})
	assert.Equal(t, 1, logs.FilterMessage("rating cache recompute failed").Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildRatingStats(t *testing.T) {
	empty := buildRatingStats(map[int]int64{})
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.Average)
	assert.Len(t, empty.Distribution, 5)

	stats := buildRatingStats(map[int]int64{5: 2, 1: 1})
	assert.Equal(t, int64(3), stats.Total)
	assert.InDelta(t, 3.67, stats.Average, 0.001)
	assert.InDelta(t, 66.67, stats.Distribution["stars_5"].Percent, 0.001)
	assert.InDelta(t, 33.33, stats.Distribution["stars_1"].Percent, 0.001)
}

func TestRatingCache(t *testing.T) {
	avg, n := ratingCache(repository.RatingAggregate{})
	assert.Equal(t, model.DefaultRatingAverage, avg)
	assert.Zero(t, n)

	v := 4.666666
	avg, n = ratingCache(repository.RatingAggregate{Count: 3, Average: &v})
	assert.Equal(t, 4.67, avg)
	assert.Equal(t, 3, n)
}
