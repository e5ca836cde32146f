package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/vaxtrack-platform/internal/appointments"
	"github.com/vaxtrack/vaxtrack-platform/internal/hospitals"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
	"github.com/vaxtrack/vaxtrack-platform/internal/vaccines"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(redisClient, ttl), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	payload := map[string]int{"Male": 3, "Female": 5}
	require.NoError(t, c.Set(ctx, "demographics-gender", payload))

	var got map[string]int
	require.True(t, c.Get(ctx, "demographics-gender", &got))
	assert.Equal(t, payload, got)
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var got map[string]int
	assert.False(t, c.Get(context.Background(), "daily-doses", &got))
}

func TestCacheEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "daily-doses", []DailyDose{{Date: "2026-06-01", Doses: 2}}))
	mr.FastForward(time.Minute + time.Second)

	var got []DailyDose
	assert.False(t, c.Get(ctx, "daily-doses", &got))
}

func TestCacheInvalidateDropsAllReports(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "demographics-age", map[string]int{"0-18": 1}))
	require.NoError(t, c.Set(ctx, "population-coverage", &PopulationCoverage{TotalPopulation: 10}))

	require.NoError(t, c.Invalidate(ctx))

	var ages map[string]int
	assert.False(t, c.Get(ctx, "demographics-age", &ages))
	var coverage PopulationCoverage
	assert.False(t, c.Get(ctx, "population-coverage", &coverage))
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	assert.False(t, c.Get(ctx, "daily-doses", &[]DailyDose{}))
	assert.NoError(t, c.Set(ctx, "daily-doses", []DailyDose{}))
	assert.NoError(t, c.Invalidate(ctx))

	assert.Nil(t, NewCache(nil, time.Minute))
	assert.Nil(t, NewCache(redis.NewClient(&redis.Options{}), 0))
}

type singleApptRepo struct{}

func (singleApptRepo) Find(context.Context, appointments.Filter) ([]appointments.Appointment, error) {
	return nil, nil
}

func (singleApptRepo) Insert(_ context.Context, a *appointments.Appointment) error {
	a.ID = "a1"
	return nil
}

func (singleApptRepo) UpdateStatus(_ context.Context, id, status string) (*appointments.Appointment, error) {
	return &appointments.Appointment{ID: id, Status: status}, nil
}

func (singleApptRepo) Delete(context.Context, string) error { return nil }

type staleFreshener struct{}

func (staleFreshener) EnsureFresh(context.Context) error { return nil }

func (staleFreshener) Hospital(string) (hospitals.Hospital, bool) {
	return hospitals.Hospital{}, false
}

func (staleFreshener) Vaccine(string) (vaccines.Vaccine, bool) {
	return vaccines.Vaccine{}, false
}

func (staleFreshener) User(string) (users.User, bool) {
	return users.User{}, false
}

func TestApprovalDropsCachedReports(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "daily-doses", []DailyDose{{Date: "2026-06-01", Doses: 2}}))
	require.NoError(t, c.Set(ctx, "population-coverage", &PopulationCoverage{TotalPopulation: 10}))

	svc := appointments.NewService(singleApptRepo{}, staleFreshener{}, c, nil)
	_, err := svc.Decide(ctx, "a1", appointments.StatusApproved)
	require.NoError(t, err)

	var doses []DailyDose
	assert.False(t, c.Get(ctx, "daily-doses", &doses), "approval must drop cached doses")
	var coverage PopulationCoverage
	assert.False(t, c.Get(ctx, "population-coverage", &coverage), "approval must drop cached coverage")
}
