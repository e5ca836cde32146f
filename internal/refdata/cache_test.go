package refdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxtrack/vaxtrack-platform/internal/hospitals"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
	"github.com/vaxtrack/vaxtrack-platform/internal/vaccines"
)

type stubHospitalLister struct {
	records []hospitals.Hospital
	err     error
	calls   int
}

func (s *stubHospitalLister) List(context.Context) ([]hospitals.Hospital, error) {
	s.calls++
	return s.records, s.err
}

type stubVaccineLister struct {
	records []vaccines.Vaccine
	calls   int
}

func (s *stubVaccineLister) List(context.Context) ([]vaccines.Vaccine, error) {
	s.calls++
	return s.records, nil
}

type stubUserLister struct {
	records []users.User
	calls   int
}

func (s *stubUserLister) List(context.Context) ([]users.User, error) {
	s.calls++
	return s.records, nil
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newPopulatedStores() (*stubHospitalLister, *stubVaccineLister, *stubUserLister) {
	h := &stubHospitalLister{records: []hospitals.Hospital{{ID: "h1", Name: "City General", Charges: 100}}}
	v := &stubVaccineLister{records: []vaccines.Vaccine{{ID: "v1", Name: "CoviShield"}}}
	u := &stubUserLister{records: []users.User{{ID: "u1", Username: "alice", Role: users.RolePatient}}}
	return h, v, u
}

func TestEnsureFreshLoadsOnFirstUse(t *testing.T) {
	h, v, u := newPopulatedStores()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCacheWithClock(h, v, u, DefaultTTL, clock.Now)

	_, ok := cache.Hospital("h1")
	assert.False(t, ok, "lookup before EnsureFresh should miss")

	require.NoError(t, cache.EnsureFresh(context.Background()))

	hosp, ok := cache.Hospital("h1")
	require.True(t, ok)
	assert.Equal(t, "City General", hosp.Name)

	vac, ok := cache.Vaccine("v1")
	require.True(t, ok)
	assert.Equal(t, "CoviShield", vac.Name)

	usr, ok := cache.User("u1")
	require.True(t, ok)
	assert.Equal(t, "alice", usr.Username)

	assert.Equal(t, clock.now, cache.LastRefresh())
}

func TestEnsureFreshSkipsReloadWithinTTL(t *testing.T) {
	h, v, u := newPopulatedStores()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCacheWithClock(h, v, u, 5*time.Minute, clock.Now)

	require.NoError(t, cache.EnsureFresh(context.Background()))
	clock.Advance(4 * time.Minute)
	require.NoError(t, cache.EnsureFresh(context.Background()))

	assert.Equal(t, 1, h.calls)
	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 1, u.calls)
}

func TestEnsureFreshReloadsAfterTTL(t *testing.T) {
	h, v, u := newPopulatedStores()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCacheWithClock(h, v, u, 5*time.Minute, clock.Now)

	require.NoError(t, cache.EnsureFresh(context.Background()))
	clock.Advance(5*time.Minute + time.Second)
	require.NoError(t, cache.EnsureFresh(context.Background()))

	assert.Equal(t, 2, h.calls, "all three collections reload after TTL even if nothing changed")
	assert.Equal(t, 2, v.calls)
	assert.Equal(t, 2, u.calls)
}

func TestEnsureFreshReloadsWhenAnyMapEmpty(t *testing.T) {
	h, v, u := newPopulatedStores()
	v.records = nil // empty vaccines map forces a reload every time
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCacheWithClock(h, v, u, 5*time.Minute, clock.Now)

	require.NoError(t, cache.EnsureFresh(context.Background()))
	require.NoError(t, cache.EnsureFresh(context.Background()))

	assert.Equal(t, 2, h.calls)
}

func TestEnsureFreshKeepsOldSnapshotOnError(t *testing.T) {
	h, v, u := newPopulatedStores()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCacheWithClock(h, v, u, 5*time.Minute, clock.Now)

	require.NoError(t, cache.EnsureFresh(context.Background()))

	h.err = errors.New("store unavailable")
	clock.Advance(6 * time.Minute)
	err := cache.EnsureFresh(context.Background())
	require.Error(t, err)

	// The stale snapshot is still served; joins degrade rather than fail.
	hosp, ok := cache.Hospital("h1")
	require.True(t, ok)
	assert.Equal(t, "City General", hosp.Name)
}

func TestLookupsNeverReload(t *testing.T) {
	h, v, u := newPopulatedStores()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCacheWithClock(h, v, u, 5*time.Minute, clock.Now)

	require.NoError(t, cache.EnsureFresh(context.Background()))
	clock.Advance(time.Hour)

	cache.Hospital("h1")
	cache.Vaccine("v1")
	cache.User("u1")

	assert.Equal(t, 1, h.calls, "lookups must not trigger reloads")
}
