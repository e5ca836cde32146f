// Package refdata keeps denormalized copies of hospital, vaccine and user
// records in memory so appointment reads and reports avoid per-request joins
// against the backing store.
package refdata

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vaxtrack/vaxtrack-platform/internal/hospitals"
	"github.com/vaxtrack/vaxtrack-platform/internal/users"
	"github.com/vaxtrack/vaxtrack-platform/internal/vaccines"
)

// DefaultTTL bounds how stale the cache may get before the next EnsureFresh
// triggers a full reload.
const DefaultTTL = 5 * time.Minute

// HospitalLister fetches all hospital records.
type HospitalLister interface {
	List(ctx context.Context) ([]hospitals.Hospital, error)
}

// VaccineLister fetches all vaccine records.
type VaccineLister interface {
	List(ctx context.Context) ([]vaccines.Vaccine, error)
}

// UserLister fetches all user records.
type UserLister interface {
	List(ctx context.Context) ([]users.User, error)
}

// snapshot is an immutable view of the reference data. A reload builds a new
// snapshot and swaps it in whole, so readers never observe a half-updated
// cache.
type snapshot struct {
	hospitals map[string]hospitals.Hospital
	vaccines  map[string]vaccines.Vaccine
	users     map[string]users.User
	loadedAt  time.Time
}

// Cache is an eventually-refreshed read cache over the three reference
// collections. Concurrent EnsureFresh calls may race on the staleness check
// and reload twice; the last reload to finish wins, which is tolerated.
type Cache struct {
	hospitalStore HospitalLister
	vaccineStore  VaccineLister
	userStore     UserLister
	ttl           time.Duration
	clock         func() time.Time

	snap atomic.Pointer[snapshot]
}

// NewCache creates a cache over the given listers with the given TTL.
// A non-positive TTL falls back to DefaultTTL.
func NewCache(h HospitalLister, v VaccineLister, u UserLister, ttl time.Duration) *Cache {
	return NewCacheWithClock(h, v, u, ttl, time.Now)
}

// NewCacheWithClock allows injecting a clock for testing.
func NewCacheWithClock(h HospitalLister, v VaccineLister, u UserLister, ttl time.Duration, clock func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		hospitalStore: h,
		vaccineStore:  v,
		userStore:     u,
		ttl:           ttl,
		clock:         clock,
	}
}

// EnsureFresh reloads all three collections when the cache has never been
// loaded, any map is empty, or the last load is older than the TTL.
// Callers must invoke this before relying on the lookup methods.
func (c *Cache) EnsureFresh(ctx context.Context) error {
	if !c.stale() {
		return nil
	}
	return c.reload(ctx)
}

func (c *Cache) stale() bool {
	s := c.snap.Load()
	if s == nil {
		return true
	}
	if len(s.hospitals) == 0 || len(s.vaccines) == 0 || len(s.users) == 0 {
		return true
	}
	return c.clock().Sub(s.loadedAt) > c.ttl
}

func (c *Cache) reload(ctx context.Context) error {
	hs, err := c.hospitalStore.List(ctx)
	if err != nil {
		return fmt.Errorf("refdata: load hospitals: %w", err)
	}
	vs, err := c.vaccineStore.List(ctx)
	if err != nil {
		return fmt.Errorf("refdata: load vaccines: %w", err)
	}
	us, err := c.userStore.List(ctx)
	if err != nil {
		return fmt.Errorf("refdata: load users: %w", err)
	}

	next := &snapshot{
		hospitals: make(map[string]hospitals.Hospital, len(hs)),
		vaccines:  make(map[string]vaccines.Vaccine, len(vs)),
		users:     make(map[string]users.User, len(us)),
		loadedAt:  c.clock(),
	}
	for _, h := range hs {
		next.hospitals[h.ID] = h
	}
	for _, v := range vs {
		next.vaccines[v.ID] = v
	}
	for _, u := range us {
		next.users[u.ID] = u
	}

	c.snap.Store(next)
	return nil
}

// Hospital returns a copy of the cached hospital record, if present.
// Never triggers a reload.
func (c *Cache) Hospital(id string) (hospitals.Hospital, bool) {
	s := c.snap.Load()
	if s == nil {
		return hospitals.Hospital{}, false
	}
	h, ok := s.hospitals[id]
	return h, ok
}

// Vaccine returns a copy of the cached vaccine record, if present.
func (c *Cache) Vaccine(id string) (vaccines.Vaccine, bool) {
	s := c.snap.Load()
	if s == nil {
		return vaccines.Vaccine{}, false
	}
	v, ok := s.vaccines[id]
	return v, ok
}

// User returns a copy of the cached user record, if present.
func (c *Cache) User(id string) (users.User, bool) {
	s := c.snap.Load()
	if s == nil {
		return users.User{}, false
	}
	u, ok := s.users[id]
	return u, ok
}

// LastRefresh reports when the current snapshot was loaded. Zero when the
// cache has never been loaded.
func (c *Cache) LastRefresh() time.Time {
	s := c.snap.Load()
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}
