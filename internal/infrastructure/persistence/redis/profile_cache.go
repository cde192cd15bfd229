package redis

import (
	"context"
	"errors"
	"time"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/pkg/circuitbreaker"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// jsonCache is the subset of Cache used by CachedProfileStore.
type jsonCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedProfileStore is a read-through cache over a mentorship.ProfileStore.
// Cache failures are logged and the call falls through to the backing store,
// so Redis being down only costs latency.
type CachedProfileStore struct {
	next  mentorship.ProfileStore
	cache jsonCache
	ttl   time.Duration
	log   *logger.Logger
}

var _ mentorship.ProfileStore = (*CachedProfileStore)(nil)

func newCachedProfileStore(next mentorship.ProfileStore, cache jsonCache, ttl time.Duration, log *logger.Logger) *CachedProfileStore {
	if ttl <= 0 {
		ttl = TTLProfile
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedProfileStore{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With(logger.Component("profile_cache")),
	}
}

// GetProfile implements mentorship.ProfileStore.
func (s *CachedProfileStore) GetProfile(ctx context.Context, id string) (*mentorship.Profile, error) {
	key := ProfileKey(id)

	var cached mentorship.Profile
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) && !circuitbreaker.IsRejected(err) {
		s.log.Warn("profile cache read failed", logger.ProfileID(id), logger.Err(err))
	}

	p, err := s.next.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, p)
	return p, nil
}

// FindProfilesByRole implements mentorship.ProfileStore. The whole pool of a
// role is cached as one entry because ranking always reads all of it.
func (s *CachedProfileStore) FindProfilesByRole(ctx context.Context, role mentorship.Role) ([]mentorship.Profile, error) {
	key := PoolKey(role.String())

	var cached []mentorship.Profile
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) && !circuitbreaker.IsRejected(err) {
		s.log.Warn("profile pool cache read failed", logger.String("role", role.String()), logger.Err(err))
	}

	pool, err := s.next.FindProfilesByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, pool)
	return pool, nil
}

// FindProfileByOwnerAccount implements mentorship.ProfileStore. It is not
// cached; identity resolution must see deletions immediately.
func (s *CachedProfileStore) FindProfileByOwnerAccount(ctx context.Context, accountID string, role mentorship.Role) (*mentorship.Profile, error) {
	return s.next.FindProfileByOwnerAccount(ctx, accountID, role)
}

// CreateProfile implements mentorship.ProfileStore.
func (s *CachedProfileStore) CreateProfile(ctx context.Context, p *mentorship.Profile) error {
	if err := s.next.CreateProfile(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, PoolKey(p.Role.String()))
	return nil
}

// UpdateProfile implements mentorship.ProfileStore.
func (s *CachedProfileStore) UpdateProfile(ctx context.Context, p *mentorship.Profile) error {
	if err := s.next.UpdateProfile(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, ProfileKey(p.ID), PoolKey(p.Role.String()))
	return nil
}

// DeleteProfile implements mentorship.ProfileStore.
func (s *CachedProfileStore) DeleteProfile(ctx context.Context, id string) error {
	if err := s.next.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx,
		ProfileKey(id),
		PoolKey(mentorship.RoleMentor.String()),
		PoolKey(mentorship.RoleLearner.String()),
	)
	return nil
}

func (s *CachedProfileStore) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil && !circuitbreaker.IsRejected(err) {
		s.log.Warn("profile cache write failed", logger.String("key", key), logger.Err(err))
	}
}

func (s *CachedProfileStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Error("profile cache invalidation failed", logger.Any("keys", keys), logger.Err(err))
	}
}

// cachedStore overrides Profiles() of a backing mentorship.Store.
type cachedStore struct {
	mentorship.Store
	profiles *CachedProfileStore
}

// WithProfileCache returns a Store whose profile reads go through cache.
// Reads and writes to the cache are guarded by breaker when it is non-nil.
func WithProfileCache(store mentorship.Store, cache *Cache, breaker *circuitbreaker.CircuitBreaker, log *logger.Logger) mentorship.Store {
	var c jsonCache = cache
	if breaker != nil {
		c = newGuardedCache(cache, breaker)
	}
	return &cachedStore{
		Store:    store,
		profiles: newCachedProfileStore(store.Profiles(), c, cache.profileTTL, log),
	}
}

func (s *cachedStore) Profiles() mentorship.ProfileStore { return s.profiles }
