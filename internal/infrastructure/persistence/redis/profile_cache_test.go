package redis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorship-hub/mentorship-engine/internal/domain/mentorship"
	"github.com/mentorship-hub/mentorship-engine/internal/domain/shared"
	"github.com/mentorship-hub/mentorship-engine/internal/infrastructure/persistence/memory"
	"github.com/mentorship-hub/mentorship-engine/pkg/circuitbreaker"
)

type fakeCache struct {
	data map[string][]byte
	gets int
	fail error
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.gets++
	if c.fail != nil {
		return c.fail
	}
	raw, ok := c.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if c.fail != nil {
		return c.fail
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func newMentor(t *testing.T, name string) *mentorship.Profile {
	t.Helper()
	p, err := mentorship.NewProfile(mentorship.ProfileParams{
		Role:     mentorship.RoleMentor,
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Track:    "Backend",
		Term:     4,
		Subjects: []string{"Go"},
		Skills:   []string{"SQL"},
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

func TestCachedProfileStore_GetProfileReadsThrough(t *testing.T) {
	ctx := context.Background()
	backing := memory.NewStore().Profiles()
	cache := newFakeCache()
	store := newCachedProfileStore(backing, cache, time.Minute, nil)

	p := newMentor(t, "Ada")
	require.NoError(t, store.CreateProfile(ctx, p))

	got, err := store.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Contains(t, cache.data, ProfileKey(p.ID))

	// served from cache even after the backing row is gone
	require.NoError(t, backing.DeleteProfile(ctx, p.ID))
	got, err = store.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, []string(got.Subjects))
}

func TestCachedProfileStore_UpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	store := newCachedProfileStore(memory.NewStore().Profiles(), cache, time.Minute, nil)

	p := newMentor(t, "Ada")
	require.NoError(t, store.CreateProfile(ctx, p))
	_, err := store.FindProfilesByRole(ctx, mentorship.RoleMentor)
	require.NoError(t, err)
	_, err = store.GetProfile(ctx, p.ID)
	require.NoError(t, err)

	p.Track = "Frontend"
	require.NoError(t, store.UpdateProfile(ctx, p))
	assert.NotContains(t, cache.data, ProfileKey(p.ID))
	assert.NotContains(t, cache.data, PoolKey("mentor"))

	pool, err := store.FindProfilesByRole(ctx, mentorship.RoleMentor)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "Frontend", pool[0].Track)
}

func TestCachedProfileStore_CreateInvalidatesPool(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	store := newCachedProfileStore(memory.NewStore().Profiles(), cache, time.Minute, nil)

	require.NoError(t, store.CreateProfile(ctx, newMentor(t, "Ada")))
	pool, err := store.FindProfilesByRole(ctx, mentorship.RoleMentor)
	require.NoError(t, err)
	assert.Len(t, pool, 1)

	require.NoError(t, store.CreateProfile(ctx, newMentor(t, "Grace")))
	pool, err = store.FindProfilesByRole(ctx, mentorship.RoleMentor)
	require.NoError(t, err)
	assert.Len(t, pool, 2)
}

func TestCachedProfileStore_FallsThroughOnCacheError(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.fail = errors.New("connection refused")
	store := newCachedProfileStore(memory.NewStore().Profiles(), cache, time.Minute, nil)

	p := newMentor(t, "Ada")
	require.NoError(t, store.CreateProfile(ctx, p))

	got, err := store.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCachedProfileStore_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	store := newCachedProfileStore(memory.NewStore().Profiles(), cache, time.Minute, nil)

	_, err := store.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, cache.data)
}

func TestCache_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	host, port, ok := strings.Cut(addr, ":")
	require.True(t, ok, "TEST_REDIS_ADDR must be host:port")

	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port)
	cfg.KeyPrefix = "mentorship-test:" + strconv.FormatInt(time.Now().UnixNano(), 10) + ":"

	ctx := context.Background()
	cache, err := NewCache(ctx, cfg)
	require.NoError(t, err)
	defer cache.Close()

	p := newMentor(t, "Ada")
	require.NoError(t, cache.Set(ctx, ProfileKey(p.ID), p, time.Minute))

	var got mentorship.Profile
	require.NoError(t, cache.Get(ctx, ProfileKey(p.ID), &got))
	assert.Equal(t, p.Email, got.Email)

	require.NoError(t, cache.DeleteByPattern(ctx, PrefixProfile+"*"))
	assert.ErrorIs(t, cache.Get(ctx, ProfileKey(p.ID), &got), ErrCacheMiss)
}

func TestGuardedCache_SkipsRedisWhileOpen(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.fail = errors.New("connection refused")

	breaker := NewCacheBreaker(nil, circuitbreaker.WithFailureThreshold(3))
	store := newCachedProfileStore(memory.NewStore().Profiles(), newGuardedCache(cache, breaker), time.Minute, nil)

	p := newMentor(t, "Ada")
	require.NoError(t, store.CreateProfile(ctx, p))

	for i := 0; i < 4; i++ {
		got, err := store.GetProfile(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	}
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())
	assert.Equal(t, 2, cache.gets, "reads stop reaching the cache once the breaker opens")
}

func TestGuardedCache_MissIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	breaker := NewCacheBreaker(nil, circuitbreaker.WithFailureThreshold(1))
	guarded := newGuardedCache(newFakeCache(), breaker)

	var dest mentorship.Profile
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, guarded.Get(ctx, "missing", &dest), ErrCacheMiss)
	}
	assert.Equal(t, circuitbreaker.StateClosed, breaker.State())
}

func TestGuardedCache_DeleteBypassesOpenBreaker(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.data["k"] = []byte(`{}`)
	cache.fail = errors.New("timeout")

	breaker := NewCacheBreaker(nil, circuitbreaker.WithFailureThreshold(1))
	guarded := newGuardedCache(cache, breaker)

	var dest map[string]interface{}
	_ = guarded.Get(ctx, "k", &dest)
	require.Equal(t, circuitbreaker.StateOpen, breaker.State())

	require.NoError(t, guarded.Delete(ctx, "k"))
	assert.NotContains(t, cache.data, "k")
}
