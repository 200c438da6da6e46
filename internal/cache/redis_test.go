package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/donation_cart/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func testAppeal(id string) *domain.Appeal {
	return &domain.Appeal{
		ID:        id,
		Title:     "Appeal " + id,
		Category:  "Education",
		Goal:      1000,
		Raised:    250,
		Urgency:   domain.UrgencyMedium,
		CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetAppeal_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	data, err := json.Marshal(testAppeal("1"))
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey("1"), string(data)))

	got, err := cache.GetAppeal(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Appeal 1", got.Title)
	assert.Equal(t, domain.UrgencyMedium, got.Urgency)
}

func TestGetAppeal_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	got, err := cache.GetAppeal(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGetAppeal_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(cacheKey("1"), `{"id":`))

	_, err := cache.GetAppeal(context.Background(), "1")
	require.ErrorContains(t, err, "unmarshal appeal failed")
}

func TestSetAppeal_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.SetAppeal(context.Background(), testAppeal("7")))

	stored, err := mr.Get(cacheKey("7"))
	require.NoError(t, err)
	var a domain.Appeal
	require.NoError(t, json.Unmarshal([]byte(stored), &a))
	assert.Equal(t, "7", a.ID)

	ttl := mr.TTL(cacheKey("7"))
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl < 20*time.Minute, "TTL should be base + max jitter")
}

func TestAppealsList_RoundTrip(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	_, err := cache.GetAppeals(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.SetAppeals(ctx, []*domain.Appeal{testAppeal("1"), testAppeal("2")}))

	got, err := cache.GetAppeals(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[1].ID)
}

func TestDelete_RemovesAppealAndList(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.SetAppeal(ctx, testAppeal("1")))
	require.NoError(t, cache.SetAppeals(ctx, []*domain.Appeal{testAppeal("1")}))

	require.NoError(t, cache.Delete(ctx, "1"))

	assert.False(t, mr.Exists(cacheKey("1")))
	assert.False(t, mr.Exists(listKey))
	assert.NoError(t, cache.Delete(ctx, "1"))
}

func TestCacheMisses_DoNotTripBreaker(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	for i := 0; i < 10; i++ {
		_, err := cache.GetAppeal(context.Background(), "missing")
		require.ErrorIs(t, err, ErrCacheMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, cache.breaker.State())
}

func TestRedisDown_TripsBreaker(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()
	for i := 0; i < 5; i++ {
		_, err := cache.GetAppeal(context.Background(), "1")
		require.Error(t, err)
	}

	_, err := cache.GetAppeal(context.Background(), "1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "appeal:test123", cacheKey("test123"))
}
