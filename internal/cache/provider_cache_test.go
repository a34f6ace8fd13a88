package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type card struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

func setupTestCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *ProviderCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewProviderCache(NewRedisKVStore(client), ttl)
}

func TestProviderCache_SetGetInvalidate(t *testing.T) {
	mr, c := setupTestCache(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	var got card
	hit, err := c.GetProvider(ctx, id, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetProvider(ctx, id, card{Name: "Ana", Rating: 4.5}))
	assert.True(t, mr.Exists(providerKey(id)))

	hit, err = c.GetProvider(ctx, id, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, card{Name: "Ana", Rating: 4.5}, got)

	require.NoError(t, c.InvalidateProvider(ctx, id))
	hit, err = c.GetProvider(ctx, id, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestProviderCache_TTL(t *testing.T) {
	mr, c := setupTestCache(t, 30*time.Second)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, c.SetProvider(ctx, id, card{Name: "Ana"}))
	assert.Equal(t, 30*time.Second, mr.TTL(providerKey(id)))

	mr.FastForward(31 * time.Second)
	var got card
	hit, err := c.GetProvider(ctx, id, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestProviderCache_CorruptedEntry(t *testing.T) {
	mr, c := setupTestCache(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, mr.Set(providerKey(id), "{not json"))

	var got card
	hit, err := c.GetProvider(ctx, id, &got)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists(providerKey(id)))
}

func TestProviderCache_RedisDown(t *testing.T) {
	mr, c := setupTestCache(t, time.Minute)
	mr.Close()

	var got card
	_, err := c.GetProvider(context.Background(), uuid.New(), &got)
	assert.Error(t, err)
}
