package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

type storeEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestRedisCache_SetGet(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	var got []storeEntry
	hit, err := c.Get(ctx, "catalog:stores", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	want := []storeEntry{{ID: 1, Name: "Mercado Bom Preço"}}
	require.NoError(t, c.Set(ctx, "catalog:stores", want))

	hit, err = c.Get(ctx, "catalog:stores", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)

	assert.Equal(t, time.Minute, mr.TTL("catalog:stores"))
}

func TestRedisCache_Expires(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedisCache(client, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "catalog:store:1", storeEntry{ID: 1}))
	mr.FastForward(31 * time.Second)

	var got storeEntry
	hit, err := c.Get(ctx, "catalog:store:1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedisCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "catalog:stores", []storeEntry{}))
	require.NoError(t, c.Set(ctx, "catalog:store:7", []storeEntry{}))

	require.NoError(t, c.Delete(ctx, "catalog:stores", "catalog:store:7"))
	assert.False(t, mr.Exists("catalog:stores"))
	assert.False(t, mr.Exists("catalog:store:7"))
	assert.NoError(t, c.Delete(ctx))
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedisCache(client, time.Minute)

	require.NoError(t, mr.Set("catalog:stores", "{not json"))

	var got []storeEntry
	hit, err := c.Get(context.Background(), "catalog:stores", &got)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedisCache(client, time.Minute)
	mr.Close()

	var got []storeEntry
	_, err := c.Get(context.Background(), "catalog:stores", &got)
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

func TestNopCache(t *testing.T) {
	var c NopCache
	var got []storeEntry
	hit, err := c.Get(context.Background(), "x", &got)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Set(context.Background(), "x", 1))
	assert.NoError(t, c.Delete(context.Background(), "x"))
}
