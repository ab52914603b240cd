package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"solar-checker/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Zip  string `json:"zip"`
	City string `json:"city"`
}

func setupRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisClient_JSONRoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetJSON(ctx, "ref:location:90210", cachedThing{Zip: "90210", City: "Beverly Hills"}, time.Minute))

	var got cachedThing
	require.NoError(t, client.GetJSON(ctx, "ref:location:90210", &got))
	assert.Equal(t, "Beverly Hills", got.City)

	mr.FastForward(2 * time.Minute)
	err := client.GetJSON(ctx, "ref:location:90210", &got)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestRedisClient_GetJSON_Corrupt(t *testing.T) {
	client, mr := setupRedis(t)
	require.NoError(t, mr.Set("ref:location:10001", "not-json"))

	var got cachedThing
	err := client.GetJSON(context.Background(), "ref:location:10001", &got)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}
