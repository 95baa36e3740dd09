package triage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisSessions runs against a live server named by GARDEROBA_TEST_REDIS.
func TestRedisSessions(t *testing.T) {
	addr := os.Getenv("GARDEROBA_TEST_REDIS")
	if addr == "" {
		t.Skip("GARDEROBA_TEST_REDIS not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	const userID = 987654321
	sessions := NewRedisSessions(client, time.Minute)
	t.Cleanup(func() { sessions.Delete(ctx, userID) })

	got, err := sessions.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := NewSession()
	require.NoError(t, s.Begin(time.Now()))
	s.Receive(results("a", "b"), time.Now())
	require.NoError(t, s.Advance(time.Now()))
	require.NoError(t, sessions.Put(ctx, userID, s))

	got, err = sessions.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, StatePresenting, got.State)
	assert.Equal(t, 1, got.Cursor)
	assert.Equal(t, "b", got.Current().ItemID)

	ttl, err := client.TTL(ctx, sessionKey(userID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, sessions.Delete(ctx, userID))
	got, err = sessions.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
