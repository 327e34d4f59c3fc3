package typing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T, ttl time.Duration) (*RedisTracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisTracker(rdb, ttl), mr
}

func TestSetTypingIsVisibleToOthers(t *testing.T) {
	tracker, _ := newTracker(t, 5*time.Second)
	ctx := context.Background()

	require.NoError(t, tracker.SetTyping(ctx, 1, 2, true))

	typing, err := tracker.TypingUsers(ctx, 1, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, typing)
}

func TestTypingExpiresWithoutRefresh(t *testing.T) {
	tracker, mr := newTracker(t, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, tracker.SetTyping(ctx, 1, 2, true))
	mr.FastForward(4 * time.Second)

	typing, err := tracker.TypingUsers(ctx, 1, []int{2})
	require.NoError(t, err)
	assert.Empty(t, typing)
}

func TestSetTypingFalseClears(t *testing.T) {
	tracker, mr := newTracker(t, 5*time.Second)
	ctx := context.Background()

	require.NoError(t, tracker.SetTyping(ctx, 1, 2, true))
	require.NoError(t, tracker.SetTyping(ctx, 1, 2, false))

	assert.False(t, mr.Exists("typing:1:2"))
	typing, err := tracker.TypingUsers(ctx, 1, []int{2})
	require.NoError(t, err)
	assert.Empty(t, typing)
}

func TestTypingScopedPerChat(t *testing.T) {
	tracker, _ := newTracker(t, 5*time.Second)
	ctx := context.Background()

	require.NoError(t, tracker.SetTyping(ctx, 1, 2, true))

	typing, err := tracker.TypingUsers(ctx, 9, []int{2})
	require.NoError(t, err)
	assert.Empty(t, typing)
}

func TestTypingUsersNoCandidates(t *testing.T) {
	tracker, _ := newTracker(t, 5*time.Second)

	typing, err := tracker.TypingUsers(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, typing)
}
