package typing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker stores short-lived "is typing" flags per chat member.
type Tracker interface {
	SetTyping(ctx context.Context, chatID int, userID int, isTyping bool) error
	TypingUsers(ctx context.Context, chatID int, candidates []int) ([]int, error)
}

// RedisTracker keeps one expiring key per (chat, user). Redis enforces the TTL,
// so a writer that never clears its flag still reads back as idle.
type RedisTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTracker builds a tracker whose flags expire after ttl.
func NewRedisTracker(rdb *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{rdb: rdb, ttl: ttl}
}

func typingKey(chatID, userID int) string {
	return fmt.Sprintf("typing:%d:%d", chatID, userID)
}

// SetTyping refreshes or clears the caller's flag. Last write wins.
func (t *RedisTracker) SetTyping(ctx context.Context, chatID int, userID int, isTyping bool) error {
	key := typingKey(chatID, userID)
	if !isTyping {
		return t.rdb.Del(ctx, key).Err()
	}
	return t.rdb.Set(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), t.ttl).Err()
}

// TypingUsers returns the candidates whose flag is still live, in candidate order.
func (t *RedisTracker) TypingUsers(ctx context.Context, chatID int, candidates []int) ([]int, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(candidates))
	for _, id := range candidates {
		keys = append(keys, typingKey(chatID, id))
	}

	values, err := t.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	typing := make([]int, 0, len(values))
	for i, v := range values {
		if v != nil {
			typing = append(typing, candidates[i])
		}
	}
	return typing, nil
}

// Ping checks the redis connection.
func (t *RedisTracker) Ping(ctx context.Context) error {
	return t.rdb.Ping(ctx).Err()
}
