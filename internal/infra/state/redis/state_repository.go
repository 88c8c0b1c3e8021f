// Package redisstate implements repository.StateRepository on Redis.
package redisstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"drawroom/internal/domain"
)

// historyWindow is how many recent chat messages a room keeps in cache for
// replay to late joiners.
const historyWindow = 50

// RedisStateRepository is the Redis implementation of
// repository.StateRepository.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "dr:"
	}
	return &RedisStateRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStateRepository) roomHistoryKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:history", r.keyPrefix, roomID)
}

// PushMessageToHistory appends the message to the room's recent-history list
// and trims the list to the replay window. RPUSH+LTRIM run in one pipeline.
func (r *RedisStateRepository) PushMessageToHistory(ctx context.Context, roomID uint, msg domain.Message) error {
	key := r.roomHistoryKey(roomID)
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis: marshal message %d for history: %w", msg.ID, err)
	}
	pipe := r.client.Pipeline()
	pipe.RPush(ctx, key, string(msgBytes))
	pipe.LTrim(ctx, key, -historyWindow, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: push message to history for room %d on key %s: %w", roomID, key, err)
	}
	return nil
}

// GetRecentMessages returns cached history oldest first. Entries that fail to
// unmarshal are skipped with a warning rather than poisoning the replay.
func (r *RedisStateRepository) GetRecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > historyWindow {
		limit = historyWindow
	}
	key := r.roomHistoryKey(roomID)
	entries, err := r.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get recent messages for room %d from %s: %w", roomID, key, err)
	}
	messages := make([]domain.Message, 0, len(entries))
	for _, entry := range entries {
		var msg domain.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			logrus.WithError(err).Warnf("redis: dropping unreadable history entry for room %d", roomID)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *RedisStateRepository) ClearHistory(ctx context.Context, roomID uint) error {
	key := r.roomHistoryKey(roomID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: clear history for room %d on key %s: %w", roomID, key, err)
	}
	return nil
}

// CheckRateLimit increments the counter for key and reports whether the
// budget for the window is exceeded. INCR and EXPIRE go through one pipeline
// to keep the race window small.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", key, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", key, err)
	}
	return count > int64(limit), nil
}
