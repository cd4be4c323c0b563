package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/mau/internal/game"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the historian drains.
const DefaultQueueName = "mau_actions"

// Journal records game events for the historian.
type Journal interface {
	Publish(ctx context.Context, ev game.GameEvent) error
}

// RedisJournal serializes events to JSON and pushes them to a Redis list.
type RedisJournal struct {
	rdb   *redis.Client
	queue string
}

func NewRedisJournal(rdb *redis.Client, queue string) *RedisJournal {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &RedisJournal{rdb: rdb, queue: queue}
}

// Publish does not block the caller beyond a quick network send.
func (j *RedisJournal) Publish(ctx context.Context, ev game.GameEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal game event: %w", err)
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", j.queue, err)
	}
	return nil
}

// NopJournal drops every event.
type NopJournal struct{}

func (NopJournal) Publish(context.Context, game.GameEvent) error { return nil }
