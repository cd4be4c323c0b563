package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RuleStore keeps the enabled rule keys of each room.
type RuleStore interface {
	Get(ctx context.Context, roomID uuid.UUID) ([]string, error)
	// Set replaces the rule set of a room.
	Set(ctx context.Context, roomID uuid.UUID, keys []string) error
	Delete(ctx context.Context, roomID uuid.UUID) error
}

func rulesKey(roomID uuid.UUID) string {
	return "room:" + roomID.String() + ":rules"
}

// RedisRules stores rule keys in the list room:{id}:rules.
type RedisRules struct {
	rdb *redis.Client
}

func NewRedisRules(rdb *redis.Client) *RedisRules {
	return &RedisRules{rdb: rdb}
}

func (s *RedisRules) Get(ctx context.Context, roomID uuid.UUID) ([]string, error) {
	keys, err := s.rdb.LRange(ctx, rulesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rules of room %v: %w", roomID, err)
	}
	return keys, nil
}

func (s *RedisRules) Set(ctx context.Context, roomID uuid.UUID, keys []string) error {
	key := rulesKey(roomID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(keys) > 0 {
			values := make([]interface{}, len(keys))
			for i, k := range keys {
				values[i] = k
			}
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store rules of room %v: %w", roomID, err)
	}
	return nil
}

func (s *RedisRules) Delete(ctx context.Context, roomID uuid.UUID) error {
	return s.rdb.Del(ctx, rulesKey(roomID)).Err()
}

// MemoryRules is a process-local RuleStore used without Redis.
type MemoryRules struct {
	mu    sync.Mutex
	rules map[uuid.UUID][]string
}

func NewMemoryRules() *MemoryRules {
	return &MemoryRules{rules: make(map[uuid.UUID][]string)}
}

func (s *MemoryRules) Get(_ context.Context, roomID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.rules[roomID]...), nil
}

func (s *MemoryRules) Set(_ context.Context, roomID uuid.UUID, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[roomID] = append([]string{}, keys...)
	return nil
}

func (s *MemoryRules) Delete(_ context.Context, roomID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, roomID)
	return nil
}
