package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/redis/go-redis/v9"

	"gstdash/internal/cache"
)

// Store persists string values per session.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, bool, error)
	Set(ctx context.Context, sid, key, value string) error
	Delete(ctx context.Context, sid, key string) error
}

const memoryStoreSize = 10000

// MemoryStore keeps sessions in an LRU cache. Sessions are lost on restart.
type MemoryStore struct {
	values *cache.LRUCache[map[string]string]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{values: cache.NewLRUCache[map[string]string](memoryStoreSize, ttl)}
}

// Cache exposes the backing cache so it can be registered for cleanup.
func (s *MemoryStore) Cache() *cache.LRUCache[map[string]string] {
	return s.values
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	m, ok := s.values.Get(sid)
	if !ok {
		return "", false, nil
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	s.values.Update(sid, func(cur map[string]string, _ bool) (map[string]string, bool) {
		// Copy on write: readers may still hold the previous map.
		next := make(map[string]string, len(cur)+1)
		maps.Copy(next, cur)
		next[key] = value
		return next, true
	})
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid, key string) error {
	s.values.Update(sid, func(cur map[string]string, exists bool) (map[string]string, bool) {
		if !exists {
			return nil, false
		}
		next := make(map[string]string, len(cur))
		for k, v := range cur {
			if k != key {
				next[k] = v
			}
		}
		return next, len(next) > 0
	})
	return nil
}

// RedisStore keeps each session in a hash that expires ttl after its last
// write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "gstdash:session:"}
}

func (s *RedisStore) key(sid string) string { return s.prefix + sid }

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string) error {
	k := s.key(sid)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, key, value)
		if s.ttl > 0 {
			p.Expire(ctx, k, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sid, key string) error {
	if err := s.client.HDel(ctx, s.key(sid), key).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// Ping checks connectivity, for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
