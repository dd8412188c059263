// internal/storage/redis.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the production Store binding. Map entries live under
// "<prefix>:<map>:<key>" string values; each ordered index is a Redis
// list under "<prefix>:<map>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "subpay"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) entryKey(m, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, m, key)
}

func (s *RedisStore) indexKey(m string) string {
	return fmt.Sprintf("%s:%s", s.prefix, m)
}

func (s *RedisStore) Get(ctx context.Context, m, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.entryKey(m, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s/%s: %w", m, key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, m, key string, value []byte) error {
	if err := s.client.Set(ctx, s.entryKey(m, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", m, key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, m, key string) error {
	if err := s.client.Del(ctx, s.entryKey(m, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s/%s: %w", m, key, err)
	}
	return nil
}

func (s *RedisStore) AppendIndex(ctx context.Context, m, id string) error {
	if err := s.client.RPush(ctx, s.indexKey(m), id).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", m, err)
	}
	return nil
}

func (s *RedisStore) ReadIndex(ctx context.Context, m string) ([]string, error) {
	ids, err := s.client.LRange(ctx, s.indexKey(m), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", m, err)
	}
	return ids, nil
}

// Footprint walks every key under the store prefix. It is a view-only
// diagnostic, so the SCAN cost is acceptable.
func (s *RedisStore) Footprint(ctx context.Context) (Footprint, error) {
	var fp Footprint
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		fp.Keys++
		size, err := s.client.MemoryUsage(ctx, iter.Val()).Result()
		if err == nil {
			fp.Bytes += size
		}
	}
	if err := iter.Err(); err != nil {
		return Footprint{}, fmt.Errorf("redis scan: %w", err)
	}
	return fp, nil
}
