package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"feedhook/app/feed"
)

var _ Store = (*RedisStore)(nil)

// RedisStore implements Store on a Redis instance. Item expiry uses Redis
// key TTLs, so PurgeExpired is a no-op.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) CheckExisting(ctx context.Context, hashes []string) ([]string, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, hashes...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check existing hashes: %w", err)
	}

	existing := make([]string, 0, len(hashes))
	for i, value := range values {
		if value != nil {
			existing = append(existing, hashes[i])
		}
	}
	return existing, nil
}

func (s *RedisStore) StoreItem(ctx context.Context, item feed.Item) error {
	data, err := json.Marshal(SeenRecord{
		Title: item.Title,
		Link:  item.Link,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal seen record for %s: %w", item.LinkHash, err)
	}

	if err := s.client.Set(ctx, item.LinkHash, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store item %s: %w", item.LinkHash, err)
	}
	return nil
}

func (s *RedisStore) GetMetrics(ctx context.Context, target string) (*Metrics, error) {
	data, err := s.client.Get(ctx, metricsKey(target)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics for %s: %w", target, err)
	}

	var m Metrics
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics for %s: %w", target, err)
	}
	return &m, nil
}

func (s *RedisStore) UpdateMetrics(ctx context.Context, target string, m Metrics) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics for %s: %w", target, err)
	}

	if err := s.client.Set(ctx, metricsKey(target), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update metrics for %s: %w", target, err)
	}
	return nil
}

func (s *RedisStore) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func metricsKey(target string) string {
	return "metrics:" + target
}
