package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobfeed/internal/model"
)

// RedisStore keeps the snapshots under three keys written in one MULTI/EXEC.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ model.StateStore = (*RedisStore)(nil)

// NewRedisStore parses redisURL and verifies connectivity.
func NewRedisStore(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if prefix == "" {
		prefix = "jobfeed"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(part string) string {
	return s.prefix + ":" + part
}

func (s *RedisStore) Load(ctx context.Context) (*model.Snapshot, error) {
	parts := make(map[string][]byte, len(partNames))
	for _, name := range partNames {
		data, err := s.client.Get(ctx, s.key(name)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s snapshot from redis: %w", name, err)
		}
		parts[name] = data
	}
	return decodeParts(parts)
}

func (s *RedisStore) Save(ctx context.Context, snap *model.Snapshot) error {
	parts, err := encodeParts(snap)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range partNames {
			pipe.Set(ctx, s.key(name), parts[name], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving snapshots to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
