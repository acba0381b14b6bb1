package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// redisStore implements Store using Redis. It is the durable backend:
// snapshots survive process restarts and may be shared across instances.
type redisStore struct {
	client redis.Cmdable // Cmdable for compatibility with ClusterClient, SentinelClient, etc.
	ttl    time.Duration // 0 means no expiry
}

// NewRedisStore creates a durable snapshot store backed by Redis.
// It expects a pre-configured redis.Cmdable (e.g., redis.Client or
// redis.ClusterClient). A non-zero ttl expires abandoned carts.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) Store {
	return &redisStore{
		client: client,
		ttl:    ttl,
	}
}

// storeKey namespaces cart snapshot keys in Redis.
func storeKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}

// Load implements the Store interface for Redis storage.
func (s *redisStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, storeKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // no snapshot stored under this key
		}
		log.Error().Err(err).Str("key", key).Msg("redis cart load failed")
		return nil, fmt.Errorf("redis get failed for key %s: %w", key, err)
	}
	return DecodeSnapshot(data)
}

// Save implements the Store interface for Redis storage.
func (s *redisStore) Save(ctx context.Context, key string, snap *Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, storeKey(key), data, s.ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("redis cart save failed")
		return fmt.Errorf("redis set failed for key %s: %w", key, err)
	}
	return nil
}

// Clear implements the Store interface for Redis storage.
func (s *redisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, storeKey(key)).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("redis cart clear failed")
		return fmt.Errorf("redis del failed for key %s: %w", key, err)
	}
	return nil
}
