package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps the session record under a single Redis key whose TTL
// follows the token expiry.
type RedisStore struct {
	client  *redis.Client
	key     string
	nowTime func() time.Time
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     key,
		nowTime: time.Now,
	}
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return fmt.Errorf("session: missing session")
	}

	ttl := s.ExpiresAt().Sub(r.nowTime())
	if ttl <= 0 {
		// An expired session is never worth storing
		return r.Clear(ctx)
	}

	data, err := NewRecord(s).Marshal()
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	return r.client.Set(ctx, r.key, data, ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context) *Record {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("Unable to read stored session from redis")
		return nil
	}

	rec, err := ParseRecord(val)
	if err != nil {
		log.Warn().Err(err).Str("key", r.key).Msg("Ignoring unreadable stored session")
		return nil
	}
	return rec
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
