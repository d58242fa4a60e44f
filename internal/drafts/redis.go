package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "portal:draft:"

// RedisStore keeps each draft as a hash of top-level keys; expiry is left to Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a draft store from a redis:// URL
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}, nil
}

func (s *RedisStore) Name() string { return "redis" }

// Close releases the Redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func key(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Draft, error) {
	k := key(sessionID)

	pipe := s.client.Pipeline()
	fieldsCmd := pipe.HGetAll(ctx, k)
	ttlCmd := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	fields := fieldsCmd.Val()
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return s.toDraft(sessionID, fields, ttlCmd.Val())
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, data map[string]json.RawMessage) (*Draft, error) {
	k := key(sessionID)
	values := flatten(data)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(values) > 0 {
			pipe.HSet(ctx, k, values)
		} else {
			// keep an empty draft addressable
			pipe.HSet(ctx, k, metaField, "1")
		}
		pipe.PExpire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisStore) Merge(ctx context.Context, sessionID string, patch map[string]json.RawMessage) (*Draft, error) {
	k := key(sessionID)
	values := flatten(patch)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, k, values)
		} else {
			pipe.HSet(ctx, k, metaField, "1")
		}
		pipe.PExpire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge draft: %w", err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, key(sessionID)).Err()
}

// Purge is a no-op; keys carry their own TTL
func (s *RedisStore) Purge(ctx context.Context) (int64, error) {
	return 0, nil
}

// metaField marks a draft with no keys; it never appears in Data
const metaField = "__draft"

func flatten(data map[string]json.RawMessage) map[string]any {
	values := make(map[string]any, len(data))
	for k, v := range data {
		if k == metaField {
			continue
		}
		values[k] = string(v)
	}
	return values
}

func (s *RedisStore) toDraft(sessionID string, fields map[string]string, ttl time.Duration) (*Draft, error) {
	data := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if k == metaField {
			continue
		}
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("corrupt draft %s field %q", sessionID, k)
		}
		data[k] = json.RawMessage(v)
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d := &Draft{SessionID: sessionID, Data: encoded, UpdatedAt: now}
	if ttl > 0 {
		d.ExpiresAt = now.Add(ttl)
		d.UpdatedAt = d.ExpiresAt.Add(-s.ttl)
	}
	return d, nil
}

