package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "alfred:cache:"

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a Redis-backed Store.
type RedisOption func(*redisStore)

// WithRedisPrefix sets the key prefix under which entries are stored.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *redisStore) { s.prefix = prefix }
}

// WithRedisTTL sets the expiration applied to saved entries. Zero keeps
// entries until deleted.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *redisStore) { s.ttl = ttl }
}

// NewRedisStore creates a Store backed by an existing Redis client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) Store {
	s := &redisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *redisStore) key(k string) string {
	return s.prefix + k
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	return keys, nil
}

func (s *redisStore) Load(ctx context.Context, keys ...string) ([]Entry, error) {
	entries := make([]Entry, 0, len(keys))

	for _, key := range keys {
		val, err := s.client.Get(ctx, s.key(key)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
		}
		entries = append(entries, Entry{Key: key, Value: val})
	}

	return entries, nil
}

func (s *redisStore) Save(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, e := range entries {
		if e.Key == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidKey)
		}
		pipe.Set(ctx, s.key(e.Key), e.Value, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}
