// Package redisstore implements idempotency.Store on Redis 7 or later.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MinTTL is the shortest record lifetime accepted by New. Combo may
	// redeliver a GM command for up to a day.
	MinTTL = 24 * time.Hour

	DefaultPrefix = "combo:idempotency:"
)

type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithPrefix namespaces keys when the database is shared.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL sets the record lifetime. Values below MinTTL are raised to it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix, ttl: MinTTL}
	for _, opt := range opts {
		opt(s)
	}
	s.ttl = max(s.ttl, MinTTL)
	return s
}

// SetIfAbsent uses SET NX GET so the check and the write are one command.
func (s *Store) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	prev, err := s.client.SetArgs(ctx, s.prefix+key, value, redis.SetArgs{
		Mode: "NX",
		TTL:  s.ttl,
		Get:  true,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("redis set nx %s: %w", key, err)
	}
	return prev, nil
}

// SetIfPresent keeps the remaining lifetime of the key.
func (s *Store) SetIfPresent(ctx context.Context, key, value string) error {
	err := s.client.SetArgs(ctx, s.prefix+key, value, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis set xx %s: %w", key, err)
	}
	return nil
}
