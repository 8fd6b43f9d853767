// Package redisstore provides a Redis-backed authority store. Authorities
// are kept as Redis sets, one key per identity, so grants can be edited with
// plain SADD/SREM from any operational tooling.
package redisstore

import (
	"context"
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/authstore"
)

// Config for a Redis-backed Store. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all authority keys. ENV: AUTHORITIES_KEY_PREFIX
	KeyPrefix string `env:"AUTHORITIES_KEY_PREFIX,default=claimauth:authorities:"`

	// Client, when non-nil, is used instead of dialing RedisAddr. Useful for
	// sharing a client or injecting a test instance.
	Client *redis.Client
}

// Store implements authstore.Store over Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// New builds a Store from the given config and verifies connectivity with a
// ping.
func New(cfg Config) (*Store, error) {
	client := cfg.Client
	if client == nil {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "claimauth:authorities:"
	}
	return &Store{client: client, keyPrefix: prefix}, nil
}

// NewFromEnv builds a Store using envdecode to populate Config.
func NewFromEnv() (*Store, error) {
	var cfg Config
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Close closes the Redis client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) key(identity string) string { return s.keyPrefix + identity }

// Lookup implements authstore.Store. SMEMBERS on a missing key returns an
// empty set, which maps exactly onto the "unknown identity" contract; only
// transport-level failures surface as ErrUnavailable.
func (s *Store) Lookup(ctx context.Context, identity string) (authority.Set, error) {
	members, err := s.client.SMembers(ctx, s.key(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authstore.ErrUnavailable, err)
	}
	return authority.NewSet(members...), nil
}

// Grant adds authorities to an identity. Granting none is a no-op.
func (s *Store) Grant(ctx context.Context, identity string, authorities ...string) error {
	if len(authorities) == 0 {
		return nil
	}
	members := make([]interface{}, len(authorities))
	for i, a := range authorities {
		members[i] = a
	}
	if err := s.client.SAdd(ctx, s.key(identity), members...).Err(); err != nil {
		return fmt.Errorf("%w: %v", authstore.ErrUnavailable, err)
	}
	return nil
}

// Revoke removes authorities from an identity. Revoking none is a no-op.
func (s *Store) Revoke(ctx context.Context, identity string, authorities ...string) error {
	if len(authorities) == 0 {
		return nil
	}
	members := make([]interface{}, len(authorities))
	for i, a := range authorities {
		members[i] = a
	}
	if err := s.client.SRem(ctx, s.key(identity), members...).Err(); err != nil {
		return fmt.Errorf("%w: %v", authstore.ErrUnavailable, err)
	}
	return nil
}

var _ authstore.Store = (*Store)(nil)
