package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/firewatch/incident-service/internal/domain"
)

// RedisStore persists one context group's credential as a Redis hash, the
// shared store that sibling browsing contexts observe across processes.
type RedisStore struct {
	client    redis.UniversalClient
	key       string
	channel   RevocationChannel
	contextID string
}

// NewRedisStore binds a Redis-backed store view for one browsing context.
// key addresses the persisted hash shared by the context group; channel may
// be nil when revocation signalling is handled elsewhere.
func NewRedisStore(client redis.UniversalClient, key string, channel RevocationChannel, contextID string) *RedisStore {
	return &RedisStore{client: client, key: key, channel: channel, contextID: contextID}
}

// Read loads the persisted fields, failing closed on partial or malformed
// state.
func (s *RedisStore) Read(ctx context.Context) (domain.Credential, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Credential{}, false, nil
		}
		return domain.Credential{}, false, fmt.Errorf("read credential: %w", err)
	}

	cred, ok := decodeCredential(fields)
	return cred, ok, nil
}

// Write sets all three fields as a unit.
func (s *RedisStore) Write(ctx context.Context, cred domain.Credential) error {
	err := s.client.HSet(ctx, s.key,
		FieldToken, cred.Token,
		FieldRole, string(cred.Role),
		FieldLoginTime, encodeLoginTime(cred.IssuedAt),
	).Err()
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Clear removes the persisted fields and, when a token was actually
// removed, signals sibling contexts. Concurrent clears are harmless; only
// the one that observed the token publishes.
func (s *RedisStore) Clear(ctx context.Context) error {
	hadToken, err := s.client.HExists(ctx, s.key, FieldToken).Result()
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}

	if hadToken && s.channel != nil {
		return s.channel.Publish(ctx, s.contextID)
	}
	return nil
}
