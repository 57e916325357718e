package session

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisChannel carries token-removal notifications between browsing
// contexts in different processes via Redis pub/sub. The message payload
// is the origin context ID, used only so the origin can skip itself.
type RedisChannel struct {
	client redis.UniversalClient
	name   string
}

// NewRedisChannel creates a revocation channel on the named pub/sub topic.
// One topic serves one persisted store (one context group).
func NewRedisChannel(client redis.UniversalClient, name string) *RedisChannel {
	return &RedisChannel{client: client, name: name}
}

// Subscribe delivers removals published by other contexts to fn until the
// returned cancel func is called.
func (c *RedisChannel) Subscribe(contextID string, fn RevocationListener) (func(), error) {
	pubsub := c.client.Subscribe(context.Background(), c.name)
	// Force the subscription to be established before returning so a
	// removal racing the mount is not silently dropped.
	if _, err := pubsub.Receive(context.Background()); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			if msg.Payload == contextID {
				continue
			}
			fn()
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = pubsub.Close()
			<-done
		})
	}
	return cancel, nil
}

// Publish broadcasts a token removal originating from the given context.
func (c *RedisChannel) Publish(ctx context.Context, originContextID string) error {
	return c.client.Publish(ctx, c.name, originContextID).Err()
}
