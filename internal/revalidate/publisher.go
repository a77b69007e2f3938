// Package revalidate tells downstream page caches which content changed.
package revalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix prefixes the per-tag counters bumped on every publish.
const KeyPrefix = "revalidate:tag:"

// Publisher emits cache tags after a successful mutation.
type Publisher interface {
	Publish(ctx context.Context, tags ...string) error
}

// Noop discards every tag. It is used when no cache backend is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, ...string) error { return nil }

// Message is the JSON payload published on the revalidation channel.
type Message struct {
	Tags []string  `json:"tags"`
	At   time.Time `json:"at"`
}

// RedisPublisher bumps a counter per tag and announces the tags on a pub/sub
// channel, both in one MULTI/EXEC round trip. Consumers either subscribe or
// compare counters they saw at render time.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	now     func() time.Time
}

// NewRedisPublisher creates a RedisPublisher publishing on channel.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, now: time.Now}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}

	payload, err := json.Marshal(Message{Tags: tags, At: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode revalidate message: %w", err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tag := range tags {
			pipe.Incr(ctx, KeyPrefix+tag)
		}
		pipe.Publish(ctx, p.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish revalidate tags: %w", err)
	}
	return nil
}

// Tags returns the cache tags for a mutation of one resource item.
func Tags(resource, id string) []string {
	return []string{resource, resource + ":" + id}
}
