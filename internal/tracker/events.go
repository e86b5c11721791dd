package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event channels published over Redis pub/sub for SSE forwarding. Publishing
// is always best-effort: a failed publish is logged and never fails the
// operation that triggered it.
const (
	EventRecordSaved      = "EVENT_RECORD_SAVED"
	EventRecordSaveFailed = "EVENT_RECORD_SAVE_FAILED"
	EventRecordsRefreshed = "EVENT_RECORDS_REFRESHED"
)

// EventPublisher abstracts the pub/sub transport so the sync engine can run
// without Redis in tests.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher publishes events through a Redis client.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher wraps a Redis client as an EventPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// NewRedisPublisherFromURL connects and verifies a Redis client owned by the
// publisher. Publishing is fire-and-forget, so the dial timeout is kept
// short: a Redis outage should stall startup, not individual saves.
func NewRedisPublisherFromURL(ctx context.Context, redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisPublisher{rdb: rdb}, nil
}

// Publish sends payload on the named channel.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

// Close releases the publisher's Redis connection.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

// NopPublisher drops all events.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
