package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/msomdec/postfeed/internal/domain"
)

// DefaultRedisChannel is the pub/sub channel shared by all instances.
const DefaultRedisChannel = "postfeed:posts"

// RedisRelay publishes events to the local hub and to a Redis channel, and
// forwards events published by other instances to the local hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	origin  string
}

var _ domain.Notifier = (*RedisRelay)(nil)

type relayEnvelope struct {
	Origin string           `json:"origin"`
	Event  domain.PostEvent `json:"event"`
}

// NewRedisRelay creates a relay for hub over client.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		hub:     hub,
		origin:  uuid.NewString(),
	}
}

// Publish delivers ev locally, then to the other instances.
func (r *RedisRelay) Publish(ctx context.Context, ev domain.PostEvent) error {
	if err := r.hub.Publish(ctx, ev); err != nil {
		return err
	}

	payload, err := json.Marshal(relayEnvelope{Origin: r.origin, Event: ev})
	if err != nil {
		return fmt.Errorf("marshal post event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish post event: %w", err)
	}
	return nil
}

// Run forwards events from other instances to the local hub until ctx is
// cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	slog.Info("redis relay subscribed", "channel", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		slog.Warn("decode relayed post event", "error", err)
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.hub.Publish(ctx, env.Event)
}
