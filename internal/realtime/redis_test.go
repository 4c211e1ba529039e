package realtime

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/msomdec/postfeed/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relayedEvent(id string) domain.PostEvent {
	return domain.PostEvent{
		Action: domain.PostUpdated,
		Post: domain.FeedPost{
			Post:    domain.Post{ID: id, Title: "Relayed", CreatorID: "u1"},
			Creator: domain.UserSummary{ID: "u1", Name: "Ann"},
		},
	}
}

func TestRedisRelay_DeliverSkipsOwnEvents(t *testing.T) {
	hub := NewHub(4)
	sub := hub.Subscribe()
	defer sub.Close()
	relay := NewRedisRelay(nil, "", hub)

	own, err := json.Marshal(relayEnvelope{Origin: relay.origin, Event: relayedEvent("mine")})
	require.NoError(t, err)
	other, err := json.Marshal(relayEnvelope{Origin: "another-instance", Event: relayedEvent("theirs")})
	require.NoError(t, err)

	relay.deliver(context.Background(), string(own))
	relay.deliver(context.Background(), "not json")
	relay.deliver(context.Background(), string(other))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "theirs", ev.Post.ID)
		assert.Equal(t, domain.PostUpdated, ev.Action)
		assert.Equal(t, "Ann", ev.Post.Creator.Name)
	case <-time.After(time.Second):
		t.Fatal("expected relayed event")
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

// TestRedisRelay_AcrossInstances requires a live Redis at REDIS_TEST_URL.
func TestRedisRelay_AcrossInstances(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	channel := "postfeed:test:" + time.Now().Format("150405.000000")

	hubA, hubB := NewHub(4), NewHub(4)
	relayA := NewRedisRelay(client, channel, hubA)
	relayB := NewRedisRelay(client, channel, hubB)
	go relayB.Run(ctx)

	subB := hubB.Subscribe()
	defer subB.Close()

	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, channel).Result()
		return err == nil && n[channel] > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, relayA.Publish(ctx, relayedEvent("x1")))

	select {
	case ev := <-subB.Events():
		assert.Equal(t, "x1", ev.Post.ID)
	case <-ctx.Done():
		t.Fatal("event not relayed")
	}
}
