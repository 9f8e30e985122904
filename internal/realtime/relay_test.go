package realtime

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakePubSub struct {
	channel string
	message []byte
	err     error
}

func (f *fakePubSub) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func (f *fakePubSub) PSubscribe(context.Context, ...string) *redis.PubSub {
	return nil
}

func TestRelayChannelRoundTrip(t *testing.T) {
	name := relayChannel(42)
	if name != "list:42:events" {
		t.Errorf("Expected list:42:events, got %s", name)
	}
	id, err := parseRelayChannel(name)
	if err != nil || id != 42 {
		t.Errorf("Expected 42, got %d (%v)", id, err)
	}

	for _, bad := range []string{"list::events", "list:x:events", "list:0:events", "chan:1:events", "list:1"} {
		if _, err := parseRelayChannel(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestRelayPublish(t *testing.T) {
	client := &fakePubSub{}
	relay := NewRedisRelay(client, NewBroadcaster(NewRegistry(), nil), nil)

	if err := relay.Publish(context.Background(), 3, NewItemDeleted(1, "Tea")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if client.channel != "list:3:events" {
		t.Errorf("Expected list:3:events, got %s", client.channel)
	}
	if err := ValidatePayload(client.message); err != nil {
		t.Errorf("Published payload invalid: %v", err)
	}

	client.err = errors.New("redis down")
	if err := relay.Publish(context.Background(), 3, NewItemDeleted(1, "Tea")); err == nil {
		t.Error("Expected publish error to surface")
	}
}

// Test that relayed payloads reach local channels and junk is dropped
func TestRelayDeliver(t *testing.T) {
	r := NewRegistry()
	ch := newMockChannel("local")
	r.Register(5, ch)
	relay := NewRedisRelay(&fakePubSub{}, NewBroadcaster(r, nil), nil)

	relay.deliver("list:5:events", []byte(`{"type":"item_deleted","itemId":1,"itemName":"Tea"}`))
	relay.deliver("list:5:events", []byte(`not json`))
	relay.deliver("garbage", []byte(`{"type":"item_deleted"}`))

	frames := ch.getFrames()
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}
	if frames[0] != `{"type":"item_deleted","itemId":1,"itemName":"Tea"}` {
		t.Errorf("Unexpected frame %s", frames[0])
	}
}

// Test that the supervisor restarts a failing relay until cancelled
func TestSuperviseRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0
	run := func(context.Context) error {
		runs++
		if runs == 3 {
			cancel()
			return nil
		}
		return errors.New("connection reset")
	}

	done := make(chan error, 1)
	go func() { done <- supervise(ctx, run, time.Millisecond, 4*time.Millisecond, slog.Default()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil after cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Supervisor did not stop")
	}
	if runs != 3 {
		t.Errorf("Expected 3 runs, got %d", runs)
	}
}
