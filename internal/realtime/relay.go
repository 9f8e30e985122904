package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	relayChannelPrefix  = "list:"
	relayChannelSuffix  = ":events"
	relayChannelPattern = relayChannelPrefix + "*" + relayChannelSuffix
)

// pubSubClient is the part of *redis.Client the relay needs.
type pubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub
}

// RedisRelay fans events out across server instances. Publish sends the
// encoded event to redis; Run receives every list channel and hands payloads
// to the local broadcaster, so each instance delivers to its own subscribers.
type RedisRelay struct {
	client      pubSubClient
	broadcaster *Broadcaster
	logger      *slog.Logger
}

func NewRedisRelay(client pubSubClient, broadcaster *Broadcaster, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay{client: client, broadcaster: broadcaster, logger: logger}
}

func relayChannel(listID uint) string {
	return relayChannelPrefix + strconv.FormatUint(uint64(listID), 10) + relayChannelSuffix
}

func parseRelayChannel(channel string) (uint, error) {
	if !strings.HasPrefix(channel, relayChannelPrefix) || !strings.HasSuffix(channel, relayChannelSuffix) {
		return 0, fmt.Errorf("unexpected relay channel %q", channel)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(channel, relayChannelPrefix), relayChannelSuffix)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid list id in relay channel %q", channel)
	}
	return uint(id), nil
}

func (r *RedisRelay) Publish(ctx context.Context, listID uint, event Event) error {
	if event == nil {
		return fmt.Errorf("nil event for list %d", listID)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.EventType(), err)
	}
	if err := r.client.Publish(ctx, relayChannel(listID), payload).Err(); err != nil {
		return fmt.Errorf("failed to relay %s event for list %d: %w", event.EventType(), listID, err)
	}
	return nil
}

// Run subscribes to every list channel and blocks until ctx is cancelled or
// the subscription is closed.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, relayChannelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", relayChannelPattern, err)
	}
	r.logger.Info("Redis relay subscribed", "pattern", relayChannelPattern)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.deliver(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) deliver(channel string, payload []byte) {
	listID, err := parseRelayChannel(channel)
	if err != nil {
		r.logger.Warn("Dropping relay message", "channel", channel, "error", err)
		return
	}
	if err := ValidatePayload(payload); err != nil {
		r.logger.Warn("Dropping relay message", "channel", channel, "error", err)
		return
	}
	r.broadcaster.BroadcastPayload(listID, payload)
}

// Supervise runs the relay until ctx is cancelled, restarting it after a
// failure. The restart delay doubles up to maxDelay and resets once a run has
// lasted longer than maxDelay.
func (r *RedisRelay) Supervise(ctx context.Context, delay, maxDelay time.Duration) error {
	return supervise(ctx, r.Run, delay, maxDelay, r.logger)
}

func supervise(ctx context.Context, run func(context.Context) error, delay, maxDelay time.Duration, logger *slog.Logger) error {
	wait := delay
	for {
		started := time.Now()
		err := run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > maxDelay {
			wait = delay
		}
		logger.Warn("Redis relay stopped, restarting", "error", err, "delay", wait)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait = min(wait*2, maxDelay)
	}
}
