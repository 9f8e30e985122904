package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"shoplist-service/internal/models"
)

// Broadcaster delivers events to every channel registered for a list.
// Delivery is best-effort: nothing is buffered for lists without channels and
// a channel that cannot accept a write is closed and pruned.
type Broadcaster struct {
	registry *Registry
	metrics  *Metrics
	logger   *slog.Logger
}

func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		registry: registry,
		metrics:  NewMetrics(DefaultSlowBroadcast, logger),
		logger:   logger,
	}
}

// Stats reports fan-out totals for the health endpoint.
func (b *Broadcaster) Stats() models.BroadcastStats {
	return b.metrics.Snapshot()
}

// Broadcast serializes event once and hands it to every channel of listID.
// It never blocks on a client and never reports delivery failures.
func (b *Broadcaster) Broadcast(listID uint, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "listID", listID, "type", event.EventType(), "error", err)
		return
	}
	b.BroadcastPayload(listID, payload)
}

// BroadcastPayload fans out an already serialized event. Used for payloads
// arriving through the redis relay or the internal HTTP trigger.
func (b *Broadcaster) BroadcastPayload(listID uint, payload []byte) {
	channels := b.registry.ChannelsFor(listID)
	if len(channels) == 0 {
		return
	}

	start := time.Now()
	delivered := 0
	for _, ch := range channels {
		if err := ch.Write(payload); err != nil {
			b.logger.Debug("Pruning channel after failed write", "listID", listID, "channelID", ch.ID(), "error", err)
			_ = ch.Close()
			b.registry.Unregister(listID, ch)
			continue
		}
		delivered++
	}

	b.metrics.RecordBroadcast(listID, time.Since(start), delivered, len(channels)-delivered, len(payload))
	b.logger.Debug("Event broadcast", "listID", listID, "delivered", delivered, "pruned", len(channels)-delivered)
}

// Publish lets the broadcaster stand in wherever a Publisher is expected.
func (b *Broadcaster) Publish(_ context.Context, listID uint, event Event) error {
	if event == nil {
		return fmt.Errorf("nil event for list %d", listID)
	}
	b.Broadcast(listID, event)
	return nil
}
