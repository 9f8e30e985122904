package realtime

import (
	"log/slog"
	"sync"
	"time"

	"shoplist-service/internal/models"
)

const (
	DefaultSlowBroadcast = 500 * time.Millisecond
	// pruneAlertPercent is the share of pruned channels in one broadcast
	// above which a warning is logged.
	pruneAlertPercent = 5.0
)

// Metrics aggregates broadcast outcomes and warns about slow or lossy fan-outs.
type Metrics struct {
	mu    sync.Mutex
	stats models.BroadcastStats

	slowThreshold time.Duration
	logger        *slog.Logger
}

func NewMetrics(slowThreshold time.Duration, logger *slog.Logger) *Metrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Metrics{slowThreshold: slowThreshold, logger: logger}
}

// RecordBroadcast adds one fan-out to the totals.
func (m *Metrics) RecordBroadcast(listID uint, duration time.Duration, delivered, pruned, payloadSize int) {
	fanout := delivered + pruned

	m.mu.Lock()
	m.stats.Broadcasts++
	m.stats.Delivered += int64(delivered)
	m.stats.Pruned += int64(pruned)
	m.stats.PeakDurationMs = max(m.stats.PeakDurationMs, duration.Milliseconds())
	m.stats.PeakFanout = max(m.stats.PeakFanout, fanout)
	m.stats.PeakPayloadBytes = max(m.stats.PeakPayloadBytes, payloadSize)
	m.mu.Unlock()

	if m.slowThreshold > 0 && duration > m.slowThreshold {
		m.logger.Warn("Slow broadcast", "listID", listID, "duration", duration, "channels", fanout)
	}
	if fanout > 0 {
		if rate := float64(pruned) / float64(fanout) * 100; rate > pruneAlertPercent {
			m.logger.Warn("High prune rate on broadcast", "listID", listID, "pruned", pruned, "channels", fanout)
		}
	}
}

func (m *Metrics) Snapshot() models.BroadcastStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
