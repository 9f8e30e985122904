package realtime

import (
	"errors"
	"testing"
	"time"

	"shoplist-service/internal/models"

	"github.com/google/go-cmp/cmp"
)

func TestMetricsAggregates(t *testing.T) {
	m := NewMetrics(time.Second, nil)
	m.RecordBroadcast(7, 20*time.Millisecond, 3, 0, 120)
	m.RecordBroadcast(8, 5*time.Millisecond, 1, 2, 300)

	want := models.BroadcastStats{
		Broadcasts:       2,
		Delivered:        4,
		Pruned:           2,
		PeakDurationMs:   20,
		PeakFanout:       3,
		PeakPayloadBytes: 300,
	}
	if diff := cmp.Diff(want, m.Snapshot()); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

// Test that the broadcaster records delivered and pruned channels
func TestBroadcasterRecordsStats(t *testing.T) {
	r := NewRegistry()
	b := NewBroadcaster(r, nil)
	good := newMockChannel("good")
	bad := newMockChannel("bad")
	bad.failWith = errors.New("boom")
	r.Register(7, good)
	r.Register(7, bad)

	b.Broadcast(7, NewItemDeleted(1, "Bread"))
	b.Broadcast(9, NewItemDeleted(1, "Bread"))

	stats := b.Stats()
	if stats.Broadcasts != 1 || stats.Delivered != 1 || stats.Pruned != 1 || stats.PeakFanout != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}
