package realtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestKafkaJournalPublish(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, nil)
	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		if string(key) != "7" {
			t.Errorf("Expected key 7, got %s", key)
		}
		val, _ := msg.Value.Encode()
		return ValidatePayload(val)
	})
	journal := NewKafkaJournal(producer, "list-events", nil)

	if err := journal.Publish(context.Background(), 7, NewItemDeleted(1, "Jam")); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Errorf("Unexpected close error: %v", err)
	}
}

func TestKafkaJournalLogsDeliveryFailure(t *testing.T) {
	var logs lockedBuffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	producer := mocks.NewAsyncProducer(t, nil)
	producer.ExpectInputAndFail(sarama.ErrOutOfBrokers)
	journal := NewKafkaJournal(producer, "list-events", logger)

	// Delivery is asynchronous, so the mutation path never sees the failure.
	if err := journal.Publish(context.Background(), 7, NewItemDeleted(1, "Jam")); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	_ = journal.Close()

	out := logs.String()
	if !strings.Contains(out, "Failed to journal event") {
		t.Errorf("Expected delivery failure to be logged, got %q", out)
	}
	if !strings.Contains(out, "listID=7") {
		t.Errorf("Expected list id in log, got %q", out)
	}
}

// stalledProducer never reads its input, like a producer stuck behind a slow broker.
type stalledProducer struct {
	*mocks.AsyncProducer
	input chan *sarama.ProducerMessage
}

func (p stalledProducer) Input() chan<- *sarama.ProducerMessage { return p.input }

func TestKafkaJournalDoesNotBlockOnFullQueue(t *testing.T) {
	producer := stalledProducer{AsyncProducer: mocks.NewAsyncProducer(t, nil), input: make(chan *sarama.ProducerMessage)}
	journal := NewKafkaJournal(producer, "list-events", nil)
	defer journal.Close()

	err := journal.Publish(context.Background(), 7, NewItemDeleted(1, "Jam"))
	if !errors.Is(err, ErrJournalBusy) {
		t.Errorf("Expected ErrJournalBusy, got %v", err)
	}
}

func TestKafkaJournalPublishAfterClose(t *testing.T) {
	journal := NewKafkaJournal(mocks.NewAsyncProducer(t, nil), "list-events", nil)
	_ = journal.Close()

	if err := journal.Publish(context.Background(), 7, NewItemDeleted(1, "Jam")); err == nil {
		t.Error("Expected error publishing to a closed journal")
	}
	if err := journal.Close(); err != nil {
		t.Errorf("Unexpected error on second close: %v", err)
	}
}
