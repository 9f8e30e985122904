package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/IBM/sarama"
)

// ErrJournalBusy is returned when the producer's input queue is full. The
// event is dropped from the journal; subscribers still receive it.
var ErrJournalBusy = errors.New("kafka journal queue is full")

// KafkaJournal produces every published event to a Kafka topic, keyed by list
// id so one list's events stay ordered within a partition. It is an audit
// trail only; nothing reads it back into the broadcaster.
//
// Publish only enqueues. Delivery failures surface on the producer's error
// channel and are logged, so a slow broker never holds up a mutation.
type KafkaJournal struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewKafkaJournal(producer sarama.AsyncProducer, topic string, logger *slog.Logger) *KafkaJournal {
	if logger == nil {
		logger = slog.Default()
	}
	j := &KafkaJournal{producer: producer, topic: topic, logger: logger, done: make(chan struct{})}
	go j.drainErrors()
	return j
}

func (j *KafkaJournal) drainErrors() {
	defer close(j.done)
	for perr := range j.producer.Errors() {
		attrs := []any{"error", perr.Err}
		if perr.Msg != nil {
			attrs = append(attrs, "topic", perr.Msg.Topic)
			if key, err := perr.Msg.Key.Encode(); err == nil {
				attrs = append(attrs, "listID", string(key))
			}
		}
		j.logger.Warn("Failed to journal event", attrs...)
	}
}

func (j *KafkaJournal) Publish(_ context.Context, listID uint, event Event) error {
	if event == nil {
		return fmt.Errorf("nil event for list %d", listID)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.EventType(), err)
	}

	msg := &sarama.ProducerMessage{
		Topic: j.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(listID), 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType())},
		},
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return fmt.Errorf("kafka journal closed, dropped %s event for list %d", event.EventType(), listID)
	}
	select {
	case j.producer.Input() <- msg:
		j.logger.Debug("Event queued for journal", "listID", listID, "type", event.EventType())
		return nil
	default:
		return fmt.Errorf("dropped %s event for list %d: %w", event.EventType(), listID, ErrJournalBusy)
	}
}

// Close flushes queued messages and waits until every delivery error has been
// logged. It is safe to call more than once.
func (j *KafkaJournal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		<-j.done
		return nil
	}
	j.closed = true
	j.mu.Unlock()

	j.producer.AsyncClose()
	<-j.done
	return nil
}
