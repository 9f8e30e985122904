package database

import (
	"fmt"

	"shoplist-service/internal/config"

	"github.com/IBM/sarama"
)

// NewKafkaProducer builds the asynchronous producer used by the event journal.
// Only errors are returned; the journal drains them into the log.
func NewKafkaProducer(cfg config.KafkaConfig) (sarama.AsyncProducer, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	sc.Producer.MaxMessageBytes = 1000000
	sc.Version = sarama.V2_0_0_0
	sc.ClientID = "shoplist-service"

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}
