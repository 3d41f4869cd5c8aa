package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Brokers        []string
	Topic          string
	MaxRetries     int
	RetryBackoff   time.Duration
	FlushFrequency time.Duration
	RequiredAcks   sarama.RequiredAcks
	Compression    sarama.CompressionCodec
}

// DefaultKafkaConfig returns sensible producer defaults.
func DefaultKafkaConfig(brokers []string, topic string) KafkaConfig {
	return KafkaConfig{
		Brokers:        brokers,
		Topic:          topic,
		MaxRetries:     3,
		RetryBackoff:   100 * time.Millisecond,
		FlushFrequency: 500 * time.Millisecond,
		RequiredAcks:   sarama.WaitForLocal,
		Compression:    sarama.CompressionSnappy,
	}
}

// KafkaEventProducer publishes game events to Kafka.
type KafkaEventProducer struct {
	producer sarama.AsyncProducer
	topic    string
}

// NewKafkaEventProducer creates a producer from the given configuration.
func NewKafkaEventProducer(config KafkaConfig) (*KafkaEventProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Retry.Max = config.MaxRetries
	saramaConfig.Producer.Retry.Backoff = config.RetryBackoff
	saramaConfig.Producer.Flush.Frequency = config.FlushFrequency
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.Compression

	producer, err := sarama.NewAsyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &KafkaEventProducer{producer: producer, topic: config.Topic}
	go p.drainErrors()
	return p, nil
}

func (p *KafkaEventProducer) drainErrors() {
	for err := range p.producer.Errors() {
		SinkErrors.WithLabelValues(p.Name()).Inc()
		log.Printf("kafka produce error: %v", err)
	}
}

// Name identifies the sink in metrics.
func (p *KafkaEventProducer) Name() string { return "kafka" }

// WriteEvent publishes one event, keyed by table name so a table's events
// stay in one partition.
func (p *KafkaEventProducer) WriteEvent(ctx context.Context, ev GameEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.TableName),
		Value: sarama.ByteEncoder(payload),
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the producer down, flushing buffered messages.
func (p *KafkaEventProducer) Close() error {
	return p.producer.Close()
}
