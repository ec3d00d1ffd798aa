// Package events publishes successful weather lookups to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// DefaultTopic is used when no topic is configured
const DefaultTopic = "weather_lookups"

// LookupEvent records one successful lookup
type LookupEvent struct {
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Unit      string    `json:"unit"`
	TempK     float64   `json:"tempK"`
	Condition string    `json:"condition"` // main condition group, e.g. "Rain"
	Source    string    `json:"source"`    // "city", "coords" or "geolocation"
	At        time.Time `json:"at"`
}

// Publisher sends lookup events somewhere
type Publisher interface {
	PublishLookup(ctx context.Context, event LookupEvent) error
	Close() error
}

// Nop discards every event
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) PublishLookup(context.Context, LookupEvent) error { return nil }
func (Nop) Close() error                                     { return nil }

// KafkaPublisher writes lookup events to a Kafka topic, keyed by city
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// ProducerConfig returns the sarama configuration used for lookup events
func ProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	// Wait until every in-sync replica has the message
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	return config
}

// NewKafkaPublisher connects a synchronous producer to brokers
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// PublishLookup serialises event as JSON and sends it
func (k *KafkaPublisher) PublishLookup(ctx context.Context, event LookupEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode lookup event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(event.City),
		Value:     sarama.ByteEncoder(bytes),
		Timestamp: event.At,
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send lookup event: %w", err)
	}

	k.logger.Debug("Lookup event sent",
		"city", event.City,
		"topic", k.topic,
		"partition", partition,
		"offset", offset)
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
