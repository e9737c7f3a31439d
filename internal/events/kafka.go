// Package events publishes batch lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/config"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each event as a JSON message keyed by batch id, so
// all events for one batch land on the same partition.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

var _ core.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher returns a publisher for cfg.Brokers and cfg.Topic.
func NewKafkaPublisher(cfg config.EventsConfig) *KafkaPublisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
	}, cfg.WriteTimeout)
}

func newPublisher(w messageWriter, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaPublisher{writer: w, timeout: timeout}
}

// Publish sends events in one batch write.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...core.BatchEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(e.BatchID, 10)),
			Value: data,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d event(s): %w", len(msgs), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
