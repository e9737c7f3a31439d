package core

import (
	"context"
	"time"
)

// EventType names a batch lifecycle event.
type EventType string

const (
	EventBatchIngested EventType = "batch.ingested"
	EventBatchEvicted  EventType = "batch.evicted"
)

// BatchEvent is published after a batch is committed or evicted.
type BatchEvent struct {
	Type       EventType   `json:"type"`
	BatchID    int64       `json:"batch_id"`
	FileName   string      `json:"filename"`
	Records    int         `json:"records,omitempty"`
	Statistics *Statistics `json:"statistics,omitempty"`
	ClientIP   string      `json:"client_ip,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EventPublisher delivers batch events. Delivery is best effort: a failed
// publish is logged and never fails the operation that produced it.
type EventPublisher interface {
	Publish(ctx context.Context, events ...BatchEvent) error
}

// Ingestion outcomes reported to a Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Recorder receives operational measurements.
type Recorder interface {
	IngestionFinished(outcome string, rows int, bytes int64, elapsed time.Duration)
	BatchesEvicted(n int)
	OrphansSwept(n int)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...BatchEvent) error { return nil }

type nopRecorder struct{}

func (nopRecorder) IngestionFinished(string, int, int64, time.Duration) {}
func (nopRecorder) BatchesEvicted(int)                                {}
func (nopRecorder) OrphansSwept(int)                                  {}
