package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/config"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

type fakeWriter struct {
	msgs     []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, f.deadline = ctx.Deadline()
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, time.Second)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stats := core.Statistics{TotalCount: 2, TypeDistribution: map[string]int{"Pump": 2}}
	err := p.Publish(context.Background(),
		core.BatchEvent{Type: core.EventBatchIngested, BatchID: 42, FileName: "a.csv", Records: 2, Statistics: &stats, OccurredAt: at},
		core.BatchEvent{Type: core.EventBatchEvicted, BatchID: 7, FileName: "old.csv", OccurredAt: at},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.True(t, w.deadline)

	m := w.msgs[0]
	assert.Equal(t, "42", string(m.Key))
	assert.Equal(t, at, m.Time)
	assert.Equal(t, "event_type", m.Headers[0].Key)
	assert.Equal(t, "batch.ingested", string(m.Headers[0].Value))

	var decoded core.BatchEvent
	require.NoError(t, json.Unmarshal(m.Value, &decoded))
	assert.Equal(t, int64(42), decoded.BatchID)
	require.NotNil(t, decoded.Statistics)
	assert.Equal(t, 2, decoded.Statistics.TypeDistribution["Pump"])

	assert.Equal(t, "7", string(w.msgs[1].Key))
}

func TestPublishNothing(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newPublisher(w, 0).Publish(context.Background()))
	assert.Empty(t, w.msgs)
}

func TestPublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	err := newPublisher(w, time.Second).Publish(context.Background(), core.BatchEvent{Type: core.EventBatchEvicted, BatchID: 1})
	assert.ErrorContains(t, err, "leader not available")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newPublisher(w, 0).Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher(config.EventsConfig{Brokers: []string{"localhost:9092"}, Topic: "t", WriteTimeout: 2 * time.Second})
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "t", kw.Topic)
	assert.Equal(t, 2*time.Second, p.timeout)
	require.NoError(t, p.Close())
}
