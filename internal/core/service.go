package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/logging"
)

// DefaultIngestTimeout bounds one ingestion when Options.Timeout is zero.
const DefaultIngestTimeout = 2 * time.Minute

// cleanupTimeout bounds rollback and file removal once the request context
// is gone.
const cleanupTimeout = 10 * time.Second

// Options wires a Service to its collaborators. Store and Files are required.
type Options struct {
	Store     Store
	Files     FileStore
	Retention RetentionManager
	Limiter   *UploadLimiter
	Publisher EventPublisher
	Recorder  Recorder
	Timeout   time.Duration
	Now       func() time.Time
}

// Service is the entry point for ingestion and batch queries.
type Service struct {
	store     Store
	files     FileStore
	retention RetentionManager
	limiter   *UploadLimiter
	publisher EventPublisher
	recorder  Recorder
	timeout   time.Duration
	now       func() time.Time
}

// NewService validates opts and fills defaults for optional collaborators.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("core: store is required")
	}
	if opts.Files == nil {
		return nil, errors.New("core: file store is required")
	}

	s := &Service{
		store:     opts.Store,
		files:     opts.Files,
		retention: NewRetentionManager(opts.Retention.MaxRetained),
		limiter:   opts.Limiter,
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		timeout:   opts.Timeout,
		now:       opts.Now,
	}
	if s.limiter == nil {
		s.limiter = NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime)
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultIngestTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Ingest stores r as a new batch, validates and persists its rows, trims
// old batches and returns the batch statistics. On any failure the batch
// and its source file are removed before the error is returned.
func (s *Service) Ingest(ctx context.Context, fileName string, r io.Reader) (*IngestResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	in := newIngestion(s, fileName)
	return in.run(ctx, r)
}

// Retained returns how many batches the service keeps.
func (s *Service) Retained() int {
	return s.retention.MaxRetained
}

// ListRecentBatches returns up to the retained number of batches, newest first.
func (s *Service) ListRecentBatches(ctx context.Context) ([]BatchSummary, error) {
	batches, err := s.store.ListRecentBatches(ctx, s.retention.MaxRetained)
	if err != nil {
		return nil, internal("list batches", err)
	}
	return batches, nil
}

// GetBatch returns a batch or a NotFound error.
func (s *Service) GetBatch(ctx context.Context, id int64) (Batch, error) {
	b, err := s.store.GetBatch(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Batch{}, notFound("get batch", id)
	}
	if err != nil {
		return Batch{}, internal("get batch", err)
	}
	return b, nil
}

// BatchRecords returns a batch and its equipment in insertion order.
func (s *Service) BatchRecords(ctx context.Context, id int64) (Batch, []Equipment, error) {
	b, err := s.GetBatch(ctx, id)
	if err != nil {
		return Batch{}, nil, err
	}
	records, err := s.store.ListEquipment(ctx, id)
	if err != nil {
		return Batch{}, nil, internal("list equipment", err)
	}
	return b, records, nil
}

// BatchStatistics recomputes statistics from the batch's persisted records.
func (s *Service) BatchStatistics(ctx context.Context, id int64) (Batch, Statistics, error) {
	src, err := s.ReportSource(ctx, id)
	if err != nil {
		return Batch{}, Statistics{}, err
	}
	return src.Batch, src.Statistics, nil
}

// ReportSource loads everything needed to render a report. A batch without
// records yields an EmptyBatch error.
func (s *Service) ReportSource(ctx context.Context, id int64) (*ReportSource, error) {
	b, records, err := s.BatchRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, emptyBatch("batch", id)
	}
	return &ReportSource{
		Batch:      b,
		Records:    records,
		Statistics: StatsFromRecords(records),
	}, nil
}

// Trim applies retention outside of an ingestion and removes the evicted
// batches' source files.
func (s *Service) Trim(ctx context.Context) ([]Batch, error) {
	var evicted []Batch
	err := s.store.WithinTx(ctx, func(repo Repository) error {
		var err error
		evicted, err = s.retention.Trim(ctx, repo)
		return err
	})
	if err != nil {
		return nil, internal("trim", err)
	}
	s.afterEviction(ctx, evicted)
	return evicted, nil
}

// afterEviction removes source files and announces evicted batches. It runs
// only after the eviction has committed.
func (s *Service) afterEviction(ctx context.Context, evicted []Batch) {
	if len(evicted) == 0 {
		return
	}
	log := logging.FromContext(ctx)
	s.recorder.BatchesEvicted(len(evicted))

	events := make([]BatchEvent, 0, len(evicted))
	for _, b := range evicted {
		if err := s.files.Remove(b.SourceFile); err != nil {
			log.Warn("remove evicted source file", "evicted_id", b.ID, "path", b.SourceFile, "error", err)
		}
		events = append(events, BatchEvent{
			Type:       EventBatchEvicted,
			BatchID:    b.ID,
			FileName:   b.FileName,
			OccurredAt: s.now(),
		})
		log.Info("batch evicted", "evicted_id", b.ID, "evicted_file", b.FileName)
	}
	s.publish(ctx, events...)
}

func (s *Service) publish(ctx context.Context, events ...BatchEvent) {
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logging.FromContext(ctx).Warn("publish batch events", "count", len(events), "error", err)
	}
}

// Ping checks the record store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// UploadLimiterStatus returns the ingestion limiter snapshot.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight ingestions finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}
