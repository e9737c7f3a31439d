package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/config"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/events"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/filestore"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/metrics"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/store/duckdb"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/store/memory"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/store/postgres"
)

// app is the wired set of collaborators every command runs against.
type app struct {
	cfg      *config.Config
	store    core.Store
	files    *filestore.Local
	limiter  *core.UploadLimiter
	recorder *metrics.Recorder
	events   *events.KafkaPublisher
	service  *core.Service
}

// newApp opens the configured store and builds the service around it.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	files, err := filestore.NewLocal(cfg.Upload.Dir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open upload directory: %w", err)
	}

	a := &app{
		cfg:     cfg,
		store:   store,
		files:   files,
		limiter: core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
	}
	a.recorder = metrics.New(a.limiter.ActiveCount)

	opts := core.Options{
		Store:     store,
		Files:     files,
		Retention: core.NewRetentionManager(cfg.Retention.MaxBatches),
		Limiter:   a.limiter,
		Recorder:  a.recorder,
		Timeout:   cfg.Upload.Timeout,
	}
	if cfg.Events.Enabled() {
		a.events = events.NewKafkaPublisher(cfg.Events)
		opts.Publisher = a.events
		slog.Info("publishing batch events", "brokers", strings.Join(cfg.Events.Brokers, ","), "topic", cfg.Events.Topic)
	}

	a.service, err = core.NewService(opts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the event writer and the store.
func (a *app) Close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

// openStore connects to the store selected by cfg.Driver. Postgres and
// DuckDB schemas are created on open.
func openStore(ctx context.Context, cfg config.StoreConfig) (core.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		slog.Info("connected to postgres", "max_conns", cfg.MaxConns)
		return s, nil
	case config.DriverDuckDB:
		s, err := duckdb.Open(ctx, cfg.DuckDBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("opened duckdb", "path", cfg.DuckDBPath)
		return s, nil
	case config.DriverMemory:
		slog.Warn("using in-memory store; batches are lost on exit")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
