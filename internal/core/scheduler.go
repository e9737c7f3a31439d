package core

// scheduler.go runs background maintenance.
//
// The source file sweep removes stored uploads that no batch references,
// for example files left behind when a rollback could not delete them.
// Files younger than the grace period are skipped so that an ingestion
// between Save and CreateBatch is never disturbed. The same pass drops
// batches that stayed empty past the grace period, which only happens when
// a process died between CreateBatch and the equipment commit. Failures
// are logged and never stop the scheduler.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SweepConfig holds settings for the source file sweeper.
type SweepConfig struct {
	Interval time.Duration // How often to run (default: 1h)
	Grace    time.Duration // Minimum age of an orphan before removal
}

// StartSweeper runs SweepOrphans immediately, then every Interval, until ctx
// is cancelled.
func (s *Service) StartSweeper(ctx context.Context, cfg SweepConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	slog.Info("source file sweeper started", "interval", cfg.Interval.String(), "grace", cfg.Grace.String())

	s.runSweep(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("source file sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, cfg)
		}
	}
}

func (s *Service) runSweep(ctx context.Context, cfg SweepConfig) {
	start := time.Now()

	stale, err := s.SweepStaleBatches(ctx, cfg.Grace)
	if err != nil {
		slog.Error("stale batch sweep failed", "error", err)
	}

	removed, err := s.SweepOrphans(ctx, cfg.Grace)
	if err != nil {
		slog.Error("source file sweep failed", "error", err)
		return
	}
	slog.Info("source file sweep completed",
		"removed", removed,
		"stale_batches", len(stale),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// SweepStaleBatches deletes batches created more than grace ago that still
// hold no equipment and returns them. Their source files become orphans
// and are left to SweepOrphans.
func (s *Service) SweepStaleBatches(ctx context.Context, grace time.Duration) ([]Batch, error) {
	cutoff := s.now().Add(-grace)

	var stale []Batch
	err := s.store.WithinTx(ctx, func(repo Repository) error {
		batches, err := repo.ListBatches(ctx)
		if err != nil {
			return fmt.Errorf("list batches: %w", err)
		}
		for _, b := range batches {
			if b.CreatedAt.After(cutoff) {
				continue
			}
			n, err := repo.CountEquipment(ctx, b.ID)
			if err != nil {
				return fmt.Errorf("count equipment: %w", err)
			}
			if n == 0 {
				stale = append(stale, b)
			}
		}
		if len(stale) == 0 {
			return nil
		}
		ids := make([]int64, len(stale))
		for i, b := range stale {
			ids[i] = b.ID
		}
		return repo.DeleteBatches(ctx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("sweep stale batches: %w", err)
	}
	for _, b := range stale {
		slog.Warn("stale batch removed", "batch_id", b.ID, "file", b.FileName, "created_at", b.CreatedAt)
	}
	return stale, nil
}

// SweepOrphans removes stored files older than grace that no batch
// references and returns how many were removed.
func (s *Service) SweepOrphans(ctx context.Context, grace time.Duration) (int, error) {
	referenced, err := s.store.ListSourceFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list source files: %w", err)
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, p := range referenced {
		keep[p] = struct{}{}
	}

	files, err := s.files.List()
	if err != nil {
		return 0, fmt.Errorf("list stored files: %w", err)
	}

	cutoff := s.now().Add(-grace)
	removed := 0
	for _, f := range files {
		if _, ok := keep[f.Path]; ok || f.ModTime.After(cutoff) {
			continue
		}
		if err := s.files.Remove(f.Path); err != nil {
			slog.Warn("remove orphaned source file", "path", f.Path, "error", err)
			continue
		}
		removed++
	}
	s.recorder.OrphansSwept(removed)
	return removed, nil
}
