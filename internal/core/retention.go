package core

import (
	"context"
	"fmt"
)

// DefaultMaxRetained is how many batches survive a trim.
const DefaultMaxRetained = 5

// RetentionManager keeps only the most recent batches.
type RetentionManager struct {
	MaxRetained int
}

// NewRetentionManager returns a manager keeping max batches, or
// DefaultMaxRetained when max is not positive.
func NewRetentionManager(max int) RetentionManager {
	if max <= 0 {
		max = DefaultMaxRetained
	}
	return RetentionManager{MaxRetained: max}
}

// Trim deletes every populated batch older than the MaxRetained newest
// populated ones with a single DeleteBatches call and returns the evicted
// batches, newest first.
//
// Batches without equipment belong to ingestions that have not committed
// yet. They neither count towards the limit nor get evicted; their own
// ingestion trims again once its rows are in. Stale empty batches are
// removed by SweepStaleBatches.
func (m RetentionManager) Trim(ctx context.Context, repo Repository) ([]Batch, error) {
	keep := m.MaxRetained
	if keep <= 0 {
		keep = DefaultMaxRetained
	}

	batches, err := repo.ListBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	if len(batches) <= keep {
		return nil, nil
	}

	var (
		kept    int
		evicted []Batch
	)
	for _, b := range batches {
		n, err := repo.CountEquipment(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("count equipment: %w", err)
		}
		switch {
		case n == 0:
			continue
		case kept < keep:
			kept++
		default:
			evicted = append(evicted, b)
		}
	}
	if len(evicted) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(evicted))
	for i, b := range evicted {
		ids[i] = b.ID
	}
	if err := repo.DeleteBatches(ctx, ids); err != nil {
		return nil, fmt.Errorf("delete batches: %w", err)
	}
	return evicted, nil
}
