// Package storetest holds a conformance suite every core.Store must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) core.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s core.Store)
	}{
		{"CreateAndGetBatch", testCreateAndGetBatch},
		{"GetMissingBatch", testGetMissingBatch},
		{"BulkCreatePreservesOrder", testBulkCreatePreservesOrder},
		{"DeleteBatchCascades", testDeleteBatchCascades},
		{"DeleteBatches", testDeleteBatches},
		{"RecencyOrder", testRecencyOrder},
		{"TxRollback", testTxRollback},
		{"TxCommit", testTxCommit},
		{"ListSourceFiles", testListSourceFiles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func sample(batchID int64, names ...string) []core.Equipment {
	out := make([]core.Equipment, len(names))
	for i, n := range names {
		out[i] = core.Equipment{
			BatchID:     batchID,
			Name:        n,
			Type:        "Pump",
			Flowrate:    float64(10 * (i + 1)),
			Pressure:    5.5,
			Temperature: 80,
		}
	}
	return out
}

func testCreateAndGetBatch(t *testing.T, s core.Store) {
	ctx := context.Background()

	b, err := s.CreateBatch(ctx, "pumps.csv", "/uploads/a.csv")
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	got, err := s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "pumps.csv", got.FileName)
	assert.Equal(t, "/uploads/a.csv", got.SourceFile)
}

func testGetMissingBatch(t *testing.T, s core.Store) {
	_, err := s.GetBatch(context.Background(), 4242)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
}

func testBulkCreatePreservesOrder(t *testing.T, s core.Store) {
	ctx := context.Background()
	b, err := s.CreateBatch(ctx, "f.csv", "f")
	require.NoError(t, err)

	n, err := s.BulkCreateEquipment(ctx, sample(b.ID, "P-1", "P-2", "P-3"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	recs, err := s.ListEquipment(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, want := range []string{"P-1", "P-2", "P-3"} {
		assert.Equal(t, want, recs[i].Name)
		assert.Equal(t, b.ID, recs[i].BatchID)
		assert.NotZero(t, recs[i].ID)
	}
	assert.Equal(t, 20.0, recs[1].Flowrate)

	count, err := s.CountEquipment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func testDeleteBatchCascades(t *testing.T, s core.Store) {
	ctx := context.Background()
	b, err := s.CreateBatch(ctx, "f.csv", "f")
	require.NoError(t, err)
	_, err = s.BulkCreateEquipment(ctx, sample(b.ID, "A", "B"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteBatch(ctx, b.ID))

	_, err = s.GetBatch(ctx, b.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	recs, err := s.ListEquipment(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func testDeleteBatches(t *testing.T, s core.Store) {
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 4; i++ {
		b, err := s.CreateBatch(ctx, "f.csv", "f")
		require.NoError(t, err)
		_, err = s.BulkCreateEquipment(ctx, sample(b.ID, "X"))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	require.NoError(t, s.DeleteBatches(ctx, ids[:3]))

	n, err := s.CountBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, ids[3], left[0].ID)
}

func testRecencyOrder(t *testing.T, s core.Store) {
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 7; i++ {
		b, err := s.CreateBatch(ctx, "f.csv", "f")
		require.NoError(t, err)
		_, err = s.BulkCreateEquipment(ctx, sample(b.ID, "A"))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	pending, err := s.CreateBatch(ctx, "pending.csv", "pending")
	require.NoError(t, err)

	all, err := s.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, all, 8)
	assert.Equal(t, pending.ID, all[0].ID)
	for i := range ids {
		assert.Equal(t, ids[len(ids)-1-i], all[i+1].ID, "position %d", i+1)
	}

	// Batches without equipment are not listed.
	recent, err := s.ListRecentBatches(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, ids[6], recent[0].ID)
	assert.Equal(t, ids[2], recent[4].ID)
	for _, b := range recent {
		assert.Equal(t, int64(1), b.EquipmentCount)
	}
}

func testTxRollback(t *testing.T, s core.Store) {
	ctx := context.Background()
	b, err := s.CreateBatch(ctx, "f.csv", "f")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(repo core.Repository) error {
		if _, err := repo.BulkCreateEquipment(ctx, sample(b.ID, "A")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountEquipment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func testTxCommit(t *testing.T, s core.Store) {
	ctx := context.Background()
	b, err := s.CreateBatch(ctx, "f.csv", "f")
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(repo core.Repository) error {
		_, err := repo.BulkCreateEquipment(ctx, sample(b.ID, "A", "B"))
		return err
	})
	require.NoError(t, err)

	recent, err := s.ListRecentBatches(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(2), recent[0].EquipmentCount)
}

func testListSourceFiles(t *testing.T, s core.Store) {
	ctx := context.Background()
	_, err := s.CreateBatch(ctx, "a.csv", "/u/a")
	require.NoError(t, err)
	_, err = s.CreateBatch(ctx, "b.csv", "/u/b")
	require.NoError(t, err)

	files, err := s.ListSourceFiles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/u/a", "/u/b"}, files)
}
