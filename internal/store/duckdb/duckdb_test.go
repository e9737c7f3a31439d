package duckdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/store/duckdb"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.Store {
		s, err := duckdb.Open(context.Background(), "")
		require.NoError(t, err)
		return s
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "equipment.duckdb")

	s, err := duckdb.Open(ctx, path)
	require.NoError(t, err)
	b, err := s.CreateBatch(ctx, "pumps.csv", "/u/pumps.csv")
	require.NoError(t, err)
	_, err = s.BulkCreateEquipment(ctx, []core.Equipment{
		{BatchID: b.ID, Name: "P-1", Type: "Pump", Flowrate: 10, Pressure: 2, Temperature: 30},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = duckdb.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "pumps.csv", got.FileName)

	n, err := s.CountEquipment(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBulkCreateSpansChunks(t *testing.T) {
	ctx := context.Background()
	s, err := duckdb.Open(ctx, "")
	require.NoError(t, err)
	defer s.Close()

	b, err := s.CreateBatch(ctx, "big.csv", "/u/big.csv")
	require.NoError(t, err)

	recs := make([]core.Equipment, 1203)
	for i := range recs {
		recs[i] = core.Equipment{BatchID: b.ID, Name: "E", Type: "Valve", Flowrate: float64(i)}
	}
	n, err := s.BulkCreateEquipment(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, int64(1203), n)

	got, err := s.ListEquipment(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got, 1203)
	assert.Equal(t, 1202.0, got[1202].Flowrate)
}

func TestBulkCreateRejectsMissingBatch(t *testing.T) {
	ctx := context.Background()
	s, err := duckdb.Open(ctx, "")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.BulkCreateEquipment(ctx, []core.Equipment{{BatchID: 99, Name: "X", Type: "Pump"}})
	assert.Error(t, err)
}
