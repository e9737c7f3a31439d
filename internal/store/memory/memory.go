// Package memory is an in-process core.Store used by tests and the
// memory store driver. Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

// Store keeps batches and equipment in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex
	st state
}

type state struct {
	batches     map[int64]core.Batch
	equipment   map[int64][]core.Equipment
	nextBatchID int64
	nextEquipID int64
	now         func() time.Time
	lastCreated time.Time
}

// New returns an empty store.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty store whose creation timestamps come from now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{st: state{
		batches:   make(map[int64]core.Batch),
		equipment: make(map[int64][]core.Equipment),
		now:       now,
	}}
}

var _ core.Store = (*Store)(nil)

// WithinTx runs fn while holding the store lock against a copy of the data.
// The copy replaces the live data only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(core.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.st.clone()
	if err := fn(&tx); err != nil {
		return err
	}
	s.st = tx
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateBatch(ctx context.Context, fileName, sourceFile string) (core.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateBatch(ctx, fileName, sourceFile)
}

func (s *Store) GetBatch(ctx context.Context, id int64) (core.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetBatch(ctx, id)
}

func (s *Store) DeleteBatch(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteBatch(ctx, id)
}

func (s *Store) DeleteBatches(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteBatches(ctx, ids)
}

func (s *Store) BulkCreateEquipment(ctx context.Context, records []core.Equipment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.BulkCreateEquipment(ctx, records)
}

func (s *Store) ListEquipment(ctx context.Context, batchID int64) ([]core.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListEquipment(ctx, batchID)
}

func (s *Store) CountEquipment(ctx context.Context, batchID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CountEquipment(ctx, batchID)
}

func (s *Store) ListBatches(ctx context.Context) ([]core.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListBatches(ctx)
}

func (s *Store) ListRecentBatches(ctx context.Context, limit int) ([]core.BatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListRecentBatches(ctx, limit)
}

func (s *Store) CountBatches(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CountBatches(ctx)
}

func (s *Store) ListSourceFiles(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListSourceFiles(ctx)
}

// clone copies maps and slices so a failed transaction leaves no trace.
func (st *state) clone() state {
	out := *st
	out.batches = make(map[int64]core.Batch, len(st.batches))
	for id, b := range st.batches {
		out.batches[id] = b
	}
	out.equipment = make(map[int64][]core.Equipment, len(st.equipment))
	for id, recs := range st.equipment {
		out.equipment[id] = append([]core.Equipment(nil), recs...)
	}
	return out
}

func (st *state) CreateBatch(_ context.Context, fileName, sourceFile string) (core.Batch, error) {
	st.nextBatchID++
	created := st.now().UTC()
	// Keep creation times strictly increasing so recency order is total.
	if !created.After(st.lastCreated) {
		created = st.lastCreated.Add(time.Microsecond)
	}
	st.lastCreated = created

	b := core.Batch{
		ID:         st.nextBatchID,
		FileName:   fileName,
		SourceFile: sourceFile,
		CreatedAt:  created,
	}
	st.batches[b.ID] = b
	return b, nil
}

func (st *state) GetBatch(_ context.Context, id int64) (core.Batch, error) {
	b, ok := st.batches[id]
	if !ok {
		return core.Batch{}, fmt.Errorf("batch %d: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (st *state) DeleteBatch(_ context.Context, id int64) error {
	delete(st.batches, id)
	delete(st.equipment, id)
	return nil
}

func (st *state) DeleteBatches(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		_ = st.DeleteBatch(ctx, id)
	}
	return nil
}

func (st *state) BulkCreateEquipment(_ context.Context, records []core.Equipment) (int64, error) {
	for _, r := range records {
		if _, ok := st.batches[r.BatchID]; !ok {
			return 0, fmt.Errorf("insert equipment: batch %d does not exist (violates foreign key)", r.BatchID)
		}
	}
	for _, r := range records {
		st.nextEquipID++
		r.ID = st.nextEquipID
		st.equipment[r.BatchID] = append(st.equipment[r.BatchID], r)
	}
	return int64(len(records)), nil
}

func (st *state) ListEquipment(_ context.Context, batchID int64) ([]core.Equipment, error) {
	return append([]core.Equipment(nil), st.equipment[batchID]...), nil
}

func (st *state) CountEquipment(_ context.Context, batchID int64) (int64, error) {
	return int64(len(st.equipment[batchID])), nil
}

func (st *state) ListBatches(context.Context) ([]core.Batch, error) {
	out := make([]core.Batch, 0, len(st.batches))
	for _, b := range st.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (st *state) ListRecentBatches(ctx context.Context, limit int) ([]core.BatchSummary, error) {
	batches, _ := st.ListBatches(ctx)
	out := make([]core.BatchSummary, 0, len(batches))
	for _, b := range batches {
		if limit > 0 && len(out) == limit {
			break
		}
		n := len(st.equipment[b.ID])
		if n == 0 {
			continue
		}
		out = append(out, core.BatchSummary{Batch: b, EquipmentCount: int64(n)})
	}
	return out, nil
}

func (st *state) CountBatches(context.Context) (int64, error) {
	return int64(len(st.batches)), nil
}

func (st *state) ListSourceFiles(context.Context) ([]string, error) {
	out := make([]string, 0, len(st.batches))
	for _, b := range st.batches {
		out = append(out, b.SourceFile)
	}
	return out, nil
}
