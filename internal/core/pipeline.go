package core

// pipeline.go drives one ingestion through an explicit state machine:
//
//	Created -> Validated -> Persisted -> Trimmed -> Completed
//	    \           \            \
//	     +-----------+------------+--> Failed --(rollback)--> done
//
// Created means the source file is stored and a batch row exists. Any error
// after that moves to Failed, whose single exit is rollback: delete the
// batch (cascading to its equipment) and remove the stored file, one
// attempt each. Persisted and Trimmed commit together in one store
// transaction, so a failed trim also undoes the equipment insert.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/logging"
)

type ingestState int

const (
	statePending ingestState = iota
	stateCreated
	stateValidated
	statePersisted
	stateTrimmed
	stateCompleted
	stateFailed
)

func (s ingestState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateCreated:
		return "created"
	case stateValidated:
		return "validated"
	case statePersisted:
		return "persisted"
	case stateTrimmed:
		return "trimmed"
	case stateCompleted:
		return "completed"
	case stateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the legal next states for each state.
var transitions = map[ingestState][]ingestState{
	statePending:   {stateCreated, stateFailed},
	stateCreated:   {stateValidated, stateFailed},
	stateValidated: {statePersisted, stateFailed},
	statePersisted: {stateTrimmed, stateFailed},
	stateTrimmed:   {stateCompleted, stateFailed},
}

type ingestion struct {
	svc      *Service
	fileName string
	started  time.Time
	log      *slog.Logger

	state   ingestState
	stored  StoredFile
	batch   Batch
	dataset *Dataset
	evicted []Batch
}

func newIngestion(svc *Service, fileName string) *ingestion {
	return &ingestion{
		svc:      svc,
		fileName: fileName,
		started:  time.Now(),
		state:    statePending,
	}
}

func (in *ingestion) advance(to ingestState) {
	for _, next := range transitions[in.state] {
		if next == to {
			in.log.Debug("ingestion state", "from", in.state.String(), "to", to.String())
			in.state = to
			return
		}
	}
	panic(fmt.Sprintf("core: illegal ingestion transition %s -> %s", in.state, to))
}

func (in *ingestion) run(ctx context.Context, r io.Reader) (*IngestResult, error) {
	in.log = logging.WithFields(ctx, "file", in.fileName)

	if err := in.create(ctx, r); err != nil {
		return nil, in.fail(ctx, err)
	}
	in.log = in.log.With("batch_id", in.batch.ID)
	ctx = logging.NewContext(ctx, in.log)
	in.log.Info("ingestion started")

	if err := in.validate(ctx); err != nil {
		return nil, in.fail(ctx, err)
	}
	if err := in.persistAndTrim(ctx); err != nil {
		return nil, in.fail(ctx, err)
	}
	return in.complete(ctx), nil
}

// create stores the upload and opens a batch for it.
func (in *ingestion) create(ctx context.Context, r io.Reader) error {
	stored, err := in.svc.files.Save(ctx, in.fileName, r)
	if err != nil {
		return internal("store upload", err)
	}
	in.stored = stored

	batch, err := in.svc.store.CreateBatch(ctx, in.fileName, stored.Path)
	if err != nil {
		return internal("create batch", err)
	}
	in.batch = batch
	in.advance(stateCreated)
	return nil
}

// validate reads the stored file back and parses it.
func (in *ingestion) validate(ctx context.Context) error {
	f, err := in.svc.files.Open(in.stored.Path)
	if err != nil {
		return internal("open upload", err)
	}
	defer f.Close()

	ds, err := ParseDataset(f)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return internal("parse", err)
	}
	in.dataset = ds
	in.advance(stateValidated)
	return nil
}

// persistAndTrim inserts every row and applies retention in one transaction.
func (in *ingestion) persistAndTrim(ctx context.Context) error {
	records := make([]Equipment, len(in.dataset.Rows))
	for i, row := range in.dataset.Rows {
		records[i] = row.Record(in.batch.ID)
	}

	err := in.svc.store.WithinTx(ctx, func(repo Repository) error {
		n, err := repo.BulkCreateEquipment(ctx, records)
		if err != nil {
			return internal("persist equipment", err)
		}
		if n != int64(len(records)) {
			return internal("persist equipment", fmt.Errorf("inserted %d of %d rows", n, len(records)))
		}
		in.advance(statePersisted)

		evicted, err := in.svc.retention.Trim(ctx, repo)
		if err != nil {
			return internal("trim", err)
		}
		in.evicted = evicted
		in.advance(stateTrimmed)
		return nil
	})
	return err
}

func (in *ingestion) complete(ctx context.Context) *IngestResult {
	stats := StatsFromRows(in.dataset.Rows)
	in.advance(stateCompleted)

	elapsed := time.Since(in.started)
	in.svc.recorder.IngestionFinished(OutcomeSuccess, len(in.dataset.Rows), in.dataset.Bytes, elapsed)
	in.log.Info("ingestion completed",
		"rows", stats.TotalCount,
		"evicted", len(in.evicted),
		"duration_ms", elapsed.Milliseconds(),
	)

	cleanupCtx, cancel := detached(ctx)
	defer cancel()

	in.svc.publish(cleanupCtx, BatchEvent{
		Type:       EventBatchIngested,
		BatchID:    in.batch.ID,
		FileName:   in.fileName,
		Records:    stats.TotalCount,
		Statistics: &stats,
		ClientIP:   ClientIPFromContext(ctx),
		OccurredAt: in.svc.now(),
	})
	in.svc.afterEviction(cleanupCtx, in.evicted)

	ids := make([]int64, len(in.evicted))
	for i, b := range in.evicted {
		ids[i] = b.ID
	}
	return &IngestResult{BatchID: in.batch.ID, Statistics: stats, Evicted: ids}
}

// fail enters the Failed state and performs the single rollback.
func (in *ingestion) fail(ctx context.Context, cause error) error {
	from := in.state
	in.state = stateFailed

	outcome := OutcomeFailed
	if KindOf(cause) == KindBadInput {
		outcome = OutcomeRejected
	}
	rows := 0
	if in.dataset != nil {
		rows = len(in.dataset.Rows)
	}
	in.svc.recorder.IngestionFinished(outcome, rows, 0, time.Since(in.started))

	cleanupCtx, cancel := detached(ctx)
	defer cancel()

	if from >= stateCreated {
		if err := in.svc.store.DeleteBatch(cleanupCtx, in.batch.ID); err != nil {
			in.log.Error("rollback: delete batch", "error", err)
		}
	}
	if in.stored.Path != "" {
		if err := in.svc.files.Remove(in.stored.Path); err != nil {
			in.log.Warn("rollback: remove source file", "path", in.stored.Path, "error", err)
		}
	}

	in.log.Warn("ingestion rolled back", "state", from.String(), "kind", KindOf(cause).String(), "error", cause)
	return cause
}
