// Package postgres implements core.Store on PostgreSQL using pgx.
//
// Equipment rows are inserted with the COPY protocol, so a whole dataset
// costs one round trip. Deleting a batch cascades to its equipment through
// the foreign key. Transactions opened by WithinTx take a transaction-level
// advisory lock so that concurrent trims run one at a time.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/config"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

//go:embed schema.sql
var schema string

// retentionLockKey identifies the advisory lock serializing batch trims.
const retentionLockKey int64 = 0x45515550 // "EQUP"

var equipmentColumns = []string{
	"batch_id", "equipment_name", "equipment_type", "flowrate", "pressure", "temperature",
}

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Store is a pgxpool-backed core.Store.
type Store struct {
	*queries
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// Open parses cfg.URL, applies pool sizing and verifies the connection.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: &queries{db: pool}, pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Truncate removes every batch and equipment row and resets the id sequences.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE chemical_equipment, upload_batch RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

// WithinTx runs fn in a transaction holding the retention advisory lock.
func (s *Store) WithinTx(ctx context.Context, fn func(core.Repository) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", retentionLockKey); err != nil {
			return fmt.Errorf("acquire retention lock: %w", err)
		}
		return fn(&queries{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// queries implements core.Repository over any DBTX.
type queries struct {
	db DBTX
}

func (q *queries) CreateBatch(ctx context.Context, fileName, sourceFile string) (core.Batch, error) {
	b := core.Batch{FileName: fileName, SourceFile: sourceFile}
	err := q.db.QueryRow(ctx,
		`INSERT INTO upload_batch (file_name, source_file) VALUES ($1, $2) RETURNING id, created_at`,
		fileName, sourceFile,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return core.Batch{}, fmt.Errorf("insert batch: %w", err)
	}
	return b, nil
}

func (q *queries) GetBatch(ctx context.Context, id int64) (core.Batch, error) {
	var b core.Batch
	err := q.db.QueryRow(ctx,
		`SELECT id, file_name, source_file, created_at FROM upload_batch WHERE id = $1`, id,
	).Scan(&b.ID, &b.FileName, &b.SourceFile, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Batch{}, fmt.Errorf("batch %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Batch{}, fmt.Errorf("select batch: %w", err)
	}
	return b, nil
}

func (q *queries) DeleteBatch(ctx context.Context, id int64) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM upload_batch WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

func (q *queries) DeleteBatches(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := q.db.Exec(ctx, `DELETE FROM upload_batch WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete batches: %w", err)
	}
	return nil
}

func (q *queries) BulkCreateEquipment(ctx context.Context, records []core.Equipment) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	n, err := q.db.CopyFrom(ctx,
		pgx.Identifier{"chemical_equipment"},
		equipmentColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.BatchID, r.Name, r.Type, r.Flowrate, r.Pressure, r.Temperature}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy equipment: %w", err)
	}
	return n, nil
}

func (q *queries) ListEquipment(ctx context.Context, batchID int64) ([]core.Equipment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, batch_id, equipment_name, equipment_type, flowrate, pressure, temperature
		   FROM chemical_equipment WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("select equipment: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Equipment, error) {
		var e core.Equipment
		err := row.Scan(&e.ID, &e.BatchID, &e.Name, &e.Type, &e.Flowrate, &e.Pressure, &e.Temperature)
		return e, err
	})
}

func (q *queries) CountEquipment(ctx context.Context, batchID int64) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM chemical_equipment WHERE batch_id = $1`, batchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count equipment: %w", err)
	}
	return n, nil
}

func (q *queries) ListBatches(ctx context.Context) ([]core.Batch, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, file_name, source_file, created_at FROM upload_batch ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return pgx.CollectRows(rows, scanBatch)
}

func (q *queries) ListRecentBatches(ctx context.Context, limit int) ([]core.BatchSummary, error) {
	rows, err := q.db.Query(ctx,
		`SELECT b.id, b.file_name, b.source_file, b.created_at,
		        (SELECT count(*) FROM chemical_equipment e WHERE e.batch_id = b.id)
		   FROM upload_batch b
		  WHERE EXISTS (SELECT 1 FROM chemical_equipment e WHERE e.batch_id = b.id)
		  ORDER BY b.created_at DESC, b.id DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent batches: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.BatchSummary, error) {
		var s core.BatchSummary
		err := row.Scan(&s.ID, &s.FileName, &s.SourceFile, &s.CreatedAt, &s.EquipmentCount)
		return s, err
	})
}

func (q *queries) CountBatches(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM upload_batch`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}

func (q *queries) ListSourceFiles(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT source_file FROM upload_batch`)
	if err != nil {
		return nil, fmt.Errorf("select source files: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanBatch(row pgx.CollectableRow) (core.Batch, error) {
	var b core.Batch
	err := row.Scan(&b.ID, &b.FileName, &b.SourceFile, &b.CreatedAt)
	return b, err
}
