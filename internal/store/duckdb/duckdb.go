// Package duckdb implements core.Store on an embedded DuckDB database.
//
// DuckDB has no ON DELETE CASCADE, so batch deletion removes equipment rows
// explicitly in the same transaction.
package duckdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

//go:embed schema.sql
var schema string

// insertChunk bounds the rows per multi-row INSERT statement.
const insertChunk = 500

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a DuckDB-backed core.Store.
type Store struct {
	*queries
	db *sql.DB

	// txMu serializes writers; DuckDB aborts conflicting transactions
	// instead of waiting on them.
	txMu sync.Mutex
}

var _ core.Store = (*Store)(nil)

// Open opens the database at path and creates the schema. An empty path
// opens an in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	s := &Store{queries: &queries{db: db, now: time.Now}, db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the sequences and tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(core.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&queries{db: tx, now: s.now}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteBatch and DeleteBatches run in their own transaction so the
// equipment rows and the batch row disappear together.
func (s *Store) DeleteBatch(ctx context.Context, id int64) error {
	return s.WithinTx(ctx, func(r core.Repository) error {
		return r.DeleteBatch(ctx, id)
	})
}

func (s *Store) DeleteBatches(ctx context.Context, ids []int64) error {
	return s.WithinTx(ctx, func(r core.Repository) error {
		return r.DeleteBatches(ctx, ids)
	})
}

func (s *Store) BulkCreateEquipment(ctx context.Context, records []core.Equipment) (int64, error) {
	var n int64
	err := s.WithinTx(ctx, func(r core.Repository) error {
		var err error
		n, err = r.BulkCreateEquipment(ctx, records)
		return err
	})
	return n, err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type queries struct {
	db  dbtx
	now func() time.Time
}

func (q *queries) CreateBatch(ctx context.Context, fileName, sourceFile string) (core.Batch, error) {
	b := core.Batch{FileName: fileName, SourceFile: sourceFile, CreatedAt: q.now().UTC().Truncate(time.Microsecond)}
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO upload_batch (file_name, source_file, created_at) VALUES (?, ?, ?) RETURNING id`,
		fileName, sourceFile, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return core.Batch{}, fmt.Errorf("insert batch: %w", err)
	}
	return b, nil
}

func (q *queries) GetBatch(ctx context.Context, id int64) (core.Batch, error) {
	var b core.Batch
	err := q.db.QueryRowContext(ctx,
		`SELECT id, file_name, source_file, created_at FROM upload_batch WHERE id = ?`, id,
	).Scan(&b.ID, &b.FileName, &b.SourceFile, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Batch{}, fmt.Errorf("batch %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Batch{}, fmt.Errorf("select batch: %w", err)
	}
	return b, nil
}

func (q *queries) DeleteBatch(ctx context.Context, id int64) error {
	return q.DeleteBatches(ctx, []int64{id})
}

func (q *queries) DeleteBatches(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inList(ids)
	if _, err := q.db.ExecContext(ctx, `DELETE FROM chemical_equipment WHERE batch_id IN (`+in+`)`, args...); err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM upload_batch WHERE id IN (`+in+`)`, args...); err != nil {
		return fmt.Errorf("delete batches: %w", err)
	}
	return nil
}

func (q *queries) BulkCreateEquipment(ctx context.Context, records []core.Equipment) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// No foreign keys here; check the parent rows the way a constraint would.
	seen := make(map[int64]bool)
	for _, r := range records {
		if seen[r.BatchID] {
			continue
		}
		if _, err := q.GetBatch(ctx, r.BatchID); err != nil {
			return 0, fmt.Errorf("insert equipment: batch %d does not exist (violates foreign key): %w", r.BatchID, err)
		}
		seen[r.BatchID] = true
	}

	var total int64
	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		chunk := records[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO chemical_equipment
			(batch_id, equipment_name, equipment_type, flowrate, pressure, temperature) VALUES `)
		args := make([]any, 0, len(chunk)*6)
		for i, r := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?)")
			args = append(args, r.BatchID, r.Name, r.Type, r.Flowrate, r.Pressure, r.Temperature)
		}

		res, err := q.db.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return total, fmt.Errorf("insert equipment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(chunk))
		}
		total += n
	}
	return total, nil
}

func (q *queries) ListEquipment(ctx context.Context, batchID int64) ([]core.Equipment, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, batch_id, equipment_name, equipment_type, flowrate, pressure, temperature
		   FROM chemical_equipment WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("select equipment: %w", err)
	}
	defer rows.Close()

	out := []core.Equipment{}
	for rows.Next() {
		var e core.Equipment
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Name, &e.Type, &e.Flowrate, &e.Pressure, &e.Temperature); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *queries) CountEquipment(ctx context.Context, batchID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT count(*) FROM chemical_equipment WHERE batch_id = ?`, batchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count equipment: %w", err)
	}
	return n, nil
}

func (q *queries) ListBatches(ctx context.Context) ([]core.Batch, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, file_name, source_file, created_at FROM upload_batch ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	defer rows.Close()

	var out []core.Batch
	for rows.Next() {
		var b core.Batch
		if err := rows.Scan(&b.ID, &b.FileName, &b.SourceFile, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *queries) ListRecentBatches(ctx context.Context, limit int) ([]core.BatchSummary, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT b.id, b.file_name, b.source_file, b.created_at,
		        (SELECT count(*) FROM chemical_equipment e WHERE e.batch_id = b.id)
		   FROM upload_batch b
		  WHERE EXISTS (SELECT 1 FROM chemical_equipment e WHERE e.batch_id = b.id)
		  ORDER BY b.created_at DESC, b.id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent batches: %w", err)
	}
	defer rows.Close()

	var out []core.BatchSummary
	for rows.Next() {
		var s core.BatchSummary
		if err := rows.Scan(&s.ID, &s.FileName, &s.SourceFile, &s.CreatedAt, &s.EquipmentCount); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *queries) CountBatches(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT count(*) FROM upload_batch`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}

func (q *queries) ListSourceFiles(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT source_file FROM upload_batch`)
	if err != nil {
		return nil, fmt.Errorf("select source files: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan source file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func inList(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}
