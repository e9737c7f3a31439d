package core

import (
	"context"
	"io"
	"time"
)

// Batch is one ingestion attempt: a source file plus the equipment parsed from it.
type Batch struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"filename"`
	SourceFile string    `json:"source_file"`
	CreatedAt  time.Time `json:"uploaded_at"`
}

// BatchSummary is a Batch with its equipment count, used for listings.
type BatchSummary struct {
	Batch
	EquipmentCount int64 `json:"equipment_count"`
}

// Equipment is a persisted equipment record. Records are written once in
// bulk and never updated; they disappear only when their batch is deleted.
type Equipment struct {
	ID          int64   `json:"id"`
	BatchID     int64   `json:"batch_id"`
	Name        string  `json:"equipment_name"`
	Type        string  `json:"equipment_type"`
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// EquipmentRow is a typed dataset row produced at the parsing boundary.
type EquipmentRow struct {
	Name        string  `json:"equipment_name"`
	Type        string  `json:"equipment_type"`
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// Record converts a parsed row into an unsaved record for the given batch.
func (r EquipmentRow) Record(batchID int64) Equipment {
	return Equipment{
		BatchID:     batchID,
		Name:        r.Name,
		Type:        r.Type,
		Flowrate:    r.Flowrate,
		Pressure:    r.Pressure,
		Temperature: r.Temperature,
	}
}

// IngestResult is returned by a successful ingestion.
type IngestResult struct {
	BatchID    int64      `json:"batch_id"`
	Statistics Statistics `json:"statistics"`
	Evicted    []int64    `json:"-"`
}

// ReportSource is everything a report renderer needs for one batch.
type ReportSource struct {
	Batch      Batch
	Records    []Equipment
	Statistics Statistics
}

// Repository is the record store contract. Implementations must return
// equipment in insertion order and batches newest first.
type Repository interface {
	CreateBatch(ctx context.Context, fileName, sourceFile string) (Batch, error)
	GetBatch(ctx context.Context, id int64) (Batch, error)
	// DeleteBatch removes a batch and cascades to its equipment.
	DeleteBatch(ctx context.Context, id int64) error
	// DeleteBatches removes every batch in ids in one call.
	DeleteBatches(ctx context.Context, ids []int64) error
	// BulkCreateEquipment persists all records in a single round trip.
	BulkCreateEquipment(ctx context.Context, records []Equipment) (int64, error)
	ListEquipment(ctx context.Context, batchID int64) ([]Equipment, error)
	CountEquipment(ctx context.Context, batchID int64) (int64, error)
	// ListBatches returns every batch ordered by created_at DESC, id DESC.
	ListBatches(ctx context.Context) ([]Batch, error)
	// ListRecentBatches returns up to limit batches that hold equipment,
	// newest first. Batches still waiting for their rows are left out.
	ListRecentBatches(ctx context.Context, limit int) ([]BatchSummary, error)
	CountBatches(ctx context.Context) (int64, error)
	ListSourceFiles(ctx context.Context) ([]string, error)
}

// Store is a Repository with transactional scope.
type Store interface {
	Repository
	// WithinTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// StoredFile describes a file held by a FileStore.
type StoredFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// FileStore keeps uploaded source files.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (StoredFile, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
	List() ([]StoredFile, error)
}
