package core

import (
	"context"
	"io"
	"time"
)

// Sample limits
const (
	maxPreviewSamples = 10
	maxErrorSamples   = 20
)

// RowError describes one data row that would reject an ingestion.
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// PreviewResult is the read-only analysis of an upload. Unlike Ingest,
// which stops at the first bad cell, a preview reports every bad row so a
// file can be fixed in one pass.
type PreviewResult struct {
	FileName         string         `json:"filename"`
	Header           []string       `json:"header"`
	TotalRows        int            `json:"total_rows"`
	ValidRows        int            `json:"valid_rows"`
	ErrorRows        int            `json:"error_rows"`
	Samples          []EquipmentRow `json:"samples"`
	Errors           []RowError     `json:"errors"`
	Statistics       *Statistics    `json:"statistics,omitempty"` // valid rows only
	WouldEvict       int            `json:"would_evict"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

// Accepted reports whether Ingest would accept the same file.
func (p *PreviewResult) Accepted() bool {
	return p.ErrorRows == 0 && p.ValidRows > 0
}

// Preview validates r without storing anything. Header problems and
// unreadable CSV are returned as errors exactly as Ingest would; row level
// problems are collected into the result.
func (s *Service) Preview(ctx context.Context, fileName string, r io.Reader) (*PreviewResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	res := &PreviewResult{
		FileName: fileName,
		Samples:  []EquipmentRow{},
		Errors:   []RowError{},
	}

	var valid []EquipmentRow
	header, _, err := scanRows(r, func(line int, row EquipmentRow, rowErr *Error) error {
		if err := ctx.Err(); err != nil {
			return internal("preview", err)
		}
		res.TotalRows++
		if rowErr != nil {
			res.ErrorRows++
			if len(res.Errors) < maxErrorSamples {
				res.Errors = append(res.Errors, RowError{
					Line:    rowErr.Line,
					Column:  rowErr.Column,
					Value:   rowErr.Value,
					Message: rowErr.Message,
				})
			}
			return nil
		}
		valid = append(valid, row)
		if len(res.Samples) < maxPreviewSamples {
			res.Samples = append(res.Samples, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.TotalRows == 0 {
		return nil, badInput("preview", "empty file: no data rows")
	}

	res.Header = header
	res.ValidRows = len(valid)
	if len(valid) > 0 {
		stats := StatsFromRows(valid)
		res.Statistics = &stats
	}

	if res.Accepted() {
		n, err := s.store.CountBatches(ctx)
		if err != nil {
			return nil, internal("count batches", err)
		}
		res.WouldEvict = max(int(n)+1-s.retention.MaxRetained, 0)
	}

	res.ProcessingTimeMs = time.Since(start).Milliseconds()
	return res, nil
}
