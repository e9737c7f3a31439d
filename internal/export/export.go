// Package export writes a batch's equipment records as CSV or Parquet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts "csv" and "parquet"; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatParquet {
		return "application/vnd.apache.parquet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the download name for a batch export.
func FileName(batchID int64, f Format) string {
	return fmt.Sprintf("batch_%d_equipment.%s", batchID, f)
}

// Write encodes records to w in format f.
func Write(w io.Writer, f Format, records []core.Equipment) error {
	if f == FormatParquet {
		return WriteParquet(w, records)
	}
	return WriteCSV(w, records)
}

// WriteCSV writes the upload column layout, so an export can be uploaded again.
func WriteCSV(w io.Writer, records []core.Equipment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(core.RequiredColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Name,
			r.Type,
			strconv.FormatFloat(r.Flowrate, 'f', -1, 64),
			strconv.FormatFloat(r.Pressure, 'f', -1, 64),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EquipmentRow is the Parquet schema of an exported record.
type EquipmentRow struct {
	ID          int64   `parquet:"id"`
	BatchID     int64   `parquet:"batch_id"`
	Name        string  `parquet:"equipment_name,zstd"`
	Type        string  `parquet:"equipment_type,dict,zstd"`
	Flowrate    float64 `parquet:"flowrate"`
	Pressure    float64 `parquet:"pressure"`
	Temperature float64 `parquet:"temperature"`
}

// ToRow converts a record to its Parquet row.
func ToRow(e core.Equipment) EquipmentRow {
	return EquipmentRow{
		ID:          e.ID,
		BatchID:     e.BatchID,
		Name:        e.Name,
		Type:        e.Type,
		Flowrate:    e.Flowrate,
		Pressure:    e.Pressure,
		Temperature: e.Temperature,
	}
}

// WriteParquet writes records as one zstd-compressed Parquet file.
func WriteParquet(w io.Writer, records []core.Equipment) error {
	pw := parquet.NewGenericWriter[EquipmentRow](w, parquet.Compression(&parquet.Zstd))

	rows := make([]EquipmentRow, len(records))
	for i, r := range records {
		rows[i] = ToRow(r)
	}
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
