package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Dataset is a parsed upload: the header as read plus typed rows.
type Dataset struct {
	Header []string
	Rows   []EquipmentRow
	Bytes  int64
}

// ParseDataset reads CSV from r, validates the header and maps every data
// row into an EquipmentRow. Blank rows are skipped. The first unparseable
// numeric cell aborts the whole dataset.
func ParseDataset(r io.Reader) (*Dataset, error) {
	ds := &Dataset{}
	header, n, err := scanRows(r, func(line int, row EquipmentRow, rowErr *Error) error {
		if rowErr != nil {
			return rowErr
		}
		ds.Rows = append(ds.Rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return nil, badInput("parse", "empty file: no data rows")
	}
	ds.Header = header
	ds.Bytes = n
	return ds, nil
}

// rowFunc receives each non-blank data row with its 1-based line number.
// rowErr is set when a numeric cell failed to parse. Returning an error
// stops the scan.
type rowFunc func(line int, row EquipmentRow, rowErr *Error) error

// scanRows validates the header of r and feeds every data row to fn. It
// returns the header as read and the number of source bytes consumed.
func scanRows(r io.Reader, fn rowFunc) ([]string, int64, error) {
	src := SanitizeSource(r)
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, badInput("parse", "empty file: no header row")
	}
	if err != nil {
		return nil, 0, &Error{Kind: KindBadInput, Op: "parse", Message: "invalid csv", Err: err}
	}

	if err := ValidateColumns(header); err != nil {
		return nil, 0, err
	}
	idx := MakeHeaderIndex(header)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, &Error{Kind: KindBadInput, Op: "parse", Message: "invalid csv", Err: err}
		}
		if isBlankRow(row) {
			continue
		}

		line, _ := reader.FieldPos(0)
		parsed, rowErr := mapRow(row, idx, line)
		if err := fn(line, parsed, rowErr); err != nil {
			return nil, 0, err
		}
	}
	return header, src.BytesRead, nil
}

func mapRow(row []string, idx HeaderIndex, line int) (EquipmentRow, *Error) {
	out := EquipmentRow{
		Name: idx.Cell(row, ColumnName),
		Type: idx.Cell(row, ColumnType),
	}

	fields := []struct {
		column string
		dst    *float64
	}{
		{ColumnFlowrate, &out.Flowrate},
		{ColumnPressure, &out.Pressure},
		{ColumnTemperature, &out.Temperature},
	}
	for _, f := range fields {
		raw := idx.Cell(row, f.column)
		v, ok := ParseMeasurement(raw)
		if !ok {
			return EquipmentRow{}, invalidNumber(line, f.column, raw)
		}
		*f.dst = v
	}
	return out, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// String summarizes the dataset for logs.
func (d *Dataset) String() string {
	return fmt.Sprintf("dataset{columns=%d rows=%d bytes=%d}", len(d.Header), len(d.Rows), d.Bytes)
}
