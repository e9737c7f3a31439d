package core

import (
	"math"
	"strconv"
	"strings"
)

// HeaderIndex maps column names to their position in the CSV row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row. Names are
// trimmed but keep their case. The first occurrence of a duplicate wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// Cell returns the value at column name, or "" when the row is short.
func (h HeaderIndex) Cell(row []string, name string) string {
	pos, ok := h[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// ParseMeasurement parses a numeric cell. Surrounding whitespace is
// ignored; anything else strconv.ParseFloat refuses is invalid, including
// quoted ('10') and formula (="10") cells. Empty, NaN and infinite values
// are rejected.
func ParseMeasurement(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
