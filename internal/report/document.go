// Package report turns a batch into a printable document.
//
// Build produces a Document that holds only formatted strings, so every
// renderer shows identical numbers. Renderers write a Document to an
// io.Writer and produce the same bytes for the same Document.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

const (
	// Title heads every report.
	Title = "Chemical Equipment Report"

	// DefaultMaxDetailRows caps the equipment table.
	DefaultMaxDetailRows = 100

	// TimestampLayout formats the generation time.
	TimestampLayout = "2006-01-02 15:04:05 MST"
)

// DetailColumns are the equipment table headings.
var DetailColumns = []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}

// Row is one label/value line of the summary table.
type Row struct {
	Label string
	Value string
}

// Document is a fully formatted report.
type Document struct {
	Title       string
	BatchID     int64
	FileName    string
	GeneratedAt string
	Created     time.Time

	Summary []Row
	Types   []Row

	Details      [][]string
	TotalRecords int
	Notice       string
}

// Options control Build.
type Options struct {
	MaxDetailRows int
	GeneratedAt   time.Time
	Location      *time.Location
}

// Build formats src into a Document. Types are sorted by name and detail
// rows keep store order up to MaxDetailRows.
func Build(src *core.ReportSource, opts Options) Document {
	limit := opts.MaxDetailRows
	if limit <= 0 {
		limit = DefaultMaxDetailRows
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	generated := opts.GeneratedAt.In(loc)

	stats := src.Statistics
	doc := Document{
		Title:        Title,
		BatchID:      src.Batch.ID,
		FileName:     src.Batch.FileName,
		GeneratedAt:  generated.Format(TimestampLayout),
		Created:      generated,
		TotalRecords: len(src.Records),
		Summary: []Row{
			{"Total Equipment Count", strconv.Itoa(stats.TotalCount)},
			{"Average Flowrate", formatFloat(stats.AvgFlowrate) + " m³/hr"},
			{"Average Pressure", formatFloat(stats.AvgPressure) + " Pa"},
			{"Average Temperature", formatFloat(stats.AvgTemperature) + " °C"},
		},
	}

	types := make([]string, 0, len(stats.TypeDistribution))
	for t := range stats.TypeDistribution {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		doc.Types = append(doc.Types, Row{Label: t, Value: strconv.Itoa(stats.TypeDistribution[t])})
	}

	shown := src.Records
	if len(shown) > limit {
		shown = shown[:limit]
		doc.Notice = fmt.Sprintf("Showing first %d of %d equipment records.", limit, len(src.Records))
	}
	doc.Details = make([][]string, len(shown))
	for i, r := range shown {
		doc.Details[i] = []string{
			r.Name,
			r.Type,
			formatFloat(r.Flowrate),
			formatFloat(r.Pressure),
			formatFloat(r.Temperature),
		}
	}
	return doc
}

// FileName returns the download name for a batch report.
func FileName(batchID int64, format Format) string {
	return fmt.Sprintf("batch_%d_report.%s", batchID, format)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Format selects a renderer.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// ParseFormat accepts "pdf" and "html"; empty means pdf.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "application/pdf"
}

// Renderer writes a Document in one output format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}

// RendererFor returns the renderer for f.
func RendererFor(f Format) Renderer {
	if f == FormatHTML {
		return HTMLRenderer{}
	}
	return PDFRenderer{}
}
