package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

var generated = time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)

func source(n int) *core.ReportSource {
	types := []string{"Valve", "Pump", "Heat Exchanger"}
	records := make([]core.Equipment, n)
	for i := range records {
		records[i] = core.Equipment{
			ID:          int64(i + 1),
			BatchID:     7,
			Name:        fmt.Sprintf("EQ-%03d", i+1),
			Type:        types[i%len(types)],
			Flowrate:    float64(100 + i),
			Pressure:    5.25,
			Temperature: 80.5,
		}
	}
	return &core.ReportSource{
		Batch:      core.Batch{ID: 7, FileName: "plant <a>.csv", CreatedAt: generated.Add(-time.Hour)},
		Records:    records,
		Statistics: core.StatsFromRecords(records),
	}
}

func TestBuild(t *testing.T) {
	doc := Build(source(3), Options{GeneratedAt: generated})

	assert.Equal(t, Title, doc.Title)
	assert.Equal(t, int64(7), doc.BatchID)
	assert.Equal(t, "2024-03-09 14:30:05 UTC", doc.GeneratedAt)
	assert.Equal(t, []Row{
		{"Total Equipment Count", "3"},
		{"Average Flowrate", "101.00 m³/hr"},
		{"Average Pressure", "5.25 Pa"},
		{"Average Temperature", "80.50 °C"},
	}, doc.Summary)
	assert.Equal(t, []Row{{"Heat Exchanger", "1"}, {"Pump", "1"}, {"Valve", "1"}}, doc.Types)

	require.Len(t, doc.Details, 3)
	assert.Equal(t, []string{"EQ-001", "Valve", "100.00", "5.25", "80.50"}, doc.Details[0])
	assert.Empty(t, doc.Notice)
}

func TestBuildCapsDetailRows(t *testing.T) {
	doc := Build(source(150), Options{GeneratedAt: generated})

	require.Len(t, doc.Details, 100)
	assert.Equal(t, 150, doc.TotalRecords)
	assert.Equal(t, "Showing first 100 of 150 equipment records.", doc.Notice)
	assert.Equal(t, "EQ-001", doc.Details[0][0])
	assert.Equal(t, "EQ-100", doc.Details[99][0])
	assert.Equal(t, "150", doc.Summary[0].Value, "summary covers every record")
}

func TestBuildTimezone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	doc := Build(source(1), Options{GeneratedAt: generated, Location: loc, MaxDetailRows: 1})
	assert.Equal(t, "2024-03-09 20:00:05 IST", doc.GeneratedAt)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPDF, false},
		{"pdf", FormatPDF, false},
		{"html", FormatHTML, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "batch_12_report.pdf", FileName(12, FormatPDF))
	assert.Equal(t, "batch_12_report.html", FileName(12, FormatHTML))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}

func TestPDFRenderer(t *testing.T) {
	doc := Build(source(150), Options{GeneratedAt: generated})

	var a, b bytes.Buffer
	require.NoError(t, PDFRenderer{}.Render(&a, doc))
	// Cross a wall-clock second so no date can come from time.Now.
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, PDFRenderer{}.Render(&b, doc))

	assert.True(t, bytes.HasPrefix(a.Bytes(), []byte("%PDF-")))
	assert.Equal(t, a.Bytes(), b.Bytes(), "output is deterministic")
	assert.Contains(t, a.String(), "Chemical Equipment Report")
	assert.Contains(t, a.String(), "/CreationDate (D:20240309143005")
	assert.Contains(t, a.String(), "/ModDate (D:20240309143005")
}

func TestHTMLRenderer(t *testing.T) {
	doc := Build(source(150), Options{GeneratedAt: generated})

	var a, b bytes.Buffer
	require.NoError(t, HTMLRenderer{}.Render(&a, doc))
	require.NoError(t, HTMLRenderer{}.Render(&b, doc))
	assert.Equal(t, a.String(), b.String())

	out := a.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "@page")
	assert.Contains(t, out, "plant &lt;a&gt;.csv")
	assert.Contains(t, out, "Showing first 100 of 150 equipment records.")
	assert.Contains(t, out, "101.00 m³/hr")
	assert.Equal(t, 100, strings.Count(out, `<td>EQ-`))
}

func TestRendererFor(t *testing.T) {
	assert.IsType(t, PDFRenderer{}, RendererFor(FormatPDF))
	assert.IsType(t, HTMLRenderer{}, RendererFor(FormatHTML))
}
