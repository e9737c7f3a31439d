package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/export"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/report"
)

// BatchAnalysisResponse carries statistics recomputed from stored records.
type BatchAnalysisResponse struct {
	BatchID    int64           `json:"batch_id"`
	FileName   string          `json:"filename"`
	CreatedAt  string          `json:"created_at"`
	Statistics core.Statistics `json:"statistics"`
}

// handleBatchAnalysis returns a batch's statistics.
func (s *Server) handleBatchAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := batchIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	b, stats, err := s.service.BatchStatistics(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, BatchAnalysisResponse{
		BatchID:    b.ID,
		FileName:   b.FileName,
		CreatedAt:  formatTime(b.CreatedAt),
		Statistics: stats,
	})
}

// handleExportPDF downloads the PDF report.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, report.FormatPDF)
}

// handleBatchReport serves the report in the format named by ?format=.
func (s *Server) handleBatchReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, core.NewBadInput("report", err.Error()))
		return
	}
	s.serveReport(w, r, format)
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, format report.Format) {
	id, err := batchIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	key := fmt.Sprintf("%d/%s", id, format)
	v, err, _ := s.reports.Do(key, func() (any, error) {
		// Shared by every waiting caller, so it must outlive the first one.
		ctx := context.WithoutCancel(r.Context())
		src, err := s.service.ReportSource(ctx, id)
		if err != nil {
			return nil, err
		}
		doc := report.Build(src, report.Options{
			MaxDetailRows: s.cfg.Report.MaxDetailRows,
			GeneratedAt:   s.now(),
			Location:      s.cfg.Report.Location(),
		})
		var buf bytes.Buffer
		if err := report.RendererFor(format).Render(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body := v.([]byte)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	disposition := "inline"
	if format == report.FormatPDF {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, report.FileName(id, format)))
	_, _ = w.Write(body)
}

// handleBatchExport downloads a batch's records as CSV or Parquet.
func (s *Server) handleBatchExport(w http.ResponseWriter, r *http.Request) {
	id, err := batchIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, core.NewBadInput("export", err.Error()))
		return
	}

	_, records, err := s.service.BatchRecords(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		s.respondError(w, r, fmt.Errorf("export batch %d: %w", id, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(id, format)))
	_, _ = w.Write(buf.Bytes())
}

// batchIDParam parses the {batchID} route parameter.
func batchIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "batchID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewBadInput("batch", fmt.Sprintf("invalid batch id %q", raw))
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
