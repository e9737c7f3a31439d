package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// UploadResponse is returned for a committed batch.
type UploadResponse struct {
	Message    string          `json:"message"`
	BatchID    int64           `json:"batch_id"`
	Statistics core.Statistics `json:"statistics"`
}

// BatchListItem is one entry of the recent batch listing.
type BatchListItem struct {
	ID             int64  `json:"id"`
	FileName       string `json:"filename"`
	UploadedAt     string `json:"uploaded_at"`
	EquipmentCount int64  `json:"equipment_count"`
}

// handleUpload ingests the multipart "file" field as a new batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, name, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	ctx := withClientIP(r.Context(), r)
	result, err := s.service.Ingest(ctx, name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, UploadResponse{
		Message:    "File processed successfully",
		BatchID:    result.BatchID,
		Statistics: result.Statistics,
	})
}

// handlePreview validates the multipart "file" field without storing it.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	file, name, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.service.Preview(r.Context(), name, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// formUpload closes the uploaded file and removes the form's temporary files.
type formUpload struct {
	multipart.File
	form *multipart.Form
}

func (f formUpload) Close() error {
	err := f.File.Close()
	_ = f.form.RemoveAll()
	return err
}

// formFile parses the size-limited multipart body and opens its "file"
// field. Closing the result releases the whole form.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: %w",
				core.NewBadInput("upload", fmt.Sprintf("file too large (limit %d bytes)", maxSize)), err)
		}
		return nil, "", core.NewBadInput("upload", "no file provided: "+err.Error())
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		return nil, "", core.NewBadInput("upload", "no file provided")
	}
	return formUpload{File: file, form: r.MultipartForm}, header.Filename, nil
}

// handleListBatches returns the retained batches, newest first.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.ListRecentBatches(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	items := make([]BatchListItem, len(batches))
	for i, b := range batches {
		items[i] = BatchListItem{
			ID:             b.ID,
			FileName:       b.FileName,
			UploadedAt:     formatTime(b.CreatedAt),
			EquipmentCount: b.EquipmentCount,
		}
	}
	writeJSON(w, items)
}

// HealthResponse reports store reachability and upload slot usage.
type HealthResponse struct {
	Status  string                   `json:"status"`
	Error   string                   `json:"error,omitempty"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

// handleHealth pings the record store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Uploads: s.service.UploadLimiterStatus()}
	if err := s.service.Ping(r.Context()); err != nil {
		slog.Warn("health check failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		resp.Status = "unavailable"
		resp.Error = err.Error()
		writeJSONStatus(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, resp)
}
