package http

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wayfarelab/wayfare/internal/service"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/httputil"
)

// MemoryHandler handles vacation photo endpoints. Uploads come in as
// multipart form data with a "photo" file part.
type MemoryHandler struct {
	service        *service.MemoryService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewMemoryHandler creates a new memory HTTP handler.
func NewMemoryHandler(svc *service.MemoryService, maxUploadBytes int64, logger *slog.Logger) *MemoryHandler {
	return &MemoryHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload handles POST /api/vacations/{id}/memories.
func (h *MemoryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	vacationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart form or upload too large"), h.logger)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("photo file is required"), h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("failed to read upload"), h.logger)
		return
	}

	input := service.UploadMemoryInput{
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Caption:     r.FormValue("caption"),
	}
	if takenOn := r.FormValue("taken_on"); takenOn != "" {
		t, err := time.Parse("2006-01-02", takenOn)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("taken_on must be YYYY-MM-DD"), h.logger)
			return
		}
		input.TakenOn = &t
	}

	m, err := h.service.Upload(r.Context(), p.UserID, vacationID.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: m})
}

// List handles GET /api/vacations/{id}/memories.
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	vacationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	memories, err := h.service.List(r.Context(), p.UserID, vacationID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: memories})
}

// Delete handles DELETE /api/memories/{id}.
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p.UserID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
