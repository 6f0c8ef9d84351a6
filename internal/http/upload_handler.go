package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/donnachab/jam/internal/application"
)

type uploadService interface {
	GenerateGrant(ctx context.Context, principal application.Principal, fileName, contentType string) (application.UploadGrant, error)
}

// UploadHandler issues signed upload grants to admins.
type UploadHandler struct {
	service   uploadService
	metrics   *Metrics
	responder responder
	logger    *slog.Logger
}

// NewUploadHandler constructs an UploadHandler. metrics may be nil.
func NewUploadHandler(service uploadService, metrics *Metrics, logger *slog.Logger) *UploadHandler {
	base := defaultLogger(logger)
	return &UploadHandler{service: service, metrics: metrics, responder: newResponder(base), logger: base}
}

func (h *UploadHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UploadHandler", operation, attrs...)
}

// CreateGrant validates the requested file and returns a signed, short-lived
// upload URL.
func (h *UploadHandler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	var req uploadGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateGrant", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode grant request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateGrant", "uid", principal.UID, "file_name", req.FileName)

	grant, err := h.service.GenerateGrant(r.Context(), principal, req.FileName, req.ContentType)
	if err != nil {
		logger.ErrorContext(r.Context(), "grant refused", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.metrics.RecordUploadGrant()
	logger.With("path", grant.Path).InfoContext(r.Context(), "upload grant issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, uploadGrantResponse{
		URL:       grant.URL,
		Path:      grant.Path,
		ExpiresAt: grant.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

type uploadGrantRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type uploadGrantResponse struct {
	URL       string `json:"url"`
	Path      string `json:"path"`
	ExpiresAt string `json:"expires_at"`
}
