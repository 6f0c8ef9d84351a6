package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/donnachab/jam/internal/application"
)

type adminService interface {
	SubmitPin(ctx context.Context, params application.SubmitPinParams) (application.SubmitPinResult, error)
	RevokeAdmin(ctx context.Context, uid string) error
}

// AdminHandler elevates and revokes admin sessions.
type AdminHandler struct {
	service   adminService
	metrics   *Metrics
	responder responder
	logger    *slog.Logger
}

// NewAdminHandler constructs an AdminHandler. metrics may be nil.
func NewAdminHandler(service adminService, metrics *Metrics, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{service: service, metrics: metrics, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

// SubmitPin verifies the admin PIN and elevates the caller's identity.
func (h *AdminHandler) SubmitPin(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	var req submitPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SubmitPin", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode pin request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SubmitPin", "uid", principal.UID)

	result, err := h.service.SubmitPin(r.Context(), application.SubmitPinParams{
		Principal: principal,
		PIN:       req.PIN,
	})
	if err != nil {
		h.metrics.RecordPinSubmission(pinOutcome(err))
		logger.ErrorContext(r.Context(), "pin rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.metrics.RecordPinSubmission("accepted")
	logger.InfoContext(r.Context(), "admin session granted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, submitPinResponse{
		Admin:     true,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

// RevokeSession drops the caller's admin claim. Revoking an absent claim still
// succeeds.
func (h *AdminHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	logger := h.log(r.Context(), "RevokeSession", "uid", principal.UID)

	if err := h.service.RevokeAdmin(r.Context(), principal.UID); err != nil {
		logger.ErrorContext(r.Context(), "failed to revoke admin session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "admin session revoked")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func pinOutcome(err error) string {
	var vErr *application.ValidationError
	switch {
	case errors.Is(err, application.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, application.ErrPermissionDenied):
		return "rejected"
	case errors.As(err, &vErr):
		return "invalid"
	default:
		return "error"
	}
}

type submitPinRequest struct {
	PIN string `json:"pin"`
}

type submitPinResponse struct {
	Admin     bool   `json:"admin"`
	ExpiresAt string `json:"expires_at"`
}
