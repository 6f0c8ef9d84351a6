package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/donnachab/jam/internal/application"
)

type identityService interface {
	CreateIdentity(ctx context.Context) (application.Identity, error)
}

// IdentityHandler issues anonymous identities. This is the only endpoint that
// does not require a bearer token.
type IdentityHandler struct {
	service   identityService
	responder responder
	logger    *slog.Logger
}

// NewIdentityHandler constructs an IdentityHandler.
func NewIdentityHandler(service identityService, logger *slog.Logger) *IdentityHandler {
	base := defaultLogger(logger)
	return &IdentityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *IdentityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "IdentityHandler", operation, attrs...)
}

// Create mints a new anonymous identity and returns its bearer token.
func (h *IdentityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Create")

	identity, err := h.service.CreateIdentity(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create identity", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("uid", identity.UID).InfoContext(r.Context(), "identity issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, identityResponse{
		UID:       identity.UID,
		Token:     identity.Token,
		CreatedAt: identity.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

type identityResponse struct {
	UID       string `json:"uid"`
	Token     string `json:"token"`
	CreatedAt string `json:"created_at"`
}
