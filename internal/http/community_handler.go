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

var errInvalidItemID = errors.New("A community item id is required.")

type communityService interface {
	ListCommunityItems(ctx context.Context) ([]application.CommunityItem, error)
	CreateCommunityItem(ctx context.Context, principal application.Principal, input application.CommunityItemInput) (application.CommunityItem, error)
	UpdateCommunityItem(ctx context.Context, principal application.Principal, id string, input application.CommunityItemInput) (application.CommunityItem, error)
	DeleteCommunityItem(ctx context.Context, principal application.Principal, id string) error
}

// CommunityHandler manages community and charity highlights.
type CommunityHandler struct {
	service   communityService
	responder responder
	logger    *slog.Logger
}

// NewCommunityHandler constructs a CommunityHandler.
func NewCommunityHandler(service communityService, logger *slog.Logger) *CommunityHandler {
	base := defaultLogger(logger)
	return &CommunityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CommunityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CommunityHandler", operation, attrs...)
}

// List returns every highlight with rendered descriptions.
func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items, err := h.service.ListCommunityItems(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list community items", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]communityItemResponse, 0, len(items))
	for _, item := range items {
		payload = append(payload, newCommunityItemResponse(item))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Create records a new highlight.
func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	var req communityItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "uid", principal.UID)

	item, err := h.service.CreateCommunityItem(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create community item", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("item_id", item.ID).InfoContext(r.Context(), "community item created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newCommunityItemResponse(item))
}

// Update replaces the editable fields of a highlight.
func (h *CommunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	id, ok := ResourceIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	var req communityItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "uid", principal.UID, "item_id", id)

	item, err := h.service.UpdateCommunityItem(r.Context(), principal, id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update community item", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "community item updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newCommunityItemResponse(item))
}

// Delete removes a highlight.
func (h *CommunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	id, ok := ResourceIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidItemID)
		return
	}

	logger := h.log(r.Context(), "Delete", "uid", principal.UID, "item_id", id)

	if err := h.service.DeleteCommunityItem(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete community item", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "community item deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type communityItemRequest struct {
	Type         string `json:"type"`
	Headline     string `json:"headline"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	AmountRaised string `json:"amount_raised"`
	CharityName  string `json:"charity_name"`
}

func (req communityItemRequest) toInput() application.CommunityItemInput {
	return application.CommunityItemInput{
		Type:         req.Type,
		Headline:     req.Headline,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		AmountRaised: req.AmountRaised,
		CharityName:  req.CharityName,
	}
}

type communityItemResponse struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Headline        string `json:"headline,omitempty"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	AmountRaised    string `json:"amount_raised,omitempty"`
	CharityName     string `json:"charity_name,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func newCommunityItemResponse(item application.CommunityItem) communityItemResponse {
	return communityItemResponse{
		ID:              item.ID,
		Type:            item.Type,
		Headline:        item.Headline,
		Description:     item.Description,
		DescriptionHTML: item.DescriptionHTML,
		ImageURL:        item.ImageURL,
		AmountRaised:    item.AmountRaised,
		CharityName:     item.CharityName,
		CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
