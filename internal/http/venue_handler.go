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

var errInvalidVenueID = errors.New("A venue id is required.")

type venueService interface {
	ListVenues(ctx context.Context) ([]application.Venue, error)
	CreateVenue(ctx context.Context, principal application.Principal, input application.VenueInput) (application.Venue, error)
	UpdateVenue(ctx context.Context, principal application.Principal, id string, input application.VenueInput) (application.Venue, error)
	DeleteVenue(ctx context.Context, principal application.Principal, id string) error
}

// VenueHandler manages the venue catalog.
type VenueHandler struct {
	service   venueService
	responder responder
	logger    *slog.Logger
}

// NewVenueHandler constructs a VenueHandler.
func NewVenueHandler(service venueService, logger *slog.Logger) *VenueHandler {
	base := defaultLogger(logger)
	return &VenueHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *VenueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "VenueHandler", operation, attrs...)
}

// List returns all venues.
func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venues, err := h.service.ListVenues(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list venues", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]venueResponse, 0, len(venues))
	for _, venue := range venues {
		payload = append(payload, newVenueResponse(venue))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Create adds a venue to the catalog.
func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "uid", principal.UID)

	venue, err := h.service.CreateVenue(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create venue", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("venue_id", venue.ID).InfoContext(r.Context(), "venue created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newVenueResponse(venue))
}

// Update replaces the editable fields of a venue.
func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request) {
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
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVenueID)
		return
	}

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "uid", principal.UID, "venue_id", id)

	venue, err := h.service.UpdateVenue(r.Context(), principal, id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update venue", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "venue updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newVenueResponse(venue))
}

// Delete removes a venue.
func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVenueID)
		return
	}

	logger := h.log(r.Context(), "Delete", "uid", principal.UID, "venue_id", id)

	if err := h.service.DeleteVenue(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete venue", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "venue deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type venueRequest struct {
	Name     string `json:"name"`
	MapLink  string `json:"map_link"`
	ImageURL string `json:"image_url"`
}

func (req venueRequest) toInput() application.VenueInput {
	return application.VenueInput{
		Name:     req.Name,
		MapLink:  req.MapLink,
		ImageURL: req.ImageURL,
	}
}

type venueResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MapLink   string `json:"map_link,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newVenueResponse(venue application.Venue) venueResponse {
	return venueResponse{
		ID:        venue.ID,
		Name:      venue.Name,
		MapLink:   venue.MapLink,
		ImageURL:  venue.ImageURL,
		CreatedAt: venue.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: venue.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
