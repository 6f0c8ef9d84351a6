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

var errInvalidPhotoID = errors.New("A photo id is required.")

type galleryService interface {
	ListGalleryPhotos(ctx context.Context) ([]application.GalleryPhoto, error)
	AddGalleryPhoto(ctx context.Context, principal application.Principal, input application.GalleryPhotoInput) (application.GalleryPhoto, error)
	DeleteGalleryPhoto(ctx context.Context, principal application.Principal, id string) error
}

// GalleryHandler manages the photo gallery.
type GalleryHandler struct {
	service   galleryService
	responder responder
	logger    *slog.Logger
}

// NewGalleryHandler constructs a GalleryHandler.
func NewGalleryHandler(service galleryService, logger *slog.Logger) *GalleryHandler {
	base := defaultLogger(logger)
	return &GalleryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *GalleryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GalleryHandler", operation, attrs...)
}

// List returns every photo in the gallery.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	photos, err := h.service.ListGalleryPhotos(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list gallery photos", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]galleryPhotoResponse, 0, len(photos))
	for _, photo := range photos {
		payload = append(payload, newGalleryPhotoResponse(photo))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Create records a new photo.
func (h *GalleryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	var req galleryPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "uid", principal.UID)

	photo, err := h.service.AddGalleryPhoto(r.Context(), principal, application.GalleryPhotoInput{URL: req.URL, Caption: req.Caption})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to add gallery photo", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("photo_id", photo.ID).InfoContext(r.Context(), "gallery photo added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newGalleryPhotoResponse(photo))
}

// Delete removes a photo.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPhotoID)
		return
	}

	logger := h.log(r.Context(), "Delete", "uid", principal.UID, "photo_id", id)

	if err := h.service.DeleteGalleryPhoto(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete gallery photo", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "gallery photo deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type galleryPhotoRequest struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

type galleryPhotoResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	CreatedAt string `json:"created_at"`
}

func newGalleryPhotoResponse(photo application.GalleryPhoto) galleryPhotoResponse {
	return galleryPhotoResponse{
		ID:        photo.ID,
		URL:       photo.URL,
		Caption:   photo.Caption,
		CreatedAt: photo.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
