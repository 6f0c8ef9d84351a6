package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// GalleryStore persists gallery photos.
type GalleryStore interface {
	CreateGalleryPhoto(ctx context.Context, photo GalleryPhoto) (GalleryPhoto, error)
	DeleteGalleryPhoto(ctx context.Context, id string) error
	ListGalleryPhotos(ctx context.Context) ([]GalleryPhoto, error)
}

// GalleryService manages the photo gallery. Photos are immutable once added;
// the only mutation is removal.
type GalleryService struct {
	photos      GalleryStore
	admin       AdminVerifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewGalleryService constructs a GalleryService with the provided dependencies.
func NewGalleryService(photos GalleryStore, admin AdminVerifier, idGenerator func() string, now func() time.Time) *GalleryService {
	return NewGalleryServiceWithLogger(photos, admin, idGenerator, now, nil)
}

// NewGalleryServiceWithLogger constructs a GalleryService with a specified logger.
func NewGalleryServiceWithLogger(photos GalleryStore, admin AdminVerifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *GalleryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &GalleryService{
		photos:      photos,
		admin:       admin,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *GalleryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "GalleryService", operation, attrs...)
}

// ListGalleryPhotos returns every photo in the gallery.
func (s *GalleryService) ListGalleryPhotos(ctx context.Context) ([]GalleryPhoto, error) {
	if s == nil || s.photos == nil {
		return nil, fmt.Errorf("gallery store not configured")
	}
	return s.photos.ListGalleryPhotos(ctx)
}

// AddGalleryPhoto records a new photo.
func (s *GalleryService) AddGalleryPhoto(ctx context.Context, principal Principal, input GalleryPhotoInput) (photo GalleryPhoto, err error) {
	if s == nil || s.photos == nil {
		err = fmt.Errorf("gallery store not configured")
		return
	}

	logger := s.loggerWith(ctx, "AddGalleryPhoto", "uid", principal.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add gallery photo", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("photo_id", photo.ID).InfoContext(ctx, "gallery photo added")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var normalized GalleryPhotoInput
	normalized, err = validateGalleryInput(input)
	if err != nil {
		return
	}

	photo, err = s.photos.CreateGalleryPhoto(ctx, GalleryPhoto{
		ID:        s.idGenerator(),
		URL:       normalized.URL,
		Caption:   normalized.Caption,
		CreatedAt: s.now(),
	})
	return
}

// DeleteGalleryPhoto removes a photo permanently.
func (s *GalleryService) DeleteGalleryPhoto(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.photos == nil {
		return fmt.Errorf("gallery store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteGalleryPhoto", "uid", principal.UID, "photo_id", id)

	if err := s.requireAdmin(ctx, principal); err != nil {
		logger.ErrorContext(ctx, "admin check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.photos.DeleteGalleryPhoto(ctx, strings.TrimSpace(id)); err != nil {
		logger.ErrorContext(ctx, "failed to delete gallery photo", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "gallery photo deleted")
	return nil
}

func (s *GalleryService) requireAdmin(ctx context.Context, principal Principal) error {
	if s.admin == nil {
		return fmt.Errorf("admin verifier not configured")
	}
	return s.admin.VerifyAdminAccess(ctx, principal.UID)
}

func validateGalleryInput(input GalleryPhotoInput) (GalleryPhotoInput, error) {
	normalized := GalleryPhotoInput{
		URL:     strings.TrimSpace(input.URL),
		Caption: strings.TrimSpace(input.Caption),
	}

	vErr := &ValidationError{}
	if normalized.URL == "" {
		vErr.add("url", "url is required")
	} else if _, err := url.ParseRequestURI(normalized.URL); err != nil {
		vErr.add("url", "must be a valid URL")
	}
	if normalized.Caption == "" {
		vErr.add("caption", "caption is required")
	}
	if vErr.HasErrors() {
		return GalleryPhotoInput{}, vErr
	}
	return normalized, nil
}
