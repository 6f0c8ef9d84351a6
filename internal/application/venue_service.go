package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// VenueStore persists the venue catalog.
type VenueStore interface {
	CreateVenue(ctx context.Context, venue Venue) (Venue, error)
	GetVenue(ctx context.Context, id string) (Venue, error)
	UpdateVenue(ctx context.Context, venue Venue) (Venue, error)
	DeleteVenue(ctx context.Context, id string) error
	ListVenues(ctx context.Context) ([]Venue, error)
}

// VenueService manages the venue catalog jams reference by name.
type VenueService struct {
	venues      VenueStore
	admin       AdminVerifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewVenueService constructs a VenueService with the provided dependencies.
func NewVenueService(venues VenueStore, admin AdminVerifier, idGenerator func() string, now func() time.Time) *VenueService {
	return NewVenueServiceWithLogger(venues, admin, idGenerator, now, nil)
}

// NewVenueServiceWithLogger constructs a VenueService with a specified logger.
func NewVenueServiceWithLogger(venues VenueStore, admin AdminVerifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *VenueService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &VenueService{
		venues:      venues,
		admin:       admin,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *VenueService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "VenueService", operation, attrs...)
}

// ListVenues returns the venue catalog.
func (s *VenueService) ListVenues(ctx context.Context) ([]Venue, error) {
	if s == nil || s.venues == nil {
		return nil, fmt.Errorf("venue store not configured")
	}
	return s.venues.ListVenues(ctx)
}

// CreateVenue adds a venue to the catalog.
func (s *VenueService) CreateVenue(ctx context.Context, principal Principal, input VenueInput) (venue Venue, err error) {
	if s == nil || s.venues == nil {
		err = fmt.Errorf("venue store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateVenue", "uid", principal.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create venue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("venue_id", venue.ID).InfoContext(ctx, "venue created")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var normalized VenueInput
	normalized, err = validateVenueInput(input)
	if err != nil {
		return
	}

	now := s.now()
	venue, err = s.venues.CreateVenue(ctx, Venue{
		ID:        s.idGenerator(),
		Name:      normalized.Name,
		MapLink:   normalized.MapLink,
		ImageURL:  normalized.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return
}

// UpdateVenue replaces the editable fields of a venue.
func (s *VenueService) UpdateVenue(ctx context.Context, principal Principal, id string, input VenueInput) (venue Venue, err error) {
	if s == nil || s.venues == nil {
		err = fmt.Errorf("venue store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateVenue", "uid", principal.UID, "venue_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update venue", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "venue updated")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var existing Venue
	existing, err = s.venues.GetVenue(ctx, strings.TrimSpace(id))
	if err != nil {
		return
	}

	var normalized VenueInput
	normalized, err = validateVenueInput(input)
	if err != nil {
		return
	}

	existing.Name = normalized.Name
	existing.MapLink = normalized.MapLink
	existing.ImageURL = normalized.ImageURL
	existing.UpdatedAt = s.now()

	venue, err = s.venues.UpdateVenue(ctx, existing)
	return
}

// DeleteVenue removes a venue from the catalog.
func (s *VenueService) DeleteVenue(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.venues == nil {
		return fmt.Errorf("venue store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteVenue", "uid", principal.UID, "venue_id", id)

	if err := s.requireAdmin(ctx, principal); err != nil {
		logger.ErrorContext(ctx, "admin check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.venues.DeleteVenue(ctx, strings.TrimSpace(id)); err != nil {
		logger.ErrorContext(ctx, "failed to delete venue", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "venue deleted")
	return nil
}

func (s *VenueService) requireAdmin(ctx context.Context, principal Principal) error {
	if s.admin == nil {
		return fmt.Errorf("admin verifier not configured")
	}
	return s.admin.VerifyAdminAccess(ctx, principal.UID)
}

func validateVenueInput(input VenueInput) (VenueInput, error) {
	normalized := VenueInput{
		Name:     strings.TrimSpace(input.Name),
		MapLink:  strings.TrimSpace(input.MapLink),
		ImageURL: strings.TrimSpace(input.ImageURL),
	}

	vErr := &ValidationError{}
	if normalized.Name == "" {
		vErr.add("name", "name is required")
	}
	if normalized.MapLink != "" {
		if _, err := url.ParseRequestURI(normalized.MapLink); err != nil {
			vErr.add("map_link", "must be a valid URL")
		}
	}
	if normalized.ImageURL != "" {
		if _, err := url.ParseRequestURI(normalized.ImageURL); err != nil {
			vErr.add("image_url", "must be a valid URL")
		}
	}
	if vErr.HasErrors() {
		return VenueInput{}, vErr
	}
	return normalized, nil
}
