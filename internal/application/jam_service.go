package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/donnachab/jam/internal/schedule"
)

// JamStore persists confirmed jam occurrences.
type JamStore interface {
	CreateJam(ctx context.Context, jam Jam) (Jam, error)
	GetJam(ctx context.Context, id string) (Jam, error)
	UpdateJam(ctx context.Context, jam Jam) (Jam, error)
	DeleteJam(ctx context.Context, id string) error
	ListJams(ctx context.Context) ([]Jam, error)
}

// SiteConfigStore persists the singleton schedule configuration record.
type SiteConfigStore interface {
	GetSiteConfig(ctx context.Context) (SiteConfig, error)
	SetSiteConfig(ctx context.Context, cfg SiteConfig) (SiteConfig, error)
}

// JamService coordinates jam occurrence CRUD and the upcoming-schedule
// projection. Mutations require a current admin claim; reads are public.
type JamService struct {
	jams        JamStore
	config      SiteConfigStore
	admin       AdminVerifier
	projector   *schedule.Projector
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewJamService constructs a JamService with the provided dependencies.
func NewJamService(jams JamStore, config SiteConfigStore, admin AdminVerifier, projector *schedule.Projector, idGenerator func() string, now func() time.Time) *JamService {
	return NewJamServiceWithLogger(jams, config, admin, projector, idGenerator, now, nil)
}

// NewJamServiceWithLogger constructs a JamService with a specified logger.
func NewJamServiceWithLogger(jams JamStore, config SiteConfigStore, admin AdminVerifier, projector *schedule.Projector, idGenerator func() string, now func() time.Time, logger *slog.Logger) *JamService {
	if projector == nil {
		projector = schedule.NewProjector(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &JamService{
		jams:        jams,
		config:      config,
		admin:       admin,
		projector:   projector,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *JamService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "JamService", operation, attrs...)
}

// UpcomingSchedule projects the next entries from confirmed jams and the site
// defaults, as of the service clock. Records with unparsable dates are logged
// and skipped rather than failing the projection.
func (s *JamService) UpcomingSchedule(ctx context.Context) ([]schedule.Entry, error) {
	if s == nil {
		return nil, fmt.Errorf("JamService is nil")
	}
	if s.jams == nil || s.config == nil {
		return nil, fmt.Errorf("jam stores not configured")
	}

	logger := s.loggerWith(ctx, "UpcomingSchedule")

	jams, err := s.jams.ListJams(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list jams", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	cfg, err := s.config.GetSiteConfig(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.ErrorContext(ctx, "failed to load site config", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	confirmed := make([]schedule.ConfirmedJam, 0, len(jams))
	for _, jam := range jams {
		confirmed = append(confirmed, schedule.ConfirmedJam{
			ID:        jam.ID,
			Date:      jam.Date,
			Day:       jam.Day,
			Venue:     jam.Venue,
			Time:      jam.Time,
			MapLink:   jam.MapLink,
			Cancelled: jam.Cancelled,
		})
	}

	entries, dropped := s.projector.Project(confirmed, schedule.Config{
		DefaultDay:     cfg.DefaultDay,
		DefaultVenue:   cfg.DefaultVenue,
		DefaultTime:    cfg.DefaultTime,
		DefaultMapLink: cfg.DefaultMapLink,
	}, s.now())

	for _, jam := range dropped {
		logger.WarnContext(ctx, "dropping jam with unparsable date", "jam_id", jam.ID, "date", jam.Date)
	}

	return entries, nil
}

// ListJams returns every confirmed jam occurrence.
func (s *JamService) ListJams(ctx context.Context) ([]Jam, error) {
	if s == nil || s.jams == nil {
		return nil, fmt.Errorf("jam store not configured")
	}
	return s.jams.ListJams(ctx)
}

// CreateJam records a new confirmed jam occurrence.
func (s *JamService) CreateJam(ctx context.Context, principal Principal, input JamInput) (jam Jam, err error) {
	if s == nil || s.jams == nil {
		err = fmt.Errorf("jam store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateJam", "uid", principal.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create jam", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("jam_id", jam.ID).InfoContext(ctx, "jam created")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var normalized JamInput
	normalized, err = s.validateInput(input)
	if err != nil {
		return
	}

	now := s.now()
	jam, err = s.jams.CreateJam(ctx, Jam{
		ID:        s.idGenerator(),
		Date:      normalized.Date,
		Day:       normalized.Day,
		Venue:     normalized.Venue,
		Time:      normalized.Time,
		MapLink:   normalized.MapLink,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return
}

// UpdateJam replaces the editable fields of an existing jam.
func (s *JamService) UpdateJam(ctx context.Context, principal Principal, id string, input JamInput) (jam Jam, err error) {
	if s == nil || s.jams == nil {
		err = fmt.Errorf("jam store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateJam", "uid", principal.UID, "jam_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update jam", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "jam updated")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var existing Jam
	existing, err = s.jams.GetJam(ctx, strings.TrimSpace(id))
	if err != nil {
		return
	}

	var normalized JamInput
	normalized, err = s.validateInput(input)
	if err != nil {
		return
	}

	existing.Date = normalized.Date
	existing.Day = normalized.Day
	existing.Venue = normalized.Venue
	existing.Time = normalized.Time
	existing.MapLink = normalized.MapLink
	existing.UpdatedAt = s.now()

	jam, err = s.jams.UpdateJam(ctx, existing)
	return
}

// CancelJam soft-deletes a jam. The occurrence stays visible in the
// projection with a cancelled marker and still occupies its date.
func (s *JamService) CancelJam(ctx context.Context, principal Principal, id string) error {
	return s.setCancelled(ctx, principal, id, true, "CancelJam")
}

// ReinstateJam clears the cancelled flag set by CancelJam.
func (s *JamService) ReinstateJam(ctx context.Context, principal Principal, id string) error {
	return s.setCancelled(ctx, principal, id, false, "ReinstateJam")
}

func (s *JamService) setCancelled(ctx context.Context, principal Principal, id string, cancelled bool, operation string) error {
	if s == nil || s.jams == nil {
		return fmt.Errorf("jam store not configured")
	}

	logger := s.loggerWith(ctx, operation, "uid", principal.UID, "jam_id", id)

	if err := s.requireAdmin(ctx, principal); err != nil {
		logger.ErrorContext(ctx, "admin check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	jam, err := s.jams.GetJam(ctx, strings.TrimSpace(id))
	if err != nil {
		logger.ErrorContext(ctx, "failed to load jam", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	jam.Cancelled = cancelled
	jam.UpdatedAt = s.now()
	if _, err := s.jams.UpdateJam(ctx, jam); err != nil {
		logger.ErrorContext(ctx, "failed to store jam", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "jam cancellation state changed", "cancelled", cancelled)
	return nil
}

// DeleteJam removes a jam permanently.
func (s *JamService) DeleteJam(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.jams == nil {
		return fmt.Errorf("jam store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteJam", "uid", principal.UID, "jam_id", id)

	if err := s.requireAdmin(ctx, principal); err != nil {
		logger.ErrorContext(ctx, "admin check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.jams.DeleteJam(ctx, strings.TrimSpace(id)); err != nil {
		logger.ErrorContext(ctx, "failed to delete jam", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "jam deleted")
	return nil
}

// GetSiteConfig returns the schedule defaults. A missing record yields the
// zero config so the projector can fall back to its literals.
func (s *JamService) GetSiteConfig(ctx context.Context) (SiteConfig, error) {
	if s == nil || s.config == nil {
		return SiteConfig{}, fmt.Errorf("config store not configured")
	}
	cfg, err := s.config.GetSiteConfig(ctx)
	if errors.Is(err, ErrNotFound) {
		return SiteConfig{}, nil
	}
	return cfg, err
}

// UpdateSiteConfig replaces the schedule defaults.
func (s *JamService) UpdateSiteConfig(ctx context.Context, principal Principal, cfg SiteConfig) (stored SiteConfig, err error) {
	if s == nil || s.config == nil {
		err = fmt.Errorf("config store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSiteConfig", "uid", principal.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update site config", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "site config updated")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	vErr := &ValidationError{}
	if link := strings.TrimSpace(cfg.DefaultMapLink); link != "" {
		if _, parseErr := url.ParseRequestURI(link); parseErr != nil {
			vErr.add("default_map_link", "must be a valid URL")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	cfg.UpdatedAt = s.now()
	stored, err = s.config.SetSiteConfig(ctx, cfg)
	return
}

func (s *JamService) requireAdmin(ctx context.Context, principal Principal) error {
	if s.admin == nil {
		return fmt.Errorf("admin verifier not configured")
	}
	return s.admin.VerifyAdminAccess(ctx, principal.UID)
}

func (s *JamService) validateInput(input JamInput) (JamInput, error) {
	normalized := JamInput{
		Date:    strings.TrimSpace(input.Date),
		Day:     strings.TrimSpace(input.Day),
		Venue:   strings.TrimSpace(input.Venue),
		Time:    strings.TrimSpace(input.Time),
		MapLink: strings.TrimSpace(input.MapLink),
	}

	vErr := &ValidationError{}
	if normalized.Date == "" {
		vErr.add("date", "date is required")
	}
	if normalized.Venue == "" {
		vErr.add("venue", "venue is required")
	}
	if normalized.Time == "" {
		vErr.add("time", "time is required")
	}

	var parsed time.Time
	if normalized.Date != "" {
		var parseErr error
		parsed, parseErr = schedule.ParseDate(normalized.Date, s.now().Year(), nil)
		if parseErr != nil {
			vErr.add("date", "date is not recognized")
		}
	}
	if normalized.MapLink != "" {
		if _, parseErr := url.ParseRequestURI(normalized.MapLink); parseErr != nil {
			vErr.add("map_link", "must be a valid URL")
		}
	}
	if vErr.HasErrors() {
		return JamInput{}, vErr
	}

	if normalized.Day == "" {
		normalized.Day = parsed.Weekday().String()
	}
	return normalized, nil
}
