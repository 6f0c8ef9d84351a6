package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
)

// EventStore persists special events.
type EventStore interface {
	CreateEvent(ctx context.Context, event SpecialEvent) (SpecialEvent, error)
	GetEvent(ctx context.Context, id string) (SpecialEvent, error)
	UpdateEvent(ctx context.Context, event SpecialEvent) (SpecialEvent, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context) ([]SpecialEvent, error)
}

// EventService manages date-ranged special events. An event is "upcoming"
// while its end date has not passed, so multi-day festivals stay listed for
// their whole run.
type EventService struct {
	events      EventStore
	admin       AdminVerifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService constructs an EventService with the provided dependencies.
func NewEventService(events EventStore, admin AdminVerifier, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, admin, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an EventService with a specified logger.
func NewEventServiceWithLogger(events EventStore, admin AdminVerifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		admin:       admin,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// ListUpcomingEvents returns events whose end date is today or later, sorted
// by start date. ISO dates compare correctly as strings.
func (s *EventService) ListUpcomingEvents(ctx context.Context) ([]SpecialEvent, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event store not configured")
	}

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().Format("2006-01-02")
	upcoming := make([]SpecialEvent, 0, len(events))
	for _, event := range events {
		if event.EndDate >= today {
			upcoming = append(upcoming, event)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].StartDate < upcoming[j].StartDate })
	return upcoming, nil
}

// CreateEvent records a new special event.
func (s *EventService) CreateEvent(ctx context.Context, principal Principal, input SpecialEventInput) (event SpecialEvent, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("event store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "uid", principal.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var normalized SpecialEventInput
	normalized, err = validateEventInput(input)
	if err != nil {
		return
	}

	now := s.now()
	event, err = s.events.CreateEvent(ctx, SpecialEvent{
		ID:          s.idGenerator(),
		Title:       normalized.Title,
		StartDate:   normalized.StartDate,
		EndDate:     normalized.EndDate,
		Time:        normalized.Time,
		Venue:       normalized.Venue,
		MapLink:     normalized.MapLink,
		Description: normalized.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return
}

// UpdateEvent replaces the editable fields of an event.
func (s *EventService) UpdateEvent(ctx context.Context, principal Principal, id string, input SpecialEventInput) (event SpecialEvent, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("event store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent", "uid", principal.UID, "event_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var existing SpecialEvent
	existing, err = s.events.GetEvent(ctx, strings.TrimSpace(id))
	if err != nil {
		return
	}

	var normalized SpecialEventInput
	normalized, err = validateEventInput(input)
	if err != nil {
		return
	}

	existing.Title = normalized.Title
	existing.StartDate = normalized.StartDate
	existing.EndDate = normalized.EndDate
	existing.Time = normalized.Time
	existing.Venue = normalized.Venue
	existing.MapLink = normalized.MapLink
	existing.Description = normalized.Description
	existing.UpdatedAt = s.now()

	event, err = s.events.UpdateEvent(ctx, existing)
	return
}

// DeleteEvent removes an event permanently.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.events == nil {
		return fmt.Errorf("event store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent", "uid", principal.UID, "event_id", id)

	if err := s.requireAdmin(ctx, principal); err != nil {
		logger.ErrorContext(ctx, "admin check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.events.DeleteEvent(ctx, strings.TrimSpace(id)); err != nil {
		logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "event deleted")
	return nil
}

func (s *EventService) requireAdmin(ctx context.Context, principal Principal) error {
	if s.admin == nil {
		return fmt.Errorf("admin verifier not configured")
	}
	return s.admin.VerifyAdminAccess(ctx, principal.UID)
}

func validateEventInput(input SpecialEventInput) (SpecialEventInput, error) {
	normalized := SpecialEventInput{
		Title:       strings.TrimSpace(input.Title),
		StartDate:   strings.TrimSpace(input.StartDate),
		EndDate:     strings.TrimSpace(input.EndDate),
		Time:        strings.TrimSpace(input.Time),
		Venue:       strings.TrimSpace(input.Venue),
		MapLink:     strings.TrimSpace(input.MapLink),
		Description: strings.TrimSpace(input.Description),
	}

	vErr := &ValidationError{}
	if normalized.Title == "" {
		vErr.add("title", "title is required")
	}
	start, startErr := time.Parse("2006-01-02", normalized.StartDate)
	if startErr != nil {
		vErr.add("start_date", "must be a date in YYYY-MM-DD format")
	}
	end, endErr := time.Parse("2006-01-02", normalized.EndDate)
	if endErr != nil {
		vErr.add("end_date", "must be a date in YYYY-MM-DD format")
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		vErr.add("end_date", "must not be before the start date")
	}
	if normalized.Description == "" {
		vErr.add("description", "description is required")
	}
	if normalized.MapLink != "" {
		if _, err := url.ParseRequestURI(normalized.MapLink); err != nil {
			vErr.add("map_link", "must be a valid URL")
		}
	}
	if vErr.HasErrors() {
		return SpecialEventInput{}, vErr
	}
	return normalized, nil
}
