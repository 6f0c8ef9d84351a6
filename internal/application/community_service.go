package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// CommunityStore persists community and charity highlights.
type CommunityStore interface {
	CreateCommunityItem(ctx context.Context, item CommunityItem) (CommunityItem, error)
	GetCommunityItem(ctx context.Context, id string) (CommunityItem, error)
	UpdateCommunityItem(ctx context.Context, item CommunityItem) (CommunityItem, error)
	DeleteCommunityItem(ctx context.Context, id string) error
	ListCommunityItems(ctx context.Context) ([]CommunityItem, error)
}

// mdRenderer is a goldmark instance configured for safe HTML output. Raw HTML
// in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// CommunityService manages the community/charity highlight carousel content.
type CommunityService struct {
	items       CommunityStore
	admin       AdminVerifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCommunityService constructs a CommunityService with the provided dependencies.
func NewCommunityService(items CommunityStore, admin AdminVerifier, idGenerator func() string, now func() time.Time) *CommunityService {
	return NewCommunityServiceWithLogger(items, admin, idGenerator, now, nil)
}

// NewCommunityServiceWithLogger constructs a CommunityService with a specified logger.
func NewCommunityServiceWithLogger(items CommunityStore, admin AdminVerifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CommunityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CommunityService{
		items:       items,
		admin:       admin,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CommunityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CommunityService", operation, attrs...)
}

// ListCommunityItems returns every highlight with its description rendered to
// HTML for display.
func (s *CommunityService) ListCommunityItems(ctx context.Context) ([]CommunityItem, error) {
	if s == nil || s.items == nil {
		return nil, fmt.Errorf("community store not configured")
	}

	items, err := s.items.ListCommunityItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		rendered, renderErr := RenderMarkdown(items[i].Description)
		if renderErr != nil {
			s.loggerWith(ctx, "ListCommunityItems").WarnContext(ctx, "failed to render description", "item_id", items[i].ID, "error", renderErr)
			continue
		}
		items[i].DescriptionHTML = rendered
	}
	return items, nil
}

// CreateCommunityItem records a new highlight.
func (s *CommunityService) CreateCommunityItem(ctx context.Context, principal Principal, input CommunityItemInput) (item CommunityItem, err error) {
	if s == nil || s.items == nil {
		err = fmt.Errorf("community store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateCommunityItem", "uid", principal.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create community item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("item_id", item.ID).InfoContext(ctx, "community item created")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var normalized CommunityItemInput
	normalized, err = validateCommunityInput(input)
	if err != nil {
		return
	}

	now := s.now()
	item, err = s.items.CreateCommunityItem(ctx, CommunityItem{
		ID:           s.idGenerator(),
		Type:         normalized.Type,
		Headline:     normalized.Headline,
		Description:  normalized.Description,
		ImageURL:     normalized.ImageURL,
		AmountRaised: normalized.AmountRaised,
		CharityName:  normalized.CharityName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return
}

// UpdateCommunityItem replaces the editable fields of a highlight.
func (s *CommunityService) UpdateCommunityItem(ctx context.Context, principal Principal, id string, input CommunityItemInput) (item CommunityItem, err error) {
	if s == nil || s.items == nil {
		err = fmt.Errorf("community store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateCommunityItem", "uid", principal.UID, "item_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update community item", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "community item updated")
	}()

	if err = s.requireAdmin(ctx, principal); err != nil {
		return
	}

	var existing CommunityItem
	existing, err = s.items.GetCommunityItem(ctx, strings.TrimSpace(id))
	if err != nil {
		return
	}

	var normalized CommunityItemInput
	normalized, err = validateCommunityInput(input)
	if err != nil {
		return
	}

	existing.Type = normalized.Type
	existing.Headline = normalized.Headline
	existing.Description = normalized.Description
	existing.ImageURL = normalized.ImageURL
	existing.AmountRaised = normalized.AmountRaised
	existing.CharityName = normalized.CharityName
	existing.UpdatedAt = s.now()

	item, err = s.items.UpdateCommunityItem(ctx, existing)
	return
}

// DeleteCommunityItem removes a highlight permanently.
func (s *CommunityService) DeleteCommunityItem(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.items == nil {
		return fmt.Errorf("community store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteCommunityItem", "uid", principal.UID, "item_id", id)

	if err := s.requireAdmin(ctx, principal); err != nil {
		logger.ErrorContext(ctx, "admin check failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.items.DeleteCommunityItem(ctx, strings.TrimSpace(id)); err != nil {
		logger.ErrorContext(ctx, "failed to delete community item", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "community item deleted")
	return nil
}

func (s *CommunityService) requireAdmin(ctx context.Context, principal Principal) error {
	if s.admin == nil {
		return fmt.Errorf("admin verifier not configured")
	}
	return s.admin.VerifyAdminAccess(ctx, principal.UID)
}

// RenderMarkdown converts a highlight description to HTML with raw input
// escaped.
func RenderMarkdown(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func validateCommunityInput(input CommunityItemInput) (CommunityItemInput, error) {
	normalized := CommunityItemInput{
		Type:         strings.TrimSpace(input.Type),
		Headline:     strings.TrimSpace(input.Headline),
		Description:  strings.TrimSpace(input.Description),
		ImageURL:     strings.TrimSpace(input.ImageURL),
		AmountRaised: strings.TrimSpace(input.AmountRaised),
		CharityName:  strings.TrimSpace(input.CharityName),
	}

	vErr := &ValidationError{}
	switch normalized.Type {
	case CommunityTypeEvent:
		if normalized.Headline == "" {
			vErr.add("headline", "headline is required")
		}
	case CommunityTypeCharity:
		if normalized.AmountRaised == "" {
			vErr.add("amount_raised", "amount raised is required")
		}
		if normalized.CharityName == "" {
			vErr.add("charity_name", "charity name is required")
		}
	default:
		vErr.add("type", "type must be event or charity")
	}
	if normalized.Description == "" {
		vErr.add("description", "description is required")
	}
	if normalized.ImageURL != "" {
		if _, err := url.ParseRequestURI(normalized.ImageURL); err != nil {
			vErr.add("image_url", "must be a valid URL")
		}
	}
	if vErr.HasErrors() {
		return CommunityItemInput{}, vErr
	}
	return normalized, nil
}
