package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/donnachab/jam/internal/application"
	"github.com/donnachab/jam/internal/schedule"
)

type jamService interface {
	UpcomingSchedule(ctx context.Context) ([]schedule.Entry, error)
	ListJams(ctx context.Context) ([]application.Jam, error)
	CreateJam(ctx context.Context, principal application.Principal, input application.JamInput) (application.Jam, error)
	UpdateJam(ctx context.Context, principal application.Principal, id string, input application.JamInput) (application.Jam, error)
	CancelJam(ctx context.Context, principal application.Principal, id string) error
	ReinstateJam(ctx context.Context, principal application.Principal, id string) error
	DeleteJam(ctx context.Context, principal application.Principal, id string) error
	GetSiteConfig(ctx context.Context) (application.SiteConfig, error)
	UpdateSiteConfig(ctx context.Context, principal application.Principal, cfg application.SiteConfig) (application.SiteConfig, error)
}

// ScheduleHandler serves the projected schedule, the jam records behind it and
// the projector's default configuration.
type ScheduleHandler struct {
	service   jamService
	responder responder
	logger    *slog.Logger
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(service jamService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

// Upcoming returns the projected schedule window.
func (h *ScheduleHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	entries, err := h.service.UpcomingSchedule(r.Context())
	if err != nil {
		h.log(r.Context(), "Upcoming").ErrorContext(r.Context(), "failed to project schedule", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]scheduleEntryResponse, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, scheduleEntryResponse{
			ID:         entry.ID,
			Date:       entry.Date.Format("2006-01-02"),
			Day:        entry.Day,
			Venue:      entry.Venue,
			Time:       schedule.FormatTime(entry.Time),
			MapLink:    entry.MapLink,
			Cancelled:  entry.Cancelled,
			IsProposal: entry.IsProposal,
			Special:    entry.Special,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Entries: payload})
}

// ListJams returns the raw confirmed jam records.
func (h *ScheduleHandler) ListJams(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	jams, err := h.service.ListJams(r.Context())
	if err != nil {
		h.log(r.Context(), "ListJams").ErrorContext(r.Context(), "failed to list jams", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make([]jamResponse, 0, len(jams))
	for _, jam := range jams {
		payload = append(payload, newJamResponse(jam))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// CreateJam records a new confirmed jam.
func (h *ScheduleHandler) CreateJam(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	var req jamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "CreateJam", "uid", principal.UID)

	jam, err := h.service.CreateJam(r.Context(), principal, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create jam", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("jam_id", jam.ID).InfoContext(r.Context(), "jam created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newJamResponse(jam))
}

// UpdateJam replaces the editable fields of a jam.
func (h *ScheduleHandler) UpdateJam(w http.ResponseWriter, r *http.Request) {
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
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidJamID)
		return
	}

	var req jamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateJam", "uid", principal.UID, "jam_id", id)

	jam, err := h.service.UpdateJam(r.Context(), principal, id, req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update jam", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "jam updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newJamResponse(jam))
}

// CancelJam marks a jam as cancelled while keeping it on the schedule.
func (h *ScheduleHandler) CancelJam(w http.ResponseWriter, r *http.Request) {
	h.setCancelled(w, r, true, "CancelJam")
}

// ReinstateJam clears the cancelled flag.
func (h *ScheduleHandler) ReinstateJam(w http.ResponseWriter, r *http.Request) {
	h.setCancelled(w, r, false, "ReinstateJam")
}

func (h *ScheduleHandler) setCancelled(w http.ResponseWriter, r *http.Request, cancelled bool, operation string) {
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
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidJamID)
		return
	}

	logger := h.log(r.Context(), operation, "uid", principal.UID, "jam_id", id)

	var err error
	if cancelled {
		err = h.service.CancelJam(r.Context(), principal, id)
	} else {
		err = h.service.ReinstateJam(r.Context(), principal, id)
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to change cancellation state", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "jam cancellation state changed", "cancelled", cancelled)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// DeleteJam removes a jam permanently.
func (h *ScheduleHandler) DeleteJam(w http.ResponseWriter, r *http.Request) {
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
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidJamID)
		return
	}

	logger := h.log(r.Context(), "DeleteJam", "uid", principal.UID, "jam_id", id)

	if err := h.service.DeleteJam(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete jam", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "jam deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// GetConfig returns the projector defaults.
func (h *ScheduleHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	cfg, err := h.service.GetSiteConfig(r.Context())
	if err != nil {
		h.log(r.Context(), "GetConfig").ErrorContext(r.Context(), "failed to load config", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, newConfigResponse(cfg))
}

// UpdateConfig replaces the projector defaults.
func (h *ScheduleHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingIdentity)
		return
	}

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateConfig", "uid", principal.UID)

	cfg, err := h.service.UpdateSiteConfig(r.Context(), principal, application.SiteConfig{
		DefaultDay:     req.DefaultDay,
		DefaultVenue:   req.DefaultVenue,
		DefaultTime:    req.DefaultTime,
		DefaultMapLink: req.DefaultMapLink,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update config", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "config updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newConfigResponse(cfg))
}

type scheduleResponse struct {
	Entries []scheduleEntryResponse `json:"entries"`
}

type scheduleEntryResponse struct {
	ID         string `json:"id,omitempty"`
	Date       string `json:"date"`
	Day        string `json:"day"`
	Venue      string `json:"venue"`
	Time       string `json:"time"`
	MapLink    string `json:"map_link,omitempty"`
	Cancelled  bool   `json:"cancelled"`
	IsProposal bool   `json:"is_proposal"`
	Special    bool   `json:"special,omitempty"`
}

type jamRequest struct {
	Date    string `json:"date"`
	Day     string `json:"day"`
	Venue   string `json:"venue"`
	Time    string `json:"time"`
	MapLink string `json:"map_link"`
}

func (req jamRequest) toInput() application.JamInput {
	return application.JamInput{
		Date:    req.Date,
		Day:     req.Day,
		Venue:   req.Venue,
		Time:    req.Time,
		MapLink: req.MapLink,
	}
}

type jamResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Day       string `json:"day"`
	Venue     string `json:"venue"`
	Time      string `json:"time"`
	MapLink   string `json:"map_link,omitempty"`
	Cancelled bool   `json:"cancelled"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newJamResponse(jam application.Jam) jamResponse {
	return jamResponse{
		ID:        jam.ID,
		Date:      jam.Date,
		Day:       jam.Day,
		Venue:     jam.Venue,
		Time:      jam.Time,
		MapLink:   jam.MapLink,
		Cancelled: jam.Cancelled,
		CreatedAt: jam.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: jam.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type configRequest struct {
	DefaultDay     string `json:"default_day"`
	DefaultVenue   string `json:"default_venue"`
	DefaultTime    string `json:"default_time"`
	DefaultMapLink string `json:"default_map_link"`
}

type configResponse struct {
	DefaultDay     string `json:"default_day"`
	DefaultVenue   string `json:"default_venue"`
	DefaultTime    string `json:"default_time"`
	DefaultMapLink string `json:"default_map_link,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

func newConfigResponse(cfg application.SiteConfig) configResponse {
	resp := configResponse{
		DefaultDay:     cfg.DefaultDay,
		DefaultVenue:   cfg.DefaultVenue,
		DefaultTime:    cfg.DefaultTime,
		DefaultMapLink: cfg.DefaultMapLink,
	}
	if !cfg.UpdatedAt.IsZero() {
		resp.UpdatedAt = cfg.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return resp
}
