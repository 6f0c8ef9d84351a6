package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// EventRepository implements application.EventStore using SQLite.
type EventRepository struct {
	store *Store
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

// CreateEvent inserts a new special event into the database.
func (r *EventRepository) CreateEvent(ctx context.Context, event application.SpecialEvent) (application.SpecialEvent, error) {
	if event.ID == "" {
		return application.SpecialEvent{}, fmt.Errorf("event id is required")
	}

	query := `
		INSERT INTO events (id, title, start_date, end_date, time, venue, map_link, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.store.db.ExecContext(ctx, query,
		event.ID,
		event.Title,
		event.StartDate,
		event.EndDate,
		event.Time,
		event.Venue,
		event.MapLink,
		event.Description,
		event.CreatedAt.UTC().Format(time.RFC3339),
		event.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return application.SpecialEvent{}, mapError(err)
	}

	return event, nil
}

// GetEvent retrieves a special event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (application.SpecialEvent, error) {
	if id == "" {
		return application.SpecialEvent{}, application.ErrNotFound
	}

	query := `
		SELECT id, title, start_date, end_date, time, venue, map_link, description, created_at, updated_at
		FROM events
		WHERE id = ?
	`

	return scanEvent(r.store.db.QueryRowContext(ctx, query, id))
}

// UpdateEvent replaces an existing event row.
func (r *EventRepository) UpdateEvent(ctx context.Context, event application.SpecialEvent) (application.SpecialEvent, error) {
	query := `
		UPDATE events
		SET title = ?, start_date = ?, end_date = ?, time = ?, venue = ?, map_link = ?, description = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.store.db.ExecContext(ctx, query,
		event.Title,
		event.StartDate,
		event.EndDate,
		event.Time,
		event.Venue,
		event.MapLink,
		event.Description,
		event.UpdatedAt.UTC().Format(time.RFC3339),
		event.ID,
	)
	if err != nil {
		return application.SpecialEvent{}, mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return application.SpecialEvent{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return application.SpecialEvent{}, application.ErrNotFound
	}

	return event, nil
}

// DeleteEvent removes a special event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return application.ErrNotFound
	}

	return nil
}

// ListEvents returns all events ordered by start date.
func (r *EventRepository) ListEvents(ctx context.Context) ([]application.SpecialEvent, error) {
	query := `
		SELECT id, title, start_date, end_date, time, venue, map_link, description, created_at, updated_at
		FROM events
		ORDER BY start_date ASC, id ASC
	`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []application.SpecialEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return events, nil
}

func scanEvent(row rowScanner) (application.SpecialEvent, error) {
	var event application.SpecialEvent
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.StartDate,
		&event.EndDate,
		&event.Time,
		&event.Venue,
		&event.MapLink,
		&event.Description,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return application.SpecialEvent{}, mapError(err)
	}

	if event.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return application.SpecialEvent{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if event.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return application.SpecialEvent{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return event, nil
}
