package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// VenueRepository implements application.VenueStore using SQLite.
type VenueRepository struct {
	store *Store
}

// NewVenueRepository creates a new SQLite venue repository.
func NewVenueRepository(store *Store) *VenueRepository {
	return &VenueRepository{store: store}
}

// CreateVenue inserts a new venue into the database.
func (r *VenueRepository) CreateVenue(ctx context.Context, venue application.Venue) (application.Venue, error) {
	if venue.ID == "" {
		return application.Venue{}, fmt.Errorf("venue id is required")
	}

	query := `
		INSERT INTO venues (id, name, map_link, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.store.db.ExecContext(ctx, query,
		venue.ID,
		venue.Name,
		venue.MapLink,
		venue.ImageURL,
		venue.CreatedAt.UTC().Format(time.RFC3339),
		venue.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return application.Venue{}, mapError(err)
	}

	return venue, nil
}

// GetVenue retrieves a venue by ID.
func (r *VenueRepository) GetVenue(ctx context.Context, id string) (application.Venue, error) {
	if id == "" {
		return application.Venue{}, application.ErrNotFound
	}

	query := `
		SELECT id, name, map_link, image_url, created_at, updated_at
		FROM venues
		WHERE id = ?
	`

	return scanVenue(r.store.db.QueryRowContext(ctx, query, id))
}

// UpdateVenue replaces an existing venue row.
func (r *VenueRepository) UpdateVenue(ctx context.Context, venue application.Venue) (application.Venue, error) {
	query := `
		UPDATE venues
		SET name = ?, map_link = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.store.db.ExecContext(ctx, query,
		venue.Name,
		venue.MapLink,
		venue.ImageURL,
		venue.UpdatedAt.UTC().Format(time.RFC3339),
		venue.ID,
	)
	if err != nil {
		return application.Venue{}, mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return application.Venue{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return application.Venue{}, application.ErrNotFound
	}

	return venue, nil
}

// DeleteVenue removes a venue by ID.
func (r *VenueRepository) DeleteVenue(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM venues WHERE id = ?", id)
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

// ListVenues returns all venues ordered by name then ID.
func (r *VenueRepository) ListVenues(ctx context.Context) ([]application.Venue, error) {
	query := `
		SELECT id, name, map_link, image_url, created_at, updated_at
		FROM venues
		ORDER BY name ASC, id ASC
	`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var venues []application.Venue
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return venues, nil
}

func scanVenue(row rowScanner) (application.Venue, error) {
	var venue application.Venue
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&venue.ID,
		&venue.Name,
		&venue.MapLink,
		&venue.ImageURL,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return application.Venue{}, mapError(err)
	}

	if venue.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return application.Venue{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if venue.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return application.Venue{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return venue, nil
}
