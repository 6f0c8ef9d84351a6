package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// JamRepository implements application.JamStore using SQLite.
type JamRepository struct {
	store *Store
}

// NewJamRepository creates a new SQLite jam repository.
func NewJamRepository(store *Store) *JamRepository {
	return &JamRepository{store: store}
}

// CreateJam inserts a new jam into the database.
func (r *JamRepository) CreateJam(ctx context.Context, jam application.Jam) (application.Jam, error) {
	if jam.ID == "" {
		return application.Jam{}, fmt.Errorf("jam id is required")
	}

	query := `
		INSERT INTO jams (id, date, day, venue, time, map_link, cancelled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.store.db.ExecContext(ctx, query,
		jam.ID,
		jam.Date,
		jam.Day,
		jam.Venue,
		jam.Time,
		jam.MapLink,
		jam.Cancelled,
		jam.CreatedAt.UTC().Format(time.RFC3339),
		jam.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return application.Jam{}, mapError(err)
	}

	return jam, nil
}

// GetJam retrieves a jam by ID.
func (r *JamRepository) GetJam(ctx context.Context, id string) (application.Jam, error) {
	if id == "" {
		return application.Jam{}, application.ErrNotFound
	}

	query := `
		SELECT id, date, day, venue, time, map_link, cancelled, created_at, updated_at
		FROM jams
		WHERE id = ?
	`

	return scanJam(r.store.db.QueryRowContext(ctx, query, id))
}

// UpdateJam replaces an existing jam row.
func (r *JamRepository) UpdateJam(ctx context.Context, jam application.Jam) (application.Jam, error) {
	query := `
		UPDATE jams
		SET date = ?, day = ?, venue = ?, time = ?, map_link = ?, cancelled = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.store.db.ExecContext(ctx, query,
		jam.Date,
		jam.Day,
		jam.Venue,
		jam.Time,
		jam.MapLink,
		jam.Cancelled,
		jam.UpdatedAt.UTC().Format(time.RFC3339),
		jam.ID,
	)
	if err != nil {
		return application.Jam{}, mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return application.Jam{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return application.Jam{}, application.ErrNotFound
	}

	return jam, nil
}

// DeleteJam removes a jam by ID.
func (r *JamRepository) DeleteJam(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM jams WHERE id = ?", id)
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

// ListJams returns all jams ordered by date then ID.
func (r *JamRepository) ListJams(ctx context.Context) ([]application.Jam, error) {
	query := `
		SELECT id, date, day, venue, time, map_link, cancelled, created_at, updated_at
		FROM jams
		ORDER BY date ASC, id ASC
	`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var jams []application.Jam
	for rows.Next() {
		jam, err := scanJam(rows)
		if err != nil {
			return nil, err
		}
		jams = append(jams, jam)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return jams, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJam(row rowScanner) (application.Jam, error) {
	var jam application.Jam
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&jam.ID,
		&jam.Date,
		&jam.Day,
		&jam.Venue,
		&jam.Time,
		&jam.MapLink,
		&jam.Cancelled,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return application.Jam{}, mapError(err)
	}

	if jam.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return application.Jam{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if jam.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return application.Jam{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return jam, nil
}
