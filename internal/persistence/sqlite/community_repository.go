package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// CommunityRepository implements application.CommunityStore using SQLite.
// Only the markdown description is persisted; rendered HTML is derived at
// read time by the service.
type CommunityRepository struct {
	store *Store
}

// NewCommunityRepository creates a new SQLite community repository.
func NewCommunityRepository(store *Store) *CommunityRepository {
	return &CommunityRepository{store: store}
}

// CreateCommunityItem inserts a new highlight into the database.
func (r *CommunityRepository) CreateCommunityItem(ctx context.Context, item application.CommunityItem) (application.CommunityItem, error) {
	if item.ID == "" {
		return application.CommunityItem{}, fmt.Errorf("community item id is required")
	}

	query := `
		INSERT INTO community_items (id, type, headline, description, image_url, amount_raised, charity_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.store.db.ExecContext(ctx, query,
		item.ID,
		item.Type,
		item.Headline,
		item.Description,
		item.ImageURL,
		item.AmountRaised,
		item.CharityName,
		item.CreatedAt.UTC().Format(time.RFC3339),
		item.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return application.CommunityItem{}, mapError(err)
	}

	return item, nil
}

// GetCommunityItem retrieves a highlight by ID.
func (r *CommunityRepository) GetCommunityItem(ctx context.Context, id string) (application.CommunityItem, error) {
	if id == "" {
		return application.CommunityItem{}, application.ErrNotFound
	}

	query := `
		SELECT id, type, headline, description, image_url, amount_raised, charity_name, created_at, updated_at
		FROM community_items
		WHERE id = ?
	`

	return scanCommunityItem(r.store.db.QueryRowContext(ctx, query, id))
}

// UpdateCommunityItem replaces an existing highlight row.
func (r *CommunityRepository) UpdateCommunityItem(ctx context.Context, item application.CommunityItem) (application.CommunityItem, error) {
	query := `
		UPDATE community_items
		SET type = ?, headline = ?, description = ?, image_url = ?, amount_raised = ?, charity_name = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.store.db.ExecContext(ctx, query,
		item.Type,
		item.Headline,
		item.Description,
		item.ImageURL,
		item.AmountRaised,
		item.CharityName,
		item.UpdatedAt.UTC().Format(time.RFC3339),
		item.ID,
	)
	if err != nil {
		return application.CommunityItem{}, mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return application.CommunityItem{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return application.CommunityItem{}, application.ErrNotFound
	}

	return item, nil
}

// DeleteCommunityItem removes a highlight by ID.
func (r *CommunityRepository) DeleteCommunityItem(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM community_items WHERE id = ?", id)
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

// ListCommunityItems returns all highlights, newest first.
func (r *CommunityRepository) ListCommunityItems(ctx context.Context) ([]application.CommunityItem, error) {
	query := `
		SELECT id, type, headline, description, image_url, amount_raised, charity_name, created_at, updated_at
		FROM community_items
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []application.CommunityItem
	for rows.Next() {
		item, err := scanCommunityItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return items, nil
}

func scanCommunityItem(row rowScanner) (application.CommunityItem, error) {
	var item application.CommunityItem
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&item.ID,
		&item.Type,
		&item.Headline,
		&item.Description,
		&item.ImageURL,
		&item.AmountRaised,
		&item.CharityName,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return application.CommunityItem{}, mapError(err)
	}

	if item.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return application.CommunityItem{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return application.CommunityItem{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return item, nil
}
