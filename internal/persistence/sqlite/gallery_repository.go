package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// GalleryRepository implements application.GalleryStore using SQLite.
type GalleryRepository struct {
	store *Store
}

// NewGalleryRepository creates a new SQLite gallery repository.
func NewGalleryRepository(store *Store) *GalleryRepository {
	return &GalleryRepository{store: store}
}

// CreateGalleryPhoto inserts a new photo into the database.
func (r *GalleryRepository) CreateGalleryPhoto(ctx context.Context, photo application.GalleryPhoto) (application.GalleryPhoto, error) {
	if photo.ID == "" {
		return application.GalleryPhoto{}, fmt.Errorf("photo id is required")
	}

	query := `
		INSERT INTO gallery_photos (id, url, caption, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.store.db.ExecContext(ctx, query,
		photo.ID,
		photo.URL,
		photo.Caption,
		photo.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return application.GalleryPhoto{}, mapError(err)
	}

	return photo, nil
}

// DeleteGalleryPhoto removes a photo by ID.
func (r *GalleryRepository) DeleteGalleryPhoto(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM gallery_photos WHERE id = ?", id)
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

// ListGalleryPhotos returns all photos, newest first.
func (r *GalleryRepository) ListGalleryPhotos(ctx context.Context) ([]application.GalleryPhoto, error) {
	query := `
		SELECT id, url, caption, created_at
		FROM gallery_photos
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var photos []application.GalleryPhoto
	for rows.Next() {
		var photo application.GalleryPhoto
		var createdAtStr string
		if err := rows.Scan(&photo.ID, &photo.URL, &photo.Caption, &createdAtStr); err != nil {
			return nil, mapError(err)
		}
		if photo.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return photos, nil
}
