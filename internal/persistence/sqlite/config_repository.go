package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// SiteConfigRepository implements application.SiteConfigStore using SQLite.
// The configuration is a singleton row with a fixed primary key.
type SiteConfigRepository struct {
	store *Store
}

// NewSiteConfigRepository creates a new SQLite site config repository.
func NewSiteConfigRepository(store *Store) *SiteConfigRepository {
	return &SiteConfigRepository{store: store}
}

// GetSiteConfig reads the singleton configuration row.
func (r *SiteConfigRepository) GetSiteConfig(ctx context.Context) (application.SiteConfig, error) {
	query := `
		SELECT default_day, default_venue, default_time, default_map_link, updated_at
		FROM site_config
		WHERE id = 1
	`

	var cfg application.SiteConfig
	var updatedAtStr string

	err := r.store.db.QueryRowContext(ctx, query).Scan(
		&cfg.DefaultDay,
		&cfg.DefaultVenue,
		&cfg.DefaultTime,
		&cfg.DefaultMapLink,
		&updatedAtStr,
	)
	if err != nil {
		return application.SiteConfig{}, mapError(err)
	}

	if cfg.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return application.SiteConfig{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return cfg, nil
}

// SetSiteConfig upserts the singleton configuration row.
func (r *SiteConfigRepository) SetSiteConfig(ctx context.Context, cfg application.SiteConfig) (application.SiteConfig, error) {
	query := `
		INSERT INTO site_config (id, default_day, default_venue, default_time, default_map_link, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			default_day = excluded.default_day,
			default_venue = excluded.default_venue,
			default_time = excluded.default_time,
			default_map_link = excluded.default_map_link,
			updated_at = excluded.updated_at
	`

	_, err := r.store.db.ExecContext(ctx, query,
		cfg.DefaultDay,
		cfg.DefaultVenue,
		cfg.DefaultTime,
		cfg.DefaultMapLink,
		cfg.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return application.SiteConfig{}, mapError(err)
	}

	return cfg, nil
}
