package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// IdentityRepository implements application.IdentityStore using SQLite.
type IdentityRepository struct {
	store *Store
}

// NewIdentityRepository creates a new SQLite identity repository.
func NewIdentityRepository(store *Store) *IdentityRepository {
	return &IdentityRepository{store: store}
}

// CreateIdentity inserts a new anonymous identity.
func (r *IdentityRepository) CreateIdentity(ctx context.Context, identity application.Identity) (application.Identity, error) {
	if identity.UID == "" || identity.Token == "" {
		return application.Identity{}, fmt.Errorf("identity uid and token are required")
	}

	query := `INSERT INTO identities (uid, token, created_at) VALUES (?, ?, ?)`

	_, err := r.store.db.ExecContext(ctx, query,
		identity.UID,
		identity.Token,
		identity.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return application.Identity{}, mapError(err)
	}

	return identity, nil
}

// GetIdentityByToken resolves a bearer token to its identity.
func (r *IdentityRepository) GetIdentityByToken(ctx context.Context, token string) (application.Identity, error) {
	if token == "" {
		return application.Identity{}, application.ErrNotFound
	}

	query := `SELECT uid, token, created_at FROM identities WHERE token = ?`

	var identity application.Identity
	var createdAtStr string

	err := r.store.db.QueryRowContext(ctx, query, token).Scan(
		&identity.UID,
		&identity.Token,
		&createdAtStr,
	)
	if err != nil {
		return application.Identity{}, mapError(err)
	}

	if identity.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return application.Identity{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return identity, nil
}
