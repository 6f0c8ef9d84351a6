package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/donnachab/jam/internal/application"
)

// AdminRepository implements the admin-session stores (application.ClaimStore,
// application.RateLimitStore and application.AuditLog) using SQLite.
type AdminRepository struct {
	store *Store
}

// NewAdminRepository creates a new SQLite admin repository.
func NewAdminRepository(store *Store) *AdminRepository {
	return &AdminRepository{store: store}
}

// SetAdminClaim upserts the admin claim for an identity.
func (r *AdminRepository) SetAdminClaim(ctx context.Context, claim application.AdminClaim) error {
	query := `
		INSERT INTO admin_claims (uid, is_admin, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET
			is_admin = excluded.is_admin,
			expires_at = excluded.expires_at
	`

	_, err := r.store.db.ExecContext(ctx, query,
		claim.UID,
		claim.Admin,
		claim.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// GetAdminClaim reads the admin claim for an identity.
func (r *AdminRepository) GetAdminClaim(ctx context.Context, uid string) (application.AdminClaim, error) {
	if uid == "" {
		return application.AdminClaim{}, application.ErrNotFound
	}

	query := `SELECT uid, is_admin, expires_at FROM admin_claims WHERE uid = ?`

	var claim application.AdminClaim
	var expiresAtStr string

	err := r.store.db.QueryRowContext(ctx, query, uid).Scan(
		&claim.UID,
		&claim.Admin,
		&expiresAtStr,
	)
	if err != nil {
		return application.AdminClaim{}, mapError(err)
	}

	if claim.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return application.AdminClaim{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	return claim, nil
}

// ClearAdminClaim removes the admin claim for an identity.
func (r *AdminRepository) ClearAdminClaim(ctx context.Context, uid string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM admin_claims WHERE uid = ?", uid)
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

// GetRateLimit reads the attempt record for an identity.
func (r *AdminRepository) GetRateLimit(ctx context.Context, uid string) (application.RateLimitRecord, error) {
	if uid == "" {
		return application.RateLimitRecord{}, application.ErrNotFound
	}

	query := `SELECT uid, attempts, window_start, locked_until FROM rate_limits WHERE uid = ?`

	var record application.RateLimitRecord
	var windowStartStr string
	var lockedUntilStr sql.NullString

	err := r.store.db.QueryRowContext(ctx, query, uid).Scan(
		&record.UID,
		&record.Attempts,
		&windowStartStr,
		&lockedUntilStr,
	)
	if err != nil {
		return application.RateLimitRecord{}, mapError(err)
	}

	if record.WindowStart, err = time.Parse(time.RFC3339, windowStartStr); err != nil {
		return application.RateLimitRecord{}, fmt.Errorf("failed to parse window_start: %w", err)
	}
	if lockedUntilStr.Valid {
		lockedUntil, err := time.Parse(time.RFC3339, lockedUntilStr.String)
		if err != nil {
			return application.RateLimitRecord{}, fmt.Errorf("failed to parse locked_until: %w", err)
		}
		record.LockedUntil = &lockedUntil
	}

	return record, nil
}

// StartWindow resets the attempt record to a fresh window with one attempt
// counted.
func (r *AdminRepository) StartWindow(ctx context.Context, uid string, at time.Time) error {
	query := `
		INSERT INTO rate_limits (uid, attempts, window_start, locked_until)
		VALUES (?, 1, ?, NULL)
		ON CONFLICT (uid) DO UPDATE SET
			attempts = 1,
			window_start = excluded.window_start,
			locked_until = NULL
	`

	_, err := r.store.db.ExecContext(ctx, query, uid, at.UTC().Format(time.RFC3339))
	return mapError(err)
}

// IncrementAttempts bumps the attempt counter in a single statement so that
// concurrent submissions cannot lose updates.
func (r *AdminRepository) IncrementAttempts(ctx context.Context, uid string) error {
	result, err := r.store.db.ExecContext(ctx, "UPDATE rate_limits SET attempts = attempts + 1 WHERE uid = ?", uid)
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

// LockOut marks an identity as locked until the given time.
func (r *AdminRepository) LockOut(ctx context.Context, uid string, until time.Time) error {
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE rate_limits SET locked_until = ? WHERE uid = ?",
		until.UTC().Format(time.RFC3339), uid,
	)
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

// ClearRateLimit removes the attempt record for an identity.
func (r *AdminRepository) ClearRateLimit(ctx context.Context, uid string) error {
	_, err := r.store.db.ExecContext(ctx, "DELETE FROM rate_limits WHERE uid = ?", uid)
	return mapError(err)
}

// AppendAuditEntry records a privileged action. The ID is assigned by the
// database.
func (r *AdminRepository) AppendAuditEntry(ctx context.Context, entry application.AuditEntry) error {
	query := `INSERT INTO audit_log (uid, action, detail, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.store.db.ExecContext(ctx, query,
		entry.UID,
		entry.Action,
		entry.Detail,
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapError(err)
}

// ListAuditEntries returns the audit trail for one identity, oldest first.
func (r *AdminRepository) ListAuditEntries(ctx context.Context, uid string) ([]application.AuditEntry, error) {
	query := `
		SELECT id, uid, action, detail, created_at
		FROM audit_log
		WHERE uid = ?
		ORDER BY id ASC
	`

	rows, err := r.store.db.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []application.AuditEntry
	for rows.Next() {
		var entry application.AuditEntry
		var id int64
		var createdAtStr string

		if err := rows.Scan(&id, &entry.UID, &entry.Action, &entry.Detail, &createdAtStr); err != nil {
			return nil, mapError(err)
		}
		entry.ID = strconv.FormatInt(id, 10)
		if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return entries, nil
}
