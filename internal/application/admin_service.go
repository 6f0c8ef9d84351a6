package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// ClaimStore persists the admin claim attached to an identity. Writes are
// last-writer-wins; readers always re-fetch current state.
type ClaimStore interface {
	SetAdminClaim(ctx context.Context, claim AdminClaim) error
	GetAdminClaim(ctx context.Context, uid string) (AdminClaim, error)
	ClearAdminClaim(ctx context.Context, uid string) error
}

// RateLimitStore persists PIN attempt counters. IncrementAttempts must be an
// atomic in-store increment rather than a read-modify-write of a cached
// value, so concurrent guesses never lose updates.
type RateLimitStore interface {
	GetRateLimit(ctx context.Context, uid string) (RateLimitRecord, error)
	StartWindow(ctx context.Context, uid string, at time.Time) error
	IncrementAttempts(ctx context.Context, uid string) error
	LockOut(ctx context.Context, uid string, until time.Time) error
	ClearRateLimit(ctx context.Context, uid string) error
}

// AuditLog records privileged actions. Entries are append-only.
type AuditLog interface {
	AppendAuditEntry(ctx context.Context, entry AuditEntry) error
}

// AdminConfig carries the tunables of the admin session state machine. Zero
// values fall back to the documented defaults.
type AdminConfig struct {
	// PinHash is the argon2id hash of the shared admin secret, provisioned
	// out-of-band. Empty means PIN submission can never succeed.
	PinHash string
	// Window is the rolling period over which failed attempts are counted.
	Window time.Duration
	// MaxAttempts is the number of attempts allowed within a window before
	// lockout.
	MaxAttempts int
	// Lockout is how long a locked identity must wait before trying again.
	Lockout time.Duration
	// SessionTTL bounds the lifetime of an issued admin claim.
	SessionTTL time.Duration
}

const (
	defaultWindow      = 15 * time.Minute
	defaultMaxAttempts = 5
	defaultLockout     = time.Hour
	defaultSessionTTL  = 4 * time.Hour
)

var pinPattern = regexp.MustCompile(`^\d{4,8}$`)

// AdminService implements the admin privilege-escalation flow: PIN check,
// claim issuance with expiry, rate limiting and audit logging.
type AdminService struct {
	claims    ClaimStore
	limits    RateLimitStore
	audit     AuditLog
	verifyPin PinVerifier
	cfg       AdminConfig
	now       func() time.Time
	logger    *slog.Logger
}

// NewAdminService constructs an AdminService with the provided dependencies.
func NewAdminService(claims ClaimStore, limits RateLimitStore, audit AuditLog, cfg AdminConfig, verify PinVerifier, now func() time.Time) *AdminService {
	return NewAdminServiceWithLogger(claims, limits, audit, cfg, verify, now, nil)
}

// NewAdminServiceWithLogger constructs an AdminService with a specified logger.
func NewAdminServiceWithLogger(claims ClaimStore, limits RateLimitStore, audit AuditLog, cfg AdminConfig, verify PinVerifier, now func() time.Time, logger *slog.Logger) *AdminService {
	if verify == nil {
		verify = VerifyPin
	}
	if now == nil {
		now = time.Now
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = defaultLockout
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return &AdminService{
		claims:    claims,
		limits:    limits,
		audit:     audit,
		verifyPin: verify,
		cfg:       cfg,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *AdminService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AdminService", operation, attrs...)
}

// SubmitPin elevates the caller's identity to admin when the PIN matches the
// server-held secret. The configuration check runs before rate limiting so a
// system that can never succeed does not consume attempts; the well-formed
// input check runs before both so malformed submissions never touch the
// rate-limit record.
func (s *AdminService) SubmitPin(ctx context.Context, params SubmitPinParams) (result SubmitPinResult, err error) {
	if s == nil {
		err = fmt.Errorf("AdminService is nil")
		return
	}
	if s.claims == nil || s.limits == nil {
		err = fmt.Errorf("admin stores not configured")
		return
	}

	uid := strings.TrimSpace(params.Principal.UID)
	logger := s.loggerWith(ctx, "SubmitPin", "uid", uid)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "pin submission failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("expires_at", result.ExpiresAt).InfoContext(ctx, "admin claim issued")
	}()

	if uid == "" {
		err = ErrUnauthenticated
		return
	}
	if s.cfg.PinHash == "" {
		err = fmt.Errorf("%w: admin pin", ErrNotConfigured)
		return
	}
	if hashErr := ValidatePinHash(s.cfg.PinHash); hashErr != nil {
		err = fmt.Errorf("%w: admin pin hash: %v", ErrNotConfigured, hashErr)
		return
	}
	if !pinPattern.MatchString(params.PIN) {
		vErr := &ValidationError{}
		vErr.add("pin", "pin must be 4 to 8 digits")
		err = vErr
		return
	}

	now := s.now()

	var record RateLimitRecord
	record, err = s.limits.GetRateLimit(ctx, uid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return
	}
	exists := err == nil
	err = nil

	switch {
	case exists && record.LockedUntil != nil && now.Before(*record.LockedUntil):
		err = fmt.Errorf("%w: try again in %d minute(s)", ErrRateLimited, remainingMinutes(now, *record.LockedUntil))
		return
	case !exists || now.Sub(record.WindowStart) > s.cfg.Window:
		if err = s.limits.StartWindow(ctx, uid, now); err != nil {
			return
		}
	case record.Attempts >= s.cfg.MaxAttempts:
		until := now.Add(s.cfg.Lockout)
		if err = s.limits.LockOut(ctx, uid, until); err != nil {
			return
		}
		if err = s.limits.IncrementAttempts(ctx, uid); err != nil {
			return
		}
		err = fmt.Errorf("%w: try again in %d minute(s)", ErrRateLimited, remainingMinutes(now, until))
		return
	default:
		if err = s.limits.IncrementAttempts(ctx, uid); err != nil {
			return
		}
	}

	// Every wrong guess above has already cost an attempt. Anything other
	// than a mismatch means the provisioned hash is unusable, which is a
	// deployment problem rather than the caller's.
	if err = s.verifyPin(s.cfg.PinHash, params.PIN); err != nil {
		if !errors.Is(err, ErrPermissionDenied) {
			err = fmt.Errorf("%w: admin pin hash: %v", ErrNotConfigured, err)
			return
		}
		err = ErrPermissionDenied
		return
	}

	if err = s.limits.ClearRateLimit(ctx, uid); err != nil {
		return
	}

	expiresAt := now.Add(s.cfg.SessionTTL)
	if err = s.claims.SetAdminClaim(ctx, AdminClaim{UID: uid, Admin: true, ExpiresAt: expiresAt}); err != nil {
		return
	}

	if err = s.appendAudit(ctx, uid, AuditActionAdminLogin, ""); err != nil {
		return
	}

	result = SubmitPinResult{ExpiresAt: expiresAt}
	return
}

// VerifyAdminAccess gates every privileged operation. The admin claim is the
// sole source of truth; no client-side belief about admin state is trusted.
func (s *AdminService) VerifyAdminAccess(ctx context.Context, uid string) error {
	if s == nil {
		return fmt.Errorf("AdminService is nil")
	}
	if s.claims == nil {
		return fmt.Errorf("claim store not configured")
	}

	trimmed := strings.TrimSpace(uid)
	if trimmed == "" {
		return ErrUnauthenticated
	}

	claim, err := s.claims.GetAdminClaim(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: admin access required", ErrPermissionDenied)
		}
		return err
	}
	if !claim.Admin {
		return fmt.Errorf("%w: admin access required", ErrPermissionDenied)
	}
	if !claim.ExpiresAt.IsZero() && s.now().After(claim.ExpiresAt) {
		return fmt.Errorf("%w: please re-enter the pin", ErrSessionExpired)
	}
	return nil
}

// RevokeAdmin clears the caller's admin claim. It requires only that the
// caller be authenticated, not currently admin, and is idempotent.
func (s *AdminService) RevokeAdmin(ctx context.Context, uid string) error {
	if s == nil {
		return fmt.Errorf("AdminService is nil")
	}
	if s.claims == nil {
		return fmt.Errorf("claim store not configured")
	}

	trimmed := strings.TrimSpace(uid)
	if trimmed == "" {
		return ErrUnauthenticated
	}

	logger := s.loggerWith(ctx, "RevokeAdmin", "uid", trimmed)

	if err := s.claims.ClearAdminClaim(ctx, trimmed); err != nil && !errors.Is(err, ErrNotFound) {
		logger.ErrorContext(ctx, "failed to clear admin claim", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if err := s.appendAudit(ctx, trimmed, AuditActionAdminLogout, ""); err != nil {
		logger.ErrorContext(ctx, "failed to record audit entry", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "admin claim revoked")
	return nil
}

func (s *AdminService) appendAudit(ctx context.Context, uid, action, detail string) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.AppendAuditEntry(ctx, AuditEntry{
		UID:       uid,
		Action:    action,
		Detail:    detail,
		CreatedAt: s.now(),
	})
}

func remainingMinutes(now, until time.Time) int {
	remaining := until.Sub(now)
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute > 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
