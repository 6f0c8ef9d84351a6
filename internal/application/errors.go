package application

import "errors"

var (
	// ErrUnauthenticated is returned when no caller identity is present at all.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrPermissionDenied is returned when the caller lacks the admin claim or
	// supplied the wrong PIN.
	ErrPermissionDenied = errors.New("application: permission denied")
	// ErrSessionExpired is returned when an admin claim exists but its expiry
	// has elapsed. Kept distinct from ErrPermissionDenied so the two
	// user-facing messages stay separate.
	ErrSessionExpired = errors.New("application: admin session expired")
	// ErrRateLimited is returned while a caller is locked out of PIN
	// submissions. Wrapping errors carry the remaining-time guidance.
	ErrRateLimited = errors.New("application: too many attempts")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrNotConfigured is returned when a server-side secret required by an
	// operation was never provisioned. Checked before rate limiting so a
	// system that can never succeed does not consume attempts.
	ErrNotConfigured = errors.New("application: not configured")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
