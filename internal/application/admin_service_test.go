package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const testPinHash = "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"

func matchPin(expected string) PinVerifier {
	return func(_, pin string) error {
		if pin == expected {
			return nil
		}
		return ErrPermissionDenied
	}
}

func TestAdminService_SubmitPin(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("rejects malformed pins without touching the rate limit", func(t *testing.T) {
		t.Parallel()

		limits := newRateLimitStoreStub()
		svc := NewAdminService(newClaimStoreStub(), limits, &auditLogStub{}, AdminConfig{PinHash: testPinHash}, matchPin("1234"), clock)

		for _, pin := range []string{"123", "123456789", "12a4", "", "1234 "} {
			_, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: pin})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("pin %q: expected validation error, got %v", pin, err)
			}
		}
		if len(limits.records) != 0 {
			t.Fatalf("rate limit record must remain absent, got %#v", limits.records)
		}
	})

	t.Run("fails with not-configured before consuming an attempt", func(t *testing.T) {
		t.Parallel()

		limits := newRateLimitStoreStub()
		svc := NewAdminService(newClaimStoreStub(), limits, &auditLogStub{}, AdminConfig{}, matchPin("1234"), clock)

		_, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "1234"})
		if !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
		if len(limits.records) != 0 {
			t.Fatalf("unconfigured system must not consume attempts, got %#v", limits.records)
		}
	})

	t.Run("treats an unusable hash as a configuration fault", func(t *testing.T) {
		t.Parallel()

		limits := newRateLimitStoreStub()
		svc := NewAdminService(newClaimStoreStub(), limits, &auditLogStub{}, AdminConfig{PinHash: "not-a-hash"}, nil, clock)

		_, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "1234"})
		if !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
		if errors.Is(err, ErrPermissionDenied) {
			t.Fatal("a broken deployment must not masquerade as a wrong guess")
		}
		if len(limits.records) != 0 {
			t.Fatalf("a broken deployment must not consume attempts, got %#v", limits.records)
		}
	})

	t.Run("surfaces verifier faults as not-configured", func(t *testing.T) {
		t.Parallel()

		broken := func(_, _ string) error { return ErrIncompatiblePinVersion }
		svc := NewAdminService(newClaimStoreStub(), newRateLimitStoreStub(), &auditLogStub{}, AdminConfig{PinHash: testPinHash}, broken, clock)

		_, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "1234"})
		if !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
	})

	t.Run("requires an authenticated caller", func(t *testing.T) {
		t.Parallel()

		svc := NewAdminService(newClaimStoreStub(), newRateLimitStoreStub(), &auditLogStub{}, AdminConfig{PinHash: testPinHash}, matchPin("1234"), clock)
		_, err := svc.SubmitPin(context.Background(), SubmitPinParams{PIN: "1234"})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("issues a claim and clears the counter on success", func(t *testing.T) {
		t.Parallel()

		claims := newClaimStoreStub()
		limits := newRateLimitStoreStub()
		audit := &auditLogStub{}
		svc := NewAdminService(claims, limits, audit, AdminConfig{PinHash: testPinHash}, matchPin("4321"), clock)

		// A prior wrong guess leaves a counter behind.
		if _, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "0000"}); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied for wrong pin, got %v", err)
		}
		if limits.records["uid-1"].Attempts != 1 {
			t.Fatalf("wrong guess must cost an attempt, got %#v", limits.records["uid-1"])
		}

		result, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "4321"})
		if err != nil {
			t.Fatalf("SubmitPin failed: %v", err)
		}
		if want := now.Add(4 * time.Hour); !result.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, result.ExpiresAt)
		}

		claim := claims.claims["uid-1"]
		if !claim.Admin || !claim.ExpiresAt.Equal(result.ExpiresAt) {
			t.Fatalf("expected admin claim stored, got %#v", claim)
		}
		if _, ok := limits.records["uid-1"]; ok {
			t.Fatal("successful auth must clear the rate-limit record")
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != AuditActionAdminLogin {
			t.Fatalf("expected admin_login audit entry, got %v", actions)
		}
	})

	t.Run("locks out after repeated wrong guesses in one window", func(t *testing.T) {
		t.Parallel()

		limits := newRateLimitStoreStub()
		svc := NewAdminService(newClaimStoreStub(), limits, &auditLogStub{}, AdminConfig{PinHash: testPinHash}, matchPin("4321"), clock)

		submit := func() error {
			_, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "0000"})
			return err
		}

		for i := 1; i <= 5; i++ {
			if err := submit(); !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("attempt %d: expected ErrPermissionDenied, got %v", i, err)
			}
			if got := limits.records["uid-1"].Attempts; got != i {
				t.Fatalf("attempt %d: counter = %d", i, got)
			}
		}

		err := submit()
		if !errors.Is(err, ErrRateLimited) {
			t.Fatalf("sixth attempt: expected ErrRateLimited, got %v", err)
		}
		if !strings.Contains(err.Error(), "minute") {
			t.Fatalf("lockout error should carry remaining-time guidance, got %q", err)
		}

		record := limits.records["uid-1"]
		if record.LockedUntil == nil || !record.LockedUntil.Equal(now.Add(time.Hour)) {
			t.Fatalf("expected lockout one hour out, got %#v", record)
		}
		if record.Attempts != 6 {
			t.Fatalf("lockout still costs an attempt, got %d", record.Attempts)
		}

		// While locked, even the correct pin is rejected without consulting
		// the secret.
		if _, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "4321"}); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("locked caller must get ErrRateLimited, got %v", err)
		}
	})

	t.Run("accepts the correct pin once the lockout elapses", func(t *testing.T) {
		t.Parallel()

		current := now
		limits := newRateLimitStoreStub()
		claims := newClaimStoreStub()
		svc := NewAdminService(claims, limits, &auditLogStub{}, AdminConfig{PinHash: testPinHash}, matchPin("4321"), func() time.Time { return current })

		for i := 0; i < 6; i++ {
			_, _ = svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "0000"})
		}
		if limits.records["uid-1"].LockedUntil == nil {
			t.Fatal("expected caller to be locked out")
		}

		current = current.Add(time.Hour + time.Minute)
		result, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "4321"})
		if err != nil {
			t.Fatalf("SubmitPin after lockout failed: %v", err)
		}
		if want := current.Add(4 * time.Hour); !result.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, result.ExpiresAt)
		}
		if _, ok := limits.records["uid-1"]; ok {
			t.Fatal("record must reset after a successful post-lockout auth")
		}
	})

	t.Run("starts a fresh window when the previous one lapsed", func(t *testing.T) {
		t.Parallel()

		current := now
		limits := newRateLimitStoreStub()
		svc := NewAdminService(newClaimStoreStub(), limits, &auditLogStub{}, AdminConfig{PinHash: testPinHash}, matchPin("4321"), func() time.Time { return current })

		for i := 0; i < 3; i++ {
			_, _ = svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "0000"})
		}
		if got := limits.records["uid-1"].Attempts; got != 3 {
			t.Fatalf("expected 3 attempts, got %d", got)
		}

		current = current.Add(16 * time.Minute)
		_, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "0000"})
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		record := limits.records["uid-1"]
		if record.Attempts != 1 || !record.WindowStart.Equal(current) {
			t.Fatalf("expected a fresh window with one attempt, got %#v", record)
		}
	})

	t.Run("propagates claim store failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		claims := newClaimStoreStub()
		claims.setErr = expected
		svc := NewAdminService(claims, newRateLimitStoreStub(), &auditLogStub{}, AdminConfig{PinHash: testPinHash}, matchPin("4321"), clock)

		_, err := svc.SubmitPin(context.Background(), SubmitPinParams{Principal: Principal{UID: "uid-1"}, PIN: "4321"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestAdminService_VerifyAdminAccess(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("rejects callers without a claim", func(t *testing.T) {
		t.Parallel()

		svc := NewAdminService(newClaimStoreStub(), newRateLimitStoreStub(), nil, AdminConfig{PinHash: testPinHash}, nil, clock)
		err := svc.VerifyAdminAccess(context.Background(), "uid-1")
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if !strings.Contains(err.Error(), "admin access required") {
			t.Fatalf("missing-claim message must say access is required, got %q", err)
		}
	})

	t.Run("distinguishes an expired claim from a missing one", func(t *testing.T) {
		t.Parallel()

		claims := newClaimStoreStub()
		claims.claims["uid-1"] = AdminClaim{UID: "uid-1", Admin: true, ExpiresAt: now.Add(-time.Millisecond)}
		svc := NewAdminService(claims, newRateLimitStoreStub(), nil, AdminConfig{PinHash: testPinHash}, nil, clock)

		err := svc.VerifyAdminAccess(context.Background(), "uid-1")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if errors.Is(err, ErrPermissionDenied) {
			t.Fatal("expired session must not alias the missing-claim sentinel")
		}
	})

	t.Run("accepts a live claim", func(t *testing.T) {
		t.Parallel()

		claims := newClaimStoreStub()
		claims.claims["uid-1"] = AdminClaim{UID: "uid-1", Admin: true, ExpiresAt: now.Add(time.Hour)}
		svc := NewAdminService(claims, newRateLimitStoreStub(), nil, AdminConfig{PinHash: testPinHash}, nil, clock)

		if err := svc.VerifyAdminAccess(context.Background(), "uid-1"); err != nil {
			t.Fatalf("expected access granted, got %v", err)
		}
	})

	t.Run("requires an identity", func(t *testing.T) {
		t.Parallel()

		svc := NewAdminService(newClaimStoreStub(), newRateLimitStoreStub(), nil, AdminConfig{PinHash: testPinHash}, nil, clock)
		if err := svc.VerifyAdminAccess(context.Background(), "  "); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestAdminService_RevokeAdmin(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("clears the claim and records the logout", func(t *testing.T) {
		t.Parallel()

		claims := newClaimStoreStub()
		claims.claims["uid-1"] = AdminClaim{UID: "uid-1", Admin: true, ExpiresAt: now.Add(time.Hour)}
		audit := &auditLogStub{}
		svc := NewAdminService(claims, newRateLimitStoreStub(), audit, AdminConfig{PinHash: testPinHash}, nil, clock)

		if err := svc.RevokeAdmin(context.Background(), "uid-1"); err != nil {
			t.Fatalf("RevokeAdmin failed: %v", err)
		}
		if _, ok := claims.claims["uid-1"]; ok {
			t.Fatal("claim must be cleared")
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != AuditActionAdminLogout {
			t.Fatalf("expected admin_logout audit entry, got %v", actions)
		}
	})

	t.Run("is idempotent for callers without a claim", func(t *testing.T) {
		t.Parallel()

		svc := NewAdminService(newClaimStoreStub(), newRateLimitStoreStub(), &auditLogStub{}, AdminConfig{PinHash: testPinHash}, nil, clock)
		if err := svc.RevokeAdmin(context.Background(), "uid-1"); err != nil {
			t.Fatalf("revoking an absent claim must succeed, got %v", err)
		}
	})

	t.Run("requires an identity", func(t *testing.T) {
		t.Parallel()

		svc := NewAdminService(newClaimStoreStub(), newRateLimitStoreStub(), nil, AdminConfig{PinHash: testPinHash}, nil, clock)
		if err := svc.RevokeAdmin(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}
