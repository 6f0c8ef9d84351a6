package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/donnachab/jam/internal/application"
)

func TestAdminRepository_ClaimRoundTrip(t *testing.T) {
	repo := NewAdminRepository(newTestStore(t))
	ctx := context.Background()
	expires := referenceTime().Add(4 * time.Hour)

	claim := application.AdminClaim{UID: "uid-1", Admin: true, ExpiresAt: expires}
	if err := repo.SetAdminClaim(ctx, claim); err != nil {
		t.Fatalf("SetAdminClaim failed: %v", err)
	}

	retrieved, err := repo.GetAdminClaim(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetAdminClaim failed: %v", err)
	}
	if !retrieved.Admin || !retrieved.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected claim %+v", retrieved)
	}

	// Setting again extends the expiry in place.
	claim.ExpiresAt = expires.Add(time.Hour)
	if err := repo.SetAdminClaim(ctx, claim); err != nil {
		t.Fatalf("second SetAdminClaim failed: %v", err)
	}
	retrieved, err = repo.GetAdminClaim(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetAdminClaim failed: %v", err)
	}
	if !retrieved.ExpiresAt.Equal(expires.Add(time.Hour)) {
		t.Fatalf("expected extended expiry, got %v", retrieved.ExpiresAt)
	}

	if err := repo.ClearAdminClaim(ctx, "uid-1"); err != nil {
		t.Fatalf("ClearAdminClaim failed: %v", err)
	}
	if _, err := repo.GetAdminClaim(ctx, "uid-1"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	if err := repo.ClearAdminClaim(ctx, "uid-1"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second clear, got %v", err)
	}
}

func TestAdminRepository_RateLimitWindow(t *testing.T) {
	repo := NewAdminRepository(newTestStore(t))
	ctx := context.Background()
	now := referenceTime()

	if _, err := repo.GetRateLimit(ctx, "uid-1"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first attempt, got %v", err)
	}

	if err := repo.StartWindow(ctx, "uid-1", now); err != nil {
		t.Fatalf("StartWindow failed: %v", err)
	}
	record, err := repo.GetRateLimit(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetRateLimit failed: %v", err)
	}
	if record.Attempts != 1 || !record.WindowStart.Equal(now) || record.LockedUntil != nil {
		t.Fatalf("unexpected fresh window %+v", record)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementAttempts(ctx, "uid-1"); err != nil {
			t.Fatalf("IncrementAttempts failed: %v", err)
		}
	}
	record, err = repo.GetRateLimit(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetRateLimit failed: %v", err)
	}
	if record.Attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", record.Attempts)
	}

	until := now.Add(time.Hour)
	if err := repo.LockOut(ctx, "uid-1", until); err != nil {
		t.Fatalf("LockOut failed: %v", err)
	}
	record, err = repo.GetRateLimit(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetRateLimit failed: %v", err)
	}
	if record.LockedUntil == nil || !record.LockedUntil.Equal(until) {
		t.Fatalf("expected lockout until %v, got %+v", until, record)
	}

	// A fresh window clears both the counter and the lockout.
	if err := repo.StartWindow(ctx, "uid-1", now.Add(2*time.Hour)); err != nil {
		t.Fatalf("StartWindow failed: %v", err)
	}
	record, err = repo.GetRateLimit(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetRateLimit failed: %v", err)
	}
	if record.Attempts != 1 || record.LockedUntil != nil {
		t.Fatalf("expected reset window, got %+v", record)
	}

	if err := repo.ClearRateLimit(ctx, "uid-1"); err != nil {
		t.Fatalf("ClearRateLimit failed: %v", err)
	}
	if _, err := repo.GetRateLimit(ctx, "uid-1"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestAdminRepository_IncrementAttemptsConcurrent(t *testing.T) {
	repo := NewAdminRepository(newTestStore(t))
	ctx := context.Background()

	if err := repo.StartWindow(ctx, "uid-1", referenceTime()); err != nil {
		t.Fatalf("StartWindow failed: %v", err)
	}

	const goroutines = 10
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementAttempts(ctx, "uid-1")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("IncrementAttempts failed: %v", err)
		}
	}

	record, err := repo.GetRateLimit(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetRateLimit failed: %v", err)
	}
	if record.Attempts != goroutines+1 {
		t.Fatalf("expected %d attempts, got %d", goroutines+1, record.Attempts)
	}
}

func TestAdminRepository_IncrementMissing(t *testing.T) {
	repo := NewAdminRepository(newTestStore(t))

	if err := repo.IncrementAttempts(context.Background(), "nobody"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.LockOut(context.Background(), "nobody", referenceTime()); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminRepository_AuditTrail(t *testing.T) {
	repo := NewAdminRepository(newTestStore(t))
	ctx := context.Background()
	now := referenceTime()

	entries := []application.AuditEntry{
		{UID: "uid-1", Action: application.AuditActionAdminLogin, CreatedAt: now},
		{UID: "uid-1", Action: application.AuditActionGenerateURL, Detail: "photo.png", CreatedAt: now.Add(time.Minute)},
		{UID: "uid-2", Action: application.AuditActionAdminLogin, CreatedAt: now},
	}
	for _, entry := range entries {
		if err := repo.AppendAuditEntry(ctx, entry); err != nil {
			t.Fatalf("AppendAuditEntry failed: %v", err)
		}
	}

	trail, err := repo.ListAuditEntries(ctx, "uid-1")
	if err != nil {
		t.Fatalf("ListAuditEntries failed: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 entries for uid-1, got %d", len(trail))
	}
	if trail[0].Action != application.AuditActionAdminLogin || trail[1].Detail != "photo.png" {
		t.Fatalf("unexpected trail %+v", trail)
	}
	if trail[0].ID == "" || trail[0].ID == trail[1].ID {
		t.Fatalf("expected distinct assigned ids, got %q and %q", trail[0].ID, trail[1].ID)
	}
}
