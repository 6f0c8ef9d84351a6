package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/donnachab/jam/internal/application"
)

type fakeTokenResolver struct {
	principal application.Principal
	err       error
}

func (f fakeTokenResolver) ResolveToken(ctx context.Context, token string) (application.Principal, error) {
	return f.principal, f.err
}

func TestRequireIdentity(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without a bearer token", func(t *testing.T) {
		t.Parallel()

		handler := RequireIdentity(fakeTokenResolver{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run without a token")
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/admin/pin", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("rejects unknown tokens with an identity code", func(t *testing.T) {
		t.Parallel()

		resolver := fakeTokenResolver{err: application.ErrUnauthenticated}
		handler := RequireIdentity(resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run for unknown tokens")
		}))

		req := httptest.NewRequest(http.MethodPost, "/admin/pin", nil)
		req.Header.Set("Authorization", "Bearer stranger")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if resp.ErrorCode != "IDENTITY_REQUIRED" {
			t.Fatalf("expected IDENTITY_REQUIRED, got %q", resp.ErrorCode)
		}
	})

	t.Run("attaches the principal for valid tokens", func(t *testing.T) {
		t.Parallel()

		resolver := fakeTokenResolver{principal: application.Principal{UID: "uid-1"}}
		captured := make(chan application.Principal, 1)
		handler := RequireIdentity(resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				t.Error("expected principal in request context")
				return
			}
			captured <- principal
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/admin/pin", nil)
		req.Header.Set("Authorization", "Bearer token-1")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if principal := <-captured; principal.UID != "uid-1" {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("maps resolver failures to 500", func(t *testing.T) {
		t.Parallel()

		resolver := fakeTokenResolver{err: context.DeadlineExceeded}
		handler := RequireIdentity(resolver, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not run on resolver failure")
		}))

		req := httptest.NewRequest(http.MethodPost, "/admin/pin", nil)
		req.Header.Set("Authorization", "Bearer token-1")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", recorder.Code)
		}
	})
}
