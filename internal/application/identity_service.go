package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// IdentityStore persists anonymous caller identities.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, identity Identity) (Identity, error)
	GetIdentityByToken(ctx context.Context, token string) (Identity, error)
}

// IdentityService issues anonymous identities and resolves bearer tokens to
// principals. Every caller gets an identity before anything privileged can
// happen; the admin claim attaches to the identity's UID.
type IdentityService struct {
	identities     IdentityStore
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewIdentityService constructs an IdentityService with the provided dependencies.
func NewIdentityService(identities IdentityStore, idGenerator, tokenGenerator func() string, now func() time.Time) *IdentityService {
	return NewIdentityServiceWithLogger(identities, idGenerator, tokenGenerator, now, nil)
}

// NewIdentityServiceWithLogger constructs an IdentityService with a specified logger.
func NewIdentityServiceWithLogger(identities IdentityStore, idGenerator, tokenGenerator func() string, now func() time.Time, logger *slog.Logger) *IdentityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	return &IdentityService{
		identities:     identities,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *IdentityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IdentityService", operation, attrs...)
}

// CreateIdentity mints a new anonymous identity and its bearer token.
func (s *IdentityService) CreateIdentity(ctx context.Context) (identity Identity, err error) {
	if s == nil || s.identities == nil {
		err = fmt.Errorf("identity store not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateIdentity")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create identity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("uid", identity.UID).InfoContext(ctx, "identity created")
	}()

	identity, err = s.identities.CreateIdentity(ctx, Identity{
		UID:       s.idGenerator(),
		Token:     s.tokenGenerator(),
		CreatedAt: s.now(),
	})
	return
}

// ResolveToken maps a bearer token to its principal. An unknown or empty
// token yields ErrUnauthenticated.
func (s *IdentityService) ResolveToken(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.identities == nil {
		return Principal{}, fmt.Errorf("identity store not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, ErrUnauthenticated
	}

	identity, err := s.identities.GetIdentityByToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, err
	}
	return Principal{UID: identity.UID}, nil
}
