package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
)

// AdminVerifier re-derives the caller's admin status from the stored claim.
type AdminVerifier interface {
	VerifyAdminAccess(ctx context.Context, uid string) error
}

// uploadPathPrefix is the fixed logical prefix every grant is scoped to.
const uploadPathPrefix = "images"

const defaultGrantTTL = 15 * time.Minute

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".svg":  {},
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
}

// UploadService issues time-bounded signed upload grants so image bytes go
// straight to storage without routing through the application server.
type UploadService struct {
	admin         AdminVerifier
	audit         AuditLog
	signingSecret []byte
	baseURL       string
	grantTTL      time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewUploadService constructs an UploadService with the provided dependencies.
func NewUploadService(admin AdminVerifier, audit AuditLog, signingSecret, baseURL string, grantTTL time.Duration, now func() time.Time) *UploadService {
	return NewUploadServiceWithLogger(admin, audit, signingSecret, baseURL, grantTTL, now, nil)
}

// NewUploadServiceWithLogger constructs an UploadService with a specified logger.
func NewUploadServiceWithLogger(admin AdminVerifier, audit AuditLog, signingSecret, baseURL string, grantTTL time.Duration, now func() time.Time, logger *slog.Logger) *UploadService {
	if grantTTL <= 0 {
		grantTTL = defaultGrantTTL
	}
	if now == nil {
		now = time.Now
	}
	return &UploadService{
		admin:         admin,
		audit:         audit,
		signingSecret: []byte(signingSecret),
		baseURL:       strings.TrimRight(baseURL, "/"),
		grantTTL:      grantTTL,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *UploadService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UploadService", operation, attrs...)
}

// GenerateGrant validates the requested file and produces a signed,
// time-bounded write grant scoped under the images prefix. Admin access is
// verified before any input validation.
func (s *UploadService) GenerateGrant(ctx context.Context, principal Principal, fileName, contentType string) (grant UploadGrant, err error) {
	if s == nil {
		err = fmt.Errorf("UploadService is nil")
		return
	}
	if s.admin == nil {
		err = fmt.Errorf("admin verifier not configured")
		return
	}

	logger := s.loggerWith(ctx, "GenerateGrant", "uid", principal.UID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "upload grant rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("path", grant.Path).InfoContext(ctx, "upload grant issued")
	}()

	if err = s.admin.VerifyAdminAccess(ctx, principal.UID); err != nil {
		return
	}
	if len(s.signingSecret) == 0 {
		err = fmt.Errorf("%w: upload signing secret", ErrNotConfigured)
		return
	}

	sanitized := SanitizeFileName(fileName)
	vErr := &ValidationError{}
	if sanitized == "" {
		vErr.add("file_name", "file name is required")
	} else if sanitized != strings.TrimSpace(fileName) {
		// Stripping changed the name, so the caller sent traversal characters.
		// A traversed path must never round-trip into a grant, even when the
		// stripped remainder happens to carry a valid extension.
		vErr.add("file_name", "file name must not contain path separators or '..'")
	} else if len(sanitized) > 255 {
		vErr.add("file_name", "file name must be at most 255 characters")
	} else if _, ok := allowedExtensions[strings.ToLower(path.Ext(sanitized))]; !ok {
		vErr.add("file_name", "file extension must be one of .jpg, .jpeg, .png, .gif, .webp, .svg")
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		vErr.add("content_type", "content type is not an allowed image type")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	objectPath := uploadPathPrefix + "/" + sanitized
	expiresAt := s.now().Add(s.grantTTL)
	signature := s.sign(objectPath, expiresAt)

	grant = UploadGrant{
		URL:       fmt.Sprintf("%s/%s?expires=%d&signature=%s", s.baseURL, objectPath, expiresAt.Unix(), signature),
		Path:      objectPath,
		ExpiresAt: expiresAt,
	}

	if err = s.appendAudit(ctx, principal.UID, AuditActionGenerateURL, sanitized); err != nil {
		grant = UploadGrant{}
		return
	}
	return
}

// sign computes the HMAC-SHA256 signature binding the grant to its path and
// expiry.
func (s *UploadService) sign(objectPath string, expiresAt time.Time) string {
	mac := hmac.New(sha256.New, s.signingSecret)
	fmt.Fprintf(mac, "PUT\n%s\n%d", objectPath, expiresAt.Unix())
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *UploadService) appendAudit(ctx context.Context, uid, action, detail string) error {
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

// SanitizeFileName strips parent-directory markers and path separators so a
// grant can never address anything outside the upload prefix.
func SanitizeFileName(name string) string {
	sanitized := strings.TrimSpace(name)
	for strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", "")
	}
	sanitized = strings.ReplaceAll(sanitized, "/", "")
	sanitized = strings.ReplaceAll(sanitized, "\\", "")
	return sanitized
}
