package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the jam site
// service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string

	// AdminPinHash is the argon2id hash of the admin PIN. Leaving it empty
	// disables PIN login; the hash-pin subcommand generates one.
	AdminPinHash string

	SessionTTL      time.Duration
	RateLimitWindow time.Duration
	MaxPinAttempts  int
	LockoutDuration time.Duration

	UploadBaseURL       string
	UploadSigningSecret string
	UploadGrantTTL      time.Duration

	// Timezone is the IANA name the schedule projector resolves dates in.
	Timezone string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required values are validated and
// reported together so a misconfigured deployment fails with one message.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:jam.db?_foreign_keys=on",
		SessionTTL:      4 * time.Hour,
		RateLimitWindow: 15 * time.Minute,
		MaxPinAttempts:  5,
		LockoutDuration: time.Hour,
		UploadGrantTTL:  15 * time.Minute,
		Timezone:        "Europe/Dublin",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := strings.TrimSpace(os.Getenv("JAM_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "JAM_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("JAM_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.AdminPinHash = strings.TrimSpace(os.Getenv("JAM_ADMIN_PIN_HASH"))

	if ttlValue := strings.TrimSpace(os.Getenv("JAM_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "JAM_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if windowValue := strings.TrimSpace(os.Getenv("JAM_RATE_LIMIT_WINDOW")); windowValue != "" {
		window, err := time.ParseDuration(windowValue)
		if err != nil || window <= 0 {
			invalid = append(invalid, "JAM_RATE_LIMIT_WINDOW")
		} else {
			cfg.RateLimitWindow = window
		}
	}

	if attemptsValue := strings.TrimSpace(os.Getenv("JAM_MAX_PIN_ATTEMPTS")); attemptsValue != "" {
		attempts, err := strconv.Atoi(attemptsValue)
		if err != nil || attempts <= 0 {
			invalid = append(invalid, "JAM_MAX_PIN_ATTEMPTS")
		} else {
			cfg.MaxPinAttempts = attempts
		}
	}

	if lockoutValue := strings.TrimSpace(os.Getenv("JAM_LOCKOUT_DURATION")); lockoutValue != "" {
		lockout, err := time.ParseDuration(lockoutValue)
		if err != nil || lockout <= 0 {
			invalid = append(invalid, "JAM_LOCKOUT_DURATION")
		} else {
			cfg.LockoutDuration = lockout
		}
	}

	if baseURL := strings.TrimSpace(os.Getenv("JAM_UPLOAD_BASE_URL")); baseURL == "" {
		missing = append(missing, "JAM_UPLOAD_BASE_URL")
	} else {
		cfg.UploadBaseURL = strings.TrimRight(baseURL, "/")
	}

	if secret := strings.TrimSpace(os.Getenv("JAM_UPLOAD_SIGNING_SECRET")); secret == "" {
		missing = append(missing, "JAM_UPLOAD_SIGNING_SECRET")
	} else {
		cfg.UploadSigningSecret = secret
	}

	if grantTTLValue := strings.TrimSpace(os.Getenv("JAM_UPLOAD_GRANT_TTL")); grantTTLValue != "" {
		grantTTL, err := time.ParseDuration(grantTTLValue)
		if err != nil || grantTTL <= 0 {
			invalid = append(invalid, "JAM_UPLOAD_GRANT_TTL")
		} else {
			cfg.UploadGrantTTL = grantTTL
		}
	}

	if tz := strings.TrimSpace(os.Getenv("JAM_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "JAM_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
