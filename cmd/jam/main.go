// Package main provides the jam binary entry point. The default serve
// command runs the community jam session API; hash-pin and seed support
// provisioning a deployment.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/donnachab/jam/internal/application"
	"github.com/donnachab/jam/internal/config"
	httptransport "github.com/donnachab/jam/internal/http"
	"github.com/donnachab/jam/internal/persistence/sqlite"
	"github.com/donnachab/jam/internal/schedule"
	"github.com/donnachab/jam/internal/seed"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "jam",
		Short: "Community jam session API",
		Long: `The jam server powers a community jam session website: the public
upcoming-schedule projection, venue and community content, and the
PIN-protected admin session flow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(logLevel)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "hash-pin <pin>",
		Short: "Hash an admin PIN for the JAM_ADMIN_PIN_HASH variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := application.CreatePinHash(args[0], application.DefaultArgon2idParams)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed <file>",
		Short: "Load a YAML content bundle into an empty database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(args[0], logLevel)
		},
	})

	return cmd
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func runServe(logLevel string) error {
	logger := newLogger(logLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	identityRepo := sqlite.NewIdentityRepository(storage)
	adminRepo := sqlite.NewAdminRepository(storage)
	jamRepo := sqlite.NewJamRepository(storage)
	configRepo := sqlite.NewSiteConfigRepository(storage)
	venueRepo := sqlite.NewVenueRepository(storage)
	communityRepo := sqlite.NewCommunityRepository(storage)
	eventRepo := sqlite.NewEventRepository(storage)
	galleryRepo := sqlite.NewGalleryRepository(storage)

	identityService := application.NewIdentityServiceWithLogger(identityRepo, idGenerator, tokenGenerator, now, logger)
	adminService := application.NewAdminServiceWithLogger(adminRepo, adminRepo, adminRepo, application.AdminConfig{
		PinHash:     cfg.AdminPinHash,
		Window:      cfg.RateLimitWindow,
		MaxAttempts: cfg.MaxPinAttempts,
		Lockout:     cfg.LockoutDuration,
		SessionTTL:  cfg.SessionTTL,
	}, nil, now, logger)
	uploadService := application.NewUploadServiceWithLogger(adminService, adminRepo, cfg.UploadSigningSecret, cfg.UploadBaseURL, cfg.UploadGrantTTL, now, logger)
	jamService := application.NewJamServiceWithLogger(jamRepo, configRepo, adminService, schedule.NewProjector(loc), idGenerator, now, logger)
	venueService := application.NewVenueServiceWithLogger(venueRepo, adminService, idGenerator, now, logger)
	communityService := application.NewCommunityServiceWithLogger(communityRepo, adminService, idGenerator, now, logger)
	eventService := application.NewEventServiceWithLogger(eventRepo, adminService, idGenerator, now, logger)
	galleryService := application.NewGalleryServiceWithLogger(galleryRepo, adminService, idGenerator, now, logger)

	metrics := httptransport.NewMetrics()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Identity:        httptransport.NewIdentityHandler(identityService, logger),
		Admin:           httptransport.NewAdminHandler(adminService, metrics, logger),
		Uploads:         httptransport.NewUploadHandler(uploadService, metrics, logger),
		Schedule:        httptransport.NewScheduleHandler(jamService, logger),
		Venues:          httptransport.NewVenueHandler(venueService, logger),
		Community:       httptransport.NewCommunityHandler(communityService, logger),
		Events:          httptransport.NewEventHandler(eventService, logger),
		Gallery:         httptransport.NewGalleryHandler(galleryService, logger),
		Health:          storage,
		MetricsHandler:  metrics.Handler(),
		RequireIdentity: httptransport.RequireIdentity(identityService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			metrics.Instrument(),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("jam API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runSeed(path, logLevel string) error {
	logger := newLogger(logLevel)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bundle, err := seed.LoadFile(path)
	if err != nil {
		return err
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	applier := seed.NewApplier(seed.Stores{
		Config:    sqlite.NewSiteConfigRepository(storage),
		Venues:    sqlite.NewVenueRepository(storage),
		Jams:      sqlite.NewJamRepository(storage),
		Community: sqlite.NewCommunityRepository(storage),
		Events:    sqlite.NewEventRepository(storage),
		Gallery:   sqlite.NewGalleryRepository(storage),
	}, uuid.NewString, time.Now)

	if err := applier.Apply(context.Background(), bundle); err != nil {
		return err
	}

	logger.Info("seed bundle applied",
		"venues", len(bundle.Venues),
		"jams", len(bundle.Jams),
		"community_items", len(bundle.Community),
		"events", len(bundle.Events),
		"gallery_photos", len(bundle.Gallery))
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(buf)
}
