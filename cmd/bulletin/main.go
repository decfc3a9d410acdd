// Copyright (c) 2025-2026 Propcrest
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/propcrest/bulletin-go/internal/bulletin"
	"github.com/propcrest/bulletin-go/internal/cache"
	"github.com/propcrest/bulletin-go/internal/config"
	"github.com/propcrest/bulletin-go/internal/handler"
	"github.com/propcrest/bulletin-go/internal/imagehost"
	"github.com/propcrest/bulletin-go/internal/logging"
	"github.com/propcrest/bulletin-go/internal/middleware"
	"github.com/propcrest/bulletin-go/internal/scheduler"
	"github.com/propcrest/bulletin-go/internal/session"
	"github.com/propcrest/bulletin-go/internal/store"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "bulletin - Propcrest property bulletin board\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BULLETIN_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BULLETIN_DB_PATH           SQLite database path (default: ./data/bulletin.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BULLETIN_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BULLETIN_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BULLETIN_ADMIN_EMAILS      Comma-separated admin allow-list\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BULLETIN_REDIS_URL         Redis URL for the record cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BULLETIN_IMAGE_UPLOAD_URL  Image host unsigned upload endpoint (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("bulletin %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	queries := store.New(db)

	// Upgrade logger to also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventHandler(textHandler, queries))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Record cache: Redis when configured, in-process memory otherwise
	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	var backend cache.Cache
	if cfg.UseRedisCache() {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.CachePrefix, cacheTTL)
		if err != nil {
			slog.Warn("redis unavailable, falling back to memory cache", "error", err)
			backend = cache.NewMemoryCache(cacheTTL)
		} else {
			slog.Info("record cache initialized", "backend", "redis", "url", cfg.RedisURL)
			backend = redisCache
		}
	} else {
		slog.Info("record cache initialized", "backend", "memory")
		backend = cache.NewMemoryCache(cacheTTL)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	recordCache := cache.NewRecordCache(backend, logger)

	// Bulletin domain service
	gate := bulletin.NewGate(cfg.AdminEmails)
	svc := bulletin.NewService(queries, recordCache, gate, store.SeedRecord(), logger)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("priming bulletin store: %w", err)
	}
	slog.Info("bulletin service started", "admins", len(cfg.AdminEmails))

	// Background maintenance jobs
	sched := scheduler.New(svc, queries, cfg.EventRetentionDays, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	uploader := imagehost.New(cfg.ImageUploadURL, cfg.ImageUploadPreset)
	if cfg.ImageUploadEnabled() {
		slog.Info("image uploads enabled", "url", cfg.ImageUploadURL)
	}

	// Protection middleware
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized", "max_failed_attempts", 5, "lockout_duration", "15m")

	// Handlers
	bulletinHandler := handler.NewBulletinHandler(svc, cfg.DefaultPerPage, logger)
	authHandler := handler.NewAuthHandler(queries, sessionManager, loginProtection, svc, logger)
	uploadHandler := handler.NewUploadHandler(svc, uploader, logger)
	eventsHandler := handler.NewEventsHandler(queries, gate, logger)
	healthHandler := handler.NewHealthHandler(db, gate)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.ResolveSession(sessionManager, queries))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(csrfMiddleware)

		// Public surface
		r.Get("/bulletin", bulletinHandler.View)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/signin", authHandler.Signin)
			r.Post("/signout", authHandler.Signout)
		})

		// Admin surface. RequireAuth rejects anonymous and expired
		// sessions; allow-list enforcement happens per operation in
		// the domain layer.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Route("/bulletin", func(r chi.Router) {
				r.Post("/edit", bulletinHandler.EnterEdit)
				r.Post("/save", bulletinHandler.Save)
				r.Post("/cancel", bulletinHandler.Cancel)
				r.Post("/reset", bulletinHandler.Reset)
				r.Patch("/field", bulletinHandler.UpdateField)

				r.Post("/listings", bulletinHandler.AddListing)
				r.Patch("/listings", bulletinHandler.UpdateListing)
				r.Delete("/listings", bulletinHandler.RemoveListing)

				r.Post("/phones", bulletinHandler.AddPhoneEntry)
				r.Patch("/phones", bulletinHandler.UpdatePhoneEntry)
				r.Delete("/phones", bulletinHandler.RemovePhoneEntry)
			})

			r.Post("/upload", uploadHandler.Upload)
			r.Get("/events", eventsHandler.List)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
