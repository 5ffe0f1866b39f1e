// Copyright (c) 2025-2026 Oleg Ivanchenko
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

	"github.com/Legyan/yamdb-final/internal/auth"
	"github.com/Legyan/yamdb-final/internal/config"
	"github.com/Legyan/yamdb-final/internal/handler/api"
	"github.com/Legyan/yamdb-final/internal/importer"
	"github.com/Legyan/yamdb-final/internal/logging"
	"github.com/Legyan/yamdb-final/internal/middleware"
	"github.com/Legyan/yamdb-final/internal/notify"
	"github.com/Legyan/yamdb-final/internal/store"
	"github.com/Legyan/yamdb-final/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	importDir := flag.String("import", "", "Load seed data from CSV files in the given directory and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "YaMDb - Review Platform API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  YAMDB_JWT_SECRET       Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  YAMDB_DB_PATH          SQLite database path (default: ./data/yamdb.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  YAMDB_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  YAMDB_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  YAMDB_NOTIFY_URL       Confirmation code delivery endpoint (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("yamdb %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(*importDir); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(importDir string) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	var baseHandler slog.Handler
	if cfg.IsDevelopment() {
		baseHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		baseHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(baseHandler)
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
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

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Import mode: load CSV seed data and exit
	if importDir != "" {
		result, err := importer.New(db, logger).Import(ctx, importDir)
		if err != nil {
			return fmt.Errorf("importing csv data: %w", err)
		}
		slog.Info("csv import finished",
			"users", result.Users,
			"categories", result.Categories,
			"genres", result.Genres,
			"titles", result.Titles,
			"reviews", result.Reviews,
			"comments", result.Comments)
		return nil
	}

	// Upgrade logger to also write WARN and ERROR logs to the events table
	eventLogHandler := logging.NewEventLogHandler(baseHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Token issuer and confirmation code delivery
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	notifier := notify.New(cfg.NotifyURL, cfg.NotifySecret, logger)
	if notifier.Enabled() {
		slog.Info("notification delivery enabled", "url", cfg.NotifyURL)
	} else {
		slog.Info("notification delivery disabled, confirmation codes are logged")
	}

	apiHandler := api.NewHandler(db, issuer, notifier)

	// Rate limiters, per client IP
	apiRateLimiter := middleware.NewGlobalRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	apiRateLimiter.StartCleanup(ctx)
	authRateLimiter := middleware.NewGlobalRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	authRateLimiter.StartCleanup(ctx)
	slog.Info("rate limiters initialized",
		"api_rps", cfg.RateLimitRPS,
		"auth_rps", cfg.AuthRateLimitRPS)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))                    // Gzip compression with level 5
	r.Use(chimw.GetHead)                        // Handle HEAD requests for uptime monitoring
	r.Use(middleware.Timeout(30 * time.Second)) // 30 second request timeout
	r.Use(middleware.StripTrailingSlash)        // Redirect /path/ to /path (301)

	// Health check route
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			api.WriteError(w, http.StatusServiceUnavailable, "unavailable", "Database unreachable", nil)
			return
		}
		api.WriteSuccess(w, map[string]string{
			"status":  "ok",
			"version": versionInfo.Version,
		}, nil)
	})

	// REST API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())

		r.Get("/status", apiHandler.Status)

		// Auth routes (public, tighter rate limit)
		r.Group(func(r chi.Router) {
			r.Use(authRateLimiter.Middleware())
			r.Post("/auth/signup", apiHandler.Signup)
			r.Post("/auth/token", apiHandler.Token)
		})

		// Public read endpoints
		r.Get("/categories", apiHandler.ListCategories)
		r.Get("/genres", apiHandler.ListGenres)
		r.Get("/titles", apiHandler.ListTitles)
		r.Get("/titles/{titleID}", apiHandler.GetTitle)
		r.Get("/titles/{titleID}/reviews", apiHandler.ListReviews)
		r.Get("/titles/{titleID}/reviews/{reviewID}", apiHandler.GetReview)
		r.Get("/titles/{titleID}/reviews/{reviewID}/comments", apiHandler.ListComments)
		r.Get("/titles/{titleID}/reviews/{reviewID}/comments/{commentID}", apiHandler.GetComment)

		// Authenticated endpoints (object-level permissions enforced per handler)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(issuer, db))

			r.Get("/users/me", apiHandler.Me)
			r.Patch("/users/me", apiHandler.UpdateMe)

			r.Post("/titles/{titleID}/reviews", apiHandler.CreateReview)
			r.Patch("/titles/{titleID}/reviews/{reviewID}", apiHandler.UpdateReview)
			r.Delete("/titles/{titleID}/reviews/{reviewID}", apiHandler.DeleteReview)

			r.Post("/titles/{titleID}/reviews/{reviewID}/comments", apiHandler.CreateComment)
			r.Patch("/titles/{titleID}/reviews/{reviewID}/comments/{commentID}", apiHandler.UpdateComment)
			r.Delete("/titles/{titleID}/reviews/{reviewID}/comments/{commentID}", apiHandler.DeleteComment)
		})

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(issuer, db))
			r.Use(middleware.RequireAdmin)

			r.Get("/users", apiHandler.ListUsers)
			r.Post("/users", apiHandler.CreateUser)
			r.Get("/users/{username}", apiHandler.GetUserByUsername)
			r.Patch("/users/{username}", apiHandler.UpdateUserByUsername)
			r.Delete("/users/{username}", apiHandler.DeleteUserByUsername)

			r.Post("/categories", apiHandler.CreateCategory)
			r.Delete("/categories/{slug}", apiHandler.DeleteCategory)
			r.Post("/genres", apiHandler.CreateGenre)
			r.Delete("/genres/{slug}", apiHandler.DeleteGenre)

			r.Post("/titles", apiHandler.CreateTitle)
			r.Patch("/titles/{titleID}", apiHandler.UpdateTitle)
			r.Delete("/titles/{titleID}", apiHandler.DeleteTitle)
		})
	})
	slog.Info("REST API v1 mounted at /v1")

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second, // Short enough to mitigate slowloris attacks
		MaxHeaderBytes:    1 << 20,          // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
