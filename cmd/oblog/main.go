// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
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

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/blog"
	"github.com/olegiv/oblog-go/internal/config"
	"github.com/olegiv/oblog-go/internal/editor"
	"github.com/olegiv/oblog-go/internal/geoip"
	"github.com/olegiv/oblog-go/internal/handler/api"
	"github.com/olegiv/oblog-go/internal/logging"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/scheduler"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/session"
	"github.com/olegiv/oblog-go/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
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
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("closing database", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Tee WARN and ERROR logs into the event log table.
	slog.SetDefault(slog.New(logging.NewEventLogHandler(textHandler, db)))

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	geo := geoip.NewResolver()
	if cfg.GeoIPEnabled() {
		if err := geo.Open(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip disabled", "error", err)
		} else {
			slog.Info("geoip enabled", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() { _ = geo.Close() }()

	queries := store.New(db)
	sessions := session.New(db, cfg.IsDevelopment())
	resolver := auth.NewResolver(sessions, queries)
	bus := service.NewBus()
	events := service.NewEventService(db)

	// Every change signal leaves an audit trail.
	changes := service.LogChanges(bus, events)
	defer changes.Stop()

	// Debounced autosave: content writes buffer per post and land after the
	// quiet period, scoped to the post's owner.
	posts := blog.NewPostService(db, bus)
	saves := editor.NewManager(posts.SaveContent, editor.DefaultQuietPeriod)

	maintenance := scheduler.New(events, geo, slog.Default())
	if err := maintenance.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer maintenance.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	apiHandler := api.NewHandler(db, bus, saves, geo)
	authHandler := api.NewAuthHandler(db, resolver, loginProtection, apiHandler)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestPath)
	r.Use(sessions.LoadAndSave)

	api.Register(r, apiHandler, authHandler, api.RouteOptions{
		LoadUser:        middleware.LoadUser(resolver),
		RequireUser:     middleware.RequireUser(),
		CSRF:            csrfMiddleware,
		LoginProtection: loginProtection,
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

	// Flush pending autosaves before the database closes.
	saves.Stop(shutdownCtx)

	slog.Info("server stopped")
	return nil
}
