// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogd/internal/cache"
	"catalogd/internal/config"
	"catalogd/internal/database"
	"catalogd/internal/handlers"
	"catalogd/internal/middleware"
	"catalogd/internal/router"
	"catalogd/internal/storage"
	"catalogd/internal/store"
	"catalogd/internal/token"
	"catalogd/internal/web"
)

// runServe wires every service together and runs the HTTP server until a
// shutdown signal arrives.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	web.SetDevMode(cfg.IsDev())

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL and apply pending migrations.
	db, err := database.Connect(context.Background(), cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	// Bootstrap the super admin when no accounts exist yet.
	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.SeedCategories(db); err != nil {
			return err
		}
	}

	// Connect to Valkey (token denylist + stats cache).
	valkeyClient, err := cache.Connect(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	// Connect to S3-compatible object storage (optional; uploads return
	// 503 without it).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	// Data stores.
	adminStore := store.NewAdminStore(db)
	categoryStore := store.NewCategoryStore(db)
	itemStore := store.NewItemStore(db)

	// Token management and the Valkey-backed revocation list.
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	denylist := token.NewDenylist(valkeyClient)
	statsCache := cache.NewStatsCache(valkeyClient, cache.DefaultStatsTTL)

	// In non-development environments, mark auth cookies Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()

	gate := middleware.NewAuthGate(tokens, adminStore, denylist)

	r := router.New(router.Deps{
		Auth:       handlers.NewAuth(adminStore, tokens, denylist, secureCookies),
		Categories: handlers.NewCategories(categoryStore, statsCache),
		Items:      handlers.NewItems(itemStore, categoryStore, statsCache),
		Uploads:    handlers.NewUploads(storageClient, cfg.UploadFolder),
		Gate:       gate,
		CORS:       cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
