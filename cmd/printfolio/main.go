// Package main is the entry point for the portfolio API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printfolio/internal/cache"
	"printfolio/internal/config"
	"printfolio/internal/contact"
	"printfolio/internal/database"
	"printfolio/internal/handlers"
	"printfolio/internal/mailer"
	"printfolio/internal/middleware"
	"printfolio/internal/router"
	"printfolio/internal/secret"
	"printfolio/internal/storage"
	"printfolio/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for response caching (optional).
	respCache := cache.NewResponseCache(nil, cache.DefaultResponseTTL)
	if cfg.RedisHost != "" {
		valkeyClient, err := cache.ConnectValkey(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		respCache = cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)
	} else {
		slog.Warn("valkey not configured, response caching disabled")
	}

	// Secret codec for SMTP credentials at rest. Optional in development.
	var codec *secret.Codec
	if cfg.EncryptionKey != "" {
		codec, err = secret.NewCodec(cfg.EncryptionKey)
		if err != nil {
			slog.Error("invalid encryption key", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no encryption key configured, secrets stored as plaintext")
	}

	// Connect object storage (optional, image URLs render empty without it).
	var objectStore *storage.Store
	if cfg.StorageEndpoint != "" {
		var bucket storage.Bucket
		switch cfg.StorageDriver {
		case "s3":
			bucket = storage.NewS3Bucket(cfg.StorageEndpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.StorageBucket)
		default:
			bucket = storage.NewHTTPBucket(cfg.StorageEndpoint, cfg.StorageAPIKey, cfg.StorageBucket, cfg.StorageTimeout)
		}
		objectStore = storage.New(bucket, storage.Options{
			PublicBucket:    cfg.StoragePublic,
			BaseURL:         cfg.StorageBaseURL,
			SignedURLExpiry: cfg.SignedURLExpiry,
		})
		slog.Info("object storage connected",
			"driver", cfg.StorageDriver,
			"bucket", cfg.StorageBucket,
			"public", cfg.StoragePublic,
		)
	} else {
		slog.Warn("object storage not configured, image uploads disabled")
	}

	// Initialize data stores.
	itemStore := store.NewPortfolioItemStore(db)
	tagStore := store.NewTagStore(db)
	configStore := store.NewConfigStore(db, codec)
	queryStore := store.NewContactQueryStore(db)

	// Contact form pipeline: validate, persist, deliver.
	smtpMailer := mailer.NewSMTP(cfg.ContactDefaultFrom)
	contactService := contact.New(configStore, queryStore, smtpMailer)

	// Create the public API handler group.
	var urls handlers.URLResolver
	if objectStore != nil {
		urls = objectStore
	}
	api := handlers.NewAPI(itemStore, tagStore, contactService, urls, respCache, cfg.IsDev())

	// The contact endpoint allows 5 submissions per IP per minute.
	contactLimiter := middleware.NewRateLimiter(5, time.Minute)
	defer contactLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(api, contactLimiter)

	// Create the HTTP server with sensible timeouts.
	// WriteTimeout must accommodate the contact endpoint, which waits on a
	// synchronous SMTP delivery.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
