// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the FeatherPress blog server.
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

	"featherpress/internal/cache"
	"featherpress/internal/config"
	"featherpress/internal/database"
	"featherpress/internal/editor"
	"featherpress/internal/handlers"
	"featherpress/internal/router"
	"featherpress/internal/session"
	"featherpress/internal/site"
	"featherpress/internal/storage"
	"featherpress/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the default admin user and site settings; in development also
	// generate some fake posts. No-op when data already exists.
	if err := database.Seed(db, cfg.IsDev()); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Redis backs both sessions and the feed cache.
	redisClient, err := cache.Connect(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(redisClient, secureCookies)

	postStore := store.NewPostStore(db)
	userStore := store.NewUserStore(db)
	tagStore := store.NewTagStore(db)
	commentStore := store.NewCommentStore(db)
	uploadStore := store.NewUploadStore(db)
	settingStore := store.NewSettingStore(db)

	// Connect to S3-compatible object storage (optional — uploads are
	// rejected with an error when it is not configured).
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3PublicBucket, cfg.S3PrivateBucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			slog.Info("s3 storage connected",
				"endpoint", cfg.S3Endpoint,
				"public_bucket", cfg.S3PublicBucket,
				"private_bucket", cfg.S3PrivateBucket,
			)
		}
	} else {
		slog.Warn("s3 storage not configured — media uploads disabled")
	}

	// Site service holds the settings snapshot (blog title, extension
	// toggles) that most handlers consult.
	siteSvc := site.NewService(settingStore)
	if err := siteSvc.Load(); err != nil {
		slog.Error("failed to load site settings", "error", err)
		os.Exit(1)
	}

	uploadHandlers := handlers.NewUploads(uploadStore, storageClient)

	// The editor orchestrates uploads and post persistence for a single
	// publish action; the uploads handler group doubles as its uploader.
	ed := editor.New(handlers.NewPostService(postStore, tagStore), uploadHandlers)

	feedCache := cache.NewFeedCache(redisClient, cache.DefaultFeedTTL)

	postHandlers := handlers.NewPosts(postStore, ed, feedCache, siteSvc)
	commentHandlers := handlers.NewComments(commentStore, postStore, siteSvc)
	authHandlers := handlers.NewAuth(sessionStore, userStore, siteSvc, "FeatherPress")
	siteHandlers := handlers.NewSite(siteSvc, userStore)
	userHandlers := handlers.NewUsers(userStore)

	r, loginLimiter := router.New(sessionStore, postHandlers, commentHandlers, uploadHandlers, authHandlers, siteHandlers, userHandlers)
	defer loginLimiter.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		// Uploads stream to object storage inside the request, so the
		// write timeout is generous.
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
