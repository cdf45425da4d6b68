package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdeck/app/analytics"
	"newsdeck/app/api"
	"newsdeck/app/cfg"
	"newsdeck/app/config"
	"newsdeck/app/database"
	"newsdeck/app/feed"
	"newsdeck/app/ingest"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)
	slog.Info("Starting Newsdeck server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	analyticsRepo := database.NewAnalyticsRepository(db)

	registerSeed(appCfg.SeedFile, feedRepo)

	fetcher := feed.NewFetcher(&http.Client{}, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)
	normalizer := feed.NewNormalizer()
	orchestrator := ingest.NewOrchestrator(fetcher, normalizer, feedRepo, itemRepo, appCfg.WorkerCount)

	var cache analytics.Cache
	if appCfg.RedisAddr != "" {
		redisCache, err := analytics.NewRedisCache(appCfg.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, analytics caching disabled", "addr", appCfg.RedisAddr, "error", err)
		} else {
			slog.Info("Analytics caching enabled", "addr", appCfg.RedisAddr)
			cache = redisCache
		}
	}
	statsService := analytics.NewService(analyticsRepo, cache,
		time.Duration(appCfg.CacheTTL)*time.Second)

	// Opportunistic refresh at startup; the run reports its outcome in the
	// log and the server does not wait for it.
	go func() {
		if _, err := orchestrator.RefreshAll(context.Background()); err != nil {
			slog.Warn("Startup refresh failed", "error", err)
		}
	}()

	handler := api.NewHandler(orchestrator, statsService, feedRepo, itemRepo, analyticsRepo)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Newsdeck server shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// registerSeed loads the YAML seed file and upserts its categories and feeds.
// A missing seed file is not fatal: the store may already hold feeds from a
// previous run.
func registerSeed(path string, feedRepo database.FeedRepository) {
	ctx := context.Background()

	seed, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Seed file not found, skipping registration", "path", path)
			return
		}
		slog.Error("Failed to load seed file", "path", path, "error", err)
		os.Exit(1)
	}

	categoryIDs := make(map[string]int64, len(seed.Categories))
	for _, category := range seed.Categories {
		id, err := feedRepo.UpsertCategory(ctx, category.Name, category.Color, category.Icon)
		if err != nil {
			slog.Warn("Failed to register category", "category", category.Name, "error", err)
			continue
		}
		categoryIDs[category.Name] = id
	}

	registered := 0
	for _, seedFeed := range seed.Feeds {
		categoryID, ok := categoryIDs[seedFeed.Category]
		if !ok {
			slog.Warn("Skipping feed with unregistered category", "feed", seedFeed.Title, "category", seedFeed.Category)
			continue
		}
		id, err := feedRepo.UpsertFeed(ctx, seedFeed.Title, seedFeed.URL, categoryID, seedFeed.IsActive())
		if err != nil {
			slog.Warn("Failed to register feed", "feed", seedFeed.Title, "error", err)
			continue
		}
		slog.Debug("Registered feed", "id", id, "title", seedFeed.Title, "url", seedFeed.URL, "active", seedFeed.IsActive())
		registered++
	}
	slog.Info("Seed registration complete", "categories", len(categoryIDs), "feeds", registered)
}
