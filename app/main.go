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

	"feedhook/app/api"
	"feedhook/app/cfg"
	"feedhook/app/feed"
	"feedhook/app/store"
	"feedhook/app/tasks"
	"feedhook/app/webhook"
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

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting feedhook", "version", appCfg.Version)

	seenStore, err := newStore(appCfg)
	if err != nil {
		slog.Error("Failed to initialize seen-item store", "error", err)
		os.Exit(1)
	}
	defer seenStore.Close()

	configCache := feed.NewConfigCache(appCfg.TargetsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load target configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Target configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.TargetsDir)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent)
	parser := feed.NewParser()
	webhookClient := webhook.NewClient(httpClient, appCfg.UserAgent)

	scheduler := tasks.NewScheduler(configCache, fetcher, parser, webhookClient, seenStore)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started",
		"workers", appCfg.WorkerCount, "interval", time.Duration(appCfg.SchedulerInterval)*time.Second)

	handler := api.NewHandler(configCache, seenStore, appCfg.Version)
	server := api.NewServer(handler, appCfg.EnableHTTP)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "full_surface", appCfg.EnableHTTP)
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

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and store are stopped via defer
	slog.Info("Shutdown complete")
}

func newStore(appCfg *cfg.Cfg) (store.Store, error) {
	ttl := time.Duration(appCfg.SeenTTLDays) * 24 * time.Hour

	if appCfg.RedisAddr != "" {
		s, err := store.NewRedisStore(appCfg.RedisAddr, ttl)
		if err != nil {
			return nil, err
		}
		slog.Info("Using Redis seen-item store", "addr", appCfg.RedisAddr, "ttl", ttl)
		return s, nil
	}

	s, err := store.NewSQLiteStore(appCfg.DBPath, ttl)
	if err != nil {
		return nil, err
	}
	slog.Info("Using SQLite seen-item store", "path", appCfg.DBPath, "ttl", ttl)
	return s, nil
}
