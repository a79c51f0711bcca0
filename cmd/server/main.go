package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/cleaner/internal/config"
	"github.com/JonMunkholm/cleaner/internal/core"
	"github.com/JonMunkholm/cleaner/internal/logging"
	"github.com/JonMunkholm/cleaner/internal/metrics"
	"github.com/JonMunkholm/cleaner/internal/storage"
	"github.com/JonMunkholm/cleaner/internal/web"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	store, err := storage.NewStore(cfg.Storage.Dir, cfg.Storage.CleanedName)
	if err != nil {
		slog.Error("failed to open artifact store", "dir", cfg.Storage.Dir, "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	retention, err := storage.NewRetention(store, storage.RetentionConfig{
		MaxAge:   cfg.Storage.Retention,
		Schedule: cfg.Storage.SweepSchedule,
	}, m.ObserveSweep)
	if err != nil {
		slog.Error("invalid retention schedule", "schedule", cfg.Storage.SweepSchedule, "error", err)
		os.Exit(1)
	}

	service := core.NewService(store, m, core.Options{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
	})

	server := web.NewServer(service, cfg, reg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	retention.Start(jobCtx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()
		retention.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
