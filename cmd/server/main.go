package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetview/internal/config"
	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/metrics"
	"github.com/JonMunkholm/sheetview/internal/spreadsheet"
	"github.com/JonMunkholm/sheetview/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source_max_bytes", cfg.Source.MaxBytes,
		"source_allow_local", cfg.Source.AllowLocal,
		"source_allow_private", cfg.Source.AllowPrivate,
		"load_max_concurrent", cfg.Load.MaxConcurrent,
		"session_ttl", cfg.Session.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	fetcher := spreadsheet.NewFetcher(spreadsheet.FetchConfig{
		Timeout:      cfg.Source.FetchTimeout,
		MaxBytes:     cfg.Source.MaxBytes,
		AllowLocal:   cfg.Source.AllowLocal,
		AllowPrivate: cfg.Source.AllowPrivate,
	})
	codec := spreadsheet.NewCodec(cfg.Export.CSVBOM)
	recorder := metrics.New()

	service := core.NewService(fetcher, codec, recorder, core.ServiceConfig{
		MaxSessions:        cfg.Session.MaxSessions,
		MaxConcurrentLoads: cfg.Load.MaxConcurrent,
		MaxLoadWait:        cfg.Load.MaxWait,
	})
	recorder.RegisterLoadStatus(service.LoadStatus)

	server := web.NewServer(service, cfg, recorder.Handler())

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, core.SweepConfig{
		TTL:      cfg.Session.TTL,
		Interval: cfg.Session.SweepInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LoadStatus(); status.Active > 0 {
			slog.Info("waiting for loads to complete", "active", status.Active)
			if err := service.WaitForLoads(shutdownCtx); err != nil {
				slog.Warn("loads did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped", "sessions", service.SessionCount())
}
