package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/classroster/internal/archive"
	"github.com/JonMunkholm/classroster/internal/config"
	"github.com/JonMunkholm/classroster/internal/core"
	"github.com/JonMunkholm/classroster/internal/logging"
	"github.com/JonMunkholm/classroster/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"default_score", cfg.Roster.DefaultScore,
		"archive_driver", cfg.Archive.Driver,
	)
	slog.Debug("configuration", "config", cfg.String())

	settings, err := config.LoadSettings(cfg.Project.SettingsFile)
	if err != nil {
		slog.Error("failed to load project settings", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	arc, err := archive.Open(ctx, archive.Options{
		Driver:          cfg.Archive.Driver,
		URL:             cfg.Archive.URL,
		Path:            cfg.Archive.Path,
		MaxConns:        cfg.Archive.MaxConns,
		MinConns:        cfg.Archive.MinConns,
		MaxConnLifetime: cfg.Archive.MaxConnLifetime,
		MaxConnIdleTime: cfg.Archive.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to open project archive", "driver", cfg.Archive.Driver, "error", err)
		os.Exit(1)
	}
	if arc == nil {
		slog.Info("project archive disabled")
	} else {
		slog.Info("project archive ready", "driver", cfg.Archive.Driver)
	}

	service := core.NewService(core.ServiceConfig{
		DefaultScore:   cfg.Roster.DefaultScore,
		BehaviorLabels: cfg.Roster.BehaviorLabels,
		Settings:       settings,
		MaxConcurrent:  cfg.Upload.MaxConcurrent,
		MaxWait:        cfg.Upload.MaxWaitTime,
		ResultTTL:      cfg.Upload.ResultTTL,
		ResultCleanup:  cfg.Upload.ResultCleanupInterval,
		Archive:        arc,
	})

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests first, then wait for decodes still holding a slot
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("service shutdown incomplete", "error", err)
		} else {
			slog.Info("all uploads completed")
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
}
