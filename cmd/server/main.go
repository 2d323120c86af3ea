package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonMunkholm/eprregister/internal/config"
	"github.com/JonMunkholm/eprregister/internal/core"
	_ "github.com/JonMunkholm/eprregister/internal/core/registers" // Register all registers
	"github.com/JonMunkholm/eprregister/internal/logging"
	"github.com/JonMunkholm/eprregister/internal/remote"
	"github.com/JonMunkholm/eprregister/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// .env values take precedence over the inherited environment
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"remote_url", cfg.Remote.BaseURL,
		"remote_timeout", cfg.Remote.Timeout,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	// One client serves both the register collections and attachment uploads
	client := remote.NewClient(remote.Config{
		BaseURL: cfg.Remote.BaseURL,
		APIKey:  cfg.Remote.APIKey,
		Timeout: cfg.Remote.Timeout,
	})

	service := core.NewService(client, client, core.ServiceConfig{
		FetchTimeout:  cfg.Remote.FetchTimeout,
		SaveTimeout:   cfg.Remote.SaveTimeout,
		MaxImportRows: cfg.Upload.MaxImportRows,
	})

	slog.Info("registers registered", "count", core.Count(), "kinds", core.Kinds())

	if err := serve(web.NewServer(service, cfg), service, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// serve runs the server until SIGINT or SIGTERM, then lets in-flight saves
// reach the persistence service before closing connections. Edits not yet
// saved are lost on exit.
func serve(server *web.Server, service *core.Service, grace time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "open_registers", service.OpenCount())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if active := service.ActiveSaves(); active > 0 {
		slog.Info("waiting for saves to complete", "active", active)
		if err := service.WaitForSaves(shutdownCtx); err != nil {
			slog.Warn("saves did not complete in time", "error", err)
		}
	}
	return server.Shutdown(shutdownCtx)
}
