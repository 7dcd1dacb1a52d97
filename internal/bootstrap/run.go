package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qldt/qldt-api/config"
)

// RunConfig contains dependencies for RunWithShutdown.
type RunConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
	// Signals overrides the shutdown signals; tests send on it directly.
	Signals <-chan os.Signal
}

// RunWithShutdown serves HTTP until SIGINT/SIGTERM or a server error, then stops the
// server before closing every tenant pool. It blocks until shutdown completes.
func RunWithShutdown(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("run config is incomplete")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server, err := StartHTTPServer(&HTTPServerConfig{
		HTTP:     cfg.Config.HTTP,
		Services: cfg.Services,
		Logger:   logger,
	}, errCh)
	if err != nil {
		return errors.Join(fmt.Errorf("start http server: %w", err), cfg.Services.Close())
	}

	quit := cfg.Signals
	if quit == nil {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		quit = sig
	}

	var runErr error
	select {
	case <-quit:
		logger.Info("shutting down services...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down")
	case runErr = <-errCh:
		logger.Error("http server failed", "error", runErr)
	}

	// New logins stop before the pools go away.
	stopErr := ShutdownHTTPServer(context.WithoutCancel(ctx), server, cfg.Config.HTTP.ShutdownTimeout, logger)
	if stopErr != nil {
		stopErr = fmt.Errorf("shutdown http server: %w", stopErr)
	}
	return errors.Join(runErr, stopErr, cfg.Services.Close())
}
