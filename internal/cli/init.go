// Package cli consolidates the bootstrap steps shared by cmd/stackit,
// cmd/stackit-worker and cmd/stackitctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stackit/internal/backend"
	"stackit/internal/config"
	"stackit/internal/core"
	applog "stackit/internal/log"
	"stackit/internal/repository"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, format := "info", "text"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: component,
		Handler:   applog.NewHandler(os.Stdout, level, format),
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Collections wraps the backend stores in ordered repositories.
type Collections struct {
	Balances *repository.Collection[core.MonthlyBalance]
	Goals    *repository.Collection[core.Goal]
}

// InitBackend creates the configured backend and its repositories.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*backend.BackendResult, Collections, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, Collections{}, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, Collections{}, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	mode := repository.WriteMode(cfg.StoreWriteMode)
	if !mode.IsValid() {
		mode = repository.Serialized
	}
	return res, Collections{
		Balances: repository.New[core.MonthlyBalance]("balances", res.Balances, mode),
		Goals:    repository.New[core.Goal]("goals", res.Goals, mode),
	}, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once with a context bounded by timeout, and done is closed after it.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
