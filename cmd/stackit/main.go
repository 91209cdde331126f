package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"stackit/internal/cli"
	apphttp "stackit/internal/http"
	applog "stackit/internal/log"
	"stackit/internal/services"
)

// initBackend is swapped in tests to observe backend cleanup.
var initBackend = cli.InitBackend

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger(nil, applog.ComponentApp).Error("Configuration validation failed", "error", err)
		return 1
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	res, collections, err := initBackend(context.Background(), logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		return 1
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var publisher services.Publisher
	if res.Events != nil {
		publisher = res.Events
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:   services.NewLedgerService(collections.Balances, publisher),
		Goals:    services.NewGoalService(collections.Goals, publisher),
		Progress: services.NewProgressService(collections.Balances, collections.Goals),
		Ready:    res.Ready,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting stackit server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"write_mode", cfg.StoreWriteMode,
		"events", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		return 1
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return 0
}
