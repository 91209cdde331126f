package main

import (
	"context"
	"errors"
	"os"
	"time"

	"stackit/internal/cli"
	applog "stackit/internal/log"
	"stackit/internal/services"
	"stackit/internal/sheets"
	gsheet "stackit/internal/sheets/google"
	"stackit/internal/sheets/logwriter"
	"stackit/internal/worker"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger(nil, applog.ComponentWorker).Error("Configuration validation failed", "error", err)
		return 1
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)
	logger.Info("Starting stackit-worker")

	res, collections, err := cli.InitBackend(context.Background(), logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		return 1
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var sink sheets.ProgressWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			return 1
		}
		sink = client
		logger.Info("Mirroring goal progress to Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		sink = logwriter.New(logger.WithComponent(applog.ComponentSheets).Logger)
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring to log")
	}

	progress := services.NewProgressService(collections.Balances, collections.Goals)
	mirror := worker.NewProgressMirror(progress, sink, worker.MirrorConfig{RefreshInterval: cfg.SyncInterval})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := mirror.Stop(ctx); err != nil {
			logger.Error("Mirror shutdown error", "error", err)
		}
	})

	if err := mirror.Start(ctx); err != nil {
		logger.Error("Failed to start progress mirror", "error", err)
		return 1
	}

	if res.Events != nil {
		go func() {
			err := res.Events.ConsumeWithRetry(ctx, mirror.HandleChange)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Change event consumption failed", "error", err)
			}
		}()
		logger.Info("Consuming change events", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Skipping change events - no broker available, relying on periodic refresh",
			"interval", cfg.SyncInterval)
	}

	cli.WaitForShutdown(ctx, done)
	return 0
}
