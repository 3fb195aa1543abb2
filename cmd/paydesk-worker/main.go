package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"paydesk/internal/amqp"
	"paydesk/internal/config"
	applog "paydesk/internal/log"
	"paydesk/internal/services"
	"paydesk/internal/sheets"
	gsheet "paydesk/internal/sheets/google"
	"paydesk/internal/storage"
	"paydesk/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting paydesk-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	policy, err := services.PolicyFromConfig(cfg.RoundingStepMinutes, cfg.RoundingMode)
	if err != nil {
		logger.Error("Invalid rounding configuration", applog.FieldError, err)
		os.Exit(1)
	}
	exportSvc := services.NewExportService(repo, policy, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Google Sheets sink is optional; without it exports only land on disk.
	var sink sheets.ExportSink
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets sink", applog.FieldError, err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets sink initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets sink disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(exportSvc, repo, sink, cfg.ExportDir, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeExportJobs(gctx, exportWorker.HandleExportJob)
	})

	logger.Info("Worker started", "queue", cfg.AMQPQueue, "export_dir", cfg.ExportDir)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
