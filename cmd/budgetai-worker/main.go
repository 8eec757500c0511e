package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetai/internal/amqp"
	"budgetai/internal/cli"
	"budgetai/internal/config"
	"budgetai/internal/log"
	"budgetai/internal/metrics"
	"budgetai/internal/sheets"
	gsheet "budgetai/internal/sheets/google"
	mem "budgetai/internal/sheets/memory"
	"budgetai/internal/storage"
	"budgetai/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting budgetai-worker")

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	exporter, err := newExporter(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	m := metrics.New()
	syncWorker := worker.NewSyncWorker(repo, exporter, worker.WithObserver(m.Exported))

	// Metrics only; the worker serves no API.
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", log.FieldError, err)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown error", log.FieldError, err)
		}
	})

	go func() {
		if err := amqpClient.Consume(ctx, syncWorker.HandleSnapshot); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// newExporter writes to Google Sheets when configured and otherwise keeps
// lists in memory, which is enough to exercise the pipeline locally.
func newExporter(cfg *config.Config, logger *log.Logger) (sheets.ShoppingListExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, shopping lists are kept in memory")
		return mem.New(), nil
	}
	exporter, err := gsheet.New(context.Background(), gsheet.Settings{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		TabPrefix:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return exporter, nil
}
