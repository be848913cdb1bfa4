// Command fintrack-worker mirrors the transaction list into a spreadsheet
// whenever a ledger-change event arrives.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	mem "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 2*cfg.APITimeout)
	app, err := cli.NewApp(startCtx, cfg, logger, cli.WithoutAMQP())
	if err != nil {
		startCancel()
		logger.Error("Failed to initialize client", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	if !app.Session.IsAuthenticated() {
		if cfg.WorkerEmail == "" {
			startCancel()
			logger.Error("No stored session and WORKER_EMAIL is not set")
			os.Exit(1)
		}
		if _, err := app.Auth.Login(startCtx, core.Credentials{Email: cfg.WorkerEmail, Password: cfg.WorkerPassword}); err != nil {
			startCancel()
			logger.Error("Worker login failed", log.FieldError, err)
			os.Exit(1)
		}
	}

	exporter, err := newExporter(startCtx, cfg, logger)
	startCancel()
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var opts []worker.Option
	if path := os.Getenv("SNAPSHOT_PATH"); path != "" {
		opts = append(opts, worker.WithSnapshot(path))
	}
	mirror := worker.NewMirrorWorker(app.Gateway, exporter, logger, opts...)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// a missed event is repaired by the next one, so startup failures are not fatal
	logger.Info("Performing startup sync")
	if err := mirror.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	if err := amqpClient.ConsumeLedgerChanges(ctx, mirror.HandleLedgerChanged); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	<-done
}

func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.TransactionExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, mirroring into memory")
		return mem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
