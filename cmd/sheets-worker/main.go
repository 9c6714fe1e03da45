package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"debiti/internal/backend"
	"debiti/internal/cli"
	"debiti/internal/config"
	"debiti/internal/core"
	"debiti/internal/ledger"
	"debiti/internal/log"
	gsheet "debiti/internal/sheets/google"
	"debiti/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err == nil {
		err = cfg.ValidateSheets()
	}
	if err != nil {
		log.FromContext(context.Background()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentSheets)
	if err != nil {
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Sheets-worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Sheets-worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting sheets-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	clock := cli.Clock(cfg)
	factory := backend.NewFactory(logger.WithComponent(log.ComponentLedger).Logger, ledger.WithClock(clock))
	res, err := factory.CreateBackend(context.Background(), bcfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()
	if res.AMQP == nil {
		return errors.New("AMQP client unavailable, nothing to consume")
	}

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSheetSyncWorker(res.Ledger, sheetsClient, logger.WithComponent(log.ComponentWorker).Logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if cfg.BackfillOnStartup {
		// Current and previous month cover a worker that was down over a month end.
		month := core.DateOf(clock()).Period()
		for _, m := range []core.Month{month.Prev(), month} {
			if _, err := syncWorker.Backfill(ctx, m); err != nil {
				logger.Error("Startup backfill failed", "period", m.String(), "error", err)
			}
		}
	}

	err = res.AMQP.ConsumePaymentRecorded(ctx, syncWorker.HandlePaymentRecorded)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("message consumption: %w", err)
	}
	cli.WaitForShutdown(ctx, done)
	return nil
}
