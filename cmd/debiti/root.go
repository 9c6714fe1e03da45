package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"debiti/internal/backend"
	"debiti/internal/cli"
	"debiti/internal/config"
	"debiti/internal/core"
	"debiti/internal/ledger"
	"debiti/internal/log"
)

var (
	flagBackend  string
	flagDBPath   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "debiti",
	Short:         "Personal debt ledger",
	Long:          "Track loans, BNPL plans and personal debts: due dates, payments, reminders and payoff plans.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend (sqlite, postgres, memory); overrides DATA_BACKEND")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path; overrides SQLITE_DB_PATH")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// app is what every command gets once the backend is open.
type app struct {
	cfg    *config.Config
	ledger *ledger.Service
	logger *log.Logger
}

// withLedger opens the configured backend around fn and closes it afterwards.
func withLedger(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		if flagBackend != "" {
			os.Setenv("DATA_BACKEND", flagBackend)
		}
		if flagDBPath != "" {
			os.Setenv("SQLITE_DB_PATH", flagDBPath)
		}
		if flagLogLevel != "" {
			os.Setenv("LOG_LEVEL", flagLogLevel)
		}

		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		logger, err := cli.SetupLogger(cfg, log.ComponentCLI)
		if err != nil {
			return err
		}
		backendCfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		// The CLI never publishes; the workers own the broker connection.
		backendCfg.AMQPURL = ""

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		res, err := backend.NewFactory(logger.Logger, ledger.WithClock(cli.Clock(cfg))).CreateBackend(ctx, backendCfg)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}()

		return fn(ctx, cmd, &app{cfg: cfg, ledger: res.Ledger, logger: logger}, args)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseDateOr parses a YYYY-MM-DD flag, falling back to def when empty.
func parseDateOr(s string, def core.Date) (core.Date, error) {
	if s == "" {
		return def, nil
	}
	return core.ParseDate(s)
}

func parseMonthOr(s string, def core.Month) (core.Month, error) {
	if s == "" {
		return def, nil
	}
	return core.ParseMonth(s)
}

// defaultRemindAt is the configured reminder hour, lead days before due.
func defaultRemindAt(cfg *config.Config, due core.Date) time.Time {
	d := due.AddDays(-cfg.ReminderLeadDays)
	return time.Date(d.Year(), time.Month(d.Month()), d.Day(), cfg.ReminderHour, 0, 0, 0, cfg.Location())
}
