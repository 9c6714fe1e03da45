package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"debiti/internal/backend"
	"debiti/internal/cache"
	"debiti/internal/calendar"
	"debiti/internal/cli"
	"debiti/internal/config"
	"debiti/internal/ledger"
	"debiti/internal/log"
	"debiti/internal/reminders"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.FromContext(context.Background()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentReminders)
	if err != nil {
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Reminder-worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Reminder-worker shutdown complete")
}

// run owns every resource it opens, so deferred cleanup happens before main
// decides the exit code.
func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting reminder-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	factory := backend.NewFactory(logger.WithComponent(log.ComponentLedger).Logger, ledger.WithClock(cli.Clock(cfg)))
	res, err := factory.CreateBackend(context.Background(), bcfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}()

	if cfg.HolidaysFile != "" {
		list, err := calendar.LoadHolidaysTOML(cfg.HolidaysFile)
		if err != nil {
			return err
		}
		if err := res.Ledger.ImportHolidays(context.Background(), list...); err != nil {
			return fmt.Errorf("import holidays: %w", err)
		}
		logger.Info("Holidays imported", log.FieldCount, len(list))
	}

	quietFrom, _ := calendar.ParseTimeOfDay(cfg.QuietFrom)
	quietTo, _ := calendar.ParseTimeOfDay(cfg.QuietTo)
	loc := cfg.Location()
	jobLogger := logger.WithComponent(log.ComponentWorker).Logger

	var notifier reminders.Notifier = reminders.LogNotifier{Logger: jobLogger}
	if res.AMQP != nil {
		notifier = res.AMQP
	} else {
		logger.Warn("AMQP disabled - reminders are only logged")
	}

	scheduler := &reminders.Scheduler{
		Ledger:     res.Ledger,
		LeadDays:   cfg.ReminderLeadDays,
		RemindHour: cfg.ReminderHour,
		Location:   loc,
		Logger:     jobLogger,
	}
	dispatcher := &reminders.Dispatcher{
		Ledger:    res.Ledger,
		Notifier:  notifier,
		QuietFrom: quietFrom,
		QuietTo:   quietTo,
		Location:  loc,
		Logger:    jobLogger,
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	remindJob := func() {
		now := time.Now()
		if _, err := scheduler.Run(ctx, now); err != nil {
			jobLogger.ErrorContext(ctx, "Reminder scheduling failed", log.FieldOperation, log.OpSchedule, "error", err)
		}
		if _, err := dispatcher.Run(ctx, now); err != nil {
			jobLogger.ErrorContext(ctx, "Reminder dispatch failed", log.FieldOperation, log.OpDispatch, "error", err)
		}
	}
	sweepJob := func() {
		ids, err := res.Ledger.SweepOverdue(ctx)
		if err != nil {
			jobLogger.ErrorContext(ctx, "Overdue sweep failed", log.FieldOperation, log.OpSweep, "error", err)
			return
		}
		jobLogger.InfoContext(ctx, "Overdue sweep complete", log.FieldOperation, log.OpSweep, log.FieldCount, len(ids))
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.ReminderCron, remindJob); err != nil {
		return fmt.Errorf("invalid reminder schedule: %w", err)
	}
	if _, err := c.AddFunc(cfg.SweepCron, sweepJob); err != nil {
		return fmt.Errorf("invalid sweep schedule: %w", err)
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(res.Holidays)

	// Catch up once before waiting for the first tick.
	sweepJob()
	remindJob()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Start()
		<-gctx.Done()
		stopped := c.Stop()
		<-stopped.Done()
		return nil
	})
	g.Go(func() error {
		caches.Run(gctx, cfg.CacheCleanupInterval)
		return nil
	})

	logger.Info("Reminder worker running",
		"reminder_cron", cfg.ReminderCron,
		"sweep_cron", cfg.SweepCron,
		"timezone", loc.String())

	err = g.Wait()
	cli.WaitForShutdown(ctx, done)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
