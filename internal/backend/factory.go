package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"debiti/internal/amqp"
	"debiti/internal/calendar"
	"debiti/internal/ledger"
	"debiti/internal/storage"
	"debiti/internal/storage/memory"
)

const (
	holidayCacheYears = 8
	holidayCacheTTL   = time.Hour
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	opts   []ledger.Option
}

// NewFactory creates a backend factory. opts are appended to the ledger
// options the factory sets itself.
func NewFactory(logger *slog.Logger, opts ...ledger.Option) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, opts: opts}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	holidays := calendar.NewCachedHolidays(store, holidayCacheYears, holidayCacheTTL)
	opts := []ledger.Option{
		ledger.WithPolicy(config.DueDatePolicy),
		ledger.WithLogger(f.logger),
		ledger.WithHolidayCache(holidays),
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPPaymentQueue, config.AMQPReminderQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"payment_queue", config.AMQPPaymentQueue,
				"reminder_queue", config.AMQPReminderQueue)
			opts = append(opts, ledger.WithPublisher(amqpClient))
		}
	}
	opts = append(opts, f.opts...)

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type,
		"policy", config.DueDatePolicy,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Ledger:   ledger.New(store, opts...),
		Store:    store,
		Holidays: holidays,
		AMQP:     amqpClient,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := storage.OpenSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Opened SQLite store", "db_path", config.SQLiteDBPath)
		return store, nil
	case PostgresBackend:
		store, err := storage.OpenPostgres(ctx, config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Opened Postgres store")
		return store, nil
	case MemoryBackend:
		f.logger.WarnContext(ctx, "Using memory store, data is lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
