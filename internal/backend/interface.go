package backend

import (
	"context"

	"debiti/internal/amqp"
	"debiti/internal/calendar"
	"debiti/internal/ledger"
	"debiti/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds a ready ledger and everything it was built from.
type BackendResult struct {
	Ledger   *ledger.Service
	Store    storage.Store
	Holidays *calendar.CachedHolidays
	// AMQP is nil when event publishing is disabled.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string

	AMQPURL           string
	AMQPExchange      string
	AMQPPaymentQueue  string
	AMQPReminderQueue string

	DueDatePolicy calendar.Policy
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
