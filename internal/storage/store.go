// Package storage defines the record store the ledger persists through and
// provides its SQL implementation for SQLite and Postgres.
package storage

import (
	"context"
	"errors"

	"debiti/internal/core"
)

// ErrNotFound is returned by lookups of a missing row.
var ErrNotFound = errors.New("record not found")

// ObligationFilter narrows ListObligations. Zero values match everything.
type ObligationFilter struct {
	Statuses []core.Status
	EntityID int64
}

// ReminderFilter narrows ListReminders.
type ReminderFilter struct {
	ObligationID int64
	Statuses     []core.ReminderStatus
	DueBefore    *core.Date // remind_at on or before the end of this day
}

// Reader holds the read side shared by a store and its transactions.
type Reader interface {
	GetEntity(ctx context.Context, id int64) (core.Entity, error)
	ListEntities(ctx context.Context) ([]core.Entity, error)
	GetObligation(ctx context.Context, id int64) (core.Obligation, error)
	ListObligations(ctx context.Context, filter ObligationFilter) ([]core.Obligation, error)
	GetPayment(ctx context.Context, id int64) (core.Payment, error)
	ListPayments(ctx context.Context, obligationID int64) ([]core.Payment, error)
	// SumPayments totals payments dated within [from, to] inclusive.
	SumPayments(ctx context.Context, obligationID int64, from, to core.Date) (core.Money, error)
	TotalPaid(ctx context.Context, obligationID int64) (core.Money, error)
	IsPeriodCovered(ctx context.Context, obligationID int64, period core.Month) (bool, error)
	GetReminder(ctx context.Context, id int64) (core.Reminder, error)
	ListReminders(ctx context.Context, filter ReminderFilter) ([]core.Reminder, error)
	// FindReminder returns the reminder of an obligation's due date, or ErrNotFound.
	FindReminder(ctx context.Context, obligationID int64, due core.Date) (core.Reminder, error)
	ListHolidays(ctx context.Context, from, to core.Date) ([]core.Holiday, error)
}

// Writer holds the mutations; they are only reachable inside a transaction.
type Writer interface {
	InsertEntity(ctx context.Context, e *core.Entity) error
	InsertObligation(ctx context.Context, o *core.Obligation) error
	// UpdateObligationState persists remaining installments and status only.
	UpdateObligationState(ctx context.Context, id int64, remaining *int, status core.Status) error
	DeleteObligation(ctx context.Context, id int64) error
	InsertPayment(ctx context.Context, p *core.Payment) error
	// MarkPeriodCovered sets the coverage flag and reports whether this call set
	// it. A second call for the same period returns false and changes nothing.
	MarkPeriodCovered(ctx context.Context, obligationID int64, period core.Month, on core.Date) (bool, error)
	InsertReminder(ctx context.Context, r *core.Reminder) error
	UpdateReminder(ctx context.Context, r core.Reminder) error
	UpsertHoliday(ctx context.Context, h core.Holiday) error
}

// Tx is a unit of work with read-your-writes visibility.
type Tx interface {
	Reader
	Writer
}

// Store is the ledger's record store. Every mutation runs through WithTx so
// that a failing step rolls back the whole sequence.
type Store interface {
	Reader
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
