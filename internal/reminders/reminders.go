// Package reminders turns upcoming due dates into reminder records and hands
// due reminders to a notifier outside quiet hours.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"debiti/internal/calendar"
	"debiti/internal/core"
	"debiti/internal/ledger"
)

// Ledger is the part of ledger.Service the reminder jobs use.
type Ledger interface {
	UpcomingPayments(ctx context.Context, horizonDays int) ([]ledger.Upcoming, error)
	ScheduleReminder(ctx context.Context, obligationID int64, due core.Date, remindAt time.Time) (core.Reminder, bool, error)
	PendingReminders(ctx context.Context, now time.Time) ([]core.Reminder, error)
	MarkReminderSent(ctx context.Context, id int64) (core.Reminder, error)
	MarkReminderDone(ctx context.Context, id int64) (core.Reminder, error)
	Obligation(ctx context.Context, id int64) (core.Obligation, error)
}

var _ Ledger = (*ledger.Service)(nil)

// Notifier delivers one reminder, e.g. by publishing it to a broker.
type Notifier interface {
	NotifyReminder(ctx context.Context, r core.Reminder, o core.Obligation) error
}

// Scheduler creates reminders LeadDays before each upcoming due date.
type Scheduler struct {
	Ledger     Ledger
	LeadDays   int
	RemindHour int
	Location   *time.Location
	Logger     *slog.Logger
}

// RemindAt is RemindHour local time LeadDays before due, but never before now.
func (s *Scheduler) RemindAt(due core.Date, now time.Time) time.Time {
	loc := s.location()
	at := time.Date(due.Year(), time.Month(due.Month()), due.Day()-s.LeadDays, s.RemindHour, 0, 0, 0, loc)
	if at.Before(now) {
		return now
	}
	return at
}

// Run schedules reminders for every due date within LeadDays of now and
// returns how many were created. Existing reminders are left alone.
func (s *Scheduler) Run(ctx context.Context, now time.Time) (int, error) {
	upcoming, err := s.Ledger.UpcomingPayments(ctx, s.LeadDays)
	if err != nil {
		return 0, fmt.Errorf("list upcoming payments: %w", err)
	}

	created := 0
	for _, u := range upcoming {
		_, ok, err := s.Ledger.ScheduleReminder(ctx, u.Obligation.ID, u.DueDate, s.RemindAt(u.DueDate, now))
		if err != nil {
			return created, fmt.Errorf("schedule reminder for obligation %d: %w", u.Obligation.ID, err)
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		s.logger().InfoContext(ctx, "Reminders scheduled", "count", created, "lead_days", s.LeadDays)
	}
	return created, nil
}

func (s *Scheduler) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Dispatcher sends pending reminders unless the current local time is inside
// the quiet window.
type Dispatcher struct {
	Ledger    Ledger
	Notifier  Notifier
	QuietFrom calendar.TimeOfDay
	QuietTo   calendar.TimeOfDay
	Location  *time.Location
	Logger    *slog.Logger
}

// Run delivers every reminder due at now and marks it sent. A reminder whose
// delivery fails stays pending for the next run; the failures are joined into
// the returned error. Reminders of closed obligations are marked done unsent.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) (int, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	if calendar.IsQuietTime(now.In(loc), d.QuietFrom, d.QuietTo) {
		logger.DebugContext(ctx, "Quiet hours, skipping reminder dispatch",
			"from", d.QuietFrom.String(), "to", d.QuietTo.String())
		return 0, nil
	}

	pending, err := d.Ledger.PendingReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list pending reminders: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, r := range pending {
		o, err := d.Ledger.Obligation(ctx, r.ObligationID)
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder %d: %w", r.ID, err))
			continue
		}
		if o.Status == core.StatusClosed {
			// Nothing left to pay; retire the reminder instead of re-reading it every run.
			if _, err := d.Ledger.MarkReminderDone(ctx, r.ID); err != nil {
				errs = append(errs, fmt.Errorf("mark reminder %d done: %w", r.ID, err))
				continue
			}
			logger.InfoContext(ctx, "Reminder retired for closed obligation",
				"reminder_id", r.ID, "obligation_id", r.ObligationID)
			continue
		}
		// Paused obligations keep their reminders for when they resume.
		if !o.Status.Live() {
			continue
		}
		if err := d.Notifier.NotifyReminder(ctx, r, o); err != nil {
			logger.ErrorContext(ctx, "Failed to deliver reminder",
				"reminder_id", r.ID, "obligation_id", r.ObligationID, "error", err)
			errs = append(errs, fmt.Errorf("notify reminder %d: %w", r.ID, err))
			continue
		}
		if _, err := d.Ledger.MarkReminderSent(ctx, r.ID); err != nil {
			errs = append(errs, fmt.Errorf("mark reminder %d sent: %w", r.ID, err))
			continue
		}
		sent++
	}
	if sent > 0 {
		logger.InfoContext(ctx, "Reminders dispatched", "count", sent)
	}
	return sent, errors.Join(errs...)
}

// LogNotifier writes reminders to the log. It stands in for the broker when
// event publishing is disabled.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifyReminder(ctx context.Context, r core.Reminder, o core.Obligation) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Payment due",
		"reminder_id", r.ID,
		"obligation_id", o.ID,
		"obligation", o.Name,
		"due_date", r.DueDate.String(),
		"amount", core.Format(o.InstallmentAmount.Float(), ""))
	return nil
}
