package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"debiti/internal/core"
	"debiti/internal/storage"
)

// ScheduleReminder creates a pending reminder for an obligation's due date.
// At most one reminder exists per (obligation, due date); when one already
// exists it is returned with created = false.
func (s *Service) ScheduleReminder(ctx context.Context, obligationID int64, due core.Date, remindAt time.Time) (r core.Reminder, created bool, err error) {
	if err := due.Validate(); err != nil {
		return core.Reminder{}, false, err
	}
	if remindAt.IsZero() {
		return core.Reminder{}, false, &core.ValidationError{Field: "remind_at", Reason: "reminder time is required", ObligationID: obligationID}
	}

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetObligation(ctx, obligationID); err != nil {
			return lookup(err, "obligation", obligationID)
		}
		existing, err := tx.FindReminder(ctx, obligationID, due)
		if err == nil {
			r = existing
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		r = core.Reminder{
			ObligationID: obligationID,
			DueDate:      due,
			RemindAt:     remindAt.UTC().Truncate(time.Second),
			Status:       core.ReminderPending,
		}
		created = true
		return tx.InsertReminder(ctx, &r)
	})
	if err != nil {
		return core.Reminder{}, false, s.wrap("schedule reminder", obligationID, err)
	}
	if created {
		s.logger.InfoContext(ctx, "Reminder scheduled",
			"obligation_id", obligationID, "due_date", due.String(), "remind_at", r.RemindAt)
	}
	return r, created, nil
}

// PendingReminders returns pending reminders, and snoozed ones whose snooze
// ended, that are due at or before now.
func (s *Service) PendingReminders(ctx context.Context, now time.Time) ([]core.Reminder, error) {
	day := core.DateOf(now.UTC())
	list, err := s.store.ListReminders(ctx, storage.ReminderFilter{
		Statuses:  []core.ReminderStatus{core.ReminderPending, core.ReminderSnoozed},
		DueBefore: &day,
	})
	if err != nil {
		return nil, s.wrap("list reminders", 0, err)
	}
	out := list[:0]
	for _, r := range list {
		if !r.RemindAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) Reminders(ctx context.Context, filter storage.ReminderFilter) ([]core.Reminder, error) {
	list, err := s.store.ListReminders(ctx, filter)
	if err != nil {
		return nil, s.wrap("list reminders", filter.ObligationID, err)
	}
	return list, nil
}

func (s *Service) MarkReminderSent(ctx context.Context, id int64) (core.Reminder, error) {
	return s.updateReminder(ctx, id, func(r *core.Reminder) error {
		if r.Status != core.ReminderPending && r.Status != core.ReminderSnoozed {
			return fmt.Errorf("reminder is %s", r.Status)
		}
		r.Status = core.ReminderSent
		return nil
	})
}

func (s *Service) MarkReminderDone(ctx context.Context, id int64) (core.Reminder, error) {
	return s.updateReminder(ctx, id, func(r *core.Reminder) error {
		r.Status = core.ReminderDone
		return nil
	})
}

// SnoozeReminder postpones a reminder that is not done yet.
func (s *Service) SnoozeReminder(ctx context.Context, id int64, until time.Time) (core.Reminder, error) {
	if until.IsZero() {
		return core.Reminder{}, &core.ValidationError{Field: "until", Reason: "snooze time is required"}
	}
	return s.updateReminder(ctx, id, func(r *core.Reminder) error {
		if r.Status == core.ReminderDone {
			return fmt.Errorf("reminder is done")
		}
		r.Status = core.ReminderSnoozed
		r.RemindAt = until.UTC().Truncate(time.Second)
		return nil
	})
}

func (s *Service) updateReminder(ctx context.Context, id int64, apply func(r *core.Reminder) error) (core.Reminder, error) {
	var out core.Reminder
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		r, err := tx.GetReminder(ctx, id)
		if err != nil {
			return lookup(err, "reminder", id)
		}
		if err := apply(&r); err != nil {
			return &core.ValidationError{Field: "status", Reason: err.Error(), ObligationID: r.ObligationID, Err: core.ErrInvalidStatus}
		}
		out = r
		return tx.UpdateReminder(ctx, r)
	})
	if err != nil {
		return core.Reminder{}, s.wrap("update reminder", 0, err)
	}
	return out, nil
}
