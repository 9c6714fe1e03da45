package ledger

import (
	"context"
	"sort"

	"debiti/internal/calendar"
	"debiti/internal/core"
	"debiti/internal/storage"
)

var liveStatuses = []core.Status{core.StatusActive, core.StatusOverdue}

// Upcoming is one materialized due date.
type Upcoming struct {
	Obligation core.Obligation
	Period     core.Month // billing month the due date belongs to
	DueDate    core.Date
	Amount     core.Money
	DaysUntil  int // negative when overdue
	Overdue    bool
}

// nextDue materializes the due date the obligation is currently working
// towards as of today. A due date that already passed stays current while its
// month is uncovered and is then reported overdue.
func (s *Service) nextDue(ctx context.Context, cal *calendar.Calendar, o core.Obligation, today core.Date, limit core.Date) (Upcoming, bool, error) {
	period := today.Period()
	due := cal.ActualDueDate(o.DueDay, period)
	overdue := false

	if due.Before(today) {
		covered, err := s.store.IsPeriodCovered(ctx, o.ID, period)
		if err != nil {
			return Upcoming{}, false, err
		}
		if covered {
			period = period.Next()
			due = cal.ActualDueDate(o.DueDay, period)
		} else {
			overdue = true
		}
	}

	for due.Before(o.StartDate) {
		overdue = false
		period = period.Next()
		due = cal.ActualDueDate(o.DueDay, period)
		if due.After(limit) {
			return Upcoming{}, false, nil
		}
	}
	if due.After(limit) {
		return Upcoming{}, false, nil
	}

	return Upcoming{
		Obligation: o,
		Period:     period,
		DueDate:    due,
		Amount:     o.InstallmentAmount,
		DaysUntil:  today.DaysUntil(due),
		Overdue:    overdue,
	}, true, nil
}

// UpcomingPayments lists the current due date of every active or overdue
// obligation that falls on or before today + horizonDays, including overdue
// ones, sorted by date and then obligation id.
func (s *Service) UpcomingPayments(ctx context.Context, horizonDays int) ([]Upcoming, error) {
	if horizonDays < 0 {
		return nil, &core.ValidationError{Field: "horizon_days", Reason: "horizon cannot be negative", Err: core.ErrInvalidAmount}
	}
	today := s.Today()
	limit := today.AddDays(horizonDays)

	cal, err := s.Calendar(ctx, today.Year(), limit.Year())
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListObligations(ctx, storage.ObligationFilter{Statuses: liveStatuses})
	if err != nil {
		return nil, s.wrap("list obligations", 0, err)
	}

	var out []Upcoming
	for _, o := range list {
		u, ok, err := s.nextDue(ctx, cal, o, today, limit)
		if err != nil {
			return nil, s.wrap("upcoming payments", o.ID, err)
		}
		if ok {
			out = append(out, u)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Obligation.ID < out[j].Obligation.ID
	})
	return out, nil
}

// MonthlyCommitments sums the installments of active or overdue obligations
// that are due in month and had started by their due date.
func (s *Service) MonthlyCommitments(ctx context.Context, month core.Month) (core.Money, error) {
	list, err := s.store.ListObligations(ctx, storage.ObligationFilter{Statuses: liveStatuses})
	if err != nil {
		return core.Money{}, s.wrap("list obligations", 0, err)
	}
	var total core.Money
	for _, o := range list {
		due := calendar.ClampDueDay(o.DueDay, month)
		if !month.Contains(due) || !o.Started(due) {
			continue
		}
		total = total.Add(o.InstallmentAmount)
	}
	return total, nil
}
