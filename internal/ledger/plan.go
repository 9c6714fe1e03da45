package ledger

import (
	"context"

	"debiti/internal/core"
	"debiti/internal/planner"
	"debiti/internal/storage"
)

// Candidates snapshots every active or overdue obligation for the planner.
func (s *Service) Candidates(ctx context.Context) ([]planner.Candidate, error) {
	today := s.Today()
	cal, err := s.Calendar(ctx, today.Year())
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListObligations(ctx, storage.ObligationFilter{Statuses: liveStatuses})
	if err != nil {
		return nil, s.wrap("list obligations", 0, err)
	}

	// Far enough that every live obligation yields a due date.
	limit := today.AddDays(3660)
	out := make([]planner.Candidate, 0, len(list))
	for _, o := range list {
		paid, err := s.store.TotalPaid(ctx, o.ID)
		if err != nil {
			return nil, s.wrap("total paid", o.ID, err)
		}
		u, ok, err := s.nextDue(ctx, cal, o, today, limit)
		if err != nil {
			return nil, s.wrap("next due", o.ID, err)
		}
		days := 0
		if ok {
			days = max(0, u.DaysUntil)
		}
		out = append(out, planner.Candidate{Obligation: o, Balance: balance(o, paid), DaysToDue: days})
	}
	return out, nil
}

// Plan ranks live obligations by strategy and spends budget across them.
func (s *Service) Plan(ctx context.Context, strategy planner.Strategy, budget core.Money) (planner.Plan, error) {
	if budget.Fils < 0 {
		return planner.Plan{}, &core.ValidationError{Field: "budget", Reason: "budget cannot be negative", Err: core.ErrInvalidAmount}
	}
	cands, err := s.Candidates(ctx)
	if err != nil {
		return planner.Plan{}, err
	}
	return planner.Allocate(cands, strategy, budget), nil
}

// SimulatePostponement prices paying the obligation's current installment on
// postponeTo instead of its due date.
func (s *Service) SimulatePostponement(ctx context.Context, obligationID int64, postponeTo core.Date) (planner.Postponement, error) {
	if err := postponeTo.Validate(); err != nil {
		return planner.Postponement{}, err
	}
	o, err := s.Obligation(ctx, obligationID)
	if err != nil {
		return planner.Postponement{}, err
	}
	today := s.Today()
	cal, err := s.Calendar(ctx, today.Year())
	if err != nil {
		return planner.Postponement{}, err
	}
	u, ok, err := s.nextDue(ctx, cal, o, today, today.AddDays(3660))
	if err != nil {
		return planner.Postponement{}, s.wrap("next due", obligationID, err)
	}
	current := cal.ActualDueDate(o.DueDay, today.Period())
	if ok {
		current = u.DueDate
	}
	return planner.SimulatePostponement(o, current, postponeTo), nil
}
