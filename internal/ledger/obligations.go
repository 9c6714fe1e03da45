package ledger

import (
	"context"
	"fmt"
	"strings"

	"debiti/internal/core"
	"debiti/internal/storage"
)

// NewObligation holds the caller-supplied fields of AddObligation.
type NewObligation struct {
	EntityID           int64
	Kind               core.ObligationKind
	Name               string
	Principal          core.Money
	APR                float64
	FeeFixed           core.Money
	StartDate          core.Date
	DueDay             int
	TotalInstallments  *int
	InstallmentAmount  core.Money
	Penalty            core.PenaltyPolicy
	RelationshipFactor float64
	Tags               []string
}

func (s *Service) AddEntity(ctx context.Context, kind core.EntityKind, name, phone, note string) (core.Entity, error) {
	e := core.Entity{
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		Phone:     strings.TrimSpace(phone),
		Note:      strings.TrimSpace(note),
		CreatedAt: s.now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return core.Entity{}, err
	}
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.InsertEntity(ctx, &e)
	})
	if err != nil {
		return core.Entity{}, s.wrap("add entity", 0, err)
	}
	s.logger.InfoContext(ctx, "Entity added", "entity_id", e.ID, "kind", e.Kind)
	return e, nil
}

func (s *Service) Entity(ctx context.Context, id int64) (core.Entity, error) {
	e, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return core.Entity{}, s.wrap("get entity", 0, lookup(err, "entity", id))
	}
	return e, nil
}

func (s *Service) Entities(ctx context.Context) ([]core.Entity, error) {
	list, err := s.store.ListEntities(ctx)
	if err != nil {
		return nil, s.wrap("list entities", 0, err)
	}
	return list, nil
}

// AddObligation stores a new active obligation with remaining = total.
func (s *Service) AddObligation(ctx context.Context, in NewObligation) (core.Obligation, error) {
	o := core.Obligation{
		EntityID:           in.EntityID,
		Kind:               in.Kind,
		Name:               strings.TrimSpace(in.Name),
		Principal:          in.Principal,
		APR:                in.APR,
		FeeFixed:           in.FeeFixed,
		StartDate:          in.StartDate,
		DueDay:             in.DueDay,
		InstallmentAmount:  in.InstallmentAmount,
		Status:             core.StatusActive,
		Penalty:            in.Penalty,
		RelationshipFactor: in.RelationshipFactor,
		Tags:               normalizeTags(in.Tags),
		CreatedAt:          s.now().UTC(),
	}
	if o.Penalty.Kind == "" {
		o.Penalty = core.NoPenalty()
	}
	if in.TotalInstallments != nil {
		o.TotalInstallments = core.IntPtr(*in.TotalInstallments)
		o.RemainingInstallments = core.IntPtr(*in.TotalInstallments)
	}
	if err := o.Validate(); err != nil {
		return core.Obligation{}, err
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetEntity(ctx, o.EntityID); err != nil {
			return lookup(err, "entity", o.EntityID)
		}
		return tx.InsertObligation(ctx, &o)
	})
	if err != nil {
		return core.Obligation{}, s.wrap("add obligation", 0, err)
	}
	s.logger.InfoContext(ctx, "Obligation added",
		"obligation_id", o.ID,
		"entity_id", o.EntityID,
		"kind", o.Kind,
		"installment_fils", o.InstallmentAmount.Fils)
	return o, nil
}

func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *Service) Obligation(ctx context.Context, id int64) (core.Obligation, error) {
	o, err := s.store.GetObligation(ctx, id)
	if err != nil {
		return core.Obligation{}, s.wrap("get obligation", id, lookup(err, "obligation", id))
	}
	return o, nil
}

func (s *Service) Obligations(ctx context.Context, filter storage.ObligationFilter) ([]core.Obligation, error) {
	list, err := s.store.ListObligations(ctx, filter)
	if err != nil {
		return nil, s.wrap("list obligations", 0, err)
	}
	return list, nil
}

// RemainingBalance is max(0, principal - sum of all payments).
func (s *Service) RemainingBalance(ctx context.Context, id int64) (core.Money, error) {
	o, err := s.Obligation(ctx, id)
	if err != nil {
		return core.Money{}, err
	}
	paid, err := s.store.TotalPaid(ctx, id)
	if err != nil {
		return core.Money{}, s.wrap("total paid", id, err)
	}
	return balance(o, paid), nil
}

func balance(o core.Obligation, paid core.Money) core.Money {
	b := o.Principal.Sub(paid)
	if b.Fils < 0 {
		return core.Money{}
	}
	return b
}

// Pause moves an active or overdue obligation to paused.
func (s *Service) Pause(ctx context.Context, id int64) (core.Obligation, error) {
	return s.transition(ctx, id, core.StatusPaused)
}

// Resume returns a paused obligation to active.
func (s *Service) Resume(ctx context.Context, id int64) (core.Obligation, error) {
	return s.transition(ctx, id, core.StatusActive)
}

// Close ends an obligation. It is refused while installments or balance remain.
func (s *Service) Close(ctx context.Context, id int64) (core.Obligation, error) {
	return s.transition(ctx, id, core.StatusClosed)
}

func (s *Service) transition(ctx context.Context, id int64, next core.Status) (core.Obligation, error) {
	var out core.Obligation
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetObligation(ctx, id)
		if err != nil {
			return lookup(err, "obligation", id)
		}
		if !o.Status.CanTransition(next) {
			return &core.ValidationError{
				Field:        "status",
				Reason:       fmt.Sprintf("cannot move from %s to %s", o.Status, next),
				ObligationID: id,
				Err:          core.ErrInvalidStatus,
			}
		}
		if next == core.StatusClosed {
			paid, err := tx.TotalPaid(ctx, id)
			if err != nil {
				return err
			}
			done := o.RemainingInstallments != nil && *o.RemainingInstallments == 0
			if !done && !balance(o, paid).IsZero() {
				return &core.ValidationError{
					Field:        "status",
					Reason:       "obligation still has installments and balance outstanding",
					ObligationID: id,
					Err:          core.ErrInvalidStatus,
				}
			}
		}
		if err := tx.UpdateObligationState(ctx, id, o.RemainingInstallments, next); err != nil {
			return err
		}
		o.Status = next
		out = o
		return nil
	})
	if err != nil {
		return core.Obligation{}, s.wrap("change status", id, err)
	}
	s.logger.InfoContext(ctx, "Obligation status changed", "obligation_id", id, "status", next)
	return out, nil
}

// DeleteObligation removes an obligation with its payments, coverage and reminders.
func (s *Service) DeleteObligation(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return lookup(tx.DeleteObligation(ctx, id), "obligation", id)
	})
	if err != nil {
		return s.wrap("delete obligation", id, err)
	}
	s.logger.InfoContext(ctx, "Obligation deleted", "obligation_id", id)
	return nil
}

// SweepOverdue marks active obligations whose due date this month has passed
// without coverage as overdue, and returns their ids.
func (s *Service) SweepOverdue(ctx context.Context) ([]int64, error) {
	today := s.Today()
	period := today.Period()
	cal, err := s.Calendar(ctx, today.Year())
	if err != nil {
		return nil, err
	}

	var marked []int64
	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		list, err := tx.ListObligations(ctx, storage.ObligationFilter{Statuses: []core.Status{core.StatusActive}})
		if err != nil {
			return err
		}
		for _, o := range list {
			due := cal.ActualDueDate(o.DueDay, period)
			if !due.Before(today) || due.Before(o.StartDate) {
				continue
			}
			covered, err := tx.IsPeriodCovered(ctx, o.ID, period)
			if err != nil {
				return err
			}
			if covered {
				continue
			}
			if err := tx.UpdateObligationState(ctx, o.ID, o.RemainingInstallments, core.StatusOverdue); err != nil {
				return err
			}
			marked = append(marked, o.ID)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("sweep overdue", 0, err)
	}
	if len(marked) > 0 {
		s.logger.InfoContext(ctx, "Obligations marked overdue", "count", len(marked), "period", period.String())
	}
	return marked, nil
}
