package ledger

import (
	"context"

	"debiti/internal/core"
	"debiti/internal/storage"
)

// StatementLine is one obligation with its running totals.
type StatementLine struct {
	Obligation core.Obligation
	Entity     core.Entity
	Paid       core.Money
	Balance    core.Money
	Payments   []core.Payment
}

// Statement is a point-in-time snapshot of the ledger.
type Statement struct {
	Generated core.Date
	Lines     []StatementLine
}

// Statement collects every obligation matching filter with its payments.
func (s *Service) Statement(ctx context.Context, filter storage.ObligationFilter) (Statement, error) {
	obligations, err := s.store.ListObligations(ctx, filter)
	if err != nil {
		return Statement{}, s.wrap("list obligations", 0, err)
	}
	entities := make(map[int64]core.Entity)

	st := Statement{Generated: s.Today()}
	for _, o := range obligations {
		e, ok := entities[o.EntityID]
		if !ok {
			e, err = s.store.GetEntity(ctx, o.EntityID)
			if err != nil {
				return Statement{}, s.wrap("get entity", o.ID, lookup(err, "entity", o.EntityID))
			}
			entities[o.EntityID] = e
		}
		payments, err := s.store.ListPayments(ctx, o.ID)
		if err != nil {
			return Statement{}, s.wrap("list payments", o.ID, err)
		}
		var paid core.Money
		for _, p := range payments {
			paid = paid.Add(p.Amount)
		}
		st.Lines = append(st.Lines, StatementLine{
			Obligation: o,
			Entity:     e,
			Paid:       paid,
			Balance:    balance(o, paid),
			Payments:   payments,
		})
	}
	return st, nil
}
