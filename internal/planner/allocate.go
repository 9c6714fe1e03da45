package planner

import "debiti/internal/core"

// Allocation is the share of the budget assigned to one obligation.
type Allocation struct {
	ObligationID int64
	Name         string
	Minimum      core.Money
	Extra        core.Money
}

func (a Allocation) Total() core.Money { return a.Minimum.Add(a.Extra) }

// Plan is the result of Allocate, in rank order.
type Plan struct {
	Strategy    Strategy
	Budget      core.Money
	Allocations []Allocation
	Unallocated core.Money
}

// Allocate spends budget across cands. Each obligation first receives its
// minimum (the installment, capped at its balance) in rank order. What is
// left goes to the top-ranked obligation up to its balance, then cascades
// down the ranking. Anything still left is Unallocated.
func Allocate(cands []Candidate, strategy Strategy, budget core.Money) Plan {
	ranked := Rank(cands, strategy)
	plan := Plan{Strategy: strategy, Budget: budget, Allocations: make([]Allocation, len(ranked))}

	left := budget
	if left.Fils < 0 {
		left = core.Money{}
	}
	for i, c := range ranked {
		balance := nonNegative(c.Balance)
		minimum := c.Obligation.InstallmentAmount.Min(balance).Min(left)
		plan.Allocations[i] = Allocation{
			ObligationID: c.Obligation.ID,
			Name:         c.Obligation.Name,
			Minimum:      nonNegative(minimum),
		}
		left = left.Sub(plan.Allocations[i].Minimum)
	}

	for i, c := range ranked {
		if !left.IsPositive() {
			break
		}
		room := nonNegative(c.Balance).Sub(plan.Allocations[i].Minimum)
		if !room.IsPositive() {
			continue
		}
		extra := room.Min(left)
		plan.Allocations[i].Extra = extra
		left = left.Sub(extra)
	}

	plan.Unallocated = left
	return plan
}

func nonNegative(m core.Money) core.Money {
	if m.Fils < 0 {
		return core.Money{}
	}
	return m
}
