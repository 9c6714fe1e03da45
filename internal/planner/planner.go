// Package planner ranks obligations for repayment and estimates the cost of
// paying late. It is pure: callers pass ledger snapshots in and get values out.
package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"debiti/internal/core"
)

// Score weights.
const (
	WeightCost         = 0.40
	WeightUrgency      = 0.35
	WeightPenalty      = 0.20
	WeightRelationship = 0.05

	// UrgencyWindowDays is the distance at which urgency reaches zero.
	UrgencyWindowDays = 30
)

// Strategy selects how obligations are ordered for extra payments.
type Strategy string

const (
	Avalanche Strategy = "avalanche"
	Snowball  Strategy = "snowball"
	Hybrid    Strategy = "hybrid"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Avalanche:
		return Avalanche, nil
	case Snowball:
		return Snowball, nil
	case Hybrid, "":
		return Hybrid, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want avalanche, snowball or hybrid)", s)
}

// Candidate is one obligation as seen by the planner.
type Candidate struct {
	Obligation core.Obligation
	Balance    core.Money // remaining balance
	DaysToDue  int
}

// PriorityScore blends cost, urgency, penalty risk and, for personal debts,
// the relationship factor. Higher means pay first.
func PriorityScore(o core.Obligation, daysToDue int, penaltyRisk float64) float64 {
	costIndex := (o.APR + o.FeeFixed.Float()) / 100
	urgency := math.Max(0, 1-float64(daysToDue)/UrgencyWindowDays)
	rf := 0.0
	if o.Kind == core.KindPersonal {
		rf = o.RelationshipFactor
	}
	return WeightCost*costIndex + WeightUrgency*urgency + WeightPenalty*penaltyRisk + WeightRelationship*rf
}

// PenaltyRisk is the late fee relative to the installment, capped at 1.
func PenaltyRisk(o core.Obligation) float64 {
	if !o.InstallmentAmount.IsPositive() {
		return 0
	}
	fee, ok := o.Penalty.LateFee(o.InstallmentAmount)
	if !ok {
		return 0
	}
	return math.Min(1, fee.Float()/o.InstallmentAmount.Float())
}

// Score is PriorityScore with the obligation's own penalty risk.
func (c Candidate) Score() float64 {
	return PriorityScore(c.Obligation, c.DaysToDue, PenaltyRisk(c.Obligation))
}

// Rank returns a sorted copy of cands. Ties go to the lower obligation id.
func Rank(cands []Candidate, strategy Strategy) []Candidate {
	out := append([]Candidate(nil), cands...)
	scores := make(map[int64]float64, len(out))
	if strategy == Hybrid {
		for _, c := range out {
			scores[c.Obligation.ID] = c.Score()
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch strategy {
		case Avalanche:
			if a.Obligation.APR != b.Obligation.APR {
				return a.Obligation.APR > b.Obligation.APR
			}
		case Snowball:
			if a.Balance != b.Balance {
				return a.Balance.Fils < b.Balance.Fils
			}
		default:
			if sa, sb := scores[a.Obligation.ID], scores[b.Obligation.ID]; sa != sb {
				return sa > sb
			}
		}
		return a.Obligation.ID < b.Obligation.ID
	})
	return out
}
