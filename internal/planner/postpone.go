package planner

import "debiti/internal/core"

// DefaultLateFee applies when an obligation has no penalty policy.
var DefaultLateFee = core.Money{Fils: 5_000}

// PostponeThreshold is the extra cost above which postponing is not advised.
const PostponeThreshold = 10.0

const (
	RecommendPayOnTime = "pay on time"
	RecommendPostpone  = "postponement acceptable"
)

// LateFee is the fee the obligation's policy charges for one missed
// installment, or DefaultLateFee when it has none.
func LateFee(o core.Obligation) core.Money {
	if fee, ok := o.Penalty.LateFee(o.InstallmentAmount); ok {
		return fee
	}
	return DefaultLateFee
}

// Postponement is the estimated cost of paying on a later date.
type Postponement struct {
	ObligationID   int64
	CurrentDue     core.Date
	PostponeTo     core.Date
	Days           int
	LateFee        core.Money
	Interest       core.Money
	ExtraCost      core.Money
	Recommendation string
}

// SimulatePostponement estimates late fee plus, for loans, simple daily
// interest on the principal for the days between currentDue and postponeTo.
func SimulatePostponement(o core.Obligation, currentDue, postponeTo core.Date) Postponement {
	days := currentDue.DaysUntil(postponeTo)
	fee := LateFee(o)

	var interest core.Money
	if o.Kind == core.KindLoan && days > 0 {
		interest = core.MoneyFromFloat(o.Principal.Float() * o.APR / 100 / 365 * float64(days))
	}

	extra := fee.Add(interest)
	rec := RecommendPostpone
	if extra.Float() > PostponeThreshold {
		rec = RecommendPayOnTime
	}

	return Postponement{
		ObligationID:   o.ID,
		CurrentDue:     currentDue,
		PostponeTo:     postponeTo,
		Days:           max(0, days),
		LateFee:        fee,
		Interest:       interest,
		ExtraCost:      extra,
		Recommendation: rec,
	}
}
