package planner

import (
	"math"
	"testing"

	"debiti/internal/core"
)

func ob(id int64, kind core.ObligationKind, apr float64, installment int64) core.Obligation {
	return core.Obligation{
		ID:                id,
		Kind:              kind,
		Name:              "ob",
		APR:               apr,
		Principal:         core.Money{Fils: 1_000_000},
		InstallmentAmount: core.Money{Fils: installment},
		Status:            core.StatusActive,
	}
}

func ids(cands []Candidate) []int64 {
	out := make([]int64, len(cands))
	for i, c := range cands {
		out[i] = c.Obligation.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPriorityScoreMonotonicInCost(t *testing.T) {
	for _, days := range []int{0, 10, 45} {
		for _, risk := range []float64{0, 0.5, 1} {
			prev := -1.0
			for apr := 0.0; apr <= 40; apr += 2.5 {
				o := ob(1, core.KindLoan, apr, 100_000)
				got := PriorityScore(o, days, risk)
				if got < prev {
					t.Fatalf("score decreased at apr=%v days=%d risk=%v: %v < %v", apr, days, risk, got, prev)
				}
				prev = got
			}
		}
	}
}

func TestPriorityScoreComponents(t *testing.T) {
	o := ob(1, core.KindLoan, 10, 100_000)
	o.FeeFixed = core.Money{Fils: 2_000}

	// cost (10+2)/100*0.40 = 0.048, urgency 1*0.35, penalty 0.5*0.20
	want := 0.048 + 0.35 + 0.10
	if got := PriorityScore(o, 0, 0.5); math.Abs(got-want) > 1e-9 {
		t.Errorf("PriorityScore = %v, want %v", got, want)
	}
	if got := PriorityScore(o, 60, 0); math.Abs(got-0.048) > 1e-9 {
		t.Errorf("urgency should floor at zero, got %v", got)
	}

	loan := ob(2, core.KindLoan, 0, 100_000)
	loan.RelationshipFactor = 1
	personal := ob(3, core.KindPersonal, 0, 100_000)
	personal.RelationshipFactor = 1
	if PriorityScore(loan, 30, 0) != 0 {
		t.Error("relationship factor must be ignored for non-personal debts")
	}
	if got := PriorityScore(personal, 30, 0); math.Abs(got-0.05) > 1e-9 {
		t.Errorf("personal relationship weight = %v, want 0.05", got)
	}
}

func TestPenaltyRisk(t *testing.T) {
	tests := []struct {
		name    string
		penalty core.PenaltyPolicy
		want    float64
	}{
		{"none", core.NoPenalty(), 0},
		{"flat quarter", core.FlatFee(core.Money{Fils: 25_000}), 0.25},
		{"flat capped", core.FlatFee(core.Money{Fils: 500_000}), 1},
		{"percentage", core.PercentageFee(10), 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := ob(1, core.KindLoan, 0, 100_000)
			o.Penalty = tt.penalty
			if got := PenaltyRisk(o); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PenaltyRisk = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankAvalanche(t *testing.T) {
	cands := []Candidate{
		{Obligation: ob(1, core.KindLoan, 5, 100_000), Balance: core.Money{Fils: 100_000}},
		{Obligation: ob(2, core.KindLoan, 15, 100_000), Balance: core.Money{Fils: 900_000}},
		{Obligation: ob(3, core.KindLoan, 9, 100_000), Balance: core.Money{Fils: 500_000}},
	}
	got := Rank(cands, Avalanche)
	aprs := []float64{got[0].Obligation.APR, got[1].Obligation.APR, got[2].Obligation.APR}
	if aprs[0] != 15 || aprs[1] != 9 || aprs[2] != 5 {
		t.Errorf("avalanche aprs = %v, want [15 9 5]", aprs)
	}
	if cands[0].Obligation.ID != 1 {
		t.Error("Rank must not reorder its input")
	}
}

func TestRankSnowballIgnoresAPR(t *testing.T) {
	cands := []Candidate{
		{Obligation: ob(1, core.KindLoan, 5, 100_000), Balance: core.Money{Fils: 700_000}},
		{Obligation: ob(2, core.KindLoan, 15, 100_000), Balance: core.Money{Fils: 900_000}},
		{Obligation: ob(3, core.KindLoan, 9, 100_000), Balance: core.Money{Fils: 200_000}},
	}
	if got := ids(Rank(cands, Snowball)); !equalIDs(got, []int64{3, 1, 2}) {
		t.Errorf("snowball order = %v, want [3 1 2]", got)
	}
}

func TestRankTiesBreakByID(t *testing.T) {
	cands := []Candidate{
		{Obligation: ob(9, core.KindLoan, 10, 100_000), Balance: core.Money{Fils: 100_000}},
		{Obligation: ob(4, core.KindLoan, 10, 100_000), Balance: core.Money{Fils: 100_000}},
		{Obligation: ob(6, core.KindLoan, 10, 100_000), Balance: core.Money{Fils: 100_000}},
	}
	for _, s := range []Strategy{Avalanche, Snowball, Hybrid} {
		if got := ids(Rank(cands, s)); !equalIDs(got, []int64{4, 6, 9}) {
			t.Errorf("%s tie order = %v, want [4 6 9]", s, got)
		}
	}
}

func TestRankHybridPrefersUrgent(t *testing.T) {
	cands := []Candidate{
		{Obligation: ob(1, core.KindLoan, 10, 100_000), DaysToDue: 29},
		{Obligation: ob(2, core.KindLoan, 10, 100_000), DaysToDue: 1},
	}
	if got := ids(Rank(cands, Hybrid)); got[0] != 2 {
		t.Errorf("hybrid order = %v, want urgent obligation first", got)
	}
}

func TestAllocate(t *testing.T) {
	cands := []Candidate{
		{Obligation: ob(1, core.KindLoan, 5, 100_000), Balance: core.Money{Fils: 1_000_000}},
		{Obligation: ob(2, core.KindLoan, 15, 100_000), Balance: core.Money{Fils: 150_000}},
		{Obligation: ob(3, core.KindLoan, 9, 50_000), Balance: core.Money{Fils: 40_000}},
	}

	tests := []struct {
		name        string
		budget      int64
		minimums    []int64 // in rank order 2, 3, 1
		extras      []int64
		unallocated int64
	}{
		{"short budget covers minimums in rank order", 120_000, []int64{100_000, 20_000, 0}, []int64{0, 0, 0}, 0},
		{"remainder to top then cascades", 400_000, []int64{100_000, 40_000, 100_000}, []int64{50_000, 0, 110_000}, 0},
		{"everything paid off leaves surplus", 2_000_000, []int64{100_000, 40_000, 100_000}, []int64{50_000, 0, 900_000}, 810_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Allocate(cands, Avalanche, core.Money{Fils: tt.budget})
			if got := []int64{plan.Allocations[0].ObligationID, plan.Allocations[1].ObligationID, plan.Allocations[2].ObligationID}; !equalIDs(got, []int64{2, 3, 1}) {
				t.Fatalf("allocation order = %v", got)
			}
			for i, a := range plan.Allocations {
				if a.Minimum.Fils != tt.minimums[i] || a.Extra.Fils != tt.extras[i] {
					t.Errorf("allocation %d = min %d extra %d, want %d %d", a.ObligationID, a.Minimum.Fils, a.Extra.Fils, tt.minimums[i], tt.extras[i])
				}
			}
			if plan.Unallocated.Fils != tt.unallocated {
				t.Errorf("unallocated = %d, want %d", plan.Unallocated.Fils, tt.unallocated)
			}
			var spent int64
			for _, a := range plan.Allocations {
				spent += a.Total().Fils
			}
			if spent+plan.Unallocated.Fils != tt.budget {
				t.Errorf("spent %d + unallocated %d != budget %d", spent, plan.Unallocated.Fils, tt.budget)
			}
		})
	}
}

func TestSimulatePostponement(t *testing.T) {
	loan := core.Obligation{
		ID:                1,
		Kind:              core.KindLoan,
		Principal:         core.Money{Fils: 1_000_000},
		APR:               12,
		InstallmentAmount: core.Money{Fils: 100_000},
	}
	due := core.NewDate(2025, 3, 2)

	got := SimulatePostponement(loan, due, due.AddDays(30))
	if got.ExtraCost.Fils != 14_863 {
		t.Errorf("extra cost = %s, want 14.863", got.ExtraCost)
	}
	if got.Recommendation != RecommendPayOnTime {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
	if got.LateFee != DefaultLateFee || got.Days != 30 {
		t.Errorf("fee %s days %d", got.LateFee, got.Days)
	}

	bnpl := loan
	bnpl.Kind = core.KindBNPL
	got = SimulatePostponement(bnpl, due, due.AddDays(30))
	if got.ExtraCost != DefaultLateFee || got.Recommendation != RecommendPostpone {
		t.Errorf("bnpl postponement = %s %q", got.ExtraCost, got.Recommendation)
	}

	bnpl.Penalty = core.FlatFee(core.Money{Fils: 12_000})
	if got := SimulatePostponement(bnpl, due, due.AddDays(5)); got.Recommendation != RecommendPayOnTime {
		t.Errorf("flat 12.000 fee should advise paying on time, got %q", got.Recommendation)
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": Hybrid, "Avalanche": Avalanche, " snowball ": Snowball} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("random"); err == nil {
		t.Error("expected error")
	}
}
