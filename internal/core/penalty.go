package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	PenaltyNone       PenaltyKind = "none"
	PenaltyFlat       PenaltyKind = "flat"
	PenaltyPercentage PenaltyKind = "percentage"
)

type PenaltyKind string

// PenaltyPolicy is the late-payment rule of an obligation. Exactly one variant
// is active: a flat fee, a percentage of the installment, or nothing.
type PenaltyPolicy struct {
	Kind PenaltyKind
	Fee  Money   // PenaltyFlat
	Rate float64 // PenaltyPercentage, percent of the installment
}

func NoPenalty() PenaltyPolicy { return PenaltyPolicy{Kind: PenaltyNone} }

func FlatFee(fee Money) PenaltyPolicy { return PenaltyPolicy{Kind: PenaltyFlat, Fee: fee} }

func PercentageFee(rate float64) PenaltyPolicy {
	return PenaltyPolicy{Kind: PenaltyPercentage, Rate: rate}
}

// IsNone reports whether no explicit policy is set. The zero value counts as none.
func (p PenaltyPolicy) IsNone() bool {
	return p.Kind == "" || p.Kind == PenaltyNone
}

func (p PenaltyPolicy) Validate() error {
	switch p.Kind {
	case "", PenaltyNone:
		if p.Fee.Fils != 0 || p.Rate != 0 {
			return errors.New("none policy carries no fee or rate")
		}
	case PenaltyFlat:
		if !p.Fee.IsPositive() {
			return errors.New("flat fee must be positive")
		}
		if p.Rate != 0 {
			return errors.New("flat fee policy carries no rate")
		}
	case PenaltyPercentage:
		if p.Rate <= 0 || p.Rate > 100 {
			return errors.New("percentage must be in (0, 100]")
		}
		if p.Fee.Fils != 0 {
			return errors.New("percentage policy carries no flat fee")
		}
	default:
		return fmt.Errorf("unknown penalty kind %q", p.Kind)
	}
	return nil
}

// LateFee returns the fee charged for missing one installment. The boolean is
// false when the policy is none, leaving the fallback to the caller.
func (p PenaltyPolicy) LateFee(installment Money) (Money, bool) {
	switch p.Kind {
	case PenaltyFlat:
		return p.Fee, true
	case PenaltyPercentage:
		return MoneyFromFloat(installment.Float() * p.Rate / 100), true
	default:
		return Money{}, false
	}
}

func (p PenaltyPolicy) String() string {
	switch p.Kind {
	case PenaltyFlat:
		return "flat " + p.Fee.String()
	case PenaltyPercentage:
		return fmt.Sprintf("%g%%", p.Rate)
	default:
		return "none"
	}
}

type penaltyJSON struct {
	Kind    PenaltyKind `json:"kind"`
	FeeFils int64       `json:"fee_fils,omitempty"`
	Rate    float64     `json:"rate,omitempty"`
}

// MarshalJSON encodes the policy as the document persisted with an obligation.
func (p PenaltyPolicy) MarshalJSON() ([]byte, error) {
	kind := p.Kind
	if kind == "" {
		kind = PenaltyNone
	}
	return json.Marshal(penaltyJSON{Kind: kind, FeeFils: p.Fee.Fils, Rate: p.Rate})
}

// UnmarshalJSON decodes and validates a stored policy document.
func (p *PenaltyPolicy) UnmarshalJSON(data []byte) error {
	var raw penaltyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode penalty policy: %w", err)
	}
	policy := PenaltyPolicy{Kind: raw.Kind, Fee: Money{Fils: raw.FeeFils}, Rate: raw.Rate}
	if policy.Kind == "" {
		policy.Kind = PenaltyNone
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPenalty, err)
	}
	*p = policy
	return nil
}
