package ledger

import (
	"context"
	"strings"

	"debiti/internal/core"
	"debiti/internal/storage"
)

// NewPayment holds the caller-supplied fields of RecordPayment.
type NewPayment struct {
	ObligationID int64
	Amount       core.Money
	Date         core.Date
	Method       core.PaymentMethod
	Note         string
}

// PaymentResult describes what a recorded payment changed.
type PaymentResult struct {
	Payment       core.Payment
	Period        core.Month
	PeriodPaid    core.Money // total paid in Period including this payment
	PeriodCovered bool
	// Decremented is true only for the payment that first covered Period.
	Decremented bool
	Remaining   *int
	Balance     core.Money
	Status      core.Status
}

// RecordPayment appends a payment and updates coverage in one transaction.
// The first payment that brings the month's total within one fil of the
// installment sets the month's coverage flag and consumes one installment;
// later payments in the same month never consume another. The obligation
// closes when its installments or its balance reach zero.
func (s *Service) RecordPayment(ctx context.Context, in NewPayment) (PaymentResult, error) {
	p := core.Payment{
		ObligationID: in.ObligationID,
		Amount:       in.Amount,
		Date:         in.Date,
		Method:       in.Method,
		Note:         strings.TrimSpace(in.Note),
		CreatedAt:    s.now().UTC(),
	}
	if p.Method == "" {
		p.Method = core.MethodOther
	}
	if err := p.Validate(); err != nil {
		return PaymentResult{}, err
	}

	var res PaymentResult
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetObligation(ctx, p.ObligationID)
		if err != nil {
			return lookup(err, "obligation", p.ObligationID)
		}
		if o.Status == core.StatusClosed {
			return &core.ValidationError{
				Field:        "obligation",
				Reason:       "payments cannot be recorded on a closed obligation",
				ObligationID: o.ID,
				Err:          core.ErrObligationClosed,
			}
		}

		if err := tx.InsertPayment(ctx, &p); err != nil {
			return err
		}

		period := p.Date.Period()
		periodPaid, err := tx.SumPayments(ctx, o.ID, period.First(), period.Last())
		if err != nil {
			return err
		}

		remaining := o.RemainingInstallments
		status := o.Status
		covered := periodPaid.Covers(o.InstallmentAmount)
		decremented := false
		if covered {
			set, err := tx.MarkPeriodCovered(ctx, o.ID, period, p.Date)
			if err != nil {
				return err
			}
			if set {
				decremented = true
				if remaining != nil {
					remaining = core.IntPtr(max(0, *remaining-1))
				}
				if status == core.StatusOverdue {
					status = core.StatusActive
				}
			}
		}

		paid, err := tx.TotalPaid(ctx, o.ID)
		if err != nil {
			return err
		}
		bal := balance(o, paid)
		if (remaining != nil && *remaining == 0) || bal.IsZero() {
			status = core.StatusClosed
		}

		if decremented || status != o.Status {
			if err := tx.UpdateObligationState(ctx, o.ID, remaining, status); err != nil {
				return err
			}
		}

		res = PaymentResult{
			Payment:       p,
			Period:        period,
			PeriodPaid:    periodPaid,
			PeriodCovered: covered,
			Decremented:   decremented,
			Remaining:     remaining,
			Balance:       bal,
			Status:        status,
		}
		return nil
	})
	if err != nil {
		return PaymentResult{}, s.wrap("record payment", p.ObligationID, err)
	}

	s.logger.InfoContext(ctx, "Payment recorded",
		"obligation_id", p.ObligationID,
		"payment_id", p.ID,
		"amount_fils", p.Amount.Fils,
		"period", res.Period.String(),
		"decremented", res.Decremented,
		"status", res.Status)

	if s.publisher != nil {
		if err := s.publisher.PublishPaymentRecorded(ctx, p, res); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish payment event",
				"obligation_id", p.ObligationID, "payment_id", p.ID, "error", err)
		}
	}
	return res, nil
}

// IsMonthCovered reports whether the month's payments reached the installment.
func (s *Service) IsMonthCovered(ctx context.Context, obligationID int64, month core.Month) (bool, error) {
	o, err := s.Obligation(ctx, obligationID)
	if err != nil {
		return false, err
	}
	paid, err := s.store.SumPayments(ctx, obligationID, month.First(), month.Last())
	if err != nil {
		return false, s.wrap("sum payments", obligationID, err)
	}
	return paid.Covers(o.InstallmentAmount), nil
}

func (s *Service) Payments(ctx context.Context, obligationID int64) ([]core.Payment, error) {
	if _, err := s.Obligation(ctx, obligationID); err != nil {
		return nil, err
	}
	list, err := s.store.ListPayments(ctx, obligationID)
	if err != nil {
		return nil, s.wrap("list payments", obligationID, err)
	}
	return list, nil
}

func (s *Service) Payment(ctx context.Context, id int64) (core.Payment, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return core.Payment{}, s.wrap("get payment", 0, lookup(err, "payment", id))
	}
	return p, nil
}
