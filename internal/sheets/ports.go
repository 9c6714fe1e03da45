// Package sheets defines the outbound ports for mirroring ledger payments
// into a spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"debiti/internal/core"
)

var ErrInvalidRow = errors.New("invalid payment row")

// PaymentRow is one recorded payment as it appears in the payments sheet.
type PaymentRow struct {
	PaymentID  int64
	Date       core.Date
	Obligation string
	Entity     string
	Amount     core.Money
	Method     core.PaymentMethod
	Note       string
	Status     core.Status
}

func (r PaymentRow) Validate() error {
	switch {
	case r.PaymentID <= 0:
		return fmt.Errorf("%w: payment id must be positive", ErrInvalidRow)
	case r.Date.IsEmpty():
		return fmt.Errorf("%w: missing date", ErrInvalidRow)
	case strings.TrimSpace(r.Obligation) == "":
		return fmt.Errorf("%w: missing obligation name", ErrInvalidRow)
	case !r.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRow)
	}
	return nil
}

// Ports for outbound adapters.
type (
	PaymentWriter interface {
		AppendPayment(ctx context.Context, row PaymentRow) (rowRef string, err error)
	}

	// PaymentLister returns the rows already written for a month.
	PaymentLister interface {
		ListPayments(ctx context.Context, month core.Month) ([]PaymentRow, error)
	}

	PaymentSheet interface {
		PaymentWriter
		PaymentLister
	}
)
