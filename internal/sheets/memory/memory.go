// Package memory is an in-process payment sheet for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"debiti/internal/core"
	"debiti/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.PaymentRow
}

var _ sheets.PaymentSheet = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendPayment stores the row and returns a synthetic row reference.
func (s *Store) AppendPayment(_ context.Context, row sheets.PaymentRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) ListPayments(_ context.Context, month core.Month) ([]sheets.PaymentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sheets.PaymentRow
	for _, r := range s.rows {
		if month.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.PaymentRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.PaymentRow(nil), s.rows...)
}
