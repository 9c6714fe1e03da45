package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"debiti/internal/core"
	"debiti/internal/sheets"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := []sheets.PaymentRow{
		{PaymentID: 1, Date: core.NewDate(2025, 3, 5), Obligation: "Car loan", Amount: core.Money{Fils: 120500}},
		{PaymentID: 2, Date: core.NewDate(2025, 4, 5), Obligation: "Car loan", Amount: core.Money{Fils: 120500}},
	}
	for i, r := range rows {
		ref, err := s.AppendPayment(ctx, r)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if want := "mem:" + string(rune('1'+i)); ref != want {
			t.Errorf("ref = %q, want %q", ref, want)
		}
	}

	march, err := s.ListPayments(ctx, core.NewMonth(2025, time.March))
	if err != nil || len(march) != 1 || march[0].PaymentID != 1 {
		t.Fatalf("unexpected march rows: %+v err=%v", march, err)
	}
	if got := len(s.Rows()); got != 2 {
		t.Errorf("Rows() len = %d, want 2", got)
	}
}

func TestMemoryStoreRejectsInvalidRows(t *testing.T) {
	s := New()
	_, err := s.AppendPayment(context.Background(), sheets.PaymentRow{PaymentID: 1, Date: core.NewDate(2025, 3, 5)})
	if !errors.Is(err, sheets.ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}
	if len(s.Rows()) != 0 {
		t.Error("invalid row was stored")
	}
}
