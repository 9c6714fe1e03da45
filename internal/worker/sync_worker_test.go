package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"debiti/internal/amqp"
	"debiti/internal/core"
	"debiti/internal/ledger"
	"debiti/internal/sheets"
	sheetsmem "debiti/internal/sheets/memory"
	"debiti/internal/storage/memory"
)

type fixture struct {
	ledger *ledger.Service
	sheet  *sheetsmem.Store
	worker *SheetSyncWorker
	loan   core.Obligation
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := ledger.New(memory.New(), ledger.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	e, err := svc.AddEntity(ctx, core.EntityBank, "Gulf Bank", "", "")
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	o, err := svc.AddObligation(ctx, ledger.NewObligation{
		EntityID:          e.ID,
		Kind:              core.KindLoan,
		Name:              "Car loan",
		Principal:         core.Money{Fils: 1_200_000},
		StartDate:         core.NewDate(2025, 1, 1),
		DueDay:            25,
		TotalInstallments: core.IntPtr(12),
		InstallmentAmount: core.Money{Fils: 100_000},
	})
	if err != nil {
		t.Fatalf("AddObligation: %v", err)
	}
	sheet := sheetsmem.New()
	return fixture{ledger: svc, sheet: sheet, worker: NewSheetSyncWorker(svc, sheet, nil), loan: o}
}

func (f fixture) pay(t *testing.T, fils int64, date core.Date) core.Payment {
	t.Helper()
	res, err := f.ledger.RecordPayment(context.Background(), ledger.NewPayment{
		ObligationID: f.loan.ID,
		Amount:       core.Money{Fils: fils},
		Date:         date,
		Method:       core.MethodCard,
		Note:         "app",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	return res.Payment
}

func TestHandlePaymentRecordedAppendsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.pay(t, 100_000, core.NewDate(2025, 3, 3))
	msg := &amqp.PaymentRecordedMessage{MessageID: "m1", PaymentID: p.ID}

	if err := f.worker.HandlePaymentRecorded(ctx, msg); err != nil {
		t.Fatalf("HandlePaymentRecorded: %v", err)
	}
	// Redelivery must not duplicate the row.
	if err := f.worker.HandlePaymentRecorded(ctx, msg); err != nil {
		t.Fatalf("HandlePaymentRecorded again: %v", err)
	}

	rows := f.sheet.Rows()
	if len(rows) != 1 {
		t.Fatalf("sheet has %d rows, want 1", len(rows))
	}
	want := sheets.PaymentRow{
		PaymentID:  p.ID,
		Date:       core.NewDate(2025, 3, 3),
		Obligation: "Car loan",
		Entity:     "Gulf Bank",
		Amount:     core.Money{Fils: 100_000},
		Method:     core.MethodCard,
		Note:       "app",
		Status:     core.StatusActive,
	}
	if rows[0] != want {
		t.Errorf("row = %+v, want %+v", rows[0], want)
	}
}

func TestHandlePaymentRecordedSkipsMissingPayment(t *testing.T) {
	f := newFixture(t)
	err := f.worker.HandlePaymentRecorded(context.Background(), &amqp.PaymentRecordedMessage{PaymentID: 999})
	if err != nil {
		t.Fatalf("expected missing payment to be skipped, got %v", err)
	}
	if len(f.sheet.Rows()) != 0 {
		t.Error("row written for a missing payment")
	}
}

func TestBackfillAppendsMissingRowsForMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.pay(t, 100_000, core.NewDate(2025, 3, 3))
	f.pay(t, 20_000, core.NewDate(2025, 3, 8))
	f.pay(t, 100_000, core.NewDate(2025, 2, 20))

	if err := f.worker.HandlePaymentRecorded(ctx, &amqp.PaymentRecordedMessage{PaymentID: first.ID}); err != nil {
		t.Fatalf("HandlePaymentRecorded: %v", err)
	}

	n, err := f.worker.Backfill(ctx, core.NewMonth(2025, time.March))
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if n != 1 {
		t.Errorf("Backfill appended %d rows, want 1", n)
	}
	if got := len(f.sheet.Rows()); got != 2 {
		t.Errorf("sheet has %d rows, want 2", got)
	}
}

type failingSheet struct {
	*sheetsmem.Store
}

func (failingSheet) AppendPayment(context.Context, sheets.PaymentRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandlePaymentRecordedPropagatesSheetErrors(t *testing.T) {
	f := newFixture(t)
	p := f.pay(t, 100_000, core.NewDate(2025, 3, 3))
	w := NewSheetSyncWorker(f.ledger, failingSheet{sheetsmem.New()}, nil)

	err := w.HandlePaymentRecorded(context.Background(), &amqp.PaymentRecordedMessage{PaymentID: p.ID})
	if err == nil {
		t.Fatal("expected sheet error")
	}
}
