// Package storetest holds behaviour checks shared by every storage.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"debiti/internal/core"
	"debiti/internal/storage"
)

// Run exercises a fresh, empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("obligation round trip", func(t *testing.T) { testObligationRoundTrip(t, open(t)) })
	t.Run("payments and coverage", func(t *testing.T) { testPaymentsAndCoverage(t, open(t)) })
	t.Run("rollback on error", func(t *testing.T) { testRollback(t, open(t)) })
	t.Run("reminders", func(t *testing.T) { testReminders(t, open(t)) })
	t.Run("holidays", func(t *testing.T) { testHolidays(t, open(t)) })
	t.Run("delete cascades", func(t *testing.T) { testDeleteCascades(t, open(t)) })
}

func seed(t *testing.T, s storage.Store) (core.Entity, core.Obligation) {
	t.Helper()
	e := core.Entity{Kind: core.EntityBank, Name: "Gulf Bank"}
	o := core.Obligation{
		Kind:                  core.KindLoan,
		Name:                  "Car loan",
		Principal:             core.Money{Fils: 1_200_000},
		APR:                   7.5,
		FeeFixed:              core.Money{Fils: 2_500},
		StartDate:             core.NewDate(2025, 1, 10),
		DueDay:                25,
		TotalInstallments:     core.IntPtr(12),
		RemainingInstallments: core.IntPtr(12),
		InstallmentAmount:     core.Money{Fils: 100_000},
		Status:                core.StatusActive,
		Penalty:               core.PercentageFee(2.5),
		Tags:                  []string{"car", "bank"},
	}
	err := s.WithTx(context.Background(), func(tx storage.Tx) error {
		if err := tx.InsertEntity(context.Background(), &e); err != nil {
			return err
		}
		o.EntityID = e.ID
		return tx.InsertObligation(context.Background(), &o)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return e, o
}

func testObligationRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	e, o := seed(t, s)

	gotE, err := s.GetEntity(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if gotE.Name != "Gulf Bank" || gotE.Kind != core.EntityBank {
		t.Errorf("entity = %+v", gotE)
	}

	got, err := s.GetObligation(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if got.Principal != o.Principal || got.InstallmentAmount != o.InstallmentAmount || got.FeeFixed != o.FeeFixed {
		t.Errorf("money fields = %+v", got)
	}
	if !got.StartDate.Equal(o.StartDate) || got.DueDay != 25 {
		t.Errorf("schedule fields = %s day %d", got.StartDate, got.DueDay)
	}
	if got.RemainingInstallments == nil || *got.RemainingInstallments != 12 {
		t.Errorf("remaining = %v", got.RemainingInstallments)
	}
	if got.Penalty != core.PercentageFee(2.5) {
		t.Errorf("penalty = %v", got.Penalty)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "car" {
		t.Errorf("tags = %v", got.Tags)
	}

	if _, err := s.GetObligation(ctx, o.ID+100); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing obligation error = %v", err)
	}

	list, err := s.ListObligations(ctx, storage.ObligationFilter{Statuses: []core.Status{core.StatusPaused}})
	if err != nil {
		t.Fatalf("ListObligations: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("paused filter returned %d rows", len(list))
	}
	list, err = s.ListObligations(ctx, storage.ObligationFilter{EntityID: e.ID})
	if err != nil {
		t.Fatalf("ListObligations: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("entity filter returned %d rows", len(list))
	}
}

func testPaymentsAndCoverage(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, o := seed(t, s)
	feb := core.NewMonth(2025, time.February)

	err := s.WithTx(ctx, func(tx storage.Tx) error {
		for _, p := range []core.Payment{
			{ObligationID: o.ID, Amount: core.Money{Fils: 60_000}, Date: core.NewDate(2025, 2, 1), Method: core.MethodCash},
			{ObligationID: o.ID, Amount: core.Money{Fils: 40_000}, Date: core.NewDate(2025, 2, 28), Method: core.MethodCard},
			{ObligationID: o.ID, Amount: core.Money{Fils: 5_000}, Date: core.NewDate(2025, 3, 1), Method: core.MethodCard},
		} {
			if err := tx.InsertPayment(ctx, &p); err != nil {
				return err
			}
		}
		set, err := tx.MarkPeriodCovered(ctx, o.ID, feb, core.NewDate(2025, 2, 28))
		if err != nil {
			return err
		}
		if !set {
			t.Error("first MarkPeriodCovered should set the flag")
		}
		set, err = tx.MarkPeriodCovered(ctx, o.ID, feb, core.NewDate(2025, 2, 28))
		if err != nil {
			return err
		}
		if set {
			t.Error("second MarkPeriodCovered should be a no-op")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	sum, err := s.SumPayments(ctx, o.ID, feb.First(), feb.Last())
	if err != nil {
		t.Fatalf("SumPayments: %v", err)
	}
	if sum.Fils != 100_000 {
		t.Errorf("February sum = %d, want 100000", sum.Fils)
	}
	total, err := s.TotalPaid(ctx, o.ID)
	if err != nil {
		t.Fatalf("TotalPaid: %v", err)
	}
	if total.Fils != 105_000 {
		t.Errorf("total = %d, want 105000", total.Fils)
	}
	covered, err := s.IsPeriodCovered(ctx, o.ID, feb)
	if err != nil || !covered {
		t.Errorf("IsPeriodCovered(feb) = %v %v", covered, err)
	}
	covered, err = s.IsPeriodCovered(ctx, o.ID, feb.Next())
	if err != nil || covered {
		t.Errorf("IsPeriodCovered(mar) = %v %v", covered, err)
	}

	payments, err := s.ListPayments(ctx, o.ID)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(payments) != 3 || !payments[0].Date.Equal(core.NewDate(2025, 2, 1)) {
		t.Errorf("payments = %+v", payments)
	}
}

func testRollback(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, o := seed(t, s)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx storage.Tx) error {
		p := core.Payment{ObligationID: o.ID, Amount: core.Money{Fils: 100_000}, Date: core.NewDate(2025, 2, 25), Method: core.MethodCash}
		if err := tx.InsertPayment(ctx, &p); err != nil {
			return err
		}
		if _, err := tx.MarkPeriodCovered(ctx, o.ID, core.NewMonth(2025, time.February), p.Date); err != nil {
			return err
		}
		if err := tx.UpdateObligationState(ctx, o.ID, core.IntPtr(11), core.StatusActive); err != nil {
			return err
		}
		got, err := tx.GetObligation(ctx, o.ID)
		if err != nil {
			return err
		}
		if *got.RemainingInstallments != 11 {
			t.Errorf("tx does not see its own write: %d", *got.RemainingInstallments)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v", err)
	}

	total, _ := s.TotalPaid(ctx, o.ID)
	if !total.IsZero() {
		t.Errorf("payment survived rollback: %s", total)
	}
	covered, _ := s.IsPeriodCovered(ctx, o.ID, core.NewMonth(2025, time.February))
	if covered {
		t.Error("coverage flag survived rollback")
	}
	got, _ := s.GetObligation(ctx, o.ID)
	if *got.RemainingInstallments != 12 {
		t.Errorf("remaining = %d after rollback, want 12", *got.RemainingInstallments)
	}
}

func testReminders(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, o := seed(t, s)
	due := core.NewDate(2025, 2, 25)
	r := core.Reminder{
		ObligationID: o.ID,
		DueDate:      due,
		RemindAt:     time.Date(2025, 2, 22, 9, 0, 0, 0, time.UTC),
		Status:       core.ReminderPending,
	}
	if err := s.WithTx(ctx, func(tx storage.Tx) error { return tx.InsertReminder(ctx, &r) }); err != nil {
		t.Fatalf("InsertReminder: %v", err)
	}

	found, err := s.FindReminder(ctx, o.ID, due)
	if err != nil || found.ID != r.ID {
		t.Errorf("FindReminder = %+v %v, want id %d", found, err, r.ID)
	}
	if _, err := s.FindReminder(ctx, o.ID, due.AddDays(1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("FindReminder for another due date error = %v, want ErrNotFound", err)
	}

	before := core.NewDate(2025, 2, 21)
	list, err := s.ListReminders(ctx, storage.ReminderFilter{DueBefore: &before})
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("reminder listed before its day: %+v", list)
	}
	on := core.NewDate(2025, 2, 22)
	list, err = s.ListReminders(ctx, storage.ReminderFilter{DueBefore: &on, Statuses: []core.ReminderStatus{core.ReminderPending}})
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(list) != 1 || !list[0].RemindAt.Equal(r.RemindAt) || !list[0].DueDate.Equal(due) {
		t.Fatalf("ListReminders = %+v", list)
	}

	r.Status = core.ReminderSent
	if err := s.WithTx(ctx, func(tx storage.Tx) error { return tx.UpdateReminder(ctx, r) }); err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	got, err := s.GetReminder(ctx, r.ID)
	if err != nil || got.Status != core.ReminderSent {
		t.Errorf("GetReminder = %+v %v", got, err)
	}
}

func testHolidays(t *testing.T, s storage.Store) {
	ctx := context.Background()
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpsertHoliday(ctx, core.Holiday{Date: core.NewDate(2025, 2, 25), Name: "National"}); err != nil {
			return err
		}
		if err := tx.UpsertHoliday(ctx, core.Holiday{Date: core.NewDate(2025, 2, 25), Name: "National Day"}); err != nil {
			return err
		}
		return tx.UpsertHoliday(ctx, core.Holiday{Date: core.NewDate(2026, 1, 1), Name: "New Year"})
	})
	if err != nil {
		t.Fatalf("UpsertHoliday: %v", err)
	}
	list, err := s.ListHolidays(ctx, core.NewDate(2025, 1, 1), core.NewDate(2025, 12, 31))
	if err != nil {
		t.Fatalf("ListHolidays: %v", err)
	}
	if len(list) != 1 || list[0].Name != "National Day" || !list[0].Date.Equal(core.NewDate(2025, 2, 25)) {
		t.Errorf("ListHolidays = %+v", list)
	}
}

func testDeleteCascades(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, o := seed(t, s)
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		p := core.Payment{ObligationID: o.ID, Amount: core.Money{Fils: 1_000}, Date: core.NewDate(2025, 2, 2), Method: core.MethodCash}
		if err := tx.InsertPayment(ctx, &p); err != nil {
			return err
		}
		return tx.DeleteObligation(ctx, o.ID)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetObligation(ctx, o.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("obligation still present: %v", err)
	}
	payments, err := s.ListPayments(ctx, o.ID)
	if err != nil || len(payments) != 0 {
		t.Errorf("payments after delete = %v %v", payments, err)
	}
	err = s.WithTx(ctx, func(tx storage.Tx) error { return tx.DeleteObligation(ctx, o.ID) })
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}
