// Package worker mirrors ledger payments into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"debiti/internal/amqp"
	"debiti/internal/core"
	"debiti/internal/ledger"
	"debiti/internal/log"
	"debiti/internal/sheets"
	"debiti/internal/storage"
)

// Ledger is the read side of the ledger the worker needs.
type Ledger interface {
	Payment(ctx context.Context, id int64) (core.Payment, error)
	Payments(ctx context.Context, obligationID int64) ([]core.Payment, error)
	Obligation(ctx context.Context, id int64) (core.Obligation, error)
	Obligations(ctx context.Context, filter storage.ObligationFilter) ([]core.Obligation, error)
	Entity(ctx context.Context, id int64) (core.Entity, error)
}

var _ Ledger = (*ledger.Service)(nil)

// SheetSyncWorker appends every recorded payment to the payments sheet once.
type SheetSyncWorker struct {
	ledger Ledger
	sheet  sheets.PaymentSheet
	logger *slog.Logger
}

func NewSheetSyncWorker(l Ledger, sheet sheets.PaymentSheet, logger *slog.Logger) *SheetSyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetSyncWorker{ledger: l, sheet: sheet, logger: logger}
}

// HandlePaymentRecorded processes a single payment message from AMQP. A
// payment deleted with its obligation since publication is skipped.
func (w *SheetSyncWorker) HandlePaymentRecorded(ctx context.Context, msg *amqp.PaymentRecordedMessage) error {
	w.logger.DebugContext(ctx, "Processing payment message",
		log.FieldMessageID, msg.MessageID,
		log.FieldPaymentID, msg.PaymentID)

	p, err := w.ledger.Payment(ctx, msg.PaymentID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Payment no longer exists, skipping", log.FieldPaymentID, msg.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}

	synced, err := w.syncedIDs(ctx, p.Date.Period())
	if err != nil {
		return err
	}
	if synced[p.ID] {
		w.logger.InfoContext(ctx, "Payment already in sheet", log.FieldPaymentID, p.ID)
		return nil
	}
	return w.syncPayment(ctx, p, make(map[int64]core.Entity))
}

// Backfill appends every payment dated within month that the sheet is
// missing. It recovers from lost messages and worker downtime.
func (w *SheetSyncWorker) Backfill(ctx context.Context, month core.Month) (int, error) {
	synced, err := w.syncedIDs(ctx, month)
	if err != nil {
		return 0, err
	}
	obligations, err := w.ledger.Obligations(ctx, storage.ObligationFilter{})
	if err != nil {
		return 0, fmt.Errorf("list obligations: %w", err)
	}

	entities := make(map[int64]core.Entity)
	var appended int
	var errs []error
	for _, o := range obligations {
		payments, err := w.ledger.Payments(ctx, o.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("list payments of %d: %w", o.ID, err))
			continue
		}
		for _, p := range payments {
			if !month.Contains(p.Date) || synced[p.ID] {
				continue
			}
			if err := w.syncPayment(ctx, p, entities); err != nil {
				errs = append(errs, err)
				continue
			}
			appended++
		}
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		log.FieldOperation, log.OpBackfill,
		log.FieldPeriod, month.String(),
		log.FieldCount, appended,
		"errors", len(errs))
	return appended, errors.Join(errs...)
}

func (w *SheetSyncWorker) syncedIDs(ctx context.Context, month core.Month) (map[int64]bool, error) {
	rows, err := w.sheet.ListPayments(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list sheet payments: %w", err)
	}
	ids := make(map[int64]bool, len(rows))
	for _, r := range rows {
		ids[r.PaymentID] = true
	}
	return ids, nil
}

func (w *SheetSyncWorker) syncPayment(ctx context.Context, p core.Payment, entities map[int64]core.Entity) error {
	o, err := w.ledger.Obligation(ctx, p.ObligationID)
	if err != nil {
		return fmt.Errorf("get obligation: %w", err)
	}
	e, ok := entities[o.EntityID]
	if !ok {
		e, err = w.ledger.Entity(ctx, o.EntityID)
		if err != nil {
			return fmt.Errorf("get entity: %w", err)
		}
		entities[o.EntityID] = e
	}

	ref, err := w.sheet.AppendPayment(ctx, sheets.PaymentRow{
		PaymentID:  p.ID,
		Date:       p.Date,
		Obligation: o.Name,
		Entity:     e.Name,
		Amount:     p.Amount,
		Method:     p.Method,
		Note:       p.Note,
		Status:     o.Status,
	})
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	w.logger.InfoContext(ctx, "Successfully synced payment",
		log.NewFields().WithPayment(p.ID, o.ID, p.Amount.Fils).ToSlice()...)
	w.logger.DebugContext(ctx, "Sheet row written", log.FieldSheetsRef, ref)
	return nil
}
