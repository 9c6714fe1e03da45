package ledger

import (
	"context"
	"strings"

	"debiti/internal/core"
	"debiti/internal/storage"
)

// ImportHolidays upserts holidays and drops the cached years they touch.
func (s *Service) ImportHolidays(ctx context.Context, holidays ...core.Holiday) error {
	for _, h := range holidays {
		if err := h.Date.Validate(); err != nil {
			return err
		}
	}
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		for _, h := range holidays {
			h.Name = strings.TrimSpace(h.Name)
			if err := tx.UpsertHoliday(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.wrap("import holidays", 0, err)
	}
	years := make(map[int]bool)
	for _, h := range holidays {
		years[h.Date.Year()] = true
	}
	for y := range years {
		s.holidays.Invalidate(y)
	}
	s.logger.InfoContext(ctx, "Holidays imported", "count", len(holidays))
	return nil
}

// Holidays lists the holidays of one year.
func (s *Service) Holidays(ctx context.Context, year int) ([]core.Holiday, error) {
	set, err := s.holidays.Year(ctx, year)
	if err != nil {
		return nil, s.wrap("list holidays", 0, err)
	}
	return set.List(), nil
}

// DueDate materializes an obligation's due date for a month.
func (s *Service) DueDate(ctx context.Context, obligationID int64, month core.Month) (core.Date, error) {
	o, err := s.Obligation(ctx, obligationID)
	if err != nil {
		return core.Date{}, err
	}
	cal, err := s.Calendar(ctx, month.Year)
	if err != nil {
		return core.Date{}, err
	}
	return cal.ActualDueDate(o.DueDay, month), nil
}
