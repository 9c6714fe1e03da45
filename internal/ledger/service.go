// Package ledger records entities, obligations and payments, keeps installment
// coverage per billing month, and materializes due dates against the business
// calendar. Every mutation runs inside one storage transaction.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"debiti/internal/calendar"
	"debiti/internal/core"
	"debiti/internal/storage"
)

// Publisher receives ledger events after their transaction committed.
// Failures are logged and never undo the write.
type Publisher interface {
	PublishPaymentRecorded(ctx context.Context, p core.Payment, result PaymentResult) error
}

// Service is the ledger. It holds no global state; everything it touches is
// injected through New.
type Service struct {
	store     storage.Store
	holidays  *calendar.CachedHolidays
	policy    calendar.Policy
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithPolicy sets the business-day roll policy. Empty keeps RollBackward.
func WithPolicy(p calendar.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHolidayCache shares a holiday cache, e.g. one registered with a cache.Manager.
func WithHolidayCache(c *calendar.CachedHolidays) Option {
	return func(s *Service) { s.holidays = c }
}

func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: calendar.RollBackward,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.holidays == nil {
		s.holidays = calendar.NewCachedHolidays(store, 8, time.Hour)
	}
	return s
}

// Today is the current calendar date in the clock's location.
func (s *Service) Today() core.Date {
	return core.DateOf(s.now())
}

// Calendar returns a calendar that knows the holidays of the given years and
// their neighbours, so backward or forward walks across a year edge still see them.
func (s *Service) Calendar(ctx context.Context, years ...int) (*calendar.Calendar, error) {
	seen := make(map[int]bool)
	var all []int
	for _, y := range years {
		for _, n := range []int{y - 1, y, y + 1} {
			if !seen[n] {
				seen[n] = true
				all = append(all, n)
			}
		}
	}
	set, err := s.holidays.Years(ctx, all...)
	if err != nil {
		return nil, s.wrap("load holidays", 0, err)
	}
	return calendar.New(set, calendar.WithPolicy(s.policy)), nil
}

// wrap converts store errors into the ledger's error kinds. Errors that
// already carry a kind pass through unchanged.
func (s *Service) wrap(op string, obligationID int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrPersistence) {
		return err
	}
	return &core.PersistenceError{Op: op, ObligationID: obligationID, Err: err}
}

// lookup maps storage.ErrNotFound to a NotFoundError of the given kind.
func lookup(err error, kind string, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return &core.NotFoundError{Kind: kind, ID: id}
	}
	return err
}
