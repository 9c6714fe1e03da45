// Package memory is an in-process storage.Store for tests and the memory
// backend. Transactions work on a copy of the state that replaces the live
// state only when the callback succeeds.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"debiti/internal/core"
	"debiti/internal/storage"
)

type coverageKey struct {
	obligationID int64
	period       core.Month
}

type state struct {
	nextID      int64
	entities    map[int64]core.Entity
	obligations map[int64]core.Obligation
	payments    map[int64]core.Payment
	reminders   map[int64]core.Reminder
	coverage    map[coverageKey]core.Date
	holidays    map[core.Date]string
}

func newState() *state {
	return &state{
		entities:    make(map[int64]core.Entity),
		obligations: make(map[int64]core.Obligation),
		payments:    make(map[int64]core.Payment),
		reminders:   make(map[int64]core.Reminder),
		coverage:    make(map[coverageKey]core.Date),
		holidays:    make(map[core.Date]string),
	}
}

func (s *state) clone() *state {
	c := &state{
		nextID:      s.nextID,
		entities:    make(map[int64]core.Entity, len(s.entities)),
		obligations: make(map[int64]core.Obligation, len(s.obligations)),
		payments:    make(map[int64]core.Payment, len(s.payments)),
		reminders:   make(map[int64]core.Reminder, len(s.reminders)),
		coverage:    make(map[coverageKey]core.Date, len(s.coverage)),
		holidays:    make(map[core.Date]string, len(s.holidays)),
	}
	for k, v := range s.entities {
		c.entities[k] = v
	}
	for k, v := range s.obligations {
		c.obligations[k] = copyObligation(v)
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.reminders {
		c.reminders[k] = v
	}
	for k, v := range s.coverage {
		c.coverage[k] = v
	}
	for k, v := range s.holidays {
		c.holidays[k] = v
	}
	return c
}

func copyObligation(o core.Obligation) core.Obligation {
	if o.TotalInstallments != nil {
		o.TotalInstallments = core.IntPtr(*o.TotalInstallments)
	}
	if o.RemainingInstallments != nil {
		o.RemainingInstallments = core.IntPtr(*o.RemainingInstallments)
	}
	o.Tags = slices.Clone(o.Tags)
	return o
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is safe for concurrent use. Transactions are serialised.
type Store struct {
	mu     sync.RWMutex
	state  *state
	faults map[string]error
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{state: newState(), faults: make(map[string]error)}
}

// FailOn makes the named Writer method return err inside transactions until
// cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, method)
		return
	}
	s.faults[method] = err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{reader: reader{s.state.clone()}, faults: s.faults}
	if err := fn(t); err != nil {
		return err
	}
	s.state = t.st
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) GetEntity(ctx context.Context, id int64) (core.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.GetEntity(ctx, id)
}

func (s *Store) ListEntities(ctx context.Context) ([]core.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.ListEntities(ctx)
}

func (s *Store) GetObligation(ctx context.Context, id int64) (core.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.GetObligation(ctx, id)
}

func (s *Store) ListObligations(ctx context.Context, f storage.ObligationFilter) ([]core.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.ListObligations(ctx, f)
}

func (s *Store) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.GetPayment(ctx, id)
}

func (s *Store) ListPayments(ctx context.Context, obligationID int64) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.ListPayments(ctx, obligationID)
}

func (s *Store) SumPayments(ctx context.Context, obligationID int64, from, to core.Date) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.SumPayments(ctx, obligationID, from, to)
}

func (s *Store) TotalPaid(ctx context.Context, obligationID int64) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.TotalPaid(ctx, obligationID)
}

func (s *Store) IsPeriodCovered(ctx context.Context, obligationID int64, period core.Month) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.IsPeriodCovered(ctx, obligationID, period)
}

func (s *Store) GetReminder(ctx context.Context, id int64) (core.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.GetReminder(ctx, id)
}

func (s *Store) ListReminders(ctx context.Context, f storage.ReminderFilter) ([]core.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.ListReminders(ctx, f)
}

func (s *Store) FindReminder(ctx context.Context, obligationID int64, due core.Date) (core.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.FindReminder(ctx, obligationID, due)
}

func (s *Store) ListHolidays(ctx context.Context, from, to core.Date) ([]core.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{s.state}.ListHolidays(ctx, from, to)
}

type reader struct {
	st *state
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, storage.ErrNotFound)
}

func (r reader) GetEntity(_ context.Context, id int64) (core.Entity, error) {
	e, ok := r.st.entities[id]
	if !ok {
		return core.Entity{}, notFound("entity", id)
	}
	return e, nil
}

func (r reader) ListEntities(context.Context) ([]core.Entity, error) {
	out := make([]core.Entity, 0, len(r.st.entities))
	for _, e := range r.st.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r reader) GetObligation(_ context.Context, id int64) (core.Obligation, error) {
	o, ok := r.st.obligations[id]
	if !ok {
		return core.Obligation{}, notFound("obligation", id)
	}
	return copyObligation(o), nil
}

func (r reader) ListObligations(_ context.Context, f storage.ObligationFilter) ([]core.Obligation, error) {
	var out []core.Obligation
	for _, o := range r.st.obligations {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
			continue
		}
		if f.EntityID != 0 && o.EntityID != f.EntityID {
			continue
		}
		out = append(out, copyObligation(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r reader) GetPayment(_ context.Context, id int64) (core.Payment, error) {
	p, ok := r.st.payments[id]
	if !ok {
		return core.Payment{}, notFound("payment", id)
	}
	return p, nil
}

func (r reader) ListPayments(_ context.Context, obligationID int64) ([]core.Payment, error) {
	var out []core.Payment
	for _, p := range r.st.payments {
		if p.ObligationID == obligationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r reader) SumPayments(_ context.Context, obligationID int64, from, to core.Date) (core.Money, error) {
	var total core.Money
	for _, p := range r.st.payments {
		if p.ObligationID != obligationID || p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (r reader) TotalPaid(_ context.Context, obligationID int64) (core.Money, error) {
	var total core.Money
	for _, p := range r.st.payments {
		if p.ObligationID == obligationID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (r reader) IsPeriodCovered(_ context.Context, obligationID int64, period core.Month) (bool, error) {
	_, ok := r.st.coverage[coverageKey{obligationID, period}]
	return ok, nil
}

func (r reader) GetReminder(_ context.Context, id int64) (core.Reminder, error) {
	rem, ok := r.st.reminders[id]
	if !ok {
		return core.Reminder{}, notFound("reminder", id)
	}
	return rem, nil
}

func (r reader) ListReminders(_ context.Context, f storage.ReminderFilter) ([]core.Reminder, error) {
	var cutoff time.Time
	if f.DueBefore != nil {
		cutoff = f.DueBefore.AddDays(1).Time
	}
	var out []core.Reminder
	for _, rem := range r.st.reminders {
		if f.ObligationID != 0 && rem.ObligationID != f.ObligationID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, rem.Status) {
			continue
		}
		if f.DueBefore != nil && !rem.RemindAt.Before(cutoff) {
			continue
		}
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RemindAt.Equal(out[j].RemindAt) {
			return out[i].RemindAt.Before(out[j].RemindAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r reader) FindReminder(_ context.Context, obligationID int64, due core.Date) (core.Reminder, error) {
	for _, rem := range r.st.reminders {
		if rem.ObligationID == obligationID && rem.DueDate.Equal(due) {
			return rem, nil
		}
	}
	return core.Reminder{}, notFound("reminder of obligation", obligationID)
}

func (r reader) ListHolidays(_ context.Context, from, to core.Date) ([]core.Holiday, error) {
	var out []core.Holiday
	for d, name := range r.st.holidays {
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, core.Holiday{Date: d, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type tx struct {
	reader
	faults map[string]error
}

func (t *tx) fault(method string) error {
	return t.faults[method]
}

func (t *tx) InsertEntity(_ context.Context, e *core.Entity) error {
	if err := t.fault("InsertEntity"); err != nil {
		return err
	}
	e.ID = t.st.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	t.st.entities[e.ID] = *e
	return nil
}

func (t *tx) InsertObligation(_ context.Context, o *core.Obligation) error {
	if err := t.fault("InsertObligation"); err != nil {
		return err
	}
	if _, ok := t.st.entities[o.EntityID]; !ok {
		return fmt.Errorf("insert obligation: entity %d: %w", o.EntityID, storage.ErrNotFound)
	}
	o.ID = t.st.id()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	t.st.obligations[o.ID] = copyObligation(*o)
	return nil
}

func (t *tx) UpdateObligationState(_ context.Context, id int64, remaining *int, status core.Status) error {
	if err := t.fault("UpdateObligationState"); err != nil {
		return err
	}
	o, ok := t.st.obligations[id]
	if !ok {
		return notFound("obligation", id)
	}
	o.RemainingInstallments = nil
	if remaining != nil {
		o.RemainingInstallments = core.IntPtr(*remaining)
	}
	o.Status = status
	t.st.obligations[id] = o
	return nil
}

func (t *tx) DeleteObligation(_ context.Context, id int64) error {
	if err := t.fault("DeleteObligation"); err != nil {
		return err
	}
	if _, ok := t.st.obligations[id]; !ok {
		return notFound("obligation", id)
	}
	delete(t.st.obligations, id)
	for pid, p := range t.st.payments {
		if p.ObligationID == id {
			delete(t.st.payments, pid)
		}
	}
	for rid, r := range t.st.reminders {
		if r.ObligationID == id {
			delete(t.st.reminders, rid)
		}
	}
	for k := range t.st.coverage {
		if k.obligationID == id {
			delete(t.st.coverage, k)
		}
	}
	return nil
}

func (t *tx) InsertPayment(_ context.Context, p *core.Payment) error {
	if err := t.fault("InsertPayment"); err != nil {
		return err
	}
	if _, ok := t.st.obligations[p.ObligationID]; !ok {
		return fmt.Errorf("insert payment: obligation %d: %w", p.ObligationID, storage.ErrNotFound)
	}
	p.ID = t.st.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	t.st.payments[p.ID] = *p
	return nil
}

func (t *tx) MarkPeriodCovered(_ context.Context, obligationID int64, period core.Month, on core.Date) (bool, error) {
	if err := t.fault("MarkPeriodCovered"); err != nil {
		return false, err
	}
	key := coverageKey{obligationID, period}
	if _, ok := t.st.coverage[key]; ok {
		return false, nil
	}
	t.st.coverage[key] = on
	return true, nil
}

func (t *tx) InsertReminder(_ context.Context, r *core.Reminder) error {
	if err := t.fault("InsertReminder"); err != nil {
		return err
	}
	for _, existing := range t.st.reminders {
		if existing.ObligationID == r.ObligationID && existing.DueDate.Equal(r.DueDate) {
			return fmt.Errorf("insert reminder: duplicate for obligation %d on %s", r.ObligationID, r.DueDate)
		}
	}
	r.ID = t.st.id()
	t.st.reminders[r.ID] = *r
	return nil
}

func (t *tx) UpdateReminder(_ context.Context, r core.Reminder) error {
	if err := t.fault("UpdateReminder"); err != nil {
		return err
	}
	if _, ok := t.st.reminders[r.ID]; !ok {
		return notFound("reminder", r.ID)
	}
	t.st.reminders[r.ID] = r
	return nil
}

func (t *tx) UpsertHoliday(_ context.Context, h core.Holiday) error {
	if err := t.fault("UpsertHoliday"); err != nil {
		return err
	}
	t.st.holidays[h.Date] = h.Name
	return nil
}
