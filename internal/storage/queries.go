package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"debiti/internal/core"
)

const entityColumns = `id, kind, name, phone, note, created_at`

const obligationColumns = `id, entity_id, kind, name, principal_fils, apr, fee_fixed_fils,
	start_date, due_day, total_installments, remaining_installments, installment_fils,
	status, penalty_policy, relationship_factor, tags, created_at`

const paymentColumns = `id, obligation_id, amount_fils, paid_on, method, note, created_at`

const reminderColumns = `id, obligation_id, due_date, remind_at, status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (core.Entity, error) {
	var (
		e       core.Entity
		created timeValue
	)
	if err := row.Scan(&e.ID, &e.Kind, &e.Name, &e.Phone, &e.Note, &created); err != nil {
		return core.Entity{}, err
	}
	e.CreatedAt = created.Time
	return e, nil
}

func scanObligation(row rowScanner) (core.Obligation, error) {
	var (
		o                core.Obligation
		start            dateValue
		total, remaining sql.NullInt64
		created          timeValue
	)
	err := row.Scan(&o.ID, &o.EntityID, &o.Kind, &o.Name, &o.Principal.Fils, &o.APR, &o.FeeFixed.Fils,
		&start, &o.DueDay, &total, &remaining, &o.InstallmentAmount.Fils,
		&o.Status, jsonText{&o.Penalty}, &o.RelationshipFactor, jsonText{&o.Tags}, &created)
	if err != nil {
		return core.Obligation{}, err
	}
	o.StartDate = start.Date
	o.TotalInstallments = intPtr(total)
	o.RemainingInstallments = intPtr(remaining)
	o.CreatedAt = created.Time
	return o, nil
}

func scanPayment(row rowScanner) (core.Payment, error) {
	var (
		p       core.Payment
		paid    dateValue
		created timeValue
	)
	if err := row.Scan(&p.ID, &p.ObligationID, &p.Amount.Fils, &paid, &p.Method, &p.Note, &created); err != nil {
		return core.Payment{}, err
	}
	p.Date = paid.Date
	p.CreatedAt = created.Time
	return p, nil
}

func scanReminder(row rowScanner) (core.Reminder, error) {
	var (
		r   core.Reminder
		due dateValue
		at  timeValue
	)
	if err := row.Scan(&r.ID, &r.ObligationID, &due, &at, &r.Status); err != nil {
		return core.Reminder{}, err
	}
	r.DueDate = due.Date
	r.RemindAt = at.Time
	return r, nil
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}

func (q queries) GetEntity(ctx context.Context, id int64) (core.Entity, error) {
	e, err := scanEntity(q.queryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id))
	if err != nil {
		return core.Entity{}, notFound(err, "entity", id)
	}
	return e, nil
}

func (q queries) ListEntities(ctx context.Context) ([]core.Entity, error) {
	rows, err := q.query(ctx, `SELECT `+entityColumns+` FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []core.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q queries) GetObligation(ctx context.Context, id int64) (core.Obligation, error) {
	o, err := scanObligation(q.queryRow(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE id = ?`, id))
	if err != nil {
		return core.Obligation{}, notFound(err, "obligation", id)
	}
	return o, nil
}

func (q queries) ListObligations(ctx context.Context, filter ObligationFilter) ([]core.Obligation, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if filter.EntityID != 0 {
		where = append(where, "entity_id = ?")
		args = append(args, filter.EntityID)
	}

	query := `SELECT ` + obligationColumns + ` FROM obligations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	defer rows.Close()

	var out []core.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q queries) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	p, err := scanPayment(q.queryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		return core.Payment{}, notFound(err, "payment", id)
	}
	return p, nil
}

func (q queries) ListPayments(ctx context.Context, obligationID int64) ([]core.Payment, error) {
	rows, err := q.query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE obligation_id = ? ORDER BY paid_on, id`, obligationID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (q queries) SumPayments(ctx context.Context, obligationID int64, from, to core.Date) (core.Money, error) {
	var total int64
	err := q.queryRow(ctx,
		`SELECT COALESCE(SUM(amount_fils), 0) FROM payments
		 WHERE obligation_id = ? AND paid_on >= ? AND paid_on <= ?`,
		obligationID, from.String(), to.String()).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum payments: %w", err)
	}
	return core.Money{Fils: total}, nil
}

func (q queries) TotalPaid(ctx context.Context, obligationID int64) (core.Money, error) {
	var total int64
	err := q.queryRow(ctx,
		`SELECT COALESCE(SUM(amount_fils), 0) FROM payments WHERE obligation_id = ?`, obligationID).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("total paid: %w", err)
	}
	return core.Money{Fils: total}, nil
}

func (q queries) IsPeriodCovered(ctx context.Context, obligationID int64, period core.Month) (bool, error) {
	var n int
	err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM period_coverage WHERE obligation_id = ? AND period = ?`,
		obligationID, period.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check period coverage: %w", err)
	}
	return n > 0, nil
}

func (q queries) GetReminder(ctx context.Context, id int64) (core.Reminder, error) {
	r, err := scanReminder(q.queryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id))
	if err != nil {
		return core.Reminder{}, notFound(err, "reminder", id)
	}
	return r, nil
}

func (q queries) ListReminders(ctx context.Context, filter ReminderFilter) ([]core.Reminder, error) {
	var (
		where []string
		args  []any
	)
	if filter.ObligationID != 0 {
		where = append(where, "obligation_id = ?")
		args = append(args, filter.ObligationID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if filter.DueBefore != nil {
		where = append(where, "remind_at < ?")
		args = append(args, q.dialect.timeArg(filter.DueBefore.AddDays(1).Time))
	}

	query := `SELECT ` + reminderColumns + ` FROM reminders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY remind_at, id"

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []core.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q queries) FindReminder(ctx context.Context, obligationID int64, due core.Date) (core.Reminder, error) {
	r, err := scanReminder(q.queryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE obligation_id = ? AND due_date = ?`,
		obligationID, due.String()))
	if err != nil {
		return core.Reminder{}, notFound(err, "reminder of obligation", obligationID)
	}
	return r, nil
}

func (q queries) ListHolidays(ctx context.Context, from, to core.Date) ([]core.Holiday, error) {
	rows, err := q.query(ctx,
		`SELECT holiday_date, name FROM holidays WHERE holiday_date >= ? AND holiday_date <= ? ORDER BY holiday_date`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var out []core.Holiday
	for rows.Next() {
		var (
			d dateValue
			h core.Holiday
		)
		if err := rows.Scan(&d, &h.Name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		h.Date = d.Date
		out = append(out, h)
	}
	return out, rows.Err()
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func (q txQueries) InsertEntity(ctx context.Context, e *core.Entity) error {
	e.CreatedAt = createdAt(e.CreatedAt)
	err := q.queryRow(ctx,
		`INSERT INTO entities (kind, name, phone, note, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		string(e.Kind), e.Name, e.Phone, e.Note, q.dialect.timeArg(e.CreatedAt)).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

func (q txQueries) InsertObligation(ctx context.Context, o *core.Obligation) error {
	penalty, err := o.Penalty.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode penalty: %w", err)
	}
	tags, err := encodeTags(o.Tags)
	if err != nil {
		return err
	}
	o.CreatedAt = createdAt(o.CreatedAt)

	err = q.queryRow(ctx,
		`INSERT INTO obligations (entity_id, kind, name, principal_fils, apr, fee_fixed_fils,
			start_date, due_day, total_installments, remaining_installments, installment_fils,
			status, penalty_policy, relationship_factor, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		o.EntityID, string(o.Kind), o.Name, o.Principal.Fils, o.APR, o.FeeFixed.Fils,
		o.StartDate.String(), o.DueDay, nullInt(o.TotalInstallments), nullInt(o.RemainingInstallments),
		o.InstallmentAmount.Fils, string(o.Status), string(penalty), o.RelationshipFactor, tags,
		q.dialect.timeArg(o.CreatedAt)).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert obligation: %w", err)
	}
	return nil
}

func (q txQueries) UpdateObligationState(ctx context.Context, id int64, remaining *int, status core.Status) error {
	res, err := q.exec(ctx,
		`UPDATE obligations SET remaining_installments = ?, status = ? WHERE id = ?`,
		nullInt(remaining), string(status), id)
	if err != nil {
		return fmt.Errorf("update obligation %d: %w", id, err)
	}
	return expectOne(res, "obligation", id)
}

func (q txQueries) DeleteObligation(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM obligations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete obligation %d: %w", id, err)
	}
	return expectOne(res, "obligation", id)
}

func (q txQueries) InsertPayment(ctx context.Context, p *core.Payment) error {
	p.CreatedAt = createdAt(p.CreatedAt)
	err := q.queryRow(ctx,
		`INSERT INTO payments (obligation_id, amount_fils, paid_on, method, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		p.ObligationID, p.Amount.Fils, p.Date.String(), string(p.Method), p.Note,
		q.dialect.timeArg(p.CreatedAt)).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (q txQueries) MarkPeriodCovered(ctx context.Context, obligationID int64, period core.Month, on core.Date) (bool, error) {
	res, err := q.exec(ctx,
		`INSERT INTO period_coverage (obligation_id, period, covered_on) VALUES (?, ?, ?)
		 ON CONFLICT (obligation_id, period) DO NOTHING`,
		obligationID, period.String(), on.String())
	if err != nil {
		return false, fmt.Errorf("mark period %s covered: %w", period, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark period %s covered: %w", period, err)
	}
	return n == 1, nil
}

func (q txQueries) InsertReminder(ctx context.Context, r *core.Reminder) error {
	err := q.queryRow(ctx,
		`INSERT INTO reminders (obligation_id, due_date, remind_at, status) VALUES (?, ?, ?, ?) RETURNING id`,
		r.ObligationID, r.DueDate.String(), q.dialect.timeArg(r.RemindAt), string(r.Status)).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (q txQueries) UpdateReminder(ctx context.Context, r core.Reminder) error {
	res, err := q.exec(ctx,
		`UPDATE reminders SET remind_at = ?, status = ? WHERE id = ?`,
		q.dialect.timeArg(r.RemindAt), string(r.Status), r.ID)
	if err != nil {
		return fmt.Errorf("update reminder %d: %w", r.ID, err)
	}
	return expectOne(res, "reminder", r.ID)
}

func (q txQueries) UpsertHoliday(ctx context.Context, h core.Holiday) error {
	_, err := q.exec(ctx,
		`INSERT INTO holidays (holiday_date, name) VALUES (?, ?)
		 ON CONFLICT (holiday_date) DO UPDATE SET name = excluded.name`,
		h.Date.String(), h.Name)
	if err != nil {
		return fmt.Errorf("upsert holiday %s: %w", h.Date, err)
	}
	return nil
}

func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
