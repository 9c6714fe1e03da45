// Package calendar resolves nominal due days into concrete business-day due
// dates and answers quiet-hours questions for reminder delivery.
//
// The weekend is fixed to Friday and Saturday. Holidays come from a
// HolidaySource that the calendar only reads.
package calendar

import (
	"fmt"
	"time"

	"debiti/internal/core"
)

// Policy selects which way a due date moves when it lands on a non-business day.
type Policy string

const (
	// RollBackward moves a due date to the closest business day on or before
	// the nominal date. This is the default: the bill is due earlier, never later.
	RollBackward Policy = "backward"
	// RollForward moves a due date to the next business day, extending the grace period.
	RollForward Policy = "forward"
)

// maxWalk bounds the business-day search; a year of consecutive holidays is not a calendar.
const maxWalk = 366

// HolidaySource answers whether a date is a listed holiday.
type HolidaySource interface {
	IsHoliday(d core.Date) bool
}

// Calendar evaluates business days against a fixed weekend and a holiday source.
type Calendar struct {
	holidays HolidaySource
	policy   Policy
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithPolicy overrides the default RollBackward policy.
func WithPolicy(p Policy) Option {
	return func(c *Calendar) {
		c.policy = p
	}
}

// New builds a calendar. A nil source means no holidays.
func New(holidays HolidaySource, opts ...Option) *Calendar {
	if holidays == nil {
		holidays = HolidaySet{}
	}
	c := &Calendar{holidays: holidays, policy: RollBackward}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsePolicy validates a policy name coming from configuration.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case RollBackward, RollForward:
		return Policy(s), nil
	case "":
		return RollBackward, nil
	}
	return "", fmt.Errorf("unknown due date policy %q: must be %q or %q", s, RollBackward, RollForward)
}

// Policy returns the active roll policy.
func (c *Calendar) Policy() Policy {
	return c.policy
}

// IsWeekend reports whether d is a Friday or Saturday.
func IsWeekend(d core.Date) bool {
	wd := d.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// IsWeekend reports whether d is a Friday or Saturday.
func (c *Calendar) IsWeekend(d core.Date) bool {
	return IsWeekend(d)
}

// IsHoliday reports whether d is in the holiday source.
func (c *Calendar) IsHoliday(d core.Date) bool {
	return c.holidays.IsHoliday(d)
}

// IsBusinessDay reports whether d is neither a weekend day nor a holiday.
func (c *Calendar) IsBusinessDay(d core.Date) bool {
	return !c.IsWeekend(d) && !c.IsHoliday(d)
}

// NextBusinessDay resolves d to a business day according to the policy. Under
// the default RollBackward policy it walks backward one day at a time and
// returns the closest business day on or before d; a business day is
// returned unchanged.
func (c *Calendar) NextBusinessDay(d core.Date) core.Date {
	return c.walk(d, c.step())
}

func (c *Calendar) step() int {
	if c.policy == RollForward {
		return 1
	}
	return -1
}

func (c *Calendar) walk(d core.Date, step int) core.Date {
	candidate := d
	for i := 0; i < maxWalk && !c.IsBusinessDay(candidate); i++ {
		candidate = candidate.AddDays(step)
	}
	return candidate
}

// ClampDueDay returns the nominal due date for dueDay in month m: the due day
// itself, or the last day of the month when the month is shorter.
func ClampDueDay(dueDay int, m core.Month) core.Date {
	day := min(dueDay, m.Days())
	return core.NewDate(m.Year, int(m.Month), day)
}

// ActualDueDate clamps dueDay to the length of month m and resolves the result
// to a business day inside m. When the policy's roll would leave the month
// (day 2 on a Saturday after a Friday the 1st rolling back into the previous
// month) the date rolls the other way instead, so a due date and the payments
// made on it always belong to the same billing month. A month with no business
// day on that side keeps the nominal date.
func (c *Calendar) ActualDueDate(dueDay int, m core.Month) core.Date {
	nominal := ClampDueDay(dueDay, m)
	if due := c.walk(nominal, c.step()); m.Contains(due) {
		return due
	}
	if due := c.walk(nominal, -c.step()); m.Contains(due) {
		return due
	}
	return nominal
}
