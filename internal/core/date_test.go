package core

import (
	"testing"
	"time"
)

func TestMonthDays(t *testing.T) {
	tests := []struct {
		month Month
		want  int
	}{
		{NewMonth(2025, time.February), 28},
		{NewMonth(2024, time.February), 29},
		{NewMonth(2025, time.April), 30},
		{NewMonth(2025, time.December), 31},
	}
	for _, tt := range tests {
		if got := tt.month.Days(); got != tt.want {
			t.Errorf("%s.Days() = %d, want %d", tt.month, got, tt.want)
		}
	}
}

func TestMonthNavigation(t *testing.T) {
	dec := NewMonth(2025, time.December)
	if got := dec.Next(); got != NewMonth(2026, time.January) {
		t.Errorf("Next() = %s", got)
	}
	if got := NewMonth(2025, time.January).Prev(); got != NewMonth(2024, time.December) {
		t.Errorf("Prev() = %s", got)
	}
	if !NewMonth(2025, time.March).Contains(NewDate(2025, 3, 31)) {
		t.Error("March must contain the 31st")
	}
	if NewMonth(2025, time.March).Contains(NewDate(2025, 4, 1)) {
		t.Error("March must not contain April 1st")
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-02")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if m.String() != "2025-02" || m.Last() != NewDate(2025, 2, 28) {
		t.Errorf("unexpected month %s last=%s", m, m.Last())
	}
	if _, err := ParseMonth("2025-13"); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestDateDaysUntil(t *testing.T) {
	a := NewDate(2025, 2, 20)
	b := NewDate(2025, 3, 22)
	if got := a.DaysUntil(b); got != 30 {
		t.Errorf("DaysUntil = %d, want 30", got)
	}
	if got := b.DaysUntil(a); got != -30 {
		t.Errorf("DaysUntil reversed = %d, want -30", got)
	}
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("AST", 3*60*60)
	ts := time.Date(2025, 3, 1, 1, 30, 0, 0, loc) // still Feb 28 in UTC
	if got := DateOf(ts); got != NewDate(2025, 3, 1) {
		t.Errorf("DateOf = %s, want 2025-03-01", got)
	}
}
