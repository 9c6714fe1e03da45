package calendar

import (
	"testing"
	"time"

	"debiti/internal/core"
)

func kuwaitHolidays() HolidaySet {
	return NewHolidaySet(
		core.Holiday{Date: core.NewDate(2025, 2, 25), Name: "National Day"},
		core.Holiday{Date: core.NewDate(2025, 2, 26), Name: "Liberation Day"},
	)
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		date core.Date
		want bool
	}{
		{core.NewDate(2025, 2, 27), false}, // Thursday
		{core.NewDate(2025, 2, 28), true},  // Friday
		{core.NewDate(2025, 3, 1), true},   // Saturday
		{core.NewDate(2025, 3, 2), false},  // Sunday
	}
	for _, tt := range tests {
		if got := IsWeekend(tt.date); got != tt.want {
			t.Errorf("IsWeekend(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestNextBusinessDayWalksBackward(t *testing.T) {
	cal := New(kuwaitHolidays())

	tests := []struct {
		name string
		in   core.Date
		want core.Date
	}{
		{"business day unchanged", core.NewDate(2025, 3, 2), core.NewDate(2025, 3, 2)},
		{"saturday to thursday", core.NewDate(2025, 3, 1), core.NewDate(2025, 2, 27)},
		{"friday to thursday", core.NewDate(2025, 2, 28), core.NewDate(2025, 2, 27)},
		{"holiday run to monday", core.NewDate(2025, 2, 26), core.NewDate(2025, 2, 24)},
		{"crosses month boundary", core.NewDate(2025, 8, 1), core.NewDate(2025, 7, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.NextBusinessDay(tt.in); got != tt.want {
				t.Errorf("NextBusinessDay(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestNextBusinessDayProperty(t *testing.T) {
	cal := New(kuwaitHolidays())
	start := core.NewDate(2025, 1, 1)
	for i := 0; i < 365; i++ {
		d := start.AddDays(i)
		if !cal.IsWeekend(d) && !cal.IsHoliday(d) {
			continue
		}
		got := cal.NextBusinessDay(d)
		if got.After(d) {
			t.Fatalf("NextBusinessDay(%s) = %s moved forward", d, got)
		}
		if cal.IsWeekend(got) || cal.IsHoliday(got) {
			t.Fatalf("NextBusinessDay(%s) = %s is not a business day", d, got)
		}
	}
}

func TestRollForwardPolicy(t *testing.T) {
	cal := New(kuwaitHolidays(), WithPolicy(RollForward))
	if got := cal.NextBusinessDay(core.NewDate(2025, 2, 28)); got != core.NewDate(2025, 3, 2) {
		t.Errorf("forward from Friday = %s, want 2025-03-02", got)
	}
	if got := cal.NextBusinessDay(core.NewDate(2025, 2, 25)); got != core.NewDate(2025, 2, 27) {
		t.Errorf("forward from holiday = %s, want 2025-02-27", got)
	}
}

func TestActualDueDateClampsShortMonths(t *testing.T) {
	cal := New(kuwaitHolidays())
	feb := core.NewMonth(2025, time.February)

	got31 := cal.ActualDueDate(31, feb)
	got28 := cal.ActualDueDate(28, feb)
	if got31 != got28 {
		t.Errorf("ActualDueDate(31) = %s, ActualDueDate(28) = %s", got31, got28)
	}
	if !feb.Contains(got31) {
		t.Errorf("clamped date %s left February", got31)
	}
	if got31 != core.NewDate(2025, 2, 27) {
		t.Errorf("ActualDueDate(31, 2025-02) = %s, want 2025-02-27", got31)
	}

	leap := core.NewMonth(2024, time.February)
	if got := ClampDueDay(31, leap); got != core.NewDate(2024, 2, 29) {
		t.Errorf("ClampDueDay(31, 2024-02) = %s", got)
	}
	if got := ClampDueDay(30, core.NewMonth(2025, time.April)); got != core.NewDate(2025, 4, 30) {
		t.Errorf("ClampDueDay(30, 2025-04) = %s", got)
	}
}

func TestActualDueDateStaysInNominalMonth(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		dueDay int
		month  core.Month
		want   core.Date
	}{
		// 2025-08-01 is a Friday, 08-02 a Saturday.
		{"backward roll would leave August", RollBackward, 2, core.NewMonth(2025, time.August), core.NewDate(2025, 8, 3)},
		{"backward roll inside month", RollBackward, 16, core.NewMonth(2025, time.August), core.NewDate(2025, 8, 14)},
		// 2025-01-31 is a Friday, 02-01 a Saturday.
		{"forward roll would leave January", RollForward, 31, core.NewMonth(2025, time.January), core.NewDate(2025, 1, 30)},
		{"forward roll inside month", RollForward, 2, core.NewMonth(2025, time.August), core.NewDate(2025, 8, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := New(nil, WithPolicy(tt.policy))
			got := cal.ActualDueDate(tt.dueDay, tt.month)
			if got != tt.want {
				t.Errorf("ActualDueDate(%d, %s) = %s, want %s", tt.dueDay, tt.month, got, tt.want)
			}
			if !tt.month.Contains(got) {
				t.Errorf("due date %s left %s", got, tt.month)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != RollBackward {
		t.Errorf("empty policy = %v %v", p, err)
	}
	if p, err := ParsePolicy("forward"); err != nil || p != RollForward {
		t.Errorf("forward policy = %v %v", p, err)
	}
	if _, err := ParsePolicy("sideways"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestIsQuietTime(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 1, 1, h, m, 0, 0, time.UTC) }
	tod := func(s string) TimeOfDay {
		v, err := ParseTimeOfDay(s)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
		}
		return v
	}

	tests := []struct {
		name     string
		now      time.Time
		from, to string
		want     bool
	}{
		{"inside daytime window", at(13, 0), "12:00", "14:00", true},
		{"start bound inclusive", at(12, 0), "12:00", "14:00", true},
		{"end bound exclusive", at(14, 0), "12:00", "14:00", false},
		{"overnight late", at(23, 30), "22:00", "07:00", true},
		{"overnight early", at(6, 59), "22:00", "07:00", true},
		{"overnight end inclusive", at(7, 0), "22:00", "07:00", true},
		{"overnight outside", at(12, 0), "22:00", "07:00", false},
		{"empty window", at(9, 0), "09:00", "09:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuietTime(tt.now, tod(tt.from), tod(tt.to)); got != tt.want {
				t.Errorf("IsQuietTime(%s, %s, %s) = %v, want %v", tt.now.Format("15:04"), tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseHolidaysTOML(t *testing.T) {
	data := `
[[holiday]]
date = 2025-02-25
name = "National Day"

[[holiday]]
date = 2025-02-26
name = " Liberation Day "
`
	list, err := ParseHolidaysTOML(data)
	if err != nil {
		t.Fatalf("ParseHolidaysTOML: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d holidays, want 2", len(list))
	}
	if list[1].Name != "Liberation Day" {
		t.Errorf("name not trimmed: %q", list[1].Name)
	}
	set := NewHolidaySet(list...)
	if !set.IsHoliday(core.NewDate(2025, 2, 25)) {
		t.Error("2025-02-25 should be a holiday")
	}

	if _, err := ParseHolidaysTOML("[[holiday]]\nname = \"x\"\n"); err == nil {
		t.Error("expected error for missing date")
	}
}
