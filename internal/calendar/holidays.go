package calendar

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"debiti/internal/core"
)

// HolidaySet is an in-memory holiday list keyed by date.
type HolidaySet map[core.Date]string

// NewHolidaySet indexes the given holidays.
func NewHolidaySet(holidays ...core.Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[normalize(h.Date)] = h.Name
	}
	return set
}

func (s HolidaySet) IsHoliday(d core.Date) bool {
	_, ok := s[normalize(d)]
	return ok
}

// normalize strips location and clock so dates from any source compare equal as map keys.
func normalize(d core.Date) core.Date {
	return core.NewDate(d.Year(), d.Month(), d.Day())
}

// Merge returns a new set holding the holidays of s and others.
func (s HolidaySet) Merge(others ...HolidaySet) HolidaySet {
	out := make(HolidaySet, len(s))
	for d, n := range s {
		out[d] = n
	}
	for _, o := range others {
		for d, n := range o {
			out[d] = n
		}
	}
	return out
}

// List returns the holidays sorted by date.
func (s HolidaySet) List() []core.Holiday {
	out := make([]core.Holiday, 0, len(s))
	for d, n := range s {
		out = append(out, core.Holiday{Date: d, Name: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

type holidayFile struct {
	Holidays []struct {
		Date time.Time `toml:"date"`
		Name string    `toml:"name"`
	} `toml:"holiday"`
}

// ParseHolidaysTOML decodes a holiday list of the form:
//
//	[[holiday]]
//	date = 2025-02-25
//	name = "National Day"
func ParseHolidaysTOML(data string) ([]core.Holiday, error) {
	var f holidayFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decode holidays: %w", err)
	}
	out := make([]core.Holiday, 0, len(f.Holidays))
	for i, h := range f.Holidays {
		if h.Date.IsZero() {
			return nil, fmt.Errorf("holiday %d: missing date", i+1)
		}
		// TOML local dates carry a placeholder zone; only the calendar day matters.
		y, m, d := h.Date.Date()
		out = append(out, core.Holiday{Date: core.NewDate(y, int(m), d), Name: strings.TrimSpace(h.Name)})
	}
	return out, nil
}

// LoadHolidaysTOML reads and decodes a holiday file.
func LoadHolidaysTOML(path string) ([]core.Holiday, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays file: %w", err)
	}
	return ParseHolidaysTOML(string(data))
}
