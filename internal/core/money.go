// Package core provides money parsing and handling utilities.
//
// Amounts are held as fils (0.001 of the base currency unit), so every stored
// value is exact to three decimals. The float helpers mirror the decimal API
// callers work with and round once per arithmetic step.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

const (
	// FilsPerUnit is the number of fils in one currency unit.
	FilsPerUnit = 1000

	// MoneyDecimals is the number of fractional digits every amount carries.
	MoneyDecimals = 3

	// CoverageTolerance absorbs float drift when comparing accumulated payments
	// against an installment amount. It equals one fil.
	CoverageTolerance = 0.001
)

// Round scales value by 10^decimals, rounds to the nearest integer with ties
// going away from zero, and scales back. It is not banker's rounding:
// Round(2.5, 0) is 3 and Round(-2.5, 0) is -3.
func Round(value float64, decimals int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(value*scale) / scale
}

// Add sums the amounts and rounds the result to three decimals.
func Add(amounts ...float64) float64 {
	var sum float64
	for _, a := range amounts {
		sum += a
	}
	return Round(sum, MoneyDecimals)
}

// Subtract removes every subtrahend from minuend and rounds to three decimals.
func Subtract(minuend float64, subtrahends ...float64) float64 {
	diff := minuend
	for _, s := range subtrahends {
		diff -= s
	}
	return Round(diff, MoneyDecimals)
}

// Format renders amount with thousands separators and exactly three
// fractional digits, followed by a space and symbol when symbol is set.
//
// Examples:
//
//	Format(1234.5, "KWD") -> "1,234.500 KWD"
//	Format(-0.25, "")     -> "-0.250"
func Format(amount float64, symbol string) string {
	s := humanize.FormatFloat("#,###.###", Round(amount, MoneyDecimals))
	if symbol == "" {
		return s
	}
	return s + " " + symbol
}

// Parse extracts a number from free text. Every character other than digits,
// '.' and '-' is dropped; unparsable input yields 0. Symbols that themselves
// contain dots do not survive this and should not be passed in.
func Parse(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// MoneyFromFloat converts a decimal amount to Money, rounding half away from
// zero at the third decimal.
func MoneyFromFloat(v float64) Money {
	return Money{Fils: int64(math.Round(v * FilsPerUnit))}
}

// ParseDecimalToFils converts a strict decimal string to fils.
//
// It accepts both dot (12.345) and comma (12,345) decimal separators and
// rounds half-up on the fourth decimal place. The result is always positive.
// Returns ErrInvalidAmount for invalid formats, negative values, or zero.
//
// Examples:
//
//	ParseDecimalToFils("12.345")  -> 12345, nil
//	ParseDecimalToFils("12,5")    -> 12500, nil
//	ParseDecimalToFils("1.0005")  -> 1001, nil (rounds up)
func ParseDecimalToFils(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / FilsPerUnit
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First three fractional digits, then half-up on the fourth.
	var frac int64
	weights := []int64{100, 10, 1}
	for i := 0; i < len(fracPart) && i < 3; i++ {
		frac += int64(fracPart[i]-'0') * weights[i]
	}
	if len(fracPart) > 3 && fracPart[3] >= '5' {
		frac++
	}
	fils := iv*FilsPerUnit + frac
	if fils <= 0 {
		return 0, ErrInvalidAmount
	}
	return fils, nil
}

// ParseMoney is ParseDecimalToFils wrapped into a Money value.
func ParseMoney(s string) (Money, error) {
	fils, err := ParseDecimalToFils(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Fils: fils}, nil
}

// Float returns the amount in currency units.
// Use fils for comparisons and accumulation.
func (m Money) Float() float64 {
	return float64(m.Fils) / FilsPerUnit
}

func (m Money) Add(o Money) Money { return Money{Fils: m.Fils + o.Fils} }
func (m Money) Sub(o Money) Money { return Money{Fils: m.Fils - o.Fils} }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.Fils > 0 }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Fils == 0 }

// Min returns the smaller of m and o.
func (m Money) Min(o Money) Money {
	if o.Fils < m.Fils {
		return o
	}
	return m
}

// Covers reports whether m meets target within the one-fil tolerance,
// i.e. m + 0.001 >= target, evaluated on integer fils.
func (m Money) Covers(target Money) bool {
	return m.Fils+1 >= target.Fils
}

// String formats the amount without a currency symbol.
func (m Money) String() string {
	return Format(m.Float(), "")
}
