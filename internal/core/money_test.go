package core

import (
	"math"
	"testing"
)

func TestParseDecimalToFils(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 1000, true},
		{"1.0", 1000, true},
		{"1.234", 1234, true},
		{"1,234", 1234, true},
		{"0.001", 1, true},
		{"1.0005", 1001, true}, // half-up rounding
		{"1.0004", 1000, true},
		{" 2.50 ", 2500, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.0004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToFils(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     float64
	}{
		{"positive tie", 2.5, 0, 3},
		{"negative tie", -2.5, 0, -3},
		{"even tie stays away from zero", 0.5, 0, 1},
		{"three decimals", 1.23456, 3, 1.235},
		{"three decimals negative", -1.23456, 3, -1.235},
		{"already rounded", 14.863, 3, 14.863},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round(tt.value, tt.decimals); got != tt.want {
				t.Errorf("Round(%v, %d) = %v, want %v", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestAddAndSubtractRoundEachStep(t *testing.T) {
	// 0.1 + 0.2 drifts in binary floating point; the helpers must not.
	if got := Add(0.1, 0.2); got != 0.3 {
		t.Errorf("Add(0.1, 0.2) = %v, want 0.3", got)
	}
	if got := Subtract(1, 0.9, 0.05); got != 0.05 {
		t.Errorf("Subtract(1, 0.9, 0.05) = %v, want 0.05", got)
	}

	var acc float64
	for i := 0; i < 1000; i++ {
		acc = Add(acc, 0.001)
	}
	if acc != 1 {
		t.Errorf("accumulated 1000 fils = %v, want 1", acc)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount float64
		symbol string
		want   string
	}{
		{1234.5, "KWD", "1,234.500 KWD"},
		{0, "KWD", "0.000 KWD"},
		{1234567.891, "", "1,234,567.891"},
		{-0.25, "", "-0.250"},
		{999.9995, "", "1,000.000"},
	}
	for _, tt := range tests {
		if got := Format(tt.amount, tt.symbol); got != tt.want {
			t.Errorf("Format(%v, %q) = %q, want %q", tt.amount, tt.symbol, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.500 KWD", 1234.5},
		{"KWD -12.000", -12},
		{"", 0},
		{"abc", 0},
		{"1.2.3", 0},
		{"--1", 0},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []float64{0, 0.001, 1, 12.345, 999.999, 1000, 1234567.891, -42.5, -0.001}
	for _, x := range values {
		got := Parse(Format(x, "KWD"))
		if math.Abs(got-x) > 0.0005 {
			t.Errorf("Parse(Format(%v)) = %v", x, got)
		}
	}
}

func TestMoneyCovers(t *testing.T) {
	target := Money{Fils: 100000}
	cases := []struct {
		paid Money
		want bool
	}{
		{Money{Fils: 100000}, true},
		{Money{Fils: 99999}, true}, // within one fil
		{Money{Fils: 99998}, false},
		{Money{Fils: 150000}, true},
	}
	for _, tc := range cases {
		if got := tc.paid.Covers(target); got != tc.want {
			t.Errorf("%v.Covers(%v) = %v, want %v", tc.paid, target, got, tc.want)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if got := MoneyFromFloat(14.8630137); got.Fils != 14863 {
		t.Errorf("MoneyFromFloat = %d, want 14863", got.Fils)
	}
	if got := MoneyFromFloat(-0.0005); got.Fils != -1 {
		t.Errorf("MoneyFromFloat(-0.0005) = %d, want -1", got.Fils)
	}
}
