package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"debiti/internal/config"
	"debiti/internal/core"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("AMQP_URL", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEntityAddCommand(t *testing.T) {
	out, err := run(t, "entity", "add", "--kind", "bank", "--name", "NBK")
	if err != nil {
		t.Fatalf("entity add: %v", err)
	}
	if !strings.Contains(out, `Added bank "NBK"`) {
		t.Errorf("output = %q", out)
	}
}

func TestObligationPauseRejectsBadID(t *testing.T) {
	_, err := run(t, "obligation", "pause", "abc")
	if err == nil || !strings.Contains(err.Error(), "invalid id") {
		t.Errorf("err = %v, want invalid id", err)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
			}
		})
	}
}

func TestPenaltyFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		fee     string
		rate    float64
		want    core.PenaltyPolicy
		wantErr bool
	}{
		{name: "none", want: core.NoPenalty()},
		{name: "flat", fee: "5", want: core.FlatFee(core.Money{Fils: 5000})},
		{name: "rate", rate: 2.5, want: core.PercentageFee(2.5)},
		{name: "both", fee: "5", rate: 2, wantErr: true},
		{name: "bad fee", fee: "five", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := penaltyFromFlags(tt.fee, tt.rate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDefaultRemindAt(t *testing.T) {
	cfg := &config.Config{Timezone: "Asia/Kuwait", ReminderLeadDays: 3, ReminderHour: 9}
	got := defaultRemindAt(cfg, core.NewDate(2025, 3, 2))
	want := time.Date(2025, 2, 27, 9, 0, 0, 0, cfg.Location())
	if !got.Equal(want) {
		t.Errorf("defaultRemindAt = %v, want %v", got, want)
	}
}
