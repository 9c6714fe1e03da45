package storage

import "testing"

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DialectPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := tt.dialect.rebind(tt.in); got != tt.want {
			t.Errorf("%s rebind(%q) = %q, want %q", tt.dialect, tt.in, got, tt.want)
		}
	}
}

func TestDateValueScan(t *testing.T) {
	var d dateValue
	if err := d.Scan("2025-02-25"); err != nil || d.String() != "2025-02-25" {
		t.Errorf("scan text = %s %v", d.Date, err)
	}
	if err := d.Scan([]byte("2025-02-25T00:00:00Z")); err != nil || d.String() != "2025-02-25" {
		t.Errorf("scan timestamp text = %s %v", d.Date, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("expected error for int")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?, ?, ?" {
		t.Errorf("placeholders(3) = %q", got)
	}
	if got := placeholders(0); got != "" {
		t.Errorf("placeholders(0) = %q", got)
	}
}
