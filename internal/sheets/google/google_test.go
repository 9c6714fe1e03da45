package google

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"debiti/internal/core"
	ports "debiti/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{SheetName: "Payments"})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := newSheetsService(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	_, err := newSheetsService(context.Background(), Config{CredentialsFile: "/nonexistent/sa.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestClient_AppendPaymentValidates(t *testing.T) {
	c := newClient(nil, "test", "Payments")

	_, err := c.AppendPayment(context.Background(), ports.PaymentRow{
		PaymentID:  1,
		Date:       core.NewDate(2025, 3, 5),
		Obligation: "Car loan",
	})
	if !errors.Is(err, ports.ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}

	_, err = c.AppendPayment(context.Background(), ports.PaymentRow{
		PaymentID:  1,
		Date:       core.NewDate(2025, 3, 5),
		Obligation: "Car loan",
		Amount:     core.Money{Fils: 1000},
	})
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Errorf("expected uninitialized service error, got %v", err)
	}
}

func TestClient_ListPaymentsWithoutService(t *testing.T) {
	c := newClient(nil, "test", "Payments")
	if _, err := c.ListPayments(context.Background(), core.NewMonth(2025, time.March)); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestRowCache(t *testing.T) {
	c := newClient(nil, "test", "Payments")
	c.cacheValidDuration = time.Hour
	sheet := c.sheetName(2025)
	if sheet != "2025 Payments" {
		t.Fatalf("sheetName = %q", sheet)
	}

	c.mu.Lock()
	c.cachedRowCount[sheet] = 10
	c.cacheExpiresAt[sheet] = time.Now().Add(time.Hour)
	c.mu.Unlock()

	next, err := c.nextRow(context.Background(), sheet)
	if err != nil || next != 11 {
		t.Fatalf("nextRow = %d %v, want 11", next, err)
	}

	c.bumpRow(sheet, 11)
	if next, _ := c.nextRow(context.Background(), sheet); next != 12 {
		t.Errorf("nextRow after bump = %d, want 12", next)
	}

	c.invalidate(sheet)
	c.mu.Lock()
	_, cached := c.cachedRowCount[sheet]
	c.mu.Unlock()
	if cached {
		t.Error("invalidate left a cached row count")
	}
}

func TestEncodeRow(t *testing.T) {
	row := encodeRow(ports.PaymentRow{
		PaymentID:  7,
		Date:       core.NewDate(2025, 3, 5),
		Obligation: "Car loan",
		Entity:     "NBK",
		Amount:     core.Money{Fils: 120500},
		Method:     core.MethodCard,
		Status:     core.StatusActive,
	})
	if len(row) != 8 {
		t.Fatalf("row has %d columns, want 8", len(row))
	}
	if row[0] != "2025-03-05" || row[4] != 120.5 || row[5] != "card" {
		t.Errorf("row = %v", row)
	}
}
