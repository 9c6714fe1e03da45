package backend

import (
	"context"
	"path/filepath"
	"testing"

	"debiti/internal/calendar"
	"debiti/internal/config"
	"debiti/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:   "postgres",
		PostgresDSN:   "postgres://localhost/debiti",
		DueDatePolicy: "forward",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.DueDatePolicy != calendar.RollForward {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "csv"}, true},
		{"amqp without queues", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, DueDatePolicy: calendar.RollBackward})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.AMQP != nil {
		t.Error("AMQP client created without URL")
	}
	if _, err := res.Ledger.AddEntity(ctx, core.EntityPerson, "Ali", "", ""); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	list, err := res.Store.ListEntities(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("ListEntities = %v %v", list, err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "debiti.db")
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if _, err := res.Ledger.AddEntity(ctx, core.EntityBank, "NBK", "", ""); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}
