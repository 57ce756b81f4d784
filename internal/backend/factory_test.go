package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"spesetracker/internal/config"
	"spesetracker/internal/core"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend, Variant: core.Basic}, ""},
		{"sqlite", Config{Type: SQLiteBackend, Variant: core.Categorized, SQLiteDBPath: "x.db"}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend, Variant: core.Categorized}, "SQLite database path"},
		{"postgres without url", Config{Type: PostgresBackend, Variant: core.Categorized}, "Postgres URL"},
		{"unknown type", Config{Type: "sheets", Variant: core.Categorized}, "invalid backend type: sheets (valid: sqlite, postgres, memory)"},
		{"unknown variant", Config{Type: MemoryBackend, Variant: "fancy"}, "invalid ledger variant"},
		{"amqp without exchange", Config{Type: MemoryBackend, Variant: core.Basic, AMQPURL: "amqp://localhost/"}, "AMQP exchange"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		Variant:      "basic",
		StrictAmount: true,
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Variant != core.Basic || !cfg.StrictAmount || cfg.SQLiteDBPath != "/tmp/x.db" {
		t.Errorf("config = %+v", cfg)
	}

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets", Variant: "basic"})
	if err == nil || !strings.Contains(err.Error(), "(valid: sqlite, postgres, memory)") {
		t.Errorf("unknown backend error = %v", err)
	}
}

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets should not be valid")
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, Variant: core.Categorized})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Cleanup()
		if res.Ready != nil {
			t.Error("memory backend has no readiness probe")
		}
		if _, _, err := res.Service.Submit(ctx, core.Form{Date: "2024-01-01", Description: "x", Amount: "1"}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "expenses.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, Variant: core.Basic, SQLiteDBPath: path})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		if res.Ready == nil {
			t.Fatal("sqlite backend should expose a readiness probe")
		}
		if err := res.Ready(ctx); err != nil {
			t.Errorf("Ready: %v", err)
		}
		if err := res.Cleanup(); err != nil {
			t.Errorf("Cleanup: %v", err)
		}
		if err := res.Cleanup(); err != nil {
			t.Errorf("second Cleanup: %v", err)
		}
	})
}
