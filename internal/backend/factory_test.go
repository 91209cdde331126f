package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stackit/internal/config"
	"stackit/internal/core"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets is not a record store backend")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	_, err := FromAppConfig(&config.Config{DataBackend: "excel"})
	if err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "json", DataDir: "/tmp/data", AMQPQueue: "q"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != JSONBackend || cfg.DataDir != "/tmp/data" || cfg.AMQPQueue != "q" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"json ok", Config{Type: JSONBackend, DataDir: "Data"}, false},
		{"json missing dir", Config{Type: JSONBackend}, true},
		{"sqlite missing path", Config{Type: SQLiteBackend}, true},
		{"postgres missing url", Config{Type: PostgresBackend}, true},
		{"memory", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "csv"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		config Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"json", Config{Type: JSONBackend, DataDir: filepath.Join(dir, "Data")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "stackit.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Close()

			if res.Events != nil {
				t.Error("no events expected without AMQP_URL")
			}
			if err := res.Ready(ctx); err != nil {
				t.Errorf("Ready() error = %v", err)
			}

			balances := []core.MonthlyBalance{{ID: 1, Month: core.NewMonth(2025, time.June), Balance: decimal.NewFromInt(1000)}}
			if err := res.Balances.SaveAll(ctx, balances); err != nil {
				t.Fatalf("SaveAll() error = %v", err)
			}
			got, err := res.Balances.Load(ctx)
			if err != nil || len(got) != 1 || !got[0].Balance.Equal(decimal.NewFromInt(1000)) {
				t.Fatalf("Load() = %+v, %v", got, err)
			}

			goals, err := res.Goals.Load(ctx)
			if err != nil || len(goals) != 0 {
				t.Fatalf("goals should start empty: %+v, %v", goals, err)
			}
		})
	}
}

func TestCreateBackendInvalid(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCloseNilResult(t *testing.T) {
	var res *BackendResult
	if err := res.Close(); err != nil {
		t.Fatalf("Close() on nil result = %v", err)
	}
}
