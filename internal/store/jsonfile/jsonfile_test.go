package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stackit/internal/core"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Data")
	s, err := New[core.MonthlyBalance](dir, "MonthlyBalances")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("data directory not created: %v", err)
	}
	items, err := s.Load(context.Background())
	if err != nil || items == nil || len(items) != 0 {
		t.Fatalf("unexpected load: items=%v err=%v", items, err)
	}
}

func TestSaveAllOverwritesAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, _ := New[core.MonthlyBalance](dir, "MonthlyBalances")
	ctx := context.Background()

	first := []core.MonthlyBalance{
		{ID: 1, Month: core.NewMonth(2025, time.May), Balance: decimal.NewFromInt(900)},
		{ID: 2, Month: core.NewMonth(2025, time.June), Balance: decimal.RequireFromString("1000.25")},
	}
	if err := s.SaveAll(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveAll(ctx, first[1:]); err != nil {
		t.Fatalf("save: %v", err)
	}

	items, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 1 || items[0].ID != 2 || !items[0].Balance.Equal(decimal.RequireFromString("1000.25")) {
		t.Fatalf("unexpected items: %+v", items)
	}

	raw, _ := os.ReadFile(s.Path())
	if !strings.Contains(string(raw), `"month": "2025-06-01"`) {
		t.Fatalf("unexpected file content: %s", raw)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	s, _ := New[core.Goal](dir, "SavingGoals")
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}
