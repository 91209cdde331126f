package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"stackit/internal/core"
	apphttp "stackit/internal/http"
	"stackit/internal/repository"
	"stackit/internal/services"
	"stackit/internal/store/memory"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	balances := repository.New[core.MonthlyBalance]("balances", memory.New[core.MonthlyBalance](), repository.Serialized)
	goals := repository.New[core.Goal]("goals", memory.New[core.Goal](), repository.Serialized)
	srv := apphttp.NewServer(":0", apphttp.Deps{
		Ledger:   services.NewLedgerService(balances, nil),
		Goals:    services.NewGoalService(goals, nil),
		Progress: services.NewProgressService(balances, goals),
	}, apphttp.Options{})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", url}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBalanceCommands(t *testing.T) {
	url := newTestServer(t)

	out, err := run(t, url, "balances", "list")
	if err != nil || !strings.Contains(out, "No balances recorded.") {
		t.Fatalf("empty list: %q %v", out, err)
	}

	out, err = run(t, url, "balances", "add", "2025-06", "1000,50")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Recorded balance 1 for 2025-06: 1000.50") {
		t.Errorf("unexpected add output %q", out)
	}

	out, err = run(t, url, "b", "list")
	if err != nil || !strings.Contains(out, "2025-06") || !strings.Contains(out, "1000.50") {
		t.Fatalf("list: %q %v", out, err)
	}

	if _, err := run(t, url, "balances", "delete", "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestGoalAndProgressCommands(t *testing.T) {
	url := newTestServer(t)

	steps := [][]string{
		{"balances", "add", "2025-06-01", "1000"},
		{"goals", "add", "A", "300", "2025-06"},
		{"goals", "add", "B", "500", "2025-07"},
		{"goals", "add", "C", "400", "2025-08"},
	}
	for _, args := range steps {
		if out, err := run(t, url, args...); err != nil {
			t.Fatalf("%v: %v %s", args, err, out)
		}
	}

	out, err := run(t, url, "progress")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	for _, want := range []string{"PROGRESS", "100.0%", "50.0%", "700.00", "200.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, url, "goals", "list")
	if err != nil {
		t.Fatalf("goals list: %v", err)
	}
	if strings.Index(out, "2025-06") > strings.Index(out, "2025-08") {
		t.Errorf("goals not ordered by due month:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	url := newTestServer(t)

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"bad month", []string{"balances", "add", "June", "10"}, core.ErrMalformedInput},
		{"bad id", []string{"goals", "delete", "x"}, core.ErrMalformedInput},
		{"unknown goal", []string{"goals", "delete", "9"}, core.ErrNotFound},
		{"bad goal amount", []string{"goals", "add", "Bike", "ten", "2025-06"}, core.ErrMalformedInput},
		{"label too long", []string{"goals", "add", strings.Repeat("x", 201), "5", "2025-06"}, core.ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, url, tt.args...)
			if !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestProgressWithoutData(t *testing.T) {
	out, err := run(t, newTestServer(t), "progress")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !strings.Contains(out, "No goal progress") {
		t.Errorf("unexpected output %q", out)
	}
}
