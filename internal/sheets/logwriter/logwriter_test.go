package logwriter

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stackit/internal/core"
)

func TestWriteProgressLogsEachGoal(t *testing.T) {
	var buf bytes.Buffer
	w := New(slog.New(slog.NewTextHandler(&buf, nil)))

	goals := []core.Goal{{
		ID: 3, Label: "Holiday", Amount: decimal.NewFromInt(400), DueMonth: core.NewMonth(2025, time.August),
		Progression: decimal.NewFromInt(50), Remaining: decimal.NewFromInt(200),
	}}
	if err := w.WriteProgress(context.Background(), goals); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"goals=1", "label=Holiday", "due_month=2025-08", "progression=50.00", "remaining=200.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
