// Package logwriter mirrors goal progress to the structured log when no
// spreadsheet is configured.
package logwriter

import (
	"context"
	"log/slog"

	"stackit/internal/core"
	"stackit/internal/sheets"
)

var _ sheets.ProgressWriter = (*Writer)(nil)

type Writer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

func (w *Writer) WriteProgress(ctx context.Context, goals []core.Goal) error {
	w.logger.InfoContext(ctx, "Goal progress", "goals", len(goals))
	for _, g := range goals {
		w.logger.InfoContext(ctx, "Goal",
			"id", g.ID,
			"label", g.Label,
			"due_month", g.DueMonth.String(),
			"amount", g.Amount.String(),
			"progression", g.Progression.StringFixed(2),
			"remaining", g.Remaining.StringFixed(2))
	}
	return nil
}
