package memory

import (
	"context"
	"sync"

	"stackit/internal/core"
	"stackit/internal/sheets"
)

var _ sheets.ProgressWriter = (*Writer)(nil)

// Writer keeps the last mirrored table in memory.
type Writer struct {
	mu     sync.Mutex
	last   []core.Goal
	writes int
	err    error
}

func New() *Writer {
	return &Writer{}
}

// FailWith makes every following write return err (nil restores success).
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *Writer) WriteProgress(ctx context.Context, goals []core.Goal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.last = append(make([]core.Goal, 0, len(goals)), goals...)
	w.writes++
	return nil
}

// Last returns a copy of the most recently written table.
func (w *Writer) Last() []core.Goal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.Goal(nil), w.last...)
}

func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
