package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stackit/internal/amqp"
	"stackit/internal/core"
	"stackit/internal/sheets"
)

// ProgressSource computes the current goal progress.
type ProgressSource interface {
	Compute(ctx context.Context) ([]core.Goal, error)
}

// MirrorConfig holds configuration for the progress mirror.
type MirrorConfig struct {
	// RefreshInterval is how often progress is mirrored without any event (default: 5m)
	RefreshInterval time.Duration
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{RefreshInterval: 5 * time.Minute}
}

// ProgressMirror recomputes goal progress and writes it to a sink, on every
// change event and on a fixed interval.
type ProgressMirror struct {
	source ProgressSource
	sink   sheets.ProgressWriter
	config MirrorConfig

	// Serializes refreshes triggered by events and by the ticker.
	refreshMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewProgressMirror(source ProgressSource, sink sheets.ProgressWriter, config MirrorConfig) *ProgressMirror {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultMirrorConfig().RefreshInterval
	}
	return &ProgressMirror{source: source, sink: sink, config: config}
}

// HandleChange refreshes the mirror for a consumed change event.
func (m *ProgressMirror) HandleChange(ctx context.Context, event *amqp.ChangeEvent) error {
	slog.InfoContext(ctx, "Processing change event",
		"type", event.Type,
		"id", event.ID,
		"timestamp", event.Timestamp)
	return m.Refresh(ctx)
}

// Refresh computes progress and replaces the mirrored table. No recorded
// balance mirrors an empty table.
func (m *ProgressMirror) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	goals, err := m.source.Compute(ctx)
	if errors.Is(err, core.ErrNoDataAvailable) {
		goals, err = []core.Goal{}, nil
	}
	if err != nil {
		return fmt.Errorf("compute progress: %w", err)
	}

	if err := m.sink.WriteProgress(ctx, goals); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	slog.DebugContext(ctx, "Progress mirrored", "goals", len(goals))
	return nil
}

// Start begins the periodic refresh loop. Returns an error if already running.
func (m *ProgressMirror) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("progress mirror is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stop, done := m.stopCh, m.doneCh
	m.mu.Unlock()

	go m.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Progress mirror started", "refresh_interval", m.config.RefreshInterval)
	return nil
}

// Stop halts the refresh loop and waits for it to finish. Only the first of
// concurrent callers signals the loop; the others return at once.
func (m *ProgressMirror) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Progress mirror stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Progress mirror stop timed out")
		return ctx.Err()
	}
}

func (m *ProgressMirror) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *ProgressMirror) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	m.refreshLogged(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refreshLogged(ctx)
		}
	}
}

func (m *ProgressMirror) refreshLogged(ctx context.Context) {
	if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Periodic progress refresh failed", "error", err)
	}
}
