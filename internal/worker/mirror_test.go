package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stackit/internal/amqp"
	"stackit/internal/core"
	"stackit/internal/sheets/memory"
)

type stubSource struct {
	goals []core.Goal
	err   error
	calls atomic.Int32
}

func (s *stubSource) Compute(context.Context) ([]core.Goal, error) {
	s.calls.Add(1)
	return s.goals, s.err
}

func TestDefaultMirrorConfig(t *testing.T) {
	if got := DefaultMirrorConfig().RefreshInterval; got != 5*time.Minute {
		t.Errorf("expected RefreshInterval 5m, got %v", got)
	}
	m := NewProgressMirror(&stubSource{}, memory.New(), MirrorConfig{})
	if m.config.RefreshInterval != 5*time.Minute {
		t.Errorf("zero interval should fall back to default, got %v", m.config.RefreshInterval)
	}
}

func TestHandleChangeMirrorsProgress(t *testing.T) {
	src := &stubSource{goals: []core.Goal{{ID: 1, Label: "Car", Progression: decimal.NewFromInt(100)}}}
	sink := memory.New()
	m := NewProgressMirror(src, sink, DefaultMirrorConfig())

	if err := m.HandleChange(context.Background(), amqp.NewChangeEvent(amqp.GoalCreated, 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := sink.Last(); len(got) != 1 || got[0].Label != "Car" {
		t.Fatalf("unexpected mirrored table: %+v", got)
	}
}

func TestRefreshWithoutBalancesWritesEmptyTable(t *testing.T) {
	sink := memory.New()
	m := NewProgressMirror(&stubSource{err: core.ErrNoDataAvailable}, sink, DefaultMirrorConfig())

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sink.Writes() != 1 || len(sink.Last()) != 0 {
		t.Fatalf("expected one empty write, got %d writes: %+v", sink.Writes(), sink.Last())
	}
}

func TestRefreshErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("compute failure skips the sink", func(t *testing.T) {
		sink := memory.New()
		m := NewProgressMirror(&stubSource{err: boom}, sink, DefaultMirrorConfig())
		if err := m.Refresh(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("expected compute error, got %v", err)
		}
		if sink.Writes() != 0 {
			t.Fatal("sink must not be written when compute fails")
		}
	})

	t.Run("sink failure is returned", func(t *testing.T) {
		sink := memory.New()
		sink.FailWith(boom)
		m := NewProgressMirror(&stubSource{}, sink, DefaultMirrorConfig())
		if err := m.Refresh(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("expected sink error, got %v", err)
		}
	})
}

func TestProgressMirror_IsRunning(t *testing.T) {
	m := NewProgressMirror(&stubSource{}, memory.New(), DefaultMirrorConfig())
	if m.IsRunning() {
		t.Error("mirror should not be running initially")
	}
}

func TestProgressMirror_StartTwice(t *testing.T) {
	m := NewProgressMirror(&stubSource{}, memory.New(), DefaultMirrorConfig())

	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	if err := m.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running mirror")
	}
}

func TestProgressMirror_StopNotRunning(t *testing.T) {
	m := NewProgressMirror(&stubSource{}, memory.New(), DefaultMirrorConfig())
	if err := m.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestProgressMirror_StartStop(t *testing.T) {
	src := &stubSource{}
	sink := memory.New()
	m := NewProgressMirror(src, sink, MirrorConfig{RefreshInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if src.calls.Load() < 2 {
		t.Fatalf("expected an initial and a periodic refresh, got %d", src.calls.Load())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := m.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if m.IsRunning() {
		t.Error("mirror should not be running after Stop")
	}
}

func TestProgressMirror_ConcurrentStop(t *testing.T) {
	m := NewProgressMirror(&stubSource{}, memory.New(), MirrorConfig{RefreshInterval: time.Hour})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Stop(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("stop: %v", err)
		}
	}
	if m.IsRunning() {
		t.Error("mirror should not be running after Stop")
	}

	// A stopped mirror can be started again.
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
}
