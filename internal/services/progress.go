package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"stackit/internal/core"
	"stackit/internal/metrics"
	"stackit/internal/progress"
	"stackit/internal/repository"
)

// ProgressService computes goal progress from the stored collections.
// Nothing is cached: every call reloads both collections.
type ProgressService struct {
	balances *repository.Collection[core.MonthlyBalance]
	goals    *repository.Collection[core.Goal]
}

func NewProgressService(balances *repository.Collection[core.MonthlyBalance], goals *repository.Collection[core.Goal]) *ProgressService {
	return &ProgressService{balances: balances, goals: goals}
}

// Compute allocates the latest balance across upcoming goals. It returns
// core.ErrNoDataAvailable when no balance has been recorded.
func (s *ProgressService) Compute(ctx context.Context) ([]core.Goal, error) {
	var (
		balances []core.MonthlyBalance
		goals    []core.Goal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balances, err = s.balances.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.goals.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.Allocations.WithLabelValues("error").Inc()
		return nil, err
	}

	result, err := progress.Compute(balances, goals)
	switch {
	case errors.Is(err, core.ErrNoDataAvailable):
		metrics.Allocations.WithLabelValues("no_data").Inc()
		return nil, err
	case err != nil:
		metrics.Allocations.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Goal progress allocation failed", "error", err)
		return nil, err
	}

	metrics.Allocations.WithLabelValues("ok").Inc()
	metrics.AllocatedGoals.Observe(float64(len(result)))
	return result, nil
}
