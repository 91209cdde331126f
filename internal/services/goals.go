package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stackit/internal/amqp"
	"stackit/internal/core"
	applog "stackit/internal/log"
	"stackit/internal/repository"
)

// GoalService registers savings goals ordered by due month.
type GoalService struct {
	goals     *repository.Collection[core.Goal]
	publisher Publisher
}

func NewGoalService(goals *repository.Collection[core.Goal], publisher Publisher) *GoalService {
	return &GoalService{goals: goals, publisher: publisher}
}

func (s *GoalService) List(ctx context.Context) ([]core.Goal, error) {
	return s.goals.List(ctx)
}

// Create stores g under a fresh id. Derived fields are reset to zero.
func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Label = strings.TrimSpace(g.Label)
	if err := g.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("goal: %w", err)
	}
	g.ID = 0
	g.DueMonth = core.MonthOf(g.DueMonth.Time)
	g.Progression = decimal.Zero
	g.Remaining = decimal.Zero

	saved, err := s.goals.Insert(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal %q: %w", g.Label, err)
	}
	recordWrite(ctx, s.publisher, applog.ComponentGoals, s.goals.Name(), amqp.GoalCreated, saved.ID)
	return saved, nil
}

func (s *GoalService) Delete(ctx context.Context, id int64) (core.Goal, error) {
	removed, err := s.goals.DeleteByID(ctx, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("delete goal: %w", err)
	}
	recordWrite(ctx, s.publisher, applog.ComponentGoals, s.goals.Name(), amqp.GoalDeleted, removed.ID)
	return removed, nil
}
