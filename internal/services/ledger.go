package services

import (
	"context"
	"fmt"

	"stackit/internal/amqp"
	"stackit/internal/core"
	applog "stackit/internal/log"
	"stackit/internal/repository"
)

// LedgerService keeps at most one balance per month.
type LedgerService struct {
	balances  *repository.Collection[core.MonthlyBalance]
	publisher Publisher
}

func NewLedgerService(balances *repository.Collection[core.MonthlyBalance], publisher Publisher) *LedgerService {
	return &LedgerService{balances: balances, publisher: publisher}
}

func (s *LedgerService) List(ctx context.Context) ([]core.MonthlyBalance, error) {
	return s.balances.List(ctx)
}

// Upsert stores b under a fresh id, replacing any balance recorded for the
// same month. The client-supplied id is ignored.
func (s *LedgerService) Upsert(ctx context.Context, b core.MonthlyBalance) (core.MonthlyBalance, error) {
	if err := b.Validate(); err != nil {
		return core.MonthlyBalance{}, fmt.Errorf("balance: %w", err)
	}
	b.ID = 0
	b.Month = core.MonthOf(b.Month.Time)

	saved, err := s.balances.UpsertByKey(ctx, b)
	if err != nil {
		return core.MonthlyBalance{}, fmt.Errorf("upsert balance %s: %w", b.Month, err)
	}
	recordWrite(ctx, s.publisher, applog.ComponentLedger, s.balances.Name(), amqp.BalanceUpserted, saved.ID)
	return saved, nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) (core.MonthlyBalance, error) {
	removed, err := s.balances.DeleteByID(ctx, id)
	if err != nil {
		return core.MonthlyBalance{}, fmt.Errorf("delete balance: %w", err)
	}
	recordWrite(ctx, s.publisher, applog.ComponentLedger, s.balances.Name(), amqp.BalanceDeleted, removed.ID)
	return removed, nil
}
