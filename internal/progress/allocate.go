// Package progress computes how far a single pooled balance goes toward a
// sequence of savings goals.
//
// Goals are funded greedily in due-month order: the earliest goal takes what
// it needs from the balance, the remainder rolls over to the next goal, and
// allocation stops at the first goal the remainder cannot fully cover.
package progress

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stackit/internal/core"
)

// Upcoming returns the goals due in or after month, preserving order.
func Upcoming(goals []core.Goal, month core.Month) []core.Goal {
	out := make([]core.Goal, 0, len(goals))
	for _, g := range goals {
		if g.DueMonth.Compare(month) >= 0 {
			out = append(out, g)
		}
	}
	return out
}

// Allocate distributes funds across goals in the given order and returns
// the goals processed up to and including the first under-funded one, each
// with Progression (percent) and Remaining set. The input slice is not
// modified.
//
// A fully covered goal gets Progression 100 and Remaining equal to the
// leftover funds. An under-funded goal gets Remaining equal to the shortfall
// and Progression 100 - shortfall*100/amount.
func Allocate(funds decimal.Decimal, goals []core.Goal) ([]core.Goal, error) {
	out := make([]core.Goal, 0, len(goals))
	available := funds
	for _, g := range goals {
		difference := available.Sub(g.Amount)
		g.Remaining = difference.Abs()

		if difference.IsNegative() {
			if g.Amount.IsZero() {
				return nil, fmt.Errorf("goal %d %q: %w", g.ID, g.Label, core.ErrZeroGoalAmount)
			}
			g.Progression = core.Hundred.Sub(g.Remaining.Mul(core.Hundred).Div(g.Amount))
			out = append(out, g)
			break
		}

		g.Progression = core.Hundred
		available = difference
		out = append(out, g)
	}
	return out, nil
}

// Compute picks the latest balance (the last element of the month-ordered
// balances), keeps the goals not yet past due and allocates the balance
// across them. It returns core.ErrNoDataAvailable when there is no balance.
func Compute(balances []core.MonthlyBalance, goals []core.Goal) ([]core.Goal, error) {
	if len(balances) == 0 {
		return nil, core.ErrNoDataAvailable
	}
	current := balances[len(balances)-1]
	return Allocate(current.Balance, Upcoming(goals, current.Month))
}
