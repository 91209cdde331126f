package storage

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stackit/internal/core"
)

// Scanner is satisfied by *sql.Row(s) and pgx.Row(s).
type Scanner interface {
	Scan(dest ...any) error
}

// Schema describes how one record kind maps onto a table. Every table also
// carries a position column holding the record's index in the collection.
type Schema[T any] struct {
	Table string
	// Columns are the insert column names, in Values order.
	Columns []string
	// Select are the select expressions, in Scan order.
	Select []string
	// Params wraps the n-th placeholder, e.g. to add a cast. Nil keeps it as is.
	Params []func(string) string
	Scan   func(Scanner) (T, error)
	Values func(T) []any
}

// SelectSQL returns the ordered load query.
func (s Schema[T]) SelectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY position", strings.Join(s.Select, ", "), s.Table)
}

// InsertSQL returns the insert statement; placeholder renders the n-th (1-based) parameter.
func (s Schema[T]) InsertSQL(placeholder func(n int) string) string {
	params := make([]string, 0, len(s.Columns)+1)
	params = append(params, placeholder(1))
	for i := range s.Columns {
		p := placeholder(i + 2)
		if i < len(s.Params) && s.Params[i] != nil {
			p = s.Params[i](p)
		}
		params = append(params, p)
	}
	return fmt.Sprintf("INSERT INTO %s (position, %s) VALUES (%s)",
		s.Table, strings.Join(s.Columns, ", "), strings.Join(params, ", "))
}

// DeleteSQL clears the table.
func (s Schema[T]) DeleteSQL() string {
	return "DELETE FROM " + s.Table
}

// BalanceSchema stores months and amounts as text, the SQLite layout.
func BalanceSchema() Schema[core.MonthlyBalance] {
	cols := []string{"id", "month", "balance"}
	return Schema[core.MonthlyBalance]{
		Table:   "monthly_balances",
		Columns: cols,
		Select:  cols,
		Scan: func(row Scanner) (core.MonthlyBalance, error) {
			var (
				b              core.MonthlyBalance
				month, balance string
			)
			if err := row.Scan(&b.ID, &month, &balance); err != nil {
				return b, err
			}
			var err error
			if b.Month, err = core.ParseMonth(month); err != nil {
				return b, fmt.Errorf("balance %d month: %w", b.ID, err)
			}
			if b.Balance, err = decimal.NewFromString(balance); err != nil {
				return b, fmt.Errorf("balance %d amount: %w", b.ID, err)
			}
			return b, nil
		},
		Values: func(b core.MonthlyBalance) []any {
			return []any{b.ID, b.Month.Format(core.MonthLayout), b.Balance.String()}
		},
	}
}

// GoalSchema stores months and amounts as text, the SQLite layout.
// Progression and remaining are derived and never stored.
func GoalSchema() Schema[core.Goal] {
	cols := []string{"id", "label", "amount", "due_month"}
	return Schema[core.Goal]{
		Table:   "saving_goals",
		Columns: cols,
		Select:  cols,
		Scan: func(row Scanner) (core.Goal, error) {
			var (
				g               core.Goal
				amount, dueDate string
			)
			if err := row.Scan(&g.ID, &g.Label, &amount, &dueDate); err != nil {
				return g, err
			}
			var err error
			if g.Amount, err = decimal.NewFromString(amount); err != nil {
				return g, fmt.Errorf("goal %d amount: %w", g.ID, err)
			}
			if g.DueMonth, err = core.ParseMonth(dueDate); err != nil {
				return g, fmt.Errorf("goal %d due month: %w", g.ID, err)
			}
			return g, nil
		},
		Values: func(g core.Goal) []any {
			return []any{g.ID, g.Label, g.Amount.String(), g.DueMonth.Format(core.MonthLayout)}
		},
	}
}
