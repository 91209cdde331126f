// Package postgres is the relational record store backend: one table per
// collection in a PostgreSQL database reached through a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stackit/internal/core"
	"stackit/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect opens a pool, verifies it and applies pending migrations.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(url); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the embedded migrations through golang-migrate's pgx/v5 driver.
func RunMigrations(url string) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, migrateURL(url))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a libpq URL to the scheme the pgx/v5 migrate driver registers.
func migrateURL(url string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(url, prefix) {
			return "pgx5://" + strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

// Table is a record store over one table.
type Table[T any] struct {
	pool   *pgxpool.Pool
	schema storage.Schema[T]
}

func NewTable[T any](pool *pgxpool.Pool, schema storage.Schema[T]) *Table[T] {
	return &Table[T]{pool: pool, schema: schema}
}

func (t *Table[T]) Ping(ctx context.Context) error {
	return t.pool.Ping(ctx)
}

func (t *Table[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := t.pool.Query(ctx, t.schema.SelectSQL())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := t.schema.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.schema.Table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.schema.Table, err)
	}
	return items, nil
}

func (t *Table[T]) SaveAll(ctx context.Context, items []T) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, t.schema.DeleteSQL()); err != nil {
		return fmt.Errorf("clear %s: %w", t.schema.Table, err)
	}

	insert := t.schema.InsertSQL(func(n int) string { return fmt.Sprintf("$%d", n) })
	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(insert, append([]any{i}, t.schema.Values(item)...)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %s: %w", t.schema.Table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", t.schema.Table, err)
	}

	slog.DebugContext(ctx, "Collection saved to PostgreSQL", "table", t.schema.Table, "count", len(items))
	return nil
}

func castTo(typ string) func(string) string {
	return func(p string) string { return "(" + p + "::text)::" + typ }
}

// BalanceSchema maps balances onto DATE and NUMERIC columns.
func BalanceSchema() storage.Schema[core.MonthlyBalance] {
	return storage.Schema[core.MonthlyBalance]{
		Table:   "monthly_balances",
		Columns: []string{"id", "month", "balance"},
		Select:  []string{"id", "month", "balance::text"},
		Params:  []func(string) string{nil, castTo("date"), castTo("numeric")},
		Scan: func(row storage.Scanner) (core.MonthlyBalance, error) {
			var (
				b       core.MonthlyBalance
				month   time.Time
				balance string
			)
			if err := row.Scan(&b.ID, &month, &balance); err != nil {
				return b, err
			}
			b.Month = core.MonthOf(month)
			var err error
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

// GoalSchema maps goals onto DATE and NUMERIC columns.
func GoalSchema() storage.Schema[core.Goal] {
	return storage.Schema[core.Goal]{
		Table:   "saving_goals",
		Columns: []string{"id", "label", "amount", "due_month"},
		Select:  []string{"id", "label", "amount::text", "due_month"},
		Params:  []func(string) string{nil, nil, castTo("numeric"), castTo("date")},
		Scan: func(row storage.Scanner) (core.Goal, error) {
			var (
				g      core.Goal
				amount string
				due    time.Time
			)
			if err := row.Scan(&g.ID, &g.Label, &amount, &due); err != nil {
				return g, err
			}
			g.DueMonth = core.MonthOf(due)
			var err error
			if g.Amount, err = decimal.NewFromString(amount); err != nil {
				return g, fmt.Errorf("goal %d amount: %w", g.ID, err)
			}
			return g, nil
		},
		Values: func(g core.Goal) []any {
			return []any{g.ID, g.Label, g.Amount.String(), g.DueMonth.Format(core.MonthLayout)}
		},
	}
}
