package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteDB owns the database handle shared by the per-collection tables.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens dbPath, creating its directory, and migrates the schema
// on the same handle.
func OpenSQLite(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db, path: dbPath}, nil
}

func (d *SQLiteDB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func (d *SQLiteDB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// SQLiteTable is a record store over one table.
type SQLiteTable[T any] struct {
	db     *sql.DB
	schema Schema[T]
}

func NewSQLiteTable[T any](d *SQLiteDB, schema Schema[T]) *SQLiteTable[T] {
	return &SQLiteTable[T]{db: d.db, schema: schema}
}

func (t *SQLiteTable[T]) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func (t *SQLiteTable[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, t.schema.SelectSQL())
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

func (t *SQLiteTable[T]) SaveAll(ctx context.Context, items []T) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, t.schema.DeleteSQL()); err != nil {
		return fmt.Errorf("clear %s: %w", t.schema.Table, err)
	}

	stmt, err := tx.PrepareContext(ctx, t.schema.InsertSQL(func(int) string { return "?" }))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", t.schema.Table, err)
	}
	defer stmt.Close()

	for i, item := range items {
		args := append([]any{i}, t.schema.Values(item)...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.schema.Table, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", t.schema.Table, err)
	}

	slog.DebugContext(ctx, "Collection saved to SQLite", "table", t.schema.Table, "count", len(items))
	return nil
}
