package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"stackit/internal/amqp"
	"stackit/internal/core"
	"stackit/internal/storage"
	"stackit/internal/storage/postgres"
	"stackit/internal/store"
	"stackit/internal/store/jsonfile"
	"stackit/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case JSONBackend:
		res, err = f.createJSONBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(ctx, config)
	case PostgresBackend:
		res, err = f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachEvents(res, config)
	return res, nil
}

func (f *DefaultFactory) createJSONBackend(config Config) (*BackendResult, error) {
	balances, err := jsonfile.New[core.MonthlyBalance](config.DataDir, store.Balances)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize balance file store: %w", err)
	}
	goals, err := jsonfile.New[core.Goal](config.DataDir, store.Goals)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize goal file store: %w", err)
	}

	f.logger.Info("Initialized JSON file backend", "data_dir", config.DataDir)

	dir := config.DataDir
	return &BackendResult{
		Balances: balances,
		Goals:    goals,
		Ready: func(context.Context) error {
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("data directory: %w", err)
			}
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	db, err := storage.OpenSQLite(ctx, config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Balances: storage.NewSQLiteTable(db, storage.BalanceSchema()),
		Goals:    storage.NewSQLiteTable(db, storage.GoalSchema()),
		Ready:    db.Ping,
		Cleanup:  db.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	pool, err := postgres.Connect(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Balances: postgres.NewTable(pool, postgres.BalanceSchema()),
		Goals:    postgres.NewTable(pool, postgres.GoalSchema()),
		Ready:    pool.Ping,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Balances: memory.New[core.MonthlyBalance](),
		Goals:    memory.New[core.Goal](),
		Ready:    func(context.Context) error { return nil },
	}, nil
}

// attachEvents connects the change event publisher when a broker is
// configured. A broker that cannot be reached is logged and skipped.
func (f *DefaultFactory) attachEvents(res *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Events = client
	storeCleanup := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			}
		}
		return errors.Join(errs...)
	}
}
