package backend

import (
	"context"

	"stackit/internal/amqp"
	"stackit/internal/core"
	"stackit/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the record stores for both collections plus the
// optional event publisher.
type BackendResult struct {
	Balances store.Store[core.MonthlyBalance]
	Goals    store.Store[core.Goal]

	// Events is nil when no broker is configured or reachable.
	Events *amqp.Client

	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// json
	DataDir string

	// sqlite
	SQLiteDBPath string

	// postgres
	DatabaseURL string

	// Change events (optional for every backend)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	JSONBackend     BackendType = "json"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONBackend, SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
