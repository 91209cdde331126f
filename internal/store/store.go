// Package store defines the record store contract: whole-collection load and
// whole-collection overwrite of an ordered list of records of one kind.
package store

import "context"

type (
	// Loader returns the persisted collection in persisted order. A missing
	// collection loads as an empty slice.
	Loader[T any] interface {
		Load(ctx context.Context) ([]T, error)
	}

	// Saver replaces the persisted collection with items.
	Saver[T any] interface {
		SaveAll(ctx context.Context, items []T) error
	}

	Store[T any] interface {
		Loader[T]
		Saver[T]
	}

	// Pinger is implemented by stores backed by an external resource.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Collection names shared by every backend.
const (
	Balances = "MonthlyBalances"
	Goals    = "SavingGoals"
)
