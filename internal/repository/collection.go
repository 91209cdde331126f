// Package repository keeps an ordered collection of records on top of a
// whole-collection record store.
//
// Every write loads the full collection, applies the change in memory,
// stable-sorts by the record's key and writes the full collection back.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"stackit/internal/core"
	"stackit/internal/metrics"
	"stackit/internal/store"
)

// Record is a stored row with a server-assigned id and a month ordering key.
type Record[T any] interface {
	RecordID() int64
	SortKey() core.Month
	WithID(id int64) T
}

// WriteMode selects how concurrent read-modify-write cycles are coordinated.
type WriteMode string

const (
	// Serialized holds a per-collection lock across each write cycle.
	Serialized WriteMode = "serialized"
	// Unsynchronized performs no coordination: the last writer wins.
	Unsynchronized WriteMode = "unsynchronized"
)

func (m WriteMode) IsValid() bool {
	return m == Serialized || m == Unsynchronized
}

type Collection[T Record[T]] struct {
	name  string
	store store.Store[T]
	mu    *sync.Mutex
}

func New[T Record[T]](name string, s store.Store[T], mode WriteMode) *Collection[T] {
	c := &Collection[T]{name: name, store: s}
	if mode != Unsynchronized {
		c.mu = &sync.Mutex{}
	}
	return c
}

func (c *Collection[T]) Name() string {
	return c.name
}

// List returns the collection in persisted order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	items, err := c.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(c.name, "load").Inc()
		return nil, fmt.Errorf("load %s: %w", c.name, err)
	}
	return items, nil
}

// Insert assigns the next id, appends item and rewrites the sorted collection.
func (c *Collection[T]) Insert(ctx context.Context, item T) (T, error) {
	return c.write(ctx, "insert", func(items []T) ([]T, T, error) {
		item = item.WithID(nextID(items))
		return append(items, item), item, nil
	})
}

// UpsertByKey assigns the next id, drops every record sharing item's key,
// appends item and rewrites the sorted collection.
func (c *Collection[T]) UpsertByKey(ctx context.Context, item T) (T, error) {
	return c.write(ctx, "upsert", func(items []T) ([]T, T, error) {
		item = item.WithID(nextID(items))
		key := item.SortKey()
		items = slices.DeleteFunc(items, func(existing T) bool {
			return existing.SortKey().Compare(key) == 0
		})
		return append(items, item), item, nil
	})
}

// DeleteByID removes the record with id. It returns core.ErrNotFound and
// writes nothing when no such record exists.
func (c *Collection[T]) DeleteByID(ctx context.Context, id int64) (T, error) {
	return c.write(ctx, "delete", func(items []T) ([]T, T, error) {
		idx := slices.IndexFunc(items, func(existing T) bool { return existing.RecordID() == id })
		if idx < 0 {
			var zero T
			return nil, zero, fmt.Errorf("%s id %d: %w", c.name, id, core.ErrNotFound)
		}
		removed := items[idx]
		return slices.Delete(items, idx, idx+1), removed, nil
	})
}

func (c *Collection[T]) write(ctx context.Context, op string, apply func([]T) ([]T, T, error)) (T, error) {
	var zero T
	if c.mu != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
	}

	items, err := c.List(ctx)
	if err != nil {
		return zero, err
	}

	items, result, err := apply(items)
	if err != nil {
		return zero, err
	}

	slices.SortStableFunc(items, func(a, b T) int {
		return a.SortKey().Compare(b.SortKey())
	})

	if err := c.store.SaveAll(ctx, items); err != nil {
		metrics.StoreErrors.WithLabelValues(c.name, op).Inc()
		return zero, fmt.Errorf("save %s: %w", c.name, err)
	}
	metrics.StoreWrites.WithLabelValues(c.name, op).Inc()

	slog.DebugContext(ctx, "Collection updated",
		"collection", c.name,
		"operation", op,
		"id", result.RecordID(),
		"count", len(items))

	return result, nil
}

func nextID[T Record[T]](items []T) int64 {
	var maxID int64
	for _, item := range items {
		if id := item.RecordID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
