package memory

import (
	"context"
	"sync"
)

// Store keeps a collection in process memory. Load and SaveAll copy so
// callers never share the backing slice.
type Store[T any] struct {
	mu    sync.Mutex
	items []T
	saves int
}

func New[T any](seed ...T) *Store[T] {
	return &Store[T]{items: append([]T(nil), seed...)}
}

func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]T, 0, len(s.items)), s.items...), nil
}

func (s *Store[T]) SaveAll(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(make([]T, 0, len(items)), items...)
	s.saves++
	return nil
}

// Saves reports how many times the collection was overwritten.
func (s *Store[T]) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
