package memory

import (
	"context"
	"testing"
)

func TestStoreLoadEmptyAndSave(t *testing.T) {
	s := New[int]()
	items, err := s.Load(context.Background())
	if err != nil || len(items) != 0 {
		t.Fatalf("unexpected load: items=%v err=%v", items, err)
	}

	if err := s.SaveAll(context.Background(), []int{3, 1, 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	items, _ = s.Load(context.Background())
	if len(items) != 3 || items[0] != 3 || items[2] != 2 {
		t.Fatalf("order not preserved: %v", items)
	}

	items[0] = 99
	again, _ := s.Load(context.Background())
	if again[0] != 3 {
		t.Fatalf("load must return a copy, got %v", again)
	}
	if s.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", s.Saves())
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(1).Load(ctx); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
