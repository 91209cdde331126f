package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stackit/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func month(y int, m time.Month) core.Month { return core.NewMonth(y, m) }

type want struct {
	id          int64
	progression string
	remaining   string
}

func check(t *testing.T, got []core.Goal, expected []want) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d goals, got %d: %+v", len(expected), len(got), got)
	}
	for i, w := range expected {
		g := got[i]
		if g.ID != w.id || !g.Progression.Equal(d(w.progression)) || !g.Remaining.Equal(d(w.remaining)) {
			t.Fatalf("goal %d: got id=%d progression=%s remaining=%s, want %+v", i, g.ID, g.Progression, g.Remaining, w)
		}
	}
}

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		balances []core.MonthlyBalance
		goals    []core.Goal
		want     []want
	}{
		{
			name:     "leftover rolls into the next goal",
			balances: []core.MonthlyBalance{{ID: 1, Month: month(2025, time.June), Balance: d("1000")}},
			goals: []core.Goal{
				{ID: 1, Amount: d("600"), DueMonth: month(2025, time.June)},
				{ID: 2, Amount: d("800"), DueMonth: month(2025, time.July)},
			},
			want: []want{{1, "100", "400"}, {2, "50", "400"}},
		},
		{
			name:     "allocation halts at the first under-funded goal",
			balances: []core.MonthlyBalance{{ID: 1, Month: month(2025, time.June), Balance: d("500")}},
			goals: []core.Goal{
				{ID: 1, Amount: d("1000"), DueMonth: month(2025, time.June)},
				{ID: 2, Amount: d("200"), DueMonth: month(2025, time.July)},
			},
			want: []want{{1, "50", "500"}},
		},
		{
			name:     "no upcoming goals",
			balances: []core.MonthlyBalance{{ID: 1, Month: month(2025, time.June), Balance: d("500")}},
			goals: []core.Goal{
				{ID: 1, Amount: d("100"), DueMonth: month(2025, time.May)},
			},
			want: []want{},
		},
		{
			name: "latest balance is the last element",
			balances: []core.MonthlyBalance{
				{ID: 4, Month: month(2025, time.May), Balance: d("10")},
				{ID: 2, Month: month(2025, time.June), Balance: d("300")},
			},
			goals: []core.Goal{
				{ID: 1, Amount: d("100"), DueMonth: month(2025, time.May)},
				{ID: 2, Amount: d("100"), DueMonth: month(2025, time.June)},
				{ID: 3, Amount: d("100"), DueMonth: month(2025, time.August)},
			},
			want: []want{{2, "100", "200"}, {3, "100", "100"}},
		},
		{
			name:     "exact coverage stays on the covered branch",
			balances: []core.MonthlyBalance{{ID: 1, Month: month(2025, time.June), Balance: d("600")}},
			goals: []core.Goal{
				{ID: 1, Amount: d("600"), DueMonth: month(2025, time.June)},
				{ID: 2, Amount: d("300"), DueMonth: month(2025, time.June)},
			},
			want: []want{{1, "100", "0"}, {2, "0", "300"}},
		},
		{
			name:     "zero amount goal with no funds is covered",
			balances: []core.MonthlyBalance{{ID: 1, Month: month(2025, time.June), Balance: d("0")}},
			goals: []core.Goal{
				{ID: 1, Amount: d("0"), DueMonth: month(2025, time.June)},
			},
			want: []want{{1, "100", "0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.balances, tt.goals)
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			check(t, got, tt.want)
		})
	}
}

func TestComputeWithoutBalances(t *testing.T) {
	_, err := Compute(nil, []core.Goal{{ID: 1, Amount: d("1"), DueMonth: month(2025, time.June)}})
	if !errors.Is(err, core.ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
}

func TestAllocateZeroAmountOnShortfall(t *testing.T) {
	_, err := Allocate(d("-50"), []core.Goal{{ID: 9, Label: "free", Amount: d("0"), DueMonth: month(2025, time.June)}})
	if !errors.Is(err, core.ErrZeroGoalAmount) {
		t.Fatalf("expected ErrZeroGoalAmount, got %v", err)
	}
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	goals := []core.Goal{{ID: 1, Amount: d("10"), DueMonth: month(2025, time.June)}}
	if _, err := Allocate(d("5"), goals); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if !goals[0].Progression.IsZero() || !goals[0].Remaining.IsZero() {
		t.Fatalf("input mutated: %+v", goals[0])
	}
}

func TestAllocateIsDeterministic(t *testing.T) {
	goals := []core.Goal{
		{ID: 1, Amount: d("333"), DueMonth: month(2025, time.June)},
		{ID: 2, Amount: d("1000"), DueMonth: month(2025, time.July)},
	}
	first, _ := Allocate(d("1000"), goals)
	second, _ := Allocate(d("1000"), goals)
	for i := range first {
		if !first[i].Progression.Equal(second[i].Progression) || !first[i].Remaining.Equal(second[i].Remaining) {
			t.Fatalf("results differ at %d", i)
		}
	}
	if !first[1].Progression.Equal(d("66.7")) {
		t.Fatalf("unexpected progression %s", first[1].Progression)
	}
}
