package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// MonthlyBalance is the account balance recorded for one calendar month.
	MonthlyBalance struct {
		ID      int64           `json:"id"`
		Month   Month           `json:"month"`
		Balance decimal.Decimal `json:"balance"`
	}

	// Goal is a savings target due by a given month. Progression and
	// Remaining are derived by the allocator and are not meaningful at rest.
	Goal struct {
		ID          int64           `json:"id"`
		Label       string          `json:"label"`
		Amount      decimal.Decimal `json:"amount"`
		DueMonth    Month           `json:"dueMonth"`
		Progression decimal.Decimal `json:"progression"`
		Remaining   decimal.Decimal `json:"remaining"`
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNoDataAvailable = errors.New("no balance data available")
	ErrMalformedInput  = errors.New("malformed input")
	ErrZeroGoalAmount  = errors.New("goal amount is zero")
)

const maxLabelLength = 200

// RecordID and SortKey let balances live in an ordered repository keyed by month.
func (b MonthlyBalance) RecordID() int64 { return b.ID }
func (b MonthlyBalance) SortKey() Month { return b.Month }
func (b MonthlyBalance) WithID(id int64) MonthlyBalance {
	b.ID = id
	return b
}

func (b MonthlyBalance) Validate() error {
	return b.Month.Validate()
}

func (g Goal) RecordID() int64 { return g.ID }
func (g Goal) SortKey() Month { return g.DueMonth }
func (g Goal) WithID(id int64) Goal {
	g.ID = id
	return g
}

func (g Goal) Validate() error {
	if err := g.DueMonth.Validate(); err != nil {
		return fmt.Errorf("due month: %w", err)
	}
	// A positive amount is expected but not enforced; the allocator handles zero.
	if len(strings.TrimSpace(g.Label)) > maxLabelLength {
		return fmt.Errorf("%w: label too long (max %d characters)", ErrMalformedInput, maxLabelLength)
	}
	return nil
}
