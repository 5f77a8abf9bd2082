package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationKind records where an income record's money went.
type AllocationKind string

const (
	// AllocationBalance means the amount went to the general balance.
	AllocationBalance AllocationKind = "balance"
	// AllocationGoal means the amount was added to a savings goal.
	AllocationGoal AllocationKind = "goal"
)

// IncomeRecord is one entry of money coming in.
// Income is only ever created through allocation; see the allocation package.
type IncomeRecord struct {
	// ID is the unique identifier of the record.
	ID uuid.UUID

	// UserID is the owner.
	UserID uuid.UUID

	// Source describes where the money came from (e.g., "Salary").
	Source string

	// Amount is always greater than zero.
	Amount decimal.Decimal

	// Period is the month this income counts towards.
	Period Period

	// Notes is an optional free-text comment.
	Notes string

	// Allocation tells whether the amount went to the balance or to a goal.
	Allocation AllocationKind

	// GoalID is set when Allocation is AllocationGoal.
	GoalID *uuid.UUID

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64
}

// Validate checks the user-entered fields of the record.
func (r IncomeRecord) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return Invalid("source", ErrEmptySource)
	}
	if len(r.Source) > 200 {
		return Invalid("source", ErrTextTooLong)
	}
	if !r.Amount.IsPositive() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if !r.Period.Valid() {
		return Invalid("period", ErrInvalidPeriod)
	}
	return nil
}

// IncomeUpdate carries the user-editable fields of an income record.
// Allocation metadata is fixed at creation and cannot be edited.
type IncomeUpdate struct {
	Source string
	Amount decimal.Decimal
	Period Period
	Notes  string
}

// Apply returns r with the editable fields replaced, validated.
func (u IncomeUpdate) Apply(r IncomeRecord) (IncomeRecord, error) {
	r.Source = strings.TrimSpace(u.Source)
	r.Amount = u.Amount
	r.Period = u.Period
	r.Notes = strings.TrimSpace(u.Notes)
	if err := r.Validate(); err != nil {
		return IncomeRecord{}, err
	}
	return r, nil
}
