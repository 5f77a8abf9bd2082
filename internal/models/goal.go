package models

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SavingsGoal is a target amount the user saves towards.
//
// SavedAmount only grows through income allocation. Direct user edits may set
// it to anything non-negative. A goal is finished once SavedAmount reaches a
// positive TargetAmount; archiving a finished goal is always an explicit action.
type SavingsGoal struct {
	// ID is the unique identifier of the goal.
	ID uuid.UUID

	// UserID is the owner.
	UserID uuid.UUID

	// Name is the display name (e.g., "Emergency fund").
	Name string

	// TargetAmount is the amount to reach. Nil means open-ended.
	TargetAmount *decimal.Decimal

	// SavedAmount is how much has been put aside so far.
	SavedAmount decimal.Decimal

	// Deadline is an optional date to reach the target by.
	Deadline *civil.Date

	// Notes is an optional free-text comment.
	Notes string

	// Archived goals are hidden from the active set and cannot receive money.
	Archived bool

	// CreatedAt is the Unix timestamp when the goal was created.
	CreatedAt int64
}

// Finished reports whether the goal reached a positive target.
func (g SavingsGoal) Finished() bool {
	if g.TargetAmount == nil || !g.TargetAmount.IsPositive() {
		return false
	}
	return g.SavedAmount.GreaterThanOrEqual(*g.TargetAmount)
}

// Fillable reports whether the goal may receive an allocation.
// Open-ended goals stay fillable until archived.
func (g SavingsGoal) Fillable() bool {
	if g.Archived {
		return false
	}
	if g.TargetAmount == nil {
		return true
	}
	return g.SavedAmount.LessThan(*g.TargetAmount)
}

// Remaining returns how much is left to reach the target, or zero when there is none.
func (g SavingsGoal) Remaining() decimal.Decimal {
	if g.TargetAmount == nil {
		return decimal.Zero
	}
	rem := g.TargetAmount.Sub(g.SavedAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Validate checks the user-entered fields of the goal.
func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if len(g.Name) > 200 {
		return Invalid("name", ErrTextTooLong)
	}
	if g.TargetAmount != nil && !g.TargetAmount.IsPositive() {
		return Invalid("target_amount", ErrInvalidAmount)
	}
	if g.SavedAmount.IsNegative() {
		return Invalid("saved_amount", ErrNegativeAmount)
	}
	if g.Deadline != nil && !g.Deadline.IsValid() {
		return Invalid("deadline", ErrInvalidDate)
	}
	return nil
}
