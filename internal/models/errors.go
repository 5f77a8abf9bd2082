package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrSplitExceedsIncome = errors.New("split exceeds income")
	ErrGoalNotFillable    = errors.New("goal is archived or has already reached its target")
	ErrGoalNotFinished    = errors.New("only finished goals can be archived")
	ErrInvalidPeriod      = errors.New("period must be formatted as YYYY-MM")
	ErrInvalidCategory    = errors.New("unknown expense category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptySource        = errors.New("income source is required")
	ErrEmptyDescription   = errors.New("description is required")
	ErrEmptyName          = errors.New("name is required")
	ErrTextTooLong        = errors.New("text too long (max 200 characters)")
)

// ValidationError reports caller-supplied data that violates an invariant.
// It is always raised before any write happens.
type ValidationError struct {
	Field string
	Err   error
}

// Invalid wraps err as a ValidationError on field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports a record that does not exist or belongs to another user.
// The two cases are deliberately indistinguishable to the caller.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// StoreError reports a failure of the underlying data store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
