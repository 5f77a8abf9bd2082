package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// PartialAllocationError reports a saga that failed after some legs were written.
type PartialAllocationError struct {
	// Committed lists the steps that had succeeded, in order.
	Committed []string

	// Failed is the step that failed.
	Failed string

	// Err is the failure of that step.
	Err error

	// CompensationErr is non-nil when undoing a committed step also failed,
	// leaving the ledger inconsistent.
	CompensationErr error
}

func (e *PartialAllocationError) Error() string {
	msg := fmt.Sprintf("allocation failed at %q after %d committed step(s): %v", e.Failed, len(e.Committed), e.Err)
	if e.CompensationErr != nil {
		return msg + fmt.Sprintf("; compensation failed: %v", e.CompensationErr)
	}
	return msg + "; committed steps were undone"
}

func (e *PartialAllocationError) Unwrap() error { return e.Err }

// Compensated reports whether every committed step was undone.
func (e *PartialAllocationError) Compensated() bool { return e.CompensationErr == nil }

func isPartial(err error, target **PartialAllocationError) bool {
	return errors.As(err, target)
}

// step is a committed write and the action that undoes it.
type step struct {
	desc string
	undo func(ctx context.Context) error
}

type saga struct {
	store  storage.Store
	userID uuid.UUID
	done   []step
	failed string
}

// run writes every income leg, then credits the goal.
func (s *saga) run(ctx context.Context, template models.IncomeRecord, plan calculator.AllocationPlan, res *Result) error {
	for _, leg := range plan.Legs {
		income := template
		income.Amount = leg.Amount
		income.Allocation = leg.Allocation
		income.GoalID = leg.GoalID

		desc := describeLeg(leg)
		if err := s.store.InsertIncome(ctx, &income); err != nil {
			s.failed = desc
			return err
		}
		id := income.ID
		s.done = append(s.done, step{
			desc: desc,
			undo: func(ctx context.Context) error { return s.store.DeleteIncome(ctx, s.userID, id) },
		})
		res.Incomes = append(res.Incomes, income)
	}

	if plan.Goal == nil {
		return nil
	}

	goal := *plan.Goal
	increment := plan.GoalIncrement
	desc := fmt.Sprintf("credit goal %s with %s", goal.ID, increment)
	saved, err := s.store.AddGoalSaved(ctx, s.userID, goal.ID, increment)
	if err != nil {
		s.failed = desc
		return err
	}
	s.done = append(s.done, step{
		desc: desc,
		undo: func(ctx context.Context) error { return s.debitGoal(ctx, goal.ID, increment) },
	})
	goal.SavedAmount = saved
	res.Goal = &goal
	return nil
}

// debitGoal reverses a credit. Credits that landed since are kept.
func (s *saga) debitGoal(ctx context.Context, goalID uuid.UUID, amount decimal.Decimal) error {
	_, err := s.store.AddGoalSaved(ctx, s.userID, goalID, amount.Neg())
	return err
}

// compensate undoes committed steps in reverse order.
// Validation and not-found errors from the first step are returned as is,
// since nothing was written.
func (s *saga) compensate(ctx context.Context, cause error) error {
	if len(s.done) == 0 {
		return cause
	}

	// Compensation must run even if the request was cancelled.
	ctx = context.WithoutCancel(ctx)

	var undoErrs []error
	committed := make([]string, 0, len(s.done))
	for _, st := range s.done {
		committed = append(committed, st.desc)
	}
	for i := len(s.done) - 1; i >= 0; i-- {
		if err := s.done[i].undo(ctx); err != nil {
			undoErrs = append(undoErrs, fmt.Errorf("undo %s: %w", s.done[i].desc, err))
		}
	}

	perr := &PartialAllocationError{
		Committed:       committed,
		Failed:          s.failed,
		Err:             cause,
		CompensationErr: errors.Join(undoErrs...),
	}
	if perr.CompensationErr != nil {
		slog.ErrorContext(ctx, "Allocation compensation failed",
			"user_id", s.userID,
			"committed", strings.Join(committed, "; "),
			"error", perr.CompensationErr,
		)
	}
	return perr
}
