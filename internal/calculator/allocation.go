package calculator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

// ChoiceKind selects how a new income amount is distributed.
type ChoiceKind string

const (
	// ChoiceBalance sends the whole amount to the general balance.
	ChoiceBalance ChoiceKind = "balance"
	// ChoiceGoal sends the whole amount to one savings goal.
	ChoiceGoal ChoiceKind = "goal"
	// ChoiceSplit divides the amount between one goal and the balance.
	ChoiceSplit ChoiceKind = "split"
)

// AllocationChoice is the user's decision for one income amount.
type AllocationChoice struct {
	Kind ChoiceKind

	// GoalID is required for ChoiceGoal and ChoiceSplit.
	GoalID uuid.UUID

	// GoalAmount and BalanceAmount are only read for ChoiceSplit.
	GoalAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
}

// AllocationLeg is one income record an allocation will write.
type AllocationLeg struct {
	Allocation models.AllocationKind
	Amount     decimal.Decimal
	GoalID     *uuid.UUID
}

// AllocationPlan is the validated outcome of an allocation, ready to execute.
type AllocationPlan struct {
	Income decimal.Decimal

	// Legs are the income records to write, balance leg first.
	Legs []AllocationLeg

	// Goal is a copy of the goal to credit, nil when no goal is credited.
	Goal *models.SavingsGoal

	// GoalIncrement is added to Goal.SavedAmount.
	GoalIncrement decimal.Decimal

	// Unallocated is the part of Income a split leaves unassigned.
	// It is reported but never recorded.
	Unallocated decimal.Decimal
}

// Allocated returns the sum of all legs.
func (p AllocationPlan) Allocated() decimal.Decimal {
	total := decimal.Zero
	for _, leg := range p.Legs {
		total = total.Add(leg.Amount)
	}
	return total
}

// Empty reports whether the plan writes nothing.
func (p AllocationPlan) Empty() bool {
	return len(p.Legs) == 0 && p.Goal == nil
}

// PlanAllocation validates an allocation against the user's goals and returns
// the writes it implies. It performs no I/O; goals is a snapshot owned by the caller.
//
// Rules:
//   - income must be positive
//   - a referenced goal must exist in goals and be fillable
//   - split legs must be non-negative and sum to at most income
//   - zero-amount split legs are dropped
func PlanAllocation(income decimal.Decimal, choice AllocationChoice, goals []models.SavingsGoal) (AllocationPlan, error) {
	if !income.IsPositive() {
		return AllocationPlan{}, models.Invalid("amount", models.ErrInvalidAmount)
	}

	plan := AllocationPlan{Income: income, Unallocated: decimal.Zero, GoalIncrement: decimal.Zero}

	switch choice.Kind {
	case ChoiceBalance:
		plan.Legs = []AllocationLeg{{Allocation: models.AllocationBalance, Amount: income}}
		return plan, nil

	case ChoiceGoal:
		goal, err := fillableGoal(choice.GoalID, goals)
		if err != nil {
			return AllocationPlan{}, err
		}
		plan.Legs = []AllocationLeg{{Allocation: models.AllocationGoal, Amount: income, GoalID: &goal.ID}}
		plan.Goal = goal
		plan.GoalIncrement = income
		return plan, nil

	case ChoiceSplit:
		if choice.GoalAmount.IsNegative() {
			return AllocationPlan{}, models.Invalid("goal_amount", models.ErrNegativeAmount)
		}
		if choice.BalanceAmount.IsNegative() {
			return AllocationPlan{}, models.Invalid("balance_amount", models.ErrNegativeAmount)
		}
		allocated := choice.GoalAmount.Add(choice.BalanceAmount)
		if allocated.GreaterThan(income) {
			return AllocationPlan{}, models.Invalid("split", fmt.Errorf("%w: %s + %s > %s",
				models.ErrSplitExceedsIncome, choice.GoalAmount, choice.BalanceAmount, income))
		}
		goal, err := fillableGoal(choice.GoalID, goals)
		if err != nil {
			return AllocationPlan{}, err
		}

		if choice.BalanceAmount.IsPositive() {
			plan.Legs = append(plan.Legs, AllocationLeg{Allocation: models.AllocationBalance, Amount: choice.BalanceAmount})
		}
		if choice.GoalAmount.IsPositive() {
			plan.Legs = append(plan.Legs, AllocationLeg{Allocation: models.AllocationGoal, Amount: choice.GoalAmount, GoalID: &goal.ID})
			plan.Goal = goal
			plan.GoalIncrement = choice.GoalAmount
		}
		plan.Unallocated = income.Sub(allocated)
		return plan, nil

	default:
		return AllocationPlan{}, models.Invalid("choice", fmt.Errorf("unknown allocation choice %q", choice.Kind))
	}
}

// fillableGoal finds id in goals and checks it can receive money.
func fillableGoal(id uuid.UUID, goals []models.SavingsGoal) (*models.SavingsGoal, error) {
	if id == uuid.Nil {
		return nil, models.Invalid("goal_id", fmt.Errorf("goal id is required"))
	}
	for i := range goals {
		if goals[i].ID != id {
			continue
		}
		if !goals[i].Fillable() {
			return nil, models.Invalid("goal_id", fmt.Errorf("%w: %s", models.ErrGoalNotFillable, id))
		}
		goal := goals[i]
		return &goal, nil
	}
	return nil, &models.NotFoundError{Kind: "goal", ID: id.String()}
}

// FillableGoals filters goals down to valid allocation targets, preserving order.
func FillableGoals(goals []models.SavingsGoal) []models.SavingsGoal {
	out := make([]models.SavingsGoal, 0, len(goals))
	for _, g := range goals {
		if g.Fillable() {
			out = append(out, g)
		}
	}
	return out
}
