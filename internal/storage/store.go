// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, memory)
// without changing the service layer.
//
// Every record read or write is scoped to a user id. A record owned by another
// user is reported as a *models.NotFoundError, exactly like a missing one.
// Backend failures are reported as *models.StoreError.
type Store interface {
	// InsertIncome persists a new income record.
	// The record's ID and CreatedAt fields are populated by the store when empty.
	InsertIncome(ctx context.Context, income *models.IncomeRecord) error

	// GetIncome retrieves an income record by its ID.
	GetIncome(ctx context.Context, userID, id uuid.UUID) (*models.IncomeRecord, error)

	// UpdateIncome rewrites the editable fields of an income record
	// (source, amount, period, notes). Allocation fields never change.
	UpdateIncome(ctx context.Context, income *models.IncomeRecord) error

	// ListIncomes returns the user's incomes, newest period first.
	// A non-nil period restricts the result to that period.
	ListIncomes(ctx context.Context, userID uuid.UUID, period *models.Period) ([]models.IncomeRecord, error)

	// DeleteIncome removes an income record.
	DeleteIncome(ctx context.Context, userID, id uuid.UUID) error

	// InsertExpense persists a new expense record.
	InsertExpense(ctx context.Context, expense *models.ExpenseRecord) error

	// GetExpense retrieves an expense record by its ID.
	GetExpense(ctx context.Context, userID, id uuid.UUID) (*models.ExpenseRecord, error)

	// UpdateExpense rewrites the editable fields of an expense record.
	UpdateExpense(ctx context.Context, expense *models.ExpenseRecord) error

	// ListExpenses returns the user's expenses, newest date first.
	// A non-nil period restricts the result to dates inside that month.
	ListExpenses(ctx context.Context, userID uuid.UUID, period *models.Period) ([]models.ExpenseRecord, error)

	// DeleteExpense removes an expense record.
	DeleteExpense(ctx context.Context, userID, id uuid.UUID) error

	// CreateGoal persists a new savings goal.
	CreateGoal(ctx context.Context, goal *models.SavingsGoal) error

	// GetGoal retrieves a savings goal by its ID.
	GetGoal(ctx context.Context, userID, id uuid.UUID) (*models.SavingsGoal, error)

	// UpdateGoal rewrites every editable field of a goal, including SavedAmount and Archived.
	UpdateGoal(ctx context.Context, goal *models.SavingsGoal) error

	// AddGoalSaved adds delta to a goal's saved amount in a single atomic write
	// and returns the new amount. delta may be negative.
	AddGoalSaved(ctx context.Context, userID, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)

	// ListGoals returns the user's goals in creation order.
	// Archived goals are only included when includeArchived is set.
	ListGoals(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.SavingsGoal, error)

	// DeleteGoal removes a goal. Income records that referenced it keep their history.
	DeleteGoal(ctx context.Context, userID, id uuid.UUID) error

	// CreateUser inserts a new user.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil, nil when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}

// Transactor is implemented by stores that can run several writes atomically.
// fn receives a Store bound to the transaction; the transaction commits when fn
// returns nil and rolls back otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
