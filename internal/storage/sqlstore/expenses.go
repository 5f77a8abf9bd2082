package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
)

const expenseColumns = `id, user_id, description, amount, category, expense_date, notes, created_at`

// InsertExpense persists a new expense record.
func (s *Store) InsertExpense(ctx context.Context, expense *models.ExpenseRecord) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = nowUnix()
	}

	_, err := s.exec(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.UserID, expense.Description, expense.Amount, string(expense.Category),
		expense.Date.String(), expense.Notes, expense.CreatedAt,
	)
	if err != nil {
		return storeErr("insert expense", err)
	}
	return nil
}

// GetExpense retrieves an expense record by ID.
func (s *Store) GetExpense(ctx context.Context, userID, id uuid.UUID) (*models.ExpenseRecord, error) {
	row := s.queryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	expense, err := scanExpense(row)
	if isNoRows(err) {
		return nil, &models.NotFoundError{Kind: "expense", ID: id.String()}
	}
	if err != nil {
		return nil, storeErr("get expense", err)
	}
	return expense, nil
}

// UpdateExpense rewrites the editable fields of an expense record.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.ExpenseRecord) error {
	return s.execOne(ctx, "update expense", "expense", expense.ID.String(),
		`UPDATE expenses SET description = ?, amount = ?, category = ?, expense_date = ?, notes = ?
		 WHERE id = ? AND user_id = ?`,
		expense.Description, expense.Amount, string(expense.Category), expense.Date.String(),
		expense.Notes, expense.ID, expense.UserID,
	)
}

// ListExpenses returns the user's expenses, newest date first.
func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID, period *models.Period) ([]models.ExpenseRecord, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ?`
	args := []any{userID}
	if period != nil {
		query += ` AND expense_date >= ? AND expense_date <= ?`
		args = append(args, period.FirstDay().String(), period.LastDay().String())
	}
	query += ` ORDER BY expense_date DESC, created_at DESC`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	var expenses []models.ExpenseRecord
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, storeErr("scan expense", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate expenses", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense record.
func (s *Store) DeleteExpense(ctx context.Context, userID, id uuid.UUID) error {
	return s.execOne(ctx, "delete expense", "expense", id.String(),
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
}

func scanExpense(row rowScanner) (*models.ExpenseRecord, error) {
	var (
		expense  models.ExpenseRecord
		category string
		date     dateColumn
	)
	err := row.Scan(&expense.ID, &expense.UserID, &expense.Description, &expense.Amount,
		&category, &date, &expense.Notes, &expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	if !date.Valid {
		return nil, fmt.Errorf("expense %s has no date", expense.ID)
	}
	expense.Category = models.Category(category)
	expense.Date = date.Date
	return &expense, nil
}
