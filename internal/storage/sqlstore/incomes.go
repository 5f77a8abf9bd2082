package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
)

const incomeColumns = `id, user_id, source, amount, period, notes, allocation, goal_id, created_at`

// InsertIncome persists a new income record.
func (s *Store) InsertIncome(ctx context.Context, income *models.IncomeRecord) error {
	// Generate ID if not set
	if income.ID == uuid.Nil {
		income.ID = uuid.New()
	}
	if income.CreatedAt == 0 {
		income.CreatedAt = nowUnix()
	}

	var goalID uuid.NullUUID
	if income.GoalID != nil {
		goalID = uuid.NullUUID{UUID: *income.GoalID, Valid: true}
	}

	_, err := s.exec(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		income.ID, income.UserID, income.Source, income.Amount, income.Period.String(),
		income.Notes, string(income.Allocation), goalID, income.CreatedAt,
	)
	if err != nil {
		return storeErr("insert income", err)
	}
	return nil
}

// GetIncome retrieves an income record by ID.
func (s *Store) GetIncome(ctx context.Context, userID, id uuid.UUID) (*models.IncomeRecord, error) {
	row := s.queryRow(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	income, err := scanIncome(row)
	if isNoRows(err) {
		return nil, &models.NotFoundError{Kind: "income", ID: id.String()}
	}
	if err != nil {
		return nil, storeErr("get income", err)
	}
	return income, nil
}

// UpdateIncome rewrites the editable fields of an income record.
func (s *Store) UpdateIncome(ctx context.Context, income *models.IncomeRecord) error {
	return s.execOne(ctx, "update income", "income", income.ID.String(),
		`UPDATE incomes SET source = ?, amount = ?, period = ?, notes = ? WHERE id = ? AND user_id = ?`,
		income.Source, income.Amount, income.Period.String(), income.Notes, income.ID, income.UserID,
	)
}

// ListIncomes returns the user's incomes, newest period first.
func (s *Store) ListIncomes(ctx context.Context, userID uuid.UUID, period *models.Period) ([]models.IncomeRecord, error) {
	query := `SELECT ` + incomeColumns + ` FROM incomes WHERE user_id = ?`
	args := []any{userID}
	if period != nil {
		query += ` AND period = ?`
		args = append(args, period.String())
	}
	query += ` ORDER BY period DESC, created_at DESC`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list incomes", err)
	}
	defer rows.Close()

	var incomes []models.IncomeRecord
	for rows.Next() {
		income, err := scanIncome(rows)
		if err != nil {
			return nil, storeErr("scan income", err)
		}
		incomes = append(incomes, *income)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate incomes", err)
	}
	return incomes, nil
}

// DeleteIncome removes an income record.
func (s *Store) DeleteIncome(ctx context.Context, userID, id uuid.UUID) error {
	return s.execOne(ctx, "delete income", "income", id.String(),
		`DELETE FROM incomes WHERE id = ? AND user_id = ?`, id, userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(row rowScanner) (*models.IncomeRecord, error) {
	var (
		income     models.IncomeRecord
		period     string
		allocation string
		goalID     uuid.NullUUID
	)
	err := row.Scan(&income.ID, &income.UserID, &income.Source, &income.Amount, &period,
		&income.Notes, &allocation, &goalID, &income.CreatedAt)
	if err != nil {
		return nil, err
	}

	p, err := models.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	income.Period = p
	income.Allocation = models.AllocationKind(allocation)
	if goalID.Valid {
		income.GoalID = &goalID.UUID
	}
	return &income, nil
}
