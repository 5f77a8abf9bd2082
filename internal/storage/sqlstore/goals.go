package sqlstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

const goalColumns = `id, user_id, name, target_amount, saved_amount, deadline, notes, archived, created_at`

// CreateGoal persists a new savings goal.
func (s *Store) CreateGoal(ctx context.Context, goal *models.SavingsGoal) error {
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	if goal.CreatedAt == 0 {
		goal.CreatedAt = nowUnix()
	}

	_, err := s.exec(ctx,
		`INSERT INTO savings_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.UserID, goal.Name, nullDecimal(goal.TargetAmount), goal.SavedAmount,
		nullDate(goal.Deadline), goal.Notes, goal.Archived, goal.CreatedAt,
	)
	if err != nil {
		return storeErr("insert goal", err)
	}
	return nil
}

// GetGoal retrieves a savings goal by ID.
func (s *Store) GetGoal(ctx context.Context, userID, id uuid.UUID) (*models.SavingsGoal, error) {
	row := s.queryRow(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	goal, err := scanGoal(row)
	if isNoRows(err) {
		return nil, &models.NotFoundError{Kind: "goal", ID: id.String()}
	}
	if err != nil {
		return nil, storeErr("get goal", err)
	}
	return goal, nil
}

// UpdateGoal rewrites every editable field of a goal.
func (s *Store) UpdateGoal(ctx context.Context, goal *models.SavingsGoal) error {
	return s.execOne(ctx, "update goal", "goal", goal.ID.String(),
		`UPDATE savings_goals
		 SET name = ?, target_amount = ?, saved_amount = ?, deadline = ?, notes = ?, archived = ?
		 WHERE id = ? AND user_id = ?`,
		goal.Name, nullDecimal(goal.TargetAmount), goal.SavedAmount, nullDate(goal.Deadline),
		goal.Notes, goal.Archived, goal.ID, goal.UserID,
	)
}

// AddGoalSaved adds delta to a goal's saved amount and returns the new amount.
func (s *Store) AddGoalSaved(ctx context.Context, userID, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	if s.dialect == Postgres {
		var saved decimal.Decimal
		err := s.queryRow(ctx, addGoalSavedQuery, delta, id, userID).Scan(&saved)
		if isNoRows(err) {
			return decimal.Zero, &models.NotFoundError{Kind: "goal", ID: id.String()}
		}
		if err != nil {
			return decimal.Zero, storeErr("add to goal saved amount", err)
		}
		return saved, nil
	}

	// SQLite keeps amounts as TEXT, so the sum is computed here. The
	// transaction holds the only connection, which serializes the read and write.
	var saved decimal.Decimal
	err := s.withTx(ctx, func(tx *Store) error {
		var current decimal.Decimal
		err := tx.queryRow(ctx,
			`SELECT saved_amount FROM savings_goals WHERE id = ? AND user_id = ?`,
			id, userID,
		).Scan(&current)
		if isNoRows(err) {
			return &models.NotFoundError{Kind: "goal", ID: id.String()}
		}
		if err != nil {
			return storeErr("get goal saved amount", err)
		}
		saved = current.Add(delta)
		return tx.execOne(ctx, "add to goal saved amount", "goal", id.String(),
			`UPDATE savings_goals SET saved_amount = ? WHERE id = ? AND user_id = ?`,
			saved, id, userID,
		)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return saved, nil
}

// addGoalSavedQuery increments in the database so concurrent credits cannot overwrite each other.
const addGoalSavedQuery = `UPDATE savings_goals SET saved_amount = saved_amount + ?
	WHERE id = ? AND user_id = ? RETURNING saved_amount`

// ListGoals returns the user's goals in creation order.
func (s *Store) ListGoals(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE user_id = ?`
	if !includeArchived {
		query += ` AND NOT archived`
	}
	query += ` ORDER BY created_at, name`

	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, storeErr("list goals", err)
	}
	defer rows.Close()

	var goals []models.SavingsGoal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, storeErr("scan goal", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate goals", err)
	}
	return goals, nil
}

// DeleteGoal removes a goal. Incomes that referenced it keep their amount with goal_id cleared.
func (s *Store) DeleteGoal(ctx context.Context, userID, id uuid.UUID) error {
	return s.execOne(ctx, "delete goal", "goal", id.String(),
		`DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
}

func scanGoal(row rowScanner) (*models.SavingsGoal, error) {
	var (
		goal     models.SavingsGoal
		target   decimal.NullDecimal
		deadline dateColumn
	)
	err := row.Scan(&goal.ID, &goal.UserID, &goal.Name, &target, &goal.SavedAmount,
		&deadline, &goal.Notes, &goal.Archived, &goal.CreatedAt)
	if err != nil {
		return nil, err
	}
	if target.Valid {
		goal.TargetAmount = &target.Decimal
	}
	if deadline.Valid {
		goal.Deadline = &deadline.Date
	}
	return &goal, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
