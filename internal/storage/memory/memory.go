// Package memory provides an in-memory implementation of the storage.Store
// interface. Data is lost when the process exits.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

var _ storage.Store = (*Store)(nil)

var errDuplicateEmail = errors.New("email already registered")

type entry[T any] struct {
	seq uint64
	val T
}

// Store keeps every record in maps guarded by a single RWMutex.
// Records are copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu  sync.RWMutex
	seq uint64

	incomes  map[uuid.UUID]entry[models.IncomeRecord]
	expenses map[uuid.UUID]entry[models.ExpenseRecord]
	goals    map[uuid.UUID]entry[models.SavingsGoal]
	users    map[uuid.UUID]models.User
}

// New creates an empty store.
func New() *Store {
	return &Store{
		incomes:  make(map[uuid.UUID]entry[models.IncomeRecord]),
		expenses: make(map[uuid.UUID]entry[models.ExpenseRecord]),
		goals:    make(map[uuid.UUID]entry[models.SavingsGoal]),
		users:    make(map[uuid.UUID]models.User),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

// Income operations

func (s *Store) InsertIncome(_ context.Context, income *models.IncomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if income.ID == uuid.Nil {
		income.ID = uuid.New()
	}
	if income.CreatedAt == 0 {
		income.CreatedAt = time.Now().Unix()
	}
	s.incomes[income.ID] = entry[models.IncomeRecord]{seq: s.next(), val: cloneIncome(*income)}
	return nil
}

func (s *Store) GetIncome(_ context.Context, userID, id uuid.UUID) (*models.IncomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.incomes[id]
	if !ok || e.val.UserID != userID {
		return nil, &models.NotFoundError{Kind: "income", ID: id.String()}
	}
	income := cloneIncome(e.val)
	return &income, nil
}

func (s *Store) UpdateIncome(_ context.Context, income *models.IncomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.incomes[income.ID]
	if !ok || e.val.UserID != income.UserID {
		return &models.NotFoundError{Kind: "income", ID: income.ID.String()}
	}
	e.val.Source = income.Source
	e.val.Amount = income.Amount
	e.val.Period = income.Period
	e.val.Notes = income.Notes
	s.incomes[income.ID] = e
	return nil
}

func (s *Store) ListIncomes(_ context.Context, userID uuid.UUID, period *models.Period) ([]models.IncomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []entry[models.IncomeRecord]
	for _, e := range s.incomes {
		if e.val.UserID != userID {
			continue
		}
		if period != nil && e.val.Period != *period {
			continue
		}
		found = append(found, e)
	}
	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.val.Period != b.val.Period {
			return b.val.Period.Before(a.val.Period)
		}
		return a.seq > b.seq
	})

	out := make([]models.IncomeRecord, 0, len(found))
	for _, e := range found {
		out = append(out, cloneIncome(e.val))
	}
	return out, nil
}

func (s *Store) DeleteIncome(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.incomes[id]
	if !ok || e.val.UserID != userID {
		return &models.NotFoundError{Kind: "income", ID: id.String()}
	}
	delete(s.incomes, id)
	return nil
}

// Expense operations

func (s *Store) InsertExpense(_ context.Context, expense *models.ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	s.expenses[expense.ID] = entry[models.ExpenseRecord]{seq: s.next(), val: *expense}
	return nil
}

func (s *Store) GetExpense(_ context.Context, userID, id uuid.UUID) (*models.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok || e.val.UserID != userID {
		return nil, &models.NotFoundError{Kind: "expense", ID: id.String()}
	}
	expense := e.val
	return &expense, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense *models.ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[expense.ID]
	if !ok || e.val.UserID != expense.UserID {
		return &models.NotFoundError{Kind: "expense", ID: expense.ID.String()}
	}
	e.val.Description = expense.Description
	e.val.Amount = expense.Amount
	e.val.Category = expense.Category
	e.val.Date = expense.Date
	e.val.Notes = expense.Notes
	s.expenses[expense.ID] = e
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID uuid.UUID, period *models.Period) ([]models.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []entry[models.ExpenseRecord]
	for _, e := range s.expenses {
		if e.val.UserID != userID {
			continue
		}
		if period != nil && !period.Contains(e.val.Date) {
			continue
		}
		found = append(found, e)
	}
	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.val.Date != b.val.Date {
			return b.val.Date.Before(a.val.Date)
		}
		return a.seq > b.seq
	})

	out := make([]models.ExpenseRecord, 0, len(found))
	for _, e := range found {
		out = append(out, e.val)
	}
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.val.UserID != userID {
		return &models.NotFoundError{Kind: "expense", ID: id.String()}
	}
	delete(s.expenses, id)
	return nil
}

// Goal operations

func (s *Store) CreateGoal(_ context.Context, goal *models.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	if goal.CreatedAt == 0 {
		goal.CreatedAt = time.Now().Unix()
	}
	s.goals[goal.ID] = entry[models.SavingsGoal]{seq: s.next(), val: cloneGoal(*goal)}
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, id uuid.UUID) (*models.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.goals[id]
	if !ok || e.val.UserID != userID {
		return nil, &models.NotFoundError{Kind: "goal", ID: id.String()}
	}
	goal := cloneGoal(e.val)
	return &goal, nil
}

func (s *Store) UpdateGoal(_ context.Context, goal *models.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.goals[goal.ID]
	if !ok || e.val.UserID != goal.UserID {
		return &models.NotFoundError{Kind: "goal", ID: goal.ID.String()}
	}
	updated := cloneGoal(*goal)
	updated.CreatedAt = e.val.CreatedAt
	e.val = updated
	s.goals[goal.ID] = e
	return nil
}

func (s *Store) AddGoalSaved(_ context.Context, userID, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.goals[id]
	if !ok || e.val.UserID != userID {
		return decimal.Zero, &models.NotFoundError{Kind: "goal", ID: id.String()}
	}
	e.val.SavedAmount = e.val.SavedAmount.Add(delta)
	s.goals[id] = e
	return e.val.SavedAmount, nil
}

func (s *Store) ListGoals(_ context.Context, userID uuid.UUID, includeArchived bool) ([]models.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []entry[models.SavingsGoal]
	for _, e := range s.goals {
		if e.val.UserID != userID || (e.val.Archived && !includeArchived) {
			continue
		}
		found = append(found, e)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	out := make([]models.SavingsGoal, 0, len(found))
	for _, e := range found {
		out = append(out, cloneGoal(e.val))
	}
	return out, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.goals[id]
	if !ok || e.val.UserID != userID {
		return &models.NotFoundError{Kind: "goal", ID: id.String()}
	}
	delete(s.goals, id)

	// Matches ON DELETE SET NULL in the SQL schema.
	for incID, inc := range s.incomes {
		if inc.val.GoalID != nil && *inc.val.GoalID == id {
			inc.val.GoalID = nil
			s.incomes[incID] = inc
		}
	}
	return nil
}

// User operations

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return &models.StoreError{Op: "create user", Err: errDuplicateEmail}
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func cloneIncome(in models.IncomeRecord) models.IncomeRecord {
	if in.GoalID != nil {
		id := *in.GoalID
		in.GoalID = &id
	}
	return in
}

func cloneGoal(g models.SavingsGoal) models.SavingsGoal {
	if g.TargetAmount != nil {
		t := *g.TargetAmount
		g.TargetAmount = &t
	}
	if g.Deadline != nil {
		d := *g.Deadline
		g.Deadline = &d
	}
	return g
}
