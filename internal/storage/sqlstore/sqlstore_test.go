package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

func setupStore(t *testing.T) (*Store, *models.User) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(context.Background(), SQLite, dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user := models.NewUser("Alice@Example.com", "Alice", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return store, user
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	got := pg.rebind("UPDATE t SET a = ?, b = ? WHERE id = ?")
	want := "UPDATE t SET a = $1, b = $2 WHERE id = $3"
	if got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}

	lite := &Store{dialect: SQLite}
	if q := "SELECT ? FROM t"; lite.rebind(q) != q {
		t.Errorf("sqlite rebind changed the query: %q", lite.rebind(q))
	}
}

func TestUsers(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	got, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("GetUserByEmail() = %+v, want %s", got, user.ID)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil || byID == nil || byID.Email != "alice@example.com" {
		t.Errorf("GetUserByID() = %+v, %v", byID, err)
	}

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown email, got %+v, %v", missing, err)
	}

	dup := models.NewUser("alice@example.com", "Other", "hash")
	if err := store.CreateUser(ctx, dup); err == nil {
		t.Error("expected duplicate email to fail")
	}
}

func TestIncomes(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()
	march := models.Period{Year: 2024, Month: time.March}
	feb := models.Period{Year: 2024, Month: time.February}

	goal := &models.SavingsGoal{UserID: user.ID, Name: "Laptop", SavedAmount: decimal.Zero}
	if err := store.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	salary := &models.IncomeRecord{
		UserID:     user.ID,
		Source:     "Salary",
		Amount:     decimal.RequireFromString("1000.50"),
		Period:     march,
		Allocation: models.AllocationBalance,
	}
	bonus := &models.IncomeRecord{
		UserID:     user.ID,
		Source:     "Bonus",
		Amount:     decimal.NewFromInt(200),
		Period:     feb,
		Allocation: models.AllocationGoal,
		GoalID:     &goal.ID,
	}
	for _, inc := range []*models.IncomeRecord{salary, bonus} {
		if err := store.InsertIncome(ctx, inc); err != nil {
			t.Fatalf("InsertIncome failed: %v", err)
		}
		if inc.ID == uuid.Nil || inc.CreatedAt == 0 {
			t.Errorf("expected ID and CreatedAt to be set, got %+v", inc)
		}
	}

	t.Run("GetIncome round-trips fields", func(t *testing.T) {
		got, err := store.GetIncome(ctx, user.ID, bonus.ID)
		if err != nil {
			t.Fatalf("GetIncome failed: %v", err)
		}
		if !got.Amount.Equal(bonus.Amount) || got.Period != feb || got.Allocation != models.AllocationGoal {
			t.Errorf("GetIncome() = %+v", got)
		}
		if got.GoalID == nil || *got.GoalID != goal.ID {
			t.Errorf("GoalID = %v, want %s", got.GoalID, goal.ID)
		}
	})

	t.Run("ListIncomes filters by period", func(t *testing.T) {
		all, err := store.ListIncomes(ctx, user.ID, nil)
		if err != nil {
			t.Fatalf("ListIncomes failed: %v", err)
		}
		if len(all) != 2 || all[0].ID != salary.ID {
			t.Errorf("expected newest period first, got %+v", all)
		}
		onlyMarch, err := store.ListIncomes(ctx, user.ID, &march)
		if err != nil {
			t.Fatalf("ListIncomes failed: %v", err)
		}
		if len(onlyMarch) != 1 || !onlyMarch[0].Amount.Equal(decimal.RequireFromString("1000.5")) {
			t.Errorf("ListIncomes(march) = %+v", onlyMarch)
		}
	})

	t.Run("other users see nothing", func(t *testing.T) {
		other := uuid.New()
		if _, err := store.GetIncome(ctx, other, salary.ID); !models.IsNotFound(err) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
		if err := store.DeleteIncome(ctx, other, salary.ID); !models.IsNotFound(err) {
			t.Errorf("expected NotFoundError on delete, got %v", err)
		}
		list, err := store.ListIncomes(ctx, other, nil)
		if err != nil || len(list) != 0 {
			t.Errorf("expected empty list, got %+v, %v", list, err)
		}
	})

	t.Run("UpdateIncome and DeleteIncome", func(t *testing.T) {
		salary.Source = "Salary (March)"
		salary.Amount = decimal.NewFromInt(1100)
		if err := store.UpdateIncome(ctx, salary); err != nil {
			t.Fatalf("UpdateIncome failed: %v", err)
		}
		got, _ := store.GetIncome(ctx, user.ID, salary.ID)
		if got.Source != "Salary (March)" || !got.Amount.Equal(decimal.NewFromInt(1100)) {
			t.Errorf("update not persisted: %+v", got)
		}
		if err := store.DeleteIncome(ctx, user.ID, salary.ID); err != nil {
			t.Fatalf("DeleteIncome failed: %v", err)
		}
		if _, err := store.GetIncome(ctx, user.ID, salary.ID); !models.IsNotFound(err) {
			t.Errorf("expected NotFoundError after delete, got %v", err)
		}
	})
}

func TestExpenses(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	days := []civil.Date{
		{Year: 2024, Month: time.February, Day: 29},
		{Year: 2024, Month: time.March, Day: 1},
		{Year: 2024, Month: time.March, Day: 31},
	}
	for i, d := range days {
		e := &models.ExpenseRecord{
			UserID:      user.ID,
			Description: "Lunch",
			Amount:      decimal.NewFromInt(int64(10 * (i + 1))),
			Category:    models.CategoryFood,
			Date:        d,
		}
		if err := store.InsertExpense(ctx, e); err != nil {
			t.Fatalf("InsertExpense failed: %v", err)
		}
	}

	march := models.Period{Year: 2024, Month: time.March}
	got, err := store.ListExpenses(ctx, user.ID, &march)
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 March expenses, got %d", len(got))
	}
	if got[0].Date != days[2] {
		t.Errorf("expected newest first, got %s", got[0].Date)
	}

	e := got[1]
	e.Category = models.CategoryBills
	e.Date = civil.Date{Year: 2024, Month: time.April, Day: 2}
	if err := store.UpdateExpense(ctx, &e); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	updated, err := store.GetExpense(ctx, user.ID, e.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if updated.Category != models.CategoryBills || updated.Period() != (models.Period{Year: 2024, Month: time.April}) {
		t.Errorf("update not persisted: %+v", updated)
	}

	if err := store.DeleteExpense(ctx, user.ID, uuid.New()); !models.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestGoals(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	target := decimal.NewFromInt(500)
	deadline := civil.Date{Year: 2025, Month: time.June, Day: 30}
	goal := &models.SavingsGoal{
		UserID:       user.ID,
		Name:         "Trip",
		TargetAmount: &target,
		SavedAmount:  decimal.NewFromInt(100),
		Deadline:     &deadline,
	}
	if err := store.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	openEnded := &models.SavingsGoal{UserID: user.ID, Name: "Rainy day", SavedAmount: decimal.Zero}
	if err := store.CreateGoal(ctx, openEnded); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	got, err := store.GetGoal(ctx, user.ID, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if got.TargetAmount == nil || !got.TargetAmount.Equal(target) {
		t.Errorf("TargetAmount = %v, want 500", got.TargetAmount)
	}
	if got.Deadline == nil || *got.Deadline != deadline {
		t.Errorf("Deadline = %v, want %s", got.Deadline, deadline)
	}

	saved, err := store.AddGoalSaved(ctx, user.ID, goal.ID, decimal.NewFromInt(400))
	if err != nil {
		t.Fatalf("AddGoalSaved failed: %v", err)
	}
	if !saved.Equal(decimal.NewFromInt(500)) {
		t.Errorf("AddGoalSaved() = %s, want 500", saved)
	}
	got, _ = store.GetGoal(ctx, user.ID, goal.ID)
	if !got.Finished() {
		t.Errorf("expected goal to be finished, saved=%s", got.SavedAmount)
	}

	got.Archived = true
	if err := store.UpdateGoal(ctx, got); err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}

	active, err := store.ListGoals(ctx, user.ID, false)
	if err != nil {
		t.Fatalf("ListGoals failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != openEnded.ID || active[0].TargetAmount != nil {
		t.Errorf("active goals = %+v", active)
	}
	all, _ := store.ListGoals(ctx, user.ID, true)
	if len(all) != 2 {
		t.Errorf("expected 2 goals including archived, got %d", len(all))
	}

	if _, err := store.AddGoalSaved(ctx, uuid.New(), goal.ID, decimal.NewFromInt(1)); !models.IsNotFound(err) {
		t.Errorf("expected NotFoundError for foreign user, got %v", err)
	}
}

func TestAddGoalSaved_Concurrent(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()

	goal := &models.SavingsGoal{UserID: user.ID, Name: "Laptop", SavedAmount: decimal.NewFromInt(100)}
	if err := store.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AddGoalSaved(ctx, user.ID, goal.ID, decimal.RequireFromString("10.25")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("AddGoalSaved failed: %v", err)
	}

	got, err := store.GetGoal(ctx, user.ID, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if want := decimal.RequireFromString("305"); !got.SavedAmount.Equal(want) {
		t.Errorf("saved = %s, want %s", got.SavedAmount, want)
	}

	// A debit inside a rolled back transaction leaves the amount alone.
	errBoom := errors.New("boom")
	err = store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := tx.AddGoalSaved(ctx, user.ID, goal.ID, decimal.NewFromInt(-305)); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	got, _ = store.GetGoal(ctx, user.ID, goal.ID)
	if !got.SavedAmount.Equal(decimal.NewFromInt(305)) {
		t.Errorf("rolled back debit changed saved to %s", got.SavedAmount)
	}
}

func TestAddGoalSavedQuery_Postgres(t *testing.T) {
	pg := &Store{dialect: Postgres}
	got := strings.Join(strings.Fields(pg.rebind(addGoalSavedQuery)), " ")
	want := "UPDATE savings_goals SET saved_amount = saved_amount + $1 WHERE id = $2 AND user_id = $3 RETURNING saved_amount"
	if got != want {
		t.Errorf("query = %q, want %q", got, want)
	}
}

func TestWithTx(t *testing.T) {
	store, user := setupStore(t)
	ctx := context.Background()
	march := models.Period{Year: 2024, Month: time.March}
	errBoom := errors.New("boom")

	err := store.WithTx(ctx, func(tx storage.Store) error {
		inc := &models.IncomeRecord{UserID: user.ID, Source: "Salary", Amount: decimal.NewFromInt(10),
			Period: march, Allocation: models.AllocationBalance}
		if err := tx.InsertIncome(ctx, inc); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	if list, _ := store.ListIncomes(ctx, user.ID, nil); len(list) != 0 {
		t.Errorf("rolled back transaction left %d incomes", len(list))
	}

	err = store.WithTx(ctx, func(tx storage.Store) error {
		inc := &models.IncomeRecord{UserID: user.ID, Source: "Salary", Amount: decimal.NewFromInt(10),
			Period: march, Allocation: models.AllocationBalance}
		return tx.InsertIncome(ctx, inc)
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if list, _ := store.ListIncomes(ctx, user.ID, nil); len(list) != 1 {
		t.Errorf("committed transaction left %d incomes, want 1", len(list))
	}
}
