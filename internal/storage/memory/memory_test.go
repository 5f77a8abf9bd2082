package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

func TestIncomeOwnershipAndOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	periods := []models.Period{
		{Year: 2024, Month: time.January},
		{Year: 2024, Month: time.March},
		{Year: 2024, Month: time.February},
	}
	for _, p := range periods {
		inc := &models.IncomeRecord{UserID: owner, Source: "Salary", Amount: decimal.NewFromInt(10), Period: p}
		if err := s.InsertIncome(ctx, inc); err != nil {
			t.Fatalf("InsertIncome failed: %v", err)
		}
	}

	list, err := s.ListIncomes(ctx, owner, nil)
	if err != nil {
		t.Fatalf("ListIncomes failed: %v", err)
	}
	if len(list) != 3 || list[0].Period.Month != time.March || list[2].Period.Month != time.January {
		t.Errorf("expected newest period first, got %+v", list)
	}

	if _, err := s.GetIncome(ctx, other, list[0].ID); !models.IsNotFound(err) {
		t.Errorf("expected NotFoundError for other user, got %v", err)
	}
	if err := s.DeleteIncome(ctx, other, list[0].ID); !models.IsNotFound(err) {
		t.Errorf("expected NotFoundError deleting as other user, got %v", err)
	}
}

func TestRecordsAreCopied(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()
	target := decimal.NewFromInt(100)

	goal := &models.SavingsGoal{UserID: user, Name: "Bike", TargetAmount: &target, SavedAmount: decimal.Zero}
	if err := s.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	*goal.TargetAmount = decimal.NewFromInt(1)

	got, err := s.GetGoal(ctx, user, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !got.TargetAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("stored target changed through caller pointer: %s", got.TargetAmount)
	}
}

func TestDeleteGoalDetachesIncomes(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()

	goal := &models.SavingsGoal{UserID: user, Name: "Trip", SavedAmount: decimal.Zero}
	s.CreateGoal(ctx, goal)
	inc := &models.IncomeRecord{
		UserID: user, Source: "Gift", Amount: decimal.NewFromInt(5),
		Period: models.Period{Year: 2024, Month: time.May}, Allocation: models.AllocationGoal, GoalID: &goal.ID,
	}
	s.InsertIncome(ctx, inc)

	if err := s.DeleteGoal(ctx, user, goal.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}
	got, err := s.GetIncome(ctx, user, inc.ID)
	if err != nil {
		t.Fatalf("GetIncome failed: %v", err)
	}
	if got.GoalID != nil {
		t.Errorf("expected goal reference cleared, got %s", got.GoalID)
	}
}

func TestListExpensesByPeriod(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()
	for _, d := range []civil.Date{
		{Year: 2024, Month: time.March, Day: 2},
		{Year: 2024, Month: time.March, Day: 20},
		{Year: 2024, Month: time.April, Day: 1},
	} {
		s.InsertExpense(ctx, &models.ExpenseRecord{UserID: user, Description: "x", Amount: decimal.NewFromInt(1), Category: models.CategoryOther, Date: d})
	}

	march := models.Period{Year: 2024, Month: time.March}
	got, _ := s.ListExpenses(ctx, user, &march)
	if len(got) != 2 || got[0].Date.Day != 20 {
		t.Errorf("ListExpenses(march) = %+v", got)
	}
}

func TestUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := models.NewUser("bob@example.com", "Bob", "hash")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := s.CreateUser(ctx, models.NewUser("bob@example.com", "Bob 2", "hash")); err == nil {
		t.Error("expected duplicate email to fail")
	}
	got, _ := s.GetUserByEmail(ctx, "bob@example.com")
	if got == nil || got.ID != u.ID {
		t.Errorf("GetUserByEmail() = %+v", got)
	}
	missing, err := s.GetUserByID(ctx, uuid.New())
	if missing != nil || err != nil {
		t.Errorf("expected nil, nil for unknown user, got %+v, %v", missing, err)
	}
}

func TestAddGoalSaved(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := uuid.New()

	goal := &models.SavingsGoal{UserID: user, Name: "Bike", SavedAmount: decimal.NewFromInt(100)}
	if err := s.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddGoalSaved(ctx, user, goal.ID, decimal.NewFromInt(10)); err != nil {
				t.Errorf("AddGoalSaved failed: %v", err)
			}
		}()
	}
	wg.Wait()

	saved, err := s.AddGoalSaved(ctx, user, goal.ID, decimal.NewFromInt(-50))
	if err != nil {
		t.Fatalf("AddGoalSaved failed: %v", err)
	}
	if !saved.Equal(decimal.NewFromInt(250)) {
		t.Errorf("saved = %s, want 250", saved)
	}
	if _, err := s.AddGoalSaved(ctx, uuid.New(), goal.ID, decimal.NewFromInt(1)); !models.IsNotFound(err) {
		t.Errorf("expected NotFoundError for other user, got %v", err)
	}
}
