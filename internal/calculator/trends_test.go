package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

func TestMonthlyTrend(t *testing.T) {
	jan := models.Period{Year: 2024, Month: time.January}
	incomes := []models.IncomeRecord{
		income(march2024, 300),
		income(jan, 100),
		income(march2024, 200),
	}
	expenses := []models.ExpenseRecord{
		expense(date(2024, time.February, 14), models.CategoryFood, 40),
		expense(date(2024, time.March, 1), models.CategoryBills, 60),
	}

	got := MonthlyTrend(incomes, expenses)
	if len(got) != 3 {
		t.Fatalf("expected 3 months, got %d", len(got))
	}
	wantPeriods := []models.Period{jan, feb2024, march2024}
	for i, p := range wantPeriods {
		if got[i].Period != p {
			t.Errorf("month %d = %s, want %s", i, got[i].Period, p)
		}
	}
	if !got[2].Income.Equal(dec(500)) || !got[2].Expense.Equal(dec(60)) {
		t.Errorf("March totals = %s/%s, want 500/60", got[2].Income, got[2].Expense)
	}
	if !got[1].Income.IsZero() || !got[1].Expense.Equal(dec(40)) {
		t.Errorf("February totals = %s/%s, want 0/40", got[1].Income, got[1].Expense)
	}
}

func TestLastSevenDays(t *testing.T) {
	expenses := []models.ExpenseRecord{
		expense(date(2024, time.March, 10), models.CategoryFood, 20),
		expense(date(2024, time.March, 10), models.CategoryTransport, 5),
		expense(date(2024, time.March, 4), models.CategoryBills, 100),
		expense(date(2024, time.March, 3), models.CategoryOther, 999),
	}

	t.Run("current month ends today", func(t *testing.T) {
		days := LastSevenDays(expenses, march2024, date(2024, time.March, 10))
		if len(days) != 7 {
			t.Fatalf("expected 7 days, got %d", len(days))
		}
		if days[0].Date != date(2024, time.March, 4) || days[6].Date != date(2024, time.March, 10) {
			t.Errorf("window = %s..%s, want 2024-03-04..2024-03-10", days[0].Date, days[6].Date)
		}
		if !days[6].Total.Equal(dec(25)) || len(days[6].Details) != 2 {
			t.Errorf("last day = %+v, want total 25 with 2 details", days[6])
		}
		if !days[0].Total.Equal(dec(100)) {
			t.Errorf("first day total = %s, want 100", days[0].Total)
		}
		if !days[3].Total.IsZero() || days[3].Details != nil {
			t.Errorf("empty day = %+v, want zero", days[3])
		}
	})

	t.Run("past month ends on its last day", func(t *testing.T) {
		days := LastSevenDays(expenses, feb2024, date(2024, time.March, 10))
		if days[6].Date != date(2024, time.February, 29) {
			t.Errorf("window end = %s, want 2024-02-29", days[6].Date)
		}
		for _, d := range days {
			if !d.Total.IsZero() {
				t.Errorf("%s total = %s, want 0", d.Date, d.Total)
			}
		}
	})

	t.Run("window crosses month start", func(t *testing.T) {
		days := LastSevenDays(nil, march2024, date(2024, time.March, 2))
		if days[0].Date != date(2024, time.February, 25) {
			t.Errorf("window start = %s, want 2024-02-25", days[0].Date)
		}
	})
}

func TestCategoryBreakdown(t *testing.T) {
	day := date(2024, time.March, 5)
	expenses := []models.ExpenseRecord{
		expense(day, models.CategoryOther, 50),
		expense(day, models.CategoryFood, 150),
		expense(day, models.CategoryEntertainment, 50),
		expense(date(2024, time.February, 5), models.CategoryBills, 1000),
	}
	got := CategoryBreakdown(expenses, march2024)
	want := []models.Category{models.CategoryFood, models.CategoryEntertainment, models.CategoryOther}
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(got))
	}
	var sum float64
	for i, c := range want {
		if got[i].Category != c {
			t.Errorf("position %d = %s, want %s", i, got[i].Category, c)
		}
		sum += got[i].Percentage
	}
	if math.Abs(got[0].Percentage-60) > 0.01 {
		t.Errorf("Food share = %f, want 60", got[0].Percentage)
	}
	if math.Abs(sum-100) > 0.01 {
		t.Errorf("shares sum to %f, want 100", sum)
	}
	if CategoryBreakdown(expenses, models.Period{Year: 2023, Month: time.May}) != nil {
		t.Error("expected nil breakdown for an empty month")
	}
}

func TestBudgetProgress(t *testing.T) {
	tests := []struct {
		name          string
		spent         int64
		target        int64
		wantStatus    BudgetStatus
		wantRemaining int64
	}{
		{"well under", 100, 1000, BudgetSafe, 900},
		{"just under warning", 799, 1000, BudgetSafe, 201},
		{"at warning", 800, 1000, BudgetWarning, 200},
		{"at target", 1000, 1000, BudgetOverBudget, 0},
		{"over target", 1500, 1000, BudgetOverBudget, 0},
		{"default target", 4_000_000, 0, BudgetWarning, 1_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BudgetProgress(dec(tt.spent), dec(tt.target))
			if b.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", b.Status, tt.wantStatus)
			}
			if !b.Remaining.Equal(dec(tt.wantRemaining)) {
				t.Errorf("Remaining = %s, want %d", b.Remaining, tt.wantRemaining)
			}
		})
	}
}

func TestOverview(t *testing.T) {
	s := SummarizePeriod(
		[]models.IncomeRecord{income(march2024, 1000)},
		[]models.ExpenseRecord{expense(date(2024, time.March, 3), models.CategoryFood, 250)},
		march2024,
	)
	o := Overview(s)
	if !o.SafeBalance.Equal(dec(750)) || !o.Shortfall.IsZero() {
		t.Errorf("SafeBalance/Shortfall = %s/%s, want 750/0", o.SafeBalance, o.Shortfall)
	}
	if math.Abs(o.BalanceShare-75) > 0.01 || math.Abs(o.ExpenseRatio-25) > 0.01 {
		t.Errorf("BalanceShare/ExpenseRatio = %f/%f, want 75/25", o.BalanceShare, o.ExpenseRatio)
	}

	short := Overview(PeriodSummary{NetBalance: dec(-40), CurrentExpenseTotal: dec(40)})
	if !short.SafeBalance.IsZero() || !short.Shortfall.Equal(dec(40)) {
		t.Errorf("shortfall overview = %+v", short)
	}
	if short.ExpenseRatio != 0 {
		t.Errorf("ExpenseRatio without income = %f, want 0", short.ExpenseRatio)
	}
}

func TestGoalProgress(t *testing.T) {
	fillable, finished, archived := testGoals()
	openEnded := models.SavingsGoal{Name: "Rainy day", SavedAmount: dec(70)}
	finishedArchived := finished
	finishedArchived.Archived = true

	s := GoalProgress([]models.SavingsGoal{fillable, finished, archived, openEnded, finishedArchived})
	if s.Total != 5 || s.Finished != 2 || s.Archived != 2 || s.Active != 3 {
		t.Errorf("counts = %+v", s)
	}
	if math.Abs(s.Goals[0].Percent-10) > 0.01 {
		t.Errorf("Laptop percent = %f, want 10", s.Goals[0].Percent)
	}
	if !s.Goals[0].Remaining.Equal(dec(900)) {
		t.Errorf("Laptop remaining = %s, want 900", s.Goals[0].Remaining)
	}
	if s.Goals[3].Percent != 0 || !s.Goals[3].Remaining.Equal(decimal.Zero) {
		t.Errorf("open-ended goal = %+v", s.Goals[3])
	}
}
