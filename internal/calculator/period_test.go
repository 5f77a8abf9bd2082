package calculator

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

var (
	march2024 = models.Period{Year: 2024, Month: time.March}
	feb2024   = models.Period{Year: 2024, Month: time.February}
)

func income(p models.Period, amount int64) models.IncomeRecord {
	return models.IncomeRecord{Source: "Salary", Amount: dec(amount), Period: p, Allocation: models.AllocationBalance}
}

func expense(day civil.Date, cat models.Category, amount int64) models.ExpenseRecord {
	return models.ExpenseRecord{Description: string(cat), Amount: dec(amount), Category: cat, Date: day}
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestSummarizePeriod(t *testing.T) {
	tests := []struct {
		name         string
		incomes      []models.IncomeRecord
		expenses     []models.ExpenseRecord
		validateFunc func(t *testing.T, s PeriodSummary)
	}{
		{
			name:    "single income no expenses",
			incomes: []models.IncomeRecord{income(march2024, 1000)},
			validateFunc: func(t *testing.T, s PeriodSummary) {
				if !s.CurrentIncomeTotal.Equal(dec(1000)) {
					t.Errorf("CurrentIncomeTotal = %s, want 1000", s.CurrentIncomeTotal)
				}
				if !s.NetBalance.Equal(dec(1000)) {
					t.Errorf("NetBalance = %s, want 1000", s.NetBalance)
				}
				if s.DominantCategory != nil {
					t.Errorf("expected no dominant category, got %+v", s.DominantCategory)
				}
				if s.IncomeDelta.Status != Increase || s.IncomeDelta.Percentage != 100 {
					t.Errorf("IncomeDelta = %+v, want increase 100%%", s.IncomeDelta)
				}
				if s.ExpenseDelta.Status != Unchanged {
					t.Errorf("ExpenseDelta = %+v, want unchanged", s.ExpenseDelta)
				}
			},
		},
		{
			name:    "income grows month over month",
			incomes: []models.IncomeRecord{income(feb2024, 500), income(march2024, 750)},
			validateFunc: func(t *testing.T, s PeriodSummary) {
				d := s.IncomeDelta
				if d.Status != Increase {
					t.Errorf("Status = %s, want increase", d.Status)
				}
				if !d.Amount.Equal(dec(250)) {
					t.Errorf("Amount = %s, want 250", d.Amount)
				}
				if math.Abs(d.Percentage-50.0) > 0.01 {
					t.Errorf("Percentage = %f, want 50", d.Percentage)
				}
				if !s.PrevIncomeTotal.Equal(dec(500)) {
					t.Errorf("PrevIncomeTotal = %s, want 500", s.PrevIncomeTotal)
				}
			},
		},
		{
			name: "dominant category by total",
			expenses: []models.ExpenseRecord{
				expense(date(2024, time.March, 2), models.CategoryFood, 200),
				expense(date(2024, time.March, 9), models.CategoryTransport, 100),
				expense(date(2024, time.March, 20), models.CategoryFood, 100),
				expense(date(2024, time.April, 1), models.CategoryBills, 5000),
			},
			validateFunc: func(t *testing.T, s PeriodSummary) {
				if s.DominantCategory == nil {
					t.Fatal("expected a dominant category")
				}
				if s.DominantCategory.Category != models.CategoryFood {
					t.Errorf("DominantCategory = %s, want Food", s.DominantCategory.Category)
				}
				if math.Abs(s.DominantCategory.Percentage-75.0) > 0.01 {
					t.Errorf("Percentage = %f, want 75", s.DominantCategory.Percentage)
				}
				if !s.CurrentExpenseTotal.Equal(dec(400)) {
					t.Errorf("CurrentExpenseTotal = %s, want 400", s.CurrentExpenseTotal)
				}
				if s.ExpenseCount != 3 {
					t.Errorf("ExpenseCount = %d, want 3", s.ExpenseCount)
				}
			},
		},
		{
			name:     "negative net balance",
			incomes:  []models.IncomeRecord{income(march2024, 100)},
			expenses: []models.ExpenseRecord{expense(date(2024, time.March, 31), models.CategoryBills, 350)},
			validateFunc: func(t *testing.T, s PeriodSummary) {
				if !s.NetBalance.Equal(dec(-250)) {
					t.Errorf("NetBalance = %s, want -250", s.NetBalance)
				}
			},
		},
		{
			name:     "empty period",
			incomes:  []models.IncomeRecord{income(feb2024, 100)},
			expenses: []models.ExpenseRecord{expense(date(2024, time.February, 3), models.CategoryFood, 40)},
			validateFunc: func(t *testing.T, s PeriodSummary) {
				if !s.CurrentIncomeTotal.IsZero() || !s.CurrentExpenseTotal.IsZero() {
					t.Errorf("expected zero totals, got %s / %s", s.CurrentIncomeTotal, s.CurrentExpenseTotal)
				}
				if s.IncomeDelta.Status != Decrease || math.Abs(s.IncomeDelta.Percentage-100) > 0.01 {
					t.Errorf("IncomeDelta = %+v, want decrease 100%%", s.IncomeDelta)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SummarizePeriod(tt.incomes, tt.expenses, march2024)
			if s.Period != march2024 || s.PrevPeriod != feb2024 {
				t.Errorf("periods = %s/%s, want 2024-03/2024-02", s.Period, s.PrevPeriod)
			}
			if !s.CurrentIncomeTotal.Sub(s.CurrentExpenseTotal).Equal(s.NetBalance) {
				t.Errorf("net balance %s does not match totals %s - %s", s.NetBalance, s.CurrentIncomeTotal, s.CurrentExpenseTotal)
			}
			tt.validateFunc(t, s)
		})
	}
}

func TestSummarizePeriod_JanuaryComparesDecember(t *testing.T) {
	jan := models.Period{Year: 2025, Month: time.January}
	dec2024 := models.Period{Year: 2024, Month: time.December}
	s := SummarizePeriod([]models.IncomeRecord{income(dec2024, 200), income(jan, 100)}, nil, jan)
	if s.PrevPeriod != dec2024 {
		t.Fatalf("PrevPeriod = %s, want 2024-12", s.PrevPeriod)
	}
	if s.IncomeDelta.Status != Decrease || !s.IncomeDelta.Amount.Equal(dec(100)) {
		t.Errorf("IncomeDelta = %+v, want decrease by 100", s.IncomeDelta)
	}
}

func TestCompareTotals(t *testing.T) {
	tests := []struct {
		name       string
		current    int64
		prev       int64
		wantStatus DeltaStatus
		wantAmount int64
		wantPct    float64
	}{
		{"both zero", 0, 0, Unchanged, 0, 0},
		{"from zero", 400, 0, Increase, 400, 100},
		{"to zero", 0, 400, Decrease, 400, 100},
		{"increase", 750, 500, Increase, 250, 50},
		{"decrease", 500, 1000, Decrease, 500, 50},
		{"flat", 300, 300, Unchanged, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CompareTotals(dec(tt.current), dec(tt.prev))
			if d.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", d.Status, tt.wantStatus)
			}
			if !d.Amount.Equal(dec(tt.wantAmount)) {
				t.Errorf("Amount = %s, want %d", d.Amount, tt.wantAmount)
			}
			if math.Abs(d.Percentage-tt.wantPct) > 0.01 {
				t.Errorf("Percentage = %f, want %f", d.Percentage, tt.wantPct)
			}
		})
	}
}

func TestCompareTotals_Symmetry(t *testing.T) {
	pairs := [][2]int64{{500, 750}, {1, 1000}, {320, 80}, {999, 1000}}
	for _, p := range pairs {
		a, b := dec(p[0]), dec(p[1])
		fwd := CompareTotals(a, b)
		back := CompareTotals(b, a)
		if !fwd.Amount.Equal(back.Amount) {
			t.Errorf("%v: amounts differ %s vs %s", p, fwd.Amount, back.Amount)
		}
		flipped := map[DeltaStatus]DeltaStatus{Increase: Decrease, Decrease: Increase}
		if flipped[fwd.Status] != back.Status {
			t.Errorf("%v: status %s should flip, got %s", p, fwd.Status, back.Status)
		}
		if fwd.Percentage < 0 || back.Percentage < 0 {
			t.Errorf("%v: percentages must be absolute, got %f and %f", p, fwd.Percentage, back.Percentage)
		}
	}
}

func TestDominantCategory_TieBreak(t *testing.T) {
	day := date(2024, time.March, 1)
	expenses := []models.ExpenseRecord{
		expense(day, models.CategoryTransport, 100),
		expense(day, models.CategoryBills, 100),
		expense(day, models.CategoryFood, 100),
	}
	for i := 0; i < 5; i++ {
		got := DominantCategory(expenses)
		if got == nil || got.Category != models.CategoryBills {
			t.Fatalf("DominantCategory() = %+v, want Bills", got)
		}
		expenses = append(expenses[1:], expenses[0])
	}
	if DominantCategory(nil) != nil {
		t.Error("expected nil for no expenses")
	}
}

func TestPercentOf(t *testing.T) {
	if got := percentOf(dec(5), decimal.Zero); got != 0 {
		t.Errorf("percentOf(5, 0) = %f, want 0", got)
	}
	if got := percentOf(dec(1), dec(3)); math.Abs(got-33.33) > 0.01 {
		t.Errorf("percentOf(1, 3) = %f, want 33.33", got)
	}
}
