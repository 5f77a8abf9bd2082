package calculator

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

// DefaultBudgetTarget is the monthly spending target used when the user has not set one.
var DefaultBudgetTarget = decimal.NewFromInt(5_000_000)

// Budget thresholds, in percent of the target.
const (
	budgetWarningPct = 80
	budgetOverPct    = 100
)

// MonthTotals is one point of the income/expense trend line.
type MonthTotals struct {
	Period  models.Period
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// MonthlyTrend groups all records by period, sorted from oldest to newest.
// Periods with neither income nor expense are not emitted.
func MonthlyTrend(incomes []models.IncomeRecord, expenses []models.ExpenseRecord) []MonthTotals {
	byPeriod := make(map[models.Period]*MonthTotals)
	get := func(p models.Period) *MonthTotals {
		mt, ok := byPeriod[p]
		if !ok {
			mt = &MonthTotals{Period: p, Income: decimal.Zero, Expense: decimal.Zero}
			byPeriod[p] = mt
		}
		return mt
	}

	for _, inc := range incomes {
		if !inc.Period.Valid() {
			continue
		}
		mt := get(inc.Period)
		mt.Income = mt.Income.Add(inc.Amount)
	}
	for _, exp := range expenses {
		mt := get(exp.Period())
		mt.Expense = mt.Expense.Add(exp.Amount)
	}

	out := make([]MonthTotals, 0, len(byPeriod))
	for _, mt := range byPeriod {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

// DayExpense is one expense inside a daily total.
type DayExpense struct {
	Category models.Category
	Amount   decimal.Decimal
}

// DayTotal is the expense total of one calendar day.
type DayTotal struct {
	Date    civil.Date
	Total   decimal.Decimal
	Details []DayExpense
}

// LastSevenDays returns seven daily expense totals, oldest first.
// The window ends on today when period is today's month, otherwise on the
// last day of period.
func LastSevenDays(expenses []models.ExpenseRecord, period models.Period, today civil.Date) []DayTotal {
	end := period.LastDay()
	if models.PeriodOf(today) == period {
		end = today
	}

	byDay := make(map[civil.Date][]models.ExpenseRecord)
	for _, exp := range expenses {
		byDay[exp.Date] = append(byDay[exp.Date], exp)
	}

	days := make([]DayTotal, 0, 7)
	for i := 6; i >= 0; i-- {
		d := end.AddDays(-i)
		day := DayTotal{Date: d, Total: decimal.Zero}
		for _, exp := range byDay[d] {
			day.Total = day.Total.Add(exp.Amount)
			day.Details = append(day.Details, DayExpense{Category: exp.Category, Amount: exp.Amount})
		}
		days = append(days, day)
	}
	return days
}

// CategoryBreakdown returns per-category totals for period with their share of
// the period's expense total, largest first. Ties are ordered by category name.
func CategoryBreakdown(expenses []models.ExpenseRecord, period models.Period) []CategoryShare {
	return categoryShares(ExpensesIn(expenses, period))
}

func categoryShares(expenses []models.ExpenseRecord) []CategoryShare {
	if len(expenses) == 0 {
		return nil
	}

	sums := make(map[models.Category]decimal.Decimal)
	total := decimal.Zero
	for _, exp := range expenses {
		sums[exp.Category] = sums[exp.Category].Add(exp.Amount)
		total = total.Add(exp.Amount)
	}

	shares := make([]CategoryShare, 0, len(sums))
	for cat, sum := range sums {
		shares = append(shares, CategoryShare{
			Category:   cat,
			Amount:     sum,
			Percentage: percentOf(sum, total),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Amount.Cmp(shares[j].Amount); c != 0 {
			return c > 0
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// BudgetStatus classifies spending against a monthly target.
type BudgetStatus string

const (
	BudgetSafe       BudgetStatus = "safe"
	BudgetWarning    BudgetStatus = "warning"
	BudgetOverBudget BudgetStatus = "over_budget"
)

// Budget is spending progress against a monthly target.
type Budget struct {
	Target     decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal // zero once the target is exceeded
	Percentage float64
	Status     BudgetStatus
}

// BudgetProgress compares spent against target.
// A non-positive target falls back to DefaultBudgetTarget.
func BudgetProgress(spent, target decimal.Decimal) Budget {
	if !target.IsPositive() {
		target = DefaultBudgetTarget
	}
	pct := percentOf(spent, target)

	b := Budget{
		Target:     target,
		Spent:      spent,
		Remaining:  target.Sub(spent),
		Percentage: pct,
		Status:     BudgetSafe,
	}
	if b.Remaining.IsNegative() {
		b.Remaining = decimal.Zero
	}
	switch {
	case pct >= budgetOverPct:
		b.Status = BudgetOverBudget
	case pct >= budgetWarningPct:
		b.Status = BudgetWarning
	}
	return b
}

// BalanceOverview is the derived balance view of a period summary.
type BalanceOverview struct {
	// Balance is income minus expense; negative means a shortfall.
	Balance decimal.Decimal

	// SafeBalance is Balance clamped at zero.
	SafeBalance decimal.Decimal

	// Shortfall is the absolute value of a negative Balance, else zero.
	Shortfall decimal.Decimal

	// BalanceShare is SafeBalance as a percent of income, 0 without income.
	BalanceShare float64

	// ExpenseRatio is expense as a percent of income, 0 without income.
	ExpenseRatio float64
}

// Overview derives the balance view from s.
func Overview(s PeriodSummary) BalanceOverview {
	o := BalanceOverview{
		Balance:      s.NetBalance,
		SafeBalance:  s.NetBalance,
		Shortfall:    decimal.Zero,
		ExpenseRatio: percentOf(s.CurrentExpenseTotal, s.CurrentIncomeTotal),
	}
	if s.NetBalance.IsNegative() {
		o.SafeBalance = decimal.Zero
		o.Shortfall = s.NetBalance.Abs()
	}
	o.BalanceShare = percentOf(o.SafeBalance, s.CurrentIncomeTotal)
	return o
}

// GoalStatus is the progress of one goal.
type GoalStatus struct {
	ID        uuid.UUID
	Name      string
	Saved     decimal.Decimal
	Remaining decimal.Decimal
	Percent   float64 // 0 for open-ended goals
	Finished  bool
	Archived  bool
}

// GoalSummary counts goals by state.
type GoalSummary struct {
	Total    int
	Finished int
	Active   int
	Archived int
	Goals    []GoalStatus
}

// GoalProgress reports per-goal progress and counts, preserving input order.
// Finished counts goals that reached their target whether archived or not.
func GoalProgress(goals []models.SavingsGoal) GoalSummary {
	s := GoalSummary{Total: len(goals)}
	for _, g := range goals {
		st := GoalStatus{
			ID:        g.ID,
			Name:      g.Name,
			Saved:     g.SavedAmount,
			Remaining: g.Remaining(),
			Finished:  g.Finished(),
			Archived:  g.Archived,
		}
		if g.TargetAmount != nil {
			st.Percent = percentOf(g.SavedAmount, *g.TargetAmount)
		}
		if st.Finished {
			s.Finished++
		}
		if g.Archived {
			s.Archived++
		} else {
			s.Active++
		}
		s.Goals = append(s.Goals, st)
	}
	return s
}
