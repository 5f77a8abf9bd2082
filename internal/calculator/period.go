package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

var hundred = decimal.NewFromInt(100)

// DeltaStatus is the direction of a period-over-period change.
type DeltaStatus string

const (
	Increase  DeltaStatus = "increase"
	Decrease  DeltaStatus = "decrease"
	Unchanged DeltaStatus = "unchanged"
)

// Delta compares a total against the previous period's total.
// Amount and Percentage are absolute values; Status carries the direction.
type Delta struct {
	Status     DeltaStatus
	Amount     decimal.Decimal
	Percentage float64
}

// CategoryShare is one category's total and its share of a larger total.
type CategoryShare struct {
	Category   models.Category
	Amount     decimal.Decimal
	Percentage float64
}

// PeriodSummary is the month-over-month view of one selected period.
type PeriodSummary struct {
	Period     models.Period
	PrevPeriod models.Period

	CurrentIncomeTotal  decimal.Decimal
	PrevIncomeTotal     decimal.Decimal
	CurrentExpenseTotal decimal.Decimal
	PrevExpenseTotal    decimal.Decimal

	IncomeDelta  Delta
	ExpenseDelta Delta

	// DominantCategory is nil when the period has no expenses.
	DominantCategory *CategoryShare

	// NetBalance is CurrentIncomeTotal - CurrentExpenseTotal and may be negative.
	NetBalance decimal.Decimal

	IncomeCount  int
	ExpenseCount int
}

// SummarizePeriod computes the financial summary for period from flat record lists.
//
// Algorithm:
//   - incomes belong to a period by exact Period match, expenses by the month of their Date
//   - totals are computed for period and for period.Prev()
//   - deltas compare current against previous totals (see CompareTotals)
//   - the dominant category is the largest category total of the current period
func SummarizePeriod(incomes []models.IncomeRecord, expenses []models.ExpenseRecord, period models.Period) PeriodSummary {
	prev := period.Prev()

	curIncomes := IncomesIn(incomes, period)
	curExpenses := ExpensesIn(expenses, period)

	s := PeriodSummary{
		Period:              period,
		PrevPeriod:          prev,
		CurrentIncomeTotal:  SumIncomes(curIncomes),
		PrevIncomeTotal:     SumIncomes(IncomesIn(incomes, prev)),
		CurrentExpenseTotal: SumExpenses(curExpenses),
		PrevExpenseTotal:    SumExpenses(ExpensesIn(expenses, prev)),
		DominantCategory:    DominantCategory(curExpenses),
		IncomeCount:         len(curIncomes),
		ExpenseCount:        len(curExpenses),
	}
	s.IncomeDelta = CompareTotals(s.CurrentIncomeTotal, s.PrevIncomeTotal)
	s.ExpenseDelta = CompareTotals(s.CurrentExpenseTotal, s.PrevExpenseTotal)
	s.NetBalance = s.CurrentIncomeTotal.Sub(s.CurrentExpenseTotal)
	return s
}

// CompareTotals applies the period delta rule:
//   - both zero: Unchanged, 0%
//   - previous zero, current positive: Increase by the current total, fixed 100%
//   - otherwise: (current - prev) / prev * 100, direction from the sign
func CompareTotals(current, prev decimal.Decimal) Delta {
	if prev.IsZero() && current.IsZero() {
		return Delta{Status: Unchanged, Amount: decimal.Zero}
	}
	if prev.IsZero() {
		return Delta{Status: Increase, Amount: current, Percentage: 100}
	}

	diff := current.Sub(prev)
	pct := diff.Div(prev).Mul(hundred).Abs().InexactFloat64()
	switch diff.Sign() {
	case 1:
		return Delta{Status: Increase, Amount: diff, Percentage: pct}
	case -1:
		return Delta{Status: Decrease, Amount: diff.Abs(), Percentage: pct}
	default:
		return Delta{Status: Unchanged, Amount: decimal.Zero}
	}
}

// DominantCategory returns the category with the largest total among expenses.
// Equal totals resolve to the lexicographically smallest category name.
func DominantCategory(expenses []models.ExpenseRecord) *CategoryShare {
	shares := categoryShares(expenses)
	if len(shares) == 0 {
		return nil
	}
	top := shares[0]
	return &top
}

// IncomesIn returns the incomes whose Period equals period.
func IncomesIn(incomes []models.IncomeRecord, period models.Period) []models.IncomeRecord {
	var out []models.IncomeRecord
	for _, inc := range incomes {
		if inc.Period == period {
			out = append(out, inc)
		}
	}
	return out
}

// ExpensesIn returns the expenses dated inside period.
func ExpensesIn(expenses []models.ExpenseRecord, period models.Period) []models.ExpenseRecord {
	var out []models.ExpenseRecord
	for _, exp := range expenses {
		if period.Contains(exp.Date) {
			out = append(out, exp)
		}
	}
	return out
}

// SumIncomes adds up income amounts.
func SumIncomes(incomes []models.IncomeRecord) decimal.Decimal {
	total := decimal.Zero
	for _, inc := range incomes {
		total = total.Add(inc.Amount)
	}
	return total
}

// SumExpenses adds up expense amounts.
func SumExpenses(expenses []models.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, exp := range expenses {
		total = total.Add(exp.Amount)
	}
	return total
}

// percentOf returns part/whole*100, or 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}
