package service

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
)

// Request and response messages. Ids, periods ("YYYY-MM") and dates
// ("YYYY-MM-DD") arrive as strings and are parsed in the handlers.
// Decimals accept JSON strings or numbers and are written as strings.

type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

type Income struct {
	ID         uuid.UUID       `json:"id"`
	Source     string          `json:"source"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	Notes      string          `json:"notes,omitempty"`
	Allocation string          `json:"allocation"`
	GoalID     *uuid.UUID      `json:"goal_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AllocateIncomeRequest struct {
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
	Period string          `json:"period"`
	Notes  string          `json:"notes"`

	// Allocation is "balance", "goal" or "split".
	Allocation string `json:"allocation"`
	GoalID     string `json:"goal_id"`

	// Split amounts, ignored for other choices.
	GoalAmount    decimal.Decimal `json:"goal_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
}

type AllocateIncomeResponse struct {
	Incomes     []Income        `json:"incomes"`
	Goal        *Goal           `json:"goal,omitempty"`
	Unallocated decimal.Decimal `json:"unallocated"`
}

type ListIncomesRequest struct {
	// Period is optional; empty lists every period.
	Period string `json:"period"`
}

type ListIncomesResponse struct {
	Incomes []Income `json:"incomes"`
}

type UpdateIncomeRequest struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
	Period string          `json:"period"`
	Notes  string          `json:"notes"`
}

type UpdateIncomeResponse struct {
	Income Income `json:"income"`
}

type DeleteIncomeRequest struct {
	ID string `json:"id"`
}

type DeleteIncomeResponse struct{}

type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        civil.Date      `json:"date"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CreateExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListExpensesRequest struct {
	Period string `json:"period"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type UpdateExpenseRequest struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ID string `json:"id"`
}

type DeleteExpenseResponse struct{}

type Goal struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	SavedAmount  decimal.Decimal  `json:"saved_amount"`
	Remaining    decimal.Decimal  `json:"remaining"`
	Deadline     *civil.Date      `json:"deadline,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Archived     bool             `json:"archived"`
	Finished     bool             `json:"finished"`
	CreatedAt    time.Time        `json:"created_at"`
}

type CreateGoalRequest struct {
	Name         string           `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	Deadline     string           `json:"deadline"`
	Notes        string           `json:"notes"`
}

type CreateGoalResponse struct {
	Goal Goal `json:"goal"`
}

type ListGoalsRequest struct {
	IncludeArchived bool `json:"include_archived"`
}

type ListGoalsResponse struct {
	Goals []Goal `json:"goals"`
}

type ListFillableGoalsRequest struct{}

type ListFillableGoalsResponse struct {
	Goals []Goal `json:"goals"`
}

type UpdateGoalRequest struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal  `json:"saved_amount"`
	Deadline     string           `json:"deadline"`
	Notes        string           `json:"notes"`
}

type UpdateGoalResponse struct {
	Goal Goal `json:"goal"`
}

type ArchiveGoalRequest struct {
	ID string `json:"id"`
}

type ArchiveGoalResponse struct {
	Goal Goal `json:"goal"`
}

type DeleteGoalRequest struct {
	ID string `json:"id"`
}

type DeleteGoalResponse struct{}

// PeriodRequest selects a month; empty means the current month.
type PeriodRequest struct {
	Period string `json:"period"`
}

// GetBudgetStatusRequest selects a month and, optionally, the user's own
// monthly target. Without a target the server default applies.
type GetBudgetStatusRequest struct {
	Period string           `json:"period"`
	Target *decimal.Decimal `json:"target,omitempty"`
}

type Delta struct {
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

type PeriodSummary struct {
	Period              string          `json:"period"`
	PrevPeriod          string          `json:"prev_period"`
	CurrentIncomeTotal  decimal.Decimal `json:"current_income_total"`
	PrevIncomeTotal     decimal.Decimal `json:"prev_income_total"`
	CurrentExpenseTotal decimal.Decimal `json:"current_expense_total"`
	PrevExpenseTotal    decimal.Decimal `json:"prev_expense_total"`
	IncomeDelta         Delta           `json:"income_delta"`
	ExpenseDelta        Delta           `json:"expense_delta"`
	DominantCategory    *CategoryShare  `json:"dominant_category,omitempty"`
	NetBalance          decimal.Decimal `json:"net_balance"`
	IncomeCount         int             `json:"income_count"`
	ExpenseCount        int             `json:"expense_count"`
}

type BalanceOverview struct {
	Balance      decimal.Decimal `json:"balance"`
	SafeBalance  decimal.Decimal `json:"safe_balance"`
	Shortfall    decimal.Decimal `json:"shortfall"`
	BalanceShare float64         `json:"balance_share"`
	ExpenseRatio float64         `json:"expense_ratio"`
}

type GetPeriodSummaryResponse struct {
	Summary  PeriodSummary   `json:"summary"`
	Overview BalanceOverview `json:"overview"`
}

type GetMonthlyTrendRequest struct{}

type MonthTotals struct {
	Period  string          `json:"period"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type GetMonthlyTrendResponse struct {
	Months []MonthTotals `json:"months"`
}

type DayExpense struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type DayTotal struct {
	Date    civil.Date      `json:"date"`
	Total   decimal.Decimal `json:"total"`
	Details []DayExpense    `json:"details"`
}

type GetLastSevenDaysResponse struct {
	Days []DayTotal `json:"days"`
}

type GetCategoryBreakdownResponse struct {
	Period     string          `json:"period"`
	Categories []CategoryShare `json:"categories"`
}

type GetBudgetStatusResponse struct {
	Period     string          `json:"period"`
	Target     decimal.Decimal `json:"target"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
	Status     string          `json:"status"`
}

type GetGoalProgressRequest struct{}

type GoalStatus struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Saved     decimal.Decimal `json:"saved"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   float64         `json:"percent"`
	Finished  bool            `json:"finished"`
	Archived  bool            `json:"archived"`
}

type GetGoalProgressResponse struct {
	Total    int          `json:"total"`
	Finished int          `json:"finished"`
	Active   int          `json:"active"`
	Archived int          `json:"archived"`
	Goals    []GoalStatus `json:"goals"`
}

func toUser(u *models.User) User {
	return User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   time.Unix(u.CreatedAt, 0).UTC(),
	}
}

func toIncome(r models.IncomeRecord) Income {
	return Income{
		ID:         r.ID,
		Source:     r.Source,
		Amount:     r.Amount,
		Period:     r.Period.String(),
		Notes:      r.Notes,
		Allocation: string(r.Allocation),
		GoalID:     r.GoalID,
		CreatedAt:  time.Unix(r.CreatedAt, 0).UTC(),
	}
}

func toIncomes(records []models.IncomeRecord) []Income {
	out := make([]Income, len(records))
	for i, r := range records {
		out[i] = toIncome(r)
	}
	return out
}

func toExpense(e models.ExpenseRecord) Expense {
	return Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    string(e.Category),
		Date:        e.Date,
		Notes:       e.Notes,
		CreatedAt:   time.Unix(e.CreatedAt, 0).UTC(),
	}
}

func toGoal(g models.SavingsGoal) Goal {
	return Goal{
		ID:           g.ID,
		Name:         g.Name,
		TargetAmount: g.TargetAmount,
		SavedAmount:  g.SavedAmount,
		Remaining:    g.Remaining(),
		Deadline:     g.Deadline,
		Notes:        g.Notes,
		Archived:     g.Archived,
		Finished:     g.Finished(),
		CreatedAt:    time.Unix(g.CreatedAt, 0).UTC(),
	}
}

func toGoals(goals []models.SavingsGoal) []Goal {
	out := make([]Goal, len(goals))
	for i, g := range goals {
		out[i] = toGoal(g)
	}
	return out
}

func toDelta(d calculator.Delta) Delta {
	return Delta{Status: string(d.Status), Amount: d.Amount, Percentage: d.Percentage}
}

func toCategoryShare(c calculator.CategoryShare) CategoryShare {
	return CategoryShare{Category: string(c.Category), Amount: c.Amount, Percentage: c.Percentage}
}

func toPeriodSummary(s calculator.PeriodSummary) PeriodSummary {
	out := PeriodSummary{
		Period:              s.Period.String(),
		PrevPeriod:          s.PrevPeriod.String(),
		CurrentIncomeTotal:  s.CurrentIncomeTotal,
		PrevIncomeTotal:     s.PrevIncomeTotal,
		CurrentExpenseTotal: s.CurrentExpenseTotal,
		PrevExpenseTotal:    s.PrevExpenseTotal,
		IncomeDelta:         toDelta(s.IncomeDelta),
		ExpenseDelta:        toDelta(s.ExpenseDelta),
		NetBalance:          s.NetBalance,
		IncomeCount:         s.IncomeCount,
		ExpenseCount:        s.ExpenseCount,
	}
	if s.DominantCategory != nil {
		dc := toCategoryShare(*s.DominantCategory)
		out.DominantCategory = &dc
	}
	return out
}
