package service

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/snapshot"
)

// SnapshotSource returns a read-only view of a user's records.
type SnapshotSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*snapshot.Snapshot, error)
}

// DashboardService serves the period aggregations. Every method reads one
// snapshot and hands its slices to the calculator.
type DashboardService struct {
	snapshots    SnapshotSource
	budgetTarget decimal.Decimal
	now          func() time.Time
}

// NewDashboardService creates a DashboardService.
// A non-positive budgetTarget uses calculator.DefaultBudgetTarget.
func NewDashboardService(snapshots SnapshotSource, budgetTarget decimal.Decimal) *DashboardService {
	return &DashboardService{snapshots: snapshots, budgetTarget: budgetTarget, now: time.Now}
}

// NewDashboardServiceHandler builds the HTTP handler for s.
func NewDashboardServiceHandler(s *DashboardService, opts ...connect.HandlerOption) (string, http.Handler) {
	return serviceHandler(DashboardServiceName, map[string]http.Handler{
		DashboardServiceGetPeriodSummaryProcedure:     connect.NewUnaryHandler(DashboardServiceGetPeriodSummaryProcedure, s.GetPeriodSummary, opts...),
		DashboardServiceGetMonthlyTrendProcedure:      connect.NewUnaryHandler(DashboardServiceGetMonthlyTrendProcedure, s.GetMonthlyTrend, opts...),
		DashboardServiceGetLastSevenDaysProcedure:     connect.NewUnaryHandler(DashboardServiceGetLastSevenDaysProcedure, s.GetLastSevenDays, opts...),
		DashboardServiceGetCategoryBreakdownProcedure: connect.NewUnaryHandler(DashboardServiceGetCategoryBreakdownProcedure, s.GetCategoryBreakdown, opts...),
		DashboardServiceGetBudgetStatusProcedure:      connect.NewUnaryHandler(DashboardServiceGetBudgetStatusProcedure, s.GetBudgetStatus, opts...),
		DashboardServiceGetGoalProgressProcedure:      connect.NewUnaryHandler(DashboardServiceGetGoalProgressProcedure, s.GetGoalProgress, opts...),
	})
}

// load resolves the caller and their snapshot.
func (s *DashboardService) load(ctx context.Context, op string) (*snapshot.Snapshot, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		return nil, fail(ctx, op+" failed", err, "user_id", userID)
	}
	return snap, nil
}

// period parses the requested period, defaulting to the current month.
func (s *DashboardService) period(raw string) (models.Period, error) {
	if raw == "" {
		return models.CurrentPeriod(s.now()), nil
	}
	p, err := models.ParsePeriod(raw)
	if err != nil {
		return models.Period{}, toConnectError(err)
	}
	return p, nil
}

// GetPeriodSummary compares the selected month against the one before it.
func (s *DashboardService) GetPeriodSummary(ctx context.Context, req *connect.Request[PeriodRequest]) (*connect.Response[GetPeriodSummaryResponse], error) {
	period, err := s.period(req.Msg.Period)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, "GetPeriodSummary")
	if err != nil {
		return nil, err
	}

	summary := calculator.SummarizePeriod(snap.Incomes, snap.Expenses, period)
	o := calculator.Overview(summary)
	return connect.NewResponse(&GetPeriodSummaryResponse{
		Summary: toPeriodSummary(summary),
		Overview: BalanceOverview{
			Balance:      o.Balance,
			SafeBalance:  o.SafeBalance,
			Shortfall:    o.Shortfall,
			BalanceShare: o.BalanceShare,
			ExpenseRatio: o.ExpenseRatio,
		},
	}), nil
}

// GetMonthlyTrend returns income and expense totals for every month with records.
func (s *DashboardService) GetMonthlyTrend(ctx context.Context, _ *connect.Request[GetMonthlyTrendRequest]) (*connect.Response[GetMonthlyTrendResponse], error) {
	snap, err := s.load(ctx, "GetMonthlyTrend")
	if err != nil {
		return nil, err
	}

	trend := calculator.MonthlyTrend(snap.Incomes, snap.Expenses)
	months := make([]MonthTotals, len(trend))
	for i, m := range trend {
		months[i] = MonthTotals{Period: m.Period.String(), Income: m.Income, Expense: m.Expense}
	}
	return connect.NewResponse(&GetMonthlyTrendResponse{Months: months}), nil
}

// GetLastSevenDays returns daily expense totals for the week ending today,
// or ending on the last day of a past month.
func (s *DashboardService) GetLastSevenDays(ctx context.Context, req *connect.Request[PeriodRequest]) (*connect.Response[GetLastSevenDaysResponse], error) {
	period, err := s.period(req.Msg.Period)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, "GetLastSevenDays")
	if err != nil {
		return nil, err
	}

	today := civil.DateOf(s.now().UTC())
	totals := calculator.LastSevenDays(snap.Expenses, period, today)
	days := make([]DayTotal, len(totals))
	for i, d := range totals {
		details := make([]DayExpense, len(d.Details))
		for j, e := range d.Details {
			details[j] = DayExpense{Category: string(e.Category), Amount: e.Amount}
		}
		days[i] = DayTotal{Date: d.Date, Total: d.Total, Details: details}
	}
	return connect.NewResponse(&GetLastSevenDaysResponse{Days: days}), nil
}

// GetCategoryBreakdown returns the selected month's expenses by category.
func (s *DashboardService) GetCategoryBreakdown(ctx context.Context, req *connect.Request[PeriodRequest]) (*connect.Response[GetCategoryBreakdownResponse], error) {
	period, err := s.period(req.Msg.Period)
	if err != nil {
		return nil, err
	}
	snap, err := s.load(ctx, "GetCategoryBreakdown")
	if err != nil {
		return nil, err
	}

	shares := calculator.CategoryBreakdown(snap.Expenses, period)
	out := make([]CategoryShare, len(shares))
	for i, c := range shares {
		out[i] = toCategoryShare(c)
	}
	return connect.NewResponse(&GetCategoryBreakdownResponse{Period: period.String(), Categories: out}), nil
}

// GetBudgetStatus compares the selected month's spending with the request's
// target, or the configured one when the request has none.
func (s *DashboardService) GetBudgetStatus(ctx context.Context, req *connect.Request[GetBudgetStatusRequest]) (*connect.Response[GetBudgetStatusResponse], error) {
	period, err := s.period(req.Msg.Period)
	if err != nil {
		return nil, err
	}
	target := s.budgetTarget
	if t := req.Msg.Target; t != nil {
		if !t.IsPositive() {
			return nil, toConnectError(models.Invalid("target", models.ErrInvalidAmount))
		}
		target = *t
	}
	snap, err := s.load(ctx, "GetBudgetStatus")
	if err != nil {
		return nil, err
	}

	spent := calculator.SumExpenses(calculator.ExpensesIn(snap.Expenses, period))
	b := calculator.BudgetProgress(spent, target)
	return connect.NewResponse(&GetBudgetStatusResponse{
		Period:     period.String(),
		Target:     b.Target,
		Spent:      b.Spent,
		Remaining:  b.Remaining,
		Percentage: b.Percentage,
		Status:     string(b.Status),
	}), nil
}

// GetGoalProgress reports progress for every goal, archived ones included.
func (s *DashboardService) GetGoalProgress(ctx context.Context, _ *connect.Request[GetGoalProgressRequest]) (*connect.Response[GetGoalProgressResponse], error) {
	snap, err := s.load(ctx, "GetGoalProgress")
	if err != nil {
		return nil, err
	}

	summary := calculator.GoalProgress(snap.Goals)
	goals := make([]GoalStatus, len(summary.Goals))
	for i, g := range summary.Goals {
		goals[i] = GoalStatus{
			ID:        g.ID,
			Name:      g.Name,
			Saved:     g.Saved,
			Remaining: g.Remaining,
			Percent:   g.Percent,
			Finished:  g.Finished,
			Archived:  g.Archived,
		}
	}
	return connect.NewResponse(&GetGoalProgressResponse{
		Total:    summary.Total,
		Finished: summary.Finished,
		Active:   summary.Active,
		Archived: summary.Archived,
		Goals:    goals,
	}), nil
}
