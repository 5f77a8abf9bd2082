package service

// Fully-qualified service names.
const (
	AuthServiceName      = "fintrack.v1.AuthService"
	IncomeServiceName    = "fintrack.v1.IncomeService"
	ExpenseServiceName   = "fintrack.v1.ExpenseService"
	GoalServiceName      = "fintrack.v1.GoalService"
	DashboardServiceName = "fintrack.v1.DashboardService"
)

// Procedure paths, in the form /<service>/<method>.
const (
	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"

	IncomeServiceAllocateIncomeProcedure = "/" + IncomeServiceName + "/AllocateIncome"
	IncomeServiceListIncomesProcedure    = "/" + IncomeServiceName + "/ListIncomes"
	IncomeServiceUpdateIncomeProcedure   = "/" + IncomeServiceName + "/UpdateIncome"
	IncomeServiceDeleteIncomeProcedure   = "/" + IncomeServiceName + "/DeleteIncome"

	ExpenseServiceCreateExpenseProcedure = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceListExpensesProcedure  = "/" + ExpenseServiceName + "/ListExpenses"
	ExpenseServiceUpdateExpenseProcedure = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure = "/" + ExpenseServiceName + "/DeleteExpense"

	GoalServiceCreateGoalProcedure        = "/" + GoalServiceName + "/CreateGoal"
	GoalServiceListGoalsProcedure         = "/" + GoalServiceName + "/ListGoals"
	GoalServiceListFillableGoalsProcedure = "/" + GoalServiceName + "/ListFillableGoals"
	GoalServiceUpdateGoalProcedure        = "/" + GoalServiceName + "/UpdateGoal"
	GoalServiceArchiveGoalProcedure       = "/" + GoalServiceName + "/ArchiveGoal"
	GoalServiceDeleteGoalProcedure        = "/" + GoalServiceName + "/DeleteGoal"

	DashboardServiceGetPeriodSummaryProcedure     = "/" + DashboardServiceName + "/GetPeriodSummary"
	DashboardServiceGetMonthlyTrendProcedure      = "/" + DashboardServiceName + "/GetMonthlyTrend"
	DashboardServiceGetLastSevenDaysProcedure     = "/" + DashboardServiceName + "/GetLastSevenDays"
	DashboardServiceGetCategoryBreakdownProcedure = "/" + DashboardServiceName + "/GetCategoryBreakdown"
	DashboardServiceGetBudgetStatusProcedure      = "/" + DashboardServiceName + "/GetBudgetStatus"
	DashboardServiceGetGoalProgressProcedure      = "/" + DashboardServiceName + "/GetGoalProgress"
)

// PublicProcedures can be called without a session.
var PublicProcedures = []string{
	AuthServiceRegisterProcedure,
	AuthServiceLoginProcedure,
}
