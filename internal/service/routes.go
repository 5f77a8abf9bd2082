package service

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
)

// Services bundles the RPC services mounted by Register.
type Services struct {
	Auth      *AuthService
	Income    *IncomeService
	Expense   *ExpenseService
	Goal      *GoalService
	Dashboard *DashboardService
}

// Register mounts every service on r under its /<service>/ prefix.
func (s Services) Register(r *mux.Router, opts ...connect.HandlerOption) {
	mount := func(path string, h http.Handler) {
		r.PathPrefix(path).Handler(h)
	}
	mount(NewAuthServiceHandler(s.Auth, opts...))
	mount(NewIncomeServiceHandler(s.Income, opts...))
	mount(NewExpenseServiceHandler(s.Expense, opts...))
	mount(NewGoalServiceHandler(s.Goal, opts...))
	mount(NewDashboardServiceHandler(s.Dashboard, opts...))
}
