package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/allocation"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// ExpenseService manages expense records.
type ExpenseService struct {
	store     storage.Store
	cache     allocation.Invalidator
	publisher events.Publisher
}

// NewExpenseService creates an ExpenseService. cache and publisher may be nil.
func NewExpenseService(store storage.Store, cache allocation.Invalidator, publisher events.Publisher) *ExpenseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ExpenseService{store: store, cache: cache, publisher: publisher}
}

// NewExpenseServiceHandler builds the HTTP handler for s.
func NewExpenseServiceHandler(s *ExpenseService, opts ...connect.HandlerOption) (string, http.Handler) {
	return serviceHandler(ExpenseServiceName, map[string]http.Handler{
		ExpenseServiceCreateExpenseProcedure: connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, s.CreateExpense, opts...),
		ExpenseServiceListExpensesProcedure:  connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, s.ListExpenses, opts...),
		ExpenseServiceUpdateExpenseProcedure: connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, s.UpdateExpense, opts...),
		ExpenseServiceDeleteExpenseProcedure: connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, s.DeleteExpense, opts...),
	})
}

// applyExpenseFields parses category and date onto base and validates the result.
// base carries the amount and notes.
func applyExpenseFields(base models.ExpenseRecord, description, category, date string) (models.ExpenseRecord, error) {
	cat, err := models.ParseCategory(category)
	if err != nil {
		return models.ExpenseRecord{}, err
	}
	d, err := parseDate("date", date)
	if err != nil {
		return models.ExpenseRecord{}, err
	}
	base.Description = strings.TrimSpace(description)
	base.Category = cat
	base.Date = d
	base.Notes = strings.TrimSpace(base.Notes)
	if err := base.Validate(); err != nil {
		return models.ExpenseRecord{}, err
	}
	return base, nil
}

// CreateExpense records a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	expense, err := applyExpenseFields(models.ExpenseRecord{
		UserID: userID,
		Amount: msg.Amount,
		Notes:  msg.Notes,
	}, msg.Description, msg.Category, msg.Date)
	if err != nil {
		return nil, fail(ctx, "CreateExpense rejected", err, "user_id", userID)
	}

	if err := s.store.InsertExpense(ctx, &expense); err != nil {
		return nil, fail(ctx, "CreateExpense failed", err, "user_id", userID)
	}
	invalidate(s.cache, userID)

	ev := events.New(events.ExpenseCreated, userID, expense.ID, expense.Amount)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish event", "type", ev.Type, "entity_id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"user_id", userID,
		"expense_id", expense.ID,
		"category", expense.Category,
		"amount", expense.Amount.String(),
	)
	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(expense)}), nil
}

// ListExpenses returns the caller's expenses, optionally for one period.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	period, err := parseOptionalPeriod(req.Msg.Period)
	if err != nil {
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpenses(ctx, userID, period)
	if err != nil {
		return nil, fail(ctx, "ListExpenses failed", err, "user_id", userID)
	}

	out := make([]Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpense(e)
	}
	return connect.NewResponse(&ListExpensesResponse{Expenses: out}), nil
}

// UpdateExpense rewrites an expense's fields.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	id, err := parseID("id", msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	current, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, fail(ctx, "UpdateExpense failed", err, "expense_id", id)
	}

	current.Amount = msg.Amount
	current.Notes = msg.Notes
	updated, err := applyExpenseFields(*current, msg.Description, msg.Category, msg.Date)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateExpense(ctx, &updated); err != nil {
		return nil, fail(ctx, "UpdateExpense failed", err, "expense_id", id)
	}
	invalidate(s.cache, userID)

	slog.InfoContext(ctx, "Expense updated", "user_id", userID, "expense_id", id)
	return connect.NewResponse(&UpdateExpenseResponse{Expense: toExpense(updated)}), nil
}

// DeleteExpense removes an expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return nil, fail(ctx, "DeleteExpense failed", err, "expense_id", id)
	}
	invalidate(s.cache, userID)

	slog.InfoContext(ctx, "Expense deleted", "user_id", userID, "expense_id", id)
	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}
