package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/allocation"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// IncomeService records income through the allocation engine and manages
// existing income records.
type IncomeService struct {
	engine *allocation.Engine
	store  storage.Store
	cache  allocation.Invalidator
}

// NewIncomeService creates an IncomeService. cache may be nil.
func NewIncomeService(engine *allocation.Engine, store storage.Store, cache allocation.Invalidator) *IncomeService {
	return &IncomeService{engine: engine, store: store, cache: cache}
}

// NewIncomeServiceHandler builds the HTTP handler for s.
func NewIncomeServiceHandler(s *IncomeService, opts ...connect.HandlerOption) (string, http.Handler) {
	return serviceHandler(IncomeServiceName, map[string]http.Handler{
		IncomeServiceAllocateIncomeProcedure: connect.NewUnaryHandler(IncomeServiceAllocateIncomeProcedure, s.AllocateIncome, opts...),
		IncomeServiceListIncomesProcedure:    connect.NewUnaryHandler(IncomeServiceListIncomesProcedure, s.ListIncomes, opts...),
		IncomeServiceUpdateIncomeProcedure:   connect.NewUnaryHandler(IncomeServiceUpdateIncomeProcedure, s.UpdateIncome, opts...),
		IncomeServiceDeleteIncomeProcedure:   connect.NewUnaryHandler(IncomeServiceDeleteIncomeProcedure, s.DeleteIncome, opts...),
	})
}

// AllocateIncome is the only way to record income.
func (s *IncomeService) AllocateIncome(ctx context.Context, req *connect.Request[AllocateIncomeRequest]) (*connect.Response[AllocateIncomeResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	period, err := models.ParsePeriod(msg.Period)
	if err != nil {
		return nil, fail(ctx, "AllocateIncome rejected", err, "user_id", userID)
	}
	choice, err := parseChoice(msg)
	if err != nil {
		return nil, fail(ctx, "AllocateIncome rejected", err, "user_id", userID)
	}

	res, err := s.engine.Allocate(ctx, userID, allocation.Request{
		Source: msg.Source,
		Amount: msg.Amount,
		Period: period,
		Notes:  msg.Notes,
		Choice: choice,
	})
	if err != nil {
		return nil, fail(ctx, "AllocateIncome failed", err, "user_id", userID, "choice", choice.Kind)
	}

	resp := &AllocateIncomeResponse{
		Incomes:     toIncomes(res.Incomes),
		Unallocated: res.Unallocated,
	}
	if res.Goal != nil {
		g := toGoal(*res.Goal)
		resp.Goal = &g
	}
	return connect.NewResponse(resp), nil
}

func parseChoice(msg *AllocateIncomeRequest) (calculator.AllocationChoice, error) {
	choice := calculator.AllocationChoice{Kind: calculator.ChoiceKind(msg.Allocation)}
	switch choice.Kind {
	case calculator.ChoiceBalance:
		return choice, nil
	case calculator.ChoiceGoal, calculator.ChoiceSplit:
	default:
		return choice, models.Invalid("allocation", fmt.Errorf("unknown allocation %q", msg.Allocation))
	}

	if choice.Kind == calculator.ChoiceSplit {
		choice.GoalAmount = msg.GoalAmount
		choice.BalanceAmount = msg.BalanceAmount
	}
	id, err := parseID("goal_id", msg.GoalID)
	if err != nil {
		return choice, err
	}
	choice.GoalID = id
	return choice, nil
}

// ListIncomes returns the caller's incomes, optionally for one period.
func (s *IncomeService) ListIncomes(ctx context.Context, req *connect.Request[ListIncomesRequest]) (*connect.Response[ListIncomesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	period, err := parseOptionalPeriod(req.Msg.Period)
	if err != nil {
		return nil, toConnectError(err)
	}

	incomes, err := s.store.ListIncomes(ctx, userID, period)
	if err != nil {
		return nil, fail(ctx, "ListIncomes failed", err, "user_id", userID)
	}
	return connect.NewResponse(&ListIncomesResponse{Incomes: toIncomes(incomes)}), nil
}

// UpdateIncome edits source, amount, period and notes. The allocation of a
// record is fixed, so goal balances are not touched.
func (s *IncomeService) UpdateIncome(ctx context.Context, req *connect.Request[UpdateIncomeRequest]) (*connect.Response[UpdateIncomeResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	id, err := parseID("id", msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	period, err := models.ParsePeriod(msg.Period)
	if err != nil {
		return nil, toConnectError(err)
	}

	current, err := s.store.GetIncome(ctx, userID, id)
	if err != nil {
		return nil, fail(ctx, "UpdateIncome failed", err, "income_id", id)
	}
	updated, err := models.IncomeUpdate{
		Source: msg.Source,
		Amount: msg.Amount,
		Period: period,
		Notes:  msg.Notes,
	}.Apply(*current)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateIncome(ctx, &updated); err != nil {
		return nil, fail(ctx, "UpdateIncome failed", err, "income_id", id)
	}
	invalidate(s.cache, userID)

	slog.InfoContext(ctx, "Income updated", "user_id", userID, "income_id", id)
	return connect.NewResponse(&UpdateIncomeResponse{Income: toIncome(updated)}), nil
}

// DeleteIncome removes an income record. Goal balances it contributed to are kept.
func (s *IncomeService) DeleteIncome(ctx context.Context, req *connect.Request[DeleteIncomeRequest]) (*connect.Response[DeleteIncomeResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteIncome(ctx, userID, id); err != nil {
		return nil, fail(ctx, "DeleteIncome failed", err, "income_id", id)
	}
	invalidate(s.cache, userID)

	slog.InfoContext(ctx, "Income deleted", "user_id", userID, "income_id", id)
	return connect.NewResponse(&DeleteIncomeResponse{}), nil
}

// invalidate drops the caller's cached dashboard snapshot after a write.
func invalidate(cache allocation.Invalidator, userID uuid.UUID) {
	if cache != nil {
		cache.Invalidate(userID)
	}
}
