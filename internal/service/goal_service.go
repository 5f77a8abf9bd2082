package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/allocation"
	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// GoalService manages savings goals.
type GoalService struct {
	store     storage.Store
	cache     allocation.Invalidator
	publisher events.Publisher
}

// NewGoalService creates a GoalService. cache and publisher may be nil.
func NewGoalService(store storage.Store, cache allocation.Invalidator, publisher events.Publisher) *GoalService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &GoalService{store: store, cache: cache, publisher: publisher}
}

// NewGoalServiceHandler builds the HTTP handler for s.
func NewGoalServiceHandler(s *GoalService, opts ...connect.HandlerOption) (string, http.Handler) {
	return serviceHandler(GoalServiceName, map[string]http.Handler{
		GoalServiceCreateGoalProcedure:        connect.NewUnaryHandler(GoalServiceCreateGoalProcedure, s.CreateGoal, opts...),
		GoalServiceListGoalsProcedure:         connect.NewUnaryHandler(GoalServiceListGoalsProcedure, s.ListGoals, opts...),
		GoalServiceListFillableGoalsProcedure: connect.NewUnaryHandler(GoalServiceListFillableGoalsProcedure, s.ListFillableGoals, opts...),
		GoalServiceUpdateGoalProcedure:        connect.NewUnaryHandler(GoalServiceUpdateGoalProcedure, s.UpdateGoal, opts...),
		GoalServiceArchiveGoalProcedure:       connect.NewUnaryHandler(GoalServiceArchiveGoalProcedure, s.ArchiveGoal, opts...),
		GoalServiceDeleteGoalProcedure:        connect.NewUnaryHandler(GoalServiceDeleteGoalProcedure, s.DeleteGoal, opts...),
	})
}

// CreateGoal starts a new goal with nothing saved.
func (s *GoalService) CreateGoal(ctx context.Context, req *connect.Request[CreateGoalRequest]) (*connect.Response[CreateGoalResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	deadline, err := parseOptionalDate("deadline", msg.Deadline)
	if err != nil {
		return nil, toConnectError(err)
	}
	goal := models.SavingsGoal{
		UserID:       userID,
		Name:         strings.TrimSpace(msg.Name),
		TargetAmount: msg.TargetAmount,
		Deadline:     deadline,
		Notes:        strings.TrimSpace(msg.Notes),
	}
	if err := goal.Validate(); err != nil {
		return nil, fail(ctx, "CreateGoal rejected", err, "user_id", userID)
	}

	if err := s.store.CreateGoal(ctx, &goal); err != nil {
		return nil, fail(ctx, "CreateGoal failed", err, "user_id", userID)
	}
	invalidate(s.cache, userID)

	slog.InfoContext(ctx, "Goal created", "user_id", userID, "goal_id", goal.ID, "name", goal.Name)
	return connect.NewResponse(&CreateGoalResponse{Goal: toGoal(goal)}), nil
}

// ListGoals returns the caller's active goals, plus archived ones on request.
func (s *GoalService) ListGoals(ctx context.Context, req *connect.Request[ListGoalsRequest]) (*connect.Response[ListGoalsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	goals, err := s.store.ListGoals(ctx, userID, req.Msg.IncludeArchived)
	if err != nil {
		return nil, fail(ctx, "ListGoals failed", err, "user_id", userID)
	}
	return connect.NewResponse(&ListGoalsResponse{Goals: toGoals(goals)}), nil
}

// ListFillableGoals returns the goals that may receive an allocation.
func (s *GoalService) ListFillableGoals(ctx context.Context, _ *connect.Request[ListFillableGoalsRequest]) (*connect.Response[ListFillableGoalsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	goals, err := s.store.ListGoals(ctx, userID, false)
	if err != nil {
		return nil, fail(ctx, "ListFillableGoals failed", err, "user_id", userID)
	}
	return connect.NewResponse(&ListFillableGoalsResponse{Goals: toGoals(calculator.FillableGoals(goals))}), nil
}

// UpdateGoal rewrites a goal's fields, including a direct override of the saved amount.
// The archived flag only changes through ArchiveGoal.
func (s *GoalService) UpdateGoal(ctx context.Context, req *connect.Request[UpdateGoalRequest]) (*connect.Response[UpdateGoalResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	id, err := parseID("id", msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	deadline, err := parseOptionalDate("deadline", msg.Deadline)
	if err != nil {
		return nil, toConnectError(err)
	}

	current, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, fail(ctx, "UpdateGoal failed", err, "goal_id", id)
	}
	wasFinished := current.Finished()

	updated := *current
	updated.Name = strings.TrimSpace(msg.Name)
	updated.TargetAmount = msg.TargetAmount
	updated.SavedAmount = msg.SavedAmount
	updated.Deadline = deadline
	updated.Notes = strings.TrimSpace(msg.Notes)
	if err := updated.Validate(); err != nil {
		return nil, fail(ctx, "UpdateGoal rejected", err, "goal_id", id)
	}

	if err := s.store.UpdateGoal(ctx, &updated); err != nil {
		return nil, fail(ctx, "UpdateGoal failed", err, "goal_id", id)
	}
	invalidate(s.cache, userID)

	if !wasFinished && updated.Finished() {
		ev := events.New(events.GoalFinished, userID, updated.ID, updated.SavedAmount)
		if err := s.publisher.Publish(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Failed to publish event", "type", ev.Type, "entity_id", updated.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Goal updated", "user_id", userID, "goal_id", id, "saved", updated.SavedAmount.String())
	return connect.NewResponse(&UpdateGoalResponse{Goal: toGoal(updated)}), nil
}

// ArchiveGoal moves a finished goal out of the active set.
func (s *GoalService) ArchiveGoal(ctx context.Context, req *connect.Request[ArchiveGoalRequest]) (*connect.Response[ArchiveGoalResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	goal, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, fail(ctx, "ArchiveGoal failed", err, "goal_id", id)
	}
	if !goal.Finished() {
		return nil, fail(ctx, "ArchiveGoal rejected", models.Invalid("id", models.ErrGoalNotFinished), "goal_id", id)
	}
	if goal.Archived {
		return connect.NewResponse(&ArchiveGoalResponse{Goal: toGoal(*goal)}), nil
	}

	goal.Archived = true
	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, fail(ctx, "ArchiveGoal failed", err, "goal_id", id)
	}
	invalidate(s.cache, userID)

	slog.InfoContext(ctx, "Goal archived", "user_id", userID, "goal_id", id)
	return connect.NewResponse(&ArchiveGoalResponse{Goal: toGoal(*goal)}), nil
}

// DeleteGoal removes a goal. Incomes that were allocated to it remain.
func (s *GoalService) DeleteGoal(ctx context.Context, req *connect.Request[DeleteGoalRequest]) (*connect.Response[DeleteGoalResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return nil, fail(ctx, "DeleteGoal failed", err, "goal_id", id)
	}
	invalidate(s.cache, userID)

	slog.InfoContext(ctx, "Goal deleted", "user_id", userID, "goal_id", id)
	return connect.NewResponse(&DeleteGoalResponse{}), nil
}
