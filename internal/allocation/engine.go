// Package allocation records new income and distributes it between the
// general balance and savings goals.
//
// Income is never inserted any other way: every income record is one leg of an
// allocation, and a goal's saved amount only grows through the goal leg.
package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/calculator"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// Invalidator drops cached reads for a user after a write.
type Invalidator interface {
	Invalidate(userID uuid.UUID)
}

// Request is one income amount and the user's decision on where it goes.
type Request struct {
	Source string
	Amount decimal.Decimal
	Period models.Period
	Notes  string
	Choice calculator.AllocationChoice
}

// Result describes what an allocation wrote.
type Result struct {
	// Incomes are the inserted records, balance leg first. Empty when a split was all zero.
	Incomes []models.IncomeRecord

	// Goal is the credited goal after the update, nil when no goal was credited.
	Goal *models.SavingsGoal

	// Unallocated is the part of a split left unassigned and not recorded.
	Unallocated decimal.Decimal
}

// Engine executes allocation plans against a store.
type Engine struct {
	store     storage.Store
	publisher events.Publisher
	cache     Invalidator
	outcomes  *prometheus.CounterVec
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets where ledger events go. The default discards them.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithInvalidator sets the cache to invalidate after writes.
func WithInvalidator(c Invalidator) Option {
	return func(e *Engine) { e.cache = c }
}

// WithOutcomeCounter counts allocations by choice and outcome.
func WithOutcomeCounter(c *prometheus.CounterVec) Option {
	return func(e *Engine) { e.outcomes = c }
}

// NewEngine creates an Engine writing to store.
func NewEngine(store storage.Store, opts ...Option) *Engine {
	e := &Engine{store: store, publisher: events.Nop{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocate validates req against the user's current goals and writes the result.
//
// When the store implements storage.Transactor, validation and every write
// happen inside one transaction. Otherwise the writes run as a saga and a
// failure part-way is compensated; see PartialAllocationError.
func (e *Engine) Allocate(ctx context.Context, userID uuid.UUID, req Request) (*Result, error) {
	template := models.IncomeRecord{
		UserID: userID,
		Source: strings.TrimSpace(req.Source),
		Amount: req.Amount,
		Period: req.Period,
		Notes:  strings.TrimSpace(req.Notes),
	}
	if err := template.Validate(); err != nil {
		e.count(req.Choice.Kind, "rejected")
		return nil, err
	}

	var (
		res *Result
		err error
	)
	if tx, ok := e.store.(storage.Transactor); ok {
		err = tx.WithTx(ctx, func(st storage.Store) error {
			var txErr error
			res, txErr = e.planAndApply(ctx, st, template, req.Choice, false)
			return txErr
		})
	} else {
		res, err = e.planAndApply(ctx, e.store, template, req.Choice, true)
	}

	if err != nil {
		e.count(req.Choice.Kind, outcomeOf(err))
		var partial *PartialAllocationError
		if isPartial(err, &partial) {
			e.invalidate(userID)
		}
		slog.WarnContext(ctx, "Allocation failed",
			"user_id", userID, "choice", req.Choice.Kind, "amount", req.Amount.String(), "error", err)
		return nil, err
	}

	e.count(req.Choice.Kind, "ok")
	if len(res.Incomes) > 0 {
		e.invalidate(userID)
		e.publish(ctx, userID, res)
	}

	slog.InfoContext(ctx, "Allocated income",
		"user_id", userID,
		"choice", req.Choice.Kind,
		"amount", req.Amount.String(),
		"legs", len(res.Incomes),
		"unallocated", res.Unallocated.String(),
	)
	return res, nil
}

// planAndApply loads goals from st, plans, and writes the plan.
func (e *Engine) planAndApply(ctx context.Context, st storage.Store, template models.IncomeRecord, choice calculator.AllocationChoice, compensate bool) (*Result, error) {
	goals, err := st.ListGoals(ctx, template.UserID, true)
	if err != nil {
		return nil, err
	}
	plan, err := calculator.PlanAllocation(template.Amount, choice, goals)
	if err != nil {
		return nil, err
	}

	res := &Result{Unallocated: plan.Unallocated}
	if plan.Empty() {
		return res, nil
	}

	s := &saga{store: st, userID: template.UserID}
	if err := s.run(ctx, template, plan, res); err != nil {
		if !compensate {
			return nil, err
		}
		return nil, s.compensate(ctx, err)
	}
	return res, nil
}

func (e *Engine) publish(ctx context.Context, userID uuid.UUID, res *Result) {
	for _, inc := range res.Incomes {
		ev := events.New(events.IncomeAllocated, userID, inc.ID, inc.Amount)
		if err := e.publisher.Publish(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Failed to publish event", "type", ev.Type, "entity_id", inc.ID, "error", err)
		}
	}
	if res.Goal != nil && res.Goal.Finished() {
		ev := events.New(events.GoalFinished, userID, res.Goal.ID, res.Goal.SavedAmount)
		if err := e.publisher.Publish(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Failed to publish event", "type", ev.Type, "entity_id", res.Goal.ID, "error", err)
		}
	}
}

func (e *Engine) invalidate(userID uuid.UUID) {
	if e.cache != nil {
		e.cache.Invalidate(userID)
	}
}

func (e *Engine) count(choice calculator.ChoiceKind, outcome string) {
	if e.outcomes != nil {
		e.outcomes.WithLabelValues(string(choice), outcome).Inc()
	}
}

func outcomeOf(err error) string {
	var partial *PartialAllocationError
	switch {
	case models.IsValidation(err), models.IsNotFound(err):
		return "rejected"
	case isPartial(err, &partial) && partial.Compensated():
		return "compensated"
	case isPartial(err, &partial):
		return "partial"
	default:
		return "failed"
	}
}

func describeLeg(leg calculator.AllocationLeg) string {
	return fmt.Sprintf("insert %s income %s", leg.Allocation, leg.Amount)
}
