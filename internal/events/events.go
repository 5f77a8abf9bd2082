// Package events publishes ledger changes to other processes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type names a ledger event.
type Type string

const (
	IncomeAllocated Type = "income.allocated"
	ExpenseCreated  Type = "expense.created"
	GoalFinished    Type = "goal.finished"
)

// Event is the JSON message sent for every ledger change.
type Event struct {
	Type     Type            `json:"type"`
	UserID   uuid.UUID       `json:"user_id"`
	EntityID uuid.UUID       `json:"entity_id"`
	Amount   decimal.Decimal `json:"amount"`
	At       time.Time       `json:"at"`
}

// New builds an event stamped with the current time.
func New(t Type, userID, entityID uuid.UUID, amount decimal.Decimal) Event {
	return Event{Type: t, UserID: userID, EntityID: entityID, Amount: amount, At: time.Now().UTC()}
}

// Decode parses a message body.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event has no type")
	}
	return e, nil
}

// Publisher sends events. Publishing is best effort: callers log failures
// and never roll back a committed write because an event was lost.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
