package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names what happened in a session.
type EventType string

const (
	ExpenseAdded   EventType = "expense.added"
	CategoryAdded  EventType = "category.added"
	BudgetSaved    EventType = "budget.saved"
	SessionStarted EventType = "session.started"
	SessionEnded   EventType = "session.ended"
)

func (t EventType) Valid() bool {
	switch t {
	case ExpenseAdded, CategoryAdded, BudgetSaved, SessionStarted, SessionEnded:
		return true
	}
	return false
}

// LedgerEvent is the audit record published for every session mutation.
// Attributes carries event-specific values already rendered as strings.
type LedgerEvent struct {
	Type       EventType         `json:"type"`
	Username   string            `json:"username"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func NewLedgerEvent(t EventType, username string, attrs map[string]string) *LedgerEvent {
	return &LedgerEvent{
		Type:       t,
		Username:   username,
		Attributes: attrs,
		Timestamp:  time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
