package amqp

import (
	"encoding/json"
	"time"
)

// Event types double as routing keys on the direct exchange.
const (
	EventExpenseRecorded = "expense.recorded"
	EventExpenseUpdated  = "expense.updated"
)

// ExpenseEvent announces a change to the ledger. It carries only the row id
// and the touched field; consumers read the row from the store.
type ExpenseEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Field     string    `json:"field,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordedEvent builds the event emitted after an insert.
func NewRecordedEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{Type: EventExpenseRecorded, ID: id, Timestamp: time.Now()}
}

// NewUpdatedEvent builds the event emitted after a single-cell edit.
func NewUpdatedEvent(id int64, field string) *ExpenseEvent {
	return &ExpenseEvent{Type: EventExpenseUpdated, ID: id, Field: field, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
