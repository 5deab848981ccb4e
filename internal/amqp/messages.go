package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event types carried on the audit queue.
const (
	EventRecorded = "transaction.recorded"
	EventDeleted  = "transaction.deleted"
)

// LedgerEvent is the audit message published after a successful mutation.
// It carries the full row for recorded events so consumers need no read
// access to the store; deleted events carry only the identifiers.
type LedgerEvent struct {
	Type          string    `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Description   string    `json:"description,omitempty"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Category      string    `json:"category,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON parses an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
