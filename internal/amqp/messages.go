package amqp

import (
	"time"

	"github.com/oklog/ulid/v2"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entities whose changes are announced
const (
	EntityTransaction = "transaction"
	EntityBudget      = "budget"
	EntityCategory    = "category"
	EntityLedger      = "ledger"
)

// Change kinds
const (
	OpCreated  = "created"
	OpUpdated  = "updated"
	OpDeleted  = "deleted"
	OpImported = "imported"
)

// LedgerChangedMessage announces a successful mutation against the backend.
// It carries only identifiers; consumers re-read whatever they need.
type LedgerChangedMessage struct {
	ID        ulid.ULID `json:"id"`
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	EntityID  int64     `json:"entity_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage stamps a message with a fresh sortable id
func NewLedgerChangedMessage(entity, op string, entityID int64) *LedgerChangedMessage {
	now := time.Now().UTC()
	return &LedgerChangedMessage{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Entity:    entity,
		Op:        op,
		EntityID:  entityID,
		Timestamp: now,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
