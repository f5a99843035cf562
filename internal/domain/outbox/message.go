package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/shared"
)

// Message stores a ledger record awaiting publication. Records are written to
// the outbox in the same PostgreSQL commit as the balance mutation, so a
// transfer is never debited without its ledger record being at least queued.
type Message struct {
	ID             int64               `json:"id"`
	TransferID     uuid.UUID           `json:"transfer_id"`
	AccountID      uuid.UUID           `json:"account_id"`
	Direction      shared.Direction    `json:"direction"`
	IdempotencyKey string              `json:"idempotency_key,omitempty"`
	Payload        json.RawMessage     `json:"payload"`
	Status         shared.OutboxStatus `json:"status"`
	Attempts       int                 `json:"attempts"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAttemptAt  *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(entry *ledger.Entry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransferID:     entry.TransferID,
		AccountID:      entry.AccountID,
		Direction:      entry.Direction,
		IdempotencyKey: entry.IdempotencyKey,
		Payload:        payload,
		Status:         shared.OutboxStatusPending,
		Attempts:       0,
		CreatedAt:      time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetLedgerEntry extracts the ledger entry from the payload
func (m *Message) GetLedgerEntry() (*ledger.Entry, error) {
	var entry ledger.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
