package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/shared"
)

// Entry represents one side of a transfer in the ledger. A completed transfer
// to a known payee produces two entries sharing transfer id, amount, timestamp
// and note, differing in direction and owning account. A transfer to an
// unresolved address produces the debit entry only. Entries are immutable
// apart from status promotion when the record is published.
type Entry struct {
	ID             uuid.UUID             `json:"id" bson:"_id"`
	TransferID     uuid.UUID             `json:"transfer_id" bson:"transfer_id"`
	AccountID      uuid.UUID             `json:"account_id" bson:"account_id"`
	Direction      shared.Direction      `json:"direction" bson:"direction"`
	Amount         int64                 `json:"amount" bson:"amount"` // Minor units, positive
	Currency       string                `json:"currency" bson:"currency"`
	PayerAddress   string                `json:"payer_address" bson:"payer_address"`
	PayerName      string                `json:"payer_name" bson:"payer_name"`
	PayeeAddress   string                `json:"payee_address" bson:"payee_address"`
	PayeeName      string                `json:"payee_name" bson:"payee_name"`
	Note           string                `json:"note,omitempty" bson:"note,omitempty"`
	IdempotencyKey string                `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CorrelationID  string                `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Status         shared.TransferStatus `json:"status" bson:"status"`
	FailureReason  string                `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt      time.Time             `json:"created_at" bson:"created_at"`
	ProcessedAt    *time.Time            `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// Reference returns the short display reference shown to users on the
// success screen, derived from the creation instant.
func (e *Entry) Reference() string {
	ms := e.CreatedAt.UnixMilli()
	digits := []byte("00000000")
	for i := 7; i >= 0 && ms > 0; i-- {
		digits[i] = byte('0' + ms%10)
		ms /= 10
	}
	return "PF" + string(digits)
}
