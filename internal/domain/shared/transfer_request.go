package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrSelfTransfer      = errors.New("payee resolves to the payer's own account")
	ErrEmptyPayeeAddress = errors.New("payee address cannot be empty")
)

// TransferRequest defines a Kafka message for transfer execution. Payer
// identity and display metadata are captured at authorization time; the payee
// address is re-resolved by the processor at execution time.
type TransferRequest struct {
	TransferID     uuid.UUID `json:"transfer_id"`
	PayerID        uuid.UUID `json:"payer_id"`
	PayerAddress   string    `json:"payer_address"`
	PayerName      string    `json:"payer_name"`
	PayeeAddress   string    `json:"payee_address"`
	Amount         int64     `json:"amount"` // Minor units
	Currency       string    `json:"currency"`
	Note           string    `json:"note,omitempty"`
	IdempotencyKey string    `json:"idempotency_key"`
	CorrelationID  string    `json:"correlation_id"`
	Timestamp      time.Time `json:"timestamp"`
}
