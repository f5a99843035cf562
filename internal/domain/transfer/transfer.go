package transfer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/shared"
)

// State represents where a transfer is in its lifecycle
type State string

const (
	StateCollecting  State = "COLLECTING"  // Gathering payee, amount, note
	StateAuthorizing State = "AUTHORIZING" // Awaiting PIN entry
	StateExecuting   State = "EXECUTING"   // Handed to the processor
	StateSucceeded   State = "SUCCEEDED"
	StateFailed      State = "FAILED"
)

var (
	ErrAmountNotPositive  = errors.New("transfer amount must be positive")
	ErrAmountOverBalance  = errors.New("transfer amount exceeds available balance")
	ErrSelfTransfer       = errors.New("cannot transfer to your own payment address")
	ErrAlreadyTerminal    = errors.New("transfer already reached a terminal state")
	ErrNotAuthorized      = errors.New("transfer has not been authorized")
)

// InvalidTransitionError reports an attempt to move a transfer between two
// states that are not connected in the lifecycle
type InvalidTransitionError struct {
	TransferID uuid.UUID
	From       State
	To         State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transfer transition from %s to %s for %s", e.From, e.To, e.TransferID)
}

// validTransitions enumerates the allowed lifecycle edges. Terminal states
// are absorbing.
var validTransitions = map[State][]State{
	StateCollecting:  {StateAuthorizing, StateFailed},
	StateAuthorizing: {StateExecuting, StateCollecting, StateFailed},
	StateExecuting:   {StateSucceeded, StateFailed},
}

// Transfer is the sender-side aggregate for one money movement. It carries
// the input collected from the payer, the authorization outcome, and the
// idempotency key generated exactly once when execution begins.
type Transfer struct {
	ID             uuid.UUID
	PayerID        uuid.UUID
	PayerAddress   string
	PayerName      string
	PayeeAddress   string
	Amount         int64 // Minor units
	Currency       string
	Note           string
	State          State
	IdempotencyKey string
	FailureCause   string
	CreatedAt      time.Time
}

// New starts a transfer in the collecting state
func New(payerID uuid.UUID, payerAddress, payerName, payeeAddress string, amount int64, currency, note string) *Transfer {
	return &Transfer{
		ID:           uuid.New(),
		PayerID:      payerID,
		PayerAddress: payerAddress,
		PayerName:    payerName,
		PayeeAddress: payeeAddress,
		Amount:       amount,
		Currency:     currency,
		Note:         note,
		State:        StateCollecting,
		CreatedAt:    time.Now(),
	}
}

// Validate enforces the preconditions for leaving the collecting state:
// positive amount, non-empty payee address, no transfer to self, and an
// advisory check against the payer's last known balance. The balance check
// can be stale; the authoritative check happens under the row lock at
// execution time.
func (t *Transfer) Validate(knownBalance int64) error {
	if t.Amount <= 0 {
		return ErrAmountNotPositive
	}
	if t.PayeeAddress == "" {
		return shared.ErrEmptyPayeeAddress
	}
	if err := account.ValidateAddress(t.PayeeAddress); err != nil {
		return err
	}
	if t.PayeeAddress == t.PayerAddress {
		return ErrSelfTransfer
	}
	if t.Amount > knownBalance {
		return ErrAmountOverBalance
	}
	return nil
}

// Authorize moves the transfer to the authorizing state once input is valid
func (t *Transfer) Authorize() error {
	return t.transition(StateAuthorizing)
}

// BeginExecution marks the transfer as handed off for execution. The
// idempotency key is generated here, exactly once, so that a replay of the
// same authorized transfer cannot double-apply.
func (t *Transfer) BeginExecution() error {
	if err := t.transition(StateExecuting); err != nil {
		return err
	}
	if t.IdempotencyKey == "" {
		t.IdempotencyKey = uuid.New().String()
	}
	return nil
}

// Complete moves an executing transfer to the succeeded terminal state
func (t *Transfer) Complete() error {
	return t.transition(StateSucceeded)
}

// Fail moves the transfer to the failed terminal state with a cause
func (t *Transfer) Fail(cause string) error {
	if err := t.transition(StateFailed); err != nil {
		return err
	}
	t.FailureCause = cause
	return nil
}

// Terminal reports whether the transfer has finished
func (t *Transfer) Terminal() bool {
	return t.State == StateSucceeded || t.State == StateFailed
}

func (t *Transfer) transition(to State) error {
	if t.Terminal() {
		return ErrAlreadyTerminal
	}
	for _, allowed := range validTransitions[t.State] {
		if allowed == to {
			t.State = to
			return nil
		}
	}
	return &InvalidTransitionError{TransferID: t.ID, From: t.State, To: to}
}
