package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/transfer"
)

// AccountService defines the interface for account operations
type AccountService interface {
	// OpenAccount provisions a new account with the signup bonus as its
	// opening balance. An empty address is generated from the display name.
	// Returns ErrDuplicateAddress if the payment address is taken.
	OpenAccount(ctx context.Context, displayName, address, pin, currency string) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// TransferInput carries the collected transfer form from the API boundary
type TransferInput struct {
	PayerID        uuid.UUID
	PayeeAddress   string
	Amount         int64 // Minor units
	Currency       string
	Note           string
	PIN            string
	IdempotencyKey string
	CorrelationID  string
}

// TransferService walks a transfer through its sender-side lifecycle and
// hands it to the processor
type TransferService interface {
	// InitiateTransfer validates the collected input, authorizes via PIN and
	// publishes the transfer for asynchronous execution. When the idempotency
	// key matches an already-recorded transfer, the existing ledger entry is
	// returned instead of publishing a duplicate.
	InitiateTransfer(ctx context.Context, input TransferInput) (*transfer.Transfer, *ledger.Entry, error)

	// GetTransferByID retrieves the recorded ledger entries of a transfer.
	// Returns nil if the transfer has not reached the ledger yet.
	GetTransferByID(ctx context.Context, transferID uuid.UUID) ([]*ledger.Entry, error)

	// GetTransfersByAccountID retrieves paginated transfer history for an account
	// Returns entries, total count of all entries, and any error
	GetTransfersByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error)
}

// RewardService grants scratch-card bonus credits
type RewardService interface {
	// GrantReward credits a random bonus within the configured range and
	// queues the matching ledger record in the same commit. Returns the
	// granted amount and the new balance.
	GrantReward(ctx context.Context, accountID uuid.UUID, correlationID string) (int64, int64, error)
}
