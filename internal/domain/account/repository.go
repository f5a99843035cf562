package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByAddress resolves a payment address. Returns (nil, nil) when no
	// account carries the address; absence is an expected outcome.
	GetByAddress(ctx context.Context, address string) (*Account, error)

	Update(ctx context.Context, account *Account) error

	// AdjustBalance applies a signed delta in a single statement. When
	// guarded is true the update only applies if the resulting balance
	// stays non-negative; a guard miss returns ErrInsufficientBalance.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64, guarded bool) (int64, error)

	// LockForUpdate acquires a pessimistic lock for transfer execution
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// ErrDuplicateAddress indicates payment address uniqueness violation
type ErrDuplicateAddress struct {
	Address string
}

func (e ErrDuplicateAddress) Error() string {
	return "account with payment address already exists: " + e.Address
}

// ErrInsufficientBalance indicates a guarded balance adjustment was refused
// because it would have driven the balance negative
type ErrInsufficientBalance struct {
	AccountID uuid.UUID
}

func (e ErrInsufficientBalance) Error() string {
	return "insufficient balance for guarded adjustment on account: " + e.AccountID.String()
}
