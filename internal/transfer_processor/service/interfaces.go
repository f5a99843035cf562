package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/payfast/payfast-core/internal/directory"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/shared"
)

// ProcessingService defines the interface for executing transfer requests.
type ProcessingService interface {
	ProcessTransfer(ctx context.Context, request *shared.TransferRequest) error
}

// TransferValidator validates transfer requests before execution
type TransferValidator interface {
	Validate(ctx context.Context, request *shared.TransferRequest) error
	CheckIdempotency(ctx context.Context, request *shared.TransferRequest) (bool, error)
}

// TransferOutcome carries the in-transaction result of moving funds.
// Payee is nil when the address did not resolve to an account; the debit
// still applies and only the payer's ledger record is produced.
type TransferOutcome struct {
	Payer      *account.Account
	Payee      *account.Account
	Resolution *directory.Resolution
}

// BalanceManager re-resolves the payee inside the transaction, locks the
// involved accounts and moves the funds between them
type BalanceManager interface {
	ExecuteTransfer(ctx context.Context, tx pgx.Tx, request *shared.TransferRequest) (*TransferOutcome, error)
}

// LedgerRecorder queues the transfer's ledger records in the same database
// transaction as the balance mutation
type LedgerRecorder interface {
	QueueRecords(ctx context.Context, tx pgx.Tx, request *shared.TransferRequest, outcome *TransferOutcome) error
}

// FailureRecorder handles recording failed transfers
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.TransferRequest, failureReason string) error
}
