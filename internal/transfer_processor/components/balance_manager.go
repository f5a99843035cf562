package components

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/payfast/payfast-core/internal/directory"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/transfer_processor/service"
)

// BalanceManagerImpl implements the BalanceManager interface
type BalanceManagerImpl struct {
	accountRepo account.Repository
	directory   *directory.Service
	logger      *slog.Logger
}

// NewBalanceManager creates a new BalanceManagerImpl
func NewBalanceManager(accountRepo account.Repository, dir *directory.Service, logger *slog.Logger) service.BalanceManager {
	return &BalanceManagerImpl{
		accountRepo: accountRepo,
		directory:   dir,
		logger:      logger,
	}
}

// ExecuteTransfer re-resolves the payee address, locks the involved accounts
// in deterministic order and moves the funds. The credit is applied only when
// the debit succeeded and the payee resolved; an unresolved payee produces a
// debit-only transfer.
func (m *BalanceManagerImpl) ExecuteTransfer(ctx context.Context, tx pgx.Tx, request *shared.TransferRequest) (*service.TransferOutcome, error) {
	logger := m.logger
	if request.CorrelationID != "" {
		logger = m.logger.With("correlation_id", request.CorrelationID)
	}

	accountRepoTx := m.accountRepo.WithTx(tx)

	// Re-resolve the payee inside the transaction. The resolution taken at
	// request time may be stale: the payee may have registered or been
	// removed since.
	resolution, err := m.directory.WithRepository(accountRepoTx).Resolve(ctx, request.PayeeAddress)
	if err != nil {
		logger.Error("Failed to resolve payee address", "transfer_id", request.TransferID.String(), "payee_address", request.PayeeAddress, "error", err)
		return nil, fmt.Errorf("failed to resolve payee for transfer %s: %w", request.TransferID.String(), err)
	}

	if resolution.Resolved && resolution.AccountID == request.PayerID {
		logger.Warn("Payee resolved to the payer's own account", "transfer_id", request.TransferID.String(), "payee_address", request.PayeeAddress)
		return nil, shared.ErrSelfTransfer
	}

	// Lock accounts ordered by id so concurrent transfers between the same
	// pair cannot deadlock.
	lockOrder := []uuid.UUID{request.PayerID}
	if resolution.Resolved {
		lockOrder = append(lockOrder, resolution.AccountID)
		if bytes.Compare(lockOrder[1][:], lockOrder[0][:]) < 0 {
			lockOrder[0], lockOrder[1] = lockOrder[1], lockOrder[0]
		}
	}

	var payer, payee *account.Account
	for _, id := range lockOrder {
		locked, lockErr := accountRepoTx.LockForUpdate(ctx, id)
		if lockErr != nil {
			if errors.Is(lockErr, account.ErrAccountNotFound{AccountID: id}) {
				logger.Warn("Account not found for lock", "transfer_id", request.TransferID.String(), "account_id", id.String())
				return nil, lockErr
			}
			logger.Error("Failed to lock account", "transfer_id", request.TransferID.String(), "account_id", id.String(), "error", lockErr)
			return nil, fmt.Errorf("failed to lock account %s: %w", id.String(), lockErr)
		}
		if locked.ID == request.PayerID {
			payer = locked
		} else {
			payee = locked
		}
	}
	logger.Info("Accounts locked", "transfer_id", request.TransferID.String(), "payer_balance", payer.Balance, "payee_resolved", payee != nil)

	// Validate currency against both sides
	if payer.Currency != request.Currency {
		logger.Error("Currency mismatch on payer", "transfer_id", request.TransferID.String(), "request_currency", request.Currency, "account_currency", payer.Currency)
		return nil, shared.ErrInvalidCurrency
	}
	if payee != nil && payee.Currency != request.Currency {
		logger.Error("Currency mismatch on payee", "transfer_id", request.TransferID.String(), "request_currency", request.Currency, "account_currency", payee.Currency)
		return nil, shared.ErrInvalidCurrency
	}

	// Guarded debit: the balance check and decrement are one statement, so a
	// concurrent debit can never drive the balance negative.
	newPayerBalance, err := accountRepoTx.AdjustBalance(ctx, payer.ID, -request.Amount, true)
	if err != nil {
		if errors.Is(err, account.ErrInsufficientBalance{AccountID: payer.ID}) {
			logger.Warn("Insufficient funds for debit", "transfer_id", request.TransferID.String(), "balance", payer.Balance, "amount", request.Amount)
		} else {
			logger.Error("Failed to debit payer", "transfer_id", request.TransferID.String(), "payer_id", payer.ID.String(), "error", err)
		}
		return nil, err
	}
	payer.Balance = newPayerBalance

	if payee != nil {
		newPayeeBalance, creditErr := accountRepoTx.AdjustBalance(ctx, payee.ID, request.Amount, false)
		if creditErr != nil {
			logger.Error("Failed to credit payee", "transfer_id", request.TransferID.String(), "payee_id", payee.ID.String(), "error", creditErr)
			return nil, creditErr
		}
		payee.Balance = newPayeeBalance
	} else {
		logger.Warn("Payee address did not resolve, executing debit-only transfer",
			"transfer_id", request.TransferID.String(),
			"payee_address", resolution.Address,
		)
	}

	logger.Info("Funds moved",
		"transfer_id", request.TransferID.String(),
		"payer_balance", payer.Balance,
		"amount", request.Amount,
	)

	return &service.TransferOutcome{
		Payer:      payer,
		Payee:      payee,
		Resolution: resolution,
	}, nil
}
