package components

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/outbox"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/transfer_processor/service"
)

type TransferValidatorImpl struct {
	ledgerRepo ledger.Repository
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewTransferValidator(ledgerRepo ledger.Repository, outboxRepo outbox.Repository, logger *slog.Logger) service.TransferValidator {
	return &TransferValidatorImpl{
		ledgerRepo: ledgerRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Validate checks transfer request validity
func (v *TransferValidatorImpl) Validate(ctx context.Context, request *shared.TransferRequest) error {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	if request.Amount <= 0 {
		logger.Error("Invalid amount", "transfer_id", request.TransferID.String(), "amount", request.Amount)
		return fmt.Errorf("amount must be positive: %d", request.Amount)
	}

	payeeAddress := strings.ToLower(strings.TrimSpace(request.PayeeAddress))
	if payeeAddress == "" {
		logger.Error("Empty payee address", "transfer_id", request.TransferID.String())
		return shared.ErrEmptyPayeeAddress
	}
	if err := account.ValidateAddress(payeeAddress); err != nil {
		logger.Error("Malformed payee address", "transfer_id", request.TransferID.String(), "payee_address", request.PayeeAddress)
		return err
	}

	// Cheap self-transfer check on addresses. The authoritative check happens
	// after the payee is re-resolved inside the transaction.
	if payeeAddress == strings.ToLower(strings.TrimSpace(request.PayerAddress)) {
		logger.Error("Payee address equals payer address", "transfer_id", request.TransferID.String(), "address", payeeAddress)
		return shared.ErrSelfTransfer
	}

	return nil
}

// CheckIdempotency checks if the transfer was already executed. The outbox is
// consulted first: it commits in the same transaction as the balance
// mutation, so a key found there was executed even if the ledger record has
// not reached MongoDB yet.
func (v *TransferValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.TransferRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	if request.IdempotencyKey == "" {
		logger.Warn("Transfer request carries no idempotency key, proceeding", "transfer_id", request.TransferID.String())
		return false, nil
	}

	queued, err := v.outboxRepo.GetByIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil {
		logger.Error("Failed to check outbox for idempotency", "transfer_id", request.TransferID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for transfer %s: %w", request.TransferID.String(), err)
	}
	if queued != nil {
		logger.Info("Transfer already executed, ledger record queued (idempotency)",
			"transfer_id", request.TransferID.String(),
			"executed_transfer_id", queued.TransferID.String(),
			"outbox_status", string(queued.Status),
		)
		return true, nil
	}

	existingEntry, err := v.ledgerRepo.GetByIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil {
		logger.Error("Failed to check ledger for idempotency", "transfer_id", request.TransferID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for transfer %s: %w", request.TransferID.String(), err)
	}

	if existingEntry != nil {
		if existingEntry.Status == shared.TransferStatusCompleted || existingEntry.Status == shared.TransferStatusFailed {
			logger.Info("Transfer already processed (idempotency)", "transfer_id", request.TransferID.String(), "status", existingEntry.Status)
			return true, nil // Skip processing
		}
		logger.Info("Transfer found in ledger with non-terminal status, proceeding", "transfer_id", request.TransferID.String(), "status", existingEntry.Status)
	}

	return false, nil // Continue processing
}
