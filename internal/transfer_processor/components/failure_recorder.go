package components

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/transfer_processor/service"
)

type FailureRecorderImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewFailureRecorder(ledgerRepo ledger.Repository, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// RecordFailure records a failed transfer in the ledger. Failures produce a
// single debit-side entry; no funds moved so there is nothing to credit.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.TransferRequest, failureReason string) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Recording failed transfer", "transfer_id", request.TransferID.String(), "reason", failureReason)

	payeeAddress := strings.ToLower(strings.TrimSpace(request.PayeeAddress))

	now := time.Now()
	entry := &ledger.Entry{
		ID:             uuid.New(),
		TransferID:     request.TransferID,
		AccountID:      request.PayerID,
		Direction:      shared.DirectionDebit,
		Amount:         request.Amount,
		Currency:       request.Currency,
		PayerAddress:   request.PayerAddress,
		PayerName:      request.PayerName,
		PayeeAddress:   payeeAddress,
		PayeeName:      account.LocalPart(payeeAddress),
		Note:           request.Note,
		IdempotencyKey: request.IdempotencyKey,
		CorrelationID:  request.CorrelationID,
		Status:         shared.TransferStatusFailed,
		FailureReason:  failureReason,
		CreatedAt:      request.Timestamp,
		ProcessedAt:    &now,
	}

	existingEntries, err := r.ledgerRepo.GetByTransferID(ctx, request.TransferID)
	if err != nil && !errors.Is(err, ledger.ErrEntryNotFound{}) {
		logger.Error("Failed to get existing ledger entries for failed transfer", "transfer_id", request.TransferID.String(), "error", err)
	}

	if len(existingEntries) > 0 {
		if existingEntries[0].Status != shared.TransferStatusFailed {
			logger.Info("Updating existing ledger entries to FAILED", "transfer_id", request.TransferID.String())
			updateErr := r.ledgerRepo.UpdateStatus(ctx, request.TransferID, shared.TransferStatusFailed, failureReason)
			if updateErr != nil {
				logger.Error("Failed to update ledger entries to FAILED", "transfer_id", request.TransferID.String(), "error", updateErr)
				return updateErr
			}
			logger.Info("Successfully updated ledger entries to FAILED", "transfer_id", request.TransferID.String())
			return nil
		}
		logger.Info("Ledger entries already marked as FAILED", "transfer_id", request.TransferID.String())
		return nil
	}

	logger.Info("Creating new FAILED ledger entry", "transfer_id", request.TransferID.String())
	createErr := r.ledgerRepo.Create(ctx, entry)
	if createErr != nil {
		logger.Error("Failed to create FAILED ledger entry", "transfer_id", request.TransferID.String(), "error", createErr)
		return createErr
	}
	logger.Info("Successfully created FAILED ledger entry", "transfer_id", request.TransferID.String())
	return nil
}
