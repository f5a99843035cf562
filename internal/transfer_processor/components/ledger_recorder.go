package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/outbox"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/transfer_processor/service"
)

type LedgerRecorderImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewLedgerRecorder(outboxRepo outbox.Repository, logger *slog.Logger) service.LedgerRecorder {
	return &LedgerRecorderImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// QueueRecords writes the transfer's ledger records to the outbox inside the
// open transaction. A resolved payee yields a debit and a credit record; an
// unresolved payee yields the debit record only.
func (r *LedgerRecorderImpl) QueueRecords(ctx context.Context, tx pgx.Tx, request *shared.TransferRequest, outcome *service.TransferOutcome) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	outboxRepoTx := r.outboxRepo.WithTx(tx)

	debit := r.buildEntry(request, outcome, shared.DirectionDebit, outcome.Payer.ID)
	if err := r.queue(ctx, outboxRepoTx, logger, request, debit); err != nil {
		return err
	}

	if outcome.Payee != nil {
		credit := r.buildEntry(request, outcome, shared.DirectionCredit, outcome.Payee.ID)
		if err := r.queue(ctx, outboxRepoTx, logger, request, credit); err != nil {
			return err
		}
	}

	return nil
}

func (r *LedgerRecorderImpl) buildEntry(request *shared.TransferRequest, outcome *service.TransferOutcome, direction shared.Direction, accountID uuid.UUID) *ledger.Entry {
	return &ledger.Entry{
		ID:             uuid.New(),
		TransferID:     request.TransferID,
		AccountID:      accountID,
		Direction:      direction,
		Amount:         request.Amount,
		Currency:       request.Currency,
		PayerAddress:   request.PayerAddress,
		PayerName:      request.PayerName,
		PayeeAddress:   outcome.Resolution.Address,
		PayeeName:      outcome.Resolution.DisplayName,
		Note:           request.Note,
		IdempotencyKey: request.IdempotencyKey,
		CorrelationID:  request.CorrelationID,
		Status:         shared.TransferStatusProcessing,
		CreatedAt:      request.Timestamp,
		// ProcessedAt is set by the poller
	}
}

func (r *LedgerRecorderImpl) queue(ctx context.Context, repo outbox.Repository, logger *slog.Logger, request *shared.TransferRequest, entry *ledger.Entry) error {
	message, err := outbox.NewMessage(entry)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"transfer_id", request.TransferID.String(),
			"direction", string(entry.Direction),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for transfer %s: %w", request.TransferID.String(), err)
	}

	if err := repo.Create(ctx, message); err != nil {
		logger.Error("Failed to create outbox message",
			"transfer_id", request.TransferID.String(),
			"direction", string(entry.Direction),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for transfer %s: %w", request.TransferID.String(), err)
	}

	logger.Info("Outbox message created successfully",
		"transfer_id", request.TransferID.String(),
		"direction", string(entry.Direction),
		"outbox_id", message.ID,
	)
	return nil
}
