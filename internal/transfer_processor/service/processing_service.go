package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/platform/metrics"
	"github.com/payfast/payfast-core/internal/platform/persistence"
	"github.com/payfast/payfast-core/internal/session"
)

type ProcessingServiceImpl struct {
	pgDB            *persistence.PostgresDB
	validator       TransferValidator
	balanceManager  BalanceManager
	ledgerRecorder  LedgerRecorder
	failureRecorder FailureRecorder
	sessions        *session.Provider
	logger          *slog.Logger
}

func NewProcessingService(
	pgDB *persistence.PostgresDB,
	validator TransferValidator,
	balanceManager BalanceManager,
	ledgerRecorder LedgerRecorder,
	failureRecorder FailureRecorder,
	sessions *session.Provider,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		pgDB:            pgDB,
		validator:       validator,
		balanceManager:  balanceManager,
		ledgerRecorder:  ledgerRecorder,
		failureRecorder: failureRecorder,
		sessions:        sessions,
		logger:          logger,
	}
}

// ProcessTransfer handles the core logic for executing a transfer.
func (s *ProcessingServiceImpl) ProcessTransfer(ctx context.Context, request *shared.TransferRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing transfer", "transfer_id", request.TransferID.String(), "payer_id", request.PayerID.String(), "payee_address", request.PayeeAddress)

	// 1. Validate the transfer request
	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Error("Transfer validation failed", "transfer_id", request.TransferID.String(), "error", err)
		s.recordFailure(ctx, logger, request, validationFailureReason(err))
		return nil // Return nil to Kafka consumer to acknowledge the message
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err // Let Kafka retry
	}
	if skip {
		return nil // Already processed, return success
	}

	// 3. Begin database transaction
	var tx pgx.Tx
	tx, err = s.pgDB.Pool().Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin database transaction", "transfer_id", request.TransferID.String(), "error", err)
		return fmt.Errorf("failed to begin DB transaction for %s: %w", request.TransferID.String(), err)
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered, rolling back transaction", "panic", p, "transfer_id", request.TransferID.String())
			_ = tx.Rollback(ctx)
			panic(p) // Re-panic
		} else if err != nil {
			logger.Error("Error occurred, rolling back transaction", "error", err, "transfer_id", request.TransferID.String())
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error("Failed to rollback transaction after error", "rollback_error", rbErr, "original_error", err, "transfer_id", request.TransferID.String())
			}
		}
	}()

	// 4. Resolve payee, lock accounts and move funds
	outcome, err := s.balanceManager.ExecuteTransfer(ctx, tx, request)
	if err != nil {
		if reason, terminal := executionFailureReason(request, err); terminal {
			s.recordFailure(ctx, logger, request, reason)
			return nil // Business failure, acknowledge the message
		}
		// For other errors, let them propagate for retry
		return err
	}

	// 5. Queue ledger records in the same commit
	if err = s.ledgerRecorder.QueueRecords(ctx, tx, request, outcome); err != nil {
		return err // Let the defer handle rollback
	}

	// 6. Commit transaction
	if err = tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit database transaction",
			"transfer_id", request.TransferID.String(),
			"payer_id", request.PayerID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to commit DB transaction for transfer %s: %w", request.TransferID.String(), err)
	}

	logger.Info("Transfer committed",
		"transfer_id", request.TransferID.String(),
		"payer_id", outcome.Payer.ID.String(),
		"payee_resolved", outcome.Payee != nil,
	)

	// 7. Post-commit: notify sessions and record metrics. Best-effort only.
	s.sessions.Notify(ctx, outcome.Payer.ID)
	if outcome.Payee != nil {
		s.sessions.Notify(ctx, outcome.Payee.ID)
	}
	metrics.RecordTransfer(string(shared.TransferStatusCompleted), request.Amount)

	return nil
}

func (s *ProcessingServiceImpl) recordFailure(ctx context.Context, logger *slog.Logger, request *shared.TransferRequest, reason string) {
	if err := s.failureRecorder.RecordFailure(ctx, request, reason); err != nil {
		logger.Error("Failed to record transfer failure", "transfer_id", request.TransferID.String(), "reason", reason, "error", err)
	}
	metrics.RecordTransfer(string(shared.TransferStatusFailed), 0)
}

func validationFailureReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrEmptyPayeeAddress):
		return string(shared.FailureReasonEmptyPayeeAddress)
	case errors.Is(err, account.ErrInvalidAddress):
		return string(shared.FailureReasonMalformedPayeeAddress)
	case errors.Is(err, shared.ErrSelfTransfer):
		return string(shared.FailureReasonSelfTransfer)
	default:
		return string(shared.FailureReasonInvalidAmount)
	}
}

// executionFailureReason maps an execution error onto a terminal failure
// reason. The second return value is false for transient errors that should
// be retried via Kafka instead of recorded as failed.
func executionFailureReason(request *shared.TransferRequest, err error) (string, bool) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound{AccountID: request.PayerID}):
		return string(shared.FailureReasonPayerNotFound), true
	case errors.Is(err, shared.ErrSelfTransfer):
		return string(shared.FailureReasonSelfTransfer), true
	case errors.Is(err, shared.ErrInvalidCurrency):
		return string(shared.FailureReasonCurrencyMismatch), true
	case errors.Is(err, account.ErrInsufficientBalance{AccountID: request.PayerID}), errors.Is(err, account.ErrInsufficientFunds):
		return string(shared.FailureReasonInsufficientFunds), true
	case errors.Is(err, account.ErrInvalidAmount):
		return string(shared.FailureReasonInvalidAmount), true
	default:
		return "", false
	}
}
