package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/outbox"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/domain/transfer"
	"github.com/payfast/payfast-core/internal/platform/messaging/producers"
)

// TransferServiceImpl implements the TransferService interface
type TransferServiceImpl struct {
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	outboxRepo  outbox.Repository
	producer    producers.MessagePublisher
	logger      *slog.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(logger *slog.Logger, accountRepo account.Repository, ledgerRepo ledger.Repository, outboxRepo outbox.Repository, producer producers.MessagePublisher) TransferService {
	return &TransferServiceImpl{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		producer:    producer,
		logger:      logger,
	}
}

// InitiateTransfer walks the sender-side lifecycle: validate the collected
// input against the payer's last known balance, authorize via PIN, generate
// the idempotency key at the execution handoff, and publish the request.
func (s *TransferServiceImpl) InitiateTransfer(ctx context.Context, input TransferInput) (*transfer.Transfer, *ledger.Entry, error) {
	payer, err := s.accountRepo.GetByID(ctx, input.PayerID)
	if err != nil {
		return nil, nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = payer.Currency
	}

	t := transfer.New(
		payer.ID,
		payer.Address,
		payer.DisplayName,
		strings.ToLower(strings.TrimSpace(input.PayeeAddress)),
		input.Amount,
		currency,
		input.Note,
	)

	if err := t.Validate(payer.Balance); err != nil {
		s.logger.Warn("Transfer input rejected",
			"transfer_id", t.ID.String(),
			"payer_id", payer.ID.String(),
			"error", err,
		)
		return nil, nil, err
	}

	if !payer.VerifyPIN(input.PIN) {
		s.logger.Warn("Transfer authorization rejected", "transfer_id", t.ID.String(), "payer_id", payer.ID.String())
		return nil, nil, transfer.ErrNotAuthorized
	}

	if err := t.Authorize(); err != nil {
		return nil, nil, err
	}

	// A client-supplied idempotency key survives; BeginExecution only
	// generates one when none is set.
	t.IdempotencyKey = input.IdempotencyKey
	if err := t.BeginExecution(); err != nil {
		return nil, nil, err
	}

	existingEntry, err := s.findExecutedTransfer(ctx, t.IdempotencyKey)
	if err != nil {
		s.logger.Error("Failed to check for existing transfer with idempotency key",
			"idempotency_key", t.IdempotencyKey,
			"error", err,
		)
		return nil, nil, err
	}
	if existingEntry != nil {
		s.logger.Info("Found existing transfer with idempotency key",
			"idempotency_key", t.IdempotencyKey,
			"transfer_id", existingEntry.TransferID,
			"status", string(existingEntry.Status),
		)
		return t, existingEntry, nil
	}

	request := &shared.TransferRequest{
		TransferID:     t.ID,
		PayerID:        t.PayerID,
		PayerAddress:   t.PayerAddress,
		PayerName:      t.PayerName,
		PayeeAddress:   t.PayeeAddress,
		Amount:         t.Amount,
		Currency:       t.Currency,
		Note:           t.Note,
		IdempotencyKey: t.IdempotencyKey,
		CorrelationID:  input.CorrelationID,
		Timestamp:      time.Now(),
	}

	if err := s.producer.Publish(ctx, t.ID.String(), request); err != nil {
		s.logger.Error("Failed to publish transfer request",
			"transfer_id", t.ID.String(),
			"payer_id", t.PayerID.String(),
			"amount", t.Amount,
			"error", err,
		)
		return nil, nil, err
	}

	s.logger.Info("Transfer request published",
		"transfer_id", t.ID.String(),
		"payer_id", t.PayerID.String(),
		"payee_address", t.PayeeAddress,
		"amount", t.Amount,
	)

	return t, nil, nil
}

// findExecutedTransfer looks the idempotency key up in the published ledger
// first, then in the transactional outbox. The outbox check closes the
// window between the balance commit and the asynchronous publication to the
// ledger store: a key found there was already executed, even though no
// ledger document exists yet.
func (s *TransferServiceImpl) findExecutedTransfer(ctx context.Context, idempotencyKey string) (*ledger.Entry, error) {
	entry, err := s.ledgerRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	queued, err := s.outboxRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if queued == nil {
		return nil, nil
	}

	queuedEntry, err := queued.GetLedgerEntry()
	if err != nil {
		return nil, fmt.Errorf("failed to decode queued ledger record for idempotency key %s: %w", idempotencyKey, err)
	}
	return queuedEntry, nil
}

// GetTransferByID retrieves the ledger entries of a transfer. Returns nil if not found
func (s *TransferServiceImpl) GetTransferByID(ctx context.Context, transferID uuid.UUID) ([]*ledger.Entry, error) {
	entries, err := s.ledgerRepo.GetByTransferID(ctx, transferID)
	if err != nil {
		var errEntryNotFound ledger.ErrEntryNotFound
		if errors.As(err, &errEntryNotFound) {
			s.logger.Info("Transfer not found in ledger", "transfer_id", transferID.String())
			return nil, nil
		}
		s.logger.Error("Failed to get transfer by ID", "transfer_id", transferID.String(), "error", err)
		return nil, err
	}
	return entries, nil
}

// GetTransfersByAccountID retrieves paginated transfer history for an account
// Returns entries, total count, and any error
func (s *TransferServiceImpl) GetTransfersByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.ledgerRepo.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
