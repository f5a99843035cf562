package outbox_poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/outbox"
	"github.com/payfast/payfast-core/internal/domain/shared"
)

// LedgerPublisher publishes outbox messages to ledger
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

// LedgerPublisherImpl implements LedgerPublisher
type LedgerPublisherImpl struct {
	outboxRepo outbox.Repository
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

// NewLedgerPublisher creates a new publisher
func NewLedgerPublisher(
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	logger *slog.Logger,
) LedgerPublisher {
	return &LedgerPublisherImpl{
		outboxRepo: outboxRepo,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// PublishToLedger writes one queued ledger record to MongoDB and marks the
// outbox message processed. Each outbox message carries one side of a
// transfer, so debit and credit records publish independently.
func (p *LedgerPublisherImpl) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	var entryToPublish ledger.Entry
	if err := json.Unmarshal(message.Payload, &entryToPublish); err != nil {
		p.logger.Error("Failed to unmarshal ledger entry from outbox payload",
			"outbox_id", message.ID, "transfer_id", message.TransferID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	// Add correlation ID to logger
	logger := p.logger
	if entryToPublish.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entryToPublish.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to ledger",
		"outbox_id", message.ID,
		"transfer_id", message.TransferID,
		"direction", string(message.Direction),
	)

	entryToPublish.Status = shared.TransferStatusCompleted
	now := time.Now().UTC()
	entryToPublish.ProcessedAt = &now

	err := p.ledgerRepo.Create(ctx, &entryToPublish)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry{TransferID: entryToPublish.TransferID}) {
			// This side was already published, likely on an earlier attempt
			// that failed before the outbox status update landed.
			logger.Info("Ledger entry already recorded for this side of the transfer",
				"transfer_id", entryToPublish.TransferID,
				"direction", string(entryToPublish.Direction),
			)
		} else {
			logger.Error("Failed to create ledger entry in MongoDB", "transfer_id", entryToPublish.TransferID, "error", err)
			return fmt.Errorf("failed to create ledger entry %s: %w", entryToPublish.TransferID, err)
		}
	} else {
		logger.Info("Successfully created ledger entry in MongoDB",
			"transfer_id", entryToPublish.TransferID,
			"direction", string(entryToPublish.Direction),
		)
	}

	// Mark outbox message as processed
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transfer_id", message.TransferID, "error", err,
		)
		return fmt.Errorf("ledger write for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.TransferID, message.ID, err)
	}

	logger.Info("Outbox message successfully processed and marked as PROCESSED", "outbox_id", message.ID, "transfer_id", message.TransferID)
	return nil
}
