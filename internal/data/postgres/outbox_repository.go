package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/payfast/payfast-core/internal/domain/outbox"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/platform/persistence"
)

// OutboxRepository implements the outbox.Repository interface for PostgreSQL
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOutboxRepository creates a new PostgreSQL outbox repository
func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so ledger records are queued
// atomically with the balance mutation.
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new outbox message in pending status.
// The message will be picked up by the outbox poller for publication.
// The unique indexes on (transfer_id, direction) and on
// (idempotency_key, direction) make a second execution of the same transfer
// or the same idempotency key fail here, rolling its transaction back.
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	query := `
		INSERT INTO ledger_outbox (transfer_id, account_id, direction, idempotency_key, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.TransferID,
		message.AccountID,
		message.Direction,
		message.IdempotencyKey,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return outbox.ErrDuplicateMessage{TransferID: message.TransferID}
		}
		r.logger.Error("Failed to create outbox message",
			"transfer_id", message.TransferID.String(),
			"direction", string(message.Direction),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	return nil
}

// GetPending retrieves a batch of pending outbox messages ordered by creation
// time, so ledger records publish in FIFO order.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	query := `
		SELECT id, transfer_id, account_id, direction, idempotency_key, payload, status, attempts, created_at, last_attempt_at
		FROM ledger_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// UpdateStatus sets the publishing status of an outbox message
func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	query := `
		UPDATE ledger_outbox
		SET status = $1, last_attempt_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update outbox message status", "id", id, "status", string(status), "error", err)
		return fmt.Errorf("failed to update outbox message status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}

	return nil
}

// IncrementAttempts bumps the attempt counter after a failed publication
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	query := `
		UPDATE ledger_outbox
		SET attempts = attempts + 1, last_attempt_at = NOW()
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to increment outbox message attempts", "id", id, "error", err)
		return fmt.Errorf("failed to increment outbox message attempts: %w", err)
	}

	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}

	return nil
}

// Delete removes an outbox message after successful publication
func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM ledger_outbox WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete outbox message", "id", id, "error", err)
		return fmt.Errorf("failed to delete outbox message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}

	return nil
}

// GetByTransferID retrieves the queued records of a transfer; a resolved
// payee yields two messages, an unresolved one yields the debit only.
func (r *OutboxRepository) GetByTransferID(ctx context.Context, transferID uuid.UUID) ([]*outbox.Message, error) {
	query := `
		SELECT id, transfer_id, account_id, direction, idempotency_key, payload, status, attempts, created_at, last_attempt_at
		FROM ledger_outbox
		WHERE transfer_id = $1
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, query, transferID)
	if err != nil {
		r.logger.Error("Failed to get outbox messages by transfer", "transfer_id", transferID.String(), "error", err)
		return nil, fmt.Errorf("failed to get outbox messages by transfer: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, outbox.ErrMessageNotFound{}
	}
	return messages, nil
}

// GetByIdempotencyKey retrieves the debit-side message queued under the key.
// Absence is not an error; (nil, nil) means the key has not been executed.
func (r *OutboxRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*outbox.Message, error) {
	query := `
		SELECT id, transfer_id, account_id, direction, idempotency_key, payload, status, attempts, created_at, last_attempt_at
		FROM ledger_outbox
		WHERE idempotency_key = $1 AND direction = $2
	`

	var message outbox.Message
	err := r.querier.QueryRow(ctx, query, idempotencyKey, shared.DirectionDebit).Scan(
		&message.ID,
		&message.TransferID,
		&message.AccountID,
		&message.Direction,
		&message.IdempotencyKey,
		&message.Payload,
		&message.Status,
		&message.Attempts,
		&message.CreatedAt,
		&message.LastAttemptAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get outbox message by idempotency key", "idempotency_key", idempotencyKey, "error", err)
		return nil, fmt.Errorf("failed to get outbox message by idempotency key: %w", err)
	}

	return &message, nil
}

func scanMessages(rows pgx.Rows) ([]*outbox.Message, error) {
	var messages []*outbox.Message
	for rows.Next() {
		var message outbox.Message
		err := rows.Scan(
			&message.ID,
			&message.TransferID,
			&message.AccountID,
			&message.Direction,
			&message.IdempotencyKey,
			&message.Payload,
			&message.Status,
			&message.Attempts,
			&message.CreatedAt,
			&message.LastAttemptAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, &message)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return messages, nil
		}
		return nil, fmt.Errorf("failed to read outbox messages: %w", err)
	}
	return messages, nil
}
