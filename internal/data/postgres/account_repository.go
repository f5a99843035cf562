// Package postgres provides PostgreSQL implementations of the domain
// repositories. Accounts and the ledger-record outbox live here; balance
// mutations and their queued ledger records share one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. A unique-constraint violation on the payment
// address surfaces as ErrDuplicateAddress.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, display_name, address, avatar_url, balance, currency, pin_hash, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.DisplayName,
		acc.Address,
		acc.AvatarURL,
		acc.Balance,
		acc.Currency,
		acc.PINHash,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.ErrDuplicateAddress{Address: acc.Address}
		}
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

const accountColumns = "id, display_name, address, avatar_url, balance, currency, pin_hash, version, created_at, updated_at"

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.DisplayName,
		&acc.Address,
		&acc.AvatarURL,
		&acc.Balance,
		&acc.Currency,
		&acc.PINHash,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByAddress retrieves an account by its payment address. Returns (nil, nil)
// when no account carries the address; directory lookup treats absence as a
// valid outcome, not an error.
func (r *AccountRepository) GetByAddress(ctx context.Context, address string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, strings.ToLower(address)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by address", "address", address, "error", err)
		return nil, fmt.Errorf("failed to get account by address: %w", err)
	}

	return acc, nil
}

// Update updates an existing account using optimistic locking
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET display_name = $1, address = $2, avatar_url = $3, balance = $4, currency = $5, pin_hash = $6, version = $7, updated_at = $8
		WHERE id = $9 AND version = $10
	`

	result, err := r.querier.Exec(ctx, query,
		acc.DisplayName,
		acc.Address,
		acc.AvatarURL,
		acc.Balance,
		acc.Currency,
		acc.PINHash,
		acc.Version,
		acc.UpdatedAt,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}

	return nil
}

// AdjustBalance applies a signed delta as a single indivisible statement.
// When guarded, the WHERE clause refuses any update that would leave the
// balance negative, so concurrent debits cannot overdraw the account: the
// check and the write are one statement on the server.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64, guarded bool) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`
	if guarded {
		query += ` AND balance + $1 >= 0`
	}
	query += ` RETURNING balance`

	var newBalance int64
	err := r.querier.QueryRow(ctx, query, delta, id).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if guarded {
				// Either the account is missing or the guard refused the
				// delta; disambiguate for the caller.
				if _, getErr := r.GetByID(ctx, id); getErr != nil {
					return 0, getErr
				}
				return 0, account.ErrInsufficientBalance{AccountID: id}
			}
			return 0, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to adjust account balance", "id", id.String(), "delta", delta, "error", err)
		return 0, fmt.Errorf("failed to adjust account balance: %w", err)
	}

	return newBalance, nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its
// current state. Must be called within a transaction.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}
