package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/payfast/payfast-core/internal/config"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/outbox"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/platform/metrics"
	"github.com/payfast/payfast-core/internal/platform/persistence"
	"github.com/payfast/payfast-core/internal/session"
)

// RewardServiceImpl implements the RewardService interface
type RewardServiceImpl struct {
	pgDB        *persistence.PostgresDB
	accountRepo account.Repository
	outboxRepo  outbox.Repository
	sessions    *session.Provider
	rewardCfg   *config.RewardConfig
	accountCfg  *config.AccountConfig
	logger      *slog.Logger
}

// NewRewardService creates a new reward service
func NewRewardService(
	logger *slog.Logger,
	pgDB *persistence.PostgresDB,
	accountRepo account.Repository,
	outboxRepo outbox.Repository,
	sessions *session.Provider,
	rewardCfg *config.RewardConfig,
	accountCfg *config.AccountConfig,
) RewardService {
	return &RewardServiceImpl{
		pgDB:        pgDB,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		sessions:    sessions,
		rewardCfg:   rewardCfg,
		accountCfg:  accountCfg,
		logger:      logger,
	}
}

// GrantReward credits a random scratch-card bonus. The balance increment and
// the queued credit ledger record commit atomically, same as a transfer.
func (s *RewardServiceImpl) GrantReward(ctx context.Context, accountID uuid.UUID, correlationID string) (int64, int64, error) {
	logger := s.logger
	if correlationID != "" {
		logger = s.logger.With("correlation_id", correlationID)
	}

	amount := s.rewardCfg.MinAmount
	if span := s.rewardCfg.MaxAmount - s.rewardCfg.MinAmount; span > 0 {
		amount += rand.Int64N(span + 1)
	}

	var newBalance int64
	err := s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accountRepoTx := s.accountRepo.WithTx(tx)

		acc, txErr := accountRepoTx.LockForUpdate(ctx, accountID)
		if txErr != nil {
			return txErr
		}

		newBalance, txErr = accountRepoTx.AdjustBalance(ctx, accountID, amount, false)
		if txErr != nil {
			return txErr
		}

		entry := &ledger.Entry{
			ID:            uuid.New(),
			TransferID:    uuid.New(),
			AccountID:     accountID,
			Direction:     shared.DirectionCredit,
			Amount:        amount,
			Currency:      acc.Currency,
			PayerAddress:  "rewards@" + s.accountCfg.AddressHost,
			PayerName:     "PayFast Rewards",
			PayeeAddress:  acc.Address,
			PayeeName:     acc.DisplayName,
			Note:          "Scratch card reward",
			CorrelationID: correlationID,
			Status:        shared.TransferStatusProcessing,
			CreatedAt:     time.Now(),
		}

		message, txErr := outbox.NewMessage(entry)
		if txErr != nil {
			return fmt.Errorf("failed to create reward outbox message payload: %w", txErr)
		}

		return s.outboxRepo.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		logger.Error("Failed to grant reward", "account_id", accountID.String(), "error", err)
		return 0, 0, err
	}

	s.sessions.Notify(ctx, accountID)
	metrics.RecordRewardGranted()

	logger.Info("Reward granted",
		"account_id", accountID.String(),
		"amount", amount,
		"balance", newBalance,
	)

	return amount, newBalance, nil
}
