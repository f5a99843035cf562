package components

import (
	"log/slog"

	"github.com/payfast/payfast-core/internal/config"
	"github.com/payfast/payfast-core/internal/directory"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/outbox"
	"github.com/payfast/payfast-core/internal/platform/persistence"
	"github.com/payfast/payfast-core/internal/session"
	"github.com/payfast/payfast-core/internal/transfer_processor/service"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	pgDB *persistence.PostgresDB,
	accountRepo account.Repository,
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	dir *directory.Service,
	sessions *session.Provider,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewTransferValidator(ledgerRepo, outboxRepo, logger)
	balanceManager := NewBalanceManager(accountRepo, dir, logger)
	ledgerRecorder := NewLedgerRecorder(outboxRepo, logger)
	failureRecorder := NewFailureRecorder(ledgerRepo, logger)

	baseService := service.NewProcessingService(
		pgDB,
		validator,
		balanceManager,
		ledgerRecorder,
		failureRecorder,
		sessions,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
