package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRequest() *shared.TransferRequest {
	return &shared.TransferRequest{
		TransferID:     uuid.New(),
		PayerID:        uuid.New(),
		PayerAddress:   "alice@payfast",
		PayerName:      "Alice",
		PayeeAddress:   "bob@payfast",
		Amount:         2500,
		Currency:       "USD",
		IdempotencyKey: uuid.New().String(),
		CorrelationID:  uuid.New().String(),
		Timestamp:      time.Now(),
	}
}

type MockTransferValidator struct {
	mock.Mock
}

func (m *MockTransferValidator) Validate(ctx context.Context, request *shared.TransferRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockTransferValidator) CheckIdempotency(ctx context.Context, request *shared.TransferRequest) (bool, error) {
	args := m.Called(ctx, request)
	return args.Bool(0), args.Error(1)
}

type MockBalanceManager struct {
	mock.Mock
}

func (m *MockBalanceManager) ExecuteTransfer(ctx context.Context, tx pgx.Tx, request *shared.TransferRequest) (*TransferOutcome, error) {
	args := m.Called(ctx, tx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TransferOutcome), args.Error(1)
}

type MockLedgerRecorder struct {
	mock.Mock
}

func (m *MockLedgerRecorder) QueueRecords(ctx context.Context, tx pgx.Tx, request *shared.TransferRequest, outcome *TransferOutcome) error {
	args := m.Called(ctx, tx, request, outcome)
	return args.Error(0)
}

type MockFailureRecorder struct {
	mock.Mock
}

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, request *shared.TransferRequest, failureReason string) error {
	args := m.Called(ctx, request, failureReason)
	return args.Error(0)
}

type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessTransfer(ctx context.Context, request *shared.TransferRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}
