package service

import (
	"context"
	"errors"
	"testing"

	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newServiceUnderTest wires the processing service with mocks. The database
// handle stays nil: the covered paths return before a transaction begins.
func newServiceUnderTest() (*MockTransferValidator, *MockFailureRecorder, ProcessingService) {
	validator := new(MockTransferValidator)
	balanceManager := new(MockBalanceManager)
	ledgerRecorder := new(MockLedgerRecorder)
	failureRecorder := new(MockFailureRecorder)
	sessions := session.NewProvider(newTestLogger(), nil)

	svc := NewProcessingService(nil, validator, balanceManager, ledgerRecorder, failureRecorder, sessions, newTestLogger())
	return validator, failureRecorder, svc
}

func TestProcessingService_ProcessTransfer_ValidationFailure(t *testing.T) {
	testCases := []struct {
		name           string
		validationErr  error
		expectedReason string
	}{
		{"EmptyPayeeAddress", shared.ErrEmptyPayeeAddress, string(shared.FailureReasonEmptyPayeeAddress)},
		{"MalformedAddress", account.ErrInvalidAddress, string(shared.FailureReasonMalformedPayeeAddress)},
		{"SelfTransfer", shared.ErrSelfTransfer, string(shared.FailureReasonSelfTransfer)},
		{"InvalidAmount", errors.New("amount must be positive: 0"), string(shared.FailureReasonInvalidAmount)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			validator, failureRecorder, svc := newServiceUnderTest()
			request := newTestRequest()

			validator.On("Validate", mock.Anything, request).Return(tc.validationErr)
			failureRecorder.On("RecordFailure", mock.Anything, request, tc.expectedReason).Return(nil)

			err := svc.ProcessTransfer(context.Background(), request)

			// Business failures are acknowledged, not retried
			assert.NoError(t, err)
			failureRecorder.AssertExpectations(t)
			validator.AssertNotCalled(t, "CheckIdempotency")
		})
	}
}

func TestProcessingService_ProcessTransfer_Idempotency(t *testing.T) {
	t.Run("AlreadyProcessedSkips", func(t *testing.T) {
		validator, failureRecorder, svc := newServiceUnderTest()
		request := newTestRequest()

		validator.On("Validate", mock.Anything, request).Return(nil)
		validator.On("CheckIdempotency", mock.Anything, request).Return(true, nil)

		err := svc.ProcessTransfer(context.Background(), request)
		assert.NoError(t, err)
		failureRecorder.AssertNotCalled(t, "RecordFailure")
	})

	t.Run("CheckFailureIsRetried", func(t *testing.T) {
		validator, failureRecorder, svc := newServiceUnderTest()
		request := newTestRequest()

		validator.On("Validate", mock.Anything, request).Return(nil)
		validator.On("CheckIdempotency", mock.Anything, request).Return(false, errors.New("mongo down"))

		err := svc.ProcessTransfer(context.Background(), request)

		// Transient errors propagate so the message is redelivered
		require.Error(t, err)
		failureRecorder.AssertNotCalled(t, "RecordFailure")
	})
}

func TestValidationFailureReason(t *testing.T) {
	assert.Equal(t, string(shared.FailureReasonEmptyPayeeAddress), validationFailureReason(shared.ErrEmptyPayeeAddress))
	assert.Equal(t, string(shared.FailureReasonMalformedPayeeAddress), validationFailureReason(account.ErrInvalidAddress))
	assert.Equal(t, string(shared.FailureReasonSelfTransfer), validationFailureReason(shared.ErrSelfTransfer))
	assert.Equal(t, string(shared.FailureReasonInvalidAmount), validationFailureReason(errors.New("anything else")))
}

func TestExecutionFailureReason(t *testing.T) {
	request := newTestRequest()

	testCases := []struct {
		name             string
		err              error
		expectedReason   string
		expectedTerminal bool
	}{
		{"PayerNotFound", account.ErrAccountNotFound{AccountID: request.PayerID}, string(shared.FailureReasonPayerNotFound), true},
		{"SelfTransfer", shared.ErrSelfTransfer, string(shared.FailureReasonSelfTransfer), true},
		{"CurrencyMismatch", shared.ErrInvalidCurrency, string(shared.FailureReasonCurrencyMismatch), true},
		{"InsufficientBalance", account.ErrInsufficientBalance{AccountID: request.PayerID}, string(shared.FailureReasonInsufficientFunds), true},
		{"InsufficientFunds", account.ErrInsufficientFunds, string(shared.FailureReasonInsufficientFunds), true},
		{"InvalidAmount", account.ErrInvalidAmount, string(shared.FailureReasonInvalidAmount), true},
		{"TransientError", errors.New("connection reset"), "", false},
		{"OtherAccountNotFound", account.ErrAccountNotFound{AccountID: request.TransferID}, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reason, terminal := executionFailureReason(request, tc.err)
			assert.Equal(t, tc.expectedReason, reason)
			assert.Equal(t, tc.expectedTerminal, terminal)
		})
	}
}
