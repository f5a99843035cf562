package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/api_gateway/service"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/domain/transfer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) InitiateTransfer(ctx context.Context, input service.TransferInput) (*transfer.Transfer, *ledger.Entry, error) {
	args := m.Called(ctx, input)
	var t *transfer.Transfer
	if args.Get(0) != nil {
		t = args.Get(0).(*transfer.Transfer)
	}
	var entry *ledger.Entry
	if args.Get(1) != nil {
		entry = args.Get(1).(*ledger.Entry)
	}
	return t, entry, args.Error(2)
}

func (m *MockTransferService) GetTransferByID(ctx context.Context, transferID uuid.UUID) ([]*ledger.Entry, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockTransferService) GetTransfersByAccountID(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func validTransferBody(payerID uuid.UUID) []byte {
	body, _ := json.Marshal(CreateTransferRequest{
		PayerID:      payerID.String(),
		PayeeAddress: "bob@payfast",
		Amount:       decimal.NewFromFloat(25.00),
		Currency:     "USD",
		Note:         "lunch",
		PIN:          "1234",
	})
	return body
}

func postTransfer(router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/transfers", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestTransferHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Accepted", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		payerID := uuid.New()
		accepted := transfer.New(payerID, "alice@payfast", "Alice", "bob@payfast", 2500, "USD", "lunch")
		accepted.State = transfer.StateExecuting
		accepted.IdempotencyKey = uuid.New().String()

		mockService.On("InitiateTransfer", mock.Anything, mock.MatchedBy(func(input service.TransferInput) bool {
			return input.PayerID == payerID &&
				input.PayeeAddress == "bob@payfast" &&
				input.Amount == int64(2500) &&
				input.PIN == "1234"
		})).Return(accepted, nil, nil)

		router := setupTestRouter()
		router.POST("/transfers", handler.Create)

		rr := postTransfer(router, validTransferBody(payerID))

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var responseBody map[string]string
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, accepted.ID.String(), responseBody["transfer_id"])
		assert.Equal(t, string(transfer.StateExecuting), responseBody["state"])
		assert.Equal(t, accepted.IdempotencyKey, responseBody["idempotency_key"])

		mockService.AssertExpectations(t)
	})

	t.Run("IdempotentReplayReturnsRecordedEntry", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		payerID := uuid.New()
		replayed := transfer.New(payerID, "alice@payfast", "Alice", "bob@payfast", 2500, "USD", "lunch")
		existing := &ledger.Entry{
			ID:         uuid.New(),
			TransferID: uuid.New(),
			AccountID:  payerID,
			Direction:  shared.DirectionDebit,
			Amount:     2500,
			Currency:   "USD",
			Status:     shared.TransferStatusCompleted,
			CreatedAt:  time.Now(),
		}

		mockService.On("InitiateTransfer", mock.Anything, mock.Anything).Return(replayed, existing, nil)

		router := setupTestRouter()
		router.POST("/transfers", handler.Create)

		rr := postTransfer(router, validTransferBody(payerID))

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody TransferEntryResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, existing.TransferID.String(), responseBody.TransferID)
		assert.Equal(t, "25.00", responseBody.Amount)
		assert.Equal(t, string(shared.TransferStatusCompleted), responseBody.Status)
	})

	t.Run("FractionalMinorUnitsRejected", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/transfers", handler.Create)

		body, _ := json.Marshal(CreateTransferRequest{
			PayerID:      uuid.New().String(),
			PayeeAddress: "bob@payfast",
			Amount:       decimal.RequireFromString("25.005"),
			PIN:          "1234",
		})
		rr := postTransfer(router, body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "InitiateTransfer")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/transfers", handler.Create)

		rr := postTransfer(router, []byte(`{"invalid`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "InitiateTransfer")
	})

	t.Run("ErrorMapping", func(t *testing.T) {
		payerID := uuid.New()
		testCases := []struct {
			name         string
			serviceErr   error
			expectedCode int
		}{
			{"PayerNotFound", account.ErrAccountNotFound{AccountID: payerID}, http.StatusNotFound},
			{"WrongPIN", transfer.ErrNotAuthorized, http.StatusUnauthorized},
			{"OverBalance", transfer.ErrAmountOverBalance, http.StatusUnprocessableEntity},
			{"SelfTransfer", transfer.ErrSelfTransfer, http.StatusBadRequest},
			{"EmptyPayee", shared.ErrEmptyPayeeAddress, http.StatusBadRequest},
			{"InvalidPayeeAddress", account.ErrInvalidAddress, http.StatusBadRequest},
			{"Unexpected", errors.New("kafka unavailable"), http.StatusInternalServerError},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				mockService := new(MockTransferService)
				handler := NewTransferHandler(logger, mockService)

				mockService.On("InitiateTransfer", mock.Anything, mock.Anything).Return(nil, nil, tc.serviceErr)

				router := setupTestRouter()
				router.POST("/transfers", handler.Create)

				rr := postTransfer(router, validTransferBody(payerID))
				assert.Equal(t, tc.expectedCode, rr.Code)
			})
		}
	})
}

func TestTransferHandler_GetByID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		transferID := uuid.New()
		now := time.Now()
		entries := []*ledger.Entry{
			{
				ID:         uuid.New(),
				TransferID: transferID,
				AccountID:  uuid.New(),
				Direction:  shared.DirectionDebit,
				Amount:     2500,
				Currency:   "USD",
				Status:     shared.TransferStatusCompleted,
				CreatedAt:  now,
			},
			{
				ID:         uuid.New(),
				TransferID: transferID,
				AccountID:  uuid.New(),
				Direction:  shared.DirectionCredit,
				Amount:     2500,
				Currency:   "USD",
				Status:     shared.TransferStatusCompleted,
				CreatedAt:  now,
			},
		}
		mockService.On("GetTransferByID", mock.Anything, transferID).Return(entries, nil)

		router := setupTestRouter()
		router.GET("/transfers/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transfers/"+transferID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody struct {
			TransferID string                  `json:"transfer_id"`
			Status     string                  `json:"status"`
			Reference  string                  `json:"reference"`
			Entries    []TransferEntryResponse `json:"entries"`
		}
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, transferID.String(), responseBody.TransferID)
		assert.Equal(t, string(shared.TransferStatusCompleted), responseBody.Status)
		require.Len(t, responseBody.Entries, 2)
		assert.Equal(t, entries[0].Reference(), responseBody.Reference)
	})

	t.Run("DisagreeingSidesReportProcessing", func(t *testing.T) {
		// The credit side publishes independently of the debit side, so one
		// can reach the ledger store before the other.
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		transferID := uuid.New()
		entries := []*ledger.Entry{
			{TransferID: transferID, Direction: shared.DirectionDebit, Status: shared.TransferStatusCompleted},
			{TransferID: transferID, Direction: shared.DirectionCredit, Status: shared.TransferStatusProcessing},
		}
		mockService.On("GetTransferByID", mock.Anything, transferID).Return(entries, nil)

		router := setupTestRouter()
		router.GET("/transfers/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transfers/"+transferID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody struct {
			Status string `json:"status"`
		}
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, string(shared.TransferStatusProcessing), responseBody.Status)
	})

	t.Run("AnyFailedSideReportsFailed", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		transferID := uuid.New()
		entries := []*ledger.Entry{
			{TransferID: transferID, Direction: shared.DirectionDebit, Status: shared.TransferStatusFailed},
			{TransferID: transferID, Direction: shared.DirectionCredit, Status: shared.TransferStatusCompleted},
		}
		mockService.On("GetTransferByID", mock.Anything, transferID).Return(entries, nil)

		router := setupTestRouter()
		router.GET("/transfers/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transfers/"+transferID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var responseBody struct {
			Status string `json:"status"`
		}
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, string(shared.TransferStatusFailed), responseBody.Status)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/transfers/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transfers/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetTransferByID")
	})

	t.Run("NotRecordedYet", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		transferID := uuid.New()
		mockService.On("GetTransferByID", mock.Anything, transferID).Return(nil, nil)

		router := setupTestRouter()
		router.GET("/transfers/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transfers/"+transferID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		transferID := uuid.New()
		mockService.On("GetTransferByID", mock.Anything, transferID).Return(nil, errors.New("mongo down"))

		router := setupTestRouter()
		router.GET("/transfers/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/transfers/"+transferID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestTransferHandler_GetByAccountID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("PaginatedHistory", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		accountID := uuid.New()
		entries := []*ledger.Entry{
			{
				ID:         uuid.New(),
				TransferID: uuid.New(),
				AccountID:  accountID,
				Direction:  shared.DirectionDebit,
				Amount:     2500,
				Currency:   "USD",
				Status:     shared.TransferStatusCompleted,
				CreatedAt:  time.Now(),
			},
		}
		mockService.On("GetTransfersByAccountID", mock.Anything, accountID, 2, 5).Return(entries, int64(11), nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/transfers?page=2&per_page=5", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevel Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevel))
		require.NotNil(t, topLevel.Meta)
		assert.Equal(t, 2, topLevel.Meta.Page)
		assert.Equal(t, 5, topLevel.Meta.PerPage)
		assert.Equal(t, 11, topLevel.Meta.TotalItems)
		assert.Equal(t, 3, topLevel.Meta.TotalPages)
	})

	t.Run("DefaultPagination", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("GetTransfersByAccountID", mock.Anything, accountID, 1, 10).Return([]*ledger.Entry{}, int64(0), nil)

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/transfers", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidPagination", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		accountID := uuid.New()

		router := setupTestRouter()
		router.GET("/accounts/:id/transfers", handler.GetByAccountID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+accountID.String()+"/transfers?page=0", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetTransfersByAccountID")
	})
}

var _ service.TransferService = (*MockTransferService)(nil)
