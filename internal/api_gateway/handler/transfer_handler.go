package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/api_gateway/middleware"
	"github.com/payfast/payfast-core/internal/api_gateway/service"
	"github.com/payfast/payfast-core/internal/domain/account"
	"github.com/payfast/payfast-core/internal/domain/ledger"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/payfast/payfast-core/internal/domain/transfer"
)

// TransferHandler handles HTTP requests for transfer operations
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Create initiates a new transfer with PIN authorization and idempotency support
func (h *TransferHandler) Create(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		h.logger.Error("Invalid payer ID", "payer_id", req.PayerID, "error", err)
		RespondBadRequest(c, "Invalid payer ID")
		return
	}

	amount, err := toMinorUnits(req.Amount)
	if err != nil {
		h.logger.Error("Invalid transfer amount", "amount", req.Amount.String(), "error", err)
		RespondBadRequest(c, err.Error())
		return
	}

	t, existingEntry, err := h.transferService.InitiateTransfer(c.Request.Context(), service.TransferInput{
		PayerID:        payerID,
		PayeeAddress:   req.PayeeAddress,
		Amount:         amount,
		Currency:       req.Currency,
		Note:           req.Note,
		PIN:            req.PIN,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondTransferError(c, err)
		return
	}
	if existingEntry != nil {
		RespondOK(c, mapLedgerEntryToResponse(existingEntry))
		return
	}

	RespondAccepted(c, gin.H{
		"transfer_id":     t.ID.String(),
		"state":           string(t.State),
		"idempotency_key": t.IdempotencyKey,
	})
}

// GetByID retrieves transfer details by its ID, returns 404 if not recorded yet
func (h *TransferHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transfer ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transfer ID")
		return
	}

	entries, err := h.transferService.GetTransferByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get transfer", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if len(entries) == 0 {
		RespondNotFound(c, "Transfer not found")
		return
	}

	sides := make([]TransferEntryResponse, 0, len(entries))
	for _, entry := range entries {
		sides = append(sides, mapLedgerEntryToResponse(entry))
	}

	RespondOK(c, gin.H{
		"transfer_id": id.String(),
		"status":      string(aggregateStatus(entries)),
		"reference":   sides[0].Reference,
		"entries":     sides,
	})
}

// aggregateStatus folds the per-side statuses into one transfer-level status.
// The two sides publish independently, so they can transiently disagree: any
// FAILED side fails the transfer, a disagreement means it is still being
// processed.
func aggregateStatus(entries []*ledger.Entry) shared.TransferStatus {
	status := entries[0].Status
	for _, entry := range entries[1:] {
		if status == shared.TransferStatusFailed || entry.Status == shared.TransferStatusFailed {
			return shared.TransferStatusFailed
		}
		if entry.Status != status {
			status = shared.TransferStatusProcessing
		}
	}
	return status
}

// GetByAccountID retrieves paginated transfer history for an account
func (h *TransferHandler) GetByAccountID(c *gin.Context) {
	accountIDParam := c.Param("id")
	accountID, err := uuid.Parse(accountIDParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "account_id", accountIDParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.transferService.GetTransfersByAccountID(
		c.Request.Context(),
		accountID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to get transfers", "account_id", accountIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	var transfers []TransferEntryResponse
	for _, entry := range entries {
		transfers = append(transfers, mapLedgerEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, transfers, pagination.Page, pagination.PerPage, int(total))
}

func (h *TransferHandler) respondTransferError(c *gin.Context, err error) {
	var accNotFound account.ErrAccountNotFound
	switch {
	case errors.As(err, &accNotFound):
		RespondNotFound(c, "Payer account not found")
	case errors.Is(err, transfer.ErrNotAuthorized):
		RespondUnauthorized(c, "Invalid PIN")
	case errors.Is(err, transfer.ErrAmountOverBalance):
		RespondUnprocessable(c, err.Error())
	case errors.Is(err, transfer.ErrAmountNotPositive),
		errors.Is(err, transfer.ErrSelfTransfer),
		errors.Is(err, shared.ErrEmptyPayeeAddress),
		errors.Is(err, account.ErrInvalidAddress):
		RespondBadRequest(c, err.Error())
	default:
		h.logger.Error("Failed to initiate transfer", "error", err)
		RespondInternalError(c)
	}
}

// mapLedgerEntryToResponse maps a ledger entry to a transfer response DTO
func mapLedgerEntryToResponse(entry *ledger.Entry) TransferEntryResponse {
	response := TransferEntryResponse{
		TransferID:    entry.TransferID.String(),
		AccountID:     entry.AccountID.String(),
		Direction:     string(entry.Direction),
		Amount:        fromMinorUnits(entry.Amount),
		Currency:      entry.Currency,
		PayerAddress:  entry.PayerAddress,
		PayerName:     entry.PayerName,
		PayeeAddress:  entry.PayeeAddress,
		PayeeName:     entry.PayeeName,
		Note:          entry.Note,
		Reference:     entry.Reference(),
		Status:        string(entry.Status),
		FailureReason: entry.FailureReason,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}

	if entry.ProcessedAt != nil {
		response.ProcessedAt = entry.ProcessedAt.Format(time.RFC3339)
	}

	return response
}
