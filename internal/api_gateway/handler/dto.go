package handler

import (
	"errors"

	"github.com/shopspring/decimal"
)

var errFractionalMinorUnits = errors.New("amount has more precision than the currency supports")

// CreateAccountRequest represents a request to open a new account. The
// address is optional; a missing one is generated from the display name.
type CreateAccountRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Address     string `json:"address,omitempty"`
	PIN         string `json:"pin" binding:"required,len=4,numeric"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

// AccountResponse represents an account in API responses. The balance is
// rendered in major units with two decimal places.
type AccountResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Address     string `json:"address"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Balance     string `json:"balance"`
	Currency    string `json:"currency"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// CreateTransferRequest represents a request to initiate a transfer. The
// amount is a decimal in major units and must land on a whole minor unit.
type CreateTransferRequest struct {
	PayerID        string          `json:"payer_id" binding:"required,uuid"`
	PayeeAddress   string          `json:"payee_address" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency,omitempty"`
	Note           string          `json:"note,omitempty"`
	PIN            string          `json:"pin" binding:"required,len=4,numeric"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// TransferEntryResponse represents one side of a transfer in API responses
type TransferEntryResponse struct {
	TransferID    string `json:"transfer_id"`
	AccountID     string `json:"account_id"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PayerAddress  string `json:"payer_address"`
	PayerName     string `json:"payer_name"`
	PayeeAddress  string `json:"payee_address"`
	PayeeName     string `json:"payee_name"`
	Note          string `json:"note,omitempty"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

// DirectoryResponse represents the outcome of a payment address lookup
type DirectoryResponse struct {
	Resolved    bool   `json:"resolved"`
	AccountID   string `json:"account_id,omitempty"`
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// RewardResponse represents a granted scratch-card bonus
type RewardResponse struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// toMinorUnits converts a major-unit decimal amount into int64 minor units
func toMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return 0, errFractionalMinorUnits
	}
	return minor.IntPart(), nil
}

// fromMinorUnits renders int64 minor units as a fixed two-decimal string
func fromMinorUnits(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}
