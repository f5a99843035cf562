package account

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds for debit")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrEmptyDisplayName  = errors.New("display name cannot be empty")
	ErrInvalidAddress    = errors.New("payment address must be of the form local@host")
	ErrInvalidPIN        = errors.New("pin must be 4 digits")
)

// Account represents a payment account addressed by a unique payment address (VPA)
type Account struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Address     string    `json:"address"` // Unique payment address, e.g. alice@payfast
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Balance     int64     `json:"balance"` // Stored in minor units, never negative
	Currency    string    `json:"currency"`
	PINHash     string    `json:"-"` // SHA-256 of the 4-digit transfer PIN
	Version     int       `json:"version"` // For optimistic locking
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAccount creates a new account with the given parameters. The initial
// balance is the signup bonus and must not be negative.
func NewAccount(displayName, address, pin string, initialBalance int64, currency string) (*Account, error) {
	if displayName == "" {
		return nil, ErrEmptyDisplayName
	}
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if initialBalance < 0 {
		return nil, ErrInvalidAmount
	}
	pinHash, err := hashPIN(pin)
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:          uuid.New(),
		DisplayName: displayName,
		Address:     strings.ToLower(address),
		Balance:     initialBalance,
		Currency:    currency,
		PINHash:     pinHash,
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

// ValidateAddress checks the local@host shape of a payment address
func ValidateAddress(address string) error {
	local, host, found := strings.Cut(address, "@")
	if !found || local == "" || host == "" {
		return ErrInvalidAddress
	}
	return nil
}

// LocalPart returns the portion of a payment address before the '@'.
// Used as the placeholder display name for unresolved addresses.
func LocalPart(address string) string {
	local, _, _ := strings.Cut(address, "@")
	return local
}

// Credit adds the specified amount to the account balance
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Debit subtracts the specified amount from the account balance.
// The sufficient-funds check and the decrement are a single step on the
// in-memory model; callers hold the row lock while persisting the result.
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// CanDebit checks if the account has sufficient funds for a debit.
// Advisory only: the authoritative check happens under the row lock.
func (a *Account) CanDebit(amount int64) bool {
	return a.Balance >= amount
}

// VerifyPIN compares the supplied PIN against the stored hash in constant time
func (a *Account) VerifyPIN(pin string) bool {
	hash, err := hashPIN(pin)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(a.PINHash)) == 1
}

func hashPIN(pin string) (string, error) {
	if len(pin) != 4 {
		return "", ErrInvalidPIN
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return "", ErrInvalidPIN
		}
	}
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:]), nil
}
