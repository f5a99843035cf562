// Package directory resolves payment addresses to accounts. Absence is a
// valid outcome: an address that matches no account resolves to a synthetic
// placeholder so callers can implement pay-to-unregistered-address semantics.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/account"
)

// Resolution is the outcome of a lookup. When Resolved is false the
// DisplayName is derived from the address local-part and AccountID is nil.
type Resolution struct {
	Resolved    bool
	AccountID   uuid.UUID
	Address     string
	DisplayName string
	AvatarURL   string
}

// Resolver maps payment addresses onto accounts
type Resolver interface {
	Resolve(ctx context.Context, address string) (*Resolution, error)
}

// Service implements Resolver against the account repository. Lookups are
// read-only and never create accounts.
type Service struct {
	accounts account.Repository
	logger   *slog.Logger
}

func NewService(logger *slog.Logger, accounts account.Repository) *Service {
	return &Service{
		accounts: accounts,
		logger:   logger,
	}
}

// Resolve returns the account carrying the address, or a placeholder when no
// account does. Only transport errors fail the caller; "not found" does not.
func (s *Service) Resolve(ctx context.Context, address string) (*Resolution, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if err := account.ValidateAddress(address); err != nil {
		return nil, err
	}

	acc, err := s.accounts.GetByAddress(ctx, address)
	if err != nil {
		s.logger.Error("Directory lookup failed", "address", address, "error", err)
		return nil, fmt.Errorf("failed to resolve address %s: %w", address, err)
	}

	if acc == nil {
		s.logger.Debug("Address did not resolve to an account", "address", address)
		return &Resolution{
			Resolved:    false,
			Address:     address,
			DisplayName: account.LocalPart(address),
		}, nil
	}

	return &Resolution{
		Resolved:    true,
		AccountID:   acc.ID,
		Address:     acc.Address,
		DisplayName: acc.DisplayName,
		AvatarURL:   acc.AvatarURL,
	}, nil
}

// WithRepository returns a Service bound to a different repository, typically
// one wrapped in an open transaction for execution-time re-resolution.
func (s *Service) WithRepository(accounts account.Repository) *Service {
	return &Service{
		accounts: accounts,
		logger:   s.logger,
	}
}
