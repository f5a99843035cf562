package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/config"
	"github.com/payfast/payfast-core/internal/domain/account"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	cfg         *config.AccountConfig
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo account.Repository, cfg *config.AccountConfig) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		cfg:         cfg,
	}
}

// OpenAccount provisions a new account. The opening balance is the configured
// signup bonus. A missing address is generated from the display name; a bare
// local part gets the configured host appended.
func (s *AccountServiceImpl) OpenAccount(ctx context.Context, displayName, address, pin, currency string) (*account.Account, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		address = s.generateAddress(displayName)
	} else if !strings.Contains(address, "@") {
		address = address + "@" + s.cfg.AddressHost
	}

	existingAccount, err := s.accountRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if existingAccount != nil {
		return nil, account.ErrDuplicateAddress{Address: address}
	}

	acc, err := account.NewAccount(displayName, address, pin, s.cfg.SignupBonus, currency)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// generateAddress derives a payment address from the display name with a
// short random suffix to keep it unique.
func (s *AccountServiceImpl) generateAddress(displayName string) string {
	local := strings.ToLower(strings.Join(strings.Fields(displayName), "."))
	if local == "" {
		local = "user"
	}
	suffix := uuid.New().String()[:4]
	return fmt.Sprintf("%s.%s@%s", local, suffix, s.cfg.AddressHost)
}
