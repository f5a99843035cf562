// Package session supplies the authenticated actor's account snapshot and a
// subscription mechanism for change notification. It replaces ambient global
// auth state with an explicit provider passed to whatever needs it.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/account"
)

// Snapshot is a read-only view of an account at a point in time
type Snapshot struct {
	AccountID   uuid.UUID `json:"account_id"`
	Address     string    `json:"address"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Balance     int64     `json:"balance"`
	Currency    string    `json:"currency"`
}

// Listener receives updated snapshots when the underlying account changes
type Listener func(Snapshot)

// Provider serves account snapshots and fans out change notifications.
// Mutating components call Notify after a committed balance change.
type Provider struct {
	accounts account.Repository
	logger   *slog.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[uuid.UUID]map[int]Listener
}

func NewProvider(logger *slog.Logger, accounts account.Repository) *Provider {
	return &Provider{
		accounts: accounts,
		logger:   logger,
		subs:     make(map[uuid.UUID]map[int]Listener),
	}
}

// Current fetches the latest snapshot for an account
func (p *Provider) Current(ctx context.Context, accountID uuid.UUID) (*Snapshot, error) {
	acc, err := p.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(acc), nil
}

// Subscribe registers a listener for account changes and returns a cancel
// function. Listeners are invoked synchronously from Notify.
func (p *Provider) Subscribe(accountID uuid.UUID, fn Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	if p.subs[accountID] == nil {
		p.subs[accountID] = make(map[int]Listener)
	}
	p.subs[accountID][id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs[accountID], id)
		if len(p.subs[accountID]) == 0 {
			delete(p.subs, accountID)
		}
	}
}

// Notify fetches the current account state and pushes it to subscribers.
// A fetch failure is logged, not propagated: notification is best-effort and
// must never fail the mutation that triggered it.
func (p *Provider) Notify(ctx context.Context, accountID uuid.UUID) {
	p.mu.RLock()
	listeners := make([]Listener, 0, len(p.subs[accountID]))
	for _, fn := range p.subs[accountID] {
		listeners = append(listeners, fn)
	}
	p.mu.RUnlock()

	if len(listeners) == 0 {
		return
	}

	acc, err := p.accounts.GetByID(ctx, accountID)
	if err != nil {
		p.logger.Error("Failed to load account for change notification", "account_id", accountID.String(), "error", err)
		return
	}

	snap := *snapshotOf(acc)
	for _, fn := range listeners {
		fn(snap)
	}
}

func snapshotOf(acc *account.Account) *Snapshot {
	return &Snapshot{
		AccountID:   acc.ID,
		Address:     acc.Address,
		DisplayName: acc.DisplayName,
		AvatarURL:   acc.AvatarURL,
		Balance:     acc.Balance,
		Currency:    acc.Currency,
	}
}
