package store

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/tokensale/internal/domain"
)

// account tracks one address's balances on the in-memory ledger.
type account struct {
	currency       int64
	assets         int64
	refusePayments bool
	refuseAssets   bool
}

// AccountStore is a thread-safe in-memory ledger implementing both the
// payment and the asset backend. Each address can be toggled to refuse
// incoming payments or asset deliveries, mirroring a buyer proxy account
// that rejects transfers; a refused transfer moves no value and surfaces as
// domain.ErrTransferRejected.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[common.Address]*account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[common.Address]*account),
	}
}

func (s *AccountStore) getOrCreate(addr common.Address) *account {
	a, ok := s.accounts[addr]
	if !ok {
		a = &account{}
		s.accounts[addr] = a
	}
	return a
}

// SendPayment credits value currency units to the account, unless the
// account currently refuses payments.
func (s *AccountStore) SendPayment(to common.Address, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.getOrCreate(to)
	if a.refusePayments {
		return domain.ErrTransferRejected
	}
	a.currency += value
	return nil
}

// TransferAsset credits amount asset units to the account, unless the
// account currently refuses asset deliveries.
func (s *AccountStore) TransferAsset(to common.Address, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.getOrCreate(to)
	if a.refuseAssets {
		return domain.ErrTransferRejected
	}
	a.assets += amount
	return nil
}

// SetAcceptsPayments toggles whether the address accepts currency transfers.
func (s *AccountStore) SetAcceptsPayments(addr common.Address, accepts bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(addr).refusePayments = !accepts
}

// SetAcceptsAssets toggles whether the address accepts asset deliveries.
func (s *AccountStore) SetAcceptsAssets(addr common.Address, accepts bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(addr).refuseAssets = !accepts
}

// Balances returns the address's currency and asset balances.
func (s *AccountStore) Balances(addr common.Address) (currency, assets int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[addr]
	if !ok {
		return 0, 0
	}
	return a.currency, a.assets
}

var (
	_ domain.PaymentBackend = (*AccountStore)(nil)
	_ domain.AssetBackend   = (*AccountStore)(nil)
)
