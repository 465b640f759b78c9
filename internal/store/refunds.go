package store

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// RefundStore is a thread-safe in-memory map of currency stuck after a
// failed push refund, keyed by creator. Balances only grow via Credit and
// are zeroed via Take once a retried push succeeds.
type RefundStore struct {
	mu      sync.RWMutex
	pending map[common.Address]int64
}

// NewRefundStore creates an empty RefundStore.
func NewRefundStore() *RefundStore {
	return &RefundStore{
		pending: make(map[common.Address]int64),
	}
}

// Credit adds value to the creator's pending refund balance.
func (s *RefundStore) Credit(creator common.Address, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[creator] += value
}

// Get returns the creator's pending refund balance.
func (s *RefundStore) Get(creator common.Address) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[creator]
}

// Take removes and returns the creator's pending refund balance. The caller
// must re-credit it if the subsequent push fails.
func (s *RefundStore) Take(creator common.Address) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.pending[creator]
	delete(s.pending, creator)
	return v
}
