package store

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/tokensale/internal/domain"
)

// WebhookStore is a thread-safe in-memory store for webhooks.
// Primary index: webhook_id → webhook.
// Secondary index: creator → event → webhook.
type WebhookStore struct {
	mu        sync.RWMutex
	webhooks  map[string]*domain.Webhook
	byCreator map[common.Address]map[string]*domain.Webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		webhooks:  make(map[string]*domain.Webhook),
		byCreator: make(map[common.Address]map[string]*domain.Webhook),
	}
}

// Upsert inserts or updates a webhook subscription keyed by (creator, event).
// If a subscription already exists for that pair, the URL and UpdatedAt are
// updated and the webhook_id remains stable. Returns true if a new
// subscription was created.
func (s *WebhookStore) Upsert(w *domain.Webhook) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if events, ok := s.byCreator[w.Creator]; ok {
		if existing, ok := events[w.Event]; ok {
			if existing.URL != w.URL {
				existing.URL = w.URL
				existing.UpdatedAt = w.UpdatedAt
			}
			return false
		}
	}

	s.webhooks[w.WebhookID] = w
	if s.byCreator[w.Creator] == nil {
		s.byCreator[w.Creator] = make(map[string]*domain.Webhook)
	}
	s.byCreator[w.Creator][w.Event] = w
	return true
}

// ListByCreator returns all webhooks for a creator.
func (s *WebhookStore) ListByCreator(creator common.Address) []*domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byCreator[creator]
	if len(events) == 0 {
		return []*domain.Webhook{}
	}
	result := make([]*domain.Webhook, 0, len(events))
	for _, w := range events {
		result = append(result, w)
	}
	return result
}

// Delete removes a webhook by ID, cleaning up both indexes. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.webhooks, id)
	if events, ok := s.byCreator[w.Creator]; ok {
		delete(events, w.Event)
		if len(events) == 0 {
			delete(s.byCreator, w.Creator)
		}
	}
	return nil
}

// GetByCreatorEvent returns the webhook for a specific creator+event pair,
// or nil if no subscription exists.
func (s *WebhookStore) GetByCreatorEvent(creator common.Address, event string) *domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byCreator[creator]
	if events == nil {
		return nil
	}
	return events[event]
}
