package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/efreitasn/tokensale/internal/domain"
	"github.com/efreitasn/tokensale/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	"order.placed":       true,
	"order.terminated":   true,
	"transfer.attempted": true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Creator common.Address
	URL     string
	Events  []string
}

// WebhookService handles webhook CRUD and event dispatch.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(webhookStore *store.WebhookStore, timeout time.Duration) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upsert validates the request and creates or updates webhook subscriptions.
// Returns the resulting webhooks, whether any new subscriptions were
// created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: order.placed, order.terminated, transfer.attempted",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			Creator:   req.Creator,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if s.store.Upsert(w) {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else if existing := s.store.GetByCreatorEvent(req.Creator, event); existing != nil {
			webhooks = append(webhooks, existing)
		}
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions for a creator.
func (s *WebhookService) List(creator common.Address) []*domain.Webhook {
	return s.store.ListByCreator(creator)
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// eventPayload is the JSON envelope for all webhook notifications.
type eventPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

type orderPlacedData struct {
	Creator string `json:"creator"`
	Amount  int64  `json:"amount"`
	Price   int64  `json:"price"`
}

type orderTerminatedData struct {
	Creator      string `json:"creator"`
	FilledAmount int64  `json:"filled_amount"`
}

type transferAttemptedData struct {
	To    string `json:"to"`
	Value int64  `json:"value"`
	Kind  string `json:"kind"`
	OK    bool   `json:"ok"`
}

// DispatchOrderPlaced notifies the creator that their order was placed.
// Fire-and-forget — errors are silently ignored.
func (s *WebhookService) DispatchOrderPlaced(creator common.Address, amount, price int64) {
	s.dispatch(creator, "order.placed", orderPlacedData{
		Creator: creator.Hex(),
		Amount:  amount,
		Price:   price,
	})
}

// DispatchOrderTerminated notifies the creator that their order was
// terminated. Fire-and-forget.
func (s *WebhookService) DispatchOrderTerminated(creator common.Address, filledAmount int64) {
	s.dispatch(creator, "order.terminated", orderTerminatedData{
		Creator:      creator.Hex(),
		FilledAmount: filledAmount,
	})
}

// DispatchTransferAttempted notifies the recipient of an attempted outbound
// transfer and its outcome. Fire-and-forget.
func (s *WebhookService) DispatchTransferAttempted(to common.Address, value int64, kind string, ok bool) {
	s.dispatch(to, "transfer.attempted", transferAttemptedData{
		To:    to.Hex(),
		Value: value,
		Kind:  kind,
		OK:    ok,
	})
}

func (s *WebhookService) dispatch(creator common.Address, event string, data any) {
	wh := s.store.GetByCreatorEvent(creator, event)
	if wh == nil {
		return
	}
	payload := eventPayload{
		Event:     event,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data:      data,
	}
	go s.deliver(wh, event, payload)
}

// deliver sends the webhook payload via HTTP POST with the required headers.
// Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

var _ EventDispatcher = (*WebhookService)(nil)
