package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/tokensale/internal/domain"
	"github.com/efreitasn/tokensale/internal/service"
)

// WebhookHandler handles HTTP requests for webhook endpoints.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// upsertWebhookRequest is the JSON request body for POST /webhooks.
type upsertWebhookRequest struct {
	Creator string   `json:"creator"`
	URL     string   `json:"url"`
	Events  []string `json:"events"`
}

// webhookResponse is a single webhook in JSON responses.
type webhookResponse struct {
	WebhookID string `json:"webhook_id"`
	Creator   string `json:"creator"`
	Event     string `json:"event"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toWebhookResponse(w *domain.Webhook) webhookResponse {
	return webhookResponse{
		WebhookID: w.WebhookID,
		Creator:   w.Creator.Hex(),
		Event:     w.Event,
		URL:       w.URL,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

// Upsert handles POST /webhooks.
func (h *WebhookHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertWebhookRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	creator, ok := parseAddress(w, "creator", req.Creator)
	if !ok {
		return
	}

	webhooks, anyCreated, err := h.webhookSvc.Upsert(service.UpsertWebhookRequest{
		Creator: creator,
		URL:     req.URL,
		Events:  req.Events,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	status := http.StatusOK
	if anyCreated {
		status = http.StatusCreated
	}
	out := make([]webhookResponse, 0, len(webhooks))
	for _, wh := range webhooks {
		out = append(out, toWebhookResponse(wh))
	}
	WriteJSON(w, status, out)
}

// List handles GET /webhooks?creator=.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	creator, ok := parseAddress(w, "creator", r.URL.Query().Get("creator"))
	if !ok {
		return
	}
	webhooks := h.webhookSvc.List(creator)
	out := make([]webhookResponse, 0, len(webhooks))
	for _, wh := range webhooks {
		out = append(out, toWebhookResponse(wh))
	}
	WriteJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /webhooks/{webhook_id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.webhookSvc.Delete(chi.URLParam(r, "webhook_id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
