package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/efreitasn/tokensale/internal/service"
	"github.com/efreitasn/tokensale/internal/store"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(
	saleSvc *service.SaleService,
	webhookSvc *service.WebhookService,
	accounts *store.AccountStore,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	saleH := NewSaleHandler(saleSvc)
	adminH := NewAdminHandler(saleSvc, accounts)
	webhookH := NewWebhookHandler(webhookSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Order routes.
	r.Post("/orders", saleH.PlaceOrder)
	r.Post("/orders/presale", saleH.PlacePresaleOrder)
	r.Get("/orders/{creator}", saleH.GetOrder)
	r.Delete("/orders/{creator}", saleH.TerminateOrder)

	// Book routes.
	r.Get("/book/amount", saleH.GetBookAmount)
	r.Get("/book/check", saleH.CheckBook)
	r.Get("/stats", saleH.GetStats)

	// Refund routes.
	r.Get("/refunds/{creator}", saleH.GetPendingRefund)
	r.Post("/refunds/{creator}/claim", saleH.ClaimRefund)

	// Admin routes.
	r.Post("/admin/supply", adminH.SellMore)
	r.Put("/admin/owner", adminH.SetOwner)
	r.Post("/revenue/collect", adminH.CollectRevenue)

	// In-memory account ledger routes.
	r.Get("/accounts/{address}", adminH.GetAccount)
	r.Post("/accounts/{address}/toggles", adminH.SetAccountToggles)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	return r
}

// requestLogging logs each request with method, path, status, duration, and
// a per-request id.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("request_id", uuid.New().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON rejects mutating requests without a JSON content type.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
