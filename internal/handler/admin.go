package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/tokensale/internal/service"
	"github.com/efreitasn/tokensale/internal/store"
)

// AdminHandler handles supply staging, ownership, revenue collection, and
// the in-memory account ledger's toggles.
type AdminHandler struct {
	sale     *service.SaleService
	accounts *store.AccountStore
}

// NewAdminHandler creates a new AdminHandler. accounts may be nil when the
// service runs against external payment/asset backends.
func NewAdminHandler(sale *service.SaleService, accounts *store.AccountStore) *AdminHandler {
	return &AdminHandler{sale: sale, accounts: accounts}
}

// sellMoreRequest is the JSON request body for POST /admin/supply.
type sellMoreRequest struct {
	Caller string `json:"caller"`
	Amount int64  `json:"amount"`
}

// SellMore handles POST /admin/supply.
func (h *AdminHandler) SellMore(w http.ResponseWriter, r *http.Request) {
	var req sellMoreRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}

	if err := h.sale.SellMore(caller, req.Amount, time.Now()); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// setOwnerRequest is the JSON request body for PUT /admin/owner.
type setOwnerRequest struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"new_owner"`
}

// SetOwner handles PUT /admin/owner.
func (h *AdminHandler) SetOwner(w http.ResponseWriter, r *http.Request) {
	var req setOwnerRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}
	newOwner, ok := parseAddress(w, "new_owner", req.NewOwner)
	if !ok {
		return
	}

	if err := h.sale.SetOwner(caller, newOwner); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// collectRevenueRequest is the JSON request body for POST /revenue/collect.
type collectRevenueRequest struct {
	Caller string `json:"caller"`
}

// CollectRevenue handles POST /revenue/collect.
func (h *AdminHandler) CollectRevenue(w http.ResponseWriter, r *http.Request) {
	var req collectRevenueRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}

	value, err := h.sale.CollectRevenue(caller, time.Now())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"collected": value})
}

// accountTogglesRequest is the JSON request body for account toggles.
// Omitted fields are left unchanged.
type accountTogglesRequest struct {
	AcceptsPayments *bool `json:"accepts_payments"`
	AcceptsAssets   *bool `json:"accepts_assets"`
}

// SetAccountToggles handles POST /accounts/{address}/toggles.
func (h *AdminHandler) SetAccountToggles(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		WriteError(w, http.StatusNotFound, "not_found", "account ledger is not enabled")
		return
	}
	addr, ok := parseAddress(w, "address", chi.URLParam(r, "address"))
	if !ok {
		return
	}
	var req accountTogglesRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if req.AcceptsPayments != nil {
		h.accounts.SetAcceptsPayments(addr, *req.AcceptsPayments)
	}
	if req.AcceptsAssets != nil {
		h.accounts.SetAcceptsAssets(addr, *req.AcceptsAssets)
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetAccount handles GET /accounts/{address}.
func (h *AdminHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		WriteError(w, http.StatusNotFound, "not_found", "account ledger is not enabled")
		return
	}
	addr, ok := parseAddress(w, "address", chi.URLParam(r, "address"))
	if !ok {
		return
	}
	currency, assets := h.accounts.Balances(addr)
	WriteJSON(w, http.StatusOK, map[string]int64{
		"currency": currency,
		"assets":   assets,
	})
}
