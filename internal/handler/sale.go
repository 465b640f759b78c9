package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/tokensale/internal/service"
)

// SaleHandler handles HTTP requests for order, refund, and book endpoints.
type SaleHandler struct {
	sale *service.SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(sale *service.SaleService) *SaleHandler {
	return &SaleHandler{sale: sale}
}

// parseAddress validates and parses a hex address, writing a validation
// error response when it is malformed.
func parseAddress(w http.ResponseWriter, field, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		WriteError(w, http.StatusBadRequest, "validation_error", field+" must be a hex address")
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// parseAt reads the optional `at` query parameter (unix seconds) used by the
// time-parameterized views, defaulting to the current time.
func parseAt(r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("at")
	if v == "" {
		return time.Now(), true
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// placeOrderRequest is the JSON request body for POST /orders and
// POST /orders/presale.
type placeOrderRequest struct {
	Creator    string `json:"creator"`
	Price      int64  `json:"price"`
	Value      int64  `json:"value"`
	Invitation string `json:"invitation,omitempty"`
}

// placeOrderResponse is the JSON response for order placement.
type placeOrderResponse struct {
	Creator      string `json:"creator"`
	Price        int64  `json:"price"`
	Amount       int64  `json:"amount"`
	FilledAmount int64  `json:"filled_amount"`
}

// PlaceOrder handles POST /orders.
func (h *SaleHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	creator, ok := parseAddress(w, "creator", req.Creator)
	if !ok {
		return
	}

	filled, err := h.sale.PlaceOrder(creator, req.Price, req.Value, time.Now())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, placeOrderResponse{
		Creator:      creator.Hex(),
		Price:        req.Price,
		Amount:       req.Value / req.Price,
		FilledAmount: filled,
	})
}

// PlacePresaleOrder handles POST /orders/presale.
func (h *SaleHandler) PlacePresaleOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	creator, ok := parseAddress(w, "creator", req.Creator)
	if !ok {
		return
	}
	invitation, err := hexutil.Decode(req.Invitation)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "invitation must be a 0x-prefixed hex string")
		return
	}

	filled, err := h.sale.PlacePresaleOrder(creator, req.Price, req.Value, invitation, time.Now())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, placeOrderResponse{
		Creator:      creator.Hex(),
		Price:        req.Price,
		Amount:       req.Value / req.Price,
		FilledAmount: filled,
	})
}

// orderStatusResponse mirrors the orderStatus view tuple.
type orderStatusResponse struct {
	Active       bool  `json:"active"`
	Amount       int64 `json:"amount"`
	Price        int64 `json:"price"`
	FilledAmount int64 `json:"filled_amount"`
}

// GetOrder handles GET /orders/{creator}.
func (h *SaleHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	creator, ok := parseAddress(w, "creator", chi.URLParam(r, "creator"))
	if !ok {
		return
	}
	at, ok := parseAt(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "validation_error", "at must be a unix timestamp in seconds")
		return
	}

	st := h.sale.OrderStatus(creator, at)
	WriteJSON(w, http.StatusOK, orderStatusResponse{
		Active:       st.Active,
		Amount:       st.Amount,
		Price:        st.Price,
		FilledAmount: st.FilledAmount,
	})
}

// terminateResponse is the JSON response for DELETE /orders/{creator}.
type terminateResponse struct {
	FilledAmount    int64 `json:"filled_amount"`
	RefundPushed    bool  `json:"refund_pushed"`
	RefundQueued    bool  `json:"refund_queued"`
	AssetsDelivered bool  `json:"assets_delivered"`
	Cleared         bool  `json:"cleared"`
}

// TerminateOrder handles DELETE /orders/{creator}.
func (h *SaleHandler) TerminateOrder(w http.ResponseWriter, r *http.Request) {
	creator, ok := parseAddress(w, "creator", chi.URLParam(r, "creator"))
	if !ok {
		return
	}

	res, err := h.sale.Terminate(creator, time.Now())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, terminateResponse{
		FilledAmount:    res.FilledAmount,
		RefundPushed:    res.RefundPushed,
		RefundQueued:    res.RefundQueued,
		AssetsDelivered: res.AssetsDelivered,
		Cleared:         res.Cleared,
	})
}

// GetBookAmount handles GET /book/amount?min_price=&at=.
func (h *SaleHandler) GetBookAmount(w http.ResponseWriter, r *http.Request) {
	var minPrice int64
	if v := r.URL.Query().Get("min_price"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil || p < 0 {
			WriteError(w, http.StatusBadRequest, "validation_error", "min_price must be a non-negative integer")
			return
		}
		minPrice = p
	}
	at, ok := parseAt(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "validation_error", "at must be a unix timestamp in seconds")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int64{
		"min_price": minPrice,
		"amount":    h.sale.TotalAmountForPrice(minPrice, at),
	})
}

// CheckBook handles GET /book/check.
func (h *SaleHandler) CheckBook(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": h.sale.CheckOrderTree()})
}

// statsResponse is the JSON response for GET /stats.
type statsResponse struct {
	TotalSold          int64 `json:"total_sold"`
	OutstandingRevenue int64 `json:"outstanding_revenue"`
	AmountToSellBy     int64 `json:"amount_to_sell_by"`
}

// GetStats handles GET /stats?at=.
func (h *SaleHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	at, ok := parseAt(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "validation_error", "at must be a unix timestamp in seconds")
		return
	}
	WriteJSON(w, http.StatusOK, statsResponse{
		TotalSold:          h.sale.TotalSold(at),
		OutstandingRevenue: h.sale.OutstandingRevenue(at),
		AmountToSellBy:     h.sale.AmountToSellBy(at),
	})
}

// GetPendingRefund handles GET /refunds/{creator}.
func (h *SaleHandler) GetPendingRefund(w http.ResponseWriter, r *http.Request) {
	creator, ok := parseAddress(w, "creator", chi.URLParam(r, "creator"))
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{
		"pending_refund": h.sale.PendingRefund(creator),
	})
}

// ClaimRefund handles POST /refunds/{creator}/claim.
func (h *SaleHandler) ClaimRefund(w http.ResponseWriter, r *http.Request) {
	creator, ok := parseAddress(w, "creator", chi.URLParam(r, "creator"))
	if !ok {
		return
	}
	value, err := h.sale.ClaimRefund(creator)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"refunded": value})
}
