package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidInput   = errors.New("invalid_input")
	ErrDuplicateOrder = errors.New("duplicate_order")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrOrderNotFound  = errors.New("order_not_found")
	ErrSaleNotOpen    = errors.New("sale_not_open")
	ErrNoRefund       = errors.New("no_pending_refund")

	// ErrTransferRejected is returned by payment and asset backends when
	// the recipient refuses the transfer. It is never propagated as a call
	// failure: the caller converts it into retryable bookkeeping.
	ErrTransferRejected = errors.New("transfer_rejected")

	ErrWebhookNotFound = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
