package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Webhook represents a buyer's subscription to an event notification.
type Webhook struct {
	WebhookID string
	Creator   common.Address
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
