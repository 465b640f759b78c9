package domain

import "github.com/ethereum/go-ethereum/common"

// Order is a buyer's standing request to purchase Amount asset units at a
// fixed Price (currency units per asset unit). At most one order exists per
// creator address at any time.
//
// While Active the unfilled remainder competes for newly available supply.
// Termination deactivates the order and clears Price, but the record
// persists (Amount = FilledAmount = units still owed to the buyer) until
// the asset delivery leg succeeds, after which it is cleared to the zero
// value and the creator may place a new order.
type Order struct {
	Creator      common.Address
	Price        int64
	Amount       int64
	FilledAmount int64
	Active       bool
}

// Remaining returns the unfilled remainder still competing for supply.
func (o *Order) Remaining() int64 {
	return o.Amount - o.FilledAmount
}

// Cleared reports whether the record is fully settled and may be replaced
// by a new order.
func (o *Order) Cleared() bool {
	return o.Amount == 0 && o.FilledAmount == 0
}

// Status is the read-only snapshot returned by order status queries.
// A creator with no record yields the zero Status.
type Status struct {
	Active       bool
	Amount       int64
	Price        int64
	FilledAmount int64
}

// StatusOf snapshots an order. Passing nil yields the zero Status.
func StatusOf(o *Order) Status {
	if o == nil {
		return Status{}
	}
	return Status{
		Active:       o.Active,
		Amount:       o.Amount,
		Price:        o.Price,
		FilledAmount: o.FilledAmount,
	}
}
