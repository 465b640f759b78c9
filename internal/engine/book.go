package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"

	"github.com/efreitasn/tokensale/internal/domain"
)

// entry is one node of a price level's FIFO queue.
type entry struct {
	order *domain.Order
	next  *entry
}

// priceLevel aggregates all orders at a single price: a FIFO queue plus a
// cached sum of the queued active orders' unfilled remainders. The cached
// sum is what makes "total demand at price >= X" answerable without
// touching individual orders.
type priceLevel struct {
	price int64
	total int64
	head  *entry
	tail  *entry
}

// levelLess orders price levels descending, so Min() is the best
// (highest-priced) level.
func levelLess(a, b *priceLevel) bool {
	return a.price > b.price
}

// OrderBook is the price-indexed store of standing buy orders: at most one
// non-cleared order per creator, price levels kept in a B-tree ordered by
// price descending with per-level remainder sums.
//
// The book carries no lock of its own; callers serialize access through the
// sale service, matching the one-operation-at-a-time execution model.
type OrderBook struct {
	levels *btree.BTreeG[*priceLevel]
	orders map[common.Address]*domain.Order
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	const degree = 32
	return &OrderBook{
		levels: btree.NewG[*priceLevel](degree, levelLess),
		orders: make(map[common.Address]*domain.Order),
	}
}

// Insert adds a new active order for its creator and queues it at its price
// level. It returns domain.ErrDuplicateOrder if the creator already has a
// non-cleared record, including a terminated order whose payout legs have
// not completed yet.
func (b *OrderBook) Insert(o *domain.Order) error {
	if _, ok := b.orders[o.Creator]; ok {
		return domain.ErrDuplicateOrder
	}
	b.orders[o.Creator] = o

	lvl, ok := b.levels.Get(&priceLevel{price: o.Price})
	if !ok {
		lvl = &priceLevel{price: o.Price}
		b.levels.ReplaceOrInsert(lvl)
	}
	e := &entry{order: o}
	if lvl.tail == nil {
		lvl.head = e
	} else {
		lvl.tail.next = e
	}
	lvl.tail = e
	lvl.total += o.Remaining()
	return nil
}

// Get returns the non-cleared record for creator, or nil.
func (b *OrderBook) Get(creator common.Address) *domain.Order {
	return b.orders[creator]
}

// Deactivate takes an order's unfilled remainder out of competition: the
// remainder is subtracted from its price level's sum and the order is marked
// inactive. The record itself stays in the book until Clear. Calling it on
// an already-inactive order is a no-op.
//
// The queued entry is not unlinked here; the match loop discards inactive
// entries when it reaches them, and a level whose sum drops to zero is
// pruned lazily.
func (b *OrderBook) Deactivate(o *domain.Order) {
	if !o.Active {
		return
	}
	o.Active = false
	lvl, ok := b.levels.Get(&priceLevel{price: o.Price})
	if !ok {
		return
	}
	lvl.total -= o.Remaining()
	if lvl.total == 0 && lvl.head == nil {
		b.levels.Delete(lvl)
	}
}

// Clear removes a fully settled record, freeing the creator to place a new
// order.
func (b *OrderBook) Clear(creator common.Address) {
	delete(b.orders, creator)
}

// RangeSum returns the total unfilled remainder over all active orders with
// price >= minPrice. It walks price levels from the best downwards and never
// touches individual orders.
func (b *OrderBook) RangeSum(minPrice int64) int64 {
	var sum int64
	b.levels.Ascend(func(lvl *priceLevel) bool {
		if lvl.price < minPrice {
			return false
		}
		sum += lvl.total
		return true
	})
	return sum
}

// ProjectFills walks the book in matching order (price descending, FIFO
// within a level) handing out backlog units without mutating anything. fn is
// invoked once per order that would receive units; returning false stops the
// walk early. Used by the time-parameterized views to overlay supply the
// schedule has unlocked but no operation has materialized yet.
func (b *OrderBook) ProjectFills(backlog int64, fn func(o *domain.Order, delta int64) bool) {
	if backlog <= 0 {
		return
	}
	b.levels.Ascend(func(lvl *priceLevel) bool {
		for e := lvl.head; e != nil && backlog > 0; e = e.next {
			o := e.order
			if !o.Active || o.Remaining() == 0 {
				continue
			}
			delta := min(backlog, o.Remaining())
			backlog -= delta
			if !fn(o, delta) {
				return false
			}
		}
		return backlog > 0
	})
}

// ActiveRemainderSum recomputes the total unfilled remainder over all active
// orders from the per-creator records, bypassing the level aggregates.
func (b *OrderBook) ActiveRemainderSum() int64 {
	var sum int64
	for _, o := range b.orders {
		if o.Active {
			sum += o.Remaining()
		}
	}
	return sum
}

// CheckTree verifies the aggregate structure against first principles: each
// level's cached sum must equal the sum over its queued active orders'
// remainders, level prices must match their queued orders, and the grand
// total over levels must equal the recomputed active remainder sum.
func (b *OrderBook) CheckTree() bool {
	var grand int64
	ok := true
	b.levels.Ascend(func(lvl *priceLevel) bool {
		var queued int64
		for e := lvl.head; e != nil; e = e.next {
			o := e.order
			if !o.Active {
				continue
			}
			if o.Price != lvl.price {
				ok = false
				return false
			}
			queued += o.Remaining()
		}
		if queued != lvl.total || lvl.total < 0 {
			ok = false
			return false
		}
		grand += lvl.total
		return true
	})
	if !ok {
		return false
	}
	return grand == b.ActiveRemainderSum()
}

// Len returns the number of non-cleared order records.
func (b *OrderBook) Len() int {
	return len(b.orders)
}
