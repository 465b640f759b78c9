package engine

import "github.com/efreitasn/tokensale/internal/domain"

// Fill records one allocation of supply to an order during a match pass.
type Fill struct {
	Order *domain.Order
	Delta int64
}

// Matcher allocates newly available supply to standing orders strictly by
// descending price, FIFO within a price level. It never hands units to a
// lower price while unfilled demand remains at a higher one.
type Matcher struct {
	book *OrderBook
}

// NewMatcher creates a Matcher over the given book.
func NewMatcher(book *OrderBook) *Matcher {
	return &Matcher{book: book}
}

// Allocate distributes up to backlog units to the book, mutating the filled
// orders and the level aggregates. It returns the units actually sold, the
// revenue they earned, and the individual fills in allocation order.
// Leftover backlog is simply not consumed; the caller recomputes it from the
// supply schedule on the next pass, so it is deferred rather than lost.
func (m *Matcher) Allocate(backlog int64) (sold, revenue int64, fills []Fill) {
	for backlog > 0 {
		lvl, ok := m.book.levels.Min()
		if !ok {
			break
		}
		e := lvl.head
		if e == nil {
			// Fully drained level left behind by lazy pruning.
			m.book.levels.Delete(lvl)
			continue
		}
		o := e.order
		if !o.Active || o.Remaining() == 0 {
			// Terminated or fully filled earlier; discard and move on.
			m.popHead(lvl)
			continue
		}

		delta := min(backlog, o.Remaining())
		o.FilledAmount += delta
		lvl.total -= delta
		backlog -= delta
		sold += delta
		revenue += delta * o.Price
		fills = append(fills, Fill{Order: o, Delta: delta})

		// A fully filled order stays active (it can still be terminated)
		// but stops competing; its queue slot is released.
		if o.Remaining() == 0 {
			m.popHead(lvl)
		}
	}
	return sold, revenue, fills
}

// popHead unlinks the front entry of lvl and prunes the level once its
// queue is empty.
func (m *Matcher) popHead(lvl *priceLevel) {
	lvl.head = lvl.head.next
	if lvl.head == nil {
		lvl.tail = nil
		m.book.levels.Delete(lvl)
	}
}
