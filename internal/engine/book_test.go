package engine

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/tokensale/internal/domain"
)

// addr builds a distinct address from a single byte.
func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func makeOrder(creator byte, price, amount int64) *domain.Order {
	return &domain.Order{
		Creator: addr(creator),
		Price:   price,
		Amount:  amount,
		Active:  true,
	}
}

func TestLevelLess_PriceDescending(t *testing.T) {
	a := &priceLevel{price: 200}
	b := &priceLevel{price: 100}
	// Higher price should come first (be "less" in level ordering).
	if !levelLess(a, b) {
		t.Error("expected higher price to be less")
	}
	if levelLess(b, a) {
		t.Error("expected lower price to not be less")
	}
}

func TestOrderBook_InsertAndGet(t *testing.T) {
	b := NewOrderBook()
	o := makeOrder(1, 100, 10)
	if err := b.Insert(o); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	got := b.Get(addr(1))
	if got != o {
		t.Error("expected Get to return the inserted order")
	}
	if b.Len() != 1 {
		t.Errorf("expected len 1, got %d", b.Len())
	}
}

func TestOrderBook_InsertDuplicate(t *testing.T) {
	b := NewOrderBook()
	if err := b.Insert(makeOrder(1, 100, 10)); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	err := b.Insert(makeOrder(1, 200, 5))
	if err != domain.ErrDuplicateOrder {
		t.Errorf("expected ErrDuplicateOrder, got %v", err)
	}
}

func TestOrderBook_InsertDuplicate_InactiveRecordStillBlocks(t *testing.T) {
	b := NewOrderBook()
	o := makeOrder(1, 100, 10)
	if err := b.Insert(o); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	b.Deactivate(o)
	// An uncleared record blocks a new order even when inactive.
	if err := b.Insert(makeOrder(1, 200, 5)); err != domain.ErrDuplicateOrder {
		t.Errorf("expected ErrDuplicateOrder for uncleared record, got %v", err)
	}
}

func TestOrderBook_GetUnknownCreator(t *testing.T) {
	b := NewOrderBook()
	if b.Get(addr(1)) != nil {
		t.Error("expected nil for unknown creator")
	}
}

func TestOrderBook_RangeSum(t *testing.T) {
	b := NewOrderBook()
	mustInsert(t, b, makeOrder(1, 100, 10))
	mustInsert(t, b, makeOrder(2, 200, 5))
	mustInsert(t, b, makeOrder(3, 200, 7))
	mustInsert(t, b, makeOrder(4, 300, 1))

	if got := b.RangeSum(0); got != 23 {
		t.Errorf("RangeSum(0) = %d, want 23", got)
	}
	if got := b.RangeSum(200); got != 13 {
		t.Errorf("RangeSum(200) = %d, want 13", got)
	}
	if got := b.RangeSum(201); got != 1 {
		t.Errorf("RangeSum(201) = %d, want 1", got)
	}
	if got := b.RangeSum(301); got != 0 {
		t.Errorf("RangeSum(301) = %d, want 0", got)
	}
}

func TestOrderBook_RangeSum_ExcludesFilled(t *testing.T) {
	b := NewOrderBook()
	o := makeOrder(1, 100, 10)
	mustInsert(t, b, o)

	m := NewMatcher(b)
	m.Allocate(4)
	if got := b.RangeSum(0); got != 6 {
		t.Errorf("RangeSum(0) = %d, want 6 after partial fill", got)
	}
}

func TestOrderBook_Deactivate(t *testing.T) {
	b := NewOrderBook()
	o1 := makeOrder(1, 100, 10)
	o2 := makeOrder(2, 100, 5)
	mustInsert(t, b, o1)
	mustInsert(t, b, o2)

	b.Deactivate(o1)
	if o1.Active {
		t.Error("expected order to be inactive")
	}
	if got := b.RangeSum(0); got != 5 {
		t.Errorf("RangeSum(0) = %d, want 5 after deactivation", got)
	}
	// Record persists until Clear.
	if b.Get(addr(1)) != o1 {
		t.Error("expected deactivated record to persist")
	}
	if !b.CheckTree() {
		t.Error("expected tree check to pass after deactivation")
	}
}

func TestOrderBook_Deactivate_Idempotent(t *testing.T) {
	b := NewOrderBook()
	o := makeOrder(1, 100, 10)
	mustInsert(t, b, o)

	b.Deactivate(o)
	b.Deactivate(o)
	if got := b.RangeSum(0); got != 0 {
		t.Errorf("RangeSum(0) = %d, want 0 after double deactivation", got)
	}
	if !b.CheckTree() {
		t.Error("expected tree check to pass")
	}
}

func TestOrderBook_Clear(t *testing.T) {
	b := NewOrderBook()
	o := makeOrder(1, 100, 10)
	mustInsert(t, b, o)
	b.Deactivate(o)
	b.Clear(addr(1))

	if b.Get(addr(1)) != nil {
		t.Error("expected record to be gone after clear")
	}
	if err := b.Insert(makeOrder(1, 200, 5)); err != nil {
		t.Errorf("expected new order after clear, got %v", err)
	}
}

func TestOrderBook_ProjectFills_Order(t *testing.T) {
	b := NewOrderBook()
	mustInsert(t, b, makeOrder(1, 100, 10))
	mustInsert(t, b, makeOrder(2, 300, 4))
	mustInsert(t, b, makeOrder(3, 200, 6))

	var creators []common.Address
	var deltas []int64
	b.ProjectFills(12, func(o *domain.Order, delta int64) bool {
		creators = append(creators, o.Creator)
		deltas = append(deltas, delta)
		return true
	})

	// Price descending: 300 gets 4, 200 gets 6, 100 gets the leftover 2.
	want := []common.Address{addr(2), addr(3), addr(1)}
	wantDeltas := []int64{4, 6, 2}
	if len(creators) != 3 {
		t.Fatalf("expected 3 projected fills, got %d", len(creators))
	}
	for i := range want {
		if creators[i] != want[i] || deltas[i] != wantDeltas[i] {
			t.Errorf("fill %d: got (%s, %d), want (%s, %d)", i, creators[i], deltas[i], want[i], wantDeltas[i])
		}
	}
}

func TestOrderBook_ProjectFills_DoesNotMutate(t *testing.T) {
	b := NewOrderBook()
	o := makeOrder(1, 100, 10)
	mustInsert(t, b, o)

	b.ProjectFills(5, func(_ *domain.Order, _ int64) bool { return true })
	if o.FilledAmount != 0 {
		t.Errorf("expected projection to leave FilledAmount at 0, got %d", o.FilledAmount)
	}
	if got := b.RangeSum(0); got != 10 {
		t.Errorf("RangeSum(0) = %d, want 10 after projection", got)
	}
}

func TestOrderBook_ProjectFills_SkipsInactive(t *testing.T) {
	b := NewOrderBook()
	o1 := makeOrder(1, 300, 5)
	o2 := makeOrder(2, 100, 5)
	mustInsert(t, b, o1)
	mustInsert(t, b, o2)
	b.Deactivate(o1)

	var creators []common.Address
	b.ProjectFills(3, func(o *domain.Order, _ int64) bool {
		creators = append(creators, o.Creator)
		return true
	})
	if len(creators) != 1 || creators[0] != addr(2) {
		t.Errorf("expected projection to skip inactive order, got %v", creators)
	}
}

func TestOrderBook_ProjectFills_StopEarly(t *testing.T) {
	b := NewOrderBook()
	mustInsert(t, b, makeOrder(1, 300, 5))
	mustInsert(t, b, makeOrder(2, 200, 5))

	var count int
	b.ProjectFills(10, func(_ *domain.Order, _ int64) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("expected projection to stop after 1 fill, got %d", count)
	}
}

func TestOrderBook_ProjectFills_ZeroBacklog(t *testing.T) {
	b := NewOrderBook()
	mustInsert(t, b, makeOrder(1, 100, 10))
	b.ProjectFills(0, func(_ *domain.Order, _ int64) bool {
		t.Error("expected no fills for zero backlog")
		return false
	})
}

func TestOrderBook_CheckTree_Empty(t *testing.T) {
	b := NewOrderBook()
	if !b.CheckTree() {
		t.Error("expected tree check to pass on empty book")
	}
}

func mustInsert(t *testing.T, b *OrderBook, o *domain.Order) {
	t.Helper()
	if err := b.Insert(o); err != nil {
		t.Fatalf("insert order for %s: %v", o.Creator, err)
	}
}
