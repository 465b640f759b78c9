package engine

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"pgregory.net/rapid"

	"github.com/efreitasn/tokensale/internal/domain"
)

// Random mixes of inserts, allocations and terminations must keep the level
// aggregates consistent with the individual orders, and allocation must only
// ever reduce the total active remainder by exactly what it reports sold.
func TestProperty_BookAggregatesConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		book := NewOrderBook()
		matcher := NewMatcher(book)
		nextCreator := byte(1)

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0: // place a fresh order
				o := &domain.Order{
					Creator: addr(nextCreator),
					Price:   rapid.Int64Range(1, 50).Draw(t, "price"),
					Amount:  rapid.Int64Range(1, 100).Draw(t, "amount"),
					Active:  true,
				}
				nextCreator++
				if err := book.Insert(o); err != nil {
					t.Fatalf("insert: %v", err)
				}
			case 1: // allocate supply
				before := book.ActiveRemainderSum()
				backlog := rapid.Int64Range(0, 150).Draw(t, "backlog")
				sold, revenue, fills := matcher.Allocate(backlog)
				if sold > backlog {
					t.Fatalf("sold %d exceeds backlog %d", sold, backlog)
				}
				if sold > before {
					t.Fatalf("sold %d exceeds available demand %d", sold, before)
				}
				if after := book.ActiveRemainderSum(); before-after != sold {
					t.Fatalf("remainder dropped by %d but sold %d", before-after, sold)
				}
				var sumDelta, sumRevenue int64
				for _, f := range fills {
					sumDelta += f.Delta
					sumRevenue += f.Delta * f.Order.Price
				}
				if sumDelta != sold || sumRevenue != revenue {
					t.Fatalf("fills sum to (%d, %d), reported (%d, %d)", sumDelta, sumRevenue, sold, revenue)
				}
			case 2: // deactivate a random live creator, if any
				if nextCreator == 1 {
					continue
				}
				c := addr(byte(rapid.IntRange(1, int(nextCreator)-1).Draw(t, "victim")))
				if o := book.Get(c); o != nil {
					book.Deactivate(o)
				}
			}
			if !book.CheckTree() {
				t.Fatalf("tree check failed after step %d", i)
			}
		}
	})
}

// A projection over the same backlog as a real allocation must predict the
// allocation exactly, order for order, without touching the book.
func TestProperty_ProjectionMatchesAllocation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		book := NewOrderBook()
		matcher := NewMatcher(book)

		n := rapid.IntRange(1, 30).Draw(t, "numOrders")
		for i := 0; i < n; i++ {
			o := &domain.Order{
				Creator: addr(byte(i + 1)),
				Price:   rapid.Int64Range(1, 20).Draw(t, "price"),
				Amount:  rapid.Int64Range(1, 40).Draw(t, "amount"),
				Active:  true,
			}
			if err := book.Insert(o); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		backlog := rapid.Int64Range(0, 600).Draw(t, "backlog")

		type fill struct {
			creator common.Address
			delta   int64
		}
		var projected []fill
		book.ProjectFills(backlog, func(o *domain.Order, delta int64) bool {
			projected = append(projected, fill{o.Creator, delta})
			return true
		})

		_, _, actual := matcher.Allocate(backlog)
		if len(actual) != len(projected) {
			t.Fatalf("projection has %d fills, allocation has %d", len(projected), len(actual))
		}
		for i := range actual {
			if actual[i].Order.Creator != projected[i].creator || actual[i].Delta != projected[i].delta {
				t.Fatalf("fill %d: projected (%s, %d), allocated (%s, %d)",
					i, projected[i].creator, projected[i].delta, actual[i].Order.Creator, actual[i].Delta)
			}
		}
	})
}
