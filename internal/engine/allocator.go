package engine

import (
	"context"
	"time"
)

// Materializer is the slice of the sale service the allocator needs: apply
// all supply the schedule has unlocked by now to the book.
type Materializer interface {
	Materialize(now time.Time)
}

// Allocator periodically materializes schedule-driven supply so that fills
// happen as time passes, not only when the next external call arrives.
type Allocator struct {
	interval time.Duration
	sale     Materializer
}

// NewAllocator creates an Allocator ticking at the given interval.
func NewAllocator(interval time.Duration, sale Materializer) *Allocator {
	return &Allocator{interval: interval, sale: sale}
}

// Start launches a background goroutine that ticks at the configured
// interval. It stops when ctx is cancelled.
func (a *Allocator) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				a.sale.Materialize(t)
			}
		}
	}()
}
