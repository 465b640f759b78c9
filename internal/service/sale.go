package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/tokensale/internal/domain"
	"github.com/efreitasn/tokensale/internal/engine"
	"github.com/efreitasn/tokensale/internal/store"
)

// EventDispatcher receives sale event notifications. Implemented by the
// webhook service; a nil dispatcher disables notifications.
type EventDispatcher interface {
	DispatchOrderPlaced(creator common.Address, amount, price int64)
	DispatchOrderTerminated(creator common.Address, filledAmount int64)
	DispatchTransferAttempted(to common.Address, value int64, kind string, ok bool)
}

// Transfer kinds reported through DispatchTransferAttempted.
const (
	TransferKindRefund   = "refund"
	TransferKindDelivery = "delivery"
	TransferKindRevenue  = "revenue"
)

// TerminateResult reports which payout legs of a termination succeeded.
// The call as a whole succeeds even when a leg is rejected; rejected value
// stays claimable (refunds) or retriable by terminating again (delivery).
type TerminateResult struct {
	FilledAmount    int64
	RefundPushed    bool
	RefundQueued    bool
	AssetsDelivered bool
	Cleared         bool
}

// SaleService is the continuous sale's settlement ledger and the single
// entry point for every state transition. One mutex serializes all
// operations; every internal mutation is committed before any outbound
// transfer is attempted, so bookkeeping can never be replayed against a
// half-applied state.
type SaleService struct {
	mu sync.Mutex

	log         *slog.Logger
	book        *engine.OrderBook
	matcher     *engine.Matcher
	schedule    domain.SupplySchedule
	payments    domain.PaymentBackend
	assets      domain.AssetBackend
	invitations *domain.InvitationChecker
	refunds     *store.RefundStore
	events      EventDispatcher

	saleStart   time.Time
	publicStart time.Time

	owner       common.Address
	beneficiary common.Address

	staged             int64 // supply staged via sellMore, on top of the schedule
	totalSold          int64
	outstandingRevenue int64
}

// NewSaleService creates a SaleService with the given collaborators.
// Public order placement opens presaleDuration after saleStart; presale
// orders open at saleStart.
func NewSaleService(
	log *slog.Logger,
	book *engine.OrderBook,
	matcher *engine.Matcher,
	schedule domain.SupplySchedule,
	payments domain.PaymentBackend,
	assets domain.AssetBackend,
	invitations *domain.InvitationChecker,
	refunds *store.RefundStore,
	events EventDispatcher,
	saleStart time.Time,
	presaleDuration time.Duration,
	owner common.Address,
	beneficiary common.Address,
) *SaleService {
	return &SaleService{
		log:         log,
		book:        book,
		matcher:     matcher,
		schedule:    schedule,
		payments:    payments,
		assets:      assets,
		invitations: invitations,
		refunds:     refunds,
		events:      events,
		saleStart:   saleStart,
		publicStart: saleStart.Add(presaleDuration),
		owner:       owner,
		beneficiary: beneficiary,
	}
}

// sellableBy returns the cumulative supply available by now: the schedule's
// value plus manually staged units.
func (s *SaleService) sellableBy(now time.Time) int64 {
	return s.schedule.AmountToSellBy(now) + s.staged
}

// materializeLocked allocates all supply unlocked by now that has not been
// matched yet. Leftover backlog is recomputed fresh on the next call, so
// supply that outruns demand is deferred, never lost.
func (s *SaleService) materializeLocked(now time.Time) {
	backlog := s.sellableBy(now) - s.totalSold
	if backlog <= 0 {
		return
	}
	sold, revenue, fills := s.matcher.Allocate(backlog)
	if sold == 0 {
		return
	}
	s.totalSold += sold
	s.outstandingRevenue += revenue
	for _, f := range fills {
		s.log.Debug("order filled",
			slog.String("creator", f.Order.Creator.Hex()),
			slog.Int64("delta", f.Delta),
			slog.Int64("price", f.Order.Price),
		)
	}
	s.log.Info("supply allocated",
		slog.Int64("sold", sold),
		slog.Int64("revenue", revenue),
		slog.Int64("total_sold", s.totalSold),
	)
}

// Materialize applies all supply the schedule has unlocked by now. Invoked
// by the background allocator; every mutating operation also runs it first.
func (s *SaleService) Materialize(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materializeLocked(now)
}

// PlaceOrder places a public order. price is the bid per asset unit and
// paidValue the currency sent along; paidValue must be an exact positive
// multiple of price, the implied amount being paidValue / price. The order
// is matched immediately against any accumulated unsold supply; the amount
// filled right away (possibly 0) is returned.
func (s *SaleService) PlaceOrder(creator common.Address, price, paidValue int64, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Before(s.publicStart) {
		return 0, domain.ErrSaleNotOpen
	}
	return s.placeLocked(creator, price, paidValue, now)
}

// PlacePresaleOrder places an invitation-gated order. Presale orders are
// accepted from saleStart onwards, including after the public phase opens.
func (s *SaleService) PlacePresaleOrder(creator common.Address, price, paidValue int64, invitation []byte, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Before(s.saleStart) {
		return 0, domain.ErrSaleNotOpen
	}
	if s.invitations == nil || !s.invitations.Authorized(creator, invitation) {
		return 0, domain.ErrUnauthorized
	}
	return s.placeLocked(creator, price, paidValue, now)
}

func (s *SaleService) placeLocked(creator common.Address, price, paidValue int64, now time.Time) (int64, error) {
	if price <= 0 || paidValue <= 0 || paidValue%price != 0 {
		return 0, domain.ErrInvalidInput
	}
	amount := paidValue / price

	if s.book.Get(creator) != nil {
		return 0, domain.ErrDuplicateOrder
	}

	order := &domain.Order{
		Creator: creator,
		Price:   price,
		Amount:  amount,
		Active:  true,
	}
	if err := s.book.Insert(order); err != nil {
		return 0, err
	}

	// Match against supply that accumulated while demand was short.
	s.materializeLocked(now)

	s.log.Info("order placed",
		slog.String("creator", creator.Hex()),
		slog.Int64("amount", amount),
		slog.Int64("price", price),
		slog.Int64("filled", order.FilledAmount),
	)
	if s.events != nil {
		s.events.DispatchOrderPlaced(creator, amount, price)
	}
	return order.FilledAmount, nil
}

// Terminate takes the caller's order out of the sale and pays out both legs:
// a currency refund for the unfilled remainder (first call only) and an
// asset delivery for the filled part. Either leg may be rejected by the
// recipient; all bookkeeping is committed before the transfers, so the call
// still succeeds, a rejected refund moves to the pending-refund balance and
// a rejected delivery is retried by calling Terminate again. Repeated calls
// converge monotonically toward a cleared record and never pay twice.
func (s *SaleService) Terminate(creator common.Address, now time.Time) (TerminateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.book.Get(creator)
	if order == nil {
		return TerminateResult{}, domain.ErrOrderNotFound
	}

	// Catch up first: units the schedule already sold to this order must
	// not be refunded as unfilled.
	s.materializeLocked(now)

	var res TerminateResult
	wasActive := order.Active

	var refund int64
	if order.Active {
		refund = order.Price * order.Remaining()
		s.book.Deactivate(order)
		order.Amount = order.FilledAmount
		order.Price = 0
	}
	res.FilledAmount = order.FilledAmount

	// State is fully committed; only outbound transfers remain.
	if refund > 0 {
		if err := s.payments.SendPayment(creator, refund); err != nil {
			s.refunds.Credit(creator, refund)
			res.RefundQueued = true
		} else {
			res.RefundPushed = true
		}
		s.dispatchTransfer(creator, refund, TransferKindRefund, res.RefundPushed)
	}

	if order.FilledAmount > 0 {
		err := s.assets.TransferAsset(creator, order.FilledAmount)
		if err == nil {
			order.Amount = 0
			order.FilledAmount = 0
			res.AssetsDelivered = true
		}
		s.dispatchTransfer(creator, res.FilledAmount, TransferKindDelivery, err == nil)
	}

	if order.Cleared() {
		s.book.Clear(creator)
		res.Cleared = true
	}

	s.log.Info("order terminated",
		slog.String("creator", creator.Hex()),
		slog.Int64("filled_amount", res.FilledAmount),
		slog.Bool("refund_pushed", res.RefundPushed),
		slog.Bool("refund_queued", res.RefundQueued),
		slog.Bool("assets_delivered", res.AssetsDelivered),
	)
	if wasActive && s.events != nil {
		s.events.DispatchOrderTerminated(creator, res.FilledAmount)
	}
	return res, nil
}

// ClaimRefund re-attempts the push of the caller's pending refund balance.
// Returns the value pushed; a rejected push restores the balance.
func (s *SaleService) ClaimRefund(creator common.Address) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.refunds.Take(creator)
	if value == 0 {
		return 0, domain.ErrNoRefund
	}
	err := s.payments.SendPayment(creator, value)
	s.dispatchTransfer(creator, value, TransferKindRefund, err == nil)
	if err != nil {
		s.refunds.Credit(creator, value)
		return 0, domain.ErrTransferRejected
	}
	return value, nil
}

// SellMore stages additional manually supplied units and allocates them
// right away. Owner-only.
func (s *SaleService) SellMore(caller common.Address, amount int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return domain.ErrUnauthorized
	}
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	s.staged += amount
	s.materializeLocked(now)
	return nil
}

// CollectRevenue pushes the accumulated revenue to the beneficiary.
// Beneficiary-only. A rejected push leaves the balance untouched; safe to
// retry.
func (s *SaleService) CollectRevenue(caller common.Address, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.beneficiary {
		return 0, domain.ErrUnauthorized
	}
	s.materializeLocked(now)
	value := s.outstandingRevenue
	if value == 0 {
		return 0, nil
	}
	// Zero before pushing; restore on rejection.
	s.outstandingRevenue = 0
	err := s.payments.SendPayment(s.beneficiary, value)
	s.dispatchTransfer(s.beneficiary, value, TransferKindRevenue, err == nil)
	if err != nil {
		s.outstandingRevenue = value
		return 0, domain.ErrTransferRejected
	}
	s.log.Info("revenue collected", slog.Int64("value", value))
	return value, nil
}

// SetOwner hands the admin role to a new address. Owner-only.
func (s *SaleService) SetOwner(caller, newOwner common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return domain.ErrUnauthorized
	}
	s.owner = newOwner
	s.log.Info("owner changed", slog.String("owner", newOwner.Hex()))
	return nil
}

// ---- views ----
//
// Views are read-only. They overlay the allocation the schedule has unlocked
// by now but no mutating call has materialized yet, by simulating the
// matching walk without touching the book.

// pendingBacklog returns the not-yet-materialized backlog at now.
func (s *SaleService) pendingBacklog(now time.Time) int64 {
	backlog := s.sellableBy(now) - s.totalSold
	if backlog < 0 {
		return 0
	}
	return backlog
}

// OrderStatus returns the creator's order snapshot as of now.
func (s *SaleService) OrderStatus(creator common.Address, now time.Time) domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.book.Get(creator)
	st := domain.StatusOf(order)
	if order == nil || !order.Active {
		return st
	}
	s.book.ProjectFills(s.pendingBacklog(now), func(o *domain.Order, delta int64) bool {
		if o == order {
			st.FilledAmount += delta
			return false
		}
		return true
	})
	return st
}

// TotalAmountForPrice returns the unfilled demand at price >= minPrice as of
// now. Non-increasing in minPrice for a fixed now.
func (s *SaleService) TotalAmountForPrice(minPrice int64, now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := s.book.RangeSum(minPrice)
	s.book.ProjectFills(s.pendingBacklog(now), func(o *domain.Order, delta int64) bool {
		if o.Price >= minPrice {
			sum -= delta
		}
		return true
	})
	return sum
}

// TotalSold returns cumulative units matched as of now.
func (s *SaleService) TotalSold(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sold := s.totalSold
	s.book.ProjectFills(s.pendingBacklog(now), func(o *domain.Order, delta int64) bool {
		sold += delta
		return true
	})
	return sold
}

// OutstandingRevenue returns the uncollected revenue as of now.
func (s *SaleService) OutstandingRevenue(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	revenue := s.outstandingRevenue
	s.book.ProjectFills(s.pendingBacklog(now), func(o *domain.Order, delta int64) bool {
		revenue += delta * o.Price
		return true
	})
	return revenue
}

// AmountToSellBy returns the cumulative supply available by now.
func (s *SaleService) AmountToSellBy(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sellableBy(now)
}

// PendingRefund returns the creator's stuck refund balance.
func (s *SaleService) PendingRefund(creator common.Address) int64 {
	return s.refunds.Get(creator)
}

// CheckOrderTree verifies the book's aggregate structure against first
// principles. Exposed for external verification; true in every reachable
// state.
func (s *SaleService) CheckOrderTree() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.CheckTree()
}

func (s *SaleService) dispatchTransfer(to common.Address, value int64, kind string, ok bool) {
	s.log.Info("transfer attempted",
		slog.String("to", to.Hex()),
		slog.Int64("value", value),
		slog.String("kind", kind),
		slog.Bool("ok", ok),
	)
	if s.events != nil {
		s.events.DispatchTransferAttempted(to, value, kind, ok)
	}
}
