// Package dutch implements the descending-price auction engine: a fixed
// fungible supply sold to allowlisted participants at a price that decays
// along a precomputed curve, settled directly to the project's funding
// destination.
package dutch

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Faro-Company/FaroContracts/core"
)

// Params configures a new auction.
type Params struct {
	ID                 string
	Owner              string
	FundingDestination string
	Curve              Curve
	TickDuration       time.Duration
	Supply             int64
	Allowlist          []string
}

// Option customizes an Auction at construction.
type Option func(*Auction)

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Auction) {
		if log != nil {
			a.log = log
		}
	}
}

// WithEmitter attaches an event emitter. Defaults to the nop emitter.
func WithEmitter(emit core.Emitter) Option {
	return func(a *Auction) {
		if emit != nil {
			a.emit = emit
		}
	}
}

// Auction is one Dutch auction instance. The time tick is a pure function
// of the caller-supplied clock; it never decreases, and once it reaches
// the final curve index the sale is ended lazily.
type Auction struct {
	mu sync.Mutex
	core.Sale

	funding   string
	curve     Curve
	tickDur   time.Duration
	supply    int64
	remaining int64
	allowlist map[string]struct{}

	// purchased is the cumulative units bought per participant. There is
	// no per-participant cap; only the global supply bounds purchases.
	purchased map[string]int64
	accepted  decimal.Decimal

	rail core.PaymentRail
	emit core.Emitter
	log  *zap.Logger
}

// New deploys a Dutch auction over a supply pool.
func New(p Params, rail core.PaymentRail, opts ...Option) (*Auction, error) {
	if len(p.Curve) == 0 {
		return nil, fmt.Errorf("%w: price curve is required", core.ErrInvalidState)
	}
	if p.TickDuration <= 0 {
		return nil, fmt.Errorf("%w: tick duration must be positive", core.ErrInvalidState)
	}
	if p.Supply <= 0 {
		return nil, fmt.Errorf("%w: supply must be positive", core.ErrInvalidState)
	}
	if p.FundingDestination == "" {
		return nil, fmt.Errorf("%w: funding destination is required", core.ErrInvalidState)
	}

	allow := make(map[string]struct{}, len(p.Allowlist))
	for _, id := range p.Allowlist {
		allow[id] = struct{}{}
	}

	a := &Auction{
		Sale:      core.NewSale(p.ID, p.Owner),
		funding:   p.FundingDestination,
		curve:     p.Curve,
		tickDur:   p.TickDuration,
		supply:    p.Supply,
		remaining: p.Supply,
		allowlist: allow,
		purchased: make(map[string]int64),
		rail:      rail,
		emit:      core.NopEmitter(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.emit.Emit(core.Event{Kind: core.EventCreated, SaleID: a.ID(), Actor: p.Owner})
	return a, nil
}

// tick derives the current curve index from elapsed time, clamped to the
// final index. Callers must hold mu.
func (a *Auction) tick(now time.Time) int {
	if a.CurrentState() == core.Deployed || now.Before(a.StartedAt()) {
		return 0
	}
	t := int(now.Sub(a.StartedAt()) / a.tickDur)
	if t > len(a.curve)-1 {
		t = len(a.curve) - 1
	}
	return t
}

// settle applies the lazy end transitions: the curve has run out, or the
// supply is exhausted. Callers must hold mu.
func (a *Auction) settle(now time.Time) {
	if a.CurrentState() != core.Started {
		return
	}
	if a.remaining == 0 || a.tick(now) == len(a.curve)-1 {
		if a.MarkEnded() {
			a.emit.Emit(core.Event{Kind: core.EventEnded, SaleID: a.ID(), At: now})
			a.log.Info("dutch auction ended", zap.String("sale", a.ID()),
				zap.Int64("remaining_supply", a.remaining))
		}
	}
}

// Start opens the auction; the price starts decaying from now.
func (a *Auction) Start(caller string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.Begin(caller, now); err != nil {
		return err
	}
	a.emit.Emit(core.Event{Kind: core.EventStarted, SaleID: a.ID(), Actor: caller, At: now})
	return nil
}

// Cancel stops the auction. Legal from Deployed or Started, owner only.
func (a *Auction) Cancel(caller string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)
	if err := a.CancelBy(caller); err != nil {
		return err
	}
	a.emit.Emit(core.Event{Kind: core.EventCancelled, SaleID: a.ID(), Actor: caller, At: now})
	return nil
}

// CurrentPrice recomputes the time-decayed price, committing the lazy end
// transition as a side effect. Before start it reports the listing price;
// after the curve has run out it reports the floor price.
func (a *Auction) CurrentPrice(now time.Time) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)
	return a.curve.PriceAt(a.tick(now))
}

// Bid purchases units at the current, time-decayed price. The payment is
// forwarded in full to the funding destination immediately; there is no
// escrow and no refund of overpayment. Bookkeeping commits before the
// transfer, and a rail failure rolls it back.
func (a *Auction) Bid(caller string, units int64, payment decimal.Decimal, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)

	if err := a.RequireLive(); err != nil {
		return err
	}
	if caller == a.Owner() {
		return core.ErrOwnerCannotBid
	}
	if _, ok := a.allowlist[caller]; !ok {
		return fmt.Errorf("%w: %s is not on the allowlist", core.ErrNotEligible, caller)
	}
	if units <= 0 {
		return core.ErrZeroBid
	}
	if units > a.remaining {
		return fmt.Errorf("%w: %d units requested, %d remaining", core.ErrExceedsSupply, units, a.remaining)
	}

	// Price check is always against the current price, never a stale one.
	price := a.curve.PriceAt(a.tick(now))
	cost := core.UnitCost(price, units)
	if !core.AmountCovers(payment, cost) {
		return fmt.Errorf("%w: %s does not cover %d units at %s", core.ErrBidTooLow, payment, units, price)
	}

	a.remaining -= units
	a.purchased[caller] += units
	a.accepted = a.accepted.Add(payment)

	if err := a.rail.ForwardPayment(payment, a.funding); err != nil {
		a.remaining += units
		a.purchased[caller] -= units
		a.accepted = a.accepted.Sub(payment)
		return fmt.Errorf("payment forwarding failed: %w", err)
	}

	a.emit.Emit(core.Event{Kind: core.EventBidPlaced, SaleID: a.ID(), Actor: caller,
		Amount: payment, Units: units, At: now})
	a.log.Debug("units purchased", zap.String("sale", a.ID()), zap.String("buyer", caller),
		zap.Int64("units", units), zap.String("price", price.String()))

	// Exhausting the supply ends the sale.
	a.settle(now)
	return nil
}

// TimeTick returns the current curve index.
func (a *Auction) TimeTick(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)
	return a.tick(now)
}

// State reports the effective state at now, committing the lazy end
// transition as a side effect.
func (a *Auction) State(now time.Time) core.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)
	return a.CurrentState()
}

// IsLive reports whether the auction accepts purchases at now.
func (a *Auction) IsLive(now time.Time) bool {
	return a.State(now) == core.Started
}

// RemainingSupply returns the units still for sale.
func (a *Auction) RemainingSupply() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remaining
}

// Purchased returns the cumulative units bought by id.
func (a *Auction) Purchased(id string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.purchased[id]
}

// TotalAccepted returns all payments ever accepted by this auction.
func (a *Auction) TotalAccepted() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accepted
}
