// Package offering implements the fixed-price allocation sale: a fungible
// supply pre-allocated across a fixed set of participants, each buying up
// to their cap at a constant unit price, settled directly to the
// project's funding destination.
package offering

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Faro-Company/FaroContracts/core"
)

// Params configures a new offering.
type Params struct {
	ID                 string
	Owner              string
	FundingDestination string
	UnitPrice          decimal.Decimal
	// Allocations maps participant identity to allocation cap. The set of
	// keys is the offering's allowlist.
	Allocations map[string]int64
}

// Option customizes an Offering at construction.
type Option func(*Offering)

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Offering) {
		if log != nil {
			o.log = log
		}
	}
}

// WithEmitter attaches an event emitter. Defaults to the nop emitter.
func WithEmitter(emit core.Emitter) Option {
	return func(o *Offering) {
		if emit != nil {
			o.emit = emit
		}
	}
}

// allocation is one participant's ledger entry. committed never
// decreases and never exceeds cap.
type allocation struct {
	cap       int64
	committed int64
}

// Offering is one fixed-price allocation sale instance.
type Offering struct {
	mu sync.Mutex
	core.Sale

	funding   string
	unitPrice decimal.Decimal

	ledger         map[string]*allocation
	totalRemaining int64
	paused         bool
	accepted       decimal.Decimal

	rail core.PaymentRail
	emit core.Emitter
	log  *zap.Logger
}

// New deploys an offering with its allocation table fixed up front.
func New(p Params, rail core.PaymentRail, opts ...Option) (*Offering, error) {
	if p.UnitPrice.Sign() <= 0 {
		return nil, fmt.Errorf("%w: unit price must be positive", core.ErrInvalidState)
	}
	if len(p.Allocations) == 0 {
		return nil, fmt.Errorf("%w: at least one allocation is required", core.ErrInvalidState)
	}
	if p.FundingDestination == "" {
		return nil, fmt.Errorf("%w: funding destination is required", core.ErrInvalidState)
	}

	ledger := make(map[string]*allocation, len(p.Allocations))
	var total int64
	for id, capUnits := range p.Allocations {
		if capUnits <= 0 {
			return nil, fmt.Errorf("%w: allocation for %s must be positive", core.ErrInvalidState, id)
		}
		ledger[id] = &allocation{cap: capUnits}
		total += capUnits
	}

	o := &Offering{
		Sale:           core.NewSale(p.ID, p.Owner),
		funding:        p.FundingDestination,
		unitPrice:      core.RoundAmount(p.UnitPrice),
		ledger:         ledger,
		totalRemaining: total,
		rail:           rail,
		emit:           core.NopEmitter(),
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.emit.Emit(core.Event{Kind: core.EventCreated, SaleID: o.ID(), Actor: p.Owner})
	return o, nil
}

// Start opens the offering for bids.
func (o *Offering) Start(caller string, now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.Begin(caller, now); err != nil {
		return err
	}
	o.emit.Emit(core.Event{Kind: core.EventStarted, SaleID: o.ID(), Actor: caller, At: now})
	return nil
}

// Cancel stops the offering. Legal from Deployed or Started, owner only.
func (o *Offering) Cancel(caller string, now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.CancelBy(caller); err != nil {
		return err
	}
	o.emit.Emit(core.Event{Kind: core.EventCancelled, SaleID: o.ID(), Actor: caller, At: now})
	return nil
}

// Pause suspends new bids without altering allocation state. A paused
// offering is excluded from live listings.
func (o *Offering) Pause(caller string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if caller != o.Owner() {
		return fmt.Errorf("%w: only the owner may pause", core.ErrUnauthorized)
	}
	o.paused = true
	return nil
}

// Unpause resumes bidding.
func (o *Offering) Unpause(caller string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if caller != o.Owner() {
		return fmt.Errorf("%w: only the owner may unpause", core.ErrUnauthorized)
	}
	o.paused = false
	return nil
}

// Bid purchases units against the caller's allocation at the fixed unit
// price. Payment is forwarded in full to the funding destination;
// bookkeeping commits before the transfer and a rail failure rolls it
// back. Selling the last allocated unit ends the offering.
func (o *Offering) Bid(caller string, units int64, payment decimal.Decimal, now time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.RequireLive(); err != nil {
		return err
	}
	if o.paused {
		return core.ErrSalePaused
	}
	entry, ok := o.ledger[caller]
	if !ok {
		return fmt.Errorf("%w: %s has no allocation in this offering", core.ErrNotEligible, caller)
	}
	if units <= 0 {
		return core.ErrZeroBid
	}
	if payment.Sign() <= 0 {
		return core.ErrZeroPayment
	}
	if entry.committed+units > entry.cap {
		return fmt.Errorf("%w: %d units over cap %d (already committed %d)",
			core.ErrExceedsAllocation, units, entry.cap, entry.committed)
	}
	cost := core.UnitCost(o.unitPrice, units)
	if !core.AmountCovers(payment, cost) {
		return fmt.Errorf("%w: %s does not cover %d units at %s", core.ErrInsufficientFunds,
			payment, units, o.unitPrice)
	}

	entry.committed += units
	o.totalRemaining -= units
	o.accepted = o.accepted.Add(payment)

	if err := o.rail.ForwardPayment(payment, o.funding); err != nil {
		entry.committed -= units
		o.totalRemaining += units
		o.accepted = o.accepted.Sub(payment)
		return fmt.Errorf("payment forwarding failed: %w", err)
	}

	o.emit.Emit(core.Event{Kind: core.EventBidPlaced, SaleID: o.ID(), Actor: caller,
		Amount: payment, Units: units, At: now})
	o.log.Debug("allocation purchased", zap.String("sale", o.ID()), zap.String("buyer", caller),
		zap.Int64("units", units), zap.Int64("total_remaining", o.totalRemaining))

	if o.totalRemaining == 0 {
		if o.MarkEnded() {
			o.emit.Emit(core.Event{Kind: core.EventEnded, SaleID: o.ID(), At: now})
		}
	}
	return nil
}

// RemainingAllocation returns the units id may still purchase. Pure
// projection, never mutates.
func (o *Offering) RemainingAllocation(id string) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.ledger[id]
	if !ok {
		return 0
	}
	return entry.cap - entry.committed
}

// FractionalBalance returns the units id has purchased so far. Pure
// projection, never mutates.
func (o *Offering) FractionalBalance(id string) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.ledger[id]
	if !ok {
		return 0
	}
	return entry.committed
}

// TotalRemainingAllocation returns the unsold units across all
// participants.
func (o *Offering) TotalRemainingAllocation() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalRemaining
}

// State reports the lifecycle state. The offering has no time-based end;
// now is accepted for interface symmetry with the auction engines.
func (o *Offering) State(time.Time) core.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.CurrentState()
}

// IsLive reports whether the offering accepts bids: started and not
// paused.
func (o *Offering) IsLive(now time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.CurrentState() == core.Started && !o.paused
}

// Paused reports whether new bids are suspended.
func (o *Offering) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// UnitPrice returns the fixed per-unit price.
func (o *Offering) UnitPrice() decimal.Decimal { return o.unitPrice }

// TotalAccepted returns all payments ever accepted by this offering.
func (o *Offering) TotalAccepted() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.accepted
}
