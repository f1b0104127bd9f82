// Package english implements the ascending-price auction engine: a single
// custodied asset, open bidding with proxy semantics, and pull-based
// settlement once the auction ends or is cancelled.
package english

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Faro-Company/FaroContracts/core"
)

// DefaultMaxDuration caps the auction period when Params.MaxDuration is
// left zero. Matches the one-year bound of the original listings.
const DefaultMaxDuration = 365 * 24 * time.Hour

// Params configures a new auction.
type Params struct {
	ID           string
	Owner        string
	Asset        core.AssetRef
	Duration     time.Duration
	FloorPrice   decimal.Decimal
	BidIncrement decimal.Decimal
	// MaxDuration overrides DefaultMaxDuration when positive.
	MaxDuration time.Duration
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

// Auction is one English auction instance. All mutating operations take
// the caller identity and the current time explicitly; the engine never
// reads a clock of its own.
type Auction struct {
	mu sync.Mutex
	core.Sale

	asset     core.AssetRef
	floor     decimal.Decimal
	increment decimal.Decimal
	duration  time.Duration
	endAt     time.Time

	// bids is the committed amount per bidder, reduced only by
	// withdrawals. The entry for the highest bidder is always at least
	// the binding bid while the auction is live.
	bids           map[string]decimal.Decimal
	highestBid     decimal.Decimal
	highestBinding decimal.Decimal
	highestBidder  string
	// secondBid is the best rival commitment. Once a rival exists the
	// binding price is min(secondBid + increment, highestBid) and never
	// decreases.
	secondBid decimal.Decimal

	assetClaimed bool
	proceedsPaid bool

	accepted  decimal.Decimal // all payments ever accepted
	withdrawn decimal.Decimal // all payments ever released

	custody core.AssetCustody
	rail    core.PaymentRail
	emit    core.Emitter
	log     *zap.Logger
}

// New deploys an auction and takes the asset into custody. The instance
// holds the asset exclusively until settlement returns it to the winner
// (or to the owner on cancellation).
func New(p Params, custody core.AssetCustody, rail core.PaymentRail, opts ...Option) (*Auction, error) {
	maxDuration := p.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	if p.Duration <= 0 {
		return nil, fmt.Errorf("%w: auction duration must be positive", core.ErrInvalidState)
	}
	if p.Duration > maxDuration {
		return nil, fmt.Errorf("%w: %s exceeds maximum %s", core.ErrDurationTooLong, p.Duration, maxDuration)
	}
	if p.BidIncrement.Sign() <= 0 {
		return nil, fmt.Errorf("%w: bid increment must be positive", core.ErrInvalidState)
	}
	if p.FloorPrice.Sign() < 0 {
		return nil, fmt.Errorf("%w: floor price cannot be negative", core.ErrInvalidState)
	}

	a := &Auction{
		Sale:      core.NewSale(p.ID, p.Owner),
		asset:     p.Asset,
		floor:     core.RoundAmount(p.FloorPrice),
		increment: core.RoundAmount(p.BidIncrement),
		duration:  p.Duration,
		bids:      make(map[string]decimal.Decimal),
		custody:   custody,
		rail:      rail,
		emit:      core.NopEmitter(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := custody.TransferAssetIn(p.Asset, p.Owner); err != nil {
		return nil, fmt.Errorf("taking asset into custody: %w", err)
	}
	a.emit.Emit(core.Event{Kind: core.EventCreated, SaleID: a.ID(), Actor: p.Owner})
	return a, nil
}

// settle applies the lazy time-based end transition. Callers must hold mu.
func (a *Auction) settle(now time.Time) {
	if a.CurrentState() == core.Started && !now.Before(a.endAt) {
		if a.MarkEnded() {
			a.emit.Emit(core.Event{Kind: core.EventEnded, SaleID: a.ID(), At: now})
			a.log.Info("auction ended", zap.String("sale", a.ID()),
				zap.String("winner", a.highestBidder),
				zap.String("binding_bid", a.highestBinding.String()))
		}
	}
}

// Start opens the auction for bidding and fixes the end time.
func (a *Auction) Start(caller string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.Begin(caller, now); err != nil {
		return err
	}
	a.endAt = now.Add(a.duration)
	a.emit.Emit(core.Event{Kind: core.EventStarted, SaleID: a.ID(), Actor: caller, At: now})
	return nil
}

// Cancel stops the auction before it matures. Already-placed bids become
// refundable through Withdraw; the asset returns to the owner through
// WithdrawAssetWhenCancelled.
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

// Bid adds amount to the caller's committed total and recomputes the
// proxy-bid positions. The funds move into escrow held by the instance;
// bookkeeping commits before the escrow credit, and a rail failure rolls
// the bookkeeping back.
func (a *Auction) Bid(caller string, amount decimal.Decimal, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)

	if err := a.RequireLive(); err != nil {
		return err
	}
	if caller == a.Owner() {
		return core.ErrOwnerCannotBid
	}
	amount = core.RoundAmount(amount)
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: bid payment must be positive", core.ErrZeroPayment)
	}

	prevTotal := a.bids[caller]
	newTotal := prevTotal.Add(amount)
	if newTotal.LessThan(a.floor) {
		return fmt.Errorf("%w: total %s below floor price %s", core.ErrBidTooLow, newTotal, a.floor)
	}

	// Snapshot for rollback if the escrow credit fails.
	prevHighestBid := a.highestBid
	prevBinding := a.highestBinding
	prevBidder := a.highestBidder
	prevSecond := a.secondBid
	prevAccepted := a.accepted

	switch {
	case a.highestBidder == "":
		// First bid: no rival yet, the full commitment is binding until a
		// competing bid recomputes it.
		a.highestBidder = caller
		a.highestBid = newTotal
		a.highestBinding = newTotal
	case caller == a.highestBidder:
		// Leader raising their own maximum; the binding price only moves
		// when a rival does.
		a.highestBid = newTotal
	case newTotal.GreaterThan(a.highestBid):
		// Takeover must clear the binding price by one increment. The
		// dethroned leader's maximum becomes the best rival commitment.
		if !newTotal.GreaterThan(a.highestBinding.Add(a.increment)) {
			return fmt.Errorf("%w: minimum bid is binding bid plus increment (%s)",
				core.ErrBidTooLow, a.highestBinding.Add(a.increment))
		}
		a.highestBidder = caller
		a.secondBid = a.highestBid
		a.highestBinding = decimal.Min(newTotal, a.secondBid.Add(a.increment))
		a.highestBid = newTotal
	case newTotal.GreaterThan(a.secondBid):
		// A non-leading commitment above the best rival pushes the binding
		// price to one increment above it, clamped to the leader's maximum.
		a.secondBid = newTotal
		a.highestBinding = decimal.Min(newTotal.Add(a.increment), a.highestBid)
	default:
		// A commitment below the best rival cannot cheapen the binding
		// price; it is recorded and refundable but moves nothing.
	}

	a.bids[caller] = newTotal
	a.accepted = a.accepted.Add(amount)

	if err := a.rail.CreditEscrow(caller, amount); err != nil {
		a.bids[caller] = prevTotal
		a.highestBid = prevHighestBid
		a.highestBinding = prevBinding
		a.highestBidder = prevBidder
		a.secondBid = prevSecond
		a.accepted = prevAccepted
		return fmt.Errorf("escrow credit failed: %w", err)
	}

	a.emit.Emit(core.Event{Kind: core.EventBidPlaced, SaleID: a.ID(), Actor: caller, Amount: amount, At: now})
	a.log.Debug("bid placed", zap.String("sale", a.ID()), zap.String("bidder", caller),
		zap.String("total", newTotal.String()), zap.String("binding", a.highestBinding.String()))
	return nil
}

// Withdraw releases whatever the caller is owed after the auction reached
// a terminal state, exactly once. Losers pull their full committed
// amount. After a regular end the winner may pull only the excess above
// the binding bid, and the owner pulls the binding bid itself. After a
// cancellation every bidder, winner included, is refunded in full. The
// withdrawn amount is returned.
func (a *Auction) Withdraw(caller string, now time.Time) (decimal.Decimal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)

	if err := a.RequireTerminal(); err != nil {
		return decimal.Zero, err
	}

	st := a.CurrentState()
	if caller == a.Owner() {
		return a.withdrawProceeds(caller, st, now)
	}

	committed := a.bids[caller]
	owed := committed
	debitFrom := caller
	if st == core.Ended && caller == a.highestBidder {
		// Winner keeps only the excess above the binding price; the
		// binding portion belongs to the seller (unless already paid).
		if !a.proceedsPaid {
			owed = committed.Sub(a.highestBinding)
		}
	}
	if owed.Sign() <= 0 {
		return decimal.Zero, core.ErrNothingToWithdraw
	}

	a.bids[caller] = committed.Sub(owed)
	a.withdrawn = a.withdrawn.Add(owed)
	if err := a.rail.ReleaseEscrow(debitFrom, owed, caller); err != nil {
		a.bids[caller] = committed
		a.withdrawn = a.withdrawn.Sub(owed)
		return decimal.Zero, fmt.Errorf("escrow release failed: %w", err)
	}

	a.emit.Emit(core.Event{Kind: core.EventWithdrawn, SaleID: a.ID(), Actor: caller, Amount: owed, At: now})
	return owed, nil
}

// withdrawProceeds pays the seller the binding bid out of the winner's
// escrow, once, after a regular end. Callers must hold mu.
func (a *Auction) withdrawProceeds(caller string, st core.State, now time.Time) (decimal.Decimal, error) {
	if st != core.Ended || a.highestBidder == "" || a.proceedsPaid || a.highestBinding.Sign() <= 0 {
		return decimal.Zero, core.ErrNothingToWithdraw
	}

	owed := a.highestBinding
	winner := a.highestBidder
	prevEntry := a.bids[winner]

	a.proceedsPaid = true
	a.bids[winner] = prevEntry.Sub(owed)
	a.withdrawn = a.withdrawn.Add(owed)
	if err := a.rail.ReleaseEscrow(winner, owed, caller); err != nil {
		a.proceedsPaid = false
		a.bids[winner] = prevEntry
		a.withdrawn = a.withdrawn.Sub(owed)
		return decimal.Zero, fmt.Errorf("escrow release failed: %w", err)
	}

	a.emit.Emit(core.Event{Kind: core.EventWithdrawn, SaleID: a.ID(), Actor: caller, Amount: owed, At: now})
	return owed, nil
}

// WithdrawAsset transfers the custodied asset to the winner, once, after
// a regular end. If the auction ended with no bids the owner retrieves
// the asset instead.
func (a *Auction) WithdrawAsset(caller string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)

	if st := a.CurrentState(); st != core.Ended {
		return fmt.Errorf("%w: auction is %s, not %s", core.ErrInvalidState, st, core.Ended)
	}
	if a.assetClaimed {
		return core.ErrAlreadyClaimed
	}
	if a.highestBidder == "" {
		if caller != a.Owner() {
			return core.ErrNotWinner
		}
	} else if caller != a.highestBidder {
		return core.ErrNotWinner
	}

	a.assetClaimed = true
	if err := a.custody.TransferAssetOut(a.asset, caller); err != nil {
		a.assetClaimed = false
		return fmt.Errorf("asset transfer failed: %w", err)
	}

	a.emit.Emit(core.Event{Kind: core.EventClaimed, SaleID: a.ID(), Actor: caller, At: now})
	return nil
}

// WithdrawAssetWhenCancelled returns the custodied asset to the owner
// after a cancellation, once.
func (a *Auction) WithdrawAssetWhenCancelled(caller string, now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if st := a.CurrentState(); st != core.Cancelled {
		return fmt.Errorf("%w: auction is %s, not %s", core.ErrInvalidState, st, core.Cancelled)
	}
	if caller != a.Owner() {
		return fmt.Errorf("%w: only the owner may retrieve the asset", core.ErrUnauthorized)
	}
	if a.assetClaimed {
		return core.ErrAlreadyClaimed
	}

	a.assetClaimed = true
	if err := a.custody.TransferAssetOut(a.asset, caller); err != nil {
		a.assetClaimed = false
		return fmt.Errorf("asset transfer failed: %w", err)
	}

	a.emit.Emit(core.Event{Kind: core.EventClaimed, SaleID: a.ID(), Actor: caller, At: now})
	return nil
}

// TriggerEnd forces the end transition once the auction has matured.
// Ending is otherwise lazy; this exists for callers that want the Ended
// event committed without performing another operation.
func (a *Auction) TriggerEnd(now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)
	if st := a.CurrentState(); st != core.Ended {
		return fmt.Errorf("%w: auction cannot be ended while %s", core.ErrInvalidState, st)
	}
	return nil
}

// State reports the effective state at now, committing the lazy end
// transition as a side effect.
func (a *Auction) State(now time.Time) core.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settle(now)
	return a.CurrentState()
}

// IsLive reports whether the auction accepts bids at now.
func (a *Auction) IsLive(now time.Time) bool {
	return a.State(now) == core.Started
}

// HighestBid returns the leader's full committed amount.
func (a *Auction) HighestBid() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBid
}

// HighestBindingBid returns the price the winner is actually obligated to
// pay, which may be below their maximum commitment.
func (a *Auction) HighestBindingBid() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBinding
}

// HighestBidder returns the current leader, or "" before any bid.
func (a *Auction) HighestBidder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBidder
}

// CommittedOf returns the ledger entry for id.
func (a *Auction) CommittedOf(id string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bids[id]
}

// EndTime returns the fixed maturity time. Zero before Start.
func (a *Auction) EndTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.endAt
}

// Asset returns the custodied asset reference.
func (a *Auction) Asset() core.AssetRef { return a.asset }

// TotalAccepted returns all payments ever accepted by this auction.
func (a *Auction) TotalAccepted() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accepted
}

// TotalWithdrawn returns all payments ever released by this auction.
func (a *Auction) TotalWithdrawn() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.withdrawn
}

// LedgerTotal sums the outstanding committed amounts. At every point
// LedgerTotal + TotalWithdrawn equals TotalAccepted.
func (a *Auction) LedgerTotal() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := decimal.Zero
	for _, v := range a.bids {
		total = total.Add(v)
	}
	return total
}
