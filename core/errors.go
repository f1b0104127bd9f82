package core

import "errors"

// Rejection kinds surfaced by the sale engines. Every rejected operation
// leaves state untouched and wraps exactly one of these sentinels, so
// callers discriminate failure causes with errors.Is.
var (
	// ErrUnauthorized is returned when the caller lacks the required role.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidState is returned when an operation is attempted outside
	// its legal lifecycle state.
	ErrInvalidState = errors.New("operation not legal in current sale state")

	// ErrBidTooLow is returned when a bid fails the floor, increment or
	// current-price comparison.
	ErrBidTooLow = errors.New("bid too low")

	// ErrInsufficientFunds is returned when the payment does not cover the
	// requested units at the unit price.
	ErrInsufficientFunds = errors.New("insufficient funds for requested units")

	// ErrExceedsAllocation is returned when a purchase would push a
	// participant past their allocation cap.
	ErrExceedsAllocation = errors.New("bid exceeds remaining allocation")

	// ErrExceedsSupply is returned when a purchase requests more units than
	// remain in the pool.
	ErrExceedsSupply = errors.New("bid exceeds remaining supply")

	// ErrNothingToWithdraw is returned when the caller's withdrawable
	// balance is zero.
	ErrNothingToWithdraw = errors.New("no funds to withdraw")

	// ErrAlreadyClaimed is returned on a second claim of the same asset.
	ErrAlreadyClaimed = errors.New("asset already claimed")

	// ErrNotWinner is returned when a non-winner attempts to claim.
	ErrNotWinner = errors.New("caller is not the winning bidder")

	// ErrNotEligible is returned when the caller is absent from the sale's
	// allowlist or allocation table.
	ErrNotEligible = errors.New("caller is not eligible to participate")

	// ErrOwnerCannotBid is returned when the owner bids on their own sale.
	ErrOwnerCannotBid = errors.New("owner cannot bid on own sale")

	// ErrZeroBid is returned when zero units are requested.
	ErrZeroBid = errors.New("bid amount cannot be zero")

	// ErrZeroPayment is returned when no payment accompanies a bid.
	ErrZeroPayment = errors.New("payment cannot be zero")

	// ErrSalePaused is returned when bidding on a paused sale.
	ErrSalePaused = errors.New("sale is paused")

	// ErrDurationTooLong is returned at construction when the auction
	// period exceeds the configured maximum.
	ErrDurationTooLong = errors.New("auction duration too long")
)
