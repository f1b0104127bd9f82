package dutch

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Faro-Company/FaroContracts/core"
)

// Curve is the precomputed descending price sequence of a Dutch auction,
// indexed by elapsed time-ticks since start. The final point is the floor
// (listing) price.
type Curve []decimal.Decimal

// NewCurve validates and returns a price curve. The sequence must be
// non-empty, non-negative and monotonically non-increasing.
func NewCurve(points []decimal.Decimal) (Curve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("price curve cannot be empty")
	}
	curve := make(Curve, len(points))
	for i, p := range points {
		p = core.RoundAmount(p)
		if p.Sign() < 0 {
			return nil, fmt.Errorf("price curve point %d is negative (%s)", i, p)
		}
		if i > 0 && p.GreaterThan(curve[i-1]) {
			return nil, fmt.Errorf("price curve must be non-increasing, point %d rises to %s", i, p)
		}
		curve[i] = p
	}
	return curve, nil
}

// HalvingCurve builds a curve of the given length decaying exponentially
// from start down to start/2: point i is start * 2^(-i/(length-1)).
func HalvingCurve(start decimal.Decimal, length int) (Curve, error) {
	if length < 2 {
		return nil, fmt.Errorf("halving curve needs at least 2 points, got %d", length)
	}
	points := make([]decimal.Decimal, length)
	for i := 0; i < length; i++ {
		factor := math.Pow(2, -float64(i)/float64(length-1))
		points[i] = start.Mul(decimal.NewFromFloat(factor))
	}
	return NewCurve(points)
}

// PriceAt returns the price for a tick, clamped to the curve bounds.
func (c Curve) PriceAt(tick int) decimal.Decimal {
	if tick < 0 {
		tick = 0
	}
	if tick > len(c)-1 {
		tick = len(c) - 1
	}
	return c[tick]
}

// FloorPrice returns the final (lowest) curve point.
func (c Curve) FloorPrice() decimal.Decimal {
	return c[len(c)-1]
}
