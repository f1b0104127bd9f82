package core

import (
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 4 // 4 decimal places for monetary values (0.0001 precision)

// RoundAmount normalizes a monetary value to the engine's precision.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(monetaryPrecision)
}

// AmountCovers returns true if payment meets or exceeds required.
// Both sides are rounded to monetaryPrecision before comparison to avoid
// spurious rejections from sub-precision noise.
func AmountCovers(payment, required decimal.Decimal) bool {
	return RoundAmount(payment).GreaterThanOrEqual(RoundAmount(required))
}

// UnitCost computes the total price of units at unitPrice.
func UnitCost(unitPrice decimal.Decimal, units int64) decimal.Decimal {
	return RoundAmount(unitPrice.Mul(decimal.NewFromInt(units)))
}
