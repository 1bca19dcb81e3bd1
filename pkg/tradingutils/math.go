package tradingutils

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundPrice rounds a price to the specified decimals
func RoundPrice(price decimal.Decimal, priceDecimals int) decimal.Decimal {
	return price.Round(int32(priceDecimals))
}

// RoundQuantity rounds a quantity to the specified decimals
func RoundQuantity(qty decimal.Decimal, qtyDecimals int) decimal.Decimal {
	return qty.Round(int32(qtyDecimals))
}

// PnLPercent computes the profit of a long entry at the given price as a
// percentage of the entry price. A zero entry yields zero.
func PnLPercent(entryPrice, currentPrice decimal.Decimal) decimal.Decimal {
	if entryPrice.IsZero() {
		return decimal.Zero
	}
	return currentPrice.Sub(entryPrice).Div(entryPrice).Mul(hundred)
}

// WinRate computes winning/total as a percentage, or zero when no trades
// have completed yet.
func WinRate(winning, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(winning).Div(decimal.NewFromInt(total)).Mul(hundred)
}

// Clamp bounds a price into [low, high].
func Clamp(price, low, high decimal.Decimal) decimal.Decimal {
	if price.LessThan(low) {
		return low
	}
	if price.GreaterThan(high) {
		return high
	}
	return price
}
