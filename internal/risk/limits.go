// Package risk applies the configured trading limits at the book's mutation
// points. It owns no data: every check is a pure policy over values the book
// passes in.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"grid_trader/internal/core"
	apperrors "grid_trader/pkg/errors"
	"grid_trader/pkg/tradingutils"
)

// Limits holds the configured risk limits. All fields are independently
// configurable; there is no cross-field invariant.
type Limits struct {
	MaxPositionSize  decimal.Decimal
	StopLossPct      decimal.Decimal
	TakeProfitPct    decimal.Decimal
	MaxOpenOrders    int
	MaxTotalExposure decimal.Decimal
}

// DefaultLimits mirrors the stock parameters used when no limits are supplied.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionSize:  decimal.NewFromInt(1000),
		StopLossPct:      decimal.NewFromInt(5),
		TakeProfitPct:    decimal.NewFromInt(10),
		MaxOpenOrders:    20,
		MaxTotalExposure: decimal.NewFromInt(10000),
	}
}

// CheckOrder gates order creation: the pending-order count must stay below
// MaxOpenOrders and no single order may exceed MaxPositionSize. This runs
// before any mutation, so a rejection leaves the book untouched.
func (l Limits) CheckOrder(pendingCount int, quantity decimal.Decimal) error {
	if pendingCount >= l.MaxOpenOrders {
		return fmt.Errorf("%w: %d", apperrors.ErrMaxOpenOrders, l.MaxOpenOrders)
	}
	if quantity.GreaterThan(l.MaxPositionSize) {
		return fmt.Errorf("%w: quantity %s exceeds %s",
			apperrors.ErrOrderTooLarge, quantity, l.MaxPositionSize)
	}
	return nil
}

// AllowsExposure reports whether opening an additional quantity*price of
// exposure on top of the current total stays within MaxTotalExposure.
func (l Limits) AllowsExposure(current, additional decimal.Decimal) bool {
	return !current.Add(additional).GreaterThan(l.MaxTotalExposure)
}

// Trigger identifies which limit fired against an open position.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerStopLoss
	TriggerTakeProfit
)

func (t Trigger) String() string {
	switch t {
	case TriggerStopLoss:
		return "stop_loss"
	case TriggerTakeProfit:
		return "take_profit"
	default:
		return "none"
	}
}

// CheckPosition evaluates an open position against the stop-loss and
// take-profit thresholds at the given price. Stop-loss wins when both could
// fire. Fires exactly at the threshold (PnL% <= -stop, PnL% >= take).
func (l Limits) CheckPosition(pos core.Position, price decimal.Decimal) Trigger {
	pnlPct := tradingutils.PnLPercent(pos.EntryPrice, price)

	if pnlPct.LessThanOrEqual(l.StopLossPct.Neg()) {
		return TriggerStopLoss
	}
	if pnlPct.GreaterThanOrEqual(l.TakeProfitPct) {
		return TriggerTakeProfit
	}
	return TriggerNone
}

// State exports the limits into the serialized snapshot form.
func (l Limits) State() core.RiskLimitsState {
	return core.RiskLimitsState{
		MaxPositionSize:  l.MaxPositionSize,
		StopLossPct:      l.StopLossPct,
		TakeProfitPct:    l.TakeProfitPct,
		MaxOpenOrders:    l.MaxOpenOrders,
		MaxTotalExposure: l.MaxTotalExposure,
	}
}
