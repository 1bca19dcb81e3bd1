package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus tracks the order lifecycle. Filled and Cancelled are terminal.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderFill carries the execution details of a filled order. It is set only
// when the order transitions to Filled; a Pending or Cancelled order has none.
type OrderFill struct {
	Price decimal.Decimal `json:"price"`
	Time  time.Time       `json:"time"`
}

// Order is a resting grid order. Orders are owned by the book that created
// them; queries hand out copies, never the book's own instances.
type Order struct {
	ID        int64           `json:"order_id"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Fill      *OrderFill      `json:"fill,omitempty"`
}

// IsPending reports whether the order is still resting on the grid.
func (o Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// Position is an open long position created by a buy fill. Quantity is signed
// so that closing math works uniformly, but the engine only ever opens longs.
type Position struct {
	Handle     int64           `json:"handle"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	EntryTime  time.Time       `json:"entry_time"`
}

// PnL returns the unrealized profit of the position at the given price.
func (p Position) PnL(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price.Sub(p.EntryPrice))
}

// Trade records a single realized close: qty closed out of one position at
// one exit price. The full trade log is part of the exported state so that
// statistics can be re-derived from an export alone.
type Trade struct {
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	PnL        decimal.Decimal `json:"pnl"`
	ClosedAt   time.Time       `json:"closed_at"`
}

// PriceTick is a single observation from the price feed.
type PriceTick struct {
	Time  time.Time
	Price decimal.Decimal
}

// Statistics is a point-in-time snapshot of the strategy's counters.
type Statistics struct {
	Symbol        string           `json:"symbol"`
	TotalTrades   int64            `json:"total_trades"`
	WinningTrades int64            `json:"winning_trades"`
	LosingTrades  int64            `json:"losing_trades"`
	WinRate       decimal.Decimal  `json:"win_rate"`
	TotalProfit   decimal.Decimal  `json:"total_profit"`
	UnrealizedPnL decimal.Decimal  `json:"unrealized_pnl"`
	TotalExposure decimal.Decimal  `json:"total_exposure"`
	OpenPositions int              `json:"open_positions"`
	PendingOrders int              `json:"pending_orders"`
	LastPrice     *decimal.Decimal `json:"last_price"`
}

// RiskLimitsState mirrors the configured risk limits inside an export.
type RiskLimitsState struct {
	MaxPositionSize  decimal.Decimal `json:"max_position_size"`
	StopLossPct      decimal.Decimal `json:"stop_loss_pct"`
	TakeProfitPct    decimal.Decimal `json:"take_profit_pct"`
	MaxOpenOrders    int             `json:"max_open_orders"`
	MaxTotalExposure decimal.Decimal `json:"max_total_exposure"`
}

// StrategyState is the full exported snapshot of a strategy session. It is
// write-only from the engine's perspective: a report for humans and tools,
// not a checkpoint a running engine is rebuilt from.
type StrategyState struct {
	SessionID        string            `json:"session_id"`
	Symbol           string            `json:"symbol"`
	LowerBound       decimal.Decimal   `json:"lower_bound"`
	UpperBound       decimal.Decimal   `json:"upper_bound"`
	GridLevels       int               `json:"grid_levels"`
	QuantityPerLevel decimal.Decimal   `json:"quantity_per_level"`
	GridSpacing      decimal.Decimal   `json:"grid_spacing"`
	GridPrices       []decimal.Decimal `json:"grid_prices"`
	Active           bool              `json:"active"`
	LastPrice        *decimal.Decimal  `json:"last_price"`
	RiskLimits       RiskLimitsState   `json:"risk_limits"`
	Orders           []Order           `json:"orders"`
	Positions        []Position        `json:"positions"`
	Trades           []Trade           `json:"trades"`
	Statistics       Statistics        `json:"statistics"`
	ExportedAt       time.Time         `json:"exported_at"`
}
