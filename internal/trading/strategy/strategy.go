// Package strategy implements the range-bound grid trading book: the order
// log, the open-position set, and the per-tick fill/replenish/risk cycle.
package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"grid_trader/internal/core"
	"grid_trader/internal/notify"
	"grid_trader/internal/risk"
	"grid_trader/internal/trading/grid"
	"grid_trader/internal/trading/position"
	apperrors "grid_trader/pkg/errors"
	"grid_trader/pkg/telemetry"
)

// GridStrategy maintains a ladder of resting buy/sell orders inside a price
// range, fills them as ticks cross their levels, and nets the resulting
// positions under the configured risk limits.
//
// All public methods are safe for concurrent use: a single mutex guards the
// whole book, so a tick always runs to completion before the next call
// proceeds.
type GridStrategy struct {
	cfg    grid.Config
	ladder *grid.Ladder
	limits risk.Limits

	breaker core.ICircuitBreaker
	events  *notify.Bus
	logger  core.ILogger

	mu          sync.Mutex
	orders      []*core.Order
	nextOrderID int64
	book        *position.Book
	totalTrades int64
	active      bool
	lastPrice   decimal.Decimal
	hasPrice    bool
	sessionID   string
}

// New validates the grid config and builds an inactive strategy. breaker and
// events may be nil; logger may not.
func New(
	cfg grid.Config,
	limits risk.Limits,
	breaker core.ICircuitBreaker,
	events *notify.Bus,
	logger core.ILogger,
) (*GridStrategy, error) {
	ladder, err := grid.NewLadder(cfg)
	if err != nil {
		return nil, err
	}

	return &GridStrategy{
		cfg:         cfg,
		ladder:      ladder,
		limits:      limits,
		breaker:     breaker,
		events:      events,
		logger:      logger.WithField("component", "grid_strategy").WithField("symbol", cfg.Symbol),
		nextOrderID: 1,
		book:        position.NewBook(),
		sessionID:   uuid.NewString(),
	}, nil
}

// Symbol returns the configured trading symbol.
func (s *GridStrategy) Symbol() string { return s.cfg.Symbol }

// Ladder returns the computed grid ladder.
func (s *GridStrategy) Ladder() *grid.Ladder { return s.ladder }

// IsActive reports whether the session is running (seeded and not stopped).
func (s *GridStrategy) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// LastPrice returns the most recent observed price, if any tick has arrived.
func (s *GridStrategy) LastPrice() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrice, s.hasPrice
}

// InitializeGrid seeds the ladder: buy orders on the strict lower half of
// the levels, sell orders on the strict upper half, nothing on the exact
// middle index. Returns the created orders. Calling it twice fails with
// ErrAlreadyInitialized; a rejected order during seeding fails the whole
// operation and is returned alongside the orders created before it.
func (s *GridStrategy) InitializeGrid() ([]core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil, apperrors.ErrAlreadyInitialized
	}

	now := time.Now()
	levels := s.ladder.Levels()
	mid := len(levels) / 2

	created := make([]core.Order, 0, len(levels)-1)
	for i, price := range levels {
		var side core.Side
		switch {
		case i < mid:
			side = core.SideBuy
		case i > mid:
			side = core.SideSell
		default:
			// The middle level deliberately carries no resting order.
			continue
		}

		order, err := s.createOrderLocked(side, price, s.cfg.QuantityPerLevel, now)
		if err != nil {
			return created, fmt.Errorf("grid seeding failed at level %d (%s): %w", i, price, err)
		}
		created = append(created, *order)
	}

	s.active = true
	s.logger.Info("Grid initialized",
		"levels", len(levels),
		"orders", len(created),
		"spacing", s.ladder.Spacing().String())
	return created, nil
}

// CreateOrder places a single resting order through the same risk choke
// point the ladder uses. Callers must surface the rejection errors
// (ErrMaxOpenOrders, ErrOrderTooLarge); a rejection leaves the book
// unchanged.
func (s *GridStrategy) CreateOrder(side core.Side, price, quantity decimal.Decimal) (core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.createOrderLocked(side, price, quantity, time.Now())
	if err != nil {
		return core.Order{}, err
	}
	return *order, nil
}

func (s *GridStrategy) createOrderLocked(side core.Side, price, quantity decimal.Decimal, ts time.Time) (*core.Order, error) {
	if err := s.limits.CheckOrder(s.pendingCountLocked(), quantity); err != nil {
		return nil, err
	}

	order := &core.Order{
		ID:        s.nextOrderID,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Status:    core.OrderStatusPending,
		CreatedAt: ts,
	}
	s.orders = append(s.orders, order)
	s.nextOrderID++

	telemetry.GetGlobalMetrics().RecordOrderPlaced(context.Background(), s.cfg.Symbol, string(side))
	return order, nil
}

// UpdatePrice processes a tick timestamped now.
func (s *GridStrategy) UpdatePrice(price decimal.Decimal) {
	s.UpdatePriceAt(core.PriceTick{Time: time.Now(), Price: price})
}

// UpdatePriceAt processes one price observation: it records the price,
// reports an out-of-range observation, fills every crossed order that was
// pending when the tick began (oldest first), and then applies the
// stop-loss/take-profit pass to the surviving positions. The tick runs to
// completion under the book's mutex.
func (s *GridStrategy) UpdatePriceAt(tick core.PriceTick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price := tick.Price
	s.lastPrice = price
	s.hasPrice = true

	// 1. Out-of-bounds observation: reported, never blocking.
	if price.LessThan(s.cfg.LowerBound) || price.GreaterThan(s.cfg.UpperBound) {
		s.logger.Warn("Price outside grid bounds",
			"price", price.String(),
			"lower", s.cfg.LowerBound.String(),
			"upper", s.cfg.UpperBound.String())
		s.publishLocked(notify.EventOutOfBoundsPrice, tick,
			fmt.Sprintf("price %s outside grid bounds [%s, %s]", price, s.cfg.LowerBound, s.cfg.UpperBound),
			map[string]string{"price": price.String()})
	}

	// 2. Fill pass over the orders pending at tick start, in id order.
	// Replenishment orders created mid-pass are not rescanned this tick.
	pending := make([]*core.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if o.IsPending() {
			pending = append(pending, o)
		}
	}
	for _, o := range pending {
		if crossed(o, price) {
			s.fillOrderLocked(o, tick)
		}
	}

	// 3. Risk pass: stop-loss / take-profit on every surviving position.
	s.riskPassLocked(tick)
}

// crossed reports whether an order fills against the tick price: buys at or
// below their level, sells at or above.
func crossed(o *core.Order, price decimal.Decimal) bool {
	if o.Side == core.SideBuy {
		return price.LessThanOrEqual(o.Price)
	}
	return price.GreaterThanOrEqual(o.Price)
}

func (s *GridStrategy) fillOrderLocked(o *core.Order, tick core.PriceTick) {
	// Fills execute at the observed price, not the resting limit price.
	o.Status = core.OrderStatusFilled
	o.Fill = &core.OrderFill{Price: tick.Price, Time: tick.Time}
	s.totalTrades++

	telemetry.GetGlobalMetrics().RecordOrderFilled(context.Background(), s.cfg.Symbol, string(o.Side))
	s.logger.Debug("Order filled",
		"order_id", o.ID,
		"side", string(o.Side),
		"level", o.Price.String(),
		"fill_price", tick.Price.String())

	if o.Side == core.SideBuy {
		s.openPositionLocked(o.Quantity, tick)
		if level, ok := s.ladder.NextLevelAbove(tick.Price); ok {
			s.replenishLocked(core.SideSell, level, tick)
		}
	} else {
		s.closePositionLocked(o.Quantity, tick)
		if level, ok := s.ladder.NextLevelBelow(tick.Price); ok {
			s.replenishLocked(core.SideBuy, level, tick)
		}
	}
}

// replenishLocked places the one replacement order that keeps the ladder
// populated after a fill. Rejections leave the ladder thin instead of
// failing the tick.
func (s *GridStrategy) replenishLocked(side core.Side, level decimal.Decimal, tick core.PriceTick) {
	if s.breaker != nil && s.breaker.IsTripped() {
		s.logger.Warn("Circuit breaker tripped, skipping ladder replenishment",
			"side", string(side), "level", level.String())
		return
	}

	if _, err := s.createOrderLocked(side, level, s.cfg.QuantityPerLevel, tick.Time); err != nil {
		s.logger.Debug("Replenishment rejected, ladder thinning",
			"side", string(side), "level", level.String(), "error", err)
		s.publishLocked(notify.EventOrderRejected, tick,
			fmt.Sprintf("replenishment %s order at %s rejected", side, level),
			map[string]string{"side": string(side), "level": level.String()})
	}
}

// openPositionLocked opens a long position unless it would push total
// exposure past the limit; in that case the fill stands but no position is
// created.
func (s *GridStrategy) openPositionLocked(quantity decimal.Decimal, tick core.PriceTick) {
	additional := quantity.Mul(tick.Price)
	current := s.book.TotalExposure()
	if !s.limits.AllowsExposure(current, additional) {
		s.logger.Warn("Cannot open position, would exceed max total exposure",
			"current", current.String(),
			"additional", additional.String(),
			"limit", s.limits.MaxTotalExposure.String())
		s.publishLocked(notify.EventExposureRejected, tick,
			"position open skipped: max total exposure exceeded",
			map[string]string{
				"current_exposure": current.String(),
				"additional":       additional.String(),
			})
		return
	}
	s.book.Open(quantity, tick.Price, tick.Time)
}

func (s *GridStrategy) closePositionLocked(quantity decimal.Decimal, tick core.PriceTick) {
	trades := s.book.Close(quantity, tick.Price, tick.Time)
	s.recordTradesLocked(trades)
}

func (s *GridStrategy) riskPassLocked(tick core.PriceTick) {
	for _, h := range s.book.Handles() {
		pos, ok := s.book.Get(h)
		if !ok || !pos.Quantity.IsPositive() {
			continue
		}

		trigger := s.limits.CheckPosition(pos, tick.Price)
		if trigger == risk.TriggerNone {
			continue
		}

		trade, closed := s.book.CloseHandle(h, tick.Price, tick.Time)
		if !closed {
			continue
		}
		s.recordTradesLocked([]core.Trade{trade})

		eventType := notify.EventStopLoss
		if trigger == risk.TriggerTakeProfit {
			eventType = notify.EventTakeProfit
		}
		telemetry.GetGlobalMetrics().RecordRiskTrigger(context.Background(), s.cfg.Symbol, trigger.String())
		s.logger.Info("Risk trigger closed position",
			"trigger", trigger.String(),
			"entry_price", pos.EntryPrice.String(),
			"exit_price", tick.Price.String(),
			"pnl", trade.PnL.String())
		s.publishLocked(eventType, tick,
			fmt.Sprintf("%s closed position entered at %s", trigger, pos.EntryPrice),
			map[string]string{
				"entry_price": pos.EntryPrice.String(),
				"exit_price":  tick.Price.String(),
				"pnl":         trade.PnL.String(),
			})
	}
}

func (s *GridStrategy) recordTradesLocked(trades []core.Trade) {
	for _, t := range trades {
		if s.breaker != nil {
			s.breaker.RecordTrade(t.PnL)
		}
		pnl, _ := t.PnL.Float64()
		telemetry.GetGlobalMetrics().RecordRealizedPnL(context.Background(), s.cfg.Symbol, pnl)
	}
}

// CancelAllOrders transitions every pending order to Cancelled. Filled and
// Cancelled orders are untouched, so repeated calls are no-ops.
func (s *GridStrategy) CancelAllOrders() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
}

func (s *GridStrategy) cancelAllLocked() {
	for _, o := range s.orders {
		if o.IsPending() {
			o.Status = core.OrderStatusCancelled
		}
	}
}

// CloseAllPositions closes every open position at the given price.
func (s *GridStrategy) CloseAllPositions(price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeAllLocked(core.PriceTick{Time: time.Now(), Price: price})
}

func (s *GridStrategy) closeAllLocked(tick core.PriceTick) {
	for _, h := range s.book.Handles() {
		trade, ok := s.book.CloseHandle(h, tick.Price, tick.Time)
		if ok {
			s.recordTradesLocked([]core.Trade{trade})
		}
	}
}

// Stop ends the session: deactivates the strategy, cancels all pending
// orders, and closes every position at the last observed price — or at the
// ladder's middle level when no tick was ever seen. The session is terminal;
// a new session requires a new strategy.
func (s *GridStrategy) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	s.cancelAllLocked()

	closingPrice := s.lastPrice
	if !s.hasPrice {
		closingPrice = s.ladder.MiddleLevel()
	}
	s.closeAllLocked(core.PriceTick{Time: time.Now(), Price: closingPrice})

	s.logger.Info("Strategy stopped",
		"closing_price", closingPrice.String(),
		"total_profit", s.book.TotalProfit().String())
}

func (s *GridStrategy) pendingCountLocked() int {
	n := 0
	for _, o := range s.orders {
		if o.IsPending() {
			n++
		}
	}
	return n
}

func (s *GridStrategy) publishLocked(t notify.EventType, tick core.PriceTick, msg string, fields map[string]string) {
	if s.events == nil {
		return
	}
	s.events.Publish(notify.Event{
		Type:      t,
		Symbol:    s.cfg.Symbol,
		Message:   msg,
		Timestamp: tick.Time,
		Fields:    fields,
	})
}
