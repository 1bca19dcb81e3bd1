package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"grid_trader/internal/core"
	"grid_trader/pkg/tradingutils"
)

// Orders returns a copy of the full order log, creation order preserved.
func (s *GridStrategy) Orders() []core.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyOrdersLocked(func(core.Order) bool { return true })
}

// PendingOrders returns copies of the orders still resting on the grid.
func (s *GridStrategy) PendingOrders() []core.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyOrdersLocked(core.Order.IsPending)
}

// FilledOrders returns copies of every filled order.
func (s *GridStrategy) FilledOrders() []core.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyOrdersLocked(func(o core.Order) bool {
		return o.Status == core.OrderStatusFilled
	})
}

func (s *GridStrategy) copyOrdersLocked(keep func(core.Order) bool) []core.Order {
	out := make([]core.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if !keep(*o) {
			continue
		}
		c := *o
		if o.Fill != nil {
			fill := *o.Fill
			c.Fill = &fill
		}
		out = append(out, c)
	}
	return out
}

// OpenPositions returns copies of the open positions in entry order.
func (s *GridStrategy) OpenPositions() []core.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Positions()
}

// Trades returns a copy of the realized trade log.
func (s *GridStrategy) Trades() []core.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Trades()
}

// TotalExposure returns the entry-price-weighted size of all open positions.
func (s *GridStrategy) TotalExposure() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.TotalExposure()
}

// UnrealizedPnL values the open positions at the last observed price. Before
// the first tick it is zero.
func (s *GridStrategy) UnrealizedPnL() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unrealizedPnLLocked()
}

func (s *GridStrategy) unrealizedPnLLocked() decimal.Decimal {
	if !s.hasPrice {
		return decimal.Zero
	}
	return s.book.UnrealizedPnL(s.lastPrice)
}

// Statistics computes a consistent point-in-time snapshot of the session's
// counters. Win rate is winning closes over total fills, as a percentage.
func (s *GridStrategy) Statistics() core.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statisticsLocked()
}

func (s *GridStrategy) statisticsLocked() core.Statistics {
	stats := core.Statistics{
		Symbol:        s.cfg.Symbol,
		TotalTrades:   s.totalTrades,
		WinningTrades: s.book.WinningTrades(),
		LosingTrades:  s.book.LosingTrades(),
		WinRate:       tradingutils.WinRate(s.book.WinningTrades(), s.totalTrades),
		TotalProfit:   s.book.TotalProfit(),
		UnrealizedPnL: s.unrealizedPnLLocked(),
		TotalExposure: s.book.TotalExposure(),
		OpenPositions: s.book.OpenCount(),
		PendingOrders: s.pendingCountLocked(),
	}
	if s.hasPrice {
		p := s.lastPrice
		stats.LastPrice = &p
	}
	return stats
}

// ExportState snapshots the whole session — config, ladder, order log,
// positions, trade log, and statistics — under one lock acquisition, so the
// export is internally consistent even while ticks keep arriving.
func (s *GridStrategy) ExportState() core.StrategyState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := core.StrategyState{
		SessionID:        s.sessionID,
		Symbol:           s.cfg.Symbol,
		LowerBound:       s.cfg.LowerBound,
		UpperBound:       s.cfg.UpperBound,
		GridLevels:       s.cfg.Levels,
		QuantityPerLevel: s.cfg.QuantityPerLevel,
		GridSpacing:      s.ladder.Spacing(),
		GridPrices:       s.ladder.Levels(),
		Active:           s.active,
		RiskLimits:       s.limits.State(),
		Orders:           s.copyOrdersLocked(func(core.Order) bool { return true }),
		Positions:        s.book.Positions(),
		Trades:           s.book.Trades(),
		Statistics:       s.statisticsLocked(),
		ExportedAt:       time.Now(),
	}
	if s.hasPrice {
		p := s.lastPrice
		state.LastPrice = &p
	}
	return state
}
