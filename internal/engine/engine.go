// Package engine drives a grid strategy session: it feeds ticks in, keeps
// the telemetry gauges current, and persists snapshots through the state
// store with retries.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"grid_trader/internal/core"
	"grid_trader/internal/trading/strategy"
	"grid_trader/pkg/telemetry"
)

// Config tunes the engine's persistence behavior.
type Config struct {
	// SnapshotIntervalTicks persists a snapshot every N ticks; 0 disables
	// periodic snapshots (start and stop snapshots are always written).
	SnapshotIntervalTicks int
	SaveRetries           int
}

// Engine owns one strategy session from seeding to shutdown.
type Engine struct {
	strategy *strategy.GridStrategy
	store    core.IStateStore
	logger   core.ILogger

	savePipeline failsafe.Executor[any]
	cfg          Config
	tickCount    int64
}

func New(strat *strategy.GridStrategy, store core.IStateStore, logger core.ILogger, cfg Config) *Engine {
	retryPolicy := retrypolicy.NewBuilder[any]().
		WithBackoff(50*time.Millisecond, 1*time.Second).
		WithMaxRetries(cfg.SaveRetries).
		Build()

	return &Engine{
		strategy:     strat,
		store:        store,
		logger:       logger.WithField("component", "engine"),
		savePipeline: failsafe.With[any](retryPolicy),
		cfg:          cfg,
	}
}

// Strategy exposes the underlying strategy for queries.
func (e *Engine) Strategy() *strategy.GridStrategy { return e.strategy }

// Start seeds the grid and persists the initial snapshot.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Starting grid engine", "symbol", e.strategy.Symbol())

	orders, err := e.strategy.InitializeGrid()
	if err != nil {
		return fmt.Errorf("failed to initialize grid: %w", err)
	}
	e.logger.Info("Grid seeded", "orders", len(orders))

	if err := e.saveState(ctx); err != nil {
		return fmt.Errorf("failed to persist initial snapshot: %w", err)
	}
	return nil
}

// OnTick feeds one price observation through the strategy, refreshes the
// gauges, and persists a periodic snapshot. A failed periodic save is
// reported but does not fail the tick: the book has already moved on.
func (e *Engine) OnTick(ctx context.Context, tick core.PriceTick) error {
	telemetry.GetGlobalMetrics().RecordTick(ctx, e.strategy.Symbol())

	e.strategy.UpdatePriceAt(tick)
	e.tickCount++

	stats := e.strategy.Statistics()
	unrealized, _ := stats.UnrealizedPnL.Float64()
	exposure, _ := stats.TotalExposure.Float64()
	telemetry.GetGlobalMetrics().SetGauges(stats.Symbol,
		unrealized, exposure,
		int64(stats.OpenPositions), int64(stats.PendingOrders))

	if e.cfg.SnapshotIntervalTicks > 0 && e.tickCount%int64(e.cfg.SnapshotIntervalTicks) == 0 {
		if err := e.saveState(ctx); err != nil {
			e.logger.Error("Periodic snapshot failed", "tick", e.tickCount, "error", err)
		}
	}
	return nil
}

// Stop ends the session and persists the final snapshot.
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Stopping grid engine")
	e.strategy.Stop()

	if err := e.saveState(ctx); err != nil {
		return fmt.Errorf("failed to persist final snapshot: %w", err)
	}

	stats := e.strategy.Statistics()
	e.logger.Info("Session summary",
		"total_trades", stats.TotalTrades,
		"winning", stats.WinningTrades,
		"losing", stats.LosingTrades,
		"win_rate", stats.WinRate.StringFixed(2),
		"total_profit", stats.TotalProfit.String())
	return nil
}

func (e *Engine) saveState(ctx context.Context) error {
	state := e.strategy.ExportState()
	return e.savePipeline.WithContext(ctx).Run(func() error {
		return e.store.SaveState(ctx, &state)
	})
}
