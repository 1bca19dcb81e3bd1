package sim

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"grid_trader/internal/core"
	"grid_trader/internal/engine"
)

// RunnerConfig tunes the tick loop.
type RunnerConfig struct {
	// TicksPerSecond throttles feed delivery.
	TicksPerSecond float64
	// MaxTicks stops the run after N ticks; 0 runs until the context is
	// cancelled.
	MaxTicks int
}

// Runner pumps feed ticks into the engine until the context is cancelled or
// the tick budget is spent.
type Runner struct {
	feed    *Feed
	engine  *engine.Engine
	logger  core.ILogger
	cfg     RunnerConfig
	limiter *rate.Limiter
}

func NewRunner(feed *Feed, eng *engine.Engine, logger core.ILogger, cfg RunnerConfig) *Runner {
	if cfg.TicksPerSecond <= 0 {
		cfg.TicksPerSecond = 10
	}
	return &Runner{
		feed:    feed,
		engine:  eng,
		logger:  logger.WithField("component", "simulator"),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.TicksPerSecond), 1),
	}
}

// Run drives the tick loop. It returns nil on a clean finish (budget spent
// or context cancelled) and an error only when the engine itself fails.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Simulator starting",
		"ticks_per_second", r.cfg.TicksPerSecond,
		"max_ticks", r.cfg.MaxTicks)

	for i := 0; r.cfg.MaxTicks == 0 || i < r.cfg.MaxTicks; i++ {
		if err := r.limiter.Wait(ctx); err != nil {
			// Context cancelled while waiting; a normal shutdown.
			r.logger.Info("Simulator stopping", "ticks_delivered", i)
			return nil
		}

		tick := r.feed.Next(time.Now())
		if err := r.engine.OnTick(ctx, tick); err != nil {
			return fmt.Errorf("tick %d failed: %w", i, err)
		}
	}

	r.logger.Info("Simulator finished", "ticks_delivered", r.cfg.MaxTicks)
	return nil
}
