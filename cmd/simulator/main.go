package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"grid_trader/internal/bootstrap"
	"grid_trader/internal/core"
	"grid_trader/internal/engine"
	"grid_trader/internal/engine/store"
	"grid_trader/internal/infrastructure/metrics"
	"grid_trader/internal/notify"
	"grid_trader/internal/risk"
	"grid_trader/internal/sim"
	"grid_trader/internal/trading/strategy"
	"grid_trader/pkg/concurrency"
	"grid_trader/pkg/telemetry"
)

var (
	// Version information (set via build flags)
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/simulator.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("grid_trader simulator version %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	app, err := bootstrap.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	cfg, logger := app.Cfg, app.Logger

	logger.Info("Starting grid trader simulator",
		"version", version,
		"symbol", cfg.Trading.Symbol,
		"levels", cfg.Trading.GridLevels,
	)

	// Initialize metrics
	if cfg.Telemetry.EnableMetrics {
		if err := telemetry.InitMetrics(); err != nil {
			logger.Warn("Failed to initialize metrics exporter", "error", err)
		} else {
			logger.Info("Metrics exporter initialized")
		}
	}

	// State store
	stateStore, closeStore, err := buildStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		logger.Error("Failed to create state store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Event bus backed by a worker pool so subscribers never stall a tick
	notifyPool := concurrency.NewWorkerPool(concurrency.PoolConfig{
		Name:        "notify",
		MaxWorkers:  cfg.Concurrency.NotifyPoolSize,
		MaxCapacity: cfg.Concurrency.NotifyPoolBuffer,
		NonBlocking: true,
	}, logger)
	defer notifyPool.Stop()

	bus := notify.NewBus(logger).WithPool(notifyPool)
	bus.Subscribe(func(e notify.Event) {
		logger.Info("Trading event",
			"type", string(e.Type),
			"symbol", e.Symbol,
			"message", e.Message)
	})

	// Circuit breaker
	var breaker core.ICircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		breaker = risk.NewCircuitBreaker(cfg.BreakerConfig())
	}

	// Strategy and engine
	strat, err := strategy.New(cfg.GridConfig(), cfg.RiskLimits(), breaker, bus, logger)
	if err != nil {
		logger.Error("Failed to create strategy", "error", err)
		os.Exit(1)
	}

	eng := engine.New(strat, stateStore, logger, engine.Config{
		SnapshotIntervalTicks: cfg.Engine.SnapshotIntervalTicks,
		SaveRetries:           cfg.Engine.SaveRetries,
	})

	// Synthetic price feed
	feed := sim.NewFeed(sim.FeedConfig{
		StartPrice: decimal.NewFromFloat(cfg.Simulator.StartPrice),
		LowerBound: decimal.NewFromFloat(cfg.Trading.LowerBound),
		UpperBound: decimal.NewFromFloat(cfg.Trading.UpperBound),
		Volatility: cfg.Simulator.Volatility,
		Seed:       cfg.Simulator.Seed,
	})
	runner := sim.NewRunner(feed, eng, logger, sim.RunnerConfig{
		TicksPerSecond: cfg.Simulator.TicksPerSecond,
		MaxTicks:       cfg.Simulator.MaxTicks,
	})

	// Metrics server
	var metricsServer *metrics.Server
	if cfg.Telemetry.EnableMetrics {
		metricsServer = metrics.NewServer(cfg.Telemetry.MetricsPort, logger)
		metricsServer.Start()
		defer func() {
			_ = metricsServer.Stop(context.Background())
		}()
	}

	session := &sessionRunner{engine: eng, sim: runner, logger: logger}
	if err := app.Run(session); err != nil {
		os.Exit(1)
	}
}

// sessionRunner brackets the simulator run with engine start and shutdown.
type sessionRunner struct {
	engine *engine.Engine
	sim    *sim.Runner
	logger core.ILogger
}

func (s *sessionRunner) Run(ctx context.Context) error {
	if err := s.engine.Start(ctx); err != nil {
		return err
	}

	runErr := s.sim.Run(ctx)

	// Shutdown persists the final snapshot even when the context is gone.
	if err := s.engine.Stop(context.Background()); err != nil {
		s.logger.Error("Engine shutdown failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func buildStore(driver, path string) (core.IStateStore, func(), error) {
	switch driver {
	case "sqlite":
		s, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}
