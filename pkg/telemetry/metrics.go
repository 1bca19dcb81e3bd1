package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricTicksTotal         = "grid_trader_ticks_total"
	MetricOrdersPlacedTotal  = "grid_trader_orders_placed_total"
	MetricOrdersFilledTotal  = "grid_trader_orders_filled_total"
	MetricPnLRealizedTotal   = "grid_trader_pnl_realized_total"
	MetricPnLUnrealized      = "grid_trader_pnl_unrealized"
	MetricExposure           = "grid_trader_exposure"
	MetricOpenPositions      = "grid_trader_open_positions"
	MetricOrdersPending      = "grid_trader_orders_pending"
	MetricRiskTriggersTotal  = "grid_trader_risk_triggers_total"
	MetricCircuitBreakerOpen = "grid_trader_circuit_breaker_open"
)

// MetricsHolder holds initialized instruments
type MetricsHolder struct {
	TicksTotal         metric.Int64Counter
	OrdersPlacedTotal  metric.Int64Counter
	OrdersFilledTotal  metric.Int64Counter
	PnLRealizedTotal   metric.Float64Counter
	PnLUnrealized      metric.Float64ObservableGauge
	Exposure           metric.Float64ObservableGauge
	OpenPositions      metric.Int64ObservableGauge
	OrdersPending      metric.Int64ObservableGauge
	RiskTriggersTotal  metric.Int64Counter
	CircuitBreakerOpen metric.Int64ObservableGauge

	// State for observable gauges
	mu               sync.RWMutex
	initialized      bool
	unrealizedPnLMap map[string]float64
	exposureMap      map[string]float64
	openPositionsMap map[string]int64
	pendingOrdersMap map[string]int64
	cbOpen           int64
}

var (
	globalMetrics *MetricsHolder
	initOnce      sync.Once
)

// GetGlobalMetrics returns the singleton metrics holder
func GetGlobalMetrics() *MetricsHolder {
	initOnce.Do(func() {
		globalMetrics = &MetricsHolder{
			unrealizedPnLMap: make(map[string]float64),
			exposureMap:      make(map[string]float64),
			openPositionsMap: make(map[string]int64),
			pendingOrdersMap: make(map[string]int64),
		}
	})
	return globalMetrics
}

// InitMetrics creates the instruments on the given meter and registers the
// observable gauge callbacks. Safe to call once per process.
func (m *MetricsHolder) InitMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}

	var err error
	if m.TicksTotal, err = meter.Int64Counter(MetricTicksTotal,
		metric.WithDescription("Total number of price ticks processed")); err != nil {
		return err
	}
	if m.OrdersPlacedTotal, err = meter.Int64Counter(MetricOrdersPlacedTotal,
		metric.WithDescription("Total number of grid orders created")); err != nil {
		return err
	}
	if m.OrdersFilledTotal, err = meter.Int64Counter(MetricOrdersFilledTotal,
		metric.WithDescription("Total number of grid orders filled")); err != nil {
		return err
	}
	if m.PnLRealizedTotal, err = meter.Float64Counter(MetricPnLRealizedTotal,
		metric.WithDescription("Cumulative realized PnL")); err != nil {
		return err
	}
	if m.RiskTriggersTotal, err = meter.Int64Counter(MetricRiskTriggersTotal,
		metric.WithDescription("Total number of stop-loss/take-profit triggers")); err != nil {
		return err
	}

	if m.PnLUnrealized, err = meter.Float64ObservableGauge(MetricPnLUnrealized,
		metric.WithDescription("Unrealized PnL of open positions"),
		metric.WithFloat64Callback(func(_ context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for symbol, v := range m.unrealizedPnLMap {
				obs.Observe(v, metric.WithAttributes(attribute.String("symbol", symbol)))
			}
			return nil
		})); err != nil {
		return err
	}
	if m.Exposure, err = meter.Float64ObservableGauge(MetricExposure,
		metric.WithDescription("Total open exposure (sum of qty*entry)"),
		metric.WithFloat64Callback(func(_ context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for symbol, v := range m.exposureMap {
				obs.Observe(v, metric.WithAttributes(attribute.String("symbol", symbol)))
			}
			return nil
		})); err != nil {
		return err
	}
	if m.OpenPositions, err = meter.Int64ObservableGauge(MetricOpenPositions,
		metric.WithDescription("Number of open positions"),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for symbol, v := range m.openPositionsMap {
				obs.Observe(v, metric.WithAttributes(attribute.String("symbol", symbol)))
			}
			return nil
		})); err != nil {
		return err
	}
	if m.OrdersPending, err = meter.Int64ObservableGauge(MetricOrdersPending,
		metric.WithDescription("Number of pending grid orders"),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for symbol, v := range m.pendingOrdersMap {
				obs.Observe(v, metric.WithAttributes(attribute.String("symbol", symbol)))
			}
			return nil
		})); err != nil {
		return err
	}
	if m.CircuitBreakerOpen, err = meter.Int64ObservableGauge(MetricCircuitBreakerOpen,
		metric.WithDescription("Whether the circuit breaker is open (1) or closed (0)"),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			obs.Observe(m.cbOpen)
			return nil
		})); err != nil {
		return err
	}

	m.initialized = true
	return nil
}

// RecordTick increments the tick counter for a symbol.
func (m *MetricsHolder) RecordTick(ctx context.Context, symbol string) {
	if m.TicksTotal != nil {
		m.TicksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
	}
}

// RecordOrderPlaced increments the placed-order counter.
func (m *MetricsHolder) RecordOrderPlaced(ctx context.Context, symbol string, side string) {
	if m.OrdersPlacedTotal != nil {
		m.OrdersPlacedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("symbol", symbol), attribute.String("side", side)))
	}
}

// RecordOrderFilled increments the filled-order counter.
func (m *MetricsHolder) RecordOrderFilled(ctx context.Context, symbol string, side string) {
	if m.OrdersFilledTotal != nil {
		m.OrdersFilledTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("symbol", symbol), attribute.String("side", side)))
	}
}

// RecordRealizedPnL adds one realized trade PnL.
func (m *MetricsHolder) RecordRealizedPnL(ctx context.Context, symbol string, pnl float64) {
	if m.PnLRealizedTotal != nil {
		m.PnLRealizedTotal.Add(ctx, pnl, metric.WithAttributes(attribute.String("symbol", symbol)))
	}
}

// RecordRiskTrigger counts a stop-loss or take-profit firing.
func (m *MetricsHolder) RecordRiskTrigger(ctx context.Context, symbol string, trigger string) {
	if m.RiskTriggersTotal != nil {
		m.RiskTriggersTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("symbol", symbol), attribute.String("trigger", trigger)))
	}
}

// SetGauges publishes the per-tick gauge values for a symbol.
func (m *MetricsHolder) SetGauges(symbol string, unrealizedPnL, exposure float64, openPositions, pendingOrders int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unrealizedPnLMap[symbol] = unrealizedPnL
	m.exposureMap[symbol] = exposure
	m.openPositionsMap[symbol] = openPositions
	m.pendingOrdersMap[symbol] = pendingOrders
}

// SetCircuitBreakerOpen flips the breaker gauge.
func (m *MetricsHolder) SetCircuitBreakerOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if open {
		m.cbOpen = 1
	} else {
		m.cbOpen = 0
	}
}
