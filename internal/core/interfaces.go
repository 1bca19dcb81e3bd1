// Package core defines the shared types and interfaces for the grid trader.
package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// ILogger defines the interface for logging
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}

// IStateStore defines the interface for state persistence
type IStateStore interface {
	SaveState(ctx context.Context, state *StrategyState) error
	LoadState(ctx context.Context) (*StrategyState, error)
}

// ICircuitBreaker defines the interface for PnL-based circuit breakers
type ICircuitBreaker interface {
	IsTripped() bool
	RecordTrade(pnl decimal.Decimal)
	Reset()
}
