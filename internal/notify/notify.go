// Package notify carries the engine's side-channel notifications: warnings
// and risk-trigger events that must reach the host application without
// interrupting tick processing.
package notify

import (
	"sync"
	"time"

	"grid_trader/internal/core"
	"grid_trader/pkg/concurrency"
)

// EventType classifies a notification.
type EventType string

const (
	EventOutOfBoundsPrice EventType = "OUT_OF_BOUNDS_PRICE"
	EventStopLoss         EventType = "STOP_LOSS_TRIGGERED"
	EventTakeProfit       EventType = "TAKE_PROFIT_TRIGGERED"
	EventExposureRejected EventType = "EXPOSURE_LIMIT_REJECTED"
	EventOrderRejected    EventType = "ORDER_REJECTED"
)

// Event is a single notification. Events are informational: the engine has
// already handled the condition (skipped an action, closed a position) by
// the time the event is published.
type Event struct {
	Type      EventType
	Symbol    string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// Bus fans events out to subscribed callbacks. Delivery is synchronous
// unless a worker pool is attached; synchronous subscribers must not call
// back into the engine.
type Bus struct {
	subscribers []func(Event)
	pool        *concurrency.WorkerPool
	logger      core.ILogger
	mu          sync.RWMutex
}

// NewBus creates an event bus. logger may not be nil.
func NewBus(logger core.ILogger) *Bus {
	return &Bus{
		logger: logger.WithField("component", "event_bus"),
	}
}

// WithPool routes deliveries through the given worker pool so that slow
// subscribers cannot stall a tick.
func (b *Bus) WithPool(pool *concurrency.WorkerPool) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pool = pool
	return b
}

// Subscribe registers a callback for every published event.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish delivers the event to all subscribers.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]func(Event), len(b.subscribers))
	copy(subs, b.subscribers)
	pool := b.pool
	b.mu.RUnlock()

	for _, fn := range subs {
		if pool != nil {
			cb := fn
			if err := pool.Submit(func() { cb(e) }); err != nil {
				b.logger.Warn("Event delivery dropped", "type", string(e.Type), "error", err)
			}
			continue
		}
		fn(e)
	}
}
