package strategy

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"grid_trader/internal/core"
	"grid_trader/internal/notify"
	"grid_trader/internal/risk"
	"grid_trader/internal/trading/grid"
)

type mockLogger struct{}

func (m *mockLogger) Debug(msg string, f ...interface{})               {}
func (m *mockLogger) Info(msg string, f ...interface{})                {}
func (m *mockLogger) Warn(msg string, f ...interface{})                { fmt.Printf("WARN: %s %v\n", msg, f) }
func (m *mockLogger) Error(msg string, f ...interface{})               { fmt.Printf("ERROR: %s %v\n", msg, f) }
func (m *mockLogger) Fatal(msg string, f ...interface{})               { fmt.Printf("FATAL: %s %v\n", msg, f) }
func (m *mockLogger) WithField(k string, v interface{}) core.ILogger   { return m }
func (m *mockLogger) WithFields(f map[string]interface{}) core.ILogger { return m }

// eventRecorder captures bus events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *eventRecorder) record(e notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) ofType(t notify.EventType) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// testGridConfig is a 90..110 band with 11 levels spaced 2 apart; the middle
// level sits at 100.
func testGridConfig() grid.Config {
	return grid.Config{
		Symbol:           "BTCUSDT",
		LowerBound:       decimal.NewFromInt(90),
		UpperBound:       decimal.NewFromInt(110),
		Levels:           11,
		QuantityPerLevel: decimal.NewFromInt(1),
	}
}

func newTestStrategy(cfg grid.Config, limits risk.Limits) (*GridStrategy, *eventRecorder) {
	logger := &mockLogger{}
	rec := &eventRecorder{}
	bus := notify.NewBus(logger)
	bus.Subscribe(rec.record)

	s, err := New(cfg, limits, nil, bus, logger)
	if err != nil {
		panic(err)
	}
	return s, rec
}
