package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_ConsecutiveLosses(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{MaxConsecutiveLosses: 3})

	cb.RecordTrade(d("-1"))
	cb.RecordTrade(d("-1"))
	assert.False(t, cb.IsTripped(), "two losses stay under the threshold")

	cb.RecordTrade(d("-1"))
	assert.True(t, cb.IsTripped(), "third consecutive loss trips the breaker")
}

func TestCircuitBreaker_WinResetsStreak(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{MaxConsecutiveLosses: 3})

	cb.RecordTrade(d("-1"))
	cb.RecordTrade(d("-1"))
	cb.RecordTrade(d("5"))
	cb.RecordTrade(d("-1"))
	cb.RecordTrade(d("-1"))

	assert.False(t, cb.IsTripped(), "a win in between breaks the streak")
}

func TestCircuitBreaker_Drawdown(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{MaxDrawdownAmount: d("100")})

	cb.RecordTrade(d("-60"))
	assert.False(t, cb.IsTripped())

	cb.RecordTrade(d("-41"))
	assert.True(t, cb.IsTripped(), "aggregate PnL below -100 trips the breaker")
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{MaxConsecutiveLosses: 1})

	cb.RecordTrade(d("-1"))
	assert.True(t, cb.IsTripped())

	cb.Reset()
	assert.False(t, cb.IsTripped())

	// Counters are cleared, not just the state.
	cb.RecordTrade(d("10"))
	assert.False(t, cb.IsTripped())
}

func TestCircuitBreaker_CooldownAutoCloses(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{
		MaxConsecutiveLosses: 1,
		CooldownPeriod:       10 * time.Millisecond,
	})

	cb.RecordTrade(d("-1"))
	assert.True(t, cb.IsTripped())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, cb.IsTripped(), "breaker closes after the cooldown elapses")
}

func TestCircuitBreaker_ZeroPnLIsNotALoss(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{MaxConsecutiveLosses: 2})

	cb.RecordTrade(d("-1"))
	cb.RecordTrade(decimal.Zero)
	cb.RecordTrade(d("-1"))

	assert.False(t, cb.IsTripped(), "zero PnL resets the losing streak for the breaker")
}
