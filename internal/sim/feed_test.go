package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func feedConfig(seed int64) FeedConfig {
	return FeedConfig{
		StartPrice: decimal.NewFromInt(100),
		LowerBound: decimal.NewFromInt(90),
		UpperBound: decimal.NewFromInt(110),
		Volatility: 0.01,
		Seed:       seed,
	}
}

func TestFeed_DeterministicForSeed(t *testing.T) {
	a := NewFeed(feedConfig(42))
	b := NewFeed(feedConfig(42))
	now := time.Now()

	for i := 0; i < 100; i++ {
		pa := a.Next(now).Price
		pb := b.Next(now).Price
		assert.True(t, pa.Equal(pb), "tick %d diverged: %s vs %s", i, pa, pb)
	}
}

func TestFeed_SeedsDiverge(t *testing.T) {
	a := NewFeed(feedConfig(1))
	b := NewFeed(feedConfig(2))
	now := time.Now()

	diverged := false
	for i := 0; i < 50; i++ {
		if !a.Next(now).Price.Equal(b.Next(now).Price) {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "different seeds should produce different walks")
}

func TestFeed_PricesStayPositiveAndBounded(t *testing.T) {
	f := NewFeed(feedConfig(7))
	now := time.Now()

	// One band width of slack past each bound.
	floor := decimal.NewFromInt(70)
	ceiling := decimal.NewFromInt(130)

	for i := 0; i < 5000; i++ {
		p := f.Next(now).Price
		assert.True(t, p.IsPositive(), "tick %d produced non-positive price %s", i, p)
		assert.True(t, p.GreaterThanOrEqual(floor) && p.LessThanOrEqual(ceiling),
			"tick %d escaped the extended band: %s", i, p)
	}
}

func TestFeed_DefaultsStartToBandMiddle(t *testing.T) {
	cfg := feedConfig(3)
	cfg.StartPrice = decimal.Zero
	cfg.Volatility = 0 // no noise: only mean reversion moves the price

	f := NewFeed(cfg)
	p := f.Next(time.Now()).Price
	assert.True(t, p.Equal(decimal.NewFromInt(100)),
		"with zero volatility the walk stays at the band middle, got %s", p)
}
