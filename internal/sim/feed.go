// Package sim generates a synthetic price stream and drives the engine with
// it at a controlled rate.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"grid_trader/internal/core"
)

// FeedConfig tunes the synthetic random walk.
type FeedConfig struct {
	StartPrice decimal.Decimal
	LowerBound decimal.Decimal
	UpperBound decimal.Decimal
	// Volatility is the per-tick standard deviation as a fraction of the
	// band width (0.01 moves roughly 1% of the band per tick).
	Volatility float64
	Seed       int64
}

// Feed is a seeded mean-reverting random walk confined to the grid band,
// with occasional excursions outside it so the out-of-bounds path gets
// exercised. It is not safe for concurrent use.
type Feed struct {
	cfg   FeedConfig
	rng   *rand.Rand
	price float64
	lower float64
	upper float64
}

func NewFeed(cfg FeedConfig) *Feed {
	lower, _ := cfg.LowerBound.Float64()
	upper, _ := cfg.UpperBound.Float64()
	start, _ := cfg.StartPrice.Float64()
	if start == 0 {
		start = (lower + upper) / 2
	}
	return &Feed{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		price: start,
		lower: lower,
		upper: upper,
	}
}

// Next produces the next tick. The walk reverts toward the band middle so
// long runs stay inside the grid most of the time.
func (f *Feed) Next(now time.Time) core.PriceTick {
	width := f.upper - f.lower
	mid := (f.lower + f.upper) / 2

	step := f.rng.NormFloat64() * f.cfg.Volatility * width
	reversion := (mid - f.price) * 0.05
	f.price += step + reversion

	// Keep the walk from running away entirely; excursions slightly past
	// the band are allowed, a price near zero is not.
	floor := f.lower - width
	if floor < 0 {
		floor = math.SmallestNonzeroFloat64
	}
	if f.price < floor {
		f.price = floor
	}
	if f.price > f.upper+width {
		f.price = f.upper + width
	}

	return core.PriceTick{
		Time:  now,
		Price: decimal.NewFromFloat(f.price).Round(8),
	}
}
