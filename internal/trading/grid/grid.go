// Package grid computes the static price ladder for a range-bound strategy.
package grid

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "grid_trader/pkg/errors"
)

// Config describes an immutable grid: a symbol, a price range, the number of
// evenly spaced levels inside it, and the quantity resting at each level.
type Config struct {
	Symbol           string
	LowerBound       decimal.Decimal
	UpperBound       decimal.Decimal
	Levels           int
	QuantityPerLevel decimal.Decimal
}

// Validate enforces the construction invariants. A config that fails here
// must never produce a ladder or a strategy.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", apperrors.ErrInvalidConfig)
	}
	if !c.LowerBound.LessThan(c.UpperBound) {
		return fmt.Errorf("%w: lower bound %s must be less than upper bound %s",
			apperrors.ErrInvalidConfig, c.LowerBound, c.UpperBound)
	}
	if c.Levels < 2 {
		return fmt.Errorf("%w: grid levels must be at least 2, got %d",
			apperrors.ErrInvalidConfig, c.Levels)
	}
	if !c.QuantityPerLevel.IsPositive() {
		return fmt.Errorf("%w: quantity per level must be positive, got %s",
			apperrors.ErrInvalidConfig, c.QuantityPerLevel)
	}
	return nil
}

// Ladder is the computed set of grid levels. It is a pure function of the
// config and carries no mutable state.
type Ladder struct {
	levels  []decimal.Decimal
	spacing decimal.Decimal
}

// NewLadder validates the config and computes the level sequence:
// lower + i*spacing for i in [0, Levels), with spacing =
// (upper-lower)/(Levels-1). The last level is pinned to the upper bound so
// that division rounding never leaves the ladder short of its range.
func NewLadder(cfg Config) (*Ladder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Levels
	spacing := cfg.UpperBound.Sub(cfg.LowerBound).Div(decimal.NewFromInt(int64(n - 1)))

	levels := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		levels[i] = cfg.LowerBound.Add(spacing.Mul(decimal.NewFromInt(int64(i))))
	}
	levels[n-1] = cfg.UpperBound

	return &Ladder{levels: levels, spacing: spacing}, nil
}

// Levels returns a copy of the ordered level sequence.
func (l *Ladder) Levels() []decimal.Decimal {
	out := make([]decimal.Decimal, len(l.levels))
	copy(out, l.levels)
	return out
}

// Spacing returns the constant distance between adjacent levels.
func (l *Ladder) Spacing() decimal.Decimal {
	return l.spacing
}

// Size returns the number of levels.
func (l *Ladder) Size() int {
	return len(l.levels)
}

// NextLevelAbove returns the smallest level strictly greater than price.
// A price at or above the top level has no level above it. Prices exactly on
// a level are excluded by the strict inequality, matching the fill rule.
func (l *Ladder) NextLevelAbove(price decimal.Decimal) (decimal.Decimal, bool) {
	for _, level := range l.levels {
		if level.GreaterThan(price) {
			return level, true
		}
	}
	return decimal.Zero, false
}

// NextLevelBelow returns the largest level strictly less than price, or
// false when the price is at or below the bottom level.
func (l *Ladder) NextLevelBelow(price decimal.Decimal) (decimal.Decimal, bool) {
	for i := len(l.levels) - 1; i >= 0; i-- {
		if l.levels[i].LessThan(price) {
			return l.levels[i], true
		}
	}
	return decimal.Zero, false
}

// MiddleLevel returns the level at index Levels/2. It is the reference price
// used to close out a session that never observed a tick.
func (l *Ladder) MiddleLevel() decimal.Decimal {
	return l.levels[len(l.levels)/2]
}
