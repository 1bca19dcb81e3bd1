package grid

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "grid_trader/pkg/errors"
)

func testConfig() Config {
	return Config{
		Symbol:           "BTCUSDT",
		LowerBound:       decimal.NewFromInt(90),
		UpperBound:       decimal.NewFromInt(110),
		Levels:           11,
		QuantityPerLevel: decimal.NewFromInt(1),
	}
}

func TestNewLadder_EvenSpacing(t *testing.T) {
	ladder, err := NewLadder(testConfig())
	require.NoError(t, err)

	assert.Equal(t, 11, ladder.Size())
	assert.True(t, ladder.Spacing().Equal(decimal.NewFromInt(2)),
		"spacing = (110-90)/10 = 2, got %s", ladder.Spacing())

	levels := ladder.Levels()
	assert.True(t, levels[0].Equal(decimal.NewFromInt(90)))
	assert.True(t, levels[5].Equal(decimal.NewFromInt(100)))
	assert.True(t, levels[10].Equal(decimal.NewFromInt(110)))

	for i := 1; i < len(levels); i++ {
		assert.True(t, levels[i].GreaterThan(levels[i-1]), "levels must be strictly increasing")
	}
}

func TestNewLadder_TwoLevels(t *testing.T) {
	cfg := testConfig()
	cfg.Levels = 2

	ladder, err := NewLadder(cfg)
	require.NoError(t, err)

	levels := ladder.Levels()
	require.Len(t, levels, 2)
	assert.True(t, levels[0].Equal(cfg.LowerBound))
	assert.True(t, levels[1].Equal(cfg.UpperBound))
	assert.True(t, ladder.Spacing().Equal(decimal.NewFromInt(20)))
}

func TestNewLadder_TopPinnedToUpperBound(t *testing.T) {
	// 100/7 does not divide evenly; the top level must still land exactly
	// on the upper bound.
	cfg := Config{
		Symbol:           "ETHUSDT",
		LowerBound:       decimal.NewFromInt(100),
		UpperBound:       decimal.NewFromInt(200),
		Levels:           8,
		QuantityPerLevel: decimal.NewFromInt(1),
	}

	ladder, err := NewLadder(cfg)
	require.NoError(t, err)

	levels := ladder.Levels()
	assert.True(t, levels[len(levels)-1].Equal(cfg.UpperBound),
		"top level %s should equal upper bound %s", levels[len(levels)-1], cfg.UpperBound)
}

func TestNewLadder_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing symbol", func(c *Config) { c.Symbol = "" }},
		{"lower equals upper", func(c *Config) { c.LowerBound = c.UpperBound }},
		{"lower above upper", func(c *Config) { c.LowerBound = decimal.NewFromInt(200) }},
		{"one level", func(c *Config) { c.Levels = 1 }},
		{"zero quantity", func(c *Config) { c.QuantityPerLevel = decimal.Zero }},
		{"negative quantity", func(c *Config) { c.QuantityPerLevel = decimal.NewFromInt(-1) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)

			_, err := NewLadder(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig), "expected ErrInvalidConfig, got %v", err)
		})
	}
}

func TestLadder_NextLevelAbove(t *testing.T) {
	ladder, err := NewLadder(testConfig())
	require.NoError(t, err)

	// Between levels.
	level, ok := ladder.NextLevelAbove(decimal.NewFromInt(99))
	require.True(t, ok)
	assert.True(t, level.Equal(decimal.NewFromInt(100)))

	// Exactly on a level: strictly above means the next one up.
	level, ok = ladder.NextLevelAbove(decimal.NewFromInt(100))
	require.True(t, ok)
	assert.True(t, level.Equal(decimal.NewFromInt(102)))

	// At the top there is nothing above.
	_, ok = ladder.NextLevelAbove(decimal.NewFromInt(110))
	assert.False(t, ok)

	_, ok = ladder.NextLevelAbove(decimal.NewFromInt(500))
	assert.False(t, ok)
}

func TestLadder_NextLevelBelow(t *testing.T) {
	ladder, err := NewLadder(testConfig())
	require.NoError(t, err)

	level, ok := ladder.NextLevelBelow(decimal.NewFromInt(101))
	require.True(t, ok)
	assert.True(t, level.Equal(decimal.NewFromInt(100)))

	level, ok = ladder.NextLevelBelow(decimal.NewFromInt(100))
	require.True(t, ok)
	assert.True(t, level.Equal(decimal.NewFromInt(98)))

	_, ok = ladder.NextLevelBelow(decimal.NewFromInt(90))
	assert.False(t, ok)

	_, ok = ladder.NextLevelBelow(decimal.NewFromInt(1))
	assert.False(t, ok)
}

func TestLadder_MiddleLevel(t *testing.T) {
	// Odd level count: the exact middle.
	ladder, err := NewLadder(testConfig())
	require.NoError(t, err)
	assert.True(t, ladder.MiddleLevel().Equal(decimal.NewFromInt(100)))

	// Even level count: index n/2, the upper of the two central levels.
	cfg := testConfig()
	cfg.Levels = 10
	ladder, err = NewLadder(cfg)
	require.NoError(t, err)
	assert.True(t, ladder.MiddleLevel().Equal(ladder.Levels()[5]))
}

func TestLadder_LevelsReturnsCopy(t *testing.T) {
	ladder, err := NewLadder(testConfig())
	require.NoError(t, err)

	levels := ladder.Levels()
	levels[0] = decimal.NewFromInt(-1)

	assert.True(t, ladder.Levels()[0].Equal(decimal.NewFromInt(90)),
		"mutating the returned slice must not affect the ladder")
}
