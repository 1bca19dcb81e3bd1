package tradingutils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPnLPercent(t *testing.T) {
	cases := []struct {
		name     string
		entry    string
		current  string
		expected string
	}{
		{"gain", "100", "110", "10"},
		{"loss", "100", "95", "-5"},
		{"flat", "100", "100", "0"},
		{"zero entry", "0", "50", "0"},
		{"fractional", "80", "100", "25"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PnLPercent(decimal.RequireFromString(tc.entry), decimal.RequireFromString(tc.current))
			want := decimal.RequireFromString(tc.expected)
			if !got.Equal(want) {
				t.Errorf("PnLPercent(%s, %s) = %s, want %s", tc.entry, tc.current, got, want)
			}
		})
	}
}

func TestWinRate(t *testing.T) {
	if got := WinRate(0, 0); !got.IsZero() {
		t.Errorf("WinRate(0, 0) = %s, want 0", got)
	}
	if got := WinRate(3, 4); !got.Equal(decimal.NewFromInt(75)) {
		t.Errorf("WinRate(3, 4) = %s, want 75", got)
	}
	if got := WinRate(0, 10); !got.IsZero() {
		t.Errorf("WinRate(0, 10) = %s, want 0", got)
	}
}

func TestClamp(t *testing.T) {
	low := decimal.NewFromInt(90)
	high := decimal.NewFromInt(110)

	if got := Clamp(decimal.NewFromInt(50), low, high); !got.Equal(low) {
		t.Errorf("Clamp below = %s, want %s", got, low)
	}
	if got := Clamp(decimal.NewFromInt(200), low, high); !got.Equal(high) {
		t.Errorf("Clamp above = %s, want %s", got, high)
	}
	if got := Clamp(decimal.NewFromInt(100), low, high); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Clamp inside = %s, want 100", got)
	}
}

func TestRounding(t *testing.T) {
	if got := RoundPrice(decimal.RequireFromString("100.123456"), 2); !got.Equal(decimal.RequireFromString("100.12")) {
		t.Errorf("RoundPrice = %s, want 100.12", got)
	}
	if got := RoundQuantity(decimal.RequireFromString("0.0015"), 3); !got.Equal(decimal.RequireFromString("0.002")) {
		t.Errorf("RoundQuantity = %s, want 0.002", got)
	}
}
