// Package position owns the open-position collection and the realization of
// PnL when positions close.
package position

import (
	"time"

	"github.com/shopspring/decimal"

	"grid_trader/internal/core"
)

// Book is an arena of open positions addressed by stable integer handles.
// Handles are allocated once and never reused, so callers can iterate a
// snapshot of handles and mutate by handle without invalidation. The Book
// carries no lock of its own: it lives entirely behind the owning
// strategy's mutex.
type Book struct {
	positions map[int64]*core.Position
	handles   []int64 // creation order
	next      int64

	trades        []core.Trade
	totalProfit   decimal.Decimal
	winningTrades int64
	losingTrades  int64
}

func NewBook() *Book {
	return &Book{
		positions:   make(map[int64]*core.Position),
		next:        1,
		totalProfit: decimal.Zero,
	}
}

// Open appends a new long position and returns a copy of it.
func (b *Book) Open(quantity, entryPrice decimal.Decimal, entryTime time.Time) core.Position {
	p := &core.Position{
		Handle:     b.next,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		EntryTime:  entryTime,
	}
	b.positions[p.Handle] = p
	b.handles = append(b.handles, p.Handle)
	b.next++
	return *p
}

// Close reduces open positions by up to quantity, oldest first, realizing
// PnL at exitPrice. Quantity beyond the total open exposure is silently
// ignored. Fully closed positions are removed after the scan completes.
// Returns the trades realized by this call.
func (b *Book) Close(quantity, exitPrice decimal.Decimal, closedAt time.Time) []core.Trade {
	remaining := quantity
	var realized []core.Trade
	var emptied []int64

	snapshot := make([]int64, len(b.handles))
	copy(snapshot, b.handles)

	for _, h := range snapshot {
		if !remaining.IsPositive() {
			break
		}
		pos, ok := b.positions[h]
		if !ok || !pos.Quantity.IsPositive() {
			continue
		}

		closeQty := decimal.Min(pos.Quantity, remaining)
		trade := b.realize(pos, closeQty, exitPrice, closedAt)
		realized = append(realized, trade)

		pos.Quantity = pos.Quantity.Sub(closeQty)
		remaining = remaining.Sub(closeQty)

		if pos.Quantity.IsZero() {
			emptied = append(emptied, h)
		}
	}

	for _, h := range emptied {
		b.remove(h)
	}
	return realized
}

// CloseHandle closes the full remaining quantity of one position at
// exitPrice. Returns false when the handle no longer refers to an open
// position.
func (b *Book) CloseHandle(handle int64, exitPrice decimal.Decimal, closedAt time.Time) (core.Trade, bool) {
	pos, ok := b.positions[handle]
	if !ok || !pos.Quantity.IsPositive() {
		return core.Trade{}, false
	}

	trade := b.realize(pos, pos.Quantity, exitPrice, closedAt)
	pos.Quantity = decimal.Zero
	b.remove(handle)
	return trade, true
}

func (b *Book) realize(pos *core.Position, closeQty, exitPrice decimal.Decimal, closedAt time.Time) core.Trade {
	pnl := closeQty.Mul(exitPrice.Sub(pos.EntryPrice))
	b.totalProfit = b.totalProfit.Add(pnl)
	if pnl.IsPositive() {
		b.winningTrades++
	} else {
		// Flat closes count as losses; there is no neutral bucket.
		b.losingTrades++
	}

	trade := core.Trade{
		Quantity:   closeQty,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		PnL:        pnl,
		ClosedAt:   closedAt,
	}
	b.trades = append(b.trades, trade)
	return trade
}

func (b *Book) remove(handle int64) {
	delete(b.positions, handle)
	for i, h := range b.handles {
		if h == handle {
			b.handles = append(b.handles[:i], b.handles[i+1:]...)
			break
		}
	}
}

// Handles returns a snapshot of open-position handles in creation order.
func (b *Book) Handles() []int64 {
	out := make([]int64, len(b.handles))
	copy(out, b.handles)
	return out
}

// Get returns a copy of the position for the handle.
func (b *Book) Get(handle int64) (core.Position, bool) {
	pos, ok := b.positions[handle]
	if !ok {
		return core.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions in creation order.
func (b *Book) Positions() []core.Position {
	out := make([]core.Position, 0, len(b.handles))
	for _, h := range b.handles {
		out = append(out, *b.positions[h])
	}
	return out
}

// OpenCount returns the number of open positions.
func (b *Book) OpenCount() int {
	return len(b.handles)
}

// TotalExposure returns the sum of quantity*entry over open positions.
func (b *Book) TotalExposure() decimal.Decimal {
	total := decimal.Zero
	for _, h := range b.handles {
		pos := b.positions[h]
		total = total.Add(pos.Quantity.Mul(pos.EntryPrice))
	}
	return total
}

// UnrealizedPnL returns the sum of quantity*(price-entry) over open positions.
func (b *Book) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, h := range b.handles {
		total = total.Add(b.positions[h].PnL(price))
	}
	return total
}

// Trades returns a copy of the realized-trade log.
func (b *Book) Trades() []core.Trade {
	out := make([]core.Trade, len(b.trades))
	copy(out, b.trades)
	return out
}

// TotalProfit returns the cumulative realized PnL.
func (b *Book) TotalProfit() decimal.Decimal { return b.totalProfit }

// WinningTrades returns the count of closes with positive PnL.
func (b *Book) WinningTrades() int64 { return b.winningTrades }

// LosingTrades returns the count of closes with zero or negative PnL.
func (b *Book) LosingTrades() int64 { return b.losingTrades }
