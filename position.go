package tradebook

import (
	"slices"
)

// Position is the aggregated, reportable view of all open lots for one
// instrument. Quantity is the signed sum of the open lots; CostBasis is
// positive for a long position (amount paid) and negative for a short one
// (proceeds received).
type Position struct {
	Key       InstrumentKey
	Quantity  Quantity
	CostBasis Money

	// LastPrice is the most recent trade price, usable as a market-price
	// fallback when no live quote is available. LastDate is its date.
	LastPrice Money
	LastDate  Date
}

// Currency returns the position's native currency.
func (p Position) Currency() string { return p.Key.Currency }

// AveragePrice returns CostBasis/Quantity. The second return is false when
// the position is flat.
func (p Position) AveragePrice() (Money, bool) {
	if p.Quantity.NearZero() {
		return Money{}, false
	}
	return p.CostBasis.Div(p.Quantity), true
}

// ComputePositions replays trade events through per-instrument FIFO books
// and returns the open positions. Events are sorted chronologically first;
// same-day events keep their input order. Instruments whose final quantity
// is within epsilon of zero are closed and excluded.
//
// The result is ordered by descending absolute market value, using the last
// trade price, falling back to absolute cost basis where no price was seen.
// That ordering is a display convenience only.
func ComputePositions(events []TradeEvent) []Position {
	books := replay(events)

	positions := make([]Position, 0, len(books))
	for _, b := range books {
		if b.flat() {
			continue
		}
		positions = append(positions, Position{
			Key:       b.key,
			Quantity:  b.quantity,
			CostBasis: b.costBasis,
			LastPrice: b.lastPrice,
			LastDate:  b.lastDate,
		})
	}

	slices.SortStableFunc(positions, func(a, b Position) int {
		av, bv := a.sortValue(), b.sortValue()
		switch {
		case av.LessThan(bv):
			return 1
		case bv.LessThan(av):
			return -1
		default:
			return 0
		}
	})
	return positions
}

// sortValue is |quantity*lastPrice|, or |costBasis| when no price was seen.
func (p Position) sortValue() Money {
	if p.LastPrice.IsZero() {
		return p.CostBasis.Abs()
	}
	return p.LastPrice.Mul(p.Quantity).Abs()
}

// replay builds one book per instrument from the chronologically sorted
// event stream. Each call works on fresh state: the engine keeps no
// globals, so concurrent replays over separate inputs need no coordination.
func replay(events []TradeEvent) []*book {
	sorted := make([]TradeEvent, len(events))
	copy(sorted, events)
	slices.SortStableFunc(sorted, func(a, b TradeEvent) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case b.Date.Before(a.Date):
			return 1
		default:
			return 0
		}
	})

	index := make(map[InstrumentKey]*book)
	books := make([]*book, 0)
	for _, e := range sorted {
		b, ok := index[e.Key]
		if !ok {
			b = newBook(e.Key)
			index[e.Key] = b
			books = append(books, b)
		}
		b.apply(e)
	}
	return books
}
