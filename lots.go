package tradebook

// lot is an open slice of a position. Quantity is signed: positive for a
// long lot, negative for a short lot. A lot's quantity never changes sign;
// when fully consumed the lot is removed from the queue.
type lot struct {
	Quantity Quantity
	UnitCost Money // per-unit price at which the lot was opened (fee excluded)
}

// book replays trade events for a single instrument and holds the FIFO
// queue of open lots plus the running quantity and cost basis.
//
// The queue never holds a positive and a negative lot at the same time:
// an incoming event always drains opposite-sign lots, oldest first, before
// any residual opens a new lot. That makes the long-to-short transition
// (and back) explicit, where a single average-cost scalar becomes
// ill-defined across the sign flip.
type book struct {
	key       InstrumentKey
	lots      []lot
	quantity  Quantity
	costBasis Money

	// last trade price seen, kept as a market-price fallback for display.
	lastPrice Money
	lastDate  Date
}

func newBook(key InstrumentKey) *book {
	return &book{key: key, costBasis: M(0, key.Currency)}
}

// apply replays one event through the book. Events must arrive in
// chronological order; ties keep their input order.
func (b *book) apply(e TradeEvent) {
	// Remember the most recent trade price as a market-price fallback.
	b.lastPrice = e.Price
	b.lastDate = e.Date

	remaining := e.Quantity

	// Drain opposite-sign lots, oldest first. An event that outsizes the
	// open lots walks through all of them before flipping the position.
	for !remaining.IsZero() && len(b.lots) > 0 && b.lots[0].Quantity.Sign() != remaining.Sign() {
		oldest := &b.lots[0]
		take := remaining.Abs().Min(oldest.Quantity.Abs())
		// closed carries the lot's sign: shrinking the lot towards zero.
		closed := take
		if oldest.Quantity.IsNegative() {
			closed = take.Neg()
		}

		oldest.Quantity = oldest.Quantity.Sub(closed)
		b.quantity = b.quantity.Sub(closed)
		b.costBasis = b.costBasis.Sub(oldest.UnitCost.Mul(closed))
		// closed and remaining have opposite signs, so this moves
		// remaining towards zero.
		remaining = remaining.Add(closed)

		if oldest.Quantity.NearZero() {
			b.lots = b.lots[1:]
		}
	}

	// Residual quantity (no opposite lot existed, or the event flipped the
	// position's sign) opens a new lot at the event's price.
	if !remaining.IsZero() {
		b.lots = append(b.lots, lot{Quantity: remaining, UnitCost: e.Price})
		b.quantity = b.quantity.Add(remaining)
		b.costBasis = b.costBasis.Add(e.Price.Mul(remaining))
	}

	// The fee is a cost regardless of direction, applied once to the
	// aggregate cost basis, never prorated into the lot matching. Known
	// approximation: a partially-closing event still charges its whole fee
	// to the remaining position.
	b.costBasis = b.costBasis.Add(e.Fee)
}

// averagePrice returns costBasis/quantity. The second return is false when
// the book is flat: an average price is meaningless without a position.
// For a short position both terms are negative, so the average short price
// comes out positive.
func (b *book) averagePrice() (Money, bool) {
	if b.quantity.NearZero() {
		return Money{}, false
	}
	return b.costBasis.Div(b.quantity), true
}

// flat reports whether the book holds no effective position.
func (b *book) flat() bool { return b.quantity.NearZero() }
