package tradebook

import (
	"math"
	"testing"
)

// tev builds a USD equity trade event for tests.
func tev(t *testing.T, day, ticker string, qty, price, fee float64) TradeEvent {
	t.Helper()
	ev, err := normaliseTrade(RawRecord{
		Ticker:   ticker,
		Date:     day,
		Quantity: qty,
		Price:    price,
		Fee:      fee,
	})
	if err != nil {
		t.Fatalf("normaliseTrade() error = %v", err)
	}
	return ev
}

func applyAll(t *testing.T, events ...TradeEvent) *book {
	t.Helper()
	b := newBook(events[0].Key)
	for _, e := range events {
		b.apply(e)
	}
	return b
}

func TestBook_BuysAccumulate(t *testing.T) {
	// buy 10 @ 100 (fee 1), buy 10 @ 120 (fee 1)
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", 10, 100, 1),
		tev(t, "2025-01-11", "AAPL", 10, 120, 1),
	)

	if !b.quantity.Equal(Q(20)) {
		t.Errorf("quantity = %s, want 20", b.quantity)
	}
	if want := M(2202, "USD"); !b.costBasis.Equal(want) {
		t.Errorf("costBasis = %s, want %s", b.costBasis, want)
	}
	avg, ok := b.averagePrice()
	if !ok {
		t.Fatal("averagePrice() not available for an open position")
	}
	if got := avg.AsFloat(); math.Abs(got-110.1) > 1e-9 {
		t.Errorf("averagePrice = %v, want 110.1", got)
	}
}

func TestBook_PartialSellIsFIFO(t *testing.T) {
	// After two buys, selling 5 closes 5 units of the *first* lot at its
	// unit cost of 100. Fees are applied once to the aggregate cost basis
	// at open time, never amortised into lot unit costs.
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", 10, 100, 1),
		tev(t, "2025-01-11", "AAPL", 10, 120, 1),
		tev(t, "2025-02-01", "AAPL", -5, 130, 0),
	)

	if !b.quantity.Equal(Q(15)) {
		t.Errorf("quantity = %s, want 15", b.quantity)
	}
	if want := M(1702, "USD"); !b.costBasis.Equal(want) { // 2202 - 5*100
		t.Errorf("costBasis = %s, want %s", b.costBasis, want)
	}
	if len(b.lots) != 2 {
		t.Fatalf("len(lots) = %d, want 2", len(b.lots))
	}
	if !b.lots[0].Quantity.Equal(Q(5)) {
		t.Errorf("oldest lot quantity = %s, want 5", b.lots[0].Quantity)
	}
}

func TestBook_ExactCloseRemovesLot(t *testing.T) {
	// Selling exactly the oldest lot's quantity removes it with zero
	// remainder: no new lot may open.
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", 10, 100, 0),
		tev(t, "2025-01-20", "AAPL", -10, 110, 0),
	)

	if !b.flat() {
		t.Errorf("book not flat after exact close: quantity = %s", b.quantity)
	}
	if len(b.lots) != 0 {
		t.Errorf("len(lots) = %d, want 0", len(b.lots))
	}
	if !b.costBasis.IsZero() {
		t.Errorf("costBasis = %s, want 0", b.costBasis)
	}
	if _, ok := b.averagePrice(); ok {
		t.Error("averagePrice() available on a flat book")
	}
}

func TestBook_SellAcrossSeveralLots(t *testing.T) {
	// A single sell larger than the first lot must walk the queue.
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", 3, 100, 0),
		tev(t, "2025-01-11", "AAPL", 4, 110, 0),
		tev(t, "2025-01-12", "AAPL", 5, 120, 0),
		tev(t, "2025-02-01", "AAPL", -9, 130, 0),
	)

	if !b.quantity.Equal(Q(3)) {
		t.Errorf("quantity = %s, want 3", b.quantity)
	}
	// Remaining: 3 units of the 120 lot.
	if want := M(360, "USD"); !b.costBasis.Equal(want) {
		t.Errorf("costBasis = %s, want %s", b.costBasis, want)
	}
	if len(b.lots) != 1 {
		t.Fatalf("len(lots) = %d, want 1", len(b.lots))
	}
}

func TestBook_ShortPosition(t *testing.T) {
	// Selling from flat opens a short lot: negative quantity, negative
	// cost basis (proceeds), positive average short price.
	b := applyAll(t, tev(t, "2025-01-10", "AAPL", -10, 50, 0))

	if !b.quantity.Equal(Q(-10)) {
		t.Errorf("quantity = %s, want -10", b.quantity)
	}
	if want := M(-500, "USD"); !b.costBasis.Equal(want) {
		t.Errorf("costBasis = %s, want %s", b.costBasis, want)
	}
	avg, ok := b.averagePrice()
	if !ok {
		t.Fatal("averagePrice() not available for an open short")
	}
	if !avg.Equal(M(50, "USD")) {
		t.Errorf("averagePrice = %s, want $50", avg)
	}
}

func TestBook_LongShortFlip(t *testing.T) {
	// Flat -> short 10 @ 50 -> buy 25 @ 40. The short is fully covered
	// before the long lot opens, so the final position is long 15 with the
	// new lot's price as average.
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", -10, 50, 0),
		tev(t, "2025-02-10", "AAPL", 25, 40, 0),
	)

	if !b.quantity.Equal(Q(15)) {
		t.Errorf("quantity = %s, want 15", b.quantity)
	}
	if want := M(600, "USD"); !b.costBasis.Equal(want) { // 15 * 40
		t.Errorf("costBasis = %s, want %s", b.costBasis, want)
	}
	avg, ok := b.averagePrice()
	if !ok {
		t.Fatal("averagePrice() not available after flip")
	}
	if !avg.Equal(M(40, "USD")) {
		t.Errorf("averagePrice = %s, want the new lot's price $40", avg)
	}
	if len(b.lots) != 1 || !b.lots[0].Quantity.IsPositive() {
		t.Errorf("lots = %+v, want a single long lot", b.lots)
	}
}

func TestBook_ShortThenPartialCover(t *testing.T) {
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", -10, 50, 0),
		tev(t, "2025-01-20", "AAPL", -10, 60, 0),
		tev(t, "2025-02-01", "AAPL", 15, 55, 0),
	)

	if !b.quantity.Equal(Q(-5)) {
		t.Errorf("quantity = %s, want -5", b.quantity)
	}
	// FIFO covers the 50-lot fully and 5 units of the 60-lot,
	// leaving -5 @ 60.
	if want := M(-300, "USD"); !b.costBasis.Equal(want) {
		t.Errorf("costBasis = %s, want %s", b.costBasis, want)
	}
}

func TestBook_SignInvariant(t *testing.T) {
	// The queue must never hold mixed-sign lots, whatever the sequence.
	sequences := [][]float64{
		{10, -3, -12, 4, -1, 20, -30},
		{-5, 2, 8, -20, 30, -15},
		{1, -1, 1, -1, 2, -4},
	}
	for _, quantities := range sequences {
		b := newBook(InstrumentKey{Ticker: "X", Currency: "USD", Class: ClassTrades})
		day := NewDate(2025, 1, 1)
		var net float64
		for _, q := range quantities {
			b.apply(TradeEvent{
				Key:      b.key,
				Date:     day,
				Quantity: Q(q),
				Price:    M(100, "USD"),
				Fee:      M(0, "USD"),
			})
			day = day.Add(1)
			net += q

			pos, neg := false, false
			for _, l := range b.lots {
				if l.Quantity.IsPositive() {
					pos = true
				}
				if l.Quantity.IsNegative() {
					neg = true
				}
			}
			if pos && neg {
				t.Fatalf("mixed-sign lots after %v: %+v", quantities, b.lots)
			}
		}
		// Quantity conservation: running quantity equals the sum of
		// applied event quantities.
		if !b.quantity.Equal(Q(net)) {
			t.Errorf("quantity = %s, want %v after %v", b.quantity, net, quantities)
		}
	}
}

func TestBook_FeeOnSellKeptAsCostDrag(t *testing.T) {
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", 10, 100, 0),
		tev(t, "2025-02-01", "AAPL", -5, 110, 2),
	)

	// 1000 - 5*100 + 2
	if want := M(502, "USD"); !b.costBasis.Equal(want) {
		t.Errorf("costBasis = %s, want %s", b.costBasis, want)
	}
}

func TestBook_NearZeroResidueTreatedAsFlat(t *testing.T) {
	// Floating point input can leave a ghost residue; within epsilon the
	// book must report flat.
	b := applyAll(t,
		tev(t, "2025-01-10", "AAPL", 0.1+0.2, 100, 0),
		tev(t, "2025-01-20", "AAPL", -0.3, 100, 0),
	)

	if !b.flat() {
		t.Errorf("book not flat: quantity = %s", b.quantity)
	}
}
