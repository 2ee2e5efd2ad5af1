package tradebook

import (
	"math"
	"testing"
)

func position(t *testing.T, records ...RawRecord) Position {
	t.Helper()
	events, err := NormaliseTrades(records, RejectInvalid)
	if err != nil {
		t.Fatalf("NormaliseTrades() error = %v", err)
	}
	positions := ComputePositions(events)
	if len(positions) != 1 {
		t.Fatalf("len(positions) = %d, want 1", len(positions))
	}
	return positions[0]
}

func TestValue_Long(t *testing.T) {
	p := position(t, RawRecord{Ticker: "AAPL", Date: "2025-01-10", Quantity: 10, Price: 100, Fee: 2})

	quote := &Quote{Price: M(120, "USD"), Source: "test"}
	v := DefaultRates().Value(p, quote, DisplayMarket)

	if !v.HasMarket {
		t.Fatal("HasMarket = false with a quote supplied")
	}
	if want := M(1200, "USD"); !v.MarketValue.Equal(want) {
		t.Errorf("marketValue = %s, want %s", v.MarketValue, want)
	}
	if want := M(198, "USD"); !v.UnrealisedPnL.Equal(want) { // 1200 - 1002
		t.Errorf("unrealisedPnL = %s, want %s", v.UnrealisedPnL, want)
	}
}

func TestValue_ShortLosesWhenPriceRises(t *testing.T) {
	// Short 10 @ 50 (costBasis -500); price rises to 60:
	// marketValue = -600, PnL = -600 - (-500) = -100.
	p := position(t, RawRecord{Ticker: "AAPL", Date: "2025-01-10", Quantity: -10, Price: 50})

	v := DefaultRates().Value(p, &Quote{Price: M(60, "USD")}, DisplayMarket)

	if want := M(-600, "USD"); !v.MarketValue.Equal(want) {
		t.Errorf("marketValue = %s, want %s", v.MarketValue, want)
	}
	if want := M(-100, "USD"); !v.UnrealisedPnL.Equal(want) {
		t.Errorf("unrealisedPnL = %s, want %s (a loss)", v.UnrealisedPnL, want)
	}
}

func TestValue_QuoteInForeignCurrency(t *testing.T) {
	// An AUD position priced by a vendor that answers in USD: the quote is
	// converted into the position's currency before any arithmetic.
	// 66 USD * 1.65 = 108.9 AUD; marketValue = 1089 AUD, PnL = +89 AUD.
	p := position(t, RawRecord{Ticker: "CBA", Date: "2025-01-10", Quantity: 10, Price: 100, Currency: "AUD"})

	v := DefaultRates().Value(p, &Quote{Price: M(66, "USD"), Source: "test"}, DisplayMarket)

	if !v.HasMarket {
		t.Fatal("HasMarket = false with a quote supplied")
	}
	if v.MarketValue.Currency() != "AUD" {
		t.Fatalf("marketValue currency = %q, want the position's AUD", v.MarketValue.Currency())
	}
	if math.Abs(v.MarketValue.AsFloat()-1089) > 1e-9 {
		t.Errorf("marketValue = %v, want 1089", v.MarketValue.AsFloat())
	}
	if math.Abs(v.UnrealisedPnL.AsFloat()-89) > 1e-9 {
		t.Errorf("unrealisedPnL = %v, want 89", v.UnrealisedPnL.AsFloat())
	}
}

func TestValue_MissingQuoteDegrades(t *testing.T) {
	p := position(t, RawRecord{Ticker: "AAPL", Date: "2025-01-10", Quantity: 10, Price: 100})

	v := DefaultRates().Value(p, nil, DisplayMarket)

	if v.HasMarket {
		t.Error("HasMarket = true without a quote; unknown must not become zero")
	}
	if want := M(1000, "USD"); !v.CostBasis.Equal(want) {
		t.Errorf("costBasis = %s, want %s (still computable)", v.CostBasis, want)
	}
	if !v.HasAverage {
		t.Error("HasAverage = false for an open position")
	}
}

func TestValue_DisplayCurrencyConversion(t *testing.T) {
	p := position(t, RawRecord{Ticker: "AAPL", Date: "2025-01-10", Quantity: 10, Price: 100})

	v := DefaultRates().Value(p, &Quote{Price: M(120, "USD")}, "AUD")

	if v.Currency != "AUD" {
		t.Fatalf("currency = %q, want AUD", v.Currency)
	}
	checks := []struct {
		name string
		got  Money
		want float64
	}{
		{"costBasis", v.CostBasis, 1000 * 1.65},
		{"marketValue", v.MarketValue, 1200 * 1.65},
		{"unrealisedPnL", v.UnrealisedPnL, 200 * 1.65},
		{"averagePrice", v.AveragePrice, 100 * 1.65},
	}
	for _, c := range checks {
		if math.Abs(c.got.AsFloat()-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got.AsFloat(), c.want)
		}
		if c.got.Currency() != "AUD" {
			t.Errorf("%s currency = %q, want AUD", c.name, c.got.Currency())
		}
	}
}

func TestValue_MarketModeKeepsNativeCurrency(t *testing.T) {
	p := position(t, RawRecord{Ticker: "AAPL", Date: "2025-01-10", Quantity: 10, Price: 100, Currency: "EUR"})

	v := DefaultRates().Value(p, nil, DisplayMarket)

	if v.Currency != "EUR" {
		t.Errorf("currency = %q, want native EUR", v.Currency)
	}
	if want := M(1000, "EUR"); !v.CostBasis.Equal(want) {
		t.Errorf("costBasis = %s, want %s unconverted", v.CostBasis, want)
	}
}
