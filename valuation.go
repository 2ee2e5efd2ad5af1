package tradebook

// DisplayMarket is the display mode that keeps every figure in the
// position's own currency instead of converting to a single one.
const DisplayMarket = "MARKET"

// Quote is an externally supplied market price for an instrument, in
// whatever currency the source reported. Value converts it into the
// position's currency before any arithmetic. The engine accepts a quote as
// a plain value (or nil for "no market price") so the valuation math stays
// synchronous.
type Quote struct {
	Price  Money
	AsOf   string // informational
	Source string // informational, e.g. "twelvedata-live" or "last-trade"
}

// Valuation combines a position with a market price into display-ready
// figures. When no market price is available HasMarket is false and
// MarketValue/UnrealisedPnL are meaningless; they are never coerced to zero,
// which would turn "unknown" into a fake break-even. Cost basis remains
// computable either way.
type Valuation struct {
	Key          InstrumentKey
	Currency     string // currency the figures below are expressed in
	Quantity     Quantity
	CostBasis    Money
	AveragePrice Money
	HasAverage   bool
	MarketValue  Money
	UnrealisedPnL Money
	HasMarket    bool
}

// Value computes market value and unrealised P&L for a position.
//
// display selects the output currency: a currency code converts every
// figure through the rate table, DisplayMarket (or the position's own
// currency) leaves them native. quote may be nil.
//
// marketValue = quantity * price; unrealisedPnL = marketValue - costBasis.
// The signed cost basis convention makes the P&L sign come out right for
// short positions too: a short loses money when the price rises.
func (t *RateTable) Value(p Position, quote *Quote, display string) Valuation {
	v := Valuation{
		Key:       p.Key,
		Currency:  p.Currency(),
		Quantity:  p.Quantity,
		CostBasis: p.CostBasis,
	}
	v.AveragePrice, v.HasAverage = p.AveragePrice()

	if quote != nil {
		// Live quotes arrive in the vendor's currency, which need not be
		// the position's. Bring the price into the position's currency
		// first so the subtraction against cost basis is well-formed.
		price := quote.Price
		if price.Currency() != "" && price.Currency() != p.Currency() {
			price = t.Convert(price, p.Currency())
		}
		v.HasMarket = true
		v.MarketValue = price.Mul(p.Quantity)
		v.UnrealisedPnL = v.MarketValue.Sub(p.CostBasis)
	}

	if display == DisplayMarket || display == "" || display == p.Currency() {
		return v
	}

	// Convert each figure independently to the display currency.
	v.Currency = display
	v.CostBasis = t.Convert(v.CostBasis, display)
	if v.HasAverage {
		v.AveragePrice = t.Convert(v.AveragePrice, display)
	}
	if v.HasMarket {
		v.MarketValue = t.Convert(v.MarketValue, display)
		v.UnrealisedPnL = t.Convert(v.UnrealisedPnL, display)
	}
	return v
}
