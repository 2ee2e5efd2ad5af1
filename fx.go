package tradebook

import "github.com/shopspring/decimal"

// RateTable converts monetary amounts between currencies through a pivot
// currency. A rate is the number of pivot units per 1 unit of the quoted
// currency, so convert(v, from, to) = v * rate[from] / rate[to].
//
// Unknown currency codes get rate 1 and pass through unchanged. That is a
// deliberate approximation, not an error: a missing rate must never block a
// valuation, but it can mask misconfiguration, so callers displaying
// converted figures should know which currencies their table covers.
type RateTable struct {
	pivot string
	rates map[string]decimal.Decimal
}

// NewRateTable builds a rate table around the given pivot currency.
// The pivot's own rate is forced to 1.
func NewRateTable(pivot string, rates map[string]float64) *RateTable {
	t := &RateTable{pivot: pivot, rates: make(map[string]decimal.Decimal, len(rates)+1)}
	for code, r := range rates {
		t.rates[code] = decimal.NewFromFloat(r)
	}
	t.rates[pivot] = decimal.NewFromInt(1)
	return t
}

// DefaultRates is the static table the ledger ships with: AUD pivot,
// 1 USD = 1.65 AUD, 1 EUR = 1.8 AUD.
func DefaultRates() *RateTable {
	return NewRateTable("AUD", map[string]float64{
		"USD": 1.65,
		"EUR": 1.8,
	})
}

// Pivot returns the pivot currency of the table.
func (t *RateTable) Pivot() string { return t.pivot }

// Currencies returns the currency codes the table has explicit rates for.
func (t *RateTable) Currencies() []string {
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	return codes
}

// rate returns the pivot-units-per-unit rate for a currency, defaulting to 1.
func (t *RateTable) rate(code string) decimal.Decimal {
	if r, ok := t.rates[code]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// Convert converts a monetary amount to the target currency via the pivot.
// Converting to the amount's own currency is the identity.
func (t *RateTable) Convert(m Money, to string) Money {
	if m.cur == to {
		return m
	}
	value := m.value.Mul(t.rate(m.cur)).Div(t.rate(to))
	return Money{value: value, cur: to}
}
