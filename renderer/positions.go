package renderer

import (
	"github.com/mlanders/tradebook"
)

// PositionsReport is the display model for the open-positions report.
// Numbers are kept as the exact engine types, which carry their own
// renderers (String, SignedString).
type PositionsReport struct {
	// Date of the report.
	Date tradebook.Date `json:"date"`
	// Display is the display currency, or "MARKET" for native currencies.
	Display string `json:"display"`
	// Rows lists the open positions, one per instrument.
	Rows []PositionRow `json:"rows"`
	// Cash lists the net cash balance per currency.
	Cash []CashRow `json:"cash"`
}

// PositionRow is one open position in the report.
type PositionRow struct {
	Ticker       string             `json:"ticker"`
	Class        string             `json:"class"`
	Currency     string             `json:"currency"`
	Quantity     tradebook.Quantity `json:"quantity"`
	AveragePrice string             `json:"averagePrice"`
	CostBasis    tradebook.Money    `json:"costBasis"`
	MarketValue  string             `json:"marketValue"`
	Unrealised   string             `json:"unrealised"`
	PriceSource  string             `json:"priceSource,omitempty"`
}

// CashRow is one currency's net cash balance.
type CashRow struct {
	Currency string          `json:"currency"`
	Balance  tradebook.Money `json:"balance"`
}

// unknown marks a figure that has no market price behind it. It is a dash,
// not a zero: a missing price must never read as break-even.
const unknown = "?"

// NewPositionsReport builds the report from valued positions and cash
// balances.
func NewPositionsReport(on tradebook.Date, display string, valuations []tradebook.Valuation, cash []tradebook.CashBalance) *PositionsReport {
	r := &PositionsReport{Date: on, Display: display}
	for _, v := range valuations {
		row := PositionRow{
			Ticker:       v.Key.Ticker,
			Class:        v.Key.Class,
			Currency:     v.Currency,
			Quantity:     v.Quantity,
			CostBasis:    v.CostBasis,
			AveragePrice: unknown,
			MarketValue:  unknown,
			Unrealised:   unknown,
		}
		if v.HasAverage {
			row.AveragePrice = v.AveragePrice.String()
		}
		if v.HasMarket {
			row.MarketValue = v.MarketValue.String()
			row.Unrealised = v.UnrealisedPnL.SignedString()
		}
		r.Rows = append(r.Rows, row)
	}
	for _, b := range cash {
		r.Cash = append(r.Cash, CashRow{Currency: b.Currency, Balance: b.Balance})
	}
	return r
}

// RenderPositions renders the report to a markdown string.
func RenderPositions(r *PositionsReport) string {
	partials := map[string]string{
		"positions_title": "positions_title.md",
		"positions_table": "positions_table.md",
		"positions_cash":  "positions_cash.md",
	}
	return renderTemplate("positions", "positions.md", partials, r)
}
