package tradebook

import "fmt"

// Instrument classes, matching the ledger tabs of the ingestion surface.
// Trades in the same ticker but a different class (or currency) are tracked
// as independent position lines.
const (
	ClassTrades = "trades"
	ClassCrypto = "crypto"
	ClassForex  = "forex"
)

// InstrumentKey uniquely identifies a tracked position line.
type InstrumentKey struct {
	Ticker   string
	Currency string
	Class    string
}

func (k InstrumentKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Ticker, k.Currency, k.Class)
}

// TradeEvent is one executed transaction in canonical shape: signed quantity
// (positive acquires, negative disposes), per-unit price and fee in the
// event's currency. TradeEvents are immutable once created; removing one
// requires a full replay to restate positions.
type TradeEvent struct {
	Key      InstrumentKey
	Date     Date
	Quantity Quantity
	Price    Money
	Fee      Money
	Broker   string // informational only
}

// Currency returns the event's currency.
func (e TradeEvent) Currency() string { return e.Key.Currency }

// CashEvent is one deposit or withdrawal, already normalised to a signed
// amount (positive credit, negative debit). Cash entries never touch the
// lot ledger.
type CashEvent struct {
	Date   Date
	Amount Money
}

// Currency returns the event's currency.
func (e CashEvent) Currency() string { return e.Amount.Currency() }
