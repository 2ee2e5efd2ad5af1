package tradebook

import (
	"fmt"
	"strings"
)

// Default currencies applied when a document omits one, matching the
// ingestion defaults of the ledger API.
const (
	DefaultTradeCurrency = "USD"
	DefaultCashCurrency  = "AUD"
)

// Cash entry types as stored on cash documents.
const (
	EntryDeposit    = "deposit"
	EntryWithdrawal = "withdrawal"
)

// Policy decides what the normaliser does with a malformed record:
// drop it silently, or reject the whole input. Whichever the caller picks,
// nothing malformed ever reaches the lot ledger.
type Policy int

const (
	// DropInvalid silently skips records with a missing ticker, an
	// unparseable date, or a zero quantity.
	DropInvalid Policy = iota
	// RejectInvalid fails on the first such record.
	RejectInvalid
)

// RawRecord mirrors a trade document as persisted by the ingestion paths
// (manual entry or statement import). RealisedPL is caller-supplied metadata;
// it is carried through but never trusted for position math.
type RawRecord struct {
	ID         string  `json:"id,omitempty"`
	Ticker     string  `json:"ticker"`
	Date       string  `json:"date"` // "YYYY-MM-DD"
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Fee        float64 `json:"fee"`
	Currency   string  `json:"currency,omitempty"`
	Broker     string  `json:"broker,omitempty"`
	Type       string  `json:"type,omitempty"` // trades | crypto | forex
	RealisedPL float64 `json:"realisedPL,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// RawCashRecord mirrors a cash document. Amount may be signed, or unsigned
// with EntryType carrying the direction; NormaliseCash accepts both.
type RawCashRecord struct {
	ID        string  `json:"id,omitempty"`
	Date      string  `json:"date"` // "YYYY-MM-DD"
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency,omitempty"`
	EntryType string  `json:"entryType,omitempty"` // deposit | withdrawal
	Note      string  `json:"note,omitempty"`
}

// NormaliseTrades converts raw trade documents into canonical TradeEvents.
// It is a pure transform: no sorting (the replay sorts), no side effects.
// Records with a missing ticker, unparseable date or zero quantity are
// dropped or rejected according to the policy.
func NormaliseTrades(records []RawRecord, policy Policy) ([]TradeEvent, error) {
	events := make([]TradeEvent, 0, len(records))
	for i, rec := range records {
		ev, err := normaliseTrade(rec)
		if err != nil {
			if policy == RejectInvalid {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func normaliseTrade(rec RawRecord) (TradeEvent, error) {
	ticker := strings.ToUpper(strings.TrimSpace(rec.Ticker))
	if ticker == "" {
		return TradeEvent{}, fmt.Errorf("missing ticker")
	}
	day, err := ParseDate(rec.Date)
	if err != nil {
		return TradeEvent{}, err
	}
	if rec.Quantity == 0 {
		return TradeEvent{}, fmt.Errorf("zero quantity for %q on %s", ticker, day)
	}
	currency := rec.Currency
	if currency == "" {
		currency = DefaultTradeCurrency
	}
	class := rec.Type
	if class == "" {
		class = ClassTrades
	}
	return TradeEvent{
		Key:      InstrumentKey{Ticker: ticker, Currency: currency, Class: class},
		Date:     day,
		Quantity: Q(rec.Quantity),
		Price:    M(rec.Price, currency),
		Fee:      M(rec.Fee, currency),
		Broker:   rec.Broker,
	}, nil
}

// NormaliseCash converts raw cash documents into signed CashEvents.
// A withdrawal contributes negatively whether it was stored as a negative
// amount or as a positive amount with the withdrawal entry type.
func NormaliseCash(records []RawCashRecord, policy Policy) ([]CashEvent, error) {
	events := make([]CashEvent, 0, len(records))
	for i, rec := range records {
		ev, err := normaliseCash(rec)
		if err != nil {
			if policy == RejectInvalid {
				return nil, fmt.Errorf("cash record %d: %w", i, err)
			}
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func normaliseCash(rec RawCashRecord) (CashEvent, error) {
	day, err := ParseDate(rec.Date)
	if err != nil {
		return CashEvent{}, err
	}
	currency := rec.Currency
	if currency == "" {
		currency = DefaultCashCurrency
	}
	amount := M(rec.Amount, currency)
	if rec.EntryType == EntryWithdrawal && amount.IsPositive() {
		amount = amount.Neg()
	}
	return CashEvent{Date: day, Amount: amount}, nil
}
