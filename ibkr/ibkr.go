// Package ibkr parses Interactive Brokers activity statements into raw
// ledger records.
//
// An activity statement is a CSV where every row is prefixed by its section
// name and a row kind ("Header" or "Data"); each section redefines its own
// columns. Only the Trades section (Stocks and Forex asset categories) and
// the Deposits & Withdrawals section are of interest; everything else is
// skipped. This is a text-to-row transform: no position math happens here.
package ibkr

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mlanders/tradebook"
)

// Result holds the rows extracted from one statement.
type Result struct {
	Trades []tradebook.RawRecord
	Cash   []tradebook.RawCashRecord
}

var (
	ibkrDateTime = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
	dmyDate      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// ParseActivityStatement extracts trade and cash rows from an IBKR activity
// statement. Rows missing a symbol, date or asset category are skipped, the
// statement format being far too ragged for strictness; the normaliser
// applies its own validation downstream anyway.
func ParseActivityStatement(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // sections have different widths
	reader.LazyQuotes = true

	var res Result
	headers := make(map[string][]string) // most recent header row per section

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("could not read statement: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		section, kind := row[0], row[1]
		if section == "" || kind == "" {
			continue
		}

		if kind == "Header" {
			headers[section] = row[2:]
			continue
		}
		if kind != "Data" {
			continue
		}

		fields := zip(headers[section], row[2:])
		switch section {
		case "Trades":
			if rec, ok := tradeRow(fields); ok {
				res.Trades = append(res.Trades, rec)
			}
		case "Deposits & Withdrawals":
			if rec, ok := cashRow(fields); ok {
				res.Cash = append(res.Cash, rec)
			}
		}
	}
	return res, nil
}

func tradeRow(fields map[string]string) (tradebook.RawRecord, bool) {
	assetCat := fields["Asset Category"]
	ticker := fields["Symbol"]
	date := isoFromDateTime(fields["Date/Time"])
	if date == "" || ticker == "" || assetCat == "" {
		return tradebook.RawRecord{}, false
	}

	var tab string
	switch assetCat {
	case "Stocks":
		tab = tradebook.ClassTrades
	case "Forex":
		tab = tradebook.ClassForex
	default:
		// options, bonds, etc. are not tracked
		return tradebook.RawRecord{}, false
	}

	currency := fields["Currency"]
	if currency == "" {
		currency = "USD"
	}
	return tradebook.RawRecord{
		Ticker:     ticker,
		Date:       date,
		Quantity:   parseNumber(fields["Quantity"]), // negatives preserved
		Price:      parseNumber(fields["T. Price"]),
		Fee:        math.Abs(parseNumber(fields["Comm/Fee"])),
		Currency:   currency,
		Broker:     "IBKR",
		Type:       tab,
		RealisedPL: parseNumber(fields["Realized P/L"]),
	}, true
}

func cashRow(fields map[string]string) (tradebook.RawCashRecord, bool) {
	date := isoFromDMY(fields["Settle Date"])
	if date == "" {
		return tradebook.RawCashRecord{}, false
	}
	currency := fields["Currency"]
	if currency == "" {
		currency = "AUD"
	}
	amount := parseNumber(fields["Amount"])
	entryType := tradebook.EntryDeposit
	if amount < 0 {
		entryType = tradebook.EntryWithdrawal
	}
	return tradebook.RawCashRecord{
		Date:      date,
		Amount:    amount,
		Currency:  currency,
		EntryType: entryType,
		Note:      fields["Description"],
	}, true
}

// zip pairs a section's header columns with a data row's columns.
func zip(header, data []string) map[string]string {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(data) {
			fields[name] = strings.TrimSpace(data[i])
		}
	}
	return fields
}

// parseNumber reads IBKR's "1,234.56" style numbers; blanks and "--" are 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}

// isoFromDateTime keeps the date part of "2025-01-10, 09:30:00".
func isoFromDateTime(s string) string {
	if m := ibkrDateTime.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// isoFromDMY converts "31/1/2025" to "2025-01-31".
func isoFromDMY(s string) string {
	m := dmyDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	day, month := m[1], m[2]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return fmt.Sprintf("%s-%s-%s", m[3], month, day)
}
