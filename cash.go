package tradebook

import (
	"slices"
	"strings"
)

// CashBalance is the net cash amount held in one currency.
type CashBalance struct {
	Currency string
	Balance  Money
}

// CashBalances reduces cash events to one net balance per currency, sorted
// by currency code. It is a pure function: summarising the same events
// twice yields the same balances.
func CashBalances(events []CashEvent) []CashBalance {
	totals := make(map[string]Money)
	for _, e := range events {
		cur := e.Currency()
		total, ok := totals[cur]
		if !ok {
			total = M(0, cur)
		}
		totals[cur] = total.Add(e.Amount)
	}

	balances := make([]CashBalance, 0, len(totals))
	for cur, total := range totals {
		balances = append(balances, CashBalance{Currency: cur, Balance: total})
	}
	slices.SortFunc(balances, func(a, b CashBalance) int {
		return strings.Compare(a.Currency, b.Currency)
	})
	return balances
}
