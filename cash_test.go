package tradebook

import (
	"testing"
)

func TestCashBalances(t *testing.T) {
	events, err := NormaliseCash([]RawCashRecord{
		{Date: "2025-01-10", Amount: 1000, Currency: "AUD", EntryType: EntryDeposit},
		{Date: "2025-01-20", Amount: 400, Currency: "AUD", EntryType: EntryWithdrawal},
		{Date: "2025-02-01", Amount: 500, Currency: "USD", EntryType: EntryDeposit},
		{Date: "2025-02-15", Amount: -100, Currency: "USD"},
	}, RejectInvalid)
	if err != nil {
		t.Fatalf("NormaliseCash() error = %v", err)
	}

	balances := CashBalances(events)
	if len(balances) != 2 {
		t.Fatalf("len(balances) = %d, want 2", len(balances))
	}
	// Sorted by currency code.
	if balances[0].Currency != "AUD" || balances[1].Currency != "USD" {
		t.Fatalf("currencies = %q, %q; want AUD, USD", balances[0].Currency, balances[1].Currency)
	}
	if want := M(600, "AUD"); !balances[0].Balance.Equal(want) {
		t.Errorf("AUD balance = %s, want %s", balances[0].Balance, want)
	}
	if want := M(400, "USD"); !balances[1].Balance.Equal(want) {
		t.Errorf("USD balance = %s, want %s", balances[1].Balance, want)
	}
}

func TestCashBalances_Idempotent(t *testing.T) {
	events, err := NormaliseCash([]RawCashRecord{
		{Date: "2025-01-10", Amount: 1000, Currency: "AUD"},
		{Date: "2025-01-20", Amount: 250, Currency: "AUD", EntryType: EntryWithdrawal},
	}, RejectInvalid)
	if err != nil {
		t.Fatalf("NormaliseCash() error = %v", err)
	}

	first := CashBalances(events)
	second := CashBalances(events)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Currency != second[i].Currency || !first[i].Balance.Equal(second[i].Balance) {
			t.Errorf("run %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestCashBalances_Empty(t *testing.T) {
	if balances := CashBalances(nil); len(balances) != 0 {
		t.Errorf("CashBalances(nil) = %v, want empty", balances)
	}
}
