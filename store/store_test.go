package store

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlanders/tradebook"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared&_fk=1", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertAndListTrades(t *testing.T) {
	s := openTestStore(t)

	id, err := s.InsertTrade(TabTrades, tradebook.RawRecord{
		Ticker: "AAPL", Date: "2025-01-10", Quantity: 10, Price: 100, Currency: "USD", Broker: "IBKR",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.InsertTrade(TabCrypto, tradebook.RawRecord{
		Ticker: "BTC", Date: "2025-01-11", Quantity: 0.5, Price: 60000, Currency: "USD",
	})
	require.NoError(t, err)

	trades, err := s.Trades(TabTrades)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0].Ticker)
	assert.Equal(t, TabTrades, trades[0].Type)
	assert.Equal(t, id, trades[0].ID)

	all, err := s.Trades("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_PreservesSameSecondInsertionOrder(t *testing.T) {
	s := openTestStore(t)

	// A statement import writes a whole batch within one second. FIFO replay
	// leans on the listing order for same-day tie-breaks, so reads must come
	// back exactly as inserted, not in timestamp-then-uuid order.
	var want []string
	for i := 0; i < 50; i++ {
		ticker := fmt.Sprintf("T%02d", i)
		_, err := s.InsertTrade(TabTrades, tradebook.RawRecord{
			Ticker: ticker, Date: "2025-01-10", Quantity: 1, Price: 10,
		})
		require.NoError(t, err)
		want = append(want, ticker)
	}

	for i := 0; i < 3; i++ {
		trades, err := s.Trades(TabTrades)
		require.NoError(t, err)
		require.Len(t, trades, len(want))
		var got []string
		for _, rec := range trades {
			got = append(got, rec.Ticker)
		}
		assert.Equal(t, want, got)
	}
}

func TestStore_InsertTradeRejectsCashTab(t *testing.T) {
	s := openTestStore(t)

	_, err := s.InsertTrade(TabCash, tradebook.RawRecord{Ticker: "AAPL", Date: "2025-01-10", Quantity: 1})
	assert.Error(t, err)
}

func TestStore_Cash(t *testing.T) {
	s := openTestStore(t)

	_, err := s.InsertCash(tradebook.RawCashRecord{Date: "2025-01-10", Amount: 1000, Currency: "AUD"})
	require.NoError(t, err)

	records, err := s.Cash()
	require.NoError(t, err)
	require.Len(t, records, 1)
	// Missing entry type defaults to deposit, matching the ingestion API.
	assert.Equal(t, tradebook.EntryDeposit, records[0].EntryType)
	assert.Equal(t, 1000.0, records[0].Amount)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)

	id, err := s.InsertTrade(TabTrades, tradebook.RawRecord{Ticker: "AAPL", Date: "2025-01-10", Quantity: 10})
	require.NoError(t, err)

	require.NoError(t, s.Delete(TabTrades, id))

	trades, err := s.Trades(TabTrades)
	require.NoError(t, err)
	assert.Empty(t, trades)

	assert.Error(t, s.Delete(TabTrades, id), "deleting twice must fail")
}

func TestValidTab(t *testing.T) {
	for _, tab := range []string{TabTrades, TabCrypto, TabForex, TabCash} {
		assert.True(t, ValidTab(tab), tab)
	}
	assert.False(t, ValidTab("bonds"))
	assert.False(t, ValidTab(""))
}
