package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mlanders/tradebook"
	"github.com/mlanders/tradebook/ibkr"
	"github.com/mlanders/tradebook/quotes"
	"github.com/mlanders/tradebook/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLedgerList returns the documents of one tab.
func (s *Server) handleLedgerList(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if !store.ValidTab(tab) {
		writeError(w, http.StatusBadRequest, "Missing/invalid tab")
		return
	}
	if tab == store.TabCash {
		records, err := s.store.Cash()
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}
	records, err := s.store.Trades(tab)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// cashPayload keeps Amount a pointer so a missing field is distinguishable
// from an explicit zero.
type cashPayload struct {
	Date      string   `json:"date"`
	Amount    *float64 `json:"amount"`
	Currency  string   `json:"currency"`
	EntryType string   `json:"entryType"`
	Note      string   `json:"note"`
}

// handleLedgerCreate inserts one document into the given tab.
func (s *Server) handleLedgerCreate(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if !store.ValidTab(tab) {
		writeError(w, http.StatusBadRequest, "Missing/invalid tab")
		return
	}

	if tab == store.TabCash {
		var payload cashPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if payload.Date == "" {
			writeError(w, http.StatusBadRequest, "date is required")
			return
		}
		if payload.Amount == nil {
			writeError(w, http.StatusBadRequest, "amount is required")
			return
		}
		id, err := s.store.InsertCash(tradebook.RawCashRecord{
			Date:      payload.Date,
			Amount:    *payload.Amount,
			Currency:  payload.Currency,
			EntryType: payload.EntryType,
			Note:      payload.Note,
		})
		if err != nil {
			s.serverError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
		return
	}

	var rec tradebook.RawRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if rec.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if rec.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	id, err := s.store.InsertTrade(tab, rec)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleLedgerDelete removes one document. Positions restate on the next
// read because they are always replayed from the surviving documents.
func (s *Server) handleLedgerDelete(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if !store.ValidTab(tab) {
		writeError(w, http.StatusBadRequest, "Missing/invalid tab")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(tab, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleLedgerImport ingests an IBKR activity statement CSV from the
// request body and stores the rows it recognises.
func (s *Server) handleLedgerImport(w http.ResponseWriter, r *http.Request) {
	parsed, err := ibkr.ParseActivityStatement(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not parse statement: "+err.Error())
		return
	}
	if len(parsed.Trades) == 0 && len(parsed.Cash) == 0 {
		writeError(w, http.StatusBadRequest, "rows[] required")
		return
	}

	tradesInserted, cashInserted := 0, 0
	for _, rec := range parsed.Trades {
		tab := rec.Type
		if tab == "" {
			tab = store.TabTrades
		}
		if _, err := s.store.InsertTrade(tab, rec); err != nil {
			s.serverError(w, err)
			return
		}
		tradesInserted++
	}
	for _, rec := range parsed.Cash {
		if _, err := s.store.InsertCash(rec); err != nil {
			s.serverError(w, err)
			return
		}
		cashInserted++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"tradesInserted": tradesInserted,
		"cashInserted":   cashInserted,
	})
}

// valuationRow is the wire shape of one valued position.
type valuationRow struct {
	Ticker        string              `json:"ticker"`
	Class         string              `json:"class"`
	Currency      string              `json:"currency"`
	Quantity      tradebook.Quantity  `json:"quantity"`
	CostBasis     tradebook.Money     `json:"costBasis"`
	AveragePrice  *tradebook.Money    `json:"averagePrice,omitempty"`
	MarketValue   *tradebook.Money    `json:"marketValue,omitempty"`
	UnrealisedPnL *tradebook.Money    `json:"unrealisedPnL,omitempty"`
	QuoteSource   string              `json:"quoteSource,omitempty"`
}

// handlePositions replays the full trade history into open positions and
// values them. ?display= overrides the configured display currency;
// "MARKET" keeps each position in its native currency.
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	display := r.URL.Query().Get("display")
	if display == "" {
		display = s.cfg.DisplayCurrency
	}

	records, err := s.store.Trades("")
	if err != nil {
		s.serverError(w, err)
		return
	}
	events, err := tradebook.NormaliseTrades(records, tradebook.DropInvalid)
	if err != nil {
		s.serverError(w, err)
		return
	}

	rows := make([]valuationRow, 0)
	for _, p := range tradebook.ComputePositions(events) {
		quote, source := s.quoteFor(p)
		v := s.rates.Value(p, quote, display)

		row := valuationRow{
			Ticker:      v.Key.Ticker,
			Class:       v.Key.Class,
			Currency:    v.Currency,
			Quantity:    v.Quantity,
			CostBasis:   v.CostBasis,
			QuoteSource: source,
		}
		if v.HasAverage {
			avg := v.AveragePrice
			row.AveragePrice = &avg
		}
		if v.HasMarket {
			mv, pnl := v.MarketValue, v.UnrealisedPnL
			row.MarketValue = &mv
			row.UnrealisedPnL = &pnl
		}
		rows = append(rows, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"display":   display,
		"positions": rows,
	})
}

// quoteFor picks the market price for a position: the cached live quote
// when there is one, the last trade price otherwise, nil when neither
// exists. The source string says which it was.
func (s *Server) quoteFor(p tradebook.Position) (*tradebook.Quote, string) {
	if q := s.quote(p.Key.Ticker); q != nil {
		return q.Engine(), q.Source
	}
	if !p.LastPrice.IsZero() {
		return &tradebook.Quote{
			Price:  p.LastPrice,
			AsOf:   p.LastDate.String(),
			Source: "last-trade",
		}, "last-trade"
	}
	return nil, ""
}

// handleCash reduces the cash ledger into per-currency balances.
func (s *Server) handleCash(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Cash()
	if err != nil {
		s.serverError(w, err)
		return
	}
	events, err := tradebook.NormaliseCash(records, tradebook.DropInvalid)
	if err != nil {
		s.serverError(w, err)
		return
	}
	balances := tradebook.CashBalances(events)
	if balances == nil {
		balances = []tradebook.CashBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

// handlePricesList returns the current quote cache.
func (s *Server) handlePricesList(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]*quotes.Quote)
	for sym, q := range s.snapshotPrices() {
		out[sym] = q
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePricesRefresh triggers a live quote fetch for all held tickers.
func (s *Server) handlePricesRefresh(w http.ResponseWriter, r *http.Request) {
	if s.cfg.RefreshSecret != "" && r.URL.Query().Get("secret") != s.cfg.RefreshSecret {
		writeError(w, http.StatusUnauthorized, "Unauthorised")
		return
	}
	refreshed, symbols, err := s.refreshPrices(r.Context())
	if err != nil {
		s.serverError(w, err)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"refreshed": refreshed,
		"symbols":   symbols,
	})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "A server error has occurred")
}
