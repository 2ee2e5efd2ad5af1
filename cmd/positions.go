package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mlanders/tradebook"
	"github.com/mlanders/tradebook/quotes"
	"github.com/mlanders/tradebook/renderer"
)

type positionsCmd struct {
	display string
	live    bool
	raw     bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "show open positions with P&L" }
func (*positionsCmd) Usage() string {
	return `tbk positions [-display <currency>|MARKET] [-live] [-raw]

  Replays the ledger into open positions and values them. With -live, prices
  come from the configured quote providers; otherwise each position is
  valued at its last trade price. -raw prints plain markdown.
`
}

func (p *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.display, "display", tradebook.DefaultCashCurrency, "Display currency, or MARKET to keep native currencies.")
	f.BoolVar(&p.live, "live", false, "Fetch live quotes from the configured providers.")
	f.BoolVar(&p.raw, "raw", false, "Print plain markdown instead of rendering for the terminal.")
}

func (p *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	tradeDocs, err := st.Trades("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	cashDocs, err := st.Cash()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	events, err := tradebook.NormaliseTrades(tradeDocs, tradebook.DropInvalid)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	cashEvents, err := tradebook.NormaliseCash(cashDocs, tradebook.DropInvalid)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	positions := tradebook.ComputePositions(events)

	var live map[string]*quotes.Quote
	if p.live {
		live = fetchLive(ctx, positions)
	}

	rates := tradebook.DefaultRates()
	var valuations []tradebook.Valuation
	for _, pos := range positions {
		valuations = append(valuations, rates.Value(pos, quoteFor(pos, live), p.display))
	}

	report := renderer.NewPositionsReport(tradebook.Today(), p.display, valuations, tradebook.CashBalances(cashEvents))
	markdown := renderer.RenderPositions(report)
	if p.raw {
		fmt.Print(markdown)
		return subcommands.ExitSuccess
	}

	out, err := renderer.Glamourise(markdown)
	if err != nil {
		// Fall back to the plain report rather than losing it.
		fmt.Print(markdown)
		return subcommands.ExitSuccess
	}
	fmt.Print(out)
	return subcommands.ExitSuccess
}

// fetchLive pulls quotes for the held tickers from whichever providers have
// API keys in the environment. Responses are cached on disk for the day.
func fetchLive(ctx context.Context, positions []tradebook.Position) map[string]*quotes.Quote {
	var providers []quotes.Provider
	client := quotes.DailyCachedClient()
	if key := os.Getenv("TWELVE_DATA_API_KEY"); key != "" {
		providers = append(providers, &quotes.TwelveData{APIKey: key, Client: client})
	}
	// Yahoo needs no key, so -live always has at least one provider.
	providers = append(providers, &quotes.Yahoo{Client: client})
	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		providers = append(providers, &quotes.EODHD{APIKey: key, Client: client})
	}

	var symbols []string
	for _, p := range positions {
		symbols = append(symbols, p.Key.Ticker)
	}
	return quotes.NewChain(cliLogger(), providers...).Fetch(ctx, symbols)
}

// quoteFor values a position at its live quote when one resolved, at its
// last trade price otherwise.
func quoteFor(p tradebook.Position, live map[string]*quotes.Quote) *tradebook.Quote {
	if q := live[p.Key.Ticker]; q != nil {
		return q.Engine()
	}
	if p.LastPrice.IsZero() {
		return nil
	}
	return &tradebook.Quote{Price: p.LastPrice, AsOf: p.LastDate.String(), Source: "last-trade"}
}
