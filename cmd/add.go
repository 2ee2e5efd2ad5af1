package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mlanders/tradebook"
	"github.com/mlanders/tradebook/store"
)

type addCmd struct {
	tab      string
	ticker   string
	date     string
	quantity float64
	price    float64
	fee      float64
	currency string
	broker   string
	note     string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a trade in the ledger" }
func (*addCmd) Usage() string {
	return `tbk add -ticker <symbol> -q <quantity> -p <price> [-tab trades|crypto|forex] [-d <date>] [-fee <fee>] [-c <currency>]

  Records one trade. A negative quantity is a sell (or a short open).
`
}

func (p *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.tab, "tab", store.TabTrades, "Ledger tab: trades, crypto or forex.")
	f.StringVar(&p.ticker, "ticker", "", "Instrument symbol.")
	f.StringVar(&p.date, "d", tradebook.Today().String(), "Trade date (YYYY-MM-DD).")
	f.Float64Var(&p.quantity, "q", 0, "Signed quantity: positive buys, negative sells.")
	f.Float64Var(&p.price, "p", 0, "Unit price in the trade currency.")
	f.Float64Var(&p.fee, "fee", 0, "Fee in the trade currency.")
	f.StringVar(&p.currency, "c", "", "Trade currency. Defaults to "+tradebook.DefaultTradeCurrency+".")
	f.StringVar(&p.broker, "broker", "", "Broker name.")
	f.StringVar(&p.note, "note", "", "Free-form note.")
}

func (p *addCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.ticker == "" {
		fmt.Fprintln(os.Stderr, "Error: -ticker is required.")
		return subcommands.ExitUsageError
	}
	if p.quantity == 0 {
		fmt.Fprintln(os.Stderr, "Error: -q must be a non-zero signed quantity.")
		return subcommands.ExitUsageError
	}
	if _, err := tradebook.ParseDate(p.date); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	id, err := st.InsertTrade(p.tab, tradebook.RawRecord{
		Ticker:   p.ticker,
		Date:     p.date,
		Quantity: p.quantity,
		Price:    p.price,
		Fee:      p.fee,
		Currency: p.currency,
		Broker:   p.broker,
		Note:     p.note,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded %s trade %s\n", p.tab, id)
	return subcommands.ExitSuccess
}
