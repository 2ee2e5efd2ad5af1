package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/mlanders/tradebook"
	"github.com/mlanders/tradebook/store"
)

type ledgerCmd struct {
	tab  string
	head int
	tail int
}

func (*ledgerCmd) Name() string     { return "ledger" }
func (*ledgerCmd) Synopsis() string { return "list ledger entries" }
func (*ledgerCmd) Usage() string {
	return `tbk ledger [-tab trades|crypto|forex|cash] [-head <n>] [-tail <n>]

  Lists the raw entries of one ledger tab, with their ids, for inspection
  and deletion.
`
}

func (p *ledgerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.tab, "tab", store.TabTrades, "Ledger tab to list.")
	f.IntVar(&p.head, "head", 0, "Show only the first N entries.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N entries.")
}

func (p *ledgerCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	if !store.ValidTab(p.tab) {
		fmt.Fprintf(os.Stderr, "Error: unknown tab %q.\n", p.tab)
		return subcommands.ExitUsageError
	}

	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if p.tab == store.TabCash {
		rows, err := st.Cash()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tCURRENCY\tTYPE\tNOTE")
		for _, rec := range clip(rows, p.head, p.tail) {
			currency := rec.Currency
			if currency == "" {
				currency = tradebook.DefaultCashCurrency
			}
			fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%s\t%s\n",
				rec.ID, rec.Date, rec.Amount, currency, rec.EntryType, rec.Note)
		}
		return subcommands.ExitSuccess
	}

	rows, err := st.Trades(p.tab)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(w, "ID\tDATE\tTICKER\tQTY\tPRICE\tFEE\tCURRENCY\tBROKER")
	for _, rec := range clip(rows, p.head, p.tail) {
		currency := rec.Currency
		if currency == "" {
			currency = tradebook.DefaultTradeCurrency
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%g\t%s\t%s\n",
			rec.ID, rec.Date, rec.Ticker, rec.Quantity, rec.Price, rec.Fee, currency, rec.Broker)
	}
	return subcommands.ExitSuccess
}

// clip applies the -head / -tail window to a listing.
func clip[T any](rows []T, head, tail int) []T {
	if head > 0 && head < len(rows) {
		return rows[:head]
	}
	if tail > 0 && tail < len(rows) {
		return rows[len(rows)-tail:]
	}
	return rows
}
