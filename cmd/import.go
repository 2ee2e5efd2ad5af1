package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mlanders/tradebook/ibkr"
	"github.com/mlanders/tradebook/store"
)

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import an IBKR activity statement" }
func (*importCmd) Usage() string {
	return `tbk import <statement.csv>...

  Parses Interactive Brokers activity statement exports and records the
  trades, forex conversions and cash movements they contain.
`
}

func (p *importCmd) SetFlags(f *flag.FlagSet) {}

func (p *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one statement file is required.")
		return subcommands.ExitUsageError
	}

	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	for _, path := range f.Args() {
		trades, cash, err := importStatement(st, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", path, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Imported %s: %d trades, %d cash entries\n", path, trades, cash)
	}
	return subcommands.ExitSuccess
}

func importStatement(st *store.Store, path string) (trades, cash int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	parsed, err := ibkr.ParseActivityStatement(f)
	if err != nil {
		return 0, 0, err
	}

	for _, rec := range parsed.Trades {
		tab := rec.Type
		if tab == "" {
			tab = store.TabTrades
		}
		if _, err := st.InsertTrade(tab, rec); err != nil {
			return trades, cash, err
		}
		trades++
	}
	for _, rec := range parsed.Cash {
		if _, err := st.InsertCash(rec); err != nil {
			return trades, cash, err
		}
		cash++
	}
	return trades, cash, nil
}
