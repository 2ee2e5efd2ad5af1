package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mlanders/tradebook"
)

type cashCmd struct {
	date      string
	amount    float64
	currency  string
	entryType string
	note      string
}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "record a cash deposit or withdrawal" }
func (*cashCmd) Usage() string {
	return `tbk cash -amount <amount> [-d <date>] [-c <currency>] [-type deposit|withdrawal]

  Records a cash movement. A negative amount, or -type withdrawal, takes
  money out.
`
}

func (p *cashCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.date, "d", tradebook.Today().String(), "Entry date (YYYY-MM-DD).")
	f.Float64Var(&p.amount, "amount", 0, "Amount of the movement.")
	f.StringVar(&p.currency, "c", "", "Currency. Defaults to "+tradebook.DefaultCashCurrency+".")
	f.StringVar(&p.entryType, "type", "", "deposit or withdrawal. Defaults to deposit.")
	f.StringVar(&p.note, "note", "", "Free-form note.")
}

func (p *cashCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.amount == 0 {
		fmt.Fprintln(os.Stderr, "Error: -amount is required.")
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

	id, err := st.InsertCash(tradebook.RawCashRecord{
		Date:      p.date,
		Amount:    p.amount,
		Currency:  p.currency,
		EntryType: p.entryType,
		Note:      p.note,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded cash entry %s\n", id)
	return subcommands.ExitSuccess
}
