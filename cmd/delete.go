package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mlanders/tradebook/store"
)

type deleteCmd struct {
	tab string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a ledger entry by id" }
func (*deleteCmd) Usage() string {
	return `tbk delete [-tab <tab>] <id>...

  Deletes entries from the ledger. Positions restate automatically because
  they are always replayed from the remaining history.
`
}

func (p *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.tab, "tab", store.TabTrades, "Ledger tab the entries live in.")
}

func (p *deleteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one id is required.")
		return subcommands.ExitUsageError
	}

	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		if err := st.Delete(p.tab, id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("Deleted %s\n", id)
	}
	return status
}
