// Package cmd implements the CLI application to manage the trade ledger.
package cmd

import (
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/mlanders/tradebook/store"
)

// Register the subcommands.
// A main package calls Register() to expose the subcommands, then Execute()
// on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "ledger")
	c.Register(&cashCmd{}, "ledger")
	c.Register(&importCmd{}, "ledger")
	c.Register(&deleteCmd{}, "ledger")
	c.Register(&ledgerCmd{}, "ledger")

	c.Register(&positionsCmd{}, "reports")

	c.Register(&serveCmd{}, "server")
}

// Commands lists every subcommand, for main packages that register them all
// and for shell completion.
var Commands = []subcommands.Command{
	&addCmd{},
	&cashCmd{},
	&importCmd{},
	&deleteCmd{},
	&ledgerCmd{},
	&positionsCmd{},
	&serveCmd{},
}

// As a CLI application it is short lived, so global flags are fine.

var dbPath = flag.String("db", "tradebook.db", "Path to the ledger database file")

func cliLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// openStore opens the ledger database named by the -db flag.
func openStore() (*store.Store, error) {
	return store.Open(*dbPath, cliLogger())
}
