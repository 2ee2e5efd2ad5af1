package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/mlanders/tradebook/cmd"
)

// completion describes the CLI for shell completion. Running the binary
// through the completion hooks short-circuits before any command runs.
func completion() *complete.Command {
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{}
	}
	sub["import"].Args = predict.Files("*.csv")
	sub["positions"].Flags = map[string]complete.Predictor{
		"display": predict.Set{"AUD", "USD", "EUR", "MARKET"},
	}
	return &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"db": predict.Files("*.db"),
		},
	}
}

func main() {
	completion().Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
