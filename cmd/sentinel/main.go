package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds every sentinel command to c.
func register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "")

	c.Register(&fetchCmd{}, "prices")
	c.Register(&loadPricesCmd{}, "prices")
	c.Register(&pricesCmd{}, "prices")
	c.Register(&predictCmd{}, "prices")

	c.Register(&addInvestorCmd{}, "portfolio")
	c.Register(&loadPurchasesCmd{}, "portfolio")
	c.Register(&valueCmd{}, "portfolio")
}
