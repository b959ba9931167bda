package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"PortfolioSentinel/internal/chart"
	"PortfolioSentinel/internal/loader"
	"PortfolioSentinel/internal/notifier"
)

type addInvestorCmd struct {
	first, last, address, phone string
}

func (*addInvestorCmd) Name() string     { return "add-investor" }
func (*addInvestorCmd) Synopsis() string { return "register an investor" }
func (*addInvestorCmd) Usage() string {
	return `add-investor -first <name> -last <name> [-address <addr>] [-phone <phone>]

  Registers an investor and prints the new investor id.
`
}

func (c *addInvestorCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.first, "first", "", "First name")
	f.StringVar(&c.last, "last", "", "Last name")
	f.StringVar(&c.address, "address", "", "Postal address")
	f.StringVar(&c.phone, "phone", "", "Phone number")
}

func (c *addInvestorCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	inv, err := a.portfolio.AddInvestor(ctx, c.first, c.last, c.address, c.phone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	fmt.Printf("✅ investor %s added with id %s\n", inv.FullName(), inv.ID)
	return subcommands.ExitSuccess
}

type loadPurchasesCmd struct {
	investor string
	file     string
}

func (*loadPurchasesCmd) Name() string     { return "load-purchases" }
func (*loadPurchasesCmd) Synopsis() string { return "import an investor's purchases from CSV" }
func (*loadPurchasesCmd) Usage() string {
	return `load-purchases -investor <id> -file <purchases.csv>

  Imports rows with the columns SYMBOL, NO_SHARES, PURCHASE_PRICE,
  CURRENT_VALUE and PURCHASE_DATE in any order. Invalid rows are reported
  and skipped.
`
}

func (c *loadPurchasesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.investor, "investor", "", "Investor id (required)")
	f.StringVar(&c.file, "file", "", "CSV purchase file (required)")
}

func (c *loadPurchasesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.investor == "" || c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -investor and -file are required")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	fh, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer fh.Close()

	purchases, rowErrs, err := loader.LoadPurchases(fh, c.investor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, re := range rowErrs {
		fmt.Fprintf(os.Stderr, "skipped %v\n", re)
	}
	if err := a.portfolio.AddPurchases(ctx, purchases); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("✅ %d purchases loaded, %d rows skipped\n", len(purchases), len(rowErrs))
	return subcommands.ExitSuccess
}

type valueCmd struct {
	investor string
	png      string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "show the value of an investor's purchases over time" }
func (*valueCmd) Usage() string {
	return `value -investor <id> [-png out.png]

  Prints the value of every purchase on each stored trading day since it was
  bought, and optionally plots the curves.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.investor, "investor", "", "Investor id (required)")
	f.StringVar(&c.png, "png", "", "Also write a chart of the value curves to this file")
}

func (c *valueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.investor == "" {
		fmt.Fprintln(os.Stderr, "Error: -investor is required")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	rep, err := a.portfolio.Report(ctx, c.investor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := notifier.WriteValueTable(os.Stdout, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.png != "" {
		img, err := chart.RenderValueCurves(rep.Investor.FullName(), rep.Curves())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := os.WriteFile(c.png, img, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("✅ chart written to %s\n", c.png)
	}
	return subcommands.ExitSuccess
}
