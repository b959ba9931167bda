package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/loader"
	"PortfolioSentinel/internal/notifier"
	"PortfolioSentinel/internal/store"
)

type fetchCmd struct {
	rng      string
	interval string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download daily prices from the market-data provider" }
func (*fetchCmd) Usage() string {
	return `fetch [-range 1mo] [-interval 1d] [SYMBOL...]

  Downloads and stores the bars of each SYMBOL, or of the configured symbols
  when none is given. Already stored dates are skipped.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rng, "range", "", "Chart range (1mo, 1y, max, ...), defaults to the configured range")
	f.StringVar(&c.interval, "interval", "", "Bar interval, defaults to the configured interval")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	symbols := f.Args()
	if len(symbols) == 0 {
		symbols = a.cfg.DataSource.Symbols
	}
	if c.rng != "" {
		a.collector.Range = c.rng
	}
	if c.interval != "" {
		a.collector.Interval = c.interval
	}

	results, err := a.collector.CollectAll(ctx, symbols)
	printResults(results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printResults(results []store.IngestResult) {
	for _, r := range results {
		if r.Symbol == "" {
			continue
		}
		fmt.Printf("%-8s inserted %4d  duplicates %4d  rejected %4d\n", r.Symbol, r.Inserted, r.Duplicates, r.Rejected)
		for _, err := range r.Errors {
			fmt.Printf("         %v\n", err)
		}
	}
}

type loadPricesCmd struct {
	file string
}

func (*loadPricesCmd) Name() string     { return "load-prices" }
func (*loadPricesCmd) Synopsis() string { return "import daily prices from a JSON file" }
func (*loadPricesCmd) Usage() string {
	return `load-prices -file <prices.json>

  Imports a JSON array of {Symbol, Date, Open, High, Low, Close, Volume}
  records. Loading the same file twice adds nothing.
`
}

func (c *loadPricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "JSON price file (required)")
}

func (c *loadPricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	results, err := importPrices(ctx, a, c.file)
	printResults(results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func importPrices(ctx context.Context, a *app, path string) ([]store.IngestResult, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	bySymbol, err := loader.LoadPrices(fh)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(bySymbol))
	for sym := range bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var results []store.IngestResult
	for _, sym := range symbols {
		res, err := a.store.Ingest(ctx, sym, bySymbol[sym])
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("%s: %w", sym, err)
		}
	}
	return results, nil
}

type pricesCmd struct {
	symbol string
	since  string
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "list stored daily prices" }
func (*pricesCmd) Usage() string {
	return `prices -symbol <SYMBOL> [-since YYYY-MM-DD]

  Prints the stored bars of SYMBOL in date order.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "Symbol to list (required)")
	f.StringVar(&c.since, "since", "", "Only list bars on or after this date")
}

func (c *pricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if strings.TrimSpace(c.symbol) == "" {
		fmt.Fprintln(os.Stderr, "Error: -symbol is required")
		return subcommands.ExitUsageError
	}
	var since *date.Date
	if c.since != "" {
		d, err := date.Parse(c.since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -since: %v\n", err)
			return subcommands.ExitUsageError
		}
		since = &d
	}

	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := notifier.WritePriceTable(os.Stdout, a.store.Query(c.symbol, since)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
