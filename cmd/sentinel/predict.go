package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"PortfolioSentinel/internal/chart"
)

type predictCmd struct {
	symbol   string
	lookback int
	png      string
}

func (*predictCmd) Name() string     { return "predict" }
func (*predictCmd) Synopsis() string { return "estimate today's close from the recent trend" }
func (*predictCmd) Usage() string {
	return `predict -symbol <SYMBOL> [-lookback days] [-png out.png]

  Fits a linear trend over the stored closes of the last -lookback days and
  prints the same-day estimate with its held-out error.
`
}

func (c *predictCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "Symbol to predict (required)")
	f.IntVar(&c.lookback, "lookback", 0, "Lookback window in days, defaults to the configured window")
	f.StringVar(&c.png, "png", "", "Also write a chart of the fit to this file")
}

func (c *predictCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" {
		fmt.Fprintln(os.Stderr, "Error: -symbol is required")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	lookback := c.lookback
	if lookback == 0 {
		lookback = a.cfg.Prediction.LookbackDays
	}
	pred, err := a.predictor.Fit(c.symbol, a.store.Snapshot(c.symbol).Points(), lookback)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%s estimated close for %s: %.2f\n", pred.Symbol, pred.AsOf, pred.EstimatedClose)
	fmt.Printf("  intercept %.4f  slope %+.4f/day\n", pred.Intercept, pred.Coefficients[0])
	fmt.Printf("  held-out MSE %.4f  R² %.4f  (%d train / %d test)\n",
		pred.MeanSquaredError, pred.RSquared, pred.TrainSamples, pred.TestSamples)
	if pred.ExcludedFuture > 0 {
		fmt.Printf("  %d future-dated points ignored\n", pred.ExcludedFuture)
	}

	if c.png != "" {
		img, err := chart.RenderPrediction(pred)
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
