package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "objrank",
		Short: "Evaluate object ranking and label ranking predictions",
		Long: `objrank scores predicted rankings and label sets against ground truth
with rank correlation, rank loss, gain and multi-label metrics.

Run 'objrank evaluate --file batch.json' to evaluate a batch.
Run 'objrank serve' to start the evaluation server.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "log level override (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		evaluateCmd(),
		serveCmd(),
		metricsCmd(),
		versionCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
