package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/csrank/objrank/internal/config"
	"github.com/csrank/objrank/internal/dataset"
	"github.com/csrank/objrank/internal/evaluation"
	"github.com/csrank/objrank/internal/server"
	"github.com/csrank/objrank/internal/utils/logger"
	"github.com/csrank/objrank/pkg/metrics"
)

// setup loads the environment configuration and initialises logging.
func setup(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	logger.Init(level)

	return cfg, nil
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a batch file against a metric suite",
		Long: `Evaluate reads a JSON batch {"y_true": [[...]], "y_pred": [[...]]},
optionally compressed (.gz, .zst), and prints one line per metric.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}

			file, _ := cmd.Flags().GetString("file")
			suitePath, _ := cmd.Flags().GetString("suite")
			format, _ := cmd.Flags().GetString("format")
			plot, _ := cmd.Flags().GetString("plot")
			k, _ := cmd.Flags().GetInt("k")
			if suitePath == "" {
				suitePath = cfg.SuiteFile
			}
			if k <= 0 {
				k = cfg.DefaultK
			}

			batch, err := dataset.Load(file)
			if err != nil {
				return err
			}

			suite := evaluation.DefaultSuite()
			if suitePath != "" {
				if suite, err = evaluation.LoadSuite(suitePath); err != nil {
					return err
				}
			}

			evaluator := evaluation.NewEvaluator(
				evaluation.WithDefaultK(k),
				evaluation.WithConcurrency(cfg.Concurrency),
			)
			report, err := evaluator.Evaluate(cmd.Context(), batch, suite)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal report: %w", err)
				}
				fmt.Fprintln(out, string(data))
			default:
				fmt.Fprintf(out, "instances=%d objects=%d\n", report.Instances, report.Objects)
				for _, r := range report.Results {
					switch {
					case r.Err != "":
						fmt.Fprintf(out, "%-42s error: %s\n", r.Name, r.Err)
					case math.IsNaN(r.Value):
						fmt.Fprintf(out, "%-42s undefined\n", r.Name)
					default:
						fmt.Fprintf(out, "%-42s %.6f\n", r.Name, r.Value)
					}
				}
			}

			if plot != "" {
				perInstance, err := metrics.NewPerInstanceMetric(plot, k)
				if err != nil {
					return err
				}
				evaluation.PlotInstanceValues(out, perInstance(batch.YTrue, batch.YPred), plot)
			}

			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "batch file (.json, .json.gz, .json.zst)")
	cmd.Flags().StringP("suite", "s", "", "YAML metric suite (defaults to EVAL_SUITE_FILE or the rank suite)")
	cmd.Flags().Int("k", 0, "cutoff for ndcg_at_k and topk_categorical_accuracy")
	cmd.Flags().String("format", "text", "output format (text, json)")
	cmd.Flags().String("plot", "", "plot per-instance values of this metric")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}

			srv := server.NewServer(
				&server.ServerConfig{
					Host:      cfg.Host,
					Port:      cfg.Port,
					BodyLimit: cfg.BodySizeLimit,
				},
				evaluation.NewEvaluator(
					evaluation.WithDefaultK(cfg.DefaultK),
					evaluation.WithConcurrency(cfg.Concurrency),
				),
				nil,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down evaluation server")
				return srv.Shutdown()
			}
		},
	}

	return cmd
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the metric names accepted in suites",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range metrics.DefaultRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "objrank %s (%s)\n", version, commit)
		},
	}
}
