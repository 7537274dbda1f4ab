package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"abprep/internal/config"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "abprep/internal/storage/all"
)

var (
	cfgPath           string
	metricsBackendFlg string
	pushGatewayURLFlg string
	verbose           bool
)

var rootCmd = &cobra.Command{
	Use:   "abprep",
	Short: "Prepare listings data for a simulated A/B pricing test",
	Long: `abprep ingests a raw listings CSV, cleans and enriches it, assigns each
listing to an experiment arm, simulates the treatment and writes the result
to a CSV file and a relational table along with a summary report.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long:  "Ingest, clean, derive features, simulate the experiment, report and persist.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		if err := checkPipeline(cmd.ErrOrStderr(), p); err != nil {
			return err
		}

		flush := setupMetrics(p)
		defer flush()

		start := time.Now()
		if _, err := runPipeline(cmd.Context(), p, cmd.OutOrStdout()); err != nil {
			return err
		}
		if verbose {
			log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		if err := checkPipeline(cmd.ErrOrStderr(), p); err != nil {
			return err
		}
		log.Printf("Configuration is valid: %v", displayPath(cfgPath))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "pipeline config path (.json or .toml); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend (none, prometheus, datadog); overrides config")
	rootCmd.PersistentFlags().StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL; overrides config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logs")

	rootCmd.AddCommand(runCmd, validateCmd, reportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadPipeline resolves the configuration: defaults, file, env, flags.
func loadPipeline() (config.Pipeline, error) {
	p, err := config.Load(cfgPath)
	if err != nil {
		return config.Pipeline{}, err
	}
	if metricsBackendFlg != "" {
		p.Metrics.Backend = metricsBackendFlg
	}
	if pushGatewayURLFlg != "" {
		p.Metrics.PushgatewayURL = pushGatewayURLFlg
	}
	return p, nil
}

// checkPipeline prints every issue to w and fails when any is an error.
func checkPipeline(w io.Writer, p config.Pipeline) error {
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid: %v", displayPath(cfgPath))
	}
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
