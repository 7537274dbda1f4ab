package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"abprep/internal/config"
	"abprep/internal/datasource"
	"abprep/internal/probe"
)

var (
	probeInput string
	probeBytes int
	probeJSON  bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Sample a raw CSV and check its columns against the listing schema",
	Long: `probe reads the first bytes of the raw input, sniffs the delimiter,
infers a type per column and shows which canonical field each header maps
to. Headers that only match after normalization are marked for header_map.
With --json it prints a starter configuration carrying those settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadPipeline()
		if err != nil {
			return err
		}
		switch {
		case strings.HasPrefix(probeInput, "http://"), strings.HasPrefix(probeInput, "https://"):
			p.Source.Kind = "http"
			p.Source.HTTP.URL = probeInput
		case probeInput != "":
			p.Source.Kind = "file"
			p.Source.File.Path = probeInput
		}
		return runProbe(cmd.Context(), p, cmd.OutOrStdout())
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeInput, "input", "", "raw CSV path or http(s) URL to sample (default: source from config)")
	probeCmd.Flags().IntVar(&probeBytes, "bytes", probe.DefaultMaxBytes, "number of bytes to sample from the start of the file")
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "print a starter pipeline config as JSON")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(ctx context.Context, p config.Pipeline, out io.Writer) error {
	src, err := datasource.New(p.Source)
	if err != nil {
		return err
	}
	res, err := probe.Probe(ctx, src, probe.Options{MaxBytes: probeBytes})
	if err != nil {
		return err
	}
	if probeJSON {
		return probe.WriteJSON(out, res, p)
	}
	if err := probe.WriteTable(out, res); err != nil {
		return err
	}
	if len(res.Missing) > 0 {
		return fmt.Errorf("probe: %s lacks mandatory columns", datasource.Describe(p.Source))
	}
	return nil
}
