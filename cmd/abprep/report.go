package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"abprep/internal/analysis"
	"abprep/internal/export"
)

var (
	reportInput string
	reportXLSX  string
	reportTopN  int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a previously written output CSV",
	Long: `report re-reads a CSV produced by "abprep run" and prints the group
comparison, neighborhood ranking and price tier breakdown without re-running
the pipeline. Use --xlsx to also write the summary as a workbook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := reportInput
		if input == "" {
			p, err := loadPipeline()
			if err != nil {
				return err
			}
			input = p.Output.CSV
		}
		return reportFromFile(cmd.OutOrStdout(), input, reportXLSX, reportTopN)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportInput, "input", "", "cleaned CSV to summarize (default: output.csv from config)")
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "also write the summary workbook to this path")
	reportCmd.Flags().IntVar(&reportTopN, "top", analysis.DefaultTopN, "number of neighborhoods to show")
}

func reportFromFile(out io.Writer, input, xlsx string, topN int) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	ls, err := export.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("report: %s: %w", input, err)
	}
	s := analysis.Summarize(ls)
	if err := analysis.WriteTable(out, s, topN); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if xlsx != "" {
		if err := analysis.WriteWorkbook(xlsx, s); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		log.Printf("report: wrote %s", xlsx)
	}
	return nil
}
