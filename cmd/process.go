// =============================================================================
// Transaction Aggregator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the aggregation
// pipeline and writes the reports.
//
// COMMAND USAGE:
//   aggregator process [flags]
//
// FLAGS:
//   --input, -i   : Input file to process (repeatable). Defaults to every
//                   .csv and .json file in input_dir.
//   --output-dir  : Override output_dir
//   --format      : Override report_format (csv, xlsx, both)
//   --dry-run     : Aggregate and log without writing any file
//   --accounts    : Write the account summaries report
//   --suspicious  : Write the suspicious transactions report
//   --statistics  : Write the transaction statistics report
//
//   When none of --accounts, --suspicious or --statistics is given, the
//   reports selected in the configuration are written.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transaction-aggregator/internal/config"
	"github.com/ginjaninja78/transaction-aggregator/internal/pipeline"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputFiles     []string
	outputDir      string
	reportFormat   string
	dryRun         bool
	wantAccounts   bool
	wantSuspicious bool
	wantStatistics bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Aggregate transaction files and write reports",
	Long: `The process command reads each input file, drops records with a missing,
non-numeric or negative amount, an unknown transaction type or a blank account
number, and aggregates the rest.

Files are processed one at a time, each with its own totals. A failure in one
file is reported and processing continues with the next.

On completion:
  - Reports are placed in the output directory
  - A run summary (and a rejection log, if records were dropped) is written
    to the output directory
  - Inputs are moved to input_archive_dir when archive_inputs is enabled`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringArrayVarP(&inputFiles, "input", "i", nil, "Input file to process (repeatable)")
	processCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for reports and logs (overrides output_dir)")
	processCmd.Flags().StringVar(&reportFormat, "format", "", "Report format: csv, xlsx or both (overrides report_format)")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Aggregate without writing reports, logs or archives")
	processCmd.Flags().BoolVar(&wantAccounts, "accounts", false, "Write the account summaries report")
	processCmd.Flags().BoolVar(&wantSuspicious, "suspicious", false, "Write the suspicious transactions report")
	processCmd.Flags().BoolVar(&wantStatistics, "statistics", false, "Write the transaction statistics report")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	cfg, err := applyProcessFlags(appConfig)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg, pipeline.WithDryRun(dryRun))
	summary, err := runner.Run(cmd.Context(), inputFiles)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", summary.RunID)
	for _, result := range summary.Results {
		name := filepath.Base(result.FilePath)
		if !result.Success {
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			continue
		}
		fmt.Fprintf(out, "  ✓ %s: %d accepted, %d rejected, %d accounts, %d suspicious\n",
			name, result.Stats.Accepted, result.Stats.Rejected, result.Stats.Accounts, result.Stats.Suspicious)
		for _, output := range result.OutputFiles {
			fmt.Fprintf(out, "      -> %s\n", output)
		}
	}

	totals := summary.Totals
	fmt.Fprintf(out, "\nFiles: %d, successful: %d, failed: %d\n", totals.TotalFiles, totals.SuccessfulFiles, totals.FailedFiles)
	if summary.SummaryLog != "" {
		fmt.Fprintf(out, "Summary written to %s\n", summary.SummaryLog)
	}

	if summary.Failed() > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.Failed(), totals.TotalFiles)
	}
	return nil
}

// applyProcessFlags returns a copy of cfg with the command-line overrides
// applied.
func applyProcessFlags(base *config.Config) (*config.Config, error) {
	cfg := *base

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if reportFormat != "" {
		cfg.ReportFormat = reportFormat
	}
	if wantAccounts || wantSuspicious || wantStatistics {
		cfg.Reports = config.ReportSelection{
			AccountSummaries:       wantAccounts,
			SuspiciousTransactions: wantSuspicious,
			TransactionStatistics:  wantStatistics,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return &cfg, nil
}
