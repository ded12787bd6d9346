// =============================================================================
// Transaction Aggregator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which reads input files and
// reports the records validation would drop, without aggregating anything.
//
// COMMAND USAGE:
//   aggregator validate [files...] [--strict]
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transaction-aggregator/internal/logger"
	"github.com/ginjaninja78/transaction-aggregator/internal/reader"
	"github.com/ginjaninja78/transaction-aggregator/internal/validation"
	"github.com/ginjaninja78/transaction-aggregator/pkg/utils"
)

// strict makes rejected records fail the command.
var strict bool

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check input files and list the records that would be rejected",
	Long: `The validate command reads each file and applies the record checks used by
'process'. It prints the accepted and rejected counts for every file and one
line per rejected record. No reports are written.

Without arguments, every .csv and .json file in input_dir is checked.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any record is rejected")
}

func runValidate(cmd *cobra.Command, paths []string) error {
	log := logger.FromContext(cmd.Context())

	if len(paths) == 0 {
		discovered, err := utils.NewFileManager(appConfig.InputDir, "", "").DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
		paths = discovered
	}

	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No input files found.")
		return nil
	}

	out := cmd.OutOrStdout()
	var readFailures, rejected int

	for _, path := range paths {
		records, err := reader.Read(path)
		if err != nil {
			readFailures++
			log.Error().Err(err).Str("file", path).Msg("failed to read input")
			fmt.Fprintf(out, "✗ %s: %v\n", filepath.Base(path), err)
			continue
		}

		result := validation.ValidateDetailed(records)
		rejected += len(result.Rejections)

		fmt.Fprintf(out, "%s: %d record(s), %d accepted, %d rejected\n",
			filepath.Base(path), len(records), len(result.Accepted), len(result.Rejections))
		for _, rej := range result.Rejections {
			fmt.Fprintf(out, "  - %s\n", rej)
		}
	}

	if readFailures > 0 {
		return fmt.Errorf("%d file(s) could not be read", readFailures)
	}
	if strict && rejected > 0 {
		return fmt.Errorf("%d record(s) rejected", rejected)
	}
	return nil
}
