// =============================================================================
// Transaction Aggregator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (aggregator)
//   ├── processCmd  (aggregator process)
//   ├── validateCmd (aggregator validate)
//   ├── configCmd   (aggregator config init|show)
//   └── versionCmd  (aggregator version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the configuration (defaults, config file, AGGREGATOR_* env vars)
//   2. Builds the logger and stores it in the command context
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/transaction-aggregator/internal/config"
	"github.com/ginjaninja78/transaction-aggregator/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging when set to true.
var verbose bool

// appConfig is the configuration loaded for the running command.
var appConfig *config.Config

// skipConfigAnnotation marks commands that must run without loading the
// configuration, such as writing a fresh one.
const skipConfigAnnotation = "skip-config"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aggregator",
	Short: "Transaction Aggregator - Summarise transaction files into account, risk and type reports",
	Long: `Transaction Aggregator reads CSV and JSON transaction files, drops malformed
records, and produces three reports per file:

  - Account summaries       (balance, total deposits, total withdrawals)
  - Suspicious transactions (amount over 10000, or XRP/LTC currency)
  - Transaction statistics  (count and total amount per transaction type)

Reports are written as CSV files, an XLSX workbook, or both.

Example Usage:
  aggregator process                         # Process every file in the input directory
  aggregator process -i march.csv --dry-run  # Aggregate one file without writing reports
  aggregator validate march.csv              # Show which records would be rejected
  aggregator config init                     # Write a config.yaml with the defaults`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}
		return initialize(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// initialize loads the configuration and stores the logger in the command
// context.
func initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	log, err := logger.New(level, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	appConfig = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx, log))

	log.Debug().Str("config", cfgFile).Msg("configuration loaded")
	return nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// An interrupt cancels the command context; a run stops before its next file.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: Allows the user to specify a custom configuration file.
	// A missing file is not an error; the defaults apply.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	// --verbose flag: Forces debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
