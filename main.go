// =============================================================================
// Transaction Aggregator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Transaction Aggregator CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   aggregator process       - Aggregate input files and write reports
//   aggregator validate      - List the records validation would reject
//   aggregator config init   - Write a configuration file with the defaults
//   aggregator config show   - Print the effective configuration
//   aggregator version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Reader, validation, aggregation engine, reports,
//                      pipeline orchestration, config, logging, catalog
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/transaction-aggregator/cmd"
)

func main() {
	cmd.Execute()
}
