// =============================================================================
// Transaction Aggregator - Report Writer
// =============================================================================
//
// This module serialises the three derived views as flat tables. It performs
// no aggregation; it only formats what the engine produced.
//
// REPORTS:
//   - Account summaries:      account_number, balance, total_deposits, total_withdrawals
//   - Suspicious transactions: the seven record fields, in input encounter order
//   - Transaction statistics:  transaction_type, total_amount, transaction_count
//
// OUTPUT FORMATS:
//   - CSV  : one file per report (this file)
//   - XLSX : one workbook with a sheet per report (workbook.go)
//
// ERROR HANDLING:
//   Any I/O failure (create, write, flush, close) is returned wrapped in
//   ErrWriteFailure. Files are always closed, even when writing fails part way.
//
// =============================================================================

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

// ErrWriteFailure wraps every I/O error raised while emitting a report.
var ErrWriteFailure = errors.New("report write failure")

// =============================================================================
// REPORT KINDS
// =============================================================================

// Kind identifies one of the three reports.
type Kind string

const (
	AccountSummaries       Kind = "account_summaries"
	SuspiciousTransactions Kind = "suspicious_transactions"
	TransactionStatistics  Kind = "transaction_statistics"
)

// Kinds lists the reports in their canonical order.
var Kinds = []Kind{AccountSummaries, SuspiciousTransactions, TransactionStatistics}

// Table headers.
var (
	AccountSummaryHeader = []string{"account_number", "balance", "total_deposits", "total_withdrawals"}
	SuspiciousHeader     = types.RecordFields
	StatisticsHeader     = []string{"transaction_type", "total_amount", "transaction_count"}
)

// Table is a header plus its data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// BuildTable renders the requested view of aggregates as a table.
func BuildTable(kind Kind, aggregates *types.Aggregates) (Table, error) {
	switch kind {
	case AccountSummaries:
		return Table{Header: AccountSummaryHeader, Rows: AccountSummaryRows(aggregates.AccountSummaries)}, nil
	case SuspiciousTransactions:
		return Table{Header: SuspiciousHeader, Rows: SuspiciousRows(aggregates.SuspiciousTransactions)}, nil
	case TransactionStatistics:
		return Table{Header: StatisticsHeader, Rows: StatisticsRows(aggregates.TransactionStatistics)}, nil
	default:
		return Table{}, fmt.Errorf("unknown report kind: %q", kind)
	}
}

// =============================================================================
// ROW BUILDERS
// =============================================================================

// FormatMoney renders an aggregated amount with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// AccountSummaryRows renders one row per account, in the given order.
func AccountSummaryRows(summaries []types.AccountSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.AccountNumber,
			FormatMoney(s.Balance),
			FormatMoney(s.TotalDeposits),
			FormatMoney(s.TotalWithdrawals),
		})
	}
	return rows
}

// SuspiciousRows renders one row per flagged transaction. The amount is
// echoed exactly as it was read.
func SuspiciousRows(transactions []types.Transaction) [][]string {
	rows := make([][]string, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, []string{
			t.ID,
			t.AccountNumber,
			t.Date,
			string(t.Type),
			t.Amount.String(),
			t.Currency,
			t.Description,
		})
	}
	return rows
}

// StatisticsRows renders one row per transaction type.
func StatisticsRows(statistics []types.TypeStatistics) [][]string {
	rows := make([][]string, 0, len(statistics))
	for _, s := range statistics {
		rows = append(rows, []string{
			string(s.Type),
			FormatMoney(s.TotalAmount),
			strconv.Itoa(s.TransactionCount),
		})
	}
	return rows
}

// =============================================================================
// CSV OUTPUT
// =============================================================================

// WriteAccountSummaries writes the account summary report to path.
func WriteAccountSummaries(path string, summaries []types.AccountSummary) error {
	return WriteCSVFile(path, Table{Header: AccountSummaryHeader, Rows: AccountSummaryRows(summaries)})
}

// WriteSuspiciousTransactions writes the suspicious transaction report to path.
func WriteSuspiciousTransactions(path string, transactions []types.Transaction) error {
	return WriteCSVFile(path, Table{Header: SuspiciousHeader, Rows: SuspiciousRows(transactions)})
}

// WriteTransactionStatistics writes the per-type statistics report to path.
func WriteTransactionStatistics(path string, statistics []types.TypeStatistics) error {
	return WriteCSVFile(path, Table{Header: StatisticsHeader, Rows: StatisticsRows(statistics)})
}

// WriteCSVFile creates (or truncates) path and writes table to it.
func WriteCSVFile(path string, table Table) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWriteFailure, closeErr)
		}
	}()

	return EncodeCSV(file, table)
}

// EncodeCSV writes table to w as CSV.
func EncodeCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.Header); err != nil {
		return fmt.Errorf("%w: header: %w", ErrWriteFailure, err)
	}

	// WriteAll flushes and reports any buffered error.
	if err := writer.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("%w: rows: %w", ErrWriteFailure, err)
	}

	return nil
}
