package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

// Sheet names used by WriteWorkbook, one per report kind.
var SheetNames = map[Kind]string{
	AccountSummaries:       "Account Summaries",
	SuspiciousTransactions: "Suspicious Transactions",
	TransactionStatistics:  "Transaction Statistics",
}

// defaultSheet is the sheet excelize creates with a new file.
const defaultSheet = "Sheet1"

// WriteWorkbook writes the requested reports to a single XLSX workbook, one
// sheet per report, with the same header and rows as the CSV output. When
// kinds is empty all three reports are written.
func WriteWorkbook(path string, aggregates *types.Aggregates, kinds ...Kind) (err error) {
	if len(kinds) == 0 {
		kinds = Kinds
	}

	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWriteFailure, closeErr)
		}
	}()

	for i, kind := range kinds {
		table, err := BuildTable(kind, aggregates)
		if err != nil {
			return err
		}

		sheet := SheetNames[kind]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("%w: rename sheet: %w", ErrWriteFailure, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("%w: create sheet %q: %w", ErrWriteFailure, sheet, err)
		}

		if err := writeSheet(f, sheet, table); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	return nil
}

// writeSheet writes the header on row 1 and the data rows below it.
func writeSheet(f *excelize.File, sheet string, table Table) error {
	rows := append([][]string{table.Header}, table.Rows...)

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWriteFailure, err)
		}

		values := make([]interface{}, len(row))
		for c, v := range row {
			values[c] = v
		}

		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("%w: sheet %q row %d: %w", ErrWriteFailure, sheet, r+1, err)
		}
	}

	return nil
}
