package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

func sampleAggregates() *types.Aggregates {
	return &types.Aggregates{
		AccountSummaries: []types.AccountSummary{
			{AccountNumber: "1002", Balance: decimal.NewFromInt(1000), TotalDeposits: decimal.NewFromInt(1500), TotalWithdrawals: decimal.NewFromInt(500)},
			{AccountNumber: "1001", Balance: decimal.RequireFromString("-0.5"), TotalDeposits: decimal.Zero, TotalWithdrawals: decimal.RequireFromString("0.5")},
		},
		SuspiciousTransactions: []types.Transaction{
			{ID: "4", AccountNumber: "1003", Date: "2023-01-04", Type: types.Deposit, Amount: decimal.RequireFromString("50000"), Currency: "CAD", Description: "Bonus, annual"},
		},
		TransactionStatistics: []types.TypeStatistics{
			{Type: types.Deposit, TotalAmount: decimal.NewFromInt(53500), TransactionCount: 4},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteAccountSummaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.csv")
	require.NoError(t, WriteAccountSummaries(path, sampleAggregates().AccountSummaries))

	assert.Equal(t, [][]string{
		{"account_number", "balance", "total_deposits", "total_withdrawals"},
		{"1002", "1000.00", "1500.00", "500.00"},
		{"1001", "-0.50", "0.00", "0.50"},
	}, readCSV(t, path))
}

func TestWriteSuspiciousTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suspicious.csv")
	require.NoError(t, WriteSuspiciousTransactions(path, sampleAggregates().SuspiciousTransactions))

	assert.Equal(t, [][]string{
		{"transaction_id", "account_number", "date", "transaction_type", "amount", "currency", "description"},
		{"4", "1003", "2023-01-04", "deposit", "50000", "CAD", "Bonus, annual"},
	}, readCSV(t, path))
}

func TestWriteTransactionStatistics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	require.NoError(t, WriteTransactionStatistics(path, sampleAggregates().TransactionStatistics))

	assert.Equal(t, [][]string{
		{"transaction_type", "total_amount", "transaction_count"},
		{"deposit", "53500.00", "4"},
	}, readCSV(t, path))
}

func TestWrite_EmptyViewWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteSuspiciousTransactions(path, nil))
	assert.Equal(t, [][]string{SuspiciousHeader}, readCSV(t, path))
}

func TestWrite_Failure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "accounts.csv")
	err := WriteAccountSummaries(path, nil)
	assert.ErrorIs(t, err, ErrWriteFailure)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestEncodeCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, EncodeCSV(buf, Table{Header: []string{"a"}, Rows: [][]string{{"1"}}}))
	assert.Equal(t, "a\n1\n", buf.String())

	err := EncodeCSV(failingWriter{}, Table{Header: []string{"a"}})
	assert.ErrorIs(t, err, ErrWriteFailure)
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestBuildTable_UnknownKind(t *testing.T) {
	_, err := BuildTable(Kind("balances"), sampleAggregates())
	assert.Error(t, err)
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, sampleAggregates()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Account Summaries", "Suspicious Transactions", "Transaction Statistics"}, f.GetSheetList())

	rows, err := f.GetRows("Account Summaries")
	require.NoError(t, err)
	assert.Equal(t, AccountSummaryHeader, rows[0])
	assert.Equal(t, []string{"1002", "1000.00", "1500.00", "500.00"}, rows[1])

	rows, err = f.GetRows("Transaction Statistics")
	require.NoError(t, err)
	assert.Equal(t, []string{"deposit", "53500.00", "4"}, rows[1])
}

func TestWriteWorkbook_SelectedKinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, sampleAggregates(), SuspiciousTransactions))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Suspicious Transactions"}, f.GetSheetList())
	rows, err := f.GetRows("Suspicious Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "50000", rows[1][4])
}

func TestWriteWorkbook_Failure(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "missing-dir", "report.xlsx"), sampleAggregates())
	assert.ErrorIs(t, err, ErrWriteFailure)
}
