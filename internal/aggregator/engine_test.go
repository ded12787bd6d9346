package aggregator

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

func txn(id, account string, transactionType types.TransactionType, amount, currency string) types.Transaction {
	return types.Transaction{
		ID:            id,
		AccountNumber: account,
		Date:          "2023-01-01",
		Type:          transactionType,
		Amount:        decimal.RequireFromString(amount),
		Currency:      currency,
		Description:   "test",
	}
}

func scenario() []types.Transaction {
	return []types.Transaction{
		txn("1", "1001", types.Deposit, "1000", "CAD"),
		txn("2", "1002", types.Deposit, "1500", "CAD"),
		txn("3", "1002", types.Withdrawal, "500", "CAD"),
		txn("4", "1003", types.Deposit, "50000", "CAD"),
		txn("5", "1004", types.Deposit, "1000", "XRP"),
	}
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestProcess_EndToEndScenario(t *testing.T) {
	engine := New()

	aggregates, err := engine.Process(scenario())
	require.NoError(t, err)

	require.Len(t, aggregates.AccountSummaries, 4)
	assert.Equal(t, "1001", aggregates.AccountSummaries[0].AccountNumber)
	requireDecimal(t, "1000", aggregates.AccountSummaries[0].Balance)

	acct, ok := engine.Account("1002")
	require.True(t, ok)
	requireDecimal(t, "1000", acct.Balance)
	requireDecimal(t, "1500", acct.TotalDeposits)
	requireDecimal(t, "500", acct.TotalWithdrawals)

	require.Len(t, aggregates.SuspiciousTransactions, 2)
	assert.Equal(t, "4", aggregates.SuspiciousTransactions[0].ID)
	assert.Equal(t, "5", aggregates.SuspiciousTransactions[1].ID)

	deposits, ok := engine.Statistic(types.Deposit)
	require.True(t, ok)
	requireDecimal(t, "53500", deposits.TotalAmount)
	assert.Equal(t, 4, deposits.TransactionCount)
	requireDecimal(t, "13375", engine.AverageAmount(types.Deposit))

	withdrawals, ok := engine.Statistic(types.Withdrawal)
	require.True(t, ok)
	requireDecimal(t, "500", withdrawals.TotalAmount)
	assert.Equal(t, 1, withdrawals.TransactionCount)
	requireDecimal(t, "500", engine.AverageAmount(types.Withdrawal))

	require.Len(t, aggregates.TransactionStatistics, 2)
	assert.Equal(t, types.Deposit, aggregates.TransactionStatistics[0].Type)
	assert.Equal(t, types.Withdrawal, aggregates.TransactionStatistics[1].Type)
}

func TestProcess_LargeTransactionThresholdIsExclusive(t *testing.T) {
	tests := []struct {
		amount     string
		suspicious bool
	}{
		{"9999.99", false},
		{"10000", false},
		{"10000.00", false},
		{"10000.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			aggregates, err := New().Process([]types.Transaction{txn("1", "1", types.Deposit, tt.amount, "CAD")})
			require.NoError(t, err)
			assert.Equal(t, tt.suspicious, len(aggregates.SuspiciousTransactions) == 1)
		})
	}
}

func TestProcess_UncommonCurrency(t *testing.T) {
	tests := []struct {
		currency   string
		suspicious bool
	}{
		{"XRP", true},
		{"LTC", true},
		{"CAD", false},
		{"xrp", false},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			aggregates, err := New().Process([]types.Transaction{txn("1", "1", types.Deposit, "1", tt.currency)})
			require.NoError(t, err)
			assert.Equal(t, tt.suspicious, len(aggregates.SuspiciousTransactions) == 1)
		})
	}
}

func TestProcess_BothRulesFlagOnce(t *testing.T) {
	aggregates, err := New().Process([]types.Transaction{txn("1", "1", types.Deposit, "20000", "LTC")})
	require.NoError(t, err)
	assert.Len(t, aggregates.SuspiciousTransactions, 1)
	assert.Equal(t, []Reason{ReasonLargeAmount, ReasonUncommonCurrency},
		DefaultDetector().Reasons(aggregates.SuspiciousTransactions[0]))
}

func TestProcess_TransferOnlyAffectsStatistics(t *testing.T) {
	engine := New()
	_, err := engine.Process([]types.Transaction{txn("1", "2001", types.Transfer, "300", "CAD")})
	require.NoError(t, err)

	acct, ok := engine.Account("2001")
	require.True(t, ok)
	assert.True(t, acct.Balance.IsZero())
	assert.True(t, acct.TotalDeposits.IsZero())
	assert.True(t, acct.TotalWithdrawals.IsZero())

	stats, ok := engine.Statistic(types.Transfer)
	require.True(t, ok)
	assert.Equal(t, 1, stats.TransactionCount)
	requireDecimal(t, "300", stats.TotalAmount)
}

func TestProcess_NegativeBalanceAllowed(t *testing.T) {
	engine := New()
	_, err := engine.Process([]types.Transaction{txn("1", "1", types.Withdrawal, "75.50", "CAD")})
	require.NoError(t, err)

	acct, _ := engine.Account("1")
	requireDecimal(t, "-75.50", acct.Balance)
}

func TestProcess_BalanceIdentity(t *testing.T) {
	engine := New()
	_, err := engine.Process(append(scenario(),
		txn("6", "1001", types.Withdrawal, "0.10", "CAD"),
		txn("7", "1001", types.Deposit, "0.20", "CAD"),
		txn("8", "1003", types.Transfer, "12", "CAD"),
	))
	require.NoError(t, err)

	for _, acct := range engine.Snapshot().AccountSummaries {
		assert.True(t, acct.TotalDeposits.Sub(acct.TotalWithdrawals).Equal(acct.Balance), acct.AccountNumber)
	}
	acct, _ := engine.Account("1001")
	requireDecimal(t, "1000.10", acct.Balance)
}

func TestProcess_Deterministic(t *testing.T) {
	engine := New()
	first, err := engine.Process(scenario())
	require.NoError(t, err)

	engine.Reset()
	second, err := engine.Process(scenario())
	require.NoError(t, err)

	third, err := New().Process(scenario())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestProcess_EmptyInput(t *testing.T) {
	aggregates, err := New().Process(nil)
	require.NoError(t, err)
	assert.NotNil(t, aggregates.AccountSummaries)
	assert.Empty(t, aggregates.AccountSummaries)
	assert.Empty(t, aggregates.SuspiciousTransactions)
	assert.Empty(t, aggregates.TransactionStatistics)
}

func TestProcess_MalformedRecordLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		bad  types.Transaction
	}{
		{"missing account", txn("x", " ", types.Deposit, "1", "CAD")},
		{"unknown type", txn("x", "1", types.TransactionType("refund"), "1", "CAD")},
		{"negative amount", txn("x", "1", types.Deposit, "-5", "CAD")},
		{"huge exponent", txn("x", "1", types.Deposit, "1e20000000", "CAD")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New()
			_, err := engine.Process([]types.Transaction{txn("ok", "1", types.Deposit, "10", "CAD"), tt.bad})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))

			var recordErr *RecordError
			require.ErrorAs(t, err, &recordErr)
			assert.Equal(t, 1, recordErr.Index)
			assert.Equal(t, "x", recordErr.TransactionID)

			_, seen := engine.Account("1")
			assert.False(t, seen)
		})
	}
}

func TestProcessTransaction(t *testing.T) {
	engine := New()
	require.NoError(t, engine.ProcessTransaction(txn("1", "1", types.Deposit, "5", "CAD")))
	err := engine.ProcessTransaction(txn("2", "", types.Deposit, "5", "CAD"))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	stats, _ := engine.Statistic(types.Deposit)
	assert.Equal(t, 1, stats.TransactionCount)
}

func TestAverageAmount_UnknownType(t *testing.T) {
	engine := New()
	assert.True(t, engine.AverageAmount(types.Transfer).IsZero())
	assert.True(t, types.TypeStatistics{}.Average().IsZero())
}

func TestSnapshot_IsIsolated(t *testing.T) {
	engine := New()
	snapshot, err := engine.Process(scenario()[:1])
	require.NoError(t, err)

	_, err = engine.Process(scenario()[1:])
	require.NoError(t, err)

	assert.Len(t, snapshot.AccountSummaries, 1)
	requireDecimal(t, "1000", snapshot.AccountSummaries[0].Balance)
	assert.Empty(t, snapshot.SuspiciousTransactions)
}

func TestMerge_MatchesSingleEngine(t *testing.T) {
	records := scenario()

	whole := New()
	_, err := whole.Process(records)
	require.NoError(t, err)

	left, right := New(), New()
	_, err = left.Process(records[:2])
	require.NoError(t, err)
	_, err = right.Process(records[2:])
	require.NoError(t, err)

	left.Merge(right)
	assert.Equal(t, render(whole.Snapshot()), render(left.Snapshot()))
}

// render flattens aggregates to text so decimals compare by value.
func render(a *types.Aggregates) []string {
	var lines []string
	for _, s := range a.AccountSummaries {
		lines = append(lines, fmt.Sprintf("account %s %s %s %s", s.AccountNumber, s.Balance.StringFixed(2), s.TotalDeposits.StringFixed(2), s.TotalWithdrawals.StringFixed(2)))
	}
	for _, tx := range a.SuspiciousTransactions {
		lines = append(lines, "suspicious "+tx.ID)
	}
	for _, s := range a.TransactionStatistics {
		lines = append(lines, fmt.Sprintf("type %s %s %d", s.Type, s.TotalAmount.StringFixed(2), s.TransactionCount))
	}
	return lines
}

func TestEngine_LogsFlaggedTransactions(t *testing.T) {
	buf := &bytes.Buffer{}
	engine := New(WithLogger(zerolog.New(buf).Level(zerolog.DebugLevel)))

	_, err := engine.Process(scenario())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "flagged suspicious transaction")
	assert.Contains(t, buf.String(), "uncommon_currency")
	assert.Contains(t, buf.String(), "large_amount")
}
