// =============================================================================
// Transaction Aggregator - Aggregation Engine
// =============================================================================
//
// The engine consumes validated transactions and incrementally builds three
// derived views:
//   1. Account summaries     (balance, total deposits, total withdrawals)
//   2. Suspicious list       (amount > threshold or uncommon currency)
//   3. Type statistics       (count and total amount per transaction type)
//
// RULES:
//   - Accounts and type buckets are created lazily, zero-initialised, and
//     never removed.
//   - Deposits add to balance and total_deposits. Withdrawals subtract from
//     balance and add to total_withdrawals. There is no overdraft check.
//   - Transfers only count towards statistics. The record has a single
//     account_number, so there is no counter-party to credit.
//   - Every accepted record counts towards its type's statistics, flagged
//     or not.
//
// STATE:
//   The engine owns its state for one run and is not safe for concurrent use.
//   Parallel runs should use one engine per shard and combine them with Merge.
//
// =============================================================================

package aggregator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrMalformedRecord is returned when a transaction that should have been
// rejected by validation reaches the engine.
var ErrMalformedRecord = errors.New("malformed record")

// RecordError identifies the malformed transaction. It unwraps to
// ErrMalformedRecord.
type RecordError struct {
	// Index is the 0-based position in the batch passed to Process.
	Index int

	// TransactionID is the offending transaction's id.
	TransactionID string

	// Reason describes what is wrong with the transaction.
	Reason string
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return fmt.Sprintf("%s at index %d (transaction %q): %s", ErrMalformedRecord, e.Index, e.TransactionID, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedRecord.
func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine accumulates the derived views for one processing run.
type Engine struct {
	accounts     map[string]*types.AccountSummary
	accountOrder []string

	suspicious []types.Transaction

	statistics     map[types.TransactionType]*types.TypeStatistics
	statisticOrder []types.TransactionType

	detector Detector
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-transaction debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New returns an engine with empty state.
func New(opts ...Option) *Engine {
	e := &Engine{
		detector: DefaultDetector(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Reset discards all accumulated state.
func (e *Engine) Reset() {
	e.accounts = make(map[string]*types.AccountSummary)
	e.accountOrder = nil
	e.suspicious = nil
	e.statistics = make(map[types.TransactionType]*types.TypeStatistics)
	e.statisticOrder = nil
}

// =============================================================================
// PROCESSING
// =============================================================================

// Process folds the batch into the engine state, in order, and returns a
// snapshot of the three views.
//
// The whole batch is checked before anything is applied: if any transaction
// is malformed, Process returns a *RecordError and the state is unchanged.
func (e *Engine) Process(transactions []types.Transaction) (*types.Aggregates, error) {
	for i, t := range transactions {
		if reason := checkWellFormed(t); reason != "" {
			return nil, &RecordError{Index: i, TransactionID: t.ID, Reason: reason}
		}
	}

	for _, t := range transactions {
		e.apply(t)
	}

	return e.Snapshot(), nil
}

// ProcessTransaction folds a single transaction into the engine state.
func (e *Engine) ProcessTransaction(t types.Transaction) error {
	if reason := checkWellFormed(t); reason != "" {
		return &RecordError{Index: 0, TransactionID: t.ID, Reason: reason}
	}
	e.apply(t)
	return nil
}

// checkWellFormed returns an empty string for a transaction the engine can
// aggregate, otherwise the reason it cannot.
func checkWellFormed(t types.Transaction) string {
	switch {
	case strings.TrimSpace(t.AccountNumber) == "":
		return "account number is missing"
	case !t.Type.Valid():
		return fmt.Sprintf("unknown transaction type %q", t.Type)
	case t.Amount.IsNegative():
		return fmt.Sprintf("negative amount %s", t.Amount)
	case !types.AmountInRange(t.Amount):
		return "amount out of range"
	default:
		return ""
	}
}

// apply performs the three independent updates for one transaction.
func (e *Engine) apply(t types.Transaction) {
	e.updateAccount(t)
	e.checkSuspicious(t)
	e.updateStatistics(t)
}

func (e *Engine) updateAccount(t types.Transaction) {
	summary := e.account(t.AccountNumber)

	switch t.Type {
	case types.Deposit:
		summary.Balance = summary.Balance.Add(t.Amount)
		summary.TotalDeposits = summary.TotalDeposits.Add(t.Amount)
	case types.Withdrawal:
		summary.Balance = summary.Balance.Sub(t.Amount)
		summary.TotalWithdrawals = summary.TotalWithdrawals.Add(t.Amount)
	}
}

// account returns the summary for number, creating it on first use.
func (e *Engine) account(number string) *types.AccountSummary {
	summary, ok := e.accounts[number]
	if !ok {
		summary = &types.AccountSummary{
			AccountNumber:    number,
			Balance:          decimal.Zero,
			TotalDeposits:    decimal.Zero,
			TotalWithdrawals: decimal.Zero,
		}
		e.accounts[number] = summary
		e.accountOrder = append(e.accountOrder, number)
	}
	return summary
}

func (e *Engine) checkSuspicious(t types.Transaction) {
	reasons := e.detector.Reasons(t)
	if len(reasons) == 0 {
		return
	}

	e.suspicious = append(e.suspicious, t)

	reasonNames := make([]string, len(reasons))
	for i, r := range reasons {
		reasonNames[i] = string(r)
	}
	e.logger.Debug().
		Str("transaction_id", t.ID).
		Str("account_number", t.AccountNumber).
		Str("amount", t.Amount.String()).
		Str("currency", t.Currency).
		Strs("reasons", reasonNames).
		Msg("flagged suspicious transaction")
}

func (e *Engine) updateStatistics(t types.Transaction) {
	bucket := e.statistic(t.Type)
	bucket.TotalAmount = bucket.TotalAmount.Add(t.Amount)
	bucket.TransactionCount++
}

// statistic returns the bucket for transactionType, creating it on first use.
func (e *Engine) statistic(transactionType types.TransactionType) *types.TypeStatistics {
	bucket, ok := e.statistics[transactionType]
	if !ok {
		bucket = &types.TypeStatistics{
			Type:        transactionType,
			TotalAmount: decimal.Zero,
		}
		e.statistics[transactionType] = bucket
		e.statisticOrder = append(e.statisticOrder, transactionType)
	}
	return bucket
}

// =============================================================================
// QUERIES
// =============================================================================

// AverageAmount returns the mean amount for transactionType. It returns zero
// for a type that has not been seen.
func (e *Engine) AverageAmount(transactionType types.TransactionType) decimal.Decimal {
	bucket, ok := e.statistics[transactionType]
	if !ok {
		return decimal.Zero
	}
	return bucket.Average()
}

// Account returns a copy of the summary for number.
func (e *Engine) Account(number string) (types.AccountSummary, bool) {
	summary, ok := e.accounts[number]
	if !ok {
		return types.AccountSummary{}, false
	}
	return *summary, true
}

// Statistic returns a copy of the statistics bucket for transactionType.
func (e *Engine) Statistic(transactionType types.TransactionType) (types.TypeStatistics, bool) {
	bucket, ok := e.statistics[transactionType]
	if !ok {
		return types.TypeStatistics{}, false
	}
	return *bucket, true
}

// Snapshot copies the current state. Later processing does not change a
// snapshot already returned.
func (e *Engine) Snapshot() *types.Aggregates {
	aggregates := &types.Aggregates{
		AccountSummaries:       make([]types.AccountSummary, 0, len(e.accountOrder)),
		SuspiciousTransactions: make([]types.Transaction, len(e.suspicious)),
		TransactionStatistics:  make([]types.TypeStatistics, 0, len(e.statisticOrder)),
	}

	for _, number := range e.accountOrder {
		aggregates.AccountSummaries = append(aggregates.AccountSummaries, *e.accounts[number])
	}
	copy(aggregates.SuspiciousTransactions, e.suspicious)
	for _, transactionType := range e.statisticOrder {
		aggregates.TransactionStatistics = append(aggregates.TransactionStatistics, *e.statistics[transactionType])
	}

	return aggregates
}

// =============================================================================
// MERGING
// =============================================================================

// Merge adds other's partial aggregates into e. Accounts and types first
// seen in other are appended in other's order, and other's suspicious list
// is appended after e's. other is not modified.
func (e *Engine) Merge(other *Engine) {
	for _, number := range other.accountOrder {
		src := other.accounts[number]
		dst := e.account(number)
		dst.Balance = dst.Balance.Add(src.Balance)
		dst.TotalDeposits = dst.TotalDeposits.Add(src.TotalDeposits)
		dst.TotalWithdrawals = dst.TotalWithdrawals.Add(src.TotalWithdrawals)
	}

	e.suspicious = append(e.suspicious, other.suspicious...)

	for _, transactionType := range other.statisticOrder {
		src := other.statistics[transactionType]
		dst := e.statistic(transactionType)
		dst.TotalAmount = dst.TotalAmount.Add(src.TotalAmount)
		dst.TransactionCount += src.TransactionCount
	}
}
