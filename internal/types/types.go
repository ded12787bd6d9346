// =============================================================================
// Transaction Aggregator - Shared Types
// =============================================================================
//
// This package contains the typed data model shared by every stage of the
// pipeline. Types defined here are used by:
//   - validation  (produces Transaction values from raw records)
//   - aggregator  (consumes Transaction values, builds the derived views)
//   - report      (serialises the derived views)
//
// Raw input records stay untyped (field-maps) only inside the reader. Once a
// record passes validation it becomes a Transaction and never changes again.
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELD NAMES
// =============================================================================

// Canonical field names of a transaction record. Input headers and JSON keys
// are normalised onto these before validation.
const (
	FieldTransactionID   = "transaction_id"
	FieldAccountNumber   = "account_number"
	FieldDate            = "date"
	FieldTransactionType = "transaction_type"
	FieldAmount          = "amount"
	FieldCurrency        = "currency"
	FieldDescription     = "description"
)

// RecordFields lists the canonical fields in report column order.
var RecordFields = []string{
	FieldTransactionID,
	FieldAccountNumber,
	FieldDate,
	FieldTransactionType,
	FieldAmount,
	FieldCurrency,
	FieldDescription,
}

// Record is a raw input row as produced by the reader. CSV values are always
// strings; JSON values keep their decoded type (json.Number for numbers).
type Record map[string]any

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionType is the closed set of recognised transaction kinds.
type TransactionType string

const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
	Transfer   TransactionType = "transfer"
)

// ParseTransactionType returns the TransactionType for s. Matching is exact.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case Deposit, Withdrawal, Transfer:
		return TransactionType(s), true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the recognised transaction types.
func (t TransactionType) Valid() bool {
	_, ok := ParseTransactionType(string(t))
	return ok
}

// Transaction is a validated input record.
type Transaction struct {
	// ID is the transaction identifier as given in the input.
	ID string

	// AccountNumber keys the account summary this transaction updates.
	AccountNumber string

	// Date is kept verbatim; no date arithmetic is performed.
	Date string

	// Type is the transaction kind.
	Type TransactionType

	// Amount is the non-negative transaction amount.
	Amount decimal.Decimal

	// Currency is the ISO-style currency code (e.g. CAD, XRP).
	Currency string

	// Description is free text.
	Description string
}

// Bounds on the magnitude and precision of an amount. Decimal arithmetic
// rescales operands to a common exponent, so an amount such as 1e20000000
// would make every later sum allocate millions of digits.
const (
	MaxAmountIntegerDigits = 20
	MaxAmountScale         = 18
)

// AmountInRange reports whether amount has at most MaxAmountIntegerDigits
// digits before the decimal point and at most MaxAmountScale after it.
func AmountInRange(amount decimal.Decimal) bool {
	exp := int64(amount.Exponent())
	if exp < -MaxAmountScale {
		return false
	}
	return int64(amount.NumDigits())+exp <= MaxAmountIntegerDigits
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// AccountSummary holds the running totals for one account number.
type AccountSummary struct {
	AccountNumber    string
	Balance          decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
}

// TypeStatistics holds the count and total amount for one transaction type.
type TypeStatistics struct {
	Type             TransactionType
	TotalAmount      decimal.Decimal
	TransactionCount int
}

// Average returns TotalAmount / TransactionCount, or zero when the count is zero.
func (s TypeStatistics) Average() decimal.Decimal {
	if s.TransactionCount == 0 {
		return decimal.Zero
	}
	return s.TotalAmount.Div(decimal.NewFromInt(int64(s.TransactionCount)))
}

// Aggregates is a snapshot of the three derived views. Accounts and
// statistics are listed in first-seen order; suspicious transactions in input
// encounter order.
type Aggregates struct {
	AccountSummaries       []AccountSummary
	SuspiciousTransactions []Transaction
	TransactionStatistics  []TypeStatistics
}
