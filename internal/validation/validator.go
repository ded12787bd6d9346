// =============================================================================
// Transaction Aggregator - Validation
// =============================================================================
//
// This module turns raw input records into typed transactions and drops the
// ones that are not well-formed. A record is accepted only when:
//   - amount parses as a number, is not negative and is within the
//     supported magnitude and precision
//   - transaction_type is one of withdrawal, deposit, transfer
//   - account_number is present and not blank
//
// ERROR HANDLING:
//   - Rejections are values, not errors. A record with amount "abc" is
//     silently excluded from the result (ValidateDetailed reports why).
//   - Nothing here returns an error. Structural problems with the file itself
//     were already surfaced by the reader.
//
// =============================================================================

package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

// =============================================================================
// REJECTIONS
// =============================================================================

// Rule names the check a rejected record failed.
type Rule string

const (
	RuleAmountMissing          Rule = "amount_missing"
	RuleAmountNotNumeric       Rule = "amount_not_numeric"
	RuleAmountNegative         Rule = "amount_negative"
	RuleAmountOutOfRange       Rule = "amount_out_of_range"
	RuleTransactionTypeInvalid Rule = "transaction_type_invalid"
	RuleAccountNumberMissing   Rule = "account_number_missing"
)

// Rejection describes one record dropped by validation.
type Rejection struct {
	// Row is the 1-based position of the record in the input sequence.
	Row int

	// TransactionID is the record's transaction_id, if it had one.
	TransactionID string

	// Rule is the validation rule that was violated.
	Rule Rule

	// Field is the canonical name of the offending field.
	Field string

	// Value is the offending value, rendered as text.
	Value string

	// Message is a human-readable explanation.
	Message string
}

// String formats the rejection for logs and the validate command.
func (r Rejection) String() string {
	id := r.TransactionID
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("row %d (transaction %s): %s [%s, value: '%s']", r.Row, id, r.Message, r.Rule, r.Value)
}

// Result is the outcome of validating a record sequence.
type Result struct {
	// Accepted holds the typed transactions, in input order.
	Accepted []types.Transaction

	// Rejections holds one entry per dropped record, in input order.
	Rejections []Rejection
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate keeps only the well-formed records and returns them as typed
// transactions in input order.
func Validate(records []types.Record) []types.Transaction {
	return ValidateDetailed(records).Accepted
}

// ValidateDetailed is Validate plus the list of rejected records.
func ValidateDetailed(records []types.Record) *Result {
	result := &Result{
		Accepted:   make([]types.Transaction, 0, len(records)),
		Rejections: []Rejection{},
	}

	for i, record := range records {
		transaction, rejection := ValidateRecord(record)
		if rejection != nil {
			rejection.Row = i + 1
			result.Rejections = append(result.Rejections, *rejection)
			continue
		}
		result.Accepted = append(result.Accepted, transaction)
	}

	return result
}

// ValidateRecord checks a single record. It returns the typed transaction, or
// a non-nil rejection when the record must be dropped. The rejection's Row is
// left for the caller to fill in.
func ValidateRecord(record types.Record) (types.Transaction, *Rejection) {
	id := FieldString(record, types.FieldTransactionID)

	rawAmount, present := record[types.FieldAmount]
	if !present || rawAmount == nil {
		return types.Transaction{}, &Rejection{
			TransactionID: id,
			Rule:          RuleAmountMissing,
			Field:         types.FieldAmount,
			Message:       "amount is missing",
		}
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return types.Transaction{}, &Rejection{
			TransactionID: id,
			Rule:          RuleAmountNotNumeric,
			Field:         types.FieldAmount,
			Value:         FieldString(record, types.FieldAmount),
			Message:       "amount is not a number",
		}
	}

	if amount.IsNegative() {
		return types.Transaction{}, &Rejection{
			TransactionID: id,
			Rule:          RuleAmountNegative,
			Field:         types.FieldAmount,
			Value:         amount.String(),
			Message:       "amount must not be negative",
		}
	}

	if !types.AmountInRange(amount) {
		return types.Transaction{}, &Rejection{
			TransactionID: id,
			Rule:          RuleAmountOutOfRange,
			Field:         types.FieldAmount,
			Value:         FieldString(record, types.FieldAmount),
			Message: fmt.Sprintf("amount must have at most %d integer digits and %d decimal places",
				types.MaxAmountIntegerDigits, types.MaxAmountScale),
		}
	}

	rawType := FieldString(record, types.FieldTransactionType)
	transactionType, ok := types.ParseTransactionType(rawType)
	if !ok {
		return types.Transaction{}, &Rejection{
			TransactionID: id,
			Rule:          RuleTransactionTypeInvalid,
			Field:         types.FieldTransactionType,
			Value:         rawType,
			Message:       "transaction type must be one of withdrawal, deposit, transfer",
		}
	}

	account := strings.TrimSpace(FieldString(record, types.FieldAccountNumber))
	if account == "" {
		return types.Transaction{}, &Rejection{
			TransactionID: id,
			Rule:          RuleAccountNumberMissing,
			Field:         types.FieldAccountNumber,
			Message:       "account number is missing",
		}
	}

	return types.Transaction{
		ID:            id,
		AccountNumber: account,
		Date:          FieldString(record, types.FieldDate),
		Type:          transactionType,
		Amount:        amount,
		Currency:      FieldString(record, types.FieldCurrency),
		Description:   FieldString(record, types.FieldDescription),
	}, nil
}

// =============================================================================
// VALUE COERCION
// =============================================================================

var errNotNumeric = errors.New("value is not numeric")

// ParseAmount converts a raw amount value into a decimal. Strings (CSV) and
// json.Number (JSON) are parsed exactly; native floats and integers are
// accepted for records built in code.
func ParseAmount(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case decimal.Decimal:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, errNotNumeric
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		return ParseAmount(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, errNotNumeric
	}
}

// FieldString returns a record field as text. Missing and null fields read
// as the empty string; JSON numbers keep their literal form.
func FieldString(record types.Record, field string) string {
	switch v := record[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
