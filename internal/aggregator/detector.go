package aggregator

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

// Detection rules for suspicious transactions.
const (
	// LargeTransactionThreshold is exclusive: an amount of exactly 10000 is not flagged.
	LargeTransactionThreshold = 10000
)

// UncommonCurrencies are currency codes that always flag a transaction.
var UncommonCurrencies = []string{"XRP", "LTC"}

// Reason names why a transaction was flagged.
type Reason string

const (
	ReasonLargeAmount      Reason = "large_amount"
	ReasonUncommonCurrency Reason = "uncommon_currency"
)

// Detector applies the suspicious-transaction heuristics.
type Detector struct {
	threshold  decimal.Decimal
	currencies map[string]struct{}
}

// DefaultDetector returns a Detector using LargeTransactionThreshold and
// UncommonCurrencies.
func DefaultDetector() Detector {
	currencies := make(map[string]struct{}, len(UncommonCurrencies))
	for _, code := range UncommonCurrencies {
		currencies[code] = struct{}{}
	}
	return Detector{
		threshold:  decimal.NewFromInt(LargeTransactionThreshold),
		currencies: currencies,
	}
}

// Reasons returns every rule t trips, in rule order. An empty result means
// the transaction is not suspicious.
func (d Detector) Reasons(t types.Transaction) []Reason {
	var reasons []Reason
	if t.Amount.GreaterThan(d.threshold) {
		reasons = append(reasons, ReasonLargeAmount)
	}
	if _, ok := d.currencies[t.Currency]; ok {
		reasons = append(reasons, ReasonUncommonCurrency)
	}
	return reasons
}
