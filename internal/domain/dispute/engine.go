package dispute

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxDisputeAgeDays is the last day on which a transaction can still be
	// disputed.
	MaxDisputeAgeDays = 600
)

var (
	// AutoResolveLimit is the largest amount resolved in the customer's favor
	// without acquirer involvement.
	AutoResolveLimit = decimal.NewFromInt(100)

	// MissingAmount stands in for an amount that could not be extracted and
	// routes the dispute to the acquirer.
	MissingAmount = decimal.NewFromInt(999999)
)

// AmountExtractor reads the disputed amount from one source field. present
// reports whether the field holds a value at all; ok whether that value is
// a usable amount.
type AmountExtractor func(Transaction) (amount decimal.Decimal, present, ok bool)

// FieldAmount extracts the amount stored under field.
func FieldAmount(field string) AmountExtractor {
	return func(t Transaction) (decimal.Decimal, bool, bool) {
		v, ok := t[field]
		if !ok || v == nil {
			return decimal.Decimal{}, false, false
		}
		d, ok := parseAmount(v)
		return d, true, ok
	}
}

// DefaultAmountExtractors lists the amount fields in priority order.
func DefaultAmountExtractors() []AmountExtractor {
	return []AmountExtractor{
		FieldAmount("amount_usd"),
		FieldAmount("amount"),
		FieldAmount("transaction_amount"),
		FieldAmount("value"),
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

type Decision struct {
	Status       Status
	Reason       string
	CreditType   CreditType
	CreditAmount decimal.NullDecimal
	AmountUSD    decimal.Decimal
	AmountFound  bool
	AgeDays      int
	DateFound    bool
}

// DecisionEngine maps a transaction to a dispute decision. It never fails:
// an unreadable date counts as a recent transaction and a missing amount as
// MissingAmount.
type DecisionEngine struct {
	extractors []AmountExtractor
}

func NewDecisionEngine(extractors ...AmountExtractor) DecisionEngine {
	if len(extractors) == 0 {
		extractors = DefaultAmountExtractors()
	}
	return DecisionEngine{extractors: extractors}
}

func (e DecisionEngine) Decide(txn Transaction, now time.Time) Decision {
	amount, found := e.amount(txn)
	age, dated := AgeDays(txn, now)

	d := Decision{AmountUSD: amount, AmountFound: found, AgeDays: age, DateFound: dated}

	switch {
	case age > MaxDisputeAgeDays:
		d.Status = StatusRejectedTimeBarred
		d.Reason = fmt.Sprintf("Transaction is %d days old, exceeding the %d day limit", age, MaxDisputeAgeDays)
	case amount.LessThanOrEqual(AutoResolveLimit):
		d.Status = StatusResolvedCustomer
		d.Reason = fmt.Sprintf("Small amount dispute ($%s) resolved in customer's favor with permanent credit", amount.StringFixed(2))
		d.CreditType = CreditPermanent
		d.CreditAmount = decimal.NewNullDecimal(amount)
	default:
		d.Status = StatusForwardedToAcquirer
		d.Reason = fmt.Sprintf("Amount $%s forwarded to acquirer for investigation with temporary credit issued", amount.StringFixed(2))
		d.CreditType = CreditTemporary
		d.CreditAmount = decimal.NewNullDecimal(amount)
	}
	return d
}

func (e DecisionEngine) amount(txn Transaction) (decimal.Decimal, bool) {
	extractors := e.extractors
	if extractors == nil {
		extractors = DefaultAmountExtractors()
	}
	// The first field present decides, even when its value is unusable.
	for _, extract := range extractors {
		v, present, ok := extract(txn)
		if !present {
			continue
		}
		if !ok {
			return MissingAmount, false
		}
		return v, true
	}
	return MissingAmount, false
}

// AgeDays returns the whole days elapsed since the transaction date, read
// from transaction_date and then date. Zone-less timestamps are UTC.
func AgeDays(txn Transaction, now time.Time) (int, bool) {
	for _, field := range []string{"transaction_date", "date"} {
		raw := txn.str(field)
		if raw == "" {
			continue
		}
		if t, ok := parseDate(raw); ok {
			return int(math.Floor(now.Sub(t).Hours() / 24)), true
		}
	}
	return 0, false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
