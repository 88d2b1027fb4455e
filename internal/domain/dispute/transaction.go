package dispute

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction is the transaction record a dispute is raised for. Upstream
// sources disagree on field names and types, so it is kept as loose JSON.
type Transaction map[string]any

func (t Transaction) ID() string { return t.str("transaction_id") }

func (t Transaction) CustomerID() string { return t.str("customer_id") }

func (t Transaction) CardID() string {
	if id := t.str("card_id"); id != "" {
		return id
	}
	return t.str("card_number")
}

func (t Transaction) str(field string) string {
	switch v := t[field].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// parseAmount reads a monetary value. Strings may carry currency symbols
// and thousands separators. Negative values are rejected.
func parseAmount(v any) (decimal.Decimal, bool) {
	var (
		d   decimal.Decimal
		err error
	)
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case float64:
		d = decimal.NewFromFloat(x)
	case float32:
		d = decimal.NewFromFloat32(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case json.Number:
		d, err = decimal.NewFromString(x.String())
	case string:
		d, err = decimal.NewFromString(cleanAmount(x))
	default:
		return decimal.Decimal{}, false
	}
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}

var amountReplacer = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", " ", "")

func cleanAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimSuffix(s, " USD"), "USD ")
	return amountReplacer.Replace(s)
}
