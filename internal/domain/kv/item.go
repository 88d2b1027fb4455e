package kv

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is fixed width so lexical order of stored timestamps matches
// chronological order. Index sort keys rely on this.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

var attributeName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateAttributeName rejects names that cannot be used safely as
// attribute paths by every backend.
func ValidateAttributeName(name string) error {
	if !attributeName.MatchString(name) {
		return fmt.Errorf("%w: attribute name %q", ErrValidation, name)
	}
	return nil
}

// Item is a normalized record. Numbers are always decimal.Decimal, times are
// TimeLayout strings, nested values are map[string]any and []any.
type Item map[string]any

// NewItem normalizes every value of fields.
func NewItem(fields map[string]any) (Item, error) {
	item := make(Item, len(fields))
	for k, v := range fields {
		if err := ValidateAttributeName(k); err != nil {
			return nil, err
		}
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = nv
	}
	return item, nil
}

// NormalizeValue converts v into the canonical stored representation.
// Binary floating point values are converted to exact decimals.
func NormalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool, decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case decimal.NullDecimal:
		if !x.Valid {
			return nil, nil
		}
		return x.Decimal, nil
	case float64:
		return floatDecimal(x)
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, fmt.Errorf("%w: non-finite number", ErrValidation)
		}
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int8:
		return decimal.NewFromInt(int64(x)), nil
	case int16:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return decimal.NewFromUint64(uint64(x)), nil
	case uint8:
		return decimal.NewFromUint64(uint64(x)), nil
	case uint16:
		return decimal.NewFromUint64(uint64(x)), nil
	case uint32:
		return decimal.NewFromUint64(uint64(x)), nil
	case uint64:
		return decimal.NewFromUint64(x), nil
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrValidation, x)
		}
		return d, nil
	case time.Time:
		return FormatTime(x), nil
	case Item:
		return normalizeMap(x)
	case map[string]any:
		return normalizeMap(x)
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			ne, err := NormalizeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrValidation, v)
	}
}

func floatDecimal(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: non-finite number", ErrValidation)
	}
	return decimal.NewFromFloat(f), nil
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// String returns the string value of attr, or "" when absent or not a string.
func (i Item) String(attr string) string {
	s, _ := i[attr].(string)
	return s
}

func (i Item) Bool(attr string) bool {
	b, _ := i[attr].(bool)
	return b
}

func (i Item) Decimal(attr string) (decimal.Decimal, bool) {
	d, ok := i[attr].(decimal.Decimal)
	return d, ok
}

func (i Item) Has(attr string) bool {
	_, ok := i[attr]
	return ok
}

// Clone returns a deep copy.
func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case Item:
		return map[string]any(x.Clone())
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return x
	}
}

// Project keeps only attrs. An empty attrs list returns the item unchanged.
func (i Item) Project(attrs []string) Item {
	if len(attrs) == 0 {
		return i
	}
	out := make(Item, len(attrs))
	for _, a := range attrs {
		if v, ok := i[a]; ok {
			out[a] = v
		}
	}
	return out
}

// Matches reports whether every attribute of filter is present in i with an
// equal value.
func (i Item) Matches(filter Item) bool {
	for k, want := range filter {
		got, ok := i[k]
		if !ok || !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

// Plain converts decimals to float64 for API responses.
func (i Item) Plain() map[string]any {
	if i == nil {
		return nil
	}
	out := make(map[string]any, len(i))
	for k, v := range i {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case map[string]any:
		return Item(x).Plain()
	case Item:
		return x.Plain()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	default:
		return x
	}
}

// ValuesEqual compares two normalized values.
func ValuesEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !ValuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !ValuesEqual(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CompareValues orders two sort key values. Keys are strings in practice;
// decimals compare numerically and mixed types fall back to text order.
func CompareValues(a, b any) int {
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	}
	if x, ok := a.(decimal.Decimal); ok {
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
