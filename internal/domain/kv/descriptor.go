package kv

import (
	"fmt"
	"sort"
)

type Verb string

const (
	GetItem    Verb = "get_item"
	Query      Verb = "query"
	Scan       Verb = "scan"
	PutItem    Verb = "put_item"
	UpdateItem Verb = "update_item"
)

func ParseVerb(s string) (Verb, error) {
	switch v := Verb(s); v {
	case GetItem, Query, Scan, PutItem, UpdateItem:
		return v, nil
	default:
		return "", fmt.Errorf("%w: unsupported operation %q", ErrValidation, s)
	}
}

type SortOp string

const (
	SortEqual      SortOp = "eq"
	SortBeginsWith SortOp = "begins_with"
	SortBetween    SortOp = "between"
)

// SortCondition narrows a query on the sort key. Upper is used by SortBetween only.
type SortCondition struct {
	Attribute string
	Op        SortOp
	Value     string
	Upper     string
}

// Matches reports whether a sort key value satisfies the condition.
func (s SortCondition) Matches(v string) bool {
	switch s.Op {
	case SortEqual:
		return v == s.Value
	case SortBeginsWith:
		return len(v) >= len(s.Value) && v[:len(s.Value)] == s.Value
	case SortBetween:
		return v >= s.Value && v <= s.Upper
	default:
		return false
	}
}

// KeyCondition selects items by partition key and optionally narrows them
// on the sort key of the queried index.
type KeyCondition struct {
	PartitionKey   string
	PartitionValue string
	Sort           *SortCondition
}

func Partition(attr, value string) KeyCondition {
	return KeyCondition{PartitionKey: attr, PartitionValue: value}
}

func (k KeyCondition) SortEquals(attr, value string) KeyCondition {
	k.Sort = &SortCondition{Attribute: attr, Op: SortEqual, Value: value}
	return k
}

func (k KeyCondition) SortBeginsWith(attr, prefix string) KeyCondition {
	k.Sort = &SortCondition{Attribute: attr, Op: SortBeginsWith, Value: prefix}
	return k
}

func (k KeyCondition) SortBetween(attr, lower, upper string) KeyCondition {
	k.Sort = &SortCondition{Attribute: attr, Op: SortBetween, Value: lower, Upper: upper}
	return k
}

func (k KeyCondition) validate(ks KeySchema) error {
	if k.PartitionKey != ks.PartitionKey {
		return fmt.Errorf("%w: partition key must be %q, got %q", ErrInvalidQuery, ks.PartitionKey, k.PartitionKey)
	}
	if k.PartitionValue == "" {
		return fmt.Errorf("%w: empty partition key value", ErrInvalidQuery)
	}
	if k.Sort == nil {
		return nil
	}
	if !ks.HasSortKey() {
		return fmt.Errorf("%w: index has no sort key, %q must be filtered", ErrInvalidQuery, k.Sort.Attribute)
	}
	if k.Sort.Attribute != ks.SortKey {
		return fmt.Errorf("%w: sort key must be %q, got %q", ErrInvalidQuery, ks.SortKey, k.Sort.Attribute)
	}
	switch k.Sort.Op {
	case SortEqual, SortBeginsWith:
	case SortBetween:
		if k.Sort.Value > k.Sort.Upper {
			return fmt.Errorf("%w: between bounds are reversed", ErrInvalidQuery)
		}
	default:
		return fmt.Errorf("%w: unsupported sort operator %q", ErrInvalidQuery, k.Sort.Op)
	}
	return nil
}

// ParseKeyCondition reads the loose form used by external callers:
//
//	{"customer_id": "C1", "composite_key": {"begins_with": "CARD#1234#"}}
//
// Every attribute must belong to ks. Conditions on other attributes belong
// in a filter.
func ParseKeyCondition(ks KeySchema, raw map[string]any) (KeyCondition, error) {
	var kc KeyCondition

	attrs := make([]string, 0, len(raw))
	for a := range raw {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		val := raw[attr]
		switch attr {
		case ks.PartitionKey:
			s, ok := val.(string)
			if !ok {
				return KeyCondition{}, fmt.Errorf("%w: partition key %q must be a string", ErrInvalidQuery, attr)
			}
			kc.PartitionKey, kc.PartitionValue = attr, s
		case ks.SortKey:
			if attr == "" {
				continue
			}
			sc, err := parseSortCondition(attr, val)
			if err != nil {
				return KeyCondition{}, err
			}
			kc.Sort = &sc
		default:
			return KeyCondition{}, fmt.Errorf("%w: %q is not a key of the selected index, use a filter", ErrInvalidQuery, attr)
		}
	}

	if kc.PartitionKey == "" {
		return KeyCondition{}, fmt.Errorf("%w: missing partition key %q", ErrInvalidQuery, ks.PartitionKey)
	}
	return kc, kc.validate(ks)
}

func parseSortCondition(attr string, val any) (SortCondition, error) {
	switch x := val.(type) {
	case string:
		return SortCondition{Attribute: attr, Op: SortEqual, Value: x}, nil
	case map[string]any:
		if len(x) != 1 {
			return SortCondition{}, fmt.Errorf("%w: sort condition on %q needs exactly one operator", ErrInvalidQuery, attr)
		}
		for op, arg := range x {
			switch SortOp(op) {
			case SortEqual, SortBeginsWith:
				s, ok := arg.(string)
				if !ok {
					return SortCondition{}, fmt.Errorf("%w: %s on %q needs a string", ErrInvalidQuery, op, attr)
				}
				return SortCondition{Attribute: attr, Op: SortOp(op), Value: s}, nil
			case SortBetween:
				bounds, ok := arg.([]any)
				if !ok || len(bounds) != 2 {
					return SortCondition{}, fmt.Errorf("%w: between on %q needs two bounds", ErrInvalidQuery, attr)
				}
				lo, ok1 := bounds[0].(string)
				hi, ok2 := bounds[1].(string)
				if !ok1 || !ok2 {
					return SortCondition{}, fmt.Errorf("%w: between bounds on %q must be strings", ErrInvalidQuery, attr)
				}
				return SortCondition{Attribute: attr, Op: SortBetween, Value: lo, Upper: hi}, nil
			default:
				return SortCondition{}, fmt.Errorf("%w: unsupported sort operator %q", ErrInvalidQuery, op)
			}
		}
	}
	return SortCondition{}, fmt.Errorf("%w: unsupported sort condition on %q", ErrInvalidQuery, attr)
}

// Condition guards put_item and update_item. The write succeeds when the item
// does not exist (IfNotExists, put_item only) or when Attribute of the stored
// item equals one of OneOf.
type Condition struct {
	IfNotExists bool
	Attribute   string
	OneOf       []any
}

// Descriptor is a single request to the store.
type Descriptor struct {
	Table TableName
	Verb  Verb

	// get_item, update_item
	Key map[string]any

	// query
	Index        IndexName
	KeyCondition *KeyCondition
	Descending   bool

	// query, scan
	Filter map[string]any
	Limit  int

	// get_item, query, scan
	Projection []string

	// put_item
	Item map[string]any

	// put_item, update_item
	Condition *Condition

	// update_item
	Updates map[string]any
}

// Result carries the items returned by any verb. get_item and update_item
// return at most one item and set Found when they do.
type Result struct {
	Items        []Item
	Count        int
	ScannedCount int
	Found        bool
}

// First returns the first item, or nil.
func (r Result) First() Item {
	if len(r.Items) == 0 {
		return nil
	}
	return r.Items[0]
}

// Plain converts every item for API responses.
func (r Result) Plain() []map[string]any {
	out := make([]map[string]any, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Plain()
	}
	return out
}
