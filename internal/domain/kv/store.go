package kv

import "context"

//go:generate mockgen -source store.go -destination mock_store.go -package kv

// Store is a key-value backend. Implementations translate backend specific
// capacity errors to ErrThrottling and rejected conditional writes to
// ErrConditionFailed. They receive already validated, normalized requests.
type Store interface {
	GetItem(ctx context.Context, req GetRequest) (Item, bool, error)
	Query(ctx context.Context, req QueryRequest) (Page, error)
	Scan(ctx context.Context, req ScanRequest) (Page, error)
	PutItem(ctx context.Context, req PutRequest) error
	UpdateItem(ctx context.Context, req UpdateRequest) (Item, error)
}

type GetRequest struct {
	Table      TableSchema
	Key        Item
	Projection []string
}

// QueryRequest reads items of one partition of Table or of Index. Limit
// bounds the items read before Filter is applied.
type QueryRequest struct {
	Table      TableSchema
	Index      IndexName
	KeySchema  KeySchema
	Condition  KeyCondition
	Filter     Item
	Projection []string
	Limit      int
	Descending bool
}

type ScanRequest struct {
	Table      TableSchema
	Filter     Item
	Projection []string
	Limit      int
}

type PutRequest struct {
	Table     TableSchema
	Item      Item
	Condition *Condition
}

// UpdateRequest sets top-level attributes of an existing item. A non-nil
// Condition carries only Attribute and OneOf; a stored item whose attribute
// matches none of them is left untouched and ErrConditionFailed returned.
type UpdateRequest struct {
	Table     TableSchema
	Key       Item
	Updates   Item
	Condition *Condition
}

type Page struct {
	Items        []Item
	ScannedCount int
}

// FinishPage applies filter and projection to the items a backend read.
func FinishPage(read []Item, filter Item, projection []string) Page {
	page := Page{Items: make([]Item, 0, len(read)), ScannedCount: len(read)}
	for _, it := range read {
		if !it.Matches(filter) {
			continue
		}
		page.Items = append(page.Items, it.Project(projection))
	}
	return page
}
