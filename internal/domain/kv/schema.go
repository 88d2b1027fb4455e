package kv

import (
	"fmt"
	"sort"
)

type TableName string

const (
	CardTransactions TableName = "card_transactions"
	Cases            TableName = "cases"
)

type IndexName string

const (
	TransactionIndex IndexName = "TransactionIndex"
	CustomerIndex    IndexName = "CustomerIndex"
)

// Attribute names shared by the two tables.
const (
	AttrCustomerID    = "customer_id"
	AttrCompositeKey  = "composite_key"
	AttrTransactionID = "transaction_id"
	AttrCaseID        = "case_id"
	AttrCreatedAt     = "created_at"
	AttrUpdatedAt     = "updated_at"
)

type KeySchema struct {
	PartitionKey string
	SortKey      string
}

func (k KeySchema) HasSortKey() bool {
	return k.SortKey != ""
}

func (k KeySchema) Attributes() []string {
	if k.HasSortKey() {
		return []string{k.PartitionKey, k.SortKey}
	}
	return []string{k.PartitionKey}
}

// TableSchema describes the primary key and secondary indexes of a table.
// Secondary indexes are sparse: items without the index partition
// attribute are not part of the index.
type TableSchema struct {
	Name    TableName
	Key     KeySchema
	Indexes map[IndexName]KeySchema
}

// IndexKey returns the key schema for index, or the primary key when index is empty.
func (t TableSchema) IndexKey(index IndexName) (KeySchema, error) {
	if index == "" {
		return t.Key, nil
	}
	ks, ok := t.Indexes[index]
	if !ok {
		return KeySchema{}, fmt.Errorf("%w: %s on %s", ErrInvalidIndex, index, t.Name)
	}
	return ks, nil
}

// IsKeyAttribute reports whether attr is part of the primary key.
func (t TableSchema) IsKeyAttribute(attr string) bool {
	return attr == t.Key.PartitionKey || (t.Key.HasSortKey() && attr == t.Key.SortKey)
}

func (t TableSchema) IndexNames() []IndexName {
	names := make([]IndexName, 0, len(t.Indexes))
	for name := range t.Indexes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Schema is the allow-list of tables a QueryBuilder may touch.
type Schema struct {
	tables map[TableName]TableSchema
}

func NewSchema(tables ...TableSchema) Schema {
	s := Schema{tables: make(map[TableName]TableSchema, len(tables))}
	for _, t := range tables {
		s.tables[t.Name] = t
	}
	return s
}

// DefaultSchema declares the card-transactions and cases tables.
// Both indexes on cases sort by created_at so the newest case is first
// when read in descending order.
func DefaultSchema() Schema {
	return NewSchema(
		TableSchema{
			Name: CardTransactions,
			Key:  KeySchema{PartitionKey: AttrCustomerID, SortKey: AttrCompositeKey},
			Indexes: map[IndexName]KeySchema{
				TransactionIndex: {PartitionKey: AttrTransactionID},
			},
		},
		TableSchema{
			Name: Cases,
			Key:  KeySchema{PartitionKey: AttrCaseID},
			Indexes: map[IndexName]KeySchema{
				TransactionIndex: {PartitionKey: AttrTransactionID, SortKey: AttrCreatedAt},
				CustomerIndex:    {PartitionKey: AttrCustomerID, SortKey: AttrCreatedAt},
			},
		},
	)
}

func (s Schema) Table(name TableName) (TableSchema, error) {
	t, ok := s.tables[name]
	if !ok {
		return TableSchema{}, fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return t, nil
}

func (s Schema) Tables() []TableSchema {
	out := make([]TableSchema, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
