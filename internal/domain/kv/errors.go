package kv

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed descriptors or item values.
	ErrValidation = errors.New("invalid store request")

	// ErrInvalidTable is returned when the table is not in the schema allow-list.
	ErrInvalidTable = errors.New("table is not allowed")

	// ErrInvalidIndex is returned when the named index is not declared for the table.
	ErrInvalidIndex = errors.New("index is not declared for table")

	// ErrInvalidQuery is returned when a key condition does not match the key schema.
	ErrInvalidQuery = errors.New("invalid key condition")

	// ErrThrottling is returned by backends when capacity is exceeded and
	// by QueryBuilder once retries are exhausted.
	ErrThrottling = errors.New("store throttled the request")

	// ErrConditionFailed is returned when a conditional write is rejected.
	ErrConditionFailed = errors.New("conditional write failed")

	// ErrNotFound is returned by update_item when the item does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrPersistence wraps any other backend failure.
	ErrPersistence = errors.New("store operation failed")
)

// ErrKeyUpdate is returned when an update touches a primary key attribute.
var ErrKeyUpdate = fmt.Errorf("%w: key attributes cannot be updated", ErrValidation)
