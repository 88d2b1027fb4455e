package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyCondition(t *testing.T) {
	cardKey := KeySchema{PartitionKey: AttrCustomerID, SortKey: AttrCompositeKey}

	testCases := []struct {
		name        string
		ks          KeySchema
		raw         map[string]any
		expected    KeyCondition
		expectedErr error
	}{
		{
			name:     "partition only",
			ks:       cardKey,
			raw:      map[string]any{"customer_id": "CUST001"},
			expected: Partition("customer_id", "CUST001"),
		},
		{
			name:     "begins_with",
			ks:       cardKey,
			raw:      map[string]any{"customer_id": "CUST001", "composite_key": map[string]any{"begins_with": "CARD#1234#"}},
			expected: Partition("customer_id", "CUST001").SortBeginsWith("composite_key", "CARD#1234#"),
		},
		{
			name:     "between",
			ks:       cardKey,
			raw:      map[string]any{"customer_id": "CUST001", "composite_key": map[string]any{"between": []any{"A", "B"}}},
			expected: Partition("customer_id", "CUST001").SortBetween("composite_key", "A", "B"),
		},
		{
			name:     "sort equality",
			ks:       cardKey,
			raw:      map[string]any{"customer_id": "CUST001", "composite_key": "CARD#1234"},
			expected: Partition("customer_id", "CUST001").SortEquals("composite_key", "CARD#1234"),
		},
		{
			name:        "non key attribute",
			ks:          cardKey,
			raw:         map[string]any{"customer_id": "CUST001", "merchant": "Shop"},
			expectedErr: ErrInvalidQuery,
		},
		{
			name:        "missing partition",
			ks:          cardKey,
			raw:         map[string]any{"composite_key": "CARD#1234"},
			expectedErr: ErrInvalidQuery,
		},
		{
			name:        "sort condition on index without sort key",
			ks:          KeySchema{PartitionKey: AttrTransactionID},
			raw:         map[string]any{"transaction_id": "TXN001", "created_at": "2024"},
			expectedErr: ErrInvalidQuery,
		},
		{
			name:        "reversed between",
			ks:          cardKey,
			raw:         map[string]any{"customer_id": "CUST001", "composite_key": map[string]any{"between": []any{"B", "A"}}},
			expectedErr: ErrInvalidQuery,
		},
		{
			name:        "unknown operator",
			ks:          cardKey,
			raw:         map[string]any{"customer_id": "CUST001", "composite_key": map[string]any{"gt": "A"}},
			expectedErr: ErrInvalidQuery,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kc, err := ParseKeyCondition(tc.ks, tc.raw)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, kc)
		})
	}
}

func TestSortCondition_Matches(t *testing.T) {
	begins := SortCondition{Op: SortBeginsWith, Value: "CARD#1234#"}
	assert.True(t, begins.Matches("CARD#1234#TXN001"))
	assert.False(t, begins.Matches("CARD#12345#TXN001"))
	assert.False(t, begins.Matches("CARD#"))

	between := SortCondition{Op: SortBetween, Value: "2024-01", Upper: "2024-12"}
	assert.True(t, between.Matches("2024-06-01"))
	assert.False(t, between.Matches("2025-01-01"))
}

func TestParseVerb(t *testing.T) {
	v, err := ParseVerb("update_item")
	require.NoError(t, err)
	assert.Equal(t, UpdateItem, v)

	_, err = ParseVerb("delete_item")
	assert.ErrorIs(t, err, ErrValidation)
}
