package capability_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/activity"
	"github.com/anupakum/MCP-Payment-idea/internal/capability"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/cases"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/memory"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/transactions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recent = time.Now().UTC().AddDate(0, 0, -5).Format(time.RFC3339)

func newRegistry(t *testing.T) (*capability.Registry, *activity.Collector) {
	t.Helper()
	ctx := context.Background()

	qb := kv.NewQueryBuilder(memory.New())
	txns := transactions.NewRepository(qb)
	for _, rec := range []card.Record{
		{"customer_id": "CUST001", "composite_key": card.CardKey("1234"), "card_number": "1234", "card_type": "Visa"},
		{"customer_id": "CUST001", "composite_key": card.TransactionKey("1234", "TXN001"), "card_number": "1234",
			"transaction_id": "TXN001", "amount": 45, "transaction_date": recent},
		{"customer_id": "CUST002", "composite_key": card.CardKey("9999"), "card_number": "9999", "card_type": "Amex"},
	} {
		require.NoError(t, txns.PutRecord(ctx, rec))
	}

	collector := activity.NewCollector(50)
	svc := dispute.NewService(cases.NewRepository(qb), dispute.WithEventSink(collector))

	reg := capability.NewRegistry(collector)
	require.NoError(t, reg.Register(capability.Standard(svc, card.NewVerifier(txns), qb)...))
	return reg, collector
}

func invoke(t *testing.T, reg *capability.Registry, name string, args any) (capability.Result, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)

	res := reg.Invoke(context.Background(), name, raw)

	var data map[string]any
	if res.Data != nil {
		b, err := json.Marshal(res.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, &data))
	}
	return res, data
}

func TestRegistry_List(t *testing.T) {
	reg, _ := newRegistry(t)

	var names []string
	for _, c := range reg.List() {
		names = append(names, c.Name())
		assert.True(t, json.Valid(c.InputSchema()), c.Name())
		assert.NotEmpty(t, c.Description(), c.Name())
	}

	assert.Equal(t, []string{
		"process_dispute", "verify_and_dispute", "retry_case_creation", "get_case", "list_customer_cases", "update_case",
		"apply_acquirer_outcome", "customer_lookup", "card_lookup", "transaction_lookup", "kv_query",
	}, names)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	reg, _ := newRegistry(t)

	err := reg.Register(capability.KVQueryCapability(kv.NewQueryBuilder(memory.New())))

	assert.Error(t, err)
}

func TestRegistry_UnknownCapability(t *testing.T) {
	reg, _ := newRegistry(t)

	res := reg.Invoke(context.Background(), "delete_everything", nil)

	assert.False(t, res.Success)
	assert.Equal(t, capability.KindNotFound, res.Kind)
}

func TestProcessDispute(t *testing.T) {
	reg, collector := newRegistry(t)
	txn := map[string]any{"transaction": map[string]any{
		"transaction_id": "TXN-A", "customer_id": "CUST001", "amount": 250.75, "transaction_date": recent,
	}}

	t.Run("should create a forwarded case", func(t *testing.T) {
		res, data := invoke(t, reg, capability.ProcessDispute, txn)

		require.True(t, res.Success, res.Message)
		assert.Equal(t, "FORWARDED_TO_ACQUIRER", data["dispute_status"])
		assert.Equal(t, "TEMPORARY", data["credit_type"])
		assert.Equal(t, 250.75, data["credit_amount"])
		assert.Equal(t, false, data["existing_case"])
	})

	t.Run("should return the open case on repeat", func(t *testing.T) {
		res, data := invoke(t, reg, capability.ProcessDispute, txn)

		require.True(t, res.Success, res.Message)
		assert.Equal(t, true, data["existing_case"])
	})

	t.Run("should reject a transaction without id", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.ProcessDispute, map[string]any{"transaction": map[string]any{"amount": 5}})

		assert.False(t, res.Success)
		assert.Equal(t, capability.KindValidation, res.Kind)
	})

	t.Run("should reject a missing transaction", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.ProcessDispute, map[string]any{})

		assert.False(t, res.Success)
		assert.Equal(t, capability.KindValidation, res.Kind)
	})

	t.Run("should record activity", func(t *testing.T) {
		entries := collector.Entries(activity.Query{Source: "capability"})

		require.NotEmpty(t, entries)
		assert.Equal(t, capability.ProcessDispute, entries[0].Action)
		assert.Equal(t, activity.LevelSuccess, entries[0].Level)
		assert.NotEmpty(t, collector.Entries(activity.Query{Source: "workflow"}))
	})
}

func TestInvoke_MalformedArguments(t *testing.T) {
	reg, _ := newRegistry(t)

	res := reg.Invoke(context.Background(), capability.GetCase, json.RawMessage(`{"case_id":`))

	assert.False(t, res.Success)
	assert.Equal(t, capability.KindValidation, res.Kind)
}

func TestVerifyAndDispute(t *testing.T) {
	testCases := []struct {
		name     string
		args     map[string]any
		success  bool
		kind     capability.Kind
		expected string
	}{
		{
			name:     "owned transaction resolves in customer's favor",
			args:     map[string]any{"transaction_id": "TXN001", "customer_id": "CUST001", "card_number": "1234"},
			success:  true,
			expected: "RESOLVED_CUSTOMER",
		},
		{
			name: "another customer's transaction",
			args: map[string]any{"transaction_id": "TXN001", "customer_id": "CUST002", "card_number": "9999"},
			kind: capability.KindConflict,
		},
		{
			name: "unknown transaction",
			args: map[string]any{"transaction_id": "TXN404", "customer_id": "CUST001", "card_number": "1234"},
			kind: capability.KindNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			reg, _ := newRegistry(t)

			// when
			res, data := invoke(t, reg, capability.VerifyAndDispute, tc.args)

			// then
			assert.Equal(t, tc.success, res.Success, res.Message)
			assert.Equal(t, tc.kind, res.Kind)
			if tc.success {
				assert.Equal(t, tc.expected, data["dispute_status"])
				assert.Equal(t, 45.0, data["credit_amount"])
			}
		})
	}
}

func TestCaseCapabilities(t *testing.T) {
	reg, _ := newRegistry(t)
	_, created := invoke(t, reg, capability.ProcessDispute, map[string]any{"transaction": map[string]any{
		"transaction_id": "TXN-B", "customer_id": "CUST001", "amount": "500", "transaction_date": recent,
	}})
	caseID := created["case_id"].(string)

	t.Run("get_case", func(t *testing.T) {
		res, data := invoke(t, reg, capability.GetCase, map[string]any{"case_id": caseID})
		require.True(t, res.Success)
		assert.Equal(t, "TXN-B", data["transaction_id"])

		res, _ = invoke(t, reg, capability.GetCase, map[string]any{"case_id": "CASE-404"})
		assert.Equal(t, capability.KindNotFound, res.Kind)
	})

	t.Run("list_customer_cases", func(t *testing.T) {
		res, data := invoke(t, reg, capability.ListCustomerCases, map[string]any{"customer_id": "CUST001"})

		require.True(t, res.Success)
		assert.Equal(t, 1.0, data["count"])
	})

	t.Run("update_case rejects immutable fields", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.UpdateCase, map[string]any{
			"case_id": caseID, "updates": map[string]any{"transaction_id": "TXN-X"},
		})

		assert.False(t, res.Success)
		assert.Equal(t, capability.KindValidation, res.Kind)
	})

	t.Run("update_case stores notes", func(t *testing.T) {
		res, data := invoke(t, reg, capability.UpdateCase, map[string]any{
			"case_id": caseID, "updates": map[string]any{"notes": "called the merchant"},
		})

		require.True(t, res.Success, res.Message)
		assert.Equal(t, map[string]any{"notes": "called the merchant"}, data["attributes"])
	})

	t.Run("apply_acquirer_outcome", func(t *testing.T) {
		res, data := invoke(t, reg, capability.ApplyAcquirerOutcome, map[string]any{"case_id": caseID, "outcome": "merchant_won"})
		require.True(t, res.Success, res.Message)
		assert.Equal(t, "RESOLVED_ACQUIRER", data["dispute_status"])
		assert.Nil(t, data["credit_type"])
		assert.Equal(t, true, data["credit_reversed"])

		res, _ = invoke(t, reg, capability.ApplyAcquirerOutcome, map[string]any{"case_id": caseID, "outcome": "customer_won"})
		assert.Equal(t, capability.KindConflict, res.Kind)

		res, _ = invoke(t, reg, capability.ApplyAcquirerOutcome, map[string]any{"case_id": caseID, "outcome": "draw"})
		assert.Equal(t, capability.KindValidation, res.Kind)
	})
}

func TestLookupCapabilities(t *testing.T) {
	reg, _ := newRegistry(t)

	t.Run("customer_lookup", func(t *testing.T) {
		res, data := invoke(t, reg, capability.CustomerLookup, map[string]any{"customer_id": "CUST001"})

		require.True(t, res.Success, res.Message)
		cards := data["cards"].([]any)
		require.Len(t, cards, 1)
		assert.Equal(t, "Visa", cards[0].(map[string]any)["card_type"])
	})

	t.Run("card_lookup of a foreign card", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.CardLookup, map[string]any{"customer_id": "CUST001", "card_number": "9999"})

		assert.False(t, res.Success)
		assert.Equal(t, capability.KindNotFound, res.Kind)
	})

	t.Run("transaction_lookup returns numbers", func(t *testing.T) {
		res, data := invoke(t, reg, capability.TransactionLookup, map[string]any{"transaction_id": "TXN001"})

		require.True(t, res.Success, res.Message)
		assert.Equal(t, 45.0, data["amount"])
	})
}

func TestKVQuery_CasesAreReadOnly(t *testing.T) {
	reg, _ := newRegistry(t)
	res, created := invoke(t, reg, capability.ProcessDispute, map[string]any{"transaction": map[string]any{
		"transaction_id": "TXN-K", "customer_id": "CUST001", "amount": 250.75, "transaction_date": recent,
	}})
	require.True(t, res.Success, res.Message)
	caseID := created["case_id"].(string)

	t.Run("should refuse to reopen a case behind the service", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.KVQuery, map[string]any{
			"table_name":        "cases",
			"operation":         "update_item",
			"key":               map[string]any{"case_id": caseID},
			"update_expression": map[string]any{"dispute_status": "RESOLVED_CUSTOMER", "credit_issued": false},
		})

		assert.False(t, res.Success)
		assert.Equal(t, capability.KindValidation, res.Kind)

		_, got := invoke(t, reg, capability.GetCase, map[string]any{"case_id": caseID})
		assert.Equal(t, "FORWARDED_TO_ACQUIRER", got["dispute_status"])
		assert.Equal(t, true, got["credit_issued"])
	})

	t.Run("should refuse to overwrite a transaction guard", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.KVQuery, map[string]any{
			"table_name": "cases",
			"operation":  "put_item",
			"item_data":  map[string]any{"case_id": "TXN_GUARD#TXN-K", "holder_case_id": "CASE-FAKE"},
		})

		assert.False(t, res.Success)
		assert.Equal(t, capability.KindValidation, res.Kind)

		_, again := invoke(t, reg, capability.ProcessDispute, map[string]any{"transaction": map[string]any{
			"transaction_id": "TXN-K", "customer_id": "CUST001", "amount": 250.75, "transaction_date": recent,
		}})
		assert.Equal(t, true, again["existing_case"])
		assert.Equal(t, caseID, again["case_id"])
	})

	t.Run("should not read guard records", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.KVQuery, map[string]any{
			"table_name": "cases",
			"operation":  "get_item",
			"key":        map[string]any{"case_id": "TXN_GUARD#TXN-K"},
		})
		assert.False(t, res.Success)
		assert.Equal(t, capability.KindValidation, res.Kind)

		res, data := invoke(t, reg, capability.KVQuery, map[string]any{
			"table_name":        "cases",
			"operation":         "scan",
			"attributes_to_get": []string{"dispute_status"},
		})
		require.True(t, res.Success, res.Message)
		assert.Equal(t, float64(1), data["count"])
		items := data["items"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, map[string]any{"dispute_status": "FORWARDED_TO_ACQUIRER"}, items[0])
	})

	t.Run("should still write card records", func(t *testing.T) {
		res, _ := invoke(t, reg, capability.KVQuery, map[string]any{
			"table_name": "card_transactions",
			"operation":  "put_item",
			"item_data":  map[string]any{"customer_id": "CUST003", "composite_key": "CARD#5555", "card_type": "Visa"},
		})

		assert.True(t, res.Success, res.Message)
	})
}

func TestKVQuery(t *testing.T) {
	reg, _ := newRegistry(t)

	testCases := []struct {
		name  string
		args  map[string]any
		kind  capability.Kind
		count float64
	}{
		{
			name: "query card transactions by prefix",
			args: map[string]any{
				"table_name":    "card_transactions",
				"operation":     "query",
				"key_condition": map[string]any{"customer_id": "CUST001", "composite_key": map[string]any{"begins_with": "CARD#1234#"}},
			},
			count: 1,
		},
		{
			name: "query the transaction index",
			args: map[string]any{
				"table_name":    "card_transactions",
				"operation":     "query",
				"index_name":    "TransactionIndex",
				"key_condition": map[string]any{"transaction_id": "TXN001"},
			},
			count: 1,
		},
		{
			name: "scan with filter",
			args: map[string]any{
				"table_name":        "card_transactions",
				"operation":         "scan",
				"filter_expression": map[string]any{"card_type": "Amex"},
			},
			count: 1,
		},
		{
			name: "non-key attribute in key condition",
			args: map[string]any{
				"table_name":    "card_transactions",
				"operation":     "query",
				"key_condition": map[string]any{"customer_id": "CUST001", "card_type": "Visa"},
			},
			kind: capability.KindValidation,
		},
		{
			name: "unknown table",
			args: map[string]any{"table_name": "users", "operation": "scan"},
			kind: capability.KindValidation,
		},
		{
			name: "unknown operation",
			args: map[string]any{"table_name": "cases", "operation": "delete_item"},
			kind: capability.KindValidation,
		},
		{
			name: "unknown index",
			args: map[string]any{
				"table_name":    "card_transactions",
				"operation":     "query",
				"index_name":    "CustomerIndex",
				"key_condition": map[string]any{"customer_id": "CUST001"},
			},
			kind: capability.KindValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, data := invoke(t, reg, capability.KVQuery, tc.args)

			assert.Equal(t, tc.kind == "", res.Success, res.Message)
			assert.Equal(t, tc.kind, res.Kind)
			if res.Success {
				assert.Equal(t, tc.count, data["count"])
			}
		})
	}
}

func TestFailure_CarriesUnpersistedCase(t *testing.T) {
	c := dispute.Case{ID: "CASE-1", TransactionID: "TXN-1", Status: dispute.StatusResolvedCustomer}
	err := &dispute.PersistenceError{Case: c, Err: errors.New("write timed out")}

	res := capability.Failure(err)

	assert.False(t, res.Success)
	assert.Equal(t, capability.KindInternal, res.Kind)
	data := res.Data.(map[string]any)
	assert.Equal(t, "CASE-1", data["unpersisted_case"].(dispute.CaseView).CaseID)
}

func TestRetryCaseCreation(t *testing.T) {
	reg, _ := newRegistry(t)
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	unpersisted := dispute.NewCase("CASE-RETRY", dispute.Transaction{
		"transaction_id": "TXN-R", "customer_id": "CUST001", "card_id": "1234", "amount": "42.10",
	}, dispute.NewDecisionEngine().Decide(dispute.Transaction{"amount": "42.10"}, now), now)

	t.Run("should store the case as decided", func(t *testing.T) {
		res, data := invoke(t, reg, "retry_case_creation", map[string]any{"case": unpersisted.View()})

		require.True(t, res.Success, res.Message)
		assert.Equal(t, "CASE-RETRY", data["case_id"])
		assert.Equal(t, "RESOLVED_CUSTOMER", data["dispute_status"])
		assert.Equal(t, 42.1, data["credit_amount"])
		assert.Equal(t, false, data["existing_case"])

		got, _ := invoke(t, reg, "get_case", map[string]any{"case_id": "CASE-RETRY"})
		assert.True(t, got.Success)
	})

	t.Run("should return the stored case on a second retry", func(t *testing.T) {
		res, data := invoke(t, reg, "retry_case_creation", map[string]any{"case": unpersisted.View()})

		require.True(t, res.Success, res.Message)
		assert.Equal(t, "CASE-RETRY", data["case_id"])
	})

	t.Run("should reject a missing case", func(t *testing.T) {
		res, _ := invoke(t, reg, "retry_case_creation", map[string]any{})

		assert.False(t, res.Success)
		assert.Equal(t, capability.KindValidation, res.Kind)
	})
}

func TestKindOf(t *testing.T) {
	testCases := []struct {
		err  error
		kind capability.Kind
	}{
		{dispute.ErrDisputeInProgress, capability.KindConflict},
		{kv.ErrThrottling, capability.KindUnavailable},
		{card.ErrOwnershipMismatch, capability.KindConflict},
		{context.DeadlineExceeded, capability.KindUnavailable},
		{errors.New("boom"), capability.KindInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.kind, capability.KindOf(tc.err))
		})
	}
}
