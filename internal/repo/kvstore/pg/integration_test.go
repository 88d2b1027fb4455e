//go:build integration

package pg_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/cases"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/transactions"
	"github.com/anupakum/MCP-Payment-idea/internal/seed"
	"github.com/anupakum/MCP-Payment-idea/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testinfra.TestSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testinfra.NewTestSuite(ctx, testinfra.SuiteOptions{WithPostgres: true})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	suite.Cleanup(ctx)
	os.Exit(code)
}

func newQueryBuilder(t *testing.T) *kv.QueryBuilder {
	t.Helper()
	store, err := suite.Postgres.Store(t.Context())
	require.NoError(t, err)
	return kv.NewQueryBuilder(store)
}

func TestPgStore_SeededLookups(t *testing.T) {
	ctx := t.Context()
	repo := transactions.NewRepository(newQueryBuilder(t))
	now := time.Now()

	// given
	_, err := seed.Load(ctx, repo, seed.Sample(now))
	require.NoError(t, err)
	verifier := card.NewVerifier(repo)

	// when
	c, err := verifier.VerifyCard(ctx, "CUST001", "1234")
	require.NoError(t, err)
	txn, err := verifier.VerifyTransaction(ctx, "TXN003", "CUST002", "5678")
	require.NoError(t, err)

	// then
	assert.Equal(t, "Visa", c.CardType)
	assert.Len(t, c.Transactions, 2)
	assert.Equal(t, "45.00", txn["amount"])
}

func TestPgStore_ConcurrentDisputesCreateOneCase(t *testing.T) {
	ctx := t.Context()
	caseRepo := cases.NewRepository(newQueryBuilder(t))
	service := dispute.NewService(caseRepo, dispute.WithClaimRetry(200, 5*time.Millisecond))

	txn := dispute.Transaction{
		"transaction_id":   "TXN-RACE",
		"customer_id":      "CUST-PG",
		"card_id":          "4111",
		"transaction_date": time.Now().UTC().AddDate(0, 0, -3).Format(time.RFC3339),
		"amount":           "640.25",
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]dispute.CaseResult, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = service.ProcessDispute(ctx, txn)
		}()
	}
	wg.Wait()

	created := 0
	for i := range workers {
		require.NoError(t, errs[i])
		if !results[i].ExistingCase {
			created++
		}
		assert.Equal(t, results[0].Case.ID, results[i].Case.ID)
	}
	assert.Equal(t, 1, created)

	stored, err := caseRepo.ListByCustomer(ctx, "CUST-PG", 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "640.25", stored[0].TransactionAmount.StringFixed(2))
	assert.Equal(t, dispute.StatusForwardedToAcquirer, stored[0].Status)
}

func TestPgStore_OutcomeClosesCase(t *testing.T) {
	ctx := t.Context()
	service := dispute.NewService(cases.NewRepository(newQueryBuilder(t)))

	res, err := service.ProcessDispute(ctx, dispute.Transaction{
		"transaction_id":   "TXN-1",
		"customer_id":      "CUST-PG",
		"transaction_date": time.Now().UTC().Format(time.RFC3339),
		"amount":           500,
	})
	require.NoError(t, err)

	updated, err := service.ApplyAcquirerOutcome(ctx, res.Case.ID, dispute.OutcomeMerchantWon)
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusResolvedAcquirer, updated.Status)
	assert.True(t, updated.CreditReversed)

	again, err := service.ProcessDispute(ctx, dispute.Transaction{
		"transaction_id": "TXN-1",
		"customer_id":    "CUST-PG",
		"amount":         500,
	})
	require.NoError(t, err)
	assert.False(t, again.ExistingCase)
	assert.NotEqual(t, res.Case.ID, again.Case.ID)
}
