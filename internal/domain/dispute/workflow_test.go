package dispute_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/cases"
	"github.com/anupakum/MCP-Payment-idea/internal/repo/kvstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkflow(t *testing.T, opts ...dispute.Option) (*dispute.Service, dispute.CaseRepo) {
	t.Helper()
	repo := cases.NewRepository(kv.NewQueryBuilder(memory.New()))
	opts = append([]dispute.Option{dispute.WithClaimRetry(500, time.Millisecond)}, opts...)
	return dispute.NewService(repo, opts...), repo
}

func transaction(id string, amount string) dispute.Transaction {
	return dispute.Transaction{
		"transaction_id":   id,
		"customer_id":      "CUST-1",
		"card_id":          "4111",
		"transaction_date": time.Now().UTC().AddDate(0, 0, -10).Format(time.RFC3339),
		"amount":           amount,
	}
}

func TestProcessDispute_SequentialDisputesOfOpenCase(t *testing.T) {
	ctx := context.Background()
	service, _ := newWorkflow(t)

	first, err := service.ProcessDispute(ctx, transaction("TXN-1", "500.00"))
	require.NoError(t, err)
	second, err := service.ProcessDispute(ctx, transaction("TXN-1", "500.00"))
	require.NoError(t, err)

	assert.False(t, first.ExistingCase)
	assert.True(t, second.ExistingCase)
	assert.Equal(t, first.Case.ID, second.Case.ID)
	assert.Equal(t, dispute.StatusForwardedToAcquirer, second.Case.Status)
}

func TestProcessDispute_NewCaseAfterClosedCase(t *testing.T) {
	ctx := context.Background()
	service, _ := newWorkflow(t)

	// given
	first, err := service.ProcessDispute(ctx, transaction("TXN-1", "500.00"))
	require.NoError(t, err)
	_, err = service.ApplyAcquirerOutcome(ctx, first.Case.ID, dispute.OutcomeWithdrawn)
	require.NoError(t, err)

	// when
	second, err := service.ProcessDispute(ctx, transaction("TXN-1", "500.00"))

	// then
	require.NoError(t, err)
	assert.False(t, second.ExistingCase)
	assert.NotEqual(t, first.Case.ID, second.Case.ID)
}

func TestUpdateCase_WithdrawnCaseStaysClosed(t *testing.T) {
	ctx := context.Background()
	service, repo := newWorkflow(t)

	// given a withdrawn case and its successor for the same transaction
	first, err := service.ProcessDispute(ctx, transaction("TXN-1", "500.00"))
	require.NoError(t, err)
	_, err = service.ApplyAcquirerOutcome(ctx, first.Case.ID, dispute.OutcomeWithdrawn)
	require.NoError(t, err)
	second, err := service.ProcessDispute(ctx, transaction("TXN-1", "500.00"))
	require.NoError(t, err)

	// when
	_, err = service.UpdateCase(ctx, first.Case.ID, map[string]any{"dispute_status": "FORWARDED_TO_ACQUIRER"})

	// then
	assert.ErrorIs(t, err, dispute.ErrInvalidTransition)
	stored, found, err := repo.Get(ctx, first.Case.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, dispute.StatusClosed, stored.Status)

	open, found, err := repo.GetOpenCaseForTransaction(ctx, "TXN-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.Case.ID, open.ID)
}

func TestUpdateCase_ResolvedForCustomerIsFinal(t *testing.T) {
	ctx := context.Background()
	service, _ := newWorkflow(t)

	// given
	res, err := service.ProcessDispute(ctx, transaction("TXN-2", "60.00"))
	require.NoError(t, err)
	require.Equal(t, dispute.StatusResolvedCustomer, res.Case.Status)

	// when
	_, err = service.UpdateCase(ctx, res.Case.ID, map[string]any{"dispute_status": "FORWARDED_TO_ACQUIRER"})

	// then
	assert.ErrorIs(t, err, dispute.ErrInvalidTransition)
}

func TestProcessDispute_ConcurrentDisputesCreateOneCase(t *testing.T) {
	ctx := context.Background()
	service, repo := newWorkflow(t)

	const workers = 20
	var (
		wg      sync.WaitGroup
		results = make([]dispute.CaseResult, workers)
		errs    = make([]error, workers)
	)
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], errs[i] = service.ProcessDispute(ctx, transaction("TXN-RACE", "250.00"))
		}()
	}
	close(start)
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

	stored, err := repo.ListByCustomer(ctx, "CUST-1", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestProcessDispute_RoundTripKeepsDecimals(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 15, 9, 30, 0, 123456789, time.UTC)
	service, repo := newWorkflow(t, dispute.WithClock(func() time.Time { return clock }))

	res, err := service.ProcessDispute(ctx, transaction("TXN-1", "$99.99"))
	require.NoError(t, err)

	stored, found, err := repo.Get(ctx, res.Case.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "99.99", stored.CreditAmount.Decimal.String())
	assert.Equal(t, dispute.CreditPermanent, stored.CreditType)
	assert.True(t, stored.CreditIssued)
	assert.False(t, stored.RequiresManualReview)
	assert.Equal(t, res.Case.DecisionReason, stored.DecisionReason)
	assert.Equal(t, res.Case.CreatedAt.UnixNano(), stored.CreatedAt.UnixNano())
	assert.Equal(t, res.Case.UpdatedAt.UnixNano(), stored.UpdatedAt.UnixNano())
	assert.True(t, res.Case.CreatedAt.Equal(stored.CreatedAt))
}
