package dispute

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingSink struct {
	events []CaseEvent
}

func (s *recordingSink) PublishCaseEvent(_ context.Context, e CaseEvent) error {
	s.events = append(s.events, e)
	return nil
}

func disputeService(t *testing.T, opts ...Option) (*Service, *MockCaseRepo, *recordingSink) {
	t.Helper()

	mockRepo := NewMockCaseRepo(gomock.NewController(t))
	sink := &recordingSink{}
	opts = append([]Option{
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { return "CASE-NEW" }),
		WithEventSink(sink),
		WithClaimRetry(3, time.Millisecond),
	}, opts...)

	return NewService(mockRepo, opts...), mockRepo, sink
}

func forwardedTxn() Transaction {
	return Transaction{
		"transaction_id":   "TXN-1",
		"customer_id":      "CUST-1",
		"card_id":          "4111",
		"transaction_date": daysAgo(3),
		"amount":           "250.00",
	}
}

func TestService_ProcessDispute(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject transaction without id", func(t *testing.T) {
		service, _, _ := disputeService(t)

		_, err := service.ProcessDispute(ctx, Transaction{"amount": 10})

		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("should return open case without deciding again", func(t *testing.T) {
		// given
		service, mockRepo, sink := disputeService(t)
		open := forwardedCase()
		mockRepo.EXPECT().GetOpenCaseForTransaction(ctx, "TXN-1").Return(&open, true, nil)

		// when
		res, err := service.ProcessDispute(ctx, forwardedTxn())

		// then
		require.NoError(t, err)
		assert.True(t, res.ExistingCase)
		assert.Equal(t, "CASE-1", res.Case.ID)
		assert.Empty(t, sink.events)
	})

	t.Run("should decide and create a new case", func(t *testing.T) {
		// given
		service, mockRepo, sink := disputeService(t)
		gomock.InOrder(
			mockRepo.EXPECT().GetOpenCaseForTransaction(ctx, "TXN-1").Return(nil, false, nil),
			mockRepo.EXPECT().GetByTransaction(ctx, "TXN-1").Return(nil, false, nil),
			mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "").Return(nil),
			mockRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil),
		)

		// when
		res, err := service.ProcessDispute(ctx, forwardedTxn())

		// then
		require.NoError(t, err)
		assert.False(t, res.ExistingCase)
		assert.Equal(t, "CASE-NEW", res.Case.ID)
		assert.Equal(t, StatusForwardedToAcquirer, res.Case.Status)
		assert.True(t, res.Case.RequiresManualReview)
		assert.Equal(t, "250", res.Case.CreditAmount.Decimal.String())
		require.Len(t, sink.events, 1)
		assert.Equal(t, CaseCreated, sink.events[0].Kind)
	})

	t.Run("should take over the guard of a closed previous case", func(t *testing.T) {
		// given
		service, mockRepo, _ := disputeService(t)
		closed := forwardedCase()
		closed.Status = StatusClosed
		mockRepo.EXPECT().GetOpenCaseForTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().GetByTransaction(ctx, "TXN-1").Return(&closed, true, nil)
		mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "CASE-1").Return(nil)
		mockRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		// when
		res, err := service.ProcessDispute(ctx, forwardedTxn())

		// then
		require.NoError(t, err)
		assert.Equal(t, "CASE-NEW", res.Case.ID)
	})

	t.Run("should return the concurrent winner's case", func(t *testing.T) {
		// given
		service, mockRepo, _ := disputeService(t)
		winner := forwardedCase()
		mockRepo.EXPECT().GetOpenCaseForTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().GetByTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "").Return(ErrGuardHeld)
		mockRepo.EXPECT().GetGuard(ctx, "TXN-1").Return(&Guard{TransactionID: "TXN-1", HolderCaseID: "CASE-1", ClaimedAt: now}, true, nil)
		mockRepo.EXPECT().Get(ctx, "CASE-1").Return(&winner, true, nil)

		// when
		res, err := service.ProcessDispute(ctx, forwardedTxn())

		// then
		require.NoError(t, err)
		assert.True(t, res.ExistingCase)
		assert.Equal(t, "CASE-1", res.Case.ID)
	})

	t.Run("should take over an expired guard whose case never appeared", func(t *testing.T) {
		// given
		service, mockRepo, _ := disputeService(t, WithGuardLease(time.Second))
		stale := &Guard{TransactionID: "TXN-1", HolderCaseID: "CASE-LOST", ClaimedAt: now.Add(-time.Minute)}
		mockRepo.EXPECT().GetOpenCaseForTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().GetByTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "").Return(ErrGuardHeld)
		mockRepo.EXPECT().GetGuard(ctx, "TXN-1").Return(stale, true, nil)
		mockRepo.EXPECT().Get(ctx, "CASE-LOST").Return(nil, false, nil)
		mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "CASE-LOST").Return(nil)
		mockRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		// when
		res, err := service.ProcessDispute(ctx, forwardedTxn())

		// then
		require.NoError(t, err)
		assert.False(t, res.ExistingCase)
	})

	t.Run("should give up while the holder is still creating its case", func(t *testing.T) {
		// given
		service, mockRepo, _ := disputeService(t)
		fresh := &Guard{TransactionID: "TXN-1", HolderCaseID: "CASE-OTHER", ClaimedAt: now}
		mockRepo.EXPECT().GetOpenCaseForTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().GetByTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "").Return(ErrGuardHeld).Times(3)
		mockRepo.EXPECT().GetGuard(ctx, "TXN-1").Return(fresh, true, nil).Times(3)
		mockRepo.EXPECT().Get(ctx, "CASE-OTHER").Return(nil, false, nil).Times(3)

		// when
		_, err := service.ProcessDispute(ctx, forwardedTxn())

		// then
		assert.ErrorIs(t, err, ErrDisputeInProgress)
	})

	t.Run("should carry the decided case when persisting fails and reuse it on retry", func(t *testing.T) {
		// given
		service, mockRepo, _ := disputeService(t)
		storeErr := errors.New("connection reset")
		mockRepo.EXPECT().GetOpenCaseForTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().GetByTransaction(ctx, "TXN-1").Return(nil, false, nil)
		mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "").Return(nil)
		mockRepo.EXPECT().Create(ctx, gomock.Any()).Return(storeErr)

		// when
		_, err := service.ProcessDispute(ctx, forwardedTxn())

		// then
		var perr *PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, storeErr)
		assert.Equal(t, "CASE-NEW", perr.Case.ID)

		// given a later retry with a different clock
		retryService := NewService(mockRepo, WithClock(func() time.Time { return now.AddDate(2, 0, 0) }))
		mockRepo.EXPECT().Get(ctx, "CASE-NEW").Return(nil, false, nil)
		mockRepo.EXPECT().ClaimTransaction(ctx, "TXN-1", "CASE-NEW", "").Return(nil)
		mockRepo.EXPECT().Create(ctx, perr.Case).Return(nil)

		// when
		res, err := retryService.RetryCreate(ctx, perr.Case)

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusForwardedToAcquirer, res.Case.Status)
		assert.Equal(t, perr.Case.DecisionReason, res.Case.DecisionReason)
	})
}

func TestService_UpdateCase(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject immutable fields before reading", func(t *testing.T) {
		service, _, _ := disputeService(t)

		for _, field := range []string{"case_id", "transaction_id", "customer_id", "created_at", "decision_reason", "credit_issued"} {
			_, err := service.UpdateCase(ctx, "CASE-1", map[string]any{field: "x"})
			assert.ErrorIs(t, err, ErrImmutableField, field)
		}
	})

	t.Run("should report missing case", func(t *testing.T) {
		service, mockRepo, _ := disputeService(t)
		mockRepo.EXPECT().Get(ctx, "CASE-404").Return(nil, false, nil)

		_, err := service.UpdateCase(ctx, "CASE-404", map[string]any{"notes": "x"})

		assert.ErrorIs(t, err, ErrCaseNotFound)
	})

	testCases := []struct {
		name    string
		updates map[string]any
		expect  map[string]any
		err     error
	}{
		{
			name:    "status change derives manual review",
			updates: map[string]any{"dispute_status": "CLOSED"},
			expect:  map[string]any{"dispute_status": "CLOSED", "requires_manual_review": false},
		},
		{
			name:    "clearing credit type reverses credit",
			updates: map[string]any{"credit_type": nil},
			expect: map[string]any{
				"credit_type":     nil,
				"credit_amount":   decimal.NullDecimal{},
				"credit_issued":   false,
				"credit_reversed": true,
			},
		},
		{
			name:    "new credit amount keeps credit type",
			updates: map[string]any{"credit_amount": "120.5"},
			expect: map[string]any{
				"credit_type":   "TEMPORARY",
				"credit_amount": decimal.NewNullDecimal(decimal.RequireFromString("120.5")),
				"credit_issued": true,
			},
		},
		{
			name:    "unknown status",
			updates: map[string]any{"dispute_status": "PENDING"},
			err:     ErrValidation,
		},
		{
			name:    "forwarded case cannot be resolved for the customer",
			updates: map[string]any{"dispute_status": "RESOLVED_CUSTOMER"},
			err:     ErrInvalidTransition,
		},
		{
			name:    "keeping the status is allowed",
			updates: map[string]any{"dispute_status": "FORWARDED_TO_ACQUIRER"},
			expect:  map[string]any{"dispute_status": "FORWARDED_TO_ACQUIRER", "requires_manual_review": true},
		},
		{
			name:    "unknown credit type",
			updates: map[string]any{"credit_type": "FOREVER"},
			err:     ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service, mockRepo, sink := disputeService(t)
			current := forwardedCase()
			mockRepo.EXPECT().Get(ctx, "CASE-1").Return(&current, true, nil)

			var sent map[string]any
			if tc.err == nil {
				mockRepo.EXPECT().Update(ctx, "CASE-1", StatusForwardedToAcquirer, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, _ Status, updates map[string]any) (*Case, error) {
						sent = updates
						return &current, nil
					})
			}

			// when
			_, err := service.UpdateCase(ctx, "CASE-1", tc.updates)

			// then
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, sent)
			require.Len(t, sink.events, 1)
			assert.Equal(t, CaseUpdated, sink.events[0].Kind)
		})
	}
}

func TestService_UpdateCaseStatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep final statuses frozen", func(t *testing.T) {
		for _, final := range []Status{StatusRejectedTimeBarred, StatusResolvedCustomer, StatusResolvedAcquirer, StatusClosed} {
			for _, next := range []Status{StatusForwardedToAcquirer, StatusResolvedCustomer, StatusClosed} {
				if next == final {
					continue
				}
				// given
				service, mockRepo, sink := disputeService(t)
				current := forwardedCase()
				current.Status = final
				mockRepo.EXPECT().Get(ctx, "CASE-1").Return(&current, true, nil)

				// when
				_, err := service.UpdateCase(ctx, "CASE-1", map[string]any{"dispute_status": string(next)})

				// then
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s to %s", final, next)
				assert.Empty(t, sink.events)
			}
		}
	})

	t.Run("should surface a status that moved on after the read", func(t *testing.T) {
		// given
		service, mockRepo, sink := disputeService(t)
		current := forwardedCase()
		mockRepo.EXPECT().Get(ctx, "CASE-1").Return(&current, true, nil)
		mockRepo.EXPECT().Update(ctx, "CASE-1", StatusForwardedToAcquirer, gomock.Any()).
			Return(nil, fmt.Errorf("%w: case CASE-1 is no longer FORWARDED_TO_ACQUIRER", ErrInvalidTransition))

		// when
		_, err := service.UpdateCase(ctx, "CASE-1", map[string]any{"dispute_status": "CLOSED"})

		// then
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Empty(t, sink.events)
	})
}

func TestService_ApplyAcquirerOutcome(t *testing.T) {
	ctx := context.Background()

	t.Run("should store the resolved case", func(t *testing.T) {
		// given
		service, mockRepo, _ := disputeService(t)
		current := forwardedCase()
		mockRepo.EXPECT().Get(ctx, "CASE-1").Return(&current, true, nil)
		mockRepo.EXPECT().Update(ctx, "CASE-1", StatusForwardedToAcquirer, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ Status, updates map[string]any) (*Case, error) {
				assert.Equal(t, "RESOLVED_ACQUIRER", updates["dispute_status"])
				assert.Nil(t, updates["credit_type"])
				assert.Equal(t, true, updates["credit_reversed"])
				resolved := current
				resolved.Status = StatusResolvedAcquirer
				return &resolved, nil
			})

		// when
		got, err := service.ApplyAcquirerOutcome(ctx, "CASE-1", OutcomeMerchantWon)

		// then
		require.NoError(t, err)
		assert.Equal(t, StatusResolvedAcquirer, got.Status)
	})

	t.Run("should refuse closed cases", func(t *testing.T) {
		service, mockRepo, _ := disputeService(t)
		current := forwardedCase()
		current.Status = StatusRejectedTimeBarred
		mockRepo.EXPECT().Get(ctx, "CASE-1").Return(&current, true, nil)

		_, err := service.ApplyAcquirerOutcome(ctx, "CASE-1", OutcomeCustomerWon)

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("should not overwrite a case resolved concurrently", func(t *testing.T) {
		// given
		service, mockRepo, sink := disputeService(t)
		current := forwardedCase()
		mockRepo.EXPECT().Get(ctx, "CASE-1").Return(&current, true, nil)
		mockRepo.EXPECT().Update(ctx, "CASE-1", StatusForwardedToAcquirer, gomock.Any()).
			Return(nil, fmt.Errorf("%w: case CASE-1 is no longer FORWARDED_TO_ACQUIRER", ErrInvalidTransition))

		// when
		_, err := service.ApplyAcquirerOutcome(ctx, "CASE-1", OutcomeCustomerWon)

		// then
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Empty(t, sink.events)
	})
}
