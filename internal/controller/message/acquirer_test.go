package message

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/messaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomeServiceStub struct {
	applyErr error
	current  *dispute.Case
	applied  []dispute.AcquirerOutcome
}

func (s *outcomeServiceStub) GetCase(context.Context, string) (*dispute.Case, bool, error) {
	return s.current, s.current != nil, nil
}

func (s *outcomeServiceStub) ApplyAcquirerOutcome(_ context.Context, caseID string, o dispute.AcquirerOutcome) (*dispute.Case, error) {
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	s.applied = append(s.applied, o)
	return &dispute.Case{ID: caseID, Status: dispute.StatusResolvedAcquirer, AcquirerOutcome: o}, nil
}

func envelope(t *testing.T, payload any) []byte {
	t.Helper()
	env, err := messaging.NewEnvelope("CASE-1", MessageTypeAcquirerOutcome, payload)
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return b
}

func TestAcquirerOutcomeController_HandleMessage(t *testing.T) {
	valid := AcquirerOutcome{CaseID: "CASE-1", Outcome: "customer_won"}

	testCases := []struct {
		name      string
		stub      *outcomeServiceStub
		value     []byte
		permanent bool
		wantErr   bool
	}{
		{
			name:  "applies outcome",
			stub:  &outcomeServiceStub{},
			value: envelope(t, valid),
		},
		{
			name: "acknowledges a redelivered outcome",
			stub: &outcomeServiceStub{
				applyErr: dispute.ErrInvalidTransition,
				current:  &dispute.Case{ID: "CASE-1", AcquirerOutcome: dispute.OutcomeCustomerWon},
			},
			value: envelope(t, valid),
		},
		{
			name: "conflicting outcome is permanent",
			stub: &outcomeServiceStub{
				applyErr: dispute.ErrInvalidTransition,
				current:  &dispute.Case{ID: "CASE-1", AcquirerOutcome: dispute.OutcomeMerchantWon},
			},
			value:     envelope(t, valid),
			wantErr:   true,
			permanent: true,
		},
		{
			name:      "malformed envelope is permanent",
			stub:      &outcomeServiceStub{},
			value:     []byte("not json"),
			wantErr:   true,
			permanent: true,
		},
		{
			name:      "unexpected message type is permanent",
			stub:      &outcomeServiceStub{},
			value:     []byte(`{"event_id":"e-1","type":"case.created","payload":{"case_id":"CASE-1"}}`),
			wantErr:   true,
			permanent: true,
		},
		{
			name:      "unknown outcome is permanent",
			stub:      &outcomeServiceStub{},
			value:     envelope(t, AcquirerOutcome{CaseID: "CASE-1", Outcome: "draw"}),
			wantErr:   true,
			permanent: true,
		},
		{
			name:      "missing case is permanent",
			stub:      &outcomeServiceStub{applyErr: dispute.ErrCaseNotFound},
			value:     envelope(t, valid),
			wantErr:   true,
			permanent: true,
		},
		{
			name:    "store failure is retried",
			stub:    &outcomeServiceStub{applyErr: errors.New("throttled")},
			value:   envelope(t, valid),
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctrl := NewAcquirerOutcomeController(tc.stub)

			// when
			err := ctrl.HandleMessage(context.Background(), []byte("CASE-1"), tc.value)

			// then
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.permanent, errors.Is(err, messaging.ErrPermanent))
		})
	}
}
