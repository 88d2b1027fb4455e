package dispute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anupakum/MCP-Payment-idea/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultGuardLease    = 30 * time.Second
	DefaultClaimAttempts = 20
	DefaultClaimBackoff  = 50 * time.Millisecond
	DefaultListLimit     = 50
)

// immutableFields cannot be changed through UpdateCase. Derived fields are
// recomputed from status and credit type.
var immutableFields = map[string]bool{
	FieldCaseID:               true,
	FieldTransactionID:        true,
	FieldCustomerID:           true,
	FieldCardID:               true,
	FieldCreatedAt:            true,
	FieldUpdatedAt:            true,
	FieldDecisionReason:       true,
	FieldAutoDecided:          true,
	FieldCreditIssued:         true,
	FieldRequiresManualReview: true,
}

type Service struct {
	repo   CaseRepo
	engine DecisionEngine
	sink   EventSink

	now   func() time.Time
	newID func() string

	guardLease    time.Duration
	claimAttempts int
	claimBackoff  time.Duration
}

type Option func(*Service)

func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithDecisionEngine(e DecisionEngine) Option {
	return func(s *Service) { s.engine = e }
}

// WithGuardLease sets how long a guard whose case never appeared blocks
// other disputes of the same transaction.
func WithGuardLease(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.guardLease = d
		}
	}
}

func WithClaimRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.claimAttempts = attempts
		}
		if backoff > 0 {
			s.claimBackoff = backoff
		}
	}
}

func NewService(repo CaseRepo, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		engine:        NewDecisionEngine(),
		sink:          NopSink{},
		now:           func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:         uuid.NewString,
		guardLease:    DefaultGuardLease,
		claimAttempts: DefaultClaimAttempts,
		claimBackoff:  DefaultClaimBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessDispute returns the open case of the transaction or decides and
// stores a new one. At most one open case exists per transaction: creators
// race on the transaction guard and losers return the winner's case.
//
// When the decided case cannot be stored the error is a *PersistenceError
// carrying it, to be passed to RetryCreate.
func (s *Service) ProcessDispute(ctx context.Context, txn Transaction) (CaseResult, error) {
	txnID := txn.ID()
	if txnID == "" {
		return CaseResult{}, fmt.Errorf("%w: transaction_id is required", ErrValidation)
	}

	open, found, err := s.repo.GetOpenCaseForTransaction(ctx, txnID)
	if err != nil {
		return CaseResult{}, fmt.Errorf("get open case for transaction: %w", err)
	}
	if found {
		return s.existing(ctx, *open), nil
	}

	var takeoverFrom string
	latest, found, err := s.repo.GetByTransaction(ctx, txnID)
	if err != nil {
		return CaseResult{}, fmt.Errorf("get case by transaction: %w", err)
	}
	if found {
		if latest.IsOpen() {
			return s.existing(ctx, *latest), nil
		}
		takeoverFrom = latest.ID
	}

	now := s.now()
	decision := s.engine.Decide(txn, now)
	c := NewCase(s.newID(), txn, decision, now)

	holder, err := s.claim(ctx, c, takeoverFrom)
	if err != nil {
		return CaseResult{}, err
	}
	if holder != nil {
		return s.existing(ctx, *holder), nil
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return CaseResult{}, &PersistenceError{Case: c, Err: err}
	}

	metrics.DisputeDecisionsTotal.WithLabelValues(string(c.Status)).Inc()
	slog.InfoContext(ctx, "Dispute case created",
		"case_id", c.ID,
		"transaction_id", c.TransactionID,
		"dispute_status", c.Status,
		"age_days", decision.AgeDays,
		"amount_found", decision.AmountFound)
	s.publish(ctx, CaseCreated, c)

	return CaseResult{Case: c}, nil
}

// RetryCreate stores a case returned in a *PersistenceError without deciding
// again.
func (s *Service) RetryCreate(ctx context.Context, c Case) (CaseResult, error) {
	if c.ID == "" || c.TransactionID == "" {
		return CaseResult{}, fmt.Errorf("%w: case_id and transaction_id are required", ErrValidation)
	}

	stored, found, err := s.repo.Get(ctx, c.ID)
	if err != nil {
		return CaseResult{}, &PersistenceError{Case: c, Err: err}
	}
	if found {
		return CaseResult{Case: *stored}, nil
	}

	holder, err := s.claim(ctx, c, "")
	if err != nil {
		return CaseResult{}, err
	}
	if holder != nil {
		return s.existing(ctx, *holder), nil
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return CaseResult{}, &PersistenceError{Case: c, Err: err}
	}

	metrics.DisputeDecisionsTotal.WithLabelValues(string(c.Status)).Inc()
	slog.InfoContext(ctx, "Dispute case created on retry", "case_id", c.ID, "transaction_id", c.TransactionID)
	s.publish(ctx, CaseCreated, c)

	return CaseResult{Case: c}, nil
}

// claim takes the transaction guard for c. It returns the open case of a
// concurrent winner, or nil when c holds the guard.
func (s *Service) claim(ctx context.Context, c Case, takeoverFrom string) (*Case, error) {
	for range s.claimAttempts {
		err := s.repo.ClaimTransaction(ctx, c.TransactionID, c.ID, takeoverFrom)
		if err == nil {
			return nil, nil
		}
		if !errors.Is(err, ErrGuardHeld) {
			return nil, &PersistenceError{Case: c, Err: fmt.Errorf("claim transaction: %w", err)}
		}

		guard, found, err := s.repo.GetGuard(ctx, c.TransactionID)
		if err != nil {
			return nil, &PersistenceError{Case: c, Err: fmt.Errorf("get transaction guard: %w", err)}
		}
		if !found {
			continue
		}

		holder, found, err := s.repo.Get(ctx, guard.HolderCaseID)
		if err != nil {
			return nil, &PersistenceError{Case: c, Err: fmt.Errorf("get guard holder: %w", err)}
		}
		switch {
		case found && holder.IsOpen():
			return holder, nil
		case found:
			takeoverFrom = holder.ID
			continue
		case s.now().Sub(guard.ClaimedAt) > s.guardLease:
			slog.WarnContext(ctx, "Taking over expired transaction guard",
				"transaction_id", c.TransactionID,
				"holder_case_id", guard.HolderCaseID,
				"case_id", c.ID)
			takeoverFrom = guard.HolderCaseID
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.claimBackoff):
		}
	}
	return nil, fmt.Errorf("%w: transaction %s", ErrDisputeInProgress, c.TransactionID)
}

func (s *Service) existing(ctx context.Context, c Case) CaseResult {
	metrics.DisputeExistingCaseTotal.Inc()
	slog.InfoContext(ctx, "Open case already exists for transaction",
		"case_id", c.ID, "transaction_id", c.TransactionID, "dispute_status", c.Status)
	return CaseResult{Case: c, ExistingCase: true}
}

func (s *Service) GetCase(ctx context.Context, caseID string) (*Case, bool, error) {
	if caseID == "" {
		return nil, false, fmt.Errorf("%w: case_id is required", ErrValidation)
	}
	c, found, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, false, fmt.Errorf("get case: %w", err)
	}
	return c, found, nil
}

func (s *Service) ListCustomerCases(ctx context.Context, customerID string, limit int) ([]Case, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	cases, err := s.repo.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list cases by customer: %w", err)
	}
	return cases, nil
}

// UpdateCase changes mutable case fields and keeps the derived credit and
// review flags consistent with them. Status changes follow the transition
// table; final statuses never change.
func (s *Service) UpdateCase(ctx context.Context, caseID string, updates map[string]any) (*Case, error) {
	if caseID == "" {
		return nil, fmt.Errorf("%w: case_id is required", ErrValidation)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	for field := range updates {
		if immutableFields[field] {
			return nil, fmt.Errorf("%w: %s", ErrImmutableField, field)
		}
	}

	current, found, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	normalized, err := normalizeUpdates(*current, updates)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, caseID, current.Status, normalized)
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}

	s.publish(ctx, CaseUpdated, *updated)
	return updated, nil
}

// ApplyAcquirerOutcome records the result of the acquirer investigation of
// a forwarded case.
func (s *Service) ApplyAcquirerOutcome(ctx context.Context, caseID string, outcome AcquirerOutcome) (*Case, error) {
	current, found, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	next, err := ApplyAcquirerOutcome(*current, outcome, s.now())
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, caseID, StatusForwardedToAcquirer, outcomeUpdates(next))
	if err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}

	metrics.DisputeDecisionsTotal.WithLabelValues(string(updated.Status)).Inc()
	slog.InfoContext(ctx, "Acquirer outcome applied",
		"case_id", caseID, "outcome", outcome, "dispute_status", updated.Status)
	s.publish(ctx, CaseUpdated, *updated)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, kind CaseEventKind, c Case) {
	event := CaseEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Case:       c.View(),
		OccurredAt: s.now(),
	}
	if err := s.sink.PublishCaseEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish case event",
			"case_id", c.ID, "kind", kind, slog.Any("error", err))
	}
}

// normalizeUpdates validates status and credit changes against the current
// case and adds the derived fields they imply.
func normalizeUpdates(current Case, updates map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(updates)+3)
	for k, v := range updates {
		out[k] = v
	}

	if raw, ok := updates[FieldStatus]; ok {
		str, _ := raw.(string)
		status := Status(str)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown dispute_status %v", ErrValidation, raw)
		}
		if !current.Status.CanTransitionTo(status) {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
		}
		out[FieldStatus] = string(status)
		out[FieldRequiresManualReview] = status == StatusForwardedToAcquirer
	}

	_, typeSet := updates[FieldCreditType]
	_, amountSet := updates[FieldCreditAmount]
	if !typeSet && !amountSet {
		return out, nil
	}

	creditType := current.CreditType
	if typeSet {
		raw := updates[FieldCreditType]
		str, isString := raw.(string)
		if raw != nil && !isString {
			return nil, fmt.Errorf("%w: credit_type must be a string or null", ErrValidation)
		}
		creditType = CreditType(str)
		if !creditType.Valid() {
			return nil, fmt.Errorf("%w: unknown credit_type %q", ErrValidation, str)
		}
	}

	amount := current.CreditAmount
	if amountSet {
		raw := updates[FieldCreditAmount]
		if raw == nil {
			amount = decimal.NullDecimal{}
		} else {
			d, ok := parseAmount(raw)
			if !ok {
				return nil, fmt.Errorf("%w: invalid credit_amount %v", ErrValidation, raw)
			}
			amount = decimal.NewNullDecimal(d)
		}
	}

	switch {
	case creditType == CreditNone && amount.Valid && amountSet:
		return nil, fmt.Errorf("%w: credit_amount requires a credit_type", ErrValidation)
	case creditType == CreditNone:
		if current.CreditType != CreditNone {
			out[FieldCreditReversed] = true
		}
		amount = decimal.NullDecimal{}
	case !amount.Valid:
		amount = decimal.NewNullDecimal(current.TransactionAmount)
	}

	out[FieldCreditType] = creditTypeValue(creditType)
	out[FieldCreditAmount] = amount
	out[FieldCreditIssued] = creditType != CreditNone
	return out, nil
}
