// Package cases stores dispute cases in the cases table. Besides cases the
// table holds one guard record per disputed transaction, keyed
// TXN_GUARD#<transaction_id>. Guards carry no transaction_id or customer_id
// attribute, so they never appear in the secondary indexes.
package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
)

var _ dispute.CaseRepo = (*repo)(nil)

// keyFields cannot be changed once a case is stored.
var keyFields = []string{
	dispute.FieldCaseID,
	dispute.FieldTransactionID,
	dispute.FieldCustomerID,
	dispute.FieldCreatedAt,
}

type repo struct {
	qb  *kv.QueryBuilder
	now func() time.Time
}

type Option func(*repo)

// WithClock sets the clock stamped on transaction guards.
func WithClock(now func() time.Time) Option {
	return func(r *repo) { r.now = now }
}

func NewRepository(qb *kv.QueryBuilder, opts ...Option) dispute.CaseRepo {
	r := &repo{qb: qb, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repo) Create(ctx context.Context, c dispute.Case) error {
	_, err := r.qb.Execute(ctx, kv.Descriptor{
		Table:     kv.Cases,
		Verb:      kv.PutItem,
		Item:      caseItem(c),
		Condition: &kv.Condition{IfNotExists: true},
	})
	if err != nil {
		if errors.Is(err, kv.ErrConditionFailed) {
			return fmt.Errorf("%w: case %s already exists", dispute.ErrPersistence, c.ID)
		}
		return fmt.Errorf("put case: %w", err)
	}
	return nil
}

func (r *repo) Get(ctx context.Context, caseID string) (*dispute.Case, bool, error) {
	if dispute.IsGuardKey(caseID) {
		return nil, false, nil
	}
	res, err := r.qb.Execute(ctx, kv.Descriptor{
		Table: kv.Cases,
		Verb:  kv.GetItem,
		Key:   map[string]any{dispute.FieldCaseID: caseID},
	})
	if err != nil {
		return nil, false, fmt.Errorf("get case: %w", err)
	}
	if !res.Found || isGuard(res.First()) {
		return nil, false, nil
	}
	c, err := caseFromItem(res.First())
	if err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

// GetByTransaction returns the most recently created case of a transaction.
func (r *repo) GetByTransaction(ctx context.Context, transactionID string) (*dispute.Case, bool, error) {
	kc := kv.Partition(dispute.FieldTransactionID, transactionID)
	res, err := r.qb.Execute(ctx, kv.Descriptor{
		Table:        kv.Cases,
		Verb:         kv.Query,
		Index:        kv.TransactionIndex,
		KeyCondition: &kc,
		Descending:   true,
		Limit:        1,
	})
	if err != nil {
		return nil, false, fmt.Errorf("query cases by transaction: %w", err)
	}
	if res.Count == 0 {
		return nil, false, nil
	}
	c, err := caseFromItem(res.First())
	if err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (r *repo) GetOpenCaseForTransaction(ctx context.Context, transactionID string) (*dispute.Case, bool, error) {
	c, found, err := r.GetByTransaction(ctx, transactionID)
	if err != nil || !found {
		return nil, false, err
	}
	if !c.IsOpen() {
		return nil, false, nil
	}
	return c, true, nil
}

func (r *repo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]dispute.Case, error) {
	if limit <= 0 {
		limit = dispute.DefaultListLimit
	}
	kc := kv.Partition(dispute.FieldCustomerID, customerID)
	res, err := r.qb.Execute(ctx, kv.Descriptor{
		Table:        kv.Cases,
		Verb:         kv.Query,
		Index:        kv.CustomerIndex,
		KeyCondition: &kc,
		Descending:   true,
		Limit:        limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query cases by customer: %w", err)
	}

	cases := make([]dispute.Case, 0, res.Count)
	for _, item := range res.Items {
		c, err := caseFromItem(item)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func (r *repo) Update(ctx context.Context, caseID string, from dispute.Status, updates map[string]any) (*dispute.Case, error) {
	for _, field := range keyFields {
		if _, ok := updates[field]; ok {
			return nil, fmt.Errorf("%w: %s", dispute.ErrImmutableField, field)
		}
	}
	if dispute.IsGuardKey(caseID) {
		return nil, fmt.Errorf("%w: %s", dispute.ErrCaseNotFound, caseID)
	}

	res, err := r.qb.Execute(ctx, kv.Descriptor{
		Table:     kv.Cases,
		Verb:      kv.UpdateItem,
		Key:       map[string]any{dispute.FieldCaseID: caseID},
		Updates:   updates,
		Condition: &kv.Condition{Attribute: dispute.FieldStatus, OneOf: []any{string(from)}},
	})
	if err != nil {
		switch {
		case errors.Is(err, kv.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", dispute.ErrCaseNotFound, caseID)
		case errors.Is(err, kv.ErrConditionFailed):
			return nil, fmt.Errorf("%w: case %s is no longer %s", dispute.ErrInvalidTransition, caseID, from)
		case errors.Is(err, kv.ErrValidation):
			return nil, fmt.Errorf("%w: %w", dispute.ErrValidation, err)
		default:
			return nil, fmt.Errorf("update case: %w", err)
		}
	}

	c, err := caseFromItem(res.First())
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) ClaimTransaction(ctx context.Context, transactionID, holderCaseID, takeoverFrom string) error {
	allowed := []any{holderCaseID}
	if takeoverFrom != "" && takeoverFrom != holderCaseID {
		allowed = append(allowed, takeoverFrom)
	}

	_, err := r.qb.Execute(ctx, kv.Descriptor{
		Table: kv.Cases,
		Verb:  kv.PutItem,
		Item: map[string]any{
			dispute.FieldCaseID:      guardKey(transactionID),
			attrRecordType:           recordTypeGuard,
			attrGuardedTransactionID: transactionID,
			attrHolderCaseID:         holderCaseID,
			attrClaimedAt:            kv.FormatTime(r.now()),
		},
		Condition: &kv.Condition{IfNotExists: true, Attribute: attrHolderCaseID, OneOf: allowed},
	})
	if err != nil {
		if errors.Is(err, kv.ErrConditionFailed) {
			return dispute.ErrGuardHeld
		}
		return fmt.Errorf("put transaction guard: %w", err)
	}
	return nil
}

func (r *repo) GetGuard(ctx context.Context, transactionID string) (*dispute.Guard, bool, error) {
	res, err := r.qb.Execute(ctx, kv.Descriptor{
		Table: kv.Cases,
		Verb:  kv.GetItem,
		Key:   map[string]any{dispute.FieldCaseID: guardKey(transactionID)},
	})
	if err != nil {
		return nil, false, fmt.Errorf("get transaction guard: %w", err)
	}
	if !res.Found {
		return nil, false, nil
	}
	g, err := guardFromItem(res.First())
	if err != nil {
		return nil, false, err
	}
	return &g, true, nil
}
