// Package transactions reads customer cards and card transactions from the
// card transactions table.
package transactions

import (
	"context"
	"fmt"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
)

var _ card.Repo = (*repo)(nil)

type repo struct {
	qb *kv.QueryBuilder
}

func NewRepository(qb *kv.QueryBuilder) card.Repo {
	return &repo{qb: qb}
}

func (r *repo) ListCustomerRecords(ctx context.Context, customerID string) ([]card.Record, error) {
	kc := kv.Partition(kv.AttrCustomerID, customerID)
	res, err := r.qb.Execute(ctx, kv.Descriptor{
		Table:        kv.CardTransactions,
		Verb:         kv.Query,
		KeyCondition: &kc,
	})
	if err != nil {
		return nil, fmt.Errorf("query customer records: %w", err)
	}
	return records(res), nil
}

// GetCardRecords returns the card record followed by the card's
// transactions in composite key order.
func (r *repo) GetCardRecords(ctx context.Context, customerID, cardNumber string) ([]card.Record, error) {
	cardRes, err := r.qb.Execute(ctx, kv.Descriptor{
		Table: kv.CardTransactions,
		Verb:  kv.GetItem,
		Key: map[string]any{
			kv.AttrCustomerID:   customerID,
			kv.AttrCompositeKey: card.CardKey(cardNumber),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get card record: %w", err)
	}

	kc := kv.Partition(kv.AttrCustomerID, customerID).
		SortBeginsWith(kv.AttrCompositeKey, card.TransactionPrefix(cardNumber))
	txnRes, err := r.qb.Execute(ctx, kv.Descriptor{
		Table:        kv.CardTransactions,
		Verb:         kv.Query,
		KeyCondition: &kc,
	})
	if err != nil {
		return nil, fmt.Errorf("query card transactions: %w", err)
	}

	return append(records(cardRes), records(txnRes)...), nil
}

func (r *repo) GetTransaction(ctx context.Context, transactionID string) (dispute.Transaction, bool, error) {
	kc := kv.Partition(kv.AttrTransactionID, transactionID)
	res, err := r.qb.Execute(ctx, kv.Descriptor{
		Table:        kv.CardTransactions,
		Verb:         kv.Query,
		Index:        kv.TransactionIndex,
		KeyCondition: &kc,
		Limit:        1,
	})
	if err != nil {
		return nil, false, fmt.Errorf("query transaction: %w", err)
	}
	if res.Count == 0 {
		return nil, false, nil
	}
	return dispute.Transaction(res.First()), true, nil
}

func (r *repo) PutRecord(ctx context.Context, rec card.Record) error {
	_, err := r.qb.Execute(ctx, kv.Descriptor{
		Table: kv.CardTransactions,
		Verb:  kv.PutItem,
		Item:  rec,
	})
	if err != nil {
		return fmt.Errorf("put card record: %w", err)
	}
	return nil
}

func records(res kv.Result) []card.Record {
	out := make([]card.Record, len(res.Items))
	for i, item := range res.Items {
		out[i] = card.Record(item)
	}
	return out
}
