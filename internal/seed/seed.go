// Package seed loads demo customers, cards and transactions for local
// setups.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type RecordWriter interface {
	PutRecord(ctx context.Context, rec card.Record) error
}

// Sample returns the demo data set. TXN001 and TXN002 carry fixed 2024
// dates and are time barred; the CUST002 transactions are dated relative to
// now so that one resolves automatically and one goes to the acquirer.
func Sample(now time.Time) []card.Record {
	daysAgo := func(d int) string {
		return now.UTC().AddDate(0, 0, -d).Format(time.RFC3339)
	}

	return []card.Record{
		cardRecord("CUST001", "1234", "John Doe", "Visa", "12/28"),
		txnRecord("CUST001", "1234", "TXN001", "99.00", "Netflix", "Monthly Subscription", "2024-01-15T10:00:00Z", "John Doe", "Visa"),
		txnRecord("CUST001", "1234", "TXN002", "150.00", "Amazon", "Electronics", "2024-01-20T14:30:00Z", "John Doe", "Visa"),

		cardRecord("CUST002", "5678", "Jane Roe", "Mastercard", "03/29"),
		txnRecord("CUST002", "5678", "TXN003", "45.00", "Spotify", "Family Plan", daysAgo(5), "Jane Roe", "Mastercard"),
		txnRecord("CUST002", "5678", "TXN004", "1250.00", "Delta", "Flight Booking", daysAgo(20), "Jane Roe", "Mastercard"),
	}
}

func cardRecord(customerID, number, holder, cardType, expiry string) card.Record {
	return card.Record{
		"customer_id":     customerID,
		"composite_key":   card.CardKey(number),
		"card_number":     number,
		"cardholder_name": holder,
		"card_type":       cardType,
		"card_status":     "Active",
		"expiry_date":     expiry,
	}
}

func txnRecord(customerID, number, txnID, amount, merchant, description, date, holder, cardType string) card.Record {
	return card.Record{
		"customer_id":      customerID,
		"composite_key":    card.TransactionKey(number, txnID),
		"card_number":      number,
		"transaction_id":   txnID,
		"amount":           amount,
		"currency":         "USD",
		"merchant":         merchant,
		"description":      description,
		"transaction_date": date,
		"status":           "Posted",
		"cardholder_name":  holder,
		"card_type":        cardType,
	}
}

// Load writes records one by one and stops at the first failure.
func Load(ctx context.Context, w RecordWriter, records []card.Record) (int, error) {
	for i, rec := range records {
		if err := w.PutRecord(ctx, rec); err != nil {
			return i, fmt.Errorf("seed %s: %w", rec["composite_key"], err)
		}
		slog.InfoContext(ctx, "Seeded record",
			"customer_id", rec.CustomerID(),
			"composite_key", rec["composite_key"])
	}
	return len(records), nil
}

type ItemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoWriter puts records straight into a DynamoDB table, bypassing the
// store layer. Existing items are overwritten.
type DynamoWriter struct {
	client ItemPutter
	table  string
}

func NewDynamoWriter(client ItemPutter, table string) *DynamoWriter {
	return &DynamoWriter{client: client, table: table}
}

func (w *DynamoWriter) PutRecord(ctx context.Context, rec card.Record) error {
	item, err := attributevalue.MarshalMap(map[string]any(rec))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = w.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(w.table),
		Item:      item,
	})
	return err
}
