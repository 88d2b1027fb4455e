package card

import (
	"context"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
)

//go:generate mockgen -source repo.go -destination mock_repo.go -package card

type Repo interface {
	ListCustomerRecords(ctx context.Context, customerID string) ([]Record, error)
	GetCardRecords(ctx context.Context, customerID, cardNumber string) ([]Record, error)
	GetTransaction(ctx context.Context, transactionID string) (dispute.Transaction, bool, error)
	PutRecord(ctx context.Context, r Record) error
}
