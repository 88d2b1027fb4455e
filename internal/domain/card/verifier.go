package card

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
)

type Verifier struct {
	repo Repo
}

func NewVerifier(repo Repo) *Verifier {
	return &Verifier{repo: repo}
}

func (v *Verifier) VerifyCustomer(ctx context.Context, customerID string) (*Customer, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	records, err := v.repo.ListCustomerRecords(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}
	return &Customer{CustomerID: customerID, Cards: GroupCards(records)}, nil
}

func (v *Verifier) VerifyCard(ctx context.Context, customerID, cardNumber string) (*Card, error) {
	if customerID == "" || cardNumber == "" {
		return nil, fmt.Errorf("%w: customer_id and card_number are required", ErrValidation)
	}
	records, err := v.repo.GetCardRecords(ctx, customerID, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("get card records: %w", err)
	}
	cards := GroupCards(records)
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: card %s of customer %s", ErrCardNotFound, cardNumber, customerID)
	}
	return &cards[0], nil
}

// VerifyTransaction looks a transaction up by id and checks it against the
// customer and card when they are given.
func (v *Verifier) VerifyTransaction(ctx context.Context, transactionID, customerID, cardNumber string) (dispute.Transaction, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction_id is required", ErrValidation)
	}
	txn, found, err := v.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, transactionID)
	}

	r := Record(txn)
	if customerID != "" && r.CustomerID() != customerID {
		slog.WarnContext(ctx, "Transaction belongs to another customer",
			"transaction_id", transactionID, "customer_id", customerID)
		return nil, fmt.Errorf("%w: transaction %s, customer %s", ErrOwnershipMismatch, transactionID, customerID)
	}
	if cardNumber != "" && r.CardNumber() != cardNumber {
		slog.WarnContext(ctx, "Transaction belongs to another card",
			"transaction_id", transactionID, "card_number", cardNumber)
		return nil, fmt.Errorf("%w: transaction %s, card %s", ErrOwnershipMismatch, transactionID, cardNumber)
	}
	return txn, nil
}
