package capability

import (
	"context"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
)

type CustomerLookupInput struct {
	CustomerID string `json:"customer_id"`
}

type CardLookupInput struct {
	CustomerID string `json:"customer_id"`
	CardNumber string `json:"card_number"`
}

type TransactionLookupInput struct {
	TransactionID string `json:"transaction_id"`
	CustomerID    string `json:"customer_id"`
	CardNumber    string `json:"card_number"`
}

type CardView struct {
	CardNumber     string           `json:"card_number"`
	CardType       string           `json:"card_type,omitempty"`
	CardStatus     string           `json:"card_status,omitempty"`
	CardholderName string           `json:"cardholder_name,omitempty"`
	ExpiryDate     string           `json:"expiry_date,omitempty"`
	Transactions   []map[string]any `json:"transactions"`
}

type CustomerView struct {
	CustomerID string     `json:"customer_id"`
	Cards      []CardView `json:"cards"`
}

func cardView(c card.Card) CardView {
	v := CardView{
		CardNumber:     c.CardNumber,
		CardType:       c.CardType,
		CardStatus:     c.CardStatus,
		CardholderName: c.CardholderName,
		ExpiryDate:     c.ExpiryDate,
		Transactions:   make([]map[string]any, len(c.Transactions)),
	}
	for i, t := range c.Transactions {
		v.Transactions[i] = transactionView(t)
	}
	return v
}

func transactionView(t dispute.Transaction) map[string]any {
	return kv.Item(t).Plain()
}

func LookupCapabilities(verifier Verifier) []Capability {
	return []Capability{
		New(CustomerLookup,
			"Verify a customer and list their cards with transactions.",
			customerLookupSchema,
			func(ctx context.Context, in CustomerLookupInput) (Result, error) {
				customer, err := verifier.VerifyCustomer(ctx, in.CustomerID)
				if err != nil {
					return Result{}, err
				}
				v := CustomerView{CustomerID: customer.CustomerID, Cards: make([]CardView, len(customer.Cards))}
				for i, c := range customer.Cards {
					v.Cards[i] = cardView(c)
				}
				return OK(v, "Customer %s has %d cards", customer.CustomerID, len(v.Cards)), nil
			}),
		New(CardLookup,
			"Verify a customer's card and list its transactions.",
			cardLookupSchema,
			func(ctx context.Context, in CardLookupInput) (Result, error) {
				c, err := verifier.VerifyCard(ctx, in.CustomerID, in.CardNumber)
				if err != nil {
					return Result{}, err
				}
				return OK(cardView(*c), "Card %s has %d transactions", c.CardNumber, len(c.Transactions)), nil
			}),
		New(TransactionLookup,
			"Find a transaction by id, optionally checking that it belongs to the customer and card.",
			transactionLookupSchema,
			func(ctx context.Context, in TransactionLookupInput) (Result, error) {
				txn, err := verifier.VerifyTransaction(ctx, in.TransactionID, in.CustomerID, in.CardNumber)
				if err != nil {
					return Result{}, err
				}
				return OK(transactionView(txn), "Transaction %s verified", txn.ID()), nil
			}),
	}
}
