// Package card verifies that customers, cards and transactions exist and
// belong together before a dispute is raised.
package card

import (
	"sort"
	"strings"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
)

const cardKeyPrefix = "CARD#"

// Record is a row of the card transactions table: either a card or one of
// its transactions.
type Record map[string]any

func (r Record) str(field string) string {
	s, _ := r[field].(string)
	return s
}

func (r Record) CustomerID() string { return r.str(kv.AttrCustomerID) }

func (r Record) TransactionID() string { return r.str(kv.AttrTransactionID) }

// CardNumber reads card_number, falling back to the composite key.
func (r Record) CardNumber() string {
	if n := r.str("card_number"); n != "" {
		return n
	}
	rest := strings.TrimPrefix(r.str(kv.AttrCompositeKey), cardKeyPrefix)
	number, _, _ := strings.Cut(rest, "#")
	return number
}

func (r Record) IsTransaction() bool {
	return r.TransactionID() != ""
}

// CardKey is the composite key of a card record.
func CardKey(cardNumber string) string {
	return cardKeyPrefix + cardNumber
}

// TransactionKey is the composite key of a card transaction.
func TransactionKey(cardNumber, transactionID string) string {
	return CardKey(cardNumber) + "#" + transactionID
}

// TransactionPrefix selects every transaction of a card.
func TransactionPrefix(cardNumber string) string {
	return CardKey(cardNumber) + "#"
}

type Card struct {
	CardNumber     string
	CardType       string
	CardStatus     string
	CardholderName string
	ExpiryDate     string
	Transactions   []dispute.Transaction
}

type Customer struct {
	CustomerID string
	Cards      []Card
}

// GroupCards folds card and transaction records into cards ordered by
// card number. Card details come from the card record when present.
func GroupCards(records []Record) []Card {
	byNumber := make(map[string]*Card)
	var order []string
	for _, r := range records {
		number := r.CardNumber()
		c, ok := byNumber[number]
		if !ok {
			c = &Card{CardNumber: number}
			byNumber[number] = c
			order = append(order, number)
		}
		if !r.IsTransaction() || c.CardType == "" {
			fillDetails(c, r)
		}
		if r.IsTransaction() {
			c.Transactions = append(c.Transactions, dispute.Transaction(r))
		}
	}

	sort.Strings(order)
	cards := make([]Card, 0, len(order))
	for _, n := range order {
		cards = append(cards, *byNumber[n])
	}
	return cards
}

func fillDetails(c *Card, r Record) {
	set := func(dst *string, field string) {
		if v := r.str(field); v != "" {
			*dst = v
		}
	}
	set(&c.CardType, "card_type")
	set(&c.CardStatus, "card_status")
	set(&c.CardholderName, "cardholder_name")
	set(&c.ExpiryDate, "expiry_date")
}
