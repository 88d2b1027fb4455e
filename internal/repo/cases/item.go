package cases

import (
	"fmt"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"

	"github.com/shopspring/decimal"
)

const (
	attrRecordType           = "record_type"
	attrHolderCaseID         = "holder_case_id"
	attrClaimedAt            = "claimed_at"
	attrGuardedTransactionID = "guarded_transaction_id"

	recordTypeGuard = "transaction_guard"
)

var caseFields = map[string]bool{
	dispute.FieldCaseID:               true,
	dispute.FieldCustomerID:           true,
	dispute.FieldCardID:               true,
	dispute.FieldTransactionID:        true,
	dispute.FieldTransactionAmount:    true,
	dispute.FieldStatus:               true,
	dispute.FieldDecisionReason:       true,
	dispute.FieldCreditType:           true,
	dispute.FieldCreditAmount:         true,
	dispute.FieldCreditIssued:         true,
	dispute.FieldCreditReversed:       true,
	dispute.FieldAutoDecided:          true,
	dispute.FieldRequiresManualReview: true,
	dispute.FieldAcquirerOutcome:      true,
	dispute.FieldCreatedAt:            true,
	dispute.FieldUpdatedAt:            true,
}

func guardKey(transactionID string) string {
	return dispute.GuardKeyPrefix + transactionID
}

func caseItem(c dispute.Case) map[string]any {
	item := make(map[string]any, len(caseFields)+len(c.Attributes))
	for k, v := range c.Attributes {
		item[k] = v
	}

	item[dispute.FieldCaseID] = c.ID
	item[dispute.FieldCustomerID] = c.CustomerID
	item[dispute.FieldCardID] = c.CardID
	item[dispute.FieldTransactionID] = c.TransactionID
	item[dispute.FieldTransactionAmount] = c.TransactionAmount
	item[dispute.FieldStatus] = string(c.Status)
	item[dispute.FieldDecisionReason] = c.DecisionReason
	item[dispute.FieldCreditType] = nil
	if c.CreditType != dispute.CreditNone {
		item[dispute.FieldCreditType] = string(c.CreditType)
	}
	item[dispute.FieldCreditAmount] = c.CreditAmount
	item[dispute.FieldCreditIssued] = c.CreditIssued
	item[dispute.FieldAutoDecided] = c.AutoDecided
	item[dispute.FieldRequiresManualReview] = c.RequiresManualReview
	item[dispute.FieldCreatedAt] = kv.FormatTime(c.CreatedAt)
	item[dispute.FieldUpdatedAt] = kv.FormatTime(c.UpdatedAt)
	if c.CreditReversed {
		item[dispute.FieldCreditReversed] = true
	}
	if c.AcquirerOutcome != "" {
		item[dispute.FieldAcquirerOutcome] = string(c.AcquirerOutcome)
	}
	return item
}

func caseFromItem(item kv.Item) (dispute.Case, error) {
	c := dispute.Case{
		ID:                   item.String(dispute.FieldCaseID),
		CustomerID:           item.String(dispute.FieldCustomerID),
		CardID:               item.String(dispute.FieldCardID),
		TransactionID:        item.String(dispute.FieldTransactionID),
		Status:               dispute.Status(item.String(dispute.FieldStatus)),
		DecisionReason:       item.String(dispute.FieldDecisionReason),
		CreditType:           dispute.CreditType(item.String(dispute.FieldCreditType)),
		CreditIssued:         item.Bool(dispute.FieldCreditIssued),
		CreditReversed:       item.Bool(dispute.FieldCreditReversed),
		AutoDecided:          item.Bool(dispute.FieldAutoDecided),
		RequiresManualReview: item.Bool(dispute.FieldRequiresManualReview),
		AcquirerOutcome:      dispute.AcquirerOutcome(item.String(dispute.FieldAcquirerOutcome)),
	}
	if amount, ok := item.Decimal(dispute.FieldTransactionAmount); ok {
		c.TransactionAmount = amount
	}
	if amount, ok := item.Decimal(dispute.FieldCreditAmount); ok {
		c.CreditAmount = decimal.NewNullDecimal(amount)
	}

	var err error
	if c.CreatedAt, err = kv.ParseTime(item.String(dispute.FieldCreatedAt)); err != nil {
		return dispute.Case{}, fmt.Errorf("case %s: %w", c.ID, err)
	}
	if c.UpdatedAt, err = kv.ParseTime(item.String(dispute.FieldUpdatedAt)); err != nil {
		return dispute.Case{}, fmt.Errorf("case %s: %w", c.ID, err)
	}

	for k, v := range item {
		if caseFields[k] {
			continue
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[k] = v
	}
	return c, nil
}

func isGuard(item kv.Item) bool {
	return item.String(attrRecordType) == recordTypeGuard
}

func guardFromItem(item kv.Item) (dispute.Guard, error) {
	claimedAt, err := kv.ParseTime(item.String(attrClaimedAt))
	if err != nil {
		return dispute.Guard{}, fmt.Errorf("transaction guard: %w", err)
	}
	return dispute.Guard{
		TransactionID: item.String(attrGuardedTransactionID),
		HolderCaseID:  item.String(attrHolderCaseID),
		ClaimedAt:     claimedAt,
	}, nil
}
