package dispute

import (
	"fmt"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"

	"github.com/shopspring/decimal"
)

// CaseView is the wire form of a case. Amounts become floating point here
// and nowhere earlier.
type CaseView struct {
	CaseID               string         `json:"case_id"`
	CustomerID           string         `json:"customer_id"`
	CardID               string         `json:"card_id"`
	TransactionID        string         `json:"transaction_id"`
	TransactionAmount    float64        `json:"transaction_amount"`
	DisputeStatus        Status         `json:"dispute_status"`
	DecisionReason       string         `json:"decision_reason"`
	CreditType           *CreditType    `json:"credit_type"`
	CreditAmount         *float64       `json:"credit_amount"`
	CreditIssued         bool           `json:"credit_issued"`
	CreditReversed       bool           `json:"credit_reversed,omitempty"`
	AutoDecided          bool           `json:"auto_decided"`
	RequiresManualReview bool           `json:"requires_manual_review"`
	AcquirerOutcome      string         `json:"acquirer_outcome,omitempty"`
	CreatedAt            string         `json:"created_at"`
	UpdatedAt            string         `json:"updated_at"`
	Attributes           map[string]any `json:"attributes,omitempty"`
}

// DisputeOutcome is the wire form of a CaseResult.
type DisputeOutcome struct {
	CaseView
	ExistingCase bool `json:"existing_case"`
}

func (c Case) View() CaseView {
	v := CaseView{
		CaseID:               c.ID,
		CustomerID:           c.CustomerID,
		CardID:               c.CardID,
		TransactionID:        c.TransactionID,
		TransactionAmount:    c.TransactionAmount.InexactFloat64(),
		DisputeStatus:        c.Status,
		DecisionReason:       c.DecisionReason,
		CreditIssued:         c.CreditIssued,
		CreditReversed:       c.CreditReversed,
		AutoDecided:          c.AutoDecided,
		RequiresManualReview: c.RequiresManualReview,
		AcquirerOutcome:      string(c.AcquirerOutcome),
		CreatedAt:            kv.FormatTime(c.CreatedAt),
		UpdatedAt:            kv.FormatTime(c.UpdatedAt),
	}
	if c.CreditType != CreditNone {
		ct := c.CreditType
		v.CreditType = &ct
	}
	if c.CreditAmount.Valid {
		amount := c.CreditAmount.Decimal.InexactFloat64()
		v.CreditAmount = &amount
	}
	if len(c.Attributes) > 0 {
		v.Attributes = kv.Item(c.Attributes).Plain()
	}
	return v
}

func (r CaseResult) View() DisputeOutcome {
	return DisputeOutcome{CaseView: r.Case.View(), ExistingCase: r.ExistingCase}
}

// CaseFromView rebuilds a case from its wire form, as handed back by a
// caller retrying a failed write. Amounts are restored from their shortest
// float representation.
func CaseFromView(v CaseView) (Case, error) {
	if v.CaseID == "" || v.TransactionID == "" {
		return Case{}, fmt.Errorf("%w: case_id and transaction_id are required", ErrValidation)
	}
	createdAt, err := kv.ParseTime(v.CreatedAt)
	if err != nil {
		return Case{}, fmt.Errorf("%w: created_at: %w", ErrValidation, err)
	}
	updatedAt, err := kv.ParseTime(v.UpdatedAt)
	if err != nil {
		return Case{}, fmt.Errorf("%w: updated_at: %w", ErrValidation, err)
	}

	c := Case{
		ID:                v.CaseID,
		CustomerID:        v.CustomerID,
		CardID:            v.CardID,
		TransactionID:     v.TransactionID,
		TransactionAmount: decimal.NewFromFloat(v.TransactionAmount),
		Status:            v.DisputeStatus,
		DecisionReason:    v.DecisionReason,
		CreditReversed:    v.CreditReversed,
		AutoDecided:       v.AutoDecided,
		AcquirerOutcome:   AcquirerOutcome(v.AcquirerOutcome),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
	if v.CreditType != nil {
		c.CreditType = *v.CreditType
	}
	if v.CreditAmount != nil {
		c.CreditAmount = decimal.NewNullDecimal(decimal.NewFromFloat(*v.CreditAmount))
	}
	if len(v.Attributes) > 0 {
		attrs, err := kv.NewItem(v.Attributes)
		if err != nil {
			return Case{}, fmt.Errorf("%w: attributes: %w", ErrValidation, err)
		}
		c.Attributes = attrs
	}

	// Derived flags are recomputed rather than trusted.
	c.CreditIssued = c.CreditType != CreditNone
	c.RequiresManualReview = c.Status == StatusForwardedToAcquirer
	return c, nil
}
