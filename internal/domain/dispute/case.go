package dispute

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusRejectedTimeBarred  Status = "REJECTED_TIME_BARRED"
	StatusResolvedCustomer    Status = "RESOLVED_CUSTOMER"
	StatusForwardedToAcquirer Status = "FORWARDED_TO_ACQUIRER"
	StatusResolvedAcquirer    Status = "RESOLVED_ACQUIRER"
	StatusClosed              Status = "CLOSED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRejectedTimeBarred, StatusResolvedCustomer, StatusForwardedToAcquirer,
		StatusResolvedAcquirer, StatusClosed:
		return true
	default:
		return false
	}
}

// Open reports whether a case in this status still blocks new cases for its
// transaction.
func (s Status) Open() bool {
	switch s {
	case StatusResolvedCustomer, StatusResolvedAcquirer, StatusClosed, StatusRejectedTimeBarred:
		return false
	default:
		return true
	}
}

// transitions lists the statuses a case may move to. Statuses absent from
// the table are final.
var transitions = map[Status][]Status{
	StatusForwardedToAcquirer: {StatusResolvedAcquirer, StatusClosed},
}

// CanTransitionTo reports whether a case in status s may move to next.
// Keeping the current status is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CreditType is empty when no credit is issued.
type CreditType string

const (
	CreditNone      CreditType = ""
	CreditPermanent CreditType = "PERMANENT"
	CreditTemporary CreditType = "TEMPORARY"
)

func (c CreditType) Valid() bool {
	return c == CreditNone || c == CreditPermanent || c == CreditTemporary
}

// Persisted attribute names of a case.
const (
	FieldCaseID               = "case_id"
	FieldCustomerID           = "customer_id"
	FieldCardID               = "card_id"
	FieldTransactionID        = "transaction_id"
	FieldTransactionAmount    = "transaction_amount"
	FieldStatus               = "dispute_status"
	FieldDecisionReason       = "decision_reason"
	FieldCreditType           = "credit_type"
	FieldCreditAmount         = "credit_amount"
	FieldCreditIssued         = "credit_issued"
	FieldCreditReversed       = "credit_reversed"
	FieldAutoDecided          = "auto_decided"
	FieldRequiresManualReview = "requires_manual_review"
	FieldAcquirerOutcome      = "acquirer_outcome"
	FieldCreatedAt            = "created_at"
	FieldUpdatedAt            = "updated_at"
)

type Case struct {
	ID                   string
	CustomerID           string
	CardID               string
	TransactionID        string
	TransactionAmount    decimal.Decimal
	Status               Status
	DecisionReason       string
	CreditType           CreditType
	CreditAmount         decimal.NullDecimal
	CreditIssued         bool
	CreditReversed       bool
	AutoDecided          bool
	RequiresManualReview bool
	AcquirerOutcome      AcquirerOutcome
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Attributes holds fields set through case updates that have no
	// dedicated field, such as notes or document references.
	Attributes map[string]any
}

func (c Case) IsOpen() bool {
	return c.Status.Open()
}

// NewCase builds the case recorded for a decision. Timestamps keep
// microsecond precision, the precision they are stored with.
func NewCase(id string, txn Transaction, d Decision, now time.Time) Case {
	now = now.Truncate(time.Microsecond)
	c := Case{
		ID:                id,
		CustomerID:        txn.CustomerID(),
		CardID:            txn.CardID(),
		TransactionID:     txn.ID(),
		TransactionAmount: d.AmountUSD,
		Status:            d.Status,
		DecisionReason:    d.Reason,
		CreditType:        d.CreditType,
		CreditAmount:      d.CreditAmount,
		AutoDecided:       true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	c.normalize()
	return c
}

// normalize derives credit_issued and requires_manual_review.
func (c *Case) normalize() {
	if c.CreditType == CreditNone {
		c.CreditAmount = decimal.NullDecimal{}
	}
	c.CreditIssued = c.CreditType != CreditNone
	c.RequiresManualReview = c.Status == StatusForwardedToAcquirer
}

// CaseResult is the outcome of ProcessDispute.
type CaseResult struct {
	Case         Case
	ExistingCase bool
}

// GuardKeyPrefix starts the case_id of every guard record in the cases table.
const GuardKeyPrefix = "TXN_GUARD#"

func IsGuardKey(caseID string) bool {
	return strings.HasPrefix(caseID, GuardKeyPrefix)
}

// Guard is the record claiming a transaction for a single case.
type Guard struct {
	TransactionID string
	HolderCaseID  string
	ClaimedAt     time.Time
}
