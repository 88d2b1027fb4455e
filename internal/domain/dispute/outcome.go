package dispute

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AcquirerOutcome is the result of an acquirer investigation.
type AcquirerOutcome string

const (
	OutcomeCustomerWon AcquirerOutcome = "customer_won"
	OutcomeMerchantWon AcquirerOutcome = "merchant_won"
	OutcomeWithdrawn   AcquirerOutcome = "withdrawn"
)

func ParseAcquirerOutcome(s string) (AcquirerOutcome, error) {
	o := AcquirerOutcome(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case OutcomeCustomerWon, OutcomeMerchantWon, OutcomeWithdrawn:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
}

// ApplyAcquirerOutcome closes a forwarded case. A customer win makes the
// temporary credit permanent; any other outcome reverses it.
func ApplyAcquirerOutcome(c Case, outcome AcquirerOutcome, now time.Time) (Case, error) {
	if c.Status != StatusForwardedToAcquirer {
		return c, fmt.Errorf("%w: case %s is %s", ErrInvalidTransition, c.ID, c.Status)
	}

	switch outcome {
	case OutcomeCustomerWon:
		c.Status = StatusResolvedAcquirer
		c.CreditType = CreditPermanent
		if !c.CreditAmount.Valid {
			c.CreditAmount = decimal.NewNullDecimal(c.TransactionAmount)
		}
	case OutcomeMerchantWon:
		c.Status = StatusResolvedAcquirer
		reverseCredit(&c)
	case OutcomeWithdrawn:
		c.Status = StatusClosed
		reverseCredit(&c)
	default:
		return c, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	c.AcquirerOutcome = outcome
	c.UpdatedAt = now
	c.normalize()
	return c, nil
}

func reverseCredit(c *Case) {
	c.CreditReversed = c.CreditType != CreditNone
	c.CreditType = CreditNone
	c.CreditAmount = decimal.NullDecimal{}
}

// outcomeUpdates lists the fields ApplyAcquirerOutcome may change.
func outcomeUpdates(c Case) map[string]any {
	return map[string]any{
		FieldStatus:               string(c.Status),
		FieldCreditType:           creditTypeValue(c.CreditType),
		FieldCreditAmount:         c.CreditAmount,
		FieldCreditIssued:         c.CreditIssued,
		FieldCreditReversed:       c.CreditReversed,
		FieldRequiresManualReview: c.RequiresManualReview,
		FieldAcquirerOutcome:      string(c.AcquirerOutcome),
	}
}

func creditTypeValue(t CreditType) any {
	if t == CreditNone {
		return nil
	}
	return string(t)
}
