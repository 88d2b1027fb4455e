package capability

import (
	"context"
	"fmt"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
)

type DisputeService interface {
	ProcessDispute(ctx context.Context, txn dispute.Transaction) (dispute.CaseResult, error)
	RetryCreate(ctx context.Context, c dispute.Case) (dispute.CaseResult, error)
	GetCase(ctx context.Context, caseID string) (*dispute.Case, bool, error)
	ListCustomerCases(ctx context.Context, customerID string, limit int) ([]dispute.Case, error)
	UpdateCase(ctx context.Context, caseID string, updates map[string]any) (*dispute.Case, error)
	ApplyAcquirerOutcome(ctx context.Context, caseID string, outcome dispute.AcquirerOutcome) (*dispute.Case, error)
}

type Verifier interface {
	VerifyCustomer(ctx context.Context, customerID string) (*card.Customer, error)
	VerifyCard(ctx context.Context, customerID, cardNumber string) (*card.Card, error)
	VerifyTransaction(ctx context.Context, transactionID, customerID, cardNumber string) (dispute.Transaction, error)
}

type ProcessDisputeInput struct {
	Transaction dispute.Transaction `json:"transaction"`
}

type VerifyAndDisputeInput struct {
	TransactionID string `json:"transaction_id"`
	CustomerID    string `json:"customer_id"`
	CardNumber    string `json:"card_number"`
}

// RetryCaseCreationInput carries the unpersisted_case of a failed
// process_dispute result.
type RetryCaseCreationInput struct {
	Case *dispute.CaseView `json:"case"`
}

type GetCaseInput struct {
	CaseID string `json:"case_id"`
}

type ListCustomerCasesInput struct {
	CustomerID string `json:"customer_id"`
	Limit      int    `json:"limit"`
}

type UpdateCaseInput struct {
	CaseID  string         `json:"case_id"`
	Updates map[string]any `json:"updates"`
}

type ApplyAcquirerOutcomeInput struct {
	CaseID  string `json:"case_id"`
	Outcome string `json:"outcome"`
}

type CaseList struct {
	CustomerID string             `json:"customer_id"`
	Cases      []dispute.CaseView `json:"cases"`
	Count      int                `json:"count"`
}

func DisputeCapabilities(svc DisputeService, verifier Verifier) []Capability {
	return []Capability{
		New(ProcessDispute,
			"Decide a dispute for a transaction and store the case. Returns the open case when one already exists.",
			processDisputeSchema,
			func(ctx context.Context, in ProcessDisputeInput) (Result, error) {
				return processDispute(ctx, svc, in.Transaction)
			}),
		New(VerifyAndDispute,
			"Verify that a transaction exists and belongs to the customer and card, then decide the dispute.",
			verifyAndDisputeSchema,
			func(ctx context.Context, in VerifyAndDisputeInput) (Result, error) {
				txn, err := verifier.VerifyTransaction(ctx, in.TransactionID, in.CustomerID, in.CardNumber)
				if err != nil {
					return Result{}, err
				}
				return processDispute(ctx, svc, txn)
			}),
		New(RetryCaseCreation,
			"Store a case that was decided but not persisted, without deciding again.",
			retryCaseCreationSchema,
			func(ctx context.Context, in RetryCaseCreationInput) (Result, error) {
				if in.Case == nil {
					return Result{}, fmt.Errorf("%w: case is required", ErrInvalidArguments)
				}
				c, err := dispute.CaseFromView(*in.Case)
				if err != nil {
					return Result{}, err
				}
				res, err := svc.RetryCreate(ctx, c)
				if err != nil {
					return Result{}, err
				}
				if res.ExistingCase {
					return OK(res.View(), "Open case %s already exists for transaction %s", res.Case.ID, res.Case.TransactionID), nil
				}
				return OK(res.View(), "Case %s stored: %s", res.Case.ID, res.Case.Status), nil
			}),
		New(GetCase,
			"Fetch a dispute case by id.",
			getCaseSchema,
			func(ctx context.Context, in GetCaseInput) (Result, error) {
				c, found, err := svc.GetCase(ctx, in.CaseID)
				if err != nil {
					return Result{}, err
				}
				if !found {
					return NotFound("Case %s not found", in.CaseID), nil
				}
				return OK(c.View(), "Case %s is %s", c.ID, c.Status), nil
			}),
		New(ListCustomerCases,
			"List a customer's dispute cases, most recent first.",
			listCustomerCasesSchema,
			func(ctx context.Context, in ListCustomerCasesInput) (Result, error) {
				cases, err := svc.ListCustomerCases(ctx, in.CustomerID, in.Limit)
				if err != nil {
					return Result{}, err
				}
				list := CaseList{CustomerID: in.CustomerID, Cases: make([]dispute.CaseView, len(cases)), Count: len(cases)}
				for i, c := range cases {
					list.Cases[i] = c.View()
				}
				return OK(list, "Found %d cases for customer %s", len(cases), in.CustomerID), nil
			}),
		New(UpdateCase,
			"Update mutable fields of a case. Identifiers, creation time and the decision reason cannot change.",
			updateCaseSchema,
			func(ctx context.Context, in UpdateCaseInput) (Result, error) {
				c, err := svc.UpdateCase(ctx, in.CaseID, in.Updates)
				if err != nil {
					return Result{}, err
				}
				return OK(c.View(), "Case %s updated", c.ID), nil
			}),
		New(ApplyAcquirerOutcome,
			"Record the acquirer's investigation outcome for a forwarded case.",
			applyAcquirerOutcomeSchema,
			func(ctx context.Context, in ApplyAcquirerOutcomeInput) (Result, error) {
				outcome, err := dispute.ParseAcquirerOutcome(in.Outcome)
				if err != nil {
					return Result{}, err
				}
				c, err := svc.ApplyAcquirerOutcome(ctx, in.CaseID, outcome)
				if err != nil {
					return Result{}, err
				}
				return OK(c.View(), "Case %s is %s after %s", c.ID, c.Status, outcome), nil
			}),
	}
}

func processDispute(ctx context.Context, svc DisputeService, txn dispute.Transaction) (Result, error) {
	if txn == nil {
		return Result{}, fmt.Errorf("%w: transaction is required", ErrInvalidArguments)
	}
	res, err := svc.ProcessDispute(ctx, txn)
	if err != nil {
		return Result{}, err
	}
	if res.ExistingCase {
		return OK(res.View(), "Open case %s already exists for transaction %s", res.Case.ID, res.Case.TransactionID), nil
	}
	return OK(res.View(), "Case %s created: %s", res.Case.ID, res.Case.Status), nil
}
