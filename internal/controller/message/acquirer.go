package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/messaging"
	"github.com/anupakum/MCP-Payment-idea/pkg/logger"
)

// MessageTypeAcquirerOutcome is the envelope type of investigation results.
const MessageTypeAcquirerOutcome = "acquirer.outcome"

type AcquirerOutcome struct {
	CaseID  string `json:"case_id"`
	Outcome string `json:"outcome"`
}

type OutcomeService interface {
	GetCase(ctx context.Context, caseID string) (*dispute.Case, bool, error)
	ApplyAcquirerOutcome(ctx context.Context, caseID string, outcome dispute.AcquirerOutcome) (*dispute.Case, error)
}

// AcquirerOutcomeController applies acquirer investigation results read
// from Kafka.
type AcquirerOutcomeController struct {
	service OutcomeService
}

func NewAcquirerOutcomeController(s OutcomeService) *AcquirerOutcomeController {
	return &AcquirerOutcomeController{service: s}
}

// HandleMessage applies one outcome. Redelivery of an outcome already
// applied is acknowledged. Messages that can never succeed are returned as
// messaging.ErrPermanent.
func (c *AcquirerOutcomeController) HandleMessage(ctx context.Context, key, value []byte) error {
	env, err := messaging.DecodeEnvelope(value)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to decode envelope", "key", string(key), slog.Any("error", err))
		return fmt.Errorf("%w: decode envelope: %w", messaging.ErrPermanent, err)
	}
	if env.Type != MessageTypeAcquirerOutcome {
		return fmt.Errorf("%w: unexpected message type %q", messaging.ErrPermanent, env.Type)
	}

	var msg AcquirerOutcome
	if err := env.DecodePayload(&msg); err != nil {
		return fmt.Errorf("%w: %w", messaging.ErrPermanent, err)
	}
	ctx = logger.WithAttrs(ctx, slog.String("case_id", msg.CaseID), slog.String("event_id", env.EventID))

	outcome, err := dispute.ParseAcquirerOutcome(msg.Outcome)
	if err != nil {
		return fmt.Errorf("%w: %w", messaging.ErrPermanent, err)
	}

	updated, err := c.service.ApplyAcquirerOutcome(ctx, msg.CaseID, outcome)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Acquirer outcome applied",
			"outcome", outcome,
			"dispute_status", updated.Status)
		return nil
	case errors.Is(err, dispute.ErrInvalidTransition):
		return c.alreadyApplied(ctx, msg.CaseID, outcome, err)
	case errors.Is(err, dispute.ErrCaseNotFound), errors.Is(err, dispute.ErrValidation):
		return fmt.Errorf("%w: %w", messaging.ErrPermanent, err)
	default:
		return fmt.Errorf("apply acquirer outcome: %w", err)
	}
}

func (c *AcquirerOutcomeController) alreadyApplied(ctx context.Context, caseID string, outcome dispute.AcquirerOutcome, cause error) error {
	current, found, err := c.service.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("get case: %w", err)
	}
	if found && current.AcquirerOutcome == outcome {
		slog.InfoContext(ctx, "Duplicate acquirer outcome ignored", "outcome", outcome)
		return nil
	}
	return fmt.Errorf("%w: %w", messaging.ErrPermanent, cause)
}
