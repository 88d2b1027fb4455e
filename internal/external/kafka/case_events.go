package kafka

import (
	"context"
	"fmt"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/messaging"
)

var _ dispute.EventSink = (*CaseEventSink)(nil)

// CaseEventSink publishes case events keyed by case ID.
type CaseEventSink struct {
	publisher messaging.Publisher
}

func NewCaseEventSink(p messaging.Publisher) *CaseEventSink {
	return &CaseEventSink{publisher: p}
}

func (s *CaseEventSink) PublishCaseEvent(ctx context.Context, event dispute.CaseEvent) error {
	env, err := messaging.NewEnvelope(event.Case.CaseID, string(event.Kind), event)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	env.EventID = event.EventID
	env.Timestamp = event.OccurredAt

	if err := s.publisher.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish %s: %w", event.Kind, err)
	}
	return nil
}
