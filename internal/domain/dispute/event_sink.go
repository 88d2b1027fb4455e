package dispute

import (
	"context"
	"errors"
	"time"
)

type CaseEventKind string

const (
	CaseCreated CaseEventKind = "case.created"
	CaseUpdated CaseEventKind = "case.updated"
)

type CaseEvent struct {
	EventID    string        `json:"event_id"`
	Kind       CaseEventKind `json:"kind"`
	Case       CaseView      `json:"case"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventSink receives case events after the case is stored. Delivery is best
// effort: the workflow logs sink errors and carries on.
type EventSink interface {
	PublishCaseEvent(ctx context.Context, event CaseEvent) error
}

// MultiSink fans an event out to every sink.
type MultiSink []EventSink

func (m MultiSink) PublishCaseEvent(ctx context.Context, event CaseEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.PublishCaseEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type NopSink struct{}

func (NopSink) PublishCaseEvent(context.Context, CaseEvent) error { return nil }
