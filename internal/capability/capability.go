// Package capability exposes the dispute operations as named capabilities
// with a JSON input schema. Transports (HTTP, MCP, CLI) only ever see
// Results; errors are converted at this boundary.
package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/card"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
)

var ErrInvalidArguments = errors.New("invalid arguments")

type Capability interface {
	Name() string
	Description() string
	InputSchema() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) Result
}

// Kind classifies a failed Result.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Kind    Kind   `json:"error,omitempty"`
}

func OK(data any, format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...), Data: data}
}

func NotFound(format string, args ...any) Result {
	return Result{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Failure converts err into a failed Result. A case that was decided but
// not stored is returned in Data so the caller can retry the write.
func Failure(err error) Result {
	r := Result{Kind: KindOf(err), Message: err.Error()}

	var perr *dispute.PersistenceError
	if errors.As(err, &perr) {
		r.Data = map[string]any{"unpersisted_case": perr.Case.View()}
	}
	return r
}

func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidArguments),
		errors.Is(err, dispute.ErrValidation),
		errors.Is(err, dispute.ErrImmutableField),
		errors.Is(err, dispute.ErrInvalidOutcome),
		errors.Is(err, card.ErrValidation),
		errors.Is(err, kv.ErrValidation),
		errors.Is(err, kv.ErrInvalidTable),
		errors.Is(err, kv.ErrInvalidIndex),
		errors.Is(err, kv.ErrInvalidQuery):
		return KindValidation
	case errors.Is(err, dispute.ErrCaseNotFound),
		errors.Is(err, card.ErrCustomerNotFound),
		errors.Is(err, card.ErrCardNotFound),
		errors.Is(err, card.ErrTransactionNotFound),
		errors.Is(err, kv.ErrNotFound):
		return KindNotFound
	case errors.Is(err, dispute.ErrInvalidTransition),
		errors.Is(err, dispute.ErrDisputeInProgress),
		errors.Is(err, card.ErrOwnershipMismatch),
		errors.Is(err, kv.ErrConditionFailed):
		return KindConflict
	case errors.Is(err, kv.ErrThrottling),
		errors.Is(err, context.DeadlineExceeded):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// funcCapability decodes the arguments into In and calls fn.
type funcCapability[In any] struct {
	name        string
	description string
	schema      json.RawMessage
	fn          func(ctx context.Context, in In) (Result, error)
}

func New[In any](name, description, schema string, fn func(ctx context.Context, in In) (Result, error)) Capability {
	return &funcCapability[In]{
		name:        name,
		description: description,
		schema:      json.RawMessage(schema),
		fn:          fn,
	}
}

func (c *funcCapability[In]) Name() string { return c.name }

func (c *funcCapability[In]) Description() string { return c.description }

func (c *funcCapability[In]) InputSchema() json.RawMessage { return c.schema }

func (c *funcCapability[In]) Invoke(ctx context.Context, args json.RawMessage) Result {
	var in In
	if err := decodeArgs(args, &in); err != nil {
		return Failure(err)
	}
	res, err := c.fn(ctx, in)
	if err != nil {
		return Failure(err)
	}
	return res
}

// decodeArgs keeps numbers as json.Number so amounts reach the store
// without a float64 round trip.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
