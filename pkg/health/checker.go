package health

import (
	"context"
	"time"
)

const DefaultTimeout = 5 * time.Second

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
	// StatusDegraded means an optional dependency is down. The service still
	// answers requests.
	StatusDegraded Status = "degraded"
)

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type optional struct {
	Checker
}

// Optional marks c as non-critical: when it fails, readiness reports
// degraded instead of down. Event sinks are wrapped this way because case
// events are delivered best effort.
func Optional(c Checker) Checker {
	return optional{Checker: c}
}

func isOptional(c Checker) bool {
	_, ok := c.(optional)
	return ok
}
