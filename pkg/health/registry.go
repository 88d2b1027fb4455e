package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type Registry struct {
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

type CheckResult struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Optional   bool   `json:"optional,omitempty"`
	Message    string `json:"message,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type ReadinessResponse struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckAll runs the checkers in parallel. The overall status is down when a
// required check fails and degraded when only optional ones do.
func (r *Registry) CheckAll(ctx context.Context) ReadinessResponse {
	if len(r.checkers) == 0 {
		return ReadinessResponse{Status: StatusUp}
	}

	results := make([]CheckResult, len(r.checkers))
	var g errgroup.Group
	for i, c := range r.checkers {
		g.Go(func() error {
			start := time.Now()
			res := c.Check(ctx)
			results[i] = CheckResult{
				Name:       c.Name(),
				Status:     res.Status,
				Optional:   isOptional(c),
				Message:    res.Message,
				DurationMS: time.Since(start).Milliseconds(),
			}
			return nil
		})
	}
	_ = g.Wait()

	overall := StatusUp
	for _, res := range results {
		if res.Status != StatusDown {
			continue
		}
		if !res.Optional {
			overall = StatusDown
			break
		}
		overall = StatusDegraded
	}

	return ReadinessResponse{Status: overall, Checks: results}
}
