package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/activity"
	"github.com/anupakum/MCP-Payment-idea/pkg/logger"
	"github.com/anupakum/MCP-Payment-idea/pkg/metrics"
)

// Registry holds capabilities by name and records every invocation.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Capability
	order    []string
	activity *activity.Collector
}

func NewRegistry(collector *activity.Collector) *Registry {
	return &Registry{
		byName:   make(map[string]Capability),
		activity: collector,
	}
}

// Register adds capabilities. A name may be registered once.
func (r *Registry) Register(caps ...Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range caps {
		if _, ok := r.byName[c.Name()]; ok {
			return fmt.Errorf("capability %q already registered", c.Name())
		}
		r.byName[c.Name()] = c
		r.order = append(r.order, c.Name())
	}
	return nil
}

func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[name]
	return c, ok
}

// List returns capabilities in registration order.
func (r *Registry) List() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) Result {
	c, ok := r.Get(name)
	if !ok {
		return NotFound("Unknown capability %q", name)
	}

	ctx = logger.WithAttrs(ctx, slog.String("capability", name))
	start := time.Now()
	res := c.Invoke(ctx, args)
	elapsed := time.Since(start)

	metrics.CapabilityInvocationDuration.
		WithLabelValues(name, strconv.FormatBool(res.Success)).
		Observe(elapsed.Seconds())

	if res.Success {
		slog.InfoContext(ctx, "Capability invoked", "duration", elapsed)
	} else {
		slog.WarnContext(ctx, "Capability failed", "kind", res.Kind, "message", res.Message, "duration", elapsed)
	}

	if r.activity != nil {
		level := activity.LevelSuccess
		if !res.Success {
			level = activity.LevelError
			if res.Kind != KindInternal && res.Kind != KindUnavailable {
				level = activity.LevelWarning
			}
		}
		r.activity.Add(activity.Entry{
			Level:    level,
			Message:  res.Message,
			Source:   "capability",
			Action:   name,
			Duration: elapsed.Round(time.Millisecond).String(),
		})
	}
	return res
}

// Standard returns every capability served by the dispute service.
func Standard(svc DisputeService, verifier Verifier, qb QueryExecutor) []Capability {
	caps := DisputeCapabilities(svc, verifier)
	caps = append(caps, LookupCapabilities(verifier)...)
	return append(caps, KVQueryCapability(qb))
}
