// Package activity keeps a bounded in-memory feed of recent service activity
// for operators. A Collector is created at startup and passed to the
// components that report to it.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"

	"github.com/google/uuid"
)

const DefaultCapacity = 200

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source,omitempty"`
	Action    string         `json:"action,omitempty"`
	Details   string         `json:"details,omitempty"`
	Duration  string         `json:"duration,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Query filters Entries. Zero fields match everything; Limit keeps the most
// recent entries.
type Query struct {
	Limit  int    `form:"limit"`
	Level  Level  `form:"level"`
	Source string `form:"source"`
}

type Stats struct {
	Total    int            `json:"total"`
	Capacity int            `json:"capacity"`
	ByLevel  map[Level]int  `json:"by_level"`
	BySource map[string]int `json:"by_source"`
}

// Collector is a fixed size ring of entries, safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	entries  []Entry
	next     int
	full     bool
	capacity int
	now      func() time.Time
}

func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collector{
		entries:  make([]Entry, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Add stores e, filling in ID and Timestamp when unset, and returns it.
func (c *Collector) Add(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = c.now()
	}
	if e.Level == "" {
		e.Level = LevelInfo
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.next] = e
	c.next = (c.next + 1) % c.capacity
	if c.next == 0 {
		c.full = true
	}
	return e
}

// Entries returns matching entries, oldest first.
func (c *Collector) Entries(q Query) []Entry {
	all := c.snapshot()

	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if q.Level != "" && e.Level != q.Level {
			continue
		}
		if q.Source != "" && e.Source != q.Source {
			continue
		}
		out = append(out, e)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

func (c *Collector) Stats() Stats {
	all := c.snapshot()
	s := Stats{
		Total:    len(all),
		Capacity: c.capacity,
		ByLevel:  make(map[Level]int),
		BySource: make(map[string]int),
	}
	for _, e := range all {
		s.ByLevel[e.Level]++
		source := e.Source
		if source == "" {
			source = "system"
		}
		s.BySource[source]++
	}
	return s
}

func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make([]Entry, c.capacity)
	c.next = 0
	c.full = false
}

func (c *Collector) snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.full {
		return append([]Entry(nil), c.entries[:c.next]...)
	}
	out := make([]Entry, 0, c.capacity)
	out = append(out, c.entries[c.next:]...)
	return append(out, c.entries[:c.next]...)
}

// PublishCaseEvent records stored cases in the feed.
func (c *Collector) PublishCaseEvent(_ context.Context, event dispute.CaseEvent) error {
	level := LevelInfo
	if event.Kind == dispute.CaseCreated {
		level = LevelSuccess
	}
	c.Add(Entry{
		Level:   level,
		Message: fmt.Sprintf("Case %s %s", event.Case.CaseID, event.Case.DisputeStatus),
		Source:  "workflow",
		Action:  string(event.Kind),
		Details: event.Case.DecisionReason,
		Metadata: map[string]any{
			"case_id":        event.Case.CaseID,
			"transaction_id": event.Case.TransactionID,
		},
	})
	return nil
}
