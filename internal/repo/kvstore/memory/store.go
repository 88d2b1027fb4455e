// Package memory is an in-process kv.Store used by tests, local runs and
// the CLI. It honours the same conditional write and index semantics as the
// persistent backends.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
)

var _ kv.Store = (*Store)(nil)

type table struct {
	items map[string]kv.Item
	order []string
}

type Store struct {
	mu     sync.RWMutex
	tables map[kv.TableName]*table
}

func New() *Store {
	return &Store{tables: make(map[kv.TableName]*table)}
}

func (s *Store) table(name kv.TableName) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{items: make(map[string]kv.Item)}
		s.tables[name] = t
	}
	return t
}

// lookup never creates a table so it is safe under the read lock.
func (s *Store) lookup(name kv.TableName) *table {
	if t, ok := s.tables[name]; ok {
		return t
	}
	return &table{}
}

func storageKey(ks kv.KeySchema, item kv.Item) string {
	if !ks.HasSortKey() {
		return item.String(ks.PartitionKey)
	}
	return item.String(ks.PartitionKey) + "\x00" + item.String(ks.SortKey)
}

func (s *Store) GetItem(_ context.Context, req kv.GetRequest) (kv.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.lookup(req.Table.Name).items[storageKey(req.Table.Key, req.Key)]
	if !ok {
		return nil, false, nil
	}
	return item.Clone().Project(req.Projection), true, nil
}

func (s *Store) Query(_ context.Context, req kv.QueryRequest) (kv.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.lookup(req.Table.Name)
	ks := req.KeySchema

	matched := make([]kv.Item, 0)
	for _, k := range t.order {
		item := t.items[k]
		pk, ok := item[ks.PartitionKey].(string)
		if !ok || pk != req.Condition.PartitionValue {
			continue
		}
		if ks.HasSortKey() {
			sk, ok := item[ks.SortKey].(string)
			if !ok {
				continue
			}
			if req.Condition.Sort != nil && !req.Condition.Sort.Matches(sk) {
				continue
			}
		}
		matched = append(matched, item)
	}

	if ks.HasSortKey() {
		sort.SliceStable(matched, func(i, j int) bool {
			c := kv.CompareValues(matched[i][ks.SortKey], matched[j][ks.SortKey])
			if req.Descending {
				return c > 0
			}
			return c < 0
		})
	} else if req.Descending {
		reverse(matched)
	}

	return finish(matched, req.Limit, req.Filter, req.Projection), nil
}

func (s *Store) Scan(_ context.Context, req kv.ScanRequest) (kv.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.lookup(req.Table.Name)
	all := make([]kv.Item, 0, len(t.order))
	for _, k := range t.order {
		all = append(all, t.items[k])
	}
	return finish(all, req.Limit, req.Filter, req.Projection), nil
}

func (s *Store) PutItem(_ context.Context, req kv.PutRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(req.Table.Name)
	key := storageKey(req.Table.Key, req.Item)
	existing, exists := t.items[key]

	if c := req.Condition; c != nil {
		allowed := c.IfNotExists && !exists
		if !allowed && exists && c.Attribute != "" {
			allowed = oneOf(existing[c.Attribute], c.OneOf)
		}
		if !allowed {
			return kv.ErrConditionFailed
		}
	}

	if !exists {
		t.order = append(t.order, key)
	}
	t.items[key] = req.Item.Clone()
	return nil
}

func (s *Store) UpdateItem(_ context.Context, req kv.UpdateRequest) (kv.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(req.Table.Name)
	key := storageKey(req.Table.Key, req.Key)
	existing, ok := t.items[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	if c := req.Condition; c != nil && !oneOf(existing[c.Attribute], c.OneOf) {
		return nil, kv.ErrConditionFailed
	}

	updated := existing.Clone()
	for k, v := range req.Updates {
		updated[k] = v
	}
	t.items[key] = updated
	return updated.Clone(), nil
}

func oneOf(v any, values []any) bool {
	for _, candidate := range values {
		if kv.ValuesEqual(v, candidate) {
			return true
		}
	}
	return false
}

func finish(read []kv.Item, limit int, filter kv.Item, projection []string) kv.Page {
	if limit > 0 && len(read) > limit {
		read = read[:limit]
	}
	cloned := make([]kv.Item, len(read))
	for i, it := range read {
		cloned[i] = it.Clone()
	}
	return kv.FinishPage(cloned, filter, projection)
}

func reverse(items []kv.Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
