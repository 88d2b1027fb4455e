package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anupakum/MCP-Payment-idea/pkg/metrics"
	"github.com/anupakum/MCP-Payment-idea/pkg/retry"
)

// QueryBuilder validates descriptors against a Schema and executes them on
// a Store, retrying throttled calls. It is the only way the rest of the
// service touches storage.
type QueryBuilder struct {
	store  Store
	schema Schema
	retry  retry.Config
	now    func() time.Time
}

type Option func(*QueryBuilder)

func WithSchema(s Schema) Option {
	return func(b *QueryBuilder) { b.schema = s }
}

// DefaultRetryConfig retries throttled calls three times in all.
func DefaultRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

func WithRetry(cfg retry.Config) Option {
	return func(b *QueryBuilder) { b.retry = cfg }
}

func WithClock(now func() time.Time) Option {
	return func(b *QueryBuilder) { b.now = now }
}

func NewQueryBuilder(store Store, opts ...Option) *QueryBuilder {
	b := &QueryBuilder{
		store:  store,
		schema: DefaultSchema(),
		retry:  DefaultRetryConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *QueryBuilder) Schema() Schema {
	return b.schema
}

// Execute runs d. Reads that find nothing return an empty Result, not an error.
func (b *QueryBuilder) Execute(ctx context.Context, d Descriptor) (Result, error) {
	table, err := b.schema.Table(d.Table)
	if err != nil {
		return Result{}, err
	}
	if d.Index != "" && d.Verb != Query {
		return Result{}, fmt.Errorf("%w: index is only valid for query", ErrValidation)
	}
	if d.Limit < 0 {
		return Result{}, fmt.Errorf("%w: negative limit", ErrValidation)
	}
	for _, attr := range d.Projection {
		if err := ValidateAttributeName(attr); err != nil {
			return Result{}, err
		}
	}

	start := time.Now()
	var res Result
	switch d.Verb {
	case GetItem:
		res, err = b.getItem(ctx, table, d)
	case Query:
		res, err = b.query(ctx, table, d)
	case Scan:
		res, err = b.scan(ctx, table, d)
	case PutItem:
		res, err = b.putItem(ctx, table, d)
	case UpdateItem:
		res, err = b.updateItem(ctx, table, d)
	default:
		err = fmt.Errorf("%w: unsupported operation %q", ErrValidation, d.Verb)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOperationDuration.WithLabelValues(string(table.Name), string(d.Verb), status).
		Observe(time.Since(start).Seconds())

	return res, err
}

func (b *QueryBuilder) getItem(ctx context.Context, table TableSchema, d Descriptor) (Result, error) {
	key, err := primaryKey(table, d.Key)
	if err != nil {
		return Result{}, err
	}

	var (
		item  Item
		found bool
	)
	err = b.call(ctx, table.Name, GetItem, func() error {
		var callErr error
		item, found, callErr = b.store.GetItem(ctx, GetRequest{Table: table, Key: key, Projection: d.Projection})
		return callErr
	})
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{Items: []Item{}}, nil
	}
	return Result{Items: []Item{item}, Count: 1, ScannedCount: 1, Found: true}, nil
}

func (b *QueryBuilder) query(ctx context.Context, table TableSchema, d Descriptor) (Result, error) {
	if d.KeyCondition == nil {
		return Result{}, fmt.Errorf("%w: query requires a key condition", ErrValidation)
	}
	ks, err := table.IndexKey(d.Index)
	if err != nil {
		return Result{}, err
	}
	if err := d.KeyCondition.validate(ks); err != nil {
		return Result{}, err
	}
	filter, err := filterItem(d.Filter)
	if err != nil {
		return Result{}, err
	}
	for _, attr := range ks.Attributes() {
		if filter.Has(attr) {
			return Result{}, fmt.Errorf("%w: key attribute %q cannot be filtered, use the key condition", ErrInvalidQuery, attr)
		}
	}

	req := QueryRequest{
		Table:      table,
		Index:      d.Index,
		KeySchema:  ks,
		Condition:  *d.KeyCondition,
		Filter:     filter,
		Projection: d.Projection,
		Limit:      d.Limit,
		Descending: d.Descending,
	}

	var page Page
	err = b.call(ctx, table.Name, Query, func() error {
		var callErr error
		page, callErr = b.store.Query(ctx, req)
		return callErr
	})
	if err != nil {
		return Result{}, err
	}
	return pageResult(page), nil
}

func (b *QueryBuilder) scan(ctx context.Context, table TableSchema, d Descriptor) (Result, error) {
	filter, err := filterItem(d.Filter)
	if err != nil {
		return Result{}, err
	}

	req := ScanRequest{Table: table, Filter: filter, Projection: d.Projection, Limit: d.Limit}

	var page Page
	err = b.call(ctx, table.Name, Scan, func() error {
		var callErr error
		page, callErr = b.store.Scan(ctx, req)
		return callErr
	})
	if err != nil {
		return Result{}, err
	}
	return pageResult(page), nil
}

func (b *QueryBuilder) putItem(ctx context.Context, table TableSchema, d Descriptor) (Result, error) {
	if len(d.Item) == 0 {
		return Result{}, fmt.Errorf("%w: put_item requires an item", ErrValidation)
	}
	item, err := NewItem(d.Item)
	if err != nil {
		return Result{}, err
	}
	if _, err := primaryKey(table, item.Project(table.Key.Attributes())); err != nil {
		return Result{}, err
	}
	cond, err := normalizeCondition(d.Condition)
	if err != nil {
		return Result{}, err
	}

	err = b.call(ctx, table.Name, PutItem, func() error {
		return b.store.PutItem(ctx, PutRequest{Table: table, Item: item, Condition: cond})
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Items: []Item{item}, Count: 1, Found: true}, nil
}

func (b *QueryBuilder) updateItem(ctx context.Context, table TableSchema, d Descriptor) (Result, error) {
	key, err := primaryKey(table, d.Key)
	if err != nil {
		return Result{}, err
	}
	if len(d.Updates) == 0 {
		return Result{}, fmt.Errorf("%w: update_item requires at least one attribute", ErrValidation)
	}
	updates, err := NewItem(d.Updates)
	if err != nil {
		return Result{}, err
	}
	for attr := range updates {
		if table.IsKeyAttribute(attr) {
			return Result{}, fmt.Errorf("%w: %q", ErrKeyUpdate, attr)
		}
	}
	if d.Condition != nil && d.Condition.IfNotExists {
		return Result{}, fmt.Errorf("%w: update_item condition cannot be if-not-exists", ErrValidation)
	}
	cond, err := normalizeCondition(d.Condition)
	if err != nil {
		return Result{}, err
	}
	updates[AttrUpdatedAt] = FormatTime(b.now())

	req := UpdateRequest{Table: table, Key: key, Updates: updates, Condition: cond}

	var item Item
	err = b.call(ctx, table.Name, UpdateItem, func() error {
		var callErr error
		item, callErr = b.store.UpdateItem(ctx, req)
		return callErr
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Items: []Item{item}, Count: 1, Found: true}, nil
}

func isThrottling(err error) bool {
	return errors.Is(err, ErrThrottling)
}

// call retries throttled store calls and classifies the final error.
func (b *QueryBuilder) call(ctx context.Context, table TableName, verb Verb, fn func() error) error {
	err := retry.Do(ctx, b.retry, isThrottling, func(attempt int) error {
		if attempt > 0 {
			metrics.StoreThrottleRetries.WithLabelValues(string(table), string(verb)).Inc()
			slog.WarnContext(ctx, "Retrying throttled store call",
				"table", table, "operation", verb, "attempt", attempt+1)
		}
		return fn()
	})
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrThrottling),
		errors.Is(err, ErrConditionFailed),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %s %s: %w", ErrPersistence, verb, table, err)
	}
}

func pageResult(p Page) Result {
	items := p.Items
	if items == nil {
		items = []Item{}
	}
	return Result{Items: items, Count: len(items), ScannedCount: p.ScannedCount}
}

// primaryKey checks that key holds exactly the primary key attributes as
// non-empty strings.
func primaryKey(table TableSchema, key map[string]any) (Item, error) {
	attrs := table.Key.Attributes()
	if len(key) != len(attrs) {
		return nil, fmt.Errorf("%w: key must contain exactly %v", ErrValidation, attrs)
	}
	out := make(Item, len(attrs))
	for _, attr := range attrs {
		s, ok := key[attr].(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%w: key attribute %q must be a non-empty string", ErrValidation, attr)
		}
		out[attr] = s
	}
	return out, nil
}

func filterItem(filter map[string]any) (Item, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	return NewItem(filter)
}

func normalizeCondition(c *Condition) (*Condition, error) {
	if c == nil {
		return nil, nil
	}
	if !c.IfNotExists && c.Attribute == "" {
		return nil, fmt.Errorf("%w: empty write condition", ErrValidation)
	}
	out := &Condition{IfNotExists: c.IfNotExists, Attribute: c.Attribute}
	if c.Attribute == "" {
		return out, nil
	}
	if err := ValidateAttributeName(c.Attribute); err != nil {
		return nil, err
	}
	if len(c.OneOf) == 0 {
		return nil, fmt.Errorf("%w: condition on %q needs at least one value", ErrValidation, c.Attribute)
	}
	for _, v := range c.OneOf {
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, err
		}
		out.OneOf = append(out.OneOf, nv)
	}
	return out, nil
}
