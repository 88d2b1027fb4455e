// Package pg implements kv.Store on PostgreSQL. Every table has the same
// shape: partition key, sort key ('' when the table has none) and the item
// as JSONB. Secondary indexes are expression indexes on item attributes.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
	"github.com/anupakum/MCP-Payment-idea/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var _ kv.Store = (*Store)(nil)

// Postgres error codes reported as throttling: serialization_failure,
// deadlock_detected, too_many_connections, lock_not_available,
// cannot_connect_now.
var throttlingCodes = []string{"40001", "40P01", "53300", "55P03", "57P03"}

type Store struct {
	repo
}

func New(pg *postgres.Postgres, tables map[kv.TableName]string) *Store {
	return &Store{repo: repo{db: pg.Pool, builder: pg.Builder, tables: tables}}
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
	tables  map[kv.TableName]string
}

func (r *repo) tableName(name kv.TableName) string {
	if physical, ok := r.tables[name]; ok && physical != "" {
		return physical
	}
	return string(name)
}

func sortValue(ks kv.KeySchema, item kv.Item) string {
	if !ks.HasSortKey() {
		return ""
	}
	return item.String(ks.SortKey)
}

// column returns the SQL expression holding attr for the given key schema.
func column(primary bool, attr string, ks kv.KeySchema) string {
	if primary {
		if attr == ks.PartitionKey {
			return "pk"
		}
		return "sk"
	}
	return fmt.Sprintf("item->>'%s'", attr)
}

func (r *repo) GetItem(ctx context.Context, req kv.GetRequest) (kv.Item, bool, error) {
	query, args, err := r.builder.
		Select("item").
		From(r.tableName(req.Table.Name)).
		Where(squirrel.Eq{"pk": req.Key.String(req.Table.Key.PartitionKey), "sk": sortValue(req.Table.Key, req.Key)}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build get item query: %w", err)
	}

	var raw []byte
	if err := r.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, mapError("get item", err)
	}

	item, err := decodeItem(raw)
	if err != nil {
		return nil, false, err
	}
	return item.Project(req.Projection), true, nil
}

func (r *repo) Query(ctx context.Context, req kv.QueryRequest) (kv.Page, error) {
	primary := req.Index == ""
	ks := req.KeySchema
	kc := req.Condition

	q := r.builder.
		Select("item").
		From(r.tableName(req.Table.Name)).
		Where(squirrel.Eq{column(primary, ks.PartitionKey, ks): kc.PartitionValue})

	direction := "ASC"
	if req.Descending {
		direction = "DESC"
	}

	if ks.HasSortKey() {
		sortCol := column(primary, ks.SortKey, ks)
		if !primary {
			q = q.Where(sortCol + " IS NOT NULL")
		}
		if s := kc.Sort; s != nil {
			switch s.Op {
			case kv.SortEqual:
				q = q.Where(sortCol+" = ?", s.Value)
			case kv.SortBeginsWith:
				q = q.Where("starts_with("+sortCol+", ?)", s.Value)
			case kv.SortBetween:
				q = q.Where(sortCol+" BETWEEN ? AND ?", s.Value, s.Upper)
			}
		}
		q = q.OrderBy(sortCol + " " + direction)
	} else {
		q = q.OrderBy("pk "+direction, "sk "+direction)
	}
	if req.Limit > 0 {
		q = q.Limit(uint64(req.Limit))
	}

	read, err := r.fetch(ctx, "query", q)
	if err != nil {
		return kv.Page{}, err
	}
	return kv.FinishPage(read, req.Filter, req.Projection), nil
}

func (r *repo) Scan(ctx context.Context, req kv.ScanRequest) (kv.Page, error) {
	q := r.builder.
		Select("item").
		From(r.tableName(req.Table.Name)).
		OrderBy("pk", "sk")
	if req.Limit > 0 {
		q = q.Limit(uint64(req.Limit))
	}

	read, err := r.fetch(ctx, "scan", q)
	if err != nil {
		return kv.Page{}, err
	}
	return kv.FinishPage(read, req.Filter, req.Projection), nil
}

func (r *repo) fetch(ctx context.Context, op string, q squirrel.SelectBuilder) ([]kv.Item, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var items []kv.Item
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", op, err)
		}
		item, err := decodeItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return items, nil
}

func (r *repo) PutItem(ctx context.Context, req kv.PutRequest) error {
	doc, err := encodeItem(req.Item)
	if err != nil {
		return err
	}
	table := r.tableName(req.Table.Name)
	pk := req.Item.String(req.Table.Key.PartitionKey)
	sk := sortValue(req.Table.Key, req.Item)

	c := req.Condition
	var (
		query string
		args  []any
	)
	switch {
	case c == nil:
		query, args, err = r.builder.
			Insert(table).
			Columns("pk", "sk", "item").
			Values(pk, sk, doc).
			Suffix("ON CONFLICT (pk, sk) DO UPDATE SET item = EXCLUDED.item").
			ToSql()
	case c.Attribute == "":
		query, args, err = r.builder.
			Insert(table).
			Columns("pk", "sk", "item").
			Values(pk, sk, doc).
			Suffix("ON CONFLICT (pk, sk) DO NOTHING").
			ToSql()
	default:
		in, inArgs, inErr := inClause(table+".item->>'"+c.Attribute+"'", c.OneOf)
		if inErr != nil {
			return inErr
		}
		if c.IfNotExists {
			query, args, err = r.builder.
				Insert(table).
				Columns("pk", "sk", "item").
				Values(pk, sk, doc).
				Suffix("ON CONFLICT (pk, sk) DO UPDATE SET item = EXCLUDED.item WHERE "+in, inArgs...).
				ToSql()
		} else {
			query, args, err = r.builder.
				Update(table).
				Set("item", doc).
				Where(squirrel.Eq{"pk": pk, "sk": sk}).
				Where(in, inArgs...).
				ToSql()
		}
	}
	if err != nil {
		return fmt.Errorf("build put item query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError("put item", err)
	}
	if c != nil && tag.RowsAffected() == 0 {
		return kv.ErrConditionFailed
	}
	return nil
}

func (r *repo) UpdateItem(ctx context.Context, req kv.UpdateRequest) (kv.Item, error) {
	doc, err := encodeItem(req.Updates)
	if err != nil {
		return nil, err
	}

	table := r.tableName(req.Table.Name)
	key := squirrel.Eq{"pk": req.Key.String(req.Table.Key.PartitionKey), "sk": sortValue(req.Table.Key, req.Key)}

	update := r.builder.
		Update(table).
		Set("item", squirrel.Expr("item || ?::jsonb", doc)).
		Where(key)
	if c := req.Condition; c != nil {
		in, inArgs, err := inClause("item->>'"+c.Attribute+"'", c.OneOf)
		if err != nil {
			return nil, err
		}
		update = update.Where(in, inArgs...)
	}
	query, args, err := update.Suffix("RETURNING item").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update item query: %w", err)
	}

	var raw []byte
	if err := r.db.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, mapError("update item", err)
		}
		if req.Condition == nil {
			return nil, kv.ErrNotFound
		}
		return nil, r.missOrConflict(ctx, table, key)
	}
	return decodeItem(raw)
}

// missOrConflict classifies a conditional update that touched no row.
func (r *repo) missOrConflict(ctx context.Context, table string, key squirrel.Eq) error {
	query, args, err := r.builder.
		Select("1").
		From(table).
		Where(key).
		ToSql()
	if err != nil {
		return fmt.Errorf("build item exists query: %w", err)
	}

	var one int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kv.ErrNotFound
		}
		return mapError("update item", err)
	}
	return fmt.Errorf("%w: update item", kv.ErrConditionFailed)
}

func inClause(expr string, values []any) (string, []any, error) {
	args := make([]any, len(values))
	for i, v := range values {
		s, err := textValue(v)
		if err != nil {
			return "", nil, err
		}
		args[i] = s
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return expr + " IN (" + placeholders + ")", args, nil
}

func mapError(op string, err error) error {
	if postgres.HasPgErrorCode(err, throttlingCodes...) {
		return fmt.Errorf("%w: %s: %v", kv.ErrThrottling, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
